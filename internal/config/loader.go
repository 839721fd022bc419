package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader handles configuration loading from multiple sources.
type Loader struct {
	v          *viper.Viper
	configFile string
	envPrefix  string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		v:         viper.New(),
		envPrefix: "AGORA",
	}
}

// NewLoaderWithViper creates a loader using an existing viper instance.
// This allows integration with CLI flag bindings.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	return &Loader{
		v:         v,
		envPrefix: "AGORA",
	}
}

// WithConfigFile sets an explicit config file path.
func (l *Loader) WithConfigFile(path string) *Loader {
	l.configFile = path
	return l
}

// WithEnvPrefix sets the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// Viper returns the underlying viper instance for flag binding.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// Load loads configuration from all sources.
// Precedence (highest to lowest):
// 1. CLI flags (set via viper.BindPFlag)
// 2. Environment variables (AGORA_*)
// 3. Project config (.agora/config.yaml in current directory)
// 4. User config (~/.config/agora/config.yaml)
// 5. Defaults
func (l *Loader) Load() (*Config, error) {
	l.setDefaults()

	l.v.SetEnvPrefix(l.envPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	} else {
		l.v.SetConfigName("config")
		l.v.SetConfigType("yaml")

		// Project config takes precedence over user config
		l.v.AddConfigPath(".agora")
		if home, err := os.UserHomeDir(); err == nil {
			l.v.AddConfigPath(filepath.Join(home, ".config", "agora"))
		}
	}

	// Read config file (ignore not found)
	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values.
func (l *Loader) setDefaults() {
	// Log defaults
	l.v.SetDefault("log.level", "info")
	l.v.SetDefault("log.format", "auto")

	// Ollama defaults
	l.v.SetDefault("ollama.host", "http://localhost:11434")
	l.v.SetDefault("ollama.timeout", "60s")
	l.v.SetDefault("ollama.models.filter", "llama3.2")
	l.v.SetDefault("ollama.models.prompt", "llama3.2")
	l.v.SetDefault("ollama.models.debate", "llama3.2")
	l.v.SetDefault("ollama.models.moderator", "llama3.2")

	// Debate defaults
	l.v.SetDefault("debate.max_rounds", 6)
	l.v.SetDefault("debate.context_turns", 3)
	l.v.SetDefault("debate.summary_turns", 5)
	l.v.SetDefault("debate.moderator.trigger", "both")
	l.v.SetDefault("debate.moderator.cadence", 3)
	l.v.SetDefault("debate.moderator.context_turns", 3)

	// State defaults (unified under .agora/)
	l.v.SetDefault("state.backend", "json")
	l.v.SetDefault("state.dir", ".agora/debates")
	l.v.SetDefault("state.dsn", ".agora/agora.db")

	// Server defaults
	l.v.SetDefault("server.host", "127.0.0.1")
	l.v.SetDefault("server.port", 8080)
	l.v.SetDefault("server.cors_origins", []string{"http://localhost:5173"})
	l.v.SetDefault("server.request_timeout", "5m")
	l.v.SetDefault("server.shutdown_timeout", "10s")
}

// ConfigFile returns the config file path if one was used.
func (l *Loader) ConfigFile() string {
	return l.v.ConfigFileUsed()
}

// Get returns a configuration value by key.
func (l *Loader) Get(key string) interface{} {
	return l.v.Get(key)
}

// Set sets a configuration value.
func (l *Loader) Set(key string, value interface{}) {
	l.v.Set(key, value)
}

// IsSet checks if a key has been set.
func (l *Loader) IsSet(key string) bool {
	return l.v.IsSet(key)
}

// AllSettings returns all settings as a map.
func (l *Loader) AllSettings() map[string]interface{} {
	return l.v.AllSettings()
}
