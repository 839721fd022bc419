package config

// Config holds all application configuration.
type Config struct {
	Log    LogConfig    `mapstructure:"log"`
	Ollama OllamaConfig `mapstructure:"ollama"`
	Debate DebateConfig `mapstructure:"debate"`
	State  StateConfig  `mapstructure:"state"`
	Server ServerConfig `mapstructure:"server"`
}

// LogConfig configures logging behavior.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// OllamaConfig configures the local model runtime.
type OllamaConfig struct {
	Host    string     `mapstructure:"host"`
	Timeout string     `mapstructure:"timeout"`
	Models  ModelRoles `mapstructure:"models"`
}

// ModelRoles maps each pipeline role to an Ollama model name.
type ModelRoles struct {
	Filter    string `mapstructure:"filter"`
	Prompt    string `mapstructure:"prompt"`
	Debate    string `mapstructure:"debate"`
	Moderator string `mapstructure:"moderator"`
}

// DebateConfig configures debate execution.
type DebateConfig struct {
	MaxRounds    int             `mapstructure:"max_rounds"`
	ContextTurns int             `mapstructure:"context_turns"`
	SummaryTurns int             `mapstructure:"summary_turns"`
	Moderator    ModeratorConfig `mapstructure:"moderator"`
}

// ModeratorConfig configures moderator intervention triggers.
type ModeratorConfig struct {
	Trigger      string `mapstructure:"trigger"` // cadence, content, both, off
	Cadence      int    `mapstructure:"cadence"`
	ContextTurns int    `mapstructure:"context_turns"`
}

// StateConfig configures debate persistence.
type StateConfig struct {
	Backend string `mapstructure:"backend"` // json or sqlite
	Dir     string `mapstructure:"dir"`     // json backend: one file per debate
	DSN     string `mapstructure:"dsn"`     // sqlite backend: database file
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Host            string   `mapstructure:"host"`
	Port            int      `mapstructure:"port"`
	CORSOrigins     []string `mapstructure:"cors_origins"`
	RequestTimeout  string   `mapstructure:"request_timeout"`
	ShutdownTimeout string   `mapstructure:"shutdown_timeout"`
}
