package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/agora-ai/agora/internal/core"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation: %s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects multiple validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// Validate validates the entire configuration.
func (v *Validator) Validate(cfg *Config) error {
	v.validateLog(&cfg.Log)
	v.validateOllama(&cfg.Ollama)
	v.validateDebate(&cfg.Debate)
	v.validateState(&cfg.State)
	v.validateServer(&cfg.Server)

	if len(v.errors) > 0 {
		return v.errors
	}
	return nil
}

// Errors returns the collected validation errors.
func (v *Validator) Errors() ValidationErrors {
	return v.errors
}

func (v *Validator) addError(field string, value interface{}, msg string) {
	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Value:   value,
		Message: msg,
	})
}

func (v *Validator) validateLog(cfg *LogConfig) {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[cfg.Level] {
		v.addError("log.level", cfg.Level, "must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"auto": true, "text": true, "json": true,
	}
	if !validFormats[cfg.Format] {
		v.addError("log.format", cfg.Format, "must be one of: auto, text, json")
	}

	if cfg.File != "" && !isValidPath(cfg.File) {
		v.addError("log.file", cfg.File, "invalid file path")
	}
}

func (v *Validator) validateOllama(cfg *OllamaConfig) {
	if cfg.Host == "" {
		v.addError("ollama.host", cfg.Host, "host required")
	} else if u, err := url.Parse(cfg.Host); err != nil || u.Scheme == "" || u.Host == "" {
		v.addError("ollama.host", cfg.Host, "must be a valid URL (e.g. http://localhost:11434)")
	}

	if _, err := time.ParseDuration(cfg.Timeout); err != nil {
		v.addError("ollama.timeout", cfg.Timeout, "invalid duration format")
	}

	for field, model := range map[string]string{
		"ollama.models.filter":    cfg.Models.Filter,
		"ollama.models.prompt":    cfg.Models.Prompt,
		"ollama.models.debate":    cfg.Models.Debate,
		"ollama.models.moderator": cfg.Models.Moderator,
	} {
		if strings.TrimSpace(model) == "" {
			v.addError(field, model, "model name required")
		}
	}
}

func (v *Validator) validateDebate(cfg *DebateConfig) {
	if cfg.MaxRounds <= 0 || cfg.MaxRounds > 100 {
		v.addError("debate.max_rounds", cfg.MaxRounds, "must be between 1 and 100")
	}

	if cfg.ContextTurns <= 0 {
		v.addError("debate.context_turns", cfg.ContextTurns, "must be positive")
	}

	if cfg.SummaryTurns <= 0 {
		v.addError("debate.summary_turns", cfg.SummaryTurns, "must be positive")
	}

	if !core.ValidTriggerMode(core.TriggerMode(cfg.Moderator.Trigger)) {
		v.addError("debate.moderator.trigger", cfg.Moderator.Trigger, "must be one of: cadence, content, both, off")
	}

	if cfg.Moderator.Cadence <= 0 {
		v.addError("debate.moderator.cadence", cfg.Moderator.Cadence, "must be positive")
	}

	if cfg.Moderator.ContextTurns <= 0 {
		v.addError("debate.moderator.context_turns", cfg.Moderator.ContextTurns, "must be positive")
	}
}

func (v *Validator) validateState(cfg *StateConfig) {
	validBackends := map[string]bool{
		"json": true, "sqlite": true,
	}
	if !validBackends[cfg.Backend] {
		v.addError("state.backend", cfg.Backend, "must be one of: json, sqlite")
	}

	switch cfg.Backend {
	case "json":
		if cfg.Dir == "" {
			v.addError("state.dir", cfg.Dir, "directory required for json backend")
		}
	case "sqlite":
		if cfg.DSN == "" {
			v.addError("state.dsn", cfg.DSN, "database path required for sqlite backend")
		}
	}
}

func (v *Validator) validateServer(cfg *ServerConfig) {
	if cfg.Host == "" {
		v.addError("server.host", cfg.Host, "host required")
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		v.addError("server.port", cfg.Port, "must be between 1 and 65535")
	}

	if _, err := time.ParseDuration(cfg.RequestTimeout); err != nil {
		v.addError("server.request_timeout", cfg.RequestTimeout, "invalid duration format")
	}

	if _, err := time.ParseDuration(cfg.ShutdownTimeout); err != nil {
		v.addError("server.shutdown_timeout", cfg.ShutdownTimeout, "invalid duration format")
	}
}

func isValidPath(path string) bool {
	dir := filepath.Dir(path)
	_, err := os.Stat(dir)
	return err == nil || os.IsNotExist(err)
}

// ValidateConfig is a convenience function that creates a validator and validates config.
func ValidateConfig(cfg *Config) error {
	v := NewValidator()
	return v.Validate(cfg)
}
