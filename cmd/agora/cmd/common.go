package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/agora-ai/agora/internal/adapters/guard"
	"github.com/agora-ai/agora/internal/adapters/ollama"
	"github.com/agora-ai/agora/internal/adapters/store"
	"github.com/agora-ai/agora/internal/config"
	"github.com/agora-ai/agora/internal/core"
	"github.com/agora-ai/agora/internal/logging"
)

// newLogger builds the process logger from the global flags.
func newLogger() *logging.Logger {
	level := logLevel
	if quiet {
		level = "error"
	}
	format := logFormat
	if noColor && format == "auto" {
		format = "text"
	}
	return logging.New(logging.Config{
		Level:  level,
		Format: format,
		Output: os.Stderr,
	})
}

// loadConfig loads and validates the effective configuration.
func loadConfig() (*config.Config, error) {
	loader := config.NewLoaderWithViper(viper.GetViper())
	if cfgFile != "" {
		loader.WithConfigFile(cfgFile)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// buildEngine assembles the full debate engine from configuration: one
// Ollama client per model role, the content guard, the moderator policy
// and the scheduler.
func buildEngine(cfg *config.Config, logger *logging.Logger) (*core.Scheduler, *ollama.Runtime, error) {
	runtime, err := ollama.NewRuntime(cfg.Ollama, logger)
	if err != nil {
		return nil, nil, err
	}

	contentGuard := guard.New(runtime.Filter, logger)
	policy := core.NewModelPolicy(runtime.Moderator, contentGuard, core.ModeratorConfig{
		Trigger:      core.TriggerMode(cfg.Debate.Moderator.Trigger),
		Cadence:      cfg.Debate.Moderator.Cadence,
		ContextTurns: cfg.Debate.Moderator.ContextTurns,
	})
	summarizer := core.NewSummarizer(runtime.Moderator).WithContextTurns(cfg.Debate.SummaryTurns)

	callTimeout, err := time.ParseDuration(cfg.Ollama.Timeout)
	if err != nil {
		callTimeout = 0 // scheduler default applies
	}

	scheduler := core.NewScheduler(runtime.Prompter, runtime.Debater, summarizer,
		core.WithGuard(contentGuard),
		core.WithPolicy(policy),
		core.WithSchedulerLogger(logger.Logger),
		core.WithSchedulerConfig(core.SchedulerConfig{
			MaxRounds:    cfg.Debate.MaxRounds,
			ContextTurns: cfg.Debate.ContextTurns,
			SummaryTurns: cfg.Debate.SummaryTurns,
			CallTimeout:  callTimeout,
		}),
	)
	return scheduler, runtime, nil
}

// buildStore opens the configured persistence backend.
func buildStore(cfg *config.Config) (core.DebateStore, error) {
	s, err := store.New(cfg.State)
	if err != nil {
		return nil, fmt.Errorf("opening debate store: %w", err)
	}
	return s, nil
}
