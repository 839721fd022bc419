package ollama

import (
	"context"
	"net/http"
	"time"

	"github.com/agora-ai/agora/internal/config"
	"github.com/agora-ai/agora/internal/core"
	"github.com/agora-ai/agora/internal/logging"
)

// Runtime bundles the per-role model clients behind one Ollama host.
// The original pipeline uses four roles: topic filtering, stance/system
// prompt generation, debating and moderation. They may share a model.
type Runtime struct {
	Filter    *Client
	Prompter  *Client
	Debater   *Client
	Moderator *Client
}

// NewRuntime builds role clients from configuration.
func NewRuntime(cfg config.OllamaConfig, logger *logging.Logger) (*Runtime, error) {
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		return nil, core.ErrState(core.CodeInvalidState, "invalid ollama timeout: "+cfg.Timeout)
	}

	httpClient := &http.Client{}
	mk := func(model string) *Client {
		return NewClient(Config{
			Host:       cfg.Host,
			Model:      model,
			Timeout:    timeout,
			HTTPClient: httpClient,
			Logger:     logger,
		})
	}

	return &Runtime{
		Filter:    mk(cfg.Models.Filter),
		Prompter:  mk(cfg.Models.Prompt),
		Debater:   mk(cfg.Models.Debate),
		Moderator: mk(cfg.Models.Moderator),
	}, nil
}

// Ping checks runtime reachability once; all role clients share the host.
func (r *Runtime) Ping(ctx context.Context) error {
	return r.Debater.Ping(ctx)
}

// Models returns the configured model name per role, deduplicated in order.
func (r *Runtime) Models() []string {
	seen := make(map[string]bool, 4)
	var names []string
	for _, c := range []*Client{r.Filter, r.Prompter, r.Debater, r.Moderator} {
		if !seen[c.Name()] {
			seen[c.Name()] = true
			names = append(names, c.Name())
		}
	}
	return names
}
