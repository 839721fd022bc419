// Package ollama implements the language model port against a local Ollama
// runtime's HTTP API.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/agora-ai/agora/internal/core"
	"github.com/agora-ai/agora/internal/logging"
)

// DefaultTimeout bounds a single generation call when the request carries
// no explicit timeout. Local models on modest hardware can be slow.
const DefaultTimeout = 60 * time.Second

// Config holds client configuration.
type Config struct {
	// Host is the Ollama base URL, e.g. http://localhost:11434.
	Host string

	// Model is the model this client generates with, e.g. "llama3.2".
	Model string

	// Timeout is the default per-call timeout.
	Timeout time.Duration

	// HTTPClient overrides the transport. Used in tests.
	HTTPClient *http.Client

	Logger *logging.Logger
}

// Client calls the Ollama generate API for a single model.
type Client struct {
	host    string
	model   string
	timeout time.Duration
	http    *http.Client
	logger  *logging.Logger
}

// NewClient creates a client for one model.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Client{
		host:    strings.TrimRight(cfg.Host, "/"),
		model:   cfg.Model,
		timeout: timeout,
		http:    httpClient,
		logger:  logger.WithModel(cfg.Model),
	}
}

// Name returns the backing model identifier.
func (c *Client) Name() string {
	return c.model
}

// generateRequest is the Ollama /api/generate request body.
type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	System string `json:"system,omitempty"`
	Stream bool   `json:"stream"`
}

// generateResponse is the subset of the Ollama response we use.
type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error"`
}

// Generate runs a prompt against /api/generate and returns the text.
func (c *Client) Generate(ctx context.Context, req core.GenerateRequest) (string, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: req.Prompt,
		System: req.System,
		Stream: false,
	})
	if err != nil {
		return "", core.ErrGeneration("encoding generate request").WithCause(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", core.ErrGeneration("building generate request").WithCause(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", c.mapTransportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", c.mapTransportError(err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", c.mapStatusError(resp.StatusCode, data)
	}

	var gen generateResponse
	if err := json.Unmarshal(data, &gen); err != nil {
		return "", core.ErrGeneration("malformed runtime response").WithCause(err)
	}
	if gen.Error != "" {
		return "", core.ErrGeneration(gen.Error)
	}

	text := strings.TrimSpace(gen.Response)
	if text == "" {
		return "", core.ErrGeneration("model returned empty response")
	}

	c.logger.Debug("generate complete",
		"duration", time.Since(start).Round(time.Millisecond).String(),
		"chars", len(text))
	return text, nil
}

// tagsResponse is the Ollama /api/tags response.
type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Ping checks that the runtime answers /api/tags.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.ListModels(ctx)
	return err
}

// ListModels returns the model names installed on the runtime.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host+"/api/tags", nil)
	if err != nil {
		return nil, core.ErrUnavailable("building tags request").WithCause(err)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, c.mapTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, core.ErrUnavailable(fmt.Sprintf("runtime returned status %d", resp.StatusCode))
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, core.ErrUnavailable("malformed tags response").WithCause(err)
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// mapTransportError classifies network-level failures into the domain taxonomy.
func (c *Client) mapTransportError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return core.ErrTimeout("model call timed out").WithCause(err).WithDetail("model", c.model)
	case errors.Is(err, context.Canceled):
		return core.ErrTimeout("model call cancelled").WithCause(err).WithDetail("model", c.model)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return core.ErrTimeout("model call timed out").WithCause(err).WithDetail("model", c.model)
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return core.ErrTimeout("model call timed out").WithCause(err).WithDetail("model", c.model)
	}

	return core.ErrUnavailable("model runtime unreachable").WithCause(err).WithDetail("host", c.host)
}

func (c *Client) mapStatusError(status int, body []byte) error {
	// Ollama reports unknown models and bad requests as JSON {"error": "..."}
	var payload struct {
		Error string `json:"error"`
	}
	msg := fmt.Sprintf("runtime returned status %d", status)
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		msg = payload.Error
	}

	if status >= 500 {
		return core.ErrUnavailable(msg).WithDetail("status", status)
	}
	return core.ErrGeneration(msg).WithDetail("status", status).WithDetail("model", c.model)
}
