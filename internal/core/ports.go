package core

import (
	"context"
	"time"
)

// =============================================================================
// Language model port
// =============================================================================

// GenerateRequest describes one generation call against the model runtime.
type GenerateRequest struct {
	// Prompt is the user-visible instruction.
	Prompt string

	// System is an optional system prompt framing the persona.
	System string

	// Timeout bounds the call. Zero means the adapter default.
	Timeout time.Duration
}

// LanguageModel is the contract for text generation backends.
// Implementations may be slow or fail; callers own retry policy.
type LanguageModel interface {
	// Name returns the backing model identifier (e.g. "llama3.2:3b").
	Name() string

	// Ping checks if the model runtime is reachable.
	Ping(ctx context.Context) error

	// Generate runs a prompt and returns the generated text.
	// Fails with ErrUnavailable, ErrTimeout or ErrGeneration.
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// =============================================================================
// Content guard port
// =============================================================================

// TopicCheck is the outcome of screening a proposed topic.
type TopicCheck struct {
	Accepted bool
	Reason   string
}

// ArgumentCheck is the outcome of screening an in-progress argument.
type ArgumentCheck struct {
	OK     bool
	Reason string
}

// ContentGuard screens topics before a debate starts and arguments while it
// runs. Topic screening is fail-closed; argument screening is best-effort.
type ContentGuard interface {
	CheckTopic(ctx context.Context, topic string) (TopicCheck, error)
	CheckArgument(ctx context.Context, text string) (ArgumentCheck, error)
}

// =============================================================================
// Persistence port
// =============================================================================

// DebateStore persists debate state between driver requests.
type DebateStore interface {
	// Save persists the state, replacing any previous version.
	Save(ctx context.Context, state *DebateState) error

	// Load retrieves a debate by ID. Fails with a not_found DomainError
	// when no such debate exists.
	Load(ctx context.Context, id string) (*DebateState, error)

	// List returns all persisted debates, most recently updated first.
	List(ctx context.Context) ([]*DebateState, error)

	// Delete removes a debate. Deleting an unknown ID is not an error.
	Delete(ctx context.Context, id string) error
}
