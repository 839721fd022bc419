package core

import (
	"context"
	"strings"
)

// Summarizer produces the closing synthesis once a debate terminates.
type Summarizer struct {
	model LanguageModel

	// contextTurns bounds how much history goes into the prompt.
	contextTurns int
}

// NewSummarizer creates a summarizer backed by the given model.
func NewSummarizer(model LanguageModel) *Summarizer {
	return &Summarizer{model: model, contextTurns: 5}
}

// WithContextTurns overrides the history window used in the prompt.
func (s *Summarizer) WithContextTurns(n int) *Summarizer {
	if n > 0 {
		s.contextTurns = n
	}
	return s
}

// Summarize produces a single closing synthesis over the ordered history.
// Fails with ErrGeneration when the model returns nothing usable.
func (s *Summarizer) Summarize(ctx context.Context, state *DebateState) (string, error) {
	if len(state.History) == 0 {
		return "", ErrGeneration("cannot summarize a debate with no turns")
	}
	recent := TailTurns(state.History, s.contextTurns)
	out, err := s.model.Generate(ctx, GenerateRequest{
		Prompt: buildModeratorSummaryPrompt(state.Topic, recent),
	})
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", ErrGeneration("empty summary from model")
	}
	return out, nil
}
