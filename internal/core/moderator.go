package core

import (
	"context"
	"encoding/json"
	"strings"
)

// DecisionKind tags the moderator's verdict. Illegal combinations are
// unrepresentable: a decision is exactly one of the three kinds.
type DecisionKind string

const (
	// DecisionContinue lets the round proceed silently.
	DecisionContinue DecisionKind = "continue"

	// DecisionSummary interrupts the round with a neutral recap.
	// No argument is produced and the round counter does not move.
	DecisionSummary DecisionKind = "intervene_summary"

	// DecisionCorrection issues a correction notice and forces the next
	// argument, optionally reassigning the floor.
	DecisionCorrection DecisionKind = "intervene_correction"
)

// Decision is the moderator's verdict for one round. The moderator never
// fabricates arguments on behalf of a side: it may only summarize, warn,
// or reassign the floor.
type Decision struct {
	Kind DecisionKind

	// Summary carries the recap text for DecisionSummary.
	Summary string

	// Message carries the correction notice for DecisionCorrection.
	Message string

	// CorrectedSide optionally reassigns the floor for DecisionCorrection.
	// Empty keeps the scheduled side.
	CorrectedSide Side
}

// Continue is the zero-effect decision.
func Continue() Decision {
	return Decision{Kind: DecisionContinue}
}

// ModeratorPolicy evaluates the current state before a round runs.
// Policy failures must degrade to continue: moderation is best-effort and
// never blocks debate progress.
type ModeratorPolicy interface {
	Evaluate(ctx context.Context, state *DebateState) (Decision, error)
}

// ArgumentEvaluator is an optional extension: policies that can grade a
// freshly produced argument implement it. Grades are advisory only.
type ArgumentEvaluator interface {
	EvaluateArgument(ctx context.Context, state *DebateState, turn Turn) (*Evaluation, error)
}

// Evaluation is the moderator's advisory grade for one argument.
type Evaluation struct {
	OnTopic  bool   `json:"is_on_topic"`
	Circular bool   `json:"is_circular"`
	Logical  bool   `json:"is_logical"`
	Feedback string `json:"feedback"`
}

// TriggerMode selects when the moderator is consulted.
type TriggerMode string

const (
	// TriggerCadence consults the moderator model every N completed rounds.
	TriggerCadence TriggerMode = "cadence"

	// TriggerContent consults the content guard on the latest argument.
	TriggerContent TriggerMode = "content"

	// TriggerBoth applies the content check first, then the cadence check.
	TriggerBoth TriggerMode = "both"

	// TriggerOff disables moderation entirely.
	TriggerOff TriggerMode = "off"
)

// ValidTriggerMode checks if a trigger mode string is valid.
func ValidTriggerMode(m TriggerMode) bool {
	switch m {
	case TriggerCadence, TriggerContent, TriggerBoth, TriggerOff:
		return true
	default:
		return false
	}
}

// ModeratorConfig configures the model-backed policy.
type ModeratorConfig struct {
	Trigger TriggerMode

	// Cadence is the round interval for cadence checks.
	Cadence int

	// ContextTurns bounds how much history the moderator model sees.
	ContextTurns int
}

// DefaultModeratorConfig returns the default moderation settings.
func DefaultModeratorConfig() ModeratorConfig {
	return ModeratorConfig{
		Trigger:      TriggerBoth,
		Cadence:      3,
		ContextTurns: 3,
	}
}

// ModelPolicy is a ModeratorPolicy backed by a moderator model and the
// content guard.
type ModelPolicy struct {
	model LanguageModel
	guard ContentGuard
	cfg   ModeratorConfig
}

// NewModelPolicy creates a model-backed moderator policy.
func NewModelPolicy(model LanguageModel, guard ContentGuard, cfg ModeratorConfig) *ModelPolicy {
	if cfg.Cadence <= 0 {
		cfg.Cadence = DefaultModeratorConfig().Cadence
	}
	if cfg.ContextTurns <= 0 {
		cfg.ContextTurns = DefaultModeratorConfig().ContextTurns
	}
	if !ValidTriggerMode(cfg.Trigger) {
		cfg.Trigger = TriggerBoth
	}
	return &ModelPolicy{model: model, guard: guard, cfg: cfg}
}

// Evaluate decides whether to interrupt the upcoming round. Any failure in
// the guard or the moderator model degrades to continue.
func (p *ModelPolicy) Evaluate(ctx context.Context, state *DebateState) (Decision, error) {
	if p.cfg.Trigger == TriggerOff || len(state.History) == 0 {
		return Continue(), nil
	}

	// Never intervene twice in a row: after a moderator turn the debaters
	// get the floor back before the moderator is consulted again.
	if last := state.History[len(state.History)-1]; !last.IsArgument() {
		return Continue(), nil
	}

	if p.cfg.Trigger == TriggerContent || p.cfg.Trigger == TriggerBoth {
		if d, ok := p.contentDecision(ctx, state); ok {
			return d, nil
		}
	}

	if p.cfg.Trigger == TriggerCadence || p.cfg.Trigger == TriggerBoth {
		if d, ok := p.cadenceDecision(ctx, state); ok {
			return d, nil
		}
	}

	return Continue(), nil
}

// contentDecision flags the latest argument via the content guard.
// Guard failures report ok, so errors fall through to continue.
func (p *ModelPolicy) contentDecision(ctx context.Context, state *DebateState) (Decision, bool) {
	if p.guard == nil {
		return Decision{}, false
	}
	last, ok := LastArgument(state.History)
	if !ok {
		return Decision{}, false
	}
	check, err := p.guard.CheckArgument(ctx, last.Text)
	if err != nil || check.OK {
		return Decision{}, false
	}
	reason := check.Reason
	if reason == "" {
		reason = "the previous argument drifted from constructive debate"
	}
	return Decision{
		Kind:          DecisionCorrection,
		Message:       "Moderator note: " + reason + ". Please restate your point.",
		CorrectedSide: last.Side,
	}, true
}

// cadenceDecision asks the moderator model every N completed rounds whether
// a recap is due, and produces the recap when it says yes.
func (p *ModelPolicy) cadenceDecision(ctx context.Context, state *DebateState) (Decision, bool) {
	if state.RoundCount == 0 || state.RoundCount%p.cfg.Cadence != 0 {
		return Decision{}, false
	}

	recent := TailTurns(state.History, p.cfg.ContextTurns)
	verdict, err := p.model.Generate(ctx, GenerateRequest{
		Prompt: buildInterventionPrompt(state.Topic, recent),
	})
	if err != nil || !parseBoolVerdict(verdict) {
		return Decision{}, false
	}

	summary, err := p.model.Generate(ctx, GenerateRequest{
		Prompt: buildModeratorSummaryPrompt(state.Topic, TailTurns(state.History, 5)),
	})
	if err != nil || strings.TrimSpace(summary) == "" {
		return Decision{}, false
	}

	return Decision{Kind: DecisionSummary, Summary: strings.TrimSpace(summary)}, true
}

// EvaluateArgument grades a freshly appended argument. Advisory only:
// callers must ignore failures.
func (p *ModelPolicy) EvaluateArgument(ctx context.Context, state *DebateState, turn Turn) (*Evaluation, error) {
	recent := TailTurns(state.History, p.cfg.ContextTurns)
	raw, err := p.model.Generate(ctx, GenerateRequest{
		Prompt: buildEvaluationPrompt(state.Topic, turn.Text, recent),
	})
	if err != nil {
		return nil, err
	}
	return parseEvaluation(raw)
}

// parseBoolVerdict interprets a true/false-with-reason model answer.
// "true" anywhere before "false" wins; everything else is a no.
func parseBoolVerdict(raw string) bool {
	lower := strings.ToLower(raw)
	trueIdx := strings.Index(lower, "true")
	falseIdx := strings.Index(lower, "false")
	if trueIdx < 0 {
		return false
	}
	return falseIdx < 0 || trueIdx < falseIdx
}

// parseEvaluation extracts the JSON grade from raw model output, tolerating
// prose around the object.
func parseEvaluation(raw string) (*Evaluation, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, ErrGeneration("evaluation response contained no JSON object")
	}
	var ev Evaluation
	if err := json.Unmarshal([]byte(raw[start:end+1]), &ev); err != nil {
		return nil, ErrGeneration("unparseable evaluation response").WithCause(err)
	}
	return &ev, nil
}

var (
	_ ModeratorPolicy   = (*ModelPolicy)(nil)
	_ ArgumentEvaluator = (*ModelPolicy)(nil)
)
