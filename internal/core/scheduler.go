package core

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// RoundOutcome tags the result of one advance call. The driver's display
// logic branches on it, so the shape is part of the engine contract.
type RoundOutcome string

const (
	// OutcomeAdvanced means a normal argument turn was produced.
	OutcomeAdvanced RoundOutcome = "advanced"

	// OutcomeIntervention means the moderator interrupted. Messages holds
	// the moderator turns; Turn is set when a corrected argument followed.
	OutcomeIntervention RoundOutcome = "moderator_intervention"

	// OutcomeClosed means the round cap was reached and the debate
	// terminated with a closing summary instead of a new argument.
	OutcomeClosed RoundOutcome = "closed"
)

// RoundResult is the discriminated result of one AdvanceRound call.
type RoundResult struct {
	Outcome RoundOutcome `json:"outcome"`

	// Turn is the argument produced this call (advanced, or the forced
	// argument after a correction).
	Turn *Turn `json:"turn,omitempty"`

	// Messages holds moderator turns appended this call.
	Messages []Turn `json:"messages,omitempty"`

	// Evaluation is the moderator's advisory grade of Turn, when available.
	Evaluation *Evaluation `json:"evaluation,omitempty"`

	// Summary is the closing synthesis for OutcomeClosed.
	Summary string `json:"summary,omitempty"`

	// NextSide is the side holding the floor after this call.
	NextSide Side `json:"next_side,omitempty"`
}

// SchedulerConfig bounds the debate loop.
type SchedulerConfig struct {
	// MaxRounds caps completed argument exchanges. The cap is checked on
	// entry, never mid-round.
	MaxRounds int

	// ContextTurns bounds the history window fed to the debater model.
	ContextTurns int

	// SummaryTurns bounds the history window fed to the summarizer.
	SummaryTurns int

	// CallTimeout bounds each model call.
	CallTimeout time.Duration
}

// DefaultSchedulerConfig returns the default loop settings.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		MaxRounds:    6,
		ContextTurns: 3,
		SummaryTurns: 5,
		CallTimeout:  60 * time.Second,
	}
}

// Scheduler is the single-threaded control loop driving one debate at a
// time. It exclusively owns the mutable DebateState passed into its methods;
// callers must serialize calls per debate instance.
type Scheduler struct {
	prompter   LanguageModel
	debater    LanguageModel
	guard      ContentGuard
	policy     ModeratorPolicy
	summarizer *Summarizer
	logger     *slog.Logger
	cfg        SchedulerConfig
}

// SchedulerOption configures the scheduler.
type SchedulerOption func(*Scheduler)

// WithSchedulerConfig overrides the loop settings.
func WithSchedulerConfig(cfg SchedulerConfig) SchedulerOption {
	return func(s *Scheduler) {
		if cfg.MaxRounds > 0 {
			s.cfg.MaxRounds = cfg.MaxRounds
		}
		if cfg.ContextTurns > 0 {
			s.cfg.ContextTurns = cfg.ContextTurns
		}
		if cfg.SummaryTurns > 0 {
			s.cfg.SummaryTurns = cfg.SummaryTurns
		}
		if cfg.CallTimeout > 0 {
			s.cfg.CallTimeout = cfg.CallTimeout
		}
	}
}

// WithGuard sets the content guard used for topic screening.
func WithGuard(guard ContentGuard) SchedulerOption {
	return func(s *Scheduler) { s.guard = guard }
}

// WithPolicy sets the moderator policy. Without one, rounds run unmoderated.
func WithPolicy(policy ModeratorPolicy) SchedulerOption {
	return func(s *Scheduler) { s.policy = policy }
}

// WithSchedulerLogger sets the scheduler logger.
func WithSchedulerLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) { s.logger = logger }
}

// NewScheduler creates a scheduler. prompter handles stance and system
// prompt generation, debater produces arguments, summarizer closes debates.
func NewScheduler(prompter, debater LanguageModel, summarizer *Summarizer, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		prompter:   prompter,
		debater:    debater,
		summarizer: summarizer,
		logger:     slog.Default(),
		cfg:        DefaultSchedulerConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the effective loop settings.
func (s *Scheduler) Config() SchedulerConfig {
	return s.cfg
}

// StartDebate validates the topic, derives the opposing stances and returns
// a fresh DebateState. Any failure aborts creation entirely: no partial
// state is left behind.
func (s *Scheduler) StartDebate(ctx context.Context, topic string) (*DebateState, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, ErrInvalidTopic("please provide a debate topic").WithDetail("code", CodeEmptyTopic)
	}
	if len(topic) > MaxTopicLength {
		return nil, ErrInvalidTopic("topic too long").WithDetail("code", CodeTopicTooLong)
	}

	if s.guard != nil {
		check, err := s.guard.CheckTopic(ctx, topic)
		if err != nil {
			// Screening fails closed: an unverifiable topic is a
			// rejected topic.
			return nil, ErrInvalidTopic("unable to verify topic appropriateness").WithCause(err)
		}
		if !check.Accepted {
			reason := check.Reason
			if reason == "" {
				reason = "topic is not appropriate for debate"
			}
			return nil, ErrInvalidTopic(reason)
		}
	}

	stance, err := s.generateStances(ctx, topic)
	if err != nil {
		return nil, err
	}

	// The two system prompts are independent of each other, so they can
	// safely run concurrently. Rounds themselves never can.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sp, err := s.generateSystemPrompt(gctx, stance.For, topic)
		if err == nil {
			stance.ForSystem = sp
		}
		return err
	})
	g.Go(func() error {
		sp, err := s.generateSystemPrompt(gctx, stance.Against, topic)
		if err == nil {
			stance.AgainstSystem = sp
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := time.Now()
	state := &DebateState{
		ID:          uuid.NewString(),
		Topic:       topic,
		Stance:      stance,
		History:     []Turn{},
		CurrentSide: SideFor,
		RoundCount:  0,
		MaxRounds:   s.cfg.MaxRounds,
		Active:      true,
		Phase:       PhaseRunning,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.logger.Info("debate started",
		slog.String("debate_id", state.ID),
		slog.String("topic", topic),
	)
	return state, nil
}

// AdvanceRound runs one tick of the turn state machine. On model failure
// the state is left byte-identical to its pre-call value and the debate
// stays active, so the caller may simply retry.
func (s *Scheduler) AdvanceRound(ctx context.Context, state *DebateState) (*RoundResult, error) {
	if !state.Active {
		return nil, ErrState(CodeDebateClosed, "debate already terminated")
	}

	// Cap is checked on entry, not mid-round: the final round executes
	// fully and the following call observes the cap.
	if state.RoundCount >= state.MaxRounds {
		return s.close(ctx, state)
	}

	decision := s.consultModerator(ctx, state)

	switch decision.Kind {
	case DecisionSummary:
		note := state.appendModeratorNote(TurnModeratorNote, decision.Summary)
		return &RoundResult{
			Outcome:  OutcomeIntervention,
			Messages: []Turn{note},
			NextSide: state.CurrentSide,
		}, nil

	case DecisionCorrection:
		side := state.CurrentSide
		if decision.CorrectedSide.IsDebater() {
			side = decision.CorrectedSide
		}
		// Generate before mutating so a failed call leaves no trace.
		text, err := s.generateArgument(ctx, state, side)
		if err != nil {
			return nil, err
		}
		note := state.appendModeratorNote(TurnModeratorNote, decision.Message)
		state.CurrentSide = side
		turn := state.appendArgument(side, text)
		return &RoundResult{
			Outcome:  OutcomeIntervention,
			Turn:     &turn,
			Messages: []Turn{note},
			NextSide: state.CurrentSide,
		}, nil

	default:
		side := state.CurrentSide
		text, err := s.generateArgument(ctx, state, side)
		if err != nil {
			return nil, err
		}
		turn := state.appendArgument(side, text)
		result := &RoundResult{
			Outcome:  OutcomeAdvanced,
			Turn:     &turn,
			NextSide: state.CurrentSide,
		}
		result.Evaluation = s.evaluateArgument(ctx, state, turn)
		return result, nil
	}
}

// Finalize terminates the debate (if still active) and appends exactly one
// closing summary. A failed summary leaves the debate terminated; callers
// may retry Finalize but completed rounds are never re-run.
func (s *Scheduler) Finalize(ctx context.Context, state *DebateState) (string, error) {
	if state.FinalSummary != "" {
		return state.FinalSummary, nil
	}

	state.terminate()

	summary, err := s.summarizer.Summarize(ctx, state)
	if err != nil {
		return "", err
	}

	state.appendModeratorNote(TurnClosingSummary, summary)
	state.FinalSummary = summary

	s.logger.Info("debate closed",
		slog.String("debate_id", state.ID),
		slog.Int("rounds", state.RoundCount),
	)
	return summary, nil
}

// close handles the terminal transition when the cap is observed on entry.
func (s *Scheduler) close(ctx context.Context, state *DebateState) (*RoundResult, error) {
	summary, err := s.Finalize(ctx, state)
	if err != nil {
		// Already terminated; the summary can be retried via Finalize.
		return nil, err
	}
	return &RoundResult{Outcome: OutcomeClosed, Summary: summary}, nil
}

// consultModerator wraps the policy. Evaluation failures are swallowed:
// moderation is never allowed to block progress.
func (s *Scheduler) consultModerator(ctx context.Context, state *DebateState) Decision {
	if s.policy == nil {
		return Continue()
	}
	prev := state.Phase
	state.Phase = PhaseModerating
	defer func() { state.Phase = prev }()

	decision, err := s.policy.Evaluate(ctx, state)
	if err != nil {
		s.logger.Warn("moderator evaluation failed, continuing",
			slog.String("debate_id", state.ID),
			slog.String("error", err.Error()),
		)
		return Continue()
	}
	return decision
}

func (s *Scheduler) generateArgument(ctx context.Context, state *DebateState, side Side) (string, error) {
	recent := TailTurns(state.History, s.cfg.ContextTurns)
	prompt := buildArgumentPrompt(state.Topic, state.Stance.Position(side), side, recent)
	text, err := s.debater.Generate(ctx, GenerateRequest{
		Prompt:  prompt,
		System:  state.Stance.System(side),
		Timeout: s.cfg.CallTimeout,
	})
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrGeneration("empty argument from model")
	}
	return text, nil
}

// evaluateArgument grades the turn when the policy supports it. Best-effort:
// failures are logged and dropped.
func (s *Scheduler) evaluateArgument(ctx context.Context, state *DebateState, turn Turn) *Evaluation {
	evaluator, ok := s.policy.(ArgumentEvaluator)
	if !ok {
		return nil
	}
	ev, err := evaluator.EvaluateArgument(ctx, state, turn)
	if err != nil {
		s.logger.Debug("argument evaluation failed",
			slog.String("debate_id", state.ID),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return ev
}

func (s *Scheduler) generateStances(ctx context.Context, topic string) (Stance, error) {
	raw, err := s.prompter.Generate(ctx, GenerateRequest{
		Prompt:  buildStancePrompt(topic),
		Timeout: s.cfg.CallTimeout,
	})
	if err != nil {
		return Stance{}, err
	}

	stance, parseErr := parseStances(raw)
	if parseErr == nil {
		return stance, nil
	}

	// One retry with a simpler prompt before giving up; small models
	// often ignore the structured format on the first attempt.
	s.logger.Warn("stance parsing failed, retrying with simple prompt",
		slog.String("topic", topic),
	)
	raw, err = s.prompter.Generate(ctx, GenerateRequest{
		Prompt:  buildSimpleStancePrompt(topic),
		Timeout: s.cfg.CallTimeout,
	})
	if err != nil {
		return Stance{}, err
	}
	lines := nonEmptyLines(raw)
	if len(lines) < 2 {
		return Stance{}, ErrGeneration("could not derive opposing stances from model output")
	}
	return Stance{For: lines[0], Against: lines[1]}, nil
}

func (s *Scheduler) generateSystemPrompt(ctx context.Context, stance, topic string) (string, error) {
	out, err := s.prompter.Generate(ctx, GenerateRequest{
		Prompt:  buildSystemPromptPrompt(stance, topic),
		Timeout: s.cfg.CallTimeout,
	})
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	const minSystemPromptLen = 50
	if len(out) < minSystemPromptLen {
		return "", ErrGeneration("generated system prompt too short")
	}
	return out, nil
}
