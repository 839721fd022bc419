package core

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
)

// scriptedModel returns queued responses in order, then repeats the last one.
type scriptedModel struct {
	name      string
	responses []string
	err       error
	calls     int
	prompts   []string
}

func (m *scriptedModel) Name() string               { return m.name }
func (m *scriptedModel) Ping(context.Context) error { return nil }

func (m *scriptedModel) Generate(_ context.Context, req GenerateRequest) (string, error) {
	m.calls++
	m.prompts = append(m.prompts, req.Prompt)
	if m.err != nil {
		return "", m.err
	}
	if len(m.responses) == 0 {
		return "", ErrGeneration("no scripted response")
	}
	resp := m.responses[0]
	if len(m.responses) > 1 {
		m.responses = m.responses[1:]
	}
	return resp, nil
}

type scriptedGuard struct {
	topic    TopicCheck
	topicErr error
	arg      ArgumentCheck
	argErr   error
}

func (g *scriptedGuard) CheckTopic(context.Context, string) (TopicCheck, error) {
	return g.topic, g.topicErr
}

func (g *scriptedGuard) CheckArgument(context.Context, string) (ArgumentCheck, error) {
	return g.arg, g.argErr
}

// fixedPolicy returns the same decision every time.
type fixedPolicy struct {
	decision Decision
	err      error
}

func (p *fixedPolicy) Evaluate(context.Context, *DebateState) (Decision, error) {
	return p.decision, p.err
}

const stanceResponse = "FOR: Remote work boosts productivity and balance.\n" +
	"AGAINST: Office work builds collaboration and separation."

const systemPromptResponse = "You are a debater. Argue your assigned stance with " +
	"logic and evidence, stay respectful, stay concise, and address counterpoints."

func newTestScheduler(t *testing.T, opts ...SchedulerOption) (*Scheduler, *scriptedModel) {
	t.Helper()
	prompter := &scriptedModel{
		name:      "prompt-model",
		responses: []string{stanceResponse, systemPromptResponse, systemPromptResponse},
	}
	debater := &scriptedModel{name: "debate-model", responses: []string{"Actually, I think this holds up."}}
	summarizer := NewSummarizer(&scriptedModel{name: "moderator-model", responses: []string{"Both sides made their case."}})
	return NewScheduler(prompter, debater, summarizer, opts...), debater
}

func startedDebate(t *testing.T, s *Scheduler) *DebateState {
	t.Helper()
	state, err := s.StartDebate(context.Background(), "Is remote work better than office work?")
	if err != nil {
		t.Fatalf("StartDebate: %v", err)
	}
	return state
}

func TestStartDebate_ScenarioA(t *testing.T) {
	guard := &scriptedGuard{topic: TopicCheck{Accepted: true}}
	s, _ := newTestScheduler(t, WithGuard(guard))

	state := startedDebate(t, s)

	if state.Stance.For == "" || state.Stance.Against == "" {
		t.Fatalf("expected stance pair, got %+v", state.Stance)
	}
	if state.Stance.ForSystem == "" || state.Stance.AgainstSystem == "" {
		t.Fatalf("expected system prompts for both sides")
	}
	if len(state.History) != 0 {
		t.Fatalf("expected empty history, got %d turns", len(state.History))
	}
	if state.RoundCount != 0 {
		t.Fatalf("expected round count 0, got %d", state.RoundCount)
	}
	if state.CurrentSide != SideFor {
		t.Fatalf("expected for side to open, got %s", state.CurrentSide)
	}
	if !state.Active || state.Phase != PhaseRunning {
		t.Fatalf("expected active running debate, got active=%v phase=%s", state.Active, state.Phase)
	}
	if err := state.Validate(); err != nil {
		t.Fatalf("fresh state failed validation: %v", err)
	}
}

func TestStartDebate_EmptyTopic_ScenarioD(t *testing.T) {
	s, _ := newTestScheduler(t)

	for _, topic := range []string{"", "   ", "\t\n"} {
		state, err := s.StartDebate(context.Background(), topic)
		if state != nil {
			t.Fatalf("expected no state for topic %q", topic)
		}
		if !IsCategory(err, ErrCatValidation) {
			t.Fatalf("expected validation error for topic %q, got %v", topic, err)
		}
	}
}

func TestStartDebate_GuardRejects(t *testing.T) {
	guard := &scriptedGuard{topic: TopicCheck{Accepted: false, Reason: "not suitable"}}
	s, _ := newTestScheduler(t, WithGuard(guard))

	_, err := s.StartDebate(context.Background(), "a bad topic")
	if !IsCategory(err, ErrCatValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestStartDebate_GuardFailureFailsClosed(t *testing.T) {
	guard := &scriptedGuard{topicErr: ErrUnavailable("runtime down")}
	s, _ := newTestScheduler(t, WithGuard(guard))

	_, err := s.StartDebate(context.Background(), "any topic")
	if !IsCategory(err, ErrCatValidation) {
		t.Fatalf("expected fail-closed validation error, got %v", err)
	}
}

func TestStartDebate_StanceRetryWithSimplePrompt(t *testing.T) {
	prompter := &scriptedModel{name: "prompt-model", responses: []string{
		"no useful structure here",
		"Remote work boosts productivity.\nOffice work builds collaboration.",
		systemPromptResponse,
		systemPromptResponse,
	}}
	debater := &scriptedModel{name: "debate-model", responses: []string{"ok"}}
	summ := NewSummarizer(&scriptedModel{name: "m", responses: []string{"done"}})
	s := NewScheduler(prompter, debater, summ)

	state := startedDebate(t, s)
	if state.Stance.For != "Remote work boosts productivity." {
		t.Fatalf("unexpected for stance after retry: %q", state.Stance.For)
	}
}

func TestAdvanceRound_ScenarioB_AlternationAndTermination(t *testing.T) {
	s, debater := newTestScheduler(t)
	debater.responses = nil
	for i := 0; i < 6; i++ {
		debater.responses = append(debater.responses, fmt.Sprintf("argument %d", i+1))
	}
	state := startedDebate(t, s)

	want := []Side{SideFor, SideAgainst, SideFor, SideAgainst, SideFor, SideAgainst}
	for i := 0; i < 6; i++ {
		res, err := s.AdvanceRound(context.Background(), state)
		if err != nil {
			t.Fatalf("round %d: %v", i+1, err)
		}
		if res.Outcome != OutcomeAdvanced {
			t.Fatalf("round %d: expected advanced outcome, got %s", i+1, res.Outcome)
		}
		if res.Turn.Side != want[i] {
			t.Fatalf("round %d: expected side %s, got %s", i+1, want[i], res.Turn.Side)
		}
	}

	if state.RoundCount != 6 {
		t.Fatalf("expected 6 rounds, got %d", state.RoundCount)
	}
	if state.ArgumentCount() != 6 {
		t.Fatalf("expected 6 argument turns, got %d", state.ArgumentCount())
	}

	// The cap is observed on entry of the next call, which terminates the
	// debate and produces the closing summary instead of an argument.
	res, err := s.AdvanceRound(context.Background(), state)
	if err != nil {
		t.Fatalf("terminal advance: %v", err)
	}
	if res.Outcome != OutcomeClosed {
		t.Fatalf("expected closed outcome, got %s", res.Outcome)
	}
	if res.Summary == "" {
		t.Fatalf("expected closing summary")
	}
	if state.Active || !state.Terminated() {
		t.Fatalf("expected terminated state, got active=%v phase=%s", state.Active, state.Phase)
	}
	if state.RoundCount != 6 {
		t.Fatalf("termination must not consume a round, got %d", state.RoundCount)
	}
}

func TestAdvanceRound_AfterTermination(t *testing.T) {
	s, _ := newTestScheduler(t)
	state := startedDebate(t, s)
	if _, err := s.Finalize(context.Background(), state); err == nil {
		// An empty debate cannot be summarized; that is fine here.
		t.Fatalf("expected summarize failure on empty history")
	}
	if state.Active {
		t.Fatalf("finalize must terminate even when the summary fails")
	}

	_, err := s.AdvanceRound(context.Background(), state)
	if !IsCategory(err, ErrCatState) {
		t.Fatalf("expected state error advancing a closed debate, got %v", err)
	}
}

func TestAdvanceRound_ModeratorSummary_ScenarioC(t *testing.T) {
	policy := &fixedPolicy{decision: Decision{Kind: DecisionSummary, Summary: "A recap so far."}}
	s, _ := newTestScheduler(t, WithPolicy(policy))
	state := startedDebate(t, s)
	sideBefore := state.CurrentSide

	res, err := s.AdvanceRound(context.Background(), state)
	if err != nil {
		t.Fatalf("AdvanceRound: %v", err)
	}
	if res.Outcome != OutcomeIntervention {
		t.Fatalf("expected intervention outcome, got %s", res.Outcome)
	}
	if len(res.Messages) != 1 || res.Messages[0].Side != SideModerator {
		t.Fatalf("expected one moderator message, got %+v", res.Messages)
	}
	if res.Turn != nil {
		t.Fatalf("summary intervention must not produce an argument")
	}
	if state.RoundCount != 0 {
		t.Fatalf("summary intervention must not consume a round, got %d", state.RoundCount)
	}
	if state.CurrentSide != sideBefore {
		t.Fatalf("summary intervention must not move the floor")
	}
}

func TestAdvanceRound_ModeratorCorrectionReassignsFloor(t *testing.T) {
	policy := &fixedPolicy{decision: Decision{
		Kind:          DecisionCorrection,
		Message:       "Stay on topic.",
		CorrectedSide: SideAgainst,
	}}
	s, debater := newTestScheduler(t, WithPolicy(policy))
	debater.responses = []string{"A corrected argument."}
	state := startedDebate(t, s)

	res, err := s.AdvanceRound(context.Background(), state)
	if err != nil {
		t.Fatalf("AdvanceRound: %v", err)
	}
	if res.Outcome != OutcomeIntervention {
		t.Fatalf("expected intervention outcome, got %s", res.Outcome)
	}
	if res.Turn == nil || res.Turn.Side != SideAgainst {
		t.Fatalf("expected corrected argument from against side, got %+v", res.Turn)
	}
	if state.RoundCount != 1 {
		t.Fatalf("corrected argument must consume a round, got %d", state.RoundCount)
	}
	if state.CurrentSide != SideFor {
		t.Fatalf("floor must flip from the corrected side, got %s", state.CurrentSide)
	}
	if err := state.Validate(); err != nil {
		t.Fatalf("state invalid after correction: %v", err)
	}
}

func TestAdvanceRound_PolicyFailureDegradesToContinue(t *testing.T) {
	policy := &fixedPolicy{err: ErrUnavailable("moderator down")}
	s, _ := newTestScheduler(t, WithPolicy(policy))
	state := startedDebate(t, s)

	res, err := s.AdvanceRound(context.Background(), state)
	if err != nil {
		t.Fatalf("moderation failure must not block the round: %v", err)
	}
	if res.Outcome != OutcomeAdvanced {
		t.Fatalf("expected advanced outcome, got %s", res.Outcome)
	}
}

func TestAdvanceRound_SoftFailure_ScenarioE(t *testing.T) {
	s, debater := newTestScheduler(t)
	state := startedDebate(t, s)

	before, err := json.Marshal(state)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	debater.err = ErrTimeout("model too slow")
	_, err = s.AdvanceRound(context.Background(), state)
	if err == nil {
		t.Fatalf("expected soft failure")
	}
	if !IsRetryable(err) {
		t.Fatalf("timeout must be retryable, got %v", err)
	}
	if !state.Active {
		t.Fatalf("debate must stay active after a soft failure")
	}

	after, err := json.Marshal(state)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(before) != string(after) {
		t.Fatalf("state mutated by failed round:\nbefore: %s\nafter:  %s", before, after)
	}

	// Retry appends exactly one turn.
	debater.err = nil
	debater.responses = []string{"Recovered argument."}
	res, err := s.AdvanceRound(context.Background(), state)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if res.Outcome != OutcomeAdvanced || len(state.History) != 1 {
		t.Fatalf("expected exactly one turn after retry, got %d", len(state.History))
	}
}

func TestAdvanceRound_HistoryAppendOnly(t *testing.T) {
	s, debater := newTestScheduler(t)
	debater.responses = []string{"one", "two", "three"}
	state := startedDebate(t, s)

	var prefix []Turn
	for i := 0; i < 3; i++ {
		if _, err := s.AdvanceRound(context.Background(), state); err != nil {
			t.Fatalf("round %d: %v", i+1, err)
		}
		if len(state.History) < len(prefix) {
			t.Fatalf("history shrank")
		}
		for j, turn := range prefix {
			if state.History[j] != turn {
				t.Fatalf("history prefix changed at %d", j)
			}
		}
		prefix = append([]Turn{}, state.History...)
	}
}

func TestFinalize_IdempotentAfterSuccess(t *testing.T) {
	s, debater := newTestScheduler(t)
	debater.responses = []string{"an argument"}
	state := startedDebate(t, s)
	if _, err := s.AdvanceRound(context.Background(), state); err != nil {
		t.Fatalf("advance: %v", err)
	}

	first, err := s.Finalize(context.Background(), state)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	turnsAfterFirst := len(state.History)

	second, err := s.Finalize(context.Background(), state)
	if err != nil {
		t.Fatalf("finalize retry: %v", err)
	}
	if second != first {
		t.Fatalf("expected identical summary on retry")
	}
	if len(state.History) != turnsAfterFirst {
		t.Fatalf("retrying finalize must not append a second summary")
	}
}

func TestFinalize_FailureLeavesDebateTerminated(t *testing.T) {
	prompter := &scriptedModel{name: "p", responses: []string{stanceResponse, systemPromptResponse, systemPromptResponse}}
	debater := &scriptedModel{name: "d", responses: []string{"an argument"}}
	summaryModel := &scriptedModel{name: "m", err: ErrUnavailable("runtime down")}
	s := NewScheduler(prompter, debater, NewSummarizer(summaryModel))

	state := startedDebate(t, s)
	if _, err := s.AdvanceRound(context.Background(), state); err != nil {
		t.Fatalf("advance: %v", err)
	}

	if _, err := s.Finalize(context.Background(), state); err == nil {
		t.Fatalf("expected finalize failure")
	}
	if state.Active || !state.Terminated() {
		t.Fatalf("failed finalize must leave the debate terminated")
	}

	// A later retry succeeds without resurrecting the debate.
	summaryModel.err = nil
	summaryModel.responses = []string{"The closing summary."}
	summary, err := s.Finalize(context.Background(), state)
	if err != nil {
		t.Fatalf("finalize retry: %v", err)
	}
	if summary == "" || state.Active {
		t.Fatalf("retry must produce a summary and keep the debate closed")
	}
}

func TestRoundCount_NeverExceedsMax(t *testing.T) {
	s, debater := newTestScheduler(t, WithSchedulerConfig(SchedulerConfig{MaxRounds: 2}))
	debater.responses = []string{"a", "b", "c"}
	state := startedDebate(t, s)

	for i := 0; i < 5; i++ {
		_, _ = s.AdvanceRound(context.Background(), state)
		if state.RoundCount > 2 {
			t.Fatalf("round count exceeded cap: %d", state.RoundCount)
		}
	}
	if !state.Terminated() {
		t.Fatalf("expected termination at cap")
	}
}
