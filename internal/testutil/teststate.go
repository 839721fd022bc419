package testutil

import (
	"time"

	"github.com/agora-ai/agora/internal/core"
)

// NewTestDebate creates a DebateState with sensible defaults for tests.
// Use functional options to override specific fields.
func NewTestDebate(opts ...func(*core.DebateState)) *core.DebateState {
	now := time.Now()
	d := &core.DebateState{
		ID:    "deb-test",
		Topic: "Should cities ban private cars from downtown?",
		Stance: core.Stance{
			For:           "Car-free downtowns are cleaner and safer.",
			Against:       "Car bans hurt accessibility and local business.",
			ForSystem:     "You argue FOR the topic. Stay in character.",
			AgainstSystem: "You argue AGAINST the topic. Stay in character.",
		},
		History:     []core.Turn{},
		CurrentSide: core.SideFor,
		RoundCount:  0,
		MaxRounds:   6,
		Active:      true,
		Phase:       core.PhaseRunning,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// WithID overrides the debate ID.
func WithID(id string) func(*core.DebateState) {
	return func(d *core.DebateState) { d.ID = id }
}

// WithTopic overrides the topic.
func WithTopic(topic string) func(*core.DebateState) {
	return func(d *core.DebateState) { d.Topic = topic }
}

// WithHistory seeds alternating argument turns starting with the FOR side
// and sets the round counter and floor to match.
func WithHistory(n int) func(*core.DebateState) {
	return func(d *core.DebateState) {
		side := core.SideFor
		base := time.Now().Add(-time.Duration(n) * time.Minute)
		for i := 0; i < n; i++ {
			d.History = append(d.History, core.Turn{
				Side: side,
				Kind: core.TurnArgument,
				Text: "argument " + string(rune('a'+i)),
				At:   base.Add(time.Duration(i) * time.Minute),
			})
			side = side.Opponent()
		}
		d.RoundCount = n
		d.CurrentSide = side
	}
}

// Terminated marks the debate closed.
func Terminated() func(*core.DebateState) {
	return func(d *core.DebateState) {
		d.Active = false
		d.Phase = core.PhaseTerminated
	}
}
