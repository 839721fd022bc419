package core

import (
	"fmt"
	"time"
)

// DebatePhase represents a stage in the debate lifecycle.
type DebatePhase string

const (
	// PhaseIdle is the pre-start state before stances exist.
	PhaseIdle DebatePhase = "idle"

	// PhaseRunning is the steady turn-taking loop.
	PhaseRunning DebatePhase = "running"

	// PhaseModerating is the transient state while the moderator is
	// being consulted. It is never persisted between calls.
	PhaseModerating DebatePhase = "moderating"

	// PhaseTerminated is the absorbing terminal state.
	PhaseTerminated DebatePhase = "terminated"
)

// ValidDebatePhase checks if a phase string is valid.
func ValidDebatePhase(p DebatePhase) bool {
	switch p {
	case PhaseIdle, PhaseRunning, PhaseModerating, PhaseTerminated:
		return true
	default:
		return false
	}
}

// String returns the string representation of the phase.
func (p DebatePhase) String() string {
	return string(p)
}

// Stance holds the two opposing positions derived from the topic at debate
// start, plus the system prompt each debater argues under. Immutable for the
// debate's lifetime.
type Stance struct {
	For           string `json:"for"`
	Against       string `json:"against"`
	ForSystem     string `json:"for_system,omitempty"`
	AgainstSystem string `json:"against_system,omitempty"`
}

// Position returns the stance text for a debater side.
func (s Stance) Position(side Side) string {
	if side == SideAgainst {
		return s.Against
	}
	return s.For
}

// System returns the system prompt for a debater side.
func (s Stance) System(side Side) string {
	if side == SideAgainst {
		return s.AgainstSystem
	}
	return s.ForSystem
}

// DebateState is the authoritative record of one debate instance. The
// scheduler exclusively owns the mutable value for the debate's duration;
// everything else works from read copies.
type DebateState struct {
	ID           string      `json:"id"`
	Topic        string      `json:"topic"`
	Stance       Stance      `json:"stance"`
	History      []Turn      `json:"history"`
	CurrentSide  Side        `json:"current_side"`
	RoundCount   int         `json:"round_count"`
	MaxRounds    int         `json:"max_rounds"`
	Active       bool        `json:"active"`
	Phase        DebatePhase `json:"phase"`
	FinalSummary string      `json:"final_summary,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// appendArgument appends an argument for side, increments the round counter
// and hands the floor to the opponent. It is the only way RoundCount moves.
func (d *DebateState) appendArgument(side Side, text string) Turn {
	turn := Turn{Side: side, Kind: TurnArgument, Text: text, At: time.Now()}
	d.History = append(d.History, turn)
	d.RoundCount++
	d.CurrentSide = side.Opponent()
	d.UpdatedAt = turn.At
	return turn
}

// appendModeratorNote appends a moderator turn. Moderator turns never
// increment the round counter and never move the floor.
func (d *DebateState) appendModeratorNote(kind TurnKind, text string) Turn {
	turn := Turn{Side: SideModerator, Kind: kind, Text: text, At: time.Now()}
	d.History = append(d.History, turn)
	d.UpdatedAt = turn.At
	return turn
}

// terminate moves the debate into its absorbing terminal state.
// Active flips to false exactly once; calling terminate again is a no-op.
func (d *DebateState) terminate() {
	if d.Phase == PhaseTerminated {
		return
	}
	d.Active = false
	d.Phase = PhaseTerminated
	d.UpdatedAt = time.Now()
}

// Terminated reports whether the debate reached its terminal state.
func (d *DebateState) Terminated() bool {
	return d.Phase == PhaseTerminated
}

// ArgumentCount returns the number of argument turns in the history.
func (d *DebateState) ArgumentCount() int {
	n := 0
	for _, t := range d.History {
		if t.IsArgument() {
			n++
		}
	}
	return n
}

// Clone returns a deep copy safe to hand to readers.
func (d *DebateState) Clone() *DebateState {
	cp := *d
	cp.History = make([]Turn, len(d.History))
	copy(cp.History, d.History)
	return &cp
}

// Validate checks structural invariants. It is used by stores after loading
// persisted state and by tests.
func (d *DebateState) Validate() error {
	if d.ID == "" {
		return ErrState(CodeInvalidState, "debate has no ID")
	}
	if d.Topic == "" {
		return ErrState(CodeInvalidState, "debate has no topic")
	}
	if !d.CurrentSide.IsDebater() {
		return ErrState(CodeInvalidState,
			fmt.Sprintf("current side must be a debater, got %q", d.CurrentSide))
	}
	if !ValidDebatePhase(d.Phase) {
		return ErrState(CodeInvalidState, fmt.Sprintf("invalid phase %q", d.Phase))
	}
	if d.Active && d.Phase == PhaseTerminated {
		return ErrState(CodeInvalidState, "terminated debate cannot be active")
	}
	if got := d.ArgumentCount(); got != d.RoundCount {
		return ErrState(CodeInvalidState,
			fmt.Sprintf("round count %d does not match %d argument turns", d.RoundCount, got))
	}
	// Arguments strictly alternate sides, except directly after a moderator
	// intervention, which may reassign the floor.
	var prev Side
	intervened := false
	for _, t := range d.History {
		if !t.IsArgument() {
			intervened = true
			continue
		}
		if prev != "" && t.Side == prev && !intervened {
			return ErrState(CodeInvalidState,
				fmt.Sprintf("consecutive argument turns for side %q", t.Side))
		}
		prev = t.Side
		intervened = false
	}
	return nil
}
