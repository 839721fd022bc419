package core

import "time"

// TurnKind distinguishes argument turns from moderator output.
type TurnKind string

const (
	// TurnArgument is a persuasive argument produced by a debater side.
	TurnArgument TurnKind = "argument"

	// TurnModeratorNote is a moderator summary or correction notice.
	// Moderator notes never count toward the round counter.
	TurnModeratorNote TurnKind = "moderator_note"

	// TurnClosingSummary is the single closing synthesis appended at
	// termination.
	TurnClosingSummary TurnKind = "closing_summary"
)

// Turn is one entry in a debate transcript. The transcript is append-only
// and its order is semantically meaningful: it doubles as the prompt context
// for every subsequent generation.
type Turn struct {
	Side Side      `json:"side"`
	Kind TurnKind  `json:"kind"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// IsArgument reports whether the turn counts as a round of debate.
func (t Turn) IsArgument() bool {
	return t.Kind == TurnArgument
}

// LastArgument returns the most recent argument turn in the slice,
// or false when no argument has been made yet.
func LastArgument(turns []Turn) (Turn, bool) {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].IsArgument() {
			return turns[i], true
		}
	}
	return Turn{}, false
}

// TailTurns returns up to n most recent turns, preserving order.
func TailTurns(turns []Turn, n int) []Turn {
	if n <= 0 || len(turns) <= n {
		return turns
	}
	return turns[len(turns)-n:]
}
