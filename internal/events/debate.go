package events

// Event type constants for debate events.
const (
	TypeDebateStarted       = "debate_started"
	TypeTurnAppended        = "turn_appended"
	TypeModeratorIntervened = "moderator_intervened"
	TypeRoundFailed         = "round_failed"
	TypeDebateClosed        = "debate_closed"
)

// DebateStartedEvent is emitted when a debate passes the topic filter and
// both stances are generated.
type DebateStartedEvent struct {
	BaseEvent
	Topic         string `json:"topic"`
	ForStance     string `json:"for_stance"`
	AgainstStance string `json:"against_stance"`
}

// NewDebateStartedEvent creates a new debate started event.
func NewDebateStartedEvent(debateID, topic, forStance, againstStance string) DebateStartedEvent {
	return DebateStartedEvent{
		BaseEvent:     NewBaseEvent(TypeDebateStarted, debateID),
		Topic:         topic,
		ForStance:     forStance,
		AgainstStance: againstStance,
	}
}

// TurnAppendedEvent is emitted for every turn added to the history,
// arguments and moderator notes alike.
type TurnAppendedEvent struct {
	BaseEvent
	Side  string `json:"side"`
	Kind  string `json:"kind"`
	Text  string `json:"text"`
	Round int    `json:"round"`
}

// NewTurnAppendedEvent creates a new turn appended event.
func NewTurnAppendedEvent(debateID, side, kind, text string, round int) TurnAppendedEvent {
	return TurnAppendedEvent{
		BaseEvent: NewBaseEvent(TypeTurnAppended, debateID),
		Side:      side,
		Kind:      kind,
		Text:      text,
		Round:     round,
	}
}

// ModeratorIntervenedEvent is emitted when the moderator interrupts the
// debate with a summary or a correction.
type ModeratorIntervenedEvent struct {
	BaseEvent
	Reason        string `json:"reason"` // summary or correction
	Message       string `json:"message"`
	CorrectedSide string `json:"corrected_side,omitempty"`
}

// NewModeratorIntervenedEvent creates a new moderator intervened event.
func NewModeratorIntervenedEvent(debateID, reason, message, correctedSide string) ModeratorIntervenedEvent {
	return ModeratorIntervenedEvent{
		BaseEvent:     NewBaseEvent(TypeModeratorIntervened, debateID),
		Reason:        reason,
		Message:       message,
		CorrectedSide: correctedSide,
	}
}

// RoundFailedEvent is emitted when a round fails softly and the caller may
// retry. This is a PRIORITY event - never dropped.
type RoundFailedEvent struct {
	BaseEvent
	Side      string `json:"side"`
	Error     string `json:"error"`
	Retryable bool   `json:"retryable"`
}

// NewRoundFailedEvent creates a new round failed event.
func NewRoundFailedEvent(debateID, side string, err error, retryable bool) RoundFailedEvent {
	errStr := ""
	if err != nil {
		errStr = err.Error()
	}
	return RoundFailedEvent{
		BaseEvent: NewBaseEvent(TypeRoundFailed, debateID),
		Side:      side,
		Error:     errStr,
		Retryable: retryable,
	}
}

// DebateClosedEvent is emitted exactly once when a debate terminates,
// whether by round cap or explicit finalize. This is a PRIORITY event.
type DebateClosedEvent struct {
	BaseEvent
	Rounds  int    `json:"rounds"`
	Summary string `json:"summary,omitempty"`
}

// NewDebateClosedEvent creates a new debate closed event.
func NewDebateClosedEvent(debateID string, rounds int, summary string) DebateClosedEvent {
	return DebateClosedEvent{
		BaseEvent: NewBaseEvent(TypeDebateClosed, debateID),
		Rounds:    rounds,
		Summary:   summary,
	}
}
