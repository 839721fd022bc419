package tui

import "github.com/agora-ai/agora/internal/core"

// debateStartedMsg carries the freshly created debate.
type debateStartedMsg struct {
	state *core.DebateState
}

// roundMsg carries the outcome of one advance call.
type roundMsg struct {
	result *core.RoundResult
	state  *core.DebateState
}

// finalizedMsg carries the terminated debate with its closing summary.
type finalizedMsg struct {
	state *core.DebateState
}

// debateErrMsg carries a failed operation.
type debateErrMsg struct {
	err error
}
