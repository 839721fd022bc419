package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/agora-ai/agora/internal/core"
)

// createDebateRequest is the body of POST /api/v1/debates.
type createDebateRequest struct {
	Topic string `json:"topic"`
}

// debateResponse is the wire form of a debate. History is included in the
// single-debate endpoints and elided from lists.
type debateResponse struct {
	ID           string           `json:"id"`
	Topic        string           `json:"topic"`
	Stance       core.Stance      `json:"stance"`
	History      []core.Turn      `json:"history,omitempty"`
	CurrentSide  core.Side        `json:"current_side"`
	RoundCount   int              `json:"round_count"`
	MaxRounds    int              `json:"max_rounds"`
	Active       bool             `json:"active"`
	Phase        core.DebatePhase `json:"phase"`
	FinalSummary string           `json:"final_summary,omitempty"`
}

func toDebateResponse(state *core.DebateState, withHistory bool) debateResponse {
	resp := debateResponse{
		ID:           state.ID,
		Topic:        state.Topic,
		Stance:       state.Stance,
		CurrentSide:  state.CurrentSide,
		RoundCount:   state.RoundCount,
		MaxRounds:    state.MaxRounds,
		Active:       state.Active,
		Phase:        state.Phase,
		FinalSummary: state.FinalSummary,
	}
	if withHistory {
		resp.History = state.History
	}
	return resp
}

// roundResponse is the wire form of one advance call.
type roundResponse struct {
	Outcome    core.RoundOutcome `json:"outcome"`
	Turn       *core.Turn        `json:"turn,omitempty"`
	Messages   []core.Turn       `json:"messages,omitempty"`
	Evaluation *core.Evaluation  `json:"evaluation,omitempty"`
	Summary    string            `json:"summary,omitempty"`
	NextSide   core.Side         `json:"next_side,omitempty"`
	Debate     debateResponse    `json:"debate"`
}

func (s *Server) handleCreateDebate(w http.ResponseWriter, r *http.Request) {
	var req createDebateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, core.ErrInvalidTopic("invalid request body"))
		return
	}

	state, err := s.service.Create(r.Context(), req.Topic)
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, toDebateResponse(state, true))
}

func (s *Server) handleListDebates(w http.ResponseWriter, r *http.Request) {
	states, err := s.service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	debates := make([]debateResponse, 0, len(states))
	for _, state := range states {
		debates = append(debates, toDebateResponse(state, false))
	}
	respondJSON(w, http.StatusOK, map[string]any{"debates": debates})
}

func (s *Server) handleGetDebate(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.Get(r.Context(), chi.URLParam(r, "debateID"))
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toDebateResponse(state, true))
}

func (s *Server) handleAdvanceRound(w http.ResponseWriter, r *http.Request) {
	result, state, err := s.service.Advance(r.Context(), chi.URLParam(r, "debateID"))
	if err != nil {
		writeError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, roundResponse{
		Outcome:    result.Outcome,
		Turn:       result.Turn,
		Messages:   result.Messages,
		Evaluation: result.Evaluation,
		Summary:    result.Summary,
		NextSide:   result.NextSide,
		Debate:     toDebateResponse(state, false),
	})
}

func (s *Server) handleFinalize(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.Finalize(r.Context(), chi.URLParam(r, "debateID"))
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toDebateResponse(state, true))
}

func (s *Server) handleDeleteDebate(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Delete(r.Context(), chi.URLParam(r, "debateID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
