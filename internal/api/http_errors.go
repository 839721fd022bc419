package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/agora-ai/agora/internal/core"
)

// errorResponse is the JSON body of every non-2xx response.
type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Category  string `json:"category,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// httpStatus maps domain error categories to HTTP status codes.
func httpStatus(err error) int {
	var domErr *core.DomainError
	if !errors.As(err, &domErr) || domErr == nil {
		return http.StatusInternalServerError
	}

	switch domErr.Category {
	case core.ErrCatValidation, core.ErrCatModeration:
		return http.StatusUnprocessableEntity
	case core.ErrCatNotFound:
		return http.StatusNotFound
	case core.ErrCatTimeout:
		return http.StatusGatewayTimeout
	case core.ErrCatNetwork:
		return http.StatusServiceUnavailable
	case core.ErrCatGeneration:
		return http.StatusBadGateway
	case core.ErrCatState:
		if domErr.Code == core.CodeDebateClosed {
			return http.StatusConflict
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: err.Error()}
	var domErr *core.DomainError
	if errors.As(err, &domErr) && domErr != nil {
		resp.Error = domErr.Message
		resp.Code = domErr.Code
		resp.Category = string(domErr.Category)
		resp.Retryable = domErr.Retryable
	}
	respondJSON(w, httpStatus(err), resp)
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
