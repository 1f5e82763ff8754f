package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/kevinmichaelchen/repo-post/internal/auth"
	"github.com/kevinmichaelchen/repo-post/internal/github"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type contentResponse struct {
	Content string `json:"content"`
}

// validationError is a malformed request; its message names the bad field.
type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

func invalid(msg string) error { return &validationError{msg: msg} }

// writeError maps err to a status and error body. Anything unrecognized is
// logged and reported as a 500 with msg, so internals never reach the caller.
func (s *Server) writeError(w http.ResponseWriter, err error, msg string) {
	var (
		bad      *validationError
		tooLarge *http.MaxBytesError
		upstream *github.UpstreamError
	)
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Authentication required"})
	case errors.As(err, &bad):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: bad.msg})
	case errors.As(err, &tooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{
			Error: fmt.Sprintf("Request body exceeds the %d MB limit", tooLarge.Limit>>20),
		})
	case errors.As(err, &upstream):
		status := upstream.Status
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		s.logger.Warn("upstream request failed", zap.Int("status", status), zap.Error(err))
		writeJSON(w, status, errorResponse{Error: upstream.Message, Details: upstream.Details})
	default:
		s.logger.Error(msg, zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msg})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
