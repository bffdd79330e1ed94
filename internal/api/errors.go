package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/kalambet/intervue/internal/interview"
	"github.com/kalambet/intervue/internal/reports"
	"github.com/kalambet/intervue/internal/session"
)

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}

// writeError maps a domain error to its HTTP status and error type.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, interview.ErrSessionNotFound):
		httpError(w, http.StatusNotFound, "not_found", "session not found or expired; start a new session")
	case errors.Is(err, reports.ErrNotFound):
		httpError(w, http.StatusNotFound, "not_found", "evaluation not found")
	case errors.Is(err, interview.ErrNoResponses):
		httpError(w, http.StatusUnprocessableEntity, "no_responses", "answer at least one question before requesting feedback")
	case errors.Is(err, interview.ErrInvalidInput):
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
	case errors.Is(err, interview.ErrInvariantViolation), errors.Is(err, session.ErrVersionConflict):
		httpError(w, http.StatusConflict, "conflict", "%v", err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		httpError(w, http.StatusServiceUnavailable, "timeout", "request timed out before the turn completed")
	default:
		httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}
