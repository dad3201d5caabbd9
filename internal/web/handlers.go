package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ereinhol/nycevents/internal/apperror"
	"github.com/ereinhol/nycevents/internal/auth"
)

// apiError writes a JSON error response.
func apiError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	resp := map[string]string{"error": msg}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
	}
}

// apiJSON writes a JSON response with the given status code.
func apiJSON(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
	}
}

// writeError maps a domain error onto an HTTP status. Unrecognized errors
// are logged and masked as 500s.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		apiError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, apperror.ErrNotFound):
		apiError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, apperror.ErrNotOwner):
		apiError(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, apperror.ErrConflict):
		apiError(w, err.Error(), http.StatusConflict)
	default:
		slog.Error("request failed", "err", err)
		apiError(w, "internal error", http.StatusInternalServerError)
	}
}

// requireUser resolves the authenticated user for handlers reached outside
// the auth middleware. Writes a 401 and returns false when there is none.
func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	if id, ok := auth.UserID(r.Context()); ok {
		return id, true
	}
	id, err := s.sessions.Validate(r)
	if err != nil {
		apiError(w, "authentication required", http.StatusUnauthorized)
		return 0, false
	}
	return id, true
}

// decodeJSON decodes a request body, rejecting unknown garbage early.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}
