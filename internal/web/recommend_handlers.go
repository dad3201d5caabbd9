package web

import (
	"net/http"
	"strconv"

	"github.com/ereinhol/nycevents/internal/auth"
	"github.com/ereinhol/nycevents/internal/event"
)

// handleRecommendations returns personalized upcoming events for the caller.
func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := auth.UserID(r.Context())
	if !ok {
		apiError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			apiError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	events, err := s.recommender.ForUser(userID, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	if events == nil {
		events = make([]*event.Event, 0)
	}
	apiJSON(w, events, http.StatusOK)
}
