package web

import (
	"net/http"

	"github.com/ereinhol/nycevents/internal/auth"
	"github.com/ereinhol/nycevents/internal/comment"
	"github.com/ereinhol/nycevents/internal/event"
	"github.com/ereinhol/nycevents/internal/geo"
)

// handleEvents routes /api/events requests: search on GET, create on POST.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.apiSearchEvents(w, r)
	case http.MethodPost:
		s.apiCreateEvent(w, r)
	default:
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// apiSearchEvents returns events matching the query-parameter filters.
func (s *Server) apiSearchEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := event.SearchOptions{
		Keyword:    q.Get("q"),
		Boroughs:   q["borough"],
		EventTypes: q["type"],
		StartDate:  q.Get("start_date"),
		EndDate:    q.Get("end_date"),
	}

	events, err := s.events.Search(opts)
	if err != nil {
		writeError(w, err)
		return
	}

	if events == nil {
		events = make([]*event.Event, 0)
	}
	apiJSON(w, events, http.StatusOK)
}

// apiCreateEvent stores a user-created event.
func (s *Server) apiCreateEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Name           string `json:"name"`
		EventType      string `json:"event_type"`
		Borough        string `json:"borough"`
		Location       string `json:"location"`
		StartTime      string `json:"start_time"`
		EndTime        string `json:"end_time"`
		StreetClosure  string `json:"street_closure"`
		CommunityBoard string `json:"community_board"`
		IsPublic       bool   `json:"is_public"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	e, err := s.eventSvc.Create(userID, event.CreateRequest{
		Name:           req.Name,
		EventType:      req.EventType,
		Borough:        req.Borough,
		Location:       req.Location,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		StreetClosure:  req.StreetClosure,
		CommunityBoard: req.CommunityBoard,
		IsPublic:       req.IsPublic,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	apiJSON(w, e, http.StatusCreated)
}

// apiGetEvent returns a single event with its comment tree.
func (s *Server) apiGetEvent(w http.ResponseWriter, id int64) {
	e, err := s.events.GetByID(id)
	if err != nil {
		writeError(w, err)
		return
	}

	tree, err := s.comments.TreeForEvent(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if tree == nil {
		tree = make([]*comment.Node, 0)
	}

	type response struct {
		Event    *event.Event    `json:"event"`
		Comments []*comment.Node `json:"comments"`
	}
	apiJSON(w, response{Event: e, Comments: tree}, http.StatusOK)
}

// apiEventCoordinates resolves an event location to map coordinates.
func (s *Server) apiEventCoordinates(w http.ResponseWriter, id int64) {
	e, err := s.events.GetByID(id)
	if err != nil {
		writeError(w, err)
		return
	}

	coords, err := s.geocoder.EventCoordinates(e)
	if err != nil {
		writeError(w, err)
		return
	}

	apiJSON(w, coords, http.StatusOK)
}

// apiSaveEvent adds an event to the caller's saved list.
func (s *Server) apiSaveEvent(w http.ResponseWriter, r *http.Request, id int64) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	if _, err := s.events.GetByID(id); err != nil {
		writeError(w, err)
		return
	}

	if err := s.users.SaveEvent(userID, id); err != nil {
		writeError(w, err)
		return
	}

	apiJSON(w, map[string]interface{}{"event_id": id, "saved": true}, http.StatusOK)
}

// apiUnsaveEvent removes an event from the caller's saved list.
func (s *Server) apiUnsaveEvent(w http.ResponseWriter, r *http.Request, id int64) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	if err := s.users.UnsaveEvent(userID, id); err != nil {
		writeError(w, err)
		return
	}

	apiJSON(w, map[string]interface{}{"event_id": id, "saved": false}, http.StatusOK)
}

// handleSavedEvents returns the caller's saved events in save order, each
// paired with its map coordinates. Geocoding is best effort: an event whose
// location doesn't resolve comes back with null coordinates rather than
// failing the whole list.
func (s *Server) handleSavedEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := auth.UserID(r.Context())
	if !ok {
		apiError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	events, err := s.events.SavedByUser(userID)
	if err != nil {
		writeError(w, err)
		return
	}

	type savedEvent struct {
		Event       *event.Event     `json:"event"`
		Coordinates *geo.Coordinates `json:"coordinates"`
	}
	saved := make([]savedEvent, 0, len(events))
	for _, e := range events {
		coords, _ := s.geocoder.EventCoordinates(e)
		saved = append(saved, savedEvent{Event: e, Coordinates: coords})
	}

	apiJSON(w, saved, http.StatusOK)
}

// handleFilters returns the borough and event-type values present in the
// stored events, for populating search dropdowns.
func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	boroughs, err := s.events.DistinctBoroughs()
	if err != nil {
		writeError(w, err)
		return
	}
	types, err := s.events.DistinctEventTypes()
	if err != nil {
		writeError(w, err)
		return
	}

	type response struct {
		Boroughs   []string `json:"boroughs"`
		EventTypes []string `json:"event_types"`
	}
	apiJSON(w, response{Boroughs: boroughs, EventTypes: types}, http.StatusOK)
}
