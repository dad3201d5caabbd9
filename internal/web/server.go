// Package web provides the JSON HTTP API for nycevents.
package web

import (
	"database/sql"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/ereinhol/nycevents/internal/auth"
	"github.com/ereinhol/nycevents/internal/comment"
	"github.com/ereinhol/nycevents/internal/event"
	"github.com/ereinhol/nycevents/internal/geo"
	"github.com/ereinhol/nycevents/internal/logging"
	"github.com/ereinhol/nycevents/internal/recommend"
	"github.com/ereinhol/nycevents/internal/user"
)

// Options tunes server behavior; zero values pick the defaults.
type Options struct {
	HistoryWindow    int // saved events feeding recommendations, 0 = all
	GeocodeCacheSize int
	GeocodeURL       string // empty = public Nominatim
}

// Server is the API HTTP server.
type Server struct {
	events      *event.Repository
	eventSvc    *event.Service
	users       *user.Repository
	comments    *comment.Manager
	recommender *recommend.Service
	geocoder    *geo.Client
	sessions    *auth.SessionStore
	mux         *http.ServeMux
}

// NewServer creates an API server with the given database.
func NewServer(db *sql.DB, opts Options) *Server {
	events := event.NewRepository(db)
	users := user.NewRepository(db)

	engine := recommend.NewEngine()
	engine.HistoryWindow = opts.HistoryWindow

	s := &Server{
		events:      events,
		eventSvc:    event.NewService(events, users),
		users:       users,
		comments:    comment.NewManager(db, comment.NewRepository(db), users),
		recommender: recommend.NewService(engine, events, users),
		geocoder:    geo.NewClient(opts.GeocodeURL, opts.GeocodeCacheSize),
		sessions:    auth.NewSessionStore(db),
		mux:         http.NewServeMux(),
	}

	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/register", s.handleRegister)
	s.mux.HandleFunc("/api/login", s.handleLogin)
	s.mux.HandleFunc("/api/logout", s.handleLogout)
	s.mux.HandleFunc("/api/filters", s.handleFilters)
	s.mux.HandleFunc("/api/events", s.handleEvents)
	s.mux.HandleFunc("/api/events/", s.handleEventRoute)
	s.mux.Handle("/api/saved",
		auth.RequireAuth(s.sessions, http.HandlerFunc(s.handleSavedEvents)))
	s.mux.Handle("/api/recommendations",
		auth.RequireAuth(s.sessions, http.HandlerFunc(s.handleRecommendations)))

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe starts the HTTP server with request logging.
func (s *Server) ListenAndServe(port int) error {
	addr := fmt.Sprintf(":%d", port)
	fmt.Printf("Starting API server on http://localhost%s\n", addr)
	return http.ListenAndServe(addr, logging.RequestLogger(s))
}

// handleEventRoute routes /api/events/{id}/* requests.
func (s *Server) handleEventRoute(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/events/")
	segments := strings.Split(strings.TrimSuffix(path, "/"), "/")

	id, err := strconv.ParseInt(segments[0], 10, 64)
	if err != nil {
		apiError(w, "invalid event ID", http.StatusBadRequest)
		return
	}

	switch {
	case len(segments) == 1:
		if r.Method != http.MethodGet {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.apiGetEvent(w, id)

	case segments[1] == "coordinates" && len(segments) == 2:
		if r.Method != http.MethodGet {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.apiEventCoordinates(w, id)

	case segments[1] == "comments" && len(segments) == 2:
		switch r.Method {
		case http.MethodGet:
			s.apiListComments(w, id)
		case http.MethodPost:
			s.apiAddComment(w, r, id)
		default:
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		}

	case segments[1] == "comments" && len(segments) == 3:
		if r.Method != http.MethodDelete {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.apiDeleteComment(w, r, id, segments[2])

	case segments[1] == "save" && len(segments) == 2:
		switch r.Method {
		case http.MethodPost:
			s.apiSaveEvent(w, r, id)
		case http.MethodDelete:
			s.apiUnsaveEvent(w, r, id)
		default:
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		}

	default:
		apiError(w, "not found", http.StatusNotFound)
	}
}

// handleHealth reports server liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}
