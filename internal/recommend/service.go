package recommend

import (
	"fmt"

	"github.com/ereinhol/nycevents/internal/event"
	"github.com/ereinhol/nycevents/internal/user"
)

// Service wires the engine to the stores: it resolves the user, their
// saved-event history, and the candidate set, then runs the engine over
// the snapshot.
type Service struct {
	engine *Engine
	events *event.Repository
	users  *user.Repository
}

// NewService creates a recommendation service.
func NewService(engine *Engine, events *event.Repository, users *user.Repository) *Service {
	return &Service{engine: engine, events: events, users: users}
}

// ForUser computes up to limit recommendations for the given user.
// A user ID that doesn't resolve is an error, not an empty list.
func (s *Service) ForUser(userID int64, limit int) ([]*event.Event, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	u, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}

	savedIDs, err := s.users.SavedEventIDs(userID)
	if err != nil {
		return nil, fmt.Errorf("loading saved events: %w", err)
	}

	candidates, err := s.events.List()
	if err != nil {
		return nil, fmt.Errorf("loading candidate events: %w", err)
	}

	return s.engine.Recommend(u, savedIDs, candidates, limit), nil
}
