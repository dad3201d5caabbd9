package event

import (
	"fmt"
	"strconv"

	"github.com/ereinhol/nycevents/internal/apperror"
)

// UserDirectory is the slice of the user store the event service needs:
// checking that a creator actually exists.
type UserDirectory interface {
	Exists(id int64) (bool, error)
}

// Service provides event business logic.
type Service struct {
	repo  *Repository
	users UserDirectory
}

// NewService creates an event service.
func NewService(repo *Repository, users UserDirectory) *Service {
	return &Service{repo: repo, users: users}
}

// CreateRequest holds the raw field values for a user-created event.
// Times are strings in the storage layout; StreetClosure and CommunityBoard
// are optional.
type CreateRequest struct {
	Name           string
	EventType      string
	Borough        string
	Location       string
	StartTime      string
	EndTime        string
	StreetClosure  string
	CommunityBoard string
	IsPublic       bool
}

// Create validates the request and stores a new user-created event.
func (s *Service) Create(creatorID int64, req CreateRequest) (*Event, error) {
	ok, err := s.users.Exists(creatorID)
	if err != nil {
		return nil, fmt.Errorf("checking creator: %w", err)
	}
	if !ok {
		return nil, apperror.NotFound("user", strconv.FormatInt(creatorID, 10))
	}

	name, err := ValidName(req.Name)
	if err != nil {
		return nil, err
	}
	eventType, err := ValidEventType(req.EventType)
	if err != nil {
		return nil, err
	}
	borough, err := ValidBorough(req.Borough)
	if err != nil {
		return nil, err
	}

	start, err := ParseTime(req.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := ParseTime(req.EndTime)
	if err != nil {
		return nil, err
	}
	if err := ValidTimeRange(start, end); err != nil {
		return nil, err
	}

	var streetClosure, communityBoard string
	if req.StreetClosure != "" {
		streetClosure, err = ValidStreetClosure(req.StreetClosure)
		if err != nil {
			return nil, err
		}
	}
	if req.CommunityBoard != "" {
		communityBoard, err = ValidCommunityBoard(req.CommunityBoard)
		if err != nil {
			return nil, err
		}
	}

	e := &Event{
		Name:           name,
		EventType:      eventType,
		Borough:        borough,
		Location:       req.Location,
		StartTime:      &start,
		EndTime:        &end,
		Source:         "user:" + strconv.FormatInt(creatorID, 10),
		StreetClosure:  streetClosure,
		CommunityBoard: communityBoard,
		IsPublic:       req.IsPublic,
		CreatedByID:    &creatorID,
	}

	saved, err := s.repo.Insert(e)
	if err != nil {
		return nil, fmt.Errorf("saving event: %w", err)
	}

	return saved, nil
}
