// Package event provides the event domain model and data access.
package event

import (
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/ereinhol/nycevents/internal/apperror"
)

// TimeLayout is the storage format for event start/end times.
const TimeLayout = "2006-01-02 15:04:05"

// EventTypes is the fixed set of categories from the NYC permitted-events
// dataset. Matching is case-sensitive.
var EventTypes = []string{
	"Special Event",
	"Sport - Adult",
	"Sport - Youth",
	"Production Event",
	"Open Street Partner Event",
	"Plaza Partner Event",
	"Street Event",
	"Religious Event",
	"Farmers Market",
	"Sidewalk Sale",
	"Theater Load in and Load Outs",
	"Parade",
	"Miscellaneous",
	"Plaza Event",
	"Block Party",
	"Clean-Up",
}

// Boroughs is the set of valid borough values in canonical capitalization.
var Boroughs = []string{
	"Manhattan",
	"Brooklyn",
	"Queens",
	"Bronx",
	"Staten Island",
}

// Event represents a single event, either imported from the NYC dataset or
// created by a user. StartTime and EndTime are nil when the source data
// carried no parseable timestamp.
type Event struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	EventType      string     `json:"event_type,omitempty"`
	Borough        string     `json:"borough,omitempty"`
	Location       string     `json:"location,omitempty"`
	StartTime      *time.Time `json:"start_time,omitempty"`
	EndTime        *time.Time `json:"end_time,omitempty"`
	Source         string     `json:"source"`
	StreetClosure  string     `json:"street_closure,omitempty"`
	CommunityBoard string     `json:"community_board,omitempty"`
	IsPublic       bool       `json:"is_public"`
	CreatedByID    *int64     `json:"created_by,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// IsFuture reports whether the event starts strictly after now. Events
// without a resolvable start time are never considered future.
func (e *Event) IsFuture(now time.Time) bool {
	return e.StartTime != nil && e.StartTime.After(now)
}

// ValidName validates and trims an event name.
func ValidName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperror.ValidationFailed("name", "event name is required")
	}
	if len(name) < 2 {
		return "", apperror.ValidationFailed("name", "event name must be at least 2 characters long")
	}
	return name, nil
}

// ValidEventType validates that a type is one of the known categories.
func ValidEventType(eventType string) (string, error) {
	eventType = strings.TrimSpace(eventType)
	if eventType == "" {
		return "", apperror.ValidationFailed("event_type", "event type is required")
	}
	for _, t := range EventTypes {
		if eventType == t {
			return eventType, nil
		}
	}
	return "", apperror.ValidationFailed("event_type",
		"event type must be one of: "+strings.Join(EventTypes, ", "))
}

// ValidBorough validates a borough, case-insensitively, and returns it in
// canonical capitalization.
func ValidBorough(borough string) (string, error) {
	borough = strings.TrimSpace(borough)
	for _, b := range Boroughs {
		if strings.EqualFold(borough, b) {
			return b, nil
		}
	}
	return "", apperror.ValidationFailed("borough",
		"borough must be Manhattan, Brooklyn, Queens, Bronx, or Staten Island")
}

// ValidStreetClosure validates an optional street closure description.
func ValidStreetClosure(closure string) (string, error) {
	closure = strings.TrimSpace(closure)
	if len(closure) < 4 {
		return "", apperror.ValidationFailed("street_closure",
			"street closure information must be at least 4 characters long")
	}
	return closure, nil
}

// ValidCommunityBoard validates an optional community board number.
func ValidCommunityBoard(board string) (string, error) {
	board = strings.TrimSpace(board)
	n, err := strconv.Atoi(board)
	if err != nil || n < 1 {
		return "", apperror.ValidationFailed("community_board",
			"community board must be a positive integer")
	}
	return board, nil
}

// ParseTime parses an event timestamp in the storage layout.
func ParseTime(value string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, apperror.ValidationFailed("time",
			"time must be in format "+TimeLayout)
	}
	return t, nil
}

// ValidTimeRange checks that start is strictly before end.
func ValidTimeRange(start, end time.Time) error {
	if !start.Before(end) {
		return apperror.ValidationFailed("start_time", "start time must be before end time")
	}
	return nil
}

// scanEvent scans an event from a database row.
func scanEvent(row interface{ Scan(...interface{}) error }) (*Event, error) {
	var e Event
	var eventType, borough, location, streetClosure, communityBoard sql.NullString
	var startTime, endTime sql.NullTime
	var createdBy sql.NullInt64

	err := row.Scan(
		&e.ID, &e.Name, &eventType, &borough, &location,
		&startTime, &endTime, &e.Source, &streetClosure, &communityBoard,
		&e.IsPublic, &createdBy, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if eventType.Valid {
		e.EventType = eventType.String
	}
	if borough.Valid {
		e.Borough = borough.String
	}
	if location.Valid {
		e.Location = location.String
	}
	if streetClosure.Valid {
		e.StreetClosure = streetClosure.String
	}
	if communityBoard.Valid {
		e.CommunityBoard = communityBoard.String
	}
	if startTime.Valid {
		t := startTime.Time
		e.StartTime = &t
	}
	if endTime.Valid {
		t := endTime.Time
		e.EndTime = &t
	}
	if createdBy.Valid {
		id := createdBy.Int64
		e.CreatedByID = &id
	}

	return &e, nil
}
