package event

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ereinhol/nycevents/internal/apperror"
)

// searchLimit caps the number of rows returned by Search.
const searchLimit = 200

// Repository provides CRUD operations for events.
type Repository struct {
	db *sql.DB
}

// NewRepository creates an event repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const insertSQL = `INSERT INTO events
	(name, event_type, borough, location, start_time, end_time, source, street_closure, community_board, is_public, created_by)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectColumns = `id, name, event_type, borough, location, start_time, end_time, source, street_closure, community_board, is_public, created_by, created_at, updated_at`

// Insert adds a new event and returns it with its generated ID.
func (r *Repository) Insert(e *Event) (*Event, error) {
	res, err := r.db.Exec(insertSQL,
		e.Name, nullString(e.EventType), nullString(e.Borough), nullString(e.Location),
		nullTime(e.StartTime), nullTime(e.EndTime), e.Source,
		nullString(e.StreetClosure), nullString(e.CommunityBoard),
		e.IsPublic, e.CreatedByID,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting event: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	return r.GetByID(id)
}

// GetByID returns an event by its ID.
func (r *Repository) GetByID(id int64) (*Event, error) {
	query := fmt.Sprintf("SELECT %s FROM events WHERE id = ?", selectColumns)
	row := r.db.QueryRow(query, id)

	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("event", strconv.FormatInt(id, 10))
	}
	if err != nil {
		return nil, fmt.Errorf("querying event %d: %w", id, err)
	}

	return e, nil
}

// List returns all events in insertion order.
func (r *Repository) List() ([]*Event, error) {
	query := fmt.Sprintf("SELECT %s FROM events ORDER BY id", selectColumns)
	return r.queryEvents(query)
}

// SearchOptions controls filtering for Search. Zero values mean "no filter".
type SearchOptions struct {
	Keyword    string
	Boroughs   []string
	EventTypes []string
	StartDate  string // YYYY-MM-DD inclusive
	EndDate    string // YYYY-MM-DD inclusive
}

// Search returns events matching the given filters, capped at 200 rows.
// Date filters apply to the start time; events without one are dropped only
// when a date filter is present.
func (r *Repository) Search(opts SearchOptions) ([]*Event, error) {
	query := fmt.Sprintf("SELECT %s FROM events", selectColumns)
	var args []interface{}
	var conditions []string

	if kw := strings.TrimSpace(opts.Keyword); kw != "" {
		conditions = append(conditions, "name LIKE ? ESCAPE '\\'")
		args = append(args, "%"+escapeLike(kw)+"%")
	}

	if cond, inArgs := inCondition("borough", opts.Boroughs); cond != "" {
		conditions = append(conditions, cond)
		args = append(args, inArgs...)
	}

	if cond, inArgs := inCondition("event_type", opts.EventTypes); cond != "" {
		conditions = append(conditions, cond)
		args = append(args, inArgs...)
	}

	if opts.StartDate != "" {
		if _, err := time.Parse("2006-01-02", opts.StartDate); err != nil {
			return nil, apperror.ValidationFailed("start_date", "start date must be YYYY-MM-DD")
		}
		conditions = append(conditions, "start_time IS NOT NULL AND start_time >= ?")
		args = append(args, opts.StartDate+" 00:00:00")
	}

	if opts.EndDate != "" {
		if _, err := time.Parse("2006-01-02", opts.EndDate); err != nil {
			return nil, apperror.ValidationFailed("end_date", "end date must be YYYY-MM-DD")
		}
		conditions = append(conditions, "start_time IS NOT NULL AND start_time <= ?")
		args = append(args, opts.EndDate+" 23:59:59")
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += fmt.Sprintf(" ORDER BY start_time, id LIMIT %d", searchLimit)

	return r.queryEvents(query, args...)
}

// SavedByUser returns the events the user has saved, in save order,
// oldest first.
func (r *Repository) SavedByUser(userID int64) ([]*Event, error) {
	cols := "e." + strings.ReplaceAll(selectColumns, ", ", ", e.")
	query := fmt.Sprintf(
		"SELECT %s FROM events e JOIN saved_events s ON s.event_id = e.id WHERE s.user_id = ? ORDER BY s.id",
		cols,
	)
	return r.queryEvents(query, userID)
}

// DistinctEventTypes returns the event types present in the store.
func (r *Repository) DistinctEventTypes() ([]string, error) {
	return r.distinct("event_type")
}

// DistinctBoroughs returns the boroughs present in the store.
func (r *Repository) DistinctBoroughs() ([]string, error) {
	return r.distinct("borough")
}

// ReplaceBySource atomically replaces all events with the given source.
// Used by the NYC importer: the delete and re-insert share one transaction
// so readers never observe a half-empty dataset.
func (r *Repository) ReplaceBySource(source string, events []*Event) (int, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.Exec("DELETE FROM events WHERE source = ?", source); err != nil {
		return 0, fmt.Errorf("clearing %s events: %w", source, err)
	}

	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			err = fmt.Errorf("closing statement: %w", cerr)
		}
	}()

	count := 0
	for _, e := range events {
		_, err := stmt.Exec(
			e.Name, nullString(e.EventType), nullString(e.Borough), nullString(e.Location),
			nullTime(e.StartTime), nullTime(e.EndTime), source,
			nullString(e.StreetClosure), nullString(e.CommunityBoard),
			e.IsPublic, e.CreatedByID,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting event %q: %w", e.Name, err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing: %w", err)
	}

	return count, nil
}

func (r *Repository) queryEvents(query string, args ...interface{}) ([]*Event, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	var events []*Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating events: %w", err)
	}

	return events, nil
}

func (r *Repository) distinct(column string) ([]string, error) {
	query := fmt.Sprintf(
		"SELECT DISTINCT %s FROM events WHERE %s IS NOT NULL AND TRIM(%s) != '' ORDER BY %s",
		column, column, column, column,
	)
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("querying distinct %s: %w", column, err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", column, err)
		}
		values = append(values, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", column, err)
	}

	return values, nil
}

// escapeLike escapes LIKE wildcards in user-supplied search keywords.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

// inCondition builds an "col IN (?, ...)" condition, skipping the filter
// entirely when the values include "all".
func inCondition(column string, values []string) (string, []interface{}) {
	var cleaned []interface{}
	for _, v := range values {
		v = strings.TrimSpace(v)
		if strings.EqualFold(v, "all") {
			return "", nil
		}
		if v != "" {
			cleaned = append(cleaned, v)
		}
	}
	if len(cleaned) == 0 {
		return "", nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cleaned)), ", ")
	return fmt.Sprintf("%s IN (%s)", column, placeholders), cleaned
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
