package comment

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/ereinhol/nycevents/internal/apperror"
	"github.com/ereinhol/nycevents/internal/user"
)

// busyRetries bounds how often a mutation is retried after losing a write
// race before the conflict is surfaced to the caller.
const busyRetries = 3

// Manager mutates one event's comment collection: append, cascading delete,
// ownership enforcement. Every mutation reads the collection, computes the
// delta, and applies it inside a single transaction per event, so a
// concurrent writer can never resurrect removed comments.
type Manager struct {
	db    *sql.DB
	repo  *Repository
	users *user.Repository

	now   func() time.Time
	newID func() string
}

// NewManager creates a comment manager.
func NewManager(db *sql.DB, repo *Repository, users *user.Repository) *Manager {
	return &Manager{
		db:    db,
		repo:  repo,
		users: users,
		now:   time.Now,
		newID: func() string { return xid.New().String() },
	}
}

// Add validates and appends a new comment to an event. The comment is
// constructed here — fresh id, trimmed text, current timestamp — never by
// the caller. parentID, if set, must reference an existing comment of the
// same event.
func (m *Manager) Add(eventID, authorID int64, text string, parentID *string) (*Comment, error) {
	trimmed, err := ValidText(text)
	if err != nil {
		return nil, err
	}
	if parentID != nil && strings.TrimSpace(*parentID) == "" {
		return nil, apperror.InvalidID("parent comment", *parentID)
	}

	author, err := m.users.GetByID(authorID)
	if err != nil {
		return nil, err
	}

	c := &Comment{
		ID:         m.newID(),
		EventID:    eventID,
		AuthorID:   author.ID,
		AuthorName: author.Username,
		Text:       trimmed,
		ParentID:   parentID,
		CreatedAt:  m.now().UTC(),
	}

	err = m.withRetry(func(tx *sql.Tx) error {
		if err := eventExistsTx(tx, eventID); err != nil {
			return err
		}
		if parentID != nil {
			var count int
			if err := tx.QueryRow(
				"SELECT COUNT(*) FROM comments WHERE event_id = ? AND id = ?",
				eventID, *parentID,
			).Scan(&count); err != nil {
				return fmt.Errorf("checking parent comment: %w", err)
			}
			if count == 0 {
				return apperror.NotFound("parent comment", *parentID)
			}
		}
		return insertTx(tx, c)
	})
	if err != nil {
		return nil, err
	}

	return c, nil
}

// Delete removes a comment and every transitive reply in one logical step.
// Only the comment's author may delete it; there is no moderator override.
// Removing a comment with k strict descendants removes exactly k+1 rows.
func (m *Manager) Delete(eventID int64, commentID string, requesterID int64) error {
	if strings.TrimSpace(commentID) == "" {
		return apperror.InvalidID("comment", commentID)
	}

	return m.withRetry(func(tx *sql.Tx) error {
		if err := eventExistsTx(tx, eventID); err != nil {
			return err
		}

		comments, err := listComments(tx, eventID)
		if err != nil {
			return err
		}

		var target *Comment
		for _, c := range comments {
			if c.ID == commentID {
				target = c
				break
			}
		}
		if target == nil {
			return apperror.NotFound("comment", commentID)
		}
		if target.AuthorID != requesterID {
			return apperror.NotOwner("you can only delete your own comments")
		}

		ids := collectSubtree(comments, commentID)
		n, err := deleteSetTx(tx, eventID, ids)
		if err != nil {
			return err
		}
		if n != int64(len(ids)) {
			// The snapshot and the delete share a transaction; a mismatch
			// means the store changed underneath us anyway.
			return apperror.Conflict("comment", commentID)
		}
		return nil
	})
}

// TreeForEvent returns the event's comments as a nested forest for display.
func (m *Manager) TreeForEvent(eventID int64) ([]*Node, error) {
	comments, err := m.repo.ListByEventID(eventID)
	if err != nil {
		return nil, err
	}
	return BuildForest(comments), nil
}

// withRetry runs fn in a transaction, retrying a bounded number of times
// when SQLite reports a write lock conflict. Validation, not-found, and
// ownership failures are never retried.
func (m *Manager) withRetry(fn func(tx *sql.Tx) error) error {
	var lastErr error
	for attempt := 0; attempt < busyRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * 10 * time.Millisecond)
		}

		err := m.inTx(fn)
		if err == nil {
			return nil
		}
		if !isBusy(err) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("%w: %v", apperror.ErrConflict, lastErr)
}

func (m *Manager) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	return nil
}

func eventExistsTx(tx *sql.Tx, eventID int64) error {
	var count int
	if err := tx.QueryRow("SELECT COUNT(*) FROM events WHERE id = ?", eventID).Scan(&count); err != nil {
		return fmt.Errorf("checking event %d: %w", eventID, err)
	}
	if count == 0 {
		return apperror.NotFound("event", strconv.FormatInt(eventID, 10))
	}
	return nil
}

// isBusy reports whether err is a SQLite lock conflict worth retrying.
func isBusy(err error) bool {
	if err == nil || errors.Is(err, apperror.ErrValidation) ||
		errors.Is(err, apperror.ErrNotFound) || errors.Is(err, apperror.ErrNotOwner) {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "database table is locked")
}
