package comment

import (
	"database/sql"
	"fmt"
	"strings"
)

// Repository provides storage access for comments. Mutations go through
// Manager, which wraps them in per-event transactions.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a comment repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectColumns = `id, event_id, author_id, author_name, text, parent_id, created_at`

// ListByEventID returns an event's comment collection. Comment IDs are
// time-ordered (xid), so ordering by id is creation order.
func (r *Repository) ListByEventID(eventID int64) ([]*Comment, error) {
	return listComments(r.db, eventID)
}

// querier is the subset of *sql.DB and *sql.Tx the read path needs.
type querier interface {
	Query(query string, args ...interface{}) (*sql.Rows, error)
}

func listComments(q querier, eventID int64) ([]*Comment, error) {
	query := fmt.Sprintf("SELECT %s FROM comments WHERE event_id = ? ORDER BY id", selectColumns)
	rows, err := q.Query(query, eventID)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	var comments []*Comment
	for rows.Next() {
		var c Comment
		var parentID sql.NullString
		if err := rows.Scan(&c.ID, &c.EventID, &c.AuthorID, &c.AuthorName, &c.Text, &parentID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning comment: %w", err)
		}
		if parentID.Valid {
			c.ParentID = &parentID.String
		}
		comments = append(comments, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating comments: %w", err)
	}

	return comments, nil
}

// insertTx appends one comment inside a transaction.
func insertTx(tx *sql.Tx, c *Comment) error {
	_, err := tx.Exec(
		`INSERT INTO comments (id, event_id, author_id, author_name, text, parent_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.EventID, c.AuthorID, c.AuthorName, c.Text, c.ParentID, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting comment: %w", err)
	}
	return nil
}

// deleteSetTx removes the given comment IDs from one event in a single
// DELETE statement, so intermediate states are never observable.
func deleteSetTx(tx *sql.Tx, eventID int64, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]interface{}, 0, len(ids)+1)
	args = append(args, eventID)
	for _, id := range ids {
		args = append(args, id)
	}

	res, err := tx.Exec(
		fmt.Sprintf("DELETE FROM comments WHERE event_id = ? AND id IN (%s)", placeholders),
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting comments: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return n, nil
}
