// Package comment provides threaded comments on events: a flat,
// parent-referencing forest per event with cascading delete.
package comment

import (
	"strings"
	"time"

	"github.com/ereinhol/nycevents/internal/apperror"
)

// MaxTextLen is the maximum comment length after trimming.
const MaxTextLen = 1000

// Comment represents one comment on an event. ParentID is nil for top-level
// comments; otherwise it references another comment of the same event.
// IDs are generated by the application (xid), never by the store.
type Comment struct {
	ID         string    `json:"id"`
	EventID    int64     `json:"event_id"`
	AuthorID   int64     `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Text       string    `json:"text"`
	ParentID   *string   `json:"parent_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ValidText validates and trims comment text.
func ValidText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperror.ValidationFailed("text", "comment text is required")
	}
	if len(text) > MaxTextLen {
		return "", apperror.ValidationFailed("text", "comment text is too long")
	}
	return text, nil
}
