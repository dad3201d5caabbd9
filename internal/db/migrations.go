package db

import (
	"database/sql"
	"fmt"
)

// migrations is an ordered list of SQL statements to run.
// Each migration runs inside a transaction.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		name        TEXT    NOT NULL,
		event_type  TEXT,
		borough     TEXT,
		location    TEXT,
		start_time  DATETIME,
		end_time    DATETIME,
		source      TEXT    NOT NULL DEFAULT '',
		is_public   INTEGER NOT NULL DEFAULT 1,
		created_by  INTEGER REFERENCES users(id),
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		username       TEXT    NOT NULL,
		lower_username TEXT    NOT NULL UNIQUE,
		first_name     TEXT    NOT NULL,
		last_name      TEXT    NOT NULL,
		email          TEXT    NOT NULL,
		password_hash  TEXT    NOT NULL,
		home_borough   TEXT,
		created_at     DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	// Comment IDs are generated by the application, not the database.
	// parent_id is deliberately not a foreign key: the comment tree code
	// validates parent references itself and must not assume the store does.
	`CREATE TABLE IF NOT EXISTS comments (
		id          TEXT    PRIMARY KEY,
		event_id    INTEGER NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		author_id   INTEGER NOT NULL,
		author_name TEXT    NOT NULL,
		text        TEXT    NOT NULL,
		parent_id   TEXT,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_event ON comments(event_id)`,
	// Row id doubles as insertion order: the most recently saved event is
	// the row with the largest id.
	`CREATE TABLE IF NOT EXISTS saved_events (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		event_id   INTEGER NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(user_id, event_id)
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id         TEXT     PRIMARY KEY,
		user_id    INTEGER  NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		expires_at DATETIME NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
}

// migrate runs all migrations in order.
func migrate(db *sql.DB) error {
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}

	// Column additions (idempotent — checks if column exists first)
	columnMigrations := []struct {
		table, column, definition string
	}{
		{"events", "street_closure", "TEXT"},
		{"events", "community_board", "TEXT"},
		{"users", "favorite_event_type", "TEXT"},
	}

	for _, cm := range columnMigrations {
		if err := addColumnIfNotExists(db, cm.table, cm.column, cm.definition); err != nil {
			return fmt.Errorf("adding %s.%s: %w", cm.table, cm.column, err)
		}
	}

	return nil
}

// addColumnIfNotExists adds a column to a table if it doesn't already exist.
func addColumnIfNotExists(db *sql.DB, table, column, definition string) error {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return fmt.Errorf("checking table info: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			fmt.Printf("warning: closing rows: %v\n", cerr)
		}
	}()

	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return fmt.Errorf("scanning column info: %w", err)
		}
		if name == column {
			return nil // column already exists
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating columns: %w", err)
	}

	_, err = db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
	return err
}
