package user

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"

	"github.com/ereinhol/nycevents/internal/apperror"
)

// Repository provides account storage and the saved-events list.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a user repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectColumns = `id, username, first_name, last_name, email, password_hash, home_borough, favorite_event_type, created_at`

// RegisterRequest holds the raw registration fields. HomeBorough and
// FavoriteEventType are optional.
type RegisterRequest struct {
	Username          string
	FirstName         string
	LastName          string
	Email             string
	Password          string
	HomeBorough       string
	FavoriteEventType string
}

// Register validates the request, hashes the password, and creates the
// account. Usernames are unique case-insensitively.
func (r *Repository) Register(req RegisterRequest) (*User, error) {
	username, err := ValidUsername(req.Username)
	if err != nil {
		return nil, err
	}
	firstName, err := ValidName("first name", req.FirstName)
	if err != nil {
		return nil, err
	}
	lastName, err := ValidName("last name", req.LastName)
	if err != nil {
		return nil, err
	}
	email, err := ValidEmail(req.Email)
	if err != nil {
		return nil, err
	}
	password, err := ValidPassword(req.Password)
	if err != nil {
		return nil, err
	}

	var homeBorough, favoriteType interface{}
	if req.HomeBorough != "" {
		b, err := ValidHomeBorough(req.HomeBorough)
		if err != nil {
			return nil, err
		}
		homeBorough = b
	}
	if req.FavoriteEventType != "" {
		t, err := ValidFavoriteEventType(req.FavoriteEventType)
		if err != nil {
			return nil, err
		}
		favoriteType = t
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	res, err := r.db.Exec(
		`INSERT INTO users (username, lower_username, first_name, last_name, email, password_hash, home_borough, favorite_event_type)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		username, strings.ToLower(username), firstName, lastName, email, string(hash), homeBorough, favoriteType,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, apperror.ValidationFailed("username", "username already exists, please choose a different one")
		}
		return nil, fmt.Errorf("inserting user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user id: %w", err)
	}

	return r.GetByID(id)
}

// Authenticate checks a username/password pair and returns the account.
// Wrong username and wrong password are indistinguishable to the caller.
func (r *Repository) Authenticate(username, password string) (*User, error) {
	u, err := r.getByLowerUsername(strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.ValidationFailed("username", "invalid username or password")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, apperror.ValidationFailed("username", "invalid username or password")
	}

	return u, nil
}

// GetByID returns a user by ID.
func (r *Repository) GetByID(id int64) (*User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE id = ?", selectColumns)
	u, err := scanUser(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("user", strconv.FormatInt(id, 10))
	}
	if err != nil {
		return nil, fmt.Errorf("querying user %d: %w", id, err)
	}
	return u, nil
}

// Exists reports whether a user with the given ID exists.
func (r *Repository) Exists(id int64) (bool, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM users WHERE id = ?", id).Scan(&count); err != nil {
		return false, fmt.Errorf("checking user %d: %w", id, err)
	}
	return count > 0, nil
}

func (r *Repository) getByLowerUsername(lower string) (*User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE lower_username = ?", selectColumns)
	u, err := scanUser(r.db.QueryRow(query, lower))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("user", lower)
	}
	if err != nil {
		return nil, fmt.Errorf("querying user %q: %w", lower, err)
	}
	return u, nil
}

// SaveEvent adds an event to the user's saved list. Saving an already-saved
// event is a no-op and keeps the original position.
func (r *Repository) SaveEvent(userID, eventID int64) error {
	_, err := r.db.Exec(
		"INSERT OR IGNORE INTO saved_events (user_id, event_id) VALUES (?, ?)",
		userID, eventID,
	)
	if err != nil {
		return fmt.Errorf("saving event %d for user %d: %w", eventID, userID, err)
	}
	return nil
}

// UnsaveEvent removes an event from the user's saved list.
func (r *Repository) UnsaveEvent(userID, eventID int64) error {
	_, err := r.db.Exec(
		"DELETE FROM saved_events WHERE user_id = ? AND event_id = ?",
		userID, eventID,
	)
	if err != nil {
		return fmt.Errorf("unsaving event %d for user %d: %w", eventID, userID, err)
	}
	return nil
}

// SavedEventIDs returns the user's saved event IDs in insertion order,
// oldest first. The tail of the list is the most recent affinity signal.
func (r *Repository) SavedEventIDs(userID int64) ([]int64, error) {
	rows, err := r.db.Query(
		"SELECT event_id FROM saved_events WHERE user_id = ? ORDER BY id",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing saved events: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning saved event: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating saved events: %w", err)
	}

	return ids, nil
}

// scanUser scans a user from a database row.
func scanUser(row interface{ Scan(...interface{}) error }) (*User, error) {
	var u User
	var homeBorough, favoriteType sql.NullString

	err := row.Scan(
		&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.Email,
		&u.PasswordHash, &homeBorough, &favoriteType, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if homeBorough.Valid {
		u.HomeBorough = &homeBorough.String
	}
	if favoriteType.Valid {
		u.FavoriteEventType = &favoriteType.String
	}

	return &u, nil
}
