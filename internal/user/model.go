// Package user provides the user domain model, validation, and data access.
package user

import (
	"regexp"
	"strings"
	"time"

	"github.com/ereinhol/nycevents/internal/apperror"
	"github.com/ereinhol/nycevents/internal/event"
)

// User represents a registered account. The password hash never leaves the
// package boundary in serialized form.
type User struct {
	ID                int64     `json:"id"`
	Username          string    `json:"username"`
	FirstName         string    `json:"first_name"`
	LastName          string    `json:"last_name"`
	Email             string    `json:"email"`
	PasswordHash      string    `json:"-"`
	HomeBorough       *string   `json:"home_borough,omitempty"`
	FavoriteEventType *string   `json:"favorite_event_type,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

var (
	nameRegex     = regexp.MustCompile(`^[A-Za-z]+$`)
	usernameRegex = regexp.MustCompile(`^[A-Za-z0-9]+$`)
	emailRegex    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	upperRegex    = regexp.MustCompile(`[A-Z]`)
	digitRegex    = regexp.MustCompile(`[0-9]`)
	specialRegex  = regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{};':"\\|,.<>/?]`)
)

// ValidName validates a first or last name: 2-20 alphabetic characters.
func ValidName(field, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperror.ValidationFailed(field, field+" is required")
	}
	if !nameRegex.MatchString(name) {
		return "", apperror.ValidationFailed(field, field+" must contain only alphabet characters")
	}
	if len(name) < 2 || len(name) > 20 {
		return "", apperror.ValidationFailed(field, field+" must be between 2 and 20 characters long")
	}
	return name, nil
}

// ValidUsername validates a username: 5-10 alphanumeric characters.
// Uniqueness is checked separately at registration time.
func ValidUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", apperror.ValidationFailed("username", "username is required")
	}
	if len(username) < 5 || len(username) > 10 {
		return "", apperror.ValidationFailed("username", "username must be between 5 and 10 characters long")
	}
	if !usernameRegex.MatchString(username) {
		return "", apperror.ValidationFailed("username", "username must contain only alphanumeric characters")
	}
	return username, nil
}

// ValidPassword validates password strength: at least 8 characters with an
// uppercase letter, a digit, and a special character.
func ValidPassword(password string) (string, error) {
	password = strings.TrimSpace(password)
	if password == "" {
		return "", apperror.ValidationFailed("password", "password is required")
	}
	if len(password) < 8 {
		return "", apperror.ValidationFailed("password", "password must be at least 8 characters long")
	}
	if !upperRegex.MatchString(password) || !digitRegex.MatchString(password) || !specialRegex.MatchString(password) {
		return "", apperror.ValidationFailed("password",
			"password must contain at least one uppercase letter, one digit, and one special character")
	}
	return password, nil
}

// ValidEmail validates the shape of an email address.
func ValidEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if !emailRegex.MatchString(email) {
		return "", apperror.ValidationFailed("email", "email must be a valid email address")
	}
	return email, nil
}

// ValidHomeBorough validates an optional home borough preference.
func ValidHomeBorough(borough string) (string, error) {
	b, err := event.ValidBorough(borough)
	if err != nil {
		return "", apperror.ValidationFailed("home_borough",
			"home borough must be Manhattan, Brooklyn, Queens, Bronx, or Staten Island")
	}
	return b, nil
}

// ValidFavoriteEventType validates an optional favorite event type.
func ValidFavoriteEventType(eventType string) (string, error) {
	t, err := event.ValidEventType(eventType)
	if err != nil {
		return "", apperror.ValidationFailed("favorite_event_type", "favorite event type is not a known category")
	}
	return t, nil
}
