// Package validation holds shared input validation rules.
package validation

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
)

var (
	// ErrInvalidUsername is returned when a username doesn't match the required format
	ErrInvalidUsername = errors.New("username must be 3-32 characters: letters, digits, underscores")

	// ErrInvalidEmail is returned when an email address cannot be parsed
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrPasswordTooShort is returned when a password is shorter than 8 characters
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")

	// ErrInvalidColor is returned when a label color is not a hex color
	ErrInvalidColor = errors.New("color must be a hex value like #3b82f6")

	// usernameRegex keeps usernames mention-safe: they must match the
	// @username token syntax used in chat messages.
	usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_]{3,32}$`)

	colorRegex = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
)

// NormalizeUsername trims surrounding whitespace from a username.
func NormalizeUsername(username string) string {
	return strings.TrimSpace(username)
}

// ValidateUsername validates a username for registration and profile updates.
func ValidateUsername(username string) error {
	if !usernameRegex.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

// ValidateEmail validates email format using net/mail (RFC 5322 simplified).
func ValidateEmail(email string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidEmail
	}
	return nil
}

// ValidatePassword enforces the minimum password length.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return ErrPasswordTooShort
	}
	return nil
}

// ValidateColor validates a label color as a #rrggbb hex value.
func ValidateColor(color string) error {
	if !colorRegex.MatchString(color) {
		return ErrInvalidColor
	}
	return nil
}
