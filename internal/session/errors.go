package session

import "errors"

var (
	// ErrNotFound means the session is absent or has expired.
	ErrNotFound = errors.New("session not found or already ended")

	// ErrConflict means a turn was attempted on a concluded session.
	ErrConflict = errors.New("session is already concluded")

	// ErrValidation means the caller's input was malformed.
	ErrValidation = errors.New("user profile is required when anonymous is false")
)
