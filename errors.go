// this file defines the failure conditions surfaced by the service layer
package main

import "errors"

var (
	// ErrTrackNotFound is returned when an operation references a track id
	// that does not exist.
	ErrTrackNotFound = errors.New("track not found")

	// ErrDuplicateRating is returned when a (track, user) pair already has a
	// rating. The existing row is never overwritten.
	ErrDuplicateRating = errors.New("track already rated by this user")
)

// ValidationError is rejected input, caught before touching storage.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErr(message string) error {
	return &ValidationError{Message: message}
}
