// Package apperr defines sentinel errors shared across Hackshelf layers.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidInput marks user-input validation failures; the message
	// wrapped around it is safe to surface to the user.
	ErrInvalidInput = errors.New("invalid input")
	// ErrProtected marks deletion attempts on remotely sourced records,
	// which are only ever flagged obsolete, never removed.
	ErrProtected = errors.New("record is protected from deletion")
)
