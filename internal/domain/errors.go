package domain

import "errors"

// Sentinel errors shared across services and handlers.
var (
	// ErrNotFound indicates the requested query or source does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateURL indicates an insert hit the unique URL constraint.
	ErrDuplicateURL = errors.New("url already exists")

	// ErrValidation indicates missing or malformed caller input.
	ErrValidation = errors.New("validation failed")
)
