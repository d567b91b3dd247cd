package repository

import "errors"

var (
	// ErrNotFound is returned when no row matches. Owner-scoped lookups return
	// it for rows that exist but belong to someone else.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write violates a uniqueness constraint.
	ErrDuplicate = errors.New("record already exists")
)
