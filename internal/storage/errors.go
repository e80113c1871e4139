package storage

import "errors"

var (
	// ErrNotFound is returned when a key or resource is not found.
	ErrNotFound = errors.New("resource not found")
)
