// Package apperr defines the sentinel errors shared across layers.
package apperr

import "errors"

var (
	// ErrNotFound marks a missing note or resource.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable marks a store that has not been built yet; callers
	// should run ingestion rather than treat this as an empty result.
	ErrUnavailable = errors.New("store unavailable")
	// ErrUnknownModel marks an embedding model identity without a known
	// vector dimension.
	ErrUnknownModel = errors.New("unknown embedding model")
	// ErrDimensionMismatch marks a vector whose width disagrees with the
	// dimension the store was built with.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
