package model

import "errors"

// Domain errors for the model package. Check with errors.Is().
var (
	// ErrInvalidRequest is returned when a request is structurally wrong
	// (missing entity, mismatched kinds, unknown op).
	ErrInvalidRequest = errors.New("model: invalid request")

	// ErrInvalidEntity is returned when entity field validation fails.
	ErrInvalidEntity = errors.New("model: invalid entity")
)
