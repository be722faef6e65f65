package mirror

import "errors"

var (
	// ErrNotFound is returned when a mirrored entity does not exist.
	ErrNotFound = errors.New("mirror: entity not found")

	// ErrUnknownEventKind is returned when applying an event with an unrecognised kind.
	ErrUnknownEventKind = errors.New("mirror: unknown event kind")
)
