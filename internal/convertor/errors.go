package convertor

import "errors"

var (
	// ErrUnsupported is returned when no conversion exists for the
	// requested protocol version and entity kind.
	ErrUnsupported = errors.New("convertor: unsupported version or entity")

	// ErrUnknownValue is returned when a canonical value has no protocol
	// encoding (unknown group type, meter flag or band type).
	ErrUnknownValue = errors.New("convertor: unknown value")
)
