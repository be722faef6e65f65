package openflow

import "errors"

var (
	// ErrUnknownVersion is returned for version strings the controller does not speak.
	ErrUnknownVersion = errors.New("openflow: unknown protocol version")

	// ErrUnknownType is returned when decoding a frame with an unhandled message type.
	ErrUnknownType = errors.New("openflow: unknown message type")

	// ErrMalformed is returned for frames that cannot be decoded.
	ErrMalformed = errors.New("openflow: malformed frame")
)
