package transport

import "errors"

var (
	// ErrUnknownDevice is returned for traffic from a device with no session.
	ErrUnknownDevice = errors.New("transport: unknown device")

	// ErrBadTopic is returned for a topic outside the switch tree.
	ErrBadTopic = errors.New("transport: unexpected topic")

	// ErrBadSessionEvent is returned for an unparseable session event.
	ErrBadSessionEvent = errors.New("transport: invalid session event")
)
