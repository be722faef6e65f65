package session

import "errors"

var (
	// ErrNotConnected is returned, together with correlation.ErrSessionLost,
	// for transmits while the device is offline.
	ErrNotConnected = errors.New("session: device not connected")

	// ErrDuplicateSession is returned when a device id is added twice.
	ErrDuplicateSession = errors.New("session: device already has a session")

	// ErrUnknownDevice is returned when no session exists for a device id.
	ErrUnknownDevice = errors.New("session: unknown device")
)
