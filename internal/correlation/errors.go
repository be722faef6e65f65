package correlation

import "errors"

// Exchange outcomes the pool produces itself. Check with errors.Is().
var (
	// ErrCapacityExceeded is returned by Reserve when the in-flight ceiling
	// is reached. Nothing is queued; the caller decides whether to retry.
	ErrCapacityExceeded = errors.New("correlation: in-flight capacity exceeded")

	// ErrTimeout resolves an exchange that outlived the configured timeout.
	ErrTimeout = errors.New("correlation: device did not reply before timeout")

	// ErrSessionLost resolves every outstanding exchange when the device
	// session drops.
	ErrSessionLost = errors.New("correlation: device session lost")

	// ErrInvalidConfig is returned by NewPool for a non-positive ceiling or timeout.
	ErrInvalidConfig = errors.New("correlation: invalid pool config")
)
