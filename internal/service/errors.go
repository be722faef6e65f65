package service

import (
	"errors"

	"github.com/nerrad567/gray-logic-switchd/internal/correlation"
	"github.com/nerrad567/gray-logic-switchd/internal/registry"
)

// Outcome taxonomy delivered in Result.Err. Check with errors.Is().
var (
	ErrCapacityExceeded = correlation.ErrCapacityExceeded
	ErrTimeout          = correlation.ErrTimeout
	ErrSessionLost      = correlation.ErrSessionLost
	ErrPolicyConflict   = registry.ErrPolicyConflict

	// ErrDeviceRejected is set when the device replied with an error.
	// Result.Errors holds what it reported.
	ErrDeviceRejected = errors.New("service: device rejected operation")

	// ErrUnexpectedReply is set when a reply is neither an acknowledgment
	// nor an error.
	ErrUnexpectedReply = errors.New("service: unexpected reply")
)

// ErrNoService is returned by Dispatch for a kind with no operation service.
var ErrNoService = errors.New("service: no operation service for kind")
