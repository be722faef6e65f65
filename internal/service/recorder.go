package service

import (
	"errors"
	"time"

	"github.com/nerrad567/gray-logic-switchd/internal/model"
)

// Exchange outcome labels.
const (
	OutcomeSuccess     = "success"
	OutcomeRejected    = "rejected"
	OutcomeTimeout     = "timeout"
	OutcomeSessionLost = "session_lost"
	OutcomeCapacity    = "capacity_exceeded"
	OutcomeConflict    = "policy_conflict"
	OutcomeError       = "error"
)

// Exchange summarises one finished operation for telemetry.
type Exchange struct {
	DeviceID string
	Kind     model.Kind
	Op       model.Op
	Path     Path
	Outcome  string
	Latency  time.Duration
}

// ExchangeRecorder receives every finished operation.
type ExchangeRecorder interface {
	RecordExchange(ex Exchange)
}

// Recorders fans an exchange out to several recorders.
type Recorders []ExchangeRecorder

// RecordExchange implements ExchangeRecorder.
func (rs Recorders) RecordExchange(ex Exchange) {
	for _, r := range rs {
		r.RecordExchange(ex)
	}
}

type noopRecorder struct{}

func (noopRecorder) RecordExchange(Exchange) {}

// OutcomeLabel maps a result to its telemetry label.
func OutcomeLabel(r Result) string {
	switch {
	case r.Success:
		return OutcomeSuccess
	case errors.Is(r.Err, ErrDeviceRejected):
		return OutcomeRejected
	case errors.Is(r.Err, ErrTimeout):
		return OutcomeTimeout
	case errors.Is(r.Err, ErrSessionLost):
		return OutcomeSessionLost
	case errors.Is(r.Err, ErrCapacityExceeded):
		return OutcomeCapacity
	case errors.Is(r.Err, ErrPolicyConflict):
		return OutcomeConflict
	default:
		return OutcomeError
	}
}
