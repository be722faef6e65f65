package service

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-switchd/internal/correlation"
	"github.com/nerrad567/gray-logic-switchd/internal/model"
	"github.com/nerrad567/gray-logic-switchd/internal/openflow"
	"github.com/nerrad567/gray-logic-switchd/internal/registry"
)

// Transmitter sends an encoded exchange to a device. Replies come back
// through the session, matched by xid.
type Transmitter interface {
	Transmit(ctx context.Context, deviceID string, version openflow.Version, xid uint32, msg openflow.Message) error
}

// Device reports what was negotiated with the device on connect.
type Device interface {
	Negotiated() (openflow.Version, Capabilities)
}

// Logger is the subset of logging.Logger the services use.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// OperationService runs operations of one entity kind over one path.
type OperationService struct {
	deviceID string
	kind     model.Kind
	path     Path
	build    builder

	pool        *correlation.Pool[openflow.Message]
	registry    *registry.Registry
	device      Device
	transmitter Transmitter
	reconciler  *Reconciler
	recorder    ExchangeRecorder
	logger      Logger
}

// Kind returns the entity kind this service handles.
func (s *OperationService) Kind() model.Kind { return s.kind }

// Path returns the path this service builds messages with.
func (s *OperationService) Path() Path { return s.path }

// Handle starts req and returns its result handle without blocking.
//
// A full pool completes the handle immediately with ErrCapacityExceeded.
// Otherwise the slot is always resolved: by the reply, by expiry, by the
// session closing, or here when the message cannot be built or sent.
func (s *OperationService) Handle(ctx context.Context, req model.Request) *correlation.Future[Result] {
	xid, pending, err := s.pool.Reserve()
	if err != nil {
		res := failure(err)
		s.record(req, res, 0)
		return correlation.Completed(res)
	}

	result := correlation.NewFuture[Result]()
	pending.OnComplete(func(o correlation.Outcome[openflow.Message]) {
		res := s.complete(req, o)
		s.record(req, res, o.Latency)
		result.Complete(res)
	})

	version, _ := s.device.Negotiated()
	msg, err := s.build(req, version)
	if err != nil {
		s.pool.Resolve(xid, nil, fmt.Errorf("building %s %s: %w", s.kind, req.Op, err))
		return result
	}

	if req.Op == model.OpRemove {
		s.registry.MarkPendingRemoval(req.Entity.EntityID())
	}

	if err := s.transmitter.Transmit(ctx, s.deviceID, version, uint32(xid), msg); err != nil {
		s.pool.Resolve(xid, nil, fmt.Errorf("transmitting %s %s: %w", s.kind, req.Op, err))
	}
	return result
}

// complete runs on the goroutine that resolved the slot.
func (s *OperationService) complete(req model.Request, o correlation.Outcome[openflow.Message]) Result {
	id := req.Entity.EntityID()

	var res Result
	if o.Err != nil {
		o.Reply = nil
	}
	switch reply := o.Reply.(type) {
	case nil:
		err := o.Err
		if err == nil {
			err = fmt.Errorf("%w: empty reply", ErrUnexpectedReply)
		}
		res = failure(err)
	case *openflow.ErrorMsg:
		res = rejected(reply)
	case *openflow.BarrierReply:
		if err := s.reconciler.Reconcile(req); err != nil {
			res = failure(err)
			break
		}
		res = success(Output{
			TransactionID: uint32(o.ID),
			Kind:          s.kind,
			Op:            req.Op,
			EntityID:      id,
			Path:          s.path.String(),
		})
		s.logger.Debug("operation acknowledged",
			"device_id", s.deviceID, "kind", s.kind, "op", req.Op, "entity_id", id, "xid", uint32(o.ID))
	default:
		res = failure(fmt.Errorf("%w: %s", ErrUnexpectedReply, reply.Type()))
	}

	if !res.Success {
		s.logger.Warn("operation failed",
			"device_id", s.deviceID,
			"kind", s.kind,
			"op", req.Op,
			"entity_id", id,
			"xid", uint32(o.ID),
			"errors", res.FormatErrors(),
		)
	}
	return res
}

func (s *OperationService) record(req model.Request, res Result, latency time.Duration) {
	s.recorder.RecordExchange(Exchange{
		DeviceID: s.deviceID,
		Kind:     s.kind,
		Op:       req.Op,
		Path:     s.path,
		Outcome:  OutcomeLabel(res),
		Latency:  latency,
	})
}
