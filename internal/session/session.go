package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-switchd/internal/convertor"
	"github.com/nerrad567/gray-logic-switchd/internal/correlation"
	"github.com/nerrad567/gray-logic-switchd/internal/mirror"
	"github.com/nerrad567/gray-logic-switchd/internal/model"
	"github.com/nerrad567/gray-logic-switchd/internal/openflow"
	"github.com/nerrad567/gray-logic-switchd/internal/registry"
	"github.com/nerrad567/gray-logic-switchd/internal/service"
)

// Logger is the subset of logging.Logger a session uses.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}

// Config describes one device session.
type Config struct {
	DeviceID string

	// Version is assumed until the device connects and negotiates.
	Version openflow.Version

	MaxInFlight    int
	RequestTimeout time.Duration
	ExpiryInterval time.Duration

	Transmitter service.Transmitter
	Convertor   convertor.Convertor

	// Mirror is optional.
	Mirror *mirror.Sink
	// Recorder is optional.
	Recorder service.ExchangeRecorder
	// Logger is optional.
	Logger Logger

	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// Session is the controller's view of one device connection.
type Session struct {
	id     string
	logger Logger

	mu          sync.RWMutex
	connected   bool
	version     openflow.Version
	caps        service.Capabilities
	connectedAt time.Time

	pool       *correlation.Pool[openflow.Message]
	registries service.Registries
	dispatcher *service.Dispatcher
	tx         service.Transmitter
	now        func() time.Time
}

// New creates a disconnected session.
func New(cfg Config) (*Session, error) {
	if cfg.DeviceID == "" {
		return nil, errors.New("session: device id is required")
	}
	if cfg.Transmitter == nil {
		return nil, errors.New("session: transmitter is required")
	}
	if cfg.Convertor == nil {
		cfg.Convertor = convertor.Default()
	}
	if cfg.Logger == nil {
		cfg.Logger = noopLogger{}
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Version == 0 {
		cfg.Version = openflow.Version13
	}

	pool, err := correlation.NewPool[openflow.Message](correlation.Config{
		Capacity:       cfg.MaxInFlight,
		Timeout:        cfg.RequestTimeout,
		ExpiryInterval: cfg.ExpiryInterval,
		Clock:          cfg.Clock,
	})
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", cfg.DeviceID, err)
	}
	pool.SetLogger(cfg.Logger)

	s := &Session{
		id:         cfg.DeviceID,
		logger:     cfg.Logger,
		version:    cfg.Version,
		pool:       pool,
		registries: service.NewRegistries(cfg.DeviceID, cfg.Logger),
		tx:         cfg.Transmitter,
		now:        cfg.Clock,
	}

	s.dispatcher, err = service.NewDispatcher(service.Config{
		DeviceID:    cfg.DeviceID,
		Pool:        pool,
		Registries:  s.registries,
		Device:      s,
		Transmitter: transmitterFunc(s.transmit),
		Convertor:   cfg.Convertor,
		Mirror:      cfg.Mirror,
		Recorder:    cfg.Recorder,
		Logger:      cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", cfg.DeviceID, err)
	}
	return s, nil
}

type transmitterFunc func(ctx context.Context, deviceID string, version openflow.Version, xid uint32, msg openflow.Message) error

func (f transmitterFunc) Transmit(ctx context.Context, deviceID string, version openflow.Version, xid uint32, msg openflow.Message) error {
	return f(ctx, deviceID, version, xid, msg)
}

func (s *Session) transmit(ctx context.Context, deviceID string, version openflow.Version, xid uint32, msg openflow.Message) error {
	if !s.Connected() {
		return fmt.Errorf("%w: %w", correlation.ErrSessionLost, ErrNotConnected)
	}
	return s.tx.Transmit(ctx, deviceID, version, xid, msg)
}

// ID returns the device id.
func (s *Session) ID() string { return s.id }

// Negotiated implements service.Device.
func (s *Session) Negotiated() (openflow.Version, service.Capabilities) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version, s.caps
}

// Connected reports whether the device is online.
func (s *Session) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// Connect records a completed handshake. Capabilities replace whatever
// the previous connection advertised.
func (s *Session) Connect(version openflow.Version, caps service.Capabilities) {
	s.mu.Lock()
	s.connected = true
	s.version = version
	s.caps = append(service.Capabilities(nil), caps...)
	s.connectedAt = s.now()
	s.mu.Unlock()

	s.logger.Info("device connected",
		"device_id", s.id, "version", version.String(), "capabilities", caps)
}

// Disconnect marks the device offline and resolves every outstanding
// exchange with ErrSessionLost. It returns how many were outstanding.
func (s *Session) Disconnect(reason error) int {
	s.mu.Lock()
	wasConnected := s.connected
	s.connected = false
	s.mu.Unlock()

	err := correlation.ErrSessionLost
	if reason != nil {
		err = fmt.Errorf("%w: %w", correlation.ErrSessionLost, reason)
	}
	n := s.pool.FailAll(err)

	if wasConnected || n > 0 {
		s.logger.Warn("device disconnected", "device_id", s.id, "failed_exchanges", n, "reason", reason)
	}
	return n
}

// HandleReply resolves the exchange xid with msg. A reply for an unknown
// xid is absorbed and reported false.
func (s *Session) HandleReply(xid uint32, msg openflow.Message) bool {
	return s.pool.Resolve(correlation.TransactionID(xid), msg, nil)
}

// HandleSessionError resolves the exchange xid with err, or tears the
// whole session down when xid is nil.
func (s *Session) HandleSessionError(xid *uint32, err error) {
	if xid == nil {
		s.Disconnect(err)
		return
	}
	if !s.pool.Resolve(correlation.TransactionID(*xid), nil, err) {
		s.logger.Debug("session error for unknown exchange", "device_id", s.id, "xid", *xid, "error", err)
	}
}

// Run expires stale exchanges until ctx ends.
func (s *Session) Run(ctx context.Context) error {
	return s.pool.Run(ctx)
}

// Dispatcher returns the session's dispatcher.
func (s *Session) Dispatcher() *service.Dispatcher { return s.dispatcher }

// Groups returns the group API for this device.
func (s *Session) Groups() service.GroupService { return service.NewGroupService(s.dispatcher) }

// Flows returns the flow API for this device.
func (s *Session) Flows() service.FlowService { return service.NewFlowService(s.dispatcher) }

// Meters returns the meter API for this device.
func (s *Session) Meters() service.MeterService { return service.NewMeterService(s.dispatcher) }

// Registry returns the registry for kind, or nil for an unknown kind.
func (s *Session) Registry(kind model.Kind) *registry.Registry {
	return s.registries[kind]
}

// InFlight returns the number of outstanding exchanges.
func (s *Session) InFlight() int { return s.pool.Outstanding() }

// Status is a point-in-time summary of a session.
type Status struct {
	DeviceID     string               `json:"device_id"`
	Connected    bool                 `json:"connected"`
	Version      string               `json:"version"`
	Capabilities service.Capabilities `json:"capabilities"`
	Path         string               `json:"path"`
	ConnectedAt  *time.Time           `json:"connected_at,omitempty"`
	InFlight     int                  `json:"in_flight"`
	MaxInFlight  int                  `json:"max_in_flight"`
	Entities     map[model.Kind]int   `json:"entities"`
}

// Status returns the session summary.
func (s *Session) Status() Status {
	s.mu.RLock()
	st := Status{
		DeviceID:     s.id,
		Connected:    s.connected,
		Version:      s.version.String(),
		Capabilities: append(service.Capabilities(nil), s.caps...),
		Path:         service.SelectPath(s.caps).String(),
	}
	if !s.connectedAt.IsZero() {
		at := s.connectedAt
		st.ConnectedAt = &at
	}
	s.mu.RUnlock()

	st.InFlight = s.pool.Outstanding()
	st.MaxInFlight = s.pool.Capacity()
	st.Entities = make(map[model.Kind]int, len(s.registries))
	for kind, reg := range s.registries {
		st.Entities[kind] = reg.Len()
	}
	return st
}
