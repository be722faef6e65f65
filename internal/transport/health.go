package transport

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-switchd/internal/infrastructure/mqtt"
)

// HealthStatus is the controller's operational status.
type HealthStatus string

const (
	HealthHealthy  HealthStatus = "healthy"
	HealthDegraded HealthStatus = "degraded"
	HealthStarting HealthStatus = "starting"
	HealthStopping HealthStatus = "stopping"
)

// HealthMessage is published retained on graylogic/system/{id}/health.
type HealthMessage struct {
	ControllerID string       `json:"controller_id"`
	Version      string       `json:"version"`
	Status       HealthStatus `json:"status"`
	Reason       string       `json:"reason,omitempty"`
	Timestamp    time.Time    `json:"timestamp"`
	Uptime       int64        `json:"uptime_seconds"`
	Devices      int          `json:"devices"`
	Connected    int          `json:"devices_connected"`
	InFlight     int          `json:"in_flight"`
}

// HealthPublisher publishes health messages.
type HealthPublisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	IsConnected() bool
}

// SessionStats reports session counts. *session.Manager implements it.
type SessionStats interface {
	Len() int
	Connected() int
	InFlight() int
}

// HealthReporterConfig configures a HealthReporter.
type HealthReporterConfig struct {
	ControllerID string
	Version      string

	// Interval defaults to 30 seconds.
	Interval time.Duration

	Publisher HealthPublisher
	Stats     SessionStats
}

// HealthReporter publishes the controller's health periodically.
type HealthReporter struct {
	controllerID string
	version      string
	startTime    time.Time
	interval     time.Duration
	publisher    HealthPublisher
	stats        SessionStats
	now          func() time.Time

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once

	logger   Logger
	loggerMu sync.RWMutex
}

// NewHealthReporter creates a reporter. Call Start to begin publishing.
func NewHealthReporter(cfg HealthReporterConfig) *HealthReporter {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &HealthReporter{
		controllerID: cfg.ControllerID,
		version:      cfg.Version,
		startTime:    time.Now(),
		interval:     interval,
		publisher:    cfg.Publisher,
		stats:        cfg.Stats,
		now:          time.Now,
		done:         make(chan struct{}),
		logger:       noopLogger{},
	}
}

// SetLogger sets the logger for publish failures.
func (h *HealthReporter) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	h.loggerMu.Lock()
	h.logger = logger
	h.loggerMu.Unlock()
}

// Start begins periodic reporting until ctx ends or Stop is called.
func (h *HealthReporter) Start(ctx context.Context) {
	h.wg.Add(1)
	go h.reportLoop(ctx)
}

// Stop ends reporting and publishes a final "stopping" status.
// Safe to call multiple times.
func (h *HealthReporter) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
		h.wg.Wait()

		//nolint:errcheck // best effort during shutdown
		h.publish(HealthStopping, "controller stopping")
	})
}

// PublishStarting publishes a "starting" status.
func (h *HealthReporter) PublishStarting() error {
	return h.publish(HealthStarting, "controller starting")
}

// PublishNow publishes the current status immediately.
func (h *HealthReporter) PublishNow() error {
	status, reason := h.determineStatus()
	return h.publish(status, reason)
}

func (h *HealthReporter) reportLoop(ctx context.Context) {
	defer h.wg.Done()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	if err := h.PublishNow(); err != nil {
		h.logError("failed to publish initial health", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case <-ticker.C:
			if err := h.PublishNow(); err != nil {
				h.logError("failed to publish health", err)
			}
		}
	}
}

func (h *HealthReporter) determineStatus() (HealthStatus, string) {
	if h.publisher == nil || !h.publisher.IsConnected() {
		return HealthDegraded, "MQTT disconnected"
	}
	if h.stats != nil && h.stats.Len() > 0 && h.stats.Connected() == 0 {
		return HealthDegraded, "no devices connected"
	}
	return HealthHealthy, ""
}

// Message builds the health message for status.
func (h *HealthReporter) Message(status HealthStatus, reason string) HealthMessage {
	now := h.now().UTC()
	msg := HealthMessage{
		ControllerID: h.controllerID,
		Version:      h.version,
		Status:       status,
		Reason:       reason,
		Timestamp:    now,
		Uptime:       int64(now.Sub(h.startTime).Seconds()),
	}
	if h.stats != nil {
		msg.Devices = h.stats.Len()
		msg.Connected = h.stats.Connected()
		msg.InFlight = h.stats.InFlight()
	}
	return msg
}

func (h *HealthReporter) publish(status HealthStatus, reason string) error {
	if h.publisher == nil {
		return nil
	}
	payload, err := json.Marshal(h.Message(status, reason))
	if err != nil {
		return err
	}
	return h.publisher.Publish(mqtt.Topics{}.ControllerHealth(h.controllerID), payload, 1, true)
}

func (h *HealthReporter) logError(msg string, err error) {
	h.loggerMu.RLock()
	logger := h.logger
	h.loggerMu.RUnlock()
	logger.Error(msg, "error", err)
}
