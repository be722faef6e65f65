package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/nerrad567/gray-logic-switchd/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-switchd/internal/openflow"
	"github.com/nerrad567/gray-logic-switchd/internal/service"
)

// MQTTClient is the MQTT capability the transport needs.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
	IsConnected() bool
}

// Endpoint receives a device's traffic. *session.Session implements it.
type Endpoint interface {
	HandleReply(xid uint32, msg openflow.Message) bool
	HandleSessionError(xid *uint32, err error)
	Connect(version openflow.Version, caps service.Capabilities)
	Disconnect(reason error) int
}

// Directory finds the endpoint for a device id.
type Directory func(deviceID string) (Endpoint, bool)

// Logger is the subset of logging.Logger the transport uses.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options configures a Transport.
type Options struct {
	Client    MQTTClient
	Directory Directory
	QoS       byte
	Logger    Logger
}

// Transport implements service.Transmitter over MQTT and feeds replies
// back to sessions.
type Transport struct {
	client    MQTTClient
	directory Directory
	qos       byte
	topics    mqtt.Topics
	logger    Logger

	startOnce sync.Once
	stopOnce  sync.Once
}

// New creates a transport. Call Start to subscribe.
func New(opts Options) (*Transport, error) {
	if opts.Client == nil {
		return nil, errors.New("transport: MQTT client is required")
	}
	if opts.Directory == nil {
		return nil, errors.New("transport: directory is required")
	}
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}
	return &Transport{
		client:    opts.Client,
		directory: opts.Directory,
		qos:       opts.QoS,
		logger:    opts.Logger,
	}, nil
}

// Start subscribes to every device's reply and session topics.
func (t *Transport) Start(_ context.Context) error {
	var err error
	t.startOnce.Do(func() {
		if err = t.client.Subscribe(t.topics.AllSwitchReplies(), t.qos, t.handleReply); err != nil {
			err = fmt.Errorf("subscribe to replies: %w", err)
			return
		}
		if err = t.client.Subscribe(t.topics.AllSwitchSessions(), t.qos, t.handleSession); err != nil {
			err = fmt.Errorf("subscribe to session events: %w", err)
			return
		}
		t.logger.Info("transport started",
			"replies", t.topics.AllSwitchReplies(), "sessions", t.topics.AllSwitchSessions())
	})
	return err
}

// Stop unsubscribes. It is safe to call more than once.
func (t *Transport) Stop() {
	t.stopOnce.Do(func() {
		for _, topic := range []string{t.topics.AllSwitchReplies(), t.topics.AllSwitchSessions()} {
			if err := t.client.Unsubscribe(topic); err != nil {
				t.logger.Warn("unsubscribe failed", "topic", topic, "error", err)
			}
		}
	})
}

// Transmit implements service.Transmitter.
func (t *Transport) Transmit(ctx context.Context, deviceID string, version openflow.Version, xid uint32, msg openflow.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := openflow.Encode(version, xid, msg)
	if err != nil {
		return err
	}
	if err := t.client.Publish(t.topics.SwitchRequest(deviceID), payload, t.qos, false); err != nil {
		return fmt.Errorf("publishing request: %w", err)
	}
	return nil
}

func (t *Transport) endpoint(topic string) (string, Endpoint, error) {
	deviceID, ok := mqtt.DeviceFromTopic(topic)
	if !ok {
		return "", nil, fmt.Errorf("%w: %s", ErrBadTopic, topic)
	}
	ep, ok := t.directory(deviceID)
	if !ok {
		return deviceID, nil, fmt.Errorf("%w: %s", ErrUnknownDevice, deviceID)
	}
	return deviceID, ep, nil
}

// handleReply routes one reply frame. A frame whose body cannot be decoded
// still fails its own exchange when the xid is readable.
func (t *Transport) handleReply(topic string, payload []byte) error {
	deviceID, ep, err := t.endpoint(topic)
	if err != nil {
		return err
	}

	env, msg, err := openflow.Decode(payload)
	if err != nil {
		if env.Xid != 0 {
			xid := env.Xid
			ep.HandleSessionError(&xid, err)
		}
		return fmt.Errorf("device %s reply: %w", deviceID, err)
	}

	if !ep.HandleReply(env.Xid, msg) {
		t.logger.Debug("reply for unknown exchange", "device_id", deviceID, "xid", env.Xid, "type", env.Type.String())
	}
	return nil
}

func (t *Transport) handleSession(topic string, payload []byte) error {
	deviceID, ep, err := t.endpoint(topic)
	if err != nil {
		return err
	}

	var ev SessionEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return fmt.Errorf("%w: %w", ErrBadSessionEvent, err)
	}

	switch ev.Event {
	case EventConnected:
		version, err := openflow.ParseVersion(ev.Version)
		if err != nil {
			return fmt.Errorf("device %s connect: %w", deviceID, err)
		}
		ep.Connect(version, service.Capabilities(ev.Capabilities))
	case EventDisconnected:
		var reason error
		if ev.Error != "" {
			reason = errors.New(ev.Error)
		}
		ep.Disconnect(reason)
	case EventError:
		msg := ev.Error
		if msg == "" {
			msg = "device reported a session error"
		}
		ep.HandleSessionError(ev.XID, errors.New(msg))
	default:
		return fmt.Errorf("%w: event %q", ErrBadSessionEvent, ev.Event)
	}
	return nil
}
