package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/nerrad567/gray-logic-switchd/internal/infrastructure/config"
)

func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "switchd-test",
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

func TestTopicBuilders(t *testing.T) {
	topics := Topics{}
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"request", topics.SwitchRequest("sw-1"), "graylogic/switch/sw-1/request"},
		{"reply", topics.SwitchReply("sw-1"), "graylogic/switch/sw-1/reply"},
		{"session", topics.SwitchSession("sw-1"), "graylogic/switch/sw-1/session"},
		{"state", topics.SwitchState("sw-1", "group", "5"), "graylogic/switch/sw-1/state/group/5"},
		{"status", topics.SystemStatus(), "graylogic/system/status"},
		{"health", topics.ControllerHealth("ctl"), "graylogic/system/ctl/health"},
		{"all replies", topics.AllSwitchReplies(), "graylogic/switch/+/reply"},
		{"all sessions", topics.AllSwitchSessions(), "graylogic/switch/+/session"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestDeviceFromTopic(t *testing.T) {
	tests := []struct {
		topic  string
		want   string
		wantOK bool
	}{
		{"graylogic/switch/sw-1/reply", "sw-1", true},
		{"graylogic/switch/core-a/state/group/5", "core-a", true},
		{"graylogic/switch/sw-1", "", false},
		{"graylogic/switch//reply", "", false},
		{"graylogic/system/status", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			got, ok := DeviceFromTopic(tt.topic)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("DeviceFromTopic(%q) = (%q, %v), want (%q, %v)", tt.topic, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestValidatePublish(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		wantErr error
	}{
		{"valid", "graylogic/switch/sw-1/request", []byte("{}"), 1, nil},
		{"nil payload", "graylogic/switch/sw-1/request", nil, 0, nil},
		{"empty topic", "", []byte("{}"), 1, ErrInvalidTopic},
		{"bad qos", "t", []byte("{}"), 3, ErrInvalidQoS},
		{"too large", "t", make([]byte, maxPayloadSize+1), 1, ErrPublishFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePublish(tt.topic, tt.payload, tt.qos)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("validatePublish() error = %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("validatePublish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBrokerURL(t *testing.T) {
	cfg := testConfig()
	if got := brokerURL(cfg); got != "tcp://127.0.0.1:1883" {
		t.Errorf("brokerURL() = %q", got)
	}
	cfg.Broker.TLS = true
	cfg.Broker.Port = 8883
	if got := brokerURL(cfg); got != "ssl://127.0.0.1:8883" {
		t.Errorf("brokerURL() with TLS = %q", got)
	}
}

func TestBuildStatusPayload(t *testing.T) {
	var p statusPayload
	if err := json.Unmarshal(buildStatusPayload("switchd", "offline", "graceful_shutdown"), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Status != "offline" || p.ClientID != "switchd" || p.Reason != "graceful_shutdown" {
		t.Errorf("payload = %+v", p)
	}
	if p.Timestamp == "" {
		t.Error("timestamp should be set")
	}
}

type recordingLogger struct {
	errors []string
	warns  []string
}

func (l *recordingLogger) Error(msg string, _ ...any) { l.errors = append(l.errors, msg) }
func (l *recordingLogger) Warn(msg string, _ ...any)  { l.warns = append(l.warns, msg) }

func TestDispatchMessage(t *testing.T) {
	logger := &recordingLogger{}

	dispatchMessage(logger, func(string, []byte) error { return nil }, "t", nil)
	dispatchMessage(logger, func(string, []byte) error { return errors.New("bad payload") }, "t", nil)
	dispatchMessage(logger, func(string, []byte) error { panic("boom") }, "t", nil)
	// A nil logger must not turn a handler panic into a crash.
	dispatchMessage(nil, func(string, []byte) error { panic("boom") }, "t", nil)

	if len(logger.warns) != 1 || !strings.Contains(logger.warns[0], "error") {
		t.Errorf("warns = %v, want one handler error", logger.warns)
	}
	if len(logger.errors) != 1 || !strings.Contains(logger.errors[0], "panic") {
		t.Errorf("errors = %v, want one recovered panic", logger.errors)
	}
}

func TestUnconnectedClient(t *testing.T) {
	c := &Client{cfg: testConfig(), subscriptions: make(map[string]subscription)}

	if c.IsConnected() {
		t.Error("IsConnected() = true for client without connection")
	}
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
	if err := c.Publish("t", []byte("x"), 1, false); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() error = %v, want ErrNotConnected", err)
	}
	if err := c.Subscribe("t", 1, func(string, []byte) error { return nil }); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Subscribe() error = %v, want ErrNotConnected", err)
	}
	if err := c.Subscribe("t", 1, nil); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("Subscribe(nil) error = %v, want ErrSubscribeFailed", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.HealthCheck(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("HealthCheck(cancelled) error = %v, want context.Canceled", err)
	}
}
