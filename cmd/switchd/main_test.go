package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-switchd/internal/auth"
	"github.com/nerrad567/gray-logic-switchd/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-switchd/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-switchd/internal/openflow"
	"github.com/nerrad567/gray-logic-switchd/internal/service"
	"github.com/nerrad567/gray-logic-switchd/internal/session"
)

type nopTransmitter struct{}

func (nopTransmitter) Transmit(context.Context, string, openflow.Version, uint32, openflow.Message) error {
	return nil
}

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("GRAYLOGIC_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_UnsupportedDeviceVersion verifies config validation stops startup
// before anything is opened.
func TestRun_UnsupportedDeviceVersion(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	configContent := `
controller:
  id: test-controller
  devices:
    - id: sw1
      version: "0.9"

database:
  path: ` + filepath.Join(t.TempDir(), "switchd.db") + `

logging:
  level: info
  format: text
  output: stdout
`
	if err := os.WriteFile(configPath, []byte(configContent), 0o600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	t.Setenv("GRAYLOGIC_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil {
		t.Fatal("run() should fail with unsupported device version")
	}
	if !strings.Contains(err.Error(), "loading config") {
		t.Errorf("run() error = %v, want config error", err)
	}
}

func TestGetConfigPath_Default(t *testing.T) {
	t.Setenv("GRAYLOGIC_CONFIG", "")

	if path := getConfigPath(); path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

func TestGetConfigPath_EnvOverride(t *testing.T) {
	expected := "/custom/path/config.yaml"
	t.Setenv("GRAYLOGIC_CONFIG", expected)

	if path := getConfigPath(); path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}

func TestHashSecret(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{"no secret", nil, true},
		{"empty secret", []string{""}, true},
		{"extra args", []string{"a", "b"}, true},
		{"secret", []string{"s3cret"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := hashSecret(tt.args); (err != nil) != tt.wantErr {
				t.Errorf("hashSecret(%v) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			}
		})
	}
}

func TestAddSessions(t *testing.T) {
	cfg := &config.Config{
		Controller: config.ControllerConfig{
			MaxInFlight:    4,
			RequestTimeout: 5,
			ExpiryInterval: 1,
			Devices: []config.DeviceConfig{
				{ID: "sw1", Version: "1.3", Capabilities: []string{service.CapabilityConversion}},
				{ID: "sw2", Version: "1.5"},
			},
		},
	}
	manager := session.NewManager()

	err := addSessions(cfg, manager, sessionDeps{
		transmitter: nopTransmitter{},
		log:         logging.Discard(),
	})
	if err != nil {
		t.Fatalf("addSessions() error = %v", err)
	}
	if manager.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", manager.Len())
	}

	sw1, err := manager.Get("sw1")
	if err != nil {
		t.Fatalf("Get(sw1): %v", err)
	}
	if !sw1.Connected() {
		t.Error("sw1 with capabilities should start connected")
	}
	if _, caps := sw1.Negotiated(); !caps.Has(service.CapabilityConversion) {
		t.Errorf("sw1 capabilities = %v", caps)
	}

	sw2, err := manager.Get("sw2")
	if err != nil {
		t.Fatalf("Get(sw2): %v", err)
	}
	if sw2.Connected() {
		t.Error("sw2 without capabilities should wait for a session event")
	}
	if ver, _ := sw2.Negotiated(); ver != openflow.Version15 {
		t.Errorf("sw2 version = %v, want 1.5", ver)
	}
}

func TestAddSessions_Errors(t *testing.T) {
	tests := []struct {
		name    string
		devices []config.DeviceConfig
	}{
		{"unknown version", []config.DeviceConfig{{ID: "sw1", Version: "0.9"}}},
		{"duplicate id", []config.DeviceConfig{{ID: "sw1", Version: "1.3"}, {ID: "sw1", Version: "1.3"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Controller: config.ControllerConfig{
				MaxInFlight:    4,
				RequestTimeout: 5,
				ExpiryInterval: 1,
				Devices:        tt.devices,
			}}
			err := addSessions(cfg, session.NewManager(), sessionDeps{
				transmitter: nopTransmitter{},
				log:         logging.Discard(),
			})
			if err == nil {
				t.Error("addSessions() should fail")
			}
		})
	}
}

func TestDirectory(t *testing.T) {
	manager := session.NewManager()
	sess, err := session.New(session.Config{
		DeviceID:       "sw1",
		MaxInFlight:    1,
		RequestTimeout: time.Second,
		ExpiryInterval: time.Second,
		Transmitter:    nopTransmitter{},
	})
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	if err := manager.Add(sess); err != nil {
		t.Fatalf("Add: %v", err)
	}

	dir := directory(manager)
	if ep, ok := dir("sw1"); !ok || ep == nil {
		t.Error("directory(sw1) should resolve")
	}
	if ep, ok := dir("sw9"); ok || ep != nil {
		t.Errorf("directory(sw9) = %v, %v; want nil, false", ep, ok)
	}
}

func TestAPIClients(t *testing.T) {
	got := apiClients([]config.APIClientConfig{
		{ID: "ops", SecretHash: "$argon2id$x", Role: "operator"},
		{ID: "dash", SecretHash: "$argon2id$y", Role: "viewer"},
	})
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "ops" || got[0].Role != auth.RoleOperator || got[0].SecretHash != "$argon2id$x" {
		t.Errorf("got[0] = %+v", got[0])
	}
	if got[1].Role != auth.RoleViewer {
		t.Errorf("got[1].Role = %q", got[1].Role)
	}
}
