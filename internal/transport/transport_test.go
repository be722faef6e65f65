package transport

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/nerrad567/gray-logic-switchd/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-switchd/internal/openflow"
	"github.com/nerrad567/gray-logic-switchd/internal/service"
)

// mockMQTTClient implements MQTTClient for testing.
type mockMQTTClient struct {
	mu          sync.Mutex
	connected   bool
	published   []publishedMessage
	handlers    map[string]mqtt.MessageHandler
	unsubscribe []string
	publishErr  error
}

type publishedMessage struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

func newMockMQTTClient() *mockMQTTClient {
	return &mockMQTTClient{connected: true, handlers: make(map[string]mqtt.MessageHandler)}
}

func (m *mockMQTTClient) Publish(topic string, payload []byte, qos byte, retained bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishErr != nil {
		return m.publishErr
	}
	m.published = append(m.published, publishedMessage{topic, payload, qos, retained})
	return nil
}

func (m *mockMQTTClient) Subscribe(topic string, _ byte, handler mqtt.MessageHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[topic] = handler
	return nil
}

func (m *mockMQTTClient) Unsubscribe(topic string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unsubscribe = append(m.unsubscribe, topic)
	delete(m.handlers, topic)
	return nil
}

func (m *mockMQTTClient) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *mockMQTTClient) deliver(t *testing.T, pattern, topic string, payload []byte) error {
	t.Helper()
	m.mu.Lock()
	h, ok := m.handlers[pattern]
	m.mu.Unlock()
	if !ok {
		t.Fatalf("no handler subscribed on %s", pattern)
	}
	return h(topic, payload)
}

// mockEndpoint records what the transport routes to a device.
type mockEndpoint struct {
	replies      map[uint32]openflow.Message
	errs         []error
	errXIDs      []*uint32
	version      openflow.Version
	caps         service.Capabilities
	disconnected []error
}

func (e *mockEndpoint) HandleReply(xid uint32, msg openflow.Message) bool {
	if e.replies == nil {
		e.replies = make(map[uint32]openflow.Message)
	}
	if _, dup := e.replies[xid]; dup {
		return false
	}
	e.replies[xid] = msg
	return true
}

func (e *mockEndpoint) HandleSessionError(xid *uint32, err error) {
	e.errXIDs = append(e.errXIDs, xid)
	e.errs = append(e.errs, err)
}

func (e *mockEndpoint) Connect(version openflow.Version, caps service.Capabilities) {
	e.version, e.caps = version, caps
}

func (e *mockEndpoint) Disconnect(reason error) int {
	e.disconnected = append(e.disconnected, reason)
	return 0
}

func newTestTransport(t *testing.T) (*Transport, *mockMQTTClient, *mockEndpoint) {
	t.Helper()
	client := newMockMQTTClient()
	ep := &mockEndpoint{}
	tr, err := New(Options{
		Client: client,
		Directory: func(id string) (Endpoint, bool) {
			if id != "sw1" {
				return nil, false
			}
			return ep, true
		},
		QoS: 1,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := tr.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return tr, client, ep
}

func TestTransmit(t *testing.T) {
	tr, client, _ := newTestTransport(t)

	msg := &openflow.GroupMod{Command: openflow.GroupAdd, GroupID: 5}
	if err := tr.Transmit(context.Background(), "sw1", openflow.Version15, 42, msg); err != nil {
		t.Fatalf("Transmit() error = %v", err)
	}

	if len(client.published) != 1 {
		t.Fatalf("published %d messages, want 1", len(client.published))
	}
	pub := client.published[0]
	if pub.topic != "graylogic/switch/sw1/request" || pub.retained || pub.qos != 1 {
		t.Errorf("published %s qos=%d retained=%v", pub.topic, pub.qos, pub.retained)
	}

	env, decoded, err := openflow.Decode(pub.payload)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if env.Xid != 42 || env.Version != openflow.Version15 {
		t.Errorf("envelope = %+v, want xid 42 version 1.5", env)
	}
	if gm, ok := decoded.(*openflow.GroupMod); !ok || gm.GroupID != 5 {
		t.Errorf("decoded %+v", decoded)
	}
}

func TestTransmit_Errors(t *testing.T) {
	tr, client, _ := newTestTransport(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := tr.Transmit(ctx, "sw1", openflow.Version13, 1, &openflow.BarrierReply{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Transmit(cancelled) error = %v, want context.Canceled", err)
	}

	client.publishErr = mqtt.ErrNotConnected
	if err := tr.Transmit(context.Background(), "sw1", openflow.Version13, 1, &openflow.BarrierReply{}); !errors.Is(err, mqtt.ErrNotConnected) {
		t.Errorf("Transmit() error = %v, want ErrNotConnected", err)
	}
}

func TestHandleReply(t *testing.T) {
	_, client, ep := newTestTransport(t)
	replies := mqtt.Topics{}.AllSwitchReplies()

	frame, err := openflow.Encode(openflow.Version13, 7, &openflow.BarrierReply{})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if err := client.deliver(t, replies, "graylogic/switch/sw1/reply", frame); err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if _, ok := ep.replies[7].(*openflow.BarrierReply); !ok {
		t.Errorf("reply for xid 7 = %T, want *openflow.BarrierReply", ep.replies[7])
	}

	// Duplicate delivery is absorbed.
	if err := client.deliver(t, replies, "graylogic/switch/sw1/reply", frame); err != nil {
		t.Errorf("duplicate handler error = %v", err)
	}
}

func TestHandleReply_Failures(t *testing.T) {
	_, client, ep := newTestTransport(t)
	replies := mqtt.Topics{}.AllSwitchReplies()

	if err := client.deliver(t, replies, "graylogic/switch/other/reply", []byte(`{}`)); !errors.Is(err, ErrUnknownDevice) {
		t.Errorf("unknown device error = %v, want ErrUnknownDevice", err)
	}

	err := client.deliver(t, replies, "graylogic/switch/sw1/reply", []byte(`{"version":4,"type":99,"xid":12}`))
	if !errors.Is(err, openflow.ErrUnknownType) {
		t.Errorf("unknown type error = %v, want ErrUnknownType", err)
	}
	if len(ep.errXIDs) != 1 || ep.errXIDs[0] == nil || *ep.errXIDs[0] != 12 {
		t.Errorf("exchange 12 not failed: %v", ep.errXIDs)
	}

	if err := client.deliver(t, replies, "graylogic/switch/sw1/reply", []byte(`not json`)); !errors.Is(err, openflow.ErrMalformed) {
		t.Errorf("malformed error = %v, want ErrMalformed", err)
	}
	if len(ep.errXIDs) != 1 {
		t.Error("malformed frame without xid failed an exchange")
	}
}

func TestHandleSession(t *testing.T) {
	_, client, ep := newTestTransport(t)
	sessions := mqtt.Topics{}.AllSwitchSessions()
	topic := "graylogic/switch/sw1/session"

	send := func(ev SessionEvent) error {
		payload, err := json.Marshal(ev)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		return client.deliver(t, sessions, topic, payload)
	}

	if err := send(SessionEvent{Event: EventConnected, Version: "1.5", Capabilities: []string{service.CapabilityConversion}}); err != nil {
		t.Fatalf("connected error = %v", err)
	}
	if ep.version != openflow.Version15 || !ep.caps.Has(service.CapabilityConversion) {
		t.Errorf("connect = %v %v", ep.version, ep.caps)
	}

	xid := uint32(3)
	if err := send(SessionEvent{Event: EventError, XID: &xid, Error: "bad frame"}); err != nil {
		t.Fatalf("error event error = %v", err)
	}
	if len(ep.errs) != 1 || ep.errs[0].Error() != "bad frame" || *ep.errXIDs[0] != 3 {
		t.Errorf("session error routed wrong: %v", ep.errs)
	}

	if err := send(SessionEvent{Event: EventDisconnected, Error: "keepalive"}); err != nil {
		t.Fatalf("disconnected error = %v", err)
	}
	if len(ep.disconnected) != 1 || ep.disconnected[0] == nil {
		t.Errorf("disconnect = %v", ep.disconnected)
	}

	if err := send(SessionEvent{Event: EventConnected, Version: "2.0"}); !errors.Is(err, openflow.ErrUnknownVersion) {
		t.Errorf("bad version error = %v, want ErrUnknownVersion", err)
	}
	if err := send(SessionEvent{Event: "rebooted"}); !errors.Is(err, ErrBadSessionEvent) {
		t.Errorf("unknown event error = %v, want ErrBadSessionEvent", err)
	}
}

func TestStop(t *testing.T) {
	tr, client, _ := newTestTransport(t)

	tr.Stop()
	tr.Stop()

	if len(client.unsubscribe) != 2 {
		t.Errorf("unsubscribed %d topics, want 2", len(client.unsubscribe))
	}
}
