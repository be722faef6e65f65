package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/nerrad567/gray-logic-switchd/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-switchd/internal/model"
	"github.com/nerrad567/gray-logic-switchd/migrations"
)

func openStore(t *testing.T) *Store {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "mirror.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // test cleanup

	if err := db.Migrate(context.Background(), migrations.FS); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return NewStore(db.DB)
}

type recordingLogger struct {
	mu     sync.Mutex
	errors []string
}

func (l *recordingLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	l.errors = append(l.errors, msg)
	l.mu.Unlock()
}

func TestSink(t *testing.T) {
	var s Sink
	ev := NewEvent(Added, "sw1", &model.Group{ID: 1, Type: model.GroupAll})

	if s.Emit(ev) {
		t.Error("Emit() on empty sink = true, want false")
	}
	if s.Registered() {
		t.Error("Registered() = true, want false")
	}

	var got []Event
	s.Register(ListenerFunc(func(ev Event) { got = append(got, ev) }))
	if !s.Emit(ev) {
		t.Error("Emit() = false, want true")
	}
	if len(got) != 1 || got[0].ID != ev.ID {
		t.Fatalf("listener received %v, want [%v]", got, ev.ID)
	}

	s.Deregister()
	if s.Emit(ev) {
		t.Error("Emit() after Deregister = true, want false")
	}
	if len(got) != 1 {
		t.Errorf("listener called after Deregister, got %d events", len(got))
	}
}

func TestFanOut(t *testing.T) {
	var order []string
	f := FanOut{
		ListenerFunc(func(Event) { order = append(order, "a") }),
		ListenerFunc(func(Event) { order = append(order, "b") }),
	}
	f.HandleMirrorEvent(NewEvent(Removed, "sw1", &model.Meter{ID: 2}))

	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Errorf("delivery order = %v, want [a b]", order)
	}
}

func TestNewEvent(t *testing.T) {
	flow := &model.Flow{ID: "f-1", TableID: 0, Priority: 100}
	ev := NewEvent(Updated, "sw1", flow)

	if ev.EntityKind != model.KindFlow {
		t.Errorf("EntityKind = %q, want %q", ev.EntityKind, model.KindFlow)
	}
	if ev.EntityID != "f-1" {
		t.Errorf("EntityID = %q, want f-1", ev.EntityID)
	}
	if ev.Timestamp.IsZero() {
		t.Error("Timestamp is zero")
	}
	if other := NewEvent(Updated, "sw1", flow); other.ID == ev.ID {
		t.Error("events share an id")
	}
}

func TestStore_ApplyAndList(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	g1 := &model.Group{ID: 1, Type: model.GroupAll, Buckets: []model.Bucket{{Actions: []model.Action{{Type: "output", Port: 1}}}}}
	g2 := &model.Group{ID: 2, Type: model.GroupSelect}
	m1 := &model.Meter{ID: 7, Flags: []string{"kbps"}, Bands: []model.Band{{Type: "drop", Rate: 1000}}}

	for _, ev := range []Event{
		NewEvent(Added, "sw1", g1),
		NewEvent(Added, "sw1", g2),
		NewEvent(Added, "sw1", m1),
		NewEvent(Added, "sw2", g1),
	} {
		if err := store.Apply(ctx, ev); err != nil {
			t.Fatalf("Apply(%s %s) error = %v", ev.EntityKind, ev.EntityID, err)
		}
	}

	all, err := store.List(ctx, "sw1", "")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("List(sw1) returned %d rows, want 3", len(all))
	}

	groups, err := store.List(ctx, "sw1", model.KindGroup)
	if err != nil {
		t.Fatalf("List(group) error = %v", err)
	}
	if len(groups) != 2 || groups[0].EntityID != "1" || groups[1].EntityID != "2" {
		t.Errorf("List(group) = %+v, want ids [1 2]", groups)
	}

	var decoded model.Group
	if err := json.Unmarshal(groups[0].Snapshot, &decoded); err != nil {
		t.Fatalf("snapshot decode error = %v", err)
	}
	if decoded.ID != 1 || len(decoded.Buckets) != 1 {
		t.Errorf("snapshot = %+v, want group 1 with one bucket", decoded)
	}
}

func TestStore_UpdateOverwrites(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	added := NewEvent(Added, "sw1", &model.Meter{ID: 3, Bands: []model.Band{{Type: "drop", Rate: 10}}})
	if err := store.Apply(ctx, added); err != nil {
		t.Fatalf("Apply(added) error = %v", err)
	}
	updated := NewEvent(Updated, "sw1", &model.Meter{ID: 3, Bands: []model.Band{{Type: "drop", Rate: 20}}})
	if err := store.Apply(ctx, updated); err != nil {
		t.Fatalf("Apply(updated) error = %v", err)
	}

	got, err := store.Get(ctx, "sw1", model.KindMeter, "3")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.EventID != updated.ID.String() {
		t.Errorf("EventID = %s, want %s", got.EventID, updated.ID)
	}
	var m model.Meter
	if err := json.Unmarshal(got.Snapshot, &m); err != nil {
		t.Fatalf("snapshot decode error = %v", err)
	}
	if m.Bands[0].Rate != 20 {
		t.Errorf("band rate = %d, want 20", m.Bands[0].Rate)
	}
}

func TestStore_Removed(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	g := &model.Group{ID: 5, Type: model.GroupIndirect}

	store.HandleMirrorEvent(NewEvent(Added, "sw1", g))
	store.HandleMirrorEvent(NewEvent(Removed, "sw1", g))

	_, err := store.Get(ctx, "sw1", model.KindGroup, "5")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after remove error = %v, want ErrNotFound", err)
	}
}

func TestStore_UnknownEventKind(t *testing.T) {
	store := openStore(t)
	logger := &recordingLogger{}
	store.SetLogger(logger)

	ev := NewEvent("renamed", "sw1", &model.Group{ID: 1})
	if err := store.Apply(context.Background(), ev); !errors.Is(err, ErrUnknownEventKind) {
		t.Errorf("Apply() error = %v, want ErrUnknownEventKind", err)
	}

	store.HandleMirrorEvent(ev)
	if len(logger.errors) != 1 {
		t.Errorf("logged %d errors, want 1", len(logger.errors))
	}
}

type publishCall struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

type fakePublisher struct {
	calls []publishCall
	err   error
}

func (p *fakePublisher) Publish(topic string, payload []byte, qos byte, retained bool) error {
	p.calls = append(p.calls, publishCall{topic, payload, qos, retained})
	return p.err
}

func TestMQTTPublisher(t *testing.T) {
	pub := &fakePublisher{}
	p := NewMQTTPublisher(pub, 1)
	g := &model.Group{ID: 9, Type: model.GroupAll}

	p.HandleMirrorEvent(NewEvent(Added, "sw1", g))
	p.HandleMirrorEvent(NewEvent(Removed, "sw1", g))

	if len(pub.calls) != 2 {
		t.Fatalf("publish calls = %d, want 2", len(pub.calls))
	}
	wantTopic := "graylogic/switch/sw1/state/group/9"
	for i, c := range pub.calls {
		if c.topic != wantTopic {
			t.Errorf("call %d topic = %q, want %q", i, c.topic, wantTopic)
		}
		if !c.retained || c.qos != 1 {
			t.Errorf("call %d retained=%v qos=%d, want retained qos 1", i, c.retained, c.qos)
		}
	}

	var body map[string]any
	if err := json.Unmarshal(pub.calls[0].payload, &body); err != nil {
		t.Fatalf("payload decode error = %v", err)
	}
	if body["kind"] != "added" || body["entity_id"] != "9" {
		t.Errorf("payload = %v, want added event for 9", body)
	}
	if len(pub.calls[1].payload) != 0 {
		t.Errorf("removed payload = %q, want empty", pub.calls[1].payload)
	}
}

func TestMQTTPublisher_LogsFailure(t *testing.T) {
	pub := &fakePublisher{err: errors.New("not connected")}
	logger := &recordingLogger{}
	p := NewMQTTPublisher(pub, 1)
	p.SetLogger(logger)

	p.HandleMirrorEvent(NewEvent(Added, "sw1", &model.Meter{ID: 1}))

	if len(logger.errors) != 1 {
		t.Errorf("logged %d errors, want 1", len(logger.errors))
	}
}
