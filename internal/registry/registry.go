package registry

import (
	"slices"
	"strings"
	"sync"
)

// State is the lifecycle state of a registered entity.
type State int

const (
	// StatePresent means the device acknowledged the entity.
	StatePresent State = iota + 1

	// StatePendingRemoval means a remove was issued and not yet acknowledged.
	StatePendingRemoval
)

func (s State) String() string {
	switch s {
	case StatePresent:
		return "present"
	case StatePendingRemoval:
		return "pending_removal"
	default:
		return "absent"
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Entry is a snapshot of one registered entity.
type Entry struct {
	ID    string `json:"id"`
	State State  `json:"state"`
}

// Logger is the subset of logging.Logger the registry uses.
type Logger interface {
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

// Registry tracks which entities of one kind exist on one device.
//
// Entries are created on add acknowledgment, move to PendingRemoval when a
// remove is issued, and are destroyed on remove acknowledgment. A
// PendingRemoval entry cannot be marked present again until it is gone.
//
// All methods are safe for concurrent use.
type Registry struct {
	kind     string
	deviceID string

	mu      sync.RWMutex
	entries map[string]State

	logger   Logger
	loggerMu sync.RWMutex
}

// New creates an empty registry for entities of kind on deviceID.
func New(deviceID, kind string) *Registry {
	return &Registry{
		kind:     kind,
		deviceID: deviceID,
		entries:  make(map[string]State),
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for registry inconsistencies.
func (r *Registry) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	r.loggerMu.Lock()
	r.logger = logger
	r.loggerMu.Unlock()
}

func (r *Registry) warn(msg string, id string) {
	r.loggerMu.RLock()
	logger := r.logger
	r.loggerMu.RUnlock()
	logger.Warn(msg, "device_id", r.deviceID, "kind", r.kind, "entity_id", id)
}

// Kind returns the entity kind this registry tracks.
func (r *Registry) Kind() string {
	return r.kind
}

// MarkPresent records an acknowledged add or update. Re-marking a present
// entity is a no-op. It fails with ErrPolicyConflict, leaving the entry
// untouched, when id is pending removal.
func (r *Registry) MarkPresent(id string) error {
	r.mu.Lock()
	state := r.entries[id]
	if state == StatePendingRemoval {
		r.mu.Unlock()
		return ErrPolicyConflict
	}
	r.entries[id] = StatePresent
	r.mu.Unlock()
	return nil
}

// MarkPendingRemoval records that a remove was issued. Removing an entity
// that is not present is already satisfied: it is logged and reported
// false, and the registry is unchanged.
func (r *Registry) MarkPendingRemoval(id string) bool {
	r.mu.Lock()
	state, ok := r.entries[id]
	if ok && state == StatePresent {
		r.entries[id] = StatePendingRemoval
	}
	r.mu.Unlock()

	switch {
	case !ok:
		r.warn("remove issued for entity not present", id)
		return false
	case state == StatePendingRemoval:
		r.warn("remove issued for entity already pending removal", id)
		return false
	}
	return true
}

// ConfirmRemoved destroys the entry after a remove acknowledgment. An
// entry that was not pending removal is still destroyed, and the
// inconsistency is logged.
func (r *Registry) ConfirmRemoved(id string) {
	r.mu.Lock()
	state, ok := r.entries[id]
	delete(r.entries, id)
	r.mu.Unlock()

	if ok && state != StatePendingRemoval {
		r.warn("removal confirmed for entity not pending removal", id)
	}
}

// Contains reports whether id is registered, including pending removal.
func (r *Registry) Contains(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[id]
	return ok
}

// IsPendingRemoval reports whether a remove for id is outstanding.
func (r *Registry) IsPendingRemoval(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[id] == StatePendingRemoval
}

// State returns the lifecycle state of id, or zero when absent.
func (r *Registry) State(id string) State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[id]
}

// Entries returns a snapshot of all entries sorted by id.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	out := make([]Entry, 0, len(r.entries))
	for id, state := range r.entries {
		out = append(out, Entry{ID: id, State: state})
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b Entry) int { return strings.Compare(a.ID, b.ID) })
	return out
}

// Len returns the number of registered entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
