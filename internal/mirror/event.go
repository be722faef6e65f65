package mirror

import (
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-switchd/internal/model"
)

// EventKind says how the observed state tree should change.
type EventKind string

const (
	Added   EventKind = "added"
	Updated EventKind = "updated"
	Removed EventKind = "removed"
)

// Event describes one acknowledged change to a device's state. Events are
// only produced after the device confirmed the change.
type Event struct {
	ID         uuid.UUID    `json:"id"`
	Kind       EventKind    `json:"kind"`
	DeviceID   string       `json:"device_id"`
	EntityKind model.Kind   `json:"entity_kind"`
	EntityID   string       `json:"entity_id"`
	Snapshot   model.Entity `json:"snapshot,omitempty"`
	Timestamp  time.Time    `json:"timestamp"`
}

// NewEvent builds an event for entity on deviceID.
func NewEvent(kind EventKind, deviceID string, entity model.Entity) Event {
	return Event{
		ID:         uuid.New(),
		Kind:       kind,
		DeviceID:   deviceID,
		EntityKind: entity.Kind(),
		EntityID:   entity.EntityID(),
		Snapshot:   entity,
		Timestamp:  time.Now().UTC(),
	}
}
