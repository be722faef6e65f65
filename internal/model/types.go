package model

import "strconv"

// Kind is the type of forwarding-table entity an operation targets.
type Kind string

const (
	KindGroup Kind = "group"
	KindFlow  Kind = "flow"
	KindMeter Kind = "meter"
)

// AllKinds returns every entity kind, in a stable order.
func AllKinds() []Kind {
	return []Kind{KindGroup, KindFlow, KindMeter}
}

// Op is the operation applied to an entity.
type Op string

const (
	OpAdd    Op = "add"
	OpUpdate Op = "update"
	OpRemove Op = "remove"
)

// Entity is a canonical, protocol-independent forwarding-table object.
type Entity interface {
	Kind() Kind
	// EntityID is the registry key for the entity on its device.
	EntityID() string
}

// Action is a forwarding action.
//
// Type is one of "output", "group", "set_field", "push_vlan", "pop_vlan", "drop".
type Action struct {
	Type    string `json:"type"`
	Port    uint32 `json:"port,omitempty"`
	GroupID uint32 `json:"group_id,omitempty"`
	Field   string `json:"field,omitempty"`
	Value   string `json:"value,omitempty"`
}

// GroupType is the canonical group type name.
type GroupType string

const (
	GroupAll          GroupType = "all"
	GroupSelect       GroupType = "select"
	GroupIndirect     GroupType = "indirect"
	GroupFastFailover GroupType = "fast_failover"
)

// Bucket is one action bucket of a group.
type Bucket struct {
	// ID is optional; devices that support bucket ids get index-based
	// ids when left zero.
	ID         uint32   `json:"id,omitempty"`
	Weight     uint16   `json:"weight,omitempty"`
	WatchPort  *uint32  `json:"watch_port,omitempty"`
	WatchGroup *uint32  `json:"watch_group,omitempty"`
	Actions    []Action `json:"actions"`
}

// Group is a group table entry.
type Group struct {
	ID      uint32    `json:"id"`
	Type    GroupType `json:"type"`
	Buckets []Bucket  `json:"buckets"`
}

func (g *Group) Kind() Kind       { return KindGroup }
func (g *Group) EntityID() string { return strconv.FormatUint(uint64(g.ID), 10) }

// Flow is a flow table entry. ID is assigned by the caller and names the
// flow in the registry; the device identifies it by table, priority and match.
type Flow struct {
	ID          string            `json:"id"`
	TableID     uint8             `json:"table_id"`
	Priority    uint16            `json:"priority"`
	Cookie      uint64            `json:"cookie,omitempty"`
	IdleTimeout uint16            `json:"idle_timeout,omitempty"`
	HardTimeout uint16            `json:"hard_timeout,omitempty"`
	Importance  uint16            `json:"importance,omitempty"`
	Match       map[string]string `json:"match,omitempty"`
	Actions     []Action          `json:"actions,omitempty"`
}

func (f *Flow) Kind() Kind       { return KindFlow }
func (f *Flow) EntityID() string { return f.ID }

// Band is a meter rate band. Type is "drop" or "dscp_remark".
type Band struct {
	Type      string `json:"type"`
	Rate      uint32 `json:"rate"`
	BurstSize uint32 `json:"burst_size,omitempty"`
	PrecLevel uint8  `json:"prec_level,omitempty"`
}

// Meter is a meter table entry. Flags are "kbps", "pktps", "burst", "stats".
type Meter struct {
	ID    uint32   `json:"id"`
	Flags []string `json:"flags,omitempty"`
	Bands []Band   `json:"bands"`
}

func (m *Meter) Kind() Kind       { return KindMeter }
func (m *Meter) EntityID() string { return strconv.FormatUint(uint64(m.ID), 10) }

// Request is one caller-level operation.
//
// Add and Remove carry the target in Entity. Update carries the prior
// entity in Original and the replacement in Entity.
type Request struct {
	Op       Op
	Entity   Entity
	Original Entity
}

// Add builds an add request.
func Add(e Entity) Request { return Request{Op: OpAdd, Entity: e} }

// Update builds an update request replacing original with updated.
func Update(original, updated Entity) Request {
	return Request{Op: OpUpdate, Entity: updated, Original: original}
}

// Remove builds a remove request.
func Remove(e Entity) Request { return Request{Op: OpRemove, Entity: e} }
