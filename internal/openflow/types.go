package openflow

import (
	"fmt"
	"strings"
)

// Version is the wire protocol version negotiated with a device.
type Version uint8

// Supported protocol versions.
const (
	Version13 Version = 0x04
	Version14 Version = 0x05
	Version15 Version = 0x06
)

var versionNames = map[Version]string{
	Version13: "1.3",
	Version14: "1.4",
	Version15: "1.5",
}

// String returns the dotted version ("1.3").
func (v Version) String() string {
	if name, ok := versionNames[v]; ok {
		return name
	}
	return fmt.Sprintf("0x%02x", uint8(v))
}

// ParseVersion converts a dotted version string to a Version.
func ParseVersion(s string) (Version, error) {
	for v, name := range versionNames {
		if name == strings.TrimSpace(s) {
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownVersion, s)
}

// MessageType identifies a message on the wire.
type MessageType uint8

// Message types used by the controller.
const (
	TypeError        MessageType = 1
	TypeFlowMod      MessageType = 14
	TypeGroupMod     MessageType = 15
	TypeBarrierReply MessageType = 21
	TypeMeterMod     MessageType = 29
)

var typeNames = map[MessageType]string{
	TypeError:        "error",
	TypeFlowMod:      "flow_mod",
	TypeGroupMod:     "group_mod",
	TypeBarrierReply: "barrier_reply",
	TypeMeterMod:     "meter_mod",
}

func (t MessageType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

// Message is any protocol message the controller sends or receives.
type Message interface {
	Type() MessageType
}

// Group mod commands.
type GroupModCommand uint16

const (
	GroupAdd    GroupModCommand = 0
	GroupModify GroupModCommand = 1
	GroupDelete GroupModCommand = 2
)

// GroupType selects group semantics on the device.
type GroupType uint8

const (
	GroupTypeAll          GroupType = 0
	GroupTypeSelect       GroupType = 1
	GroupTypeIndirect     GroupType = 2
	GroupTypeFastFailover GroupType = 3
)

// Flow mod commands.
type FlowModCommand uint8

const (
	FlowAdd          FlowModCommand = 0
	FlowModify       FlowModCommand = 1
	FlowModifyStrict FlowModCommand = 2
	FlowDelete       FlowModCommand = 3
	FlowDeleteStrict FlowModCommand = 4
)

// Meter mod commands.
type MeterModCommand uint16

const (
	MeterAdd    MeterModCommand = 0
	MeterModify MeterModCommand = 1
	MeterDelete MeterModCommand = 2
)

// Meter flags.
const (
	MeterFlagKbps  uint16 = 1 << 0
	MeterFlagPktps uint16 = 1 << 1
	MeterFlagBurst uint16 = 1 << 2
	MeterFlagStats uint16 = 1 << 3
)

// Reserved values.
const (
	// PortAny and GroupAny mean "no watch port/group" in a bucket.
	PortAny  uint32 = 0xffffffff
	GroupAny uint32 = 0xffffffff

	// BucketAll addresses every bucket of a group (1.5 command_bucket_id).
	BucketAll uint32 = 0xffffffff

	// TableAll targets every table in a flow delete.
	TableAll uint8 = 0xff
)

// Action is a single forwarding action inside a bucket or flow.
type Action struct {
	Type    string `json:"type"`
	Port    uint32 `json:"port,omitempty"`
	GroupID uint32 `json:"group_id,omitempty"`
	Field   string `json:"field,omitempty"`
	Value   string `json:"value,omitempty"`
}

// Bucket is one action bucket of a group.
type Bucket struct {
	// BucketID is only carried from 1.5 onwards.
	BucketID   uint32   `json:"bucket_id,omitempty"`
	Weight     uint16   `json:"weight,omitempty"`
	WatchPort  uint32   `json:"watch_port"`
	WatchGroup uint32   `json:"watch_group"`
	Actions    []Action `json:"actions,omitempty"`
}

// GroupMod creates, modifies or deletes a group.
type GroupMod struct {
	Command   GroupModCommand `json:"command"`
	GroupType GroupType       `json:"group_type"`
	GroupID   uint32          `json:"group_id"`
	Buckets   []Bucket        `json:"buckets,omitempty"`

	// CommandBucketID is only carried from 1.5 onwards.
	CommandBucketID uint32 `json:"command_bucket_id,omitempty"`
}

// Type implements Message.
func (*GroupMod) Type() MessageType { return TypeGroupMod }

// FlowMod creates, modifies or deletes a flow entry.
type FlowMod struct {
	Command     FlowModCommand    `json:"command"`
	Cookie      uint64            `json:"cookie,omitempty"`
	TableID     uint8             `json:"table_id"`
	Priority    uint16            `json:"priority"`
	IdleTimeout uint16            `json:"idle_timeout,omitempty"`
	HardTimeout uint16            `json:"hard_timeout,omitempty"`
	OutPort     uint32            `json:"out_port"`
	OutGroup    uint32            `json:"out_group"`
	Match       map[string]string `json:"match,omitempty"`
	Actions     []Action          `json:"actions,omitempty"`

	// Importance is only carried from 1.4 onwards.
	Importance uint16 `json:"importance,omitempty"`
}

// Type implements Message.
func (*FlowMod) Type() MessageType { return TypeFlowMod }

// MeterBand is one rate band of a meter.
type MeterBand struct {
	Type      string `json:"type"` // "drop" or "dscp_remark"
	Rate      uint32 `json:"rate"`
	BurstSize uint32 `json:"burst_size,omitempty"`
	PrecLevel uint8  `json:"prec_level,omitempty"`
}

// MeterMod creates, modifies or deletes a meter.
type MeterMod struct {
	Command MeterModCommand `json:"command"`
	Flags   uint16          `json:"flags"`
	MeterID uint32          `json:"meter_id"`
	Bands   []MeterBand     `json:"bands,omitempty"`
}

// Type implements Message.
func (*MeterMod) Type() MessageType { return TypeMeterMod }

// ErrorMsg is a device-reported failure for one request.
type ErrorMsg struct {
	ErrType uint16 `json:"err_type"`
	Code    uint16 `json:"code"`
	Data    string `json:"data,omitempty"`
}

// Type implements Message.
func (*ErrorMsg) Type() MessageType { return TypeError }

// Error type values seen in replies to modification requests.
const (
	ErrTypeBadRequest     uint16 = 1
	ErrTypeBadAction      uint16 = 2
	ErrTypeFlowModFailed  uint16 = 5
	ErrTypeGroupModFailed uint16 = 6
	ErrTypeMeterModFailed uint16 = 12
)

var errTypeNames = map[uint16]string{
	ErrTypeBadRequest:     "BAD_REQUEST",
	ErrTypeBadAction:      "BAD_ACTION",
	ErrTypeFlowModFailed:  "FLOW_MOD_FAILED",
	ErrTypeGroupModFailed: "GROUP_MOD_FAILED",
	ErrTypeMeterModFailed: "METER_MOD_FAILED",
}

// TypeName returns the symbolic error type, or its number when unknown.
func (e *ErrorMsg) TypeName() string {
	if name, ok := errTypeNames[e.ErrType]; ok {
		return name
	}
	return fmt.Sprintf("ERR_TYPE_%d", e.ErrType)
}

// BarrierReply acknowledges that every earlier request was processed.
// Devices send it as the positive acknowledgment for a modification.
type BarrierReply struct{}

// Type implements Message.
func (*BarrierReply) Type() MessageType { return TypeBarrierReply }
