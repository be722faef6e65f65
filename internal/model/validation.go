package model

import (
	"fmt"
	"strings"
)

// Size limits keep a single request from exhausting device tables or memory.
const (
	maxBuckets     = 64
	maxActions     = 32
	maxBands       = 8
	maxMatchFields = 40
	maxFlowIDLen   = 128
)

var (
	validGroupTypes = map[GroupType]struct{}{
		GroupAll: {}, GroupSelect: {}, GroupIndirect: {}, GroupFastFailover: {},
	}
	validActionTypes = map[string]struct{}{
		"output": {}, "group": {}, "set_field": {}, "push_vlan": {}, "pop_vlan": {}, "drop": {},
	}
	validBandTypes  = map[string]struct{}{"drop": {}, "dscp_remark": {}}
	validMeterFlags = map[string]struct{}{"kbps": {}, "pktps": {}, "burst": {}, "stats": {}}
)

// ValidateRequest checks that req is well formed for kind.
//
// Remove only needs an identifiable entity; add and update need a fully
// valid one.
func ValidateRequest(kind Kind, req Request) error {
	if req.Entity == nil {
		return fmt.Errorf("%w: entity is required", ErrInvalidRequest)
	}
	if req.Entity.Kind() != kind {
		return fmt.Errorf("%w: %s entity for %s operation", ErrInvalidRequest, req.Entity.Kind(), kind)
	}
	if req.Entity.EntityID() == "" {
		return fmt.Errorf("%w: entity id is required", ErrInvalidRequest)
	}

	switch req.Op {
	case OpAdd:
	case OpUpdate:
		if req.Original == nil {
			return fmt.Errorf("%w: update requires the original entity", ErrInvalidRequest)
		}
		if req.Original.Kind() != kind {
			return fmt.Errorf("%w: original is a %s", ErrInvalidRequest, req.Original.Kind())
		}
	case OpRemove:
		return nil
	default:
		return fmt.Errorf("%w: unknown op %q", ErrInvalidRequest, req.Op)
	}

	return ValidateEntity(req.Entity)
}

// ValidateEntity validates entity fields.
func ValidateEntity(e Entity) error {
	switch v := e.(type) {
	case *Group:
		return validateGroup(v)
	case *Flow:
		return validateFlow(v)
	case *Meter:
		return validateMeter(v)
	default:
		return fmt.Errorf("%w: unsupported entity %T", ErrInvalidEntity, e)
	}
}

func validateGroup(g *Group) error {
	if _, ok := validGroupTypes[g.Type]; !ok {
		return fmt.Errorf("%w: group type %q", ErrInvalidEntity, g.Type)
	}
	if len(g.Buckets) > maxBuckets {
		return fmt.Errorf("%w: %d buckets exceeds %d", ErrInvalidEntity, len(g.Buckets), maxBuckets)
	}
	if g.Type == GroupIndirect && len(g.Buckets) != 1 {
		return fmt.Errorf("%w: indirect group needs exactly one bucket", ErrInvalidEntity)
	}
	for i, b := range g.Buckets {
		if g.Type == GroupFastFailover && b.WatchPort == nil && b.WatchGroup == nil {
			return fmt.Errorf("%w: bucket %d of fast_failover group needs a watch port or group", ErrInvalidEntity, i)
		}
		if err := validateActions(b.Actions); err != nil {
			return fmt.Errorf("bucket %d: %w", i, err)
		}
	}
	return nil
}

func validateFlow(f *Flow) error {
	if len(f.ID) > maxFlowIDLen || strings.ContainsAny(f.ID, "/#+") {
		return fmt.Errorf("%w: flow id %q", ErrInvalidEntity, f.ID)
	}
	if len(f.Match) > maxMatchFields {
		return fmt.Errorf("%w: %d match fields exceeds %d", ErrInvalidEntity, len(f.Match), maxMatchFields)
	}
	return validateActions(f.Actions)
}

func validateMeter(m *Meter) error {
	if m.ID == 0 {
		return fmt.Errorf("%w: meter id 0 is reserved", ErrInvalidEntity)
	}
	if len(m.Bands) == 0 || len(m.Bands) > maxBands {
		return fmt.Errorf("%w: meter needs 1-%d bands", ErrInvalidEntity, maxBands)
	}
	for _, f := range m.Flags {
		if _, ok := validMeterFlags[f]; !ok {
			return fmt.Errorf("%w: meter flag %q", ErrInvalidEntity, f)
		}
	}
	for i, b := range m.Bands {
		if _, ok := validBandTypes[b.Type]; !ok {
			return fmt.Errorf("%w: band %d type %q", ErrInvalidEntity, i, b.Type)
		}
		if b.Rate == 0 {
			return fmt.Errorf("%w: band %d rate must be positive", ErrInvalidEntity, i)
		}
	}
	return nil
}

func validateActions(actions []Action) error {
	if len(actions) > maxActions {
		return fmt.Errorf("%w: %d actions exceeds %d", ErrInvalidEntity, len(actions), maxActions)
	}
	for _, a := range actions {
		if _, ok := validActionTypes[a.Type]; !ok {
			return fmt.Errorf("%w: action type %q", ErrInvalidEntity, a.Type)
		}
		if a.Type == "set_field" && a.Field == "" {
			return fmt.Errorf("%w: set_field action needs a field", ErrInvalidEntity)
		}
	}
	return nil
}
