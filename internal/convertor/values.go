package convertor

import (
	"fmt"

	"github.com/nerrad567/gray-logic-switchd/internal/model"
	"github.com/nerrad567/gray-logic-switchd/internal/openflow"
)

var groupTypes = map[model.GroupType]openflow.GroupType{
	model.GroupAll:          openflow.GroupTypeAll,
	model.GroupSelect:       openflow.GroupTypeSelect,
	model.GroupIndirect:     openflow.GroupTypeIndirect,
	model.GroupFastFailover: openflow.GroupTypeFastFailover,
}

var meterFlags = map[string]uint16{
	"kbps":  openflow.MeterFlagKbps,
	"pktps": openflow.MeterFlagPktps,
	"burst": openflow.MeterFlagBurst,
	"stats": openflow.MeterFlagStats,
}

// GroupType returns the protocol encoding of t.
func GroupType(t model.GroupType) (openflow.GroupType, error) {
	v, ok := groupTypes[t]
	if !ok {
		return 0, fmt.Errorf("%w: group type %q", ErrUnknownValue, t)
	}
	return v, nil
}

// MeterFlags folds flag names into the protocol bitmask.
func MeterFlags(flags []string) (uint16, error) {
	var out uint16
	for _, f := range flags {
		bit, ok := meterFlags[f]
		if !ok {
			return 0, fmt.Errorf("%w: meter flag %q", ErrUnknownValue, f)
		}
		out |= bit
	}
	return out, nil
}

// Actions copies canonical actions into protocol actions.
func Actions(in []model.Action) []openflow.Action {
	if len(in) == 0 {
		return nil
	}
	out := make([]openflow.Action, len(in))
	for i, a := range in {
		out[i] = openflow.Action{
			Type:    a.Type,
			Port:    a.Port,
			GroupID: a.GroupID,
			Field:   a.Field,
			Value:   a.Value,
		}
	}
	return out
}

// Bands copies meter bands.
func Bands(in []model.Band) []openflow.MeterBand {
	out := make([]openflow.MeterBand, len(in))
	for i, b := range in {
		out[i] = openflow.MeterBand{
			Type:      b.Type,
			Rate:      b.Rate,
			BurstSize: b.BurstSize,
			PrecLevel: b.PrecLevel,
		}
	}
	return out
}

// Match copies a flow match so the message does not alias the entity.
func Match(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Watch returns the watch value, or the "any" sentinel when unset.
func Watch(v *uint32) uint32 {
	if v == nil {
		return openflow.PortAny
	}
	return *v
}
