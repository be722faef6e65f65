package service

import (
	"fmt"

	"github.com/nerrad567/gray-logic-switchd/internal/convertor"
	"github.com/nerrad567/gray-logic-switchd/internal/model"
	"github.com/nerrad567/gray-logic-switchd/internal/openflow"
)

// builder produces the outgoing message for one request.
type builder func(req model.Request, version openflow.Version) (openflow.Message, error)

// conversionBuilder defers to the convertor for the negotiated version.
func conversionBuilder(conv convertor.Convertor) builder {
	return func(req model.Request, version openflow.Version) (openflow.Message, error) {
		return conv.Convert(req, version)
	}
}

// messageBuilder builds base-layout messages directly. The layout is the
// same for every version: no bucket ids, no flow importance.
func messageBuilder(kind model.Kind) builder {
	switch kind {
	case model.KindGroup:
		return buildGroupMod
	case model.KindFlow:
		return buildFlowMod
	case model.KindMeter:
		return buildMeterMod
	default:
		return func(model.Request, openflow.Version) (openflow.Message, error) {
			return nil, fmt.Errorf("%w: %s", ErrNoService, kind)
		}
	}
}

func buildGroupMod(req model.Request, _ openflow.Version) (openflow.Message, error) {
	g, ok := req.Entity.(*model.Group)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not a group", model.ErrInvalidRequest, req.Entity)
	}
	if req.Op == model.OpRemove {
		return &openflow.GroupMod{Command: openflow.GroupDelete, GroupID: g.ID}, nil
	}

	gt, err := convertor.GroupType(g.Type)
	if err != nil {
		return nil, err
	}
	msg := &openflow.GroupMod{Command: openflow.GroupAdd, GroupType: gt, GroupID: g.ID}
	if req.Op == model.OpUpdate {
		msg.Command = openflow.GroupModify
	}
	for _, b := range g.Buckets {
		msg.Buckets = append(msg.Buckets, openflow.Bucket{
			Weight:     b.Weight,
			WatchPort:  convertor.Watch(b.WatchPort),
			WatchGroup: convertor.Watch(b.WatchGroup),
			Actions:    convertor.Actions(b.Actions),
		})
	}
	return msg, nil
}

func buildFlowMod(req model.Request, _ openflow.Version) (openflow.Message, error) {
	f, ok := req.Entity.(*model.Flow)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not a flow", model.ErrInvalidRequest, req.Entity)
	}
	msg := &openflow.FlowMod{
		Command:  openflow.FlowAdd,
		Cookie:   f.Cookie,
		TableID:  f.TableID,
		Priority: f.Priority,
		OutPort:  openflow.PortAny,
		OutGroup: openflow.GroupAny,
		Match:    convertor.Match(f.Match),
	}
	switch req.Op {
	case model.OpRemove:
		msg.Command = openflow.FlowDeleteStrict
		return msg, nil
	case model.OpUpdate:
		msg.Command = openflow.FlowModifyStrict
	}
	msg.IdleTimeout = f.IdleTimeout
	msg.HardTimeout = f.HardTimeout
	msg.Actions = convertor.Actions(f.Actions)
	return msg, nil
}

func buildMeterMod(req model.Request, _ openflow.Version) (openflow.Message, error) {
	m, ok := req.Entity.(*model.Meter)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not a meter", model.ErrInvalidRequest, req.Entity)
	}
	if req.Op == model.OpRemove {
		return &openflow.MeterMod{Command: openflow.MeterDelete, MeterID: m.ID}, nil
	}

	flags, err := convertor.MeterFlags(m.Flags)
	if err != nil {
		return nil, err
	}
	msg := &openflow.MeterMod{Command: openflow.MeterAdd, Flags: flags, MeterID: m.ID, Bands: convertor.Bands(m.Bands)}
	if req.Op == model.OpUpdate {
		msg.Command = openflow.MeterModify
	}
	return msg, nil
}
