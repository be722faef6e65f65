package convertor

import (
	"fmt"

	"github.com/nerrad567/gray-logic-switchd/internal/model"
	"github.com/nerrad567/gray-logic-switchd/internal/openflow"
)

func groupFunc(version openflow.Version) Func {
	return func(req model.Request) (openflow.Message, error) {
		g, ok := req.Entity.(*model.Group)
		if !ok {
			return nil, fmt.Errorf("%w: %T is not a group", ErrUnsupported, req.Entity)
		}

		msg := &openflow.GroupMod{GroupID: g.ID}
		if version >= openflow.Version15 {
			msg.CommandBucketID = openflow.BucketAll
		}

		switch req.Op {
		case model.OpAdd:
			msg.Command = openflow.GroupAdd
		case model.OpUpdate:
			msg.Command = openflow.GroupModify
		case model.OpRemove:
			msg.Command = openflow.GroupDelete
			return msg, nil
		default:
			return nil, fmt.Errorf("%w: op %q", ErrUnsupported, req.Op)
		}

		gt, err := GroupType(g.Type)
		if err != nil {
			return nil, err
		}
		msg.GroupType = gt

		msg.Buckets = make([]openflow.Bucket, len(g.Buckets))
		for i, b := range g.Buckets {
			ob := openflow.Bucket{
				Weight:     b.Weight,
				WatchPort:  Watch(b.WatchPort),
				WatchGroup: Watch(b.WatchGroup),
				Actions:    Actions(b.Actions),
			}
			if version >= openflow.Version15 {
				ob.BucketID = b.ID
				if ob.BucketID == 0 {
					ob.BucketID = uint32(i) + 1
				}
			}
			msg.Buckets[i] = ob
		}
		return msg, nil
	}
}

func flowFunc(version openflow.Version) Func {
	return func(req model.Request) (openflow.Message, error) {
		f, ok := req.Entity.(*model.Flow)
		if !ok {
			return nil, fmt.Errorf("%w: %T is not a flow", ErrUnsupported, req.Entity)
		}

		msg := &openflow.FlowMod{
			Cookie:   f.Cookie,
			TableID:  f.TableID,
			Priority: f.Priority,
			OutPort:  openflow.PortAny,
			OutGroup: openflow.GroupAny,
			Match:    Match(f.Match),
		}

		switch req.Op {
		case model.OpAdd:
			msg.Command = openflow.FlowAdd
		case model.OpUpdate:
			msg.Command = openflow.FlowModifyStrict
		case model.OpRemove:
			msg.Command = openflow.FlowDeleteStrict
			return msg, nil
		default:
			return nil, fmt.Errorf("%w: op %q", ErrUnsupported, req.Op)
		}

		msg.IdleTimeout = f.IdleTimeout
		msg.HardTimeout = f.HardTimeout
		msg.Actions = Actions(f.Actions)
		if version >= openflow.Version14 {
			msg.Importance = f.Importance
		}
		return msg, nil
	}
}

func meterFunc(_ openflow.Version) Func {
	return func(req model.Request) (openflow.Message, error) {
		m, ok := req.Entity.(*model.Meter)
		if !ok {
			return nil, fmt.Errorf("%w: %T is not a meter", ErrUnsupported, req.Entity)
		}

		msg := &openflow.MeterMod{MeterID: m.ID}
		switch req.Op {
		case model.OpAdd:
			msg.Command = openflow.MeterAdd
		case model.OpUpdate:
			msg.Command = openflow.MeterModify
		case model.OpRemove:
			msg.Command = openflow.MeterDelete
			return msg, nil
		default:
			return nil, fmt.Errorf("%w: op %q", ErrUnsupported, req.Op)
		}

		flags, err := MeterFlags(m.Flags)
		if err != nil {
			return nil, err
		}
		msg.Flags = flags
		msg.Bands = Bands(m.Bands)
		return msg, nil
	}
}
