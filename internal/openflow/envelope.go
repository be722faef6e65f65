package openflow

import (
	"encoding/json"
	"fmt"
)

// Envelope is the JSON frame exchanged with switch agents over MQTT.
// The xid is the transaction id the reply is correlated on.
type Envelope struct {
	Version Version         `json:"version"`
	Type    MessageType     `json:"type"`
	Xid     uint32          `json:"xid"`
	Body    json.RawMessage `json:"body,omitempty"`
}

// Encode frames msg for transmission.
func Encode(version Version, xid uint32, msg Message) ([]byte, error) {
	if msg == nil {
		return nil, fmt.Errorf("%w: nil message", ErrMalformed)
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encoding %s body: %w", msg.Type(), err)
	}
	return json.Marshal(Envelope{
		Version: version,
		Type:    msg.Type(),
		Xid:     xid,
		Body:    body,
	})
}

// Decode parses a frame and returns its envelope and typed message.
func Decode(data []byte) (Envelope, Message, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	var msg Message
	switch env.Type {
	case TypeError:
		msg = &ErrorMsg{}
	case TypeBarrierReply:
		msg = &BarrierReply{}
	case TypeGroupMod:
		msg = &GroupMod{}
	case TypeFlowMod:
		msg = &FlowMod{}
	case TypeMeterMod:
		msg = &MeterMod{}
	default:
		return env, nil, fmt.Errorf("%w: %s", ErrUnknownType, env.Type)
	}

	if len(env.Body) > 0 {
		if err := json.Unmarshal(env.Body, msg); err != nil {
			return env, nil, fmt.Errorf("%w: %s body: %w", ErrMalformed, env.Type, err)
		}
	}
	return env, msg, nil
}
