package openflow

import (
	"errors"
	"testing"
)

func TestEncodeDecode_GroupMod(t *testing.T) {
	msg := &GroupMod{
		Command:   GroupAdd,
		GroupType: GroupTypeSelect,
		GroupID:   5,
		Buckets: []Bucket{
			{Weight: 10, WatchPort: PortAny, WatchGroup: GroupAny, Actions: []Action{{Type: "output", Port: 3}}},
		},
	}

	data, err := Encode(Version15, 42, msg)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	env, decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if env.Xid != 42 || env.Version != Version15 || env.Type != TypeGroupMod {
		t.Errorf("envelope = %+v", env)
	}
	gm, ok := decoded.(*GroupMod)
	if !ok {
		t.Fatalf("decoded type = %T, want *GroupMod", decoded)
	}
	if gm.GroupID != 5 || len(gm.Buckets) != 1 || gm.Buckets[0].Actions[0].Port != 3 {
		t.Errorf("decoded group = %+v", gm)
	}
}

func TestDecode_Replies(t *testing.T) {
	tests := []struct {
		name     string
		frame    string
		wantType MessageType
		wantErr  error
	}{
		{"barrier", `{"version":4,"type":21,"xid":7}`, TypeBarrierReply, nil},
		{"error", `{"version":4,"type":1,"xid":7,"body":{"err_type":6,"code":0}}`, TypeError, nil},
		{"unknown type", `{"version":4,"type":99,"xid":7}`, 0, ErrUnknownType},
		{"not json", `{"version":`, 0, ErrMalformed},
		{"bad body", `{"version":4,"type":1,"xid":7,"body":"nope"}`, 0, ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, msg, err := Decode([]byte(tt.frame))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Decode() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if msg.Type() != tt.wantType || env.Xid != 7 {
				t.Errorf("Decode() = (%+v, %T)", env, msg)
			}
		})
	}
}

func TestEncode_NilMessage(t *testing.T) {
	if _, err := Encode(Version13, 1, nil); !errors.Is(err, ErrMalformed) {
		t.Errorf("Encode(nil) error = %v, want ErrMalformed", err)
	}
}

func TestParseVersion(t *testing.T) {
	for _, s := range []string{"1.3", "1.4", "1.5"} {
		v, err := ParseVersion(s)
		if err != nil {
			t.Fatalf("ParseVersion(%q) error = %v", s, err)
		}
		if v.String() != s {
			t.Errorf("round trip %q -> %q", s, v.String())
		}
	}
	if _, err := ParseVersion("1.0"); !errors.Is(err, ErrUnknownVersion) {
		t.Errorf("ParseVersion(1.0) error = %v, want ErrUnknownVersion", err)
	}
	if got := Version(0x01).String(); got != "0x01" {
		t.Errorf("unknown version String() = %q", got)
	}
}

func TestErrorMsg_TypeName(t *testing.T) {
	if got := (&ErrorMsg{ErrType: ErrTypeGroupModFailed}).TypeName(); got != "GROUP_MOD_FAILED" {
		t.Errorf("TypeName() = %q", got)
	}
	if got := (&ErrorMsg{ErrType: 200}).TypeName(); got != "ERR_TYPE_200" {
		t.Errorf("TypeName() = %q", got)
	}
}
