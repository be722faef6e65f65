package transport

// Session event names published by switch agents.
const (
	EventConnected    = "connected"
	EventDisconnected = "disconnected"
	EventError        = "error"
)

// SessionEvent is published by a switch agent on its session topic.
//
//	{"event":"connected","version":"1.5","capabilities":["conversion"]}
//	{"event":"error","xid":42,"error":"decode failure"}
//	{"event":"disconnected","error":"keepalive timeout"}
type SessionEvent struct {
	Event        string   `json:"event"`
	Version      string   `json:"version,omitempty"`
	Capabilities []string `json:"capabilities,omitempty"`
	XID          *uint32  `json:"xid,omitempty"`
	Error        string   `json:"error,omitempty"`
}
