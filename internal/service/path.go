package service

import "slices"

// CapabilityConversion is advertised by devices that accept
// version-specific messages produced by the convertor.
const CapabilityConversion = "conversion"

// Capabilities is the feature set a device advertised when it connected.
type Capabilities []string

// Has reports whether name was advertised.
func (c Capabilities) Has(name string) bool {
	return slices.Contains(c, name)
}

// Path selects how an operation's message is produced.
type Path int

const (
	// MessagePath builds base protocol messages directly.
	MessagePath Path = iota + 1
	// ConversionPath builds a canonical request and converts it for the
	// negotiated version.
	ConversionPath
)

func (p Path) String() string {
	switch p {
	case MessagePath:
		return "message"
	case ConversionPath:
		return "conversion"
	default:
		return "unknown"
	}
}

// SelectPath picks the path for one call. Conversion is preferred when
// the device supports it.
func SelectPath(caps Capabilities) Path {
	if caps.Has(CapabilityConversion) {
		return ConversionPath
	}
	return MessagePath
}
