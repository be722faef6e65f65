// Package convertor translates canonical entities into version-specific
// protocol messages.
//
// A Registry holds one conversion function per (protocol version, entity
// kind). Default returns a registry covering OpenFlow 1.3, 1.4 and 1.5:
//
//   - 1.4 and later carry flow importance.
//   - 1.5 numbers group buckets and addresses all of them with the
//     command bucket id.
//
// A version or kind with no registered function yields ErrUnsupported.
package convertor
