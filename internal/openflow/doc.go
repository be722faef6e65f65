// Package openflow defines the protocol messages the controller exchanges
// with switches and the JSON envelope they travel in.
//
// Only the modification messages (group, flow, meter), their error reply
// and the barrier acknowledgment are modelled. Binary encoding is left to
// the switch agents on the far side of the broker.
package openflow
