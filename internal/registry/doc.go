// Package registry tracks the forwarding-table entities each device has
// acknowledged, one Registry per entity kind per device session.
//
// Only the outcome reconciler mutates a registry; dispatch reads it to
// refuse adds for identifiers whose removal is still in flight.
package registry
