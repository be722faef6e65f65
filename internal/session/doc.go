// Package session owns the per-device state of the controller.
//
// A Session holds one correlation pool, one registry per entity kind and
// the operation services bound to them. Nothing is shared between
// devices. The transport reports connects, replies, errors and
// disconnects to the session; a disconnect resolves every outstanding
// exchange with ErrSessionLost.
//
// Registries survive a reconnect. Entries whose acknowledgment was lost
// stay as they were until resynchronised out of band.
package session
