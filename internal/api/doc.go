// Package api implements the HTTP REST API and WebSocket server for switchd.
//
// This package provides:
//   - REST endpoints to add, update and remove groups, flows and meters on a
//     device, waiting for the device's acknowledgment before responding
//   - read endpoints for device sessions, entity registries and the mirrored
//     state tree
//   - a WebSocket hub that streams mirror events as they are acknowledged
//   - client-credential token issue and ticket-based WebSocket auth
//   - an audit journal of every operation and how it ended, at /api/v1/audit
//   - Prometheus exposition at /api/v1/metrics
//
// # Outcomes
//
// An operation response carries the completed Result. The HTTP status
// follows its error: 200 on success, 422 when the device rejected the
// operation, 409 for a policy conflict, 429 when the device's in-flight
// ceiling is reached, 503 when the session is lost, 504 on timeout.
//
// # Security
//
// Clients authenticate with an id and secret from the configuration and
// receive a bearer token. Viewers may read; operators may also change
// forwarding state. WebSocket connections use single-use tickets so tokens
// never appear in URLs.
package api
