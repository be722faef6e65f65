// Package transport carries device exchanges over MQTT.
//
// Requests are framed as openflow.Envelope JSON and published on
// graylogic/switch/{device}/request. Switch agents answer on .../reply,
// echoing the xid, and report connects and disconnects on .../session.
// Replies and session events are routed to the device's Endpoint.
//
// The package also publishes the controller's retained health message.
package transport
