// Package mirror carries acknowledged state changes to the externally
// observed state tree.
//
// The engine emits Events into a Sink. A Sink with no registered Listener
// drops them, so mirroring is optional and never affects the registries.
// Listeners provided here persist the tree in SQLite (Store) and publish it
// on retained MQTT topics (MQTTPublisher); FanOut combines several.
package mirror
