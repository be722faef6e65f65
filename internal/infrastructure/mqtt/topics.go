package mqtt

import (
	"fmt"
	"strings"
)

// Topic prefixes for the switch controller topic tree.
//
//	graylogic/switch/{device}/request             controller → device
//	graylogic/switch/{device}/reply               device → controller
//	graylogic/switch/{device}/session             device → controller
//	graylogic/switch/{device}/state/{kind}/{id}   mirrored state (retained)
//	graylogic/system/{controller}/health          controller health (retained)
const (
	// TopicPrefixSwitch is the base for all per-device topics.
	TopicPrefixSwitch = "graylogic/switch"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "graylogic/system"
)

// Topics provides builders for controller MQTT topics.
//
//	topics := mqtt.Topics{}
//	topics.SwitchRequest("sw-1") // "graylogic/switch/sw-1/request"
type Topics struct{}

// SwitchRequest returns the topic requests for a device are published on.
func (Topics) SwitchRequest(deviceID string) string {
	return fmt.Sprintf("%s/%s/request", TopicPrefixSwitch, deviceID)
}

// SwitchReply returns the topic a device publishes replies on.
func (Topics) SwitchReply(deviceID string) string {
	return fmt.Sprintf("%s/%s/reply", TopicPrefixSwitch, deviceID)
}

// SwitchSession returns the topic a device publishes session events on.
func (Topics) SwitchSession(deviceID string) string {
	return fmt.Sprintf("%s/%s/session", TopicPrefixSwitch, deviceID)
}

// SwitchState returns the retained mirror topic for one entity.
//
// Example: graylogic/switch/sw-1/state/group/5
func (Topics) SwitchState(deviceID, kind, entityID string) string {
	return fmt.Sprintf("%s/%s/state/%s/%s", TopicPrefixSwitch, deviceID, kind, entityID)
}

// SystemStatus returns the controller online/offline status topic.
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// ControllerHealth returns the retained health topic for a controller.
func (Topics) ControllerHealth(controllerID string) string {
	return fmt.Sprintf("%s/%s/health", TopicPrefixSystem, controllerID)
}

// AllSwitchReplies returns a wildcard for every device's reply topic.
func (Topics) AllSwitchReplies() string {
	return TopicPrefixSwitch + "/+/reply"
}

// AllSwitchSessions returns a wildcard for every device's session topic.
func (Topics) AllSwitchSessions() string {
	return TopicPrefixSwitch + "/+/session"
}

// DeviceFromTopic extracts the device id from a per-device topic.
// It returns false for topics outside graylogic/switch/.
func DeviceFromTopic(topic string) (string, bool) {
	rest, ok := strings.CutPrefix(topic, TopicPrefixSwitch+"/")
	if !ok {
		return "", false
	}
	deviceID, _, found := strings.Cut(rest, "/")
	if !found || deviceID == "" {
		return "", false
	}
	return deviceID, true
}
