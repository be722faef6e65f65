// Package mqtt provides MQTT client connectivity for the switch controller.
//
// The broker carries every controller-to-device exchange: requests are
// published to a per-device request topic, replies and session events come
// back on per-device reply and session topics. The same connection carries
// the mirrored state tree (retained) and controller health.
//
//	switchd ↔ MQTT broker ↔ switch agents
//
// This package manages:
//   - Connection with auto-reconnect and subscription restoration
//   - Publishing with QoS and payload size checks
//   - Wildcard subscriptions with panic-safe handlers
//   - Last Will and Testament for offline detection
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Anonymous access is only for local development
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllSwitchReplies(), 1,
//	    func(topic string, payload []byte) error {
//	        deviceID, _ := mqtt.DeviceFromTopic(topic)
//	        return handleReply(deviceID, payload)
//	    })
package mqtt
