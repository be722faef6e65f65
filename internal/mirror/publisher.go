package mirror

import (
	"encoding/json"
	"sync"

	"github.com/nerrad567/gray-logic-switchd/internal/infrastructure/mqtt"
)

// Publisher is the MQTT capability the mirror publisher needs.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// MQTTPublisher is a Listener that mirrors entity state onto retained MQTT
// topics (graylogic/switch/{device}/state/{kind}/{id}). A Removed event
// publishes an empty retained payload, which clears the topic.
type MQTTPublisher struct {
	pub Publisher
	qos byte

	logger   Logger
	loggerMu sync.RWMutex
}

// NewMQTTPublisher creates a publisher that writes with qos.
func NewMQTTPublisher(pub Publisher, qos byte) *MQTTPublisher {
	return &MQTTPublisher{pub: pub, qos: qos, logger: noopLogger{}}
}

// SetLogger sets the logger for failed publishes.
func (p *MQTTPublisher) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	p.loggerMu.Lock()
	p.logger = logger
	p.loggerMu.Unlock()
}

// HandleMirrorEvent implements Listener.
func (p *MQTTPublisher) HandleMirrorEvent(ev Event) {
	topic := mqtt.Topics{}.SwitchState(ev.DeviceID, string(ev.EntityKind), ev.EntityID)

	var payload []byte
	if ev.Kind != Removed {
		var err error
		payload, err = json.Marshal(ev)
		if err != nil {
			p.logError("mirror event encode failed", ev, err)
			return
		}
	}

	if err := p.pub.Publish(topic, payload, p.qos, true); err != nil {
		p.logError("mirror publish failed", ev, err)
	}
}

func (p *MQTTPublisher) logError(msg string, ev Event, err error) {
	p.loggerMu.RLock()
	logger := p.logger
	p.loggerMu.RUnlock()
	logger.Error(msg, "device_id", ev.DeviceID, "kind", ev.EntityKind, "entity_id", ev.EntityID, "error", err)
}
