package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/gray-logic-switchd/internal/service"
)

// MeasurementExchanges is the measurement exchange outcomes are written to.
const MeasurementExchanges = "switch_exchanges"

// RecordExchange implements service.ExchangeRecorder. The write is
// non-blocking and dropped while disconnected.
func (c *Client) RecordExchange(ex service.Exchange) {
	if !c.IsConnected() {
		return
	}
	c.writer.WritePoint(exchangePoint(ex, time.Now()))
}

func exchangePoint(ex service.Exchange, at time.Time) *write.Point {
	return write.NewPoint(
		MeasurementExchanges,
		map[string]string{
			"device_id": ex.DeviceID,
			"kind":      string(ex.Kind),
			"op":        string(ex.Op),
			"path":      ex.Path.String(),
			"outcome":   ex.Outcome,
		},
		map[string]interface{}{
			"latency_ms": float64(ex.Latency) / float64(time.Millisecond),
			"count":      1,
		},
		at,
	)
}

// WritePoint writes a custom point stamped now.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}
	c.writer.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}
