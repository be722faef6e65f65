// Package influxdb records controller telemetry in InfluxDB v2.
//
// Every finished device exchange becomes one point in the
// switch_exchanges measurement, tagged with device, kind, op, path and
// outcome, with the round-trip latency as a field:
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // telemetry off
//	}
//	defer client.Close()
//
// Writes are batched (batch_size, flush_interval) and never block the
// completion path.
package influxdb
