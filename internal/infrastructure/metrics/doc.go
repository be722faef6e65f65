// Package metrics exposes controller metrics for Prometheus: exchange
// outcomes and latency, in-flight exchanges and device connectivity.
package metrics
