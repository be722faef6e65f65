package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nerrad567/gray-logic-switchd/internal/service"
)

const namespace = "switchd"

// SessionStats reports live session counts. *session.Manager implements it.
type SessionStats interface {
	Len() int
	Connected() int
	InFlight() int
}

// Metrics holds the controller's Prometheus collectors on a private
// registry.
type Metrics struct {
	registry  *prometheus.Registry
	exchanges *prometheus.CounterVec
	latency   *prometheus.HistogramVec
}

// New registers the exchange collectors plus gauges read from stats.
// stats may be nil.
func New(stats SessionStats) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		exchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exchanges_total",
			Help:      "Finished device exchanges by outcome.",
		}, []string{"device_id", "kind", "op", "path", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "exchange_latency_seconds",
			Help:      "Time from reservation to resolution of device exchanges.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{"kind", "outcome"}),
	}
	reg.MustRegister(
		m.exchanges,
		m.latency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if stats != nil {
		reg.MustRegister(
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "exchanges_in_flight",
				Help:      "Outstanding exchanges across all devices.",
			}, func() float64 { return float64(stats.InFlight()) }),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "devices_connected",
				Help:      "Devices with an established session.",
			}, func() float64 { return float64(stats.Connected()) }),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "devices_configured",
				Help:      "Devices with a session object.",
			}, func() float64 { return float64(stats.Len()) }),
		)
	}
	return m
}

// RecordExchange implements service.ExchangeRecorder.
func (m *Metrics) RecordExchange(ex service.Exchange) {
	m.exchanges.WithLabelValues(ex.DeviceID, string(ex.Kind), string(ex.Op), ex.Path.String(), ex.Outcome).Inc()
	if ex.Latency > 0 {
		m.latency.WithLabelValues(string(ex.Kind), ex.Outcome).Observe(ex.Latency.Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
