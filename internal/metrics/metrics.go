// Package metrics exposes live run counters for the status server.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the probe's prometheus collectors.
type Metrics struct {
	Received      prometheus.Counter
	Ignored       prometheus.Counter
	Disconnects   prometheus.Counter
	Reconnects    prometheus.Counter
	EventsDropped prometheus.Counter
	Latency       prometheus.Histogram
}

// New creates and registers the collectors.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Received: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "qosprobe_messages_received_total",
			Help: "Messages received on the measurement topic",
		}),
		Ignored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "qosprobe_messages_ignored_total",
			Help: "Messages received on other topics and skipped",
		}),
		Disconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "qosprobe_disconnects_injected_total",
			Help: "Disconnects forced by the fault injector",
		}),
		Reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "qosprobe_reconnects_total",
			Help: "Successful reconnects that patched a disconnect marker",
		}),
		EventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "qosprobe_events_dropped_total",
			Help: "Transport events dropped because the event channel was full",
		}),
		Latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "qosprobe_latency_ms",
			Help:    "End-to-end message latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 14),
		}),
	}
	reg.MustRegister(m.Received, m.Ignored, m.Disconnects, m.Reconnects, m.EventsDropped, m.Latency)
	return m
}
