// Package metrics exposes the bot's Prometheus instruments. All recording
// methods are safe on a nil *Metrics so components can run without them.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "routeweather"

// Metrics groups every collector registered by the bot.
type Metrics struct {
	registry *prometheus.Registry

	updates          *prometheus.CounterVec
	events           *prometheus.CounterVec
	forecastRuns     *prometheus.CounterVec
	providerRequests *prometheus.CounterVec
	providerLatency  *prometheus.HistogramVec
	messages         *prometheus.CounterVec
	queueDepth       prometheus.Gauge
}

// New creates the collectors on a private registry together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_total",
			Help:      "Telegram updates received, by kind.",
		}, []string{"kind"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Dialog events handled, by handler and outcome.",
		}, []string{"handler", "outcome"}),
		forecastRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecast_runs_total",
			Help:      "Route forecast runs, by horizon and outcome.",
		}, []string{"horizon", "outcome"}),
		providerRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Weather provider calls, by operation and outcome.",
		}, []string{"op", "outcome"}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "Weather provider call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Outbound Telegram messages, by kind.",
		}, []string{"kind"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dispatch_queue_depth",
			Help:      "Updates waiting in per-user dispatch queues.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.updates,
		m.events,
		m.forecastRuns,
		m.providerRequests,
		m.providerLatency,
		m.messages,
		m.queueDepth,
	)
	return m
}

// Registry returns the registry served on /metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Update counts one inbound update of the given kind.
func (m *Metrics) Update(kind string) {
	if m == nil {
		return
	}
	m.updates.WithLabelValues(kind).Inc()
}

// Event counts one handled dialog event.
func (m *Metrics) Event(handler string, err error) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(handler, outcome(err)).Inc()
}

// ForecastRun counts one orchestrator run.
func (m *Metrics) ForecastRun(horizon string, err error) {
	if m == nil {
		return
	}
	m.forecastRuns.WithLabelValues(horizon, outcome(err)).Inc()
}

// ProviderRequest records one provider call and its latency.
func (m *Metrics) ProviderRequest(op string, took time.Duration, err error) {
	if m == nil {
		return
	}
	m.providerRequests.WithLabelValues(op, outcome(err)).Inc()
	m.providerLatency.WithLabelValues(op).Observe(took.Seconds())
}

// MessageSent counts one outbound message.
func (m *Metrics) MessageSent(kind string) {
	if m == nil {
		return
	}
	m.messages.WithLabelValues(kind).Inc()
}

// QueueDelta adjusts the dispatch queue depth gauge.
func (m *Metrics) QueueDelta(delta int) {
	if m == nil {
		return
	}
	m.queueDepth.Add(float64(delta))
}

func outcome(err error) string {
	if err != nil {
		return "fail"
	}
	return "ok"
}
