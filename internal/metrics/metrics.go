package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the signaling server.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry             *prometheus.Registry
	requestsTotal        prometheus.Counter
	errorsTotal          prometheus.Counter
	connections          prometheus.Gauge
	connectsTotal        prometheus.Counter
	evictionsTotal       prometheus.Counter
	inboundFramesTotal   *prometheus.CounterVec
	droppedFramesTotal   prometheus.Counter
	sessionEventsTotal   *prometheus.CounterVec
	chatRateLimitedTotal prometheus.Counter
}

// New creates and registers Prometheus metrics on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "onevoice_http_requests_total",
			Help: "Total number of HTTP requests received",
		}),
		errorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "onevoice_http_errors_total",
			Help: "Total number of HTTP responses with error status (4xx or 5xx)",
		}),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "onevoice_signal_connections",
			Help: "Number of live signaling connections",
		}),
		connectsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "onevoice_signal_connects_total",
			Help: "Total number of admitted signaling connections",
		}),
		evictionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "onevoice_signal_evictions_total",
			Help: "Connections closed because a send failed",
		}),
		inboundFramesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "onevoice_signal_inbound_frames_total",
			Help: "Inbound signaling frames by outcome",
		}, []string{"kind"}),
		droppedFramesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "onevoice_signal_dropped_frames_total",
			Help: "Outbound frames that could not be queued",
		}),
		sessionEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "onevoice_session_events_total",
			Help: "Session lifecycle transitions",
		}, []string{"event"}),
		chatRateLimitedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "onevoice_chat_rate_limited_total",
			Help: "Chat lines discarded by the per-user rate limit",
		}),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.errorsTotal,
		m.connections,
		m.connectsTotal,
		m.evictionsTotal,
		m.inboundFramesTotal,
		m.droppedFramesTotal,
		m.sessionEventsTotal,
		m.chatRateLimitedTotal,
	)
	return m
}

func (m *Metrics) IncRequests() {
	if m == nil {
		return
	}
	m.requestsTotal.Inc()
}

func (m *Metrics) IncErrors() {
	if m == nil {
		return
	}
	m.errorsTotal.Inc()
}

func (m *Metrics) SetConnections(n int) {
	if m == nil {
		return
	}
	m.connections.Set(float64(n))
}

func (m *Metrics) IncConnects() {
	if m == nil {
		return
	}
	m.connectsTotal.Inc()
}

func (m *Metrics) IncEvictions() {
	if m == nil {
		return
	}
	m.evictionsTotal.Inc()
}

// IncInbound counts an inbound frame; kind is relayed, chat, ignored or malformed.
func (m *Metrics) IncInbound(kind string) {
	if m == nil {
		return
	}
	m.inboundFramesTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) AddDropped(n int) {
	if m == nil || n == 0 {
		return
	}
	m.droppedFramesTotal.Add(float64(n))
}

func (m *Metrics) IncSessionEvent(event string) {
	if m == nil {
		return
	}
	m.sessionEventsTotal.WithLabelValues(event).Inc()
}

func (m *Metrics) IncChatRateLimited() {
	if m == nil {
		return
	}
	m.chatRateLimitedTotal.Inc()
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values.
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}
