package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/spec-kit/ticket-sla-service/internal/sla"
)

// Metrics owns the service's Prometheus collectors on a private registry.
type Metrics struct {
	registry           *prometheus.Registry
	requestCount       *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
	errorCount         *prometheus.CounterVec
	ticketActions      *prometheus.CounterVec
	openTickets        prometheus.Gauge
	breachedResponse   prometheus.Gauge
	breachedResolution prometheus.Gauge
}

// NewMetrics registers all collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests by route, method and status",
		}, []string{"path", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"path", "method"}),
		errorCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_request_errors_total",
			Help: "Failed HTTP requests by error code",
		}, []string{"path", "method", "code"}),
		ticketActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ticket_actions_total",
			Help: "Applied ticket mutations by action",
		}, []string{"action"}),
		openTickets: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sla_open_tickets",
			Help: "Tickets not yet resolved or closed",
		}),
		breachedResponse: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sla_breached_response_tickets",
			Help: "Open tickets past their response deadline without a staff reply",
		}),
		breachedResolution: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sla_breached_resolution_tickets",
			Help: "Open tickets past their resolution deadline",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestCount,
		m.requestDuration,
		m.errorCount,
		m.ticketActions,
		m.openTickets,
		m.breachedResponse,
		m.breachedResolution,
	)
	return m
}

// Registry exposes the registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.requestCount.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(path, method).Observe(seconds)
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errorCount.WithLabelValues(path, method, code).Inc()
}

// RecordAction counts a successfully persisted ticket action.
func (m *Metrics) RecordAction(action string) {
	if m == nil {
		return
	}
	m.ticketActions.WithLabelValues(action).Inc()
}

// ObserveKPI publishes the fleet breach gauges.
func (m *Metrics) ObserveKPI(kpi sla.KPI) {
	if m == nil {
		return
	}
	m.openTickets.Set(float64(kpi.OpenTickets))
	m.breachedResponse.Set(float64(kpi.BreachedResponse))
	m.breachedResolution.Set(float64(kpi.BreachedResolution))
}
