// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the service's collectors on a dedicated registry.
type Metrics struct {
	registry *prometheus.Registry

	RequestDuration    *prometheus.HistogramVec
	QuotesIssued       prometheus.Counter
	HoldsCreated       prometheus.Counter
	HoldConflicts      prometheus.Counter
	Transitions        *prometheus.CounterVec
	HoldsExpired       prometheus.Counter
	NotificationsSent  *prometheus.CounterVec
	NotificationQueued prometheus.Counter
}

// New registers the collectors on a fresh registry, along with Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "villastay",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		QuotesIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "villastay",
			Name:      "quotes_issued_total",
			Help:      "Price quotes issued with a hold token.",
		}),
		HoldsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "villastay",
			Name:      "holds_created_total",
			Help:      "Reservation holds persisted.",
		}),
		HoldConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "villastay",
			Name:      "hold_conflicts_total",
			Help:      "Hold or reschedule attempts rejected because the dates were taken at write time.",
		}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "villastay",
			Name:      "reservation_transitions_total",
			Help:      "Reservation status transitions by target status.",
		}, []string{"to"}),
		HoldsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "villastay",
			Name:      "holds_expired_total",
			Help:      "Lapsed PENDING holds cancelled by the reaper.",
		}),
		NotificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "villastay",
			Name:      "notifications_total",
			Help:      "Notifications processed by kind and outcome.",
		}, []string{"kind", "status"}),
		NotificationQueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "villastay",
			Name:      "notifications_queued_total",
			Help:      "Notification jobs enqueued.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RequestDuration,
		m.QuotesIssued,
		m.HoldsCreated,
		m.HoldConflicts,
		m.Transitions,
		m.HoldsExpired,
		m.NotificationsSent,
		m.NotificationQueued,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
