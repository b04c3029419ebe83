package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns a private registry and the application's collectors.
type Manager struct {
	Registry        *prometheus.Registry
	BackendRequests *prometheus.CounterVec
	BackendLatency  *prometheus.HistogramVec
	HTTPRequests    *prometheus.CounterVec
	StaleSearches   prometheus.Counter
	FavoriteChanges *prometheus.CounterVec
	Visitors        prometheus.Gauge
}

func NewManager(namespace string) *Manager {
	registry := prometheus.NewRegistry()

	m := &Manager{
		Registry: registry,
		BackendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Backend API attempts by operation and outcome.",
		}, []string{"op", "outcome"}),
		BackendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Backend API attempt latency by operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Served HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		StaleSearches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_search_responses_total",
			Help:      "Search responses discarded because a newer request was issued.",
		}),
		FavoriteChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "favorite_changes_total",
			Help:      "Favorite additions and removals.",
		}, []string{"action"}),
		Visitors: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "visitors",
			Help:      "Visitor sessions currently held in memory.",
		}),
	}

	registry.MustRegister(
		m.BackendRequests,
		m.BackendLatency,
		m.HTTPRequests,
		m.StaleSearches,
		m.FavoriteChanges,
		m.Visitors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveBackend has the signature of backend.Observer.
func (m *Manager) ObserveBackend(op, outcome string, elapsed time.Duration) {
	m.BackendRequests.WithLabelValues(op, outcome).Inc()
	m.BackendLatency.WithLabelValues(op).Observe(elapsed.Seconds())
}

func (m *Manager) ObserveHTTP(route string, code int) {
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

func (m *Manager) StaleSearch() {
	m.StaleSearches.Inc()
}

// FavoriteChanged has the signature expected by favorites.WithChangeHook.
func (m *Manager) FavoriteChanged(_ int64, added bool) {
	action := "removed"
	if added {
		action = "added"
	}
	m.FavoriteChanges.WithLabelValues(action).Inc()
}

func (m *Manager) SetVisitors(n int) {
	m.Visitors.Set(float64(n))
}

func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
