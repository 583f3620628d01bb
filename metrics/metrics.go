// Package metrics exposes Prometheus counters for URL generation and
// history operations on a private registry.
package metrics

import (
	"database/sql"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// History operation labels.
const (
	OpSaveConfig = "save_config"
	OpAdd        = "add"
	OpDelete     = "delete"
	OpClear      = "clear"
	OpExport     = "export"
	OpRestore    = "restore"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	generated          *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
	historyOps         *prometheus.CounterVec
	verifications      *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
}

// New registers every collector, plus the Go and process collectors, on a
// fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{registry: reg}

	m.generated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "streamurl_generated_total",
		Help: "URL sets generated, by direction and whether authentication was applied",
	}, []string{"direction", "auth"})
	reg.MustRegister(m.generated)

	m.validationFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "streamurl_validation_failures_total",
		Help: "Generation requests rejected by configuration validation",
	}, []string{"direction"})
	reg.MustRegister(m.validationFailures)

	m.historyOps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "streamurl_history_operations_total",
		Help: "Writes to saved configurations and history",
	}, []string{"direction", "op"})
	reg.MustRegister(m.historyOps)

	m.verifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "streamurl_verifications_total",
		Help: "URL verification attempts by result",
	}, []string{"result"})
	reg.MustRegister(m.verifications)

	m.requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "streamurl_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern and status code",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method", "code"})
	reg.MustRegister(m.requestDuration)

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return m
}

// RegisterDB exports connection pool statistics of db.
func (m *Metrics) RegisterDB(db *sql.DB) {
	if m == nil || db == nil {
		return
	}
	m.registry.MustRegister(collectors.NewDBStatsCollector(db, "streamurl"))
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Generated(direction string, auth bool) {
	if m == nil {
		return
	}
	label := "false"
	if auth {
		label = "true"
	}
	m.generated.WithLabelValues(direction, label).Inc()
}

func (m *Metrics) ValidationFailed(direction string) {
	if m == nil {
		return
	}
	m.validationFailures.WithLabelValues(direction).Inc()
}

func (m *Metrics) HistoryOp(direction, op string) {
	if m == nil {
		return
	}
	m.historyOps.WithLabelValues(direction, op).Inc()
}

// Verified records a verification outcome such as "ok", "expired" or "invalid".
func (m *Metrics) Verified(result string) {
	if m == nil {
		return
	}
	m.verifications.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveRequest(route, method, code string, seconds float64) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(route, method, code).Observe(seconds)
}
