package rest

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the Prometheus collectors updated by REST tables.
// A nil *Metrics records nothing.
type Metrics struct {
	requests  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	failovers *prometheus.CounterVec
	pages     *prometheus.CounterVec
	rows      *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// Share one Metrics between all tables of a registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "restapi_requests_total",
			Help: "Outbound requests by table, address and outcome.",
		}, []string{"table", "address", "outcome"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "restapi_request_duration_seconds",
			Help:    "Latency of outbound requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"table"}),
		failovers: f.NewCounterVec(prometheus.CounterOpts{
			Name: "restapi_failovers_total",
			Help: "Attempts made against a fallback address.",
		}, []string{"table"}),
		pages: f.NewCounterVec(prometheus.CounterOpts{
			Name: "restapi_pages_total",
			Help: "Pages fetched and decoded.",
		}, []string{"table"}),
		rows: f.NewCounterVec(prometheus.CounterOpts{
			Name: "restapi_rows_total",
			Help: "Rows decoded from responses.",
		}, []string{"table"}),
	}
}

func (m *Metrics) observeRequest(table, address string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.requests.WithLabelValues(table, address, outcome).Inc()
	m.duration.WithLabelValues(table).Observe(elapsed.Seconds())
}

func (m *Metrics) failover(table string) {
	if m == nil {
		return
	}
	m.failovers.WithLabelValues(table).Inc()
}

func (m *Metrics) page(table string, rows int) {
	if m == nil {
		return
	}
	m.pages.WithLabelValues(table).Inc()
	m.rows.WithLabelValues(table).Add(float64(rows))
}
