// pkg/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service counters and histograms.
type Metrics struct {
	Logins           *prometheus.CounterVec
	Intakes          *prometheus.CounterVec
	ReportsGenerated prometheus.Counter
	HTTPDuration     *prometheus.HistogramVec
}

// New registers the service metrics on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Logins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "keratoscan_logins_total",
			Help: "Login attempts by role and outcome.",
		}, []string{"role", "outcome"}),
		Intakes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "keratoscan_intakes_total",
			Help: "Patient intake attempts by outcome.",
		}, []string{"outcome"}),
		ReportsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Name: "keratoscan_reports_generated_total",
			Help: "PDF reports generated.",
		}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "keratoscan_http_request_duration_seconds",
			Help:    "HTTP request latency by method, path and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}
}
