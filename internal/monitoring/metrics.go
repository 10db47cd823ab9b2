package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Request metrics
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exchange_requests_total",
			Help: "Total number of REST requests sent to exchanges",
		},
		[]string{"exchange", "api", "method", "status"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "exchange_request_duration_seconds",
			Help:    "Latency of REST requests to exchanges",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"exchange", "api"},
	)

	// Error metrics
	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exchange_errors_total",
			Help: "Total number of exchange errors by kind",
		},
		[]string{"exchange", "kind"},
	)

	// Cache metrics
	marketsLoaded = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "exchange_markets_loaded",
			Help: "Number of markets in the loaded snapshot",
		},
		[]string{"exchange"},
	)

	retriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exchange_retries_total",
			Help: "Total number of retried requests",
		},
		[]string{"exchange"},
	)
)

func init() {
	// Register metrics
	prometheus.MustRegister(requestsTotal)
	prometheus.MustRegister(requestDuration)
	prometheus.MustRegister(errorsTotal)
	prometheus.MustRegister(marketsLoaded)
	prometheus.MustRegister(retriesTotal)
}

// MetricsHandler handles Prometheus metrics endpoint
type MetricsHandler struct{}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

// ServeHTTP serves the Prometheus metrics endpoint
func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// RecordRequest records one completed HTTP exchange
func RecordRequest(exchange, api, method, status string, elapsed time.Duration) {
	requestsTotal.WithLabelValues(exchange, api, method, status).Inc()
	requestDuration.WithLabelValues(exchange, api).Observe(elapsed.Seconds())
}

// RecordError records an error metric
func RecordError(exchange, kind string) {
	errorsTotal.WithLabelValues(exchange, kind).Inc()
}

// RecordRetry records a retried request
func RecordRetry(exchange string) {
	retriesTotal.WithLabelValues(exchange).Inc()
}

// SetMarketsLoaded updates the market snapshot size
func SetMarketsLoaded(exchange string, count int) {
	marketsLoaded.WithLabelValues(exchange).Set(float64(count))
}
