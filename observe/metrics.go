// Package observe exposes Prometheus metrics for Bot API exchanges.
package observe

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "botapi_requests_total",
			Help: "Total Bot API exchanges by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"}, // ok|api_error|transport_error
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "botapi_request_duration_seconds",
			Help:    "Duration of Bot API exchanges",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	retriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "botapi_retries_total",
			Help: "Total retried Bot API exchanges by reason",
		},
		[]string{"endpoint", "reason"}, // transport|flood|server
	)

	rateLimitWaitSeconds = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "botapi_rate_limit_wait_seconds_total",
		Help: "Total time spent waiting on the client-side rate limiter",
	})
)

func init() {
	prometheus.MustRegister(
		requestsTotal,
		requestDuration,
		retriesTotal,
		rateLimitWaitSeconds,
	)
}

const (
	OutcomeOK             = "ok"
	OutcomeAPIError       = "api_error"
	OutcomeTransportError = "transport_error"
)

func ObserveRequest(endpoint, outcome string, d time.Duration) {
	requestsTotal.WithLabelValues(endpoint, outcome).Inc()
	requestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

func IncRetry(endpoint, reason string) { retriesTotal.WithLabelValues(endpoint, reason).Inc() }
func AddRateLimitWait(d time.Duration) { rateLimitWaitSeconds.Add(d.Seconds()) }

// Requests returns the counter for one endpoint and outcome, for tests and dashboards.
func Requests(endpoint, outcome string) prometheus.Counter {
	return requestsTotal.WithLabelValues(endpoint, outcome)
}

func Retries(endpoint, reason string) prometheus.Counter {
	return retriesTotal.WithLabelValues(endpoint, reason)
}
