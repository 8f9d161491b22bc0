/*
metrics.go - Prometheus instrumentation

PURPOSE:
  Counters and histograms for the coordinator's operational surface,
  exposed on GET /metrics. Registration is process-global via promauto;
  the names are part of the deployment's dashboard contract.
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	schedulesConfigured = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vesting_schedules_configured_total",
		Help: "Schedules created through this coordinator.",
	})

	distributionsExecuted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vesting_distributions_executed_total",
		Help: "Pool distributions executed.",
	})

	claimsExecuted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vesting_claims_executed_total",
		Help: "Self-serve claims executed.",
	})

	tokensDistributed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vesting_tokens_distributed_base_units_total",
		Help: "Total tokens paid out, in base units.",
	})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vesting_http_request_duration_seconds",
		Help:    "HTTP request latency by method and path pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "pattern"})
)

// instrument records request latency per routing pattern. The chi route
// context is only populated after routing, so the pattern is read after
// the handler returns.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)

		pattern := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			pattern = rctx.RoutePattern()
		}
		requestDuration.WithLabelValues(r.Method, pattern).Observe(time.Since(start).Seconds())
	})
}
