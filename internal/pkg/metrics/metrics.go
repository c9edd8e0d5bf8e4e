package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "investorconnect_http_requests_total",
			Help: "HTTP requests served, by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "investorconnect_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	DocstoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "investorconnect_docstore_operations_total",
			Help: "Document store operations by collection and outcome",
		},
		[]string{"operation", "collection", "outcome"},
	)

	DocstoreDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "investorconnect_docstore_operation_duration_seconds",
			Help: "Document store operation latency in seconds",
		},
		[]string{"operation"},
	)

	AuthEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "investorconnect_auth_events_total",
			Help: "Identity operations by event and outcome",
		},
		[]string{"event", "outcome"},
	)

	ExpiredTokensDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "investorconnect_refresh_tokens_cleaned_total",
			Help: "Expired or revoked refresh tokens removed by the cleanup job",
		},
	)
)

// Outcome labels
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// OutcomeOf maps an error to an outcome label
func OutcomeOf(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}

// ObserveDocstore records one document store call
func ObserveDocstore(operation, collection string, start time.Time, err error) {
	DocstoreOperations.WithLabelValues(operation, collection, OutcomeOf(err)).Inc()
	DocstoreDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// Middleware counts requests by matched route
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		route := c.Route().Path
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		HTTPRequests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		HTTPDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler exposes the default registry for scraping
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
