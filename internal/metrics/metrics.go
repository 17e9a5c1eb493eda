package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	admissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tablebook",
			Name:      "admissions_total",
			Help:      "Admission decisions by operation and result.",
		},
		[]string{"operation", "result"},
	)

	admissionRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tablebook",
			Name:      "admission_retries_total",
			Help:      "Admission attempts repeated after a transient store conflict.",
		},
	)

	availabilityQueries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tablebook",
			Name:      "availability_queries_total",
			Help:      "Seat availability queries served.",
		},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tablebook",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(admissions, admissionRetries, availabilityQueries, httpDuration)
	})
}

func IncAdmission(operation, result string) {
	admissions.WithLabelValues(operation, result).Inc()
}

func IncAdmissionRetry() {
	admissionRetries.Inc()
}

func IncAvailabilityQuery() {
	availabilityQueries.Inc()
}

// Middleware observes request latency labelled by the matched route
// template, so ids in the path do not explode cardinality.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
