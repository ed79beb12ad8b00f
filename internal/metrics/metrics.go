package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// QuizTransitions counts quiz lifecycle changes by kind
	// (created, updated, published, unpublished, auto_unpublished, soft_deleted, hard_deleted).
	QuizTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_transitions_total",
			Help: "Quiz lifecycle transitions",
		},
		[]string{"transition"},
	)

	// AttemptEvents counts attempt state changes (started, submitted, auto_graded, manually_graded, reset).
	AttemptEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_attempt_events_total",
			Help: "Quiz attempt state changes",
		},
		[]string{"event"},
	)

	AssignmentsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quiz_assignments_created_total",
		Help: "Quiz assignments created",
	})

	OverdueMarked = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quiz_assignments_overdue_total",
		Help: "Assignments moved to overdue by the sweeper",
	})

	// PaperCacheLookups counts paper cache reads by result (hit, miss, error).
	PaperCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_paper_cache_lookups_total",
			Help: "Quiz paper cache lookups",
		},
		[]string{"result"},
	)
)

var registerOnce sync.Once

// Init registers every collector with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			QuizTransitions,
			AttemptEvents,
			AssignmentsCreated,
			OverdueMarked,
			PaperCacheLookups,
		)
	})
}

// Middleware records request counts and latency per route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the default registry for scraping.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
