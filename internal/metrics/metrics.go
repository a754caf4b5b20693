package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rewardhub"

// Metrics owns a private registry so tests can build independent instances.
type Metrics struct {
	Registry *prometheus.Registry

	httpInFlight prometheus.Gauge
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	taskCompletions *prometheus.CounterVec
	pointsAwarded   prometheus.Counter
	withdrawals     *prometheus.CounterVec
	pointsWithdrawn prometheus.Counter
	chatRequests    *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		}, []string{"method", "route"}),
		taskCompletions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tasks",
			Name:      "completions_total",
			Help:      "Task completions by task type.",
		}, []string{"type"}),
		pointsAwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tasks",
			Name:      "points_awarded_total",
			Help:      "Points credited for completed tasks.",
		}),
		withdrawals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "withdrawals",
			Name:      "created_total",
			Help:      "Withdrawal requests accepted, by payout method.",
		}, []string{"method"}),
		pointsWithdrawn: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "withdrawals",
			Name:      "points_total",
			Help:      "Points debited by accepted withdrawals.",
		}),
		chatRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "help",
			Name:      "chat_requests_total",
			Help:      "Help chat requests by outcome.",
		}, []string{"outcome"}),
	}

	m.Registry.MustRegister(
		m.httpInFlight,
		m.httpRequests,
		m.httpDuration,
		m.taskCompletions,
		m.pointsAwarded,
		m.withdrawals,
		m.pointsWithdrawn,
		m.chatRequests,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Instrument records request count, latency and in-flight gauge. Routes are
// labelled by the matched mux pattern to keep cardinality bounded.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		route := routeLabel(r.Pattern)
		method := strings.ToUpper(r.Method)
		m.httpRequests.WithLabelValues(method, route, strconv.Itoa(rec.status)).Inc()
		m.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) TaskCompleted(taskType string, points int) {
	if taskType == "" {
		taskType = "unknown"
	}
	m.taskCompletions.WithLabelValues(taskType).Inc()
	m.pointsAwarded.Add(float64(points))
}

func (m *Metrics) WithdrawalCreated(method string, points int) {
	m.withdrawals.WithLabelValues(method).Inc()
	m.pointsWithdrawn.Add(float64(points))
}

// ChatOutcome is one of "ok", "rejected", "rate_limited" or "upstream_error".
func (m *Metrics) ChatOutcome(outcome string) {
	m.chatRequests.WithLabelValues(outcome).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// routeLabel drops the method prefix from a mux pattern ("GET /api/tasks").
func routeLabel(pattern string) string {
	if pattern == "" {
		return "unmatched"
	}
	if _, path, ok := strings.Cut(pattern, " "); ok {
		return path
	}
	return pattern
}
