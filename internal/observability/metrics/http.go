package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/dialogue-qa/internal/core/domain"
	"github.com/kirillkom/dialogue-qa/internal/core/usecase"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry
	service  string

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	turnsTotal         *prometheus.CounterVec
	turnDuration       *prometheus.HistogramVec
	passagesPerQuery   *prometheus.HistogramVec
	winningVotes       *prometheus.HistogramVec
	degradedTotal      *prometheus.CounterVec
	emptyQueryTotal    *prometheus.CounterVec
	corefResolvedTotal *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dqa",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dqa",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "dqa",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	turnsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dqa",
			Subsystem: "dialogue",
			Name:      "turns_total",
			Help:      "Total answered turns by route.",
		},
		[]string{"service", "route"},
	)
	turnDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dqa",
			Subsystem: "dialogue",
			Name:      "turn_duration_seconds",
			Help:      "End-to-end turn duration in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
		},
		[]string{"service", "route"},
	)
	passagesPerQuery := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dqa",
			Subsystem: "qa",
			Name:      "passages",
			Help:      "Distribution of passages kept per query.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service"},
	)
	winningVotes := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dqa",
			Subsystem: "qa",
			Name:      "winning_votes",
			Help:      "Votes behind the winning answer cluster.",
			Buckets:   []float64{0, 1, 2, 3, 4, 5, 8},
		},
		[]string{"service"},
	)
	degradedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dqa",
			Subsystem: "qa",
			Name:      "degraded_total",
			Help:      "Total QA runs that fell back to no answer after a dependency failure.",
		},
		[]string{"service"},
	)
	emptyQueryTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dqa",
			Subsystem: "qa",
			Name:      "empty_query_total",
			Help:      "Total queries left with no weighted terms after filtering.",
		},
		[]string{"service"},
	)
	corefResolvedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dqa",
			Subsystem: "dialogue",
			Name:      "coreference_resolved_total",
			Help:      "Total turns whose query was rewritten by coreference resolution.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		turnsTotal,
		turnDuration,
		passagesPerQuery,
		winningVotes,
		degradedTotal,
		emptyQueryTotal,
		corefResolvedTotal,
	)

	return &HTTPServerMetrics{
		registry:           registry,
		service:            service,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		turnsTotal:         turnsTotal,
		turnDuration:       turnDuration,
		passagesPerQuery:   passagesPerQuery,
		winningVotes:       winningVotes,
		degradedTotal:      degradedTotal,
		emptyQueryTotal:    emptyQueryTotal,
		corefResolvedTotal: corefResolvedTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			m.service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(m.service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/documents/"):
		return "/v1/documents/{document_id}"
	case strings.HasPrefix(path, "/v1/sessions/"):
		return "/v1/sessions/{session_id}/turns"
	default:
		return path
	}
}

// ObserveTurn records one answered dialogue turn.
func (m *HTTPServerMetrics) ObserveTurn(route domain.Route, coreferenceResolved bool, stats usecase.QAStats, votes int, duration time.Duration) {
	label := string(route)
	if label == "" {
		label = "unknown"
	}
	m.turnsTotal.WithLabelValues(m.service, label).Inc()
	m.turnDuration.WithLabelValues(m.service, label).Observe(duration.Seconds())
	if coreferenceResolved {
		m.corefResolvedTotal.WithLabelValues(m.service).Inc()
	}

	if stats.Degraded {
		m.degradedTotal.WithLabelValues(m.service).Inc()
		return
	}
	if stats.Query.Empty() {
		m.emptyQueryTotal.WithLabelValues(m.service).Inc()
		return
	}
	m.passagesPerQuery.WithLabelValues(m.service).Observe(float64(stats.Passages))
	m.winningVotes.WithLabelValues(m.service).Observe(float64(votes))
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
