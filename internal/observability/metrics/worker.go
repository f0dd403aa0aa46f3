package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/dialogue-qa/internal/core/domain"
	"github.com/kirillkom/dialogue-qa/internal/core/ports"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	processTotal    *prometheus.CounterVec
	processDuration *prometheus.HistogramVec
	processInFlight prometheus.Gauge
	indexedBytes    *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	processTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dqa",
			Subsystem: "worker",
			Name:      "document_process_total",
			Help:      "Total indexed documents by status.",
		},
		[]string{"service", "status"},
	)
	processDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dqa",
			Subsystem: "worker",
			Name:      "document_process_duration_seconds",
			Help:      "Document processing duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	processInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "dqa",
			Subsystem: "worker",
			Name:      "document_process_in_flight",
			Help:      "Number of in-flight document processing tasks.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	indexedBytes := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dqa",
			Subsystem: "worker",
			Name:      "indexed_body_bytes",
			Help:      "Size of extracted document bodies written to the search index.",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
		},
		[]string{"service"},
	)

	registry.MustRegister(processTotal, processDuration, processInFlight, indexedBytes)

	return &WorkerMetrics{
		registry:        registry,
		processTotal:    processTotal,
		processDuration: processDuration,
		processInFlight: processInFlight,
		indexedBytes:    indexedBytes,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartDocument() {
	m.processInFlight.Inc()
}

func (m *WorkerMetrics) FinishDocument(service string, duration time.Duration, err error) {
	m.processInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.processTotal.WithLabelValues(service, status).Inc()
	m.processDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveIndexedBody(service string, size int) {
	if size <= 0 {
		return
	}
	m.indexedBytes.WithLabelValues(service).Observe(float64(size))
}

// InstrumentIndexer records the body size of every successfully indexed
// document.
func (m *WorkerMetrics) InstrumentIndexer(service string, next ports.DocumentIndexer) ports.DocumentIndexer {
	return &instrumentedIndexer{next: next, metrics: m, service: service}
}

type instrumentedIndexer struct {
	next    ports.DocumentIndexer
	metrics *WorkerMetrics
	service string
}

func (i *instrumentedIndexer) IndexDocument(ctx context.Context, doc domain.IndexedDocument) error {
	if err := i.next.IndexDocument(ctx, doc); err != nil {
		return err
	}
	i.metrics.ObserveIndexedBody(i.service, len(doc.Text))
	return nil
}
