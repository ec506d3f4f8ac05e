// Package metrics keeps in-process Prometheus metrics of a screening batch.
// Nothing is served over the network; the registry can be dumped to a file
// in the text exposition format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/spigell/resume-screener/internal/screening"
)

const namespace = "resume_screener"

type BatchMetrics struct {
	registry *prometheus.Registry

	documentsTotal   *prometheus.CounterVec
	documentDuration *prometheus.HistogramVec
	inFlight         prometheus.Gauge
	scores           *prometheus.HistogramVec
}

func NewBatchMetrics() *BatchMetrics {
	registry := prometheus.NewRegistry()

	documentsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "documents_total",
			Help:      "Processed documents by status and error kind.",
		},
		[]string{"status", "kind"},
	)
	documentDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "document_duration_seconds",
			Help:      "Document pipeline duration in seconds by status.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"status"},
	)
	inFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "documents_in_flight",
			Help:      "Number of documents currently in the pipeline.",
		},
	)
	scores := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "match_score",
			Help:      "Distribution of match scores by decision.",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		},
		[]string{"decision"},
	)

	registry.MustRegister(documentsTotal, documentDuration, inFlight, scores)

	return &BatchMetrics{
		registry:         registry,
		documentsTotal:   documentsTotal,
		documentDuration: documentDuration,
		inFlight:         inFlight,
		scores:           scores,
	}
}

func (m *BatchMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *BatchMetrics) StartDocument() {
	m.inFlight.Inc()
}

// FinishDocument records a finished document. An empty kind means success.
func (m *BatchMetrics) FinishDocument(duration time.Duration, kind screening.ErrorKind) {
	m.inFlight.Dec()

	status := "success"
	if kind != "" {
		status = "failure"
	}

	m.documentsTotal.WithLabelValues(status, string(kind)).Inc()
	m.documentDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// SkipDocument records a document that never entered the pipeline.
func (m *BatchMetrics) SkipDocument(kind screening.ErrorKind) {
	m.documentsTotal.WithLabelValues("skipped", string(kind)).Inc()
}

func (m *BatchMetrics) ObserveResult(result *screening.MatchResult) {
	m.scores.WithLabelValues(string(result.Decision)).Observe(result.Score)
}

// WriteToFile writes the registry in the Prometheus text format.
func (m *BatchMetrics) WriteToFile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
