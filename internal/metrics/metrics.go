package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	requestTotal       *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
	rateLimitedTotal   prometheus.Counter
	extractionFailures *prometheus.CounterVec
	streamsTotal       *prometheus.CounterVec
	streamDuration     prometheus.Histogram
	evaluationsTotal   *prometheus.CounterVec
	evaluationScore    *prometheus.HistogramVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "careerforge",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"method", "route", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "careerforge",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Time until the handler returned, excluding streamed bodies.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	rateLimitedTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "careerforge",
			Subsystem: "chat",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		},
	)
	extractionFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "careerforge",
			Subsystem: "pdf",
			Name:      "extraction_failures_total",
			Help:      "PDF extraction failures by reason.",
		},
		[]string{"reason"},
	)
	streamsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "careerforge",
			Subsystem: "llm",
			Name:      "streams_total",
			Help:      "Completed analysis streams by outcome.",
		},
		[]string{"outcome"},
	)
	streamDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "careerforge",
			Subsystem: "llm",
			Name:      "stream_duration_seconds",
			Help:      "Duration of analysis generation from start to last fragment.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
	)
	evaluationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "careerforge",
			Subsystem: "evaluation",
			Name:      "runs_total",
			Help:      "Judge evaluations by status.",
		},
		[]string{"status"},
	)
	evaluationScore := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "careerforge",
			Subsystem: "evaluation",
			Name:      "score",
			Help:      "Distribution of judge scores by dimension.",
			Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
		[]string{"dimension"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		rateLimitedTotal,
		extractionFailures,
		streamsTotal,
		streamDuration,
		evaluationsTotal,
		evaluationScore,
	)

	return &Metrics{
		registry:           registry,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		rateLimitedTotal:   rateLimitedTotal,
		extractionFailures: extractionFailures,
		streamsTotal:       streamsTotal,
		streamDuration:     streamDuration,
		evaluationsTotal:   evaluationsTotal,
		evaluationScore:    evaluationScore,
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.requestTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (m *Metrics) RecordRateLimited() {
	if m == nil {
		return
	}
	m.rateLimitedTotal.Inc()
}

func (m *Metrics) RecordExtractionFailure(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unknown"
	}
	m.extractionFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecordStream(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.streamsTotal.WithLabelValues(outcome).Inc()
	m.streamDuration.Observe(duration.Seconds())
}

func (m *Metrics) RecordEvaluation(status string, scores map[string]float64) {
	if m == nil {
		return
	}
	m.evaluationsTotal.WithLabelValues(status).Inc()
	for dimension, value := range scores {
		m.evaluationScore.WithLabelValues(dimension).Observe(value)
	}
}
