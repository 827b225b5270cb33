// Package metrics exposes the service's Prometheus instruments on a
// dedicated registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry    *prometheus.Registry
	predictions *prometheus.CounterVec
	errors      *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	modelLoaded prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "attrition",
			Name:      "predictions_total",
			Help:      "Completed predictions by scoring mode and risk level.",
		}, []string{"mode", "risk_level"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "attrition",
			Name:      "prediction_errors_total",
			Help:      "Failed predictions by error kind.",
		}, []string{"kind"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "attrition",
			Name:      "prediction_duration_seconds",
			Help:      "Prediction latency by scoring mode.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"mode"}),
		modelLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "attrition",
			Name:      "model_loaded",
			Help:      "1 when a trained classifier is loaded, 0 in heuristic mode.",
		}),
	}

	m.registry.MustRegister(
		m.predictions,
		m.errors,
		m.duration,
		m.modelLoaded,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObservePrediction(mode, riskLevel string, d time.Duration) {
	m.predictions.WithLabelValues(mode, riskLevel).Inc()
	m.duration.WithLabelValues(mode).Observe(d.Seconds())
}

func (m *Metrics) ObserveError(kind string) {
	m.errors.WithLabelValues(kind).Inc()
}

func (m *Metrics) SetModelLoaded(loaded bool) {
	if loaded {
		m.modelLoaded.Set(1)
	} else {
		m.modelLoaded.Set(0)
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
