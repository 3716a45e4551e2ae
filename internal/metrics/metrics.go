// Package metrics exposes Prometheus instrumentation for chart computation
// and the renderer feed.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"astrolabe.space/ephemeris"
)

const namespace = "astrolabe"

// Collector holds every metric. A nil *Collector is valid and records nothing.
type Collector struct {
	computeDuration *prometheus.HistogramVec
	computations    *prometheus.CounterVec
	fallbacks       *prometheus.CounterVec
	aspectsPerChart prometheus.Histogram
	feedClients     prometheus.Gauge
	framesSent      prometheus.Counter
	framesDropped   prometheus.Counter

	gatherer prometheus.Gatherer
}

// NewCollector creates the metrics and registers them with reg. Tests pass
// prometheus.NewRegistry() to avoid duplicate registration panics.
func NewCollector(reg *prometheus.Registry) *Collector {
	m := &Collector{
		computeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "compute_duration_seconds",
				Help:      "Time spent computing positions for all bodies",
				Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
			},
			[]string{"path"},
		),
		computations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "computations_total",
				Help:      "Total position batches computed",
			},
			[]string{"path"},
		),
		fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fallback_substitutions_total",
				Help:      "Bodies whose precision position failed and was replaced by the fallback model",
			},
			[]string{"body"},
		),
		aspectsPerChart: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "aspects_per_chart",
			Help:      "Number of aspects detected per chart",
			Buckets:   prometheus.LinearBuckets(0, 5, 10),
		}),
		feedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_clients",
			Help:      "Renderers currently connected to the frame feed",
		}),
		framesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_frames_sent_total",
			Help:      "Frames delivered to renderers",
		}),
		framesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_frames_dropped_total",
			Help:      "Frames skipped because a renderer was slow or over its frame budget",
		}),
		gatherer: reg,
	}

	reg.MustRegister(
		m.computeDuration,
		m.computations,
		m.fallbacks,
		m.aspectsPerChart,
		m.feedClients,
		m.framesSent,
		m.framesDropped,
	)

	return m
}

// ObserveCompute implements ephemeris.Recorder.
func (m *Collector) ObserveCompute(path ephemeris.Path, d time.Duration) {
	if m == nil {
		return
	}
	m.computeDuration.WithLabelValues(string(path)).Observe(d.Seconds())
	m.computations.WithLabelValues(string(path)).Inc()
}

// RecordFallback implements ephemeris.Recorder.
func (m *Collector) RecordFallback(b ephemeris.Body) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(b.String()).Inc()
}

func (m *Collector) ObserveAspects(n int) {
	if m == nil {
		return
	}
	m.aspectsPerChart.Observe(float64(n))
}

func (m *Collector) ClientConnected() {
	if m == nil {
		return
	}
	m.feedClients.Inc()
}

func (m *Collector) ClientDisconnected() {
	if m == nil {
		return
	}
	m.feedClients.Dec()
}

func (m *Collector) FrameSent() {
	if m == nil {
		return
	}
	m.framesSent.Inc()
}

func (m *Collector) FrameDropped() {
	if m == nil {
		return
	}
	m.framesDropped.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Collector) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
