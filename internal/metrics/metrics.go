// Package metrics exposes the frame loop and spell counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "exoform"

// Detection results recorded by ObserveDetection.
const (
	DetectionHand  = "hand"
	DetectionNone  = "none"
	DetectionError = "error"
)

// Metrics holds every collector the application records into.
type Metrics struct {
	registry *prometheus.Registry

	Ticks            prometheus.Counter
	TickDuration     prometheus.Histogram
	FPS              prometheus.Gauge
	Transition       prometheus.Gauge
	Detections       *prometheus.CounterVec
	DegenerateFrames prometheus.Counter
	Spells           *prometheus.CounterVec
	State            *prometheus.GaugeVec
}

// New creates the collectors and registers them on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Animation ticks executed.",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Wall time spent in one animation tick.",
			Buckets:   []float64{.0005, .001, .002, .004, .008, .016, .033, .066},
		}),
		FPS: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fps",
			Help:      "Frames rendered in the last one second window.",
		}),
		Transition: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "transition",
			Help:      "Blend between scattered (0) and formed (1).",
		}),
		Detections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detections_total",
			Help:      "Hand detection runs by result.",
		}, []string{"result"}),
		DegenerateFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degenerate_frames_total",
			Help:      "Frames whose palm geometry could not produce an orientation.",
		}),
		Spells: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spells_total",
			Help:      "Resolved spell records by outcome.",
		}, []string{"outcome"}),
		State: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "app_state",
			Help:      "1 for the current application state, 0 otherwise.",
		}, []string{"state"}),
	}

	m.registry.MustRegister(
		m.Ticks, m.TickDuration, m.FPS, m.Transition,
		m.Detections, m.DegenerateFrames, m.Spells, m.State,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveDetection counts one detection run.
func (m *Metrics) ObserveDetection(result string) {
	if m == nil {
		return
	}
	m.Detections.WithLabelValues(result).Inc()
}

// ObserveSpell counts one resolved record.
func (m *Metrics) ObserveSpell(fallback bool) {
	if m == nil {
		return
	}
	outcome := "record"
	if fallback {
		outcome = "fallback"
	}
	m.Spells.WithLabelValues(outcome).Inc()
}

// SetState marks current as the active state among all.
func (m *Metrics) SetState(current string, all ...string) {
	if m == nil {
		return
	}
	for _, s := range all {
		v := 0.0
		if s == current {
			v = 1
		}
		m.State.WithLabelValues(s).Set(v)
	}
}
