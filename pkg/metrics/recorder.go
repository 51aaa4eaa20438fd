// Package metrics exports resolver activity as Prometheus metrics.
package metrics

import (
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	augment "github.com/goliatone/go-augment"
)

const (
	ResultHit   = "hit"
	ResultMiss  = "miss"
	ResultError = "error"

	layerNone = "none"
)

// Recorder implements augment.ResolutionLogger and augment.EvaluatorLogger.
// Origin layers are reported as a single "origin" label so record IDs never
// become label values.
type Recorder struct {
	resolutions *prometheus.CounterVec
	durations   *prometheus.HistogramVec
	evaluations *prometheus.CounterVec
	evalTime    *prometheus.HistogramVec
}

// Option configures a Recorder.
type Option func(*recorderConfig)

type recorderConfig struct {
	namespace string
	buckets   []float64
}

// WithNamespace overrides the metric namespace. Defaults to "augment".
func WithNamespace(namespace string) Option {
	return func(cfg *recorderConfig) {
		if namespace != "" {
			cfg.namespace = namespace
		}
	}
}

// WithBuckets overrides the duration histogram buckets, in seconds.
func WithBuckets(buckets ...float64) Option {
	return func(cfg *recorderConfig) {
		if len(buckets) > 0 {
			cfg.buckets = append([]float64(nil), buckets...)
		}
	}
}

// NewRecorder creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewRecorder(reg prometheus.Registerer, opts ...Option) (*Recorder, error) {
	cfg := recorderConfig{
		namespace: "augment",
		buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	r := &Recorder{
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.namespace,
			Name:      "resolutions_total",
			Help:      "Key resolutions by winning layer and result.",
		}, []string{"layer", "result"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.namespace,
			Name:      "resolution_duration_seconds",
			Help:      "Time spent resolving one key.",
			Buckets:   cfg.buckets,
		}, []string{"layer"}),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.namespace,
			Name:      "formula_evaluations_total",
			Help:      "Formula evaluations by engine and result.",
		}, []string{"engine", "result"}),
		evalTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.namespace,
			Name:      "formula_duration_seconds",
			Help:      "Time spent evaluating one formula.",
			Buckets:   cfg.buckets,
		}, []string{"engine"}),
	}

	if reg != nil {
		for _, c := range r.collectors() {
			if err := reg.Register(c); err != nil {
				return nil, fmt.Errorf("metrics: register: %w", err)
			}
		}
	}
	return r, nil
}

func (r *Recorder) collectors() []prometheus.Collector {
	return []prometheus.Collector{r.resolutions, r.durations, r.evaluations, r.evalTime}
}

// Describe implements prometheus.Collector.
func (r *Recorder) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range r.collectors() {
		c.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (r *Recorder) Collect(ch chan<- prometheus.Metric) {
	for _, c := range r.collectors() {
		c.Collect(ch)
	}
}

// LogResolution implements augment.ResolutionLogger.
func (r *Recorder) LogResolution(event augment.ResolutionLogEvent) {
	layer := LayerLabel(event.Layer)
	result := ResultMiss
	switch {
	case event.Err != nil:
		result = ResultError
	case event.Found:
		result = ResultHit
	}
	r.resolutions.WithLabelValues(layer, result).Inc()
	r.durations.WithLabelValues(layer).Observe(event.Duration.Seconds())
}

// LogEvaluation implements augment.EvaluatorLogger.
func (r *Recorder) LogEvaluation(event augment.EvaluatorLogEvent) {
	engine := event.Engine
	if engine == "" {
		engine = augment.EngineExpr
	}
	result := ResultHit
	if event.Err != nil {
		result = ResultError
	}
	r.evaluations.WithLabelValues(engine, result).Inc()
	r.evalTime.WithLabelValues(engine).Observe(event.Duration.Seconds())
}

// LayerLabel maps a layer name to its metric label.
func LayerLabel(layer string) string {
	switch {
	case layer == "":
		return layerNone
	case strings.HasPrefix(layer, augment.ScopeOrigin+":"):
		return augment.ScopeOrigin
	default:
		return layer
	}
}

var (
	_ augment.ResolutionLogger = (*Recorder)(nil)
	_ augment.EvaluatorLogger  = (*Recorder)(nil)
	_ prometheus.Collector     = (*Recorder)(nil)
)
