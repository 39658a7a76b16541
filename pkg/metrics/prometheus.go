// Package metrics records frame computation metrics with Prometheus.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/raterudder/powerflow/pkg/engine"
	"github.com/raterudder/powerflow/pkg/types"
)

// Recorder implements engine.Observer using Prometheus.
type Recorder struct {
	registry *prometheus.Registry

	framesTotal      *prometheus.CounterVec
	diagnosticsTotal *prometheus.CounterVec
	sourceErrors     *prometheus.CounterVec
	latency          prometheus.Histogram
}

// New creates a new Prometheus metrics recorder with its own registry, which
// also carries the Go runtime and process collectors.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Recorder{
		registry: reg,
		framesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "powerflow_frames_total",
				Help: "Total number of frames computed by result",
			},
			[]string{"result"},
		),
		diagnosticsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "powerflow_diagnostics_total",
				Help: "Total number of frame diagnostics by kind",
			},
			[]string{"kind"},
		),
		sourceErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "powerflow_source_errors_total",
				Help: "Total number of errors reading from the state source",
			},
			[]string{"operation"},
		),
		latency: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "powerflow_frame_duration_seconds",
				Help:    "Duration of frame computation in seconds",
				Buckets: []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1},
			},
		),
	}
}

// ObserveFrame implements engine.Observer.
func (r *Recorder) ObserveFrame(d time.Duration, diags []types.Diagnostic, err error) {
	switch {
	case err == nil:
		r.framesTotal.WithLabelValues("ok").Inc()
	case errors.Is(err, engine.ErrNoData):
		r.framesTotal.WithLabelValues("no_data").Inc()
	default:
		r.framesTotal.WithLabelValues("error").Inc()
	}
	for _, diag := range diags {
		r.diagnosticsTotal.WithLabelValues(string(diag.Kind)).Inc()
	}
	r.latency.Observe(d.Seconds())
}

// RecordSourceError records a failed read from the state source.
func (r *Recorder) RecordSourceError(operation string) {
	r.sourceErrors.WithLabelValues(operation).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
