// Package metrics exposes Prometheus metrics for the translation service.
// All methods are safe to call on a nil *Metrics.
package metrics

import (
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/satriahrh/voxlate/internal/workdir"
)

// Metrics contains all Prometheus metrics for the service
type Metrics struct {
	registry *prometheus.Registry

	// Pipeline metrics
	PipelineRuns     *prometheus.CounterVec
	StageDuration    *prometheus.HistogramVec
	SegmentsPerRun   prometheus.Histogram
	SynthesizedAudio prometheus.Histogram

	// Working directory metrics
	SweepDeleted *prometheus.CounterVec
	SweepFailed  *prometheus.CounterVec
	WorkingFiles *prometheus.GaugeVec

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates all metrics on a private registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		PipelineRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "voxlate_pipeline_runs_total",
			Help: "Total number of translation runs by outcome",
		}, []string{"outcome"}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "voxlate_stage_duration_seconds",
			Help:    "Time spent in each pipeline stage",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14), // 10ms to ~80s
		}, []string{"stage"}),
		SegmentsPerRun: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "voxlate_segments_per_run",
			Help:    "Number of synthesis segments per run",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		}),
		SynthesizedAudio: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "voxlate_synthesized_audio_seconds",
			Help:    "Duration of the assembled output audio",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),

		SweepDeleted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "voxlate_sweep_deleted_total",
			Help: "Working files deleted by sweeps",
		}, []string{"dir"}),
		SweepFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "voxlate_sweep_failed_total",
			Help: "Working file deletions that failed during sweeps",
		}, []string{"dir"}),
		WorkingFiles: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "voxlate_working_files",
			Help: "Files kept in a working directory after the last sweep",
		}, []string{"dir"}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "voxlate_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "voxlate_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Registry returns the registry holding every metric
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordStage records how long a pipeline stage took
func (m *Metrics) RecordStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordRun records the outcome of a run; segments and audio are only
// observed for successful runs
func (m *Metrics) RecordRun(outcome string, segments int, audio time.Duration) {
	if m == nil {
		return
	}
	m.PipelineRuns.WithLabelValues(outcome).Inc()
	if outcome == "success" {
		m.SegmentsPerRun.Observe(float64(segments))
		m.SynthesizedAudio.Observe(audio.Seconds())
	}
}

// RecordSweep implements workdir.SweepRecorder
func (m *Metrics) RecordSweep(dir string, report workdir.SweepReport) {
	if m == nil {
		return
	}
	label := filepath.Base(dir)
	m.SweepDeleted.WithLabelValues(label).Add(float64(report.Deleted))
	m.SweepFailed.WithLabelValues(label).Add(float64(report.Failed))
	m.WorkingFiles.WithLabelValues(label).Set(float64(report.Kept))
}

// RecordHTTPRequest records one served request
func (m *Metrics) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var _ workdir.SweepRecorder = (*Metrics)(nil)
