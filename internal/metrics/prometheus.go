package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the transcription pipeline.
type Metrics struct {
	// Segmentation metrics
	SegmentsPlanned prometheus.Counter
	SegmentDuration prometheus.Histogram
	SegmentSize     prometheus.Histogram

	// Stage execution metrics
	StageRequests  *prometheus.CounterVec
	StageSuccesses *prometheus.CounterVec
	StageFailures  *prometheus.CounterVec
	StageDuration  *prometheus.HistogramVec
	CheckpointHits *prometheus.CounterVec

	// Quota metrics
	TokensRecorded *prometheus.CounterVec

	// Run metrics
	RunsStarted   prometheus.Counter
	RunsCompleted prometheus.Counter
	RunsFailed    prometheus.Counter
	RunDuration   prometheus.Histogram

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		SegmentsPlanned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "transcriber_segments_planned_total",
			Help: "Total number of audio segments planned",
		}),
		SegmentDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "transcriber_segment_duration_seconds",
			Help:    "Duration of planned audio segments",
			Buckets: prometheus.ExponentialBuckets(30, 2, 8), // 30s to ~1 hour
		}),
		SegmentSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "transcriber_segment_size_bytes",
			Help:    "Encoded size of audio segments in bytes",
			Buckets: prometheus.ExponentialBuckets(64*1024, 2, 10), // 64KB to ~64MB
		}),

		StageRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "transcriber_stage_requests_total",
			Help: "Total number of remote stage calls issued",
		}, []string{"stage"}),
		StageSuccesses: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "transcriber_stage_successes_total",
			Help: "Total number of successful remote stage calls",
		}, []string{"stage"}),
		StageFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "transcriber_stage_failures_total",
			Help: "Total number of remote stage calls failed after all retries",
		}, []string{"stage"}),
		StageDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "transcriber_stage_duration_seconds",
			Help:    "Duration of remote stage calls",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s to ~8 minutes
		}, []string{"stage"}),
		CheckpointHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "transcriber_checkpoint_hits_total",
			Help: "Total number of stages skipped via existing checkpoint artifacts",
		}, []string{"stage"}),

		TokensRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "transcriber_tokens_recorded_total",
			Help: "Total estimated tokens recorded into the quota ledger",
		}, []string{"account"}),

		RunsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "transcriber_runs_started_total",
			Help: "Total number of pipeline runs started",
		}),
		RunsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "transcriber_runs_completed_total",
			Help: "Total number of pipeline runs completed",
		}),
		RunsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "transcriber_runs_failed_total",
			Help: "Total number of pipeline runs aborted by a fatal error",
		}),
		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "transcriber_run_duration_seconds",
			Help:    "Wall-clock duration of pipeline runs",
			Buckets: prometheus.ExponentialBuckets(10, 2, 12), // 10s to ~11 hours
		}),

		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "transcriber_http_requests_total",
			Help: "Total number of HTTP API requests",
		}, []string{"method", "endpoint", "status"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "transcriber_http_request_duration_seconds",
			Help:    "Duration of HTTP API requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
	}
}

// RecordSegmentPlanned records one planned segment.
func (m *Metrics) RecordSegmentPlanned(durationSeconds float64, sizeBytes int) {
	m.SegmentsPlanned.Inc()
	m.SegmentDuration.Observe(durationSeconds)
	m.SegmentSize.Observe(float64(sizeBytes))
}

// RecordStageRequest increments the stage request counter.
func (m *Metrics) RecordStageRequest(stage string) {
	m.StageRequests.WithLabelValues(stage).Inc()
}

// RecordStageSuccess records a successful stage call.
func (m *Metrics) RecordStageSuccess(stage string, durationSeconds float64) {
	m.StageSuccesses.WithLabelValues(stage).Inc()
	m.StageDuration.WithLabelValues(stage).Observe(durationSeconds)
}

// RecordStageFailure records a stage call that failed after all retries.
func (m *Metrics) RecordStageFailure(stage string, durationSeconds float64) {
	m.StageFailures.WithLabelValues(stage).Inc()
	m.StageDuration.WithLabelValues(stage).Observe(durationSeconds)
}

// RecordCheckpointHit records a stage skipped via an existing artifact.
func (m *Metrics) RecordCheckpointHit(stage string) {
	m.CheckpointHits.WithLabelValues(stage).Inc()
}

// RecordTokens records estimated tokens charged to an account.
func (m *Metrics) RecordTokens(account string, tokens int64) {
	m.TokensRecorded.WithLabelValues(account).Add(float64(tokens))
}

// RecordRunStarted increments the runs started counter.
func (m *Metrics) RecordRunStarted() {
	m.RunsStarted.Inc()
}

// RecordRunCompleted records a successful run.
func (m *Metrics) RecordRunCompleted(durationSeconds float64) {
	m.RunsCompleted.Inc()
	m.RunDuration.Observe(durationSeconds)
}

// RecordRunFailed records an aborted run.
func (m *Metrics) RecordRunFailed(durationSeconds float64) {
	m.RunsFailed.Inc()
	m.RunDuration.Observe(durationSeconds)
}

// RecordHTTPRequest records one HTTP API request.
func (m *Metrics) RecordHTTPRequest(method, endpoint, status string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}
