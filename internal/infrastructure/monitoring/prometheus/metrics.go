package prometheus

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus/push"
)

// PipelineMetrics holds the feature pipeline's instruments.  Every method is
// safe on a nil receiver so callers can run with metrics disabled.
type PipelineMetrics struct {
	collector MetricsCollector

	FilesTotal       CounterVec
	RowsTotal        CounterVec
	TaskDuration     HistogramVec
	RunDuration      HistogramVec
	WorkersActive    GaugeVec
	CacheRequests    CounterVec
	ProgressDropped  CounterVec
	LastRunTimestamp GaugeVec
}

// Default Buckets
var (
	DefaultTaskDurationBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5}
	DefaultRunDurationBuckets  = []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800, 3600}
)

// NewPipelineMetrics registers the pipeline instruments on collector.
func NewPipelineMetrics(collector MetricsCollector) *PipelineMetrics {
	m := &PipelineMetrics{collector: collector}

	m.FilesTotal = collector.RegisterCounter("files_total", "Structure files processed by outcome", "status")
	m.RowsTotal = collector.RegisterCounter("rows_total", "Pair rows emitted or excluded", "status")
	m.TaskDuration = collector.RegisterHistogram("task_duration_seconds", "Per-file task duration", DefaultTaskDurationBuckets, "status")
	m.RunDuration = collector.RegisterHistogram("run_duration_seconds", "Whole-run duration", DefaultRunDurationBuckets)
	m.WorkersActive = collector.RegisterGauge("workers_active", "Tasks currently executing")
	m.CacheRequests = collector.RegisterCounter("cache_requests_total", "Result cache lookups", "result")
	m.ProgressDropped = collector.RegisterCounter("progress_dropped_total", "Progress events dropped because the buffer was full")
	m.LastRunTimestamp = collector.RegisterGauge("last_run_timestamp_seconds", "Unix time the last run finished")

	return m
}

// CountFile counts one finished file task by status.
func (m *PipelineMetrics) CountFile(status string) {
	if m == nil {
		return
	}
	m.FilesTotal.WithLabelValues(status).Inc()
}

// TaskTimer starts timing a file task.  Stop it with the task's status.
func (m *PipelineMetrics) TaskTimer() *Timer {
	if m == nil {
		return NewTimer(nil)
	}
	return NewTimer(m.TaskDuration)
}

// RunTimer starts timing a run.  Stop it with no label values.
func (m *PipelineMetrics) RunTimer() *Timer {
	if m == nil {
		return NewTimer(nil)
	}
	return NewTimer(m.RunDuration)
}

// AddRows counts emitted and excluded pair rows.
func (m *PipelineMetrics) AddRows(emitted, excluded int) {
	if m == nil {
		return
	}
	if emitted > 0 {
		m.RowsTotal.WithLabelValues("emitted").Add(float64(emitted))
	}
	if excluded > 0 {
		m.RowsTotal.WithLabelValues("excluded").Add(float64(excluded))
	}
}

// CacheResult counts a cache lookup as "hit", "miss" or "error".
func (m *PipelineMetrics) CacheResult(result string) {
	if m == nil {
		return
	}
	m.CacheRequests.WithLabelValues(result).Inc()
}

// TaskStarted and TaskFinished track the number of running tasks.
func (m *PipelineMetrics) TaskStarted() {
	if m == nil {
		return
	}
	m.WorkersActive.WithLabelValues().Inc()
}

func (m *PipelineMetrics) TaskFinished() {
	if m == nil {
		return
	}
	m.WorkersActive.WithLabelValues().Dec()
}

// RunFinished stamps the time the last run finished.
func (m *PipelineMetrics) RunFinished(finished time.Time) {
	if m == nil {
		return
	}
	m.LastRunTimestamp.WithLabelValues().Set(float64(finished.Unix()))
}

func (m *PipelineMetrics) ProgressEventDropped() {
	if m == nil {
		return
	}
	m.ProgressDropped.WithLabelValues().Inc()
}

// Push sends the current values to a Prometheus push gateway.  It is a no-op
// when url is empty.
func (m *PipelineMetrics) Push(ctx context.Context, url, job string) error {
	if m == nil || url == "" {
		return nil
	}
	return push.New(url, job).Gatherer(m.collector.Gatherer()).PushContext(ctx)
}

//Personal.AI order the ending
