package prometheus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPipelineMetrics(t *testing.T) (*PipelineMetrics, MetricsCollector) {
	c := newTestCollector(t)
	return NewPipelineMetrics(c), c
}

func TestPipelineMetrics_CountFile(t *testing.T) {
	m, c := newTestPipelineMetrics(t)
	m.CountFile("succeeded")
	m.CountFile("succeeded")
	m.CountFile("failed")

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, `test_unit_files_total{status="succeeded"} 2`)
	assert.Contains(t, out, `test_unit_files_total{status="failed"} 1`)
}

func TestPipelineMetrics_TaskTimerLabelsByStatus(t *testing.T) {
	m, c := newTestPipelineMetrics(t)
	for _, status := range []string{"succeeded", "succeeded", "failed"} {
		timer := m.TaskTimer()
		time.Sleep(time.Millisecond)
		assert.GreaterOrEqual(t, timer.ObserveDuration(status), time.Millisecond)
	}

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, `test_unit_task_duration_seconds_count{status="succeeded"} 2`)
	assert.Contains(t, out, `test_unit_task_duration_seconds_count{status="failed"} 1`)
}

func TestPipelineMetrics_AddRows(t *testing.T) {
	m, c := newTestPipelineMetrics(t)
	m.AddRows(7, 0)
	m.AddRows(3, 2)

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, `test_unit_rows_total{status="emitted"} 10`)
	assert.Contains(t, out, `test_unit_rows_total{status="excluded"} 2`)
}

func TestPipelineMetrics_WorkersAndCache(t *testing.T) {
	m, c := newTestPipelineMetrics(t)
	m.TaskStarted()
	m.TaskStarted()
	m.TaskFinished()
	m.CacheResult("hit")
	m.ProgressEventDropped()

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, "test_unit_workers_active 1")
	assert.Contains(t, out, `test_unit_cache_requests_total{result="hit"} 1`)
	assert.Contains(t, out, "test_unit_progress_dropped_total 1")
}

func TestPipelineMetrics_RunTimerAndFinish(t *testing.T) {
	m, c := newTestPipelineMetrics(t)
	m.RunTimer().ObserveDuration()
	m.RunFinished(time.Unix(1700000000, 0))

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, "test_unit_run_duration_seconds_count 1")
	assert.Contains(t, out, "test_unit_last_run_timestamp_seconds 1.7e+09")
}

func TestPipelineMetrics_NilReceiver(t *testing.T) {
	var m *PipelineMetrics
	assert.NotPanics(t, func() {
		m.CountFile("failed")
		m.TaskTimer().ObserveDuration("failed")
		m.RunTimer().ObserveDuration()
		m.AddRows(1, 1)
		m.CacheResult("miss")
		m.TaskStarted()
		m.TaskFinished()
		m.RunFinished(time.Now())
		m.ProgressEventDropped()
	})
	assert.NoError(t, m.Push(context.Background(), "http://unused", "job"))
}

func TestPipelineMetrics_Push(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m, _ := newTestPipelineMetrics(t)
	m.CountFile("succeeded")

	require.NoError(t, m.Push(context.Background(), srv.URL, "nbfeat"))
	assert.Equal(t, "/metrics/job/nbfeat", gotPath)
}

func TestPipelineMetrics_PushDisabled(t *testing.T) {
	m, _ := newTestPipelineMetrics(t)
	assert.NoError(t, m.Push(context.Background(), "", "nbfeat"))
}
