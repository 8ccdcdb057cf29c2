package features

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c-nielson/CS534-Final-Project/internal/infrastructure/messaging/kafka"
	"github.com/c-nielson/CS534-Final-Project/internal/infrastructure/monitoring/logging"
	"github.com/c-nielson/CS534-Final-Project/internal/infrastructure/monitoring/prometheus"
)

// DefaultProgressBuffer is the event queue length of a ProgressReporter.
const DefaultProgressBuffer = 1024

// ProgressEvent reports one finished file task.
type ProgressEvent struct {
	RunID    string        `json:"run_id"`
	Done     int           `json:"done"`
	Total    int           `json:"total"`
	File     string        `json:"file"`
	Status   FileStatus    `json:"status"`
	Code     string        `json:"code,omitempty"`
	Rows     int           `json:"rows"`
	Excluded int           `json:"excluded"`
	Duration time.Duration `json:"duration_ns"`
}

// ProgressSink consumes progress events.  Handle is called from a single
// goroutine, in the order events were accepted.
type ProgressSink interface {
	Handle(ctx context.Context, ev ProgressEvent)
}

// ProgressReporter counts finished tasks and forwards events to its sinks
// from a background goroutine.  Report never blocks: when the queue is full
// the event is dropped and counted.
type ProgressReporter struct {
	runID   string
	total   int
	done    atomic.Int64
	dropped atomic.Int64
	events  chan ProgressEvent
	sinks   []ProgressSink
	metrics *prometheus.PipelineMetrics

	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewProgressReporter starts the consumer goroutine.  Close must be called
// to stop it.
func NewProgressReporter(runID string, total, buffer int, metrics *prometheus.PipelineMetrics, sinks ...ProgressSink) *ProgressReporter {
	if buffer < 1 {
		buffer = DefaultProgressBuffer
	}
	p := &ProgressReporter{
		runID:   runID,
		total:   total,
		events:  make(chan ProgressEvent, buffer),
		sinks:   sinks,
		metrics: metrics,
	}
	p.wg.Add(1)
	go p.consume()
	return p
}

// Report records a finished task and queues its event.
func (p *ProgressReporter) Report(ev ProgressEvent) {
	if p == nil {
		return
	}
	ev.RunID = p.runID
	ev.Total = p.total
	ev.Done = int(p.done.Add(1))
	select {
	case p.events <- ev:
	default:
		p.dropped.Add(1)
		p.metrics.ProgressEventDropped()
	}
}

// Done returns how many tasks have finished.
func (p *ProgressReporter) Done() int { return int(p.done.Load()) }

// Dropped returns how many events were discarded.
func (p *ProgressReporter) Dropped() int64 { return p.dropped.Load() }

// Close drains queued events and waits for the consumer to exit.  Report must
// not be called after Close.
func (p *ProgressReporter) Close() {
	if p == nil {
		return
	}
	p.closeOnce.Do(func() {
		close(p.events)
		p.wg.Wait()
	})
}

func (p *ProgressReporter) consume() {
	defer p.wg.Done()
	ctx := context.Background()
	for ev := range p.events {
		for _, s := range p.sinks {
			s.Handle(ctx, ev)
		}
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Sinks
// ─────────────────────────────────────────────────────────────────────────────

// LogSink writes "file i of n" lines.
type LogSink struct {
	Logger logging.Logger
}

func (s LogSink) Handle(_ context.Context, ev ProgressEvent) {
	fields := []logging.Field{
		logging.String("run_id", ev.RunID),
		logging.Int("done", ev.Done),
		logging.Int("total", ev.Total),
		logging.String("file", ev.File),
		logging.String("status", string(ev.Status)),
		logging.Int("rows", ev.Rows),
	}
	if ev.Code != "" {
		fields = append(fields, logging.String("code", ev.Code))
	}
	if ev.Status == StatusFailed {
		s.Logger.Warn("file task failed", fields...)
		return
	}
	s.Logger.Info("file task finished", fields...)
}

// MetricsSink feeds the per-file and per-row counters.
type MetricsSink struct {
	Metrics *prometheus.PipelineMetrics
}

func (s MetricsSink) Handle(_ context.Context, ev ProgressEvent) {
	s.Metrics.CountFile(string(ev.Status))
	s.Metrics.AddRows(ev.Rows, ev.Excluded)
}

// EventPublisher is the subset of kafka.Producer the pipeline needs.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key, eventType string, payload interface{}) error
	PublishEventAsync(ctx context.Context, topic, key, eventType string, payload interface{}) error
}

// KafkaSink publishes each event to Topic keyed by run id without waiting
// for the broker.  Write failures surface through the producer's async error
// handler; envelope failures are logged here.
type KafkaSink struct {
	Publisher EventPublisher
	Topic     string
	Logger    logging.Logger
}

func (s KafkaSink) Handle(ctx context.Context, ev ProgressEvent) {
	if err := s.Publisher.PublishEventAsync(ctx, s.Topic, ev.RunID, kafka.EventFileCompleted, ev); err != nil && s.Logger != nil {
		s.Logger.Warn("progress event not published",
			logging.String("file", ev.File), logging.Err(err))
	}
}

var (
	_ ProgressSink   = LogSink{}
	_ ProgressSink   = MetricsSink{}
	_ ProgressSink   = KafkaSink{}
	_ EventPublisher = (*kafka.Producer)(nil)
)

//Personal.AI order the ending
