package features

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/c-nielson/CS534-Final-Project/internal/infrastructure/monitoring/logging"
	"github.com/c-nielson/CS534-Final-Project/internal/infrastructure/monitoring/prometheus"
	"github.com/c-nielson/CS534-Final-Project/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// FileStatus
// ─────────────────────────────────────────────────────────────────────────────

// FileStatus is the outcome of one file task.
type FileStatus string

const (
	StatusSucceeded FileStatus = "succeeded"
	StatusFailed    FileStatus = "failed"
	StatusSkipped   FileStatus = "skipped"
	StatusCancelled FileStatus = "cancelled"
)

// ─────────────────────────────────────────────────────────────────────────────
// Results
// ─────────────────────────────────────────────────────────────────────────────

// TaskFunc processes one structure file.
type TaskFunc func(ctx context.Context, ref StructureRef) (*FileResult, error)

// FileOutcome is the scheduler's record of one submitted file.
type FileOutcome struct {
	Index    int
	Ref      StructureRef
	Result   *FileResult
	Err      error
	Status   FileStatus
	Duration time.Duration
}

// BatchResult holds one outcome per submitted file, in submission order.
type BatchResult struct {
	Outcomes  []*FileOutcome
	Succeeded int
	Failed    int
	Skipped   int
	Cancelled int
	Duration  time.Duration
}

// Rows concatenates the rows of all succeeded files in submission order.
func (b *BatchResult) Rows() []OutputRow {
	n := 0
	for _, o := range b.Outcomes {
		if o.Result != nil {
			n += len(o.Result.Rows)
		}
	}
	rows := make([]OutputRow, 0, n)
	for _, o := range b.Outcomes {
		if o.Status == StatusSucceeded && o.Result != nil {
			rows = append(rows, o.Result.Rows...)
		}
	}
	return rows
}

// RowFailures concatenates excluded rows in submission order.
func (b *BatchResult) RowFailures() []RowFailure {
	var out []RowFailure
	for _, o := range b.Outcomes {
		if o.Status == StatusSucceeded && o.Result != nil {
			out = append(out, o.Result.RowFailures...)
		}
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Scheduler
// ─────────────────────────────────────────────────────────────────────────────

// Scheduler runs file tasks on a bounded pool.  A task's failure or panic is
// confined to its own outcome; siblings keep running.
type Scheduler struct {
	workers  int
	logger   logging.Logger
	metrics  *prometheus.PipelineMetrics
	progress *ProgressReporter
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

func WithSchedulerLogger(l logging.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithSchedulerMetrics(m *prometheus.PipelineMetrics) SchedulerOption {
	return func(s *Scheduler) { s.metrics = m }
}

// WithProgress reports every finished task to p.
func WithProgress(p *ProgressReporter) SchedulerOption {
	return func(s *Scheduler) { s.progress = p }
}

// NewScheduler returns a scheduler running at most workers tasks at once.
func NewScheduler(workers int, opts ...SchedulerOption) (*Scheduler, error) {
	if workers < 1 {
		return nil, errors.New(errors.ErrCodeInvalidWorkerCount, "worker count must be at least 1").
			WithDetailf("workers=%d", workers)
	}
	s := &Scheduler{workers: workers, logger: logging.NewNopLogger()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Workers returns the concurrency limit.
func (s *Scheduler) Workers() int { return s.workers }

// Run executes fn for every ref and waits for all started tasks.  Outcomes
// are indexed by submission position regardless of completion order.  When
// ctx is cancelled no further task starts; the unstarted files are reported
// as cancelled and Run returns the partial result with a SCHED_003 error.
func (s *Scheduler) Run(ctx context.Context, refs []StructureRef, fn TaskFunc) (*BatchResult, error) {
	start := time.Now()
	res := &BatchResult{Outcomes: make([]*FileOutcome, len(refs))}
	for i, ref := range refs {
		res.Outcomes[i] = &FileOutcome{Index: i, Ref: ref, Status: StatusCancelled}
	}

	var g errgroup.Group
	g.SetLimit(s.workers)

	for i := range refs {
		if ctx.Err() != nil {
			break
		}
		out := res.Outcomes[i]
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			s.execute(ctx, out, fn)
			return nil
		})
	}
	_ = g.Wait()

	for _, o := range res.Outcomes {
		switch o.Status {
		case StatusSucceeded:
			res.Succeeded++
		case StatusFailed:
			res.Failed++
		case StatusSkipped:
			res.Skipped++
		case StatusCancelled:
			res.Cancelled++
		}
	}
	res.Duration = time.Since(start)

	if res.Cancelled > 0 {
		cause := ctx.Err()
		if cause == nil {
			cause = context.Canceled
		}
		return res, errors.New(errors.ErrCodeRunCancelled, "run cancelled before all files completed").
			WithDetailf("cancelled=%d of %d", res.Cancelled, len(refs)).WithCause(cause)
	}
	return res, nil
}

// execute runs one task and fills out.  Each goroutine writes only its own
// outcome slot.
func (s *Scheduler) execute(ctx context.Context, out *FileOutcome, fn TaskFunc) {
	s.metrics.TaskStarted()
	defer s.metrics.TaskFinished()

	timer := s.metrics.TaskTimer()
	result, err := s.call(ctx, out.Ref, fn)

	switch {
	case err != nil:
		if errors.GetCode(err) == errors.CodeUnknown {
			err = errors.Wrap(err, errors.ErrCodeTaskFailed, "file task failed").
				WithDetailf("file=%s", out.Ref.Location)
		}
		out.Status = StatusFailed
		out.Err = err
	case result != nil && result.Skipped:
		out.Status = StatusSkipped
		out.Result = result
	default:
		if result == nil {
			result = &FileResult{Ref: out.Ref}
		}
		out.Status = StatusSucceeded
		out.Result = result
	}
	out.Duration = timer.ObserveDuration(string(out.Status))

	ev := ProgressEvent{File: out.Ref.Location, Status: out.Status, Duration: out.Duration}
	if out.Err != nil {
		ev.Code = errors.RootCode(out.Err).String()
	}
	if out.Result != nil {
		ev.Rows = len(out.Result.Rows)
		ev.Excluded = len(out.Result.RowFailures)
	}
	s.progress.Report(ev)
}

// call invokes fn, converting a panic into a SCHED_002 error.
func (s *Scheduler) call(ctx context.Context, ref StructureRef, fn TaskFunc) (result *FileResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("file task panicked",
				logging.String("file", ref.Location),
				logging.Any("panic", r),
				logging.String("stack", string(debug.Stack())))
			result = nil
			err = errors.New(errors.ErrCodeTaskPanicked, "file task panicked").
				WithDetailf("file=%s: %v", ref.Location, fmt.Sprint(r))
		}
	}()
	return fn(ctx, ref)
}

//Personal.AI order the ending
