package features

import (
	"context"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/c-nielson/CS534-Final-Project/internal/config"
	"github.com/c-nielson/CS534-Final-Project/internal/domain/molecule"
	"github.com/c-nielson/CS534-Final-Project/internal/domain/pairs"
	"github.com/c-nielson/CS534-Final-Project/internal/infrastructure/messaging/kafka"
	"github.com/c-nielson/CS534-Final-Project/internal/infrastructure/monitoring/logging"
	"github.com/c-nielson/CS534-Final-Project/internal/infrastructure/monitoring/prometheus"
	"github.com/c-nielson/CS534-Final-Project/internal/infrastructure/storage"
	"github.com/c-nielson/CS534-Final-Project/pkg/errors"
)

// cacheNamespace prefixes every result cache key written by TaskRunner.
const cacheNamespace = "features:"

// ─────────────────────────────────────────────────────────────────────────────
// Requests and reports
// ─────────────────────────────────────────────────────────────────────────────

// RunRequest describes one batch run.  Locations are local paths or s3://
// URIs.
type RunRequest struct {
	PairIndex       string
	Structures      string
	Output          string
	Summary         string
	Extension       string
	Workers         int
	Neighbors       int
	Mode            molecule.MetricMode
	Delimiter       rune
	RequireTarget   bool
	StrictAtomCount bool
	Timeout         time.Duration
}

// RunRequestFromConfig converts validated pipeline settings.
func RunRequestFromConfig(cfg config.PipelineConfig) (RunRequest, error) {
	mode, err := molecule.ParseMetricMode(cfg.Mode)
	if err != nil {
		return RunRequest{}, err
	}
	delim, _ := utf8.DecodeRuneInString(cfg.Delimiter)
	if cfg.Delimiter == "" {
		delim = ','
	}
	return RunRequest{
		PairIndex:       cfg.PairIndex,
		Structures:      cfg.Structures,
		Output:          cfg.Output,
		Summary:         cfg.Summary,
		Extension:       cfg.Extension,
		Workers:         cfg.Workers,
		Neighbors:       cfg.Neighbors,
		Mode:            mode,
		Delimiter:       delim,
		RequireTarget:   cfg.RequireTarget,
		StrictAtomCount: cfg.StrictAtomCount,
		Timeout:         cfg.Timeout,
	}, nil
}

// RunReport is returned by Service.Run.
type RunReport struct {
	Summary     *Summary `json:"summary"`
	OutputBytes int64    `json:"output_bytes"`
	Output      string   `json:"output"`
}

// RankResult is the outcome of a single-pair ranking.
type RankResult struct {
	MoleculeID string           `json:"molecule" yaml:"molecule"`
	Atoms      int              `json:"atoms" yaml:"atoms"`
	Mode       string           `json:"mode" yaml:"mode"`
	K          int              `json:"neighbors" yaml:"neighbors"`
	AtomA      RankedAtom       `json:"atom_0" yaml:"atom_0"`
	AtomB      RankedAtom       `json:"atom_1" yaml:"atom_1"`
	PairDist   float64          `json:"pair_dist" yaml:"pair_dist"`
	Neighbors  []RankedNeighbor `json:"neighbors_ranked" yaml:"neighbors_ranked"`
}

type RankedAtom struct {
	Index        int    `json:"index" yaml:"index"`
	Symbol       string `json:"symbol" yaml:"symbol"`
	AtomicNumber int    `json:"atomic_number" yaml:"atomic_number"`
}

type RankedNeighbor struct {
	Rank       int `json:"rank" yaml:"rank"`
	RankedAtom `yaml:",inline"`
	Distance   float64 `json:"distance" yaml:"distance"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Service
// ─────────────────────────────────────────────────────────────────────────────

// Service orchestrates feature runs over an object store.
type Service struct {
	store          storage.ObjectStore
	logger         logging.Logger
	elements       molecule.ElementLookup
	cache          ResultCache
	cacheTTL       time.Duration
	metrics        *prometheus.PipelineMetrics
	publisher      EventPublisher
	topic          string
	progressBuffer int

	latest atomic.Pointer[RunReport]
}

// Option configures a Service.
type Option func(*Service)

func WithCache(c ResultCache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

func WithMetrics(m *prometheus.PipelineMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithPublisher sends progress and run-completion events to topic.
func WithPublisher(p EventPublisher, topic string) Option {
	return func(s *Service) {
		s.publisher = p
		s.topic = topic
	}
}

func WithElements(e molecule.ElementLookup) Option {
	return func(s *Service) { s.elements = e }
}

func WithProgressBuffer(n int) Option {
	return func(s *Service) { s.progressBuffer = n }
}

// NewService creates a feature service reading and writing through store.
func NewService(store storage.ObjectStore, logger logging.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &Service{
		store:          store,
		logger:         logger,
		elements:       molecule.StandardElements(),
		progressBuffer: DefaultProgressBuffer,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes one batch: load the pair index, list and process the structure
// files, then write the feature table and the summary.  A cancelled run
// writes its summary but no table, and returns the report with a SCHED_003
// error.
func (s *Service) Run(ctx context.Context, req RunRequest) (*RunReport, error) {
	started := time.Now()
	runTimer := s.metrics.RunTimer()
	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	log := s.logger.WithContext(ctx)

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	ranker, err := molecule.NewRanker(req.Neighbors, req.Mode)
	if err != nil {
		return nil, err
	}
	sched, err := NewScheduler(req.Workers, WithSchedulerLogger(log), WithSchedulerMetrics(s.metrics))
	if err != nil {
		return nil, err
	}

	index, err := s.loadIndex(ctx, req)
	if err != nil {
		return nil, err
	}
	refs, err := s.listStructures(ctx, req)
	if err != nil {
		return nil, err
	}
	log.Info("run started",
		logging.Int("files", len(refs)),
		logging.Int("pair_rows", index.Len()),
		logging.Int("workers", req.Workers),
		logging.Int("neighbors", req.Neighbors),
		logging.String("mode", string(req.Mode)))

	progress := NewProgressReporter(runID, len(refs), s.progressBuffer, s.metrics, s.sinks(log)...)
	WithProgress(progress)(sched)

	runner := NewTaskRunner(s.store,
		molecule.NewXYZParser(s.elements, molecule.WithStrictAtomCount(req.StrictAtomCount)),
		ranker, index,
		WithResultCache(s.cache, s.cacheTTL),
		WithTaskMetrics(s.metrics),
		WithTaskLogger(log))

	batch, runErr := sched.Run(ctx, refs, runner.Run)
	progress.Close()

	summary := NewSummary(runID, started, string(req.Mode), req.Neighbors, req.Workers, index, batch)
	report := &RunReport{Summary: summary, Output: req.Output}

	// The summary is written even for a cancelled run so the partial outcome
	// is inspectable; the feature table is not.
	if runErr == nil {
		n, err := s.writeTable(context.WithoutCancel(ctx), req.Output, req.Neighbors, batch.Rows())
		if err != nil {
			return nil, err
		}
		report.OutputBytes = n
	}
	if req.Summary != "" {
		if err := s.writeSummary(context.WithoutCancel(ctx), req.Summary, summary); err != nil {
			return nil, err
		}
	}

	summary.Log(log)
	runTimer.ObserveDuration()
	s.metrics.RunFinished(summary.FinishedAt)
	s.publishRunCompleted(context.WithoutCancel(ctx), log, summary)
	s.latest.Store(report)

	if runErr != nil {
		return report, runErr
	}
	return report, nil
}

// RankOne ranks the neighbors of a single pair in one structure file.
func (s *Service) RankOne(ctx context.Context, location string, a, b, k int, mode molecule.MetricMode) (*RankResult, error) {
	ranker, err := molecule.NewRanker(k, mode)
	if err != nil {
		return nil, err
	}
	ref := NewStructureRef(location)
	rc, err := s.store.Open(ctx, location)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.New(errors.ErrCodeStructureNotFound, "structure file not found").
				WithDetailf("file=%s", location).WithCause(err)
		}
		return nil, errors.New(errors.ErrCodeStructureReadFailed, "failed to open structure file").
			WithDetailf("file=%s", location).WithCause(err)
	}
	defer rc.Close()

	mol, err := molecule.NewXYZParser(s.elements).Parse(ref.MoleculeID, rc)
	if err != nil {
		return nil, err
	}
	rk, err := ranker.Rank(mol, a, b)
	if err != nil {
		return nil, err
	}

	res := &RankResult{
		MoleculeID: mol.ID(),
		Atoms:      mol.Len(),
		Mode:       string(mode),
		K:          k,
		AtomA:      RankedAtom{Index: rk.AtomA.Index, Symbol: rk.AtomA.Symbol, AtomicNumber: rk.AtomA.AtomicNumber},
		AtomB:      RankedAtom{Index: rk.AtomB.Index, Symbol: rk.AtomB.Symbol, AtomicNumber: rk.AtomB.AtomicNumber},
		PairDist:   rk.PairDistance,
		Neighbors:  make([]RankedNeighbor, len(rk.Neighbors)),
	}
	for i, n := range rk.Neighbors {
		res.Neighbors[i] = RankedNeighbor{
			Rank:       i + 1,
			RankedAtom: RankedAtom{Index: n.Index, Symbol: n.Symbol, AtomicNumber: n.AtomicNumber},
			Distance:   n.Distance,
		}
	}
	return res, nil
}

// LatestReport returns the report of the most recent completed run, or nil.
func (s *Service) LatestReport() *RunReport {
	return s.latest.Load()
}

// PurgeCache drops every cached file result.  It is a no-op when the cache
// cannot delete by prefix.
func (s *Service) PurgeCache(ctx context.Context) (int64, error) {
	p, ok := s.cache.(interface {
		DeleteByPrefix(ctx context.Context, prefix string) (int64, error)
	})
	if !ok {
		return 0, nil
	}
	n, err := p.DeleteByPrefix(ctx, cacheNamespace)
	if err != nil {
		return n, errors.Wrap(err, errors.ErrCodeCacheError, "failed to purge result cache")
	}
	s.logger.Info("result cache purged", logging.Int64("keys", n))
	return n, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Run steps
// ─────────────────────────────────────────────────────────────────────────────

func (s *Service) loadIndex(ctx context.Context, req RunRequest) (*pairs.Index, error) {
	rc, err := s.store.Open(ctx, req.PairIndex)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodePairIndexParseFailed, "failed to open pair index").
			WithDetailf("location=%s", req.PairIndex)
	}
	defer rc.Close()

	index, err := pairs.Load(rc, pairs.LoadOptions{RequireTarget: req.RequireTarget, Comma: req.Delimiter})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUnknown, "pair index rejected").
			WithDetailf("location=%s", req.PairIndex)
	}
	return index, nil
}

func (s *Service) listStructures(ctx context.Context, req RunRequest) ([]StructureRef, error) {
	ext := req.Extension
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	locs, err := s.store.List(ctx, req.Structures, ext)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUnknown, "failed to list structure files").
			WithDetailf("location=%s", req.Structures)
	}
	refs := make([]StructureRef, len(locs))
	for i, l := range locs {
		refs[i] = NewStructureRef(l)
	}
	return refs, nil
}

func (s *Service) writeTable(ctx context.Context, location string, k int, rows []OutputRow) (int64, error) {
	w, err := s.store.Create(ctx, location)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeOutputWriteFailed, "failed to create feature output").
			WithDetailf("location=%s", location)
	}
	n, err := WriteCSV(w, k, rows)
	if err != nil {
		_ = w.Abort()
		return n, err
	}
	if err := w.Commit(); err != nil {
		return n, errors.Wrap(err, errors.ErrCodeOutputWriteFailed, "failed to commit feature output").
			WithDetailf("location=%s", location)
	}
	return n, nil
}

func (s *Service) writeSummary(ctx context.Context, location string, summary *Summary) error {
	w, err := s.store.Create(ctx, location)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeOutputWriteFailed, "failed to create run summary").
			WithDetailf("location=%s", location)
	}
	if err := summary.WriteYAML(w); err != nil {
		_ = w.Abort()
		return err
	}
	if err := w.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrCodeOutputWriteFailed, "failed to commit run summary").
			WithDetailf("location=%s", location)
	}
	return nil
}

func (s *Service) sinks(log logging.Logger) []ProgressSink {
	sinks := []ProgressSink{LogSink{Logger: log}}
	if s.metrics != nil {
		sinks = append(sinks, MetricsSink{Metrics: s.metrics})
	}
	if s.publisher != nil {
		sinks = append(sinks, KafkaSink{Publisher: s.publisher, Topic: s.topic, Logger: log})
	}
	return sinks
}

func (s *Service) publishRunCompleted(ctx context.Context, log logging.Logger, summary *Summary) {
	if s.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	payload := struct {
		RunID     string     `json:"run_id"`
		Files     FileCounts `json:"files"`
		Rows      RowCounts  `json:"rows"`
		Cancelled bool       `json:"cancelled"`
	}{summary.RunID, summary.Files, summary.Rows, summary.Cancelled}
	if err := s.publisher.PublishEvent(ctx, s.topic, summary.RunID, kafka.EventRunCompleted, payload); err != nil {
		log.Warn("run completion event not published", logging.Err(err))
	}
}

//Personal.AI order the ending
