package features

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/c-nielson/CS534-Final-Project/internal/domain/molecule"
	"github.com/c-nielson/CS534-Final-Project/internal/domain/pairs"
	"github.com/c-nielson/CS534-Final-Project/internal/infrastructure/monitoring/logging"
	"github.com/c-nielson/CS534-Final-Project/internal/infrastructure/monitoring/prometheus"
	"github.com/c-nielson/CS534-Final-Project/internal/infrastructure/storage"
	"github.com/c-nielson/CS534-Final-Project/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Task inputs and results
// ─────────────────────────────────────────────────────────────────────────────

// StructureRef names one structure file and the molecule it holds.
type StructureRef struct {
	Location   string
	MoleculeID string
}

// NewStructureRef derives the molecule id from the file name.
func NewStructureRef(location string) StructureRef {
	return StructureRef{Location: location, MoleculeID: molecule.IDFromPath(location)}
}

// FileResult is what one file task produced.  Rows and RowFailures are in
// pair-index order.
type FileResult struct {
	Ref         StructureRef
	Rows        []OutputRow
	RowFailures []RowFailure
	Skipped     bool
	CacheHit    bool
}

// ResultCache stores per-file results between runs.  GetOrSet fills dest from
// key, or calls loader once per key across concurrent callers and stores its
// value.  Loader errors are returned unchanged and never stored.
type ResultCache interface {
	GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func(ctx context.Context) (interface{}, error)) error
}

// cachedResult is the cached form of a FileResult.
type cachedResult struct {
	Rows        []OutputRow  `msgpack:"rows"`
	RowFailures []RowFailure `msgpack:"failures"`
}

// ─────────────────────────────────────────────────────────────────────────────
// TaskRunner
// ─────────────────────────────────────────────────────────────────────────────

// TaskRunner computes the feature rows of a single structure file.  It holds
// only read-only collaborators and may be shared by every worker.
type TaskRunner struct {
	store    storage.ObjectStore
	parser   molecule.StructureParser
	ranker   molecule.NeighborRanker
	index    *pairs.Index
	cache    ResultCache
	cacheTTL time.Duration
	metrics  *prometheus.PipelineMetrics
	logger   logging.Logger
}

// TaskRunnerOption configures a TaskRunner.
type TaskRunnerOption func(*TaskRunner)

// WithResultCache enables result caching.  A nil cache leaves it disabled.
func WithResultCache(c ResultCache, ttl time.Duration) TaskRunnerOption {
	return func(t *TaskRunner) {
		t.cache = c
		t.cacheTTL = ttl
	}
}

func WithTaskMetrics(m *prometheus.PipelineMetrics) TaskRunnerOption {
	return func(t *TaskRunner) { t.metrics = m }
}

func WithTaskLogger(l logging.Logger) TaskRunnerOption {
	return func(t *TaskRunner) {
		if l != nil {
			t.logger = l
		}
	}
}

// NewTaskRunner wires a runner over index.
func NewTaskRunner(store storage.ObjectStore, parser molecule.StructureParser, ranker molecule.NeighborRanker, index *pairs.Index, opts ...TaskRunnerOption) *TaskRunner {
	t := &TaskRunner{
		store:  store,
		parser: parser,
		ranker: ranker,
		index:  index,
		logger: logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Run processes one structure file.  A molecule with no pair rows is skipped
// without being read.  Any failure to read or parse the file fails the whole
// task; a pair row the ranker rejects is excluded and recorded while the
// remaining rows continue.
func (t *TaskRunner) Run(ctx context.Context, ref StructureRef) (*FileResult, error) {
	obs := t.index.ForMolecule(ref.MoleculeID)
	if len(obs) == 0 {
		return &FileResult{Ref: ref, Skipped: true}, nil
	}

	data, err := t.read(ctx, ref)
	if err != nil {
		return nil, err
	}

	if t.cache == nil {
		return t.compute(ref, data, obs)
	}
	return t.computeCached(ctx, ref, data, obs)
}

// compute parses the structure and ranks every pair row.
func (t *TaskRunner) compute(ref StructureRef, data []byte, obs []pairs.Observation) (*FileResult, error) {
	mol, err := t.parser.Parse(ref.MoleculeID, bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUnknown, "structure file rejected").
			WithDetailf("file=%s", ref.Location)
	}

	res := &FileResult{Ref: ref, Rows: make([]OutputRow, 0, len(obs))}
	for _, o := range obs {
		rk, err := t.ranker.Rank(mol, o.AtomIndexA, o.AtomIndexB)
		if err != nil {
			if !errors.IsRowLevel(errors.GetCode(err)) {
				return nil, err
			}
			res.RowFailures = append(res.RowFailures, newRowFailure(o, err))
			continue
		}
		res.Rows = append(res.Rows, NewOutputRow(o, rk))
	}
	return res, nil
}

// computeCached serves the file from the result cache, computing it on a
// miss.  Concurrent tasks asking for the same key share one computation.  A
// cache that cannot be read is logged and bypassed.
func (t *TaskRunner) computeCached(ctx context.Context, ref StructureRef, data []byte, obs []pairs.Observation) (*FileResult, error) {
	var (
		computed *FileResult
		loadErr  error
		cached   cachedResult
	)
	err := t.cache.GetOrSet(ctx, t.cacheKey(data, obs), &cached, t.cacheTTL, func(context.Context) (interface{}, error) {
		computed, loadErr = t.compute(ref, data, obs)
		if loadErr != nil {
			return nil, loadErr
		}
		return cachedResult{Rows: computed.Rows, RowFailures: computed.RowFailures}, nil
	})

	switch {
	case computed != nil:
		t.metrics.CacheResult("miss")
		return computed, nil
	case loadErr != nil:
		t.metrics.CacheResult("miss")
		return nil, loadErr
	case err == nil:
		t.metrics.CacheResult("hit")
		return &FileResult{Ref: ref, Rows: cached.Rows, RowFailures: cached.RowFailures, CacheHit: true}, nil
	}

	t.metrics.CacheResult("error")
	t.logger.Warn("result cache lookup failed",
		logging.String("file", ref.Location), logging.Err(err))
	return t.compute(ref, data, obs)
}

func (t *TaskRunner) read(ctx context.Context, ref StructureRef) ([]byte, error) {
	rc, err := t.store.Open(ctx, ref.Location)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.New(errors.ErrCodeStructureNotFound, "structure file not found").
				WithDetailf("file=%s", ref.Location).WithCause(err)
		}
		return nil, errors.New(errors.ErrCodeStructureReadFailed, "failed to open structure file").
			WithDetailf("file=%s", ref.Location).WithCause(err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.New(errors.ErrCodeStructureReadFailed, "failed to read structure file").
			WithDetailf("file=%s", ref.Location).WithCause(err)
	}
	return data, nil
}

// cacheKey covers everything a file's rows depend on: the ranker settings,
// the parser settings, the structure bytes and the molecule's pair rows.
func (t *TaskRunner) cacheKey(data []byte, obs []pairs.Observation) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00", t.parser.CacheTag())
	h.Write(data)
	var buf [8]byte
	for _, o := range obs {
		fmt.Fprintf(h, "\x00%s\x00%s\x00%d\x00%d\x00%s\x00%t\x00", o.RowID, o.MoleculeID, o.AtomIndexA, o.AtomIndexB, o.Category, o.HasTarget)
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(o.Target))
		h.Write(buf[:])
	}
	return fmt.Sprintf("features:%s:k%d:%s", t.ranker.Mode(), t.ranker.K(), hex.EncodeToString(h.Sum(nil)))
}

//Personal.AI order the ending
