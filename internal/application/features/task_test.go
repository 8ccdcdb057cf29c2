package features

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c-nielson/CS534-Final-Project/internal/domain/molecule"
	"github.com/c-nielson/CS534-Final-Project/internal/domain/pairs"
	"github.com/c-nielson/CS534-Final-Project/internal/infrastructure/database/redis"
	"github.com/c-nielson/CS534-Final-Project/internal/infrastructure/monitoring/logging"
	"github.com/c-nielson/CS534-Final-Project/internal/infrastructure/storage/local"
	"github.com/c-nielson/CS534-Final-Project/internal/testutil"
	"github.com/c-nielson/CS534-Final-Project/pkg/errors"
)

func newTestRunner(t *testing.T, index *pairs.Index, opts ...TaskRunnerOption) *TaskRunner {
	t.Helper()
	ranker, err := molecule.NewRanker(molecule.DefaultNeighborCount, molecule.ModeMassWeighted)
	require.NoError(t, err)
	return NewTaskRunner(local.New(), molecule.NewXYZParser(nil), ranker, index, opts...)
}

func chhoIndex() *pairs.Index {
	return pairs.NewIndex([]pairs.Observation{
		{RowID: "0", MoleculeID: "chho", AtomIndexA: 0, AtomIndexB: 1, Category: "1JHC", Target: 84.8, HasTarget: true},
		{RowID: "1", MoleculeID: "chho", AtomIndexA: 0, AtomIndexB: 9, Category: "1JHC"},
		{RowID: "2", MoleculeID: "chho", AtomIndexA: 1, AtomIndexB: 2, Category: "2JHH", Target: -11.2, HasTarget: true},
	})
}

func TestTaskRunner_HandReference(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteXYZ(t, dir, "chho", testutil.CHHO)

	res, err := newTestRunner(t, chhoIndex()).Run(context.Background(), NewStructureRef(path))
	require.NoError(t, err)

	require.Len(t, res.Rows, 2)
	first := res.Rows[0]
	assert.Equal(t, "0", first.RowID)
	assert.Equal(t, "C", first.SymbolA)
	assert.Equal(t, "H", first.SymbolB)
	assert.InDelta(t, 1.0, first.PairDistance, 1e-12)
	require.Len(t, first.Neighbors, 2)
	assert.Equal(t, "O", first.Neighbors[0].Symbol)
	assert.InDelta(t, 0.2900673977604097, first.Neighbors[0].Distance, 1e-12)
	assert.Equal(t, "H", first.Neighbors[1].Symbol)
	assert.InDelta(t, 0.86850442600468, first.Neighbors[1].Distance, 1e-12)

	// The out-of-range row is excluded and its sibling kept.
	assert.Equal(t, "2", res.Rows[1].RowID)
	require.Len(t, res.RowFailures, 1)
	assert.Equal(t, "1", res.RowFailures[0].RowID)
	assert.Equal(t, "PAIR_001", res.RowFailures[0].Code)
	assert.Equal(t, "IndexRangeError", res.RowFailures[0].Category)
}

func TestTaskRunner_SkipsUnreferencedMolecule(t *testing.T) {
	// The file is never opened, so it need not exist.
	res, err := newTestRunner(t, chhoIndex()).Run(context.Background(), NewStructureRef("/nowhere/other.xyz"))
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Empty(t, res.Rows)
}

func TestTaskRunner_MissingFile(t *testing.T) {
	ref := NewStructureRef(filepath.Join(t.TempDir(), "chho.xyz"))
	_, err := newTestRunner(t, chhoIndex()).Run(context.Background(), ref)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeStructureNotFound, errors.GetCode(err))
}

func TestTaskRunner_UnknownSymbolFailsFile(t *testing.T) {
	path := testutil.WriteXYZ(t, t.TempDir(), "chho", []testutil.XYZAtom{
		{Symbol: "C"}, {Symbol: "H", X: 1}, {Symbol: "Xx", Y: 1},
	})
	_, err := newTestRunner(t, chhoIndex()).Run(context.Background(), NewStructureRef(path))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeElementUnknown, errors.RootCode(err))
	assert.True(t, errors.IsCategory(err, errors.CategoryLookup))
	assert.Contains(t, err.Error(), path)
}

func TestTaskRunner_MalformedFile(t *testing.T) {
	path := testutil.WriteFile(t, filepath.Join(t.TempDir(), "chho.xyz"), "2\n\nC 0 0\nH 1 0 0\n")
	_, err := newTestRunner(t, chhoIndex()).Run(context.Background(), NewStructureRef(path))
	assert.True(t, errors.IsCode(err, errors.ErrCodeStructureParseFailed))
	assert.True(t, errors.IsCategory(err, errors.CategoryParse))
}

func TestTaskRunner_CacheHit(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := redis.NewClient(&redis.RedisConfig{Addr: mr.Addr()}, logging.NewNopLogger())
	require.NoError(t, err)
	defer client.Close()
	cache := redis.NewRedisCache(client, nil, redis.WithPrefix("t:"))

	path := testutil.WriteXYZ(t, t.TempDir(), "chho", testutil.CHHO)
	runner := newTestRunner(t, chhoIndex(), WithResultCache(cache, time.Hour))

	cold, err := runner.Run(context.Background(), NewStructureRef(path))
	require.NoError(t, err)
	assert.False(t, cold.CacheHit)

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Regexp(t, `^t:features:mass-weighted:k10:[0-9a-f]{64}$`, keys[0])

	warm, err := runner.Run(context.Background(), NewStructureRef(path))
	require.NoError(t, err)
	assert.True(t, warm.CacheHit)
	assert.Equal(t, cold.Rows, warm.Rows)
	assert.Equal(t, cold.RowFailures, warm.RowFailures)
}

func TestTaskRunner_CacheKeyDependsOnInputs(t *testing.T) {
	runner := newTestRunner(t, chhoIndex())
	obs := chhoIndex().ForMolecule("chho")

	base := runner.cacheKey([]byte("data"), obs)
	assert.Equal(t, base, runner.cacheKey([]byte("data"), obs))
	assert.NotEqual(t, base, runner.cacheKey([]byte("data2"), obs))

	changed := append([]pairs.Observation(nil), obs...)
	changed[0].Target = 1
	assert.NotEqual(t, base, runner.cacheKey([]byte("data"), changed))
}

func TestTaskRunner_CacheKeyFollowsParserSettings(t *testing.T) {
	ranker, err := molecule.NewRanker(molecule.DefaultNeighborCount, molecule.ModeMassWeighted)
	require.NoError(t, err)
	obs := chhoIndex().ForMolecule("chho")

	lenient := NewTaskRunner(local.New(), molecule.NewXYZParser(nil), ranker, chhoIndex())
	strict := NewTaskRunner(local.New(), molecule.NewXYZParser(nil, molecule.WithStrictAtomCount(true)), ranker, chhoIndex())
	assert.NotEqual(t, lenient.cacheKey([]byte("data"), obs), strict.cacheKey([]byte("data"), obs))
}

func TestTaskRunner_StrictParserIgnoresLenientCacheEntry(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := redis.NewClient(&redis.RedisConfig{Addr: mr.Addr()}, logging.NewNopLogger())
	require.NoError(t, err)
	defer client.Close()
	cache := redis.NewRedisCache(client, nil, redis.WithPrefix("t:"))

	// The header declares five atoms; four follow.
	path := testutil.WriteFile(t, filepath.Join(t.TempDir(), "chho.xyz"),
		"5\nchho\nC 0 0 0\nH 1 0 0\nH 0 1 0\nO 0 0 1\n")
	ranker, err := molecule.NewRanker(molecule.DefaultNeighborCount, molecule.ModeMassWeighted)
	require.NoError(t, err)

	lenient := NewTaskRunner(local.New(), molecule.NewXYZParser(nil), ranker, chhoIndex(),
		WithResultCache(cache, time.Hour))
	res, err := lenient.Run(context.Background(), NewStructureRef(path))
	require.NoError(t, err)
	assert.Len(t, res.Rows, 2)
	require.Len(t, mr.Keys(), 1)

	strict := NewTaskRunner(local.New(), molecule.NewXYZParser(nil, molecule.WithStrictAtomCount(true)), ranker, chhoIndex(),
		WithResultCache(cache, time.Hour))
	_, err = strict.Run(context.Background(), NewStructureRef(path))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeStructureParseFailed))
	assert.Len(t, mr.Keys(), 1, "failures are not cached")
}

func TestTaskRunner_ParseFailureNotCached(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := redis.NewClient(&redis.RedisConfig{Addr: mr.Addr()}, logging.NewNopLogger())
	require.NoError(t, err)
	defer client.Close()

	path := testutil.WriteFile(t, filepath.Join(t.TempDir(), "chho.xyz"), "2\n\nC 0 0\nH 1 0 0\n")
	runner := newTestRunner(t, chhoIndex(), WithResultCache(redis.NewRedisCache(client, nil), time.Hour))

	for i := 0; i < 2; i++ {
		_, err := runner.Run(context.Background(), NewStructureRef(path))
		assert.True(t, errors.IsCode(err, errors.ErrCodeStructureParseFailed))
	}
	assert.Empty(t, mr.Keys())
}

type brokenCache struct{}

func (c *brokenCache) GetOrSet(context.Context, string, interface{}, time.Duration, func(context.Context) (interface{}, error)) error {
	return errors.New(errors.ErrCodeCacheError, "cache unavailable")
}

func TestTaskRunner_CacheFailureDoesNotFailTask(t *testing.T) {
	log := testutil.NewMockLogger()
	path := testutil.WriteXYZ(t, t.TempDir(), "chho", testutil.CHHO)
	runner := newTestRunner(t, chhoIndex(), WithResultCache(&brokenCache{}, time.Hour), WithTaskLogger(log))

	res, err := runner.Run(context.Background(), NewStructureRef(path))
	require.NoError(t, err)
	assert.Len(t, res.Rows, 2)
	assert.False(t, res.CacheHit)
	assert.True(t, log.HasMessage("warn", "result cache lookup failed"))
}
