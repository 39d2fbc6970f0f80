package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/marketsim/internal/sim"
)

// openTestStore creates an isolated on-disk store in a temp directory.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "marketsim.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, s.Close())
	})
	return s
}

// testResult fabricates a plausible result without running the pipeline.
func testResult(seed uint64) sim.Result {
	p := sim.DefaultParams()
	p.Seed = seed
	return sim.Result{
		Params:        p,
		TrueATE:       -8.1234,
		EstimatedATE:  -13.5678,
		Treated:       2010,
		Controls:      1990,
		ZeroFraction:  0.0998,
		BaselineMean:  270.14,
		TreatmentMean: 262.05,
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "marketsim.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s2.Close())
}

func TestWriteRun_ReadRun_Roundtrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	run, err := NewRun(testResult(42))
	require.NoError(t, err)
	require.NoError(t, s.WriteRun(ctx, run))

	got, err := s.ReadRun(ctx, run.ID)
	require.NoError(t, err)

	assert.Equal(t, run.ID, got.ID)
	assert.True(t, run.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, run.Result, got.Result)
	assert.Equal(t, run.Params(), got.Params())
}

func TestWriteRun_Idempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	run, err := NewRun(testResult(1))
	require.NoError(t, err)

	require.NoError(t, s.WriteRun(ctx, run))
	// Second write with the same id is silently ignored.
	require.NoError(t, s.WriteRun(ctx, run))

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestReadRun_NotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.ReadRun(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestListRuns_Empty(t *testing.T) {
	s := openTestStore(t)

	runs, err := s.ListRuns(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestListRuns_DeterministicOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ids := []string{"cc", "aa", "bb"}
	for i, id := range ids {
		run := Run{
			ID:        id,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			Result:    testResult(uint64(i)),
		}
		require.NoError(t, s.WriteRun(ctx, run))
	}

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 3)

	// Ordered by created_at, not insertion id.
	assert.Equal(t, "cc", runs[0].ID)
	assert.Equal(t, "aa", runs[1].ID)
	assert.Equal(t, "bb", runs[2].ID)
}

func TestNewRun_UniqueIDs(t *testing.T) {
	a, err := NewRun(testResult(1))
	require.NoError(t, err)
	b, err := NewRun(testResult(1))
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.CreatedAt.IsZero())
}
