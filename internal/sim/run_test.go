package sim

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_ReferenceScenario(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping 400k-entry reference run in short mode")
	}

	res, err := Run(DefaultParams())
	require.NoError(t, err)

	// Full exposure lowers engagement: with a 5% mean dispersion
	// against a 2% mean premium the true effect is a small negative
	// number, roughly -0.03 × 270 minutes.
	assert.Less(t, res.TrueATE, 0.0)
	assert.Greater(t, res.TrueATE, -12.0)
	assert.Less(t, res.TrueATE, -5.0)

	// The viewer-randomized contrast overstates the magnitude because
	// the premium spillover inflates the control arm.
	assert.Less(t, res.EstimatedATE, res.TrueATE)
	assert.True(t, res.Overstates())

	assert.InDelta(t, 0.1, res.ZeroFraction, 0.01)
	assert.InDelta(t, 270.0, res.BaselineMean, 5.0)
	assert.Equal(t, 4000, res.Treated+res.Controls)
}

func TestRun_Reproducible(t *testing.T) {
	p := smallParams()

	a, err := Run(p)
	require.NoError(t, err)
	b, err := Run(p)
	require.NoError(t, err)

	// Bit-identical, not merely tolerance-equal: same seed, same
	// draw order, same arithmetic.
	assert.Equal(t, a, b)
}

func TestRun_SummaryFormat(t *testing.T) {
	res := Result{TrueATE: -8.123456, EstimatedATE: -13.98765}
	assert.Equal(t, "true ATE: -8.1235\nestimated ATE: -13.9877", res.String())
}

func TestRun_InvalidParams(t *testing.T) {
	p := DefaultParams()
	p.DispersionSD = 0.9

	_, err := Run(p)
	require.Error(t, err)

	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestRun_OverstatementAcrossSeeds(t *testing.T) {
	// 100k entries per run keeps the sampling noise on the estimated
	// ATE far below the ~5 minute spillover gap.
	p := DefaultParams()
	p.Viewers = 1000

	for seed := uint64(1); seed <= 10; seed++ {
		p.Seed = seed
		res, err := Run(p)
		require.NoError(t, err)

		assert.True(t, res.Overstates(),
			"seed %d: estimated %.4f should exceed true %.4f in magnitude",
			seed, res.EstimatedATE, res.TrueATE)
		assert.Less(t, res.TrueATE, 0.0, "seed %d", seed)
	}
}

func TestRunDetailed_Intermediates(t *testing.T) {
	p := smallParams()

	d, err := RunDetailed(p)
	require.NoError(t, err)

	rows, cols := d.Control.Dims()
	require.Equal(t, p.Viewers, rows)
	require.Equal(t, p.Creators, cols)
	require.Len(t, d.Assignment, p.Viewers)

	// Spot-check the multiplicative identity on the retained matrices.
	for _, idx := range [][2]int{{0, 0}, {7, 3}, {rows - 1, cols - 1}} {
		i, j := idx[0], idx[1]
		want := d.Control.At(i, j) * (1 + d.Premium.At(i, j) - d.Dispersion.At(i, j))
		assert.InDelta(t, want, d.Treatment.At(i, j), 1e-12)
	}
}

// ExampleRun demonstrates the headline output of the reference
// configuration shape without pinning sampled values.
func ExampleResult_String() {
	res := Result{TrueATE: -8.1, EstimatedATE: -13.5}
	fmt.Println(res)
	// Output:
	// true ATE: -8.1000
	// estimated ATE: -13.5000
}

func TestResult_Overstates(t *testing.T) {
	assert.True(t, Result{TrueATE: -8, EstimatedATE: -13}.Overstates())
	assert.False(t, Result{TrueATE: -8, EstimatedATE: -3}.Overstates())
	assert.False(t, Result{TrueATE: math.Abs(-8), EstimatedATE: 8}.Overstates())
}
