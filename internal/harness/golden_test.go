package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/marketsim/internal/sim"
)

func TestDerivedConfig_GoldenReference(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "reference.yaml"))
	require.NoError(t, err)

	AssertDerivedConfig(t, s)
}

func TestDerivedConfig_GoldenPremiumDominates(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "premium-dominates.yaml"))
	require.NoError(t, err)

	AssertDerivedConfig(t, s)
}

func TestDerivedConfig_Deterministic(t *testing.T) {
	s := &Scenario{Name: "det", Params: sim.DefaultParams()}

	a, err := DerivedConfig(s)
	require.NoError(t, err)
	b, err := DerivedConfig(s)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestDerivedConfig_InfeasibleMoments(t *testing.T) {
	s := &Scenario{Name: "bad", Params: sim.DefaultParams()}
	s.Params.PremiumSD = 0.9

	_, err := DerivedConfig(s)
	assert.Error(t, err)
}
