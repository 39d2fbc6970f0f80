package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/marketsim/internal/sim"
)

// DerivedConfig renders the analytically derived configuration of a
// scenario: the parameter echo plus the method-of-moments Gamma and
// Beta shapes. Everything here is a closed-form function of Params, so
// the snapshot is exact and safe to golden-test; no sampled value
// appears.
func DerivedConfig(s *Scenario) ([]byte, error) {
	p := s.Params

	gamma := sim.GammaShapes(p.BaselineMean, p.BaselineSD)
	disp, err := sim.BetaShapes("dispersion", p.DispersionMean, p.DispersionSD)
	if err != nil {
		return nil, err
	}
	prem, err := sim.BetaShapes("premium", p.PremiumMean, p.PremiumSD)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "scenario: %s\n", s.Name)
	fmt.Fprintf(&b, "viewers: %d\n", p.Viewers)
	fmt.Fprintf(&b, "creators: %d\n", p.Creators)
	fmt.Fprintf(&b, "zero_prob: %.6f\n", p.ZeroProb)
	fmt.Fprintf(&b, "baseline_mean: %.6f\n", p.BaselineMean)
	fmt.Fprintf(&b, "baseline_sd: %.6f\n", p.BaselineSD)
	fmt.Fprintf(&b, "dispersion_mean: %.6f\n", p.DispersionMean)
	fmt.Fprintf(&b, "dispersion_sd: %.6f\n", p.DispersionSD)
	fmt.Fprintf(&b, "premium_mean: %.6f\n", p.PremiumMean)
	fmt.Fprintf(&b, "premium_sd: %.6f\n", p.PremiumSD)
	fmt.Fprintf(&b, "treat_prob: %.6f\n", p.TreatProb)
	fmt.Fprintf(&b, "seed: %d\n", p.Seed)
	fmt.Fprintf(&b, "gamma_shape: %.6f\n", gamma.Shape)
	fmt.Fprintf(&b, "gamma_rate: %.6f\n", gamma.Rate)
	fmt.Fprintf(&b, "dispersion_alpha: %.6f\n", disp.Alpha)
	fmt.Fprintf(&b, "dispersion_beta: %.6f\n", disp.Beta)
	fmt.Fprintf(&b, "premium_alpha: %.6f\n", prem.Alpha)
	fmt.Fprintf(&b, "premium_beta: %.6f\n", prem.Beta)

	return []byte(b.String()), nil
}

// AssertDerivedConfig compares a scenario's derived configuration
// against its golden file in testdata/golden/{scenario.Name}.golden.
func AssertDerivedConfig(t *testing.T, s *Scenario) {
	t.Helper()

	snapshot, err := DerivedConfig(s)
	if err != nil {
		t.Fatalf("derive config for %s: %v", s.Name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, s.Name, snapshot)
}
