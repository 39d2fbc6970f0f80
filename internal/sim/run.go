package sim

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Result carries the scalar summaries of a run. Matrices are not
// retained; use RunDetailed when intermediates are needed.
type Result struct {
	Params Params `json:"params"`

	// TrueATE is the ground-truth effect under full exposure to both
	// direct and spillover effects.
	TrueATE float64 `json:"true_ate"`

	// EstimatedATE is the viewer-randomized difference in means.
	EstimatedATE float64 `json:"estimated_ate"`

	// Treated and Controls count viewers per experiment arm.
	Treated  int `json:"treated"`
	Controls int `json:"controls"`

	// ZeroFraction is the share of exact-zero baseline entries;
	// converges to ZeroProb as the matrix grows.
	ZeroFraction float64 `json:"zero_fraction"`

	// BaselineMean and TreatmentMean are the grand means of the two
	// potential-outcome matrices, in minutes.
	BaselineMean  float64 `json:"baseline_mean"`
	TreatmentMean float64 `json:"treatment_mean"`
}

// Overstates reports whether the naive estimate exceeds the true
// effect in magnitude — the spillover contamination the simulation is
// built to demonstrate.
func (r Result) Overstates() bool {
	abs := func(x float64) float64 {
		if x < 0 {
			return -x
		}
		return x
	}
	return abs(r.EstimatedATE) > abs(r.TrueATE)
}

// String renders the two headline scalars to four decimal places.
func (r Result) String() string {
	return fmt.Sprintf("true ATE: %.4f\nestimated ATE: %.4f", r.TrueATE, r.EstimatedATE)
}

// Detailed bundles a Result with the matrix intermediates for
// inspection and testing.
type Detailed struct {
	Result
	Control    *mat.Dense
	Treatment  *mat.Dense
	Dispersion *mat.Dense
	Premium    *mat.Dense
	Assignment []bool
}

// Run executes the full pipeline as a pure function of Params:
// baseline → effects → treatment → {global ATE, viewer experiment}.
func Run(p Params) (Result, error) {
	d, err := RunDetailed(p)
	if err != nil {
		return Result{}, err
	}
	return d.Result, nil
}

// RunDetailed is Run with the matrix intermediates retained.
func RunDetailed(p Params) (Detailed, error) {
	if err := p.Validate(); err != nil {
		return Detailed{}, err
	}

	src := NewSource(p.Seed)

	control := GenerateBaseline(p, src)
	dispersion, premium, err := GenerateEffects(p, src)
	if err != nil {
		return Detailed{}, err
	}
	treatment := ApplyTreatment(control, dispersion, premium)

	exp, err := RunViewerExperiment(p, control, dispersion, premium, src)
	if err != nil {
		return Detailed{}, fmt.Errorf("viewer experiment: %w", err)
	}

	return Detailed{
		Result: Result{
			Params:        p,
			TrueATE:       GlobalATE(control, treatment),
			EstimatedATE:  exp.EstimatedATE,
			Treated:       exp.Treated,
			Controls:      exp.Controls,
			ZeroFraction:  ZeroFraction(control),
			BaselineMean:  stat.Mean(control.RawMatrix().Data, nil),
			TreatmentMean: stat.Mean(treatment.RawMatrix().Data, nil),
		},
		Control:    control,
		Treatment:  treatment,
		Dispersion: dispersion,
		Premium:    premium,
		Assignment: exp.Assignment,
	}, nil
}
