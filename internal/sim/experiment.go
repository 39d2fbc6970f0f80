package sim

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Experiment holds the outcome of one viewer-randomized experiment.
type Experiment struct {
	// Assignment is the per-viewer treatment label, fixed for the
	// duration of the experiment.
	Assignment []bool

	// Treated and Controls count assigned viewers per arm.
	Treated  int
	Controls int

	// EstimatedATE is the naive difference in means between the two
	// arms' observed outcomes.
	EstimatedATE float64
}

// DegenerateAssignmentError reports an experiment where every viewer
// landed in the same arm, leaving one group mean undefined.
type DegenerateAssignmentError struct {
	Treated int
	Viewers int
}

func (e *DegenerateAssignmentError) Error() string {
	arm := "treatment"
	if e.Treated == 0 {
		arm = "control"
	}
	return fmt.Sprintf("degenerate assignment: all %d viewers fell in the %s arm", e.Viewers, arm)
}

// RunViewerExperiment simulates a viewer-level randomized experiment
// that ignores cross-side spillovers.
//
// Each viewer is assigned to treatment with probability TreatProb,
// independent of creator identity. Observed outcomes:
//
//	control arm:   control × (1 + premium)
//	treatment arm: control × (1 + premium − dispersion)
//
// Creators respond to the policy shift in expectation, so the premium
// uplift reaches control-assigned viewers too. That spillover inflates
// the control arm relative to a true no-treatment counterfactual, which
// is why the estimate overstates the effect magnitude.
func RunViewerExperiment(p Params, control, dispersion, premium *mat.Dense, src rand.Source) (Experiment, error) {
	viewers, creators := control.Dims()

	assignDist := distuv.Bernoulli{P: p.TreatProb, Src: src}
	assignment := make([]bool, viewers)
	treated := 0
	for i := range assignment {
		if assignDist.Rand() == 1 {
			assignment[i] = true
			treated++
		}
	}
	if treated == 0 || treated == viewers {
		return Experiment{}, &DegenerateAssignmentError{Treated: treated, Viewers: viewers}
	}

	var treatSum, ctrlSum float64
	for i := 0; i < viewers; i++ {
		for j := 0; j < creators; j++ {
			if assignment[i] {
				treatSum += control.At(i, j) * (1 + premium.At(i, j) - dispersion.At(i, j))
			} else {
				ctrlSum += control.At(i, j) * (1 + premium.At(i, j))
			}
		}
	}

	controls := viewers - treated
	est := treatSum/float64(treated*creators) - ctrlSum/float64(controls*creators)

	return Experiment{
		Assignment:   assignment,
		Treated:      treated,
		Controls:     controls,
		EstimatedATE: est,
	}, nil
}
