package harness

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/roach88/marketsim/internal/sim"
)

// Result reports a scenario execution: the underlying simulation
// result plus any expectation failures.
type Result struct {
	Scenario *Scenario
	Sim      sim.Result

	// Pass is true when every expectation held.
	Pass bool

	// Failures lists one message per violated expectation.
	Failures []string
}

// Run executes a scenario's pipeline and evaluates its expectations.
// Returns an error only when the run itself cannot execute; failed
// expectations are reported through Result.Failures.
func Run(scenario *Scenario) (*Result, error) {
	slog.Debug("running scenario",
		"name", scenario.Name,
		"viewers", scenario.Params.Viewers,
		"creators", scenario.Params.Creators,
		"seed", scenario.Params.Seed,
	)

	res, err := sim.Run(scenario.Params)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	r := &Result{Scenario: scenario, Sim: res}
	r.Failures = evaluate(scenario.Expect, res)
	r.Pass = len(r.Failures) == 0

	slog.Debug("scenario finished",
		"name", scenario.Name,
		"pass", r.Pass,
		"true_ate", res.TrueATE,
		"estimated_ate", res.EstimatedATE,
	)
	return r, nil
}

func evaluate(expect Expect, res sim.Result) []string {
	var failures []string

	switch expect.TrueATESign {
	case "negative":
		if res.TrueATE >= 0 {
			failures = append(failures,
				fmt.Sprintf("true ATE %.4f is not negative", res.TrueATE))
		}
	case "positive":
		if res.TrueATE <= 0 {
			failures = append(failures,
				fmt.Sprintf("true ATE %.4f is not positive", res.TrueATE))
		}
	}

	if len(expect.TrueATEBetween) == 2 {
		low, high := expect.TrueATEBetween[0], expect.TrueATEBetween[1]
		if res.TrueATE < low || res.TrueATE > high {
			failures = append(failures,
				fmt.Sprintf("true ATE %.4f outside [%.4f, %.4f]", res.TrueATE, low, high))
		}
	}

	if expect.Overstates != nil && res.Overstates() != *expect.Overstates {
		failures = append(failures,
			fmt.Sprintf("overstatement = %v (|estimated| %.4f vs |true| %.4f), expected %v",
				res.Overstates(), math.Abs(res.EstimatedATE), math.Abs(res.TrueATE), *expect.Overstates))
	}

	if tol := expect.ZeroFractionTolerance; tol > 0 {
		if math.Abs(res.ZeroFraction-res.Params.ZeroProb) > tol {
			failures = append(failures,
				fmt.Sprintf("zero fraction %.4f deviates from zero_prob %.4f by more than %.4f",
					res.ZeroFraction, res.Params.ZeroProb, tol))
		}
	}

	return failures
}
