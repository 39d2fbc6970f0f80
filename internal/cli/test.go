package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/marketsim/internal/harness"
)

// ScenarioOutcome is one scenario's verdict in the test report.
type ScenarioOutcome struct {
	Name         string   `json:"name"`
	File         string   `json:"file"`
	Pass         bool     `json:"pass"`
	TrueATE      float64  `json:"true_ate"`
	EstimatedATE float64  `json:"estimated_ate"`
	Failures     []string `json:"failures,omitempty"`
}

// TestReport aggregates the outcomes of a scenario batch.
type TestReport struct {
	Outcomes []ScenarioOutcome `json:"outcomes"`
	Passed   int               `json:"passed"`
	Total    int               `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test <scenario.yaml>...",
		Short: "Run scenario files and check their expectations",
		Long: `Execute one or more scenario files and evaluate each scenario's
expectations against the simulated results.

A scenario bundles parameters with assertions about the outcome: the
sign of the true effect, a range it should fall in, whether the naive
estimate overstates it. Any violated expectation fails the scenario
and the command exits with status 1.

Examples:
  marketsim test scenarios/reference.yaml
  marketsim test scenarios/*.yaml --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runScenarios(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	report := TestReport{Outcomes: make([]ScenarioOutcome, 0, len(paths)), Total: len(paths)}

	for _, path := range paths {
		scenario, err := harness.LoadScenario(path)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to load %s", path), err)
		}

		res, err := harness.Run(scenario)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("scenario %q failed to run", scenario.Name), err)
		}

		outcome := ScenarioOutcome{
			Name:         scenario.Name,
			File:         path,
			Pass:         res.Pass,
			TrueATE:      res.Sim.TrueATE,
			EstimatedATE: res.Sim.EstimatedATE,
			Failures:     res.Failures,
		}
		report.Outcomes = append(report.Outcomes, outcome)
		if res.Pass {
			report.Passed++
		}
	}

	if opts.Format == "json" {
		if err := formatter.Success(report); err != nil {
			return err
		}
	} else {
		printTestReport(formatter, report)
	}

	if report.Passed != report.Total {
		return NewExitError(ExitFailure,
			fmt.Sprintf("%d of %d scenarios failed", report.Total-report.Passed, report.Total))
	}
	return nil
}

func printTestReport(f *OutputFormatter, report TestReport) {
	for _, o := range report.Outcomes {
		status := "PASS"
		if !o.Pass {
			status = "FAIL"
		}
		fmt.Fprintf(f.Writer, "%s  %s (true=%.4f est=%.4f)\n", status, o.Name, o.TrueATE, o.EstimatedATE)
		for _, msg := range o.Failures {
			fmt.Fprintf(f.Writer, "      %s\n", msg)
		}
	}
	fmt.Fprintf(f.Writer, "\n%d/%d scenarios passed\n", report.Passed, report.Total)
}
