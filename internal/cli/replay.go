package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/marketsim/internal/sim"
	"github.com/roach88/marketsim/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
}

// ReplayCheck is the verdict for one recorded run.
type ReplayCheck struct {
	RunID         string  `json:"run_id"`
	Seed          uint64  `json:"seed"`
	StoredTrue    float64 `json:"stored_true_ate"`
	ReplayedTrue  float64 `json:"replayed_true_ate"`
	StoredEst     float64 `json:"stored_estimated_ate"`
	ReplayedEst   float64 `json:"replayed_estimated_ate"`
	Deterministic bool    `json:"deterministic"`
}

// ReplayReport summarizes a replay pass over stored runs.
type ReplayReport struct {
	Checks  []ReplayCheck `json:"checks"`
	Matched int           `json:"matched"`
	Total   int           `json:"total"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay [run-id]",
		Short: "Re-execute recorded runs and verify bit-identical results",
		Long: `Load recorded runs from the database, rebuild each from its stored
parameters, and compare the replayed ATEs against the stored values.

Equal parameters and seed must reproduce the exact same floats. A
mismatch means the pipeline is no longer deterministic and the command
exits with status 1.

Examples:
  marketsim replay --db ./marketsim.db
  marketsim replay 0198c9f2-... --db ./marketsim.db`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			runID := ""
			if len(args) == 1 {
				runID = args[0]
			}
			return runReplay(opts, runID, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database with recorded runs (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runReplay(opts *ReplayOptions, runID string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	ctx := context.Background()

	var runs []store.Run
	if runID != "" {
		run, err := st.ReadRun(ctx, runID)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load run", err)
		}
		runs = []store.Run{run}
	} else {
		runs, err = st.ListRuns(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
	}

	if len(runs) == 0 {
		return NewExitError(ExitCommandError, "no recorded runs to replay")
	}

	report := ReplayReport{Checks: make([]ReplayCheck, 0, len(runs)), Total: len(runs)}

	for _, run := range runs {
		params := run.Params()
		slog.Debug("replaying run", "id", run.ID, "seed", params.Seed)

		res, err := sim.Run(params)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("replay of run %s failed", run.ID), err)
		}

		check := ReplayCheck{
			RunID:        run.ID,
			Seed:         params.Seed,
			StoredTrue:   run.Result.TrueATE,
			ReplayedTrue: res.TrueATE,
			StoredEst:    run.Result.EstimatedATE,
			ReplayedEst:  res.EstimatedATE,
			// Exact comparison on purpose: the seeded pipeline promises
			// bit-identical floats, not merely close ones.
			Deterministic: res.TrueATE == run.Result.TrueATE &&
				res.EstimatedATE == run.Result.EstimatedATE,
		}
		report.Checks = append(report.Checks, check)
		if check.Deterministic {
			report.Matched++
		}
	}

	if opts.Format == "json" {
		if err := formatter.Success(report); err != nil {
			return err
		}
	} else {
		printReplayReport(formatter, report)
	}

	if report.Matched != report.Total {
		return NewExitError(ExitFailure,
			fmt.Sprintf("%d of %d runs did not reproduce", report.Total-report.Matched, report.Total))
	}
	return nil
}

func printReplayReport(f *OutputFormatter, report ReplayReport) {
	for _, c := range report.Checks {
		status := "ok"
		if !c.Deterministic {
			status = "MISMATCH"
		}
		fmt.Fprintf(f.Writer, "%s  seed=%d  true=%.6f  est=%.6f  %s\n",
			c.RunID, c.Seed, c.ReplayedTrue, c.ReplayedEst, status)
		if !c.Deterministic {
			fmt.Fprintf(f.Writer, "  stored: true=%.6f est=%.6f\n", c.StoredTrue, c.StoredEst)
		}
	}
	fmt.Fprintf(f.Writer, "\n%d/%d runs reproduced exactly\n", report.Matched, report.Total)
}
