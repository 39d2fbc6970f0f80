package cli

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/roach88/marketsim/internal/sim"
)

// SweepOptions holds flags for the sweep command.
type SweepOptions struct {
	*RootOptions
	Seeds    int
	BaseSeed uint64
}

// SeedResult is one row of the sweep table.
type SeedResult struct {
	Seed         uint64  `json:"seed"`
	TrueATE      float64 `json:"true_ate"`
	EstimatedATE float64 `json:"estimated_ate"`
	Overstates   bool    `json:"overstates"`
}

// SweepReport aggregates a multi-seed bias study.
type SweepReport struct {
	Params            sim.Params   `json:"params"`
	Runs              []SeedResult `json:"runs"`
	MeanTrueATE       float64      `json:"mean_true_ate"`
	MeanEstimatedATE  float64      `json:"mean_estimated_ate"`
	OverstatementRate float64      `json:"overstatement_rate"`
}

// NewSweepCommand creates the sweep command.
func NewSweepCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SweepOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sweep [params.yaml]",
		Short: "Run the pipeline across many seeds and report the bias pattern",
		Long: `Repeat the simulation across consecutive seeds and summarize how
often the viewer-randomized estimate overstates the true effect.

A single run shows one draw of the bias; the sweep shows that the
overstatement is systematic, not a seed artifact.

Examples:
  marketsim sweep --seeds 20
  marketsim sweep params.yaml --seeds 50 --base-seed 100`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			paramsPath := ""
			if len(args) == 1 {
				paramsPath = args[0]
			}
			return runSweep(opts, paramsPath, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Seeds, "seeds", 20, "number of consecutive seeds to run")
	cmd.Flags().Uint64Var(&opts.BaseSeed, "base-seed", 1, "first seed of the sweep")

	return cmd
}

func runSweep(opts *SweepOptions, paramsPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if opts.Seeds < 1 {
		return NewExitError(ExitCommandError, fmt.Sprintf("--seeds must be positive, got %d", opts.Seeds))
	}

	runOpts := &RunOptions{RootOptions: opts.RootOptions}
	params, err := loadRunParams(runOpts, paramsPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	slog.Info("starting sweep",
		"seeds", opts.Seeds,
		"base_seed", opts.BaseSeed,
		"viewers", params.Viewers,
		"creators", params.Creators,
	)

	report := SweepReport{Params: params, Runs: make([]SeedResult, 0, opts.Seeds)}
	var sumTrue, sumEst float64
	overstated := 0

	for i := 0; i < opts.Seeds; i++ {
		params.Seed = opts.BaseSeed + uint64(i)

		res, err := sim.Run(params)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("seed %d failed", params.Seed), err)
		}

		row := SeedResult{
			Seed:         params.Seed,
			TrueATE:      res.TrueATE,
			EstimatedATE: res.EstimatedATE,
			Overstates:   res.Overstates(),
		}
		report.Runs = append(report.Runs, row)

		sumTrue += res.TrueATE
		sumEst += res.EstimatedATE
		if row.Overstates {
			overstated++
		}
	}

	n := float64(opts.Seeds)
	report.MeanTrueATE = sumTrue / n
	report.MeanEstimatedATE = sumEst / n
	report.OverstatementRate = float64(overstated) / n

	if opts.Format == "json" {
		return formatter.Success(report)
	}

	printSweepTable(formatter, report)
	return nil
}

// printSweepTable renders the per-seed rows plus the aggregate footer.
func printSweepTable(f *OutputFormatter, report SweepReport) {
	// Grouped digits for the cell count: 4000×100 reads better as
	// 400,000 than 400000.
	pr := message.NewPrinter(language.English)
	pr.Fprintf(f.Writer, "%d viewers × %d creators = %d cells per run\n\n",
		report.Params.Viewers, report.Params.Creators,
		report.Params.Viewers*report.Params.Creators)

	fmt.Fprintf(f.Writer, "%-8s | %-12s | %-14s | %s\n",
		"Seed", "True ATE", "Estimated ATE", "Overstates")
	fmt.Fprintln(f.Writer, "---------------------------------------------------")

	for _, row := range report.Runs {
		fmt.Fprintf(f.Writer, "%-8d | %-12.4f | %-14.4f | %v\n",
			row.Seed, row.TrueATE, row.EstimatedATE, row.Overstates)
	}

	fmt.Fprintf(f.Writer, "\nmean true ATE: %.4f\n", report.MeanTrueATE)
	fmt.Fprintf(f.Writer, "mean estimated ATE: %.4f\n", report.MeanEstimatedATE)
	fmt.Fprintf(f.Writer, "overstatement rate: %.0f%% (%d/%d seeds)\n",
		report.OverstatementRate*100,
		int(math.Round(report.OverstatementRate*float64(len(report.Runs)))),
		len(report.Runs))
}
