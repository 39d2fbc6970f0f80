package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/marketsim/internal/schema"
	"github.com/roach88/marketsim/internal/sim"
	"github.com/roach88/marketsim/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	Seed     uint64
	SeedSet  bool
}

// RunReport is the run command's output payload.
type RunReport struct {
	RunID  string     `json:"run_id,omitempty"`
	Result sim.Result `json:"result"`
}

// String renders the text form: the two headline scalars, plus the
// record id when the run was persisted.
func (r RunReport) String() string {
	s := r.Result.String()
	if r.RunID != "" {
		s += fmt.Sprintf("\nrecorded as run %s", r.RunID)
	}
	return s
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run [params.yaml]",
		Short: "Execute the simulation pipeline once",
		Long: `Execute the full pipeline: baseline outcomes, effect matrices,
treatment outcomes, the true ATE, and the viewer-randomized estimate.

Without a params file the reference configuration is used (4000
viewers, 100 creators, seed 42). With --db the scalar results are
recorded so "marketsim replay" can later verify determinism.

Examples:
  marketsim run
  marketsim run params.yaml --seed 7
  marketsim run --db ./marketsim.db --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.SeedSet = cmd.Flags().Changed("seed")
			paramsPath := ""
			if len(args) == 1 {
				paramsPath = args[0]
			}
			return runSimulation(opts, paramsPath, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database for recording the run")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "override the random seed")

	return cmd
}

func runSimulation(opts *RunOptions, paramsPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	params, err := loadRunParams(opts, paramsPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	slog.Info("running simulation",
		"viewers", params.Viewers,
		"creators", params.Creators,
		"seed", params.Seed,
	)

	result, err := sim.Run(params)
	if err != nil {
		return WrapExitError(ExitCommandError, "simulation failed", err)
	}

	report := RunReport{Result: result}

	if opts.Database != "" {
		run, err := recordRun(opts.Database, result)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to record run", err)
		}
		report.RunID = run.ID
		slog.Info("run recorded", "id", run.ID, "db", opts.Database)
	}

	formatter.VerboseLog("zero fraction: %.4f (target %.4f)", result.ZeroFraction, params.ZeroProb)
	formatter.VerboseLog("arms: %d treated / %d control", result.Treated, result.Controls)

	return formatter.Success(report)
}

// loadRunParams resolves the effective parameters: file (schema-checked
// first for positioned errors), then defaults, then flag overrides.
func loadRunParams(opts *RunOptions, paramsPath string) (sim.Params, error) {
	params := sim.DefaultParams()

	if paramsPath != "" {
		if verrs := schema.ValidateFile(paramsPath); len(verrs) > 0 {
			return sim.Params{}, fmt.Errorf("params schema: %w", verrs[0])
		}
		var err error
		params, err = sim.LoadParams(paramsPath)
		if err != nil {
			return sim.Params{}, err
		}
	}

	if opts.SeedSet {
		params.Seed = opts.Seed
	}

	return params, params.Validate()
}

func recordRun(dbPath string, result sim.Result) (store.Run, error) {
	st, err := store.Open(dbPath)
	if err != nil {
		return store.Run{}, err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	run, err := store.NewRun(result)
	if err != nil {
		return store.Run{}, err
	}
	if err := st.WriteRun(context.Background(), run); err != nil {
		return store.Run{}, err
	}
	return run, nil
}
