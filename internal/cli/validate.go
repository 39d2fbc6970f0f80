package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/marketsim/internal/schema"
	"github.com/roach88/marketsim/internal/sim"
)

// ValidationResult is the validate command's output payload.
type ValidationResult struct {
	File   string   `json:"file"`
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <params.yaml>",
		Short: "Validate a parameter file without running the simulation",
		Long: `Check a parameter file against the schema and the model's
feasibility constraints.

Schema checks catch unknown fields, wrong types, and out-of-range
values with line positions. Feasibility checks catch parameter
combinations the distributions cannot represent, such as a Beta
variance too large for its mean.

Examples:
  marketsim validate params.yaml
  marketsim validate params.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	result := ValidationResult{File: path, Valid: true}

	if verrs := schema.ValidateFile(path); len(verrs) > 0 {
		result.Valid = false
		for _, verr := range verrs {
			result.Errors = append(result.Errors, verr.Error())
		}
	} else {
		// Schema passed, so the file parses. Feasibility checks need
		// the decoded values.
		params, err := sim.LoadParams(path)
		if err == nil {
			err = params.Validate()
		}
		if err != nil {
			result.Valid = false
			var cfgErr *sim.ConfigError
			if errors.As(err, &cfgErr) {
				result.Errors = append(result.Errors, cfgErr.Error())
			} else {
				result.Errors = append(result.Errors, err.Error())
			}
		}
	}

	if opts.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		printValidationResult(formatter, result)
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("%s is invalid", path))
	}
	return nil
}

func printValidationResult(f *OutputFormatter, result ValidationResult) {
	if result.Valid {
		fmt.Fprintf(f.Writer, "%s: valid\n", result.File)
		return
	}
	fmt.Fprintf(f.Writer, "%s: invalid\n", result.File)
	for _, msg := range result.Errors {
		fmt.Fprintf(f.Writer, "  %s\n", msg)
	}
}
