package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/marketsim/internal/sim"
)

// ErrRunNotFound is returned when no run record exists for an id.
var ErrRunNotFound = errors.New("run not found")

const runColumns = `
	id, created_at,
	viewers, creators, zero_prob,
	baseline_mean, baseline_sd,
	dispersion_mean, dispersion_sd,
	premium_mean, premium_sd,
	treat_prob, seed,
	true_ate, estimated_ate, treated, controls, zero_fraction,
	mean_control, mean_treatment
`

// ReadRun returns the run record with the given id.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns all run records in deterministic order:
// created_at ascending, then id with binary collation.
//
// Returns an empty slice (not nil) when the table is empty.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		ORDER BY created_at ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run       Run
		createdAt string
		seed      int64
	)
	p := &run.Result.Params

	err := sc.Scan(
		&run.ID,
		&createdAt,
		&p.Viewers,
		&p.Creators,
		&p.ZeroProb,
		&p.BaselineMean,
		&p.BaselineSD,
		&p.DispersionMean,
		&p.DispersionSD,
		&p.PremiumMean,
		&p.PremiumSD,
		&p.TreatProb,
		&seed,
		&run.Result.TrueATE,
		&run.Result.EstimatedATE,
		&run.Result.Treated,
		&run.Result.Controls,
		&run.Result.ZeroFraction,
		&run.Result.BaselineMean,
		&run.Result.TreatmentMean,
	)
	if err != nil {
		return Run{}, err
	}

	p.Seed = uint64(seed)

	run.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return Run{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}

	return run, nil
}

// Params is a convenience accessor for the recorded parameter set.
func (r Run) Params() sim.Params {
	return r.Result.Params
}
