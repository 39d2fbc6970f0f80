package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/marketsim/internal/sim"
)

// Run is a persisted run record: the parameters that produced it plus
// the scalar results.
type Run struct {
	ID        string     `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	Result    sim.Result `json:"result"`
}

// NewRun wraps a simulation result in a record with a fresh UUIDv7 id.
// UUIDv7 ids are time-ordered, so id order and insertion order agree.
func NewRun(res sim.Result) (Run, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Run{}, fmt.Errorf("generate run id: %w", err)
	}
	return Run{
		ID:        id.String(),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		Result:    res,
	}, nil
}

// WriteRun inserts a run record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are
// silently ignored. Other constraint violations still return errors.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	p := run.Result.Params
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, created_at,
		 viewers, creators, zero_prob,
		 baseline_mean, baseline_sd,
		 dispersion_mean, dispersion_sd,
		 premium_mean, premium_sd,
		 treat_prob, seed,
		 true_ate, estimated_ate, treated, controls, zero_fraction,
		 mean_control, mean_treatment)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.CreatedAt.Format(time.RFC3339),
		p.Viewers,
		p.Creators,
		p.ZeroProb,
		p.BaselineMean,
		p.BaselineSD,
		p.DispersionMean,
		p.DispersionSD,
		p.PremiumMean,
		p.PremiumSD,
		p.TreatProb,
		int64(p.Seed),
		run.Result.TrueATE,
		run.Result.EstimatedATE,
		run.Result.Treated,
		run.Result.Controls,
		run.Result.ZeroFraction,
		run.Result.BaselineMean,
		run.Result.TreatmentMean,
	)
	if err != nil {
		return fmt.Errorf("write run %s: %w", run.ID, err)
	}

	return nil
}
