package sim

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Params fully determines a simulation run. Run is a pure function of
// this struct: identical Params (including Seed) give identical output.
type Params struct {
	// Viewers (I) and Creators (J) set the outcome matrix shape.
	Viewers  int `yaml:"viewers" json:"viewers"`
	Creators int `yaml:"creators" json:"creators"`

	// ZeroProb is the probability a viewer never engages with a
	// creator at all (exact-zero watch time).
	ZeroProb float64 `yaml:"zero_prob" json:"zero_prob"`

	// BaselineMean and BaselineSD are the target moments of the
	// positive part of baseline watch time, in minutes.
	BaselineMean float64 `yaml:"baseline_mean" json:"baseline_mean"`
	BaselineSD   float64 `yaml:"baseline_sd" json:"baseline_sd"`

	// DispersionMean/SD are the target moments of the fractional
	// watch-time drop caused by extra pre-roll ads.
	DispersionMean float64 `yaml:"dispersion_mean" json:"dispersion_mean"`
	DispersionSD   float64 `yaml:"dispersion_sd" json:"dispersion_sd"`

	// PremiumMean/SD are the target moments of the fractional
	// watch-time gain from creators cutting mid-roll ads.
	PremiumMean float64 `yaml:"premium_mean" json:"premium_mean"`
	PremiumSD   float64 `yaml:"premium_sd" json:"premium_sd"`

	// TreatProb is the per-viewer treatment assignment probability
	// in the randomized experiment.
	TreatProb float64 `yaml:"treat_prob" json:"treat_prob"`

	// Seed initializes the shared random source.
	Seed uint64 `yaml:"seed" json:"seed"`
}

// DefaultParams returns the reference configuration: 4000 viewers by
// 100 creators, 10% non-engagement, 300±50 minute baselines, 5%±10%
// dispersion, 2%±10% premium, 50/50 assignment, seed 42.
func DefaultParams() Params {
	return Params{
		Viewers:        4000,
		Creators:       100,
		ZeroProb:       0.1,
		BaselineMean:   300,
		BaselineSD:     50,
		DispersionMean: 0.05,
		DispersionSD:   0.1,
		PremiumMean:    0.02,
		PremiumSD:      0.1,
		TreatProb:      0.5,
		Seed:           42,
	}
}

// LoadParams reads a YAML parameter file, applying defaults for any
// field the file omits, and validates the result.
func LoadParams(path string) (Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Params{}, fmt.Errorf("read params file: %w", err)
	}

	p := DefaultParams()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return Params{}, fmt.Errorf("parse params file %s: %w", path, err)
	}

	if err := p.Validate(); err != nil {
		return Params{}, fmt.Errorf("params file %s: %w", path, err)
	}
	return p, nil
}

// ConfigError codes.
const (
	ErrCodeShape       = "SHAPE_INVALID"       // non-positive matrix dimensions
	ErrCodeProbability = "PROBABILITY_INVALID" // probability outside its range
	ErrCodeMoments     = "MOMENTS_INVALID"     // target moments infeasible
)

// ConfigError reports an invalid parameter with the field that caused
// it. The computation is pure and stateless per run, so configuration
// errors are the only failure mode and are never retryable.
type ConfigError struct {
	Code    string
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks every parameter and the feasibility of the derived
// distribution shapes. Fails fast on the first violation.
func (p Params) Validate() error {
	if p.Viewers < 1 {
		return &ConfigError{Code: ErrCodeShape, Field: "viewers", Message: fmt.Sprintf("must be a positive integer, got %d", p.Viewers)}
	}
	if p.Creators < 1 {
		return &ConfigError{Code: ErrCodeShape, Field: "creators", Message: fmt.Sprintf("must be a positive integer, got %d", p.Creators)}
	}
	if p.ZeroProb < 0 || p.ZeroProb > 1 {
		return &ConfigError{Code: ErrCodeProbability, Field: "zero_prob", Message: fmt.Sprintf("must lie in [0,1], got %g", p.ZeroProb)}
	}
	if p.TreatProb <= 0 || p.TreatProb >= 1 {
		return &ConfigError{Code: ErrCodeProbability, Field: "treat_prob", Message: fmt.Sprintf("must lie in (0,1), got %g", p.TreatProb)}
	}
	if p.BaselineMean <= 0 {
		return &ConfigError{Code: ErrCodeMoments, Field: "baseline_mean", Message: fmt.Sprintf("must be positive, got %g", p.BaselineMean)}
	}
	if p.BaselineSD <= 0 {
		return &ConfigError{Code: ErrCodeMoments, Field: "baseline_sd", Message: fmt.Sprintf("must be positive, got %g", p.BaselineSD)}
	}
	if _, err := BetaShapes("dispersion", p.DispersionMean, p.DispersionSD); err != nil {
		return err
	}
	if _, err := BetaShapes("premium", p.PremiumMean, p.PremiumSD); err != nil {
		return err
	}
	return nil
}

// BetaParams holds the shape parameters of a Beta distribution.
type BetaParams struct {
	Alpha float64
	Beta  float64
}

// BetaShapes back-solves Beta shape parameters from a target mean and
// standard deviation using the method of moments:
//
//	alpha = ((1-mu)/sigma^2 - 1/mu) * mu^2
//	beta  = alpha * (1/mu - 1)
//
// Both shapes are positive iff mu is in (0,1) and sigma^2 < mu*(1-mu).
// Infeasible targets return a ConfigError instead of silently yielding
// an undefined distribution.
func BetaShapes(field string, mu, sigma float64) (BetaParams, error) {
	if mu <= 0 || mu >= 1 {
		return BetaParams{}, &ConfigError{
			Code:    ErrCodeMoments,
			Field:   field + "_mean",
			Message: fmt.Sprintf("must lie in (0,1), got %g", mu),
		}
	}
	if sigma <= 0 {
		return BetaParams{}, &ConfigError{
			Code:    ErrCodeMoments,
			Field:   field + "_sd",
			Message: fmt.Sprintf("must be positive, got %g", sigma),
		}
	}
	if sigma*sigma >= mu*(1-mu) {
		return BetaParams{}, &ConfigError{
			Code:  ErrCodeMoments,
			Field: field + "_sd",
			Message: fmt.Sprintf(
				"variance %g is not below mean*(1-mean)=%g; derived Beta shapes would be non-positive",
				sigma*sigma, mu*(1-mu)),
		}
	}

	alpha := ((1-mu)/(sigma*sigma) - 1/mu) * mu * mu
	beta := alpha * (1/mu - 1)
	return BetaParams{Alpha: alpha, Beta: beta}, nil
}

// GammaParams holds a Gamma distribution in shape/rate form, matching
// gonum's distuv.Gamma parameterization.
type GammaParams struct {
	Shape float64 // k = mean^2 / sd^2
	Rate  float64 // 1/scale = mean / sd^2
}

// GammaShapes back-solves Gamma shape and rate from a target mean and
// standard deviation. Callers must have validated mean and sd positive.
func GammaShapes(mean, sd float64) GammaParams {
	return GammaParams{
		Shape: mean * mean / (sd * sd),
		Rate:  mean / (sd * sd),
	}
}
