package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/marketsim/internal/sim"
)

// Scenario defines a conformance scenario: a parameter set plus the
// statistical properties its run must satisfy.
type Scenario struct {
	// Name uniquely identifies this scenario; it is also the golden
	// file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Params configures the run. Omitted fields keep the reference
	// defaults.
	Params sim.Params `yaml:"params"`

	// Expect lists the properties to assert after the run.
	Expect Expect `yaml:"expect"`
}

// Expect describes the assertions evaluated against a run's Result.
type Expect struct {
	// TrueATESign is "negative" or "positive"; empty skips the check.
	TrueATESign string `yaml:"true_ate_sign,omitempty"`

	// TrueATEBetween bounds the true ATE as [low, high].
	TrueATEBetween []float64 `yaml:"true_ate_between,omitempty"`

	// Overstates, when set, asserts whether |estimated| > |true|.
	Overstates *bool `yaml:"overstates,omitempty"`

	// ZeroFractionTolerance asserts the baseline zero fraction lies
	// within this distance of zero_prob. Zero skips the check.
	ZeroFractionTolerance float64 `yaml:"zero_fraction_tolerance,omitempty"`
}

// LoadScenario reads and validates a scenario YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	// Pre-fill defaults so omitted param fields keep them.
	s := &Scenario{Params: sim.DefaultParams()}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}

	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return s, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario name is required")
	}
	switch s.Expect.TrueATESign {
	case "", "negative", "positive":
	default:
		return fmt.Errorf("true_ate_sign must be \"negative\" or \"positive\", got %q", s.Expect.TrueATESign)
	}
	if n := len(s.Expect.TrueATEBetween); n != 0 && n != 2 {
		return fmt.Errorf("true_ate_between must be [low, high], got %d values", n)
	}
	if len(s.Expect.TrueATEBetween) == 2 && s.Expect.TrueATEBetween[0] > s.Expect.TrueATEBetween[1] {
		return fmt.Errorf("true_ate_between low %g exceeds high %g",
			s.Expect.TrueATEBetween[0], s.Expect.TrueATEBetween[1])
	}
	if s.Expect.ZeroFractionTolerance < 0 {
		return fmt.Errorf("zero_fraction_tolerance must be non-negative, got %g", s.Expect.ZeroFractionTolerance)
	}
	return s.Params.Validate()
}
