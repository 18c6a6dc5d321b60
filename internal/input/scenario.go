package input

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/theirongolddev/finplan/internal/model"
)

// Scenario is the YAML form of a budget. Omitted fields keep their defaults.
//
//	income: 6200
//	tax_rate_percent: 24
//	expenses:
//	  housing: 1800
//	investments:
//	  stocks: 700
//	  crypto: 50
//	months: 36
//	savings_target: 40000
type Scenario struct {
	Income         *float64           `yaml:"income"`
	TaxRatePercent *float64           `yaml:"tax_rate_percent"`
	Expenses       map[string]float64 `yaml:"expenses"`
	Investments    map[string]float64 `yaml:"investments"`
	Months         *int               `yaml:"months"`
	SavingsTarget  *float64           `yaml:"savings_target"`
}

// LoadScenario reads a scenario file and applies it over base.
func LoadScenario(path string, base model.BudgetInput) (model.BudgetInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read scenario: %w", err)
	}
	in, err := ParseScenario(data, base)
	if err != nil {
		return base, fmt.Errorf("scenario %s: %w", path, err)
	}
	return in, nil
}

// ParseScenario decodes YAML scenario data and applies it over base.
// Unknown keys and unknown categories are rejected.
func ParseScenario(data []byte, base model.BudgetInput) (model.BudgetInput, error) {
	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil && !errors.Is(err, io.EOF) {
		return base, fmt.Errorf("parse scenario: %w", err)
	}
	return sc.Apply(base)
}

// Apply returns a copy of base with the scenario's fields applied.
func (sc Scenario) Apply(base model.BudgetInput) (model.BudgetInput, error) {
	in := base.Clone()

	if sc.Income != nil {
		in.GrossIncome = *sc.Income
	}
	if sc.TaxRatePercent != nil {
		in.TaxRate = *sc.TaxRatePercent / 100
	}
	if sc.Months != nil {
		in.HorizonMonths = *sc.Months
	}
	if sc.SavingsTarget != nil {
		in.SavingsTarget = *sc.SavingsTarget
	}

	for name, v := range sc.Expenses {
		c, ok := model.ParseExpenseCategory(name)
		if !ok {
			return base, fmt.Errorf("unknown expense category %q", name)
		}
		in.Expenses[c] = v
	}
	for name, v := range sc.Investments {
		a, ok := model.ParseAssetClass(name)
		if !ok {
			return base, fmt.Errorf("unknown asset class %q", name)
		}
		in.Investments[a] = v
	}

	if err := in.Validate(); err != nil {
		return base, err
	}
	return in, nil
}
