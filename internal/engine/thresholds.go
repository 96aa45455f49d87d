package engine

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Default insight thresholds.
const (
	DefaultMinSelectionSize  = 20
	DefaultMinGroupSize      = 10
	DefaultCategoryMargin    = 0.05
	DefaultIncomeGapRatio    = 0.10
	DefaultOvertimeDisparity = 0.10
	DefaultTrainingGap       = 0.5
	DefaultPopulationMargin  = 0.05
	DefaultFactorStrength    = 0.10
)

// Thresholds tunes when insight rules fire.
type Thresholds struct {
	// MinSelectionSize suppresses every rule on smaller selections.
	MinSelectionSize int `yaml:"min_selection_size"`
	// MinGroupSize ignores groups with fewer rows in comparisons.
	MinGroupSize int `yaml:"min_group_size"`
	// CategoryMargin is the rate excess over the selection average that
	// flags a segment.
	CategoryMargin    float64 `yaml:"category_margin"`
	IncomeGapRatio    float64 `yaml:"income_gap_ratio"`
	OvertimeDisparity float64 `yaml:"overtime_disparity"`
	// TrainingGap is measured in sessions per year.
	TrainingGap      float64 `yaml:"training_gap"`
	PopulationMargin float64 `yaml:"population_margin"`
	FactorStrength   float64 `yaml:"factor_strength"`
}

// DefaultThresholds returns the built-in thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinSelectionSize:  DefaultMinSelectionSize,
		MinGroupSize:      DefaultMinGroupSize,
		CategoryMargin:    DefaultCategoryMargin,
		IncomeGapRatio:    DefaultIncomeGapRatio,
		OvertimeDisparity: DefaultOvertimeDisparity,
		TrainingGap:       DefaultTrainingGap,
		PopulationMargin:  DefaultPopulationMargin,
		FactorStrength:    DefaultFactorStrength,
	}
}

// Validate rejects thresholds no rule can work with.
func (t Thresholds) Validate() error {
	if t.MinSelectionSize < 2 {
		return fmt.Errorf("min_selection_size must be at least 2, got %d", t.MinSelectionSize)
	}
	if t.MinGroupSize < 1 {
		return fmt.Errorf("min_group_size must be positive, got %d", t.MinGroupSize)
	}
	for name, v := range map[string]float64{
		"category_margin":    t.CategoryMargin,
		"income_gap_ratio":   t.IncomeGapRatio,
		"overtime_disparity": t.OvertimeDisparity,
		"training_gap":       t.TrainingGap,
		"population_margin":  t.PopulationMargin,
		"factor_strength":    t.FactorStrength,
	} {
		if v < 0 {
			return fmt.Errorf("%s must not be negative, got %v", name, v)
		}
	}
	return nil
}

// RulePack is the YAML root of a threshold pack. Keys left out keep their
// defaults.
type RulePack struct {
	Thresholds Thresholds `yaml:"thresholds"`
	// Advice replaces the recommendation sentence of a rule, keyed by rule id.
	Advice map[string]string `yaml:"advice"`
}

// LoadRulePack reads a threshold pack from path. An empty path or a missing
// file yields the defaults.
func LoadRulePack(path string) (RulePack, error) {
	pack := RulePack{Thresholds: DefaultThresholds()}
	if path == "" {
		return pack, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return pack, nil
		}
		return RulePack{}, err
	}
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return RulePack{}, fmt.Errorf("parse rule pack %s: %w", path, err)
	}
	if err := pack.Thresholds.Validate(); err != nil {
		return RulePack{}, fmt.Errorf("rule pack %s: %w", path, err)
	}
	return pack, nil
}
