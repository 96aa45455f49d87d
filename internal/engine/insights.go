package engine

import (
	"log/slog"
	"sort"

	"github.com/attritionlab/attrition-engine/internal/models"
	"github.com/attritionlab/attrition-engine/internal/store"
)

// Generator evaluates an ordered rule list against analysis results.
type Generator struct {
	rules      []Rule
	thresholds Thresholds
	logger     *slog.Logger
}

// GeneratorOption customises a Generator.
type GeneratorOption func(*Generator)

// WithRules replaces the built-in rule list.
func WithRules(rules ...Rule) GeneratorOption {
	return func(g *Generator) {
		g.rules = append([]Rule(nil), rules...)
	}
}

// WithAdvice overrides the advice sentence of rules by id. An empty string
// removes the advice.
func WithAdvice(advice map[string]string) GeneratorOption {
	return func(g *Generator) {
		for i := range g.rules {
			if text, ok := advice[g.rules[i].ID]; ok {
				g.rules[i].Advice = text
			}
		}
	}
}

// NewGenerator builds a Generator over DefaultRules. Selection and group
// minimums below 2 and 1 are raised to those floors.
func NewGenerator(th Thresholds, logger *slog.Logger, opts ...GeneratorOption) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	if err := th.Validate(); err != nil {
		logger.Warn("insight thresholds adjusted", slog.Any("error", err))
	}
	th.MinSelectionSize = max(th.MinSelectionSize, 2)
	th.MinGroupSize = max(th.MinGroupSize, 1)
	g := &Generator{rules: DefaultRules(), thresholds: th, logger: logger}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewGeneratorFromPack builds a Generator from a loaded rule pack.
func NewGeneratorFromPack(pack RulePack, logger *slog.Logger) *Generator {
	return NewGenerator(pack.Thresholds, logger, WithAdvice(pack.Advice))
}

// Thresholds returns the thresholds the generator applies.
func (g *Generator) Thresholds() Thresholds {
	return g.thresholds
}

// Generate runs every rule and returns the findings ordered by severity,
// then category priority, then rule order. breakdowns may be nil; missing
// tables are tallied from sel.
func (g *Generator) Generate(st *store.Store, sel *store.Selection, summary models.Summary, correlation models.CorrelationResult, breakdowns []models.Breakdown) []models.Insight {
	insights := make([]models.Insight, 0)
	if sel.Len() < g.thresholds.MinSelectionSize {
		g.logger.Debug("selection below insight minimum",
			slog.Int("rows", sel.Len()),
			slog.Int("min_selection_size", g.thresholds.MinSelectionSize))
		return insights
	}

	in := Input{
		Store:       st,
		Selection:   sel,
		Summary:     summary,
		Correlation: correlation,
		Breakdowns:  breakdowns,
	}
	for _, rule := range g.rules {
		if insight, ok := rule.Apply(in, g.thresholds); ok {
			insights = append(insights, insight)
		}
	}

	sort.SliceStable(insights, func(i, j int) bool {
		a, b := insights[i], insights[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() > b.Severity.Rank()
		}
		return a.Category.Priority() < b.Category.Priority()
	})
	return insights
}
