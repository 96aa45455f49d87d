package engine

import (
	"math"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/attritionlab/attrition-engine/internal/models"
	"github.com/attritionlab/attrition-engine/internal/store"
)

// Rule identifiers in evaluation order.
const (
	RuleSegmentDepartment     = "segment_department"
	RuleSegmentAgeBand        = "segment_age_band"
	RuleSegmentBusinessTravel = "segment_business_travel"
	RuleCompensationGap       = "compensation_gap"
	RuleOvertime              = "overtime"
	RuleTraining              = "training"
	RuleSelectionVsPopulation = "selection_vs_population"
	RuleTopFactor             = "top_factor"
)

var printer = message.NewPrinter(language.English)

// Input is everything a rule may look at.
type Input struct {
	Store       *store.Store
	Selection   *store.Selection
	Summary     models.Summary
	Correlation models.CorrelationResult
	Breakdowns  []models.Breakdown
}

// breakdown returns the precomputed table for dim, tallying it on demand.
func (in Input) breakdown(dim string) models.Breakdown {
	for _, b := range in.Breakdowns {
		if b.Dimension == dim {
			return b
		}
	}
	b, _ := BreakdownBy(in.Selection, dim)
	return b
}

// Finding is the raw output of a rule before advice is attached.
type Finding struct {
	Severity models.Severity
	Message  string
	Metrics  map[string]float64
	// Advice replaces the rule's advice for this finding when set.
	Advice string
}

// Rule is a pure check over an Input.
type Rule struct {
	ID       string
	Category models.Category
	// Advice is appended to the finding message.
	Advice   string
	Evaluate func(in Input, th Thresholds) (Finding, bool)
}

// Apply runs the rule, returning nothing when the selection is below the
// minimum size.
func (r Rule) Apply(in Input, th Thresholds) (models.Insight, bool) {
	if in.Selection.Len() < th.MinSelectionSize {
		return models.Insight{}, false
	}
	f, ok := r.Evaluate(in, th)
	if !ok {
		return models.Insight{}, false
	}
	msg := f.Message
	advice := r.Advice
	if f.Advice != "" {
		advice = f.Advice
	}
	if advice != "" {
		msg += " " + advice
	}
	return models.Insight{
		Severity: f.Severity,
		Category: r.Category,
		Rule:     r.ID,
		Message:  msg,
		Metrics:  f.Metrics,
	}, true
}

// DefaultRules returns the built-in rules in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		segmentRule(RuleSegmentDepartment, store.FieldDepartment, "Department",
			"Target retention programs at these departments."),
		segmentRule(RuleSegmentAgeBand, store.FieldAgeBand, "Age band",
			"Review career paths and engagement for these age groups."),
		segmentRule(RuleSegmentBusinessTravel, store.FieldBusinessTravel, "Business travel",
			"Reassess travel demands for these groups."),
		{
			ID:       RuleCompensationGap,
			Category: models.CategoryCompensation,
			Advice:   "Benchmark pay for at-risk roles against the market.",
			Evaluate: compensationGap,
		},
		{
			ID:       RuleOvertime,
			Category: models.CategoryWorkLife,
			Advice:   "Review workload and overtime policies.",
			Evaluate: overtimeDisparity,
		},
		{
			ID:       RuleTraining,
			Category: models.CategoryDevelopment,
			Advice:   "Widen access to training for employees at risk.",
			Evaluate: trainingGap,
		},
		{
			ID:       RuleSelectionVsPopulation,
			Category: models.CategoryPopulation,
			Advice:   "Prioritize this group in retention planning.",
			Evaluate: selectionVsPopulation,
		},
		{
			ID:       RuleTopFactor,
			Category: models.CategoryFactor,
			Advice:   "Investigate this factor first.",
			Evaluate: topFactor,
		},
	}
}

// severity escalates base by one step when effect reaches twice threshold.
func severity(effect, threshold float64, base models.Severity) models.Severity {
	if effect < 2*threshold {
		return base
	}
	switch base {
	case models.SeverityLow:
		return models.SeverityMedium
	case models.SeverityMedium:
		return models.SeverityHigh
	default:
		return models.SeverityCritical
	}
}

func percent(rate float64) string {
	return printer.Sprintf("%.1f%%", rate*100)
}

func points(delta float64) string {
	return printer.Sprintf("%+.1f pts", delta*100)
}

func segmentRule(id, dimension, label, advice string) Rule {
	return Rule{
		ID:       id,
		Category: models.CategorySegment,
		Advice:   advice,
		Evaluate: func(in Input, th Thresholds) (Finding, bool) {
			overall := in.Summary.AttritionRate
			type offender struct {
				group  models.SegmentGroup
				excess float64
			}
			offenders := make([]offender, 0)
			for _, g := range in.breakdown(dimension).Groups {
				if g.Total < th.MinGroupSize {
					continue
				}
				if excess := g.Rate - overall; excess >= th.CategoryMargin && excess > 0 {
					offenders = append(offenders, offender{group: g, excess: excess})
				}
			}
			if len(offenders) == 0 {
				return Finding{}, false
			}
			sort.SliceStable(offenders, func(i, j int) bool {
				return offenders[i].excess > offenders[j].excess
			})

			parts := make([]string, len(offenders))
			metrics := map[string]float64{
				"selection_rate": overall,
				"max_excess":     offenders[0].excess,
			}
			for i, o := range offenders {
				parts[i] = printer.Sprintf("%s %s (%s)", o.group.Key, percent(o.group.Rate), points(o.excess))
				metrics["rate:"+o.group.Key] = o.group.Rate
			}
			return Finding{
				Severity: severity(offenders[0].excess, th.CategoryMargin, models.SeverityMedium),
				Message: printer.Sprintf("%s attrition is above the %s selection average in %s.",
					label, percent(overall), strings.Join(parts, ", ")),
				Metrics: metrics,
			}, true
		},
	}
}

// nonMonetaryAdvice replaces the compensation advice when leavers out-earned
// stayers.
const nonMonetaryAdvice = "Pay is not the driver here; investigate non-monetary factors such as workload, management and growth."

// split accumulates a value separately for leavers and stayers.
type split struct {
	leftSum, stayedSum float64
	left, stayed       int
}

func splitBy(sel *store.Selection, value func(e *models.Employee) float64) split {
	var s split
	sel.Each(func(e *models.Employee) {
		if e.Attrition {
			s.left++
			s.leftSum += value(e)
			return
		}
		s.stayed++
		s.stayedSum += value(e)
	})
	return s
}

// means reports false when either side is empty.
func (s split) means() (left, stayed float64, ok bool) {
	if s.left == 0 || s.stayed == 0 {
		return 0, 0, false
	}
	return s.leftSum / float64(s.left), s.stayedSum / float64(s.stayed), true
}

func compensationGap(in Input, th Thresholds) (Finding, bool) {
	s := splitBy(in.Selection, func(e *models.Employee) float64 { return e.MonthlyIncome })
	if s.left < th.MinGroupSize || s.stayed < th.MinGroupSize {
		return Finding{}, false
	}
	left, stayed, ok := s.means()
	if !ok || stayed <= 0 {
		return Finding{}, false
	}
	gap := left - stayed
	ratio := math.Abs(gap) / stayed
	if ratio < th.IncomeGapRatio || gap == 0 {
		return Finding{}, false
	}

	direction, advice := "less", ""
	if gap > 0 {
		direction, advice = "more", nonMonetaryAdvice
	}
	return Finding{
		Advice:   advice,
		Severity: severity(ratio, th.IncomeGapRatio, models.SeverityMedium),
		Message: printer.Sprintf("Employees who left earned $%.0f %s per month on average than those who stayed ($%.0f vs $%.0f, %.1f%%).",
			math.Abs(gap), direction, left, stayed, ratio*100),
		Metrics: map[string]float64{
			"mean_income_left":   left,
			"mean_income_stayed": stayed,
			"gap":                gap,
			"gap_ratio":          ratio,
		},
	}, true
}

func overtimeDisparity(in Input, th Thresholds) (Finding, bool) {
	var withOT, withoutOT models.SegmentGroup
	in.Selection.Each(func(e *models.Employee) {
		g := &withoutOT
		if e.OverTime {
			g = &withOT
		}
		g.Total++
		if e.Attrition {
			g.Attrited++
		}
	})
	if withOT.Total < th.MinGroupSize || withoutOT.Total < th.MinGroupSize {
		return Finding{}, false
	}
	withRate := rate(withOT.Attrited, withOT.Total)
	withoutRate := rate(withoutOT.Attrited, withoutOT.Total)
	disparity := withRate - withoutRate
	if math.Abs(disparity) < th.OvertimeDisparity || disparity == 0 {
		return Finding{}, false
	}
	return Finding{
		Severity: severity(math.Abs(disparity), th.OvertimeDisparity, models.SeverityMedium),
		Message: printer.Sprintf("Attrition is %s for employees working overtime vs %s without (%s).",
			percent(withRate), percent(withoutRate), points(disparity)),
		Metrics: map[string]float64{
			"rate_overtime":    withRate,
			"rate_no_overtime": withoutRate,
			"disparity":        disparity,
		},
	}, true
}

func trainingGap(in Input, th Thresholds) (Finding, bool) {
	s := splitBy(in.Selection, func(e *models.Employee) float64 { return float64(e.TrainingTimesLastYear) })
	if s.left < th.MinGroupSize || s.stayed < th.MinGroupSize {
		return Finding{}, false
	}
	left, stayed, ok := s.means()
	if !ok {
		return Finding{}, false
	}
	gap := stayed - left
	if math.Abs(gap) < th.TrainingGap || gap == 0 {
		return Finding{}, false
	}
	return Finding{
		Severity: severity(math.Abs(gap), th.TrainingGap, models.SeverityMedium),
		Message: printer.Sprintf("Employees who left averaged %.1f training sessions last year vs %.1f for those who stayed.",
			left, stayed),
		Metrics: map[string]float64{
			"mean_training_left":   left,
			"mean_training_stayed": stayed,
			"gap":                  gap,
		},
	}, true
}

func selectionVsPopulation(in Input, th Thresholds) (Finding, bool) {
	if in.Store == nil || in.Selection.Covers() {
		return Finding{}, false
	}
	population := Summarize(in.Store.All())
	excess := in.Summary.AttritionRate - population.AttritionRate
	if excess < th.PopulationMargin || excess <= 0 {
		return Finding{}, false
	}
	return Finding{
		Severity: severity(excess, th.PopulationMargin, models.SeverityLow),
		Message: printer.Sprintf("This selection's attrition rate of %s exceeds the company-wide %s (%s).",
			percent(in.Summary.AttritionRate), percent(population.AttritionRate), points(excess)),
		Metrics: map[string]float64{
			"selection_rate":  in.Summary.AttritionRate,
			"population_rate": population.AttritionRate,
			"excess":          excess,
		},
	}, true
}

func topFactor(in Input, th Thresholds) (Finding, bool) {
	strongest, ok := in.Correlation.Strongest()
	if !ok {
		return Finding{}, false
	}
	r, _ := strongest.Coefficient.Value()
	if math.Abs(r) < th.FactorStrength || r == 0 {
		return Finding{}, false
	}
	direction := "more"
	if r < 0 {
		direction = "less"
	}
	return Finding{
		Severity: severity(math.Abs(r), th.FactorStrength, models.SeverityLow),
		Message: printer.Sprintf("%s has the strongest association with attrition (r = %.3f): higher values go with %s attrition.",
			strongest.Factor, r, direction),
		Metrics: map[string]float64{"coefficient": r},
	}, true
}
