package models

// KPI names reported by Summary.KPIs, in export order.
const (
	KPITotalCount       = "total_count"
	KPICurrentCount     = "current_count"
	KPIAttritionCount   = "attrition_count"
	KPIAttritionRate    = "attrition_rate"
	KPIAvgTenure        = "avg_tenure"
	KPIAvgMonthlyIncome = "avg_monthly_income"
)

// Summary holds the headline metrics of a selection.
type Summary struct {
	TotalCount       int     `json:"total_count"`
	CurrentCount     int     `json:"current_count"`
	AttritionCount   int     `json:"attrition_count"`
	AttritionRate    float64 `json:"attrition_rate"`
	AvgTenure        Measure `json:"avg_tenure"`
	AvgMonthlyIncome Measure `json:"avg_monthly_income"`
}

// KPI is a single named scalar.
type KPI struct {
	Name  string  `json:"name"`
	Value Measure `json:"value"`
}

// KPIs flattens the summary into its fixed name order.
func (s Summary) KPIs() []KPI {
	return []KPI{
		{Name: KPITotalCount, Value: Defined(float64(s.TotalCount))},
		{Name: KPICurrentCount, Value: Defined(float64(s.CurrentCount))},
		{Name: KPIAttritionCount, Value: Defined(float64(s.AttritionCount))},
		{Name: KPIAttritionRate, Value: Defined(s.AttritionRate)},
		{Name: KPIAvgTenure, Value: s.AvgTenure},
		{Name: KPIAvgMonthlyIncome, Value: s.AvgMonthlyIncome},
	}
}

// FactorCorrelation is the association of one field with attrition.
type FactorCorrelation struct {
	Factor      string  `json:"factor"`
	Coefficient Measure `json:"coefficient"`
	Samples     int     `json:"samples"`
}

// CorrelationResult is ordered by descending absolute coefficient, with
// undefined coefficients last.
type CorrelationResult []FactorCorrelation

// Strongest returns the first defined factor, if any.
func (c CorrelationResult) Strongest() (FactorCorrelation, bool) {
	for _, f := range c {
		if f.Coefficient.IsDefined() {
			return f, true
		}
	}
	return FactorCorrelation{}, false
}

// Severity captures how strongly an insight deserves attention.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank orders severities; higher is more severe.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Category groups insights by the area they speak to.
type Category string

const (
	CategorySegment      Category = "segment"
	CategoryCompensation Category = "compensation"
	CategoryWorkLife     Category = "work_life"
	CategoryDevelopment  Category = "development"
	CategoryPopulation   Category = "population"
	CategoryFactor       Category = "factor"
)

// Priority orders categories of equal severity; lower comes first.
func (c Category) Priority() int {
	switch c {
	case CategorySegment:
		return 0
	case CategoryCompensation:
		return 1
	case CategoryWorkLife:
		return 2
	case CategoryDevelopment:
		return 3
	case CategoryPopulation:
		return 4
	case CategoryFactor:
		return 5
	default:
		return 6
	}
}

// Insight is one rule-generated finding.
type Insight struct {
	Severity Severity           `json:"severity"`
	Category Category           `json:"category"`
	Rule     string             `json:"rule"`
	Message  string             `json:"message"`
	Metrics  map[string]float64 `json:"metrics,omitempty"`
}

// SegmentGroup is the attrition tally of one category value.
type SegmentGroup struct {
	Key      string  `json:"key"`
	Total    int     `json:"total"`
	Attrited int     `json:"attrited"`
	Rate     float64 `json:"rate"`
}

// Breakdown tallies attrition per value of one dimension.
type Breakdown struct {
	Dimension string         `json:"dimension"`
	Groups    []SegmentGroup `json:"groups"`
}

// Group looks up a group by key.
func (b Breakdown) Group(key string) (SegmentGroup, bool) {
	for _, g := range b.Groups {
		if g.Key == key {
			return g, true
		}
	}
	return SegmentGroup{}, false
}
