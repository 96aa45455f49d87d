package engine

import (
	"sort"
	"strconv"

	"github.com/attritionlab/attrition-engine/internal/models"
	"github.com/attritionlab/attrition-engine/internal/store"
)

// DimensionTenureBand groups Years_At_Company into the half-open bands of
// TenureBands.
const DimensionTenureBand = "Tenure_Band"

// TenureBands are the Tenure_Band keys in ascending order. Each band covers
// [lower, upper) years; the last is open ended.
var TenureBands = []string{"0-2", "2-5", "5-10", "10-20", "20+"}

var tenureBounds = []float64{2, 5, 10, 20}

// BreakdownDimensions lists what Breakdowns tallies, in output order.
var BreakdownDimensions = []string{
	store.FieldDepartment,
	store.FieldAgeBand,
	store.FieldBusinessTravel,
	store.FieldOverTime,
	store.FieldJobLevel,
	store.FieldPerformanceRating,
	store.FieldJobSatisfaction,
	store.FieldEnvironmentSatisfaction,
	store.FieldRelationshipSatisfaction,
	store.FieldWorkLifeBalance,
	store.FieldTrainingTimesLastYear,
	DimensionTenureBand,
}

// Breakdowns tallies attrition per group for every dimension in
// BreakdownDimensions.
func Breakdowns(sel *store.Selection) []models.Breakdown {
	out := make([]models.Breakdown, 0, len(BreakdownDimensions))
	for _, dim := range BreakdownDimensions {
		if b, ok := BreakdownBy(sel, dim); ok {
			out = append(out, b)
		}
	}
	return out
}

// BreakdownBy tallies attrition per value of one dimension. Groups follow
// the field's declared domain when it has one, numeric order for numeric
// fields and lexical order otherwise. Values absent from the selection are
// omitted. ok is false for unknown dimensions and the identifier column.
func BreakdownBy(sel *store.Selection, dimension string) (models.Breakdown, bool) {
	if dimension == DimensionTenureBand {
		return tally(sel, dimension, tenureBand, TenureBands), true
	}

	field, ok := store.DefaultSchema().Field(dimension)
	if !ok || field.Kind == store.KindIdentifier {
		return models.Breakdown{}, false
	}

	b := tally(sel, dimension, field.Text, field.Domain)
	if field.Domain == nil {
		numeric := field.Kind.IsNumeric()
		sort.SliceStable(b.Groups, func(i, j int) bool {
			if numeric {
				a, _ := strconv.ParseFloat(b.Groups[i].Key, 64)
				c, _ := strconv.ParseFloat(b.Groups[j].Key, 64)
				return a < c
			}
			return b.Groups[i].Key < b.Groups[j].Key
		})
	}
	return b, true
}

func tally(sel *store.Selection, dimension string, key func(*models.Employee) string, order []string) models.Breakdown {
	groups := make(map[string]*models.SegmentGroup)
	seen := make([]string, 0)
	sel.Each(func(e *models.Employee) {
		k := key(e)
		g, ok := groups[k]
		if !ok {
			g = &models.SegmentGroup{Key: k}
			groups[k] = g
			seen = append(seen, k)
		}
		g.Total++
		if e.Attrition {
			g.Attrited++
		}
	})

	keys := seen
	if order != nil {
		keys = make([]string, 0, len(groups))
		for _, k := range order {
			if _, ok := groups[k]; ok {
				keys = append(keys, k)
			}
		}
	}

	out := models.Breakdown{Dimension: dimension, Groups: make([]models.SegmentGroup, 0, len(keys))}
	for _, k := range keys {
		g := groups[k]
		g.Rate = rate(g.Attrited, g.Total)
		out.Groups = append(out.Groups, *g)
	}
	return out
}

func tenureBand(e *models.Employee) string {
	for i, bound := range tenureBounds {
		if e.YearsAtCompany < bound {
			return TenureBands[i]
		}
	}
	return TenureBands[len(TenureBands)-1]
}
