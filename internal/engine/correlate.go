package engine

import (
	"math"
	"sort"

	"github.com/attritionlab/attrition-engine/internal/models"
	"github.com/attritionlab/attrition-engine/internal/store"
)

// Correlate computes the Pearson coefficient between every numeric, ordinal
// and count field and the attrition outcome encoded as 0/1. Results are
// ordered by descending absolute coefficient; ties keep declaration order and
// undefined coefficients (constant columns, fewer than two rows) come last.
func Correlate(sel *store.Selection) models.CorrelationResult {
	fields := store.DefaultSchema().NumericFields()
	n := sel.Len()

	outcome := make([]float64, 0, n)
	columns := make([][]float64, len(fields))
	for i := range columns {
		columns[i] = make([]float64, 0, n)
	}
	sel.Each(func(e *models.Employee) {
		y := 0.0
		if e.Attrition {
			y = 1
		}
		outcome = append(outcome, y)
		for i, f := range fields {
			v, _ := f.Number(e)
			columns[i] = append(columns[i], v)
		}
	})

	result := make(models.CorrelationResult, len(fields))
	for i, f := range fields {
		result[i] = models.FactorCorrelation{
			Factor:      f.Name,
			Coefficient: pearson(columns[i], outcome),
			Samples:     n,
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		a, aok := result[i].Coefficient.Value()
		b, bok := result[j].Coefficient.Value()
		if aok != bok {
			return aok
		}
		if !aok {
			return false
		}
		return math.Abs(a) > math.Abs(b)
	})
	return result
}

// pearson returns the product-moment correlation of x and y, or Undefined
// when either series is constant or shorter than two samples.
func pearson(x, y []float64) models.Measure {
	n := len(x)
	if n < 2 || len(y) != n || constant(x) || constant(y) {
		return models.Undefined()
	}

	mx, my := mean(x), mean(y)
	var sxy, sxx, syy float64
	for i := 0; i < n; i++ {
		dx := x[i] - mx
		dy := y[i] - my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return models.Undefined()
	}

	r := sxy / math.Sqrt(sxx*syy)
	if math.IsNaN(r) {
		return models.Undefined()
	}
	return models.Defined(clamp(r, -1, 1))
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func constant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}

func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
