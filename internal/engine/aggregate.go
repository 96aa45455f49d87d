package engine

import (
	"github.com/attritionlab/attrition-engine/internal/models"
	"github.com/attritionlab/attrition-engine/internal/store"
)

// Summarize computes the headline KPIs of a selection. An empty selection
// reports a zero attrition rate and undefined means.
func Summarize(sel *store.Selection) models.Summary {
	var (
		summary   models.Summary
		tenureSum float64
		incomeSum float64
	)
	sel.Each(func(e *models.Employee) {
		summary.TotalCount++
		if e.Attrition {
			summary.AttritionCount++
		}
		tenureSum += e.YearsAtCompany
		incomeSum += e.MonthlyIncome
	})

	summary.CurrentCount = summary.TotalCount - summary.AttritionCount
	summary.AttritionRate = rate(summary.AttritionCount, summary.TotalCount)
	summary.AvgTenure = meanOf(tenureSum, summary.TotalCount)
	summary.AvgMonthlyIncome = meanOf(incomeSum, summary.TotalCount)
	return summary
}

func rate(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total)
}

func meanOf(sum float64, n int) models.Measure {
	if n == 0 {
		return models.Undefined()
	}
	return models.Defined(sum / float64(n))
}
