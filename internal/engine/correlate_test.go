package engine

import (
	"math"
	"testing"

	"github.com/attritionlab/attrition-engine/internal/models"
	"github.com/attritionlab/attrition-engine/internal/store"
	"github.com/attritionlab/attrition-engine/internal/store/storetest"
)

func TestCorrelateRanksFactors(t *testing.T) {
	records := storetest.Cohort(1, 40, 10, func(i int, e *models.Employee) {
		if e.Attrition {
			e.MonthlyIncome = 3000 + float64(i)
			e.YearsAtCompany = 1
		} else {
			e.MonthlyIncome = 7000 + float64(i)
			e.YearsAtCompany = float64(2 + i%7)
		}
		e.TrainingTimesLastYear = i % 5
	})
	st := storetest.Build(t, records)

	result := Correlate(st.All())
	if len(result) != len(store.DefaultSchema().NumericFields()) {
		t.Fatalf("expected one entry per numeric field, got %d", len(result))
	}
	if result[0].Factor != store.FieldMonthlyIncome {
		t.Fatalf("expected income to rank first, got %s", result[0].Factor)
	}
	if r, _ := result[0].Coefficient.Value(); r >= 0 {
		t.Fatalf("expected negative income correlation, got %v", r)
	}

	seenUndefined := false
	prev := math.Inf(1)
	for _, fc := range result {
		r, ok := fc.Coefficient.Value()
		if !ok {
			seenUndefined = true
			continue
		}
		if seenUndefined {
			t.Fatalf("defined coefficient %s after an undefined one", fc.Factor)
		}
		if r < -1 || r > 1 {
			t.Fatalf("coefficient out of range: %v", r)
		}
		if math.Abs(r) > prev {
			t.Fatalf("coefficients not sorted by magnitude at %s", fc.Factor)
		}
		prev = math.Abs(r)
		if fc.Samples != 40 {
			t.Fatalf("expected 40 samples, got %d", fc.Samples)
		}
	}
}

func TestCorrelateConstantFieldIsUndefinedAndLast(t *testing.T) {
	records := storetest.Cohort(1, 30, 8, func(i int, e *models.Employee) {
		e.MonthlyIncome = float64(4000 + i*37)
		e.JobSatisfaction = 3
	})
	st := storetest.Build(t, records)

	result := Correlate(st.All())
	idx := -1
	for i, fc := range result {
		if fc.Factor == store.FieldJobSatisfaction {
			idx = i
			if fc.Coefficient.IsDefined() {
				t.Fatalf("constant field must be undefined, got %v", fc.Coefficient)
			}
		}
	}
	if idx < 0 {
		t.Fatalf("Job_Satisfaction missing from result")
	}
	if !result[0].Coefficient.IsDefined() {
		t.Fatalf("expected the varying income column to rank first")
	}
	for _, fc := range result[idx:] {
		if fc.Coefficient.IsDefined() {
			t.Fatalf("defined entry %s sorted after the constant field", fc.Factor)
		}
	}
}

func TestCorrelateUndefinedCasesKeepDeclarationOrder(t *testing.T) {
	st := salesStore(t)
	empty := Correlate(st.Empty())
	fields := store.DefaultSchema().NumericFields()
	for i, fc := range empty {
		if fc.Coefficient.IsDefined() {
			t.Fatalf("empty selection must give undefined coefficients")
		}
		if fc.Factor != fields[i].Name {
			t.Fatalf("expected declaration order, got %s at %d", fc.Factor, i)
		}
	}

	single, _ := st.SelectIndices([]int{0})
	for _, fc := range Correlate(single) {
		if fc.Coefficient.IsDefined() {
			t.Fatalf("single row must give undefined coefficients")
		}
	}
}

func TestPearsonPerfectAndClamped(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	if r, ok := pearson(x, []float64{0, 0, 1, 1}).Value(); !ok || r <= 0.8 {
		t.Fatalf("expected strong positive correlation, got %v", r)
	}
	if r, _ := pearson(x, []float64{2, 4, 6, 8}).Value(); r > 1 || math.Abs(r-1) > 1e-12 {
		t.Fatalf("expected r = 1, got %v", r)
	}
	if pearson(x, []float64{1, 1, 1, 1}).IsDefined() {
		t.Fatalf("zero variance must be undefined")
	}
}
