package export

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/attritionlab/attrition-engine/internal/models"
	"github.com/attritionlab/attrition-engine/internal/store"
	"github.com/attritionlab/attrition-engine/internal/store/storetest"
)

func sampleStore(t *testing.T) *store.Store {
	t.Helper()
	records := storetest.Cohort(1, 12, 4, func(i int, e *models.Employee) {
		e.Department = []string{"Sales", "R&D", "Human Resources, EMEA"}[i%3]
		e.AgeBand = store.AgeBands[i%len(store.AgeBands)]
		e.MonthlyIncome = 2500.75 + float64(i)*321.5
		e.YearsAtCompany = float64(i) / 4
		e.OverTime = i%2 == 0
	})
	return storetest.Build(t, records)
}

func TestRowsRoundTrip(t *testing.T) {
	st := sampleStore(t)
	sel, err := st.SelectIndices([]int{0, 2, 5, 7, 11})
	if err != nil {
		t.Fatalf("select: %v", err)
	}

	for _, delim := range []rune{',', ';', '\t'} {
		out, err := NewFormatter(WithDelimiter(delim)).Format(KindRows, Payload{Selection: sel})
		if err != nil {
			t.Fatalf("format: %v", err)
		}
		parsed, err := store.Load(context.Background(), store.ReaderSource{Reader: strings.NewReader(string(out)), Delimiter: delim})
		if err != nil {
			t.Fatalf("reparse with %q: %v", delim, err)
		}
		if parsed.Len() != sel.Len() {
			t.Fatalf("expected %d rows, got %d", sel.Len(), parsed.Len())
		}
		fields := store.DefaultSchema().Fields()
		for i := 0; i < sel.Len(); i++ {
			want, got := sel.At(i), parsed.At(i)
			for _, f := range fields {
				if f.Text(&want) != f.Text(&got) {
					t.Fatalf("row %d field %s: %q != %q", i, f.Name, f.Text(&want), f.Text(&got))
				}
			}
		}
	}
}

func TestRowsHeaderFollowsSchema(t *testing.T) {
	st := sampleStore(t)
	out, err := NewFormatter().Format(KindRows, Payload{Selection: st.Empty()})
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	want := strings.Join(store.DefaultSchema().Names(), ",") + "\n"
	if string(out) != want {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestSummaryExportRendersUndefined(t *testing.T) {
	out, err := NewFormatter().Format(KindSummary, Payload{Summary: models.Summary{}})
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	want := "kpi,value\n" +
		"total_count,0\n" +
		"current_count,0\n" +
		"attrition_count,0\n" +
		"attrition_rate,0\n" +
		"avg_tenure,undefined\n" +
		"avg_monthly_income,undefined\n"
	if string(out) != want {
		t.Fatalf("unexpected summary export:\n%s", out)
	}
}

func TestCorrelationExport(t *testing.T) {
	c := models.CorrelationResult{
		{Factor: store.FieldMonthlyIncome, Coefficient: models.Defined(-0.25)},
		{Factor: store.FieldJobLevel, Coefficient: models.Undefined()},
	}
	out, err := NewFormatter(WithDelimiter(';')).Format(KindCorrelation, Payload{Correlation: c})
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	want := "rank;factor;coefficient\n1;Monthly_Income;-0.25\n2;Job_Level;undefined\n"
	if string(out) != want {
		t.Fatalf("unexpected correlation export %q", out)
	}
}

func TestInsightsAndBreakdownExport(t *testing.T) {
	insights := []models.Insight{{
		Severity: models.SeverityHigh,
		Category: models.CategorySegment,
		Rule:     "segment_department",
		Message:  "Sales, at 30.0%, is high.",
	}}
	out, err := NewFormatter().Format(KindInsights, Payload{Insights: insights})
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	want := "rank,severity,category,rule,message\n1,high,segment,segment_department,\"Sales, at 30.0%, is high.\"\n"
	if string(out) != want {
		t.Fatalf("unexpected insights export %q", out)
	}

	breakdowns := []models.Breakdown{{
		Dimension: store.FieldDepartment,
		Groups:    []models.SegmentGroup{{Key: "Sales", Total: 4, Attrited: 1, Rate: 0.25}},
	}}
	out, err = NewFormatter(WithCRLF()).Format(KindBreakdown, Payload{Breakdowns: breakdowns})
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	want = "dimension,group,total,attrited,attrition_rate\r\nDepartment,Sales,4,1,0.25\r\n"
	if string(out) != want {
		t.Fatalf("unexpected breakdown export %q", out)
	}
}

func TestUnsupportedKind(t *testing.T) {
	_, err := NewFormatter().Format(Kind("pdf"), Payload{})
	var formatErr *FormatError
	if !errors.As(err, &formatErr) || formatErr.Kind != "pdf" {
		t.Fatalf("expected FormatError, got %v", err)
	}

	if _, err := ParseKind("xlsx"); !errors.As(err, &formatErr) {
		t.Fatalf("expected FormatError from ParseKind, got %v", err)
	}
	kind, err := ParseKind("Summary")
	if err != nil || kind != KindSummary {
		t.Fatalf("expected summary kind, got %q %v", kind, err)
	}
}

func TestFilename(t *testing.T) {
	at := time.Date(2024, 3, 9, 15, 0, 0, 0, time.UTC)
	if got := Filename(KindRows, at); got != "attrition_rows_20240309.csv" {
		t.Fatalf("unexpected filename %q", got)
	}
}
