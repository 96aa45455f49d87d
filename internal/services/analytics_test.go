package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/attritionlab/attrition-engine/internal/engine"
	"github.com/attritionlab/attrition-engine/internal/export"
	"github.com/attritionlab/attrition-engine/internal/models"
	"github.com/attritionlab/attrition-engine/internal/store"
	"github.com/attritionlab/attrition-engine/internal/store/storetest"
	"github.com/attritionlab/attrition-engine/internal/utils"
)

// stubSource serves payloads in order, repeating the last one.
type stubSource struct {
	payloads [][]byte
	opens    int
	err      error
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) Open(context.Context) (store.RowReader, error) {
	if s.err != nil {
		return nil, s.err
	}
	i := s.opens
	if i >= len(s.payloads) {
		i = len(s.payloads) - 1
	}
	s.opens++
	return store.NewCSVRowReader(bytes.NewReader(s.payloads[i]), ',', nil)
}

// workforce has 40 rows: 20 Sales with 8 leavers and 20 R&D with 2.
func workforce() []models.Employee {
	return storetest.Cohort(1, 40, 0, func(i int, e *models.Employee) {
		if i < 20 {
			e.Department = "Sales"
			e.Attrition = i < 8
		} else {
			e.Attrition = i < 22
		}
	})
}

func newTestService(t *testing.T, payloads ...[]byte) (*AnalyticsService, *stubSource) {
	t.Helper()
	src := &stubSource{payloads: payloads}
	svc := NewAnalyticsService(nil, src, nil, nil)
	svc.now = func() time.Time { return time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC) }
	return svc, src
}

func TestAnalyzeBeforeLoad(t *testing.T) {
	svc, _ := newTestService(t, storetest.CSV(workforce()))
	if svc.Ready() {
		t.Fatalf("service must not be ready before a load")
	}
	_, err := svc.Analyze(context.Background(), nil)
	if utils.KindOf(err) != utils.KindUnavailable || !errors.Is(err, engine.ErrNoDataset) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
	if _, err := svc.Describe(); utils.KindOf(err) != utils.KindUnavailable {
		t.Fatalf("expected unavailable describe, got %v", err)
	}
}

func TestReloadAndAnalyze(t *testing.T) {
	svc, _ := newTestService(t, storetest.CSV(workforce()))
	ctx := context.Background()

	info, err := svc.Reload(ctx)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if info.Rows != 40 || info.Source != "stub" || info.Version == "" {
		t.Fatalf("unexpected dataset info %+v", info)
	}
	if len(info.Fields) != len(store.DefaultSchema().Fields()) {
		t.Fatalf("expected every schema field, got %d", len(info.Fields))
	}
	if info.Thresholds != engine.DefaultThresholds() {
		t.Fatalf("expected default thresholds, got %+v", info.Thresholds)
	}
	if !svc.Ready() {
		t.Fatalf("service should be ready after a load")
	}

	analysis, err := svc.Analyze(ctx, models.FilterSpec{store.FieldDepartment: models.OneOf("Sales")})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if analysis.Summary.TotalCount != 20 || analysis.Summary.AttritionCount != 8 {
		t.Fatalf("unexpected summary %+v", analysis.Summary)
	}
	if analysis.DatasetVersion != info.Version {
		t.Fatalf("analysis ran against %s, want %s", analysis.DatasetVersion, info.Version)
	}
}

func TestAnalyzeRejectsInvalidFilter(t *testing.T) {
	svc, _ := newTestService(t, storetest.CSV(workforce()))
	if _, err := svc.Reload(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}

	specs := []models.FilterSpec{
		{"Salary_Band": models.OneOf("A")},
		{store.FieldDepartment: models.Between(1, 2)},
	}
	for _, spec := range specs {
		_, err := svc.Analyze(context.Background(), spec)
		if utils.KindOf(err) != utils.KindInvalid || !errors.Is(err, engine.ErrInvalidFilter) {
			t.Fatalf("expected invalid filter error for %s, got %v", spec.CanonicalKey(), err)
		}
	}

	// Unsatisfiable but well-formed constraints select nothing.
	analysis, err := svc.Analyze(context.Background(), models.FilterSpec{store.FieldJobLevel: models.Between(5, 1)})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if analysis.Summary.TotalCount != 0 || len(analysis.Insights) != 0 {
		t.Fatalf("expected an empty analysis, got %+v", analysis.Summary)
	}
}

func TestReloadFailureKeepsPreviousDataset(t *testing.T) {
	broken := []byte("Employee_Number,Department\nSTAFF-1,Sales\n")
	svc, _ := newTestService(t, storetest.CSV(workforce()), broken)
	ctx := context.Background()

	first, err := svc.Reload(ctx)
	if err != nil {
		t.Fatalf("first reload: %v", err)
	}
	_, err = svc.Reload(ctx)
	var schemaErr *store.SchemaError
	if utils.KindOf(err) != utils.KindInvalid || !errors.As(err, &schemaErr) {
		t.Fatalf("expected schema rejection, got %v", err)
	}
	if svc.Store().Version() != first.Version {
		t.Fatalf("failed reload must keep the previous dataset")
	}
}

func TestReloadSwapsDataset(t *testing.T) {
	grown := append(workforce(), storetest.Cohort(100, 5, 5, nil)...)
	svc, _ := newTestService(t, storetest.CSV(workforce()), storetest.CSV(grown))
	ctx := context.Background()

	first, err := svc.Reload(ctx)
	if err != nil {
		t.Fatalf("first reload: %v", err)
	}
	second, err := svc.Reload(ctx)
	if err != nil {
		t.Fatalf("second reload: %v", err)
	}
	if second.Version == first.Version || second.Rows != 45 {
		t.Fatalf("expected a new dataset, got %+v", second)
	}
	analysis, err := svc.Analyze(ctx, nil)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if analysis.Summary.TotalCount != 45 {
		t.Fatalf("analysis should see the reloaded rows, got %d", analysis.Summary.TotalCount)
	}
}

func TestReloadErrors(t *testing.T) {
	svc := NewAnalyticsService(nil, nil, nil, nil)
	if _, err := svc.Reload(context.Background()); utils.KindOf(err) != utils.KindUnavailable {
		t.Fatalf("expected unavailable without a source, got %v", err)
	}

	failing, _ := newTestService(t)
	failing.source = &stubSource{err: errors.New("connection refused")}
	if _, err := failing.Reload(context.Background()); utils.KindOf(err) != utils.KindInternal || err == nil {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestExport(t *testing.T) {
	svc, _ := newTestService(t, storetest.CSV(workforce()))
	ctx := context.Background()
	if _, err := svc.Reload(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}

	result, err := svc.Export(ctx, export.KindSummary, models.FilterSpec{store.FieldDepartment: models.OneOf("Sales")})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if result.Filename != "attrition_summary_20240309.csv" || result.Rows != 6 {
		t.Fatalf("unexpected export result %+v", result)
	}
	if !strings.HasPrefix(string(result.Data), "kpi,value\ntotal_count,20\n") {
		t.Fatalf("unexpected export data %q", result.Data)
	}

	rows, err := svc.Export(ctx, export.KindRows, models.FilterSpec{store.FieldAttrition: models.OneOf(models.Yes)})
	if err != nil {
		t.Fatalf("rows export: %v", err)
	}
	if rows.Rows != 10 || strings.Count(string(rows.Data), "\n") != 11 {
		t.Fatalf("expected 10 data rows plus header, got %d: %q", rows.Rows, rows.Data)
	}

	if _, err := svc.Export(ctx, export.Kind("pdf"), nil); utils.KindOf(err) != utils.KindInvalid {
		t.Fatalf("expected invalid kind error, got %v", err)
	}

	name, data, err := svc.ExportCSV(ctx, export.KindBreakdown, nil)
	if err != nil || name != "attrition_breakdown_20240309.csv" || !strings.HasPrefix(string(data), "dimension,group,") {
		t.Fatalf("unexpected breakdown download %q %q %v", name, data, err)
	}
}
