package services

import (
	"context"
	"strings"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/attritionlab/attrition-engine/internal/api"
	"github.com/attritionlab/attrition-engine/internal/engine"
	"github.com/attritionlab/attrition-engine/internal/store/storetest"
)

func mustStruct(t *testing.T, doc map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(doc)
	if err != nil {
		t.Fatalf("build struct: %v", err)
	}
	return s
}

func TestGRPCAnalyze(t *testing.T) {
	svc, _ := newTestService(t, storetest.CSV(workforce()))
	g := NewGRPCService(nil, svc)
	ctx := context.Background()

	if _, err := g.Analyze(ctx, nil); status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("expected FailedPrecondition before load, got %v", err)
	}
	if _, err := g.Reload(ctx, nil); err != nil {
		t.Fatalf("reload: %v", err)
	}

	req := mustStruct(t, map[string]any{
		"filter": map[string]any{"Department": map[string]any{"values": []any{"Sales"}}},
	})
	resp, err := g.Analyze(ctx, req)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	var analysis engine.Analysis
	if err := api.FromStruct(resp, &analysis); err != nil {
		t.Fatalf("decode analysis: %v", err)
	}
	if analysis.Summary.TotalCount != 20 || analysis.ID == "" {
		t.Fatalf("unexpected analysis %+v", analysis)
	}

	bad := mustStruct(t, map[string]any{
		"filter": map[string]any{"Salary_Band": map[string]any{"values": []any{"A"}}},
	})
	if _, err := g.Analyze(ctx, bad); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument for unknown field, got %v", err)
	}
	malformed := mustStruct(t, map[string]any{"filter": []any{"Sales"}})
	if _, err := g.Analyze(ctx, malformed); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument for malformed filter, got %v", err)
	}
}

func TestGRPCExport(t *testing.T) {
	svc, _ := newTestService(t, storetest.CSV(workforce()))
	g := NewGRPCService(nil, svc)
	ctx := context.Background()
	if _, err := g.Reload(ctx, nil); err != nil {
		t.Fatalf("reload: %v", err)
	}

	resp, err := g.Export(ctx, mustStruct(t, map[string]any{"kind": "correlation"}))
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	fields := resp.GetFields()
	if fields["filename"].GetStringValue() != "attrition_correlation_20240309.csv" {
		t.Fatalf("unexpected filename %v", fields["filename"])
	}
	if !strings.HasPrefix(fields["content"].GetStringValue(), "rank,factor,coefficient\n") {
		t.Fatalf("unexpected content %q", fields["content"].GetStringValue())
	}

	_, err = g.Export(ctx, mustStruct(t, map[string]any{"kind": "pdf"}))
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument for unsupported kind, got %v", err)
	}
	_, err = g.Export(ctx, mustStruct(t, map[string]any{"kind": 7}))
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument for non-string kind, got %v", err)
	}
}

func TestGRPCDescribe(t *testing.T) {
	svc, _ := newTestService(t, storetest.CSV(workforce()))
	g := NewGRPCService(nil, svc)
	ctx := context.Background()

	if _, err := g.Describe(ctx, nil); status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("expected FailedPrecondition before load, got %v", err)
	}
	if _, err := g.Reload(ctx, nil); err != nil {
		t.Fatalf("reload: %v", err)
	}
	resp, err := g.Describe(ctx, nil)
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	var info DatasetInfo
	if err := api.FromStruct(resp, &info); err != nil {
		t.Fatalf("decode info: %v", err)
	}
	if info.Rows != 40 || info.Source != "stub" {
		t.Fatalf("unexpected info %+v", info)
	}
}

func TestGRPCWithoutAnalytics(t *testing.T) {
	g := NewGRPCService(nil, nil)
	if _, err := g.Export(context.Background(), nil); status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("expected FailedPrecondition, got %v", err)
	}
}
