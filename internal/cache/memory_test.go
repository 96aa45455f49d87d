package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryProviderRoundTrip(t *testing.T) {
	p, err := NewMemoryProvider(2, time.Minute)
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	ctx := context.Background()

	if _, err := p.Get(ctx, "a"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss, got %v", err)
	}

	value := []byte("payload")
	if err := p.Set(ctx, "a", value, 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	value[0] = 'X'

	got, err := p.Get(ctx, "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "payload" {
		t.Fatalf("cached bytes must not alias the caller's slice, got %q", got)
	}

	if err := p.Del(ctx, "a"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if _, err := p.Get(ctx, "a"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss after delete, got %v", err)
	}
}

func TestMemoryProviderEvictsLeastRecentlyUsed(t *testing.T) {
	p, err := NewMemoryProvider(2, 0)
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	ctx := context.Background()
	_ = p.Set(ctx, "a", []byte("1"), 0)
	_ = p.Set(ctx, "b", []byte("2"), 0)
	if _, err := p.Get(ctx, "a"); err != nil {
		t.Fatalf("get a: %v", err)
	}
	_ = p.Set(ctx, "c", []byte("3"), 0)

	if _, err := p.Get(ctx, "b"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected b to be evicted, got %v", err)
	}
	if p.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", p.Len())
	}
}

func TestMemoryProviderSetNX(t *testing.T) {
	p, _ := NewMemoryProvider(4, time.Minute)
	ctx := context.Background()

	ok, err := p.SetNX(ctx, "k", []byte("first"), 0)
	if err != nil || !ok {
		t.Fatalf("expected first SetNX to store, got %v %v", ok, err)
	}
	ok, err = p.SetNX(ctx, "k", []byte("second"), 0)
	if err != nil || ok {
		t.Fatalf("expected second SetNX to be rejected, got %v %v", ok, err)
	}
	got, _ := p.Get(ctx, "k")
	if string(got) != "first" {
		t.Fatalf("unexpected value %q", got)
	}
}

func TestMemoryProviderHonoursContext(t *testing.T) {
	p, _ := NewMemoryProvider(1, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Set(ctx, "k", []byte("v"), 0); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewMemoryProviderRejectsNegativeSize(t *testing.T) {
	if _, err := NewMemoryProvider(-1, 0); err == nil {
		t.Fatalf("expected error for negative size")
	}
}

func TestAnalysisKeyDependsOnVersionAndFilter(t *testing.T) {
	base := AnalysisKey("v1", "*")
	if base != AnalysisKey("v1", "*") {
		t.Fatalf("key must be deterministic")
	}
	if base == AnalysisKey("v2", "*") {
		t.Fatalf("key must change with the dataset version")
	}
	if base == AnalysisKey("v1", `"Department"=in["Sales"]`) {
		t.Fatalf("key must change with the filter")
	}
}

func TestNoopProvider(t *testing.T) {
	var p Provider = NoopProvider{}
	ctx := context.Background()
	if err := p.Set(ctx, "k", []byte("v"), time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := p.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("noop cache must always miss, got %v", err)
	}
}
