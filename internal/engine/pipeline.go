package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/attritionlab/attrition-engine/internal/cache"
	"github.com/attritionlab/attrition-engine/internal/metrics"
	"github.com/attritionlab/attrition-engine/internal/models"
	"github.com/attritionlab/attrition-engine/internal/store"
)

// ErrNoDataset is returned when an analysis is requested before any dataset
// has been loaded.
var ErrNoDataset = errors.New("no dataset loaded")

// Analysis is the full result of one filter request.
type Analysis struct {
	ID             string                   `json:"id"`
	DatasetVersion string                   `json:"dataset_version"`
	Filter         models.FilterSpec        `json:"filter"`
	Summary        models.Summary           `json:"summary"`
	Correlation    models.CorrelationResult `json:"correlation"`
	Breakdowns     []models.Breakdown       `json:"breakdowns"`
	Insights       []models.Insight         `json:"insights"`
	GeneratedAt    time.Time                `json:"generated_at"`
	Cached         bool                     `json:"cached"`

	// Selection is the filtered view the results were computed from.
	Selection *store.Selection `json:"-"`
}

// cachedAnalysis is the cache payload; the selection travels as row indices.
type cachedAnalysis struct {
	Analysis
	Rows []int `json:"rows"`
}

// Pipeline runs filter, aggregation, correlation, breakdown and insight
// generation for one request.
type Pipeline struct {
	logger    *slog.Logger
	generator *Generator
	cache     cache.Provider
	cacheTTL  time.Duration
}

// NewPipeline constructs a pipeline. A nil cache disables result caching.
func NewPipeline(logger *slog.Logger, generator *Generator, cacheProvider cache.Provider, cacheTTL time.Duration) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if generator == nil {
		generator = NewGenerator(DefaultThresholds(), logger)
	}
	if cacheProvider == nil {
		cacheProvider = cache.NoopProvider{}
	}
	return &Pipeline{
		logger:    logger,
		generator: generator,
		cache:     cacheProvider,
		cacheTTL:  cacheTTL,
	}
}

// Thresholds returns the thresholds the insight generator evaluates with.
func (p *Pipeline) Thresholds() Thresholds {
	return p.generator.Thresholds()
}

// Analyze filters st with spec and computes every result over the selection.
// Results for the same dataset version and canonical filter are served from
// the cache when one is configured.
func (p *Pipeline) Analyze(ctx context.Context, st *store.Store, spec models.FilterSpec) (Analysis, error) {
	if st == nil {
		return Analysis{}, ErrNoDataset
	}
	if err := ctx.Err(); err != nil {
		return Analysis{}, err
	}

	key := cache.AnalysisKey(st.Version(), spec.CanonicalKey())
	if analysis, ok := p.fromCache(ctx, st, key); ok {
		analysis.Filter = spec
		return analysis, nil
	}

	sel := Select(st, spec)
	var (
		summary     models.Summary
		correlation models.CorrelationResult
		breakdowns  []models.Breakdown
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		summary = Summarize(sel)
		return gctx.Err()
	})
	g.Go(func() error {
		correlation = Correlate(sel)
		return gctx.Err()
	})
	g.Go(func() error {
		breakdowns = Breakdowns(sel)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return Analysis{}, err
	}

	analysis := Analysis{
		ID:             uuid.NewString(),
		DatasetVersion: st.Version(),
		Filter:         spec,
		Summary:        summary,
		Correlation:    correlation,
		Breakdowns:     breakdowns,
		Insights:       p.generator.Generate(st, sel, summary, correlation, breakdowns),
		GeneratedAt:    time.Now().UTC(),
		Selection:      sel,
	}

	p.logger.Debug("analysis computed",
		slog.String("id", analysis.ID),
		slog.String("filter", spec.CanonicalKey()),
		slog.Int("rows", sel.Len()),
		slog.Int("insights", len(analysis.Insights)))

	p.toCache(ctx, key, analysis)
	return analysis, nil
}

func (p *Pipeline) fromCache(ctx context.Context, st *store.Store, key string) (Analysis, bool) {
	payload, err := p.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			p.logger.Warn("analysis cache read failed", slog.String("key", key), slog.Any("error", err))
		}
		metrics.ObserveCacheLookup(false)
		return Analysis{}, false
	}

	var cached cachedAnalysis
	if err := json.Unmarshal(payload, &cached); err != nil {
		p.logger.Warn("discarding undecodable cache entry", slog.String("key", key), slog.Any("error", err))
		_ = p.cache.Del(ctx, key)
		metrics.ObserveCacheLookup(false)
		return Analysis{}, false
	}
	sel, err := st.SelectIndices(cached.Rows)
	if err != nil {
		p.logger.Warn("discarding stale cache entry", slog.String("key", key), slog.Any("error", err))
		_ = p.cache.Del(ctx, key)
		metrics.ObserveCacheLookup(false)
		return Analysis{}, false
	}

	metrics.ObserveCacheLookup(true)
	analysis := cached.Analysis
	analysis.Selection = sel
	analysis.Cached = true
	return analysis, true
}

func (p *Pipeline) toCache(ctx context.Context, key string, analysis Analysis) {
	if _, ok := p.cache.(cache.NoopProvider); ok {
		return
	}
	payload, err := json.Marshal(cachedAnalysis{Analysis: analysis, Rows: analysis.Selection.Indices()})
	if err != nil {
		p.logger.Warn("encode analysis for cache", slog.Any("error", err))
		return
	}
	if err := p.cache.Set(ctx, key, payload, p.cacheTTL); err != nil {
		p.logger.Warn("analysis cache write failed", slog.String("key", key), slog.Any("error", fmt.Errorf("set %s: %w", key, err)))
	}
}
