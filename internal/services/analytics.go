package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/attritionlab/attrition-engine/internal/engine"
	"github.com/attritionlab/attrition-engine/internal/export"
	"github.com/attritionlab/attrition-engine/internal/metrics"
	"github.com/attritionlab/attrition-engine/internal/models"
	"github.com/attritionlab/attrition-engine/internal/store"
	"github.com/attritionlab/attrition-engine/internal/utils"
)

// FieldInfo describes one dataset column.
type FieldInfo struct {
	Name   string   `json:"name"`
	Kind   string   `json:"kind"`
	Domain []string `json:"domain,omitempty"`
}

// DatasetInfo reports the currently loaded dataset.
type DatasetInfo struct {
	Source     string            `json:"source"`
	Version    string            `json:"version"`
	Rows       int               `json:"rows"`
	LoadedAt   time.Time         `json:"loaded_at"`
	Fields     []FieldInfo       `json:"fields"`
	Thresholds engine.Thresholds `json:"thresholds"`
}

// ExportResult is one rendered export.
type ExportResult struct {
	Kind     export.Kind `json:"kind"`
	Filename string      `json:"filename"`
	Rows     int         `json:"rows"`
	Data     []byte      `json:"-"`
}

// AnalyticsService holds the current dataset and answers analysis and export
// requests against it. A reload swaps the dataset wholesale; requests already
// running keep the store they started with.
type AnalyticsService struct {
	logger    *slog.Logger
	source    store.Source
	pipeline  *engine.Pipeline
	formatter *export.Formatter
	latencies *utils.LatencyTracker
	analyses  atomic.Int64
	now       func() time.Time

	reloadMu sync.Mutex
	current  atomic.Pointer[store.Store]
}

// NewAnalyticsService constructs the service facade. source may be nil when
// the store is provided through SetStore.
func NewAnalyticsService(logger *slog.Logger, source store.Source, pipeline *engine.Pipeline, formatter *export.Formatter) *AnalyticsService {
	if logger == nil {
		logger = slog.Default()
	}
	if pipeline == nil {
		pipeline = engine.NewPipeline(logger, nil, nil, 0)
	}
	if formatter == nil {
		formatter = export.NewFormatter()
	}
	return &AnalyticsService{
		logger:    logger,
		source:    source,
		pipeline:  pipeline,
		formatter: formatter,
		latencies: utils.NewLatencyTracker(1024),
		now:       time.Now,
	}
}

// Store returns the current dataset, or nil before the first load.
func (s *AnalyticsService) Store() *store.Store {
	return s.current.Load()
}

// SetStore installs st as the current dataset.
func (s *AnalyticsService) SetStore(st *store.Store) {
	s.current.Store(st)
	if st != nil {
		metrics.SetDatasetRows(st.Len())
	}
}

// Ready reports whether a dataset is loaded.
func (s *AnalyticsService) Ready() bool {
	return s.current.Load() != nil
}

// Reload reads the configured source and replaces the current dataset. On
// failure the previous dataset stays in place.
func (s *AnalyticsService) Reload(ctx context.Context) (DatasetInfo, error) {
	const op = "services.Reload"
	if s.source == nil {
		return DatasetInfo{}, utils.UnavailableError(op, "no dataset source configured", nil)
	}

	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	start := time.Now()
	st, err := store.Load(ctx, s.source)
	if err != nil {
		var schemaErr *store.SchemaError
		if errors.As(err, &schemaErr) {
			return DatasetInfo{}, utils.InvalidError(op, "dataset rejected", err)
		}
		return DatasetInfo{}, utils.NewAppError(op, "load dataset", err)
	}

	previous := s.current.Swap(st)
	metrics.SetDatasetRows(st.Len())
	attrs := []any{
		slog.String("source", st.Source()),
		slog.String("version", st.Version()),
		slog.Int("rows", st.Len()),
		slog.Duration("took", time.Since(start)),
	}
	if previous != nil {
		attrs = append(attrs, slog.String("previous_version", previous.Version()))
	}
	s.logger.Info("dataset loaded", attrs...)
	return s.describe(st), nil
}

// Analyze validates spec and runs the full analysis over the current dataset.
func (s *AnalyticsService) Analyze(ctx context.Context, spec models.FilterSpec) (engine.Analysis, error) {
	const op = "services.Analyze"
	st := s.current.Load()
	if st == nil {
		return engine.Analysis{}, utils.UnavailableError(op, "dataset not loaded", engine.ErrNoDataset)
	}
	if err := engine.ValidateFilter(st.Schema(), spec); err != nil {
		return engine.Analysis{}, utils.InvalidError(op, "bad filter", err)
	}

	start := time.Now()
	analysis, err := s.pipeline.Analyze(ctx, st, spec)
	duration := time.Since(start)
	if err != nil {
		metrics.ObserveAnalysis(duration, metrics.OutcomeError)
		s.logger.Error("analysis failed", slog.Any("error", err))
		return engine.Analysis{}, utils.NewAppError(op, "analysis failed", err)
	}
	metrics.ObserveAnalysis(duration, metrics.OutcomeSuccess)
	if !analysis.Cached {
		categories := make([]string, len(analysis.Insights))
		for i, in := range analysis.Insights {
			categories[i] = string(in.Category)
		}
		metrics.ObserveInsights(categories...)
	}

	s.latencies.Observe(duration)
	if n := s.analyses.Add(1); n%20 == 0 {
		snap := s.latencies.Snapshot()
		s.logger.Info("analysis latency",
			slog.Duration("p50", snap.P50),
			slog.Duration("p95", snap.P95),
			slog.Int("samples", snap.Count))
	}
	return analysis, nil
}

// Export renders kind for the rows selected by spec.
func (s *AnalyticsService) Export(ctx context.Context, kind export.Kind, spec models.FilterSpec) (ExportResult, error) {
	const op = "services.Export"
	if _, err := export.ParseKind(string(kind)); err != nil {
		metrics.ObserveExport(string(kind), metrics.OutcomeError)
		return ExportResult{}, utils.InvalidError(op, "bad export kind", err)
	}

	analysis, err := s.Analyze(ctx, spec)
	if err != nil {
		metrics.ObserveExport(string(kind), metrics.OutcomeError)
		return ExportResult{}, err
	}

	payload := export.Payload{
		Selection:   analysis.Selection,
		Summary:     analysis.Summary,
		Correlation: analysis.Correlation,
		Insights:    analysis.Insights,
		Breakdowns:  analysis.Breakdowns,
	}
	data, err := s.formatter.Format(kind, payload)
	if err != nil {
		metrics.ObserveExport(string(kind), metrics.OutcomeError)
		var formatErr *export.FormatError
		if errors.As(err, &formatErr) {
			return ExportResult{}, utils.InvalidError(op, "export failed", err)
		}
		return ExportResult{}, utils.NewAppError(op, "export failed", err)
	}
	metrics.ObserveExport(string(kind), metrics.OutcomeSuccess)

	return ExportResult{
		Kind:     kind,
		Filename: export.Filename(kind, s.now()),
		Rows:     exportRows(kind, payload),
		Data:     data,
	}, nil
}

// ExportCSV renders kind and returns its download name and bytes.
func (s *AnalyticsService) ExportCSV(ctx context.Context, kind export.Kind, spec models.FilterSpec) (string, []byte, error) {
	result, err := s.Export(ctx, kind, spec)
	if err != nil {
		return "", nil, err
	}
	return result.Filename, result.Data, nil
}

// Describe reports the current dataset and active thresholds.
func (s *AnalyticsService) Describe() (DatasetInfo, error) {
	st := s.current.Load()
	if st == nil {
		return DatasetInfo{}, utils.UnavailableError("services.Describe", "dataset not loaded", engine.ErrNoDataset)
	}
	return s.describe(st), nil
}

func (s *AnalyticsService) describe(st *store.Store) DatasetInfo {
	schemaFields := st.Schema().Fields()
	fields := make([]FieldInfo, len(schemaFields))
	for i, f := range schemaFields {
		fields[i] = FieldInfo{Name: f.Name, Kind: f.Kind.String(), Domain: f.Domain}
	}
	return DatasetInfo{
		Source:     st.Source(),
		Version:    st.Version(),
		Rows:       st.Len(),
		LoadedAt:   st.LoadedAt(),
		Fields:     fields,
		Thresholds: s.pipeline.Thresholds(),
	}
}

// exportRows counts the data rows an export carries, excluding the header.
func exportRows(kind export.Kind, p export.Payload) int {
	switch kind {
	case export.KindRows:
		return p.Selection.Len()
	case export.KindSummary:
		return len(p.Summary.KPIs())
	case export.KindCorrelation:
		return len(p.Correlation)
	case export.KindInsights:
		return len(p.Insights)
	case export.KindBreakdown:
		n := 0
		for _, b := range p.Breakdowns {
			n += len(b.Groups)
		}
		return n
	default:
		return 0
	}
}
