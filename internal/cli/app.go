package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/attritionlab/attrition-engine/internal/cache"
	"github.com/attritionlab/attrition-engine/internal/config"
	"github.com/attritionlab/attrition-engine/internal/engine"
	"github.com/attritionlab/attrition-engine/internal/export"
	"github.com/attritionlab/attrition-engine/internal/repo"
	"github.com/attritionlab/attrition-engine/internal/services"
)

// app is the wired engine shared by every command.
type app struct {
	logger    *slog.Logger
	cache     cache.Provider
	analytics *services.AnalyticsService
}

// newApp wires the dataset source, insight rules, cache and export formatter
// from cfg. Formatter options override the dataset delimiter.
func newApp(cfg *config.Config, logger *slog.Logger, formatOpts ...export.Option) (*app, error) {
	pack, err := engine.LoadRulePack(cfg.Insights.ThresholdsPath)
	if err != nil {
		return nil, fmt.Errorf("load insight thresholds: %w", err)
	}
	generator := engine.NewGeneratorFromPack(pack, logger)

	var provider cache.Provider = cache.NoopProvider{}
	if cfg.Cache.Enabled && cfg.Cache.Size > 0 {
		mem, err := cache.NewMemoryProvider(cfg.Cache.Size, cfg.Cache.TTL)
		if err != nil {
			return nil, fmt.Errorf("create analysis cache: %w", err)
		}
		provider = mem
	}
	pipeline := engine.NewPipeline(logger, generator, provider, cfg.Cache.TTL)

	source, err := repo.FromConfig(cfg.Dataset)
	if err != nil {
		return nil, err
	}
	delimiter, err := cfg.Dataset.DelimiterRune()
	if err != nil {
		return nil, err
	}
	formatter := export.NewFormatter(append([]export.Option{export.WithDelimiter(delimiter)}, formatOpts...)...)

	return &app{
		logger:    logger,
		cache:     provider,
		analytics: services.NewAnalyticsService(logger, source, pipeline, formatter),
	}, nil
}

// load reads the dataset once.
func (a *app) load(ctx context.Context) error {
	_, err := a.analytics.Reload(ctx)
	return err
}

func (a *app) Close() error {
	return a.cache.Close()
}
