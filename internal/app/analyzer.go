package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ayusman/exoform/internal/config"
	"github.com/ayusman/exoform/internal/plugin"
	"github.com/ayusman/exoform/internal/spell"
)

// NewResolver picks the spell analyzer: Gemini when an API key is set, else
// the first plugin that handles the analyze action, else none. With no
// analyzer every request resolves to the fallback record.
func NewResolver(ctx context.Context, cfg config.AnalyzerConfig, logger *zap.Logger) (*spell.Resolver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("spell")

	if cfg.APIKey != "" {
		a, err := spell.NewGenAIAnalyzer(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, fmt.Errorf("failed to create genai analyzer: %w", err)
		}
		logger.Info("using analyzer", zap.String("analyzer", a.Name()))
		return spell.NewResolver(a, cfg.Timeout, logger), nil
	}

	manager := plugin.NewManager(cfg.PluginDir)
	if err := manager.Discover(); err != nil {
		return nil, fmt.Errorf("failed to discover plugins: %w", err)
	}
	a, err := spell.NewPluginAnalyzer(manager, plugin.NewExecutor(cfg.PluginTimeout))
	switch {
	case err == nil:
		logger.Info("using analyzer", zap.String("analyzer", a.Name()))
		return spell.NewResolver(a, cfg.Timeout, logger), nil
	case errors.Is(err, plugin.ErrPluginNotFound):
		logger.Warn("no spell analyzer configured, every spell will be the fallback record")
		return spell.NewResolver(nil, cfg.Timeout, logger), nil
	default:
		return nil, err
	}
}
