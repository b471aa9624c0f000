package cli

import (
	"fmt"
	"log/slog"

	"github.com/ppiankov/factgate/internal/cache"
	"github.com/ppiankov/factgate/internal/classify"
	"github.com/ppiankov/factgate/internal/extract"
	"github.com/ppiankov/factgate/internal/llm"
	"github.com/ppiankov/factgate/internal/model"
	"github.com/ppiankov/factgate/internal/repair"
	"github.com/ppiankov/factgate/internal/verify"
)

// buildAggregator assembles the verification stack from config: source
// classifier, external provider, verdict cache, extractor and verifier.
// With no provider configured the stack still works on heuristics alone.
func buildAggregator(cfg *model.Config, logger *slog.Logger) (*verify.Aggregator, error) {
	classifier := classify.New(&cfg.Classify)

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM, cfg.Verify.MaxRetries))
	if err != nil {
		return nil, fmt.Errorf("configure provider: %w", err)
	}
	if provider == nil {
		logger.Warn("no verification provider configured, falling back to heuristic extraction only")
	}

	var verdicts cache.Cache
	if cfg.Cache.Enabled {
		verdicts = cache.NewLayeredCache(cfg.Cache)
	}

	extractor := extract.New(provider, cfg.Verify, logger)
	verifier := verify.New(provider, classifier, cfg.Verify, verdicts, logger)
	return verify.NewAggregator(extractor, verifier, cfg.Verify, logger), nil
}

func buildRepairer(logger *slog.Logger) *repair.Repairer {
	return repair.New(logger)
}
