package extract

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/ppiankov/factgate/internal/llm"
	"github.com/ppiankov/factgate/internal/model"
)

// Extractor turns raw content into a bounded list of candidate claims.
// The primary path is the reasoning service; the heuristic rules take over
// when the service fails or implausibly reports nothing to verify.
type Extractor struct {
	provider  llm.Provider // nil means heuristics only
	maxClaims int
	maxBytes  int
	logger    *slog.Logger
}

// New creates an extractor. provider may be nil.
func New(provider llm.Provider, cfg model.VerifyConfig, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}

	maxClaims := cfg.MaxClaims
	if maxClaims <= 0 {
		maxClaims = 6
	}
	maxBytes := cfg.MaxContentBytes
	if maxBytes <= 0 {
		maxBytes = 24_000
	}

	return &Extractor{
		provider:  provider,
		maxClaims: maxClaims,
		maxBytes:  maxBytes,
		logger:    logger,
	}
}

// Extract returns up to maxClaims claims for the content. It never returns
// an error for upstream failures: a broken service call degrades to the
// heuristic path so a failure cannot read as "nothing to verify".
func (e *Extractor) Extract(ctx context.Context, content string) []model.Claim {
	window := truncate(content, e.maxBytes)

	if e.provider == nil {
		return HeuristicClaims(window, e.maxClaims)
	}

	raw, err := e.provider.ExtractClaims(ctx, llm.ExtractRequest{
		Content:   window,
		MaxClaims: e.maxClaims,
	})
	if err != nil {
		e.logger.Warn("claim extraction failed, using heuristics", "error", err)
		return HeuristicClaims(window, e.maxClaims)
	}

	claims := e.validate(raw, window)

	// An empty result over marker-bearing content means the service missed
	// or dodged; the heuristics close that gap.
	if len(claims) == 0 && HasVerifiableMarkers(window) {
		e.logger.Warn("extraction returned nothing for content with verifiable markers, using heuristics")
		return HeuristicClaims(window, e.maxClaims)
	}

	sortByPriority(claims)
	if len(claims) > e.maxClaims {
		claims = claims[:e.maxClaims]
	}
	return claims
}

// validate converts raw claims to domain claims, dropping anything whose
// text is not an exact substring of the content. Paraphrased quotes are
// useless for repair and suggest fabrication.
func (e *Extractor) validate(raw []llm.RawClaim, content string) []model.Claim {
	seen := make(map[string]bool)
	var claims []model.Claim

	for _, rc := range raw {
		text := strings.TrimSpace(rc.Text)
		if text == "" {
			continue
		}
		if !strings.Contains(content, text) {
			e.logger.Warn("dropping non-verbatim claim", "text", text)
			continue
		}
		key := strings.ToLower(text)
		if seen[key] {
			continue
		}
		seen[key] = true

		claims = append(claims, model.Claim{
			ID:       uuid.NewString(),
			Text:     text,
			Type:     model.ParseClaimType(rc.Type),
			Entities: rc.Entities,
			Priority: model.ParsePriority(rc.Priority),
		})
	}
	return claims
}

func sortByPriority(claims []model.Claim) {
	sort.SliceStable(claims, func(a, b int) bool {
		return claims[a].Priority.Rank() < claims[b].Priority.Rank()
	})
}

// truncate cuts content to max bytes at a line boundary where possible.
func truncate(content string, max int) string {
	if len(content) <= max {
		return content
	}
	cut := content[:max]
	if idx := strings.LastIndexByte(cut, '\n'); idx > max/2 {
		cut = cut[:idx]
	}
	return cut
}
