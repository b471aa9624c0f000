package verify

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ppiankov/factgate/internal/cache"
	"github.com/ppiankov/factgate/internal/classify"
	"github.com/ppiankov/factgate/internal/llm"
	"github.com/ppiankov/factgate/internal/model"
)

// Verifier checks single claims against the external verification service
// and enforces the confidence policy on whatever comes back. Claims are
// verified sequentially, with a pacing limiter between calls.
type Verifier struct {
	provider   llm.Provider // nil means the service is unavailable
	classifier *classify.Classifier
	limiter    *rate.Limiter
	verdicts   cache.Cache // nil disables caching
	logger     *slog.Logger
}

// New creates a verifier.
func New(provider llm.Provider, classifier *classify.Classifier, cfg model.VerifyConfig, verdicts cache.Cache, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}

	delay := cfg.CallDelay
	if delay <= 0 {
		delay = 1500 * time.Millisecond
	}

	return &Verifier{
		provider:   provider,
		classifier: classifier,
		limiter:    rate.NewLimiter(rate.Every(delay), 1),
		verdicts:   verdicts,
		logger:     logger,
	}
}

// Verify checks one claim. contentHash keys the verdict cache; preferredURLs
// are caller-supplied sources worth consulting first (typically the content
// unit's own source URL).
func (v *Verifier) Verify(ctx context.Context, claim model.Claim, contentContext, contentHash string, preferredURLs []string) model.ClaimVerification {
	if cached, ok := v.cachedVerdict(claim, contentHash); ok {
		return cached
	}

	result := v.verifyUncached(ctx, claim, contentContext, preferredURLs)
	v.storeVerdict(claim, contentHash, result)
	return result
}

func (v *Verifier) verifyUncached(ctx context.Context, claim model.Claim, contentContext string, preferredURLs []string) model.ClaimVerification {
	unverified := func(notes string) model.ClaimVerification {
		return model.ClaimVerification{
			Claim:      claim,
			Verified:   false,
			Confidence: 0,
			Notes:      notes,
			Sources:    []model.VerifiedSource{},
		}
	}

	if v.provider == nil {
		return unverified("verification service not configured")
	}

	if err := v.limiter.Wait(ctx); err != nil {
		return unverified("cancelled before verification: " + err.Error())
	}

	raw, err := v.provider.VerifyClaim(ctx, llm.VerifyRequest{
		ClaimText:        claim.Text,
		ClaimType:        string(claim.Type),
		Context:          contentContext,
		PreferredDomains: v.preferredDomains(claim.Type, preferredURLs),
	})
	if err != nil {
		// Exhausted retries or a contract violation - either way this is
		// "could not verify", never a pass.
		v.logger.Warn("claim verification failed", "claim", claim.Text, "error", err)
		return unverified("verification failed: " + err.Error())
	}

	sources := v.validateSources(raw.Sources)

	// The confidence gate is a hard business rule: below the threshold the
	// upstream verdict is overruled, whatever it says.
	verified := raw.Verified && raw.Confidence >= model.ConfidenceThreshold

	notes := raw.Notes
	if raw.Verified && !verified {
		notes = strings.TrimSpace(notes + " (confidence below threshold)")
	}

	return model.ClaimVerification{
		Claim:         claim,
		Verified:      verified,
		Confidence:    raw.Confidence,
		Notes:         notes,
		CorrectedText: strings.TrimSpace(raw.CorrectedText),
		Sources:       sources,
	}
}

// validateSources drops fabricated or malformed sources and reclassifies
// the survivors. Nothing is ever substituted for a dropped source.
func (v *Verifier) validateSources(raw []llm.RawSource) []model.VerifiedSource {
	sources := make([]model.VerifiedSource, 0, len(raw))

	for _, rs := range raw {
		title := strings.TrimSpace(rs.Title)
		if title == "" {
			v.logger.Warn("dropping source without title", "url", rs.URL)
			continue
		}

		parsed, err := url.Parse(rs.URL)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Hostname() == "" {
			v.logger.Warn("dropping source with invalid URL", "url", rs.URL)
			continue
		}

		source := model.VerifiedSource{
			URL:    rs.URL,
			Title:  title,
			Tier:   v.classifier.Classify(rs.URL),
			Domain: classify.Domain(rs.URL),
		}

		if rs.PublishDate != "" {
			if ts, err := time.Parse("2006-01-02", rs.PublishDate); err == nil {
				source.PublishDate = &ts
			}
		}

		sources = append(sources, source)
	}

	return sources
}

// preferredDomains builds the source hint list: caller URLs first, then
// representative domains for the tiers this claim type prefers.
func (v *Verifier) preferredDomains(t model.ClaimType, preferredURLs []string) []string {
	var domains []string
	for _, u := range preferredURLs {
		if d := classify.Domain(u); d != "" {
			domains = append(domains, d)
		}
	}

	for _, tier := range v.classifier.PreferredTiers(t) {
		switch tier {
		case model.TierS:
			domains = append(domains, "arxiv.org", "doi.org")
		case model.TierA:
			domains = append(domains, "reuters.com", "apnews.com")
		}
	}
	return domains
}

func (v *Verifier) cachedVerdict(claim model.Claim, contentHash string) (model.ClaimVerification, bool) {
	if v.verdicts == nil || contentHash == "" {
		return model.ClaimVerification{}, false
	}

	data, ok := v.verdicts.Get(cache.Key(claim.Text, string(claim.Type), contentHash))
	if !ok {
		return model.ClaimVerification{}, false
	}

	var result model.ClaimVerification
	if err := json.Unmarshal(data, &result); err != nil {
		return model.ClaimVerification{}, false
	}

	// The cached claim carries the old ID; rebind to this run's claim
	result.Claim = claim
	return result, true
}

func (v *Verifier) storeVerdict(claim model.Claim, contentHash string, result model.ClaimVerification) {
	if v.verdicts == nil || contentHash == "" {
		return
	}
	// Failures are not cached: a transient outage should not pin a claim
	// unverified for the cache TTL.
	if !result.Verified {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	_ = v.verdicts.Set(cache.Key(claim.Text, string(claim.Type), contentHash), data, 0)
}
