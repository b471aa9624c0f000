package llm

import (
	"context"
	"fmt"
	"strings"
)

// Provider defines the interface to the external reasoning/search service.
// Everything it returns is untrusted input: callers parse responses into the
// Raw* types below and reject anything that does not conform. A provider
// failure is never interpreted as "nothing to verify" or "claim verified".
type Provider interface {
	// Name returns the provider name
	Name() string

	// ExtractClaims asks the service for verifiable factual claims in the
	// content. Each returned claim must be an exact quote; the caller
	// enforces that and drops anything that is not.
	ExtractClaims(ctx context.Context, req ExtractRequest) ([]RawClaim, error)

	// VerifyClaim asks the service for a verdict on a single claim.
	VerifyClaim(ctx context.Context, req VerifyRequest) (*RawVerdict, error)

	// IsAvailable checks if the provider is properly configured and reachable
	IsAvailable(ctx context.Context) bool
}

// ExtractRequest is the input for claim extraction
type ExtractRequest struct {
	// Content is the body text to mine for claims, already truncated to the
	// configured window.
	Content string

	// MaxClaims bounds the number of claims requested.
	MaxClaims int
}

// VerifyRequest is the input for verifying one claim
type VerifyRequest struct {
	// ClaimText is the verbatim claim under test.
	ClaimText string

	// ClaimType is the claim's category label, used to steer source choice.
	ClaimType string

	// Context is surrounding content that disambiguates the claim.
	Context string

	// PreferredDomains hints which source domains are worth citing for this
	// claim type. The verdict's sources are revalidated regardless.
	PreferredDomains []string
}

// RawClaim is one extracted claim as the service reported it, unvalidated
type RawClaim struct {
	Text     string   `json:"text"`
	Type     string   `json:"type"`
	Entities []string `json:"entities"`
	Priority string   `json:"priority"`
}

// RawVerdict is a verification verdict as the service reported it,
// unvalidated. Tier labels it may include are discarded downstream.
type RawVerdict struct {
	Verified      bool        `json:"verified"`
	Confidence    float64     `json:"confidence"`
	Notes         string      `json:"notes"`
	CorrectedText string      `json:"corrected_text"`
	Sources       []RawSource `json:"sources"`
}

// RawSource is one candidate supporting page from a verdict
type RawSource struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	PublishDate string `json:"publish_date"`
}

// Config holds provider configuration
type Config struct {
	// Provider name: "openai", "ollama", or "" (disabled)
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for the provider
	APIKey string

	// BaseURL for custom endpoints
	BaseURL string

	// Timeout per API request, seconds
	Timeout int

	// MaxTokens for response generation
	MaxTokens int

	// MaxRetries for transient failures
	MaxRetries int
}

// BuildExtractPrompt constructs the instruction envelope for extraction.
// The quote requirement is load-bearing: repair later does exact-substring
// replacement, so paraphrased claims are useless.
func BuildExtractPrompt(req ExtractRequest) string {
	return fmt.Sprintf(`Identify up to %d factual claims in the content below that a fact-checker could verify against public sources.

RULES:
1. Each claim's "text" MUST be an EXACT quote from the content - copy it verbatim, do not paraphrase.
2. Only include claims that assert something checkable: dates, numbers, benchmark scores, prices, statements attributed to companies or people, technical specifications, research findings.
3. Skip opinions, predictions, and vague statements.
4. Respond with ONLY a JSON array, no other text:
[{"text": "...", "type": "release_date|benchmark|pricing|feature|company_statement|comparison|technical_spec|research|general", "entities": ["..."], "priority": "high|medium|low"}]

CONTENT:
%s`, req.MaxClaims, req.Content)
}

// BuildVerifyPrompt constructs the instruction envelope for verification.
func BuildVerifyPrompt(req VerifyRequest) string {
	domains := "(no preference)"
	if len(req.PreferredDomains) > 0 {
		domains = strings.Join(req.PreferredDomains, ", ")
	}

	return fmt.Sprintf(`Fact-check this claim against public sources.

CLAIM (%s): %q

SURROUNDING CONTEXT:
%s

PREFERRED SOURCE DOMAINS: %s

RULES:
1. Only cite sources you actually found. NEVER invent a URL or a title.
2. confidence is your honest probability [0,1] that the claim is accurate as written.
3. If the claim is close but wrong in a detail, put a minimally edited version in corrected_text; otherwise leave it empty.
4. Respond with ONLY a JSON object, no other text:
{"verified": true|false, "confidence": 0.0, "notes": "...", "corrected_text": "", "sources": [{"url": "...", "title": "...", "publish_date": "YYYY-MM-DD"}]}`,
		req.ClaimType, req.ClaimText, req.Context, domains)
}
