package verify

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/ppiankov/factgate/internal/classify"
	"github.com/ppiankov/factgate/internal/llm"
	"github.com/ppiankov/factgate/internal/model"
)

// fakeProvider implements llm.Provider for tests
type fakeProvider struct {
	claims   []llm.RawClaim
	verdict  *llm.RawVerdict
	err      error
	verifies int
}

func (f *fakeProvider) Name() string                     { return "fake" }
func (f *fakeProvider) IsAvailable(context.Context) bool { return true }
func (f *fakeProvider) ExtractClaims(context.Context, llm.ExtractRequest) ([]llm.RawClaim, error) {
	return f.claims, f.err
}
func (f *fakeProvider) VerifyClaim(context.Context, llm.VerifyRequest) (*llm.RawVerdict, error) {
	f.verifies++
	if f.err != nil {
		return nil, f.err
	}
	return f.verdict, nil
}

func fastConfig() model.VerifyConfig {
	return model.VerifyConfig{
		MaxClaims:       6,
		MaxContentBytes: 24_000,
		CallDelay:       time.Millisecond,
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func testClaim(priority model.Priority) model.Claim {
	return model.Claim{
		ID:       "c1",
		Text:     "Model X scored 92% on Benchmark Y in 2024.",
		Type:     model.ClaimTypeBenchmark,
		Priority: priority,
	}
}

func newTestVerifier(p llm.Provider) *Verifier {
	return New(p, classify.New(nil), fastConfig(), nil, quietLogger())
}

func TestVerify_ConfidenceGate(t *testing.T) {
	tests := []struct {
		name       string
		verdict    llm.RawVerdict
		wantResult bool
	}{
		{
			name:       "high confidence verified",
			verdict:    llm.RawVerdict{Verified: true, Confidence: 0.95},
			wantResult: true,
		},
		{
			name:       "threshold exactly met",
			verdict:    llm.RawVerdict{Verified: true, Confidence: 0.90},
			wantResult: true,
		},
		{
			name:       "upstream true but low confidence is overruled",
			verdict:    llm.RawVerdict{Verified: true, Confidence: 0.4},
			wantResult: false,
		},
		{
			name:       "just below threshold",
			verdict:    llm.RawVerdict{Verified: true, Confidence: 0.89},
			wantResult: false,
		},
		{
			name:       "upstream false stays false regardless of confidence",
			verdict:    llm.RawVerdict{Verified: false, Confidence: 0.99},
			wantResult: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newTestVerifier(&fakeProvider{verdict: &tt.verdict})
			result := v.Verify(context.Background(), testClaim(model.PriorityHigh), "", "", nil)

			if result.Verified != tt.wantResult {
				t.Errorf("verified = %v, want %v", result.Verified, tt.wantResult)
			}
			// Invariant: verified implies confidence at threshold or above
			if result.Verified && result.Confidence < model.ConfidenceThreshold {
				t.Error("verified claim below confidence threshold")
			}
		})
	}
}

func TestVerify_SourceValidation(t *testing.T) {
	verdict := &llm.RawVerdict{
		Verified:   true,
		Confidence: 0.95,
		Sources: []llm.RawSource{
			{URL: "https://arxiv.org/abs/2401.0001", Title: "A Paper", PublishDate: "2024-03-01"},
			{URL: "https://example.com/ok", Title: ""},              // missing title
			{URL: "ftp://files.example.com/x", Title: "FTP thing"},  // wrong protocol
			{URL: "https://", Title: "Empty host"},                  // no hostname
			{URL: ":// garbage", Title: "Garbage"},                  // unparsable
			{URL: "https://www.reuters.com/a", Title: "News piece"}, // valid
		},
	}

	v := newTestVerifier(&fakeProvider{verdict: verdict})
	result := v.Verify(context.Background(), testClaim(model.PriorityHigh), "", "", nil)

	if len(result.Sources) != 2 {
		t.Fatalf("expected 2 surviving sources, got %d: %+v", len(result.Sources), result.Sources)
	}

	// Tiers come from the classifier, not the service
	if result.Sources[0].Tier != model.TierS {
		t.Errorf("arxiv source tier = %v, want S", result.Sources[0].Tier)
	}
	if result.Sources[1].Tier != model.TierA {
		t.Errorf("reuters source tier = %v, want A", result.Sources[1].Tier)
	}
	if result.Sources[0].PublishDate == nil {
		t.Error("publish date not parsed")
	}
	if result.Sources[0].Domain != "arxiv.org" {
		t.Errorf("domain = %q", result.Sources[0].Domain)
	}
}

func TestVerify_ProviderError(t *testing.T) {
	v := newTestVerifier(&fakeProvider{err: errors.New("service down")})
	result := v.Verify(context.Background(), testClaim(model.PriorityHigh), "", "", nil)

	if result.Verified {
		t.Error("provider failure produced a verified claim")
	}
	if result.Confidence != 0 {
		t.Errorf("confidence = %v, want 0", result.Confidence)
	}
	if result.Notes == "" {
		t.Error("failure left no notes")
	}
}

func TestVerify_NoProvider(t *testing.T) {
	v := newTestVerifier(nil)
	result := v.Verify(context.Background(), testClaim(model.PriorityHigh), "", "", nil)

	if result.Verified {
		t.Error("missing provider produced a verified claim")
	}
}

func TestVerify_CorrectedTextPassedThrough(t *testing.T) {
	verdict := &llm.RawVerdict{
		Verified:      false,
		Confidence:    0.6,
		CorrectedText: "Model X scored 91.8% on Benchmark Y in 2024.",
	}

	v := newTestVerifier(&fakeProvider{verdict: verdict})
	result := v.Verify(context.Background(), testClaim(model.PriorityHigh), "", "", nil)

	if result.CorrectedText != verdict.CorrectedText {
		t.Errorf("corrected text = %q", result.CorrectedText)
	}
}
