package extract

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/ppiankov/factgate/internal/llm"
	"github.com/ppiankov/factgate/internal/model"
)

const markerContent = `# Launch notes

Model X scored 92% on Benchmark Y in 2024.

The company priced the API at $15 per million tokens when it launched.

Some filler sentence without any factual content to speak of here.
`

// fakeProvider implements llm.Provider for tests
type fakeProvider struct {
	claims  []llm.RawClaim
	err     error
	verdict *llm.RawVerdict
}

func (f *fakeProvider) Name() string                        { return "fake" }
func (f *fakeProvider) IsAvailable(context.Context) bool    { return true }
func (f *fakeProvider) ExtractClaims(context.Context, llm.ExtractRequest) ([]llm.RawClaim, error) {
	return f.claims, f.err
}
func (f *fakeProvider) VerifyClaim(context.Context, llm.VerifyRequest) (*llm.RawVerdict, error) {
	return f.verdict, f.err
}

func testConfig() model.VerifyConfig {
	return model.VerifyConfig{MaxClaims: 6, MaxContentBytes: 24_000}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestExtract_ValidClaims(t *testing.T) {
	provider := &fakeProvider{claims: []llm.RawClaim{
		{Text: "Model X scored 92% on Benchmark Y in 2024.", Type: "benchmark", Priority: "high"},
		{Text: "priced the API at $15 per million tokens", Type: "pricing", Priority: "medium"},
	}}

	e := New(provider, testConfig(), quietLogger())
	claims := e.Extract(context.Background(), markerContent)

	if len(claims) != 2 {
		t.Fatalf("expected 2 claims, got %d", len(claims))
	}
	if claims[0].Priority != model.PriorityHigh {
		t.Errorf("claims not sorted by priority: %+v", claims[0])
	}
	for _, c := range claims {
		if c.ID == "" {
			t.Error("claim missing ID")
		}
		if !strings.Contains(markerContent, c.Text) {
			t.Errorf("claim text not verbatim: %q", c.Text)
		}
	}
}

func TestExtract_DropsNonVerbatim(t *testing.T) {
	provider := &fakeProvider{claims: []llm.RawClaim{
		{Text: "Model X achieved a 92 percent score", Type: "benchmark", Priority: "high"}, // paraphrase
		{Text: "Model X scored 92% on Benchmark Y in 2024.", Type: "benchmark", Priority: "high"},
	}}

	e := New(provider, testConfig(), quietLogger())
	claims := e.Extract(context.Background(), markerContent)

	if len(claims) != 1 {
		t.Fatalf("expected paraphrased claim dropped, got %d claims", len(claims))
	}
	if claims[0].Text != "Model X scored 92% on Benchmark Y in 2024." {
		t.Errorf("wrong claim survived: %q", claims[0].Text)
	}
}

// A service failure over marker-bearing content must still produce claims.
func TestExtract_FallbackOnError(t *testing.T) {
	provider := &fakeProvider{err: errors.New("upstream down")}

	e := New(provider, testConfig(), quietLogger())
	claims := e.Extract(context.Background(), markerContent)

	if len(claims) == 0 {
		t.Fatal("service failure produced zero claims - silent pass")
	}
	for _, c := range claims {
		if c.Priority != model.PriorityHigh {
			t.Errorf("heuristic claim priority = %v, want high", c.Priority)
		}
	}
}

// An empty result over marker-bearing content is implausible and must
// trigger the heuristic path.
func TestExtract_FallbackOnEmptyResult(t *testing.T) {
	provider := &fakeProvider{claims: nil}

	e := New(provider, testConfig(), quietLogger())
	claims := e.Extract(context.Background(), markerContent)

	if len(claims) == 0 {
		t.Fatal("empty extraction over marker content yielded no claims")
	}
}

// Genuinely unverifiable content may extract nothing.
func TestExtract_EmptyOK(t *testing.T) {
	provider := &fakeProvider{claims: nil}

	e := New(provider, testConfig(), quietLogger())
	claims := e.Extract(context.Background(), "A short musing about the weather and how it makes one feel.\n")

	if len(claims) != 0 {
		t.Errorf("expected no claims, got %d", len(claims))
	}
}

func TestHasVerifiableMarkers(t *testing.T) {
	tests := []struct {
		content string
		want    bool
	}{
		{"scored 92% overall", true},
		{"back in 2024 this happened", true},
		{"it tops the MMLU leaderboard", true},
		{"the product launched yesterday", true},
		{"a quiet reflection on tuesdays", false},
	}

	for _, tt := range tests {
		if got := HasVerifiableMarkers(tt.content); got != tt.want {
			t.Errorf("HasVerifiableMarkers(%q) = %v, want %v", tt.content, got, tt.want)
		}
	}
}

func TestHeuristicClaims(t *testing.T) {
	claims := HeuristicClaims(markerContent, 6)

	if len(claims) < 2 {
		t.Fatalf("expected at least 2 heuristic claims, got %d", len(claims))
	}

	// The benchmark sentence carries the most markers and must rank first
	if !strings.Contains(claims[0].Text, "92%") {
		t.Errorf("top claim should be the benchmark line, got %q", claims[0].Text)
	}
	if claims[0].Type != model.ClaimTypeBenchmark {
		t.Errorf("benchmark line typed as %v", claims[0].Type)
	}

	for _, c := range claims {
		if c.Priority != model.PriorityHigh {
			t.Errorf("heuristic priority = %v, want high", c.Priority)
		}
		if strings.HasPrefix(c.Text, "#") {
			t.Errorf("heading extracted as claim: %q", c.Text)
		}
	}
}

func TestHeuristicClaims_SkipsStructuralLines(t *testing.T) {
	content := "# Heading with 2024 numbers 92%\n" +
		"- bullet with 92% and 2024 markers inside it\n" +
		"```\ncode with 92% in 2024 that should not match\n```\n" +
		"    indented code line scoring 92% in 2024 either way\n" +
		"\ttab-indented code with a 92% score from 2024 too\n" +
		"A real sentence noting the 92% result from 2024 testing.\n"

	claims := HeuristicClaims(content, 6)
	if len(claims) != 1 {
		t.Fatalf("expected only the prose line, got %d claims", len(claims))
	}
	if !strings.HasPrefix(claims[0].Text, "A real sentence") {
		t.Errorf("wrong line extracted: %q", claims[0].Text)
	}
}

func TestHeuristicClaims_Bounded(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 20; i++ {
		b.WriteString("This sentence number mentions a 92% score achieved in 2024 testing.\n")
	}

	claims := HeuristicClaims(b.String(), 3)
	if len(claims) > 3 {
		t.Errorf("expected at most 3 claims, got %d", len(claims))
	}
}
