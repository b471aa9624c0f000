package gate

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/factgate/internal/classify"
	"github.com/ppiankov/factgate/internal/extract"
	"github.com/ppiankov/factgate/internal/llm"
	"github.com/ppiankov/factgate/internal/model"
	"github.com/ppiankov/factgate/internal/repair"
	"github.com/ppiankov/factgate/internal/verify"
)

// scriptedProvider implements llm.Provider with canned verdicts per claim
// text. Extraction returns every registered claim found verbatim in the
// content, which mirrors the real service contract.
type scriptedProvider struct {
	verdicts    map[string]llm.RawVerdict
	verifyCalls int
}

func (s *scriptedProvider) Name() string                     { return "scripted" }
func (s *scriptedProvider) IsAvailable(context.Context) bool { return true }

func (s *scriptedProvider) ExtractClaims(_ context.Context, req llm.ExtractRequest) ([]llm.RawClaim, error) {
	var claims []llm.RawClaim
	for text := range s.verdicts {
		if strings.Contains(req.Content, text) {
			claims = append(claims, llm.RawClaim{Text: text, Type: "benchmark", Priority: "high"})
		}
	}
	return claims, nil
}

func (s *scriptedProvider) VerifyClaim(_ context.Context, req llm.VerifyRequest) (*llm.RawVerdict, error) {
	s.verifyCalls++
	v, ok := s.verdicts[req.ClaimText]
	if !ok {
		return &llm.RawVerdict{Verified: false, Confidence: 0}, nil
	}
	return &v, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func fastVerifyConfig() model.VerifyConfig {
	return model.VerifyConfig{MaxClaims: 6, MaxContentBytes: 24_000, CallDelay: time.Millisecond}
}

// testHarness wires a gate over a temp workspace
type testHarness struct {
	gate     *Gate
	cfg      model.GateConfig
	provider *scriptedProvider
	dir      string
}

func newHarness(t *testing.T, provider *scriptedProvider, files map[string]string, opts func(*model.GateConfig)) *testHarness {
	t.Helper()
	dir := t.TempDir()

	cfg := model.GateConfig{
		ContentDir:    filepath.Join(dir, "content"),
		QuarantineDir: filepath.Join(dir, "candidate-pool"),
		ManifestPath:  filepath.Join(dir, ".factgate", "last-written.json"),
		ReportPath:    filepath.Join(dir, ".factgate", "report.json"),
	}
	if opts != nil {
		opts(&cfg)
	}

	if err := os.MkdirAll(cfg.ContentDir, 0755); err != nil {
		t.Fatal(err)
	}

	var paths []string
	for name, body := range files {
		path := filepath.Join(cfg.ContentDir, name)
		if err := os.WriteFile(path, []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, path)
	}
	if err := WriteLastWritten(cfg.ManifestPath, paths); err != nil {
		t.Fatal(err)
	}

	classifier := classify.New(nil)
	extractor := extract.New(provider, fastVerifyConfig(), quietLogger())
	verifier := verify.New(provider, classifier, fastVerifyConfig(), nil, quietLogger())
	aggregator := verify.NewAggregator(extractor, verifier, fastVerifyConfig(), quietLogger())
	repairer := repair.New(quietLogger())

	return &testHarness{
		gate:     New(cfg, nil, aggregator, repairer, quietLogger()),
		cfg:      cfg,
		provider: provider,
		dir:      dir,
	}
}

func docWith(title, locale, slug, body string) string {
	return "---\n" +
		"title: \"" + title + "\"\n" +
		"locale: " + locale + "\n" +
		"slug: " + slug + "\n" +
		"sourceUrl: https://example.com/src\n" +
		"---\n" + body
}

const goodClaim = "Model G reached 96% accuracy on GSM8K during 2024 testing."
const badClaim = "Model B scored 45% on MMLU in 2023."

func goodVerdict() llm.RawVerdict {
	return llm.RawVerdict{
		Verified:   true,
		Confidence: 0.95,
		Sources:    []llm.RawSource{{URL: "https://arxiv.org/abs/2401.1", Title: "Results"}},
	}
}

func TestGate_PassPath(t *testing.T) {
	provider := &scriptedProvider{verdicts: map[string]llm.RawVerdict{goodClaim: goodVerdict()}}
	h := newHarness(t, provider, map[string]string{
		"good.mdx": docWith("Good", "en", "good", goodClaim+"\n"),
	}, nil)

	result, err := h.gate.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if result.Outcome != OutcomePassed {
		t.Fatalf("outcome = %v, want passed", result.Outcome)
	}
	if len(result.Reports) != 1 {
		t.Errorf("expected a single verification pass, got %d", len(result.Reports))
	}
	if len(result.Repairs) != 0 {
		t.Errorf("unexpected repairs: %+v", result.Repairs)
	}

	// The batch report was persisted
	if _, err := os.Stat(h.cfg.ReportPath); err != nil {
		t.Errorf("batch report not written: %v", err)
	}
}

// Low confidence forces a failure, repair deletes the offending line, and
// the re-verify over the cleaned file passes with zero claims.
func TestGate_RepairByDeletion(t *testing.T) {
	provider := &scriptedProvider{verdicts: map[string]llm.RawVerdict{
		badClaim: {Verified: true, Confidence: 0.4},
	}}
	h := newHarness(t, provider, map[string]string{
		"bad.mdx": docWith("Bad", "en", "bad", badClaim+"\n\nCalm prose that mentions nothing checkable at all.\n"),
	}, nil)

	result, err := h.gate.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if result.Outcome != OutcomePassed {
		t.Fatalf("outcome = %v, want passed after repair", result.Outcome)
	}
	if len(result.Repairs) != 1 || result.Repairs[0].Action != "deleted" {
		t.Fatalf("repairs = %+v", result.Repairs)
	}
	if len(result.Reports) != 2 {
		t.Fatalf("expected verify + reverify, got %d reports", len(result.Reports))
	}

	final := result.Reports[len(result.Reports)-1]
	if final.Files[0].ClaimsChecked != 0 {
		t.Errorf("reverify claims checked = %d, want 0", final.Files[0].ClaimsChecked)
	}

	data, _ := os.ReadFile(filepath.Join(h.cfg.ContentDir, "bad.mdx"))
	if strings.Contains(string(data), badClaim) {
		t.Error("failing claim still in file")
	}
}

// A file that keeps failing after repair is quarantined with its locale
// counterpart; the remainder passes.
func TestGate_QuarantineWithRemainder(t *testing.T) {
	correctedBad := "Model B scored 44% on MMLU in 2023."
	provider := &scriptedProvider{verdicts: map[string]llm.RawVerdict{
		goodClaim:    goodVerdict(),
		badClaim:     {Verified: true, Confidence: 0.4, CorrectedText: correctedBad},
		correctedBad: {Verified: true, Confidence: 0.4},
	}}

	h := newHarness(t, provider, map[string]string{
		"good.mdx":   docWith("Good", "en", "good", goodClaim+"\n"),
		"bad.mdx":    docWith("Bad", "en", "bad", badClaim+"\n"),
		"bad.fr.mdx": docWith("Mauvais", "fr", "bad", "Une description sereine sans rien de verifiable.\n"),
	}, nil)

	result, err := h.gate.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if result.Outcome != OutcomeQuarantined {
		t.Fatalf("outcome = %v, want %v", result.Outcome, OutcomeQuarantined)
	}

	if len(result.Quarantined) != 2 {
		t.Fatalf("quarantined = %v, want the failing file and its locale pair", result.Quarantined)
	}
	for _, q := range result.Quarantined {
		if _, err := os.Stat(q); !os.IsNotExist(err) {
			t.Errorf("quarantined file still in content dir: %s", q)
		}
	}

	// The good file survived in place
	if _, err := os.Stat(filepath.Join(h.cfg.ContentDir, "good.mdx")); err != nil {
		t.Errorf("passing file was moved: %v", err)
	}

	// Manifest written alongside the moved files
	if result.ManifestPath == "" {
		t.Fatal("no quarantine manifest recorded")
	}
	data, err := os.ReadFile(result.ManifestPath)
	if err != nil {
		t.Fatal(err)
	}
	for _, field := range []string{
		`"generatedAt"`, `"reason"`, `"report"`, `"files"`, `"details"`,
		`"failedHighPriority"`, `"claimsChecked"`, `"verifiedClaims"`, `"avgConfidence"`,
	} {
		if !strings.Contains(string(data), field) {
			t.Errorf("manifest missing %s", field)
		}
	}
	for _, stale := range []string{`"generated_at"`, `"failed_high_priority"`} {
		if strings.Contains(string(data), stale) {
			t.Errorf("manifest carries %s", stale)
		}
	}
}

func TestGate_LintBlocksVerification(t *testing.T) {
	provider := &scriptedProvider{verdicts: map[string]llm.RawVerdict{}}
	h := newHarness(t, provider, map[string]string{
		"broken.mdx": docWith("", "en", "broken", "Body text present.\n"), // missing title
	}, nil)

	result, err := h.gate.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if result.Outcome != OutcomeFailed {
		t.Fatalf("outcome = %v, want failed", result.Outcome)
	}
	if provider.verifyCalls != 0 {
		t.Errorf("verification ran despite lint failure: %d calls", provider.verifyCalls)
	}
	if len(result.LintIssues) == 0 {
		t.Error("lint issues not reported")
	}
}

func TestGate_SkipVerify(t *testing.T) {
	provider := &scriptedProvider{verdicts: map[string]llm.RawVerdict{}}
	h := newHarness(t, provider, map[string]string{
		"good.mdx": docWith("Good", "en", "good", "Plain body prose with nothing to check.\n"),
	}, func(cfg *model.GateConfig) { cfg.SkipVerify = true })

	result, err := h.gate.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if result.Outcome != OutcomePassed {
		t.Fatalf("outcome = %v", result.Outcome)
	}
	if len(result.Reports) != 0 {
		t.Error("verification ran despite --skip-verify")
	}
	if provider.verifyCalls != 0 {
		t.Errorf("verify calls = %d", provider.verifyCalls)
	}
}

// On a full-repository run quarantine is not applicable: persistent failure
// is a plain failure.
func TestGate_FullRepositoryFails(t *testing.T) {
	correctedBad := "Model B scored 44% on MMLU in 2023."
	provider := &scriptedProvider{verdicts: map[string]llm.RawVerdict{
		badClaim:     {Verified: true, Confidence: 0.4, CorrectedText: correctedBad},
		correctedBad: {Verified: true, Confidence: 0.4},
	}}

	h := newHarness(t, provider, map[string]string{
		"bad.mdx": docWith("Bad", "en", "bad", badClaim+"\n"),
	}, func(cfg *model.GateConfig) { cfg.FullRepository = true })

	result, err := h.gate.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if result.Outcome != OutcomeFailed {
		t.Fatalf("outcome = %v, want failed", result.Outcome)
	}
	if len(result.Quarantined) != 0 {
		t.Errorf("full-repo run quarantined files: %v", result.Quarantined)
	}
	// The failing file stays put for manual review
	if _, err := os.Stat(filepath.Join(h.cfg.ContentDir, "bad.mdx")); err != nil {
		t.Errorf("file moved on full-repo run: %v", err)
	}
}

func TestGate_EmptyBatchPasses(t *testing.T) {
	provider := &scriptedProvider{verdicts: map[string]llm.RawVerdict{}}
	h := newHarness(t, provider, map[string]string{}, nil)

	result, err := h.gate.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result.Outcome != OutcomePassed {
		t.Errorf("outcome = %v", result.Outcome)
	}
}
