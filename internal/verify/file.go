package verify

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"

	"github.com/google/uuid"
	"github.com/ppiankov/factgate/internal/content"
	"github.com/ppiankov/factgate/internal/extract"
	"github.com/ppiankov/factgate/internal/model"
)

// Aggregator runs extraction and verification over one content unit and
// produces its FileReport.
type Aggregator struct {
	extractor *extract.Extractor
	verifier  *Verifier
	maxClaims int
	logger    *slog.Logger
}

// NewAggregator creates an aggregator.
func NewAggregator(extractor *extract.Extractor, verifier *Verifier, cfg model.VerifyConfig, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}

	maxClaims := cfg.MaxClaims
	if maxClaims <= 0 {
		maxClaims = 6
	}

	return &Aggregator{
		extractor: extractor,
		verifier:  verifier,
		maxClaims: maxClaims,
		logger:    logger,
	}
}

// VerifyFile produces the report for one file. It never returns an error:
// every failure mode lands in the report as a failing claim, because a file
// that cannot be checked must not read as a file with nothing to check.
func (a *Aggregator) VerifyFile(ctx context.Context, path string) model.FileReport {
	doc, err := content.ParseFile(path)
	if err != nil {
		// Structural failure is terminal for the file and must fail loudly
		return syntheticFailure(path, "frontmatter: "+err.Error())
	}

	claims := a.extractor.Extract(ctx, doc.Body)
	if len(claims) > a.maxClaims {
		claims = claims[:a.maxClaims]
	}

	// Extraction yielded nothing for content that plainly holds claims -
	// surface it as a failing claim rather than a trivially passing report.
	if len(claims) == 0 && extract.HasVerifiableMarkers(doc.Body) {
		return syntheticFailure(path, "content contains verifiable markers but no claims were extracted")
	}

	contentHash := hashContent(doc.Body)
	var preferred []string
	if doc.Header.SourceURL != "" {
		preferred = append(preferred, doc.Header.SourceURL)
	}

	report := model.FileReport{
		File:    path,
		Results: make([]model.ClaimVerification, 0, len(claims)),
	}

	var confidenceSum float64
	for _, claim := range claims {
		result := a.verifier.Verify(ctx, claim, doc.Body, contentHash, preferred)

		report.Results = append(report.Results, result)
		report.ClaimsChecked++
		confidenceSum += result.Confidence
		if result.Verified {
			report.VerifiedClaims++
		} else if result.Claim.Priority == model.PriorityHigh {
			report.FailedHighPriority++
		}

		a.logger.Debug("claim checked",
			"file", path,
			"claim", claim.Text,
			"verified", result.Verified,
			"confidence", result.Confidence,
			"sources", len(result.Sources))
	}

	if report.ClaimsChecked > 0 {
		report.AvgConfidence = confidenceSum / float64(report.ClaimsChecked)
	}

	return report
}

// syntheticFailure builds a report with one failing high-priority claim so
// aggregate accounting treats the file as checked and failed.
func syntheticFailure(path, reason string) model.FileReport {
	claim := model.Claim{
		ID:       uuid.NewString(),
		Text:     reason,
		Type:     model.ClaimTypeGeneral,
		Priority: model.PriorityHigh,
	}

	return model.FileReport{
		File:               path,
		ClaimsChecked:      1,
		VerifiedClaims:     0,
		AvgConfidence:      0,
		FailedHighPriority: 1,
		Results: []model.ClaimVerification{{
			Claim:    claim,
			Verified: false,
			Notes:    reason,
			Sources:  []model.VerifiedSource{},
		}},
	}
}

func hashContent(body string) string {
	sum := sha256.Sum256([]byte(body))
	return hex.EncodeToString(sum[:])
}
