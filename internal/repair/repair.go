package repair

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/ppiankov/factgate/internal/content"
	"github.com/ppiankov/factgate/internal/model"
)

// Repairer rewrites failing claims out of content files. It is deliberately
// conservative: the goal is removing risk, not preserving prose. A failed
// fact with no safe correction is deleted, never guessed at.
type Repairer struct {
	logger *slog.Logger
}

// New creates a repairer.
func New(logger *slog.Logger) *Repairer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repairer{logger: logger}
}

// Outcome describes what happened to one failing claim
type Outcome struct {
	File    string `json:"file"`
	Claim   string `json:"claim"`
	Action  string `json:"action"` // "replaced" or "deleted"
	NewText string `json:"newText,omitempty"`
}

// maxCorrectionRatio caps corrected text at 110% of the original length.
// Longer corrections tend to smuggle in new, unverified facts.
const maxCorrectionRatio = 1.10

// riskyLanguage matches absolute, superlative, and comparative phrasing. A
// correction that introduces any of it is rejected.
var riskyLanguage = regexp.MustCompile(`(?i)\b(best|worst|first[- ]ever|only|always|never|every|all|none|greatest|largest|smallest|fastest|slowest|better than|worse than|more than any|most \w+|least \w+)\b`)

// RepairFile patches one file according to its report. Only claims that are
// high priority and unverified are touched; everything else is left alone.
func (r *Repairer) RepairFile(report model.FileReport) ([]Outcome, error) {
	failed := report.FailedHighResults()
	if len(failed) == 0 {
		return nil, nil
	}

	doc, err := content.ParseFile(report.File)
	if err != nil {
		return nil, fmt.Errorf("repair %s: %w", report.File, err)
	}

	var outcomes []Outcome
	changed := false

	for _, result := range failed {
		claimText := result.Claim.Text

		if correction, ok := safeCorrection(claimText, result.CorrectedText); ok {
			if n := doc.ReplaceInBody(claimText, correction); n > 0 {
				changed = true
				outcomes = append(outcomes, Outcome{
					File: report.File, Claim: claimText, Action: "replaced", NewText: correction,
				})
				r.logger.Info("replaced failing claim", "file", report.File, "claim", claimText)
				continue
			}
		}

		if n := doc.DeleteLinesContaining(claimText); n > 0 {
			changed = true
			outcomes = append(outcomes, Outcome{
				File: report.File, Claim: claimText, Action: "deleted",
			})
			r.logger.Info("deleted failing claim line", "file", report.File, "claim", claimText)
		}
	}

	if changed {
		if err := doc.WriteFile(); err != nil {
			return outcomes, err
		}
	}
	return outcomes, nil
}

// RepairBatch patches every failing file in the batch report.
func (r *Repairer) RepairBatch(batch *model.BatchReport) ([]Outcome, error) {
	var all []Outcome
	for _, file := range batch.FailedFiles() {
		outcomes, err := r.RepairFile(file)
		if err != nil {
			return all, err
		}
		all = append(all, outcomes...)
	}
	return all, nil
}

// safeCorrection decides whether a verifier-supplied correction may be used
// in place of deletion. It must be non-empty, no longer than 110% of the
// original, different from the original, and free of absolute, superlative,
// or comparative language it would be introducing.
func safeCorrection(original, corrected string) (string, bool) {
	corrected = strings.TrimSpace(corrected)
	if corrected == "" || corrected == original {
		return "", false
	}
	if float64(len(corrected)) > float64(len(original))*maxCorrectionRatio {
		return "", false
	}
	if riskyLanguage.MatchString(corrected) && !riskyLanguage.MatchString(original) {
		return "", false
	}
	return corrected, true
}
