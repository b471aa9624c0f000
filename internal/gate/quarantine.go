package gate

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ppiankov/factgate/internal/content"
	"github.com/ppiankov/factgate/internal/model"
)

// quarantine moves failing batch files into a timestamped candidate-pool
// directory and writes a manifest describing why. Only files from the
// current batch are ever moved; published content is not reachable from
// here. Locale pairing: if a failing file's translated counterpart (same
// slug, different locale) is in the batch, it is quarantined too, so the two
// languages never diverge.
func quarantine(cfg model.GateConfig, batch []string, report *model.BatchReport, logger *slog.Logger) ([]string, string, error) {
	failed := report.FailedFiles()
	if len(failed) == 0 {
		return nil, "", nil
	}

	toMove := make(map[string]bool)
	details := make(map[string]model.FileFailureDetail)

	for _, f := range failed {
		toMove[f.File] = true
		details[f.File] = model.FileFailureDetail{
			FailedHighPriority: f.FailedHighPriority,
			ClaimsChecked:      f.ClaimsChecked,
			VerifiedClaims:     f.VerifiedClaims,
			AvgConfidence:      f.AvgConfidence,
		}
	}

	// Pull locale counterparts in with their failing sibling
	for _, sibling := range localeCounterparts(batch, toMove) {
		toMove[sibling] = true
	}

	stamp := time.Now().UTC().Format("20060102-150405")
	poolDir := filepath.Join(cfg.QuarantineDir, stamp)
	if err := os.MkdirAll(poolDir, 0755); err != nil {
		return nil, "", fmt.Errorf("create candidate pool: %w", err)
	}

	var moved []string
	for file := range toMove {
		dest := filepath.Join(poolDir, filepath.Base(file))
		if err := os.Rename(file, dest); err != nil {
			return moved, "", fmt.Errorf("quarantine %s: %w", file, err)
		}
		moved = append(moved, file)
		logger.Info("file quarantined", "file", file, "pool", poolDir)
	}

	manifest := model.QuarantineManifest{
		GeneratedAt: time.Now().UTC(),
		Reason:      "verification failed after repair",
		Report:      cfg.ReportPath,
		Files:       moved,
		Details:     details,
	}

	manifestPath := filepath.Join(poolDir, "manifest.json")
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return moved, "", fmt.Errorf("marshal quarantine manifest: %w", err)
	}
	if err := os.WriteFile(manifestPath, data, 0644); err != nil {
		return moved, "", fmt.Errorf("write quarantine manifest: %w", err)
	}

	return moved, manifestPath, nil
}

// localeCounterparts finds batch files that share a slug with a file being
// moved but are not themselves marked yet.
func localeCounterparts(batch []string, toMove map[string]bool) []string {
	slugOf := func(path string) string {
		doc, err := content.ParseFile(path)
		if err != nil || doc.Header.Slug == "" {
			return ""
		}
		return doc.Header.Slug
	}

	movingSlugs := make(map[string]bool)
	for file := range toMove {
		if slug := slugOf(file); slug != "" {
			movingSlugs[slug] = true
		}
	}

	var siblings []string
	for _, file := range batch {
		if toMove[file] {
			continue
		}
		if slug := slugOf(file); slug != "" && movingSlugs[slug] {
			siblings = append(siblings, file)
		}
	}
	return siblings
}
