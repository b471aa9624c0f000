package gate

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/factgate/internal/model"
	"github.com/ppiankov/factgate/internal/repair"
	"github.com/ppiankov/factgate/internal/verify"
)

// State identifies one stage of the publish gate
type State string

const (
	StateLint       State = "lint"
	StateVerify     State = "verify"
	StateRepair     State = "repair"
	StateReVerify   State = "reverify"
	StateQuarantine State = "quarantine"
	StateDone       State = "done"
)

// Outcome is the terminal result of a gate run
type Outcome string

const (
	OutcomePassed      Outcome = "passed"
	OutcomeQuarantined Outcome = "quarantined-with-remainder-passed"
	OutcomeFailed      Outcome = "failed"
)

// Gate orchestrates Lint -> Verify -> Repair -> ReVerify -> Quarantine over
// a batch of newly written content units. It holds no state between runs:
// each run regenerates its reports, so re-running after an interruption is
// safe and idempotent per file.
type Gate struct {
	cfg        model.GateConfig
	linter     Linter
	aggregator *verify.Aggregator
	repairer   *repair.Repairer
	logger     *slog.Logger
}

// New creates a gate. linter may be nil, in which case the built-in
// structural linter is used.
func New(cfg model.GateConfig, linter Linter, aggregator *verify.Aggregator, repairer *repair.Repairer, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	if linter == nil {
		linter = &StructuralLinter{}
	}

	return &Gate{
		cfg:        cfg,
		linter:     linter,
		aggregator: aggregator,
		repairer:   repairer,
		logger:     logger,
	}
}

// Result is the full record of one gate run
type Result struct {
	RunID        string              `json:"runId"`
	Outcome      Outcome             `json:"outcome"`
	Files        []string            `json:"files"`
	LintIssues   []LintIssue         `json:"lintIssues,omitempty"`
	Reports      []model.BatchReport `json:"reports,omitempty"`
	Repairs      []repair.Outcome    `json:"repairs,omitempty"`
	Quarantined  []string            `json:"quarantined,omitempty"`
	ManifestPath string              `json:"manifestPath,omitempty"`
}

// run carries the mutable state of one pass through the machine
type run struct {
	ctx             context.Context
	files           []string
	lastReport      *model.BatchReport
	afterQuarantine bool
	result          *Result
}

// stepFunc executes one state and names the next
type stepFunc func(g *Gate, r *run) (State, error)

// transitions is the explicit state table. Each state is a completed step
// before the next begins, so an external interruption leaves at worst
// "some files verified, batch not committed", recoverable by re-running.
var transitions = map[State]stepFunc{
	StateLint:       (*Gate).stepLint,
	StateVerify:     (*Gate).stepVerify,
	StateRepair:     (*Gate).stepRepair,
	StateReVerify:   (*Gate).stepReVerify,
	StateQuarantine: (*Gate).stepQuarantine,
}

// Run executes the gate over the target file set.
func (g *Gate) Run(ctx context.Context) (*Result, error) {
	files, err := g.targetFiles()
	if err != nil {
		return nil, err
	}

	result := &Result{
		RunID: uuid.NewString(),
		Files: files,
	}

	if len(files) == 0 {
		g.logger.Info("gate run with empty batch", "run", result.RunID)
		result.Outcome = OutcomePassed
		return result, nil
	}

	r := &run{ctx: ctx, files: files, result: result}
	state := StateLint

	for state != StateDone {
		step, ok := transitions[state]
		if !ok {
			return nil, fmt.Errorf("gate: no transition for state %q", state)
		}

		g.logger.Info("gate stage", "run", result.RunID, "state", state, "files", len(r.files))
		next, err := step(g, r)
		if err != nil {
			return result, err
		}
		state = next
	}

	g.logger.Info("gate finished", "run", result.RunID, "outcome", result.Outcome)
	return result, nil
}

// stepLint lints every file, applies the one-shot style fix to offenders,
// and lints again. Lint errors stop the run before any verification spend.
func (g *Gate) stepLint(r *run) (State, error) {
	issues, err := g.lintAll(r.files)
	if err != nil {
		return StateDone, err
	}

	if hasErrors(issues, g.cfg.Strict) {
		// One fix attempt, then the retry is authoritative
		for _, issue := range issues {
			if err := g.linter.FixFile(issue.File); err != nil {
				g.logger.Warn("style fix failed", "file", issue.File, "error", err)
			}
		}
		issues, err = g.lintAll(r.files)
		if err != nil {
			return StateDone, err
		}
	}

	r.result.LintIssues = issues
	if hasErrors(issues, g.cfg.Strict) {
		r.result.Outcome = OutcomeFailed
		return StateDone, nil
	}

	if g.cfg.SkipVerify {
		r.result.Outcome = OutcomePassed
		return StateDone, nil
	}
	return StateVerify, nil
}

// stepVerify runs the aggregator over the current file set. After a
// quarantine event this is the remainder pass and its result is terminal.
func (g *Gate) stepVerify(r *run) (State, error) {
	if len(r.files) == 0 {
		// Everything failing was quarantined; the remainder trivially passes
		r.result.Outcome = OutcomeQuarantined
		return StateDone, nil
	}

	report := g.verifyAll(r.ctx, r.files)
	r.lastReport = report
	r.result.Reports = append(r.result.Reports, *report)

	if err := writeBatchReport(g.cfg.ReportPath, report); err != nil {
		g.logger.Warn("could not persist batch report", "error", err)
	}

	if report.Passed() {
		if r.afterQuarantine {
			r.result.Outcome = OutcomeQuarantined
		} else {
			r.result.Outcome = OutcomePassed
		}
		return StateDone, nil
	}

	if r.afterQuarantine {
		// The remainder is still failing; keep carving it down
		return StateQuarantine, nil
	}
	return StateRepair, nil
}

// stepRepair applies conservative fixes to the failing claims.
func (g *Gate) stepRepair(r *run) (State, error) {
	outcomes, err := g.repairer.RepairBatch(r.lastReport)
	r.result.Repairs = append(r.result.Repairs, outcomes...)
	if err != nil {
		return StateDone, fmt.Errorf("repair: %w", err)
	}
	return StateReVerify, nil
}

// stepReVerify re-runs verification over the same file set after repair.
func (g *Gate) stepReVerify(r *run) (State, error) {
	report := g.verifyAll(r.ctx, r.files)
	r.lastReport = report
	r.result.Reports = append(r.result.Reports, *report)

	if err := writeBatchReport(g.cfg.ReportPath, report); err != nil {
		g.logger.Warn("could not persist batch report", "error", err)
	}

	if report.Passed() {
		r.result.Outcome = OutcomePassed
		return StateDone, nil
	}
	return StateQuarantine, nil
}

// stepQuarantine moves the still-failing files into the candidate pool and
// sends the remainder back through verification. On a full-repository run
// quarantine is not applicable and the outcome is a plain failure.
func (g *Gate) stepQuarantine(r *run) (State, error) {
	if g.cfg.FullRepository {
		r.result.Outcome = OutcomeFailed
		return StateDone, nil
	}

	moved, manifestPath, err := quarantine(g.cfg, r.files, r.lastReport, g.logger)
	if err != nil {
		return StateDone, fmt.Errorf("quarantine: %w", err)
	}
	if len(moved) == 0 {
		// Failing report but nothing movable - do not loop
		r.result.Outcome = OutcomeFailed
		return StateDone, nil
	}

	r.result.Quarantined = append(r.result.Quarantined, moved...)
	r.result.ManifestPath = manifestPath

	movedSet := make(map[string]bool, len(moved))
	for _, f := range moved {
		movedSet[f] = true
	}
	var remainder []string
	for _, f := range r.files {
		if !movedSet[f] {
			remainder = append(remainder, f)
		}
	}

	r.files = remainder
	r.afterQuarantine = true
	return StateVerify, nil
}

func (g *Gate) lintAll(files []string) ([]LintIssue, error) {
	var all []LintIssue
	for _, file := range files {
		issues, err := g.linter.LintFile(file)
		if err != nil {
			return nil, fmt.Errorf("lint %s: %w", file, err)
		}
		all = append(all, issues...)
	}
	return all, nil
}

// verifyAll runs the aggregator over every file, one at a time. The
// external calls are rate limited inside the verifier.
func (g *Gate) verifyAll(ctx context.Context, files []string) *model.BatchReport {
	report := &model.BatchReport{GeneratedAt: time.Now().UTC()}
	for _, file := range files {
		report.Files = append(report.Files, g.aggregator.VerifyFile(ctx, file))
	}
	return report
}

// targetFiles resolves the batch: the last-written manifest plus files git
// reports as new, or the whole content tree on a full-repository run.
func (g *Gate) targetFiles() ([]string, error) {
	if g.cfg.FullRepository {
		return walkContent(g.cfg.ContentDir)
	}

	manifest, err := ReadLastWritten(g.cfg.ManifestPath)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		path = filepath.Clean(path)
		if seen[path] {
			return
		}
		if _, err := os.Stat(path); err != nil {
			return
		}
		seen[path] = true
		files = append(files, path)
	}

	for _, f := range manifest.Files {
		add(f)
	}
	for _, f := range gitNewFiles(g.cfg.ContentDir, g.logger) {
		add(f)
	}

	sort.Strings(files)
	return files, nil
}

func walkContent(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && isContentFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk content dir: %w", err)
	}
	sort.Strings(files)
	return files, nil
}
