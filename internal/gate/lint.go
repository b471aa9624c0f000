package gate

import (
	"fmt"
	"strings"

	"github.com/ppiankov/factgate/internal/content"
)

// Linter is the structural/style check that must pass before verification
// runs at all. The full lint subsystem lives outside the gate; this
// interface is its contract, and StructuralLinter is the built-in minimum.
type Linter interface {
	// LintFile returns the issues found in one file.
	LintFile(path string) ([]LintIssue, error)

	// FixFile applies safe style fixes in place. Called at most once per
	// gate run before lint is retried.
	FixFile(path string) error
}

// LintIssue is a single finding
type LintIssue struct {
	File     string `json:"file"`
	Message  string `json:"message"`
	Severity string `json:"severity"` // "error" or "warning"
}

// StructuralLinter checks the structural invariants the gate depends on:
// parseable front matter, the fields downstream stages read, and a body.
type StructuralLinter struct{}

// LintFile checks one content unit.
func (l *StructuralLinter) LintFile(path string) ([]LintIssue, error) {
	doc, err := content.ParseFile(path)
	if err != nil {
		return []LintIssue{{File: path, Message: err.Error(), Severity: "error"}}, nil
	}

	var issues []LintIssue
	addError := func(msg string) {
		issues = append(issues, LintIssue{File: path, Message: msg, Severity: "error"})
	}
	addWarning := func(msg string) {
		issues = append(issues, LintIssue{File: path, Message: msg, Severity: "warning"})
	}

	if strings.TrimSpace(doc.Header.Title) == "" {
		addError("missing title")
	}
	if strings.TrimSpace(doc.Header.Locale) == "" {
		addError("missing locale")
	}
	if strings.TrimSpace(doc.Header.Slug) == "" {
		addError("missing slug")
	}
	if strings.TrimSpace(doc.Body) == "" {
		addError("empty body")
	}
	if doc.Header.SourceURL == "" {
		addWarning("missing sourceUrl")
	}
	if strings.Count(doc.Body, "\n# ") > 0 || strings.HasPrefix(doc.Body, "# ") {
		addWarning("body contains an H1; the title renders the H1")
	}

	return issues, nil
}

// FixFile applies whitespace normalization, the only style fix safe enough
// to run unattended.
func (l *StructuralLinter) FixFile(path string) error {
	doc, err := content.ParseFile(path)
	if err != nil {
		return fmt.Errorf("fix %s: %w", path, err)
	}

	lines := strings.Split(doc.Body, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	body := strings.Join(lines, "\n")
	body = strings.TrimRight(body, "\n") + "\n"

	if body == doc.Body {
		return nil
	}
	doc.Body = body
	return doc.WriteFile()
}

// hasErrors reports whether any issue is error severity; in strict mode
// warnings count too.
func hasErrors(issues []LintIssue, strict bool) bool {
	for _, issue := range issues {
		if issue.Severity == "error" || strict {
			return true
		}
	}
	return false
}
