package gate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ppiankov/factgate/internal/model"
)

// LastWritten tracks which content units the current batch produced. The
// drafting stage writes it; the gate reads it to scope verification to new,
// not-yet-committed files.
type LastWritten struct {
	GeneratedAt time.Time `json:"generatedAt"`
	Files       []string  `json:"files"`
}

// ReadLastWritten loads the manifest; a missing manifest means an empty
// batch, not an error.
func ReadLastWritten(path string) (*LastWritten, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &LastWritten{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read last-written manifest: %w", err)
	}

	var manifest LastWritten
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parse last-written manifest: %w", err)
	}
	return &manifest, nil
}

// WriteLastWritten records the batch's files.
func WriteLastWritten(path string, files []string) error {
	manifest := LastWritten{
		GeneratedAt: time.Now().UTC(),
		Files:       files,
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal last-written manifest: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create manifest dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write last-written manifest: %w", err)
	}
	return nil
}

// writeBatchReport persists a verification pass for diagnosis and as the
// reference a quarantine manifest points back to.
func writeBatchReport(path string, report *model.BatchReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal batch report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write batch report: %w", err)
	}
	return nil
}
