package gate

import (
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
)

// gitNewFiles asks version control for content files added since the last
// commit. Untracked and newly staged files both count; anything already
// committed is published history and out of the gate's reach. A missing git
// binary or a non-repository just yields an empty list.
func gitNewFiles(contentDir string, logger *slog.Logger) []string {
	out, err := exec.Command("git", "status", "--porcelain", "--", contentDir).Output()
	if err != nil {
		logger.Debug("git change detection unavailable", "error", err)
		return nil
	}

	var files []string
	for _, line := range strings.Split(string(out), "\n") {
		if len(line) < 4 {
			continue
		}

		status := line[:2]
		path := strings.TrimSpace(line[3:])

		// Renames are reported as "old -> new"
		if idx := strings.Index(path, " -> "); idx >= 0 {
			path = path[idx+4:]
		}

		if status != "??" && status[0] != 'A' && status[1] != 'A' {
			continue
		}
		if !isContentFile(path) {
			continue
		}
		files = append(files, filepath.Clean(path))
	}
	return files
}

func isContentFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".mdx":
		return true
	}
	return false
}
