package content

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// FrontMatter holds the header fields the gate is allowed to read. The raw
// header text is preserved byte-for-byte on render, so fields the gate does
// not own are never rewritten or reordered.
type FrontMatter struct {
	Title     string   `yaml:"title"`
	Locale    string   `yaml:"locale"`
	Slug      string   `yaml:"slug"`
	SourceURL string   `yaml:"sourceUrl"`
	Tags      []string `yaml:"tags"`
}

// Document is one content unit: a YAML front-matter header plus a body.
type Document struct {
	Path   string
	Header FrontMatter
	Body   string

	rawHeader string
}

const delimiter = "---"

// Parse splits raw file content into front matter and body. The header must
// open on the first line and close with a matching delimiter; anything else
// is a parse failure, which the aggregator treats as terminal for the file.
func Parse(path string, data []byte) (*Document, error) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")

	if !strings.HasPrefix(text, delimiter+"\n") {
		return nil, fmt.Errorf("%s: missing front matter", path)
	}

	rest := text[len(delimiter)+1:]
	end := strings.Index(rest, "\n"+delimiter+"\n")
	var rawHeader, body string
	switch {
	case end >= 0:
		rawHeader = rest[:end]
		body = rest[end+len(delimiter)+2:]
	case strings.HasSuffix(rest, "\n"+delimiter):
		rawHeader = rest[:len(rest)-len(delimiter)-1]
		body = ""
	default:
		return nil, fmt.Errorf("%s: unterminated front matter", path)
	}

	var header FrontMatter
	if err := yaml.Unmarshal([]byte(rawHeader), &header); err != nil {
		return nil, fmt.Errorf("%s: parse front matter: %w", path, err)
	}

	return &Document{
		Path:      path,
		Header:    header,
		Body:      body,
		rawHeader: rawHeader,
	}, nil
}

// New builds a fresh document. The header is marshaled once here and then
// treated as raw text, same as a parsed one.
func New(path string, header FrontMatter, body string) (*Document, error) {
	raw, err := yaml.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("%s: marshal front matter: %w", path, err)
	}
	return &Document{
		Path:      path,
		Header:    header,
		Body:      body,
		rawHeader: strings.TrimSuffix(string(raw), "\n"),
	}, nil
}

// ParseFile reads and parses a content unit from disk.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(path, data)
}

// Render reassembles the document, header verbatim.
func (d *Document) Render() []byte {
	var buf strings.Builder
	buf.WriteString(delimiter)
	buf.WriteString("\n")
	buf.WriteString(d.rawHeader)
	buf.WriteString("\n")
	buf.WriteString(delimiter)
	buf.WriteString("\n")
	buf.WriteString(d.Body)
	return []byte(buf.String())
}

// WriteFile renders the document back to its path.
func (d *Document) WriteFile() error {
	if err := os.WriteFile(d.Path, d.Render(), 0644); err != nil {
		return fmt.Errorf("write %s: %w", d.Path, err)
	}
	return nil
}

// ReplaceInBody replaces every occurrence of old in the body and returns the
// number of replacements.
func (d *Document) ReplaceInBody(old, new string) int {
	if old == "" {
		return 0
	}
	count := strings.Count(d.Body, old)
	if count > 0 {
		d.Body = strings.ReplaceAll(d.Body, old, new)
	}
	return count
}

// DeleteLinesContaining removes every body line containing s and returns the
// number of lines removed.
func (d *Document) DeleteLinesContaining(s string) int {
	if s == "" {
		return 0
	}

	lines := strings.Split(d.Body, "\n")
	kept := lines[:0]
	removed := 0
	for _, line := range lines {
		if strings.Contains(line, s) {
			removed++
			continue
		}
		kept = append(kept, line)
	}
	if removed > 0 {
		d.Body = strings.Join(kept, "\n")
	}
	return removed
}
