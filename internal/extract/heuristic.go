package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/ppiankov/factgate/internal/model"
)

// The heuristic extractor is the no-silent-pass backstop: when the reasoning
// service fails or claims there is nothing to verify while the text plainly
// carries factual markers, these rules produce claims anyway. They are
// deterministic and err toward flagging too much, with priority forced to
// high so nothing they find can be ignored.

var (
	yearPattern      = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	percentPattern   = regexp.MustCompile(`\b\d+(\.\d+)?%`)
	currencyPattern  = regexp.MustCompile(`[$€£]\s?\d+`)
	numberPattern    = regexp.MustCompile(`\b\d+(\.\d+)?\b`)
	benchmarkPattern = regexp.MustCompile(`(?i)\b(MMLU|GPQA|HumanEval|SWE-bench|MATH|GSM8K|HellaSwag|ARC|BIG-bench|LMArena|Chatbot Arena|ELO)\b`)
	releasePattern   = regexp.MustCompile(`(?i)\b(releas\w*|launch\w*|announc\w*|priced?|pricing|costs?|available)\b`)
	monthPattern     = regexp.MustCompile(`(?i)\b(January|February|March|April|May|June|July|August|September|October|November|December)\b`)
)

// HasVerifiableMarkers reports whether content contains signals that make an
// empty extraction implausible: years, percentages, benchmark names, or
// release/pricing language.
func HasVerifiableMarkers(content string) bool {
	return yearPattern.MatchString(content) ||
		percentPattern.MatchString(content) ||
		benchmarkPattern.MatchString(content) ||
		releasePattern.MatchString(content)
}

type scoredLine struct {
	text  string
	score int
	index int
}

// HeuristicClaims extracts claims without the reasoning service: scan
// non-heading, non-bullet, non-code lines, score them by factual markers,
// and return the top maxClaims as high-priority claims.
func HeuristicClaims(content string, maxClaims int) []model.Claim {
	if maxClaims <= 0 {
		maxClaims = 1
	}

	var scored []scoredLine
	inCodeFence := false

	for i, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			inCodeFence = !inCodeFence
			continue
		}
		if inCodeFence || skipLine(line, trimmed) {
			continue
		}

		score := scoreLine(trimmed)
		if score > 0 {
			scored = append(scored, scoredLine{text: trimmed, score: score, index: i})
		}
	}

	// Highest score first; document order breaks ties
	sort.SliceStable(scored, func(a, b int) bool {
		if scored[a].score != scored[b].score {
			return scored[a].score > scored[b].score
		}
		return scored[a].index < scored[b].index
	})

	if len(scored) > maxClaims {
		scored = scored[:maxClaims]
	}

	claims := make([]model.Claim, 0, len(scored))
	for _, s := range scored {
		claims = append(claims, model.Claim{
			ID:       uuid.NewString(),
			Text:     s.text,
			Type:     heuristicType(s.text),
			Priority: model.PriorityHigh,
		})
	}
	return claims
}

// skipLine filters headings, bullets, quotes, table rows, indented code,
// and fragments too short to be a claim. The indent check needs the raw
// line; trimming has already eaten the leading spaces.
func skipLine(line, trimmed string) bool {
	if len(trimmed) < 30 {
		return true
	}
	if strings.HasPrefix(line, "    ") || strings.HasPrefix(line, "\t") {
		return true
	}
	switch {
	case strings.HasPrefix(trimmed, "#"),
		strings.HasPrefix(trimmed, "-"),
		strings.HasPrefix(trimmed, "*"),
		strings.HasPrefix(trimmed, ">"),
		strings.HasPrefix(trimmed, "|"):
		return true
	}
	return false
}

func scoreLine(line string) int {
	score := 0
	if percentPattern.MatchString(line) {
		score += 3
	}
	if benchmarkPattern.MatchString(line) {
		score += 3
	}
	if yearPattern.MatchString(line) {
		score += 2
	}
	if currencyPattern.MatchString(line) {
		score += 2
	}
	if monthPattern.MatchString(line) {
		score++
	}
	if releasePattern.MatchString(line) {
		score++
	}
	if score == 0 && numberPattern.MatchString(line) {
		score++
	}
	return score
}

func heuristicType(line string) model.ClaimType {
	switch {
	case benchmarkPattern.MatchString(line) || percentPattern.MatchString(line):
		return model.ClaimTypeBenchmark
	case yearPattern.MatchString(line) && releasePattern.MatchString(line),
		monthPattern.MatchString(line) && releasePattern.MatchString(line):
		return model.ClaimTypeReleaseDate
	default:
		return model.ClaimTypeGeneral
	}
}
