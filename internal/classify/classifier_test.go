package classify

import (
	"testing"

	"github.com/ppiankov/factgate/internal/model"
)

func TestClassifier_Tiers(t *testing.T) {
	classifier := New(nil)

	tests := []struct {
		url      string
		expected model.SourceTier
		desc     string
	}{
		{
			url:      "https://arxiv.org/abs/2401.00001",
			expected: model.TierS,
			desc:     "arXiv paper",
		},
		{
			url:      "https://www.arxiv.org/abs/2401.00001",
			expected: model.TierS,
			desc:     "arXiv with www prefix",
		},
		{
			url:      "https://export.arxiv.org/abs/2401.00001",
			expected: model.TierS,
			desc:     "arXiv subdomain",
		},
		{
			url:      "https://doi.org/10.1234/example",
			expected: model.TierS,
			desc:     "DOI resolver",
		},
		{
			url:      "https://www.nist.gov/news/ai-standards",
			expected: model.TierA,
			desc:     "Government domain",
		},
		{
			url:      "https://cs.stanford.edu/research",
			expected: model.TierA,
			desc:     "University domain",
		},
		{
			url:      "https://www.reuters.com/technology/article",
			expected: model.TierA,
			desc:     "Major press",
		},
		{
			url:      "https://openai.com/blog/some-release",
			expected: model.TierA,
			desc:     "Official vendor blog",
		},
		{
			url:      "https://www.reddit.com/r/MachineLearning/comments/abc",
			expected: model.TierB,
			desc:     "Forum",
		},
		{
			url:      "https://en.wikipedia.org/wiki/Large_language_model",
			expected: model.TierB,
			desc:     "Wiki",
		},
		{
			url:      "https://someblog.medium.com/my-take",
			expected: model.TierB,
			desc:     "UGC blog host",
		},
		{
			url:      "https://random-unknown-site.xyz/page",
			expected: model.TierC,
			desc:     "Unlisted domain",
		},
		{
			url:      "not a url at all ://",
			expected: model.TierC,
			desc:     "Unparsable URL",
		},
		{
			url:      "",
			expected: model.TierC,
			desc:     "Empty URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			result := classifier.Classify(tt.url)
			if result != tt.expected {
				t.Errorf("Classify(%q) = %v, want %v", tt.url, result, tt.expected)
			}
		})
	}
}

// The S list must win even when the host also matches an A pattern. An
// academic domain that lives under .edu is the concrete case.
func TestClassifier_TierOrdering(t *testing.T) {
	classifier := New(&model.ClassifyConfig{
		ExtraAcademicDomains: []string{"papers.example.edu"},
	})

	result := classifier.Classify("https://papers.example.edu/proceedings/2024")
	if result != model.TierS {
		t.Errorf("S-list domain matching an A pattern classified as %v, want S", result)
	}

	// Unlisted .edu still resolves to A
	if got := classifier.Classify("https://other.example.edu/x"); got != model.TierA {
		t.Errorf("plain .edu classified as %v, want A", got)
	}
}

func TestClassifier_NeverPanics(t *testing.T) {
	classifier := New(nil)

	inputs := []string{
		"", "://///", "ftp://old.server", "javascript:alert(1)",
		"https://", "http://:8080", "mailto:nobody@example.com",
	}

	for _, in := range inputs {
		tier := classifier.Classify(in)
		if tier == "" {
			t.Errorf("Classify(%q) returned empty tier", in)
		}
	}
}

func TestClassifier_PreferredTiers(t *testing.T) {
	classifier := New(nil)

	research := classifier.PreferredTiers(model.ClaimTypeResearch)
	for _, tier := range research {
		if tier == model.TierB || tier == model.TierC {
			t.Errorf("research claims should not prefer tier %v", tier)
		}
	}

	general := classifier.PreferredTiers(model.ClaimTypeGeneral)
	if len(general) < 3 {
		t.Errorf("general claims should accept a wider tier set, got %v", general)
	}
}

func TestDomain(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{"https://www.reuters.com/tech", "reuters.com"},
		{"https://Example.COM/path", "example.com"},
		{"garbage ://", ""},
	}

	for _, tt := range tests {
		if got := Domain(tt.url); got != tt.expected {
			t.Errorf("Domain(%q) = %q, want %q", tt.url, got, tt.expected)
		}
	}
}
