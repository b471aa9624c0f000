package classify

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/ppiankov/factgate/internal/model"
)

// academicDomains is the curated S-tier list. Matching is by exact host or
// host suffix, so subdomains of a listed domain classify the same.
var academicDomains = []string{
	"arxiv.org",
	"doi.org",
	"acm.org",
	"ieee.org",
	"nature.com",
	"science.org",
	"pnas.org",
	"springer.com",
	"sciencedirect.com",
	"semanticscholar.org",
	"scholar.google.com",
	"openreview.net",
	"aclanthology.org",
	"biorxiv.org",
	"ssrn.com",
	"jstor.org",
	"pubmed.ncbi.nlm.nih.gov",
}

// tierAPatterns match government, education, standards bodies, major press,
// and official vendor engineering/news blogs.
var tierAPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(^|\.)gov(\.[a-z]{2})?$`),
	regexp.MustCompile(`(^|\.)edu$`),
	regexp.MustCompile(`(^|\.)ac\.[a-z]{2}$`),
	regexp.MustCompile(`(^|\.)(ietf|iso|w3|nist|ansi|ecma-international)\.org$`),
	regexp.MustCompile(`(^|\.)(reuters|apnews|bbc|bloomberg|ft|wsj|nytimes|theguardian|economist)\.com$`),
	regexp.MustCompile(`(^|\.)(openai|anthropic|deepmind|meta)\.com$`),
	regexp.MustCompile(`(^|\.)(googleblog|blog\.google|blogs\.microsoft|aws\.amazon|developer\.apple|engineering\.fb)\.com$`),
	regexp.MustCompile(`(^|\.)(ai\.googleblog|research\.google|microsoft)\.com$`),
	regexp.MustCompile(`(^|\.)huggingface\.co$`),
}

// tierBPatterns match social platforms, forums, wikis, and UGC blog hosts.
var tierBPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(^|\.)(twitter|x|facebook|instagram|tiktok|linkedin|threads)\.(com|net)$`),
	regexp.MustCompile(`(^|\.)(reddit|news\.ycombinator|lobste)\.(com|rs)$`),
	regexp.MustCompile(`(^|\.)(wikipedia|fandom|wikia)\.(org|com)$`),
	regexp.MustCompile(`(^|\.)(medium|substack|blogspot|wordpress|tumblr|dev)\.(com|to)$`),
	regexp.MustCompile(`(^|\.)(quora|stackexchange|stackoverflow|discord)\.(com|gg)$`),
	regexp.MustCompile(`(^|\.)(youtube|youtu)\.(com|be)$`),
}

// Classifier maps URLs to credibility tiers. It is pure and total: any
// input, including garbage, classifies to some tier without error.
type Classifier struct {
	academic []string
}

// New creates a classifier. Extra academic domains from config are appended
// to the built-in S list; ordering between tiers is fixed.
func New(cfg *model.ClassifyConfig) *Classifier {
	c := &Classifier{academic: academicDomains}
	if cfg != nil && len(cfg.ExtraAcademicDomains) > 0 {
		c.academic = append(append([]string{}, academicDomains...), cfg.ExtraAcademicDomains...)
	}
	return c
}

// Classify returns the credibility tier for a URL. Check order is
// significant: the S list wins over A patterns, A over B, so a host matching
// both an A and a B pattern resolves to A.
func (c *Classifier) Classify(rawURL string) model.SourceTier {
	host := hostOf(rawURL)
	if host == "" {
		return model.TierC
	}

	for _, domain := range c.academic {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return model.TierS
		}
	}

	for _, re := range tierAPatterns {
		if re.MatchString(host) {
			return model.TierA
		}
	}

	for _, re := range tierBPatterns {
		if re.MatchString(host) {
			return model.TierB
		}
	}

	return model.TierC
}

// PreferredTiers returns the tiers worth querying for a claim type.
// Research-grade claims want academic or official sources; social chatter
// is acceptable corroboration only for general claims.
func (c *Classifier) PreferredTiers(t model.ClaimType) []model.SourceTier {
	switch t {
	case model.ClaimTypeResearch, model.ClaimTypeBenchmark, model.ClaimTypeTechnicalSpec:
		return []model.SourceTier{model.TierS, model.TierA}
	case model.ClaimTypeReleaseDate, model.ClaimTypePricing, model.ClaimTypeCompanyStatement:
		return []model.SourceTier{model.TierS, model.TierA}
	default:
		return []model.SourceTier{model.TierS, model.TierA, model.TierB}
	}
}

// Domain extracts the bare host from a URL, empty if unparsable.
func Domain(rawURL string) string {
	return hostOf(rawURL)
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	host := strings.ToLower(parsed.Hostname())
	host = strings.TrimPrefix(host, "www.")
	return host
}
