package model

import "time"

// VerifiedSource is a corroborating page returned by the verification
// service. Tier is always recomputed by the classifier from the URL;
// whatever tier the service asserts is discarded.
type VerifiedSource struct {
	URL         string     `json:"url"`
	Title       string     `json:"title"`
	Tier        SourceTier `json:"tier"`
	Domain      string     `json:"domain,omitempty"`
	PublishDate *time.Time `json:"publishDate,omitempty"`
}

// SourceTier classifies the credibility of a source domain
type SourceTier string

const (
	TierS SourceTier = "S" // Academic: arxiv, doi, university repositories
	TierA SourceTier = "A" // Government, standards bodies, major press, official vendor blogs
	TierB SourceTier = "B" // Social, forums, wikis, UGC blogs
	TierC SourceTier = "C" // Everything else, including unparsable URLs
)

// Rank orders tiers for comparison: S ranks above A above B above C.
func (t SourceTier) Rank() int {
	switch t {
	case TierS:
		return 0
	case TierA:
		return 1
	case TierB:
		return 2
	default:
		return 3
	}
}
