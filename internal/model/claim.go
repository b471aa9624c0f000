package model

// Claim represents a factual assertion extracted from a content unit.
// Text is a verbatim quote from the source body; repair relies on it being
// an exact substring, so it is never normalized after extraction.
type Claim struct {
	ID       string    `json:"id"`
	Text     string    `json:"text"`
	Type     ClaimType `json:"type"`
	Entities []string  `json:"entities,omitempty"` // Named entities mentioned by the claim
	Priority Priority  `json:"priority"`
}

// ClaimType categorizes the nature of the claim
type ClaimType string

const (
	ClaimTypeReleaseDate      ClaimType = "release_date"      // Dates of releases/launches
	ClaimTypeBenchmark        ClaimType = "benchmark"         // Benchmark scores and results
	ClaimTypePricing          ClaimType = "pricing"           // Prices, tiers, cost figures
	ClaimTypeFeature          ClaimType = "feature"           // Product capability claims
	ClaimTypeCompanyStatement ClaimType = "company_statement" // Attributed statements
	ClaimTypeComparison       ClaimType = "comparison"        // X-versus-Y assertions
	ClaimTypeTechnicalSpec    ClaimType = "technical_spec"    // Parameter counts, context sizes
	ClaimTypeResearch         ClaimType = "research"          // Findings from papers/studies
	ClaimTypeGeneral          ClaimType = "general"           // Anything else verifiable
)

// ParseClaimType maps an untrusted type label to a known ClaimType,
// defaulting to general for anything unrecognized.
func ParseClaimType(s string) ClaimType {
	switch ClaimType(s) {
	case ClaimTypeReleaseDate, ClaimTypeBenchmark, ClaimTypePricing,
		ClaimTypeFeature, ClaimTypeCompanyStatement, ClaimTypeComparison,
		ClaimTypeTechnicalSpec, ClaimTypeResearch:
		return ClaimType(s)
	default:
		return ClaimTypeGeneral
	}
}

// Priority indicates how damaging an unverified claim of this kind would be
// if published.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank orders priorities for sorting: high sorts before medium before low.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// ParsePriority maps an untrusted priority label to a Priority,
// defaulting to medium.
func ParsePriority(s string) Priority {
	switch Priority(s) {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return Priority(s)
	default:
		return PriorityMedium
	}
}
