package model

import "time"

// ConfidenceThreshold is the hard floor for a claim to count as verified.
// Published factual claims are safety-sensitive: a false positive costs
// more than a false negative, so any verdict below this is forced false.
const ConfidenceThreshold = 0.90

// ClaimVerification is the checked outcome for a single claim
type ClaimVerification struct {
	Claim         Claim            `json:"claim"`
	Verified      bool             `json:"verified"`
	Confidence    float64          `json:"confidence"` // [0,1] as reported upstream
	Notes         string           `json:"notes,omitempty"`
	CorrectedText string           `json:"correctedText,omitempty"`
	Sources       []VerifiedSource `json:"sources"`
}

// FileReport aggregates verification results for one content unit
type FileReport struct {
	File               string              `json:"file"`
	ClaimsChecked      int                 `json:"claimsChecked"`
	VerifiedClaims     int                 `json:"verifiedClaims"`
	AvgConfidence      float64             `json:"avgConfidence"`
	FailedHighPriority int                 `json:"failedHighPriority"`
	Results            []ClaimVerification `json:"results"`
}

// Passed reports whether the file may proceed to publishing. A file with no
// claims passes; a file with claims needs at least one verified and no
// failed high-priority ones.
func (r *FileReport) Passed() bool {
	if r.FailedHighPriority > 0 {
		return false
	}
	return r.ClaimsChecked == 0 || r.VerifiedClaims > 0
}

// FailedHighResults returns the verifications eligible for repair:
// high priority and not verified.
func (r *FileReport) FailedHighResults() []ClaimVerification {
	var failed []ClaimVerification
	for _, res := range r.Results {
		if res.Claim.Priority == PriorityHigh && !res.Verified {
			failed = append(failed, res)
		}
	}
	return failed
}

// BatchReport is the gate's view of one verification pass over a file set
type BatchReport struct {
	GeneratedAt time.Time    `json:"generatedAt"`
	Files       []FileReport `json:"files"`
}

// Passed reports whether every file in the batch passed.
func (b *BatchReport) Passed() bool {
	for i := range b.Files {
		if !b.Files[i].Passed() {
			return false
		}
	}
	return true
}

// FailedFiles returns the reports for files that did not pass.
func (b *BatchReport) FailedFiles() []FileReport {
	var failed []FileReport
	for _, f := range b.Files {
		if !f.Passed() {
			failed = append(failed, f)
		}
	}
	return failed
}

// FileFailureDetail is the per-file summary recorded in a quarantine manifest
type FileFailureDetail struct {
	FailedHighPriority int     `json:"failedHighPriority"`
	ClaimsChecked      int     `json:"claimsChecked"`
	VerifiedClaims     int     `json:"verifiedClaims"`
	AvgConfidence      float64 `json:"avgConfidence"`
}

// QuarantineManifest records one quarantine event. Manifests are written once
// and never mutated; each event gets its own timestamped directory.
type QuarantineManifest struct {
	GeneratedAt time.Time                    `json:"generatedAt"`
	Reason      string                       `json:"reason"`
	Report      string                       `json:"report"` // Path of the triggering batch report
	Files       []string                     `json:"files"`
	Details     map[string]FileFailureDetail `json:"details"`
}
