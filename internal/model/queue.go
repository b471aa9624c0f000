package model

import "time"

// ClaimExpiry is how long a work-queue claim stays valid. A worker that
// claimed an item and never completed it loses the claim after this window;
// expiry is evaluated lazily on read, never by a background timer.
const ClaimExpiry = 24 * time.Hour

// WorkClaim marks a source item as being processed by a worker
type WorkClaim struct {
	By   string    `json:"by"`
	At   time.Time `json:"at"`
	Task string    `json:"task,omitempty"`
}

// Expired reports whether the claim is older than the expiry window at now.
func (c WorkClaim) Expired(now time.Time) bool {
	return now.Sub(c.At) > ClaimExpiry
}

// WorkCompletion marks a source item as fully processed
type WorkCompletion struct {
	By         string    `json:"by"`
	At         time.Time `json:"at"`
	ResultSlug string    `json:"resultSlug,omitempty"`
}

// Ledger is the persisted work-queue document. It is mutated in place under
// a cross-process file lock and always written via temp-file + rename.
type Ledger struct {
	Claimed     map[string]WorkClaim      `json:"claimed"`
	Completed   map[string]WorkCompletion `json:"completed"`
	LastUpdated time.Time                 `json:"lastUpdated"`
}

// NewLedger returns an empty ledger with initialized maps.
func NewLedger() *Ledger {
	return &Ledger{
		Claimed:   make(map[string]WorkClaim),
		Completed: make(map[string]WorkCompletion),
	}
}
