package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/factgate/internal/model"
)

// ErrLedgerLocked means another process holds the ledger lock.
var ErrLedgerLocked = errors.New("work-queue ledger is locked")

// sleepFunc is the sleep used between lock attempts (injectable for tests)
var sleepFunc = time.Sleep

// Queue is the durable work-queue ledger. It keeps ingestion workers from
// duplicating effort: a source item is claimed before drafting starts and
// completed when a result is published. All mutations run under a
// cross-process flock with every write going through temp-file + rename, so
// a crash mid-write cannot corrupt the ledger.
type Queue struct {
	path        string
	workerID    string
	lockRetries int
	lockBackoff time.Duration
	logger      *slog.Logger

	// nowFunc is injectable so expiry can be tested without waiting a day
	nowFunc func() time.Time
}

// New creates a queue over the configured ledger path.
func New(cfg model.QueueConfig, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}

	workerID := cfg.WorkerID
	if workerID == "" {
		host, _ := os.Hostname()
		if host == "" {
			host = "worker"
		}
		workerID = host + "-" + uuid.NewString()[:8]
	}

	retries := cfg.LockRetries
	if retries <= 0 {
		retries = 10
	}
	backoff := cfg.LockBackoff
	if backoff <= 0 {
		backoff = 150 * time.Millisecond
	}

	return &Queue{
		path:        cfg.LedgerPath,
		workerID:    workerID,
		lockRetries: retries,
		lockBackoff: backoff,
		logger:      logger,
		nowFunc:     time.Now,
	}
}

// WorkerID returns the identity this queue writes into claims.
func (q *Queue) WorkerID() string {
	return q.workerID
}

// ClaimWork attempts to claim a source item. It returns false when the item
// is already completed or actively claimed by anyone, including this worker.
// A claim older than the expiry window does not block: the stale entry is
// overwritten.
func (q *Queue) ClaimWork(id, task string) (bool, error) {
	claimed := false
	err := q.withLock(func(ledger *model.Ledger) (bool, error) {
		if _, done := ledger.Completed[id]; done {
			return false, nil
		}
		if existing, ok := ledger.Claimed[id]; ok && !existing.Expired(q.nowFunc()) {
			return false, nil
		}

		ledger.Claimed[id] = model.WorkClaim{
			By:   q.workerID,
			At:   q.nowFunc(),
			Task: task,
		}
		claimed = true
		return true, nil
	})
	return claimed, err
}

// CompleteWork marks a source item as done and releases its claim.
func (q *Queue) CompleteWork(id, resultSlug string) error {
	return q.withLock(func(ledger *model.Ledger) (bool, error) {
		delete(ledger.Claimed, id)
		ledger.Completed[id] = model.WorkCompletion{
			By:         q.workerID,
			At:         q.nowFunc(),
			ResultSlug: resultSlug,
		}
		return true, nil
	})
}

// IsProcessed reports whether an item is completed or actively claimed,
// without mutating the ledger.
func (q *Queue) IsProcessed(id string) (bool, error) {
	ledger, err := q.Snapshot()
	if err != nil {
		return false, err
	}
	if _, done := ledger.Completed[id]; done {
		return true, nil
	}
	claim, ok := ledger.Claimed[id]
	return ok && !claim.Expired(q.nowFunc()), nil
}

// Snapshot returns a read-only copy of the ledger with expired claims
// removed from view. The file itself is not rewritten until the next write.
func (q *Queue) Snapshot() (*model.Ledger, error) {
	ledger, err := q.load()
	if err != nil {
		return nil, err
	}
	q.pruneExpired(ledger)
	return ledger, nil
}

// withLock runs fn over the ledger under the cross-process lock, persisting
// the document if fn reports a change. The lock is released on every exit
// path.
func (q *Queue) withLock(fn func(*model.Ledger) (bool, error)) error {
	if err := os.MkdirAll(filepath.Dir(q.path), 0755); err != nil {
		return fmt.Errorf("create ledger dir: %w", err)
	}

	lockFile, err := q.acquireLock()
	if err != nil {
		return err
	}
	defer func() {
		_ = funlockFile(lockFile)
		_ = lockFile.Close()
	}()

	ledger, err := q.load()
	if err != nil {
		return err
	}

	changed, err := fn(ledger)
	if err != nil || !changed {
		return err
	}

	// Expired claims linger in the document until a write happens anyway
	q.pruneExpired(ledger)
	ledger.LastUpdated = q.nowFunc()

	return q.save(ledger)
}

// acquireLock opens the lock file and takes the flock with bounded retries
// and doubling backoff.
func (q *Queue) acquireLock() (*os.File, error) {
	lockPath := q.path + ".lock"

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("open ledger lock: %w", err)
	}

	backoff := q.lockBackoff
	for attempt := 0; attempt < q.lockRetries; attempt++ {
		if attempt > 0 {
			sleepFunc(backoff)
			backoff *= 2
		}

		err = flockFile(f)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, ErrLedgerLocked) {
			_ = f.Close()
			return nil, fmt.Errorf("lock ledger: %w", err)
		}
	}

	_ = f.Close()
	return nil, ErrLedgerLocked
}

// load reads and parses the ledger. A corrupt ledger is moved aside and
// replaced with a fresh one: availability wins over a record that can no
// longer be trusted anyway.
func (q *Queue) load() (*model.Ledger, error) {
	data, err := os.ReadFile(q.path)
	if os.IsNotExist(err) {
		return model.NewLedger(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}

	var ledger model.Ledger
	if err := json.Unmarshal(data, &ledger); err != nil {
		quarantine := fmt.Sprintf("%s.corrupt-%d", q.path, q.nowFunc().Unix())
		if mvErr := os.Rename(q.path, quarantine); mvErr != nil {
			return nil, fmt.Errorf("ledger corrupt and could not be moved aside: %w", mvErr)
		}
		q.logger.Warn("corrupt work-queue ledger moved aside", "path", quarantine, "error", err)
		return model.NewLedger(), nil
	}

	if ledger.Claimed == nil {
		ledger.Claimed = make(map[string]model.WorkClaim)
	}
	if ledger.Completed == nil {
		ledger.Completed = make(map[string]model.WorkCompletion)
	}
	return &ledger, nil
}

// save writes the ledger atomically: marshal to a temp file in the same
// directory, fsync, then rename over the real path.
func (q *Queue) save(ledger *model.Ledger) error {
	data, err := json.MarshalIndent(ledger, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(q.path), ".ledger-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp ledger: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp ledger: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("sync temp ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp ledger: %w", err)
	}

	if err := os.Rename(tmpPath, q.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace ledger: %w", err)
	}
	return nil
}

func (q *Queue) pruneExpired(ledger *model.Ledger) {
	now := q.nowFunc()
	for id, claim := range ledger.Claimed {
		if claim.Expired(now) {
			delete(ledger.Claimed, id)
		}
	}
}
