package model

import "time"

// Config is the full factgate configuration tree. Values come from (highest
// priority first) CLI flags, FACTGATE_* environment variables, the config
// file, then DefaultConfig.
type Config struct {
	LLM      LLMConfig      `yaml:"llm" json:"llm"`
	Verify   VerifyConfig   `yaml:"verify" json:"verify"`
	Gate     GateConfig     `yaml:"gate" json:"gate"`
	Queue    QueueConfig    `yaml:"queue" json:"queue"`
	Ingest   IngestConfig   `yaml:"ingest" json:"ingest"`
	Cache    CacheConfig    `yaml:"cache" json:"cache"`
	Classify ClassifyConfig `yaml:"classify" json:"classify"`
	Output   OutputConfig   `yaml:"output" json:"output"`
}

// LLMConfig configures the external reasoning/search service client
type LLMConfig struct {
	Provider  string `yaml:"provider" json:"provider"` // "openai", "ollama", or "" (disabled)
	Model     string `yaml:"model" json:"model"`
	APIKey    string `yaml:"-" json:"-"` // From env only, never persisted
	BaseURL   string `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	Timeout   int    `yaml:"timeout" json:"timeout"` // Seconds per call
	MaxTokens int    `yaml:"max_tokens" json:"max_tokens"`
}

// VerifyConfig bounds the extraction/verification work per file
type VerifyConfig struct {
	MaxClaims       int           `yaml:"max_claims" json:"max_claims"`             // Claims checked per file
	MaxContentBytes int           `yaml:"max_content_bytes" json:"max_content_bytes"` // Content window sent upstream
	CallDelay       time.Duration `yaml:"call_delay" json:"call_delay"`             // Pause between sequential calls
	MaxRetries      int           `yaml:"max_retries" json:"max_retries"`           // Transient-failure retries per call
}

// GateConfig locates the content tree and the gate's working files
type GateConfig struct {
	ContentDir     string `yaml:"content_dir" json:"content_dir"`
	QuarantineDir  string `yaml:"quarantine_dir" json:"quarantine_dir"`
	ManifestPath   string `yaml:"manifest_path" json:"manifest_path"` // Last-written file manifest
	ReportPath     string `yaml:"report_path" json:"report_path"`     // Latest batch report
	Strict         bool   `yaml:"strict" json:"strict"`               // Lint warnings fail the batch
	SkipVerify     bool   `yaml:"-" json:"-"`                         // Lint only (flag, not persisted)
	FullRepository bool   `yaml:"-" json:"-"`                         // Verify every file (flag, not persisted)
}

// QueueConfig locates the work-queue ledger
type QueueConfig struct {
	LedgerPath  string        `yaml:"ledger_path" json:"ledger_path"`
	WorkerID    string        `yaml:"worker_id,omitempty" json:"worker_id,omitempty"` // Defaults to host+uuid
	LockRetries int           `yaml:"lock_retries" json:"lock_retries"`
	LockBackoff time.Duration `yaml:"lock_backoff" json:"lock_backoff"`
}

// IngestConfig configures syndicated feed intake
type IngestConfig struct {
	Feeds        map[string]FeedConfig `yaml:"feeds" json:"feeds"`
	DraftsDir    string                `yaml:"drafts_dir" json:"drafts_dir"`
	MaxPerFeed   int                   `yaml:"max_per_feed" json:"max_per_feed"`
	UserAgent    string                `yaml:"user_agent" json:"user_agent"`
	FetchTimeout time.Duration         `yaml:"fetch_timeout" json:"fetch_timeout"`
	FetchDelay   time.Duration         `yaml:"fetch_delay" json:"fetch_delay"` // Pause between article fetches
}

// FeedConfig names a single RSS/Atom feed
type FeedConfig struct {
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url" json:"url"`
}

// CacheConfig configures the verification verdict cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" json:"enabled"`
	Dir       string        `yaml:"dir" json:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" json:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" json:"disk_ttl"`
}

// ClassifyConfig lets deployments extend the built-in tier lists.
// The built-in ordering (S list, then A patterns, then B patterns) is fixed.
type ClassifyConfig struct {
	ExtraAcademicDomains []string `yaml:"extra_academic_domains,omitempty" json:"extra_academic_domains,omitempty"`
}

// OutputConfig controls operator-facing output
type OutputConfig struct {
	Verbose bool `yaml:"verbose" json:"verbose"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:  "openai",
			Model:     "",
			Timeout:   45,
			MaxTokens: 2000,
		},
		Verify: VerifyConfig{
			MaxClaims:       6,
			MaxContentBytes: 24_000,
			CallDelay:       1500 * time.Millisecond,
			MaxRetries:      3,
		},
		Gate: GateConfig{
			ContentDir:    "content",
			QuarantineDir: "candidate-pool",
			ManifestPath:  ".factgate/last-written.json",
			ReportPath:    ".factgate/verification-report.json",
		},
		Queue: QueueConfig{
			LedgerPath:  ".factgate/work-queue.json",
			LockRetries: 10,
			LockBackoff: 150 * time.Millisecond,
		},
		Ingest: IngestConfig{
			Feeds: map[string]FeedConfig{
				"hn": {Name: "Hacker News", URL: "https://hnrss.org/newest"},
				"tr": {Name: "Technology Review", URL: "https://www.technologyreview.com/feed/"},
			},
			DraftsDir:    "drafts",
			MaxPerFeed:   10,
			UserAgent:    "factgate/0.1 (+https://github.com/ppiankov/factgate)",
			FetchTimeout: 30 * time.Second,
			FetchDelay:   time.Second,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".factgate/cache",
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   72 * time.Hour,
		},
		Output: OutputConfig{},
	}
}
