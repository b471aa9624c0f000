package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	readability "github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"github.com/ppiankov/factgate/internal/content"
	"github.com/ppiankov/factgate/internal/model"
	"github.com/ppiankov/factgate/internal/queue"
)

const maxDraftBytes = 32_000

// Ingester pulls syndicated feed items, claims them on the shared work
// queue, extracts readable article text and writes draft content units.
// Items another worker already claimed or completed are skipped, so
// concurrent ingest runs never produce duplicate drafts.
type Ingester struct {
	cfg     model.IngestConfig
	queue   *queue.Queue
	parser  *gofeed.Parser
	robots  *robotsChecker
	limiter *rate.Limiter
	logger  *slog.Logger

	fetchBody func(ctx context.Context, pageURL string) (string, error)
}

// Draft records one content unit written by an ingest run.
type Draft struct {
	Path      string `json:"path"`
	Slug      string `json:"slug"`
	SourceURL string `json:"sourceUrl"`
}

func New(cfg model.IngestConfig, q *queue.Queue, logger *slog.Logger) *Ingester {
	if logger == nil {
		logger = slog.Default()
	}

	parser := gofeed.NewParser()
	parser.UserAgent = cfg.UserAgent

	delay := cfg.FetchDelay
	if delay <= 0 {
		delay = time.Second
	}

	in := &Ingester{
		cfg:     cfg,
		queue:   q,
		parser:  parser,
		robots:  newRobotsChecker(cfg.UserAgent, cfg.FetchTimeout),
		limiter: rate.NewLimiter(rate.Every(delay), 1),
		logger:  logger,
	}
	in.fetchBody = in.extractArticle
	return in
}

// Run ingests every configured feed and returns the drafts written.
func (in *Ingester) Run(ctx context.Context) ([]Draft, error) {
	if err := os.MkdirAll(in.cfg.DraftsDir, 0755); err != nil {
		return nil, fmt.Errorf("create drafts dir: %w", err)
	}

	keys := make([]string, 0, len(in.cfg.Feeds))
	for k := range in.cfg.Feeds {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var drafts []Draft
	for _, key := range keys {
		feed := in.cfg.Feeds[key]
		got, err := in.ingestFeed(ctx, feed)
		if err != nil {
			in.logger.Warn("feed ingest failed", "feed", feed.Name, "error", err)
			continue
		}
		drafts = append(drafts, got...)
	}
	return drafts, nil
}

func (in *Ingester) ingestFeed(ctx context.Context, feedCfg model.FeedConfig) ([]Draft, error) {
	feed, err := in.parser.ParseURLWithContext(feedCfg.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedCfg.URL, err)
	}

	count := len(feed.Items)
	if in.cfg.MaxPerFeed > 0 && count > in.cfg.MaxPerFeed {
		count = in.cfg.MaxPerFeed
	}

	var drafts []Draft
	for _, item := range feed.Items[:count] {
		if ctx.Err() != nil {
			return drafts, ctx.Err()
		}

		draft, err := in.ingestItem(ctx, feedCfg, item)
		if err != nil {
			in.logger.Warn("item skipped", "feed", feedCfg.Name, "link", item.Link, "error", err)
			continue
		}
		if draft != nil {
			drafts = append(drafts, *draft)
		}
	}
	return drafts, nil
}

// ingestItem writes at most one draft. A nil draft with nil error means the
// item was legitimately skipped (already processed, claimed elsewhere, or
// disallowed by robots.txt).
func (in *Ingester) ingestItem(ctx context.Context, feedCfg model.FeedConfig, item *gofeed.Item) (*Draft, error) {
	id := item.GUID
	if id == "" {
		id = item.Link
	}
	if id == "" || item.Link == "" {
		return nil, nil
	}

	done, err := in.queue.IsProcessed(id)
	if err != nil {
		return nil, err
	}
	if done {
		return nil, nil
	}

	claimed, err := in.queue.ClaimWork(id, item.Link)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, nil
	}

	if !in.robots.allowed(ctx, item.Link) {
		in.logger.Info("robots.txt disallows fetch", "link", item.Link)
		// Recorded as done so no worker retries a disallowed URL
		return nil, in.queue.CompleteWork(id, "")
	}

	if err := in.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := in.fetchBody(ctx, item.Link)
	if err != nil {
		// Claim is left to expire; a later run retries the fetch
		return nil, fmt.Errorf("fetch article: %w", err)
	}

	slug := Slugify(item.Title)
	if slug == "" {
		slug = Slugify(id)
	}

	doc, err := content.New(
		filepath.Join(in.cfg.DraftsDir, slug+".mdx"),
		content.FrontMatter{
			Title:     item.Title,
			Locale:    "en",
			Slug:      slug,
			SourceURL: item.Link,
			Tags:      append([]string(nil), item.Categories...),
		},
		draftBody(item, body),
	)
	if err != nil {
		return nil, err
	}
	if err := doc.WriteFile(); err != nil {
		return nil, err
	}

	if err := in.queue.CompleteWork(id, slug); err != nil {
		return nil, err
	}

	in.logger.Info("draft written", "feed", feedCfg.Name, "slug", slug, "path", doc.Path)
	return &Draft{Path: doc.Path, Slug: slug, SourceURL: item.Link}, nil
}

// extractArticle pulls readable text from the page, with a plain HTML text
// walk as fallback when the readability pass yields nothing.
func (in *Ingester) extractArticle(ctx context.Context, pageURL string) (string, error) {
	article, err := readability.FromURL(pageURL, in.cfg.FetchTimeout)
	if err == nil && strings.TrimSpace(article.TextContent) != "" {
		return article.TextContent, nil
	}

	text, ferr := in.fallbackText(ctx, pageURL)
	if ferr != nil {
		if err != nil {
			return "", fmt.Errorf("readability: %w", err)
		}
		return "", ferr
	}
	return text, nil
}

func (in *Ingester) fallbackText(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", in.cfg.UserAgent)

	client := &http.Client{Timeout: in.cfg.FetchTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: status %d", pageURL, resp.StatusCode)
	}

	node, err := html.Parse(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	text := strings.TrimSpace(collectText(node))
	if text == "" {
		return "", fmt.Errorf("no text content at %s", pageURL)
	}
	return text, nil
}

func collectText(n *html.Node) string {
	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return ""
	}
	if n.Type == html.TextNode {
		return n.Data
	}

	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(collectText(c))
	}
	return b.String()
}

// draftBody assembles the draft text: feed summary first, then the
// extracted article, truncated at a line boundary.
func draftBody(item *gofeed.Item, article string) string {
	var parts []string
	if summary := strings.TrimSpace(item.Description); summary != "" {
		parts = append(parts, summary)
	}
	if text := strings.TrimSpace(article); text != "" {
		parts = append(parts, text)
	}

	body := strings.Join(parts, "\n\n")
	if len(body) > maxDraftBytes {
		cut := strings.LastIndexByte(body[:maxDraftBytes], '\n')
		if cut <= 0 {
			cut = maxDraftBytes
		}
		body = body[:cut]
	}
	return body + "\n"
}

// Slugify reduces a title to a filesystem and URL safe slug.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}

	slug := strings.Trim(b.String(), "-")
	if len(slug) > 80 {
		slug = strings.Trim(slug[:80], "-")
	}
	return slug
}
