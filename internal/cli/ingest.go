package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ppiankov/factgate/internal/gate"
	"github.com/ppiankov/factgate/internal/ingest"
	"github.com/ppiankov/factgate/internal/model"
	"github.com/ppiankov/factgate/internal/queue"
)

var (
	ingestFeedKeys []string
	ingestMax      int
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Pull configured feeds and write draft content units",
	Long: `Ingest fetches the configured RSS/Atom feeds, claims unseen items on
the shared work queue, extracts readable article text and writes drafts into
the drafts directory. The drafts become the next gate batch.

Example:
  factgate ingest
  factgate ingest --feed hn`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringSliceVar(&ingestFeedKeys, "feed", nil, "only ingest the named feed keys")
	ingestCmd.Flags().IntVar(&ingestMax, "max", 0, "override max items per feed")
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	if ingestMax > 0 {
		cfg.Ingest.MaxPerFeed = ingestMax
	}
	if len(ingestFeedKeys) > 0 {
		picked := make(map[string]model.FeedConfig)
		for _, key := range ingestFeedKeys {
			feed, ok := cfg.Ingest.Feeds[key]
			if !ok {
				return fmt.Errorf("unknown feed key %q", key)
			}
			picked[key] = feed
		}
		cfg.Ingest.Feeds = picked
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	q := queue.New(cfg.Queue, logger)
	in := ingest.New(cfg.Ingest, q, logger)

	drafts, err := in.Run(ctx)
	if err != nil {
		return err
	}

	if len(drafts) == 0 {
		fmt.Println("nothing new to ingest")
		return nil
	}

	paths := make([]string, 0, len(drafts))
	for _, d := range drafts {
		fmt.Printf("draft: %s (%s)\n", d.Path, d.SourceURL)
		paths = append(paths, d.Path)
	}

	// The manifest makes the drafts the next gate batch
	if err := gate.WriteLastWritten(cfg.Gate.ManifestPath, paths); err != nil {
		return fmt.Errorf("record batch manifest: %w", err)
	}

	fmt.Printf("%d draft(s) written, run 'factgate gate' to verify\n", len(drafts))
	return nil
}
