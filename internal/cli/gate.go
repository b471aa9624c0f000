package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ppiankov/factgate/internal/gate"
)

var (
	gateStrict     bool
	gateSkipVerify bool
	gateAll        bool
	gateNoCache    bool
)

// gateCmd represents the gate command
var gateCmd = &cobra.Command{
	Use:   "gate",
	Short: "Run the publish gate over the last-written batch",
	Long: `Gate lints, verifies, repairs and if necessary quarantines the most
recently written content units. The batch is the last-written manifest plus
any new files git reports under the content directory.

The gate is safe to re-run: every pass regenerates its reports, and files
already quarantined are simply absent from the next batch.

Example:
  factgate gate
  factgate gate --strict
  factgate gate --skip-verify
  factgate gate --all content`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGate,
}

func init() {
	rootCmd.AddCommand(gateCmd)

	gateCmd.Flags().BoolVar(&gateStrict, "strict", false, "treat lint warnings as failures")
	gateCmd.Flags().BoolVar(&gateSkipVerify, "skip-verify", false, "lint only, skip claim verification")
	gateCmd.Flags().BoolVar(&gateAll, "all", false, "gate every file in the content directory (disables quarantine)")
	gateCmd.Flags().BoolVar(&gateNoCache, "no-cache", false, "disable the verdict cache (force fresh verification)")
}

func runGate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Gate.Strict = cfg.Gate.Strict || gateStrict
	cfg.Gate.SkipVerify = gateSkipVerify
	cfg.Gate.FullRepository = gateAll
	if gateNoCache {
		cfg.Cache.Enabled = false
	}
	if len(args) == 1 {
		cfg.Gate.ContentDir = args[0]
	}

	logger := newLogger(cfg)

	aggregator, err := buildAggregator(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	g := gate.New(cfg.Gate, nil, aggregator, buildRepairer(logger), logger)
	result, err := g.Run(ctx)
	if err != nil {
		return fmt.Errorf("gate run: %w", err)
	}

	printGateResult(result)

	return gateResultErr(result)
}

// gateResultErr maps a gate result onto the process exit contract: only a
// full pass exits zero. A quarantine event lost files from the batch and
// schedulers must see that.
func gateResultErr(result *gate.Result) error {
	switch result.Outcome {
	case gate.OutcomeFailed:
		return fmt.Errorf("gate failed: %d file(s) did not verify", len(result.Files))
	case gate.OutcomeQuarantined:
		return fmt.Errorf("gate quarantined %d file(s); remainder passed", len(result.Quarantined))
	}
	return nil
}

func printGateResult(result *gate.Result) {
	fmt.Printf("gate %s: %s (%d files)\n", result.RunID[:8], result.Outcome, len(result.Files))

	for _, issue := range result.LintIssues {
		fmt.Printf("  lint %s: %s: %s\n", issue.Severity, issue.File, issue.Message)
	}
	for _, r := range result.Repairs {
		fmt.Printf("  repair %s: %s: %q\n", r.Action, r.File, r.Claim)
	}
	for _, q := range result.Quarantined {
		fmt.Printf("  quarantined: %s\n", q)
	}
	if result.ManifestPath != "" {
		fmt.Printf("  quarantine manifest: %s\n", result.ManifestPath)
	}
}
