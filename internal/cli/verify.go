package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/factgate/internal/model"
)

var verifyJSON bool

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <file>...",
	Short: "Verify the factual claims in specific content files",
	Long: `Verify runs claim extraction and verification over the named files
without linting, repair or quarantine. Useful for checking a draft before
it enters the gate.

Example:
  factgate verify content/gpt-5-launch.mdx
  factgate verify --json drafts/*.mdx`,
	Args: cobra.MinimumNArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().BoolVar(&verifyJSON, "json", false, "print the full batch report as JSON")
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	aggregator, err := buildAggregator(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	report := &model.BatchReport{GeneratedAt: time.Now().UTC()}
	for _, file := range args {
		report.Files = append(report.Files, aggregator.VerifyFile(ctx, file))
	}

	if verifyJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		printBatchReport(report)
	}

	if !report.Passed() {
		return fmt.Errorf("%d file(s) failed verification", len(report.FailedFiles()))
	}
	return nil
}

func printBatchReport(report *model.BatchReport) {
	for _, f := range report.Files {
		status := "pass"
		if !f.Passed() {
			status = "FAIL"
		}
		fmt.Printf("%s %s: %d/%d claims verified (avg confidence %.2f)\n",
			status, f.File, f.VerifiedClaims, f.ClaimsChecked, f.AvgConfidence)

		for _, r := range f.FailedHighResults() {
			fmt.Printf("  unverified: %q (confidence %.2f)\n", r.Claim.Text, r.Confidence)
			if r.Notes != "" {
				fmt.Printf("    %s\n", r.Notes)
			}
		}
	}
}
