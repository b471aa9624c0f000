package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/factgate/internal/queue"
)

// queueCmd represents the queue command group
var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect and drive the shared work queue",
	Long: `Queue manages the file-locked work ledger that coordinates workers.
Claims expire after 24 hours so a crashed worker never strands an item.`,
}

var (
	queueTask string
	queueSlug string
)

var queueClaimCmd = &cobra.Command{
	Use:   "claim <id>",
	Short: "Claim a work item for this worker",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := openQueue()
		if err != nil {
			return err
		}

		ok, err := q.ClaimWork(args[0], queueTask)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%s is already claimed or completed", args[0])
		}
		fmt.Printf("claimed %s as %s\n", args[0], q.WorkerID())
		return nil
	},
}

var queueCompleteCmd = &cobra.Command{
	Use:   "complete <id>",
	Short: "Mark a work item completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := openQueue()
		if err != nil {
			return err
		}

		if err := q.CompleteWork(args[0], queueSlug); err != nil {
			return err
		}
		fmt.Printf("completed %s\n", args[0])
		return nil
	},
}

var queueStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the current ledger state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := openQueue()
		if err != nil {
			return err
		}

		snap, err := q.Snapshot()
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	},
}

func init() {
	rootCmd.AddCommand(queueCmd)
	queueCmd.AddCommand(queueClaimCmd)
	queueCmd.AddCommand(queueCompleteCmd)
	queueCmd.AddCommand(queueStatusCmd)

	queueClaimCmd.Flags().StringVar(&queueTask, "task", "", "task description stored with the claim")
	queueCompleteCmd.Flags().StringVar(&queueSlug, "slug", "", "result slug stored with the completion")
}

func openQueue() (*queue.Queue, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return queue.New(cfg.Queue, newLogger(cfg)), nil
}
