package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var compactCmd = &cobra.Command{
	Use:   "compact",
	Short: "Rebuild the index without deleted entries",
	Long: `Rewrites the index dropping chunks that were soft-deleted by
re-ingestion. Compaction reclaims space; it is never required for
correct results.`,
	RunE: runCompact,
}

func init() {
	rootCmd.AddCommand(compactCmd)
}

func runCompact(cmd *cobra.Command, _ []string) error {
	if vectorIndex == nil {
		return errors.New("index not configured")
	}

	ctx := context.Background()

	if err := vectorIndex.Compact(ctx); err != nil {
		return fmt.Errorf("compact failed: %w", err)
	}
	if err := vectorIndex.Persist(ctx); err != nil {
		return fmt.Errorf("persisting index: %w", err)
	}

	cmd.Println("Index compacted.")
	return nil
}
