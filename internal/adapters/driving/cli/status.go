package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/recall-labs/recall-cli/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index statistics",
	Long:  `Prints the number of live chunks in the index, broken down by modality.`,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if statusReporter == nil {
		return errors.New("status service not configured")
	}

	stats, err := statusReporter.Status(context.Background())
	if err != nil {
		return fmt.Errorf("status failed: %w", err)
	}

	cmd.Printf("Live chunks: %d\n", stats.LiveChunks)

	if len(stats.PerModality) == 0 {
		return nil
	}

	modalities := make([]string, 0, len(stats.PerModality))
	for m := range stats.PerModality {
		modalities = append(modalities, string(m))
	}
	sort.Strings(modalities)

	for _, m := range modalities {
		cmd.Printf("  %-17s %d\n", m, stats.PerModality[domain.Modality(m)])
	}

	return nil
}
