package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	historyLimit   int
	historyIngests bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent questions and answers",
	Long: `Lists recent conversation turns, newest first. With --ingests it
lists recent ingest batches instead.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "maximum number of entries")
	historyCmd.Flags().BoolVar(&historyIngests, "ingests", false, "show ingest batches instead of conversation turns")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if historyStore == nil {
		return errors.New("history store not configured")
	}

	ctx := context.Background()

	if historyIngests {
		return outputIngestHistory(ctx, cmd)
	}
	return outputTurnHistory(ctx, cmd)
}

func outputTurnHistory(ctx context.Context, cmd *cobra.Command) error {
	turns, err := historyStore.RecentTurns(ctx, historyLimit)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}

	if len(turns) == 0 {
		cmd.Println("No history yet.")
		return nil
	}

	for _, turn := range turns {
		cmd.Printf("%s\n", turn.CreatedAt.Local().Format("2006-01-02 15:04"))
		cmd.Printf("  Q: %s\n", turn.Question)
		cmd.Printf("  A: %s\n", firstLine(turn.Answer))
		if len(turn.Citations) > 0 {
			cmd.Printf("     (%d sources)\n", len(turn.Citations))
		}
		cmd.Println()
	}

	return nil
}

func outputIngestHistory(ctx context.Context, cmd *cobra.Command) error {
	records, err := historyStore.RecentIngests(ctx, historyLimit)
	if err != nil {
		return fmt.Errorf("loading ingest history: %w", err)
	}

	if len(records) == 0 {
		cmd.Println("No ingests yet.")
		return nil
	}

	for _, rec := range records {
		cmd.Printf("%s  %d files ok, %d failed, %d chunks\n",
			rec.StartedAt.Local().Format("2006-01-02 15:04"),
			rec.FilesOK, rec.FilesFailed, rec.Chunks)
		cmd.Printf("  %s\n", strings.Join(rec.Paths, ", "))
		cmd.Println()
	}

	return nil
}

// firstLine truncates a multi-line answer for the history listing.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}
