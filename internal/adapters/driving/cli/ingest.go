package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [paths...]",
	Short: "Index files into the vector store",
	Long: `Extracts, chunks and embeds the given files and commits them to
the index. Re-ingesting a path replaces its previous chunks.
A file that fails never aborts its siblings; per-file outcomes are
reported individually.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestCoordinator == nil {
		return errors.New("ingest service not configured")
	}

	ctx := context.Background()

	reports, err := ingestCoordinator.Ingest(ctx, args)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	filesOK := 0
	chunks := 0
	for _, r := range reports {
		if r.Failed() {
			cmd.Printf("  failed  %s: %v\n", r.Path, r.Err)
			continue
		}

		filesOK++
		chunks += len(r.ChunkIDs)
		cmd.Printf("  indexed %s: %d chunks", r.Path, len(r.ChunkIDs))
		if r.Replaced > 0 {
			cmd.Printf(" (replaced %d)", r.Replaced)
		}
		if len(r.Failures) > 0 {
			cmd.Printf(", %d skipped", len(r.Failures))
		}
		cmd.Println()

		for _, f := range r.Failures {
			cmd.Printf("          chunk %d skipped: %v\n", f.SourceOffset, f.Err)
		}
	}

	cmd.Println()
	cmd.Printf("Ingested %d of %d files (%d chunks).\n", filesOK, len(reports), chunks)

	// Replacements soft-delete prior chunks even when every new chunk
	// failed, so persist regardless of how many chunks were committed.
	if vectorIndex != nil {
		if err := vectorIndex.Persist(ctx); err != nil {
			return fmt.Errorf("persisting index: %w", err)
		}
	}

	return nil
}
