package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driving"
)

var (
	searchLimit     int
	searchThreshold float64
	searchFamily    string
	searchJSON      bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed content",
	Long: `Embeds the query and returns the most similar chunks across all
modality families. Text queries match indexed images through the joint
text/image embedding space.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (default from config)")
	searchCmd.Flags().Float64Var(&searchThreshold, "threshold", 0, "minimum similarity score, 0 disables filtering")
	searchCmd.Flags().StringVar(&searchFamily, "family", "", "restrict to one modality family (text or image)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if retriever == nil {
		return errors.New("retrieve service not configured")
	}

	opts := driving.RetrieveOptions{
		K: searchLimit,
	}
	if cmd.Flags().Changed("threshold") {
		t := searchThreshold
		opts.Threshold = &t
	}
	if searchFamily != "" {
		family, err := domain.ParseFamily(searchFamily)
		if err != nil {
			return err
		}
		opts.Families = []domain.ModalityFamily{family}
	}

	result, err := retriever.Retrieve(context.Background(), query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, result)
	}

	return outputSearchTable(cmd, result)
}

type searchResultJSON struct {
	ChunkID      uint64  `json:"chunk_id"`
	Score        float64 `json:"score"`
	Modality     string  `json:"modality"`
	SourcePath   string  `json:"source_path"`
	SourceOffset int     `json:"source_offset"`
	Preview      string  `json:"preview"`
}

func outputSearchJSON(cmd *cobra.Command, result domain.QueryResult) error {
	rows := make([]searchResultJSON, len(result.Chunks))
	for i, sc := range result.Chunks {
		rows[i] = searchResultJSON{
			ChunkID:      sc.Chunk.ID,
			Score:        sc.Score,
			Modality:     string(sc.Chunk.Modality),
			SourcePath:   sc.Chunk.SourcePath,
			SourceOffset: sc.Chunk.SourceOffset,
			Preview:      sc.Chunk.TextPreview,
		}
	}

	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, result domain.QueryResult) error {
	if result.Empty() {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, sc := range result.Chunks {
		cmd.Printf("  [%d] %s#%d (%s, %.2f)\n",
			i+1, sc.Chunk.SourcePath, sc.Chunk.SourceOffset, sc.Chunk.Modality, sc.Score)
		if sc.Chunk.TextPreview != "" {
			cmd.Printf("      %s\n", sc.Chunk.TextPreview)
		}
		cmd.Println()
	}

	return nil
}
