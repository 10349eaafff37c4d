package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driving"
	"github.com/recall-labs/recall-cli/internal/logger"
)

// askHistoryTurns is how many prior turns are loaded as context.
const askHistoryTurns = 5

var (
	askLimit     int
	askThreshold float64
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about indexed content",
	Long: `Retrieves the chunks most relevant to the question and generates a
grounded answer with citations. When nothing relevant is indexed the
answer says so instead of guessing.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askLimit, "limit", "n", 0, "maximum number of context chunks (default from config)")
	askCmd.Flags().Float64Var(&askThreshold, "threshold", 0, "minimum similarity score, 0 disables filtering")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := args[0]

	if retriever == nil || generator == nil {
		return errors.New("ask services not configured")
	}

	ctx := context.Background()
	opts := driving.RetrieveOptions{K: askLimit}
	if cmd.Flags().Changed("threshold") {
		t := askThreshold
		opts.Threshold = &t
	}

	result, err := retriever.Retrieve(ctx, question, opts)
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	history := loadHistory(ctx)

	answer, err := generator.Generate(ctx, question, result, history)
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	cmd.Println(answer.Text)
	printCitations(cmd, answer.Citations)

	saveTurn(ctx, question, answer)

	return nil
}

// loadHistory fetches recent turns for conversational context. History
// is optional; a missing or failing store degrades to a fresh
// conversation.
func loadHistory(ctx context.Context) []domain.ConversationTurn {
	if historyStore == nil {
		return nil
	}

	turns, err := historyStore.RecentTurns(ctx, askHistoryTurns)
	if err != nil {
		logger.Warn("loading history: %v", err)
		return nil
	}

	// RecentTurns is newest first; prompts want chronological order.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns
}

func printCitations(cmd *cobra.Command, citations []domain.Citation) {
	if len(citations) == 0 {
		return
	}

	cmd.Println()
	cmd.Println("Sources:")
	for i, c := range citations {
		cmd.Printf("  [%d] %s#%d (%.2f)\n", i+1, c.SourcePath, c.SourceOffset, c.Score)
	}
}

// saveTurn appends the exchange to the conversation history. Best
// effort: a failing store never fails the command.
func saveTurn(ctx context.Context, question string, answer domain.Answer) {
	if historyStore == nil {
		return
	}

	turn := domain.ConversationTurn{
		ID:        uuid.NewString(),
		Question:  question,
		Answer:    answer.Text,
		Citations: answer.Citations,
		CreatedAt: time.Now().UTC(),
	}
	if err := historyStore.SaveTurn(ctx, turn); err != nil {
		logger.Warn("saving turn: %v", err)
	}
}
