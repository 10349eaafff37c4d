package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/recall-labs/recall-cli/internal/adapters/driving/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Launch the interactive chat interface",
	Long: `Launch an interactive chat session over your indexed content.
Answers are grounded in retrieved chunks and cite their sources.

Controls:
  Enter    - Ask
  ↑/↓      - Scroll transcript
  Ctrl-C   - Quit`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(_ *cobra.Command, _ []string) error {
	if retriever == nil || generator == nil {
		return errors.New("chat services not configured")
	}

	// Recover panics with a stack trace; a raw panic inside the
	// alternate screen is unreadable.
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in chat: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	model := tui.New(tui.Ports{
		Retriever: retriever,
		Generator: generator,
		History:   historyStore,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat error: %w", err)
	}

	return nil
}
