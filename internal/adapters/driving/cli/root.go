// Package cli implements the recall command line interface.
//
// Commands hold no business logic: they parse flags, call the driving
// ports and render the results. Services are injected by the main
// package before Execute runs; every command guards against a missing
// service so the package stays testable in isolation.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
	"github.com/recall-labs/recall-cli/internal/core/ports/driving"
	"github.com/recall-labs/recall-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var verboseFlag bool

// Injected services. Set via SetServices before Execute.
var (
	ingestCoordinator driving.IngestCoordinator
	retriever         driving.Retriever
	generator         driving.Generator
	statusReporter    driving.StatusReporter
	historyStore      driven.HistoryStore
	vectorIndex       driven.VectorIndex
)

var rootCmd = &cobra.Command{
	Use:   "recall",
	Short: "Search and question your local files across text, images and audio",
	Long: `Recall indexes local files into a multimodal vector index and
answers questions about them with cited sources.

Text, markdown and PDF files are chunked and embedded with a text
encoder. Images are embedded with a joint text/image encoder, so plain
text queries can find them. Audio files are transcribed first and
indexed as text.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging")
}

// Services bundles everything the commands depend on.
type Services struct {
	Ingest    driving.IngestCoordinator
	Retriever driving.Retriever
	Generator driving.Generator
	Status    driving.StatusReporter
	History   driven.HistoryStore
	Index     driven.VectorIndex
}

// SetServices injects the service implementations used by the commands.
func SetServices(s Services) {
	ingestCoordinator = s.Ingest
	retriever = s.Retriever
	generator = s.Generator
	statusReporter = s.Status
	historyStore = s.History
	vectorIndex = s.Index
}

// SetVersion overrides the reported version string.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
