package driving

import (
	"context"

	"github.com/recall-labs/recall-cli/internal/core/domain"
)

// IngestCoordinator turns raw files into committed chunks.
type IngestCoordinator interface {
	// Ingest processes each path and returns one report per file.
	// Per-file failures are recorded in the reports, never escalated
	// to abort siblings. Cancellation stops before the next file;
	// chunks already committed remain committed.
	Ingest(ctx context.Context, paths []string) ([]domain.IngestReport, error)
}
