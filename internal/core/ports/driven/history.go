package driven

import (
	"context"
	"time"

	"github.com/recall-labs/recall-cli/internal/core/domain"
)

// HistoryStore persists conversation turns and ingest batch records.
// The core never reads it; it serves the CLI's history and status
// surfaces.
type HistoryStore interface {
	// SaveTurn appends a conversation turn.
	SaveTurn(ctx context.Context, turn domain.ConversationTurn) error

	// RecentTurns returns up to limit turns, newest first.
	RecentTurns(ctx context.Context, limit int) ([]domain.ConversationTurn, error)

	// SaveIngest records the outcome of one ingest batch.
	SaveIngest(ctx context.Context, rec IngestRecord) error

	// RecentIngests returns up to limit batch records, newest first.
	RecentIngests(ctx context.Context, limit int) ([]IngestRecord, error)

	// Close releases resources.
	Close() error
}

// IngestRecord summarises one ingest batch for the ledger.
type IngestRecord struct {
	// ID is the batch identifier (UUID).
	ID string

	// Paths are the requested inputs.
	Paths []string

	// FilesOK and FilesFailed count per-file outcomes.
	FilesOK     int
	FilesFailed int

	// Chunks is the number of committed chunks.
	Chunks int

	// StartedAt and FinishedAt bound the batch.
	StartedAt  time.Time
	FinishedAt time.Time
}
