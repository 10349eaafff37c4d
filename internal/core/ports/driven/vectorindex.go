package driven

import (
	"context"

	"github.com/recall-labs/recall-cli/internal/core/domain"
)

// VectorIndex is the durable, queryable store of embeddings and their
// chunk metadata. It maintains one sub-index per modality family
// because distances across differently-trained embedding spaces are
// not comparable.
//
// The index supports one concurrent writer and many concurrent
// readers: a reader never observes a half-written vector/metadata
// pair.
type VectorIndex interface {
	// Add appends a vector and its chunk atomically and returns the
	// allocated chunk ID. The vector must match the configured
	// dimensionality of the chunk's modality family; otherwise Add
	// fails with domain.ErrDimensionMismatch and nothing is written.
	Add(ctx context.Context, embedding []float32, chunk domain.Chunk) (uint64, error)

	// Search returns up to k live chunks from the family's sub-index,
	// ordered by descending cosine similarity with ascending chunk ID
	// as the tie-break. Soft-deleted entries are never returned.
	Search(ctx context.Context, query []float32, family domain.ModalityFamily, k int) ([]Hit, error)

	// GetMetadata returns the chunk for an ID, or
	// domain.ErrNotFound if it is unknown or deleted.
	GetMetadata(ctx context.Context, id uint64) (domain.Chunk, error)

	// Delete soft-deletes a chunk. Idempotent; deleting an unknown ID
	// is a no-op.
	Delete(ctx context.Context, id uint64) error

	// BySource returns the live chunk IDs for a source path in
	// ascending order. Used for idempotent re-ingestion.
	BySource(ctx context.Context, sourcePath string) ([]uint64, error)

	// Persist writes the index files and metadata as one consistent
	// snapshot.
	Persist(ctx context.Context) error

	// Load replaces in-memory state with the persisted snapshot. A
	// missing store yields an empty index; inconsistent files fail
	// with domain.ErrCorruptState.
	Load(ctx context.Context) error

	// Stats returns live chunk counts.
	Stats(ctx context.Context) (domain.IndexStats, error)

	// Compact rebuilds the index dropping tombstoned entries. It takes
	// the writer lock exclusively and is never required for
	// correctness.
	Compact(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// Hit is one similarity search result.
type Hit struct {
	// ChunkID is the matched chunk.
	ChunkID uint64

	// Score is the cosine similarity in [-1, 1].
	Score float64
}
