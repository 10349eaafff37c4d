package driving

import (
	"context"

	"github.com/recall-labs/recall-cli/internal/core/domain"
)

// RetrieveOptions configures one retrieval.
type RetrieveOptions struct {
	// Families restricts the search to the given modality families.
	// Empty means all families with a configured embedder.
	Families []domain.ModalityFamily

	// K is the maximum number of results (default 5).
	K int

	// Threshold drops results scoring below it. Zero keeps the
	// configured default; set it explicitly to disable filtering.
	Threshold *float64
}

// Retriever answers a query with ranked, thresholded, cross-modal
// results. An empty QueryResult is success, not an error.
type Retriever interface {
	Retrieve(ctx context.Context, query string, opts RetrieveOptions) (domain.QueryResult, error)
}

// Generator produces a grounded answer with citations from a
// QueryResult. When the result is empty it returns the fixed
// insufficient-context answer without calling the model.
type Generator interface {
	Generate(ctx context.Context, question string, result domain.QueryResult, history []domain.ConversationTurn) (domain.Answer, error)
}

// StatusReporter exposes live index counts.
type StatusReporter interface {
	Status(ctx context.Context) (domain.IndexStats, error)
}
