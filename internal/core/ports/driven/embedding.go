package driven

import (
	"context"

	"github.com/recall-labs/recall-cli/internal/core/domain"
)

// EmbedInput is one content unit to embed. Exactly one of Text or Data
// is set depending on the modality.
type EmbedInput struct {
	// Modality of the content.
	Modality domain.Modality

	// Text carries text and transcript content, and text queries
	// routed through a joint text/image space.
	Text string

	// Data carries raw image bytes.
	Data []byte
}

// Embedder converts a content unit into a fixed-length vector for one
// modality family. Implementations wrap failures in
// domain.ErrEmbeddingFailed.
//
// The image-family embedder must also accept text input: cross-modal
// retrieval embeds the text query through the joint text/image space.
type Embedder interface {
	// Embed generates a vector for the given input. The returned
	// vector always has exactly Dimensions() elements.
	Embed(ctx context.Context, input EmbedInput) ([]float32, error)

	// Dimensions returns the fixed vector size for this family.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight
	// request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
