package driven

import "context"

// LLMService is the external language model used for answer
// generation. The core treats it as a single blocking call bounded by
// the caller's context; implementations wrap failures in
// domain.ErrGenerationUnavailable.
type LLMService interface {
	// Complete produces a text completion for the prompt.
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight
	// request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
