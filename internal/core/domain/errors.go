package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrDimensionMismatch indicates a vector whose length does not
	// match the target sub-index. This is a programmer or configuration
	// error; the write is rejected before anything becomes visible.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrNotFound indicates a requested chunk is unknown or deleted.
	ErrNotFound = errors.New("not found")

	// ErrEmbeddingFailed indicates the embedding adapter could not
	// process a content unit. Recoverable: the chunk is skipped and the
	// failure reported per-chunk.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrGenerationUnavailable indicates the language model call failed
	// or timed out. Recoverable: the caller may retry or degrade; the
	// generator itself never retries.
	ErrGenerationUnavailable = errors.New("generation unavailable")

	// ErrCorruptState indicates the persisted index and metadata files
	// disagree. Fatal for that load; the half-valid index is discarded.
	ErrCorruptState = errors.New("corrupt index state")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates a file type no extractor handles.
	ErrUnsupportedType = errors.New("unsupported type")
)
