package driven

import "context"

// Transcriber converts an audio file to text. Transcription runs in an
// external speech-to-text service; the core only sees the resulting
// transcript, which is chunked and embedded as text.
type Transcriber interface {
	// Transcribe returns the transcript for an audio file.
	Transcribe(ctx context.Context, path string) (string, error)

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
