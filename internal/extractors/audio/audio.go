// Package audio extracts audio files by transcribing them through an
// external speech-to-text service. The transcript flows through the
// pipeline as ordinary text.
package audio

import (
	"context"
	"fmt"
	"strings"

	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
	"github.com/recall-labs/recall-cli/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles audio files via a Transcriber.
type Extractor struct {
	transcriber driven.Transcriber
}

// New creates an audio extractor backed by the given transcriber.
func New(transcriber driven.Transcriber) *Extractor {
	return &Extractor{transcriber: transcriber}
}

// Extensions returns the handled file extensions.
func (e *Extractor) Extensions() []string {
	return []string{".wav", ".mp3", ".m4a", ".flac", ".ogg"}
}

// Extract transcribes the audio file and returns the transcript as one
// unit. A transcription failure fails the whole file.
func (e *Extractor) Extract(ctx context.Context, path string) ([]driven.ContentUnit, error) {
	if e.transcriber == nil {
		return nil, fmt.Errorf("%w: no transcriber configured", domain.ErrUnsupportedType)
	}

	logger.Debug("Transcribing %s", path)
	transcript, err := e.transcriber.Transcribe(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("transcribe %s: %w", path, err)
	}

	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		logger.Warn("Transcription of %s produced no text", path)
		return nil, nil
	}

	return []driven.ContentUnit{{
		Modality: domain.ModalityAudioTranscript,
		Text:     transcript,
	}}, nil
}
