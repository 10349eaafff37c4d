package driven

import (
	"context"

	"github.com/recall-labs/recall-cli/internal/core/domain"
)

// ContentUnit is one extractable piece of a source file: a run of
// text, an image, or an audio transcript. Text-like units are split
// into chunks downstream; images stay whole.
type ContentUnit struct {
	// Modality of the unit.
	Modality domain.Modality

	// Text is the extracted text for text-like units.
	Text string

	// Data is the raw bytes for image units.
	Data []byte

	// Offset is the unit's position in the source (page, segment).
	Offset int
}

// Extractor turns a raw file into content units for one file format.
// Format parsing is deliberately thin: heavyweight decoding
// (transcription, OCR) is delegated to external services.
type Extractor interface {
	// Extensions returns the file extensions this extractor handles,
	// lower-case with the leading dot.
	Extensions() []string

	// Extract reads the file and returns its content units.
	Extract(ctx context.Context, path string) ([]ContentUnit, error)
}

// ExtractorRegistry selects an extractor for a file path.
type ExtractorRegistry interface {
	// ForPath returns the extractor for the path's extension, or
	// domain.ErrUnsupportedType if none is registered.
	ForPath(path string) (Extractor, error)

	// Register adds an extractor for its declared extensions.
	Register(e Extractor)
}
