// Package image extracts image files as a single image unit. The raw
// bytes are passed through to the joint-space embedder; no decoding
// happens here beyond a sanity check on the header.
package image

import (
	"context"
	"fmt"
	"os"

	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles image files.
type Extractor struct{}

// New creates an image extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the handled file extensions.
func (e *Extractor) Extensions() []string {
	return []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}
}

// Extract reads the file and returns one image unit with the raw
// bytes.
func (e *Extractor) Extract(_ context.Context, path string) ([]driven.ContentUnit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image file %s", domain.ErrInvalidInput, path)
	}

	return []driven.ContentUnit{{
		Modality: domain.ModalityImage,
		Data:     data,
	}}, nil
}
