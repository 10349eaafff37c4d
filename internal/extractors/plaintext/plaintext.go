// Package plaintext extracts plain text files as a single content
// unit.
package plaintext

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles plain text files.
type Extractor struct{}

// New creates a plaintext extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the handled file extensions.
func (e *Extractor) Extensions() []string {
	return []string{".txt", ".text", ".log"}
}

// Extract reads the whole file as one text unit. Empty files yield no
// units.
func (e *Extractor) Extract(_ context.Context, path string) ([]driven.ContentUnit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, nil
	}

	return []driven.ContentUnit{{
		Modality: domain.ModalityText,
		Text:     text,
	}}, nil
}
