// Package markdown extracts markdown files as text, stripping the
// formatting noise that would pollute embeddings.
package markdown

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

// Extractor handles markdown files.
type Extractor struct{}

// New creates a markdown extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the handled file extensions.
func (e *Extractor) Extensions() []string {
	return []string{".md", ".markdown"}
}

// Extract reads the file and returns the cleaned text as one unit.
func (e *Extractor) Extract(_ context.Context, path string) ([]driven.ContentUnit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	text := strings.TrimSpace(clean(string(data)))
	if text == "" {
		return nil, nil
	}

	return []driven.ContentUnit{{
		Modality: domain.ModalityText,
		Text:     text,
	}}, nil
}

// clean strips heading markers, emphasis, and code fence lines while
// keeping the readable content, including code inside fences.
func clean(content string) string {
	lines := strings.Split(content, "\n")
	out := make([]string, 0, len(lines))

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		// Fence delimiters carry no content.
		if strings.HasPrefix(trimmed, "```") {
			continue
		}

		trimmed = strings.TrimLeft(trimmed, "#")
		trimmed = strings.TrimSpace(trimmed)
		trimmed = strings.ReplaceAll(trimmed, "**", "")
		trimmed = strings.ReplaceAll(trimmed, "`", "")

		out = append(out, trimmed)
	}

	return strings.Join(out, "\n")
}
