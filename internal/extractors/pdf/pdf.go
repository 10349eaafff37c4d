// Package pdf extracts text from PDF files, one content unit per page
// so citations can point back to the page.
package pdf

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
	"github.com/recall-labs/recall-cli/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles PDF files. Only embedded text is extracted;
// scanned pages without a text layer produce nothing.
type Extractor struct{}

// New creates a PDF extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the handled file extensions.
func (e *Extractor) Extensions() []string {
	return []string{".pdf"}
}

// Extract returns one text unit per page with the page number as the
// offset. Pages that fail to decode are skipped with a warning.
func (e *Extractor) Extract(ctx context.Context, path string) ([]driven.ContentUnit, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	var units []driven.ContentUnit
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			logger.Warn("PDF %s page %d: %v", path, pageNum, err)
			continue
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		units = append(units, driven.ContentUnit{
			Modality: domain.ModalityText,
			Text:     text,
			Offset:   pageNum,
		})
	}

	return units, nil
}
