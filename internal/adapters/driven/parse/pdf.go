package parse

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/licitaware/editais-core/internal/core/domain"
	"github.com/licitaware/editais-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.Parser = (*PDFParser)(nil)

// PDFParser extracts page-tagged text segments from a PDF using native text
// extraction. The language hint is accepted for interface symmetry; native
// extraction does not need it.
type PDFParser struct{}

// NewPDFParser creates a new PDFParser
func NewPDFParser() *PDFParser {
	return &PDFParser{}
}

// Supports reports whether the file name looks like a PDF.
func (p *PDFParser) Supports(fileName string) bool {
	return strings.HasSuffix(strings.ToLower(fileName), ".pdf")
}

// Parse extracts one segment per non-empty page, in page order.
func (p *PDFParser) Parse(ctx context.Context, path, fileName, language string) ([]domain.Segment, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	totalPages := reader.NumPage()
	segments := make([]domain.Segment, 0, totalPages)

	for i := 1; i <= totalPages; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip pages that fail to extract
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		pageNum := i
		segments = append(segments, domain.Segment{
			Text:       text,
			PageNumber: &pageNum,
		})
	}

	return segments, nil
}
