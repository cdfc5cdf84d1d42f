package driven

import (
	"context"

	"github.com/licitaware/editais-core/internal/core/domain"
)

// Parser turns a downloaded file into an ordered list of page-tagged text
// segments. The language hint is passed through to engines that support it.
type Parser interface {
	// Parse extracts segments from the file at path. The file name is used
	// to infer the document type.
	Parse(ctx context.Context, path, fileName, language string) ([]domain.Segment, error)

	// Supports reports whether this parser handles the given file name.
	Supports(fileName string) bool
}
