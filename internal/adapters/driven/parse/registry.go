package parse

import (
	"context"
	"fmt"

	"github.com/licitaware/editais-core/internal/core/domain"
	"github.com/licitaware/editais-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.Parser = (*Registry)(nil)

// Registry dispatches to the first registered parser that supports the file
// name. Unknown extensions fall back to the PDF parser, since presigned
// upload URLs frequently lack an extension.
type Registry struct {
	parsers  []driven.Parser
	fallback driven.Parser
}

// NewRegistry creates a registry with the default parser set.
func NewRegistry() *Registry {
	pdf := NewPDFParser()
	return &Registry{
		parsers:  []driven.Parser{pdf, NewCSVParser()},
		fallback: pdf,
	}
}

// Register adds a parser to the registry.
func (r *Registry) Register(p driven.Parser) {
	r.parsers = append(r.parsers, p)
}

// Supports reports whether the registry can parse the file name. Because
// unknown names fall back to the PDF parser, it always returns true.
func (r *Registry) Supports(fileName string) bool {
	return r.pick(fileName) != nil
}

// Parse dispatches to the parser matching the file name.
func (r *Registry) Parse(ctx context.Context, path, fileName, language string) ([]domain.Segment, error) {
	parser := r.pick(fileName)
	if parser == nil {
		return nil, fmt.Errorf("no parser for file %q", fileName)
	}
	return parser.Parse(ctx, path, fileName, language)
}

func (r *Registry) pick(fileName string) driven.Parser {
	for _, p := range r.parsers {
		if p.Supports(fileName) {
			return p
		}
	}
	return r.fallback
}
