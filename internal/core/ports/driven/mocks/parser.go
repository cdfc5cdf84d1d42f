package mocks

import (
	"context"

	"github.com/licitaware/editais-core/internal/core/domain"
)

// MockParser is a mock implementation of Parser for testing.
type MockParser struct {
	// Segments is returned from Parse
	Segments []domain.Segment

	// Err fails Parse when set
	Err error

	// Calls counts Parse invocations
	Calls int
}

// NewMockParser creates a new MockParser
func NewMockParser(segments ...domain.Segment) *MockParser {
	return &MockParser{Segments: segments}
}

func (m *MockParser) Parse(ctx context.Context, path, fileName, language string) ([]domain.Segment, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Segments, nil
}

func (m *MockParser) Supports(fileName string) bool {
	return true
}
