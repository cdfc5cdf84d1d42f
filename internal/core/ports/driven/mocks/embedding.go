package mocks

import (
	"context"
	"hash/fnv"
	"sync"
)

// MockEmbeddingService is a mock implementation of EmbeddingService for
// testing. Safe for concurrent block fan-out.
type MockEmbeddingService struct {
	mu         sync.Mutex
	dimensions int
	model      string

	// FailNext makes the next call return an error
	FailNext bool

	// EmbedCalls counts Embed invocations
	EmbedCalls int

	// QueryCalls counts EmbedQuery invocations
	QueryCalls int

	// ZeroVectors makes every embedding the zero vector
	ZeroVectors bool
}

// NewMockEmbeddingService creates a new MockEmbeddingService
func NewMockEmbeddingService() *MockEmbeddingService {
	return &MockEmbeddingService{
		dimensions: 64,
		model:      "mock-embedding-model",
	}
}

func (m *MockEmbeddingService) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.EmbedCalls++
	if m.FailNext {
		m.FailNext = false
		return nil, context.DeadlineExceeded
	}

	result := make([][]float32, len(texts))
	for i, text := range texts {
		result[i] = m.generateEmbedding(text)
	}
	return result, nil
}

func (m *MockEmbeddingService) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.QueryCalls++
	if m.FailNext {
		m.FailNext = false
		return nil, context.DeadlineExceeded
	}
	return m.generateEmbedding(query), nil
}

func (m *MockEmbeddingService) Dimensions() int {
	return m.dimensions
}

func (m *MockEmbeddingService) Model() string {
	return m.model
}

func (m *MockEmbeddingService) HealthCheck(ctx context.Context) error {
	return nil
}

func (m *MockEmbeddingService) Close() error {
	return nil
}

// generateEmbedding generates a deterministic embedding based on text hash.
// Equal texts map to equal vectors, so cosine similarity is reproducible.
func (m *MockEmbeddingService) generateEmbedding(text string) []float32 {
	vec := make([]float32, m.dimensions)
	if m.ZeroVectors {
		return vec
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()

	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(int64(seed%2000)-1000) / 1000.0
	}
	return vec
}
