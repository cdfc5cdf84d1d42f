package mocks

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/licitaware/editais-core/internal/core/domain"
	"github.com/licitaware/editais-core/internal/core/ports/driven"
)

// MockJobQueue is an in-memory JobQueue for testing.
type MockJobQueue struct {
	mu      sync.Mutex
	pending []string

	// Acked records acknowledged receipts
	Acked []string

	// Nacked records nacked receipts
	Nacked []string
}

// NewMockJobQueue creates a new MockJobQueue
func NewMockJobQueue() *MockJobQueue {
	return &MockJobQueue{}
}

func (m *MockJobQueue) Enqueue(ctx context.Context, job *domain.IngestJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, string(payload))
	return nil
}

func (m *MockJobQueue) DequeueWithTimeout(ctx context.Context, timeout int) (*driven.QueuedJob, error) {
	m.mu.Lock()
	if len(m.pending) == 0 {
		m.mu.Unlock()
		// Avoid a busy loop in worker tests
		time.Sleep(10 * time.Millisecond)
		return nil, nil
	}
	payload := m.pending[0]
	m.pending = m.pending[1:]
	m.mu.Unlock()

	var job domain.IngestJob
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		return nil, err
	}
	return &driven.QueuedJob{Job: job, Receipt: payload}, nil
}

func (m *MockJobQueue) Ack(ctx context.Context, receipt string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Acked = append(m.Acked, receipt)
	return nil
}

func (m *MockJobQueue) Nack(ctx context.Context, receipt string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Nacked = append(m.Nacked, receipt)
	m.pending = append([]string{receipt}, m.pending...)
	return nil
}

func (m *MockJobQueue) Stats(ctx context.Context) (*driven.QueueStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &driven.QueueStats{PendingCount: int64(len(m.pending))}, nil
}

func (m *MockJobQueue) Ping(ctx context.Context) error {
	return nil
}

func (m *MockJobQueue) Close() error {
	return nil
}

// AckedCount returns how many jobs were acknowledged.
func (m *MockJobQueue) AckedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Acked)
}
