package driven

import (
	"context"

	"github.com/licitaware/editais-core/internal/core/domain"
)

// JobQueue is the durable FIFO queue feeding the ingest worker.
// Implementations must guarantee that an atomically popped job is delivered
// to exactly one consumer at a time; a job is acknowledged only after its
// terminal database write, so a crashed consumer's job is redelivered.
type JobQueue interface {
	// Enqueue appends a job to the tail of the queue.
	Enqueue(ctx context.Context, job *domain.IngestJob) error

	// DequeueWithTimeout pops the next job, blocking up to timeout seconds.
	// Returns nil, nil when the timeout elapses with no job available.
	DequeueWithTimeout(ctx context.Context, timeout int) (*QueuedJob, error)

	// Ack acknowledges terminal completion of a delivered job.
	Ack(ctx context.Context, receipt string) error

	// Nack returns a delivered job to the head of the queue.
	Nack(ctx context.Context, receipt string) error

	// Stats returns queue depth statistics.
	Stats(ctx context.Context) (*QueueStats, error)

	// Ping checks if the queue backend is healthy.
	Ping(ctx context.Context) error

	// Close cleans up resources.
	Close() error
}

// QueuedJob pairs a dequeued payload with the receipt used to Ack or Nack it.
type QueuedJob struct {
	Job     domain.IngestJob
	Receipt string
}

// QueueStats contains queue depth statistics.
type QueueStats struct {
	// PendingCount is the number of jobs waiting to be processed
	PendingCount int64 `json:"pending_count"`

	// ProcessingCount is the number of jobs currently delivered to consumers
	ProcessingCount int64 `json:"processing_count"`
}
