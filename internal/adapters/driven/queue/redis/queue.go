package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/licitaware/editais-core/internal/core/domain"
	"github.com/licitaware/editais-core/internal/core/ports/driven"
)

const (
	// Queue keys
	queueKey      = "document:ingest"
	processingKey = "document:ingest:processing"
	claimsKey     = "document:ingest:claims"

	// Claim timeout - how long before a delivered job is considered
	// abandoned by a dead consumer and redelivered
	claimTimeout = 10 * time.Minute
)

// Verify interface compliance
var _ driven.JobQueue = (*Queue)(nil)

// Queue implements JobQueue using the Redis reliable-list pattern: BLMOVE
// atomically moves the head of the FIFO list into a per-queue processing
// list, and Ack removes it there. A claims sorted set timestamps each
// delivery so abandoned jobs can be swept back onto the queue.
type Queue struct {
	client *redis.Client
}

// NewQueue creates a new Redis-backed job queue.
func NewQueue(client *redis.Client) (*Queue, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	return &Queue{client: client}, nil
}

// Enqueue appends a job to the tail of the queue.
func (q *Queue) Enqueue(ctx context.Context, job *domain.IngestJob) error {
	if job == nil {
		return errors.New("job is required")
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	if err := q.client.RPush(ctx, queueKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}
	return nil
}

// DequeueWithTimeout pops the next job, blocking up to timeout seconds.
// Returns nil, nil when the timeout elapses with no job available.
func (q *Queue) DequeueWithTimeout(ctx context.Context, timeout int) (*driven.QueuedJob, error) {
	// Sweep abandoned deliveries first - best effort
	_ = q.reclaimAbandoned(ctx)

	block := time.Duration(timeout) * time.Second
	payload, err := q.client.BLMove(ctx, queueKey, processingKey, "LEFT", "RIGHT", block).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Timed out, no job available
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to pop job: %w", err)
	}

	var job domain.IngestJob
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		// Malformed payload: drop it from the processing list and move on
		q.client.LRem(ctx, processingKey, 1, payload)
		return nil, nil
	}

	// Timestamp the delivery for the abandoned-job sweep
	q.client.ZAdd(ctx, claimsKey, redis.Z{
		Score:  float64(time.Now().Unix()),
		Member: payload,
	})

	return &driven.QueuedJob{Job: job, Receipt: payload}, nil
}

// Ack acknowledges terminal completion of a delivered job.
func (q *Queue) Ack(ctx context.Context, receipt string) error {
	pipe := q.client.Pipeline()
	pipe.LRem(ctx, processingKey, 1, receipt)
	pipe.ZRem(ctx, claimsKey, receipt)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to ack job: %w", err)
	}
	return nil
}

// Nack returns a delivered job to the head of the queue for redelivery.
func (q *Queue) Nack(ctx context.Context, receipt string) error {
	pipe := q.client.Pipeline()
	pipe.LRem(ctx, processingKey, 1, receipt)
	pipe.ZRem(ctx, claimsKey, receipt)
	pipe.LPush(ctx, queueKey, receipt)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to nack job: %w", err)
	}
	return nil
}

// Stats returns queue depth statistics.
func (q *Queue) Stats(ctx context.Context) (*driven.QueueStats, error) {
	pending, err := q.client.LLen(ctx, queueKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get queue length: %w", err)
	}
	processing, err := q.client.LLen(ctx, processingKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get processing length: %w", err)
	}
	return &driven.QueueStats{
		PendingCount:    pending,
		ProcessingCount: processing,
	}, nil
}

// Ping checks if the queue backend is healthy.
func (q *Queue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// Close cleans up resources.
func (q *Queue) Close() error {
	// Redis client is shared, don't close it here
	return nil
}

// reclaimAbandoned moves deliveries older than claimTimeout back onto the
// front of the queue. The ingestor's done short-circuit makes redelivery of
// a completed job harmless.
func (q *Queue) reclaimAbandoned(ctx context.Context) error {
	cutoff := time.Now().Add(-claimTimeout).Unix()

	abandoned, err := q.client.ZRangeByScore(ctx, claimsKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", cutoff),
	}).Result()
	if err != nil {
		return err
	}
	if len(abandoned) == 0 {
		return nil
	}

	pipe := q.client.Pipeline()
	for _, payload := range abandoned {
		pipe.LRem(ctx, processingKey, 1, payload)
		pipe.ZRem(ctx, claimsKey, payload)
		pipe.LPush(ctx, queueKey, payload)
	}
	_, err = pipe.Exec(ctx)
	return err
}
