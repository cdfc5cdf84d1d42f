package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/licitaware/editais-core/internal/core/domain"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis, func()) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	return client, mr, func() {
		client.Close()
		mr.Close()
	}
}

func testJob(id string) *domain.IngestJob {
	return &domain.IngestJob{
		DocumentID: id,
		UserID:     "user-1",
		FileURL:    "https://example.com/" + id + ".pdf",
	}
}

func TestNewQueue_RequiresClient(t *testing.T) {
	if _, err := NewQueue(nil); err == nil {
		t.Error("expected error for nil client")
	}
}

func TestQueue_FIFOOrder(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()

	q, err := NewQueue(client)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	if err := q.Enqueue(ctx, testJob("doc-1")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := q.Enqueue(ctx, testJob("doc-2")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	first, err := q.DequeueWithTimeout(ctx, 1)
	if err != nil || first == nil {
		t.Fatalf("dequeue: %v, %v", first, err)
	}
	second, err := q.DequeueWithTimeout(ctx, 1)
	if err != nil || second == nil {
		t.Fatalf("dequeue: %v, %v", second, err)
	}

	if first.Job.DocumentID != "doc-1" || second.Job.DocumentID != "doc-2" {
		t.Errorf("FIFO violated: got %s then %s", first.Job.DocumentID, second.Job.DocumentID)
	}
}

func TestQueue_AckRemovesFromProcessing(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()

	q, _ := NewQueue(client)
	ctx := context.Background()

	_ = q.Enqueue(ctx, testJob("doc-1"))
	queued, err := q.DequeueWithTimeout(ctx, 1)
	if err != nil || queued == nil {
		t.Fatalf("dequeue: %v, %v", queued, err)
	}

	stats, _ := q.Stats(ctx)
	if stats.ProcessingCount != 1 {
		t.Errorf("expected 1 processing, got %d", stats.ProcessingCount)
	}

	if err := q.Ack(ctx, queued.Receipt); err != nil {
		t.Fatalf("ack: %v", err)
	}

	stats, _ = q.Stats(ctx)
	if stats.ProcessingCount != 0 || stats.PendingCount != 0 {
		t.Errorf("expected empty queue after ack, got %+v", stats)
	}
}

func TestQueue_NackReturnsToHead(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()

	q, _ := NewQueue(client)
	ctx := context.Background()

	_ = q.Enqueue(ctx, testJob("doc-1"))
	_ = q.Enqueue(ctx, testJob("doc-2"))

	queued, _ := q.DequeueWithTimeout(ctx, 1)
	if err := q.Nack(ctx, queued.Receipt); err != nil {
		t.Fatalf("nack: %v", err)
	}

	// Nacked job comes back before doc-2
	next, _ := q.DequeueWithTimeout(ctx, 1)
	if next == nil || next.Job.DocumentID != "doc-1" {
		t.Errorf("expected doc-1 redelivered first, got %+v", next)
	}
}

func TestQueue_EmptyTimeout(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()

	q, _ := NewQueue(client)
	queued, err := q.DequeueWithTimeout(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if queued != nil {
		t.Errorf("expected nil on empty queue, got %+v", queued)
	}
}

func TestQueue_ExclusiveDelivery(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()

	q1, _ := NewQueue(client)
	q2, _ := NewQueue(client)
	ctx := context.Background()

	_ = q1.Enqueue(ctx, testJob("doc-1"))

	a, _ := q1.DequeueWithTimeout(ctx, 1)
	b, _ := q2.DequeueWithTimeout(ctx, 1)

	delivered := 0
	if a != nil {
		delivered++
	}
	if b != nil {
		delivered++
	}
	if delivered != 1 {
		t.Errorf("expected exactly one delivery, got %d", delivered)
	}
}

func TestQueue_ReclaimsAbandonedJobs(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()

	q, _ := NewQueue(client)
	ctx := context.Background()

	_ = q.Enqueue(ctx, testJob("doc-1"))
	queued, _ := q.DequeueWithTimeout(ctx, 1)
	if queued == nil {
		t.Fatal("expected delivery")
	}

	// Simulate a consumer that died long ago by backdating the claim
	backdated := float64(time.Now().Add(-2 * claimTimeout).Unix())
	client.ZAdd(ctx, claimsKey, redis.Z{Score: backdated, Member: queued.Receipt})

	redelivered, err := q.DequeueWithTimeout(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if redelivered == nil || redelivered.Job.DocumentID != "doc-1" {
		t.Errorf("expected abandoned job redelivered, got %+v", redelivered)
	}
}

func TestQueue_Ping(t *testing.T) {
	client, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	q, _ := NewQueue(client)
	if err := q.Ping(context.Background()); err != nil {
		t.Errorf("unexpected ping error: %v", err)
	}

	mr.Close()
	if err := q.Ping(context.Background()); err == nil {
		t.Error("expected ping error after close")
	}
}
