package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/licitaware/editais-core/internal/core/domain"
	"github.com/licitaware/editais-core/internal/core/ports/driven"
	"github.com/licitaware/editais-core/internal/core/services"
)

// Worker consumes ingestion jobs from the document:ingest queue and runs the
// ingestor for each. Jobs are acknowledged after the ingestor returns: the
// ingestor owns failure semantics (document -> failed), so a job is never
// retried automatically. A crash before the ack leaves the job in the
// processing list for redelivery, where the done short-circuit makes the
// retry harmless.
type Worker struct {
	queue    driven.JobQueue
	ingestor *services.Ingestor
	logger   *slog.Logger

	// Configuration
	concurrency    int
	dequeueTimeout int // seconds

	// Internal state
	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// WorkerConfig holds configuration for the worker.
type WorkerConfig struct {
	Queue          driven.JobQueue
	Ingestor       *services.Ingestor
	Logger         *slog.Logger
	Concurrency    int // Number of concurrent job processors
	DequeueTimeout int // Seconds to block waiting for a job
}

// NewWorker creates a new ingest worker.
func NewWorker(cfg WorkerConfig) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	dequeueTimeout := cfg.DequeueTimeout
	if dequeueTimeout <= 0 {
		dequeueTimeout = 30
	}

	return &Worker{
		queue:          cfg.Queue,
		ingestor:       cfg.Ingestor,
		logger:         logger,
		concurrency:    concurrency,
		dequeueTimeout: dequeueTimeout,
	}
}

// Start begins the worker loop.
// It runs until Stop is called or the context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	w.logger.Info("worker starting",
		"concurrency", w.concurrency,
		"dequeue_timeout", w.dequeueTimeout,
	)

	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			w.processLoop(ctx, workerID)
		}(i)
	}

	go func() {
		wg.Wait()
		close(w.doneCh)
	}()

	return nil
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	close(w.stopCh)
	w.mu.Unlock()

	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("worker stopped")
}

// Wait blocks until the worker stops.
func (w *Worker) Wait() {
	<-w.doneCh
}

// processLoop is the main processing loop for a worker goroutine.
func (w *Worker) processLoop(ctx context.Context, workerID int) {
	logger := w.logger.With("worker_id", workerID)
	logger.Info("worker goroutine started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("worker context cancelled")
			return
		case <-w.stopCh:
			logger.Info("worker stop signal received")
			return
		default:
		}

		queued, err := w.queue.DequeueWithTimeout(ctx, w.dequeueTimeout)
		if err != nil {
			logger.Error("failed to dequeue job", "error", err)
			time.Sleep(time.Second) // Back off on error
			continue
		}

		if queued == nil {
			// Timed out with no job available
			continue
		}

		w.processJob(ctx, queued, logger)
	}
}

// processJob processes a single job and acknowledges it.
func (w *Worker) processJob(ctx context.Context, queued *driven.QueuedJob, logger *slog.Logger) {
	job := queued.Job
	logger = logger.With("document_id", job.DocumentID)
	logger.Info("processing ingest job", "use_pdf_file", job.UsePDFFile)

	startTime := time.Now()
	err := w.ingestor.Ingest(ctx, &job)
	duration := time.Since(startTime)

	if err != nil {
		// The ingestor already transitioned the document to failed; the
		// queue contract is at-most-one successful completion per document,
		// so the job is still acknowledged.
		logger.Error("job failed",
			"duration", duration,
			"stage", domain.StageOf(err),
			"error", err,
		)
	} else {
		logger.Info("job completed", "duration", duration)
	}

	if ackErr := w.queue.Ack(ctx, queued.Receipt); ackErr != nil {
		logger.Error("failed to ack job", "ack_error", ackErr)
	}
}

// Health returns health status of the worker.
type Health struct {
	Running     bool   `json:"running"`
	QueueHealth bool   `json:"queue_health"`
	Error       string `json:"error,omitempty"`
}

// Health returns the health status of the worker.
func (w *Worker) Health(ctx context.Context) Health {
	w.mu.RLock()
	running := w.running
	w.mu.RUnlock()

	health := Health{
		Running: running,
	}

	if err := w.queue.Ping(ctx); err != nil {
		health.QueueHealth = false
		health.Error = err.Error()
	} else {
		health.QueueHealth = true
	}

	return health
}
