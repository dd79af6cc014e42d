package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/bnpl-tracker/constants"
	"github.com/joseph-ayodele/bnpl-tracker/internal/common"
	"github.com/joseph-ayodele/bnpl-tracker/internal/entity"
	"github.com/joseph-ayodele/bnpl-tracker/internal/repository"
)

// BatchProcessor is the extraction entry point the queue drives.
type BatchProcessor interface {
	Process(ctx context.Context, raw string, mode constants.Mode) (*entity.BatchResult, error)
}

// ProcessorQueue runs submitted batches on a fixed worker pool and records
// each outcome in the schedule repository.
type ProcessorQueue struct {
	proc    BatchProcessor
	repo    repository.ScheduleRepository
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	// senders counts Enqueue calls that passed the closed check and may
	// still send on ch; done releases the ones blocked on a full queue.
	mu      sync.Mutex
	closed  bool
	done    chan struct{}
	senders sync.WaitGroup
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewProcessorQueue(proc BatchProcessor, repo repository.ScheduleRepository, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		proc:    proc,
		repo:    repo,
		logger:  logger,
		workers: 4,
		timeout: 30 * time.Second,
		ch:      make(chan Job, 256),
		done:    make(chan struct{}),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("worker started", "worker_id", workerID)
				for job := range q.ch {
					q.run(workerID, job)
				}
				q.logger.Debug("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) run(workerID int, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	ctx = common.WithBatchID(ctx, job.BatchID.String())
	if job.TraceID != "" {
		ctx = common.WithRequestID(ctx, job.TraceID)
	}
	batchID := common.BatchIDFromContext(ctx)
	requestID := common.RequestIDFromContext(ctx)

	if err := q.repo.MarkRunning(ctx, job.BatchID); err != nil {
		q.logger.Error("batch.mark_running.failed", "worker_id", workerID, "batch_id", batchID, "request_id", requestID, "error", err)
		return
	}

	res, err := q.proc.Process(ctx, job.Text, job.Mode)
	if err == nil {
		err = q.repo.SaveBatch(ctx, job.BatchID, res)
	}
	if err != nil {
		q.logger.Error("batch.processing.failed", "worker_id", workerID, "batch_id", batchID, "request_id", requestID, "error", err)
		// the job context may be what failed; record the outcome on a fresh one
		fctx, fcancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer fcancel()
		if ferr := q.repo.FailBatch(fctx, job.BatchID, err.Error()); ferr != nil {
			q.logger.Error("batch.fail.record_failed", "batch_id", batchID, "request_id", requestID, "error", ferr)
		}
		return
	}
	q.logger.Info("batch.processed",
		"worker_id", workerID,
		"batch_id", batchID,
		"request_id", requestID,
		"fragments", len(res.Results),
		"queued_ms", time.Since(job.SubmittedAt).Milliseconds(),
	)
}

// Submit registers a new batch and queues it. The returned id can be polled
// through the repository.
func (q *ProcessorQueue) Submit(ctx context.Context, text string, mode constants.Mode) (uuid.UUID, error) {
	id := uuid.New()
	if err := q.repo.CreateBatch(ctx, id, mode); err != nil {
		return uuid.Nil, err
	}
	job := Job{
		BatchID:     id,
		Text:        text,
		Mode:        mode,
		SubmittedAt: time.Now(),
		TraceID:     common.RequestIDFromContext(ctx),
	}
	if err := q.Enqueue(ctx, job); err != nil {
		_ = q.repo.FailBatch(context.Background(), id, err.Error())
		return uuid.Nil, err
	}
	return id, nil
}

// Enqueue hands job to the workers, blocking while the queue is full until
// ctx ends or the queue shuts down.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.logger.Warn("cannot enqueue: queue is shutting down", "batch_id", job.BatchID)
		return ErrQueueClosed
	}
	q.senders.Add(1)
	q.mu.Unlock()
	defer q.senders.Done()

	select {
	case q.ch <- job:
		q.logger.Info("queued batch for processing", "batch_id", job.BatchID, "mode", job.Mode)
		return nil
	default:
	}
	q.logger.Warn("queue full, applying backpressure", "batch_id", job.BatchID)
	select {
	case q.ch <- job:
		return nil
	case <-q.done:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting jobs, releases blocked senders and waits for the
// workers to drain what was already queued.
func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.done)
	q.mu.Unlock()

	// no sender can reach ch once these return
	q.senders.Wait()
	close(q.ch)

	drained := make(chan struct{})
	go func() { defer close(drained); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-drained:
		q.logger.Info("queue drained, shutdown complete")
	}
}

var _ Queue = (*ProcessorQueue)(nil)
