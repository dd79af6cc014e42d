package async

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/bnpl-tracker/constants"
	"github.com/joseph-ayodele/bnpl-tracker/internal/clock"
	"github.com/joseph-ayodele/bnpl-tracker/internal/common"
	"github.com/joseph-ayodele/bnpl-tracker/internal/core"
	"github.com/joseph-ayodele/bnpl-tracker/internal/entity"
	"github.com/joseph-ayodele/bnpl-tracker/internal/repository"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newRepo(t *testing.T) repository.ScheduleRepository {
	t.Helper()
	ctx := context.Background()
	db, err := repository.Open(ctx, repository.Config{DSN: ":memory:"}, discard())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(discard()) })
	require.NoError(t, repository.Migrate(ctx, db))
	return repository.NewScheduleRepository(db, discard())
}

type failingProcessor struct{}

func (failingProcessor) Process(context.Context, string, constants.Mode) (*entity.BatchResult, error) {
	return nil, errors.New("extraction exploded")
}

func TestProcessorQueue_SubmitProcessesAndPersists(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	proc := core.NewProcessor(discard(), core.WithClock(clock.NewFixed(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC))))
	q := NewProcessorQueue(proc, repo, discard(), WithWorkers(2), WithQueueSize(4), WithProcessTimeout(5*time.Second))

	id, err := q.Submit(ctx, "Your Klarna payment of $45.00 is due Jan 31, 2025 (installment 2 of 4)", constants.ModeLegacy)
	require.NoError(t, err)

	q.Shutdown(ctx)

	rec, err := repo.GetBatch(ctx, id)
	require.NoError(t, err)
	require.Equal(t, constants.BatchStatusDone, rec.Status)
	require.Equal(t, 1, rec.SuccessCount)

	payments, err := repo.ListPayments(ctx, repository.PaymentFilter{BatchID: &id})
	require.NoError(t, err)
	require.Len(t, payments, 1)
	require.Equal(t, constants.Klarna, payments[0].Provider)
}

func TestProcessorQueue_FailureIsRecorded(t *testing.T) {
	ctx := common.WithRequestID(context.Background(), "req-42")
	repo := newRepo(t)
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	q := NewProcessorQueue(failingProcessor{}, repo, logger, WithWorkers(1))

	id, err := q.Submit(ctx, "anything", constants.ModeScored)
	require.NoError(t, err)
	q.Shutdown(ctx)

	rec, err := repo.GetBatch(ctx, id)
	require.NoError(t, err)
	require.Equal(t, constants.BatchStatusFailed, rec.Status)
	require.Contains(t, *rec.ErrorMessage, "extraction exploded")

	out := buf.String()
	require.Contains(t, out, `"msg":"batch.processing.failed"`)
	require.Contains(t, out, `"batch_id":"`+id.String()+`"`)
	require.Contains(t, out, `"request_id":"req-42"`)
}

// gatedProcessor blocks every call until gate is closed.
type gatedProcessor struct {
	started chan struct{}
	gate    chan struct{}
}

func (p gatedProcessor) Process(_ context.Context, _ string, mode constants.Mode) (*entity.BatchResult, error) {
	p.started <- struct{}{}
	<-p.gate
	return &entity.BatchResult{Mode: mode}, nil
}

func TestProcessorQueue_ShutdownReleasesBlockedEnqueue(t *testing.T) {
	ctx := context.Background()
	proc := gatedProcessor{started: make(chan struct{}, 4), gate: make(chan struct{})}
	q := NewProcessorQueue(proc, newRepo(t), discard(), WithWorkers(1), WithQueueSize(1))

	_, err := q.Submit(ctx, "first", constants.ModeScored)
	require.NoError(t, err)
	<-proc.started
	_, err = q.Submit(ctx, "second", constants.ModeScored)
	require.NoError(t, err)

	blocked := make(chan error, 1)
	go func() {
		_, err := q.Submit(ctx, "third", constants.ModeScored)
		blocked <- err
	}()

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		q.Shutdown(ctx)
	}()

	select {
	case err := <-blocked:
		require.ErrorIs(t, err, ErrQueueClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("enqueue on a full queue was not released by shutdown")
	}

	close(proc.gate)
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown did not return after workers drained")
	}
}

func TestProcessorQueue_BlockedEnqueueHonoursContext(t *testing.T) {
	proc := gatedProcessor{started: make(chan struct{}, 4), gate: make(chan struct{})}
	q := NewProcessorQueue(proc, newRepo(t), discard(), WithWorkers(1), WithQueueSize(1))
	t.Cleanup(func() {
		close(proc.gate)
		q.Shutdown(context.Background())
	})

	_, err := q.Submit(context.Background(), "first", constants.ModeScored)
	require.NoError(t, err)
	<-proc.started
	require.NoError(t, q.Enqueue(context.Background(), Job{Text: "second"}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, q.Enqueue(ctx, Job{Text: "third"}), context.DeadlineExceeded)
}

func TestProcessorQueue_RejectsAfterShutdown(t *testing.T) {
	ctx := context.Background()
	q := NewProcessorQueue(failingProcessor{}, newRepo(t), discard())
	q.Shutdown(ctx)
	q.Shutdown(ctx)

	require.ErrorIs(t, q.Enqueue(ctx, Job{}), ErrQueueClosed)
}
