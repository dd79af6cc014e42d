package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/bnpl-tracker/constants"
	"github.com/joseph-ayodele/bnpl-tracker/internal/async"
	"github.com/joseph-ayodele/bnpl-tracker/internal/clock"
	"github.com/joseph-ayodele/bnpl-tracker/internal/common"
	"github.com/joseph-ayodele/bnpl-tracker/internal/core"
	"github.com/joseph-ayodele/bnpl-tracker/internal/export"
	"github.com/joseph-ayodele/bnpl-tracker/internal/repository"
)

const (
	klarnaReminder = "Your Klarna payment of $45.00 is due Jan 31, 2025 (installment 2 of 4)"
	affirmReminder = "Your Affirm payment of $120.50 is due on February 15, 2025. This is payment 3 of 12. AutoPay is on."
)

type fixture struct {
	svc   *ExtractionService
	queue *async.ProcessorQueue
	db    *repository.DB
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db, err := repository.Open(ctx, repository.Config{DSN: ":memory:"}, discard())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(discard()) })
	require.NoError(t, repository.Migrate(ctx, db))

	repo := repository.NewScheduleRepository(db, discard())
	proc := core.NewProcessor(discard(),
		core.WithClock(clock.NewFixed(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC))))
	queue := async.NewProcessorQueue(proc, repo, discard(), async.WithWorkers(1))
	t.Cleanup(func() { queue.Shutdown(context.Background()) })

	svc := NewExtractionService(proc, queue, repo, export.NewService(repo, discard()),
		Limits{MaxInputBytes: 4096, DefaultMode: constants.ModeScored}, discard())
	return &fixture{svc: svc, queue: queue, db: db}
}

func TestExtractionService_DefaultsMode(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.Extract(context.Background(), ExtractRequest{Text: klarnaReminder})
	require.NoError(t, err)
	require.Equal(t, constants.ModeScored, res.Mode)
	require.NotNil(t, res.Results[0].Success.Confidence)
}

func TestExtractionService_RejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := map[string]ExtractRequest{
		"unknown mode": {Text: klarnaReminder, Mode: "fuzzy"},
		"too large":    {Text: string(make([]byte, 5000))},
		"not utf8":     {Text: "\xff\xfe"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Extract(ctx, req)
			require.Error(t, err)
			require.Equal(t, http.StatusBadRequest, common.HTTPStatus(err))
		})
	}
}

func TestExtractionService_NotConfigured(t *testing.T) {
	svc := NewExtractionService(core.NewProcessor(discard()), nil, nil, nil, Limits{}, nil)
	_, err := svc.Submit(context.Background(), ExtractRequest{Text: klarnaReminder})
	require.ErrorIs(t, err, ErrNotConfigured)
	_, err = svc.Batch(context.Background(), "6f1c8c1e-6a4e-4b0e-9b57-3b1f4c2d9a10")
	require.ErrorIs(t, err, ErrNotConfigured)
	_, err = svc.ExportPayments(context.Background(), PaymentQuery{})
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestPaymentQuery_Filter(t *testing.T) {
	f, err := PaymentQuery{Provider: "quadpay", From: "2025-01-01", To: "Feb 1, 2025", Limit: 3}.filter()
	require.NoError(t, err)
	require.Equal(t, constants.Zip, f.Provider)
	require.Equal(t, "2025-01-01", f.From.String())
	require.Equal(t, "2025-02-01", f.To.String())
	require.Equal(t, 3, f.Limit)

	_, err = PaymentQuery{BatchID: "nope", Provider: "Venmo", From: "soon", Limit: -1}.filter()
	require.Error(t, err)
	for _, field := range []string{"batch_id", "provider", "from", "limit"} {
		require.Contains(t, err.Error(), field)
	}
}
