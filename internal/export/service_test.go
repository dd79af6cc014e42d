package export

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/bnpl-tracker/constants"
	"github.com/joseph-ayodele/bnpl-tracker/internal/clock"
	"github.com/joseph-ayodele/bnpl-tracker/internal/core"
	"github.com/joseph-ayodele/bnpl-tracker/internal/entity"
	"github.com/joseph-ayodele/bnpl-tracker/internal/repository"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func processSample(t *testing.T) *entity.BatchResult {
	t.Helper()
	p := core.NewProcessor(discard(), core.WithClock(clock.NewFixed(time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC))))
	res, err := p.Process(context.Background(), strings.Join([]string{
		"Your Klarna payment of $45.00 is due Jan 31, 2025 (installment 2 of 4)",
		"Your Affirm payment of $120.50 is due on February 15, 2025. This is payment 3 of 12. AutoPay is on.",
		"Your electricity bill is due soon.",
	}, "\n---\n"), constants.ModeScored)
	require.NoError(t, err)
	return res
}

func TestExportSchedulesXLSX(t *testing.T) {
	svc := NewService(nil, discard())
	data, err := svc.ExportSchedulesXLSX(processSample(t))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{SheetPayments, SheetSummary}, f.GetSheetList())

	rows, err := f.GetRows(SheetPayments)
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus two payments")
	require.Equal(t, "Provider", rows[0][0])
	require.Equal(t, "Affirm", rows[1][0], "sorted by provider")
	require.Equal(t, "2025-02-15", rows[1][1])
	require.Equal(t, "3/12", rows[1][3])
	require.Equal(t, "on", rows[1][4])
	require.Equal(t, "Klarna", rows[2][0])
	require.Equal(t, "unknown", rows[2][4])

	raw, err := f.GetCellValue(SheetPayments, "C2", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Equal(t, "120.5", raw)

	summary, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	require.Len(t, summary, 3)
	require.Equal(t, "Affirm", summary[1][0])
	require.Equal(t, "2025-02-01", summary[1][4])
}

func TestExportPaymentsXLSX(t *testing.T) {
	ctx := context.Background()
	db, err := repository.Open(ctx, repository.Config{DSN: ":memory:"}, discard())
	require.NoError(t, err)
	defer db.Close(discard())
	require.NoError(t, repository.Migrate(ctx, db))

	repo := repository.NewScheduleRepository(db, discard())
	require.NoError(t, repo.SaveBatch(ctx, uuid.New(), processSample(t)))

	svc := NewService(repo, discard())
	data, err := svc.ExportPaymentsXLSX(ctx, repository.PaymentFilter{Provider: constants.Klarna})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{SheetPayments}, f.GetSheetList())
	rows, err := f.GetRows(SheetPayments)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "Klarna installment 2 of 4", rows[1][6])

	_, err = NewService(nil, nil).ExportPaymentsXLSX(ctx, repository.PaymentFilter{})
	require.Error(t, err)
}
