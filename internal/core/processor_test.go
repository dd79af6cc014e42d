package core

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/bnpl-tracker/constants"
	"github.com/joseph-ayodele/bnpl-tracker/internal/clock"
	"github.com/joseph-ayodele/bnpl-tracker/internal/common"
	"github.com/joseph-ayodele/bnpl-tracker/internal/core/dates"
	"github.com/joseph-ayodele/bnpl-tracker/internal/entity"
)

const (
	klarnaReminder = "Your Klarna payment of $45.00 is due Jan 31, 2025 (installment 2 of 4)"
	affirmReminder = "Your Affirm payment of $120.50 is due on February 15, 2025. This is payment 3 of 12. AutoPay is on."
	utilityBill    = "Your electricity bill of $80.00 is due Jan 31, 2025."
)

var feb1 = time.Date(2025, time.February, 1, 9, 0, 0, 0, time.UTC)

func newTestProcessor(t *testing.T, opts ...Option) *Processor {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewProcessor(logger, append([]Option{WithClock(clock.NewFixed(feb1)), WithWorkers(4)}, opts...)...)
}

func join(fragments ...string) string {
	return strings.Join(fragments, "\n---\n")
}

func TestProcess_LegacySingleEmail(t *testing.T) {
	p := newTestProcessor(t)
	res, err := p.Process(context.Background(), klarnaReminder, constants.ModeLegacy)
	require.NoError(t, err)
	require.Len(t, res.Results, 1)

	r := res.Results[0]
	require.Equal(t, entity.KindSuccess, r.Kind)
	require.NotNil(t, r.Success)
	require.Nil(t, r.Unrecognized)
	require.Nil(t, r.Failure)
	require.Nil(t, r.Success.Confidence)
	require.Empty(t, r.Success.Warnings)

	pay := r.Success.Payment
	require.Equal(t, constants.Klarna, pay.Provider)
	require.Equal(t, "45.00", pay.Amount.String())
	require.Equal(t, dates.MustNew(2025, time.January, 31), *pay.DueDate)
	require.Equal(t, 2, *pay.InstallmentIndex)
	require.Equal(t, 4, *pay.InstallmentTotal)
	require.Nil(t, pay.AutopayEnabled)
	require.Equal(t, "Klarna installment 2 of 4", pay.Description)

	b, err := json.Marshal(r)
	require.NoError(t, err)
	require.NotContains(t, string(b), "confidence")
	require.Contains(t, string(b), `"amount":"45.00"`)
	require.Contains(t, string(b), `"due_date":"2025-01-31"`)
}

func TestProcess_ScoredMissingAmount(t *testing.T) {
	p := newTestProcessor(t)
	text := "Your Klarna payment is due Jan 31, 2025 (installment 2 of 4)"
	res, err := p.Process(context.Background(), text, constants.ModeScored)
	require.NoError(t, err)
	require.Len(t, res.Results, 1)

	r := res.Results[0]
	require.Equal(t, entity.KindSuccess, r.Kind)
	require.NotNil(t, r.Success.Confidence)
	require.Less(t, *r.Success.Confidence, 100)
	require.Contains(t, r.Success.Warnings, "amount not found")
	require.Nil(t, r.Success.Payment.Amount)
}

func TestProcess_ScoredCompleteHasFullConfidence(t *testing.T) {
	p := newTestProcessor(t)
	res, err := p.Process(context.Background(), affirmReminder, constants.ModeScored)
	require.NoError(t, err)
	require.Equal(t, 100, *res.Results[0].Success.Confidence)
	require.Empty(t, res.Results[0].Success.Warnings)
}

func TestProcess_BatchOfThreeOneUnrecognized(t *testing.T) {
	p := newTestProcessor(t)
	res, err := p.Process(context.Background(), join(klarnaReminder, affirmReminder, utilityBill), constants.ModeScored)
	require.NoError(t, err)
	require.Len(t, res.Results, 3)
	require.Equal(t, 2, res.Count(entity.KindSuccess))
	require.Equal(t, 1, res.Count(entity.KindUnrecognizedProvider))
	require.Equal(t, entity.KindUnrecognizedProvider, res.Results[2].Kind)

	require.Len(t, res.SchedulesByProvider, 2)
	require.Contains(t, res.SchedulesByProvider, constants.Klarna)
	require.Contains(t, res.SchedulesByProvider, constants.Affirm)
}

func TestProcess_AmbiguousIsUnrecognized(t *testing.T) {
	p := newTestProcessor(t)
	text := "Your Klarna payment of $45.00 is due Jan 31, 2025. You can also pay with Afterpay."
	res, err := p.Process(context.Background(), text, constants.ModeScored)
	require.NoError(t, err)

	r := res.Results[0]
	require.Equal(t, entity.KindUnrecognizedProvider, r.Kind)
	require.ElementsMatch(t, []constants.Provider{constants.Klarna, constants.Afterpay}, r.Unrecognized.Candidates)
	require.Empty(t, res.SchedulesByProvider)
}

func TestProcess_UnrecognizedPreviewIsSanitized(t *testing.T) {
	p := newTestProcessor(t, WithPreviewLength(40))
	res, err := p.Process(context.Background(), "Hi jane.doe@example.com, call 555-123-4567 about your order", constants.ModeLegacy)
	require.NoError(t, err)

	preview := res.Results[0].Unrecognized.RawFragmentPreview
	require.NotContains(t, preview, "jane.doe@example.com")
	require.NotContains(t, preview, "555-123-4567")
	require.Contains(t, preview, "[EMAIL]")
	require.LessOrEqual(t, len([]rune(preview)), 40)
}

func TestProcess_LegacyRequiresDateAndAmount(t *testing.T) {
	p := newTestProcessor(t)
	res, err := p.Process(context.Background(), "Your Klarna payment of $45.00 is coming up soon.", constants.ModeLegacy)
	require.NoError(t, err)

	r := res.Results[0]
	require.Equal(t, entity.KindExtractionFailure, r.Kind)
	require.Equal(t, constants.Klarna, r.Failure.Provider)
	require.Equal(t, []constants.Field{
		constants.FieldDueDate,
		constants.FieldInstallmentIndex,
		constants.FieldInstallmentTotal,
		constants.FieldAutopay,
	}, r.Failure.MissingFields)
	require.Contains(t, r.Failure.SanitizedMessage, "due date")
	require.Empty(t, res.SchedulesByProvider)
}

func TestProcess_ScoredFailsOnlyWhenNothingExtracted(t *testing.T) {
	p := newTestProcessor(t)
	res, err := p.Process(context.Background(), join(
		"Thanks for shopping with Sezzle!",
		"Your Sezzle installment 3 of 4 is coming up.",
	), constants.ModeScored)
	require.NoError(t, err)

	require.Equal(t, entity.KindExtractionFailure, res.Results[0].Kind)
	require.Len(t, res.Results[0].Failure.MissingFields, len(constants.AllFields))

	require.Equal(t, entity.KindSuccess, res.Results[1].Kind)
	require.Equal(t, 100-35-35-5, *res.Results[1].Success.Confidence)
}

func TestProcess_SenderLineReminders(t *testing.T) {
	p := newTestProcessor(t)
	res, err := p.Process(context.Background(), join(
		"Affirm: Your payment of $50.00 is due Mar 1, 2025. Payment 2 of 6.",
		"Affirm reminder - payment of $50.00 due March 1, 2025",
		"Zip: your payment of $30.00 is due Mar 10, 2025.",
		"Klarna\nPayment due: Jan 31, 2025\nAmount: $45.00",
	), constants.ModeScored)
	require.NoError(t, err)
	require.Len(t, res.Results, 4)

	want := []constants.Provider{constants.Affirm, constants.Affirm, constants.Zip, constants.Klarna}
	for i, r := range res.Results {
		require.Equal(t, entity.KindSuccess, r.Kind, "fragment %d", i)
		require.Equal(t, want[i], r.Success.Payment.Provider)
		require.NotNil(t, r.Success.Payment.DueDate, "fragment %d", i)
		require.NotNil(t, r.Success.Payment.Amount, "fragment %d", i)
		require.NotContains(t, r.Success.Warnings, "due date not found")
	}
	require.Equal(t, 100-10-10-5, *res.Results[3].Success.Confidence)
}

func TestProcess_InvalidDateWarnsAsUnparseable(t *testing.T) {
	p := newTestProcessor(t)
	res, err := p.Process(context.Background(), "Your Klarna payment of $45.00 is due Feb 30, 2025 (installment 2 of 4)", constants.ModeScored)
	require.NoError(t, err)

	s := res.Results[0].Success
	require.Nil(t, s.Payment.DueDate)
	require.Contains(t, s.Warnings, "due date text could not be parsed")
}

func TestProcess_OrderPreservation(t *testing.T) {
	fragments := []string{
		klarnaReminder,
		utilityBill,
		affirmReminder,
		"Your Zip payment of $30.00 is due Mar 10, 2025. Installment #2 of 4.",
		"Your PayPal payment 2 of 4 for $62.50 is due on 04/15/2025.",
		"Upcoming payment: $25.00 due 14 Feb 2025. Payment 2/4. Afterpay",
		"Your next Sezzle installment of $37.50 is scheduled for Mar 3, 2025.",
		utilityBill,
	}
	want := []constants.Provider{
		constants.Klarna, "", constants.Affirm, constants.Zip,
		constants.PayPal, constants.Afterpay, constants.Sezzle, "",
	}

	p := newTestProcessor(t, WithWorkers(3))
	res, err := p.Process(context.Background(), join(fragments...), constants.ModeScored)
	require.NoError(t, err)
	require.Len(t, res.Results, len(fragments))
	for i, r := range res.Results {
		require.Equal(t, i, r.Index)
		if want[i] == "" {
			require.Equal(t, entity.KindUnrecognizedProvider, r.Kind, "fragment %d", i)
			continue
		}
		require.Equal(t, entity.KindSuccess, r.Kind, "fragment %d", i)
		require.Equal(t, want[i], r.Success.Payment.Provider)
	}
}

func TestProcess_Idempotent(t *testing.T) {
	input := join(klarnaReminder, affirmReminder, utilityBill,
		"Your Klarna payment of $45.00 is due Feb 14, 2025 (installment 3 of 4)")
	p := newTestProcessor(t)

	for _, mode := range []constants.Mode{constants.ModeLegacy, constants.ModeScored} {
		a, err := p.Process(context.Background(), input, mode)
		require.NoError(t, err)
		b, err := p.Process(context.Background(), input, mode)
		require.NoError(t, err)

		ja, err := json.Marshal(a)
		require.NoError(t, err)
		jb, err := json.Marshal(b)
		require.NoError(t, err)
		require.Equal(t, string(ja), string(jb))
	}
}

func TestProcess_RemainingAmountUsesInjectedClock(t *testing.T) {
	input := join(
		"Your Klarna payment of $45.00 is due Feb 14, 2025 (installment 3 of 4)",
		klarnaReminder,
	)

	p := newTestProcessor(t)
	res, err := p.Process(context.Background(), input, constants.ModeLegacy)
	require.NoError(t, err)

	s := res.SchedulesByProvider[constants.Klarna]
	require.NotNil(t, s)
	require.Equal(t, dates.MustNew(2025, time.February, 1), s.AsOf)
	require.Len(t, s.Payments, 2)
	require.Equal(t, dates.MustNew(2025, time.January, 31), *s.Payments[0].DueDate, "sorted by due date")
	require.Equal(t, "90.00", s.TotalAmount.String())
	require.Equal(t, "45.00", s.RemainingAmount.String())

	require.Len(t, s.Upcoming, 1)
	require.Equal(t, 4, s.Upcoming[0].InstallmentIndex)
	require.Equal(t, dates.MustNew(2025, time.February, 28), s.Upcoming[0].DueDate)

	// a later clock leaves nothing remaining; totals are unaffected
	late := newTestProcessor(t, WithClock(clock.NewFixed(time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC))))
	res, err = late.Process(context.Background(), input, constants.ModeLegacy)
	require.NoError(t, err)
	s = res.SchedulesByProvider[constants.Klarna]
	require.Equal(t, "90.00", s.TotalAmount.String())
	require.Equal(t, "0.00", s.RemainingAmount.String())
	require.True(t, s.RemainingAmount.LessThanOrEqual(s.TotalAmount.Decimal))
}

func TestProcess_HardInputErrors(t *testing.T) {
	p := newTestProcessor(t)

	_, err := p.Process(context.Background(), klarnaReminder, constants.Mode("fast"))
	require.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = p.Process(context.Background(), "Klarna \xff\xfe", constants.ModeLegacy)
	require.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestProcess_EmptyInput(t *testing.T) {
	p := newTestProcessor(t)
	res, err := p.Process(context.Background(), "  \n---\n ", constants.ModeScored)
	require.NoError(t, err)
	require.NotNil(t, res.Results)
	require.Empty(t, res.Results)
	require.NotNil(t, res.SchedulesByProvider)
	require.Empty(t, res.SchedulesByProvider)
}

func TestProcess_LogsNeverCarryRawPII(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	p := NewProcessor(logger, WithClock(clock.NewFixed(feb1)))

	input := join(
		"Questions? Email help@shop.example or call (555) 123-4567. Card 4111 1111 1111 1111.",
		"Your Klarna payment of $45.00 is on its way. Contact jane@example.com, SSN 123-45-6789.",
	)
	_, err := p.Process(context.Background(), input, constants.ModeLegacy)
	require.NoError(t, err)

	out := buf.String()
	require.NotEmpty(t, out)
	for _, secret := range []string{"help@shop.example", "123-4567", "4111 1111 1111 1111", "jane@example.com", "123-45-6789"} {
		require.NotContains(t, out, secret)
	}
}
