package export

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/bnpl-tracker/constants"
	"github.com/joseph-ayodele/bnpl-tracker/internal/entity"
	"github.com/joseph-ayodele/bnpl-tracker/internal/repository"
)

const (
	SheetPayments = "Payments"
	SheetSummary  = "Summary"
)

// Service produces XLSX bytes for schedule exports.
type Service struct {
	scheduleRepo repository.ScheduleRepository
	logger       *slog.Logger
}

func NewService(repo repository.ScheduleRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{scheduleRepo: repo, logger: logger}
}

// paymentRow is the flattened shape both exports write.
type paymentRow struct {
	payment    entity.ExtractedPayment
	confidence *int
}

// ExportSchedulesXLSX writes one batch result: every successful payment on
// the Payments sheet and per-provider totals on the Summary sheet.
func (s *Service) ExportSchedulesXLSX(res *entity.BatchResult) ([]byte, error) {
	start := time.Now()
	var rows []paymentRow
	for _, r := range res.Results {
		if r.Success != nil {
			rows = append(rows, paymentRow{payment: r.Success.Payment, confidence: r.Success.Confidence})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].payment.Provider != rows[j].payment.Provider {
			return rows[i].payment.Provider < rows[j].payment.Provider
		}
		a, b := rows[i].payment.DueDate, rows[j].payment.DueDate
		return a != nil && (b == nil || a.Before(*b))
	})

	buf, err := s.write(rows, res.SchedulesByProvider)
	if err != nil {
		return nil, err
	}
	s.logger.Info("export.xlsx.ok",
		"rows", len(rows),
		"providers", len(res.SchedulesByProvider),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf, nil
}

// ExportPaymentsXLSX writes stored payments matching filter. The Summary sheet
// is omitted since stored rows span batches.
func (s *Service) ExportPaymentsXLSX(ctx context.Context, filter repository.PaymentFilter) ([]byte, error) {
	if s.scheduleRepo == nil {
		return nil, fmt.Errorf("export: no schedule repository configured")
	}
	stored, err := s.scheduleRepo.ListPayments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	rows := make([]paymentRow, len(stored))
	for i, p := range stored {
		rows[i] = paymentRow{payment: p.ExtractedPayment, confidence: p.Confidence}
	}
	buf, err := s.write(rows, nil)
	if err != nil {
		return nil, err
	}
	s.logger.Info("export.xlsx.ok", "rows", len(rows), "provider", filter.Provider)
	return buf, nil
}

func (s *Service) write(rows []paymentRow, schedules map[constants.Provider]*entity.PaymentSchedule) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// the default workbook ships with Sheet1; rename it rather than leave it empty
	if err := f.SetSheetName("Sheet1", SheetPayments); err != nil {
		return nil, err
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return nil, err
	}

	headers := []string{
		"Provider",
		"Due Date",
		"Amount",
		"Installment",
		"Autopay",
		"Confidence",
		"Description",
	}
	writeRow(f, SheetPayments, 1, toAny(headers))

	for i, r := range rows {
		p := r.payment
		row := i + 2
		values := []any{string(p.Provider), "", "", installment(p), autopay(p.AutopayEnabled), "", p.Description}
		if p.DueDate != nil {
			values[1] = p.DueDate.String()
		}
		if p.Amount != nil {
			values[2] = p.Amount.InexactFloat64()
		}
		if r.confidence != nil {
			values[5] = *r.confidence
		}
		writeRow(f, SheetPayments, row, values)
		cell, _ := excelize.CoordinatesToCellName(3, row)
		_ = f.SetCellStyle(SheetPayments, cell, cell, moneyStyle)
	}

	_ = f.SetColWidth(SheetPayments, "A", "A", 12) // provider
	_ = f.SetColWidth(SheetPayments, "B", "B", 12) // date
	_ = f.SetColWidth(SheetPayments, "C", "C", 12) // amount
	_ = f.SetColWidth(SheetPayments, "D", "F", 12)
	_ = f.SetColWidth(SheetPayments, "G", "G", 36) // description

	if schedules != nil {
		if _, err := f.NewSheet(SheetSummary); err != nil {
			return nil, err
		}
		writeRow(f, SheetSummary, 1, []any{"Provider", "Payments", "Total", "Remaining", "As Of", "Projected"})

		providers := make([]constants.Provider, 0, len(schedules))
		for p := range schedules {
			providers = append(providers, p)
		}
		sort.Slice(providers, func(i, j int) bool { return providers[i] < providers[j] })

		for i, p := range providers {
			sch := schedules[p]
			row := i + 2
			writeRow(f, SheetSummary, row, []any{
				string(p),
				len(sch.Payments),
				sch.TotalAmount.InexactFloat64(),
				sch.RemainingAmount.InexactFloat64(),
				sch.AsOf.String(),
				len(sch.Upcoming),
			})
			from, _ := excelize.CoordinatesToCellName(3, row)
			to, _ := excelize.CoordinatesToCellName(4, row)
			_ = f.SetCellStyle(SheetSummary, from, to, moneyStyle)
		}
		_ = f.SetColWidth(SheetSummary, "A", "F", 14)
	}

	idx, _ := f.GetSheetIndex(SheetPayments)
	f.SetActiveSheet(idx)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func installment(p entity.ExtractedPayment) string {
	switch {
	case p.InstallmentIndex != nil && p.InstallmentTotal != nil:
		return fmt.Sprintf("%d/%d", *p.InstallmentIndex, *p.InstallmentTotal)
	case p.InstallmentIndex != nil:
		return fmt.Sprintf("%d", *p.InstallmentIndex)
	}
	return ""
}

func autopay(b *bool) string {
	switch {
	case b == nil:
		return "unknown"
	case *b:
		return "on"
	default:
		return "off"
	}
}
