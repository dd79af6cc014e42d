package core

import (
	"sort"

	"github.com/joseph-ayodele/bnpl-tracker/constants"
	"github.com/joseph-ayodele/bnpl-tracker/internal/core/dates"
	"github.com/joseph-ayodele/bnpl-tracker/internal/entity"
)

// BuildSchedules groups successful results by provider. Within a provider,
// payments are sorted by due date ascending (undated last, ties in input
// order). RemainingAmount counts only dated payments due on or after today.
// The returned map is never nil.
func BuildSchedules(results []entity.ExtractionResult, today dates.Date) map[constants.Provider]*entity.PaymentSchedule {
	out := make(map[constants.Provider]*entity.PaymentSchedule)
	for _, r := range results {
		if r.Kind != entity.KindSuccess || r.Success == nil {
			continue
		}
		pay := r.Success.Payment
		s, ok := out[pay.Provider]
		if !ok {
			s = &entity.PaymentSchedule{
				Provider: pay.Provider,
				AsOf:     today,
				Payments: []entity.ExtractedPayment{},
			}
			out[pay.Provider] = s
		}
		s.Payments = append(s.Payments, pay)
	}

	for _, s := range out {
		sort.SliceStable(s.Payments, func(i, j int) bool {
			return dueBefore(s.Payments[i].DueDate, s.Payments[j].DueDate)
		})
		for _, pay := range s.Payments {
			if pay.Amount == nil {
				continue
			}
			s.TotalAmount = s.TotalAmount.Plus(*pay.Amount)
			if pay.DueDate != nil && !pay.DueDate.Before(today) {
				s.RemainingAmount = s.RemainingAmount.Plus(*pay.Amount)
			}
		}
		s.Upcoming = Project(s.Provider, s.Payments)
	}
	return out
}

func dueBefore(a, b *dates.Date) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return a.Before(*b)
	}
}

// Project infers the installments still to come after the latest known one.
// Affirm loans are monthly; the pay-in-4 providers bill every two weeks.
// Offsets are taken from the anchor date each time so month-end clamping
// never accumulates.
func Project(p constants.Provider, payments []entity.ExtractedPayment) []entity.ProjectedInstallment {
	out := []entity.ProjectedInstallment{}

	var anchor *entity.ExtractedPayment
	known := map[int]bool{}
	for i := range payments {
		pay := &payments[i]
		if pay.InstallmentIndex == nil {
			continue
		}
		known[*pay.InstallmentIndex] = true
		if pay.InstallmentTotal == nil || pay.DueDate == nil {
			continue
		}
		if anchor == nil || *pay.InstallmentIndex > *anchor.InstallmentIndex {
			anchor = pay
		}
	}
	if anchor == nil {
		return out
	}

	idx, total := *anchor.InstallmentIndex, *anchor.InstallmentTotal
	for next := idx + 1; next <= total; next++ {
		if known[next] {
			continue
		}
		n, t := next, total
		out = append(out, entity.ProjectedInstallment{
			InstallmentIndex: n,
			InstallmentTotal: t,
			DueDate:          shift(p, *anchor.DueDate, next-idx),
			Amount:           anchor.Amount,
			Description:      entity.Describe(p, &n, &t),
		})
	}
	return out
}

func shift(p constants.Provider, d dates.Date, steps int) dates.Date {
	if p == constants.Affirm {
		return dates.AddMonths(d, steps)
	}
	return d.AddDays(14 * steps)
}
