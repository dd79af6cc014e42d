package entity

import (
	"fmt"

	"github.com/joseph-ayodele/bnpl-tracker/constants"
	"github.com/joseph-ayodele/bnpl-tracker/internal/core/dates"
)

// ExtractedPayment represents one installment read from a reminder. Fields
// the reminder did not yield are nil; nothing is defaulted.
type ExtractedPayment struct {
	Provider         constants.Provider `json:"provider"`
	DueDate          *dates.Date        `json:"due_date"`
	Amount           *Money             `json:"amount"`
	InstallmentIndex *int               `json:"installment_index"`
	InstallmentTotal *int               `json:"installment_total"`
	AutopayEnabled   *bool              `json:"autopay_enabled"`
	Description      string             `json:"description"`
}

// Describe builds the short label calendar-style consumers show, e.g.
// "Klarna installment 2 of 4".
func Describe(p constants.Provider, index, total *int) string {
	switch {
	case index != nil && total != nil:
		return fmt.Sprintf("%s installment %d of %d", p, *index, *total)
	case index != nil:
		return fmt.Sprintf("%s installment %d", p, *index)
	default:
		return fmt.Sprintf("%s payment", p)
	}
}

// ProjectedInstallment is a future installment inferred from a known one.
// It is informational and never counted in schedule totals.
type ProjectedInstallment struct {
	InstallmentIndex int        `json:"installment_index"`
	InstallmentTotal int        `json:"installment_total"`
	DueDate          dates.Date `json:"due_date"`
	Amount           *Money     `json:"amount"`
	Description      string     `json:"description"`
}

// PaymentSchedule aggregates the successful payments of one provider within
// one batch. Payments are ordered by due date; undated payments go last.
type PaymentSchedule struct {
	Provider        constants.Provider     `json:"provider"`
	Payments        []ExtractedPayment     `json:"payments"`
	TotalAmount     Money                  `json:"total_amount"`
	RemainingAmount Money                  `json:"remaining_amount"`
	AsOf            dates.Date             `json:"as_of"`
	Upcoming        []ProjectedInstallment `json:"upcoming"`
}
