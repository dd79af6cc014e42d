// Package extract pulls payment fields out of a reminder fragment using one
// fixed strategy per provider, then normalizes the raw text into typed values.
package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/bnpl-tracker/constants"
	"github.com/joseph-ayodele/bnpl-tracker/internal/core/dates"
)

const maxInstallments = 60

// Raw is the text located for each field. Empty means not found.
type Raw struct {
	DueDate          string
	Amount           string
	InstallmentIndex string
	InstallmentTotal string
	Autopay          string
}

// Fields is the normalized, partial extraction for one fragment. A nil field
// was either not found or could not be parsed; Problems explains the latter.
type Fields struct {
	DueDate          *dates.Date
	Amount           *decimal.Decimal
	InstallmentIndex *int
	InstallmentTotal *int
	Autopay          *bool
	Problems         map[constants.Field]string
}

// Has reports whether field was extracted.
func (f Fields) Has(field constants.Field) bool {
	switch field {
	case constants.FieldDueDate:
		return f.DueDate != nil
	case constants.FieldAmount:
		return f.Amount != nil
	case constants.FieldInstallmentIndex:
		return f.InstallmentIndex != nil
	case constants.FieldInstallmentTotal:
		return f.InstallmentTotal != nil
	case constants.FieldAutopay:
		return f.Autopay != nil
	}
	return false
}

// Empty reports whether nothing at all was extracted.
func (f Fields) Empty() bool {
	for _, field := range constants.AllFields {
		if f.Has(field) {
			return false
		}
	}
	return true
}

// Problem returns the parse note recorded for field, if any.
func (f Fields) Problem(field constants.Field) string {
	return f.Problems[field]
}

func lookup(p constants.Provider) (*strategy, error) {
	switch p {
	case constants.Klarna:
		return &klarna, nil
	case constants.Affirm:
		return &affirm, nil
	case constants.Afterpay:
		return &afterpay, nil
	case constants.Sezzle:
		return &sezzle, nil
	case constants.Zip:
		return &zip, nil
	case constants.PayPal:
		return &paypal, nil
	}
	return nil, fmt.Errorf("no extraction strategy for provider %q", p)
}

// Expected lists the fields the provider's reminders normally carry.
func Expected(p constants.Provider) []constants.Field {
	s, err := lookup(p)
	if err != nil {
		return nil
	}
	out := make([]constants.Field, len(s.expected))
	copy(out, s.expected)
	return out
}

// Extract locates the raw text of every field using p's strategy. Each field
// is attempted independently; missing fields stay empty. An error is only
// returned for a provider outside the closed set.
func Extract(p constants.Provider, fragment string) (Raw, error) {
	s, err := lookup(p)
	if err != nil {
		return Raw{}, err
	}
	var raw Raw
	raw.DueDate = strings.TrimSpace(firstSubmatch(s.dueDate, fragment))
	raw.Amount = strings.TrimSpace(firstSubmatch(s.amount, fragment))
	raw.InstallmentIndex, raw.InstallmentTotal = firstInstallment(s.installment, fragment)
	raw.Autopay = strings.TrimSpace(firstSubmatch(s.autopay, fragment))
	return raw, nil
}

// Normalize converts raw text into typed values. Text that was found but
// cannot be parsed leaves the field nil and records a problem.
func Normalize(raw Raw) Fields {
	f := Fields{Problems: map[constants.Field]string{}}

	if raw.DueDate != "" {
		if d, err := dates.Parse(raw.DueDate); err == nil {
			f.DueDate = &d
		} else {
			f.Problems[constants.FieldDueDate] = "due date text could not be parsed"
		}
	}

	if raw.Amount != "" {
		if a, ok := ParseAmount(raw.Amount); ok {
			f.Amount = &a
		} else {
			f.Problems[constants.FieldAmount] = "amount text is not a valid non-negative amount"
		}
	}

	idx, idxOK := parseCount(raw.InstallmentIndex)
	total, totalOK := parseCount(raw.InstallmentTotal)
	if raw.InstallmentIndex != "" && !idxOK {
		f.Problems[constants.FieldInstallmentIndex] = "installment number out of range"
	}
	if raw.InstallmentTotal != "" && !totalOK {
		f.Problems[constants.FieldInstallmentTotal] = "installment count out of range"
	}
	switch {
	case idxOK && totalOK && idx > total:
		f.Problems[constants.FieldInstallmentIndex] = "installment number exceeds installment count"
		f.Problems[constants.FieldInstallmentTotal] = "installment number exceeds installment count"
	default:
		if idxOK {
			f.InstallmentIndex = &idx
		}
		if totalOK {
			f.InstallmentTotal = &total
		}
	}

	if raw.Autopay != "" {
		if on, ok := parseAutopay(raw.Autopay); ok {
			f.Autopay = &on
		} else {
			f.Problems[constants.FieldAutopay] = "autopay wording is unclear"
		}
	}
	return f
}

func parseCount(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > maxInstallments {
		return 0, false
	}
	return n, true
}

var (
	reAutopayOff = regexp.MustCompile(`(?i)\b(?:off|disabled|inactive|not|turn\s+on|set\s+up|enable)\b`)
	reAutopayOn  = regexp.MustCompile(`(?i)\b(?:on|enabled|active|automatically)\b`)
)

// parseAutopay reads an autopay phrase. Calls to action such as "turn on
// AutoPay" mean it is currently off.
func parseAutopay(phrase string) (on bool, ok bool) {
	switch {
	case reAutopayOff.MatchString(phrase):
		return false, true
	case reAutopayOn.MatchString(phrase):
		return true, true
	}
	return false, false
}
