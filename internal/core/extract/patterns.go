package extract

import (
	"regexp"

	"github.com/joseph-ayodele/bnpl-tracker/constants"
	"github.com/joseph-ayodele/bnpl-tracker/internal/core/dates"
)

// Building blocks shared by the provider strategies. Every pattern below is
// compiled once at package init and only read afterwards.
const (
	datePat   = dates.Pattern
	amountPat = `(?:\$|USD)\s?\d[\d,]*(?:\.\d{1,2})?|\d[\d,]*(?:\.\d{1,2})?\s?USD`
)

func re(expr string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + expr)
}

// labelled captures a value of the given shape that follows a label.
func labelled(label, value string) *regexp.Regexp {
	return re(label + `(` + value + `)`)
}

// trailing captures a value of the given shape that precedes a phrase.
func trailing(value, phrase string) *regexp.Regexp {
	return re(`(` + value + `)` + phrase)
}

// strategy is the fixed set of patterns one provider's reminders follow.
// Lists are ordered by specificity; the first match wins.
type strategy struct {
	dueDate     []*regexp.Regexp // group 1: date text
	amount      []*regexp.Regexp // group 1: amount text
	installment []*regexp.Regexp // named groups "index" and (optional) "total"
	autopay     []*regexp.Regexp // group 1: autopay phrase
	expected    []constants.Field
}

// Patterns reused by several providers.
var (
	dueOn        = labelled(`\bdue\s*:?\s*(?:on\s+|by\s+)?`, datePat)
	dueDateLabel = labelled(`\bdue\s+date\s*:?\s*`, datePat)
	paymentDate  = labelled(`\bpayment\s+date\s*:?\s*`, datePat)
	chargedOn    = labelled(`\b(?:charged|collected|deducted|processed)\s+on\s+`, datePat)
	scheduledFor = labelled(`\bscheduled\s+(?:for|on)\s+`, datePat)

	paymentOf     = labelled(`\bpayment\s+of\s+`, amountPat)
	installmentOf = labelled(`\binstallment\s+of\s+`, amountPat)
	amountLabel   = labelled(`\b(?:amount|total)(?:\s+due)?\s*:?\s*`, amountPat)
	amountIsDue   = trailing(amountPat, `\s+(?:is|will\s+be)\s+(?:due|charged|collected|deducted)`)
	minimumDue    = labelled(`\bminimum\s+(?:payment|due)\s*:?\s*`, amountPat)

	paymentXofY     = re(`\bpayment\s+#?(?P<index>\d{1,2})\s*(?:of|/)\s*(?P<total>\d{1,2})\b`)
	installmentXofY = re(`\binstallment\s+#?(?P<index>\d{1,2})\s*(?:of|/)\s*(?P<total>\d{1,2})\b`)
	ordinalOfY      = re(`\b(?P<index>\d{1,2})(?:st|nd|rd|th)\s+(?:of\s+(?P<total>\d{1,2})\s+)?(?:payments?|installments?)\b`)
	installmentX    = re(`\binstallment\s+#(?P<index>\d{1,2})\b`)

	autopayIs      = re(`(\bauto\s?-?pay\s*(?:is|:)?\s*(?:currently\s+)?(?:on|off|enabled|disabled|active|inactive|not\s+(?:on|enabled|active|set\s+up)))\b`)
	autopayTurnOn  = re(`(\b(?:turn\s+on|set\s+up|enable)\s+auto\s?-?pay)\b`)
	automaticPays  = re(`(\bautomatic\s+payments?\s+(?:are|is)\s+(?:on|off|enabled|disabled|not\s+(?:on|enabled)))\b`)
	willAutoCharge = re(`(\b(?:we['’]?ll|we\s+will|will\s+be)\s+automatically\s+(?:charge|deduct|collect|charged|deducted|collected)\w*)`)
)

var allExpected = []constants.Field{
	constants.FieldDueDate,
	constants.FieldAmount,
	constants.FieldInstallmentIndex,
	constants.FieldInstallmentTotal,
	constants.FieldAutopay,
}

func firstSubmatch(list []*regexp.Regexp, text string) string {
	for _, r := range list {
		if m := r.FindStringSubmatch(text); len(m) > 1 {
			return m[1]
		}
	}
	return ""
}

func firstInstallment(list []*regexp.Regexp, text string) (index, total string) {
	for _, r := range list {
		m := r.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if i := r.SubexpIndex("index"); i > 0 {
			index = m[i]
		}
		if i := r.SubexpIndex("total"); i > 0 {
			total = m[i]
		}
		return index, total
	}
	return "", ""
}
