package extract

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	reAmountPlain   = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)
	reAmountGrouped = regexp.MustCompile(`^\d{1,3}(,\d{3})+(\.\d{1,2})?$`)
)

// ParseAmount strips the currency marker and thousands separators and parses
// the rest as a two-digit fixed-point decimal. Anything that is not a
// well-formed non-negative amount reports ok=false; it is never coerced to zero.
func ParseAmount(text string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSpace(strings.TrimPrefix(strings.ToUpper(s), "USD"))
	s = strings.TrimSpace(strings.TrimSuffix(s, "USD"))
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimRight(strings.TrimSpace(s), ",")
	if s == "" {
		return decimal.Decimal{}, false
	}

	switch {
	case reAmountPlain.MatchString(s):
	case reAmountGrouped.MatchString(s):
		s = strings.ReplaceAll(s, ",", "")
	default:
		return decimal.Decimal{}, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Decimal{}, false
	}
	return d.Round(2), true
}
