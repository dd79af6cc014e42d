package entity

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is a non-negative USD amount with two fraction digits. It serializes
// as a fixed-point string such as "45.00".
type Money struct {
	decimal.Decimal
}

func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d.Round(2)}
}

// MoneyFromString panics on malformed input; meant for literals.
func MoneyFromString(s string) Money {
	return NewMoney(decimal.RequireFromString(s))
}

func (m Money) Plus(o Money) Money {
	return NewMoney(m.Decimal.Add(o.Decimal))
}

func (m Money) String() string {
	return m.StringFixed(2)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *Money) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("money %q: %w", s, err)
	}
	*m = NewMoney(d)
	return nil
}
