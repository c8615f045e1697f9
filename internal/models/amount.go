package models

import (
	"github.com/shopspring/decimal"
)

// Amount is a monetary value as it travels over the wire: a JSON number with
// exactly two fraction digits. Decoding accepts a JSON number or a numeric string.
type Amount struct {
	decimal.Decimal
}

// NewAmount wraps d.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d}
}

// MustAmount parses s and panics on malformed input. Meant for seeds and tests.
func MustAmount(s string) *Amount {
	d := decimal.RequireFromString(s)
	return &Amount{Decimal: d}
}

// MarshalJSON writes the amount unquoted, rounded to cents.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.StringFixed(2)), nil
}

// UnmarshalJSON keeps the exact decimal sent by the client so that precision
// rules can be checked on the original digits.
func (a *Amount) UnmarshalJSON(data []byte) error {
	return a.Decimal.UnmarshalJSON(data)
}
