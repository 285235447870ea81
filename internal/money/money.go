// Package money provides a currency-tagged decimal amount.
//
// Arithmetic never mixes currencies: Add and Sub return an error when the
// operands disagree. Amounts are exact decimals (shopspring/decimal), negative
// for expenses by convention.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyCurrency    = errors.New("money: currency must not be empty")
	ErrCurrencyMismatch = errors.New("money: currency mismatch")
)

// Money is an immutable amount in a single currency.
type Money struct {
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
}

// New builds a Money value, rejecting an empty currency code.
func New(currency string, amount decimal.Decimal) (Money, error) {
	if currency == "" {
		return Money{}, ErrEmptyCurrency
	}
	return Money{Currency: currency, Amount: amount}, nil
}

// MustNew is New for trusted literals; it panics on an empty currency.
func MustNew(currency string, amount decimal.Decimal) Money {
	m, err := New(currency, amount)
	if err != nil {
		panic(err)
	}
	return m
}

// FromString parses a decimal amount string in the given currency.
func FromString(currency, amount string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("money: parse amount %q: %w", amount, err)
	}
	return New(currency, d)
}

// Zero returns the zero amount in the given currency.
func Zero(currency string) Money {
	return Money{Currency: currency, Amount: decimal.Zero}
}

// Add returns m + other. Both operands must share a currency.
func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	return Money{Currency: m.Currency, Amount: m.Amount.Add(other.Amount)}, nil
}

// Sub returns m - other. Both operands must share a currency.
func (m Money) Sub(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	return Money{Currency: m.Currency, Amount: m.Amount.Sub(other.Amount)}, nil
}

// MulInt returns m scaled by an integer factor.
func (m Money) MulInt(n int64) Money {
	return Money{Currency: m.Currency, Amount: m.Amount.Mul(decimal.NewFromInt(n))}
}

// DivInt returns m divided by n, unrounded (decimal division precision).
func (m Money) DivInt(n int64) Money {
	return Money{Currency: m.Currency, Amount: m.Amount.Div(decimal.NewFromInt(n))}
}

// Neg returns -m.
func (m Money) Neg() Money {
	return Money{Currency: m.Currency, Amount: m.Amount.Neg()}
}

// Abs returns |m|.
func (m Money) Abs() Money {
	return Money{Currency: m.Currency, Amount: m.Amount.Abs()}
}

// Round2 rounds to two decimal places, half away from zero.
func (m Money) Round2() Money {
	return Money{Currency: m.Currency, Amount: m.Amount.Round(2)}
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool { return m.Amount.IsZero() }

// GreaterThan reports m > other, ignoring currency (callers compare magnitudes
// they already validated).
func (m Money) GreaterThan(other Money) bool {
	return m.Amount.GreaterThan(other.Amount)
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Amount.StringFixed(2), m.Currency)
}
