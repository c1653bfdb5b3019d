/*
money.go - Validated monetary value type

PURPOSE:
  All premium, advance, and refund amounts flow through Money. The type is
  constructed once at the boundary (HTTP request, database row) and is
  trusted downstream - no ad-hoc re-validation in the business rules.

DESIGN:
  - Backed by decimal.Decimal. Floats never touch monetary math.
  - Construction rejects negative and non-finite input (ErrInvalidAmount)
    and normalizes to 2 decimal places.
  - Arithmetic results are NOT re-validated: Sub may go negative during an
    intermediate computation (e.g. remaining = total - paid). Callers that
    need a floor use Max(Zero()).

USAGE:
  premium, err := engine.NewMoney(413.04)
  if err != nil { ... }
  quarter := premium.DivInt(4) // 103.26

SEE ALSO:
  - errors.go: ErrInvalidAmount
  - planner.go: schedule math built on Money
*/
package engine

import (
	"math"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Two-decimal monetary amount
// =============================================================================

type Money struct {
	value decimal.Decimal
}

// NewMoney validates and normalizes a float into Money.
// Fails with ErrInvalidAmount for negative, NaN, or infinite input.
func NewMoney(v float64) (Money, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Money{}, ErrInvalidAmount
	}
	if v < 0 {
		return Money{}, ErrInvalidAmount
	}
	return Money{value: decimal.NewFromFloat(v).Round(2)}, nil
}

// NewMoneyFromString parses a decimal string (e.g. from a database row).
func NewMoneyFromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if d.IsNegative() {
		return Money{}, ErrInvalidAmount
	}
	return Money{value: d.Round(2)}, nil
}

// MustMoney is for constants and tests where the input is known-valid.
func MustMoney(v float64) Money {
	m, err := NewMoney(v)
	if err != nil {
		panic(err)
	}
	return m
}

func ZeroMoney() Money { return Money{value: decimal.Zero} }

// moneyFromDecimal wraps an already-computed decimal without validation.
// Internal use only: intermediate arithmetic may legitimately be negative.
func moneyFromDecimal(d decimal.Decimal) Money { return Money{value: d} }

// =============================================================================
// ARITHMETIC
// =============================================================================

func (m Money) Add(o Money) Money { return Money{value: m.value.Add(o.value)} }
func (m Money) Sub(o Money) Money { return Money{value: m.value.Sub(o.value)} }

// MulRate multiplies by a rate (e.g. 0.8) and rounds to 2 decimals.
func (m Money) MulRate(rate decimal.Decimal) Money {
	return Money{value: m.value.Mul(rate).Round(2)}
}

// DivInt divides into n equal parts, rounded to 2 decimals.
func (m Money) DivInt(n int) Money {
	return Money{value: m.value.Div(decimal.NewFromInt(int64(n))).Round(2)}
}

func (m Money) Min(o Money) Money {
	if m.LessThan(o) {
		return m
	}
	return o
}

func (m Money) Max(o Money) Money {
	if m.GreaterThan(o) {
		return m
	}
	return o
}

// =============================================================================
// COMPARISON & ACCESS
// =============================================================================

func (m Money) Equal(o Money) bool              { return m.value.Equal(o.value) }
func (m Money) LessThan(o Money) bool           { return m.value.LessThan(o.value) }
func (m Money) GreaterThan(o Money) bool        { return m.value.GreaterThan(o.value) }
func (m Money) GreaterThanOrEqual(o Money) bool { return m.value.GreaterThanOrEqual(o.value) }
func (m Money) IsZero() bool                    { return m.value.IsZero() }
func (m Money) IsNegative() bool                { return m.value.IsNegative() }
func (m Money) IsPositive() bool                { return m.value.IsPositive() }

// Decimal exposes the underlying decimal for ratio math (percentages).
func (m Money) Decimal() decimal.Decimal { return m.value }

func (m Money) Float64() float64 {
	f, _ := m.value.Float64()
	return f
}

// String renders with exactly two decimal places ("413.04").
func (m Money) String() string { return m.value.StringFixed(2) }
