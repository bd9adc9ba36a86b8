// Package valueobjects - Amount is the monetary value object of the wallet service.
// All balances and transfer amounts are fixed-point decimals with 4 fractional digits.
//
// Value Object Pattern:
// - Immutable: All operations return new Amount instances
// - Self-validating: Cannot create an out-of-range Amount
package valueobjects

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits every amount is rounded to.
// The storage layer uses NUMERIC(19,4) with the same scale.
const Scale = 4

// MaxAmountMajorUnits is the overflow cap for caller-supplied transfer
// amounts. Balances are not capped: the treasury wallet is seeded at this
// value and grows with every SPEND, bounded only by NUMERIC(19,4).
const MaxAmountMajorUnits = 1_000_000_000

// Common domain errors for Amount operations
var (
	ErrNegativeAmount    = errors.New("amount cannot be negative")
	ErrZeroAmount        = errors.New("amount must be strictly positive")
	ErrAmountTooLarge    = errors.New("amount exceeds maximum allowed value")
	ErrInvalidAmount     = errors.New("invalid amount format")
	ErrInsufficientValue = errors.New("resulting amount would be negative")
)

// Amount represents a non-negative fixed-point monetary value.
//
// Why shopspring/decimal?
// - Exact decimal arithmetic (no float drift on 0.1 + 0.2)
// - Round-trips cleanly through Postgres NUMERIC
type Amount struct {
	value decimal.Decimal
}

// maxValue is the decimal form of MaxAmountMajorUnits.
var maxValue = decimal.NewFromInt(MaxAmountMajorUnits)

// NewAmount parses a decimal string ("100.5000", "0.0001") into an Amount.
// Values with more than Scale fractional digits are rejected, not rounded:
// the caller sent something the ledger cannot represent exactly.
func NewAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.Exponent() < -Scale {
		return Amount{}, fmt.Errorf("%w: %q has more than %d fractional digits", ErrInvalidAmount, s, Scale)
	}
	if err := checkCap(d); err != nil {
		return Amount{}, err
	}
	return newAmount(d)
}

// NewAmountFromFloat converts a float64 coming from a JSON body.
// The value is rounded to Scale digits before the range check, matching
// what the API accepts on the wire.
func NewAmountFromFloat(f float64) (Amount, error) {
	d := decimal.NewFromFloat(f).Round(Scale)
	if err := checkCap(d); err != nil {
		return Amount{}, err
	}
	return newAmount(d)
}

// NewAmountFromDecimal wraps a decimal loaded from the database.
// No cap check: balances above MaxAmountMajorUnits are legal (treasury).
func NewAmountFromDecimal(d decimal.Decimal) (Amount, error) {
	return newAmount(d)
}

// checkCap bounds caller input only. Never applied to arithmetic or to
// values scanned from storage.
func checkCap(d decimal.Decimal) error {
	if d.GreaterThan(maxValue) {
		return fmt.Errorf("%w: %s > %s", ErrAmountTooLarge, d.String(), maxValue.String())
	}
	return nil
}

func newAmount(d decimal.Decimal) (Amount, error) {
	if d.IsNegative() {
		return Amount{}, ErrNegativeAmount
	}
	return Amount{value: d}, nil
}

// ZeroAmount returns the zero value.
func ZeroAmount() Amount {
	return Amount{value: decimal.Zero}
}

// RawAmount wraps a decimal without range validation. Storage-layer only:
// lets a corrupted (negative) balance surface through CheckIntegrity
// instead of failing at scan time.
func RawAmount(d decimal.Decimal) Amount {
	return Amount{value: d}
}

// MustAmount is a test/seed helper that panics on invalid input.
func MustAmount(s string) Amount {
	a, err := NewAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Decimal returns the underlying decimal value.
func (a Amount) Decimal() decimal.Decimal {
	return a.value
}

// String renders the amount with exactly Scale fractional digits ("600.0000").
func (a Amount) String() string {
	return a.value.StringFixed(Scale)
}

// MarshalJSON renders the amount as a JSON string with fixed scale.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// UnmarshalJSON parses an amount from a JSON string.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := NewAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// IsZero returns true if the amount is zero.
func (a Amount) IsZero() bool {
	return a.value.IsZero()
}

// IsPositive returns true if the amount is strictly greater than zero.
func (a Amount) IsPositive() bool {
	return a.value.IsPositive()
}

// Add returns a + b. Sums are not capped: crediting a wallet that already
// holds the full supply must succeed.
func (a Amount) Add(b Amount) (Amount, error) {
	return newAmount(a.value.Add(b.value))
}

// Sub returns a - b. Fails if the result would be negative.
func (a Amount) Sub(b Amount) (Amount, error) {
	diff := a.value.Sub(b.value)
	if diff.IsNegative() {
		return Amount{}, ErrInsufficientValue
	}
	return Amount{value: diff}, nil
}

// Cmp compares two amounts: -1 if a < b, 0 if equal, +1 if a > b.
func (a Amount) Cmp(b Amount) int {
	return a.value.Cmp(b.value)
}

// GreaterThanOrEqual reports a >= b.
func (a Amount) GreaterThanOrEqual(b Amount) bool {
	return a.value.Cmp(b.value) >= 0
}

// LessThan reports a < b.
func (a Amount) LessThan(b Amount) bool {
	return a.value.Cmp(b.value) < 0
}

// Equals reports exact numeric equality.
func (a Amount) Equals(b Amount) bool {
	return a.value.Cmp(b.value) == 0
}
