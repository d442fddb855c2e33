package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/backoffice/ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	USD Currency = "USD" // US Dollar (default)
	EUR Currency = "EUR" // Euro
	GBP Currency = "GBP" // British Pound
	JPY Currency = "JPY" // Japanese Yen
)

// DefaultCurrency is the default currency for the system
const DefaultCurrency = USD

// ErrCurrencyMismatch is returned when an operation combines two Money
// values with different currency codes.
var ErrCurrencyMismatch = shared.NewDomainError("CURRENCY_MISMATCH", "Money operands have different currencies")

// Money is a value object representing a monetary amount in integer
// minor units (cents). Arithmetic is exact; there is no floating-point
// representation anywhere in the type. It is immutable - all operations
// return new Money instances.
type Money struct {
	minor    int64
	currency Currency
}

// NewMoney creates Money from an amount in minor units (cents)
func NewMoney(minorUnits int64, currency Currency) (Money, error) {
	if currency == "" {
		return Money{}, shared.NewDomainError("INVALID_CURRENCY", "Currency cannot be empty")
	}
	return Money{minor: minorUnits, currency: currency}, nil
}

// MustNewMoney creates Money from minor units, panics on empty currency.
// Intended for constants and tests.
func MustNewMoney(minorUnits int64, currency Currency) Money {
	m, err := NewMoney(minorUnits, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns a zero-value Money in the specified currency
func Zero(currency Currency) Money {
	return Money{minor: 0, currency: currency}
}

// MinorUnits returns the amount in minor units (cents)
func (m Money) MinorUnits() int64 {
	return m.minor
}

// Currency returns the currency code
func (m Money) Currency() Currency {
	return m.currency
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.minor == 0
}

// IsPositive returns true if the amount is positive
func (m Money) IsPositive() bool {
	return m.minor > 0
}

// IsNegative returns true if the amount is negative
func (m Money) IsNegative() bool {
	return m.minor < 0
}

// Add returns a new Money with the sum of both amounts.
// Returns ErrCurrencyMismatch if currencies don't match.
func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{minor: m.minor + other.minor, currency: m.currency}, nil
}

// MustAdd adds two Money values, panics if currencies don't match
func (m Money) MustAdd(other Money) Money {
	result, err := m.Add(other)
	if err != nil {
		panic(err)
	}
	return result
}

// Subtract returns a new Money with the difference.
// Returns ErrCurrencyMismatch if currencies don't match.
func (m Money) Subtract(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{minor: m.minor - other.minor, currency: m.currency}, nil
}

// MustSubtract subtracts two Money values, panics if currencies don't match
func (m Money) MustSubtract(other Money) Money {
	result, err := m.Subtract(other)
	if err != nil {
		panic(err)
	}
	return result
}

// MultiplyByInt returns a new Money multiplied by an integer quantity.
// Exact, no rounding involved.
func (m Money) MultiplyByInt(factor int64) Money {
	return Money{minor: m.minor * factor, currency: m.currency}
}

// Multiply returns a new Money multiplied by an arbitrary decimal factor.
// The result is rounded to whole minor units with round-half-to-even,
// applied exactly once. Callers computing a line total must multiply once
// with the combined factor rather than chaining Multiply calls, so each
// line rounds a single time.
func (m Money) Multiply(factor decimal.Decimal) Money {
	rounded := decimal.NewFromInt(m.minor).Mul(factor).RoundBank(0)
	return Money{minor: rounded.IntPart(), currency: m.currency}
}

// Negate returns a new Money with the sign reversed
func (m Money) Negate() Money {
	return Money{minor: -m.minor, currency: m.currency}
}

// Abs returns a new Money with the absolute value
func (m Money) Abs() Money {
	if m.minor < 0 {
		return m.Negate()
	}
	return m
}

// Compare returns -1, 0 or 1 depending on whether m is less than, equal
// to, or greater than other. Returns ErrCurrencyMismatch if currencies
// don't match.
func (m Money) Compare(other Money) (int, error) {
	if err := m.sameCurrency(other); err != nil {
		return 0, err
	}
	switch {
	case m.minor < other.minor:
		return -1, nil
	case m.minor > other.minor:
		return 1, nil
	default:
		return 0, nil
	}
}

// Equals returns true if both Money values are equal (same amount and currency)
func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.minor == other.minor
}

// LessThan returns true if this Money is less than the other
func (m Money) LessThan(other Money) (bool, error) {
	c, err := m.Compare(other)
	if err != nil {
		return false, err
	}
	return c < 0, nil
}

// GreaterThan returns true if this Money is greater than the other
func (m Money) GreaterThan(other Money) (bool, error) {
	c, err := m.Compare(other)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

// String returns a fixed two-decimal representation, e.g. "27.00 USD"
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.decimal().StringFixed(2), m.currency)
}

// Decimal returns the major-unit amount as a decimal (for display and rates)
func (m Money) Decimal() decimal.Decimal {
	return m.decimal()
}

func (m Money) decimal() decimal.Decimal {
	return decimal.New(m.minor, -2)
}

func (m Money) sameCurrency(other Money) error {
	if m.currency != other.currency {
		return ErrCurrencyMismatch
	}
	return nil
}

// MarshalJSON implements json.Marshaler
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		MinorUnits int64    `json:"minor_units"`
		Currency   Currency `json:"currency"`
	}{
		MinorUnits: m.minor,
		Currency:   m.currency,
	})
}

// UnmarshalJSON implements json.Unmarshaler
func (m *Money) UnmarshalJSON(data []byte) error {
	var v struct {
		MinorUnits int64    `json:"minor_units"`
		Currency   Currency `json:"currency"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	m.minor = v.MinorUnits
	m.currency = v.Currency
	return nil
}

// Value implements driver.Valuer for database storage.
// Stores the minor-unit amount only; the currency lives in a sibling column.
func (m Money) Value() (driver.Value, error) {
	return m.minor, nil
}

// Scan implements sql.Scanner for database retrieval. Scans the minor-unit
// amount; currency defaults to DefaultCurrency if not already set.
func (m *Money) Scan(value any) error {
	if value == nil {
		m.minor = 0
		if m.currency == "" {
			m.currency = DefaultCurrency
		}
		return nil
	}

	switch v := value.(type) {
	case int64:
		m.minor = v
	case int:
		m.minor = int64(v)
	default:
		return fmt.Errorf("cannot scan %T into Money", value)
	}
	if m.currency == "" {
		m.currency = DefaultCurrency
	}
	return nil
}
