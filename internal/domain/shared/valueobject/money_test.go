package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	m, err := NewMoney(2500, USD)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), m.MinorUnits())
	assert.Equal(t, USD, m.Currency())

	_, err = NewMoney(100, "")
	assert.Error(t, err)
}

func TestMoney_AddSubtract(t *testing.T) {
	a := MustNewMoney(1000, USD)
	b := MustNewMoney(350, USD)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, int64(1350), sum.MinorUnits())

	diff, err := a.Subtract(b)
	require.NoError(t, err)
	assert.Equal(t, int64(650), diff.MinorUnits())

	// Operands are untouched
	assert.Equal(t, int64(1000), a.MinorUnits())
	assert.Equal(t, int64(350), b.MinorUnits())
}

func TestMoney_CurrencyMismatch(t *testing.T) {
	usd := MustNewMoney(100, USD)
	eur := MustNewMoney(100, EUR)

	_, err := usd.Add(eur)
	assert.ErrorIs(t, err, ErrCurrencyMismatch)

	_, err = usd.Subtract(eur)
	assert.ErrorIs(t, err, ErrCurrencyMismatch)

	_, err = usd.Compare(eur)
	assert.ErrorIs(t, err, ErrCurrencyMismatch)
}

func TestMoney_MultiplyByInt(t *testing.T) {
	m := MustNewMoney(1099, USD)
	assert.Equal(t, int64(3297), m.MultiplyByInt(3).MinorUnits())
	assert.Equal(t, int64(0), m.MultiplyByInt(0).MinorUnits())
	assert.Equal(t, int64(-1099), m.MultiplyByInt(-1).MinorUnits())
}

func TestMoney_Multiply_RoundHalfToEven(t *testing.T) {
	tests := []struct {
		name   string
		minor  int64
		factor string
		want   int64
	}{
		{"exact", 1000, "0.5", 500},
		{"half rounds to even down", 25, "0.5", 12},  // 12.5 -> 12
		{"half rounds to even up", 35, "0.5", 18},    // 17.5 -> 18
		{"repeated fraction", 1000, "0.333", 333},    // 333.0
		{"rate above one", 999, "1.175", 1174},       // 1173.825 -> 1174
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factor, err := decimal.NewFromString(tt.factor)
			require.NoError(t, err)
			got := MustNewMoney(tt.minor, USD).Multiply(factor)
			assert.Equal(t, tt.want, got.MinorUnits())
		})
	}
}

func TestMoney_Compare(t *testing.T) {
	small := MustNewMoney(100, USD)
	big := MustNewMoney(200, USD)

	c, err := small.Compare(big)
	require.NoError(t, err)
	assert.Equal(t, -1, c)

	c, err = big.Compare(small)
	require.NoError(t, err)
	assert.Equal(t, 1, c)

	c, err = small.Compare(MustNewMoney(100, USD))
	require.NoError(t, err)
	assert.Equal(t, 0, c)

	less, err := small.LessThan(big)
	require.NoError(t, err)
	assert.True(t, less)

	greater, err := big.GreaterThan(small)
	require.NoError(t, err)
	assert.True(t, greater)
}

func TestMoney_Signs(t *testing.T) {
	assert.True(t, Zero(USD).IsZero())
	assert.True(t, MustNewMoney(1, USD).IsPositive())
	assert.True(t, MustNewMoney(-1, USD).IsNegative())
	assert.Equal(t, int64(-500), MustNewMoney(500, USD).Negate().MinorUnits())
	assert.Equal(t, int64(500), MustNewMoney(-500, USD).Abs().MinorUnits())
}

func TestMoney_String(t *testing.T) {
	assert.Equal(t, "27.00 USD", MustNewMoney(2700, USD).String())
	assert.Equal(t, "0.01 USD", MustNewMoney(1, USD).String())
	assert.Equal(t, "-3.50 EUR", MustNewMoney(-350, EUR).String())
}

func TestMoney_JSONRoundTrip(t *testing.T) {
	m := MustNewMoney(2700, USD)
	data, err := json.Marshal(m)
	require.NoError(t, err)

	var back Money
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, m.Equals(back))
}

func TestMoney_Scan(t *testing.T) {
	var m Money
	require.NoError(t, m.Scan(int64(1234)))
	assert.Equal(t, int64(1234), m.MinorUnits())
	assert.Equal(t, DefaultCurrency, m.Currency())

	require.NoError(t, m.Scan(nil))
	assert.True(t, m.IsZero())

	assert.Error(t, m.Scan("not-a-number"))
}
