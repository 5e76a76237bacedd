package money

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromDecimal(t *testing.T) {
	tests := []struct {
		name      string
		amount    string
		currency  string
		wantCents int64
	}{
		{"exact cents", "19.99", "USD", 1999},
		{"rounds half up", "10.005", "USD", 1001},
		{"whole amount", "250", "USD", 25000},
		{"negative", "-3.50", "USD", -350},
		{"unknown currency falls back to USD", "1.00", "XXX", 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := decimal.NewFromString(tt.amount)
			require.NoError(t, err)
			m := NewFromDecimal(d, tt.currency)
			assert.Equal(t, tt.wantCents, m.Amount())
		})
	}
}

func TestNewFromString(t *testing.T) {
	t.Run("strips symbols and separators", func(t *testing.T) {
		m, err := NewFromString("$1,234.56", "USD")
		require.NoError(t, err)
		assert.Equal(t, int64(123456), m.Amount())
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := NewFromString("about tree fiddy", "USD")
		assert.Error(t, err)
	})
}

func TestAddSubtract(t *testing.T) {
	a := New(1050, USD)
	b := New(450, USD)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), sum.Amount())

	diff, err := a.Subtract(b)
	require.NoError(t, err)
	assert.Equal(t, int64(600), diff.Amount())

	t.Run("nil is identity", func(t *testing.T) {
		var nilMoney *Money
		sum, err := nilMoney.Add(a)
		require.NoError(t, err)
		assert.Equal(t, int64(1050), sum.Amount())
	})

	t.Run("currency mismatch", func(t *testing.T) {
		_, err := a.Add(New(100, "EUR"))
		assert.Error(t, err)
	})
}

func TestDecimalRoundTrip(t *testing.T) {
	m := New(1999, USD)
	assert.Equal(t, "19.99", m.ToDecimal().StringFixed(2))
	assert.Equal(t, "19.99", m.String())
	assert.Equal(t, "$19.99", m.Display())

	back := NewFromDecimal(m.ToDecimal(), USD)
	assert.True(t, m.Equals(back))
}

func TestJSON(t *testing.T) {
	m := New(1234, USD)

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":1234,"currency":"USD","display":"$12.34"}`, string(data))

	var got Money
	require.NoError(t, json.Unmarshal(data, &got))
	assert.True(t, m.Equals(&got))
}

func TestScanValue(t *testing.T) {
	var m Money
	require.NoError(t, m.Scan(int64(500)))
	assert.Equal(t, int64(500), m.Amount())

	v, err := m.Value()
	require.NoError(t, err)
	assert.Equal(t, int64(500), v)

	t.Run("nil column", func(t *testing.T) {
		var n Money
		require.NoError(t, n.Scan(nil))
		assert.True(t, n.IsZero())
	})

	t.Run("unsupported type", func(t *testing.T) {
		var n Money
		assert.Error(t, n.Scan("500"))
	})
}
