package extract

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyValuePass(t *testing.T) {
	e := newTestExtractor(nil)

	t.Run("labeled fields are captured", func(t *testing.T) {
		text := strings.Join([]string{
			"Date: 2024-02-10",
			"Source: Corner Market",
			"Category: food",
			"Amount: $23.45",
			"Payment: debit card",
			"Notes: weekly groceries",
		}, "\n")

		res := e.keyValuePass(text)
		require.NotNil(t, res.Date)
		assert.Equal(t, "2024-02-10", res.Date.String())
		require.NotNil(t, res.Source)
		assert.Equal(t, "Corner Market", *res.Source)
		require.NotNil(t, res.Category)
		assert.Equal(t, CategoryFood, *res.Category)
		require.NotNil(t, res.Amount)
		assert.True(t, res.Amount.Equal(decimal.RequireFromString("23.45")))
		require.NotNil(t, res.Method)
		assert.Equal(t, MethodDebitCard, *res.Method)
		require.NotNil(t, res.Notes)
		assert.Equal(t, "weekly groceries", *res.Notes)
	})

	t.Run("wide OCR gaps act as line breaks", func(t *testing.T) {
		text := "Date: 2024-02-10    Amount: 9.99    Source: Kiosk"

		res := e.keyValuePass(text)
		require.NotNil(t, res.Date)
		assert.Equal(t, "2024-02-10", res.Date.String())
		require.NotNil(t, res.Amount)
		assert.True(t, res.Amount.Equal(decimal.RequireFromString("9.99")))
		require.NotNil(t, res.Source)
		assert.Equal(t, "Kiosk", *res.Source)
	})

	t.Run("notes capture continues across lines", func(t *testing.T) {
		text := strings.Join([]string{
			"Amount: 5.00",
			"Memo: first part",
			"second part",
			"Phone: 555-0100",
			"third part",
		}, "\n")

		res := e.keyValuePass(text)
		require.NotNil(t, res.Notes)
		assert.Equal(t, "first part second part Phone: 555-0100 third part", *res.Notes)
	})

	t.Run("recognized labels interrupt notes capture", func(t *testing.T) {
		text := strings.Join([]string{
			"Details: began here",
			"continued here",
			"Amount: 8.00",
		}, "\n")

		res := e.keyValuePass(text)
		require.NotNil(t, res.Notes)
		assert.Equal(t, "began here continued here", *res.Notes)
		require.NotNil(t, res.Amount)
		assert.True(t, res.Amount.Equal(decimal.RequireFromString("8.00")))
	})

	t.Run("captured notes are capped", func(t *testing.T) {
		long := strings.Repeat("x", 600)
		res := e.keyValuePass("Notes: " + long)
		require.NotNil(t, res.Notes)
		assert.Len(t, *res.Notes, notesCaptureLimit)
	})

	t.Run("amount label strips currency noise", func(t *testing.T) {
		res := e.keyValuePass("Amount: USD $1,250.00")
		require.NotNil(t, res.Amount)
		assert.True(t, res.Amount.Equal(decimal.RequireFromString("1250.00")))
	})

	t.Run("unparsable amount stays empty", func(t *testing.T) {
		res := e.keyValuePass("Amount: to be confirmed")
		assert.Nil(t, res.Amount)
	})

	t.Run("unknown category label is rejected", func(t *testing.T) {
		res := e.keyValuePass("Category: miscellaneous")
		assert.Nil(t, res.Category)
	})

	t.Run("method heuristic fills in when no label present", func(t *testing.T) {
		res := e.keyValuePass("Source: Diner\npaid with credit card")
		require.NotNil(t, res.Method)
		assert.Equal(t, MethodCreditCard, *res.Method)
	})

	t.Run("notes fall back to a text preview", func(t *testing.T) {
		res := e.keyValuePass("Source: Diner")
		require.NotNil(t, res.Notes)
		assert.Equal(t, "Source: Diner", *res.Notes)
	})
}
