package extract

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateHeuristic(t *testing.T) {
	t.Run("iso date", func(t *testing.T) {
		d := dateHeuristic("Paid on 2024-03-05 for services")
		require.NotNil(t, d)
		assert.Equal(t, "2024-03-05", d.String())
	})

	t.Run("slash date with two-digit year", func(t *testing.T) {
		d := dateHeuristic("03/05/24 visit")
		require.NotNil(t, d)
		assert.Equal(t, "2024-03-05", d.String())
	})

	t.Run("textual month date", func(t *testing.T) {
		d := dateHeuristic("Receipt issued Oct 17, 2025 at register 4")
		require.NotNil(t, d)
		assert.Equal(t, "2025-10-17", d.String())
	})

	t.Run("first match wins over later dates", func(t *testing.T) {
		d := dateHeuristic("opened 2023-01-02, renewed 2024-06-07")
		require.NotNil(t, d)
		assert.Equal(t, "2023-01-02", d.String())
	})

	t.Run("first match failing calendar validation yields nil", func(t *testing.T) {
		// 13/45 is not a real month/day and later candidates are not tried.
		assert.Nil(t, dateHeuristic("ref 13/45/2024 then valid 2024-01-01"))
	})

	t.Run("no date", func(t *testing.T) {
		assert.Nil(t, dateHeuristic("no dates in here"))
	})
}

func TestAmountHeuristic(t *testing.T) {
	t.Run("currency symbol with cents", func(t *testing.T) {
		amt := amountHeuristic("Total: $12.34 due")
		require.NotNil(t, amt)
		assert.True(t, amt.Equal(decimal.RequireFromString("12.34")))
	})

	t.Run("bare decimal", func(t *testing.T) {
		amt := amountHeuristic("charged 7.05 at checkout")
		require.NotNil(t, amt)
		assert.True(t, amt.Equal(decimal.RequireFromString("7.05")))
	})

	t.Run("thousands commas are stripped", func(t *testing.T) {
		amt := amountHeuristic("invoice for $1,234.56 total")
		require.NotNil(t, amt)
		assert.True(t, amt.Equal(decimal.RequireFromString("1234.56")))
	})

	t.Run("first match wins", func(t *testing.T) {
		amt := amountHeuristic("item 3.50 then tax 0.70")
		require.NotNil(t, amt)
		assert.True(t, amt.Equal(decimal.RequireFromString("3.50")))
	})

	t.Run("no decimal-cents pattern yields nil", func(t *testing.T) {
		assert.Nil(t, amountHeuristic("total 42 dollars"))
		assert.Nil(t, amountHeuristic("pi is 3.14159"))
	})
}

func TestSourceHeuristic(t *testing.T) {
	t.Run("skips boilerplate and numeric lines", func(t *testing.T) {
		text := "RECEIPT\n1234 Elm Street\nBlue Bottle - Downtown\nThank you"
		src := sourceHeuristic(text)
		require.NotNil(t, src)
		assert.Equal(t, "Blue Bottle", *src)
	})

	t.Run("cuts at first colon", func(t *testing.T) {
		src := sourceHeuristic("Corner Deli: order pickup")
		require.NotNil(t, src)
		assert.Equal(t, "Corner Deli", *src)
	})

	t.Run("no qualifying line", func(t *testing.T) {
		assert.Nil(t, sourceHeuristic("total due 12\ninvoice 99"))
	})
}

func TestMethodHeuristic(t *testing.T) {
	t.Run("credit beats cash", func(t *testing.T) {
		m := methodHeuristic("paid cash after the credit card was declined")
		require.NotNil(t, m)
		assert.Equal(t, MethodCreditCard, *m)
	})

	t.Run("debit", func(t *testing.T) {
		m := methodHeuristic("Visa Debit ending 1234")
		require.NotNil(t, m)
		assert.Equal(t, MethodDebitCard, *m)
	})

	t.Run("wallet providers", func(t *testing.T) {
		for _, text := range []string{"sent via Venmo", "PayPal checkout", "zelle transfer"} {
			m := methodHeuristic(text)
			require.NotNil(t, m, text)
			assert.Equal(t, MethodDigitalWallet, *m)
		}
	})

	t.Run("no method", func(t *testing.T) {
		assert.Nil(t, methodHeuristic("paid somehow"))
	})
}

func TestNotesPreview(t *testing.T) {
	t.Run("short text passes through", func(t *testing.T) {
		assert.Equal(t, "short note", notesPreview("short note"))
	})

	t.Run("long text is truncated with ellipsis", func(t *testing.T) {
		long := ""
		for i := 0; i < 30; i++ {
			long += "abcdefghij"
		}
		got := notesPreview(long)
		assert.Equal(t, notesPreviewLimit+1, len([]rune(got)))
		assert.Equal(t, "…", string([]rune(got)[notesPreviewLimit:]))
	})
}
