package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifier(t *testing.T) {
	c := NewClassifier()

	t.Run("matches keywords per category", func(t *testing.T) {
		cases := map[string]Category{
			"dinner at Starbucks":           CategoryFood,
			"UBER trip downtown":            CategoryTravel,
			"amazon order #1234":            CategoryShopping,
			"netflix monthly":               CategoryEntertainment,
			"electric company statement":    CategoryBills,
			"completely unrelated text":     CategoryOther,
			"":                              CategoryOther,
		}
		for text, want := range cases {
			assert.Equal(t, want, c.Classify(text), "text: %q", text)
		}
	})

	t.Run("taxonomy order decides ties", func(t *testing.T) {
		// "hotel" (travel) and "restaurant" (food) both match; food is
		// listed first in the taxonomy and wins regardless of position.
		assert.Equal(t, CategoryFood, c.Classify("hotel restaurant bill"))

		// "store" (shopping) vs "bill" (bills): shopping is earlier.
		assert.Equal(t, CategoryShopping, c.Classify("bill from the store"))
	})

	t.Run("matching is case-insensitive substring", func(t *testing.T) {
		assert.Equal(t, CategoryFood, c.Classify("MCDONALDS #42"))
		assert.Equal(t, CategoryTravel, c.Classify("American Airlines ticket"))
	})
}

func TestKnownCategory(t *testing.T) {
	cat, ok := knownCategory("  Food ")
	assert.True(t, ok)
	assert.Equal(t, CategoryFood, cat)

	_, ok = knownCategory("miscellaneous")
	assert.False(t, ok)
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "a\nb", normalizeText("a\r\nb"))
	assert.Equal(t, "a\nb", normalizeText("a\rb"))
	assert.Equal(t, "", normalizeText(" \r\n \t "))
}

func TestSplitLines(t *testing.T) {
	lines := splitLines("first line\nsecond  third   fourth")
	assert.Equal(t, []string{"first line", "second", "third", "fourth"}, lines)
}
