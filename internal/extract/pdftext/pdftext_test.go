package pdftext

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStreamText(t *testing.T) {
	t.Run("collects Tj literals", func(t *testing.T) {
		stream := []byte("BT\n(Coffee Shop) Tj\nET")
		assert.Equal(t, "Coffee Shop", streamText(stream))
	})

	t.Run("collects TJ arrays", func(t *testing.T) {
		stream := []byte("[(Total) -250 (: 12.34)] TJ")
		assert.Equal(t, "Total: 12.34", streamText(stream))
	})

	t.Run("positioning operators separate lines", func(t *testing.T) {
		stream := []byte("(Vendor) Tj\n1 0 0 1 72 700 Td\n(Date: 2024-01-01) Tj")
		got := streamText(stream)
		assert.Equal(t, "Vendor\nDate: 2024-01-01", got)
	})

	t.Run("decodes escapes", func(t *testing.T) {
		stream := []byte(`(a\(b\)c\\d) Tj`)
		assert.Equal(t, `a(b)c\d`, streamText(stream))
	})

	t.Run("decodes octal escapes", func(t *testing.T) {
		stream := []byte(`(a\040b) Tj`)
		assert.Equal(t, "a b", streamText(stream))
	})

	t.Run("drops non-printable runes", func(t *testing.T) {
		stream := []byte("(ab\x01cd) Tj")
		assert.Equal(t, "abcd", streamText(stream))
	})
}

func TestDecodeText_InvalidPDF(t *testing.T) {
	d := NewDecoder()
	_, err := d.DecodeText(context.Background(), strings.NewReader("definitely not a pdf"))
	assert.Error(t, err)
}
