package extract

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPDF struct {
	text string
	err  error
}

func (s stubPDF) DecodeText(ctx context.Context, r io.Reader) (string, error) {
	return s.text, s.err
}

func newTestExtractor(pdf PDFDecoder) *Extractor {
	return NewExtractor(pdf, nil)
}

func TestExtractor_Extract(t *testing.T) {
	ctx := context.Background()

	t.Run("empty text yields no result", func(t *testing.T) {
		e := newTestExtractor(nil)

		res := e.Extract(ctx, Input{Filename: "note.txt", MIMEType: "text/plain", Data: []byte("   \r\n  ")})
		assert.Nil(t, res)

		res = e.Extract(ctx, Input{Filename: "note.txt", MIMEType: "text/plain", Data: nil})
		assert.Nil(t, res)
	})

	t.Run("unsupported format without fallback yields no result", func(t *testing.T) {
		e := newTestExtractor(nil)

		res := e.Extract(ctx, Input{Filename: "photo.png", MIMEType: "image/png", Data: []byte{0x89}})
		assert.Nil(t, res)
	})

	t.Run("unsupported format uses OCR fallback text", func(t *testing.T) {
		e := newTestExtractor(nil)

		res := e.Extract(ctx, Input{
			Filename:     "photo.png",
			MIMEType:     "image/png",
			Data:         []byte{0x89},
			FallbackText: "Starbucks\nTotal: $4.50 paid cash",
		})
		require.NotNil(t, res)
		require.NotNil(t, res.Amount)
		assert.True(t, res.Amount.Equal(decimal.RequireFromString("4.50")))
		require.NotNil(t, res.Category)
		assert.Equal(t, CategoryFood, *res.Category)
		require.NotNil(t, res.Method)
		assert.Equal(t, MethodCash, *res.Method)
	})

	t.Run("structured fields override heuristic values", func(t *testing.T) {
		e := newTestExtractor(nil)

		text := "Corner Bakery\nAmount: 42.00\nSomething else costs $13.50 here"
		res := e.Extract(ctx, Input{Filename: "r.txt", MIMEType: "text/plain", Data: []byte(text)})
		require.NotNil(t, res)
		require.NotNil(t, res.Amount)
		assert.True(t, res.Amount.Equal(decimal.RequireFromString("42.00")),
			"labeled amount must beat the stray currency token, got %s", res.Amount)
	})

	t.Run("category defaults to other for non-empty text", func(t *testing.T) {
		e := newTestExtractor(nil)

		res := e.Extract(ctx, Input{Filename: "r.txt", MIMEType: "text/plain", Data: []byte("nothing recognizable here")})
		require.NotNil(t, res)
		require.NotNil(t, res.Category)
		assert.Equal(t, CategoryOther, *res.Category)
	})

	t.Run("pdf decode failure falls back to OCR text", func(t *testing.T) {
		e := newTestExtractor(stubPDF{err: errors.New("corrupt xref")})

		res := e.Extract(ctx, Input{
			Filename:     "scan.pdf",
			MIMEType:     "application/pdf",
			Data:         []byte("%PDF-garbage"),
			FallbackText: "Uber trip 2024-03-05 $23.10",
		})
		require.NotNil(t, res)
		require.NotNil(t, res.Date)
		assert.Equal(t, "2024-03-05", res.Date.String())
		require.NotNil(t, res.Category)
		assert.Equal(t, CategoryTravel, *res.Category)
	})

	t.Run("pdf decode failure without fallback yields no result", func(t *testing.T) {
		e := newTestExtractor(stubPDF{err: errors.New("corrupt xref")})

		res := e.Extract(ctx, Input{Filename: "scan.pdf", MIMEType: "application/pdf", Data: []byte("x")})
		assert.Nil(t, res)
	})

	t.Run("pdf decoded text is preferred over fallback", func(t *testing.T) {
		e := newTestExtractor(stubPDF{text: "Netflix subscription 12.99"})

		res := e.Extract(ctx, Input{
			Filename:     "invoice.pdf",
			MIMEType:     "application/pdf",
			Data:         []byte("%PDF"),
			FallbackText: "totally different text",
		})
		require.NotNil(t, res)
		require.NotNil(t, res.Category)
		assert.Equal(t, CategoryEntertainment, *res.Category)
	})

	t.Run("extraction is idempotent", func(t *testing.T) {
		e := newTestExtractor(nil)
		in := Input{
			Filename: "r.txt",
			MIMEType: "text/plain",
			Data:     []byte("Cafe Roma\nDate: 2024-05-01\nAmount: $18.20\nMethod: credit\nNotes: lunch with team"),
		}

		first := e.Extract(ctx, in)
		second := e.Extract(ctx, in)
		require.NotNil(t, first)
		assert.Equal(t, first, second)
	})
}

func TestDetectFormat(t *testing.T) {
	cases := []struct {
		name     string
		mime     string
		filename string
		want     Format
	}{
		{"pdf mime", "application/pdf", "doc.bin", FormatPDF},
		{"pdf extension", "application/octet-stream", "doc.PDF", FormatPDF},
		{"csv mime", "text/csv", "export.dat", FormatCSV},
		{"csv extension", "", "export.csv", FormatCSV},
		{"xlsx mime", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "book.bin", FormatXLSX},
		{"xlsx extension", "", "book.xlsx", FormatXLSX},
		{"plain text", "text/plain", "note.md", FormatPlainText},
		{"txt extension", "application/octet-stream", "note.txt", FormatPlainText},
		{"unknown", "image/png", "photo.png", FormatUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DetectFormat(tc.mime, tc.filename))
		})
	}
}
