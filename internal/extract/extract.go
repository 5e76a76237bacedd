// Package extract reduces heterogeneous financial documents (decoded PDF
// text, CSV/XLSX exports, plain text, OCR output) to six structured
// fields: date, source, category, amount, payment method and notes.
//
// The engine is a pure function of its input: no state survives between
// calls, so concurrent extraction over many documents needs no
// coordination. Malformed input never produces an error; every internal
// parsing failure collapses to a nil field or a nil result.
package extract

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
)

// Format is the declared document format after MIME/extension resolution.
type Format int

const (
	FormatUnknown Format = iota
	FormatPDF
	FormatCSV
	FormatXLSX
	FormatPlainText
)

// String names the format for logs.
func (f Format) String() string {
	switch f {
	case FormatPDF:
		return "pdf"
	case FormatCSV:
		return "csv"
	case FormatXLSX:
		return "xlsx"
	case FormatPlainText:
		return "text"
	default:
		return "unknown"
	}
}

// DetectFormat resolves the declared MIME type and filename extension to
// an extraction path. The MIME type wins; the extension is the fallback.
func DetectFormat(mimeType, filename string) Format {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	ext := strings.ToLower(filepath.Ext(filename))

	switch {
	case strings.Contains(mt, "pdf"), ext == ".pdf":
		return FormatPDF
	case strings.Contains(mt, "csv"), ext == ".csv":
		return FormatCSV
	case strings.Contains(mt, "spreadsheetml"), ext == ".xlsx":
		return FormatXLSX
	case strings.HasPrefix(mt, "text/"), ext == ".txt":
		return FormatPlainText
	default:
		return FormatUnknown
	}
}

// Input describes one document to extract. Data holds the raw bytes for
// the declared format; FallbackText is OCR output used only when the
// primary text source comes up empty. Inputs are never mutated.
type Input struct {
	Filename     string
	MIMEType     string
	Data         []byte
	FallbackText string
}

// PDFDecoder is the black-box collaborator that turns PDF bytes into raw
// text. The engine only cares about text-or-error; decode failures are
// absorbed into the OCR fallback path.
type PDFDecoder interface {
	DecodeText(ctx context.Context, r io.Reader) (string, error)
}

// Extractor is the format dispatcher plus field pipeline. It holds only
// immutable collaborators and is safe for concurrent use.
type Extractor struct {
	pdf        PDFDecoder
	classifier *Classifier
	logger     *slog.Logger
}

// NewExtractor wires an extractor. pdf may be nil when the caller never
// submits PDFs; logger falls back to the default slog logger.
func NewExtractor(pdf PDFDecoder, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		pdf:        pdf,
		classifier: NewClassifier(),
		logger:     logger,
	}
}

// Extract resolves a text source for the declared format and runs the
// field pipeline. It returns nil when the document yields nothing usable:
// unsupported format with no OCR fallback, failed decode, or empty text.
func (e *Extractor) Extract(ctx context.Context, in Input) *FieldResult {
	format := DetectFormat(in.MIMEType, in.Filename)

	var text string
	switch format {
	case FormatCSV:
		// Columnar extraction returns directly; no heuristic pass.
		return e.extractCSV(in.Data)

	case FormatXLSX:
		return e.extractXLSX(in.Data)

	case FormatPDF:
		text = e.decodePDF(ctx, in)
		if text == "" {
			text = in.FallbackText
		}

	case FormatPlainText:
		text = string(in.Data)

	default:
		if strings.TrimSpace(in.FallbackText) == "" {
			e.logger.Debug("unsupported format, nothing to extract",
				"mime", in.MIMEType, "filename", in.Filename)
			return nil
		}
		text = in.FallbackText
	}

	return e.extractText(text)
}

// ExtractText runs the free-text pipeline over already-acquired text,
// bypassing format dispatch. Used for raw OCR output.
func (e *Extractor) ExtractText(text string) *FieldResult {
	return e.extractText(text)
}

// extractText normalizes the text, runs the structured and heuristic
// passes, and merges them with structured values taking precedence.
func (e *Extractor) extractText(text string) *FieldResult {
	normalized := normalizeText(text)
	if normalized == "" {
		return nil
	}

	result := merge(e.keyValuePass(normalized), e.heuristicPass(normalized))

	// Category is never empty once any text was classified.
	if result.Category == nil {
		result.Category = catptr(CategoryOther)
	}
	return result
}

// decodePDF asks the collaborator for the document text. Errors are
// logged and degrade to an empty string so the OCR fallback can run.
func (e *Extractor) decodePDF(ctx context.Context, in Input) string {
	if e.pdf == nil {
		return ""
	}
	text, err := e.pdf.DecodeText(ctx, bytes.NewReader(in.Data))
	if err != nil {
		e.logger.Warn("pdf decode failed", "filename", in.Filename, "error", err)
		return ""
	}
	return text
}
