package extract

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Structured "Label: Value" extraction. Lines come from splitLines, so
// wide OCR gaps act as separators too. Labels are matched case-insensitively
// against a fixed set; anything else is only interesting once notes
// capture has started.

// amountCleaner drops every rune that cannot appear in a decimal amount.
func amountCleaner(r rune) rune {
	if r >= '0' && r <= '9' || r == '.' || r == '-' {
		return r
	}
	return -1
}

// parseAmountValue cleans and parses a raw amount string. Returns nil for
// anything that does not survive as a parseable decimal.
func parseAmountValue(raw string) *decimal.Decimal {
	cleaned := strings.Map(amountCleaner, raw)
	if cleaned == "" {
		return nil
	}
	amt, err := decimal.NewFromString(cleaned)
	if err != nil {
		return nil
	}
	return &amt
}

// keyValuePass scans the text as ordered label/value lines. Recognized
// labels claim their field; once a notes-style label appears, every
// following line that is not itself a recognized pair joins the notes
// buffer. The method and notes heuristics run inside this pass as
// same-pass fallbacks, so structured extraction alone already yields a
// usable method and notes.
func (e *Extractor) keyValuePass(text string) *FieldResult {
	out := &FieldResult{}

	var notes []string
	capturing := false

	for _, line := range splitLines(text) {
		label, value, ok := splitLabel(line)
		if !ok {
			if capturing {
				notes = append(notes, line)
			}
			continue
		}

		switch label {
		case "date":
			if d := parseDateToken(value); d != nil {
				out.Date = d
			}
		case "source":
			if value != "" {
				out.Source = strptr(value)
			}
		case "category":
			if cat, known := knownCategory(value); known {
				out.Category = catptr(cat)
			}
		case "amount":
			if amt := parseAmountValue(value); amt != nil {
				out.Amount = amt
			}
		case "method", "payment":
			if m := methodHeuristic(value); m != nil {
				out.Method = m
			}
		case "notes", "memo", "details":
			capturing = true
			if value != "" {
				notes = append(notes, value)
			}
		default:
			// Unrecognized label; during capture the whole line is notes.
			if capturing {
				notes = append(notes, line)
			}
		}
	}

	if len(notes) > 0 {
		out.Notes = strptr(truncateRunes(strings.Join(notes, " "), notesCaptureLimit))
	}

	// Same-pass fallbacks for the two fields the label scan most often
	// misses on OCR text.
	if out.Method == nil {
		out.Method = methodHeuristic(text)
	}
	if out.Notes == nil {
		out.Notes = strptr(notesPreview(text))
	}

	return out
}

// splitLabel splits a line on its first colon into a lower-cased label
// and a trimmed value. Lines without a colon are not label pairs.
func splitLabel(line string) (label, value string, ok bool) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", "", false
	}
	return strings.ToLower(strings.TrimSpace(line[:idx])), strings.TrimSpace(line[idx+1:]), true
}

// parseDateToken normalizes a structured date value to a calendar date,
// reusing the heuristic patterns. A value that matches nothing stays nil
// so the fallback pass may still fill the field.
func parseDateToken(value string) *Date {
	if value == "" {
		return nil
	}
	return dateHeuristic(value)
}
