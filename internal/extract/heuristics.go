package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Regex fallbacks for fields the structured pass left empty. Each matcher
// is independent and follows a strict first-match-wins policy: zero or
// multiple candidates never raise an error, the first occurrence in
// document order is taken and everything else is ignored.

var (
	// numericDateRe matches YYYY-M-D (group 1-3) or M/D/YY(YY) (group 4-6),
	// with '-' or '/' separators.
	numericDateRe = regexp.MustCompile(`\b(?:(\d{4})[/-](\d{1,2})[/-](\d{1,2})|(\d{1,2})[/-](\d{1,2})[/-](\d{2,4}))\b`)

	// textualDateRe matches "Oct 17, 2025" style dates.
	textualDateRe = regexp.MustCompile(`\b([A-Za-z]{3,9})\s+(\d{1,2}),\s*(\d{4})\b`)

	// amountRe matches an optional currency symbol followed by a decimal
	// number with exactly two fraction digits. Thousands groups are
	// permitted only so their commas can be stripped before parsing.
	amountRe = regexp.MustCompile(`[$€£]?\s*(\d[\d,]*\.\d{2})\b`)

	// boilerplateRe filters finance boilerplate lines out of the source
	// (vendor) candidate scan.
	boilerplateRe = regexp.MustCompile(`(?i)receipt|invoice|total|amount|subtotal|thank`)
)

const (
	// notesPreviewLimit caps the heuristic notes snippet.
	notesPreviewLimit = 120
	// notesCaptureLimit caps structured multi-line notes capture.
	notesCaptureLimit = 500
)

// heuristicPass runs every field fallback over the full normalized text.
func (e *Extractor) heuristicPass(text string) *FieldResult {
	out := &FieldResult{
		Date:   dateHeuristic(text),
		Source: sourceHeuristic(text),
		Amount: amountHeuristic(text),
		Method: methodHeuristic(text),
		Notes:  strptr(notesPreview(text)),
	}
	out.Category = catptr(e.classifier.Classify(text))
	return out
}

// dateHeuristic finds the first date-shaped token and normalizes it to a
// calendar date. Only the first match is attempted; if it does not form a
// real date the field stays empty rather than trying later candidates.
func dateHeuristic(text string) *Date {
	if m := numericDateRe.FindStringSubmatch(text); m != nil {
		if m[1] != "" {
			return buildDate(m[1], m[2], m[3])
		}
		return buildDate(m[6], m[4], m[5])
	}
	// Textual month form, e.g. "Oct 17, 2025".
	if m := textualDateRe.FindStringSubmatch(text); m != nil {
		raw := m[1] + " " + m[2] + ", " + m[3]
		for _, layout := range []string{"Jan 2, 2006", "January 2, 2006"} {
			if t, err := time.Parse(layout, raw); err == nil {
				d := NewDate(t.Year(), t.Month(), t.Day())
				return &d
			}
		}
	}
	return nil
}

// buildDate assembles a validated Date from string components. Two-digit
// years are interpreted as 20xx.
func buildDate(yearStr, monthStr, dayStr string) *Date {
	year, _ := strconv.Atoi(yearStr)
	month, _ := strconv.Atoi(monthStr)
	day, _ := strconv.Atoi(dayStr)
	if year < 100 {
		year += 2000
	}
	d, ok := ParseDateParts(year, month, day)
	if !ok {
		return nil
	}
	return &d
}

// amountHeuristic takes the first currency-shaped token with two fraction
// digits. Commas are stripped before parsing; no other thousands handling.
func amountHeuristic(text string) *decimal.Decimal {
	m := amountRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	amt, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return nil
	}
	return &amt
}

// sourceHeuristic picks the vendor line: the first line that is not
// finance boilerplate, is longer than two characters, and contains no
// digit. The candidate is cut at the first ':' or '-'.
func sourceHeuristic(text string) *string {
	for _, line := range splitLines(text) {
		if boilerplateRe.MatchString(line) {
			continue
		}
		if len(line) <= 2 || strings.ContainsAny(line, "0123456789") {
			continue
		}
		if idx := strings.IndexAny(line, ":-"); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return nil
		}
		return strptr(line)
	}
	return nil
}

// methodHeuristic scans for payment keywords in priority order; the first
// hit decides the label.
func methodHeuristic(text string) *Method {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "credit"):
		return methodptr(MethodCreditCard)
	case strings.Contains(t, "debit"):
		return methodptr(MethodDebitCard)
	case strings.Contains(t, "cash"):
		return methodptr(MethodCash)
	case strings.Contains(t, "venmo"), strings.Contains(t, "paypal"), strings.Contains(t, "zelle"):
		return methodptr(MethodDigitalWallet)
	}
	return nil
}

// notesPreview returns the leading slice of the text as a notes fallback,
// with an ellipsis when truncated.
func notesPreview(text string) string {
	runes := []rune(text)
	if len(runes) <= notesPreviewLimit {
		return text
	}
	return string(runes[:notesPreviewLimit]) + "…"
}

// truncateRunes caps a string at n runes.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
