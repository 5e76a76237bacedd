package extract

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Columnar extraction for CSV (and XLSX) exports: a header row plus data
// rows. Only the first data row is inspected; aggregating across rows is
// deliberately out of scope.

// columnSynonyms lists, per field, the header names that can carry it.
// Order is priority: the first synonym present in the header set wins.
var columnSynonyms = struct {
	date, source, category, amount, method, notes []string
}{
	date:     []string{"date", "transaction date", "posted date"},
	source:   []string{"source", "merchant", "description", "payee", "vendor"},
	category: []string{"category", "type"},
	amount:   []string{"amount", "value", "debit", "credit", "total"},
	method:   []string{"method", "payment", "account", "card"},
	notes:    []string{"notes", "memo", "details"},
}

// maxFuzzyRank bounds the Levenshtein distance accepted when falling back
// to fuzzy header matching.
const maxFuzzyRank = 3

// extractCSV parses CSV content and maps the first data row onto fields.
// Any decode failure degrades to a nil result; it never propagates.
func (e *Extractor) extractCSV(data []byte) *FieldResult {
	if len(data) == 0 {
		return nil
	}

	content := normalizeText(string(data))
	if content == "" {
		return nil
	}

	reader := csv.NewReader(strings.NewReader(content))
	reader.Comma = detectDelimiter(firstLine(content))
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		e.logger.Warn("csv decode failed", "error", err)
		return nil
	}

	var rows [][]string
	for _, rec := range records {
		if !emptyRecord(rec) {
			rows = append(rows, rec)
		}
	}
	if len(rows) < 2 {
		// Header only, or nothing at all.
		return nil
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}

	return e.extractColumnarRow(headers, rows[1])
}

// extractColumnarRow resolves one column per field against the header set
// and reads the single data row. Shared by the CSV and XLSX paths.
func (e *Extractor) extractColumnarRow(headers, row []string) *FieldResult {
	cell := func(idx int) string {
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	out := &FieldResult{}

	if v := cell(resolveColumn(headers, columnSynonyms.date)); v != "" {
		out.Date = parseDateToken(v)
	}
	if v := cell(resolveColumn(headers, columnSynonyms.source)); v != "" {
		out.Source = strptr(v)
	}
	if v := cell(resolveColumn(headers, columnSynonyms.category)); v != "" {
		if cat, known := knownCategory(v); known {
			out.Category = catptr(cat)
		}
	}
	if v := cell(resolveColumn(headers, columnSynonyms.amount)); v != "" {
		out.Amount = parseAmountValue(v)
	}
	if v := cell(resolveColumn(headers, columnSynonyms.method)); v != "" {
		out.Method = methodHeuristic(v)
	}
	if v := cell(resolveColumn(headers, columnSynonyms.notes)); v != "" {
		out.Notes = strptr(truncateRunes(v, notesCaptureLimit))
	} else {
		out.Notes = strptr(rowPreview(headers, row))
	}

	return out
}

// resolveColumn finds the header index for a field: exact synonym match
// in priority order first, then a bounded fuzzy match as a last resort
// for lightly mangled headers ("transaction_date", "ammount").
func resolveColumn(headers []string, synonyms []string) int {
	for _, syn := range synonyms {
		for i, h := range headers {
			if h == syn {
				return i
			}
		}
	}
	for _, syn := range synonyms {
		ranks := fuzzy.RankFindNormalizedFold(syn, headers)
		best := -1
		bestRank := maxFuzzyRank + 1
		for _, r := range ranks {
			if r.Distance >= 0 && r.Distance < bestRank {
				bestRank = r.Distance
				best = r.OriginalIndex
			}
		}
		if best >= 0 {
			return best
		}
	}
	return -1
}

// rowPreview renders the row as a JSON object keyed by header, truncated
// to the notes preview length. Used when no notes column exists so the
// raw row is not lost entirely.
func rowPreview(headers, row []string) string {
	obj := make(map[string]string, len(headers))
	for i, h := range headers {
		if i < len(row) {
			obj[h] = row[i]
		}
	}
	b, err := json.Marshal(obj)
	if err != nil {
		b = []byte(fmt.Sprintf("%v", row))
	}
	return truncateRunes(string(b), notesPreviewLimit)
}

// detectDelimiter picks the most frequent candidate delimiter on the
// header line, defaulting to a comma.
func detectDelimiter(line string) rune {
	best := ','
	bestCount := 0
	for _, d := range []rune{';', '\t', ',', '|'} {
		if count := strings.Count(line, string(d)); count > bestCount {
			bestCount = count
			best = d
		}
	}
	return best
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

func emptyRecord(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
