package extract

import (
	"regexp"
	"strings"
)

// wideGapRe matches runs of two or more spaces. OCR output frequently
// loses true newlines but keeps wide gaps between fields, so a gap is
// treated as a line separator alongside '\n'.
var wideGapRe = regexp.MustCompile(`  +`)

// normalizeText converts all line endings to '\n' and trims surrounding
// whitespace. An empty result means the document carries nothing to
// extract and the whole extraction short-circuits to nil.
func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.TrimSpace(s)
}

// splitLines produces the ordered line sequence the extractors scan:
// the text is split on newlines and additionally on runs of two or more
// spaces. Blank segments are dropped.
func splitLines(text string) []string {
	var lines []string
	for _, raw := range strings.Split(text, "\n") {
		for _, seg := range wideGapRe.Split(raw, -1) {
			seg = strings.TrimSpace(seg)
			if seg != "" {
				lines = append(lines, seg)
			}
		}
	}
	return lines
}
