package extract

import (
	"bytes"
	"strings"

	"github.com/xuri/excelize/v2"
)

// extractXLSX maps the first data row of the first sheet onto fields,
// using the same header-synonym resolution as the CSV path. Decode
// failures degrade to nil.
func (e *Extractor) extractXLSX(data []byte) *FieldResult {
	if len(data) == 0 {
		return nil
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		e.logger.Warn("xlsx decode failed", "error", err)
		return nil
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		e.logger.Warn("xlsx sheet read failed", "sheet", sheets[0], "error", err)
		return nil
	}

	var nonEmpty [][]string
	for _, row := range rows {
		if !emptyRecord(row) {
			nonEmpty = append(nonEmpty, row)
		}
	}
	if len(nonEmpty) < 2 {
		return nil
	}

	headers := make([]string, len(nonEmpty[0]))
	for i, h := range nonEmpty[0] {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}

	return e.extractColumnarRow(headers, nonEmpty[1])
}
