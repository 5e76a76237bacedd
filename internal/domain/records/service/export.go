package service

import (
	"context"
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"

	"github.com/thequantifier/quantifier/pkg/money"
)

// exportRow is the CSV shape for record export.
type exportRow struct {
	Date     string `csv:"Date"`
	Type     string `csv:"Type"`
	Amount   string `csv:"Amount"`
	Currency string `csv:"Currency"`
	Category string `csv:"Category"`
	Note     string `csv:"Note"`
}

// ExportCSV writes all of the user's records as CSV, newest date first.
func (s *Service) ExportCSV(ctx context.Context, userID uuid.UUID, w io.Writer) error {
	records, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return err
	}

	rows := make([]exportRow, 0, len(records))
	for _, record := range records {
		amount := money.New(record.AmountMinor, record.CurrencyCode)
		rows = append(rows, exportRow{
			Date:     record.Date.Format("2006-01-02"),
			Type:     string(record.Type),
			Amount:   amount.String(),
			Currency: record.CurrencyCode,
			Category: record.Category,
			Note:     record.Note,
		})
	}

	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}
