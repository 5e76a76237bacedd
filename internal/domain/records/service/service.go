// Package service coordinates record business logic: validation, the
// receipt-link guard rails, search indexing, and CSV export.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/thequantifier/quantifier/internal/domain/records/repository"
	"github.com/thequantifier/quantifier/pkg/money"
)

// Sentinel errors for record business rules.
var (
	// ErrRecordLinked guards records auto-created from receipts. They
	// change only through their receipt.
	ErrRecordLinked = errors.New("record is linked to a receipt; modify the receipt instead")

	ErrInvalidType     = errors.New("type must be income or expense")
	ErrNegativeAmount  = errors.New("amount must be zero or greater")
	ErrMissingCategory = errors.New("category is required")
	ErrInvalidDate     = errors.New("invalid date")
)

// autoCategory is assigned to records created from receipts, matching
// what users see before they re-categorize.
const autoCategory = "Uncategorized"

// CreateInput is the payload for creating or updating a record.
type CreateInput struct {
	Type     repository.RecordType
	Amount   decimal.Decimal
	Currency string
	Category string
	Date     string // YYYY-MM-DD, empty means today
	Note     string
}

// UpdateInput carries optional record changes. Nil fields are untouched.
type UpdateInput struct {
	Type     *repository.RecordType
	Amount   *decimal.Decimal
	Category *string
	Date     *string
	Note     *string
}

// Service coordinates record operations.
type Service struct {
	repo   repository.RecordRepository
	search *SearchIndex
	logger *slog.Logger
}

// NewService constructs the record service. The search index may be nil,
// in which case Search returns an error and writes skip indexing.
func NewService(repo repository.RecordRepository, search *SearchIndex, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, search: search, logger: logger}
}

// RebuildSearchIndex loads every record for the given users into the
// search index. Called once at startup.
func (s *Service) RebuildSearchIndex(ctx context.Context, userIDs []uuid.UUID) error {
	if s.search == nil {
		return nil
	}
	for _, userID := range userIDs {
		records, err := s.repo.ListByUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("load records for index: %w", err)
		}
		if err := s.search.IndexAll(records); err != nil {
			return err
		}
	}
	return nil
}

// Create validates and stores a manual record.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*repository.Record, error) {
	record, err := s.buildRecord(userID, input)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, err
	}
	s.indexRecord(record)
	return record, nil
}

// CreateFromReceipt stores an expense auto-created by the receipt
// pipeline. A nil date falls back to today.
func (s *Service) CreateFromReceipt(ctx context.Context, userID, receiptID uuid.UUID, amount decimal.Decimal, date *time.Time, note string) (*repository.Record, error) {
	if amount.Sign() <= 0 {
		return nil, ErrNegativeAmount
	}

	recordDate := UTCNoon(time.Now())
	if date != nil {
		recordDate = UTCNoon(*date)
	}
	if note == "" {
		note = "Receipt"
	}

	record := &repository.Record{
		UserID:          userID,
		Type:            repository.RecordTypeExpense,
		AmountMinor:     money.NewFromDecimal(amount, money.USD).Amount(),
		CurrencyCode:    money.USD,
		Category:        autoCategory,
		Date:            recordDate,
		Note:            note,
		LinkedReceiptID: &receiptID,
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, err
	}
	s.indexRecord(record)

	s.logger.Info("auto-created record from receipt",
		slog.String("record_id", record.ID.String()),
		slog.String("receipt_id", receiptID.String()),
	)
	return record, nil
}

// Get returns one record scoped to its owner.
func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*repository.Record, error) {
	return s.repo.GetByID(ctx, userID, id)
}

// List returns all records for a user, newest date first.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]*repository.Record, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Update applies partial changes to a manual record. Records linked to a
// receipt are rejected.
func (s *Service) Update(ctx context.Context, userID, id uuid.UUID, input UpdateInput) (*repository.Record, error) {
	record, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if record.LinkedReceiptID != nil {
		return nil, ErrRecordLinked
	}

	if input.Type != nil {
		if !input.Type.Valid() {
			return nil, ErrInvalidType
		}
		record.Type = *input.Type
	}
	if input.Amount != nil {
		if input.Amount.Sign() < 0 {
			return nil, ErrNegativeAmount
		}
		record.AmountMinor = money.NewFromDecimal(*input.Amount, record.CurrencyCode).Amount()
	}
	if input.Category != nil {
		if *input.Category == "" {
			return nil, ErrMissingCategory
		}
		record.Category = *input.Category
	}
	if input.Date != nil {
		date, err := ParseDateOnly(*input.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDate, err)
		}
		record.Date = date
	}
	if input.Note != nil {
		record.Note = *input.Note
	}

	if err := s.repo.Update(ctx, record); err != nil {
		return nil, err
	}
	s.indexRecord(record)
	return record, nil
}

// Delete removes a manual record. Records linked to a receipt are
// rejected; delete the receipt instead.
func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	record, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}
	if record.LinkedReceiptID != nil {
		return ErrRecordLinked
	}

	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.removeFromIndex(id)
	return nil
}

// ReleaseReceiptLink handles the record side of receipt deletion: either
// deleting the linked record or unlinking it so it survives on its own.
func (s *Service) ReleaseReceiptLink(ctx context.Context, userID, recordID uuid.UUID, deleteRecord bool) error {
	if deleteRecord {
		err := s.repo.Delete(ctx, userID, recordID)
		if err != nil && !errors.Is(err, repository.ErrRecordNotFound) {
			return err
		}
		s.removeFromIndex(recordID)
		return nil
	}

	err := s.repo.UnlinkReceipt(ctx, recordID)
	if err != nil && !errors.Is(err, repository.ErrRecordNotFound) {
		return err
	}
	return nil
}

// Search runs a fuzzy full-text search over the user's records and
// resolves the hits back to full rows in relevance order.
func (s *Service) Search(ctx context.Context, userID uuid.UUID, queryText string, limit int) ([]*repository.Record, error) {
	if s.search == nil {
		return nil, errors.New("search index not configured")
	}

	hits, err := s.search.Search(userID, queryText, limit)
	if err != nil {
		return nil, err
	}

	records := make([]*repository.Record, 0, len(hits))
	for _, hit := range hits {
		record, err := s.repo.GetByID(ctx, userID, hit.RecordID)
		if err != nil {
			if errors.Is(err, repository.ErrRecordNotFound) {
				// Stale index entry; drop it.
				s.removeFromIndex(hit.RecordID)
				continue
			}
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *Service) buildRecord(userID uuid.UUID, input CreateInput) (*repository.Record, error) {
	if !input.Type.Valid() {
		return nil, ErrInvalidType
	}
	if input.Amount.Sign() < 0 {
		return nil, ErrNegativeAmount
	}
	if input.Category == "" {
		return nil, ErrMissingCategory
	}

	currency := input.Currency
	if currency == "" {
		currency = money.USD
	}

	date := UTCNoon(time.Now())
	if input.Date != "" {
		parsed, err := ParseDateOnly(input.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDate, err)
		}
		date = parsed
	}

	return &repository.Record{
		UserID:       userID,
		Type:         input.Type,
		AmountMinor:  money.NewFromDecimal(input.Amount, currency).Amount(),
		CurrencyCode: currency,
		Category:     input.Category,
		Date:         date,
		Note:         input.Note,
	}, nil
}

func (s *Service) indexRecord(record *repository.Record) {
	if s.search == nil {
		return
	}
	if err := s.search.IndexRecord(record); err != nil {
		s.logger.Warn("failed to index record",
			slog.String("record_id", record.ID.String()),
			slog.Any("error", err),
		)
	}
}

func (s *Service) removeFromIndex(id uuid.UUID) {
	if s.search == nil {
		return
	}
	if err := s.search.DeleteRecord(id); err != nil {
		s.logger.Warn("failed to remove record from index",
			slog.String("record_id", id.String()),
			slog.Any("error", err),
		)
	}
}
