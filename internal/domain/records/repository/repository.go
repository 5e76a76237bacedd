// Package repository provides database operations for financial records.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrRecordNotFound is returned when no record matches the id and owner.
var ErrRecordNotFound = errors.New("record not found")

// RecordType distinguishes money in from money out.
type RecordType string

const (
	RecordTypeIncome  RecordType = "income"
	RecordTypeExpense RecordType = "expense"
)

// Valid reports whether t is a known record type.
func (t RecordType) Valid() bool {
	return t == RecordTypeIncome || t == RecordTypeExpense
}

// Record is a single income or expense entry. Date is always stored at
// UTC noon so calendar days never shift across timezones. A non-nil
// LinkedReceiptID marks the record as auto-created from a receipt.
type Record struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	Type            RecordType
	AmountMinor     int64
	CurrencyCode    string
	Category        string
	Date            time.Time
	Note            string
	LinkedReceiptID *uuid.UUID
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// RecordRepository defines the persistence operations for records.
type RecordRepository interface {
	Create(ctx context.Context, record *Record) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*Record, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Record, error)
	Update(ctx context.Context, record *Record) error
	Delete(ctx context.Context, userID, id uuid.UUID) error

	// UnlinkReceipt clears LinkedReceiptID, turning an auto-created
	// record into an ordinary editable one.
	UnlinkReceipt(ctx context.Context, id uuid.UUID) error

	// UserIDs lists every user that owns at least one record.
	UserIDs(ctx context.Context) ([]uuid.UUID, error)
}
