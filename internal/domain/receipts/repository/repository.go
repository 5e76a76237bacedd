// Package repository provides database operations for uploaded receipts.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/thequantifier/quantifier/internal/extract"
)

// ErrReceiptNotFound is returned when no receipt matches the id and owner.
var ErrReceiptNotFound = errors.New("receipt not found")

// Receipt ties an uploaded document to its stored file, the recognized
// text, the extracted fields, and the auto-created record if one exists.
type Receipt struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	OriginalFilename string
	StoredFileID     uuid.UUID
	ContentType      string
	FileSize         int64
	OCRText          string
	Extracted        *extract.FieldResult
	LinkedRecordID   *uuid.UUID
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ReceiptRepository defines the persistence operations for receipts.
type ReceiptRepository interface {
	Create(ctx context.Context, receipt *Receipt) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*Receipt, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Receipt, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	SetLinkedRecord(ctx context.Context, id, recordID uuid.UUID) error

	// StoredFileIDs lists the storage file IDs still referenced by a
	// user's receipts, used by the retention sweep.
	StoredFileIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}
