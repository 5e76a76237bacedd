package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/thequantifier/quantifier/internal/extract"
)

const receiptColumns = `id, user_id, original_filename, stored_file_id, content_type, file_size, ocr_text, extracted, linked_record_id, created_at, updated_at`

// PostgresReceiptRepository implements ReceiptRepository using PostgreSQL
type PostgresReceiptRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresReceiptRepository creates a new PostgreSQL receipt repository
func NewPostgresReceiptRepository(pool *pgxpool.Pool) *PostgresReceiptRepository {
	return &PostgresReceiptRepository{pool: pool}
}

// Create inserts a new receipt
func (r *PostgresReceiptRepository) Create(ctx context.Context, receipt *Receipt) error {
	query := `
		INSERT INTO receipts (id, user_id, original_filename, stored_file_id, content_type, file_size, ocr_text, extracted, linked_record_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	if receipt.ID == uuid.Nil {
		receipt.ID = uuid.New()
	}

	extracted, err := marshalExtracted(receipt.Extracted)
	if err != nil {
		return err
	}

	err = r.pool.QueryRow(ctx, query,
		receipt.ID,
		receipt.UserID,
		receipt.OriginalFilename,
		receipt.StoredFileID,
		receipt.ContentType,
		receipt.FileSize,
		receipt.OCRText,
		extracted,
		receipt.LinkedRecordID,
	).Scan(&receipt.CreatedAt, &receipt.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create receipt: %w", err)
	}
	return nil
}

// GetByID retrieves a receipt scoped to its owner
func (r *PostgresReceiptRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*Receipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM receipts WHERE id = $1 AND user_id = $2`

	receipt := &Receipt{}
	err := scanReceipt(r.pool.QueryRow(ctx, query, id, userID), receipt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrReceiptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt: %w", err)
	}
	return receipt, nil
}

// ListByUser retrieves all receipts for a user, newest first
func (r *PostgresReceiptRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Receipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM receipts WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}
	defer rows.Close()

	var receipts []*Receipt
	for rows.Next() {
		receipt := &Receipt{}
		if err := scanReceipt(rows, receipt); err != nil {
			return nil, fmt.Errorf("failed to scan receipt: %w", err)
		}
		receipts = append(receipts, receipt)
	}
	return receipts, rows.Err()
}

// Delete removes a receipt scoped to its owner
func (r *PostgresReceiptRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM receipts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete receipt: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrReceiptNotFound
	}
	return nil
}

// SetLinkedRecord stores the id of the auto-created record
func (r *PostgresReceiptRepository) SetLinkedRecord(ctx context.Context, id, recordID uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `UPDATE receipts SET linked_record_id = $2, updated_at = now() WHERE id = $1`, id, recordID)
	if err != nil {
		return fmt.Errorf("failed to link record: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrReceiptNotFound
	}
	return nil
}

// StoredFileIDs lists the storage file IDs referenced by a user's receipts
func (r *PostgresReceiptRepository) StoredFileIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT stored_file_id FROM receipts WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stored file ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan stored file id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanReceipt(row pgx.Row, receipt *Receipt) error {
	var extracted []byte
	err := row.Scan(
		&receipt.ID,
		&receipt.UserID,
		&receipt.OriginalFilename,
		&receipt.StoredFileID,
		&receipt.ContentType,
		&receipt.FileSize,
		&receipt.OCRText,
		&extracted,
		&receipt.LinkedRecordID,
		&receipt.CreatedAt,
		&receipt.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if len(extracted) > 0 {
		result := &extract.FieldResult{}
		if err := json.Unmarshal(extracted, result); err != nil {
			return fmt.Errorf("failed to decode extracted fields: %w", err)
		}
		if !result.Empty() {
			receipt.Extracted = result
		}
	}
	return nil
}

func marshalExtracted(result *extract.FieldResult) ([]byte, error) {
	if result == nil {
		return nil, nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode extracted fields: %w", err)
	}
	return data, nil
}
