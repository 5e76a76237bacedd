package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const recordColumns = `id, user_id, type, amount_minor, currency_code, category, date, note, linked_receipt_id, created_at, updated_at`

// querier is the subset of pgxpool.Pool the repository touches. Kept as
// an interface so tests can substitute a mock pool.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRecordRepository implements RecordRepository using PostgreSQL
type PostgresRecordRepository struct {
	pool querier
}

// NewPostgresRecordRepository creates a new PostgreSQL record repository
func NewPostgresRecordRepository(pool *pgxpool.Pool) *PostgresRecordRepository {
	return &PostgresRecordRepository{pool: pool}
}

// Create inserts a new record
func (r *PostgresRecordRepository) Create(ctx context.Context, record *Record) error {
	query := `
		INSERT INTO records (id, user_id, type, amount_minor, currency_code, category, date, note, linked_receipt_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx, query,
		record.ID,
		record.UserID,
		record.Type,
		record.AmountMinor,
		record.CurrencyCode,
		record.Category,
		record.Date,
		record.Note,
		record.LinkedReceiptID,
	).Scan(&record.CreatedAt, &record.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create record: %w", err)
	}
	return nil
}

// GetByID retrieves a record scoped to its owner
func (r *PostgresRecordRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records WHERE id = $1 AND user_id = $2`

	record := &Record{}
	err := scanRecord(r.pool.QueryRow(ctx, query, id, userID), record)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return record, nil
}

// ListByUser retrieves all records for a user, newest date first
func (r *PostgresRecordRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records WHERE user_id = $1 ORDER BY date DESC, created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		record := &Record{}
		if err := scanRecord(rows, record); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Update updates an existing record
func (r *PostgresRecordRepository) Update(ctx context.Context, record *Record) error {
	query := `
		UPDATE records
		SET type = $3, amount_minor = $4, currency_code = $5, category = $6, date = $7, note = $8, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		record.ID,
		record.UserID,
		record.Type,
		record.AmountMinor,
		record.CurrencyCode,
		record.Category,
		record.Date,
		record.Note,
	).Scan(&record.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return ErrRecordNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}
	return nil
}

// Delete removes a record scoped to its owner
func (r *PostgresRecordRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM records WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// UnlinkReceipt clears the receipt link on a record
func (r *PostgresRecordRepository) UnlinkReceipt(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `UPDATE records SET linked_receipt_id = NULL, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to unlink record: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// UserIDs lists every user that owns at least one record
func (r *PostgresRecordRepository) UserIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT user_id FROM records`)
	if err != nil {
		return nil, fmt.Errorf("failed to list record owners: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanRecord(row pgx.Row, record *Record) error {
	return row.Scan(
		&record.ID,
		&record.UserID,
		&record.Type,
		&record.AmountMinor,
		&record.CurrencyCode,
		&record.Category,
		&record.Date,
		&record.Note,
		&record.LinkedReceiptID,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
}
