package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, email, username, hashed_password, full_name, preferred_name, phone, bio, created_at, updated_at`

// PostgresAuthRepository implements AuthRepository using PostgreSQL
type PostgresAuthRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresAuthRepository creates a new PostgreSQL auth repository
func NewPostgresAuthRepository(pool *pgxpool.Pool) *PostgresAuthRepository {
	return &PostgresAuthRepository{pool: pool}
}

// CreateUser inserts a new account
func (r *PostgresAuthRepository) CreateUser(ctx context.Context, email, username, hashedPassword, fullName string) (*User, error) {
	query := `
		INSERT INTO users (id, email, username, hashed_password, full_name)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns

	user := &User{}
	err := scanUser(r.pool.QueryRow(ctx, query,
		uuid.New(),
		strings.ToLower(strings.TrimSpace(email)),
		strings.ToLower(strings.TrimSpace(username)),
		hashedPassword,
		strings.TrimSpace(fullName),
	), user)

	if isUniqueViolation(err) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetUserByEmail retrieves an account by email
func (r *PostgresAuthRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user := &User{}
	err := scanUser(r.pool.QueryRow(ctx, query, strings.ToLower(strings.TrimSpace(email))), user)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves an account by ID
func (r *PostgresAuthRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user := &User{}
	err := scanUser(r.pool.QueryRow(ctx, query, id), user)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return user, nil
}

// UpdateProfile applies the non-nil fields of update and returns the fresh row
func (r *PostgresAuthRepository) UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*User, error) {
	query := `
		UPDATE users
		SET email          = COALESCE($2, email),
		    full_name      = COALESCE($3, full_name),
		    preferred_name = COALESCE($4, preferred_name),
		    phone          = COALESCE($5, phone),
		    bio            = COALESCE($6, bio),
		    updated_at     = now()
		WHERE id = $1
		RETURNING ` + userColumns

	var email *string
	if update.Email != nil {
		lowered := strings.ToLower(strings.TrimSpace(*update.Email))
		email = &lowered
	}

	user := &User{}
	err := scanUser(r.pool.QueryRow(ctx, query,
		id,
		email,
		update.FullName,
		update.PreferredName,
		update.Phone,
		update.Bio,
	), user)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if isUniqueViolation(err) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

func scanUser(row pgx.Row, user *User) error {
	return row.Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.HashedPassword,
		&user.FullName,
		&user.PreferredName,
		&user.Phone,
		&user.Bio,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
