// Package repository provides database operations for user accounts.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors surfaced by auth repositories.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already in use")
)

// User represents an account row. HashedPassword never leaves the service
// layer; handlers serialize through the Profile view.
type User struct {
	ID             uuid.UUID
	Email          string
	Username       string
	HashedPassword string
	FullName       string
	PreferredName  string
	Phone          string
	Bio            string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ProfileUpdate carries optional profile changes. Nil fields are untouched.
type ProfileUpdate struct {
	Email         *string
	FullName      *string
	PreferredName *string
	Phone         *string
	Bio           *string
}

// AuthRepository defines the persistence operations for accounts.
type AuthRepository interface {
	CreateUser(ctx context.Context, email, username, hashedPassword, fullName string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*User, error)
}
