// Package storage provides the file store backing uploaded receipt
// documents. Files are scoped per user; the extraction engine never
// touches this package, only the receipts service does.
package storage

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// FileInfo contains metadata about a stored file.
type FileInfo struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Path        string    `json:"path"` // Internal storage path
	CreatedAt   time.Time `json:"created_at"`
}

// Store defines the file storage operations used by the receipts pipeline.
type Store interface {
	// Save persists file content under the owning user and returns its metadata.
	Save(ctx context.Context, userID uuid.UUID, name string, contentType string, r io.Reader) (*FileInfo, error)

	// Open returns the file content along with its metadata.
	Open(ctx context.Context, userID uuid.UUID, fileID uuid.UUID) (io.ReadCloser, *FileInfo, error)

	// Stat returns metadata for a file without opening its content.
	Stat(ctx context.Context, userID uuid.UUID, fileID uuid.UUID) (*FileInfo, error)

	// Delete removes a file and its metadata.
	Delete(ctx context.Context, userID uuid.UUID, fileID uuid.UUID) error

	// List returns all stored files for a user.
	List(ctx context.Context, userID uuid.UUID) ([]*FileInfo, error)

	// Users enumerates the user IDs that own at least one stored file.
	Users(ctx context.Context) ([]uuid.UUID, error)
}
