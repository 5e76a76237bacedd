package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a stored file or its metadata does not exist.
var ErrNotFound = errors.New("storage: file not found")

// metaDirName holds the per-user JSON metadata sidecars.
const metaDirName = ".meta"

// Local implements Store on a directory tree: one subdirectory per user,
// content files alongside a .meta directory of JSON sidecars.
type Local struct {
	basePath string
}

// NewLocal creates a local filesystem store rooted at basePath.
func NewLocal(basePath string) (*Local, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &Local{basePath: basePath}, nil
}

// Save persists file content under the owning user and returns its metadata.
func (s *Local) Save(ctx context.Context, userID uuid.UUID, name string, contentType string, r io.Reader) (*FileInfo, error) {
	fileID := uuid.New()

	userDir := filepath.Join(s.basePath, userID.String())
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		return nil, fmt.Errorf("create user directory: %w", err)
	}

	// Prefix with part of the file ID so repeated uploads of the same
	// receipt never collide.
	stored := fmt.Sprintf("%s_%s", fileID.String()[:8], sanitizeFilename(name))
	path := filepath.Join(userDir, stored)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("write file: %w", err)
	}

	info := &FileInfo{
		ID:          fileID,
		Name:        name,
		Size:        size,
		ContentType: contentType,
		Path:        stored,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.writeMetadata(userID, fileID, info); err != nil {
		os.Remove(path)
		return nil, err
	}
	return info, nil
}

// Open returns the file content along with its metadata.
func (s *Local) Open(ctx context.Context, userID uuid.UUID, fileID uuid.UUID) (io.ReadCloser, *FileInfo, error) {
	info, err := s.Stat(ctx, userID, fileID)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(filepath.Join(s.basePath, userID.String(), info.Path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("open file: %w", err)
	}
	return f, info, nil
}

// Stat returns metadata for a file without opening its content.
func (s *Local) Stat(ctx context.Context, userID uuid.UUID, fileID uuid.UUID) (*FileInfo, error) {
	metaPath := filepath.Join(s.basePath, userID.String(), metaDirName, fileID.String()+".json")

	data, err := os.ReadFile(metaPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read metadata: %w", err)
	}

	var info FileInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}
	return &info, nil
}

// Delete removes a file and its metadata.
func (s *Local) Delete(ctx context.Context, userID uuid.UUID, fileID uuid.UUID) error {
	info, err := s.Stat(ctx, userID, fileID)
	if err != nil {
		return err
	}

	path := filepath.Join(s.basePath, userID.String(), info.Path)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete file: %w", err)
	}

	metaPath := filepath.Join(s.basePath, userID.String(), metaDirName, fileID.String()+".json")
	os.Remove(metaPath)
	return nil
}

// List returns all stored files for a user.
func (s *Local) List(ctx context.Context, userID uuid.UUID) ([]*FileInfo, error) {
	metaDir := filepath.Join(s.basePath, userID.String(), metaDirName)
	entries, err := os.ReadDir(metaDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*FileInfo{}, nil
		}
		return nil, fmt.Errorf("list metadata: %w", err)
	}

	files := make([]*FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id, err := uuid.Parse(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}
		info, err := s.Stat(ctx, userID, id)
		if err != nil {
			continue
		}
		files = append(files, info)
	}
	return files, nil
}

// Users enumerates the user IDs that own at least one stored file.
func (s *Local) Users(ctx context.Context) ([]uuid.UUID, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list users: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id, err := uuid.Parse(entry.Name())
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// writeMetadata stores the JSON sidecar for a file.
func (s *Local) writeMetadata(userID, fileID uuid.UUID, info *FileInfo) error {
	metaDir := filepath.Join(s.basePath, userID.String(), metaDirName)
	if err := os.MkdirAll(metaDir, 0o755); err != nil {
		return fmt.Errorf("create metadata directory: %w", err)
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	metaPath := filepath.Join(metaDir, fileID.String()+".json")
	if err := os.WriteFile(metaPath, data, 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

// sanitizeFilename strips characters that could escape the user directory
// or break on common filesystems.
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		"..", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	name = replacer.Replace(name)
	if name == "" {
		name = "upload"
	}
	return name
}
