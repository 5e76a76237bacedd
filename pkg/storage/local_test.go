package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Local {
	t.Helper()
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestLocalSaveAndOpen(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	userID := uuid.New()

	info, err := store.Save(ctx, userID, "receipt.pdf", "application/pdf", strings.NewReader("pdf bytes"))
	require.NoError(t, err)
	assert.Equal(t, "receipt.pdf", info.Name)
	assert.Equal(t, "application/pdf", info.ContentType)
	assert.Equal(t, int64(len("pdf bytes")), info.Size)

	rc, got, err := store.Open(ctx, userID, info.ID)
	require.NoError(t, err)
	defer rc.Close()

	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "pdf bytes", string(content))
	assert.Equal(t, info.ID, got.ID)
}

func TestLocalStatMissing(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.Stat(ctx, uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	userID := uuid.New()

	info, err := store.Save(ctx, userID, "scan.png", "image/png", strings.NewReader("img"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, userID, info.ID))

	_, err = store.Stat(ctx, userID, info.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	files, err := store.List(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestLocalListAndUsers(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	alice, bob := uuid.New(), uuid.New()

	_, err := store.Save(ctx, alice, "a.csv", "text/csv", strings.NewReader("a"))
	require.NoError(t, err)
	_, err = store.Save(ctx, alice, "b.csv", "text/csv", strings.NewReader("b"))
	require.NoError(t, err)
	_, err = store.Save(ctx, bob, "c.csv", "text/csv", strings.NewReader("c"))
	require.NoError(t, err)

	files, err := store.List(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, files, 2)

	users, err := store.Users(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{alice, bob}, users)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "__etc_passwd", sanitizeFilename("../etc/passwd"))
	assert.Equal(t, "upload", sanitizeFilename(""))
	assert.Equal(t, "receipt 2025.pdf", sanitizeFilename("receipt 2025.pdf"))
}
