package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thequantifier/quantifier/internal/domain/receipts/repository"
	recordsrepo "github.com/thequantifier/quantifier/internal/domain/records/repository"
	recordsservice "github.com/thequantifier/quantifier/internal/domain/records/service"
	"github.com/thequantifier/quantifier/internal/extract"
	"github.com/thequantifier/quantifier/pkg/storage"
)

type fakeReceiptRepo struct {
	mu       sync.Mutex
	receipts map[uuid.UUID]*repository.Receipt
}

func newFakeReceiptRepo() *fakeReceiptRepo {
	return &fakeReceiptRepo{receipts: make(map[uuid.UUID]*repository.Receipt)}
}

func (f *fakeReceiptRepo) Create(_ context.Context, receipt *repository.Receipt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if receipt.ID == uuid.Nil {
		receipt.ID = uuid.New()
	}
	receipt.CreatedAt = time.Now()
	receipt.UpdatedAt = receipt.CreatedAt
	clone := *receipt
	f.receipts[receipt.ID] = &clone
	return nil
}

func (f *fakeReceiptRepo) GetByID(_ context.Context, userID, id uuid.UUID) (*repository.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.receipts[id]; ok && r.UserID == userID {
		clone := *r
		return &clone, nil
	}
	return nil, repository.ErrReceiptNotFound
}

func (f *fakeReceiptRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*repository.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*repository.Receipt
	for _, r := range f.receipts {
		if r.UserID == userID {
			clone := *r
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *fakeReceiptRepo) Delete(_ context.Context, userID, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.receipts[id]; ok && r.UserID == userID {
		delete(f.receipts, id)
		return nil
	}
	return repository.ErrReceiptNotFound
}

func (f *fakeReceiptRepo) SetLinkedRecord(_ context.Context, id, recordID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.receipts[id]; ok {
		r.LinkedRecordID = &recordID
		return nil
	}
	return repository.ErrReceiptNotFound
}

func (f *fakeReceiptRepo) StoredFileIDs(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []uuid.UUID
	for _, r := range f.receipts {
		if r.UserID == userID {
			ids = append(ids, r.StoredFileID)
		}
	}
	return ids, nil
}

type fakeRecordRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*recordsrepo.Record
}

func newFakeRecordRepo() *fakeRecordRepo {
	return &fakeRecordRepo{records: make(map[uuid.UUID]*recordsrepo.Record)}
}

func (f *fakeRecordRepo) Create(_ context.Context, record *recordsrepo.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	clone := *record
	f.records[record.ID] = &clone
	return nil
}

func (f *fakeRecordRepo) GetByID(_ context.Context, userID, id uuid.UUID) (*recordsrepo.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.records[id]; ok && r.UserID == userID {
		clone := *r
		return &clone, nil
	}
	return nil, recordsrepo.ErrRecordNotFound
}

func (f *fakeRecordRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*recordsrepo.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*recordsrepo.Record
	for _, r := range f.records {
		if r.UserID == userID {
			clone := *r
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *fakeRecordRepo) Update(_ context.Context, record *recordsrepo.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *record
	f.records[record.ID] = &clone
	return nil
}

func (f *fakeRecordRepo) Delete(_ context.Context, userID, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.records[id]; ok && r.UserID == userID {
		delete(f.records, id)
		return nil
	}
	return recordsrepo.ErrRecordNotFound
}

func (f *fakeRecordRepo) UnlinkReceipt(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.records[id]; ok {
		r.LinkedReceiptID = nil
		return nil
	}
	return recordsrepo.ErrRecordNotFound
}

func (f *fakeRecordRepo) UserIDs(_ context.Context) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, r := range f.records {
		if !seen[r.UserID] {
			seen[r.UserID] = true
			ids = append(ids, r.UserID)
		}
	}
	return ids, nil
}

type fakeOCR struct {
	text string
	err  error
}

func (f *fakeOCR) Recognize(context.Context, []byte) (string, error) {
	return f.text, f.err
}

func newTestServices(t *testing.T, ocrText string) (*Service, *fakeReceiptRepo, *fakeRecordRepo) {
	t.Helper()

	store, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	receiptRepo := newFakeReceiptRepo()
	recordRepo := newFakeRecordRepo()
	records := recordsservice.NewService(recordRepo, nil, nil)
	extractor := extract.NewExtractor(nil, nil)

	svc := NewService(receiptRepo, store, &fakeOCR{text: ocrText}, extractor, records, nil)
	return svc, receiptRepo, recordRepo
}

func TestUploadTextReceiptCreatesAutoRecord(t *testing.T) {
	ctx := context.Background()
	svc, _, recordRepo := newTestServices(t, "")
	userID := uuid.New()

	text := "Date: 2025-10-17\nSource: Corner Cafe\nAmount: $13.50\nMethod: credit card\n"
	result, err := svc.Upload(ctx, userID, "receipt.txt", "text/plain", []byte(text))
	require.NoError(t, err)

	receipt := result.Receipt
	require.NotNil(t, receipt.Extracted)
	assert.Equal(t, "13.5", receipt.Extracted.Amount.String())
	assert.Equal(t, "receipt.txt", receipt.OriginalFilename)

	require.NotNil(t, result.AutoRecord)
	assert.Equal(t, int64(1350), result.AutoRecord.AmountMinor)
	assert.Equal(t, recordsrepo.RecordTypeExpense, result.AutoRecord.Type)
	assert.Equal(t, "Corner Cafe", result.AutoRecord.Note)
	assert.Equal(t, "Uncategorized", result.AutoRecord.Category)
	assert.Equal(t, time.Date(2025, 10, 17, 12, 0, 0, 0, time.UTC), result.AutoRecord.Date)

	require.NotNil(t, receipt.LinkedRecordID)
	assert.Equal(t, result.AutoRecord.ID, *receipt.LinkedRecordID)

	stored, err := recordRepo.GetByID(ctx, userID, result.AutoRecord.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LinkedReceiptID)
	assert.Equal(t, receipt.ID, *stored.LinkedReceiptID)
}

func TestUploadImageUsesOCRText(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestServices(t, "Coffee Shop\nAmount: $4.50")
	userID := uuid.New()

	result, err := svc.Upload(ctx, userID, "scan.png", "image/png", []byte("fake image bytes"))
	require.NoError(t, err)

	receipt := result.Receipt
	assert.Equal(t, "Coffee Shop\nAmount: $4.50", receipt.OCRText)
	require.NotNil(t, receipt.Extracted)
	require.NotNil(t, receipt.Extracted.Amount)
	assert.Equal(t, "4.5", receipt.Extracted.Amount.String())
	require.NotNil(t, result.AutoRecord)
}

func TestUploadWithoutUsableAmountSkipsAutoRecord(t *testing.T) {
	ctx := context.Background()
	svc, _, recordRepo := newTestServices(t, "")
	userID := uuid.New()

	result, err := svc.Upload(ctx, userID, "note.txt", "text/plain", []byte("Source: Somewhere\nno price here"))
	require.NoError(t, err)

	assert.Nil(t, result.AutoRecord)
	assert.Nil(t, result.Receipt.LinkedRecordID)

	records, err := recordRepo.ListByUser(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestUploadEmptyFile(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestServices(t, "")

	_, err := svc.Upload(ctx, uuid.New(), "empty.txt", "text/plain", nil)
	assert.ErrorIs(t, err, ErrEmptyUpload)
}

func TestDeleteReceipt(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	upload := "Source: Shop\nAmount: $10.00\n"

	t.Run("deleteRecord removes the linked record", func(t *testing.T) {
		svc, receiptRepo, recordRepo := newTestServices(t, "")
		result, err := svc.Upload(ctx, userID, "a.txt", "text/plain", []byte(upload))
		require.NoError(t, err)
		require.NotNil(t, result.AutoRecord)

		require.NoError(t, svc.Delete(ctx, userID, result.Receipt.ID, true))

		_, err = receiptRepo.GetByID(ctx, userID, result.Receipt.ID)
		assert.ErrorIs(t, err, repository.ErrReceiptNotFound)

		_, err = recordRepo.GetByID(ctx, userID, result.AutoRecord.ID)
		assert.ErrorIs(t, err, recordsrepo.ErrRecordNotFound)
	})

	t.Run("without deleteRecord the record survives unlinked", func(t *testing.T) {
		svc, _, recordRepo := newTestServices(t, "")
		result, err := svc.Upload(ctx, userID, "b.txt", "text/plain", []byte(upload))
		require.NoError(t, err)
		require.NotNil(t, result.AutoRecord)

		require.NoError(t, svc.Delete(ctx, userID, result.Receipt.ID, false))

		record, err := recordRepo.GetByID(ctx, userID, result.AutoRecord.ID)
		require.NoError(t, err)
		assert.Nil(t, record.LinkedReceiptID)
	})
}

func TestDownloadRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestServices(t, "")
	userID := uuid.New()

	content := "Source: Shop\nAmount: $10.00\n"
	result, err := svc.Upload(ctx, userID, "c.txt", "text/plain", []byte(content))
	require.NoError(t, err)

	rc, receipt, err := svc.Download(ctx, userID, result.Receipt.ID)
	require.NoError(t, err)
	defer rc.Close()

	assert.Equal(t, "c.txt", receipt.OriginalFilename)

	buf := make([]byte, len(content))
	n, _ := rc.Read(buf)
	assert.Equal(t, content, string(buf[:n]))
}
