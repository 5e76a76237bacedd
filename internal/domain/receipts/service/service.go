// Package service runs the receipt ingestion pipeline: store the upload,
// recognize text, extract fields, persist the receipt, and auto-create an
// expense record when a usable amount came out.
package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/thequantifier/quantifier/internal/domain/receipts/repository"
	recordsrepo "github.com/thequantifier/quantifier/internal/domain/records/repository"
	recordsservice "github.com/thequantifier/quantifier/internal/domain/records/service"
	"github.com/thequantifier/quantifier/internal/extract"
	"github.com/thequantifier/quantifier/internal/ocr"
	"github.com/thequantifier/quantifier/pkg/storage"
)

// ErrEmptyUpload is returned for zero-byte uploads.
var ErrEmptyUpload = errors.New("uploaded file is empty")

// UploadResult pairs the stored receipt with the auto-created record, if
// the extraction produced a usable amount.
type UploadResult struct {
	Receipt    *repository.Receipt
	AutoRecord *recordsrepo.Record
}

// Service coordinates the receipt pipeline.
type Service struct {
	repo      repository.ReceiptRepository
	store     storage.Store
	ocrRunner ocr.Runner
	extractor *extract.Extractor
	records   *recordsservice.Service
	tracer    trace.Tracer
	logger    *slog.Logger
}

// NewService constructs the receipt service. ocrRunner may be nil when no
// OCR worker is configured; image uploads then carry no extracted fields.
func NewService(
	repo repository.ReceiptRepository,
	store storage.Store,
	ocrRunner ocr.Runner,
	extractor *extract.Extractor,
	records *recordsservice.Service,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		store:     store,
		ocrRunner: ocrRunner,
		extractor: extractor,
		records:   records,
		tracer:    otel.Tracer("receipts"),
		logger:    logger,
	}
}

// Upload runs the full ingestion pipeline for one uploaded document.
func (s *Service) Upload(ctx context.Context, userID uuid.UUID, filename, contentType string, data []byte) (*UploadResult, error) {
	ctx, span := s.tracer.Start(ctx, "receipts.upload",
		trace.WithAttributes(
			attribute.String("receipt.filename", filename),
			attribute.String("receipt.content_type", contentType),
			attribute.Int("receipt.size", len(data)),
		))
	defer span.End()

	if len(data) == 0 {
		return nil, ErrEmptyUpload
	}

	info, err := s.storeFile(ctx, userID, filename, contentType, data)
	if err != nil {
		return nil, err
	}

	ocrText := s.recognize(ctx, contentType, data)
	fields := s.extractFields(ctx, filename, contentType, data, ocrText)

	receipt := &repository.Receipt{
		UserID:           userID,
		OriginalFilename: filename,
		StoredFileID:     info.ID,
		ContentType:      contentType,
		FileSize:         info.Size,
		OCRText:          ocrText,
		Extracted:        fields,
	}
	if err := s.repo.Create(ctx, receipt); err != nil {
		return nil, err
	}

	result := &UploadResult{Receipt: receipt}

	if record := s.autoCreateRecord(ctx, receipt); record != nil {
		result.AutoRecord = record
		receipt.LinkedRecordID = &record.ID
	}

	s.logger.Info("receipt ingested",
		slog.String("receipt_id", receipt.ID.String()),
		slog.String("user_id", userID.String()),
		slog.Bool("auto_record", result.AutoRecord != nil),
	)
	return result, nil
}

// Get returns one receipt scoped to its owner.
func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*repository.Receipt, error) {
	return s.repo.GetByID(ctx, userID, id)
}

// List returns all receipts for a user, newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]*repository.Receipt, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Download opens the original uploaded file.
func (s *Service) Download(ctx context.Context, userID, id uuid.UUID) (io.ReadCloser, *repository.Receipt, error) {
	receipt, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, nil, err
	}

	rc, _, err := s.store.Open(ctx, userID, receipt.StoredFileID)
	if err != nil {
		return nil, nil, err
	}
	return rc, receipt, nil
}

// Delete removes a receipt, its stored file, and either deletes or
// unlinks the auto-created record.
func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID, deleteRecord bool) error {
	ctx, span := s.tracer.Start(ctx, "receipts.delete",
		trace.WithAttributes(attribute.Bool("receipt.delete_record", deleteRecord)))
	defer span.End()

	receipt, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, userID, receipt.StoredFileID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return err
	}

	if receipt.LinkedRecordID != nil {
		if err := s.records.ReleaseReceiptLink(ctx, userID, *receipt.LinkedRecordID, deleteRecord); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) storeFile(ctx context.Context, userID uuid.UUID, filename, contentType string, data []byte) (*storage.FileInfo, error) {
	ctx, span := s.tracer.Start(ctx, "receipts.store")
	defer span.End()

	return s.store.Save(ctx, userID, filename, contentType, bytes.NewReader(data))
}

// recognize runs the OCR worker for image uploads. Failures degrade to an
// empty string so the upload itself never fails on OCR.
func (s *Service) recognize(ctx context.Context, contentType string, data []byte) string {
	if s.ocrRunner == nil || !strings.HasPrefix(contentType, "image/") {
		return ""
	}

	ctx, span := s.tracer.Start(ctx, "receipts.ocr")
	defer span.End()

	text, err := s.ocrRunner.Recognize(ctx, data)
	if err != nil {
		if !errors.Is(err, ocr.ErrNotConfigured) {
			s.logger.Warn("ocr failed", slog.Any("error", err))
		}
		return ""
	}
	return text
}

func (s *Service) extractFields(ctx context.Context, filename, contentType string, data []byte, ocrText string) *extract.FieldResult {
	ctx, span := s.tracer.Start(ctx, "receipts.extract")
	defer span.End()

	return s.extractor.Extract(ctx, extract.Input{
		Filename:     filename,
		MIMEType:     contentType,
		Data:         data,
		FallbackText: ocrText,
	})
}

// autoCreateRecord creates the linked expense when the extraction found a
// positive amount. Any failure is logged and swallowed; the receipt is
// already saved and stands on its own.
func (s *Service) autoCreateRecord(ctx context.Context, receipt *repository.Receipt) *recordsrepo.Record {
	fields := receipt.Extracted
	if fields == nil || fields.Amount == nil || fields.Amount.Sign() <= 0 {
		return nil
	}

	ctx, span := s.tracer.Start(ctx, "receipts.auto_record")
	defer span.End()

	var date *time.Time
	if fields.Date != nil {
		t := fields.Date.Time()
		date = &t
	}

	note := "Receipt"
	if fields.Source != nil && *fields.Source != "" {
		note = *fields.Source
	}

	record, err := s.records.CreateFromReceipt(ctx, receipt.UserID, receipt.ID, *fields.Amount, date, note)
	if err != nil {
		s.logger.Warn("failed to auto-create record",
			slog.String("receipt_id", receipt.ID.String()),
			slog.Any("error", err),
		)
		return nil
	}

	if err := s.repo.SetLinkedRecord(ctx, receipt.ID, record.ID); err != nil {
		s.logger.Warn("failed to link record to receipt",
			slog.String("receipt_id", receipt.ID.String()),
			slog.Any("error", err),
		)
	}
	return record
}
