// Package handler exposes the receipts HTTP endpoints.
package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	authhandler "github.com/thequantifier/quantifier/internal/domain/auth/handler"
	"github.com/thequantifier/quantifier/internal/domain/receipts/repository"
	"github.com/thequantifier/quantifier/internal/domain/receipts/service"
	recordshandler "github.com/thequantifier/quantifier/internal/domain/records/handler"
	"github.com/thequantifier/quantifier/internal/extract"
	"github.com/thequantifier/quantifier/pkg/server"
)

// maxUploadBytes caps receipt uploads at 20 MiB.
const maxUploadBytes = 20 << 20

// ReceiptView is the JSON shape for a receipt.
type ReceiptView struct {
	ID               string               `json:"id"`
	OriginalFilename string               `json:"originalFilename"`
	ContentType      string               `json:"contentType"`
	FileSize         int64                `json:"fileSize"`
	OCRText          string               `json:"ocrText,omitempty"`
	Extracted        *extract.FieldResult `json:"extracted,omitempty"`
	LinkedRecordID   *uuid.UUID           `json:"linkedRecordId,omitempty"`
	CreatedAt        time.Time            `json:"createdAt"`
	UpdatedAt        time.Time            `json:"updatedAt"`
}

func toView(r *repository.Receipt) ReceiptView {
	return ReceiptView{
		ID:               r.ID.String(),
		OriginalFilename: r.OriginalFilename,
		ContentType:      r.ContentType,
		FileSize:         r.FileSize,
		OCRText:          r.OCRText,
		Extracted:        r.Extracted,
		LinkedRecordID:   r.LinkedRecordID,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

// ReceiptsHandler implements the receipt endpoints.
type ReceiptsHandler struct {
	svc *service.Service
}

// NewReceiptsHandler constructs a new handler.
func NewReceiptsHandler(svc *service.Service) *ReceiptsHandler {
	return &ReceiptsHandler{svc: svc}
}

// Routes mounts the receipt endpoints. All routes require auth.
func (h *ReceiptsHandler) Routes(requireAuth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(requireAuth)
	r.Post("/upload", h.Upload)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Get("/{id}/download", h.Download)
	r.Delete("/{id}", h.Delete)
	return r
}

// Upload handles POST /receipts/upload with a multipart "file" part.
func (h *ReceiptsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	user, ok := authhandler.UserFrom(r.Context())
	if !ok {
		server.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		server.RespondError(w, http.StatusBadRequest, "no file uploaded")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		server.RespondError(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		server.RespondError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	result, err := h.svc.Upload(r.Context(), user.ID, header.Filename, contentType, data)
	if err != nil {
		if errors.Is(err, service.ErrEmptyUpload) {
			server.RespondError(w, http.StatusBadRequest, "uploaded file is empty")
			return
		}
		server.RespondError(w, http.StatusInternalServerError, "upload failed")
		return
	}

	response := map[string]any{"receipt": toView(result.Receipt)}
	if result.AutoRecord != nil {
		response["autoRecord"] = recordshandler.RecordViewOf(result.AutoRecord)
	}
	server.RespondJSON(w, http.StatusCreated, response)
}

// List handles GET /receipts.
func (h *ReceiptsHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := authhandler.UserFrom(r.Context())
	if !ok {
		server.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	receipts, err := h.svc.List(r.Context(), user.ID)
	if err != nil {
		server.RespondError(w, http.StatusInternalServerError, "failed to list receipts")
		return
	}

	views := make([]ReceiptView, 0, len(receipts))
	for _, receipt := range receipts {
		views = append(views, toView(receipt))
	}
	server.RespondJSON(w, http.StatusOK, views)
}

// Get handles GET /receipts/{id}.
func (h *ReceiptsHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := authhandler.UserFrom(r.Context())
	if !ok {
		server.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		server.RespondError(w, http.StatusBadRequest, "invalid receipt id")
		return
	}

	receipt, err := h.svc.Get(r.Context(), user.ID, id)
	if err != nil {
		respondReceiptError(w, err)
		return
	}
	server.RespondJSON(w, http.StatusOK, toView(receipt))
}

// Download handles GET /receipts/{id}/download, streaming the original file.
func (h *ReceiptsHandler) Download(w http.ResponseWriter, r *http.Request) {
	user, ok := authhandler.UserFrom(r.Context())
	if !ok {
		server.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		server.RespondError(w, http.StatusBadRequest, "invalid receipt id")
		return
	}

	rc, receipt, err := h.svc.Download(r.Context(), user.ID, id)
	if err != nil {
		respondReceiptError(w, err)
		return
	}
	defer rc.Close()

	contentType := receipt.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", receipt.OriginalFilename))
	w.Header().Set("Content-Type", contentType)

	if _, err := io.Copy(w, rc); err != nil {
		// Response already partially written; nothing useful to send.
		return
	}
}

// Delete handles DELETE /receipts/{id}?deleteRecord=true|false.
func (h *ReceiptsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := authhandler.UserFrom(r.Context())
	if !ok {
		server.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		server.RespondError(w, http.StatusBadRequest, "invalid receipt id")
		return
	}

	deleteRecord := r.URL.Query().Get("deleteRecord") == "true"

	if err := h.svc.Delete(r.Context(), user.ID, id, deleteRecord); err != nil {
		respondReceiptError(w, err)
		return
	}

	server.RespondJSON(w, http.StatusOK, map[string]any{
		"message":       "receipt deleted",
		"recordDeleted": deleteRecord,
	})
}

func respondReceiptError(w http.ResponseWriter, err error) {
	if errors.Is(err, repository.ErrReceiptNotFound) {
		server.RespondError(w, http.StatusNotFound, "receipt not found")
		return
	}
	server.RespondError(w, http.StatusInternalServerError, "internal error")
}
