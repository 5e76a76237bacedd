// Package handler exposes the records HTTP endpoints.
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	authhandler "github.com/thequantifier/quantifier/internal/domain/auth/handler"
	"github.com/thequantifier/quantifier/internal/domain/records/repository"
	"github.com/thequantifier/quantifier/internal/domain/records/service"
	"github.com/thequantifier/quantifier/pkg/money"
	"github.com/thequantifier/quantifier/pkg/server"
)

// RecordView is the JSON shape for a record.
type RecordView struct {
	ID              string     `json:"id"`
	Type            string     `json:"type"`
	Amount          string     `json:"amount"`
	AmountDisplay   string     `json:"amountDisplay"`
	Currency        string     `json:"currency"`
	Category        string     `json:"category"`
	Date            string     `json:"date"`
	Note            string     `json:"note,omitempty"`
	LinkedReceiptID *uuid.UUID `json:"linkedReceiptId,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func toView(r *repository.Record) RecordView {
	amount := money.New(r.AmountMinor, r.CurrencyCode)
	return RecordView{
		ID:              r.ID.String(),
		Type:            string(r.Type),
		Amount:          amount.String(),
		AmountDisplay:   amount.Display(),
		Currency:        r.CurrencyCode,
		Category:        r.Category,
		Date:            r.Date.Format("2006-01-02"),
		Note:            r.Note,
		LinkedReceiptID: r.LinkedReceiptID,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

// RecordViewOf converts a record for embedding in other responses, such
// as the receipt upload result.
func RecordViewOf(r *repository.Record) RecordView {
	return toView(r)
}

func toViews(records []*repository.Record) []RecordView {
	views := make([]RecordView, 0, len(records))
	for _, r := range records {
		views = append(views, toView(r))
	}
	return views
}

// RecordsHandler implements the record endpoints.
type RecordsHandler struct {
	svc *service.Service
}

// NewRecordsHandler constructs a new handler.
func NewRecordsHandler(svc *service.Service) *RecordsHandler {
	return &RecordsHandler{svc: svc}
}

// Routes mounts the record endpoints. All routes require auth.
func (h *RecordsHandler) Routes(requireAuth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(requireAuth)
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/search", h.Search)
	r.Get("/export", h.ExportCSV)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	return r
}

type recordRequest struct {
	Type     string          `json:"type"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Category string          `json:"category"`
	Date     string          `json:"date"`
	Note     string          `json:"note"`
}

// Create handles POST /records.
func (h *RecordsHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := authhandler.UserFrom(r.Context())
	if !ok {
		server.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req recordRequest
	if err := server.DecodeJSON(r, &req); err != nil {
		server.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Type == "" || req.Category == "" {
		server.RespondError(w, http.StatusBadRequest, "missing required fields: type, amount, category")
		return
	}

	record, err := h.svc.Create(r.Context(), user.ID, service.CreateInput{
		Type:     repository.RecordType(req.Type),
		Amount:   req.Amount,
		Currency: req.Currency,
		Category: req.Category,
		Date:     req.Date,
		Note:     req.Note,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	server.RespondJSON(w, http.StatusCreated, toView(record))
}

// List handles GET /records.
func (h *RecordsHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := authhandler.UserFrom(r.Context())
	if !ok {
		server.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	records, err := h.svc.List(r.Context(), user.ID)
	if err != nil {
		server.RespondError(w, http.StatusInternalServerError, "failed to list records")
		return
	}
	server.RespondJSON(w, http.StatusOK, toViews(records))
}

// Get handles GET /records/{id}.
func (h *RecordsHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := authhandler.UserFrom(r.Context())
	if !ok {
		server.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		server.RespondError(w, http.StatusBadRequest, "invalid record id")
		return
	}

	record, err := h.svc.Get(r.Context(), user.ID, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	server.RespondJSON(w, http.StatusOK, toView(record))
}

type updateRequest struct {
	Type     *string          `json:"type"`
	Amount   *decimal.Decimal `json:"amount"`
	Category *string          `json:"category"`
	Date     *string          `json:"date"`
	Note     *string          `json:"note"`
}

// Update handles PUT /records/{id}.
func (h *RecordsHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := authhandler.UserFrom(r.Context())
	if !ok {
		server.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		server.RespondError(w, http.StatusBadRequest, "invalid record id")
		return
	}

	var req updateRequest
	if err := server.DecodeJSON(r, &req); err != nil {
		server.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var recordType *repository.RecordType
	if req.Type != nil {
		t := repository.RecordType(*req.Type)
		recordType = &t
	}

	record, err := h.svc.Update(r.Context(), user.ID, id, service.UpdateInput{
		Type:     recordType,
		Amount:   req.Amount,
		Category: req.Category,
		Date:     req.Date,
		Note:     req.Note,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	server.RespondJSON(w, http.StatusOK, map[string]any{
		"message": "record updated",
		"record":  toView(record),
	})
}

// Delete handles DELETE /records/{id}.
func (h *RecordsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := authhandler.UserFrom(r.Context())
	if !ok {
		server.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		server.RespondError(w, http.StatusBadRequest, "invalid record id")
		return
	}

	if err := h.svc.Delete(r.Context(), user.ID, id); err != nil {
		respondServiceError(w, err)
		return
	}
	server.RespondJSON(w, http.StatusOK, map[string]string{"message": "record deleted"})
}

// Search handles GET /records/search?q=...&limit=...
func (h *RecordsHandler) Search(w http.ResponseWriter, r *http.Request) {
	user, ok := authhandler.UserFrom(r.Context())
	if !ok {
		server.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	queryText := r.URL.Query().Get("q")
	if queryText == "" {
		server.RespondError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}

	limit := 20
	if ls := r.URL.Query().Get("limit"); ls != "" {
		if parsed, err := strconv.Atoi(ls); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	records, err := h.svc.Search(r.Context(), user.ID, queryText, limit)
	if err != nil {
		server.RespondError(w, http.StatusInternalServerError, "search failed")
		return
	}
	server.RespondJSON(w, http.StatusOK, toViews(records))
}

// ExportCSV handles GET /records/export and streams a CSV download.
func (h *RecordsHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	user, ok := authhandler.UserFrom(r.Context())
	if !ok {
		server.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="records.csv"`)

	if err := h.svc.ExportCSV(r.Context(), user.ID, w); err != nil {
		// Headers may already be out; just log-equivalent status.
		server.RespondError(w, http.StatusInternalServerError, "export failed")
	}
}

func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrRecordNotFound):
		server.RespondError(w, http.StatusNotFound, "record not found")
	case errors.Is(err, service.ErrRecordLinked):
		server.RespondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrInvalidType),
		errors.Is(err, service.ErrNegativeAmount),
		errors.Is(err, service.ErrMissingCategory),
		errors.Is(err, service.ErrInvalidDate):
		server.RespondError(w, http.StatusBadRequest, err.Error())
	default:
		server.RespondError(w, http.StatusInternalServerError, "internal error")
	}
}
