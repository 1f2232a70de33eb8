package ar

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/httpx"
)

const dateLayout = "2006-01-02"

var errorMap = httpx.Mapping{
	{Err: ErrInvoiceNotFound, As: httpx.ErrNotFound},
	{Err: ErrDuplicatePayment, As: httpx.ErrDuplicate},
	{Err: shared.ErrValidation, As: httpx.ErrValidation},
	{Err: shared.ErrInfrastructure, As: httpx.ErrUnavailable},
}

// Handler exposes AR aging and payment capture over JSON.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *httpx.Validator
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: httpx.NewValidator()}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/aging", h.aging)
	r.Post("/invoices/{id}/payments", h.recordPayment)
}

func (h *Handler) aging(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var asAt time.Time
	if raw := q.Get("as_at"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "as_at must be YYYY-MM-DD")
			return
		}
		asAt = t
	}
	groupBy, err := ParseGroupBy(q.Get("group_by"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	result, err := h.service.Aging(r.Context(), asAt, groupBy)
	if err != nil {
		h.logger.Error("ar aging", slog.Any("error", err))
		httpx.RespondError(w, err, errorMap)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

type paymentRequest struct {
	Number string  `json:"number" validate:"required,max=64"`
	Amount float64 `json:"amount" validate:"gt=0"`
	PaidAt string  `json:"paid_at" validate:"omitempty,datetime=2006-01-02"`
	Method string  `json:"method" validate:"max=32"`
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid invoice id")
		return
	}
	var req paymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if !h.validator.Check(w, req) {
		return
	}
	input := PaymentInput{InvoiceID: id, Number: req.Number, Amount: req.Amount, Method: req.Method}
	if req.PaidAt != "" {
		input.PaidAt, _ = time.Parse(dateLayout, req.PaidAt)
	}
	payment, err := h.service.RecordPayment(r.Context(), input)
	if err != nil {
		h.logger.Error("ar payment", slog.Int64("invoice_id", id), slog.Any("error", err))
		httpx.RespondError(w, err, errorMap)
		return
	}
	httpx.JSON(w, http.StatusCreated, payment)
}
