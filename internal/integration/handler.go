package integration

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/httpx"
)

var errorMap = httpx.Mapping{
	{Err: shared.ErrValidation, As: httpx.ErrValidation},
	{Err: shared.ErrInfrastructure, As: httpx.ErrUnavailable},
}

// Handler accepts supplier payments made outside the ledger.
type Handler struct {
	logger    *slog.Logger
	hooks     *Hooks
	validator *httpx.Validator
}

func NewHandler(logger *slog.Logger, hooks *Hooks) *Handler {
	return &Handler{logger: logger, hooks: hooks, validator: httpx.NewValidator()}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/payments", h.supplierPayment)
}

type supplierPaymentRequest struct {
	Number     string  `json:"number" validate:"required,max=64"`
	SupplierID int64   `json:"supplier_id" validate:"gt=0"`
	Amount     float64 `json:"amount" validate:"gt=0"`
	PaidAt     string  `json:"paid_at" validate:"omitempty,datetime=2006-01-02"`
}

func (h *Handler) supplierPayment(w http.ResponseWriter, r *http.Request) {
	var req supplierPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if !h.validator.Check(w, req) {
		return
	}
	evt := SupplierPaymentEvent{Number: req.Number, SupplierID: req.SupplierID, Amount: req.Amount}
	if req.PaidAt != "" {
		evt.PaidAt, _ = time.Parse("2006-01-02", req.PaidAt)
	}
	if err := h.hooks.HandleSupplierPayment(r.Context(), evt); err != nil {
		h.logger.Error("supplier payment", slog.String("number", req.Number), slog.Any("error", err))
		httpx.RespondError(w, err, errorMap)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
