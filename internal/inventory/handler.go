package inventory

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/httpx"
)

var errorMap = httpx.Mapping{
	{Err: ErrItemNotFound, As: httpx.ErrNotFound},
	{Err: shared.ErrValidation, As: httpx.ErrValidation},
	{Err: shared.ErrInfrastructure, As: httpx.ErrUnavailable},
}

// Handler wires HTTP endpoints for inventory module.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *httpx.Validator
}

// NewHandler constructs inventory handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: httpx.NewValidator()}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/items/{id}", func(r chi.Router) {
		r.Get("/", h.getItem)
		r.Get("/movements", h.stockCard)
		r.Post("/movements", h.applyMovement)
	})
}

type movementRequest struct {
	Type          string  `json:"type" validate:"required,oneof=IN OUT ADJ_IN ADJ_OUT RETURN_IN RETURN_OUT"`
	Qty           float64 `json:"qty" validate:"gt=0"`
	UnitCost      float64 `json:"unit_cost" validate:"gte=0"`
	ReferenceID   string  `json:"reference_id" validate:"required,max=64"`
	ReferenceType string  `json:"reference_type" validate:"required,max=32"`
	Note          string  `json:"note" validate:"max=255"`
	ActorID       int64   `json:"actor_id" validate:"gte=0"`
}

func (h *Handler) applyMovement(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}
	var req movementRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if !h.validator.Check(w, req) {
		return
	}
	result, err := h.service.ApplyMovement(r.Context(), MovementInput{
		ItemID:        id,
		Type:          MovementType(req.Type),
		Qty:           req.Qty,
		UnitCost:      req.UnitCost,
		ReferenceID:   req.ReferenceID,
		ReferenceType: req.ReferenceType,
		Note:          req.Note,
		ActorID:       req.ActorID,
	})
	if err != nil {
		h.logger.Error("apply movement", slog.Int64("item_id", id), slog.Any("error", err))
		httpx.RespondError(w, err, errorMap)
		return
	}
	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	httpx.JSON(w, status, result)
}

func (h *Handler) getItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}
	item, err := h.service.GetItem(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err, errorMap)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"item": item, "value": item.Value()})
}

func (h *Handler) stockCard(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	list, err := h.service.StockCard(r.Context(), id, limit)
	if err != nil {
		h.logger.Error("stock card", slog.Int64("item_id", id), slog.Any("error", err))
		httpx.RespondError(w, err, errorMap)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"movements": list})
}

func itemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid item id")
		return 0, false
	}
	return id, true
}
