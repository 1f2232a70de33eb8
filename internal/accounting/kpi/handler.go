package kpi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/periods"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/reports"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/httpx"
)

var errorMap = httpx.Mapping{
	{Err: shared.ErrValidation, As: httpx.ErrValidation},
	{Err: shared.ErrInfrastructure, As: httpx.ErrUnavailable},
}

type Handler struct {
	service *Service
	logger  *slog.Logger
	now     func() time.Time
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{service: service, logger: logger, now: time.Now}
}

// MountRoutes registers GET /kpi. Query: from, to, prior_from, prior_to, company_type.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/kpi", h.KPI)
}

func (h *Handler) KPI(w http.ResponseWriter, r *http.Request) {
	current, err := reports.PeriodFromQuery(r, h.now())
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	companyType, err := ParseCompanyType(r.URL.Query().Get("company_type"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	var prior *periods.Period
	if q := r.URL.Query(); q.Get("prior_from") != "" || q.Get("prior_to") != "" {
		p, err := reports.ParseWindow(q.Get("prior_from"), q.Get("prior_to"))
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "prior_"+err.Error())
			return
		}
		prior = &p
	}
	result, err := h.service.Calculate(r.Context(), current, prior, companyType)
	if err != nil {
		h.logger.Error("kpi", slog.Any("error", err))
		httpx.RespondError(w, err, errorMap)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}
