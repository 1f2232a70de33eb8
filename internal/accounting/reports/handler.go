package reports

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/periods"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/httpx"
)

const dateLayout = "2006-01-02"

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

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/income-statement", h.IncomeStatement)
	r.Get("/balance-sheet", h.BalanceSheet)
	r.Get("/trial-balance", h.TrialBalance)
}

func (h *Handler) IncomeStatement(w http.ResponseWriter, r *http.Request) {
	period, err := PeriodFromQuery(r, h.now())
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	is, err := h.service.IncomeStatement(r.Context(), period)
	if err != nil {
		h.logger.Error("income statement", slog.Any("error", err))
		httpx.RespondError(w, err, errorMap)
		return
	}
	httpx.JSON(w, http.StatusOK, is)
}

func (h *Handler) BalanceSheet(w http.ResponseWriter, r *http.Request) {
	asOf, err := dateParam(r, "as_of", h.now())
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	bs, err := h.service.BalanceSheet(r.Context(), asOf)
	if err != nil {
		h.logger.Error("balance sheet", slog.Any("error", err))
		httpx.RespondError(w, err, errorMap)
		return
	}
	httpx.JSON(w, http.StatusOK, bs)
}

func (h *Handler) TrialBalance(w http.ResponseWriter, r *http.Request) {
	asOf, err := dateParam(r, "as_of", h.now())
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	tb, err := h.service.TrialBalance(r.Context(), asOf)
	if err != nil {
		h.logger.Error("trial balance", slog.Any("error", err))
		httpx.RespondError(w, err, errorMap)
		return
	}
	httpx.JSON(w, http.StatusOK, tb)
}

// PeriodFromQuery reads from/to query params, defaulting to the month of now.
func PeriodFromQuery(r *http.Request, now time.Time) (periods.Period, error) {
	q := r.URL.Query()
	if q.Get("from") == "" && q.Get("to") == "" {
		return periods.Month(now), nil
	}
	return ParseWindow(q.Get("from"), q.Get("to"))
}

// ParseWindow parses an inclusive YYYY-MM-DD date range.
func ParseWindow(rawFrom, rawTo string) (periods.Period, error) {
	from, err := time.Parse(dateLayout, rawFrom)
	if err != nil {
		return periods.Period{}, errors.New("from must be YYYY-MM-DD")
	}
	to, err := time.Parse(dateLayout, rawTo)
	if err != nil {
		return periods.Period{}, errors.New("to must be YYYY-MM-DD")
	}
	if to.Before(from) {
		return periods.Period{}, errors.New("to must not be before from")
	}
	return periods.Window(from, to), nil
}

func dateParam(r *http.Request, name string, fallback time.Time) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return truncate(fallback), nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, errors.New(name + " must be YYYY-MM-DD")
	}
	return t, nil
}
