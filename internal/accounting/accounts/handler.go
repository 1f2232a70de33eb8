package accounts

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/httpx"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/taxonomy", h.Taxonomy)
}

type accountView struct {
	ID             int64   `json:"id"`
	Number         string  `json:"number"`
	Name           string  `json:"name"`
	Type           string  `json:"type"`
	SubCategory    string  `json:"sub_category"`
	Section        string  `json:"section"`
	OpeningBalance float64 `json:"opening_balance"`
	Active         bool    `json:"active"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	chart, err := h.service.Chart(r.Context())
	if err != nil {
		h.logger.Error("list accounts", slog.Any("error", err))
		httpx.RespondError(w, err, httpx.Mapping{{Err: shared.ErrValidation, As: httpx.ErrValidation}})
		return
	}
	out := make([]accountView, 0, chart.Len())
	for _, a := range chart.Accounts() {
		out = append(out, accountView{
			ID:             a.ID,
			Number:         a.Number,
			Name:           a.Name,
			Type:           string(a.Type),
			SubCategory:    string(a.SubCategory),
			Section:        SectionLabel(a.SubCategory),
			OpeningBalance: a.OpeningBalance,
			Active:         a.IsActive,
		})
	}
	httpx.JSON(w, http.StatusOK, out)
}

type taxonomyView struct {
	Type          string   `json:"type"`
	Label         string   `json:"label"`
	SubCategories []string `json:"sub_categories"`
}

func (h *Handler) Taxonomy(w http.ResponseWriter, _ *http.Request) {
	out := make([]taxonomyView, 0, len(AllTypes))
	for _, t := range AllTypes {
		subs := SubCategoriesOf(t)
		names := make([]string, 0, len(subs))
		for _, s := range subs {
			names = append(names, string(s))
		}
		out = append(out, taxonomyView{Type: string(t), Label: TypeLabel(t), SubCategories: names})
	}
	httpx.JSON(w, http.StatusOK, out)
}
