package journals

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/httpx"
)

const dateLayout = "2006-01-02"

var errorMap = httpx.Mapping{
	{Err: shared.ErrJournalNotFound, As: httpx.ErrNotFound},
	{Err: shared.ErrDuplicateEntry, As: httpx.ErrDuplicate},
	{Err: shared.ErrAlreadyReversed, As: httpx.ErrDuplicate},
	{Err: shared.ErrSourceAlreadyLinked, As: httpx.ErrDuplicate},
	{Err: shared.ErrValidation, As: httpx.ErrValidation},
	{Err: shared.ErrInfrastructure, As: httpx.ErrUnavailable},
}

type Handler struct {
	service   *Service
	logger    *slog.Logger
	validator *httpx.Validator
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: httpx.NewValidator()}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{reference}", h.Get)
	r.Post("/{reference}/reverse", h.Reverse)
}

type lineRequest struct {
	AccountID int64   `json:"account_id" validate:"required,gt=0"`
	Debit     float64 `json:"debit" validate:"gte=0"`
	Credit    float64 `json:"credit" validate:"gte=0"`
	Memo      string  `json:"memo" validate:"max=255"`
}

type createRequest struct {
	Kind           string        `json:"kind" validate:"required,oneof=PURCHASE SALE PAYMENT RECEIPT ADJUSTMENT COGS PAYROLL MANUAL"`
	DocumentNumber string        `json:"document_number" validate:"required,max=64"`
	Date           string        `json:"date" validate:"required,datetime=2006-01-02"`
	Description    string        `json:"description" validate:"max=500"`
	Lines          []lineRequest `json:"lines" validate:"required,min=2,dive"`
}

type reverseRequest struct {
	Date        string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Description string `json:"description" validate:"max=500"`
}

type lineView struct {
	LineNo    int     `json:"line_no"`
	AccountID int64   `json:"account_id"`
	Debit     float64 `json:"debit"`
	Credit    float64 `json:"credit"`
	Memo      string  `json:"memo,omitempty"`
}

type entryView struct {
	ID          int64      `json:"id"`
	Reference   string     `json:"reference"`
	Kind        string     `json:"kind"`
	Date        string     `json:"date"`
	Description string     `json:"description"`
	ReversalOf  *int64     `json:"reversal_of,omitempty"`
	TotalDebit  float64    `json:"total_debit"`
	TotalCredit float64    `json:"total_credit"`
	Lines       []lineView `json:"lines"`
}

func toView(e JournalEntry) entryView {
	lines := make([]lineView, 0, len(e.Lines))
	for _, l := range e.Lines {
		lines = append(lines, lineView{LineNo: l.LineNo, AccountID: l.AccountID, Debit: l.Debit, Credit: l.Credit, Memo: l.Memo})
	}
	return entryView{
		ID:          e.ID,
		Reference:   e.Reference,
		Kind:        string(e.Kind),
		Date:        e.Date.Format(dateLayout),
		Description: e.Description,
		ReversalOf:  e.ReversalOf,
		TotalDebit:  e.TotalDebit,
		TotalCredit: e.TotalCredit,
		Lines:       lines,
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var f Filter
	var err error
	if raw := r.URL.Query().Get("from"); raw != "" {
		if f.From, err = time.Parse(dateLayout, raw); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "from must be YYYY-MM-DD")
			return
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		if f.To, err = time.Parse(dateLayout, raw); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "to must be YYYY-MM-DD")
			return
		}
	}
	entries, err := h.service.ListPosted(r.Context(), f)
	if err != nil {
		h.logger.Error("list journals", slog.Any("error", err))
		httpx.RespondError(w, err, errorMap)
		return
	}
	out := make([]entryView, 0, len(entries))
	for _, e := range entries {
		out = append(out, toView(e))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	entry, err := h.service.Get(r.Context(), chi.URLParam(r, "reference"))
	if err != nil {
		httpx.RespondError(w, err, errorMap)
		return
	}
	httpx.JSON(w, http.StatusOK, toView(entry))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if !h.validator.Check(w, req) {
		return
	}
	date, _ := time.Parse(dateLayout, req.Date)
	in := PostingInput{
		Kind:           Kind(req.Kind),
		DocumentNumber: req.DocumentNumber,
		Date:           date,
		Description:    req.Description,
		SourceModule:   "API",
	}
	for _, l := range req.Lines {
		in.Lines = append(in.Lines, PostingLineInput{AccountID: l.AccountID, Debit: l.Debit, Credit: l.Credit, Memo: l.Memo})
	}
	entry, err := h.service.CreateEntry(r.Context(), in)
	if err != nil {
		if !shared.IsValidation(err) {
			h.logger.Error("create journal", slog.Any("error", err))
		}
		httpx.RespondError(w, err, errorMap)
		return
	}
	httpx.JSON(w, http.StatusCreated, toView(entry))
}

func (h *Handler) Reverse(w http.ResponseWriter, r *http.Request) {
	var req reverseRequest
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
	}
	if !h.validator.Check(w, req) {
		return
	}
	in := ReverseInput{Reference: chi.URLParam(r, "reference"), Description: req.Description}
	if req.Date != "" {
		d, _ := time.Parse(dateLayout, req.Date)
		in.Date = &d
	}
	entry, err := h.service.ReverseEntry(r.Context(), in)
	if err != nil {
		if !shared.IsValidation(err) {
			h.logger.Error("reverse journal", slog.Any("error", err))
		}
		httpx.RespondError(w, err, errorMap)
		return
	}
	httpx.JSON(w, http.StatusCreated, toView(entry))
}
