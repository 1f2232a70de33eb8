package ar

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus enumerates AR invoice statuses.
type InvoiceStatus string

const (
	StatusDraft  InvoiceStatus = "DRAFT"
	StatusPosted InvoiceStatus = "POSTED"
	StatusPaid   InvoiceStatus = "PAID"
	StatusVoid   InvoiceStatus = "VOID"
)

// Invoice is a customer invoice with the settlements recorded against it.
type Invoice struct {
	ID            int64         `json:"id"`
	Number        string        `json:"number"`
	CustomerID    int64         `json:"customer_id"`
	CustomerName  string        `json:"customer_name"`
	CustomerGroup string        `json:"customer_group,omitempty"`
	IssueDate     time.Time     `json:"issue_date"`
	DueDate       time.Time     `json:"due_date"`
	Total         float64       `json:"total"`
	Status        InvoiceStatus `json:"status"`
	Payments      []Payment     `json:"payments,omitempty"`
	CreditNotes   []CreditNote  `json:"credit_notes,omitempty"`
}

// Payment model.
type Payment struct {
	ID        int64     `json:"id"`
	InvoiceID int64     `json:"invoice_id"`
	Number    string    `json:"number"`
	Amount    float64   `json:"amount"`
	PaidAt    time.Time `json:"paid_at"`
	Method    string    `json:"method,omitempty"`
}

// CreditNote reduces what the customer owes. Amounts may be stored signed
// either way; only the magnitude is applied.
type CreditNote struct {
	ID        int64     `json:"id"`
	InvoiceID int64     `json:"invoice_id"`
	Amount    float64   `json:"amount"`
	IssuedAt  time.Time `json:"issued_at"`
}

// Ageable reports whether the invoice takes part in aging at all.
func (inv Invoice) Ageable() bool {
	return inv.Status != StatusDraft && inv.Status != StatusVoid
}

// Outstanding returns what was owed at asAt: total less payments and credit
// notes dated on or before asAt, floored at zero. An invoice issued after
// asAt owes nothing yet.
func (inv Invoice) Outstanding(asAt time.Time) float64 {
	cutoff := day(asAt)
	if day(inv.IssueDate).After(cutoff) {
		return 0
	}
	owed := decimal.NewFromFloat(inv.Total)
	for _, p := range inv.Payments {
		if !day(p.PaidAt).After(cutoff) {
			owed = owed.Sub(decimal.NewFromFloat(p.Amount))
		}
	}
	for _, cn := range inv.CreditNotes {
		if !day(cn.IssuedAt).After(cutoff) {
			owed = owed.Sub(decimal.NewFromFloat(cn.Amount).Abs())
		}
	}
	if !owed.IsPositive() {
		return 0
	}
	return owed.Round(2).InexactFloat64()
}

// AgeDays counts whole days from issue to asAt.
func (inv Invoice) AgeDays(asAt time.Time) int {
	return int(day(asAt).Sub(day(inv.IssueDate)).Hours() / 24)
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var (
	ErrInvoiceNotFound  = errors.New("ar: invoice not found")
	ErrInvalidPayment   = errors.New("ar: payment amount must be positive")
	ErrOverpayment      = errors.New("ar: payment exceeds outstanding balance")
	ErrInvoiceNotOpen   = errors.New("ar: invoice is not open for payment")
	ErrDuplicatePayment = errors.New("ar: payment number already recorded")
	ErrInvalidGroupBy   = errors.New("ar: unknown group by")
)
