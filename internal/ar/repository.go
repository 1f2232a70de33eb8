package ar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
)

// RepositoryPort defines data access methods for AR.
type RepositoryPort interface {
	// ListInvoices returns non-draft, non-void invoices issued on or before
	// asAt with their payments and credit notes.
	ListInvoices(ctx context.Context, asAt time.Time) ([]Invoice, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a transaction.
type TxRepository interface {
	// LockInvoice loads the invoice with its settlements and holds a row lock.
	LockInvoice(ctx context.Context, id int64) (Invoice, error)
	InsertPayment(ctx context.Context, p Payment) (Payment, error)
	SetStatus(ctx context.Context, id int64, status InvoiceStatus) error
}

const constraintPaymentNumber = "uq_ar_payments_number"

// Repository persists AR data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const invoiceColumns = `i.id, i.number, i.customer_id, c.name, COALESCE(c.customer_group, ''), i.issue_date, i.due_date, i.total, i.status`

func (r *Repository) ListInvoices(ctx context.Context, asAt time.Time) ([]Invoice, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+invoiceColumns+`
FROM ar_invoices i JOIN customers c ON c.id = i.customer_id
WHERE i.status NOT IN ('DRAFT', 'VOID') AND i.issue_date <= $1
ORDER BY i.issue_date, i.id`, asAt)
	if err != nil {
		return nil, err
	}
	invoices, err := pgx.CollectRows(rows, scanInvoice)
	if err != nil || len(invoices) == 0 {
		return invoices, err
	}

	ids := make([]int64, len(invoices))
	index := make(map[int64]int, len(invoices))
	for i, inv := range invoices {
		ids[i] = inv.ID
		index[inv.ID] = i
	}
	var (
		payments []Payment
		credits  []CreditNote
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		payments, err = listPayments(gctx, r.pool, ids)
		return err
	})
	g.Go(func() error {
		var err error
		credits, err = listCreditNotes(gctx, r.pool, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, p := range payments {
		inv := &invoices[index[p.InvoiceID]]
		inv.Payments = append(inv.Payments, p)
	}
	for _, cn := range credits {
		inv := &invoices[index[cn.InvoiceID]]
		inv.CreditNotes = append(inv.CreditNotes, cn)
	}
	return invoices, nil
}

func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

type txRepo struct {
	tx pgx.Tx
}

func (t *txRepo) LockInvoice(ctx context.Context, id int64) (Invoice, error) {
	rows, err := t.tx.Query(ctx, `SELECT `+invoiceColumns+`
FROM ar_invoices i JOIN customers c ON c.id = i.customer_id
WHERE i.id = $1 FOR UPDATE OF i`, id)
	if err != nil {
		return Invoice{}, err
	}
	inv, err := pgx.CollectExactlyOneRow(rows, scanInvoice)
	if errors.Is(err, pgx.ErrNoRows) {
		return Invoice{}, fmt.Errorf("%w: %d", ErrInvoiceNotFound, id)
	}
	if err != nil {
		return Invoice{}, err
	}
	if inv.Payments, err = listPayments(ctx, t.tx, []int64{id}); err != nil {
		return Invoice{}, err
	}
	if inv.CreditNotes, err = listCreditNotes(ctx, t.tx, []int64{id}); err != nil {
		return Invoice{}, err
	}
	return inv, nil
}

func (t *txRepo) InsertPayment(ctx context.Context, p Payment) (Payment, error) {
	err := t.tx.QueryRow(ctx, `INSERT INTO ar_payments (invoice_id, number, amount, paid_at, method)
VALUES ($1,$2,$3,$4,$5) RETURNING id`, p.InvoiceID, p.Number, p.Amount, p.PaidAt, p.Method).Scan(&p.ID)
	if db.IsUniqueViolation(err, constraintPaymentNumber) {
		return Payment{}, fmt.Errorf("%w: %s", ErrDuplicatePayment, p.Number)
	}
	return p, err
}

func (t *txRepo) SetStatus(ctx context.Context, id int64, status InvoiceStatus) error {
	_, err := t.tx.Exec(ctx, `UPDATE ar_invoices SET status=$2, updated_at=NOW() WHERE id=$1`, id, status)
	return err
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func listPayments(ctx context.Context, q querier, ids []int64) ([]Payment, error) {
	rows, err := q.Query(ctx, `SELECT id, invoice_id, number, amount, paid_at, COALESCE(method, '')
FROM ar_payments WHERE invoice_id = ANY($1) ORDER BY paid_at, id`, ids)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Payment, error) {
		var p Payment
		err := row.Scan(&p.ID, &p.InvoiceID, &p.Number, &p.Amount, &p.PaidAt, &p.Method)
		return p, err
	})
}

func listCreditNotes(ctx context.Context, q querier, ids []int64) ([]CreditNote, error) {
	rows, err := q.Query(ctx, `SELECT id, invoice_id, amount, issued_at
FROM ar_credit_notes WHERE invoice_id = ANY($1) ORDER BY issued_at, id`, ids)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (CreditNote, error) {
		var cn CreditNote
		err := row.Scan(&cn.ID, &cn.InvoiceID, &cn.Amount, &cn.IssuedAt)
		return cn, err
	})
}

func scanInvoice(row pgx.CollectableRow) (Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.Number, &inv.CustomerID, &inv.CustomerName, &inv.CustomerGroup,
		&inv.IssueDate, &inv.DueDate, &inv.Total, &inv.Status)
	return inv, err
}
