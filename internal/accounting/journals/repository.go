package journals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
)

// Filter narrows ListPosted to an inclusive date range. Zero bounds are open.
type Filter struct {
	From time.Time
	To   time.Time
}

// Repository encapsulates DB operations for journals.
type Repository interface {
	// ListPosted returns confirmed entries with their lines, ordered by date and id.
	ListPosted(ctx context.Context, f Filter) ([]JournalEntry, error)
	GetByReference(ctx context.Context, reference string) (JournalEntry, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a transaction.
type TxRepository interface {
	// InsertEntry stores the header as PENDING.
	InsertEntry(ctx context.Context, entry JournalEntry) (JournalEntry, error)
	InsertLines(ctx context.Context, entryID int64, lines []PostingLineInput) error
	// ConfirmEntry flips the header to POSTED once exactly lineCount lines exist.
	ConfirmEntry(ctx context.Context, entryID int64, lineCount int) error
	LinkSource(ctx context.Context, module string, ref uuid.UUID, entryID int64) error
	// LockByReference loads a posted entry and holds a share lock on it.
	LockByReference(ctx context.Context, reference string) (JournalEntry, error)
}

const (
	constraintNumber   = "uq_journal_entries_reference"
	constraintReversal = "uq_journal_entries_reversal_of"
	constraintSource   = "uq_source_links"
)

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const selectEntry = `SELECT id, reference, kind, document_number, date, description, source_module, source_id,
	reversal_of, total_debit, total_credit, posted_by, posted_at, status FROM journal_entries`

func (r *repository) ListPosted(ctx context.Context, f Filter) ([]JournalEntry, error) {
	rows, err := r.db.Query(ctx, `SELECT e.id, e.reference, e.kind, e.document_number, e.date, e.description, e.source_module, e.source_id,
	e.reversal_of, e.total_debit, e.total_credit, e.posted_by, e.posted_at, e.status,
	l.id, l.line_no, l.account_id, l.debit, l.credit, l.memo
FROM journal_entries e
JOIN journal_lines l ON l.je_id = e.id
WHERE e.status = 'POSTED'
	AND ($1::date IS NULL OR e.date >= $1::date)
	AND ($2::date IS NULL OR e.date <= $2::date)
ORDER BY e.date, e.id, l.line_no`, nullDate(f.From), nullDate(f.To))
	if err != nil {
		return nil, shared.Infra("journals: list posted", err)
	}
	defer rows.Close()
	var entries []JournalEntry
	for rows.Next() {
		var e JournalEntry
		var l JournalLine
		var postedBy pgtype.Int8
		dest := append(headerDest(&e, &postedBy), &l.ID, &l.LineNo, &l.AccountID, &l.Debit, &l.Credit, &l.Memo)
		if err := rows.Scan(dest...); err != nil {
			return nil, shared.Infra("journals: scan", err)
		}
		e.PostedBy = postedBy.Int64
		l.JournalID = e.ID
		if n := len(entries); n > 0 && entries[n-1].ID == e.ID {
			entries[n-1].Lines = append(entries[n-1].Lines, l)
			continue
		}
		e.Lines = []JournalLine{l}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.Infra("journals: list posted", err)
	}
	return entries, nil
}

func (r *repository) GetByReference(ctx context.Context, reference string) (JournalEntry, error) {
	return getByReference(ctx, r.db, reference, "")
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) InsertEntry(ctx context.Context, entry JournalEntry) (JournalEntry, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO journal_entries (reference, kind, document_number, date, description, source_module, source_id,
	reversal_of, total_debit, total_credit, posted_by, status)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,'PENDING') RETURNING id, posted_at`,
		entry.Reference, entry.Kind, entry.DocumentNumber, entry.Date, entry.Description, entry.SourceModule, entry.SourceID,
		entry.ReversalOf, toNumeric(entry.TotalDebit), toNumeric(entry.TotalCredit), nullInt(entry.PostedBy))
	if err := row.Scan(&entry.ID, &entry.PostedAt); err != nil {
		switch {
		case db.IsUniqueViolation(err, constraintReversal):
			return JournalEntry{}, shared.Invalid(shared.ErrAlreadyReversed)
		case db.IsUniqueViolation(err, constraintNumber):
			return JournalEntry{}, shared.Invalid(fmt.Errorf("%w: %s", shared.ErrDuplicateEntry, entry.Reference))
		}
		return JournalEntry{}, err
	}
	entry.Status = JournalStatusPending
	return entry, nil
}

func (r *txRepository) InsertLines(ctx context.Context, entryID int64, lines []PostingLineInput) error {
	batch := &pgx.Batch{}
	for i, line := range lines {
		batch.Queue(`INSERT INTO journal_lines (je_id, line_no, account_id, debit, credit, memo) VALUES ($1,$2,$3,$4,$5,$6)`,
			entryID, i+1, line.AccountID, toNumeric(line.Debit), toNumeric(line.Credit), line.Memo)
	}
	return r.tx.SendBatch(ctx, batch).Close()
}

func (r *txRepository) ConfirmEntry(ctx context.Context, entryID int64, lineCount int) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET status='POSTED'
WHERE id=$1 AND status='PENDING' AND (SELECT COUNT(*) FROM journal_lines WHERE je_id=$1) = $2`, entryID, lineCount)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("journals: entry %d lines not confirmed", entryID)
	}
	return nil
}

func (r *txRepository) LinkSource(ctx context.Context, module string, ref uuid.UUID, entryID int64) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO source_links (module, ref_id, je_id) VALUES ($1,$2,$3)`, module, ref, entryID)
	if err != nil {
		if db.IsUniqueViolation(err, constraintSource) {
			return shared.Invalid(shared.ErrSourceAlreadyLinked)
		}
		return err
	}
	return nil
}

func (r *txRepository) LockByReference(ctx context.Context, reference string) (JournalEntry, error) {
	return getByReference(ctx, r.tx, reference, " FOR SHARE")
}

// headerDest lists scan targets for the header columns in select order.
// posted_by is NULL for system postings and lands in postedBy.
func headerDest(e *JournalEntry, postedBy *pgtype.Int8) []any {
	return []any{&e.ID, &e.Reference, &e.Kind, &e.DocumentNumber, &e.Date, &e.Description, &e.SourceModule, &e.SourceID,
		&e.ReversalOf, &e.TotalDebit, &e.TotalCredit, postedBy, &e.PostedAt, &e.Status}
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func getByReference(ctx context.Context, q querier, reference, lock string) (JournalEntry, error) {
	var e JournalEntry
	var postedBy pgtype.Int8
	err := q.QueryRow(ctx, selectEntry+` WHERE reference=$1 AND status='POSTED'`+lock, reference).
		Scan(headerDest(&e, &postedBy)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, shared.Invalid(fmt.Errorf("%w: %s", shared.ErrJournalNotFound, reference))
		}
		return JournalEntry{}, err
	}
	e.PostedBy = postedBy.Int64
	rows, err := q.Query(ctx, `SELECT id, line_no, account_id, debit, credit, memo FROM journal_lines WHERE je_id=$1 ORDER BY line_no`, e.ID)
	if err != nil {
		return JournalEntry{}, err
	}
	defer rows.Close()
	for rows.Next() {
		l := JournalLine{JournalID: e.ID}
		if err := rows.Scan(&l.ID, &l.LineNo, &l.AccountID, &l.Debit, &l.Credit, &l.Memo); err != nil {
			return JournalEntry{}, err
		}
		e.Lines = append(e.Lines, l)
	}
	return e, rows.Err()
}

func nullInt(val int64) any {
	if val == 0 {
		return nil
	}
	return val
}

func nullDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func toNumeric(v float64) any {
	return fmt.Sprintf("%.2f", v)
}
