package journals

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

// memoryRepo is a serialised in-memory Repository. Each WithTx call works on
// a staged copy that is only merged when fn succeeds.
type memoryRepo struct {
	mu        sync.Mutex
	nextID    int64
	entries   map[int64]JournalEntry
	byRef     map[string]int64
	reversals map[int64]int64
	sources   map[string]int64

	failTransient int
	failLines     bool
	txCount       int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		entries:   map[int64]JournalEntry{},
		byRef:     map[string]int64{},
		reversals: map[int64]int64{},
		sources:   map[string]int64{},
	}
}

func (r *memoryRepo) ListPosted(_ context.Context, f Filter) ([]JournalEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []JournalEntry
	for _, e := range r.entries {
		if e.Status != JournalStatusPosted || len(e.Lines) == 0 {
			continue
		}
		if !f.From.IsZero() && e.Date.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && e.Date.After(f.To) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *memoryRepo) GetByReference(_ context.Context, reference string) (JournalEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookup(reference)
}

func (r *memoryRepo) lookup(reference string) (JournalEntry, error) {
	id, ok := r.byRef[reference]
	if !ok || r.entries[id].Status != JournalStatusPosted {
		return JournalEntry{}, shared.Invalid(fmt.Errorf("%w: %s", shared.ErrJournalNotFound, reference))
	}
	return r.entries[id], nil
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txCount++
	tx := &memoryTx{repo: r, staged: map[int64]*JournalEntry{}, sources: map[string]int64{}}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if r.failTransient > 0 {
		r.failTransient--
		return &pgconn.PgError{Code: "40001", Message: "could not serialize access"}
	}
	for id, e := range tx.staged {
		r.entries[id] = *e
		r.byRef[e.Reference] = id
		if e.ReversalOf != nil {
			r.reversals[*e.ReversalOf] = id
		}
		if id > r.nextID {
			r.nextID = id
		}
	}
	for k, v := range tx.sources {
		r.sources[k] = v
	}
	return nil
}

// seedPending stores a header without lines, as a non-atomic store might.
func (r *memoryRepo) seedPending(e JournalEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	e.ID = r.nextID
	e.Status = JournalStatusPending
	r.entries[e.ID] = e
	r.byRef[e.Reference] = e.ID
}

func (r *memoryRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

type memoryTx struct {
	repo    *memoryRepo
	staged  map[int64]*JournalEntry
	sources map[string]int64
}

func (t *memoryTx) InsertEntry(_ context.Context, entry JournalEntry) (JournalEntry, error) {
	if entry.ReversalOf != nil {
		if _, dup := t.repo.reversals[*entry.ReversalOf]; dup {
			return JournalEntry{}, shared.Invalid(shared.ErrAlreadyReversed)
		}
	}
	if _, dup := t.repo.byRef[entry.Reference]; dup {
		return JournalEntry{}, shared.Invalid(fmt.Errorf("%w: %s", shared.ErrDuplicateEntry, entry.Reference))
	}
	for _, s := range t.staged {
		if s.Reference == entry.Reference {
			return JournalEntry{}, shared.Invalid(fmt.Errorf("%w: %s", shared.ErrDuplicateEntry, entry.Reference))
		}
	}
	entry.ID = t.repo.nextID + int64(len(t.staged)) + 1
	entry.Status = JournalStatusPending
	stored := entry
	t.staged[entry.ID] = &stored
	return entry, nil
}

func (t *memoryTx) InsertLines(_ context.Context, entryID int64, lines []PostingLineInput) error {
	if t.repo.failLines {
		return errors.New("write journal_lines: connection reset by peer")
	}
	e, ok := t.staged[entryID]
	if !ok {
		return fmt.Errorf("entry %d not staged", entryID)
	}
	for i, l := range lines {
		e.Lines = append(e.Lines, JournalLine{
			ID: int64(i + 1), JournalID: entryID, LineNo: i + 1,
			AccountID: l.AccountID, Debit: l.Debit, Credit: l.Credit, Memo: l.Memo,
		})
	}
	return nil
}

func (t *memoryTx) ConfirmEntry(_ context.Context, entryID int64, lineCount int) error {
	e, ok := t.staged[entryID]
	if !ok || len(e.Lines) != lineCount {
		return fmt.Errorf("journals: entry %d lines not confirmed", entryID)
	}
	e.Status = JournalStatusPosted
	return nil
}

func (t *memoryTx) LinkSource(_ context.Context, module string, ref uuid.UUID, entryID int64) error {
	key := module + ":" + ref.String()
	if _, dup := t.repo.sources[key]; dup {
		return shared.Invalid(shared.ErrSourceAlreadyLinked)
	}
	if _, dup := t.sources[key]; dup {
		return shared.Invalid(shared.ErrSourceAlreadyLinked)
	}
	t.sources[key] = entryID
	return nil
}

func (t *memoryTx) LockByReference(_ context.Context, reference string) (JournalEntry, error) {
	return t.repo.lookup(reference)
}
