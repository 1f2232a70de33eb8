package inventory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// memoryRepo serialises transactions, standing in for the row lock.
// Writes are staged and merged only when fn succeeds.
type memoryRepo struct {
	mu        sync.Mutex
	items     map[int64]Item
	movements []Movement
	nextID    int64

	failTransient int
	txCount       int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: map[int64]Item{}}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txCount++
	tx := &memoryTx{repo: r, items: map[int64]Item{}}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if r.failTransient > 0 {
		r.failTransient--
		return &pgconn.PgError{Code: "40001", Message: "could not serialize access"}
	}
	for id, item := range tx.items {
		r.items[id] = item
	}
	for _, m := range tx.movements {
		r.movements = append(r.movements, *m)
		if m.ID > r.nextID {
			r.nextID = m.ID
		}
	}
	return nil
}

func (r *memoryRepo) GetItem(_ context.Context, id int64) (Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return Item{}, fmt.Errorf("%w: %d", ErrItemNotFound, id)
	}
	return item, nil
}

func (r *memoryRepo) ListMovements(_ context.Context, itemID int64, limit int) ([]Movement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Movement
	for i := len(r.movements) - 1; i >= 0; i-- {
		if r.movements[i].ItemID == itemID {
			out = append(out, r.movements[i])
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *memoryRepo) ListItemIDs(context.Context) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int64, 0, len(r.items))
	for id := range r.items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// corrupt overwrites a stored position without a movement.
func (r *memoryRepo) corrupt(item Item) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = item
}

type memoryTx struct {
	repo      *memoryRepo
	items     map[int64]Item
	movements []*Movement
}

func (t *memoryTx) LockItem(_ context.Context, id int64) (Item, error) {
	if item, ok := t.items[id]; ok {
		return item, nil
	}
	item, ok := t.repo.items[id]
	if !ok {
		item = Item{ID: id, SKU: fmt.Sprintf("ITEM-%d", id), Name: fmt.Sprintf("ITEM-%d", id)}
	}
	t.items[id] = item
	return item, nil
}

func (t *memoryTx) InsertMovement(_ context.Context, m Movement) (int64, bool, error) {
	if _, err := t.FindMovement(context.Background(), m.Key()); err == nil {
		return 0, false, nil
	}
	m.ID = t.repo.nextID + int64(len(t.movements)) + 1
	t.movements = append(t.movements, &m)
	return m.ID, true, nil
}

func (t *memoryTx) FindMovement(_ context.Context, key MovementKey) (Movement, error) {
	for _, m := range t.repo.movements {
		if m.Key() == key {
			return m, nil
		}
	}
	for _, m := range t.movements {
		if m.Key() == key {
			return *m, nil
		}
	}
	return Movement{}, pgx.ErrNoRows
}

func (t *memoryTx) CompleteMovement(_ context.Context, m Movement) error {
	for _, staged := range t.movements {
		if staged.ID == m.ID {
			*staged = m
			return nil
		}
	}
	return fmt.Errorf("movement %d not staged", m.ID)
}

func (t *memoryTx) SaveItem(_ context.Context, item Item) error {
	t.items[item.ID] = item
	return nil
}

func (t *memoryTx) MovementsForItem(_ context.Context, itemID int64) ([]Movement, error) {
	var out []Movement
	for _, m := range t.repo.movements {
		if m.ItemID == itemID {
			out = append(out, m)
		}
	}
	return out, nil
}
