package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetItem(ctx context.Context, id int64) (Item, error)
	ListMovements(ctx context.Context, itemID int64, limit int) ([]Movement, error)
	ListItemIDs(ctx context.Context) ([]int64, error)
}

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	// LockItem creates the item row when missing and holds a row lock on it
	// until the transaction ends.
	LockItem(ctx context.Context, id int64) (Item, error)
	// InsertMovement returns inserted=false when the movement key exists.
	InsertMovement(ctx context.Context, m Movement) (id int64, inserted bool, err error)
	FindMovement(ctx context.Context, key MovementKey) (Movement, error)
	CompleteMovement(ctx context.Context, m Movement) error
	SaveItem(ctx context.Context, item Item) error
	MovementsForItem(ctx context.Context, itemID int64) ([]Movement, error)
}

// Repository persists inventory data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx executes the callback inside repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const itemColumns = `id, sku, name, qty, avg_cost, last_cost, updated_at`

const movementColumns = `id, item_id, movement_type, qty, unit_cost, reference_id, reference_type, note,
	applied_cost, qty_after, cost_after, posted_at, COALESCE(created_by, 0)`

func (r *Repository) GetItem(ctx context.Context, id int64) (Item, error) {
	item, err := scanItem(r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM inventory_items WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, fmt.Errorf("%w: %d", ErrItemNotFound, id)
	}
	return item, err
}

func (r *Repository) ListMovements(ctx context.Context, itemID int64, limit int) ([]Movement, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, `SELECT `+movementColumns+` FROM inventory_movements
WHERE item_id=$1 ORDER BY id DESC LIMIT $2`, itemID, limit)
	if err != nil {
		return nil, err
	}
	return collectMovements(rows)
}

func (r *Repository) ListItemIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM inventory_items ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) LockItem(ctx context.Context, id int64) (Item, error) {
	if _, err := r.tx.Exec(ctx, `INSERT INTO inventory_items (id, sku, name) VALUES ($1, $2, $2) ON CONFLICT (id) DO NOTHING`,
		id, fmt.Sprintf("ITEM-%d", id)); err != nil {
		return Item{}, err
	}
	return scanItem(r.tx.QueryRow(ctx, `SELECT `+itemColumns+` FROM inventory_items WHERE id=$1 FOR UPDATE`, id))
}

func (r *txRepository) InsertMovement(ctx context.Context, m Movement) (int64, bool, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO inventory_movements
	(item_id, movement_type, qty, unit_cost, reference_id, reference_type, note, applied_cost, qty_after, cost_after, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,0,0,0,$8)
ON CONFLICT ON CONSTRAINT uq_inventory_movements_key DO NOTHING
RETURNING id`,
		m.ItemID, m.Type, m.Qty, m.UnitCost, m.ReferenceID, m.ReferenceType, m.Note, nullActor(m.CreatedBy)).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (r *txRepository) FindMovement(ctx context.Context, key MovementKey) (Movement, error) {
	rows, err := r.tx.Query(ctx, `SELECT `+movementColumns+` FROM inventory_movements
WHERE item_id=$1 AND movement_type=$2 AND reference_id=$3 AND reference_type=$4`,
		key.ItemID, key.Type, key.ReferenceID, key.ReferenceType)
	if err != nil {
		return Movement{}, err
	}
	list, err := collectMovements(rows)
	if err != nil {
		return Movement{}, err
	}
	if len(list) == 0 {
		return Movement{}, pgx.ErrNoRows
	}
	return list[0], nil
}

func (r *txRepository) CompleteMovement(ctx context.Context, m Movement) error {
	_, err := r.tx.Exec(ctx, `UPDATE inventory_movements SET applied_cost=$2, qty_after=$3, cost_after=$4 WHERE id=$1`,
		m.ID, m.AppliedCost, m.QtyAfter, m.CostAfter)
	return err
}

func (r *txRepository) SaveItem(ctx context.Context, item Item) error {
	_, err := r.tx.Exec(ctx, `UPDATE inventory_items SET qty=$2, avg_cost=$3, last_cost=$4, updated_at=NOW() WHERE id=$1`,
		item.ID, item.Qty, item.AvgCost, item.LastCost)
	return err
}

func (r *txRepository) MovementsForItem(ctx context.Context, itemID int64) ([]Movement, error) {
	rows, err := r.tx.Query(ctx, `SELECT `+movementColumns+` FROM inventory_movements WHERE item_id=$1 ORDER BY id`, itemID)
	if err != nil {
		return nil, err
	}
	return collectMovements(rows)
}

func scanItem(row pgx.Row) (Item, error) {
	var item Item
	err := row.Scan(&item.ID, &item.SKU, &item.Name, &item.Qty, &item.AvgCost, &item.LastCost, &item.UpdatedAt)
	return item, err
}

func collectMovements(rows pgx.Rows) ([]Movement, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Movement, error) {
		var m Movement
		err := row.Scan(&m.ID, &m.ItemID, &m.Type, &m.Qty, &m.UnitCost, &m.ReferenceID, &m.ReferenceType, &m.Note,
			&m.AppliedCost, &m.QtyAfter, &m.CostAfter, &m.PostedAt, &m.CreatedBy)
		return m, err
	})
}

func nullActor(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
