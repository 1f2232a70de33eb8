package mappings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

type Repository interface {
	Get(ctx context.Context, module, key string) (AccountMapping, error)
	Upsert(ctx context.Context, mapping AccountMapping) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

// Get resolves an account mapping for the specified key.
func (r *repository) Get(ctx context.Context, module, key string) (AccountMapping, error) {
	if module == "" || key == "" {
		return AccountMapping{}, shared.Invalid(errors.New("accounting: module and key required"))
	}
	rows, err := r.db.Query(ctx, `SELECT module, key, account_id, updated_at FROM account_mappings WHERE module=$1 AND key=$2`,
		strings.ToUpper(module), key)
	if err != nil {
		return AccountMapping{}, shared.Infra("mappings: get", err)
	}
	mapping, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[AccountMapping])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AccountMapping{}, shared.Invalid(fmt.Errorf("%w: %s/%s", shared.ErrMappingNotFound, module, key))
		}
		return AccountMapping{}, shared.Infra("mappings: get", err)
	}
	return mapping, nil
}

// Upsert points module/key at an account, replacing any previous target.
func (r *repository) Upsert(ctx context.Context, m AccountMapping) error {
	if m.Module == "" || m.Key == "" || m.AccountID <= 0 {
		return shared.Invalid(errors.New("accounting: module, key and account required"))
	}
	_, err := r.db.Exec(ctx, `INSERT INTO account_mappings (module, key, account_id) VALUES ($1,$2,$3)
ON CONFLICT (module, key) DO UPDATE SET account_id = EXCLUDED.account_id, updated_at = NOW()`,
		strings.ToUpper(m.Module), m.Key, m.AccountID)
	if err != nil {
		return shared.Infra("mappings: upsert", err)
	}
	return nil
}
