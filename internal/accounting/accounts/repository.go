package accounts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
)

type Repository interface {
	List(ctx context.Context) ([]Account, error)
	Get(ctx context.Context, id int64) (Account, error)
	// Upsert inserts or refreshes accounts keyed by number and returns them with ids.
	Upsert(ctx context.Context, list []Account) ([]Account, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const selectAccount = `SELECT id, number, name, type, sub_category, opening_balance, is_active, created_at, updated_at FROM accounts`

func (r *repository) List(ctx context.Context) ([]Account, error) {
	rows, err := r.db.Query(ctx, selectAccount+` ORDER BY number`)
	if err != nil {
		return nil, shared.Infra("accounts: list", err)
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, shared.Infra("accounts: scan", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.Infra("accounts: list", err)
	}
	return accounts, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Account, error) {
	a, err := scanAccount(r.db.QueryRow(ctx, selectAccount+` WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrAccountNotFound
		}
		return Account{}, shared.Infra("accounts: get", err)
	}
	return a, nil
}

func (r *repository) Upsert(ctx context.Context, list []Account) ([]Account, error) {
	out := make([]Account, 0, len(list))
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		for _, acc := range list {
			// type is immutable once created: the conflict branch leaves it alone
			row := tx.QueryRow(ctx, `INSERT INTO accounts (number, name, type, sub_category, opening_balance, is_active)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (number) DO UPDATE SET name=EXCLUDED.name, sub_category=EXCLUDED.sub_category,
	opening_balance=EXCLUDED.opening_balance, is_active=EXCLUDED.is_active, updated_at=NOW()
RETURNING id, number, name, type, sub_category, opening_balance, is_active, created_at, updated_at`,
				acc.Number, acc.Name, acc.Type, acc.SubCategory, shared.Round2(acc.OpeningBalance), acc.IsActive)
			stored, err := scanAccount(row)
			if err != nil {
				return err
			}
			out = append(out, stored)
		}
		return nil
	})
	if err != nil {
		return nil, shared.Infra("accounts: upsert", err)
	}
	return out, nil
}

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Number, &a.Name, &a.Type, &a.SubCategory, &a.OpeningBalance, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}
