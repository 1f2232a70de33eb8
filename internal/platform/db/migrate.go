package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// migrationLockID guards against two migrators running at once.
const migrationLockID = 7462839

// Migration is one ordered schema step.
type Migration struct {
	Version    int
	Name       string
	Statements []string
}

// Migrations returns the schema steps in apply order.
func Migrations() []Migration {
	return []Migration{
		{Version: 1, Name: "ledger", Statements: ledgerSchema},
		{Version: 2, Name: "append_only", Statements: appendOnlySchema},
		{Version: 3, Name: "inventory", Statements: inventorySchema},
		{Version: 4, Name: "receivables", Statements: receivablesSchema},
		{Version: 5, Name: "audit", Statements: auditSchema},
	}
}

// Migrate applies every pending migration, each in its own transaction, and
// returns the versions it applied.
func Migrate(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) ([]int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("platform/db: acquire: %w", err)
	}
	defer conn.Release()

	var locked bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock($1)`, migrationLockID).Scan(&locked); err != nil {
		return nil, fmt.Errorf("platform/db: advisory lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("platform/db: another migrator is running")
	}
	defer func() {
		_, _ = conn.Exec(context.Background(), `SELECT pg_advisory_unlock($1)`, migrationLockID)
	}()

	if _, err := conn.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_version (
	version    INTEGER PRIMARY KEY,
	name       TEXT NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`); err != nil {
		return nil, fmt.Errorf("platform/db: create schema_version: %w", err)
	}

	var current int
	if err := conn.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&current); err != nil {
		return nil, fmt.Errorf("platform/db: read schema version: %w", err)
	}

	var applied []int
	for _, m := range Pending(current) {
		err := pgx.BeginFunc(ctx, conn, func(tx pgx.Tx) error {
			for _, stmt := range m.Statements {
				if _, err := tx.Exec(ctx, stmt); err != nil {
					return err
				}
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_version (version, name) VALUES ($1, $2)`, m.Version, m.Name)
			return err
		})
		if err != nil {
			return applied, fmt.Errorf("platform/db: migration %d %s: %w", m.Version, m.Name, err)
		}
		logger.Info("migration applied", slog.Int("version", m.Version), slog.String("name", m.Name))
		applied = append(applied, m.Version)
	}
	return applied, nil
}

// Pending lists migrations newer than current.
func Pending(current int) []Migration {
	var out []Migration
	for _, m := range Migrations() {
		if m.Version > current {
			out = append(out, m)
		}
	}
	return out
}

var ledgerSchema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
	id              BIGSERIAL PRIMARY KEY,
	number          TEXT NOT NULL UNIQUE,
	name            TEXT NOT NULL,
	type            TEXT NOT NULL CHECK (type IN ('CURRENT_ASSET','NON_CURRENT_ASSET','CURRENT_LIABILITY',
		'NON_CURRENT_LIABILITY','EQUITY','REVENUE','EXPENSE')),
	sub_category    TEXT NOT NULL DEFAULT '',
	opening_balance NUMERIC(18,2) NOT NULL DEFAULT 0,
	is_active       BOOLEAN NOT NULL DEFAULT TRUE,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE TABLE IF NOT EXISTS periods (
	id         BIGSERIAL PRIMARY KEY,
	code       TEXT NOT NULL UNIQUE,
	start_date DATE NOT NULL,
	end_date   DATE NOT NULL,
	status     TEXT NOT NULL DEFAULT 'OPEN' CHECK (status IN ('OPEN','CLOSED','LOCKED')),
	closed_at  TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CHECK (start_date <= end_date)
)`,
	`CREATE TABLE IF NOT EXISTS journal_entries (
	id              BIGSERIAL PRIMARY KEY,
	reference       TEXT NOT NULL,
	kind            TEXT NOT NULL,
	document_number TEXT NOT NULL,
	date            DATE NOT NULL,
	description     TEXT NOT NULL DEFAULT '',
	source_module   TEXT NOT NULL,
	source_id       UUID NOT NULL,
	reversal_of     BIGINT REFERENCES journal_entries(id),
	total_debit     NUMERIC(18,2) NOT NULL,
	total_credit    NUMERIC(18,2) NOT NULL,
	posted_by       BIGINT,
	posted_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	status          TEXT NOT NULL DEFAULT 'PENDING' CHECK (status IN ('PENDING','POSTED')),
	CONSTRAINT uq_journal_entries_reference UNIQUE (reference),
	CONSTRAINT uq_journal_entries_reversal_of UNIQUE (reversal_of),
	CHECK (ABS(total_debit - total_credit) <= 0.01)
)`,
	`CREATE INDEX IF NOT EXISTS idx_journal_entries_date ON journal_entries (date) WHERE status = 'POSTED'`,
	`CREATE TABLE IF NOT EXISTS journal_lines (
	id         BIGSERIAL PRIMARY KEY,
	je_id      BIGINT NOT NULL REFERENCES journal_entries(id),
	line_no    INTEGER NOT NULL,
	account_id BIGINT NOT NULL REFERENCES accounts(id),
	debit      NUMERIC(18,2) NOT NULL DEFAULT 0 CHECK (debit >= 0),
	credit     NUMERIC(18,2) NOT NULL DEFAULT 0 CHECK (credit >= 0),
	memo       TEXT NOT NULL DEFAULT '',
	UNIQUE (je_id, line_no),
	CHECK ((debit = 0) <> (credit = 0))
)`,
	`CREATE INDEX IF NOT EXISTS idx_journal_lines_account ON journal_lines (account_id)`,
	`CREATE TABLE IF NOT EXISTS source_links (
	module TEXT NOT NULL,
	ref_id UUID NOT NULL,
	je_id  BIGINT NOT NULL REFERENCES journal_entries(id),
	CONSTRAINT uq_source_links UNIQUE (module, ref_id)
)`,
	`CREATE TABLE IF NOT EXISTS account_mappings (
	module     TEXT NOT NULL,
	key        TEXT NOT NULL,
	account_id BIGINT NOT NULL REFERENCES accounts(id),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (module, key)
)`,
}

// Posted rows are immutable. A PENDING header may still be confirmed.
var appendOnlySchema = []string{
	`CREATE OR REPLACE FUNCTION reject_posted_entry_change() RETURNS trigger AS $$
BEGIN
	IF OLD.status = 'POSTED' THEN
		RAISE EXCEPTION 'journal entry % is posted and cannot be changed', OLD.reference
			USING ERRCODE = 'P0001';
	END IF;
	IF TG_OP = 'DELETE' THEN
		RETURN OLD;
	END IF;
	RETURN NEW;
END;
$$ LANGUAGE plpgsql`,
	`DROP TRIGGER IF EXISTS trg_journal_entries_append_only ON journal_entries`,
	`CREATE TRIGGER trg_journal_entries_append_only BEFORE UPDATE OR DELETE ON journal_entries
	FOR EACH ROW EXECUTE FUNCTION reject_posted_entry_change()`,
	`CREATE OR REPLACE FUNCTION reject_posted_line_change() RETURNS trigger AS $$
BEGIN
	IF EXISTS (SELECT 1 FROM journal_entries WHERE id = OLD.je_id AND status = 'POSTED') THEN
		RAISE EXCEPTION 'lines of journal entry % are posted and cannot be changed', OLD.je_id
			USING ERRCODE = 'P0001';
	END IF;
	IF TG_OP = 'DELETE' THEN
		RETURN OLD;
	END IF;
	RETURN NEW;
END;
$$ LANGUAGE plpgsql`,
	`DROP TRIGGER IF EXISTS trg_journal_lines_append_only ON journal_lines`,
	`CREATE TRIGGER trg_journal_lines_append_only BEFORE UPDATE OR DELETE ON journal_lines
	FOR EACH ROW EXECUTE FUNCTION reject_posted_line_change()`,
}

var inventorySchema = []string{
	`CREATE TABLE IF NOT EXISTS inventory_items (
	id         BIGINT PRIMARY KEY,
	sku        TEXT NOT NULL,
	name       TEXT NOT NULL,
	qty        NUMERIC(18,4) NOT NULL DEFAULT 0,
	avg_cost   NUMERIC(18,6) NOT NULL DEFAULT 0,
	last_cost  NUMERIC(18,6) NOT NULL DEFAULT 0,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE TABLE IF NOT EXISTS inventory_movements (
	id             BIGSERIAL PRIMARY KEY,
	item_id        BIGINT NOT NULL REFERENCES inventory_items(id),
	movement_type  TEXT NOT NULL CHECK (movement_type IN ('IN','OUT','ADJ_IN','ADJ_OUT','RETURN_IN','RETURN_OUT')),
	qty            NUMERIC(18,4) NOT NULL CHECK (qty > 0),
	unit_cost      NUMERIC(18,6) NOT NULL DEFAULT 0,
	reference_id   TEXT NOT NULL,
	reference_type TEXT NOT NULL,
	note           TEXT NOT NULL DEFAULT '',
	applied_cost   NUMERIC(18,6) NOT NULL DEFAULT 0,
	qty_after      NUMERIC(18,4) NOT NULL DEFAULT 0,
	cost_after     NUMERIC(18,6) NOT NULL DEFAULT 0,
	posted_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	created_by     BIGINT,
	CONSTRAINT uq_inventory_movements_key UNIQUE (item_id, movement_type, reference_id, reference_type)
)`,
}

var receivablesSchema = []string{
	`CREATE TABLE IF NOT EXISTS customers (
	id             BIGSERIAL PRIMARY KEY,
	name           TEXT NOT NULL,
	customer_group TEXT
)`,
	`CREATE TABLE IF NOT EXISTS ar_invoices (
	id          BIGSERIAL PRIMARY KEY,
	number      TEXT NOT NULL UNIQUE,
	customer_id BIGINT NOT NULL REFERENCES customers(id),
	issue_date  DATE NOT NULL,
	due_date    DATE NOT NULL,
	total       NUMERIC(18,2) NOT NULL CHECK (total >= 0),
	status      TEXT NOT NULL DEFAULT 'DRAFT' CHECK (status IN ('DRAFT','POSTED','PAID','VOID')),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE TABLE IF NOT EXISTS ar_payments (
	id         BIGSERIAL PRIMARY KEY,
	invoice_id BIGINT NOT NULL REFERENCES ar_invoices(id),
	number     TEXT NOT NULL,
	amount     NUMERIC(18,2) NOT NULL CHECK (amount > 0),
	paid_at    DATE NOT NULL,
	method     TEXT,
	CONSTRAINT uq_ar_payments_number UNIQUE (number)
)`,
	`CREATE TABLE IF NOT EXISTS ar_credit_notes (
	id         BIGSERIAL PRIMARY KEY,
	invoice_id BIGINT NOT NULL REFERENCES ar_invoices(id),
	amount     NUMERIC(18,2) NOT NULL CHECK (amount > 0),
	issued_at  DATE NOT NULL
)`,
}

var auditSchema = []string{
	`CREATE TABLE IF NOT EXISTS audit_log (
	id          BIGSERIAL PRIMARY KEY,
	actor_id    BIGINT,
	action      TEXT NOT NULL,
	entity      TEXT NOT NULL,
	entity_id   TEXT NOT NULL,
	meta        JSONB NOT NULL DEFAULT '{}'::jsonb,
	occurred_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_log_entity ON audit_log (entity, entity_id)`,
}
