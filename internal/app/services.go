package app

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/kpi"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/periods"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/reports"
	"github.com/odyssey-erp/odyssey-ledger/internal/ar"
	"github.com/odyssey-erp/odyssey-ledger/internal/integration"
	"github.com/odyssey-erp/odyssey-ledger/internal/inventory"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-ledger/internal/shared"
)

// Services is the wired domain layer shared by the API, worker and CLI.
type Services struct {
	Cache     *cache.Versioned
	Accounts  *accounts.Service
	Mappings  mappings.Repository
	Journals  *journals.Service
	Reports   *reports.Service
	KPI       *kpi.Service
	Hooks     *integration.Hooks
	Inventory *inventory.Service
	AR        *ar.Service
}

// NewServices wires repositories and services. A nil redis client disables
// report caching.
func NewServices(cfg *Config, pool *pgxpool.Pool, rdb *redis.Client, logger *slog.Logger) *Services {
	retry := cfg.RetryPolicy()
	audit := shared.NewAuditLogger(pool)
	versioned := cache.NewVersioned(rdb, cfg.ReportCacheTTL)

	accountsService := accounts.NewService(accounts.NewRepository(pool), logger)
	journalsService := journals.NewService(journals.NewRepository(pool), journals.Options{
		Audit:       audit,
		Guard:       periods.NewGuard(periods.NewRepository(pool)),
		Invalidator: versioned,
		Retry:       retry,
		Logger:      logger.With(slog.String("module", "journals")),
	})
	reportsService := reports.NewService(accountsService, journalsService, versioned, logger.With(slog.String("module", "reports")))
	mappingRepo := mappings.NewRepository(pool)
	hooks := integration.NewHooks(journalsService, mappingRepo, logger.With(slog.String("module", "integration")))

	inventoryService := inventory.NewService(inventory.NewRepository(pool), audit, inventory.ServiceConfig{
		AllowNegativeStock: cfg.InventoryAllowNegativeStock,
		Retry:              retry,
	}, hooks, logger.With(slog.String("module", "inventory")))
	arService := ar.NewService(ar.NewRepository(pool), hooks, retry, logger.With(slog.String("module", "ar")))

	return &Services{
		Cache:     versioned,
		Accounts:  accountsService,
		Mappings:  mappingRepo,
		Journals:  journalsService,
		Reports:   reportsService,
		KPI:       kpi.NewService(reportsService, logger.With(slog.String("module", "kpi"))),
		Hooks:     hooks,
		Inventory: inventoryService,
		AR:        arService,
	}
}
