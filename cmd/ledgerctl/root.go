package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/odyssey-erp/odyssey-ledger/internal/app"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
)

var flagEnvFile string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Operate the Odyssey ledger from the command line",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&flagEnvFile, "env-file", ".env", "dotenv file read before the environment")
	root.AddCommand(newMigrateCmd(), newAccountsCmd(), newMappingsCmd(), newReportsCmd(), newJobsCmd())
	return root
}

// runtime holds the connections a command opened; close releases them.
type runtime struct {
	cfg      *app.Config
	logger   *slog.Logger
	pool     *pgxpool.Pool
	services *app.Services
	close    func()
}

func openRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := app.LoadConfig(flagEnvFile)
	if err != nil {
		return nil, err
	}
	logger := app.NewLogger(cfg)
	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	rt := &runtime{cfg: cfg, logger: logger, pool: pool, close: pool.Close}
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Debug("redis unavailable, running without report cache", slog.Any("error", err))
	} else {
		rt.close = func() {
			_ = redisClient.Close()
			pool.Close()
		}
	}
	rt.services = app.NewServices(cfg, pool, redisClient, logger)
	return rt, nil
}

func loadConfig() (*app.Config, error) {
	return app.LoadConfig(flagEnvFile)
}
