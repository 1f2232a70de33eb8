package reports

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/periods"
)

// LedgerReader returns posted entries only.
type LedgerReader interface {
	ListPosted(ctx context.Context, f journals.Filter) ([]journals.JournalEntry, error)
}

// ChartLoader supplies the chart of accounts handle.
type ChartLoader interface {
	Chart(ctx context.Context) (*accounts.Chart, error)
}

// Cache stores rendered reports keyed by ledger version.
type Cache interface {
	BuildKey(ctx context.Context, parts ...string) (string, error)
	FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error
}

// Service builds statements from a fresh snapshot of chart and ledger.
type Service struct {
	charts ChartLoader
	ledger LedgerReader
	cache  Cache
	logger *slog.Logger
}

func NewService(charts ChartLoader, ledger LedgerReader, cache Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{charts: charts, ledger: ledger, cache: cache, logger: logger}
}

// Snapshot loads the chart and the posted entries matching f concurrently.
func (s *Service) Snapshot(ctx context.Context, f journals.Filter) (*accounts.Chart, []journals.JournalEntry, error) {
	var chart *accounts.Chart
	var entries []journals.JournalEntry
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		chart, err = s.charts.Chart(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		entries, err = s.ledger.ListPosted(gctx, f)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return chart, entries, nil
}

// IncomeStatement returns the statement for period.
func (s *Service) IncomeStatement(ctx context.Context, period periods.Period) (IncomeStatement, error) {
	return cached(ctx, s, func(ctx context.Context) (IncomeStatement, error) {
		chart, entries, err := s.Snapshot(ctx, journals.Filter{From: period.StartDate, To: period.EndDate})
		if err != nil {
			return IncomeStatement{}, err
		}
		return GenerateIncomeStatement(chart, entries, period), nil
	}, "reports", "income", dateKey(period.StartDate), dateKey(period.EndDate))
}

// BalanceSheet returns the cumulative position at asOf.
func (s *Service) BalanceSheet(ctx context.Context, asOf time.Time) (BalanceSheet, error) {
	return cached(ctx, s, func(ctx context.Context) (BalanceSheet, error) {
		chart, entries, err := s.Snapshot(ctx, journals.Filter{To: asOf})
		if err != nil {
			return BalanceSheet{}, err
		}
		bs := GenerateBalanceSheet(chart, entries, asOf)
		if !bs.Balanced {
			s.logger.Warn("balance sheet out of balance",
				slog.String("as_of", dateKey(asOf)),
				slog.Float64("difference", bs.Difference))
		}
		return bs, nil
	}, "reports", "balance", dateKey(asOf))
}

// TrialBalance returns all account balances at asOf.
func (s *Service) TrialBalance(ctx context.Context, asOf time.Time) (TrialBalance, error) {
	return cached(ctx, s, func(ctx context.Context) (TrialBalance, error) {
		chart, entries, err := s.Snapshot(ctx, journals.Filter{To: asOf})
		if err != nil {
			return TrialBalance{}, err
		}
		return BuildTrialBalance(chart, entries, asOf), nil
	}, "reports", "trial", dateKey(asOf))
}

// Statements returns the income statement for period and the balance sheet at
// its end date, built from one snapshot.
func (s *Service) Statements(ctx context.Context, period periods.Period) (IncomeStatement, BalanceSheet, error) {
	chart, entries, err := s.Snapshot(ctx, journals.Filter{To: period.EndDate})
	if err != nil {
		return IncomeStatement{}, BalanceSheet{}, err
	}
	return GenerateIncomeStatement(chart, entries, period), GenerateBalanceSheet(chart, entries, period.EndDate), nil
}

func cached[T any](ctx context.Context, s *Service, build func(context.Context) (T, error), parts ...string) (T, error) {
	if s.cache == nil {
		return build(ctx)
	}
	key, err := s.cache.BuildKey(ctx, parts...)
	if err != nil {
		s.logger.Warn("report cache unavailable", slog.Any("error", err))
		return build(ctx)
	}
	var out T
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		return build(ctx)
	})
	return out, err
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
