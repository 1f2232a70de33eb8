package kpi

import (
	"context"
	"log/slog"
	"time"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/periods"
)

// Snapshotter loads the chart and posted ledger; *reports.Service satisfies it.
type Snapshotter interface {
	Snapshot(ctx context.Context, f journals.Filter) (*accounts.Chart, []journals.JournalEntry, error)
}

type Service struct {
	source Snapshotter
	logger *slog.Logger
}

func NewService(source Snapshotter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{source: source, logger: logger}
}

// Calculate compares current against prior, or against current.Prior() when
// prior is nil.
func (s *Service) Calculate(ctx context.Context, current periods.Period, prior *periods.Period, companyType CompanyType) (KPIComparison, error) {
	previous := current.Prior()
	if prior != nil {
		previous = *prior
	}
	end := latest(current.EndDate, previous.EndDate)
	chart, entries, err := s.source.Snapshot(ctx, journals.Filter{To: end})
	if err != nil {
		return KPIComparison{}, err
	}
	result := CalculateEnhancedKPIs(chart, entries, current, previous, companyType)
	s.logger.Debug("kpi computed",
		slog.String("period", current.Code),
		slog.String("prior", previous.Code),
		slog.Int("entries", len(entries)))
	return result, nil
}

func latest(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
