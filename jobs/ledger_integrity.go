package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/reports"
	jobmetrics "github.com/odyssey-erp/odyssey-ledger/internal/jobs"
)

// LedgerReports is the slice of the reports service the integrity check reads.
type LedgerReports interface {
	TrialBalance(ctx context.Context, asOf time.Time) (reports.TrialBalance, error)
	BalanceSheet(ctx context.Context, asOf time.Time) (reports.BalanceSheet, error)
}

// IntegrityReport summarises one integrity run.
type IntegrityReport struct {
	AsOf                 time.Time
	TrialBalanceGap      float64
	BalanceSheetGap      float64
	UnclassifiedAccounts int
}

// Anomalies lists the checks that failed.
func (r IntegrityReport) Anomalies() []string {
	var out []string
	if r.TrialBalanceGap != 0 {
		out = append(out, "trial_balance")
	}
	if r.BalanceSheetGap != 0 {
		out = append(out, "balance_sheet")
	}
	if r.UnclassifiedAccounts > 0 {
		out = append(out, "unclassified_accounts")
	}
	return out
}

// LedgerIntegrityJob verifies that debits equal credits and that the
// balance sheet closes.
type LedgerIntegrityJob struct {
	Reports LedgerReports
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

func NewLedgerIntegrityJob(reports LedgerReports, logger *slog.Logger, metrics *jobmetrics.Metrics) *LedgerIntegrityJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &LedgerIntegrityJob{Reports: reports, Logger: logger, Metrics: metrics, clock: func() time.Time { return time.Now().UTC() }}
}

// Handle implements asynq.HandlerFunc.
func (j *LedgerIntegrityJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Reports == nil {
		return errors.New("ledger integrity: handler not configured")
	}
	var payload LedgerIntegrityPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("ledger integrity: %w: %w", err, asynq.SkipRetry)
		}
	}
	tracker := j.Metrics.Track(TaskLedgerIntegrity)
	report, err := j.Check(ctx, payload.AsOf)
	if err != nil {
		j.Logger.Error("ledger integrity check failed", slog.Any("error", err))
		return tracker.End(err)
	}
	for _, check := range report.Anomalies() {
		j.Metrics.AddAnomalies(check, 1)
	}
	if anomalies := report.Anomalies(); len(anomalies) > 0 {
		j.Logger.Warn("ledger integrity anomalies",
			slog.Time("as_of", report.AsOf),
			slog.Any("checks", anomalies),
			slog.Float64("trial_balance_gap", report.TrialBalanceGap),
			slog.Float64("balance_sheet_gap", report.BalanceSheetGap),
			slog.Int("unclassified_accounts", report.UnclassifiedAccounts))
	} else {
		j.Logger.Info("ledger integrity ok", slog.Time("as_of", report.AsOf))
	}
	return tracker.End(nil)
}

// Check builds the trial balance and balance sheet at asOf.
func (j *LedgerIntegrityJob) Check(ctx context.Context, asOf time.Time) (IntegrityReport, error) {
	if asOf.IsZero() {
		asOf = j.clock()
	}
	tb, err := j.Reports.TrialBalance(ctx, asOf)
	if err != nil {
		return IntegrityReport{}, err
	}
	bs, err := j.Reports.BalanceSheet(ctx, asOf)
	if err != nil {
		return IntegrityReport{}, err
	}
	report := IntegrityReport{AsOf: asOf, BalanceSheetGap: bs.Difference, UnclassifiedAccounts: len(bs.Unclassified)}
	if !tb.Balanced {
		report.TrialBalanceGap = tb.TotalDebit - tb.TotalCredit
		if report.TrialBalanceGap == 0 {
			report.TrialBalanceGap = tb.TotalClosing
		}
	}
	if bs.Balanced {
		report.BalanceSheetGap = 0
	}
	return report, nil
}
