package reports

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/periods"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/cache"
)

type stubCharts struct{ chart *accounts.Chart }

func (s stubCharts) Chart(context.Context) (*accounts.Chart, error) { return s.chart, nil }

type stubLedger struct {
	entries []journals.JournalEntry
	err     error
	calls   atomic.Int32
}

func (s *stubLedger) ListPosted(_ context.Context, f journals.Filter) ([]journals.JournalEntry, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	var out []journals.JournalEntry
	for _, e := range s.entries {
		if !f.From.IsZero() && e.Date.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && e.Date.After(f.To) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func newVersionedCache(t *testing.T) *cache.Versioned {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewVersioned(client, time.Minute)
}

func TestServiceCachesUntilLedgerVersionChanges(t *testing.T) {
	ctx := context.Background()
	ledger := &stubLedger{entries: marchLedger()}
	versioned := newVersionedCache(t)
	svc := NewService(stubCharts{chart: testChart(t)}, ledger, versioned, nil)
	march := periods.Month(day(2024, time.March, 1))

	first, err := svc.IncomeStatement(ctx, march)
	require.NoError(t, err)
	require.Equal(t, 20000.0, first.NetIncome)
	require.EqualValues(t, 1, ledger.calls.Load())

	second, err := svc.IncomeStatement(ctx, march)
	require.NoError(t, err)
	require.Equal(t, first.NetIncome, second.NetIncome)
	require.Equal(t, first.GrossProfit, second.GrossProfit)
	require.EqualValues(t, 1, ledger.calls.Load())

	ledger.entries = append(ledger.entries, entry(day(2024, time.March, 30), dr(accRent, 500), cr(accBank, 500)))
	require.NoError(t, versioned.Bump(ctx))

	third, err := svc.IncomeStatement(ctx, march)
	require.NoError(t, err)
	require.Equal(t, 19500.0, third.NetIncome)
	require.EqualValues(t, 2, ledger.calls.Load())
}

func TestServiceWithoutCache(t *testing.T) {
	ctx := context.Background()
	ledger := &stubLedger{entries: marchLedger()}
	svc := NewService(stubCharts{chart: testChart(t)}, ledger, nil, nil)

	bs, err := svc.BalanceSheet(ctx, day(2024, time.March, 31))
	require.NoError(t, err)
	require.True(t, bs.Balanced)

	tb, err := svc.TrialBalance(ctx, day(2024, time.March, 31))
	require.NoError(t, err)
	require.True(t, tb.Balanced)
	require.EqualValues(t, 2, ledger.calls.Load())
}

func TestServiceStatementsShareSnapshot(t *testing.T) {
	ledger := &stubLedger{entries: marchLedger()}
	svc := NewService(stubCharts{chart: testChart(t)}, ledger, nil, nil)

	is, bs, err := svc.Statements(context.Background(), periods.Month(day(2024, time.March, 1)))
	require.NoError(t, err)
	require.EqualValues(t, 1, ledger.calls.Load())
	require.Equal(t, 20000.0, is.NetIncome)
	require.Equal(t, is.NetIncome, bs.CurrentEarnings)
}

func TestServicePropagatesLedgerFailure(t *testing.T) {
	ledger := &stubLedger{err: shared.Infra("journals: list posted", errors.New("connection refused"))}
	svc := NewService(stubCharts{chart: testChart(t)}, ledger, newVersionedCache(t), nil)

	_, err := svc.BalanceSheet(context.Background(), day(2024, time.March, 31))
	require.ErrorIs(t, err, shared.ErrInfrastructure)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(t *testing.T, ledger *stubLedger) http.Handler {
	t.Helper()
	svc := NewService(stubCharts{chart: testChart(t)}, ledger, nil, nil)
	h := NewHandler(testLogger(), svc)
	h.now = func() time.Time { return day(2024, time.March, 31) }
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func TestHandlerBalanceSheet(t *testing.T) {
	router := newTestRouter(t, &stubLedger{entries: marchLedger()})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/balance-sheet?as_of=2024-03-31", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		TotalAssets float64 `json:"total_assets"`
		Difference  float64 `json:"difference"`
		Balanced    bool    `json:"balanced"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 180000.0, body.TotalAssets)
	require.Zero(t, body.Difference)
	require.True(t, body.Balanced)
}

func TestHandlerIncomeStatementDefaultsToCurrentMonth(t *testing.T) {
	router := newTestRouter(t, &stubLedger{entries: marchLedger()})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/income-statement", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body IncomeStatement
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 40000.0, body.GrossProfit)
	require.True(t, body.From.Equal(day(2024, time.March, 1)))
}

func TestHandlerRejectsBadDates(t *testing.T) {
	router := newTestRouter(t, &stubLedger{})
	for _, target := range []string{
		"/balance-sheet?as_of=31-03-2024",
		"/income-statement?from=2024-03-31&to=2024-03-01",
		"/income-statement?from=2024-03-01",
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		require.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestHandlerMapsInfrastructureFailure(t *testing.T) {
	ledger := &stubLedger{err: shared.Infra("journals: list posted", errors.New("connection refused"))}
	router := newTestRouter(t, ledger)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trial-balance", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NotContains(t, rec.Body.String(), "connection refused")
}
