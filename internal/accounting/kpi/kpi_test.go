package kpi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/periods"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/reports"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fixture(t *testing.T) (*accounts.Chart, []journals.JournalEntry) {
	t.Helper()
	chart, err := accounts.NewChart([]accounts.Account{
		{ID: 1, Number: "1100", Name: "Bank", Type: accounts.AccountTypeCurrentAsset, SubCategory: accounts.SubBankCash, OpeningBalance: 50000},
		{ID: 2, Number: "1200", Name: "Receivables", Type: accounts.AccountTypeCurrentAsset, SubCategory: accounts.SubAccountsReceivable},
		{ID: 3, Number: "1300", Name: "Inventory", Type: accounts.AccountTypeCurrentAsset, SubCategory: accounts.SubInventories, OpeningBalance: 80000},
		{ID: 4, Number: "2100", Name: "Payables", Type: accounts.AccountTypeCurrentLiability, SubCategory: accounts.SubAccountsPayable},
		{ID: 5, Number: "3000", Name: "Capital", Type: accounts.AccountTypeEquity, SubCategory: accounts.SubShareCapital, OpeningBalance: 130000},
		{ID: 6, Number: "4000", Name: "Sales", Type: accounts.AccountTypeRevenue, SubCategory: accounts.SubSales},
		{ID: 7, Number: "5000", Name: "COGS", Type: accounts.AccountTypeExpense, SubCategory: accounts.SubCostOfSales},
		{ID: 8, Number: "6000", Name: "Rent", Type: accounts.AccountTypeExpense, SubCategory: accounts.SubOperatingExpenses},
	})
	require.NoError(t, err)
	post := func(id int64, date time.Time, debit, credit int64, amount float64) journals.JournalEntry {
		return journals.JournalEntry{ID: id, Date: date, Status: journals.JournalStatusPosted, Lines: []journals.JournalLine{
			{JournalID: id, LineNo: 1, AccountID: debit, Debit: amount},
			{JournalID: id, LineNo: 2, AccountID: credit, Credit: amount},
		}}
	}
	entries := []journals.JournalEntry{
		post(1, day(2024, time.March, 4), 2, 6, 100000),
		post(2, day(2024, time.March, 4), 7, 3, 60000),
		post(3, day(2024, time.March, 12), 8, 4, 20000),
	}
	return chart, entries
}

func TestComputeRatios(t *testing.T) {
	chart, entries := fixture(t)
	march := periods.Month(day(2024, time.March, 1))
	is := reports.GenerateIncomeStatement(chart, entries, march)
	bs := reports.GenerateBalanceSheet(chart, entries, march.EndDate)

	set := Compute(is, bs, CompanyService)
	require.Equal(t, 0.4, set.GrossMargin)
	require.Equal(t, 0.2, set.NetProfitMargin)
	require.Equal(t, 8.5, set.CurrentRatio)
	require.Equal(t, 7.5, set.QuickRatio)
	require.Equal(t, 150000.0, set.WorkingCapital)
	require.InDelta(t, 0.133333, set.DebtToEquity, 1e-6)
	require.InDelta(t, 0.117647, set.DebtRatio, 1e-6)
	require.InDelta(t, 0.117647, set.ROA, 1e-6)
	require.InDelta(t, 0.133333, set.ROE, 1e-6)
	require.InDelta(t, 0.588235, set.AssetTurnover, 1e-6)
	require.Nil(t, set.InventoryTurnover)
	require.Nil(t, set.ReceivableDays)
}

func TestComputeStockRatiosForTrading(t *testing.T) {
	chart, entries := fixture(t)
	march := periods.Month(day(2024, time.March, 1))
	set := Compute(
		reports.GenerateIncomeStatement(chart, entries, march),
		reports.GenerateBalanceSheet(chart, entries, march.EndDate),
		CompanyTrading)
	require.NotNil(t, set.InventoryTurnover)
	require.Equal(t, 3.0, *set.InventoryTurnover)
	require.Equal(t, 31.0, *set.ReceivableDays)
}

func TestComputeZeroDenominators(t *testing.T) {
	empty := accounts.MustChart(nil)
	period := periods.Month(day(2024, time.January, 1))
	set := Compute(
		reports.GenerateIncomeStatement(empty, nil, period),
		reports.GenerateBalanceSheet(empty, nil, period.EndDate),
		CompanyManufacturing)

	for _, v := range []float64{
		set.GrossMargin, set.NetProfitMargin, set.CurrentRatio, set.QuickRatio, set.WorkingCapital,
		set.DebtToEquity, set.DebtRatio, set.ROA, set.ROE, set.AssetTurnover,
		*set.InventoryTurnover, *set.ReceivableDays,
	} {
		require.False(t, math.IsNaN(v) || math.IsInf(v, 0))
		require.Zero(t, v)
	}
}

func TestCalculateEnhancedKPIs(t *testing.T) {
	chart, entries := fixture(t)
	march := periods.Month(day(2024, time.March, 1))

	cmp := CalculateEnhancedKPIs(chart, entries, march, march.Prior(), CompanyTrading)
	require.Equal(t, 0.4, cmp.Current.GrossMargin)
	require.Zero(t, cmp.Prior.GrossMargin)
	require.Zero(t, cmp.Prior.CurrentRatio, "no liabilities in February")
	require.Equal(t, 130000.0, cmp.Prior.WorkingCapital)
	require.Equal(t, day(2024, time.February, 29), cmp.Prior.To)

	byName := map[string]Delta{}
	for _, d := range cmp.Deltas {
		byName[d.Metric] = d
	}
	require.Len(t, cmp.Deltas, len(metrics))
	require.Equal(t, 20000.0, byName["working_capital"].Change)
	require.Equal(t, 15.38, byName["working_capital"].ChangePct)
	require.Equal(t, 8.5, byName["current_ratio"].Change)
	require.Zero(t, byName["current_ratio"].ChangePct)
	require.Equal(t, "gross_margin", cmp.Deltas[0].Metric)
}

func TestCompareSkipsMissingMetrics(t *testing.T) {
	turnover := 2.0
	deltas := Compare(KPISet{GrossMargin: 0.3, InventoryTurnover: &turnover}, KPISet{GrossMargin: 0.5})
	for _, d := range deltas {
		require.NotEqual(t, "inventory_turnover", d.Metric)
	}
	require.Equal(t, -0.2, deltas[0].Change)
	require.Equal(t, -40.0, deltas[0].ChangePct)
}

func TestParseCompanyType(t *testing.T) {
	ct, err := ParseCompanyType(" trading ")
	require.NoError(t, err)
	require.Equal(t, CompanyTrading, ct)

	ct, err = ParseCompanyType("")
	require.NoError(t, err)
	require.Equal(t, CompanyService, ct)

	_, err = ParseCompanyType("bakery")
	require.Error(t, err)
}

type stubSnapshot struct {
	chart   *accounts.Chart
	entries []journals.JournalEntry
	filter  journals.Filter
}

func (s *stubSnapshot) Snapshot(_ context.Context, f journals.Filter) (*accounts.Chart, []journals.JournalEntry, error) {
	s.filter = f
	return s.chart, s.entries, nil
}

func TestServiceDefaultsPriorPeriod(t *testing.T) {
	chart, entries := fixture(t)
	src := &stubSnapshot{chart: chart, entries: entries}
	svc := NewService(src, nil)

	cmp, err := svc.Calculate(context.Background(), periods.Month(day(2024, time.March, 1)), nil, CompanyService)
	require.NoError(t, err)
	require.Equal(t, day(2024, time.March, 31), src.filter.To)
	require.True(t, src.filter.From.IsZero())
	require.Equal(t, day(2024, time.February, 1), cmp.Prior.From)
	require.Equal(t, 0.2, cmp.Current.NetProfitMargin)
}

func TestHandlerKPI(t *testing.T) {
	chart, entries := fixture(t)
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), NewService(&stubSnapshot{chart: chart, entries: entries}, nil))
	r := chi.NewRouter()
	h.MountRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/kpi?from=2024-03-01&to=2024-03-31&company_type=trading", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body KPIComparison
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, CompanyTrading, body.CompanyType)
	require.Equal(t, 0.4, body.Current.GrossMargin)
	require.NotNil(t, body.Current.InventoryTurnover)

	for _, target := range []string{"/kpi?company_type=bakery", "/kpi?prior_from=2024-01-01"} {
		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		require.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}
