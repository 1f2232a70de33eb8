package reports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/periods"
)

const (
	accBank       = 1
	accAR         = 2
	accInventory  = 3
	accEquipment  = 4
	accAP         = 5
	accLoan       = 6
	accCapital    = 7
	accSales      = 8
	accCOGS       = 9
	accRent       = 10
	accSuspense   = 11
	accOtherInc   = 12
	accNotInChart = 999
)

func testChart(t *testing.T) *accounts.Chart {
	t.Helper()
	chart, err := accounts.NewChart([]accounts.Account{
		{ID: accBank, Number: "1100", Name: "Bank", Type: accounts.AccountTypeCurrentAsset, SubCategory: accounts.SubBankCash, OpeningBalance: 50000},
		{ID: accAR, Number: "1200", Name: "Trade Debtors", Type: accounts.AccountTypeCurrentAsset, SubCategory: accounts.SubAccountsReceivable},
		{ID: accInventory, Number: "1300", Name: "Stock", Type: accounts.AccountTypeCurrentAsset, SubCategory: accounts.SubInventories, OpeningBalance: 80000},
		// number prefix suggests a current asset; the type says otherwise
		{ID: accEquipment, Number: "1500", Name: "Equipment", Type: accounts.AccountTypeNonCurrentAsset, SubCategory: accounts.SubPropertyPlantEquipment},
		{ID: accAP, Number: "2100", Name: "Trade Creditors", Type: accounts.AccountTypeCurrentLiability, SubCategory: accounts.SubAccountsPayable},
		{ID: accLoan, Number: "2500", Name: "Bank Loan", Type: accounts.AccountTypeNonCurrentLiability, SubCategory: accounts.SubLongTermBorrowings},
		{ID: accCapital, Number: "3000", Name: "Share Capital", Type: accounts.AccountTypeEquity, SubCategory: accounts.SubShareCapital, OpeningBalance: 130000},
		{ID: accSales, Number: "4000", Name: "Sales", Type: accounts.AccountTypeRevenue, SubCategory: accounts.SubSales},
		{ID: accCOGS, Number: "5000", Name: "Cost of Goods Sold", Type: accounts.AccountTypeExpense, SubCategory: accounts.SubCostOfSales},
		{ID: accRent, Number: "6100", Name: "Rent", Type: accounts.AccountTypeExpense, SubCategory: accounts.SubOperatingExpenses},
		{ID: accSuspense, Number: "1900", Name: "Suspense", Type: accounts.AccountTypeCurrentAsset, SubCategory: "custom-bucket"},
		{ID: accOtherInc, Number: "4900", Name: "Sundry Income", Type: accounts.AccountTypeRevenue, SubCategory: accounts.SubOtherIncome},
	})
	require.NoError(t, err)
	return chart
}

var seq int64

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func entry(date time.Time, lines ...journals.JournalLine) journals.JournalEntry {
	seq++
	for i := range lines {
		lines[i].JournalID = seq
		lines[i].LineNo = i + 1
	}
	return journals.JournalEntry{ID: seq, Reference: "JE-" + date.Format("0102"), Date: date, Status: journals.JournalStatusPosted, Lines: lines}
}

func dr(account int64, amount float64) journals.JournalLine {
	return journals.JournalLine{AccountID: account, Debit: amount}
}

func cr(account int64, amount float64) journals.JournalLine {
	return journals.JournalLine{AccountID: account, Credit: amount}
}

// march ledger: revenue 100000, cost of sales 60000, operating expenses 20000.
func marchLedger() []journals.JournalEntry {
	return []journals.JournalEntry{
		entry(day(2024, time.February, 20), dr(accEquipment, 30000), cr(accLoan, 30000)),
		entry(day(2024, time.March, 3), dr(accAR, 100000), cr(accSales, 100000)),
		entry(day(2024, time.March, 3), dr(accCOGS, 60000), cr(accInventory, 60000)),
		entry(day(2024, time.March, 10), dr(accRent, 20000), cr(accBank, 20000)),
		entry(day(2024, time.March, 31), dr(accBank, 40000), cr(accAR, 40000)),
		entry(day(2024, time.April, 2), dr(accRent, 999), cr(accBank, 999)),
	}
}

func TestGenerateIncomeStatement(t *testing.T) {
	chart := testChart(t)
	march := periods.Month(day(2024, time.March, 1))
	is := GenerateIncomeStatement(chart, marchLedger(), march)

	require.Equal(t, 100000.0, is.TotalRevenue)
	require.Equal(t, 60000.0, is.TotalCostOfSales)
	require.Equal(t, 40000.0, is.GrossProfit)
	require.Equal(t, 20000.0, is.TotalOperatingExpenses)
	require.Equal(t, 20000.0, is.NetIncome)

	require.Len(t, is.Revenue.Items(), 1)
	require.Equal(t, "Sales", is.Revenue.Groups[0].Label)
	require.Equal(t, "Cost of Sales", is.CostOfSales.Groups[0].Label)
	require.Equal(t, int64(accRent), is.OperatingExpenses.Items()[0].AccountID)
	require.Equal(t, day(2024, time.March, 31), is.To)
}

func TestGenerateIncomeStatementIsPure(t *testing.T) {
	chart := testChart(t)
	ledger := marchLedger()
	march := periods.Month(day(2024, time.March, 1))
	first := GenerateIncomeStatement(chart, ledger, march)
	second := GenerateIncomeStatement(chart, ledger, march)
	require.Equal(t, first, second)

	january := GenerateIncomeStatement(chart, ledger, march.Prior().Prior())
	require.Zero(t, january.NetIncome)
}

func TestGenerateIncomeStatementNetsContraEntries(t *testing.T) {
	chart := testChart(t)
	ledger := []journals.JournalEntry{
		entry(day(2024, time.May, 1), dr(accAR, 500), cr(accSales, 500)),
		// sales return
		entry(day(2024, time.May, 2), dr(accSales, 120), cr(accAR, 120)),
		entry(day(2024, time.May, 3), dr(accBank, 30), cr(accOtherInc, 30)),
	}
	is := GenerateIncomeStatement(chart, ledger, periods.Month(day(2024, time.May, 1)))
	require.Equal(t, 410.0, is.TotalRevenue)
	require.Equal(t, 380.0, is.Revenue.SubTotal(accounts.SubSales))
	require.Equal(t, 30.0, is.Revenue.SubTotal(accounts.SubOtherIncome))
}

func TestGenerateBalanceSheetCumulative(t *testing.T) {
	chart := testChart(t)
	bs := GenerateBalanceSheet(chart, marchLedger(), day(2024, time.March, 31))

	require.Equal(t, 70000.0, bs.CurrentAssets.SubTotal(accounts.SubBankCash))
	require.Equal(t, 60000.0, bs.CurrentAssets.SubTotal(accounts.SubAccountsReceivable))
	require.Equal(t, 20000.0, bs.CurrentAssets.SubTotal(accounts.SubInventories))
	require.Equal(t, 150000.0, bs.CurrentAssets.Total)
	require.Equal(t, 30000.0, bs.NonCurrentAssets.Total)
	require.Equal(t, 0.0, bs.CurrentLiabilities.Total)
	require.Equal(t, 30000.0, bs.NonCurrentLiabilities.Total)
	require.Equal(t, 20000.0, bs.CurrentEarnings)
	require.Equal(t, 150000.0, bs.TotalEquity)

	require.Equal(t, 180000.0, bs.TotalAssets)
	require.Equal(t, 30000.0, bs.TotalLiabilities)
	require.Zero(t, bs.Difference)
	require.True(t, bs.Balanced)
	require.Len(t, bs.Assets(), 4)
	require.Empty(t, bs.Unclassified)

	last := bs.Equity.Groups[len(bs.Equity.Groups)-1]
	require.Equal(t, SubCurrentEarnings, last.SubCategory)
	require.Equal(t, "Current Earnings", last.Label)
}

func TestGenerateBalanceSheetExposesImbalance(t *testing.T) {
	chart := testChart(t)
	ledger := marchLedger()
	// opening balances that do not tie out
	broken, err := accounts.NewChart(append(chart.Accounts(), accounts.Account{
		ID: 50, Number: "1110", Name: "Petty Cash", Type: accounts.AccountTypeCurrentAsset, SubCategory: accounts.SubBankCash, OpeningBalance: 125,
	}))
	require.NoError(t, err)
	bs := GenerateBalanceSheet(broken, ledger, day(2024, time.March, 31))
	require.Equal(t, 125.0, bs.Difference)
	require.False(t, bs.Balanced)
}

func TestGenerateBalanceSheetKeepsUnclassifiedInTotals(t *testing.T) {
	chart := testChart(t)
	ledger := append(marchLedger(),
		entry(day(2024, time.March, 15), dr(accSuspense, 75), cr(accBank, 75)),
		entry(day(2024, time.March, 16), dr(accBank, 40), cr(accNotInChart, 40)),
	)
	bs := GenerateBalanceSheet(chart, ledger, day(2024, time.March, 31))
	require.True(t, bs.Balanced, "difference %v", bs.Difference)
	require.Equal(t, 75.0, bs.CurrentAssets.SubTotal(accounts.SubOther))
	require.Equal(t, 40.0, bs.CurrentLiabilities.SubTotal(accounts.SubOther))
	require.Equal(t, []int64{accNotInChart}, bs.Unclassified)
}

func TestGenerateIncomeStatementReportsUnclassified(t *testing.T) {
	chart := testChart(t)
	march := periods.Month(day(2024, time.March, 1))
	base := GenerateIncomeStatement(chart, marchLedger(), march)
	require.Empty(t, base.Unclassified)

	ledger := append(marchLedger(), entry(day(2024, time.March, 16), dr(accBank, 40), cr(accNotInChart, 40)))
	is := GenerateIncomeStatement(chart, ledger, march)
	require.Equal(t, []int64{accNotInChart}, is.Unclassified)
	require.Equal(t, base.NetIncome, is.NetIncome)
}

func TestReversalLeavesStatementsUnchanged(t *testing.T) {
	chart := testChart(t)
	ledger := marchLedger()
	before := GenerateBalanceSheet(chart, ledger, day(2024, time.March, 31))

	original := entry(day(2024, time.March, 20), dr(accRent, 1234.56), cr(accAP, 1234.56))
	reversal := entry(day(2024, time.March, 21), dr(accAP, 1234.56), cr(accRent, 1234.56))
	after := GenerateBalanceSheet(chart, append(ledger, original, reversal), day(2024, time.March, 31))
	require.Equal(t, before.TotalAssets, after.TotalAssets)
	require.Equal(t, before.CurrentEarnings, after.CurrentEarnings)
	require.Zero(t, after.CurrentLiabilities.Total)
}

func TestPendingAndEmptyEntriesAreIgnored(t *testing.T) {
	chart := testChart(t)
	pending := entry(day(2024, time.March, 5), dr(accAR, 5000), cr(accSales, 5000))
	pending.Status = journals.JournalStatusPending
	headerOnly := journals.JournalEntry{ID: 9001, Date: day(2024, time.March, 5), Status: journals.JournalStatusPosted}
	ledger := append(marchLedger(), pending, headerOnly)

	is := GenerateIncomeStatement(chart, ledger, periods.Month(day(2024, time.March, 1)))
	require.Equal(t, 100000.0, is.TotalRevenue)
}

func TestBuildTrialBalance(t *testing.T) {
	chart := testChart(t)
	tb := BuildTrialBalance(chart, marchLedger(), day(2024, time.March, 31))

	require.True(t, tb.Balanced)
	require.Equal(t, 250000.0, tb.TotalDebit)
	require.Equal(t, 250000.0, tb.TotalCredit)
	require.Zero(t, tb.TotalOpening)
	require.Zero(t, tb.TotalClosing)

	keys := make([]accounts.AccountType, 0, len(tb.Groups))
	for _, g := range tb.Groups {
		keys = append(keys, g.Key)
	}
	require.Equal(t, []accounts.AccountType{
		accounts.AccountTypeCurrentAsset,
		accounts.AccountTypeNonCurrentAsset,
		accounts.AccountTypeNonCurrentLiability,
		accounts.AccountTypeEquity,
		accounts.AccountTypeRevenue,
		accounts.AccountTypeExpense,
	}, keys)

	equity := tb.Groups[3]
	require.Equal(t, -130000.0, equity.Opening)
	require.Equal(t, -130000.0, equity.Closing)
}
