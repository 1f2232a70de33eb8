package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/periods"
)

// IncomeStatement is the windowed profit and loss for one period.
type IncomeStatement struct {
	From                   time.Time `json:"from"`
	To                     time.Time `json:"to"`
	Revenue                Section   `json:"revenue"`
	CostOfSales            Section   `json:"cost_of_sales"`
	OperatingExpenses      Section   `json:"operating_expenses"`
	TotalRevenue           float64   `json:"total_revenue"`
	TotalCostOfSales       float64   `json:"total_cost_of_sales"`
	GrossProfit            float64   `json:"gross_profit"`
	TotalOperatingExpenses float64   `json:"total_operating_expenses"`
	NetIncome              float64   `json:"net_income"`
	// Unclassified lists ids of accounts posted to in the period but missing
	// from the chart. Their type is unknown so they stay out of the sections.
	Unclassified []int64 `json:"unclassified,omitempty"`
}

// GenerateIncomeStatement aggregates entries dated inside period. Revenue is
// credits minus debits, expenses are debits minus credits. Expense accounts
// in the cost-of-sales sub-category feed CostOfSales; every other expense is
// an operating expense. It has no side effects.
func GenerateIncomeStatement(chart *accounts.Chart, entries []journals.JournalEntry, period periods.Period) IncomeStatement {
	revenue := newSection("Revenue", accounts.AccountTypeRevenue)
	cos := newSection("Cost of Sales")
	cos.order = []accounts.SubCategory{accounts.SubCostOfSales}
	opex := newSection("Operating Expenses", accounts.AccountTypeExpense)

	var unclassified []int64
	for _, bal := range Collect(chart, entries, period.Contains, false) {
		if !bal.Known {
			unclassified = append(unclassified, bal.Account.ID)
			continue
		}
		switch bal.Account.Type {
		case accounts.AccountTypeRevenue:
			revenue.add(itemFor(bal, bal.Movement()))
		case accounts.AccountTypeExpense:
			if bal.Account.SubCategory == accounts.SubCostOfSales {
				cos.add(itemFor(bal, bal.Movement()))
				continue
			}
			opex.add(itemFor(bal, bal.Movement()))
		}
	}

	is := IncomeStatement{
		From:              truncate(period.StartDate),
		To:                truncate(period.EndDate),
		Revenue:           revenue.build(),
		CostOfSales:       cos.build(),
		OperatingExpenses: opex.build(),
		Unclassified:      unclassified,
	}
	is.TotalRevenue = is.Revenue.Total
	is.TotalCostOfSales = is.CostOfSales.Total
	is.TotalOperatingExpenses = is.OperatingExpenses.Total
	gross := decimal.NewFromFloat(is.TotalRevenue).Sub(decimal.NewFromFloat(is.TotalCostOfSales))
	is.GrossProfit = gross.Round(2).InexactFloat64()
	is.NetIncome = gross.Sub(decimal.NewFromFloat(is.TotalOperatingExpenses)).Round(2).InexactFloat64()
	return is
}
