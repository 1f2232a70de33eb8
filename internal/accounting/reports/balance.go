package reports

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

// SubCurrentEarnings labels the computed earnings row inside equity.
const SubCurrentEarnings accounts.SubCategory = "CURRENT_EARNINGS"

// BalanceSheet is the cumulative position at AsOf.
type BalanceSheet struct {
	AsOf                  time.Time `json:"as_of"`
	CurrentAssets         Section   `json:"current_assets"`
	NonCurrentAssets      Section   `json:"non_current_assets"`
	CurrentLiabilities    Section   `json:"current_liabilities"`
	NonCurrentLiabilities Section   `json:"non_current_liabilities"`
	Equity                Section   `json:"equity"`
	// CurrentEarnings is cumulative revenue less expenses not yet closed to equity.
	CurrentEarnings  float64 `json:"current_earnings"`
	TotalAssets      float64 `json:"total_assets"`
	TotalLiabilities float64 `json:"total_liabilities"`
	TotalEquity      float64 `json:"total_equity"`
	// Difference is TotalAssets - (TotalLiabilities + TotalEquity). It is
	// zero for a ledger of balanced entries and balanced opening balances.
	Difference float64 `json:"difference"`
	Balanced   bool    `json:"balanced"`
	// Unclassified lists ids of accounts posted to but missing from the chart.
	// Their balances sit in the Other group of current assets or liabilities.
	Unclassified []int64 `json:"unclassified,omitempty"`
}

// Assets returns every asset line item.
func (b BalanceSheet) Assets() []LineItem {
	return append(b.CurrentAssets.Items(), b.NonCurrentAssets.Items()...)
}

// Liabilities returns every liability line item.
func (b BalanceSheet) Liabilities() []LineItem {
	return append(b.CurrentLiabilities.Items(), b.NonCurrentLiabilities.Items()...)
}

// GenerateBalanceSheet aggregates every posted entry dated on or before asOf,
// starting from opening balances. Placement follows each account's Type.
func GenerateBalanceSheet(chart *accounts.Chart, entries []journals.JournalEntry, asOf time.Time) BalanceSheet {
	ca := newSection("Current Assets", accounts.AccountTypeCurrentAsset)
	nca := newSection("Non-current Assets", accounts.AccountTypeNonCurrentAsset)
	cl := newSection("Current Liabilities", accounts.AccountTypeCurrentLiability)
	ncl := newSection("Non-current Liabilities", accounts.AccountTypeNonCurrentLiability)
	eq := newSection("Equity", accounts.AccountTypeEquity)

	earnings := decimal.Zero
	var unclassified []int64
	for _, bal := range Collect(chart, entries, asOfDay(asOf), true) {
		if !bal.Known {
			unclassified = append(unclassified, bal.Account.ID)
			if net := bal.DebitBalance(); net >= 0 {
				ca.add(itemFor(bal, net))
			} else {
				cl.add(itemFor(bal, -net))
			}
			continue
		}
		closing := bal.Closing()
		switch bal.Account.Type {
		case accounts.AccountTypeCurrentAsset:
			ca.add(itemFor(bal, closing))
		case accounts.AccountTypeNonCurrentAsset:
			nca.add(itemFor(bal, closing))
		case accounts.AccountTypeCurrentLiability:
			cl.add(itemFor(bal, closing))
		case accounts.AccountTypeNonCurrentLiability:
			ncl.add(itemFor(bal, closing))
		case accounts.AccountTypeEquity:
			eq.add(itemFor(bal, closing))
		case accounts.AccountTypeRevenue:
			earnings = earnings.Add(decimal.NewFromFloat(closing))
		case accounts.AccountTypeExpense:
			earnings = earnings.Sub(decimal.NewFromFloat(closing))
		}
	}
	current := earnings.Round(2).InexactFloat64()
	eq.order = append(eq.order, SubCurrentEarnings)
	if current != 0 {
		eq.add(LineItem{Name: "Current Earnings", SubCategory: SubCurrentEarnings, Amount: current})
		eq.groups[SubCurrentEarnings].Label = "Current Earnings"
	}

	bs := BalanceSheet{
		AsOf:                  truncate(asOf),
		CurrentAssets:         ca.build(),
		NonCurrentAssets:      nca.build(),
		CurrentLiabilities:    cl.build(),
		NonCurrentLiabilities: ncl.build(),
		Equity:                eq.build(),
		CurrentEarnings:       current,
		Unclassified:          unclassified,
	}
	bs.TotalAssets = shared.Sum(bs.CurrentAssets.Total, bs.NonCurrentAssets.Total)
	bs.TotalLiabilities = shared.Sum(bs.CurrentLiabilities.Total, bs.NonCurrentLiabilities.Total)
	bs.TotalEquity = bs.Equity.Total
	bs.Difference = shared.Sum(bs.TotalAssets, -bs.TotalLiabilities, -bs.TotalEquity)
	bs.Balanced = math.Abs(bs.Difference) <= shared.BalanceTolerance
	return bs
}
