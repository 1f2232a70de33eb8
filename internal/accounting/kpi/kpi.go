package kpi

import (
	"fmt"
	"strings"
	"time"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/periods"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/reports"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

// CompanyType selects which efficiency ratios are meaningful.
type CompanyType string

const (
	CompanyService       CompanyType = "SERVICE"
	CompanyTrading       CompanyType = "TRADING"
	CompanyManufacturing CompanyType = "MANUFACTURING"
)

// ParseCompanyType defaults an empty value to CompanyService.
func ParseCompanyType(raw string) (CompanyType, error) {
	switch ct := CompanyType(strings.ToUpper(strings.TrimSpace(raw))); ct {
	case "":
		return CompanyService, nil
	case CompanyService, CompanyTrading, CompanyManufacturing:
		return ct, nil
	default:
		return "", shared.Invalid(fmt.Errorf("kpi: unknown company type %q", raw))
	}
}

func (c CompanyType) holdsStock() bool {
	return c == CompanyTrading || c == CompanyManufacturing
}

// KPISet holds the ratios derived from one income statement and the balance
// sheet at the end of its period. A ratio whose denominator is zero is
// reported as 0, which is indistinguishable from a true zero ratio; treat it
// as insufficient data when the underlying total is zero.
type KPISet struct {
	From            time.Time `json:"from"`
	To              time.Time `json:"to"`
	GrossMargin     float64   `json:"gross_margin"`
	NetProfitMargin float64   `json:"net_profit_margin"`
	CurrentRatio    float64   `json:"current_ratio"`
	QuickRatio      float64   `json:"quick_ratio"`
	WorkingCapital  float64   `json:"working_capital"`
	DebtToEquity    float64   `json:"debt_to_equity"`
	DebtRatio       float64   `json:"debt_ratio"`
	ROA             float64   `json:"roa"`
	ROE             float64   `json:"roe"`
	AssetTurnover   float64   `json:"asset_turnover"`
	// Set only for companies that carry stock.
	InventoryTurnover *float64 `json:"inventory_turnover,omitempty"`
	ReceivableDays    *float64 `json:"receivable_days,omitempty"`
}

// Compute derives a KPISet. It has no side effects.
func Compute(is reports.IncomeStatement, bs reports.BalanceSheet, companyType CompanyType) KPISet {
	currentAssets := bs.CurrentAssets.Total
	currentLiabilities := bs.CurrentLiabilities.Total
	inventory := bs.CurrentAssets.SubTotal(accounts.SubInventories)

	set := KPISet{
		From:            is.From,
		To:              is.To,
		GrossMargin:     shared.Ratio(is.GrossProfit, is.TotalRevenue),
		NetProfitMargin: shared.Ratio(is.NetIncome, is.TotalRevenue),
		CurrentRatio:    shared.Ratio(currentAssets, currentLiabilities),
		QuickRatio:      shared.Ratio(shared.Sum(currentAssets, -inventory), currentLiabilities),
		WorkingCapital:  shared.Sum(currentAssets, -currentLiabilities),
		DebtToEquity:    shared.Ratio(bs.TotalLiabilities, bs.TotalEquity),
		DebtRatio:       shared.Ratio(bs.TotalLiabilities, bs.TotalAssets),
		ROA:             shared.Ratio(is.NetIncome, bs.TotalAssets),
		ROE:             shared.Ratio(is.NetIncome, bs.TotalEquity),
		AssetTurnover:   shared.Ratio(is.TotalRevenue, bs.TotalAssets),
	}
	if companyType.holdsStock() {
		turnover := shared.Ratio(is.TotalCostOfSales, inventory)
		receivable := bs.CurrentAssets.SubTotal(accounts.SubAccountsReceivable)
		days := shared.Round2(shared.Ratio(receivable, is.TotalRevenue) * float64(spanDays(is.From, is.To)))
		set.InventoryTurnover = &turnover
		set.ReceivableDays = &days
	}
	return set
}

func spanDays(from, to time.Time) int {
	if from.IsZero() || to.Before(from) {
		return 0
	}
	return int(to.Sub(from).Hours()/24) + 1
}

// KPIComparison pairs the current and prior sets with per-metric movement.
type KPIComparison struct {
	CompanyType CompanyType `json:"company_type"`
	Current     KPISet      `json:"current"`
	Prior       KPISet      `json:"prior"`
	Deltas      []Delta     `json:"deltas"`
}

// CalculateEnhancedKPIs builds both periods' statements from one ledger
// snapshot and compares them. The balance sheet for each period is taken at
// its end date.
func CalculateEnhancedKPIs(chart *accounts.Chart, entries []journals.JournalEntry, current, prior periods.Period, companyType CompanyType) KPIComparison {
	cur := Compute(
		reports.GenerateIncomeStatement(chart, entries, current),
		reports.GenerateBalanceSheet(chart, entries, current.EndDate),
		companyType)
	prev := Compute(
		reports.GenerateIncomeStatement(chart, entries, prior),
		reports.GenerateBalanceSheet(chart, entries, prior.EndDate),
		companyType)
	return KPIComparison{
		CompanyType: companyType,
		Current:     cur,
		Prior:       prev,
		Deltas:      Compare(cur, prev),
	}
}
