package reports

import (
	"math"
	"time"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

// unclassifiedGroup keys trial balance rows for accounts missing from the chart.
const unclassifiedGroup accounts.AccountType = "UNCLASSIFIED"

// TrialBalanceAccount represents a row inside a trial balance group.
// Opening and Closing are signed with debits positive.
type TrialBalanceAccount struct {
	AccountID int64   `json:"account_id"`
	Number    string  `json:"number"`
	Name      string  `json:"name"`
	Opening   float64 `json:"opening"`
	Debit     float64 `json:"debit"`
	Credit    float64 `json:"credit"`
	Closing   float64 `json:"closing"`
}

// TrialBalanceGroup aggregates accounts of one type.
type TrialBalanceGroup struct {
	Key      accounts.AccountType  `json:"key"`
	Label    string                `json:"label"`
	Accounts []TrialBalanceAccount `json:"accounts"`
	Opening  float64               `json:"opening"`
	Debit    float64               `json:"debit"`
	Credit   float64               `json:"credit"`
	Closing  float64               `json:"closing"`
}

// TrialBalance lists every account balance at AsOf.
type TrialBalance struct {
	AsOf         time.Time           `json:"as_of"`
	Groups       []TrialBalanceGroup `json:"groups"`
	TotalDebit   float64             `json:"total_debit"`
	TotalCredit  float64             `json:"total_credit"`
	TotalOpening float64             `json:"total_opening"`
	TotalClosing float64             `json:"total_closing"`
	// Balanced holds when debits equal credits and closing balances net to zero.
	Balanced bool `json:"balanced"`
}

// BuildTrialBalance aggregates every posted entry dated on or before asOf.
func BuildTrialBalance(chart *accounts.Chart, entries []journals.JournalEntry, asOf time.Time) TrialBalance {
	groups := make(map[accounts.AccountType]*TrialBalanceGroup)
	for _, bal := range Collect(chart, entries, asOfDay(asOf), true) {
		key := bal.Account.Type
		if !bal.Known {
			key = unclassifiedGroup
		}
		grp, ok := groups[key]
		if !ok {
			grp = &TrialBalanceGroup{Key: key, Label: accounts.TypeLabel(key)}
			groups[key] = grp
		}
		opening := bal.Opening
		if bal.Known && !bal.Account.Type.DebitNormal() {
			opening = -opening
		}
		row := TrialBalanceAccount{
			AccountID: bal.Account.ID,
			Number:    bal.Account.Number,
			Name:      bal.Account.Name,
			Opening:   opening,
			Debit:     bal.Debit,
			Credit:    bal.Credit,
			Closing:   bal.DebitBalance(),
		}
		grp.Accounts = append(grp.Accounts, row)
		grp.Opening = shared.Sum(grp.Opening, row.Opening)
		grp.Debit = shared.Sum(grp.Debit, row.Debit)
		grp.Credit = shared.Sum(grp.Credit, row.Credit)
		grp.Closing = shared.Sum(grp.Closing, row.Closing)
	}

	result := TrialBalance{AsOf: truncate(asOf)}
	order := append(append([]accounts.AccountType{}, accounts.AllTypes...), unclassifiedGroup)
	for _, key := range order {
		grp, ok := groups[key]
		if !ok {
			continue
		}
		result.Groups = append(result.Groups, *grp)
		result.TotalOpening = shared.Sum(result.TotalOpening, grp.Opening)
		result.TotalDebit = shared.Sum(result.TotalDebit, grp.Debit)
		result.TotalCredit = shared.Sum(result.TotalCredit, grp.Credit)
		result.TotalClosing = shared.Sum(result.TotalClosing, grp.Closing)
	}
	result.Balanced = math.Abs(result.TotalDebit-result.TotalCredit) <= shared.BalanceTolerance &&
		math.Abs(result.TotalClosing) <= shared.BalanceTolerance
	return result
}
