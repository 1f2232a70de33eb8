package accounts

import (
	"fmt"
	"strings"
	"time"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

// AccountType enumerates CoA categories. It is the only input used to
// place an account on a statement.
type AccountType string

const (
	AccountTypeCurrentAsset        AccountType = "CURRENT_ASSET"
	AccountTypeNonCurrentAsset     AccountType = "NON_CURRENT_ASSET"
	AccountTypeCurrentLiability    AccountType = "CURRENT_LIABILITY"
	AccountTypeNonCurrentLiability AccountType = "NON_CURRENT_LIABILITY"
	AccountTypeEquity              AccountType = "EQUITY"
	AccountTypeRevenue             AccountType = "REVENUE"
	AccountTypeExpense             AccountType = "EXPENSE"
)

// AllTypes lists account types in statement order.
var AllTypes = []AccountType{
	AccountTypeCurrentAsset,
	AccountTypeNonCurrentAsset,
	AccountTypeCurrentLiability,
	AccountTypeNonCurrentLiability,
	AccountTypeEquity,
	AccountTypeRevenue,
	AccountTypeExpense,
}

// ParseAccountType accepts both CURRENT_ASSET and current-asset spellings.
func ParseAccountType(raw string) (AccountType, error) {
	t := AccountType(normalize(raw))
	if _, ok := taxonomy[t]; !ok {
		return "", fmt.Errorf("%w: unknown account type %q", shared.ErrInvalidAccount, raw)
	}
	return t, nil
}

// IsAsset reports whether the type sits on the asset side.
func (t AccountType) IsAsset() bool {
	return t == AccountTypeCurrentAsset || t == AccountTypeNonCurrentAsset
}

// IsLiability reports whether the type is a current or non-current liability.
func (t AccountType) IsLiability() bool {
	return t == AccountTypeCurrentLiability || t == AccountTypeNonCurrentLiability
}

// IsBalanceSheet reports whether balances carry forward across periods.
func (t AccountType) IsBalanceSheet() bool {
	return t.IsAsset() || t.IsLiability() || t == AccountTypeEquity
}

// DebitNormal reports whether increases are recorded as debits.
func (t AccountType) DebitNormal() bool {
	return t.IsAsset() || t == AccountTypeExpense
}

// Account models a chart of accounts node.
type Account struct {
	ID             int64
	Number         string
	Name           string
	Type           AccountType
	SubCategory    SubCategory
	OpeningBalance float64
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Validate checks the fields required before an account is stored.
// The sub-category is normalised in place.
func (a *Account) Validate() error {
	if strings.TrimSpace(a.Number) == "" {
		return shared.Invalid(fmt.Errorf("%w: number required", shared.ErrInvalidAccount))
	}
	if strings.TrimSpace(a.Name) == "" {
		return shared.Invalid(fmt.Errorf("%w: name required for %s", shared.ErrInvalidAccount, a.Number))
	}
	t, err := ParseAccountType(string(a.Type))
	if err != nil {
		return shared.Invalid(err)
	}
	a.Type = t
	a.SubCategory = Classify(t, a.SubCategory)
	return nil
}

func normalize(raw string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(raw), "-", "_"))
}
