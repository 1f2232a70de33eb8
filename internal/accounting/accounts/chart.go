package accounts

import (
	"fmt"
	"sort"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

// Chart is an immutable snapshot of the chart of accounts. Reports and KPI
// calculations receive it explicitly.
type Chart struct {
	byID     map[int64]Account
	byNumber map[string]Account
	ordered  []Account
}

// NewChart validates the accounts and indexes them by id and number.
func NewChart(list []Account) (*Chart, error) {
	c := &Chart{
		byID:     make(map[int64]Account, len(list)),
		byNumber: make(map[string]Account, len(list)),
		ordered:  make([]Account, 0, len(list)),
	}
	for _, acc := range list {
		if err := acc.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byID[acc.ID]; dup {
			return nil, shared.Invalid(fmt.Errorf("%w: duplicate id %d", shared.ErrInvalidAccount, acc.ID))
		}
		if _, dup := c.byNumber[acc.Number]; dup {
			return nil, shared.Invalid(fmt.Errorf("%w: duplicate number %s", shared.ErrInvalidAccount, acc.Number))
		}
		c.byID[acc.ID] = acc
		c.byNumber[acc.Number] = acc
		c.ordered = append(c.ordered, acc)
	}
	sort.Slice(c.ordered, func(i, j int) bool { return c.ordered[i].Number < c.ordered[j].Number })
	return c, nil
}

// MustChart is NewChart for fixtures and seeds; it panics on invalid input.
func MustChart(list []Account) *Chart {
	c, err := NewChart(list)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup returns the account for id.
func (c *Chart) Lookup(id int64) (Account, bool) {
	if c == nil {
		return Account{}, false
	}
	acc, ok := c.byID[id]
	return acc, ok
}

// ByNumber returns the account carrying the display number.
func (c *Chart) ByNumber(number string) (Account, bool) {
	if c == nil {
		return Account{}, false
	}
	acc, ok := c.byNumber[number]
	return acc, ok
}

// Accounts returns all accounts sorted by number.
func (c *Chart) Accounts() []Account {
	if c == nil {
		return nil
	}
	out := make([]Account, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// OfType returns the accounts of t sorted by number.
func (c *Chart) OfType(t AccountType) []Account {
	var out []Account
	for _, acc := range c.Accounts() {
		if acc.Type == t {
			out = append(out, acc)
		}
	}
	return out
}

// Len returns the number of accounts.
func (c *Chart) Len() int {
	if c == nil {
		return 0
	}
	return len(c.ordered)
}
