package reports

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
)

// AccountBalance models a general ledger account with aggregated balances.
// Opening is signed on the account's normal side; Debit and Credit are the
// activity inside the window.
type AccountBalance struct {
	Account accounts.Account
	Known   bool
	Opening float64
	Debit   float64
	Credit  float64
}

// Movement returns the window activity on the account's normal side.
func (a AccountBalance) Movement() float64 {
	if !a.Known || a.Account.Type.DebitNormal() {
		return a.Debit - a.Credit
	}
	return a.Credit - a.Debit
}

// Closing computes the closing balance on the account's normal side.
func (a AccountBalance) Closing() float64 {
	return decimal.NewFromFloat(a.Opening).Add(decimal.NewFromFloat(a.Movement())).Round(2).InexactFloat64()
}

// DebitBalance returns the closing balance with debits positive.
func (a AccountBalance) DebitBalance() float64 {
	if !a.Known || a.Account.Type.DebitNormal() {
		return a.Closing()
	}
	return -a.Closing()
}

type accumulator struct {
	opening decimal.Decimal
	debit   decimal.Decimal
	credit  decimal.Decimal
	touched bool
}

// Collect aggregates posted lines accepted by include into per-account
// balances ordered by account number. Lines on accounts missing from the
// chart are kept with Known=false rather than dropped. Entries that are not
// POSTED, or have no lines, are ignored.
func Collect(chart *accounts.Chart, entries []journals.JournalEntry, include func(time.Time) bool, withOpening bool) []AccountBalance {
	acc := make(map[int64]*accumulator)
	get := func(id int64) *accumulator {
		a, ok := acc[id]
		if !ok {
			a = &accumulator{}
			acc[id] = a
		}
		return a
	}
	if withOpening {
		for _, a := range chart.Accounts() {
			if a.OpeningBalance != 0 {
				get(a.ID).opening = decimal.NewFromFloat(a.OpeningBalance)
			}
		}
	}
	for _, e := range entries {
		if e.Status != journals.JournalStatusPosted || len(e.Lines) == 0 {
			continue
		}
		if include != nil && !include(e.Date) {
			continue
		}
		for _, l := range e.Lines {
			a := get(l.AccountID)
			a.debit = a.debit.Add(decimal.NewFromFloat(l.Debit))
			a.credit = a.credit.Add(decimal.NewFromFloat(l.Credit))
			a.touched = true
		}
	}

	out := make([]AccountBalance, 0, len(acc))
	for id, a := range acc {
		row := AccountBalance{
			Opening: a.opening.Round(2).InexactFloat64(),
			Debit:   a.debit.Round(2).InexactFloat64(),
			Credit:  a.credit.Round(2).InexactFloat64(),
		}
		if account, ok := chart.Lookup(id); ok {
			row.Account = account
			row.Known = true
		} else {
			row.Account = accounts.Account{ID: id, Name: "Unknown account", SubCategory: accounts.SubOther}
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Known != out[j].Known {
			return out[i].Known
		}
		if out[i].Account.Number != out[j].Account.Number {
			return out[i].Account.Number < out[j].Account.Number
		}
		return out[i].Account.ID < out[j].Account.ID
	})
	return out
}

func asOfDay(asOf time.Time) func(time.Time) bool {
	end := truncate(asOf)
	return func(d time.Time) bool { return !truncate(d).After(end) }
}

func truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// LineItem is one account row on a statement.
type LineItem struct {
	AccountID   int64                `json:"account_id"`
	Number      string               `json:"number"`
	Name        string               `json:"name"`
	SubCategory accounts.SubCategory `json:"sub_category"`
	Amount      float64              `json:"amount"`
}

// Group gathers line items sharing a sub-category header.
type Group struct {
	SubCategory accounts.SubCategory `json:"sub_category"`
	Label       string               `json:"label"`
	Items       []LineItem           `json:"items"`
	Total       float64              `json:"total"`
}

// Section is a statement block such as Revenue or Current Assets.
type Section struct {
	Label  string  `json:"label"`
	Groups []Group `json:"groups"`
	Total  float64 `json:"total"`
}

// Items flattens the section in display order.
func (s Section) Items() []LineItem {
	var out []LineItem
	for _, g := range s.Groups {
		out = append(out, g.Items...)
	}
	return out
}

// SubTotal returns the total of the group for sub, or 0.
func (s Section) SubTotal(sub accounts.SubCategory) float64 {
	for _, g := range s.Groups {
		if g.SubCategory == sub {
			return g.Total
		}
	}
	return 0
}

// sectionBuilder groups items by sub-category in taxonomy order.
type sectionBuilder struct {
	label  string
	order  []accounts.SubCategory
	groups map[accounts.SubCategory]*Group
	total  decimal.Decimal
}

func newSection(label string, types ...accounts.AccountType) *sectionBuilder {
	b := &sectionBuilder{label: label, groups: map[accounts.SubCategory]*Group{}}
	seen := map[accounts.SubCategory]bool{}
	for _, t := range types {
		for _, sub := range accounts.SubCategoriesOf(t) {
			if sub == accounts.SubOther || seen[sub] {
				continue
			}
			seen[sub] = true
			b.order = append(b.order, sub)
		}
	}
	b.order = append(b.order, accounts.SubOther)
	return b
}

func (b *sectionBuilder) add(item LineItem) {
	sub := item.SubCategory
	if sub == "" {
		sub = accounts.SubOther
	}
	g, ok := b.groups[sub]
	if !ok {
		g = &Group{SubCategory: sub, Label: accounts.SectionLabel(sub)}
		b.groups[sub] = g
	}
	g.Items = append(g.Items, item)
	g.Total = decimal.NewFromFloat(g.Total).Add(decimal.NewFromFloat(item.Amount)).Round(2).InexactFloat64()
	b.total = b.total.Add(decimal.NewFromFloat(item.Amount))
}

func (b *sectionBuilder) build() Section {
	s := Section{Label: b.label, Total: b.total.Round(2).InexactFloat64()}
	placed := make(map[accounts.SubCategory]bool, len(b.groups))
	for _, sub := range b.order {
		if g, ok := b.groups[sub]; ok {
			s.Groups = append(s.Groups, *g)
			placed[sub] = true
		}
	}
	var rest []accounts.SubCategory
	for sub := range b.groups {
		if !placed[sub] {
			rest = append(rest, sub)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	for _, sub := range rest {
		s.Groups = append(s.Groups, *b.groups[sub])
	}
	return s
}

func itemFor(b AccountBalance, amount float64) LineItem {
	return LineItem{
		AccountID:   b.Account.ID,
		Number:      b.Account.Number,
		Name:        b.Account.Name,
		SubCategory: b.Account.SubCategory,
		Amount:      amount,
	}
}
