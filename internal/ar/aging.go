package ar

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Bucket names an aging band measured from the issue date.
type Bucket string

const (
	BucketCurrent Bucket = "0-30"
	Bucket31To60  Bucket = "31-60"
	Bucket61To90  Bucket = "61-90"
	Bucket91To120 Bucket = "91-120"
	BucketOver120 Bucket = "120+"
)

// Buckets lists bands in display order.
var Buckets = []Bucket{BucketCurrent, Bucket31To60, Bucket61To90, Bucket91To120, BucketOver120}

// BucketFor places an age in days.
func BucketFor(days int) Bucket {
	switch {
	case days <= 30:
		return BucketCurrent
	case days <= 60:
		return Bucket31To60
	case days <= 90:
		return Bucket61To90
	case days <= 120:
		return Bucket91To120
	default:
		return BucketOver120
	}
}

// GroupBy selects the aggregation level of aging rows.
type GroupBy string

const (
	GroupByCustomer      GroupBy = "customer"
	GroupByCustomerGroup GroupBy = "customer_group"
)

// ParseGroupBy defaults an empty value to GroupByCustomer.
func ParseGroupBy(raw string) (GroupBy, error) {
	switch g := GroupBy(strings.ToLower(strings.TrimSpace(raw))); g {
	case "":
		return GroupByCustomer, nil
	case GroupByCustomer, GroupByCustomerGroup:
		return g, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidGroupBy, raw)
	}
}

// AgingRow holds bucket sums for one customer or group.
type AgingRow struct {
	Key          string  `json:"key"`
	Label        string  `json:"label"`
	Current      float64 `json:"current"`
	Days31To60   float64 `json:"days_31_60"`
	Days61To90   float64 `json:"days_61_90"`
	Days91To120  float64 `json:"days_91_120"`
	Over120      float64 `json:"over_120"`
	Total        float64 `json:"total"`
	InvoiceCount int     `json:"invoice_count"`
}

// Amount returns the row's sum for b.
func (r AgingRow) Amount(b Bucket) float64 {
	switch b {
	case BucketCurrent:
		return r.Current
	case Bucket31To60:
		return r.Days31To60
	case Bucket61To90:
		return r.Days61To90
	case Bucket91To120:
		return r.Days91To120
	case BucketOver120:
		return r.Over120
	}
	return 0
}

// AgingResult is the aged receivables report. Total is the grand total row.
type AgingResult struct {
	AsAt    time.Time  `json:"as_at"`
	GroupBy GroupBy    `json:"group_by"`
	Rows    []AgingRow `json:"rows"`
	Total   AgingRow   `json:"total"`
}

type rowAcc struct {
	row     AgingRow
	buckets map[Bucket]decimal.Decimal
}

func (a *rowAcc) add(b Bucket, amount decimal.Decimal) {
	a.buckets[b] = a.buckets[b].Add(amount)
	a.row.InvoiceCount++
}

func (a *rowAcc) finish() AgingRow {
	r := a.row
	total := decimal.Zero
	for _, b := range Buckets {
		total = total.Add(a.buckets[b])
	}
	r.Current = a.buckets[BucketCurrent].Round(2).InexactFloat64()
	r.Days31To60 = a.buckets[Bucket31To60].Round(2).InexactFloat64()
	r.Days61To90 = a.buckets[Bucket61To90].Round(2).InexactFloat64()
	r.Days91To120 = a.buckets[Bucket91To120].Round(2).InexactFloat64()
	r.Over120 = a.buckets[BucketOver120].Round(2).InexactFloat64()
	r.Total = total.Round(2).InexactFloat64()
	return r
}

// Bucketize ages every invoice with a positive balance at asAt. Invoices
// owing nothing produce no row. Rows are keyed by customer, or by customer
// group when groupBy asks for it; the grand total sums every bucket.
func Bucketize(invoices []Invoice, asAt time.Time, groupBy GroupBy) AgingResult {
	if groupBy == "" {
		groupBy = GroupByCustomer
	}
	rows := make(map[string]*rowAcc)
	grand := &rowAcc{row: AgingRow{Key: "total", Label: "Total"}, buckets: map[Bucket]decimal.Decimal{}}

	for _, inv := range invoices {
		if !inv.Ageable() {
			continue
		}
		owed := inv.Outstanding(asAt)
		if owed <= 0 {
			continue
		}
		key, label := rowKey(inv, groupBy)
		acc, ok := rows[key]
		if !ok {
			acc = &rowAcc{row: AgingRow{Key: key, Label: label}, buckets: map[Bucket]decimal.Decimal{}}
			rows[key] = acc
		}
		b := BucketFor(inv.AgeDays(asAt))
		amount := decimal.NewFromFloat(owed)
		acc.add(b, amount)
		grand.add(b, amount)
	}

	result := AgingResult{AsAt: day(asAt), GroupBy: groupBy, Rows: make([]AgingRow, 0, len(rows))}
	for _, acc := range rows {
		result.Rows = append(result.Rows, acc.finish())
	}
	sort.Slice(result.Rows, func(i, j int) bool {
		if result.Rows[i].Label != result.Rows[j].Label {
			return result.Rows[i].Label < result.Rows[j].Label
		}
		return result.Rows[i].Key < result.Rows[j].Key
	})
	result.Total = grand.finish()
	return result
}

func rowKey(inv Invoice, groupBy GroupBy) (string, string) {
	if groupBy == GroupByCustomerGroup {
		group := strings.TrimSpace(inv.CustomerGroup)
		if group == "" {
			return "ungrouped", "Ungrouped"
		}
		return strings.ToLower(group), group
	}
	label := inv.CustomerName
	if label == "" {
		label = fmt.Sprintf("Customer %d", inv.CustomerID)
	}
	return fmt.Sprintf("%d", inv.CustomerID), label
}
