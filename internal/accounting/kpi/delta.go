package kpi

import (
	"math"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

// Delta is the movement of one metric against the prior period.
type Delta struct {
	Metric  string  `json:"metric"`
	Current float64 `json:"current"`
	Prior   float64 `json:"prior"`
	Change  float64 `json:"change"`
	// ChangePct is relative to |Prior| in percent, 0 when Prior is 0.
	ChangePct float64 `json:"change_pct"`
}

type metric struct {
	name  string
	value func(KPISet) *float64
}

func plain(get func(KPISet) float64) func(KPISet) *float64 {
	return func(s KPISet) *float64 {
		v := get(s)
		return &v
	}
}

var metrics = []metric{
	{"gross_margin", plain(func(s KPISet) float64 { return s.GrossMargin })},
	{"net_profit_margin", plain(func(s KPISet) float64 { return s.NetProfitMargin })},
	{"current_ratio", plain(func(s KPISet) float64 { return s.CurrentRatio })},
	{"quick_ratio", plain(func(s KPISet) float64 { return s.QuickRatio })},
	{"working_capital", plain(func(s KPISet) float64 { return s.WorkingCapital })},
	{"debt_to_equity", plain(func(s KPISet) float64 { return s.DebtToEquity })},
	{"debt_ratio", plain(func(s KPISet) float64 { return s.DebtRatio })},
	{"roa", plain(func(s KPISet) float64 { return s.ROA })},
	{"roe", plain(func(s KPISet) float64 { return s.ROE })},
	{"asset_turnover", plain(func(s KPISet) float64 { return s.AssetTurnover })},
	{"inventory_turnover", func(s KPISet) *float64 { return s.InventoryTurnover }},
	{"receivable_days", func(s KPISet) *float64 { return s.ReceivableDays }},
}

// Compare lists deltas in a fixed metric order. Metrics absent from either
// set are skipped.
func Compare(current, prior KPISet) []Delta {
	out := make([]Delta, 0, len(metrics))
	for _, m := range metrics {
		cur, prev := m.value(current), m.value(prior)
		if cur == nil || prev == nil {
			continue
		}
		d := Delta{Metric: m.name, Current: *cur, Prior: *prev, Change: round6(*cur - *prev)}
		if *prev != 0 {
			d.ChangePct = shared.Round2(d.Change / math.Abs(*prev) * 100)
		}
		out = append(out, d)
	}
	return out
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
