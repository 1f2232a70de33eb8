package inventory

import (
	"sort"

	"github.com/shopspring/decimal"
)

const (
	qtyPlaces  = 4
	costPlaces = 6
)

// Policy controls how strictly Apply guards stock levels.
type Policy struct {
	// AllowNegativeStock lets sale-side outbound movements drive qty below
	// zero. Adjustments may always do so.
	AllowNegativeStock bool
}

// Apply returns the item state after m and the unit cost m is valued at.
// Inbound movements blend into the weighted average; outbound movements
// leave the average untouched. It has no side effects.
func Apply(item Item, m Movement, policy Policy) (Item, float64, error) {
	if m.Qty <= 0 {
		return item, 0, ErrInvalidQuantity
	}
	if m.UnitCost < 0 {
		return item, 0, ErrInvalidUnitCost
	}
	if !m.Type.Valid() {
		return item, 0, ErrInvalidMovement
	}
	oldQty := decimal.NewFromFloat(item.Qty)
	oldCost := decimal.NewFromFloat(item.AvgCost)
	qty := decimal.NewFromFloat(m.Qty)

	next := item
	if m.Type.Inbound() {
		unit := decimal.NewFromFloat(m.UnitCost)
		if m.Type == MovementReturnIn && unit.IsZero() {
			unit = oldCost
		}
		newQty := oldQty.Add(qty)
		newCost := unit
		if oldQty.IsPositive() && newQty.IsPositive() {
			newCost = oldCost.Mul(oldQty).Add(unit.Mul(qty)).Div(newQty)
		}
		next.Qty = newQty.Round(qtyPlaces).InexactFloat64()
		next.AvgCost = newCost.Round(costPlaces).InexactFloat64()
		next.LastCost = unit.Round(costPlaces).InexactFloat64()
		return next, next.LastCost, nil
	}

	newQty := oldQty.Sub(qty)
	if newQty.IsNegative() && !m.Type.Adjustment() && !policy.AllowNegativeStock {
		return item, 0, ErrNegativeStock
	}
	next.Qty = newQty.Round(qtyPlaces).InexactFloat64()
	next.LastCost = item.AvgCost
	return next, item.AvgCost, nil
}

// Replay rebuilds an item from its movement log in id order, skipping
// repeated keys. History is replayed as accepted, so stock guards are off.
func Replay(item Item, movements []Movement) (Item, error) {
	ordered := append([]Movement(nil), movements...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	state := Item{ID: item.ID, SKU: item.SKU, Name: item.Name, UpdatedAt: item.UpdatedAt}
	seen := make(map[MovementKey]struct{}, len(ordered))
	for _, m := range ordered {
		if _, dup := seen[m.Key()]; dup {
			continue
		}
		seen[m.Key()] = struct{}{}
		next, _, err := Apply(state, m, Policy{AllowNegativeStock: true})
		if err != nil {
			return item, err
		}
		state = next
	}
	return state, nil
}

// Drifted reports whether stored and replayed differ beyond rounding.
func Drifted(stored, replayed Item) bool {
	qty := decimal.NewFromFloat(stored.Qty).Sub(decimal.NewFromFloat(replayed.Qty)).Abs()
	cost := decimal.NewFromFloat(stored.AvgCost).Sub(decimal.NewFromFloat(replayed.AvgCost)).Abs()
	return qty.GreaterThan(decimal.New(1, -qtyPlaces)) || cost.GreaterThan(decimal.New(1, -4))
}

func roundMoney(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
