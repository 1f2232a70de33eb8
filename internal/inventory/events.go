package inventory

import "time"

// MovementAppliedEvent carries a valued movement to ledger integration.
// It is emitted for duplicates too, so a retried call can finish posting.
type MovementAppliedEvent struct {
	ItemID        int64
	MovementID    int64
	Type          MovementType
	Qty           float64
	UnitCost      float64
	Value         float64
	ReferenceID   string
	ReferenceType string
	PostedAt      time.Time
	Duplicate     bool
}

func newAppliedEvent(m Movement, duplicate bool) MovementAppliedEvent {
	return MovementAppliedEvent{
		ItemID:        m.ItemID,
		MovementID:    m.ID,
		Type:          m.Type,
		Qty:           m.Qty,
		UnitCost:      m.AppliedCost,
		Value:         roundMoney(m.Qty * m.AppliedCost),
		ReferenceID:   m.ReferenceID,
		ReferenceType: m.ReferenceType,
		PostedAt:      m.PostedAt,
		Duplicate:     duplicate,
	}
}
