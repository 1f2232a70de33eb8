package inventory

import (
	"errors"
	"strings"
	"time"
)

// MovementType enumerates supported inventory movements.
type MovementType string

const (
	MovementIn        MovementType = "IN"
	MovementOut       MovementType = "OUT"
	MovementAdjIn     MovementType = "ADJ_IN"
	MovementAdjOut    MovementType = "ADJ_OUT"
	MovementReturnIn  MovementType = "RETURN_IN"
	MovementReturnOut MovementType = "RETURN_OUT"
)

// ParseMovementType accepts upper or lower case names.
func ParseMovementType(raw string) (MovementType, error) {
	t := MovementType(strings.ToUpper(strings.TrimSpace(raw)))
	if !t.Valid() {
		return "", ErrInvalidMovement
	}
	return t, nil
}

func (t MovementType) Valid() bool {
	switch t {
	case MovementIn, MovementOut, MovementAdjIn, MovementAdjOut, MovementReturnIn, MovementReturnOut:
		return true
	}
	return false
}

// Inbound reports whether the movement adds stock.
func (t MovementType) Inbound() bool {
	return t == MovementIn || t == MovementAdjIn || t == MovementReturnIn
}

// Adjustment reports whether the movement is a stock-take correction.
func (t MovementType) Adjustment() bool {
	return t == MovementAdjIn || t == MovementAdjOut
}

// Item is the running stock position of one SKU. Qty and AvgCost only ever
// change together.
type Item struct {
	ID        int64     `json:"id"`
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	Qty       float64   `json:"qty"`
	AvgCost   float64   `json:"avg_cost"`
	LastCost  float64   `json:"last_cost"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Value is the carrying amount of the stock on hand.
func (i Item) Value() float64 {
	return roundMoney(i.Qty * i.AvgCost)
}

// MovementKey identifies one business event. Applying the same key twice is a no-op.
type MovementKey struct {
	ItemID        int64
	Type          MovementType
	ReferenceID   string
	ReferenceType string
}

// Movement is a row of the append-only movement log.
type Movement struct {
	ID            int64        `json:"id"`
	ItemID        int64        `json:"item_id"`
	Type          MovementType `json:"type"`
	Qty           float64      `json:"qty"`
	UnitCost      float64      `json:"unit_cost"`
	ReferenceID   string       `json:"reference_id"`
	ReferenceType string       `json:"reference_type"`
	Note          string       `json:"note,omitempty"`
	// AppliedCost is the unit cost the movement was valued at.
	AppliedCost float64   `json:"applied_cost"`
	QtyAfter    float64   `json:"qty_after"`
	CostAfter   float64   `json:"cost_after"`
	PostedAt    time.Time `json:"posted_at"`
	CreatedBy   int64     `json:"created_by,omitempty"`
}

func (m Movement) Key() MovementKey {
	return MovementKey{ItemID: m.ItemID, Type: m.Type, ReferenceID: m.ReferenceID, ReferenceType: m.ReferenceType}
}

// MovementInput is the request to apply one movement.
type MovementInput struct {
	ItemID        int64
	Type          MovementType
	Qty           float64
	UnitCost      float64
	ReferenceID   string
	ReferenceType string
	Note          string
	ActorID       int64
}

// MovementResult reports the item state after ApplyMovement. Duplicate is
// set when the key had already been applied and nothing changed.
type MovementResult struct {
	Item      Item     `json:"item"`
	Movement  Movement `json:"movement"`
	Duplicate bool     `json:"duplicate"`
}

var (
	// ErrNegativeStock triggered when movement would result negative qty.
	ErrNegativeStock = errors.New("inventory: negative stock not allowed")
	// ErrInvalidQuantity indicates invalid qty.
	ErrInvalidQuantity = errors.New("inventory: quantity must be positive")
	// ErrInvalidUnitCost indicates invalid cost value.
	ErrInvalidUnitCost = errors.New("inventory: unit cost must be >= 0")
	ErrInvalidMovement = errors.New("inventory: unknown movement type")
	ErrMissingRef      = errors.New("inventory: reference id and type required")
	ErrItemNotFound    = errors.New("inventory: item not found")
)
