package inventory

import (
	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/shared"
)

// Direction is the sign of a stock delta
type Direction int

const (
	Increase Direction = 1
	Decrease Direction = -1
)

// StockTarget addresses a stock column: the variant's when VariantID is set,
// otherwise the product's.
type StockTarget struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
}

// IsVariant reports whether the target is a variant stock column
func (t StockTarget) IsVariant() bool {
	return t.VariantID != nil && *t.VariantID != uuid.Nil
}

// StockDelta is a signed quantity change on one stock column
type StockDelta struct {
	Target    StockTarget
	Qty       int64
	Direction Direction
}

// Validate checks the delta is well formed
func (d StockDelta) Validate() error {
	if d.Target.ProductID == uuid.Nil {
		return shared.NewValidationError("stock target requires a productId")
	}
	if d.Qty <= 0 {
		return shared.NewValidationError("stock delta qty must be positive")
	}
	if d.Direction != Increase && d.Direction != Decrease {
		return shared.NewValidationError("stock delta direction must be +1 or -1")
	}
	return nil
}

// Signed returns Qty with the direction applied
func (d StockDelta) Signed() int64 {
	return int64(d.Direction) * d.Qty
}

// Inverse returns the delta that undoes d
func (d StockDelta) Inverse() StockDelta {
	d.Direction = -d.Direction
	return d
}
