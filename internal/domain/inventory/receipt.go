package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/shared"
)

// ReceiptStatus is the lifecycle state of an inventory receipt
type ReceiptStatus string

const (
	ReceiptStatusDraft     ReceiptStatus = "DRAFT"
	ReceiptStatusReceived  ReceiptStatus = "RECEIVED"
	ReceiptStatusCancelled ReceiptStatus = "CANCELLED"
)

// IsValid reports whether s is a known status
func (s ReceiptStatus) IsValid() bool {
	switch s {
	case ReceiptStatusDraft, ReceiptStatusReceived, ReceiptStatusCancelled:
		return true
	}
	return false
}

// receiptTransitions lists the allowed targets for each status
var receiptTransitions = map[ReceiptStatus][]ReceiptStatus{
	ReceiptStatusDraft:     {ReceiptStatusReceived, ReceiptStatusCancelled},
	ReceiptStatusReceived:  {ReceiptStatusDraft, ReceiptStatusCancelled},
	ReceiptStatusCancelled: {},
}

// CanTransitionTo reports whether the state machine allows s -> next
func (s ReceiptStatus) CanTransitionTo(next ReceiptStatus) bool {
	for _, allowed := range receiptTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// StockEffect is what a status change does to on-hand stock
type StockEffect int

const (
	StockEffectNone StockEffect = iota
	// StockEffectApply adds every item quantity to stock
	StockEffectApply
	// StockEffectRevert removes every item quantity from stock
	StockEffectRevert
)

// InventoryReceipt records inventory received from a supplier
type InventoryReceipt struct {
	shared.OwnedAggregateRoot
	Status        ReceiptStatus
	SupplierID    *uuid.UUID
	Currency      string
	Reference     string
	Notes         string
	ReceivedAt    *time.Time
	SubtotalCents int64
	TaxCents      int64
	TotalCents    int64

	// Items is populated only when loaded with items
	Items []InventoryReceiptItem
}

// NewInventoryReceipt creates a DRAFT receipt with no items
func NewInventoryReceipt(ownerID uuid.UUID, currency string, taxCents int64) (*InventoryReceipt, error) {
	if ownerID == uuid.Nil {
		return nil, shared.ErrUnauthorized
	}
	if taxCents < 0 {
		return nil, shared.NewValidationError("taxCents cannot be negative")
	}
	r := &InventoryReceipt{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(ownerID),
		Status:             ReceiptStatusDraft,
		Currency:           currency,
		TaxCents:           taxCents,
		TotalCents:         taxCents,
	}
	r.AddDomainEvent(NewReceiptEvent(r, EventTypeReceiptCreated))
	return r, nil
}

// IsReceived reports whether the receipt's items currently count toward stock
func (r *InventoryReceipt) IsReceived() bool {
	return r.Status == ReceiptStatusReceived
}

// EnsureItemsEditable fails unless items may be added, edited or removed
func (r *InventoryReceipt) EnsureItemsEditable() error {
	if r.Status != ReceiptStatusDraft && r.Status != ReceiptStatusReceived {
		return shared.NewInvalidStateError(fmt.Sprintf("items cannot be changed on a %s receipt", r.Status))
	}
	return nil
}

// UpdateDetails applies header edits. Nil arguments are left untouched.
func (r *InventoryReceipt) UpdateDetails(supplierID *uuid.UUID, currency, reference, notes *string, receivedAt *time.Time) {
	if supplierID != nil {
		if *supplierID == uuid.Nil {
			r.SupplierID = nil
		} else {
			id := *supplierID
			r.SupplierID = &id
		}
	}
	if currency != nil {
		r.Currency = *currency
	}
	if reference != nil {
		r.Reference = strings.TrimSpace(*reference)
	}
	if notes != nil {
		r.Notes = *notes
	}
	if receivedAt != nil {
		at := receivedAt.UTC()
		r.ReceivedAt = &at
	}
	r.Touch()
}

// SetTax changes the tax and recomputes the total without touching items
func (r *InventoryReceipt) SetTax(taxCents int64) error {
	if taxCents < 0 {
		return shared.NewValidationError("taxCents cannot be negative")
	}
	r.TaxCents = taxCents
	r.TotalCents = r.SubtotalCents + r.TaxCents
	r.Touch()
	return nil
}

// RecalculateTotals sets the subtotal to the sum of the given item totals
func (r *InventoryReceipt) RecalculateTotals(items []InventoryReceiptItem) {
	var subtotal int64
	for i := range items {
		subtotal += items[i].TotalCents
	}
	r.SubtotalCents = subtotal
	r.TotalCents = subtotal + r.TaxCents
	r.Touch()
}

// TransitionTo moves the receipt to next and reports the stock effect the
// caller must apply to every item. Moving to the current status is a no-op.
func (r *InventoryReceipt) TransitionTo(next ReceiptStatus) (StockEffect, error) {
	if !next.IsValid() {
		return StockEffectNone, shared.NewValidationError(fmt.Sprintf("unknown receipt status %q", next))
	}
	if next == r.Status {
		return StockEffectNone, nil
	}
	if !r.Status.CanTransitionTo(next) {
		return StockEffectNone, shared.NewInvalidStateError(
			fmt.Sprintf("receipt cannot move from %s to %s", r.Status, next))
	}

	effect := StockEffectNone
	switch {
	case next == ReceiptStatusReceived:
		effect = StockEffectApply
		if r.ReceivedAt == nil {
			now := shared.Now()
			r.ReceivedAt = &now
		}
	case r.Status == ReceiptStatusReceived:
		effect = StockEffectRevert
	}

	from := r.Status
	r.Status = next
	r.Touch()
	r.AddDomainEvent(NewReceiptStatusChangedEvent(r, from))
	return effect, nil
}

// InventoryReceiptItem is one received line
type InventoryReceiptItem struct {
	shared.BaseEntity
	OwnerID       uuid.UUID
	ReceiptID     uuid.UUID
	ProductID     uuid.UUID
	VariantID     *uuid.UUID
	Position      int
	Qty           int64
	UnitCostCents int64
	TotalCents    int64
}

// NewInventoryReceiptItem creates a line on receipt at the given position
func NewInventoryReceiptItem(receipt *InventoryReceipt, productID uuid.UUID, variantID *uuid.UUID, qty, unitCostCents int64, position int) (*InventoryReceiptItem, error) {
	if receipt == nil {
		return nil, shared.NewValidationError("receipt is required")
	}
	item := &InventoryReceiptItem{
		BaseEntity: shared.NewBaseEntity(),
		OwnerID:    receipt.OwnerID,
		ReceiptID:  receipt.ID,
		Position:   position,
	}
	if err := item.Revise(productID, variantID, qty, unitCostCents); err != nil {
		return nil, err
	}
	return item, nil
}

// Revise replaces the line's product, variant, quantity and unit cost and
// recomputes its total
func (i *InventoryReceiptItem) Revise(productID uuid.UUID, variantID *uuid.UUID, qty, unitCostCents int64) error {
	if productID == uuid.Nil {
		return shared.NewValidationError("productId is required")
	}
	if qty <= 0 {
		return shared.NewValidationError("qty must be greater than zero")
	}
	if unitCostCents < 0 {
		return shared.NewValidationError("unitCostCents cannot be negative")
	}
	i.ProductID = productID
	i.VariantID = nil
	if variantID != nil && *variantID != uuid.Nil {
		v := *variantID
		i.VariantID = &v
	}
	i.Qty = qty
	i.UnitCostCents = unitCostCents
	i.TotalCents = qty * unitCostCents
	i.Touch()
	return nil
}

// StockDelta returns the delta that applies (Increase) or reverts (Decrease) this line
func (i *InventoryReceiptItem) StockDelta(direction Direction) StockDelta {
	return StockDelta{
		Target:    StockTarget{ProductID: i.ProductID, VariantID: i.VariantID},
		Qty:       i.Qty,
		Direction: direction,
	}
}
