package inventory

import (
	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/shared"
)

// Aggregate type constants
const (
	AggregateTypeReceipt = "InventoryReceipt"
	AggregateTypeStock   = "Stock"
)

// Event type constants
const (
	EventTypeReceiptCreated       = "InventoryReceiptCreated"
	EventTypeReceiptUpdated       = "InventoryReceiptUpdated"
	EventTypeReceiptDeleted       = "InventoryReceiptDeleted"
	EventTypeReceiptStatusChanged = "InventoryReceiptStatusChanged"
	EventTypeStockChanged         = "StockChanged"
)

// ReceiptEvent carries a receipt's header totals
type ReceiptEvent struct {
	shared.BaseDomainEvent
	ReceiptID     uuid.UUID     `json:"receipt_id"`
	Status        ReceiptStatus `json:"status"`
	SubtotalCents int64         `json:"subtotal_cents"`
	TotalCents    int64         `json:"total_cents"`
}

// NewReceiptEvent creates a ReceiptEvent of the given type
func NewReceiptEvent(r *InventoryReceipt, eventType string) *ReceiptEvent {
	return &ReceiptEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeReceipt, r.ID, r.OwnerID),
		ReceiptID:       r.ID,
		Status:          r.Status,
		SubtotalCents:   r.SubtotalCents,
		TotalCents:      r.TotalCents,
	}
}

// ReceiptStatusChangedEvent is published when a receipt changes status
type ReceiptStatusChangedEvent struct {
	shared.BaseDomainEvent
	ReceiptID uuid.UUID     `json:"receipt_id"`
	From      ReceiptStatus `json:"from"`
	To        ReceiptStatus `json:"to"`
}

// NewReceiptStatusChangedEvent creates a ReceiptStatusChangedEvent
func NewReceiptStatusChangedEvent(r *InventoryReceipt, from ReceiptStatus) *ReceiptStatusChangedEvent {
	return &ReceiptStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReceiptStatusChanged, AggregateTypeReceipt, r.ID, r.OwnerID),
		ReceiptID:       r.ID,
		From:            from,
		To:              r.Status,
	}
}

// StockChangedEvent is published for every applied stock delta
type StockChangedEvent struct {
	shared.BaseDomainEvent
	ProductID  uuid.UUID  `json:"product_id"`
	VariantID  *uuid.UUID `json:"variant_id,omitempty"`
	Delta      int64      `json:"delta"`
	StockAfter int64      `json:"stock_after"`
}

// NewStockChangedEvent creates a StockChangedEvent
func NewStockChangedEvent(ownerID uuid.UUID, d StockDelta, stockAfter int64) *StockChangedEvent {
	aggID := d.Target.ProductID
	if d.Target.IsVariant() {
		aggID = *d.Target.VariantID
	}
	return &StockChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockChanged, AggregateTypeStock, aggID, ownerID),
		ProductID:       d.Target.ProductID,
		VariantID:       d.Target.VariantID,
		Delta:           d.Signed(),
		StockAfter:      stockAfter,
	}
}
