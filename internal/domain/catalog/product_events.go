package catalog

import (
	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeProduct = "Product"

// Event type constants
const (
	EventTypeProductCreated     = "ProductCreated"
	EventTypeProductUpdated     = "ProductUpdated"
	EventTypeProductDeactivated = "ProductDeactivated"
)

// ProductChangedEvent is published when a product is created, edited or soft-deleted
type ProductChangedEvent struct {
	shared.BaseDomainEvent
	ProductID  uuid.UUID `json:"product_id"`
	SKU        string    `json:"sku"`
	PriceCents int64     `json:"price_cents"`
	CostCents  int64     `json:"cost_cents"`
	IsActive   bool      `json:"is_active"`
}

// NewProductChangedEvent creates a new ProductChangedEvent of the given type
func NewProductChangedEvent(p *Product, eventType string) *ProductChangedEvent {
	return &ProductChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeProduct, p.ID, p.OwnerID),
		ProductID:       p.ID,
		SKU:             p.SKU,
		PriceCents:      p.PriceCents,
		CostCents:       p.CostCents,
		IsActive:        p.IsActive,
	}
}
