package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/commerce"
)

// OrderModel is the persistence model for the Order aggregate root.
// Customer and shipping snapshots are stored as JSON documents.
type OrderModel struct {
	AggregateModel
	OwnerID           uuid.UUID                   `gorm:"type:uuid;not null;index"`
	Status            commerce.OrderStatus        `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	PaymentStatus     commerce.OrderPaymentStatus `gorm:"type:varchar(20);not null;default:'UNPAID';index"`
	FulfillmentStatus commerce.FulfillmentStatus  `gorm:"type:varchar(20);not null;default:'UNFULFILLED'"`
	Currency          string                      `gorm:"type:varchar(3);not null"`
	SubtotalCents     int64                       `gorm:"not null;default:0"`
	DiscountCents     int64                       `gorm:"not null;default:0"`
	ShippingCents     int64                       `gorm:"not null;default:0"`
	TaxCents          int64                       `gorm:"not null;default:0"`
	TotalCents        int64                       `gorm:"not null;default:0"`
	Customer          commerce.CustomerSnapshot   `gorm:"type:jsonb;serializer:json;not null"`
	ShipTo            commerce.Address            `gorm:"column:ship_to;type:jsonb;serializer:json;not null"`
	PlacedAt          time.Time                   `gorm:"not null;index"`
	DeliveredAt       *time.Time                  `gorm:"index"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order without items.
func (m *OrderModel) ToDomain() *commerce.Order {
	return &commerce.Order{
		OwnedAggregateRoot: m.ownedRoot(m.OwnerID),
		Status:             m.Status,
		PaymentStatus:      m.PaymentStatus,
		FulfillmentStatus:  m.FulfillmentStatus,
		Currency:           m.Currency,
		SubtotalCents:      m.SubtotalCents,
		DiscountCents:      m.DiscountCents,
		ShippingCents:      m.ShippingCents,
		TaxCents:           m.TaxCents,
		TotalCents:         m.TotalCents,
		Customer:           m.Customer,
		ShipTo:             m.ShipTo,
		PlacedAt:           m.PlacedAt.UTC(),
		DeliveredAt:        utcPtr(m.DeliveredAt),
	}
}

// FromDomain populates the persistence model from a domain Order.
func (m *OrderModel) FromDomain(o *commerce.Order) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.OwnerID = o.OwnerID
	m.Status = o.Status
	m.PaymentStatus = o.PaymentStatus
	m.FulfillmentStatus = o.FulfillmentStatus
	m.Currency = o.Currency
	m.SubtotalCents = o.SubtotalCents
	m.DiscountCents = o.DiscountCents
	m.ShippingCents = o.ShippingCents
	m.TaxCents = o.TaxCents
	m.TotalCents = o.TotalCents
	m.Customer = o.Customer
	m.ShipTo = o.ShipTo
	m.PlacedAt = o.PlacedAt
	m.DeliveredAt = o.DeliveredAt
}

// OrderModelFromDomain creates a new persistence model from a domain Order.
func OrderModelFromDomain(o *commerce.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}

// OrderItemModel is the persistence model for an order line. Position keeps
// the lines in the order they were placed.
type OrderItemModel struct {
	BaseModel
	OrderID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	Position       int        `gorm:"not null;default:0"`
	ProductID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	VariantID      *uuid.UUID `gorm:"type:uuid;index"`
	SKU            string     `gorm:"column:sku;type:varchar(64);not null"`
	Name           string     `gorm:"type:varchar(420);not null"`
	Qty            int64      `gorm:"not null;check:chk_order_items_qty,qty > 0"`
	UnitPriceCents int64      `gorm:"not null;default:0"`
	UnitCostCents  int64      `gorm:"not null;default:0"`
	TotalCents     int64      `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the persistence model to a domain OrderItem.
func (m *OrderItemModel) ToDomain() commerce.OrderItem {
	return commerce.OrderItem{
		BaseEntity:     m.BaseModel.ToDomain(),
		OrderID:        m.OrderID,
		ProductID:      m.ProductID,
		VariantID:      m.VariantID,
		SKU:            m.SKU,
		Name:           m.Name,
		Qty:            m.Qty,
		UnitPriceCents: m.UnitPriceCents,
		UnitCostCents:  m.UnitCostCents,
		TotalCents:     m.TotalCents,
	}
}

// FromDomain populates the persistence model from a domain OrderItem.
func (m *OrderItemModel) FromDomain(i *commerce.OrderItem) {
	m.FromDomainBaseEntity(i.BaseEntity)
	m.OrderID = i.OrderID
	m.ProductID = i.ProductID
	m.VariantID = i.VariantID
	m.SKU = i.SKU
	m.Name = i.Name
	m.Qty = i.Qty
	m.UnitPriceCents = i.UnitPriceCents
	m.UnitCostCents = i.UnitCostCents
	m.TotalCents = i.TotalCents
}

// PaymentModel is the persistence model for the Payment aggregate root.
// The idempotency key is unique per owner through a partial index; rows
// without a key never collide.
type PaymentModel struct {
	AggregateModel
	OwnerID        uuid.UUID                 `gorm:"type:uuid;not null;index;uniqueIndex:idx_payments_owner_idempotency_key,priority:1,where:idempotency_key IS NOT NULL"`
	OrderID        uuid.UUID                 `gorm:"type:uuid;not null;index"`
	Direction      commerce.PaymentDirection `gorm:"type:varchar(10);not null"`
	Status         commerce.PaymentStatus    `gorm:"type:varchar(20);not null"`
	Method         string                    `gorm:"type:varchar(50);not null;default:''"`
	Provider       string                    `gorm:"type:varchar(50);not null;default:''"`
	AmountCents    int64                     `gorm:"not null;check:chk_payments_amount,amount_cents > 0"`
	Currency       string                    `gorm:"type:varchar(3);not null"`
	OccurredAt     time.Time                 `gorm:"not null;index"`
	IdempotencyKey *string                   `gorm:"type:varchar(128);uniqueIndex:idx_payments_owner_idempotency_key,priority:2"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment.
func (m *PaymentModel) ToDomain() *commerce.Payment {
	return &commerce.Payment{
		OwnedAggregateRoot: m.ownedRoot(m.OwnerID),
		OrderID:            m.OrderID,
		Direction:          m.Direction,
		Status:             m.Status,
		Method:             m.Method,
		Provider:           m.Provider,
		AmountCents:        m.AmountCents,
		Currency:           m.Currency,
		OccurredAt:         m.OccurredAt.UTC(),
		IdempotencyKey:     m.IdempotencyKey,
	}
}

// FromDomain populates the persistence model from a domain Payment.
func (m *PaymentModel) FromDomain(p *commerce.Payment) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.OwnerID = p.OwnerID
	m.OrderID = p.OrderID
	m.Direction = p.Direction
	m.Status = p.Status
	m.Method = p.Method
	m.Provider = p.Provider
	m.AmountCents = p.AmountCents
	m.Currency = p.Currency
	m.OccurredAt = p.OccurredAt
	m.IdempotencyKey = p.IdempotencyKey
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment.
func PaymentModelFromDomain(p *commerce.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(p)
	return m
}

// RefundModel is the persistence model for the Refund aggregate root.
type RefundModel struct {
	AggregateModel
	OwnerID           uuid.UUID             `gorm:"type:uuid;not null;index"`
	OrderID           uuid.UUID             `gorm:"type:uuid;not null;index"`
	OriginalPaymentID uuid.UUID             `gorm:"type:uuid;not null;index"`
	RefundPaymentID   *uuid.UUID            `gorm:"type:uuid"`
	Status            commerce.RefundStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	Reason            string                `gorm:"type:text;not null;default:''"`
	AmountCents       int64                 `gorm:"not null;check:chk_refunds_amount,amount_cents > 0"`
	RequestedAt       time.Time             `gorm:"not null;index"`
	ApprovedAt        *time.Time
	ProcessedAt       *time.Time
	CompletedAt       *time.Time
}

// TableName returns the table name for GORM
func (RefundModel) TableName() string {
	return "refunds"
}

// ToDomain converts the persistence model to a domain Refund without items.
func (m *RefundModel) ToDomain() *commerce.Refund {
	return &commerce.Refund{
		OwnedAggregateRoot: m.ownedRoot(m.OwnerID),
		OrderID:            m.OrderID,
		OriginalPaymentID:  m.OriginalPaymentID,
		RefundPaymentID:    m.RefundPaymentID,
		Status:             m.Status,
		Reason:             m.Reason,
		AmountCents:        m.AmountCents,
		RequestedAt:        m.RequestedAt.UTC(),
		ApprovedAt:         utcPtr(m.ApprovedAt),
		ProcessedAt:        utcPtr(m.ProcessedAt),
		CompletedAt:        utcPtr(m.CompletedAt),
	}
}

// FromDomain populates the persistence model from a domain Refund.
func (m *RefundModel) FromDomain(r *commerce.Refund) {
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	m.OwnerID = r.OwnerID
	m.OrderID = r.OrderID
	m.OriginalPaymentID = r.OriginalPaymentID
	m.RefundPaymentID = r.RefundPaymentID
	m.Status = r.Status
	m.Reason = r.Reason
	m.AmountCents = r.AmountCents
	m.RequestedAt = r.RequestedAt
	m.ApprovedAt = r.ApprovedAt
	m.ProcessedAt = r.ProcessedAt
	m.CompletedAt = r.CompletedAt
}

// RefundModelFromDomain creates a new persistence model from a domain Refund.
func RefundModelFromDomain(r *commerce.Refund) *RefundModel {
	m := &RefundModel{}
	m.FromDomain(r)
	return m
}

// RefundItemModel is the persistence model for a refund allocation line.
type RefundItemModel struct {
	BaseModel
	RefundID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	Position    int        `gorm:"not null;default:0"`
	OrderItemID *uuid.UUID `gorm:"type:uuid;index"`
	Qty         int64      `gorm:"not null;default:1"`
	AmountCents int64      `gorm:"not null"`
}

// TableName returns the table name for GORM
func (RefundItemModel) TableName() string {
	return "refund_items"
}

// ToDomain converts the persistence model to a domain RefundItem.
func (m *RefundItemModel) ToDomain() commerce.RefundItem {
	return commerce.RefundItem{
		BaseEntity:  m.BaseModel.ToDomain(),
		RefundID:    m.RefundID,
		OrderItemID: m.OrderItemID,
		Qty:         m.Qty,
		AmountCents: m.AmountCents,
	}
}

// FromDomain populates the persistence model from a domain RefundItem.
func (m *RefundItemModel) FromDomain(i *commerce.RefundItem) {
	m.FromDomainBaseEntity(i.BaseEntity)
	m.RefundID = i.RefundID
	m.OrderItemID = i.OrderItemID
	m.Qty = i.Qty
	m.AmountCents = i.AmountCents
}
