package commerce

import (
	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/shared"
)

// Aggregate type constants
const (
	AggregateTypeOrder   = "Order"
	AggregateTypePayment = "Payment"
	AggregateTypeRefund  = "Refund"
)

// Event type constants
const (
	EventTypeOrderPlaced               = "OrderPlaced"
	EventTypeOrderStatusChanged        = "OrderStatusChanged"
	EventTypeOrderPaymentStatusChanged = "OrderPaymentStatusChanged"
	EventTypePaymentRecorded           = "PaymentRecorded"
	EventTypeRefundStatusChanged       = "RefundStatusChanged"
	EventTypeRefundDeleted             = "RefundDeleted"
)

// OrderPlacedEvent is published when an order is created
type OrderPlacedEvent struct {
	shared.BaseDomainEvent
	OrderID    uuid.UUID `json:"order_id"`
	TotalCents int64     `json:"total_cents"`
	ItemCount  int       `json:"item_count"`
}

// NewOrderPlacedEvent creates an OrderPlacedEvent
func NewOrderPlacedEvent(o *Order) *OrderPlacedEvent {
	return &OrderPlacedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPlaced, AggregateTypeOrder, o.ID, o.OwnerID),
		OrderID:         o.ID,
		TotalCents:      o.TotalCents,
		ItemCount:       len(o.Items),
	}
}

// OrderStatusChangedEvent is published when an order moves along its lifecycle
type OrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	OrderID uuid.UUID   `json:"order_id"`
	From    OrderStatus `json:"from"`
	To      OrderStatus `json:"to"`
}

// NewOrderStatusChangedEvent creates an OrderStatusChangedEvent
func NewOrderStatusChangedEvent(o *Order, from OrderStatus) *OrderStatusChangedEvent {
	return &OrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderStatusChanged, AggregateTypeOrder, o.ID, o.OwnerID),
		OrderID:         o.ID,
		From:            from,
		To:              o.Status,
	}
}

// OrderPaymentStatusChangedEvent is published when the payment projection changes
type OrderPaymentStatusChangedEvent struct {
	shared.BaseDomainEvent
	OrderID uuid.UUID          `json:"order_id"`
	From    OrderPaymentStatus `json:"from"`
	To      OrderPaymentStatus `json:"to"`
}

// NewOrderPaymentStatusChangedEvent creates an OrderPaymentStatusChangedEvent
func NewOrderPaymentStatusChangedEvent(o *Order, from OrderPaymentStatus) *OrderPaymentStatusChangedEvent {
	return &OrderPaymentStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPaymentStatusChanged, AggregateTypeOrder, o.ID, o.OwnerID),
		OrderID:         o.ID,
		From:            from,
		To:              o.PaymentStatus,
	}
}

// PaymentRecordedEvent is published when a payment is created or changed
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	PaymentID   uuid.UUID        `json:"payment_id"`
	OrderID     uuid.UUID        `json:"order_id"`
	Direction   PaymentDirection `json:"direction"`
	Status      PaymentStatus    `json:"status"`
	AmountCents int64            `json:"amount_cents"`
}

// NewPaymentRecordedEvent creates a PaymentRecordedEvent
func NewPaymentRecordedEvent(p *Payment) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRecorded, AggregateTypePayment, p.ID, p.OwnerID),
		PaymentID:       p.ID,
		OrderID:         p.OrderID,
		Direction:       p.Direction,
		Status:          p.Status,
		AmountCents:     p.AmountCents,
	}
}

// RefundStatusChangedEvent is published when a refund is created or changes status
type RefundStatusChangedEvent struct {
	shared.BaseDomainEvent
	RefundID    uuid.UUID    `json:"refund_id"`
	OrderID     uuid.UUID    `json:"order_id"`
	From        RefundStatus `json:"from,omitempty"`
	To          RefundStatus `json:"to"`
	AmountCents int64        `json:"amount_cents"`
}

// NewRefundStatusChangedEvent creates a RefundStatusChangedEvent
func NewRefundStatusChangedEvent(r *Refund, from RefundStatus) *RefundStatusChangedEvent {
	return &RefundStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRefundStatusChanged, AggregateTypeRefund, r.ID, r.OwnerID),
		RefundID:        r.ID,
		OrderID:         r.OrderID,
		From:            from,
		To:              r.Status,
		AmountCents:     r.AmountCents,
	}
}

// RefundDeletedEvent is published after a refund is removed
type RefundDeletedEvent struct {
	shared.BaseDomainEvent
	RefundID uuid.UUID `json:"refund_id"`
	OrderID  uuid.UUID `json:"order_id"`
}

// NewRefundDeletedEvent creates a RefundDeletedEvent
func NewRefundDeletedEvent(r *Refund) *RefundDeletedEvent {
	return &RefundDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRefundDeleted, AggregateTypeRefund, r.ID, r.OwnerID),
		RefundID:        r.ID,
		OrderID:         r.OrderID,
	}
}
