package commerce

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/shared"
)

// OrderStatus is the sale lifecycle of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusConfirmed  OrderStatus = "CONFIRMED"
	OrderStatusDelivering OrderStatus = "DELIVERING"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

// IsValid reports whether s is a known status
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusDelivering, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusDelivering, OrderStatusCancelled},
	OrderStatusDelivering: {OrderStatusDelivered},
}

// SaleStatuses are the in-flight or delivered states whose lines count as sold
var SaleStatuses = []OrderStatus{OrderStatusConfirmed, OrderStatusDelivering, OrderStatusDelivered}

// RevenueStatuses are the states whose totals count as revenue
var RevenueStatuses = []OrderStatus{OrderStatusDelivering, OrderStatusDelivered}

// OrderPaymentStatus is the payment projection kept on an order
type OrderPaymentStatus string

const (
	OrderPaymentUnpaid   OrderPaymentStatus = "UNPAID"
	OrderPaymentPaid     OrderPaymentStatus = "PAID"
	OrderPaymentRefunded OrderPaymentStatus = "REFUNDED"
)

// FulfillmentStatus tracks shipping progress
type FulfillmentStatus string

const (
	FulfillmentUnfulfilled FulfillmentStatus = "UNFULFILLED"
	FulfillmentShipped     FulfillmentStatus = "SHIPPED"
	FulfillmentDelivered   FulfillmentStatus = "DELIVERED"
)

// CustomerSnapshot is the customer as known when the order was placed
type CustomerSnapshot struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Address is a shipping address snapshot
type Address struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

// Order is a customer order with its lines and money totals
type Order struct {
	shared.OwnedAggregateRoot
	Status            OrderStatus
	PaymentStatus     OrderPaymentStatus
	FulfillmentStatus FulfillmentStatus
	Currency          string
	SubtotalCents     int64
	DiscountCents     int64
	ShippingCents     int64
	TaxCents          int64
	TotalCents        int64
	Customer          CustomerSnapshot
	ShipTo            Address
	PlacedAt          time.Time
	DeliveredAt       *time.Time
	Items             []OrderItem
}

// OrderItem is an order line with the product identity, price and cost
// captured at the time of sale
type OrderItem struct {
	shared.BaseEntity
	OrderID        uuid.UUID
	ProductID      uuid.UUID
	VariantID      *uuid.UUID
	SKU            string
	Name           string
	Qty            int64
	UnitPriceCents int64
	UnitCostCents  int64
	TotalCents     int64
}

// OrderLine is a resolved order line used to place an order
type OrderLine struct {
	ProductID      uuid.UUID
	VariantID      *uuid.UUID
	SKU            string
	Name           string
	Qty            int64
	UnitPriceCents int64
	UnitCostCents  int64
}

// OrderCharges are the order-level adjustments on top of the line subtotal
type OrderCharges struct {
	DiscountCents int64
	ShippingCents int64
	TaxCents      int64
}

// NewOrder places a PENDING, UNPAID, UNFULFILLED order
func NewOrder(ownerID uuid.UUID, currency string, lines []OrderLine, charges OrderCharges, customer CustomerSnapshot, shipTo Address) (*Order, error) {
	if ownerID == uuid.Nil {
		return nil, shared.ErrUnauthorized
	}
	if len(lines) == 0 {
		return nil, shared.NewValidationError("order requires at least one item")
	}
	if charges.DiscountCents < 0 || charges.ShippingCents < 0 || charges.TaxCents < 0 {
		return nil, shared.NewValidationError("discount, shipping and tax cannot be negative")
	}

	o := &Order{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(ownerID),
		Status:             OrderStatusPending,
		PaymentStatus:      OrderPaymentUnpaid,
		FulfillmentStatus:  FulfillmentUnfulfilled,
		Currency:           currency,
		DiscountCents:      charges.DiscountCents,
		ShippingCents:      charges.ShippingCents,
		TaxCents:           charges.TaxCents,
		Customer:           customer,
		ShipTo:             shipTo,
	}
	o.PlacedAt = o.CreatedAt

	o.Items = make([]OrderItem, 0, len(lines))
	for idx, line := range lines {
		if line.ProductID == uuid.Nil {
			return nil, shared.NewValidationError(fmt.Sprintf("items[%d].productId is required", idx))
		}
		if line.Qty <= 0 {
			return nil, shared.NewValidationError(fmt.Sprintf("items[%d].qty must be greater than zero", idx))
		}
		if line.UnitPriceCents < 0 {
			return nil, shared.NewValidationError(fmt.Sprintf("items[%d].unitPriceCents cannot be negative", idx))
		}
		item := OrderItem{
			BaseEntity:     shared.NewBaseEntity(),
			OrderID:        o.ID,
			ProductID:      line.ProductID,
			VariantID:      line.VariantID,
			SKU:            line.SKU,
			Name:           line.Name,
			Qty:            line.Qty,
			UnitPriceCents: line.UnitPriceCents,
			UnitCostCents:  line.UnitCostCents,
			TotalCents:     line.Qty * line.UnitPriceCents,
		}
		o.SubtotalCents += item.TotalCents
		o.Items = append(o.Items, item)
	}

	o.TotalCents = o.SubtotalCents - o.DiscountCents + o.ShippingCents + o.TaxCents
	if o.TotalCents < 0 {
		return nil, shared.NewValidationError("discount exceeds the order amount")
	}

	o.AddDomainEvent(NewOrderPlacedEvent(o))
	return o, nil
}

// TransitionTo moves the order along its sale lifecycle. at overrides the
// delivery timestamp when moving to DELIVERED.
func (o *Order) TransitionTo(next OrderStatus, at *time.Time) error {
	if !next.IsValid() {
		return shared.NewValidationError(fmt.Sprintf("unknown order status %q", next))
	}
	if next == o.Status {
		return nil
	}
	allowed := false
	for _, s := range orderTransitions[o.Status] {
		if s == next {
			allowed = true
			break
		}
	}
	if !allowed {
		return shared.NewInvalidStateError(fmt.Sprintf("order cannot move from %s to %s", o.Status, next))
	}

	switch next {
	case OrderStatusDelivering:
		o.FulfillmentStatus = FulfillmentShipped
	case OrderStatusDelivered:
		o.FulfillmentStatus = FulfillmentDelivered
		delivered := shared.Now()
		if at != nil {
			delivered = at.UTC()
		}
		o.DeliveredAt = &delivered
	}

	from := o.Status
	o.Status = next
	o.Touch()
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, from))
	return nil
}

// ProjectPaymentStatus sets the payment projection and reports whether it changed
func (o *Order) ProjectPaymentStatus(status OrderPaymentStatus) bool {
	if o.PaymentStatus == status {
		return false
	}
	from := o.PaymentStatus
	o.PaymentStatus = status
	o.Touch()
	o.AddDomainEvent(NewOrderPaymentStatusChangedEvent(o, from))
	return true
}

// FindItem returns the order line with the given id
func (o *Order) FindItem(id uuid.UUID) (*OrderItem, bool) {
	for i := range o.Items {
		if o.Items[i].ID == id {
			return &o.Items[i], true
		}
	}
	return nil, false
}
