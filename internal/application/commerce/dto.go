package commerce

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/commerce"
)

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

// CreateOrderRequest places an order
type CreateOrderRequest struct {
	Currency      string                   `json:"currency" binding:"omitempty,len=3"`
	Items         []CreateOrderItemRequest `json:"items" binding:"required,min=1,dive"`
	DiscountCents int64                    `json:"discountCents" binding:"gte=0"`
	ShippingCents int64                    `json:"shippingCents" binding:"gte=0"`
	TaxCents      int64                    `json:"taxCents" binding:"gte=0"`
	Customer      CustomerRequest          `json:"customer"`
	ShipTo        AddressRequest           `json:"shipTo"`
}

// CreateOrderItemRequest is one requested order line. UnitPriceCents
// defaults to the catalog price.
type CreateOrderItemRequest struct {
	ProductID      uuid.UUID  `json:"productId" binding:"required"`
	VariantID      *uuid.UUID `json:"variantId"`
	Qty            int64      `json:"qty" binding:"gt=0"`
	UnitPriceCents *int64     `json:"unitPriceCents" binding:"omitempty,gte=0"`
}

// CustomerRequest is the customer snapshot of an order
type CustomerRequest struct {
	Name  string `json:"name" binding:"max=200"`
	Email string `json:"email" binding:"omitempty,email,max=200"`
	Phone string `json:"phone" binding:"max=50"`
}

// AddressRequest is the shipping address snapshot of an order
type AddressRequest struct {
	Name       string `json:"name" binding:"max=200"`
	Line1      string `json:"line1" binding:"max=200"`
	Line2      string `json:"line2" binding:"max=200"`
	City       string `json:"city" binding:"max=100"`
	Region     string `json:"region" binding:"max=100"`
	PostalCode string `json:"postalCode" binding:"max=20"`
	Country    string `json:"country" binding:"max=100"`
	Phone      string `json:"phone" binding:"max=50"`
}

// UpdateOrderStatusRequest moves an order along its lifecycle
type UpdateOrderStatusRequest struct {
	Status      string     `json:"status" binding:"required,oneof=PENDING CONFIRMED DELIVERING DELIVERED CANCELLED"`
	DeliveredAt *time.Time `json:"deliveredAt"`
}

// OrderListFilter is the query of an order listing
type OrderListFilter struct {
	Status        string `form:"status" binding:"omitempty,oneof=PENDING CONFIRMED DELIVERING DELIVERED CANCELLED"`
	PaymentStatus string `form:"paymentStatus" binding:"omitempty,oneof=UNPAID PAID REFUNDED"`
	Cursor        string `form:"cursor"`
	Limit         int    `form:"limit" binding:"omitempty,min=1"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID                uuid.UUID                 `json:"id"`
	Status            string                    `json:"status"`
	PaymentStatus     string                    `json:"paymentStatus"`
	FulfillmentStatus string                    `json:"fulfillmentStatus"`
	Currency          string                    `json:"currency"`
	SubtotalCents     int64                     `json:"subtotalCents"`
	DiscountCents     int64                     `json:"discountCents"`
	ShippingCents     int64                     `json:"shippingCents"`
	TaxCents          int64                     `json:"taxCents"`
	TotalCents        int64                     `json:"totalCents"`
	Customer          commerce.CustomerSnapshot `json:"customer"`
	ShipTo            commerce.Address          `json:"shipTo"`
	PlacedAt          time.Time                 `json:"placedAt"`
	DeliveredAt       *time.Time                `json:"deliveredAt,omitempty"`
	Version           int                       `json:"version"`
	Items             []OrderItemResponse       `json:"items,omitempty"`
}

// OrderItemResponse represents an order line in API responses
type OrderItemResponse struct {
	ID             uuid.UUID  `json:"id"`
	ProductID      uuid.UUID  `json:"productId"`
	VariantID      *uuid.UUID `json:"variantId,omitempty"`
	SKU            string     `json:"sku"`
	Name           string     `json:"name"`
	Qty            int64      `json:"qty"`
	UnitPriceCents int64      `json:"unitPriceCents"`
	UnitCostCents  int64      `json:"unitCostCents"`
	TotalCents     int64      `json:"totalCents"`
}

// ToOrderResponse converts a domain order to a response
func ToOrderResponse(o *commerce.Order) OrderResponse {
	resp := OrderResponse{
		ID:                o.ID,
		Status:            string(o.Status),
		PaymentStatus:     string(o.PaymentStatus),
		FulfillmentStatus: string(o.FulfillmentStatus),
		Currency:          o.Currency,
		SubtotalCents:     o.SubtotalCents,
		DiscountCents:     o.DiscountCents,
		ShippingCents:     o.ShippingCents,
		TaxCents:          o.TaxCents,
		TotalCents:        o.TotalCents,
		Customer:          o.Customer,
		ShipTo:            o.ShipTo,
		PlacedAt:          o.PlacedAt,
		DeliveredAt:       o.DeliveredAt,
		Version:           o.Version,
	}
	if len(o.Items) > 0 {
		resp.Items = make([]OrderItemResponse, len(o.Items))
		for i, item := range o.Items {
			resp.Items[i] = OrderItemResponse{
				ID:             item.ID,
				ProductID:      item.ProductID,
				VariantID:      item.VariantID,
				SKU:            item.SKU,
				Name:           item.Name,
				Qty:            item.Qty,
				UnitPriceCents: item.UnitPriceCents,
				UnitCostCents:  item.UnitCostCents,
				TotalCents:     item.TotalCents,
			}
		}
	}
	return resp
}

// ---------------------------------------------------------------------------
// Payments
// ---------------------------------------------------------------------------

// CreatePaymentRequest records a payment. A repeated IdempotencyKey for the
// same order returns the payment recorded first.
type CreatePaymentRequest struct {
	OrderID        uuid.UUID  `json:"orderId" binding:"required"`
	Direction      string     `json:"direction" binding:"omitempty,oneof=CAPTURE REFUND"`
	Status         string     `json:"status" binding:"omitempty,oneof=PENDING PAID REFUNDED CANCELLED"`
	Method         string     `json:"method" binding:"max=50"`
	Provider       string     `json:"provider" binding:"max=50"`
	AmountCents    int64      `json:"amountCents" binding:"gt=0"`
	Currency       string     `json:"currency" binding:"omitempty,len=3"`
	OccurredAt     *time.Time `json:"occurredAt"`
	IdempotencyKey *string    `json:"idempotencyKey" binding:"omitempty,max=128"`
}

// PaymentPatchRequest is a partial payment update
type PaymentPatchRequest struct {
	Status      *string    `json:"status" binding:"omitempty,oneof=PENDING PAID REFUNDED CANCELLED"`
	Method      *string    `json:"method" binding:"omitempty,max=50"`
	Provider    *string    `json:"provider" binding:"omitempty,max=50"`
	AmountCents *int64     `json:"amountCents" binding:"omitempty,gt=0"`
	OccurredAt  *time.Time `json:"occurredAt"`
}

// ToPatch converts the request into a domain patch
func (r PaymentPatchRequest) ToPatch() commerce.PaymentPatch {
	patch := commerce.PaymentPatch{
		Method:      r.Method,
		Provider:    r.Provider,
		AmountCents: r.AmountCents,
		OccurredAt:  r.OccurredAt,
	}
	if r.Status != nil {
		s := commerce.PaymentStatus(*r.Status)
		patch.Status = &s
	}
	return patch
}

// PaymentListFilter is the query of a payment listing
type PaymentListFilter struct {
	OrderID string `form:"orderId" binding:"omitempty,uuid"`
	Cursor  string `form:"cursor"`
	Limit   int    `form:"limit" binding:"omitempty,min=1"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID             uuid.UUID `json:"id"`
	OrderID        uuid.UUID `json:"orderId"`
	Direction      string    `json:"direction"`
	Status         string    `json:"status"`
	Method         string    `json:"method,omitempty"`
	Provider       string    `json:"provider,omitempty"`
	AmountCents    int64     `json:"amountCents"`
	Currency       string    `json:"currency"`
	OccurredAt     time.Time `json:"occurredAt"`
	IdempotencyKey *string   `json:"idempotencyKey,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// PaymentResult is the outcome of a create. Created is false when an
// existing payment was returned for a repeated idempotency key.
type PaymentResult struct {
	Payment PaymentResponse
	Created bool
}

// ToPaymentResponse converts a domain payment to a response
func ToPaymentResponse(p *commerce.Payment) PaymentResponse {
	return PaymentResponse{
		ID:             p.ID,
		OrderID:        p.OrderID,
		Direction:      string(p.Direction),
		Status:         string(p.Status),
		Method:         p.Method,
		Provider:       p.Provider,
		AmountCents:    p.AmountCents,
		Currency:       p.Currency,
		OccurredAt:     p.OccurredAt,
		IdempotencyKey: p.IdempotencyKey,
		CreatedAt:      p.CreatedAt,
	}
}

// ---------------------------------------------------------------------------
// Refunds
// ---------------------------------------------------------------------------

// RefundItemRequest allocates part of a refund. Qty defaults to 1.
type RefundItemRequest struct {
	OrderItemID *uuid.UUID `json:"orderItemId"`
	Qty         *int64     `json:"qty" binding:"omitempty,gt=0"`
	AmountCents int64      `json:"amountCents" binding:"gt=0"`
}

// CreateRefundRequest opens a refund against a capture payment.
// Payment, when present, records the linked REFUND payment.
type CreateRefundRequest struct {
	OriginalPaymentID uuid.UUID            `json:"originalPaymentId" binding:"required"`
	AmountCents       int64                `json:"amountCents" binding:"gt=0"`
	Reason            string               `json:"reason" binding:"max=500"`
	Status            *string              `json:"status" binding:"omitempty,oneof=PENDING APPROVED PROCESSING SUCCEEDED CANCELLED FAILED"`
	ApprovedAt        *time.Time           `json:"approvedAt"`
	ProcessedAt       *time.Time           `json:"processedAt"`
	CompletedAt       *time.Time           `json:"completedAt"`
	Items             []RefundItemRequest  `json:"items" binding:"omitempty,dive"`
	Payment           *PaymentPatchRequest `json:"payment"`
}

// UpdateRefundRequest is a partial refund update. A non-nil Items replaces
// every item; Payment patches the linked refund payment.
type UpdateRefundRequest struct {
	Status      *string              `json:"status" binding:"omitempty,oneof=PENDING APPROVED PROCESSING SUCCEEDED CANCELLED FAILED"`
	Reason      *string              `json:"reason" binding:"omitempty,max=500"`
	AmountCents *int64               `json:"amountCents" binding:"omitempty,gt=0"`
	ApprovedAt  *time.Time           `json:"approvedAt"`
	ProcessedAt *time.Time           `json:"processedAt"`
	CompletedAt *time.Time           `json:"completedAt"`
	Items       []RefundItemRequest  `json:"items" binding:"omitempty,dive"`
	Payment     *PaymentPatchRequest `json:"payment"`
}

// RefundListFilter is the query of a refund listing
type RefundListFilter struct {
	OrderID string `form:"orderId" binding:"omitempty,uuid"`
	Status  string `form:"status" binding:"omitempty,oneof=PENDING APPROVED PROCESSING SUCCEEDED CANCELLED FAILED"`
	Cursor  string `form:"cursor"`
	Limit   int    `form:"limit" binding:"omitempty,min=1"`
}

// RefundResponse represents a refund in API responses
type RefundResponse struct {
	ID                uuid.UUID            `json:"id"`
	OrderID           uuid.UUID            `json:"orderId"`
	OriginalPaymentID uuid.UUID            `json:"originalPaymentId"`
	RefundPaymentID   *uuid.UUID           `json:"refundPaymentId,omitempty"`
	Status            string               `json:"status"`
	Reason            string               `json:"reason,omitempty"`
	AmountCents       int64                `json:"amountCents"`
	RequestedAt       time.Time            `json:"requestedAt"`
	ApprovedAt        *time.Time           `json:"approvedAt,omitempty"`
	ProcessedAt       *time.Time           `json:"processedAt,omitempty"`
	CompletedAt       *time.Time           `json:"completedAt,omitempty"`
	Version           int                  `json:"version"`
	Items             []RefundItemResponse `json:"items"`
	OriginalPayment   *PaymentResponse     `json:"originalPayment,omitempty"`
	RefundPayment     *PaymentResponse     `json:"refundPayment,omitempty"`
}

// RefundItemResponse represents a refund item in API responses
type RefundItemResponse struct {
	ID          uuid.UUID  `json:"id"`
	OrderItemID *uuid.UUID `json:"orderItemId,omitempty"`
	Qty         int64      `json:"qty"`
	AmountCents int64      `json:"amountCents"`
}

// ToRefundResponse converts a domain refund to a response
func ToRefundResponse(r *commerce.Refund) RefundResponse {
	resp := RefundResponse{
		ID:                r.ID,
		OrderID:           r.OrderID,
		OriginalPaymentID: r.OriginalPaymentID,
		RefundPaymentID:   r.RefundPaymentID,
		Status:            string(r.Status),
		Reason:            r.Reason,
		AmountCents:       r.AmountCents,
		RequestedAt:       r.RequestedAt,
		ApprovedAt:        r.ApprovedAt,
		ProcessedAt:       r.ProcessedAt,
		CompletedAt:       r.CompletedAt,
		Version:           r.Version,
		Items:             make([]RefundItemResponse, len(r.Items)),
	}
	for i, item := range r.Items {
		resp.Items[i] = RefundItemResponse{
			ID:          item.ID,
			OrderItemID: item.OrderItemID,
			Qty:         item.Qty,
			AmountCents: item.AmountCents,
		}
	}
	return resp
}

func toItemSpecs(items []RefundItemRequest) []commerce.RefundItemSpec {
	specs := make([]commerce.RefundItemSpec, len(items))
	for i, it := range items {
		specs[i] = commerce.RefundItemSpec{
			OrderItemID: it.OrderItemID,
			Qty:         it.Qty,
			AmountCents: it.AmountCents,
		}
	}
	return specs
}
