package commerce

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/shared"
)

// PaymentDirection tells money coming in from money going back out
type PaymentDirection string

const (
	PaymentDirectionCapture PaymentDirection = "CAPTURE"
	PaymentDirectionRefund  PaymentDirection = "REFUND"
)

// IsValid reports whether d is a known direction
func (d PaymentDirection) IsValid() bool {
	return d == PaymentDirectionCapture || d == PaymentDirectionRefund
}

// PaymentStatus is the state of a single payment event
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusPaid      PaymentStatus = "PAID"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

// IsValid reports whether s is a known status
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusRefunded, PaymentStatusCancelled:
		return true
	}
	return false
}

// MaxIdempotencyKeyLength bounds caller supplied idempotency keys
const MaxIdempotencyKeyLength = 128

// Payment records one capture or refund money movement on an order
type Payment struct {
	shared.OwnedAggregateRoot
	OrderID        uuid.UUID
	Direction      PaymentDirection
	Status         PaymentStatus
	Method         string
	Provider       string
	AmountCents    int64
	Currency       string
	OccurredAt     time.Time
	IdempotencyKey *string
}

// NewPaymentParams are the resolved inputs for a new payment
type NewPaymentParams struct {
	OwnerID        uuid.UUID
	OrderID        uuid.UUID
	Direction      PaymentDirection
	Status         PaymentStatus
	Method         string
	Provider       string
	AmountCents    int64
	Currency       string
	OccurredAt     *time.Time
	IdempotencyKey *string
}

// NewPayment creates a payment. Direction defaults to CAPTURE and status to PENDING.
func NewPayment(p NewPaymentParams) (*Payment, error) {
	if p.OwnerID == uuid.Nil {
		return nil, shared.ErrUnauthorized
	}
	if p.OrderID == uuid.Nil {
		return nil, shared.NewValidationError("orderId is required")
	}
	if p.AmountCents <= 0 {
		return nil, shared.NewValidationError("amountCents must be greater than zero")
	}
	if p.Direction == "" {
		p.Direction = PaymentDirectionCapture
	}
	if !p.Direction.IsValid() {
		return nil, shared.NewValidationError(fmt.Sprintf("unknown payment direction %q", p.Direction))
	}
	if p.Status == "" {
		p.Status = PaymentStatusPending
	}
	if !p.Status.IsValid() {
		return nil, shared.NewValidationError(fmt.Sprintf("unknown payment status %q", p.Status))
	}
	key, err := normalizeIdempotencyKey(p.IdempotencyKey)
	if err != nil {
		return nil, err
	}

	pay := &Payment{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(p.OwnerID),
		OrderID:            p.OrderID,
		Direction:          p.Direction,
		Status:             p.Status,
		Method:             strings.TrimSpace(p.Method),
		Provider:           strings.TrimSpace(p.Provider),
		AmountCents:        p.AmountCents,
		Currency:           p.Currency,
		IdempotencyKey:     key,
	}
	pay.OccurredAt = pay.CreatedAt
	if p.OccurredAt != nil {
		pay.OccurredAt = p.OccurredAt.UTC()
	}
	pay.AddDomainEvent(NewPaymentRecordedEvent(pay))
	return pay, nil
}

// PaymentPatch is a partial update of a payment. Nil fields are left untouched.
type PaymentPatch struct {
	Status      *PaymentStatus
	Method      *string
	Provider    *string
	AmountCents *int64
	OccurredAt  *time.Time
}

// IsEmpty reports whether the patch changes nothing
func (p PaymentPatch) IsEmpty() bool {
	return p.Status == nil && p.Method == nil && p.Provider == nil && p.AmountCents == nil && p.OccurredAt == nil
}

// Apply applies patch to the payment
func (p *Payment) Apply(patch PaymentPatch) error {
	if patch.Status != nil && !patch.Status.IsValid() {
		return shared.NewValidationError(fmt.Sprintf("unknown payment status %q", *patch.Status))
	}
	if patch.AmountCents != nil && *patch.AmountCents <= 0 {
		return shared.NewValidationError("amountCents must be greater than zero")
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	if patch.Method != nil {
		p.Method = strings.TrimSpace(*patch.Method)
	}
	if patch.Provider != nil {
		p.Provider = strings.TrimSpace(*patch.Provider)
	}
	if patch.AmountCents != nil {
		p.AmountCents = *patch.AmountCents
	}
	if patch.OccurredAt != nil {
		p.OccurredAt = patch.OccurredAt.UTC()
	}
	p.Touch()
	p.AddDomainEvent(NewPaymentRecordedEvent(p))
	return nil
}

// OrderProjection returns the order payment status implied by this payment.
// Only a paid capture and a refunded refund project onto the order.
func (p *Payment) OrderProjection() (OrderPaymentStatus, bool) {
	switch {
	case p.Direction == PaymentDirectionCapture && p.Status == PaymentStatusPaid:
		return OrderPaymentPaid, true
	case p.Direction == PaymentDirectionRefund && p.Status == PaymentStatusRefunded:
		return OrderPaymentRefunded, true
	}
	return "", false
}

// MatchesRetry reports whether a retried create for orderID may reuse this payment
func (p *Payment) MatchesRetry(orderID uuid.UUID) bool {
	return p.OrderID == orderID
}

func normalizeIdempotencyKey(key *string) (*string, error) {
	if key == nil {
		return nil, nil
	}
	k := strings.TrimSpace(*key)
	if k == "" {
		return nil, nil
	}
	if len(k) > MaxIdempotencyKeyLength {
		return nil, shared.NewValidationError(fmt.Sprintf("idempotencyKey cannot exceed %d characters", MaxIdempotencyKeyLength))
	}
	return &k, nil
}
