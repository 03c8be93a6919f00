package commerce

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/shared"
)

// RefundStatus is the lifecycle state of a refund
type RefundStatus string

const (
	RefundStatusPending    RefundStatus = "PENDING"
	RefundStatusApproved   RefundStatus = "APPROVED"
	RefundStatusProcessing RefundStatus = "PROCESSING"
	RefundStatusSucceeded  RefundStatus = "SUCCEEDED"
	RefundStatusCancelled  RefundStatus = "CANCELLED"
	RefundStatusFailed     RefundStatus = "FAILED"
)

// refundProgress orders the forward path; terminal failure states are absent
var refundProgress = map[RefundStatus]int{
	RefundStatusPending:    0,
	RefundStatusApproved:   1,
	RefundStatusProcessing: 2,
	RefundStatusSucceeded:  3,
}

// IsValid reports whether s is a known status
func (s RefundStatus) IsValid() bool {
	switch s {
	case RefundStatusPending, RefundStatusApproved, RefundStatusProcessing,
		RefundStatusSucceeded, RefundStatusCancelled, RefundStatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed
func (s RefundStatus) IsTerminal() bool {
	return s == RefundStatusSucceeded || s == RefundStatusCancelled || s == RefundStatusFailed
}

// Refund is a request to return money against an original capture payment
type Refund struct {
	shared.OwnedAggregateRoot
	OrderID           uuid.UUID
	OriginalPaymentID uuid.UUID
	RefundPaymentID   *uuid.UUID
	Status            RefundStatus
	Reason            string
	AmountCents       int64
	RequestedAt       time.Time
	ApprovedAt        *time.Time
	ProcessedAt       *time.Time
	CompletedAt       *time.Time
	Items             []RefundItem
}

// RefundItem allocates part of a refund to an order line
type RefundItem struct {
	shared.BaseEntity
	RefundID    uuid.UUID
	OrderItemID *uuid.UUID
	Qty         int64
	AmountCents int64
}

// RefundItemSpec describes a refund item to create
type RefundItemSpec struct {
	OrderItemID *uuid.UUID
	Qty         *int64
	AmountCents int64
}

// RefundTimestamps are explicitly supplied lifecycle timestamps
type RefundTimestamps struct {
	ApprovedAt  *time.Time
	ProcessedAt *time.Time
	CompletedAt *time.Time
}

// NewRefund creates a PENDING refund against a capture payment
func NewRefund(original *Payment, amountCents int64, reason string) (*Refund, error) {
	if original == nil {
		return nil, shared.NewValidationError("originalPaymentId is required")
	}
	if original.Direction != PaymentDirectionCapture {
		return nil, shared.NewValidationError("refunds must reference a CAPTURE payment")
	}
	if amountCents <= 0 {
		return nil, shared.NewValidationError("amountCents must be greater than zero")
	}
	r := &Refund{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(original.OwnerID),
		OrderID:            original.OrderID,
		OriginalPaymentID:  original.ID,
		Status:             RefundStatusPending,
		Reason:             strings.TrimSpace(reason),
		AmountCents:        amountCents,
	}
	r.RequestedAt = r.CreatedAt
	r.AddDomainEvent(NewRefundStatusChangedEvent(r, ""))
	return r, nil
}

// CanTransitionTo reports whether the lifecycle allows moving to next.
// Staying in the current status is always allowed.
func (r *Refund) CanTransitionTo(next RefundStatus) bool {
	if next == r.Status {
		return true
	}
	if r.Status.IsTerminal() {
		return false
	}
	if next == RefundStatusCancelled || next == RefundStatusFailed {
		return true
	}
	return refundProgress[next] > refundProgress[r.Status]
}

// ChangeStatus moves the refund to next. Explicit timestamps are applied
// first; the timestamp of the entered status is then filled only if unset.
func (r *Refund) ChangeStatus(next RefundStatus, explicit RefundTimestamps) error {
	if !next.IsValid() {
		return shared.NewValidationError(fmt.Sprintf("unknown refund status %q", next))
	}
	if !r.CanTransitionTo(next) {
		return shared.NewInvalidStateError(fmt.Sprintf("refund cannot move from %s to %s", r.Status, next))
	}

	r.ApplyTimestamps(explicit)

	if next == r.Status {
		return nil
	}
	now := shared.Now()
	switch next {
	case RefundStatusApproved:
		setIfUnset(&r.ApprovedAt, now)
	case RefundStatusProcessing:
		setIfUnset(&r.ProcessedAt, now)
	case RefundStatusSucceeded:
		setIfUnset(&r.CompletedAt, now)
	}

	from := r.Status
	r.Status = next
	r.Touch()
	r.AddDomainEvent(NewRefundStatusChangedEvent(r, from))
	return nil
}

// ApplyTimestamps overwrites lifecycle timestamps with explicit values
func (r *Refund) ApplyTimestamps(explicit RefundTimestamps) {
	if explicit.ApprovedAt != nil {
		t := explicit.ApprovedAt.UTC()
		r.ApprovedAt = &t
	}
	if explicit.ProcessedAt != nil {
		t := explicit.ProcessedAt.UTC()
		r.ProcessedAt = &t
	}
	if explicit.CompletedAt != nil {
		t := explicit.CompletedAt.UTC()
		r.CompletedAt = &t
	}
}

// Revise updates reason and amount. Nil arguments are left untouched.
func (r *Refund) Revise(reason *string, amountCents *int64) error {
	if amountCents != nil {
		if *amountCents <= 0 {
			return shared.NewValidationError("amountCents must be greater than zero")
		}
		r.AmountCents = *amountCents
	}
	if reason != nil {
		r.Reason = strings.TrimSpace(*reason)
	}
	r.Touch()
	return nil
}

// BuildItems validates specs and returns fresh items for this refund.
// Qty defaults to 1.
func (r *Refund) BuildItems(specs []RefundItemSpec) ([]RefundItem, error) {
	items := make([]RefundItem, 0, len(specs))
	for idx, spec := range specs {
		if spec.AmountCents <= 0 {
			return nil, shared.NewValidationError(fmt.Sprintf("items[%d].amountCents must be greater than zero", idx))
		}
		qty := int64(1)
		if spec.Qty != nil {
			qty = *spec.Qty
		}
		if qty <= 0 {
			return nil, shared.NewValidationError(fmt.Sprintf("items[%d].qty must be greater than zero", idx))
		}
		items = append(items, RefundItem{
			BaseEntity:  shared.NewBaseEntity(),
			RefundID:    r.ID,
			OrderItemID: spec.OrderItemID,
			Qty:         qty,
			AmountCents: spec.AmountCents,
		})
	}
	return items, nil
}

// LinkRefundPayment records the payment that carries the refunded money
func (r *Refund) LinkRefundPayment(paymentID uuid.UUID) {
	r.RefundPaymentID = &paymentID
	r.Touch()
}

// IsSucceeded reports whether the refund completed
func (r *Refund) IsSucceeded() bool {
	return r.Status == RefundStatusSucceeded
}

func setIfUnset(dst **time.Time, now time.Time) {
	if *dst == nil {
		t := now
		*dst = &t
	}
}
