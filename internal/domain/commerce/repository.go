package commerce

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/shared"
)

// OrderFilter narrows an order listing
type OrderFilter struct {
	shared.CursorFilter
	Status        *OrderStatus
	PaymentStatus *OrderPaymentStatus
}

// OrderRepository persists orders and their lines
type OrderRepository interface {
	// FindByID loads the order with its items
	FindByID(ctx context.Context, ownerID, id uuid.UUID) (*Order, error)
	// FindByIDForUpdate loads the order header holding a row lock
	FindByIDForUpdate(ctx context.Context, ownerID, id uuid.UUID) (*Order, error)
	List(ctx context.Context, ownerID uuid.UUID, filter OrderFilter) (shared.CursorPage[Order], error)
	// Create inserts the order together with its items
	Create(ctx context.Context, order *Order) error
	// Update writes the order header guarded by its version
	Update(ctx context.Context, order *Order) error
}

// PaymentFilter narrows a payment listing
type PaymentFilter struct {
	shared.CursorFilter
	OrderID *uuid.UUID
}

// PaymentRepository persists payments
type PaymentRepository interface {
	FindByID(ctx context.Context, ownerID, id uuid.UUID) (*Payment, error)
	FindByIdempotencyKey(ctx context.Context, ownerID uuid.UUID, key string) (*Payment, error)
	List(ctx context.Context, ownerID uuid.UUID, filter PaymentFilter) (shared.CursorPage[Payment], error)
	// Create inserts the payment. A duplicate idempotency key surfaces as shared.ErrConflict.
	Create(ctx context.Context, payment *Payment) error
	Update(ctx context.Context, payment *Payment) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

// RefundFilter narrows a refund listing
type RefundFilter struct {
	shared.CursorFilter
	OrderID *uuid.UUID
	Status  *RefundStatus
}

// RefundRepository persists refunds and their items
type RefundRepository interface {
	// FindByID loads the refund with its items
	FindByID(ctx context.Context, ownerID, id uuid.UUID) (*Refund, error)
	// FindByIDForUpdate loads the refund with its items holding a row lock
	FindByIDForUpdate(ctx context.Context, ownerID, id uuid.UUID) (*Refund, error)
	List(ctx context.Context, ownerID uuid.UUID, filter RefundFilter) (shared.CursorPage[Refund], error)
	Create(ctx context.Context, refund *Refund) error
	Update(ctx context.Context, refund *Refund) error
	// ReplaceItems deletes every item of the refund and inserts items
	ReplaceItems(ctx context.Context, refundID uuid.UUID, items []RefundItem) error
	// Delete removes the refund items and then the refund
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	// SumAmountByOriginalPayment totals refunds against a payment, excluding
	// cancelled and failed ones and the refund excludeID
	SumAmountByOriginalPayment(ctx context.Context, ownerID, paymentID uuid.UUID, excludeID *uuid.UUID) (int64, error)
}
