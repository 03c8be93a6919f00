package finance

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/shared"
)

// Aggregate and event type constants
const (
	AggregateTypeExpense    = "Expense"
	EventTypeExpenseChanged = "ExpenseChanged"
)

// Expense is a spending ledger row
type Expense struct {
	shared.OwnedAggregateRoot
	Category       string
	Description    string
	AmountCents    int64
	IsPaid         bool
	IsSubscription bool
	SpentAt        time.Time
}

// NewExpense creates an expense. Category is lower-cased; an empty category becomes "uncategorized".
func NewExpense(ownerID uuid.UUID, category, description string, amountCents int64, isPaid, isSubscription bool, spentAt *time.Time) (*Expense, error) {
	if ownerID == uuid.Nil {
		return nil, shared.ErrUnauthorized
	}
	if amountCents <= 0 {
		return nil, shared.NewValidationError("amountCents must be greater than zero")
	}
	category = NormalizeCategory(category)
	if len(category) > 64 {
		return nil, shared.NewValidationError("category cannot exceed 64 characters")
	}

	e := &Expense{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(ownerID),
		Category:           category,
		Description:        strings.TrimSpace(description),
		AmountCents:        amountCents,
		IsPaid:             isPaid,
		IsSubscription:     isSubscription,
	}
	e.SpentAt = e.CreatedAt
	if spentAt != nil {
		e.SpentAt = spentAt.UTC()
	}
	e.AddDomainEvent(NewExpenseChangedEvent(e))
	return e, nil
}

// NormalizeCategory canonicalizes a category label
func NormalizeCategory(category string) string {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return "uncategorized"
	}
	return category
}

// ExpenseChangedEvent is published when an expense is recorded or removed
type ExpenseChangedEvent struct {
	shared.BaseDomainEvent
	ExpenseID   uuid.UUID `json:"expense_id"`
	Category    string    `json:"category"`
	AmountCents int64     `json:"amount_cents"`
}

// NewExpenseChangedEvent creates an ExpenseChangedEvent
func NewExpenseChangedEvent(e *Expense) *ExpenseChangedEvent {
	return &ExpenseChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeExpenseChanged, AggregateTypeExpense, e.ID, e.OwnerID),
		ExpenseID:       e.ID,
		Category:        e.Category,
		AmountCents:     e.AmountCents,
	}
}

// ExpenseFilter narrows an expense listing
type ExpenseFilter struct {
	shared.CursorFilter
	Category string
	OnlyPaid bool
}

// ExpenseRepository persists expenses
type ExpenseRepository interface {
	FindByID(ctx context.Context, ownerID, id uuid.UUID) (*Expense, error)
	List(ctx context.Context, ownerID uuid.UUID, filter ExpenseFilter) (shared.CursorPage[Expense], error)
	Create(ctx context.Context, expense *Expense) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}
