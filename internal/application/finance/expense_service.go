package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/application/validation"
	"github.com/shopledger/backend/internal/domain/finance"
	"github.com/shopledger/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CreateExpenseRequest records a spending row
type CreateExpenseRequest struct {
	Category       string     `json:"category" binding:"max=64"`
	Description    string     `json:"description" binding:"max=500"`
	AmountCents    int64      `json:"amountCents" binding:"gt=0"`
	IsPaid         bool       `json:"isPaid"`
	IsSubscription bool       `json:"isSubscription"`
	SpentAt        *time.Time `json:"spentAt"`
}

// ExpenseListFilter is the query of an expense listing
type ExpenseListFilter struct {
	Category string `form:"cat" binding:"max=64"`
	OnlyPaid bool   `form:"onlyPaid"`
	Cursor   string `form:"cursor"`
	Limit    int    `form:"limit" binding:"omitempty,min=1"`
}

// ExpenseResponse represents an expense in API responses
type ExpenseResponse struct {
	ID             uuid.UUID `json:"id"`
	Category       string    `json:"category"`
	Description    string    `json:"description,omitempty"`
	AmountCents    int64     `json:"amountCents"`
	IsPaid         bool      `json:"isPaid"`
	IsSubscription bool      `json:"isSubscription"`
	SpentAt        time.Time `json:"spentAt"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ToExpenseResponse converts a domain expense to a response
func ToExpenseResponse(e *finance.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:             e.ID,
		Category:       e.Category,
		Description:    e.Description,
		AmountCents:    e.AmountCents,
		IsPaid:         e.IsPaid,
		IsSubscription: e.IsSubscription,
		SpentAt:        e.SpentAt,
		CreatedAt:      e.CreatedAt,
	}
}

// ExpenseService records the expense rows the spending summary aggregates
type ExpenseService struct {
	expenseRepo    finance.ExpenseRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewExpenseService creates a new ExpenseService
func NewExpenseService(expenseRepo finance.ExpenseRepository, logger *zap.Logger) *ExpenseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExpenseService{expenseRepo: expenseRepo, logger: logger}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *ExpenseService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create records an expense
func (s *ExpenseService) Create(ctx context.Context, ownerID uuid.UUID, req CreateExpenseRequest) (*ExpenseResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	expense, err := finance.NewExpense(ownerID, req.Category, req.Description, req.AmountCents, req.IsPaid, req.IsSubscription, req.SpentAt)
	if err != nil {
		return nil, err
	}
	if err := s.expenseRepo.Create(ctx, expense); err != nil {
		return nil, err
	}
	s.publish(ctx, expense.GetDomainEvents()...)
	expense.ClearDomainEvents()

	out := ToExpenseResponse(expense)
	return &out, nil
}

// List returns one page of expenses ordered by (spentAt desc, id desc)
func (s *ExpenseService) List(ctx context.Context, ownerID uuid.UUID, filter ExpenseListFilter) (shared.CursorPage[ExpenseResponse], error) {
	if err := validation.Struct(filter); err != nil {
		return shared.CursorPage[ExpenseResponse]{}, err
	}
	cursor, err := validation.Cursor(filter.Cursor, filter.Limit)
	if err != nil {
		return shared.CursorPage[ExpenseResponse]{}, err
	}
	domainFilter := finance.ExpenseFilter{CursorFilter: cursor, OnlyPaid: filter.OnlyPaid}
	if filter.Category != "" {
		domainFilter.Category = finance.NormalizeCategory(filter.Category)
	}
	page, err := s.expenseRepo.List(ctx, ownerID, domainFilter)
	if err != nil {
		return shared.CursorPage[ExpenseResponse]{}, err
	}
	return shared.MapCursorPage(page, func(e finance.Expense) ExpenseResponse {
		return ToExpenseResponse(&e)
	}), nil
}

// Delete removes an expense
func (s *ExpenseService) Delete(ctx context.Context, ownerID, expenseID uuid.UUID) error {
	if err := shared.EnsureDeletable(shared.EntityExpense); err != nil {
		return err
	}
	expense, err := s.expenseRepo.FindByID(ctx, ownerID, expenseID)
	if err != nil {
		return err
	}
	if err := s.expenseRepo.Delete(ctx, ownerID, expenseID); err != nil {
		return err
	}
	s.publish(ctx, finance.NewExpenseChangedEvent(expense))
	return nil
}

func (s *ExpenseService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish expense events", zap.Error(err))
	}
}
