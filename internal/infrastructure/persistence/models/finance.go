package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/finance"
)

// ExpenseModel is the persistence model for the Expense aggregate root.
type ExpenseModel struct {
	AggregateModel
	OwnerID        uuid.UUID `gorm:"type:uuid;not null;index"`
	Category       string    `gorm:"type:varchar(64);not null;index"`
	Description    string    `gorm:"type:text;not null;default:''"`
	AmountCents    int64     `gorm:"not null;check:chk_expenses_amount,amount_cents > 0"`
	IsPaid         bool      `gorm:"not null;default:false"`
	IsSubscription bool      `gorm:"not null;default:false"`
	SpentAt        time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (ExpenseModel) TableName() string {
	return "expenses"
}

// ToDomain converts the persistence model to a domain Expense.
func (m *ExpenseModel) ToDomain() *finance.Expense {
	return &finance.Expense{
		OwnedAggregateRoot: m.ownedRoot(m.OwnerID),
		Category:           m.Category,
		Description:        m.Description,
		AmountCents:        m.AmountCents,
		IsPaid:             m.IsPaid,
		IsSubscription:     m.IsSubscription,
		SpentAt:            m.SpentAt.UTC(),
	}
}

// FromDomain populates the persistence model from a domain Expense.
func (m *ExpenseModel) FromDomain(e *finance.Expense) {
	m.FromDomainAggregateRoot(e.BaseAggregateRoot)
	m.OwnerID = e.OwnerID
	m.Category = e.Category
	m.Description = e.Description
	m.AmountCents = e.AmountCents
	m.IsPaid = e.IsPaid
	m.IsSubscription = e.IsSubscription
	m.SpentAt = e.SpentAt
}

// ExpenseModelFromDomain creates a new persistence model from a domain Expense.
func ExpenseModelFromDomain(e *finance.Expense) *ExpenseModel {
	m := &ExpenseModel{}
	m.FromDomain(e)
	return m
}

// AllModels lists every persistence model in dependency order, for
// AutoMigrate in tests and development tooling.
func AllModels() []any {
	return []any{
		&ProductModel{},
		&ProductVariantModel{},
		&InventoryReceiptModel{},
		&InventoryReceiptItemModel{},
		&OrderModel{},
		&OrderItemModel{},
		&PaymentModel{},
		&RefundModel{},
		&RefundItemModel{},
		&ExpenseModel{},
	}
}
