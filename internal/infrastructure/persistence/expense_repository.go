package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/finance"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormExpenseRepository implements finance.ExpenseRepository using GORM
type GormExpenseRepository struct {
	db *gorm.DB
}

// NewGormExpenseRepository creates a new GormExpenseRepository
func NewGormExpenseRepository(db *gorm.DB) *GormExpenseRepository {
	return &GormExpenseRepository{db: db}
}

// FindByID finds an expense by its ID within the owner's scope
func (r *GormExpenseRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*finance.Expense, error) {
	var model models.ExpenseModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND id = ?", ownerID, id).
		First(&model).Error; err != nil {
		return nil, firstOr(err, "expense")
	}
	return model.ToDomain(), nil
}

// List returns one page of expenses ordered by (spent_at desc, id desc)
func (r *GormExpenseRepository) List(ctx context.Context, ownerID uuid.UUID, filter finance.ExpenseFilter) (shared.CursorPage[finance.Expense], error) {
	query := r.db.WithContext(ctx).Model(&models.ExpenseModel{}).Where("owner_id = ?", ownerID)
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.OnlyPaid {
		query = query.Where("is_paid = ?", true)
	}
	query, limit, err := expenseKeyset.apply(ctx, r.db, query, ownerID, filter.CursorFilter)
	if err != nil {
		return shared.CursorPage[finance.Expense]{}, err
	}

	var rows []models.ExpenseModel
	if err := query.Find(&rows).Error; err != nil {
		return shared.CursorPage[finance.Expense]{}, translateError(err)
	}
	expenses := make([]finance.Expense, len(rows))
	for i := range rows {
		expenses[i] = *rows[i].ToDomain()
	}
	return shared.NewCursorPage(expenses, limit, func(e finance.Expense) uuid.UUID { return e.ID }), nil
}

// Create inserts an expense
func (r *GormExpenseRepository) Create(ctx context.Context, expense *finance.Expense) error {
	return translateError(r.db.WithContext(ctx).Create(models.ExpenseModelFromDomain(expense)).Error)
}

// Delete removes an expense
func (r *GormExpenseRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("owner_id = ? AND id = ?", ownerID, id).
		Delete(&models.ExpenseModel{})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound("expense")
	}
	return nil
}

// Ensure GormExpenseRepository implements finance.ExpenseRepository
var _ finance.ExpenseRepository = (*GormExpenseRepository)(nil)
