package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/commerce"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRefundRepository implements commerce.RefundRepository using GORM
type GormRefundRepository struct {
	db *gorm.DB
}

// NewGormRefundRepository creates a new GormRefundRepository
func NewGormRefundRepository(db *gorm.DB) *GormRefundRepository {
	return &GormRefundRepository{db: db}
}

// FindByID finds a refund with its items
func (r *GormRefundRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*commerce.Refund, error) {
	return r.find(ctx, r.db.WithContext(ctx), ownerID, id)
}

// FindByIDForUpdate finds a refund with its items and locks the refund row
func (r *GormRefundRepository) FindByIDForUpdate(ctx context.Context, ownerID, id uuid.UUID) (*commerce.Refund, error) {
	return r.find(ctx, r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), ownerID, id)
}

func (r *GormRefundRepository) find(ctx context.Context, db *gorm.DB, ownerID, id uuid.UUID) (*commerce.Refund, error) {
	var model models.RefundModel
	if err := db.Where("owner_id = ? AND id = ?", ownerID, id).First(&model).Error; err != nil {
		return nil, firstOr(err, "refund")
	}
	refund := model.ToDomain()
	items, err := r.loadItems(ctx, []uuid.UUID{refund.ID})
	if err != nil {
		return nil, err
	}
	refund.Items = items[refund.ID]
	return refund, nil
}

// List returns one page of refunds with their items ordered by (requested_at desc, id desc)
func (r *GormRefundRepository) List(ctx context.Context, ownerID uuid.UUID, filter commerce.RefundFilter) (shared.CursorPage[commerce.Refund], error) {
	query := r.db.WithContext(ctx).Model(&models.RefundModel{}).Where("owner_id = ?", ownerID)
	if filter.OrderID != nil {
		query = query.Where("order_id = ?", *filter.OrderID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	query, limit, err := refundKeyset.apply(ctx, r.db, query, ownerID, filter.CursorFilter)
	if err != nil {
		return shared.CursorPage[commerce.Refund]{}, err
	}

	var rows []models.RefundModel
	if err := query.Find(&rows).Error; err != nil {
		return shared.CursorPage[commerce.Refund]{}, translateError(err)
	}
	page := shared.NewCursorPage(rows, limit, func(m models.RefundModel) uuid.UUID { return m.ID })

	ids := make([]uuid.UUID, len(page.Items))
	for i := range page.Items {
		ids[i] = page.Items[i].ID
	}
	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return shared.CursorPage[commerce.Refund]{}, err
	}
	return shared.MapCursorPage(page, func(m models.RefundModel) commerce.Refund {
		refund := m.ToDomain()
		refund.Items = items[refund.ID]
		return *refund
	}), nil
}

// Create inserts the refund and its items
func (r *GormRefundRepository) Create(ctx context.Context, refund *commerce.Refund) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(models.RefundModelFromDomain(refund)).Error; err != nil {
			return translateError(err)
		}
		return insertRefundItems(tx, refund.Items)
	})
}

// Update writes the refund header guarded by its version
func (r *GormRefundRepository) Update(ctx context.Context, refund *commerce.Refund) error {
	updated, err := updateVersioned(ctx, r.db, &models.RefundModel{}, refund.OwnerID, refund.ID, refund.Version, map[string]any{
		"refund_payment_id": refund.RefundPaymentID,
		"status":            refund.Status,
		"reason":            refund.Reason,
		"amount_cents":      refund.AmountCents,
		"approved_at":       refund.ApprovedAt,
		"processed_at":      refund.ProcessedAt,
		"completed_at":      refund.CompletedAt,
		"updated_at":        refund.UpdatedAt,
	})
	if err != nil {
		return err
	}
	if !updated {
		return missedUpdate(ctx, r.db, &models.RefundModel{}, refund.OwnerID, refund.ID, "refund")
	}
	refund.IncrementVersion()
	return nil
}

// ReplaceItems swaps every item of the refund for items
func (r *GormRefundRepository) ReplaceItems(ctx context.Context, refundID uuid.UUID, items []commerce.RefundItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("refund_id = ?", refundID).Delete(&models.RefundItemModel{}).Error; err != nil {
			return translateError(err)
		}
		return insertRefundItems(tx, items)
	})
}

// Delete removes the refund items and then the refund
func (r *GormRefundRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := rowExists(ctx, tx, &models.RefundModel{}, ownerID, id)
		if err != nil {
			return err
		}
		if !exists {
			return notFound("refund")
		}
		if err := tx.Where("refund_id = ?", id).Delete(&models.RefundItemModel{}).Error; err != nil {
			return translateError(err)
		}
		return translateError(tx.Where("owner_id = ? AND id = ?", ownerID, id).Delete(&models.RefundModel{}).Error)
	})
}

// SumAmountByOriginalPayment totals the live refunds against a payment
func (r *GormRefundRepository) SumAmountByOriginalPayment(ctx context.Context, ownerID, paymentID uuid.UUID, excludeID *uuid.UUID) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.RefundModel{}).
		Select("COALESCE(SUM(amount_cents), 0)").
		Where("owner_id = ? AND original_payment_id = ?", ownerID, paymentID).
		Where("status NOT IN ?", []commerce.RefundStatus{commerce.RefundStatusCancelled, commerce.RefundStatusFailed})
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var total int64
	if err := query.Scan(&total).Error; err != nil {
		return 0, translateError(err)
	}
	return total, nil
}

func (r *GormRefundRepository) loadItems(ctx context.Context, refundIDs []uuid.UUID) (map[uuid.UUID][]commerce.RefundItem, error) {
	grouped := make(map[uuid.UUID][]commerce.RefundItem, len(refundIDs))
	if len(refundIDs) == 0 {
		return grouped, nil
	}
	var rows []models.RefundItemModel
	if err := r.db.WithContext(ctx).
		Where("refund_id IN ?", refundIDs).
		Order("position ASC").Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	for i := range rows {
		grouped[rows[i].RefundID] = append(grouped[rows[i].RefundID], rows[i].ToDomain())
	}
	return grouped, nil
}

func insertRefundItems(tx *gorm.DB, items []commerce.RefundItem) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]models.RefundItemModel, len(items))
	for i := range items {
		rows[i].FromDomain(&items[i])
		rows[i].Position = i + 1
	}
	return translateError(tx.Create(&rows).Error)
}

// Ensure GormRefundRepository implements commerce.RefundRepository
var _ commerce.RefundRepository = (*GormRefundRepository)(nil)
