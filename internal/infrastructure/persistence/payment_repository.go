package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/commerce"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPaymentRepository implements commerce.PaymentRepository using GORM.
// Idempotency keys are unique per owner by a partial index on the table.
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByID finds a payment by its ID within the owner's scope
func (r *GormPaymentRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*commerce.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND id = ?", ownerID, id).
		First(&model).Error; err != nil {
		return nil, firstOr(err, "payment")
	}
	return model.ToDomain(), nil
}

// FindByIdempotencyKey finds the owner's payment recorded under key
func (r *GormPaymentRepository) FindByIdempotencyKey(ctx context.Context, ownerID uuid.UUID, key string) (*commerce.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND idempotency_key = ?", ownerID, key).
		First(&model).Error; err != nil {
		return nil, firstOr(err, "payment")
	}
	return model.ToDomain(), nil
}

// List returns one page of payments ordered by (occurred_at desc, id desc)
func (r *GormPaymentRepository) List(ctx context.Context, ownerID uuid.UUID, filter commerce.PaymentFilter) (shared.CursorPage[commerce.Payment], error) {
	query := r.db.WithContext(ctx).Model(&models.PaymentModel{}).Where("owner_id = ?", ownerID)
	if filter.OrderID != nil {
		query = query.Where("order_id = ?", *filter.OrderID)
	}
	query, limit, err := paymentKeyset.apply(ctx, r.db, query, ownerID, filter.CursorFilter)
	if err != nil {
		return shared.CursorPage[commerce.Payment]{}, err
	}

	var rows []models.PaymentModel
	if err := query.Find(&rows).Error; err != nil {
		return shared.CursorPage[commerce.Payment]{}, translateError(err)
	}
	payments := make([]commerce.Payment, len(rows))
	for i := range rows {
		payments[i] = *rows[i].ToDomain()
	}
	return shared.NewCursorPage(payments, limit, func(p commerce.Payment) uuid.UUID { return p.ID }), nil
}

// Create inserts a payment. A reused idempotency key fails with a CONFLICT error.
func (r *GormPaymentRepository) Create(ctx context.Context, payment *commerce.Payment) error {
	return translateError(r.db.WithContext(ctx).Create(models.PaymentModelFromDomain(payment)).Error)
}

// Update writes the mutable payment fields guarded by its version
func (r *GormPaymentRepository) Update(ctx context.Context, payment *commerce.Payment) error {
	updated, err := updateVersioned(ctx, r.db, &models.PaymentModel{}, payment.OwnerID, payment.ID, payment.Version, map[string]any{
		"status":       payment.Status,
		"method":       payment.Method,
		"provider":     payment.Provider,
		"amount_cents": payment.AmountCents,
		"currency":     payment.Currency,
		"occurred_at":  payment.OccurredAt,
		"updated_at":   payment.UpdatedAt,
	})
	if err != nil {
		return err
	}
	if !updated {
		return missedUpdate(ctx, r.db, &models.PaymentModel{}, payment.OwnerID, payment.ID, "payment")
	}
	payment.IncrementVersion()
	return nil
}

// Delete removes a payment
func (r *GormPaymentRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("owner_id = ? AND id = ?", ownerID, id).
		Delete(&models.PaymentModel{})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound("payment")
	}
	return nil
}

// Ensure GormPaymentRepository implements commerce.PaymentRepository
var _ commerce.PaymentRepository = (*GormPaymentRepository)(nil)
