package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/catalog"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormVariantRepository implements catalog.VariantRepository using GORM
type GormVariantRepository struct {
	db *gorm.DB
}

// NewGormVariantRepository creates a new GormVariantRepository
func NewGormVariantRepository(db *gorm.DB) *GormVariantRepository {
	return &GormVariantRepository{db: db}
}

// FindByID finds a variant by its ID within the owner's scope
func (r *GormVariantRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*catalog.ProductVariant, error) {
	return r.find(r.db.WithContext(ctx), ownerID, id)
}

// FindByIDForUpdate finds a variant and locks its row until the transaction ends
func (r *GormVariantRepository) FindByIDForUpdate(ctx context.Context, ownerID, id uuid.UUID) (*catalog.ProductVariant, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), ownerID, id)
}

func (r *GormVariantRepository) find(db *gorm.DB, ownerID, id uuid.UUID) (*catalog.ProductVariant, error) {
	var model models.ProductVariantModel
	if err := db.Where("owner_id = ? AND id = ?", ownerID, id).First(&model).Error; err != nil {
		return nil, firstOr(err, "variant")
	}
	return model.ToDomain(), nil
}

// FindByProduct returns every variant of a product, active or not, oldest first
func (r *GormVariantRepository) FindByProduct(ctx context.Context, ownerID, productID uuid.UUID) ([]catalog.ProductVariant, error) {
	var rows []models.ProductVariantModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND product_id = ?", ownerID, productID).
		Order("created_at ASC").Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	variants := make([]catalog.ProductVariant, len(rows))
	for i := range rows {
		variants[i] = *rows[i].ToDomain()
	}
	return variants, nil
}

// Save inserts a new variant or updates an existing one guarded by its
// version. The stock column is never written here.
func (r *GormVariantRepository) Save(ctx context.Context, variant *catalog.ProductVariant) error {
	updated, err := updateVersioned(ctx, r.db, &models.ProductVariantModel{}, variant.OwnerID, variant.ID, variant.Version, map[string]any{
		"sku":         variant.SKU,
		"name":        variant.Name,
		"price_cents": variant.PriceCents,
		"cost_cents":  variant.CostCents,
		"is_active":   variant.IsActive,
		"updated_at":  variant.UpdatedAt,
	})
	if err != nil {
		return err
	}
	if updated {
		variant.IncrementVersion()
		return nil
	}

	exists, err := rowExists(ctx, r.db, &models.ProductVariantModel{}, variant.OwnerID, variant.ID)
	if err != nil {
		return err
	}
	if exists {
		return shared.ErrConcurrencyConflict
	}
	if err := r.db.WithContext(ctx).Create(models.ProductVariantModelFromDomain(variant)).Error; err != nil {
		return translateError(err)
	}
	return nil
}

// AdjustStock adds delta to the variant's stock, refusing to go below zero
func (r *GormVariantRepository) AdjustStock(ctx context.Context, ownerID, id uuid.UUID, delta int64) error {
	return adjustStock(ctx, r.db, &models.ProductVariantModel{}, ownerID, id, delta, "variant")
}

// DeactivateByProduct soft-deletes every variant of a product
func (r *GormVariantRepository) DeactivateByProduct(ctx context.Context, ownerID, productID uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Model(&models.ProductVariantModel{}).
		Where("owner_id = ? AND product_id = ? AND is_active = ?", ownerID, productID, true).
		Updates(map[string]any{
			"is_active":  false,
			"version":    gorm.Expr("version + 1"),
			"updated_at": shared.Now(),
		}).Error
	return translateError(err)
}

// Ensure GormVariantRepository implements catalog.VariantRepository
var _ catalog.VariantRepository = (*GormVariantRepository)(nil)
