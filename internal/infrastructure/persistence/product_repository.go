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

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID within the owner's scope
func (r *GormProductRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*catalog.Product, error) {
	return r.find(r.db.WithContext(ctx), ownerID, id)
}

// FindByIDForUpdate finds a product and locks its row until the transaction ends
func (r *GormProductRepository) FindByIDForUpdate(ctx context.Context, ownerID, id uuid.UUID) (*catalog.Product, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), ownerID, id)
}

func (r *GormProductRepository) find(db *gorm.DB, ownerID, id uuid.UUID) (*catalog.Product, error) {
	var model models.ProductModel
	if err := db.Where("owner_id = ? AND id = ?", ownerID, id).First(&model).Error; err != nil {
		return nil, firstOr(err, "product")
	}
	return model.ToDomain(), nil
}

// List returns one page of products, newest first
func (r *GormProductRepository) List(ctx context.Context, ownerID uuid.UUID, filter catalog.ProductFilter) (shared.CursorPage[catalog.Product], error) {
	query := r.db.WithContext(ctx).Model(&models.ProductModel{}).Where("owner_id = ?", ownerID)
	if !filter.IncludeInactive {
		query = query.Where("is_active = ?", true)
	}
	query, limit, err := productKeyset.apply(ctx, r.db, query, ownerID, filter.CursorFilter)
	if err != nil {
		return shared.CursorPage[catalog.Product]{}, err
	}

	var rows []models.ProductModel
	if err := query.Find(&rows).Error; err != nil {
		return shared.CursorPage[catalog.Product]{}, translateError(err)
	}
	products := make([]catalog.Product, len(rows))
	for i := range rows {
		products[i] = *rows[i].ToDomain()
	}
	return shared.NewCursorPage(products, limit, func(p catalog.Product) uuid.UUID { return p.ID }), nil
}

// Save inserts a new product or updates an existing one guarded by its
// version. The stock column is never written here.
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	updated, err := updateVersioned(ctx, r.db, &models.ProductModel{}, product.OwnerID, product.ID, product.Version, map[string]any{
		"sku":                 product.SKU,
		"name":                product.Name,
		"price_cents":         product.PriceCents,
		"cost_cents":          product.CostCents,
		"is_active":           product.IsActive,
		"has_variants":        product.HasVariants,
		"display_stock":       product.DisplayStock,
		"display_price_cents": product.DisplayPriceCents,
		"updated_at":          product.UpdatedAt,
	})
	if err != nil {
		return err
	}
	if updated {
		product.IncrementVersion()
		return nil
	}

	exists, err := rowExists(ctx, r.db, &models.ProductModel{}, product.OwnerID, product.ID)
	if err != nil {
		return err
	}
	if exists {
		return shared.ErrConcurrencyConflict
	}
	if err := r.db.WithContext(ctx).Create(models.ProductModelFromDomain(product)).Error; err != nil {
		return translateError(err)
	}
	return nil
}

// AdjustStock adds delta to the product's stock. The update is guarded so
// the column can never go negative.
func (r *GormProductRepository) AdjustStock(ctx context.Context, ownerID, id uuid.UUID, delta int64) error {
	return adjustStock(ctx, r.db, &models.ProductModel{}, ownerID, id, delta, "product")
}

// adjustStock applies a guarded stock increment shared by products and variants
func adjustStock(ctx context.Context, db *gorm.DB, model any, ownerID, id uuid.UUID, delta int64, resource string) error {
	result := db.WithContext(ctx).
		Model(model).
		Where("id = ? AND owner_id = ? AND stock + ? >= 0", id, ownerID, delta).
		Updates(map[string]any{
			"stock":      gorm.Expr("stock + ?", delta),
			"version":    gorm.Expr("version + 1"),
			"updated_at": shared.Now(),
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}
	exists, err := rowExists(ctx, db, model, ownerID, id)
	if err != nil {
		return err
	}
	if !exists {
		return notFound(resource)
	}
	return shared.ErrInsufficientStock
}

// Ensure GormProductRepository implements catalog.ProductRepository
var _ catalog.ProductRepository = (*GormProductRepository)(nil)
