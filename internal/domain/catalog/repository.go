package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/shared"
)

// ProductFilter narrows a product listing
type ProductFilter struct {
	shared.CursorFilter
	IncludeInactive bool
}

// ProductRepository persists products. Stock is only changed through AdjustStock.
type ProductRepository interface {
	FindByID(ctx context.Context, ownerID, id uuid.UUID) (*Product, error)
	// FindByIDForUpdate loads the product holding a row lock until the transaction ends
	FindByIDForUpdate(ctx context.Context, ownerID, id uuid.UUID) (*Product, error)
	List(ctx context.Context, ownerID uuid.UUID, filter ProductFilter) (shared.CursorPage[Product], error)
	// Save inserts a new product or updates an existing one guarded by its version
	Save(ctx context.Context, product *Product) error
	// AdjustStock adds delta to the stock column, refusing to go below zero
	// with shared.ErrInsufficientStock
	AdjustStock(ctx context.Context, ownerID, id uuid.UUID, delta int64) error
}

// VariantRepository persists product variants. Stock is only changed through AdjustStock.
type VariantRepository interface {
	FindByID(ctx context.Context, ownerID, id uuid.UUID) (*ProductVariant, error)
	FindByIDForUpdate(ctx context.Context, ownerID, id uuid.UUID) (*ProductVariant, error)
	FindByProduct(ctx context.Context, ownerID, productID uuid.UUID) ([]ProductVariant, error)
	Save(ctx context.Context, variant *ProductVariant) error
	AdjustStock(ctx context.Context, ownerID, id uuid.UUID, delta int64) error
	DeactivateByProduct(ctx context.Context, ownerID, productID uuid.UUID) error
}
