package catalog

import (
	"context"

	"github.com/google/uuid"
)

// RefreshDisplay recomputes a product's derived display fields from its
// current variants and persists them. The product row is locked for the
// remainder of the caller's transaction.
func RefreshDisplay(ctx context.Context, products ProductRepository, variants VariantRepository, ownerID, productID uuid.UUID) (*Product, error) {
	product, err := products.FindByIDForUpdate(ctx, ownerID, productID)
	if err != nil {
		return nil, err
	}
	list, err := variants.FindByProduct(ctx, ownerID, productID)
	if err != nil {
		return nil, err
	}
	product.RecomputeDisplay(list)
	if err := products.Save(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}
