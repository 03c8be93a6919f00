package catalog_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	appcatalog "github.com/shopledger/backend/internal/application/catalog"
	"github.com/shopledger/backend/internal/domain/catalog"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/infrastructure/persistence"
	"github.com/shopledger/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newCatalogService(t *testing.T) (*appcatalog.CatalogService, *testutil.RecordingPublisher) {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	svc := appcatalog.NewCatalogService(
		persistence.NewGormProductRepository(db),
		persistence.NewGormVariantRepository(db),
		persistence.NewGormTransactionScope(db).Catalog(),
		zaptest.NewLogger(t),
	)
	publisher := testutil.NewRecordingPublisher()
	svc.SetEventPublisher(publisher)
	return svc, publisher
}

func i64(v int64) *int64 { return &v }

func TestCatalogService_DisplayFields(t *testing.T) {
	svc, publisher := newCatalogService(t)
	ctx := context.Background()
	ownerID := uuid.New()

	product, err := svc.CreateProduct(ctx, ownerID, appcatalog.CreateProductRequest{
		SKU: " tee-01 ", Name: "T-shirt", PriceCents: 2000, CostCents: 800,
	})
	require.NoError(t, err)
	assert.Equal(t, "TEE-01", product.SKU)
	assert.Zero(t, product.Stock)
	assert.False(t, product.HasVariants)
	assert.Equal(t, int64(2000), product.DisplayPriceCents)
	assert.Contains(t, publisher.Types(), catalog.EventTypeProductCreated)

	small, err := svc.CreateVariant(ctx, ownerID, product.ID, appcatalog.CreateVariantRequest{
		SKU: "tee-01-s", Name: "Small", PriceCents: 1800, CostCents: 700,
	})
	require.NoError(t, err)
	_, err = svc.CreateVariant(ctx, ownerID, product.ID, appcatalog.CreateVariantRequest{
		SKU: "tee-01-l", Name: "Large", PriceCents: 2200, CostCents: 900,
	})
	require.NoError(t, err)

	got, err := svc.GetProduct(ctx, ownerID, product.ID)
	require.NoError(t, err)
	assert.True(t, got.HasVariants)
	assert.Equal(t, int64(1800), got.DisplayPriceCents)
	assert.Len(t, got.Variants, 2)

	t.Run("deactivating the cheapest variant moves the display price", func(t *testing.T) {
		require.NoError(t, svc.DeleteVariant(ctx, ownerID, small.ID))
		got, err := svc.GetProduct(ctx, ownerID, product.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2200), got.DisplayPriceCents)
	})

	t.Run("deleting the product deactivates everything", func(t *testing.T) {
		require.NoError(t, svc.DeleteProduct(ctx, ownerID, product.ID))
		got, err := svc.GetProduct(ctx, ownerID, product.ID)
		require.NoError(t, err)
		assert.False(t, got.IsActive)
		assert.False(t, got.HasVariants)
		for _, v := range got.Variants {
			assert.False(t, v.IsActive, v.SKU)
		}

		page, err := svc.ListProducts(ctx, ownerID, appcatalog.ProductListFilter{})
		require.NoError(t, err)
		assert.Empty(t, page.Items)
	})
}

func TestCatalogService_Rules(t *testing.T) {
	svc, _ := newCatalogService(t)
	ctx := context.Background()
	ownerID := uuid.New()

	product, err := svc.CreateProduct(ctx, ownerID, appcatalog.CreateProductRequest{SKU: "mug", Name: "Mug", PriceCents: 900})
	require.NoError(t, err)

	_, err = svc.CreateProduct(ctx, ownerID, appcatalog.CreateProductRequest{SKU: "MUG", Name: "Other mug"})
	assert.ErrorIs(t, err, shared.ErrConflict)

	_, err = svc.CreateProduct(ctx, ownerID, appcatalog.CreateProductRequest{SKU: "cup"})
	assert.ErrorIs(t, err, shared.ErrValidation)

	updated, err := svc.UpdateProduct(ctx, ownerID, product.ID, appcatalog.UpdateProductRequest{PriceCents: i64(950)})
	require.NoError(t, err)
	assert.Equal(t, int64(950), updated.PriceCents)
	assert.Equal(t, int64(950), updated.DisplayPriceCents)

	_, err = svc.UpdateProduct(ctx, ownerID, product.ID, appcatalog.UpdateProductRequest{CostCents: i64(-1)})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.UpdateProduct(ctx, uuid.New(), product.ID, appcatalog.UpdateProductRequest{PriceCents: i64(1)})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
