package inventory_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	appinventory "github.com/shopledger/backend/internal/application/inventory"
	"github.com/shopledger/backend/internal/domain/catalog"
	"github.com/shopledger/backend/internal/domain/inventory"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/infrastructure/persistence"
	"github.com/shopledger/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type receiptFixture struct {
	db        *gorm.DB
	service   *appinventory.ReceiptService
	publisher *testutil.RecordingPublisher
	products  *persistence.GormProductRepository
	variants  *persistence.GormVariantRepository
	ownerID   uuid.UUID
}

func newReceiptFixture(t *testing.T) *receiptFixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	logger := zaptest.NewLogger(t)
	scope := persistence.NewGormTransactionScope(db)

	service := appinventory.NewReceiptService(
		persistence.NewGormReceiptRepository(db),
		persistence.NewGormReceiptItemRepository(db),
		scope.Inventory(),
		appinventory.NewStockLedger(logger),
		"USD",
		logger,
	)
	publisher := testutil.NewRecordingPublisher()
	service.SetEventPublisher(publisher)

	return &receiptFixture{
		db:        db,
		service:   service,
		publisher: publisher,
		products:  persistence.NewGormProductRepository(db),
		variants:  persistence.NewGormVariantRepository(db),
		ownerID:   uuid.New(),
	}
}

func (f *receiptFixture) product(t *testing.T, sku string) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(f.ownerID, sku, "Product "+sku, 1000, 400)
	require.NoError(t, err)
	require.NoError(t, f.products.Save(context.Background(), p))
	return p
}

func (f *receiptFixture) variant(t *testing.T, p *catalog.Product, sku string, price int64) *catalog.ProductVariant {
	t.Helper()
	v, err := catalog.NewProductVariant(p, sku, "Variant "+sku, price, 300)
	require.NoError(t, err)
	require.NoError(t, f.variants.Save(context.Background(), v))
	return v
}

func (f *receiptFixture) productStock(t *testing.T, id uuid.UUID) int64 {
	t.Helper()
	p, err := f.products.FindByID(context.Background(), f.ownerID, id)
	require.NoError(t, err)
	return p.Stock
}

func (f *receiptFixture) variantStock(t *testing.T, id uuid.UUID) int64 {
	t.Helper()
	v, err := f.variants.FindByID(context.Background(), f.ownerID, id)
	require.NoError(t, err)
	return v.Stock
}

func (f *receiptFixture) receipt(t *testing.T) *appinventory.ReceiptResponse {
	t.Helper()
	r, err := f.service.Create(context.Background(), f.ownerID, appinventory.CreateReceiptRequest{Reference: "PO-1"})
	require.NoError(t, err)
	return r
}

func status(s inventory.ReceiptStatus) *string {
	v := string(s)
	return &v
}

func int64Ptr(v int64) *int64 { return &v }

func TestReceiptService_LineLifecycleScenario(t *testing.T) {
	f := newReceiptFixture(t)
	ctx := context.Background()
	product := f.product(t, "bolt")
	receipt := f.receipt(t)
	assert.Equal(t, "DRAFT", receipt.Status)
	assert.Equal(t, "USD", receipt.Currency)

	created, err := f.service.CreateItem(ctx, f.ownerID, appinventory.CreateReceiptItemRequest{
		ReceiptID:     receipt.ID,
		ProductID:     product.ID,
		Qty:           10,
		UnitCostCents: 500,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5000), created.Item.TotalCents)
	assert.Equal(t, 1, created.Item.Position)
	assert.Equal(t, int64(5000), created.Receipt.SubtotalCents)
	assert.Equal(t, int64(0), f.productStock(t, product.ID), "a draft line does not move stock")

	_, err = f.service.Update(ctx, f.ownerID, receipt.ID, appinventory.UpdateReceiptRequest{Status: status(inventory.ReceiptStatusReceived)})
	require.NoError(t, err)
	assert.Equal(t, int64(10), f.productStock(t, product.ID))

	edited, err := f.service.UpdateItem(ctx, f.ownerID, created.Item.ID, appinventory.UpdateReceiptItemRequest{Qty: int64Ptr(4)})
	require.NoError(t, err)
	assert.Equal(t, int64(2000), edited.Receipt.SubtotalCents)
	assert.Equal(t, int64(2000), edited.Item.TotalCents)
	assert.Equal(t, int64(4), f.productStock(t, product.ID))

	totals, err := f.service.DeleteItem(ctx, f.ownerID, created.Item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), totals.SubtotalCents)
	assert.Equal(t, int64(0), f.productStock(t, product.ID))

	assert.Contains(t, f.publisher.Types(), inventory.EventTypeStockChanged)
}

func TestReceiptService_ReceiveAndRevertRestoresStock(t *testing.T) {
	f := newReceiptFixture(t)
	ctx := context.Background()
	plain := f.product(t, "plain")
	shirt := f.product(t, "shirt")
	red := f.variant(t, shirt, "shirt-red", 1500)
	blue := f.variant(t, shirt, "shirt-blue", 1300)
	require.NoError(t, f.products.AdjustStock(ctx, f.ownerID, plain.ID, 2))

	receipt := f.receipt(t)
	lines := []appinventory.CreateReceiptItemRequest{
		{ReceiptID: receipt.ID, ProductID: plain.ID, Qty: 3, UnitCostCents: 100},
		{ReceiptID: receipt.ID, ProductID: shirt.ID, VariantID: &red.ID, Qty: 5, UnitCostCents: 200},
		{ReceiptID: receipt.ID, ProductID: shirt.ID, VariantID: &blue.ID, Qty: 1, UnitCostCents: 200},
		{ReceiptID: receipt.ID, ProductID: shirt.ID, VariantID: &red.ID, Qty: 2, UnitCostCents: 250},
	}
	for _, line := range lines {
		_, err := f.service.CreateItem(ctx, f.ownerID, line)
		require.NoError(t, err)
	}

	received, err := f.service.Update(ctx, f.ownerID, receipt.ID, appinventory.UpdateReceiptRequest{Status: status(inventory.ReceiptStatusReceived)})
	require.NoError(t, err)
	assert.NotNil(t, received.ReceivedAt)
	assert.Equal(t, int64(300+1000+200+500), received.SubtotalCents)
	assert.Equal(t, int64(5), f.productStock(t, plain.ID))
	assert.Equal(t, int64(7), f.variantStock(t, red.ID))
	assert.Equal(t, int64(1), f.variantStock(t, blue.ID))

	display, err := f.products.FindByID(ctx, f.ownerID, shirt.ID)
	require.NoError(t, err)
	assert.True(t, display.HasVariants)
	assert.Equal(t, int64(8), display.DisplayStock)
	assert.Equal(t, int64(1300), display.DisplayPriceCents)

	_, err = f.service.Update(ctx, f.ownerID, receipt.ID, appinventory.UpdateReceiptRequest{Status: status(inventory.ReceiptStatusDraft)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), f.productStock(t, plain.ID))
	assert.Equal(t, int64(0), f.variantStock(t, red.ID))
	assert.Equal(t, int64(0), f.variantStock(t, blue.ID))

	display, err = f.products.FindByID(ctx, f.ownerID, shirt.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), display.DisplayStock)
}

func TestReceiptService_RevertFailureLeavesStockUntouched(t *testing.T) {
	f := newReceiptFixture(t)
	ctx := context.Background()
	first := f.product(t, "first")
	second := f.product(t, "second")

	receipt := f.receipt(t)
	for _, p := range []*catalog.Product{first, second} {
		_, err := f.service.CreateItem(ctx, f.ownerID, appinventory.CreateReceiptItemRequest{
			ReceiptID: receipt.ID, ProductID: p.ID, Qty: 5, UnitCostCents: 100,
		})
		require.NoError(t, err)
	}
	_, err := f.service.Update(ctx, f.ownerID, receipt.ID, appinventory.UpdateReceiptRequest{Status: status(inventory.ReceiptStatusReceived)})
	require.NoError(t, err)

	// Units of the second product leave through another channel.
	require.NoError(t, f.products.AdjustStock(ctx, f.ownerID, second.ID, -3))

	_, err = f.service.Update(ctx, f.ownerID, receipt.ID, appinventory.UpdateReceiptRequest{Status: status(inventory.ReceiptStatusDraft)})
	require.ErrorIs(t, err, shared.ErrInsufficientStock)

	assert.Equal(t, int64(5), f.productStock(t, first.ID))
	assert.Equal(t, int64(2), f.productStock(t, second.ID))

	current, err := f.service.GetByID(ctx, f.ownerID, receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, "RECEIVED", current.Status)
	assert.Len(t, current.Items, 2)

	t.Run("deleting the receipt is refused too", func(t *testing.T) {
		assert.ErrorIs(t, f.service.Delete(ctx, f.ownerID, receipt.ID), shared.ErrInsufficientStock)
		assert.Equal(t, int64(5), f.productStock(t, first.ID))
	})
}

func TestReceiptService_StateMachine(t *testing.T) {
	f := newReceiptFixture(t)
	ctx := context.Background()
	product := f.product(t, "nut")
	receipt := f.receipt(t)

	same, err := f.service.Update(ctx, f.ownerID, receipt.ID, appinventory.UpdateReceiptRequest{Status: status(inventory.ReceiptStatusDraft)})
	require.NoError(t, err)
	assert.Equal(t, "DRAFT", same.Status)

	_, err = f.service.Update(ctx, f.ownerID, receipt.ID, appinventory.UpdateReceiptRequest{Status: status(inventory.ReceiptStatusCancelled)})
	require.NoError(t, err)

	_, err = f.service.Update(ctx, f.ownerID, receipt.ID, appinventory.UpdateReceiptRequest{Status: status(inventory.ReceiptStatusReceived)})
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	_, err = f.service.CreateItem(ctx, f.ownerID, appinventory.CreateReceiptItemRequest{
		ReceiptID: receipt.ID, ProductID: product.ID, Qty: 1,
	})
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestReceiptService_HeaderEdits(t *testing.T) {
	f := newReceiptFixture(t)
	ctx := context.Background()
	product := f.product(t, "washer")
	receipt := f.receipt(t)

	_, err := f.service.CreateItem(ctx, f.ownerID, appinventory.CreateReceiptItemRequest{
		ReceiptID: receipt.ID, ProductID: product.ID, Qty: 2, UnitCostCents: 250,
	})
	require.NoError(t, err)

	eur := "eur"
	notes := "second delivery"
	updated, err := f.service.Update(ctx, f.ownerID, receipt.ID, appinventory.UpdateReceiptRequest{
		TaxCents: int64Ptr(90),
		Currency: &eur,
		Notes:    &notes,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(500), updated.SubtotalCents)
	assert.Equal(t, int64(590), updated.TotalCents)
	assert.Equal(t, "EUR", updated.Currency)
	assert.Equal(t, notes, updated.Notes)

	bad := "ZZZ"
	_, err = f.service.Update(ctx, f.ownerID, receipt.ID, appinventory.UpdateReceiptRequest{Currency: &bad})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestReceiptService_ItemTargets(t *testing.T) {
	f := newReceiptFixture(t)
	ctx := context.Background()
	mug := f.product(t, "mug")
	cup := f.product(t, "cup")
	cupLarge := f.variant(t, cup, "cup-l", 900)
	receipt := f.receipt(t)

	t.Run("variant of another product", func(t *testing.T) {
		_, err := f.service.CreateItem(ctx, f.ownerID, appinventory.CreateReceiptItemRequest{
			ReceiptID: receipt.ID, ProductID: mug.ID, VariantID: &cupLarge.ID, Qty: 1,
		})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("product of another owner", func(t *testing.T) {
		_, err := f.service.CreateItem(ctx, uuid.New(), appinventory.CreateReceiptItemRequest{
			ReceiptID: receipt.ID, ProductID: mug.ID, Qty: 1,
		})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("zero quantity", func(t *testing.T) {
		_, err := f.service.CreateItem(ctx, f.ownerID, appinventory.CreateReceiptItemRequest{
			ReceiptID: receipt.ID, ProductID: mug.ID, Qty: 0,
		})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("moving a received line to another product", func(t *testing.T) {
		line, err := f.service.CreateItem(ctx, f.ownerID, appinventory.CreateReceiptItemRequest{
			ReceiptID: receipt.ID, ProductID: cup.ID, VariantID: &cupLarge.ID, Qty: 3, UnitCostCents: 10,
		})
		require.NoError(t, err)
		_, err = f.service.Update(ctx, f.ownerID, receipt.ID, appinventory.UpdateReceiptRequest{Status: status(inventory.ReceiptStatusReceived)})
		require.NoError(t, err)
		assert.Equal(t, int64(3), f.variantStock(t, cupLarge.ID))

		moved, err := f.service.UpdateItem(ctx, f.ownerID, line.Item.ID, appinventory.UpdateReceiptItemRequest{ProductID: &mug.ID})
		require.NoError(t, err)
		assert.Nil(t, moved.Item.VariantID)
		assert.Equal(t, int64(0), f.variantStock(t, cupLarge.ID))
		assert.Equal(t, int64(3), f.productStock(t, mug.ID))
	})
}

func TestReceiptService_ListAndGet(t *testing.T) {
	f := newReceiptFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		f.receipt(t)
	}

	page, err := f.service.List(ctx, f.ownerID, appinventory.ReceiptListFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.True(t, page.HasMore)
	require.NotNil(t, page.NextCursor)

	rest, err := f.service.List(ctx, f.ownerID, appinventory.ReceiptListFilter{Limit: 2, Cursor: page.NextCursor.String()})
	require.NoError(t, err)
	assert.Len(t, rest.Items, 1)
	assert.False(t, rest.HasMore)

	_, err = f.service.List(ctx, f.ownerID, appinventory.ReceiptListFilter{Status: "OPEN"})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = f.service.GetByID(ctx, uuid.New(), page.Items[0].ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
