package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/catalog"
	"github.com/shopledger/backend/internal/domain/commerce"
	"github.com/shopledger/backend/internal/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	return testutil.NewSQLiteDB(t)
}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	m := testutil.NewMockDB(t)
	return m.DB, m.Mock, m.SqlDB
}

func seedProduct(t *testing.T, db *gorm.DB, ownerID uuid.UUID, sku string, costCents int64) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(ownerID, sku, "Product "+sku, 1000, costCents)
	require.NoError(t, err)
	require.NoError(t, NewGormProductRepository(db).Save(context.Background(), p))
	return p
}

func seedVariant(t *testing.T, db *gorm.DB, product *catalog.Product, sku string, priceCents, costCents int64) *catalog.ProductVariant {
	t.Helper()
	v, err := catalog.NewProductVariant(product, sku, "Variant "+sku, priceCents, costCents)
	require.NoError(t, err)
	require.NoError(t, NewGormVariantRepository(db).Save(context.Background(), v))
	return v
}

func seedOrder(t *testing.T, db *gorm.DB, ownerID uuid.UUID, product *catalog.Product, qty, unitPrice int64) *commerce.Order {
	t.Helper()
	order, err := commerce.NewOrder(ownerID, "USD", []commerce.OrderLine{{
		ProductID:      product.ID,
		SKU:            product.SKU,
		Name:           product.Name,
		Qty:            qty,
		UnitPriceCents: unitPrice,
		UnitCostCents:  product.CostCents,
	}}, commerce.OrderCharges{}, commerce.CustomerSnapshot{Name: "Ada"}, commerce.Address{Name: "Ada", Line1: "1 Main St", City: "Springfield", Country: "US"})
	require.NoError(t, err)
	require.NoError(t, NewGormOrderRepository(db).Create(context.Background(), order))
	return order
}

func seedPayment(t *testing.T, db *gorm.DB, order *commerce.Order, amount int64, key *string) *commerce.Payment {
	t.Helper()
	p, err := commerce.NewPayment(commerce.NewPaymentParams{
		OwnerID:        order.OwnerID,
		OrderID:        order.ID,
		Status:         commerce.PaymentStatusPaid,
		AmountCents:    amount,
		Currency:       "USD",
		IdempotencyKey: key,
	})
	require.NoError(t, err)
	require.NoError(t, NewGormPaymentRepository(db).Create(context.Background(), p))
	return p
}

func strPtr(s string) *string { return &s }
