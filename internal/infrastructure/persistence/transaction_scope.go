package persistence

import (
	"context"

	appcatalog "github.com/shopledger/backend/internal/application/catalog"
	appcommerce "github.com/shopledger/backend/internal/application/commerce"
	appinventory "github.com/shopledger/backend/internal/application/inventory"
	"github.com/shopledger/backend/internal/domain/catalog"
	"github.com/shopledger/backend/internal/domain/commerce"
	"github.com/shopledger/backend/internal/domain/inventory"
	"gorm.io/gorm"
)

// GormTransactionScope runs a unit of work in one GORM transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

func (s *GormTransactionScope) run(ctx context.Context, fn func(repos *gormTransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// Inventory returns the scope used by the receipt workflow and stock ledger
func (s *GormTransactionScope) Inventory() InventoryTransactionScope {
	return InventoryTransactionScope{s}
}

// Commerce returns the scope used by the order, payment and refund services
func (s *GormTransactionScope) Commerce() CommerceTransactionScope {
	return CommerceTransactionScope{s}
}

// Catalog returns the scope used by the catalog service
func (s *GormTransactionScope) Catalog() CatalogTransactionScope {
	return CatalogTransactionScope{s}
}

// InventoryTransactionScope implements the inventory application TransactionScope
type InventoryTransactionScope struct{ scope *GormTransactionScope }

// Execute runs fn within a database transaction.
func (s InventoryTransactionScope) Execute(ctx context.Context, fn func(repos appinventory.TransactionalRepositories) error) error {
	return s.scope.run(ctx, func(repos *gormTransactionalRepositories) error { return fn(repos) })
}

// CommerceTransactionScope implements the commerce application TransactionScope
type CommerceTransactionScope struct{ scope *GormTransactionScope }

// Execute runs fn within a database transaction.
func (s CommerceTransactionScope) Execute(ctx context.Context, fn func(repos appcommerce.TransactionalRepositories) error) error {
	return s.scope.run(ctx, func(repos *gormTransactionalRepositories) error { return fn(repos) })
}

// CatalogTransactionScope implements the catalog application TransactionScope
type CatalogTransactionScope struct{ scope *GormTransactionScope }

// Execute runs fn within a database transaction.
func (s CatalogTransactionScope) Execute(ctx context.Context, fn func(repos appcatalog.TransactionalRepositories) error) error {
	return s.scope.run(ctx, func(repos *gormTransactionalRepositories) error { return fn(repos) })
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// ProductRepo returns the product repository scoped to the current transaction.
func (r *gormTransactionalRepositories) ProductRepo() catalog.ProductRepository {
	return NewGormProductRepository(r.tx)
}

// VariantRepo returns the variant repository scoped to the current transaction.
func (r *gormTransactionalRepositories) VariantRepo() catalog.VariantRepository {
	return NewGormVariantRepository(r.tx)
}

// ReceiptRepo returns the receipt repository scoped to the current transaction.
func (r *gormTransactionalRepositories) ReceiptRepo() inventory.ReceiptRepository {
	return NewGormReceiptRepository(r.tx)
}

// ReceiptItemRepo returns the receipt item repository scoped to the current transaction.
func (r *gormTransactionalRepositories) ReceiptItemRepo() inventory.ReceiptItemRepository {
	return NewGormReceiptItemRepository(r.tx)
}

// OrderRepo returns the order repository scoped to the current transaction.
func (r *gormTransactionalRepositories) OrderRepo() commerce.OrderRepository {
	return NewGormOrderRepository(r.tx)
}

// PaymentRepo returns the payment repository scoped to the current transaction.
func (r *gormTransactionalRepositories) PaymentRepo() commerce.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

// RefundRepo returns the refund repository scoped to the current transaction.
func (r *gormTransactionalRepositories) RefundRepo() commerce.RefundRepository {
	return NewGormRefundRepository(r.tx)
}

// Ensure the scopes implement the application TransactionScope interfaces
var (
	_ appinventory.TransactionScope = InventoryTransactionScope{}
	_ appcommerce.TransactionScope  = CommerceTransactionScope{}
	_ appcatalog.TransactionScope   = CatalogTransactionScope{}
)

// Ensure gormTransactionalRepositories implements every TransactionalRepositories
var (
	_ appinventory.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
	_ appcommerce.TransactionalRepositories  = (*gormTransactionalRepositories)(nil)
	_ appcatalog.TransactionalRepositories   = (*gormTransactionalRepositories)(nil)
)
