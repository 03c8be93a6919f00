package inventory

import (
	"context"

	"github.com/shopledger/backend/internal/domain/catalog"
	"github.com/shopledger/backend/internal/domain/inventory"
)

// TransactionScope provides transactional access to the stock and receipt repositories.
// All repository operations inside Execute share one database transaction and
// are committed or rolled back together.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes the repositories bound to the current transaction.
//
// Stock columns live on the catalog aggregates, so the stock ledger works
// through ProductRepo and VariantRepo; receipts and their items are
// persisted separately but always locked through the receipt row.
type TransactionalRepositories interface {
	ProductRepo() catalog.ProductRepository
	VariantRepo() catalog.VariantRepository
	ReceiptRepo() inventory.ReceiptRepository
	ReceiptItemRepo() inventory.ReceiptItemRepository
}
