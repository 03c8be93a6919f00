package catalog

import (
	"context"

	"github.com/shopledger/backend/internal/domain/catalog"
)

// TransactionScope provides transactional access to the catalog repositories.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes the repositories bound to the current transaction.
type TransactionalRepositories interface {
	ProductRepo() catalog.ProductRepository
	VariantRepo() catalog.VariantRepository
}
