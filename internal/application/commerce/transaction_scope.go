package commerce

import (
	"context"

	"github.com/shopledger/backend/internal/domain/catalog"
	"github.com/shopledger/backend/internal/domain/commerce"
)

// TransactionScope provides transactional access to the order, payment and refund repositories.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes the repositories bound to the current transaction.
// Catalog repositories are read to snapshot product identity and cost onto order lines.
type TransactionalRepositories interface {
	ProductRepo() catalog.ProductRepository
	VariantRepo() catalog.VariantRepository
	OrderRepo() commerce.OrderRepository
	PaymentRepo() commerce.PaymentRepository
	RefundRepo() commerce.RefundRepository
}
