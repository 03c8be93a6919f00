// Package app wires repositories, services and handlers of the ledger.
package app

import (
	catalogapp "github.com/shopledger/backend/internal/application/catalog"
	commerceapp "github.com/shopledger/backend/internal/application/commerce"
	financeapp "github.com/shopledger/backend/internal/application/finance"
	inventoryapp "github.com/shopledger/backend/internal/application/inventory"
	reportapp "github.com/shopledger/backend/internal/application/report"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/infrastructure/persistence"
	"github.com/shopledger/backend/internal/infrastructure/telemetry"
	"github.com/shopledger/backend/internal/interfaces/http/handler"
	"github.com/shopledger/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Options tunes service construction. Zero values are valid: no cache,
// no publisher and no metrics.
type Options struct {
	DefaultCurrency string
	SummaryCache    reportapp.SummaryCache
	Publisher       shared.EventPublisher
	Metrics         *telemetry.LedgerMetrics
	Logger          *zap.Logger
}

// Services are the application services of the ledger
type Services struct {
	Catalog  *catalogapp.CatalogService
	Receipts *inventoryapp.ReceiptService
	Orders   *commerceapp.OrderService
	Payments *commerceapp.PaymentService
	Refunds  *commerceapp.RefundService
	Expenses *financeapp.ExpenseService
	Spending *reportapp.SpendingService
}

// NewServices builds every service over db
func NewServices(db *gorm.DB, opts Options) *Services {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	scope := persistence.NewGormTransactionScope(db)
	paymentRepo := persistence.NewGormPaymentRepository(db)

	ledger := inventoryapp.NewStockLedger(log.Named("stock"))
	catalog := catalogapp.NewCatalogService(
		persistence.NewGormProductRepository(db),
		persistence.NewGormVariantRepository(db),
		scope.Catalog(),
		log.Named("catalog"),
	)
	receipts := inventoryapp.NewReceiptService(
		persistence.NewGormReceiptRepository(db),
		persistence.NewGormReceiptItemRepository(db),
		scope.Inventory(),
		ledger,
		opts.DefaultCurrency,
		log.Named("receipt"),
	)
	orders := commerceapp.NewOrderService(persistence.NewGormOrderRepository(db), scope.Commerce(), opts.DefaultCurrency, log.Named("order"))
	payments := commerceapp.NewPaymentService(paymentRepo, scope.Commerce(), orders, opts.DefaultCurrency, log.Named("payment"))
	refunds := commerceapp.NewRefundService(
		persistence.NewGormRefundRepository(db),
		paymentRepo,
		scope.Commerce(),
		payments,
		orders,
		log.Named("refund"),
	)
	expenses := financeapp.NewExpenseService(persistence.NewGormExpenseRepository(db), log.Named("expense"))
	spending := reportapp.NewSpendingService(persistence.NewGormSpendingReportRepository(db), opts.SummaryCache, log.Named("spending"))

	if opts.Metrics != nil {
		ledger.SetLedgerMetrics(opts.Metrics)
		payments.SetLedgerMetrics(opts.Metrics)
		refunds.SetLedgerMetrics(opts.Metrics)
	}
	if opts.Publisher != nil {
		catalog.SetEventPublisher(opts.Publisher)
		receipts.SetEventPublisher(opts.Publisher)
		orders.SetEventPublisher(opts.Publisher)
		payments.SetEventPublisher(opts.Publisher)
		refunds.SetEventPublisher(opts.Publisher)
		expenses.SetEventPublisher(opts.Publisher)
	}

	return &Services{
		Catalog:  catalog,
		Receipts: receipts,
		Orders:   orders,
		Payments: payments,
		Refunds:  refunds,
		Expenses: expenses,
		Spending: spending,
	}
}

// Handlers builds the HTTP handlers over s
func (s *Services) Handlers(health *handler.HealthHandler) router.Handlers {
	return router.Handlers{
		Receipts: handler.NewReceiptHandler(s.Receipts),
		Payments: handler.NewPaymentHandler(s.Payments),
		Refunds:  handler.NewRefundHandler(s.Refunds),
		Orders:   handler.NewOrderHandler(s.Orders),
		Spending: handler.NewSpendingHandler(s.Spending, s.Expenses),
		Catalog:  handler.NewCatalogHandler(s.Catalog),
		Health:   health,
	}
}
