package router

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopledger/backend/internal/application/validation"
	"github.com/shopledger/backend/internal/infrastructure/logger"
	"github.com/shopledger/backend/internal/interfaces/http/dto"
	"github.com/shopledger/backend/internal/interfaces/http/handler"
	"github.com/shopledger/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// Handlers bundles the ledger handlers
type Handlers struct {
	Receipts *handler.ReceiptHandler
	Payments *handler.PaymentHandler
	Refunds  *handler.RefundHandler
	Orders   *handler.OrderHandler
	Spending *handler.SpendingHandler
	Catalog  *handler.CatalogHandler
	Health   *handler.HealthHandler
}

// Options configures the engine built by NewEngine
type Options struct {
	Logger           *zap.Logger
	Auth             middleware.TokenValidator
	ServiceName      string
	TracingEnabled   bool
	ProfilingEnabled bool
	MaxBodySize      int64
	TrustedProxies   []string
}

// NewEngine builds the gin engine with the ledger middleware chain and every
// route. /health stays outside /api/v1 and needs no token.
func NewEngine(opts Options, h Handlers) (*gin.Engine, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	RegisterFieldNames()

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	if err := engine.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, err
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Tracing(opts.ServiceName, opts.TracingEnabled),
		middleware.SpanStatus(),
		middleware.Profiling(opts.ProfilingEnabled),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.BodyLimit(opts.MaxBodySize),
	)
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(dto.GetHTTPStatus(dto.ErrCodeRouteNotFound),
			dto.NewErrorResponse(dto.ErrCodeRouteNotFound, "route not found", middleware.GetRequestID(c)))
	})
	engine.NoMethod(func(c *gin.Context) {
		c.JSON(dto.GetHTTPStatus(dto.ErrCodeMethodNotAllowed),
			dto.NewErrorResponse(dto.ErrCodeMethodNotAllowed, "method not allowed", middleware.GetRequestID(c)))
	})

	engine.GET("/health", h.Health.Check)

	r := NewRouter(engine, WithAPIVersion("v1"))
	r.Use(middleware.OwnerAuth(opts.Auth, log))
	for _, group := range LedgerGroups(h) {
		r.Register(group)
	}
	r.Setup()
	return engine, nil
}

// LedgerGroups declares the authenticated routes.
// Static receipt item routes precede /inventory/receipt/:id.
func LedgerGroups(h Handlers) []*DomainGroup {
	inventory := NewDomainGroup("inventory", "/inventory").
		GET("/receipt/item", h.Receipts.ListItems).
		POST("/receipt/item", h.Receipts.CreateItem).
		GET("/receipt/item/:id", h.Receipts.GetItem).
		PATCH("/receipt/item/:id", h.Receipts.UpdateItem).
		DELETE("/receipt/item/:id", h.Receipts.DeleteItem).
		GET("/receipt", h.Receipts.List).
		POST("/receipt", h.Receipts.Create).
		GET("/receipt/:id", h.Receipts.Get).
		PATCH("/receipt/:id", h.Receipts.Update).
		DELETE("/receipt/:id", h.Receipts.Delete)

	commerce := NewDomainGroup("commerce", "/commerce").
		GET("/payments", h.Payments.List).
		POST("/payments", h.Payments.Create).
		GET("/payments/:id", h.Payments.Get).
		GET("/refunds", h.Refunds.List).
		POST("/refunds", h.Refunds.Create).
		GET("/refunds/:id", h.Refunds.Get).
		PATCH("/refunds/:id", h.Refunds.Update).
		DELETE("/refunds/:id", h.Refunds.Delete)

	orders := NewDomainGroup("orders", "/orders").
		GET("", h.Orders.List).
		POST("", h.Orders.Create).
		GET("/:id", h.Orders.Get).
		PATCH("/:id/status", h.Orders.UpdateStatus)

	spending := NewDomainGroup("spending", "/spending").
		GET("/summary", h.Spending.Summary).
		GET("/expenses", h.Spending.ListExpenses).
		POST("/expenses", h.Spending.CreateExpense).
		DELETE("/expenses/:id", h.Spending.DeleteExpense)

	catalog := NewDomainGroup("catalog", "/catalog").
		GET("/products", h.Catalog.ListProducts).
		POST("/products", h.Catalog.CreateProduct).
		GET("/products/:id", h.Catalog.GetProduct).
		PATCH("/products/:id", h.Catalog.UpdateProduct).
		DELETE("/products/:id", h.Catalog.DeleteProduct).
		POST("/products/:id/variants", h.Catalog.CreateVariant).
		PATCH("/variants/:id", h.Catalog.UpdateVariant).
		DELETE("/variants/:id", h.Catalog.DeleteVariant)

	return []*DomainGroup{inventory, commerce, orders, spending, catalog}
}

// RegisterFieldNames makes gin's binding validator report json field names
func RegisterFieldNames() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(validation.FieldName)
	}
}

