package commerce

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/application/validation"
	"github.com/shopledger/backend/internal/domain/commerce"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// OrderService handles order placement, listing and the order lifecycle.
// It is also the only writer of an order's payment status projection.
type OrderService struct {
	orderRepo       commerce.OrderRepository
	txScope         TransactionScope
	defaultCurrency string
	eventPublisher  shared.EventPublisher
	logger          *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(orderRepo commerce.OrderRepository, txScope TransactionScope, defaultCurrency string, logger *zap.Logger) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		orderRepo:       orderRepo,
		txScope:         txScope,
		defaultCurrency: shared.NormalizeCurrencyOrDefault(defaultCurrency),
		logger:          logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *OrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create places a PENDING order. Line identity and unit cost are copied from
// the catalog so later catalog edits do not change the order.
func (s *OrderService) Create(ctx context.Context, ownerID uuid.UUID, req CreateOrderRequest) (resp *OrderResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "create", telemetry.OwnerAttr(ownerID))
	defer func() { telemetry.End(span, err) }()

	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	currency, err := shared.NormalizeCurrency(req.Currency, s.defaultCurrency)
	if err != nil {
		return nil, err
	}

	events := &shared.EventCollector{}
	var order *commerce.Order
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		events.Reset()
		lines, err := s.resolveLines(ctx, repos, ownerID, req.Items)
		if err != nil {
			return err
		}
		order, err = commerce.NewOrder(ownerID, currency, lines,
			commerce.OrderCharges{
				DiscountCents: req.DiscountCents,
				ShippingCents: req.ShippingCents,
				TaxCents:      req.TaxCents,
			},
			commerce.CustomerSnapshot(req.Customer),
			commerce.Address(req.ShipTo),
		)
		if err != nil {
			return err
		}
		if err := repos.OrderRepo().Create(ctx, order); err != nil {
			return err
		}
		events.Collect(order)
		return nil
	})
	if err != nil {
		return nil, err
	}
	publish(ctx, s.eventPublisher, s.logger, events)

	s.logger.Info("order placed",
		zap.String("order_id", order.ID.String()),
		zap.Int("items", len(order.Items)),
		zap.Int64("total_cents", order.TotalCents),
	)
	out := ToOrderResponse(order)
	return &out, nil
}

// GetByID returns an order with its items
func (s *OrderService) GetByID(ctx context.Context, ownerID, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, ownerID, orderID)
	if err != nil {
		return nil, err
	}
	out := ToOrderResponse(order)
	return &out, nil
}

// List returns one page of orders, most recently placed first
func (s *OrderService) List(ctx context.Context, ownerID uuid.UUID, filter OrderListFilter) (shared.CursorPage[OrderResponse], error) {
	if err := validation.Struct(filter); err != nil {
		return shared.CursorPage[OrderResponse]{}, err
	}
	cursor, err := validation.Cursor(filter.Cursor, filter.Limit)
	if err != nil {
		return shared.CursorPage[OrderResponse]{}, err
	}
	domainFilter := commerce.OrderFilter{CursorFilter: cursor}
	if filter.Status != "" {
		st := commerce.OrderStatus(filter.Status)
		domainFilter.Status = &st
	}
	if filter.PaymentStatus != "" {
		ps := commerce.OrderPaymentStatus(filter.PaymentStatus)
		domainFilter.PaymentStatus = &ps
	}

	page, err := s.orderRepo.List(ctx, ownerID, domainFilter)
	if err != nil {
		return shared.CursorPage[OrderResponse]{}, err
	}
	return shared.MapCursorPage(page, func(o commerce.Order) OrderResponse {
		return ToOrderResponse(&o)
	}), nil
}

// UpdateStatus moves an order along its lifecycle
func (s *OrderService) UpdateStatus(ctx context.Context, ownerID, orderID uuid.UUID, req UpdateOrderStatusRequest) (resp *OrderResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "update_status",
		telemetry.OwnerAttr(ownerID), telemetry.IDAttr("order.id", orderID))
	defer func() { telemetry.End(span, err) }()

	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	events := &shared.EventCollector{}
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		events.Reset()
		order, err := repos.OrderRepo().FindByIDForUpdate(ctx, ownerID, orderID)
		if err != nil {
			return err
		}
		if err := order.TransitionTo(commerce.OrderStatus(req.Status), req.DeliveredAt); err != nil {
			return err
		}
		if err := repos.OrderRepo().Update(ctx, order); err != nil {
			return err
		}
		events.Collect(order)
		return nil
	})
	if err != nil {
		return nil, err
	}
	publish(ctx, s.eventPublisher, s.logger, events)

	return s.GetByID(ctx, ownerID, orderID)
}

// ProjectPaymentStatus sets an order's payment status inside the caller's
// transaction. The order row is locked; nothing is written when the status
// is unchanged.
func (s *OrderService) ProjectPaymentStatus(ctx context.Context, repos TransactionalRepositories, ownerID, orderID uuid.UUID, status commerce.OrderPaymentStatus, events *shared.EventCollector) error {
	order, err := repos.OrderRepo().FindByIDForUpdate(ctx, ownerID, orderID)
	if err != nil {
		return err
	}
	if !order.ProjectPaymentStatus(status) {
		return nil
	}
	if err := repos.OrderRepo().Update(ctx, order); err != nil {
		return err
	}
	events.Collect(order)
	s.logger.Debug("order payment status projected",
		zap.String("order_id", orderID.String()),
		zap.String("payment_status", string(status)),
	)
	return nil
}

// resolveLines snapshots SKU, name and cost for each requested line
func (s *OrderService) resolveLines(ctx context.Context, repos TransactionalRepositories, ownerID uuid.UUID, items []CreateOrderItemRequest) ([]commerce.OrderLine, error) {
	lines := make([]commerce.OrderLine, 0, len(items))
	for idx, item := range items {
		product, err := repos.ProductRepo().FindByID(ctx, ownerID, item.ProductID)
		if err != nil {
			return nil, err
		}
		if !product.IsActive {
			return nil, shared.NewNotFoundError(fmt.Sprintf("items[%d] product", idx))
		}
		line := commerce.OrderLine{
			ProductID:      product.ID,
			SKU:            product.SKU,
			Name:           product.Name,
			Qty:            item.Qty,
			UnitPriceCents: product.PriceCents,
			UnitCostCents:  product.CostCents,
		}
		if item.VariantID != nil && *item.VariantID != uuid.Nil {
			variant, err := repos.VariantRepo().FindByID(ctx, ownerID, *item.VariantID)
			if err != nil {
				return nil, err
			}
			if !variant.BelongsTo(product.ID) {
				return nil, shared.NewValidationError(fmt.Sprintf("items[%d].variantId does not belong to productId", idx))
			}
			if !variant.IsActive {
				return nil, shared.NewNotFoundError(fmt.Sprintf("items[%d] variant", idx))
			}
			id := variant.ID
			line.VariantID = &id
			line.SKU = variant.SKU
			line.Name = product.Name + " / " + variant.Name
			line.UnitPriceCents = variant.PriceCents
			line.UnitCostCents = variant.CostCents
		}
		if item.UnitPriceCents != nil {
			line.UnitPriceCents = *item.UnitPriceCents
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// publish hands committed events to the publisher. Failures are logged;
// the transaction has already committed.
func publish(ctx context.Context, publisher shared.EventPublisher, logger *zap.Logger, events *shared.EventCollector) {
	if publisher == nil || len(events.Events()) == 0 {
		return
	}
	if err := publisher.Publish(ctx, events.Events()...); err != nil {
		logger.Warn("failed to publish commerce events",
			zap.Int("count", len(events.Events())),
			zap.Error(err),
		)
	}
}
