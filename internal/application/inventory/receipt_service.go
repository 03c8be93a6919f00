package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/application/validation"
	"github.com/shopledger/backend/internal/domain/inventory"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ReceiptService handles inventory receipts and their items.
// Every mutation locks the receipt row first, so concurrent edits of the
// same receipt or any of its items run one after another.
type ReceiptService struct {
	receiptRepo     inventory.ReceiptRepository
	itemRepo        inventory.ReceiptItemRepository
	txScope         TransactionScope
	ledger          *StockLedger
	defaultCurrency string
	eventPublisher  shared.EventPublisher
	logger          *zap.Logger
}

// NewReceiptService creates a new ReceiptService
func NewReceiptService(
	receiptRepo inventory.ReceiptRepository,
	itemRepo inventory.ReceiptItemRepository,
	txScope TransactionScope,
	ledger *StockLedger,
	defaultCurrency string,
	logger *zap.Logger,
) *ReceiptService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReceiptService{
		receiptRepo:     receiptRepo,
		itemRepo:        itemRepo,
		txScope:         txScope,
		ledger:          ledger,
		defaultCurrency: shared.NormalizeCurrencyOrDefault(defaultCurrency),
		logger:          logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *ReceiptService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create opens a DRAFT receipt
func (s *ReceiptService) Create(ctx context.Context, ownerID uuid.UUID, req CreateReceiptRequest) (resp *ReceiptResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "receipt", "create", telemetry.OwnerAttr(ownerID))
	defer func() { telemetry.End(span, err) }()

	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	currency, err := shared.NormalizeCurrency(req.Currency, s.defaultCurrency)
	if err != nil {
		return nil, err
	}

	receipt, err := inventory.NewInventoryReceipt(ownerID, currency, req.TaxCents)
	if err != nil {
		return nil, err
	}
	receipt.UpdateDetails(req.SupplierID, nil, &req.Reference, &req.Notes, req.ReceivedAt)

	events := &shared.EventCollector{}
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.ReceiptRepo().Save(ctx, receipt); err != nil {
			return err
		}
		events.Collect(receipt)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events)

	out := ToReceiptResponse(receipt)
	return &out, nil
}

// GetByID returns a receipt with its items
func (s *ReceiptService) GetByID(ctx context.Context, ownerID, receiptID uuid.UUID) (*ReceiptResponse, error) {
	receipt, err := s.receiptRepo.FindByID(ctx, ownerID, receiptID)
	if err != nil {
		return nil, err
	}
	items, err := s.itemRepo.FindByReceipt(ctx, ownerID, receiptID)
	if err != nil {
		return nil, err
	}
	receipt.Items = items
	out := ToReceiptResponse(receipt)
	return &out, nil
}

// List returns one page of receipts, newest first
func (s *ReceiptService) List(ctx context.Context, ownerID uuid.UUID, filter ReceiptListFilter) (shared.CursorPage[ReceiptResponse], error) {
	if err := validation.Struct(filter); err != nil {
		return shared.CursorPage[ReceiptResponse]{}, err
	}
	cursor, err := validation.Cursor(filter.Cursor, filter.Limit)
	if err != nil {
		return shared.CursorPage[ReceiptResponse]{}, err
	}
	domainFilter := inventory.ReceiptFilter{CursorFilter: cursor}
	if filter.Status != "" {
		status := inventory.ReceiptStatus(filter.Status)
		domainFilter.Status = &status
	}

	page, err := s.receiptRepo.List(ctx, ownerID, domainFilter)
	if err != nil {
		return shared.CursorPage[ReceiptResponse]{}, err
	}
	return shared.MapCursorPage(page, func(r inventory.InventoryReceipt) ReceiptResponse {
		return ToReceiptResponse(&r)
	}), nil
}

// Update applies a partial receipt update. Header fields and tax are applied
// first; a status change then applies or reverts every item's stock.
func (s *ReceiptService) Update(ctx context.Context, ownerID, receiptID uuid.UUID, req UpdateReceiptRequest) (resp *ReceiptResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "receipt", "update",
		telemetry.OwnerAttr(ownerID), telemetry.IDAttr("receipt.id", receiptID))
	defer func() { telemetry.End(span, err) }()

	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	var currency *string
	if req.Currency != nil {
		c, err := shared.NormalizeCurrency(*req.Currency, s.defaultCurrency)
		if err != nil {
			return nil, err
		}
		currency = &c
	}

	events := &shared.EventCollector{}
	var receipt *inventory.InventoryReceipt
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		events.Reset()
		var err error
		receipt, err = repos.ReceiptRepo().FindByIDForUpdate(ctx, ownerID, receiptID)
		if err != nil {
			return err
		}
		items, err := repos.ReceiptItemRepo().FindByReceipt(ctx, ownerID, receipt.ID)
		if err != nil {
			return err
		}

		receipt.UpdateDetails(req.SupplierID, currency, req.Reference, req.Notes, req.ReceivedAt)
		if req.TaxCents != nil {
			if err := receipt.SetTax(*req.TaxCents); err != nil {
				return err
			}
		}

		if req.Status != nil {
			effect, err := receipt.TransitionTo(inventory.ReceiptStatus(*req.Status))
			if err != nil {
				return err
			}
			if err := s.applyEffect(ctx, repos, ownerID, effect, items, events); err != nil {
				return err
			}
		}

		receipt.RecalculateTotals(items)
		receipt.AddDomainEvent(inventory.NewReceiptEvent(receipt, inventory.EventTypeReceiptUpdated))
		if err := repos.ReceiptRepo().Save(ctx, receipt); err != nil {
			return err
		}
		events.Collect(receipt)
		receipt.Items = items
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events)

	s.logger.Info("receipt updated",
		zap.String("receipt_id", receipt.ID.String()),
		zap.String("status", string(receipt.Status)),
		zap.Int64("total_cents", receipt.TotalCents),
	)
	out := ToReceiptResponse(receipt)
	return &out, nil
}

// Delete removes a receipt and its items. A RECEIVED receipt has its stock
// reverted first; the delete fails if that would drive any stock negative.
func (s *ReceiptService) Delete(ctx context.Context, ownerID, receiptID uuid.UUID) (err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "receipt", "delete",
		telemetry.OwnerAttr(ownerID), telemetry.IDAttr("receipt.id", receiptID))
	defer func() { telemetry.End(span, err) }()

	if err := shared.EnsureDeletable(shared.EntityInventoryReceipt); err != nil {
		return err
	}

	events := &shared.EventCollector{}
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		events.Reset()
		receipt, err := repos.ReceiptRepo().FindByIDForUpdate(ctx, ownerID, receiptID)
		if err != nil {
			return err
		}
		if receipt.IsReceived() {
			items, err := repos.ReceiptItemRepo().FindByReceipt(ctx, ownerID, receipt.ID)
			if err != nil {
				return err
			}
			if err := s.applyEffect(ctx, repos, ownerID, inventory.StockEffectRevert, items, events); err != nil {
				return err
			}
		}
		if err := repos.ReceiptRepo().Delete(ctx, ownerID, receipt.ID); err != nil {
			return err
		}
		events.Add(inventory.NewReceiptEvent(receipt, inventory.EventTypeReceiptDeleted))
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, events)
	return nil
}

// CreateItem adds a line to a DRAFT or RECEIVED receipt. On a RECEIVED
// receipt the line's quantity is added to stock immediately.
func (s *ReceiptService) CreateItem(ctx context.Context, ownerID uuid.UUID, req CreateReceiptItemRequest) (result *ReceiptItemResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "receipt", "create_item",
		telemetry.OwnerAttr(ownerID), telemetry.IDAttr("receipt.id", req.ReceiptID))
	defer func() { telemetry.End(span, err) }()

	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	events := &shared.EventCollector{}
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		events.Reset()
		receipt, err := repos.ReceiptRepo().FindByIDForUpdate(ctx, ownerID, req.ReceiptID)
		if err != nil {
			return err
		}
		if err := receipt.EnsureItemsEditable(); err != nil {
			return err
		}
		if err := s.resolveTarget(ctx, repos, ownerID, req.ProductID, req.VariantID); err != nil {
			return err
		}

		position, err := repos.ReceiptItemRepo().NextPosition(ctx, receipt.ID)
		if err != nil {
			return err
		}
		item, err := inventory.NewInventoryReceiptItem(receipt, req.ProductID, req.VariantID, req.Qty, req.UnitCostCents, position)
		if err != nil {
			return err
		}
		if err := repos.ReceiptItemRepo().Save(ctx, item); err != nil {
			return err
		}
		if receipt.IsReceived() {
			if err := s.ledger.ApplyDelta(ctx, repos, ownerID, item.StockDelta(inventory.Increase), events); err != nil {
				return err
			}
		}

		if err := s.recalculate(ctx, repos, receipt, events); err != nil {
			return err
		}
		result = &ReceiptItemResult{
			Item:    ToReceiptItemResponse(item),
			Receipt: ToReceiptTotalsResponse(receipt),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events)
	return result, nil
}

// ListItems returns a receipt's items in insertion order
func (s *ReceiptService) ListItems(ctx context.Context, ownerID, receiptID uuid.UUID) ([]ReceiptItemResponse, error) {
	if _, err := s.receiptRepo.FindByID(ctx, ownerID, receiptID); err != nil {
		return nil, err
	}
	items, err := s.itemRepo.FindByReceipt(ctx, ownerID, receiptID)
	if err != nil {
		return nil, err
	}
	return ToReceiptItemResponses(items), nil
}

// GetItem returns a single receipt item
func (s *ReceiptService) GetItem(ctx context.Context, ownerID, itemID uuid.UUID) (*ReceiptItemResponse, error) {
	item, err := s.itemRepo.FindByID(ctx, ownerID, itemID)
	if err != nil {
		return nil, err
	}
	out := ToReceiptItemResponse(item)
	return &out, nil
}

// UpdateItem edits a line. On a RECEIVED receipt the old line is reverted
// and the new line applied in the same transaction, so the row only changes
// when both ledger calls succeed.
func (s *ReceiptService) UpdateItem(ctx context.Context, ownerID, itemID uuid.UUID, req UpdateReceiptItemRequest) (result *ReceiptItemResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "receipt", "update_item",
		telemetry.OwnerAttr(ownerID), telemetry.IDAttr("receipt_item.id", itemID))
	defer func() { telemetry.End(span, err) }()

	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	events := &shared.EventCollector{}
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		events.Reset()
		receipt, item, err := s.lockItem(ctx, repos, ownerID, itemID)
		if err != nil {
			return err
		}
		if err := receipt.EnsureItemsEditable(); err != nil {
			return err
		}

		productID, variantID := item.ProductID, item.VariantID
		targetChanged := false
		if req.ProductID != nil && *req.ProductID != item.ProductID {
			productID = *req.ProductID
			variantID = nil
			targetChanged = true
		}
		if req.VariantID != nil {
			variantID = nil
			if *req.VariantID != uuid.Nil {
				v := *req.VariantID
				variantID = &v
			}
			targetChanged = true
		}
		if targetChanged {
			if err := s.resolveTarget(ctx, repos, ownerID, productID, variantID); err != nil {
				return err
			}
		}
		qty, unitCost := item.Qty, item.UnitCostCents
		if req.Qty != nil {
			qty = *req.Qty
		}
		if req.UnitCostCents != nil {
			unitCost = *req.UnitCostCents
		}

		previous := item.StockDelta(inventory.Decrease)
		if err := item.Revise(productID, variantID, qty, unitCost); err != nil {
			return err
		}
		if receipt.IsReceived() {
			next := item.StockDelta(inventory.Increase)
			if err := s.ledger.LockTargets(ctx, repos, ownerID, previous, next); err != nil {
				return err
			}
			if err := s.ledger.ApplyDelta(ctx, repos, ownerID, previous, events); err != nil {
				return err
			}
			if err := s.ledger.ApplyDelta(ctx, repos, ownerID, next, events); err != nil {
				return err
			}
		}
		if err := repos.ReceiptItemRepo().Save(ctx, item); err != nil {
			return err
		}

		if err := s.recalculate(ctx, repos, receipt, events); err != nil {
			return err
		}
		result = &ReceiptItemResult{
			Item:    ToReceiptItemResponse(item),
			Receipt: ToReceiptTotalsResponse(receipt),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events)
	return result, nil
}

// DeleteItem removes a line, reverting its stock first when the receipt is RECEIVED
func (s *ReceiptService) DeleteItem(ctx context.Context, ownerID, itemID uuid.UUID) (totals *ReceiptTotalsResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "receipt", "delete_item",
		telemetry.OwnerAttr(ownerID), telemetry.IDAttr("receipt_item.id", itemID))
	defer func() { telemetry.End(span, err) }()

	events := &shared.EventCollector{}
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		events.Reset()
		receipt, item, err := s.lockItem(ctx, repos, ownerID, itemID)
		if err != nil {
			return err
		}
		if err := receipt.EnsureItemsEditable(); err != nil {
			return err
		}
		if receipt.IsReceived() {
			if err := s.ledger.ApplyDelta(ctx, repos, ownerID, item.StockDelta(inventory.Decrease), events); err != nil {
				return err
			}
		}
		if err := repos.ReceiptItemRepo().Delete(ctx, ownerID, item.ID); err != nil {
			return err
		}
		if err := s.recalculate(ctx, repos, receipt, events); err != nil {
			return err
		}
		out := ToReceiptTotalsResponse(receipt)
		totals = &out
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events)
	return totals, nil
}

// lockItem locks the item's receipt and then re-reads the item, so the row
// cannot change between the read and the caller's write.
func (s *ReceiptService) lockItem(ctx context.Context, repos TransactionalRepositories, ownerID, itemID uuid.UUID) (*inventory.InventoryReceipt, *inventory.InventoryReceiptItem, error) {
	item, err := repos.ReceiptItemRepo().FindByID(ctx, ownerID, itemID)
	if err != nil {
		return nil, nil, err
	}
	receipt, err := repos.ReceiptRepo().FindByIDForUpdate(ctx, ownerID, item.ReceiptID)
	if err != nil {
		return nil, nil, err
	}
	item, err = repos.ReceiptItemRepo().FindByID(ctx, ownerID, itemID)
	if err != nil {
		return nil, nil, err
	}
	return receipt, item, nil
}

// resolveTarget checks that the product (and variant, if any) are owned,
// active and related.
func (s *ReceiptService) resolveTarget(ctx context.Context, repos TransactionalRepositories, ownerID, productID uuid.UUID, variantID *uuid.UUID) error {
	product, err := repos.ProductRepo().FindByID(ctx, ownerID, productID)
	if err != nil {
		return err
	}
	if !product.IsActive {
		return shared.NewNotFoundError("product")
	}
	if variantID == nil || *variantID == uuid.Nil {
		return nil
	}
	variant, err := repos.VariantRepo().FindByID(ctx, ownerID, *variantID)
	if err != nil {
		return err
	}
	if !variant.BelongsTo(productID) {
		return shared.NewValidationError("variantId does not belong to productId")
	}
	if !variant.IsActive {
		return shared.NewNotFoundError("variant")
	}
	return nil
}

// applyEffect applies or reverts every item of a receipt. All stock rows are
// locked in stock order and reverts are checked for availability before any
// row is touched.
func (s *ReceiptService) applyEffect(ctx context.Context, repos TransactionalRepositories, ownerID uuid.UUID, effect inventory.StockEffect, items []inventory.InventoryReceiptItem, events *shared.EventCollector) error {
	direction := inventory.Increase
	switch effect {
	case inventory.StockEffectNone:
		return nil
	case inventory.StockEffectRevert:
		direction = inventory.Decrease
	}

	deltas := make([]inventory.StockDelta, len(items))
	for i := range items {
		deltas[i] = items[i].StockDelta(direction)
	}
	if err := s.ledger.EnsureAvailable(ctx, repos, ownerID, deltas); err != nil {
		return err
	}
	for _, d := range deltas {
		if err := s.ledger.ApplyDelta(ctx, repos, ownerID, d, events); err != nil {
			return err
		}
	}
	return nil
}

// recalculate sets the receipt subtotal from its persisted items and saves it
func (s *ReceiptService) recalculate(ctx context.Context, repos TransactionalRepositories, receipt *inventory.InventoryReceipt, events *shared.EventCollector) error {
	items, err := repos.ReceiptItemRepo().FindByReceipt(ctx, receipt.OwnerID, receipt.ID)
	if err != nil {
		return err
	}
	receipt.RecalculateTotals(items)
	receipt.AddDomainEvent(inventory.NewReceiptEvent(receipt, inventory.EventTypeReceiptUpdated))
	if err := repos.ReceiptRepo().Save(ctx, receipt); err != nil {
		return err
	}
	events.Collect(receipt)
	return nil
}

// publish hands committed events to the publisher. Failures are logged;
// the transaction has already committed.
func (s *ReceiptService) publish(ctx context.Context, events *shared.EventCollector) {
	if s.eventPublisher == nil || len(events.Events()) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events.Events()...); err != nil {
		s.logger.Warn("failed to publish receipt events",
			zap.Int("count", len(events.Events())),
			zap.Error(err),
		)
	}
}
