package inventory

import (
	"bytes"
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/catalog"
	"github.com/shopledger/backend/internal/domain/inventory"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// StockLedger is the only writer of product and variant stock.
// It never opens a transaction of its own: every call runs on the caller's
// transactional repositories so stock and bookkeeping commit together.
type StockLedger struct {
	logger  *zap.Logger
	metrics *telemetry.LedgerMetrics
}

// NewStockLedger creates a new StockLedger
func NewStockLedger(logger *zap.Logger) *StockLedger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockLedger{logger: logger}
}

// SetLedgerMetrics sets the ledger metrics collector
func (l *StockLedger) SetLedgerMetrics(m *telemetry.LedgerMetrics) {
	l.metrics = m
}

// ApplyDelta applies one signed delta to the targeted stock column.
// The target row is locked first; a decrement that would go below zero fails
// with ErrInsufficientStock and changes nothing. Variant changes refresh the
// owning product's display fields.
func (l *StockLedger) ApplyDelta(ctx context.Context, repos TransactionalRepositories, ownerID uuid.UUID, d inventory.StockDelta, events *shared.EventCollector) error {
	if err := d.Validate(); err != nil {
		return err
	}
	stock, err := l.lock(ctx, repos, ownerID, []inventory.StockDelta{d})
	if err != nil {
		return err
	}
	current := stock[keyOf(d.Target)]

	if current+d.Signed() < 0 {
		l.metrics.RecordStockRejected(ctx)
		return insufficientStock(d, current)
	}

	if d.Target.IsVariant() {
		err = repos.VariantRepo().AdjustStock(ctx, ownerID, *d.Target.VariantID, d.Signed())
	} else {
		err = repos.ProductRepo().AdjustStock(ctx, ownerID, d.Target.ProductID, d.Signed())
	}
	if err != nil {
		return err
	}

	if _, err := catalog.RefreshDisplay(ctx, repos.ProductRepo(), repos.VariantRepo(), ownerID, d.Target.ProductID); err != nil {
		return err
	}

	after := current + d.Signed()
	l.metrics.RecordStockDelta(ctx, d.Signed(), d.Target.IsVariant())
	l.logger.Debug("stock delta applied",
		zap.String("product_id", d.Target.ProductID.String()),
		zap.Bool("variant", d.Target.IsVariant()),
		zap.Int64("delta", d.Signed()),
		zap.Int64("stock_after", after),
	)
	if events != nil {
		events.Add(inventory.NewStockChangedEvent(ownerID, d, after))
	}
	return nil
}

// LockTargets takes the row locks for every target in deltas in stock order,
// so a batch that is applied afterwards never waits on a row out of order.
func (l *StockLedger) LockTargets(ctx context.Context, repos TransactionalRepositories, ownerID uuid.UUID, deltas ...inventory.StockDelta) error {
	for _, d := range deltas {
		if err := d.Validate(); err != nil {
			return err
		}
	}
	_, err := l.lock(ctx, repos, ownerID, deltas)
	return err
}

// EnsureAvailable locks every target in deltas and checks that each
// decrement can be applied, summing decrements that hit the same stock
// column. The answer holds until the transaction ends.
func (l *StockLedger) EnsureAvailable(ctx context.Context, repos TransactionalRepositories, ownerID uuid.UUID, deltas []inventory.StockDelta) error {
	needed := make(map[stockKey]inventory.StockDelta)
	order := make([]stockKey, 0, len(deltas))
	for _, d := range deltas {
		if err := d.Validate(); err != nil {
			return err
		}
		if d.Direction != inventory.Decrease {
			continue
		}
		k := keyOf(d.Target)
		agg, seen := needed[k]
		if !seen {
			agg = d
			agg.Qty = 0
			order = append(order, k)
		}
		agg.Qty += d.Qty
		needed[k] = agg
	}

	stock, err := l.lock(ctx, repos, ownerID, deltas)
	if err != nil {
		return err
	}
	for _, k := range order {
		d := needed[k]
		if current := stock[k]; current < d.Qty {
			l.metrics.RecordStockRejected(ctx)
			return insufficientStock(d, current)
		}
	}
	return nil
}

// stockKey names one stock column. A zero variant is the product's own
// column.
type stockKey struct {
	product uuid.UUID
	variant uuid.UUID
}

func keyOf(t inventory.StockTarget) stockKey {
	k := stockKey{product: t.ProductID}
	if t.IsVariant() {
		k.variant = *t.VariantID
	}
	return k
}

// compareStockKeys is the lock order: by product id, with the product row
// ahead of its variants and variants by id.
func compareStockKeys(a, b stockKey) int {
	if c := bytes.Compare(a.product[:], b.product[:]); c != 0 {
		return c
	}
	return bytes.Compare(a.variant[:], b.variant[:])
}

// lock row-locks the targets of deltas in stock order and returns the stock
// read under each lock. A variant target also locks its product, which the
// display refresh writes.
func (l *StockLedger) lock(ctx context.Context, repos TransactionalRepositories, ownerID uuid.UUID, deltas []inventory.StockDelta) (map[stockKey]int64, error) {
	keys := make([]stockKey, 0, 2*len(deltas))
	for _, d := range deltas {
		k := keyOf(d.Target)
		keys = append(keys, k)
		if k.variant != uuid.Nil {
			keys = append(keys, stockKey{product: k.product})
		}
	}
	slices.SortFunc(keys, compareStockKeys)
	keys = slices.Compact(keys)

	stock := make(map[stockKey]int64, len(keys))
	for _, k := range keys {
		if k.variant == uuid.Nil {
			product, err := repos.ProductRepo().FindByIDForUpdate(ctx, ownerID, k.product)
			if err != nil {
				return nil, err
			}
			stock[k] = product.Stock
			continue
		}
		variant, err := repos.VariantRepo().FindByIDForUpdate(ctx, ownerID, k.variant)
		if err != nil {
			return nil, err
		}
		if !variant.BelongsTo(k.product) {
			return nil, shared.NewValidationError("variant does not belong to product")
		}
		stock[k] = variant.Stock
	}
	return stock, nil
}

func insufficientStock(d inventory.StockDelta, current int64) error {
	target := "product " + d.Target.ProductID.String()
	if d.Target.IsVariant() {
		target = "variant " + d.Target.VariantID.String()
	}
	return shared.NewDomainError(shared.CodeInsufficientStock,
		fmt.Sprintf("insufficient stock for %s: have %d, need %d", target, current, d.Qty))
}
