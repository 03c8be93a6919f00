package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/commerce"
	"github.com/shopledger/backend/internal/domain/inventory"
	"github.com/shopledger/backend/internal/domain/report"
	"gorm.io/gorm"
)

// GormSpendingReportRepository implements report.SpendingReader using GORM.
// Every query is a plain aggregate without row locks.
type GormSpendingReportRepository struct {
	db *gorm.DB
}

// NewGormSpendingReportRepository creates a new GormSpendingReportRepository
func NewGormSpendingReportRepository(db *gorm.DB) *GormSpendingReportRepository {
	return &GormSpendingReportRepository{db: db}
}

// expenses scopes the expense rows selected by q
func (r *GormSpendingReportRepository) expenses(ctx context.Context, ownerID uuid.UUID, q report.SpendingQuery) *gorm.DB {
	query := r.db.WithContext(ctx).
		Table("expenses").
		Where("owner_id = ?", ownerID).
		Where("spent_at BETWEEN ? AND ?", q.From, q.To)
	if q.Category != "" {
		query = query.Where("category = ?", q.Category)
	}
	if q.OnlyPaid {
		query = query.Where("is_paid = ?", true)
	}
	return query
}

// ExpenseTotals sums the selected expenses
func (r *GormSpendingReportRepository) ExpenseTotals(ctx context.Context, ownerID uuid.UUID, q report.SpendingQuery) (report.ExpenseTotals, error) {
	var result struct {
		TotalCents        int64
		PaidCents         int64
		SubscriptionCents int64
	}
	err := r.expenses(ctx, ownerID, q).
		Select(`
			COALESCE(SUM(amount_cents), 0) as total_cents,
			COALESCE(SUM(CASE WHEN is_paid THEN amount_cents ELSE 0 END), 0) as paid_cents,
			COALESCE(SUM(CASE WHEN is_subscription THEN amount_cents ELSE 0 END), 0) as subscription_cents
		`).
		Scan(&result).Error
	if err != nil {
		return report.ExpenseTotals{}, translateError(err)
	}
	return report.ExpenseTotals{
		TotalCents:        result.TotalCents,
		PaidCents:         result.PaidCents,
		SubscriptionCents: result.SubscriptionCents,
	}, nil
}

// ExpensesByCategory groups the selected expenses by category, largest total first
func (r *GormSpendingReportRepository) ExpensesByCategory(ctx context.Context, ownerID uuid.UUID, q report.SpendingQuery) ([]report.CategoryTotal, error) {
	var rows []struct {
		Category   string
		TotalCents int64
		Count      int64
	}
	err := r.expenses(ctx, ownerID, q).
		Select("category, COALESCE(SUM(amount_cents), 0) as total_cents, COUNT(*) as count").
		Group("category").
		Order("total_cents DESC").Order("category ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}
	totals := make([]report.CategoryTotal, len(rows))
	for i, row := range rows {
		totals[i] = report.CategoryTotal{Category: row.Category, TotalCents: row.TotalCents, Count: row.Count}
	}
	return totals, nil
}

// SalesTotals computes revenue, COGS and refunds over orders placed in [from, to]
func (r *GormSpendingReportRepository) SalesTotals(ctx context.Context, ownerID uuid.UUID, from, to time.Time) (report.SalesTotals, error) {
	var revenue int64
	err := r.db.WithContext(ctx).
		Table("orders").
		Select("COALESCE(SUM(total_cents), 0)").
		Where("owner_id = ?", ownerID).
		Where("placed_at BETWEEN ? AND ?", from, to).
		Where("status IN ?", commerce.RevenueStatuses).
		Scan(&revenue).Error
	if err != nil {
		return report.SalesTotals{}, translateError(err)
	}

	var lines struct {
		COGSCents    int64 `gorm:"column:cogs_cents"`
		RefundsCents int64
	}
	err = r.db.WithContext(ctx).
		Table("order_items oi").
		Select(`
			COALESCE(SUM(CASE WHEN o.status IN ? THEN oi.qty * oi.unit_cost_cents ELSE 0 END), 0) as cogs_cents,
			COALESCE(SUM(CASE WHEN o.payment_status = ? THEN oi.total_cents ELSE 0 END), 0) as refunds_cents
		`, commerce.SaleStatuses, commerce.OrderPaymentRefunded).
		Joins("JOIN orders o ON o.id = oi.order_id").
		Where("o.owner_id = ?", ownerID).
		Where("o.placed_at BETWEEN ? AND ?", from, to).
		Scan(&lines).Error
	if err != nil {
		return report.SalesTotals{}, translateError(err)
	}

	return report.SalesTotals{
		RevenueCents: revenue,
		COGSCents:    lines.COGSCents,
		RefundsCents: lines.RefundsCents,
	}, nil
}

// InventoryTotals computes the all-time quantity movements and current stock value
func (r *GormSpendingReportRepository) InventoryTotals(ctx context.Context, ownerID uuid.UUID) (report.InventoryTotals, error) {
	var totals report.InventoryTotals

	err := r.db.WithContext(ctx).
		Table("inventory_receipt_items i").
		Select("COALESCE(SUM(i.qty), 0)").
		Joins("JOIN inventory_receipts rc ON rc.id = i.receipt_id").
		Where("rc.owner_id = ? AND rc.status = ?", ownerID, inventory.ReceiptStatusReceived).
		Scan(&totals.ReceivedQty).Error
	if err != nil {
		return report.InventoryTotals{}, translateError(err)
	}

	err = r.db.WithContext(ctx).
		Table("order_items oi").
		Select("COALESCE(SUM(oi.qty), 0)").
		Joins("JOIN orders o ON o.id = oi.order_id").
		Where("o.owner_id = ? AND o.status IN ?", ownerID, commerce.SaleStatuses).
		Scan(&totals.SoldQty).Error
	if err != nil {
		return report.InventoryTotals{}, translateError(err)
	}

	err = r.db.WithContext(ctx).
		Table("refund_items ri").
		Select("COALESCE(SUM(ri.qty), 0)").
		Joins("JOIN refunds f ON f.id = ri.refund_id").
		Where("f.owner_id = ? AND f.status = ?", ownerID, commerce.RefundStatusSucceeded).
		Scan(&totals.ReturnedQty).Error
	if err != nil {
		return report.InventoryTotals{}, translateError(err)
	}

	var productValue, variantValue int64
	if err := r.db.WithContext(ctx).
		Table("products").
		Select("COALESCE(SUM(stock * cost_cents), 0)").
		Where("owner_id = ?", ownerID).
		Scan(&productValue).Error; err != nil {
		return report.InventoryTotals{}, translateError(err)
	}
	if err := r.db.WithContext(ctx).
		Table("product_variants").
		Select("COALESCE(SUM(stock * cost_cents), 0)").
		Where("owner_id = ?", ownerID).
		Scan(&variantValue).Error; err != nil {
		return report.InventoryTotals{}, translateError(err)
	}
	totals.StockValueCents = productValue + variantValue
	return totals, nil
}

// DeliveredOrders lists delivered orders whose delivery falls in [from, to]
func (r *GormSpendingReportRepository) DeliveredOrders(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]report.DeliveredOrder, error) {
	var rows []struct {
		DeliveredAt time.Time
		TotalCents  int64
	}
	err := r.db.WithContext(ctx).
		Table("orders").
		Select("delivered_at, total_cents").
		Where("owner_id = ? AND status = ?", ownerID, commerce.OrderStatusDelivered).
		Where("delivered_at IS NOT NULL").
		Where("delivered_at BETWEEN ? AND ?", from, to).
		Scan(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}
	orders := make([]report.DeliveredOrder, len(rows))
	for i, row := range rows {
		orders[i] = report.DeliveredOrder{DeliveredAt: row.DeliveredAt.UTC(), TotalCents: row.TotalCents}
	}
	return orders, nil
}

// Ensure GormSpendingReportRepository implements report.SpendingReader
var _ report.SpendingReader = (*GormSpendingReportRepository)(nil)
