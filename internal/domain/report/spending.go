package report

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// HistogramMonths is the fixed length of the monthly revenue histogram
const HistogramMonths = 12

// DefaultSpendingWindow is the range used when no start date is given
const DefaultSpendingWindow = 30 * 24 * time.Hour

// SpendingQuery selects the expense rows and sales window of a summary
type SpendingQuery struct {
	From     time.Time
	To       time.Time
	Category string
	OnlyPaid bool
}

// NewSpendingQuery resolves optional bounds: To defaults to now and From to
// the trailing window before To
func NewSpendingQuery(from, to *time.Time, category string, onlyPaid bool, now time.Time) (SpendingQuery, error) {
	q := SpendingQuery{To: now.UTC(), Category: category, OnlyPaid: onlyPaid}
	if to != nil {
		q.To = to.UTC()
	}
	q.From = q.To.Add(-DefaultSpendingWindow)
	if from != nil {
		q.From = from.UTC()
	}
	if q.From.After(q.To) {
		return SpendingQuery{}, shared.NewValidationError("from must not be after to")
	}
	return q, nil
}

// Days is the number of days covered by the query, at least one
func (q SpendingQuery) Days() int64 {
	d := int64(math.Ceil(q.To.Sub(q.From).Hours() / 24))
	if d < 1 {
		return 1
	}
	return d
}

// ExpenseTotals are the filtered sums over expense rows
type ExpenseTotals struct {
	TotalCents        int64
	PaidCents         int64
	SubscriptionCents int64
}

// CategoryTotal is the spend of one category
type CategoryTotal struct {
	Category   string
	TotalCents int64
	Count      int64
}

// SalesTotals are the order-side sums of the P&L
type SalesTotals struct {
	RevenueCents int64
	COGSCents    int64
	RefundsCents int64
}

// InventoryTotals are the all-time quantity movements
type InventoryTotals struct {
	ReceivedQty     int64
	SoldQty         int64
	ReturnedQty     int64
	StockValueCents int64
}

// DeliveredOrder is the minimal projection used for the revenue histogram
type DeliveredOrder struct {
	DeliveredAt time.Time
	TotalCents  int64
}

// MonthlyRevenue is one bucket of the revenue histogram
type MonthlyRevenue struct {
	Month      string `json:"month"`
	TotalCents int64  `json:"totalCents"`
}

// SpendingReader runs the read-only aggregation queries
type SpendingReader interface {
	ExpenseTotals(ctx context.Context, ownerID uuid.UUID, q SpendingQuery) (ExpenseTotals, error)
	ExpensesByCategory(ctx context.Context, ownerID uuid.UUID, q SpendingQuery) ([]CategoryTotal, error)
	SalesTotals(ctx context.Context, ownerID uuid.UUID, from, to time.Time) (SalesTotals, error)
	InventoryTotals(ctx context.Context, ownerID uuid.UUID) (InventoryTotals, error)
	DeliveredOrders(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]DeliveredOrder, error)
}

// Summary is the derived spending, P&L and inventory report
type Summary struct {
	From              time.Time        `json:"from"`
	To                time.Time        `json:"to"`
	Days              int64            `json:"days"`
	TotalSpendCents   int64            `json:"totalSpendCents"`
	PaidSpendCents    int64            `json:"paidSpendCents"`
	SubscriptionCents int64            `json:"subscriptionSpendCents"`
	AvgPerDayCents    int64            `json:"avgPerDayCents"`
	ByCategory        []CategoryTotal  `json:"byCategory"`
	RevenueCents      int64            `json:"revenueCents"`
	COGSCents         int64            `json:"cogsCents"`
	RefundsCents      int64            `json:"refundsCents"`
	GrossProfitCents  int64            `json:"grossProfitCents"`
	GrossMarginPct    string           `json:"grossMarginPct"`
	ReceivedQty       int64            `json:"receivedQty"`
	SoldQty           int64            `json:"soldQty"`
	ReturnedQty       int64            `json:"returnedQty"`
	InStockQty        int64            `json:"inStockQty"`
	StockValueCents   int64            `json:"stockValueCents"`
	SellThroughRate   string           `json:"sellThroughRate"`
	Revenue12m        []MonthlyRevenue `json:"revenue12m"`
}

// BuildSummary derives the report from the aggregated inputs
func BuildSummary(q SpendingQuery, exp ExpenseTotals, cats []CategoryTotal, sales SalesTotals, inv InventoryTotals, delivered []DeliveredOrder) Summary {
	days := q.Days()
	s := Summary{
		From:              q.From,
		To:                q.To,
		Days:              days,
		TotalSpendCents:   exp.TotalCents,
		PaidSpendCents:    exp.PaidCents,
		SubscriptionCents: exp.SubscriptionCents,
		AvgPerDayCents:    decimal.NewFromInt(exp.TotalCents).Div(decimal.NewFromInt(days)).Round(0).IntPart(),
		ByCategory:        cats,
		RevenueCents:      sales.RevenueCents,
		COGSCents:         sales.COGSCents,
		RefundsCents:      sales.RefundsCents,
		GrossProfitCents:  sales.RevenueCents - sales.COGSCents - sales.RefundsCents,
		ReceivedQty:       inv.ReceivedQty,
		SoldQty:           inv.SoldQty,
		ReturnedQty:       inv.ReturnedQty,
		InStockQty:        InStockQty(inv),
		StockValueCents:   inv.StockValueCents,
		Revenue12m:        BuildRevenueHistogram(q.To, delivered),
	}
	if s.ByCategory == nil {
		s.ByCategory = []CategoryTotal{}
	}

	s.GrossMarginPct = "0"
	if sales.RevenueCents > 0 {
		s.GrossMarginPct = decimal.NewFromInt(s.GrossProfitCents).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(sales.RevenueCents)).
			StringFixed(2)
	}
	s.SellThroughRate = "0"
	if inv.ReceivedQty > 0 {
		s.SellThroughRate = decimal.NewFromInt(inv.SoldQty).
			Div(decimal.NewFromInt(inv.ReceivedQty)).
			StringFixed(4)
	}
	return s
}

// InStockQty is received minus sold plus returned, floored at zero
func InStockQty(inv InventoryTotals) int64 {
	q := inv.ReceivedQty - inv.SoldQty + inv.ReturnedQty
	if q < 0 {
		return 0
	}
	return q
}

// HistogramStart returns the first instant of the oldest histogram month ending at end
func HistogramStart(end time.Time) time.Time {
	end = end.UTC()
	return time.Date(end.Year(), end.Month()-(HistogramMonths-1), 1, 0, 0, 0, 0, time.UTC)
}

// BuildRevenueHistogram buckets delivered orders by delivery month into
// exactly HistogramMonths zero-filled buckets, oldest first, ending at the
// month of end. Orders outside the window are ignored.
func BuildRevenueHistogram(end time.Time, delivered []DeliveredOrder) []MonthlyRevenue {
	start := HistogramStart(end)
	buckets := make([]MonthlyRevenue, HistogramMonths)
	index := make(map[string]int, HistogramMonths)
	for i := 0; i < HistogramMonths; i++ {
		key := start.AddDate(0, i, 0).Format("2006-01")
		buckets[i] = MonthlyRevenue{Month: key}
		index[key] = i
	}
	for _, o := range delivered {
		if i, ok := index[o.DeliveredAt.UTC().Format("2006-01")]; ok {
			buckets[i].TotalCents += o.TotalCents
		}
	}
	return buckets
}
