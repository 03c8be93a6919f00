package report

import (
	"time"

	"github.com/shopledger/backend/internal/domain/report"
)

// SpendingSummaryResponse is the spending summary as returned to callers
type SpendingSummaryResponse struct {
	Range      SummaryRange            `json:"range"`
	Totals     SpendTotals             `json:"totals"`
	ByCategory []CategorySpend         `json:"byCategory"`
	PnL        ProfitAndLoss           `json:"pnl"`
	Inventory  InventorySummary        `json:"inventory"`
	Revenue12m []report.MonthlyRevenue `json:"revenue12m"`
}

// SummaryRange is the resolved query window
type SummaryRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
	Days int64     `json:"days"`
}

// SpendTotals are the expense sums of the window
type SpendTotals struct {
	TotalSpendCents        int64 `json:"totalSpendCents"`
	PaidSpendCents         int64 `json:"paidSpendCents"`
	SubscriptionSpendCents int64 `json:"subscriptionSpendCents"`
	AvgPerDayCents         int64 `json:"avgPerDayCents"`
}

// CategorySpend is the spend of one category
type CategorySpend struct {
	Category   string `json:"category"`
	TotalCents int64  `json:"totalCents"`
	Count      int64  `json:"count"`
}

// ProfitAndLoss is the order-side P&L of the window
type ProfitAndLoss struct {
	RevenueCents     int64  `json:"revenueCents"`
	COGSCents        int64  `json:"cogsCents"`
	RefundsCents     int64  `json:"refundsCents"`
	GrossProfitCents int64  `json:"grossProfitCents"`
	GrossMarginPct   string `json:"grossMarginPct"`
}

// InventorySummary is the all-time stock movement view
type InventorySummary struct {
	ReceivedQty     int64  `json:"receivedQty"`
	SoldQty         int64  `json:"soldQty"`
	ReturnedQty     int64  `json:"returnedQty"`
	InStockQty      int64  `json:"inStockQty"`
	StockValueCents int64  `json:"stockValueCents"`
	SellThroughRate string `json:"sellThroughRate"`
}

// ToSpendingSummaryResponse shapes a domain summary for callers
func ToSpendingSummaryResponse(s report.Summary) *SpendingSummaryResponse {
	resp := &SpendingSummaryResponse{
		Range: SummaryRange{From: s.From, To: s.To, Days: s.Days},
		Totals: SpendTotals{
			TotalSpendCents:        s.TotalSpendCents,
			PaidSpendCents:         s.PaidSpendCents,
			SubscriptionSpendCents: s.SubscriptionCents,
			AvgPerDayCents:         s.AvgPerDayCents,
		},
		ByCategory: make([]CategorySpend, len(s.ByCategory)),
		PnL: ProfitAndLoss{
			RevenueCents:     s.RevenueCents,
			COGSCents:        s.COGSCents,
			RefundsCents:     s.RefundsCents,
			GrossProfitCents: s.GrossProfitCents,
			GrossMarginPct:   s.GrossMarginPct,
		},
		Inventory: InventorySummary{
			ReceivedQty:     s.ReceivedQty,
			SoldQty:         s.SoldQty,
			ReturnedQty:     s.ReturnedQty,
			InStockQty:      s.InStockQty,
			StockValueCents: s.StockValueCents,
			SellThroughRate: s.SellThroughRate,
		},
		Revenue12m: s.Revenue12m,
	}
	for i, c := range s.ByCategory {
		resp.ByCategory[i] = CategorySpend(c)
	}
	return resp
}
