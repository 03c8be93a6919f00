package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/inventory"
)

// CreateReceiptRequest represents a request to open a DRAFT receipt
type CreateReceiptRequest struct {
	SupplierID *uuid.UUID `json:"supplierId"`
	Currency   string     `json:"currency" binding:"omitempty,len=3"`
	Reference  string     `json:"reference" binding:"max=100"`
	Notes      string     `json:"notes" binding:"max=2000"`
	ReceivedAt *time.Time `json:"receivedAt"`
	TaxCents   int64      `json:"taxCents" binding:"gte=0"`
}

// UpdateReceiptRequest is a partial receipt update. A status change drives stock.
type UpdateReceiptRequest struct {
	Status     *string    `json:"status" binding:"omitempty,oneof=DRAFT RECEIVED CANCELLED"`
	SupplierID *uuid.UUID `json:"supplierId"`
	Currency   *string    `json:"currency" binding:"omitempty,len=3"`
	ReceivedAt *time.Time `json:"receivedAt"`
	Reference  *string    `json:"reference" binding:"omitempty,max=100"`
	Notes      *string    `json:"notes" binding:"omitempty,max=2000"`
	TaxCents   *int64     `json:"taxCents" binding:"omitempty,gte=0"`
}

// ReceiptListFilter is the query of a receipt listing
type ReceiptListFilter struct {
	Status string `form:"status" binding:"omitempty,oneof=DRAFT RECEIVED CANCELLED"`
	Cursor string `form:"cursor"`
	Limit  int    `form:"limit" binding:"omitempty,min=1"`
}

// CreateReceiptItemRequest adds a line to a receipt
type CreateReceiptItemRequest struct {
	ReceiptID     uuid.UUID  `json:"receiptId" binding:"required"`
	ProductID     uuid.UUID  `json:"productId" binding:"required"`
	VariantID     *uuid.UUID `json:"variantId"`
	Qty           int64      `json:"qty" binding:"gt=0"`
	UnitCostCents int64      `json:"unitCostCents" binding:"gte=0"`
}

// UpdateReceiptItemRequest is a partial line update
type UpdateReceiptItemRequest struct {
	ProductID     *uuid.UUID `json:"productId"`
	VariantID     *uuid.UUID `json:"variantId"`
	Qty           *int64     `json:"qty" binding:"omitempty,gt=0"`
	UnitCostCents *int64     `json:"unitCostCents" binding:"omitempty,gte=0"`
}

// ReceiptResponse represents a receipt in API responses
type ReceiptResponse struct {
	ID            uuid.UUID             `json:"id"`
	Status        string                `json:"status"`
	SupplierID    *uuid.UUID            `json:"supplierId,omitempty"`
	Currency      string                `json:"currency"`
	Reference     string                `json:"reference,omitempty"`
	Notes         string                `json:"notes,omitempty"`
	ReceivedAt    *time.Time            `json:"receivedAt,omitempty"`
	SubtotalCents int64                 `json:"subtotalCents"`
	TaxCents      int64                 `json:"taxCents"`
	TotalCents    int64                 `json:"totalCents"`
	Version       int                   `json:"version"`
	Items         []ReceiptItemResponse `json:"items,omitempty"`
	CreatedAt     time.Time             `json:"createdAt"`
	UpdatedAt     time.Time             `json:"updatedAt"`
}

// ReceiptItemResponse represents a receipt line in API responses
type ReceiptItemResponse struct {
	ID            uuid.UUID  `json:"id"`
	ReceiptID     uuid.UUID  `json:"receiptId"`
	ProductID     uuid.UUID  `json:"productId"`
	VariantID     *uuid.UUID `json:"variantId,omitempty"`
	Position      int        `json:"position"`
	Qty           int64      `json:"qty"`
	UnitCostCents int64      `json:"unitCostCents"`
	TotalCents    int64      `json:"totalCents"`
}

// ReceiptTotalsResponse is the receipt header after a line mutation
type ReceiptTotalsResponse struct {
	ID            uuid.UUID `json:"id"`
	Status        string    `json:"status"`
	SubtotalCents int64     `json:"subtotalCents"`
	TaxCents      int64     `json:"taxCents"`
	TotalCents    int64     `json:"totalCents"`
}

// ReceiptItemResult pairs a mutated line with the recalculated receipt totals
type ReceiptItemResult struct {
	Item    ReceiptItemResponse   `json:"item"`
	Receipt ReceiptTotalsResponse `json:"receipt"`
}

// ToReceiptResponse converts a domain receipt to a response
func ToReceiptResponse(r *inventory.InventoryReceipt) ReceiptResponse {
	resp := ReceiptResponse{
		ID:            r.ID,
		Status:        string(r.Status),
		SupplierID:    r.SupplierID,
		Currency:      r.Currency,
		Reference:     r.Reference,
		Notes:         r.Notes,
		ReceivedAt:    r.ReceivedAt,
		SubtotalCents: r.SubtotalCents,
		TaxCents:      r.TaxCents,
		TotalCents:    r.TotalCents,
		Version:       r.Version,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if len(r.Items) > 0 {
		resp.Items = ToReceiptItemResponses(r.Items)
	}
	return resp
}

// ToReceiptItemResponse converts a domain receipt item to a response
func ToReceiptItemResponse(i *inventory.InventoryReceiptItem) ReceiptItemResponse {
	return ReceiptItemResponse{
		ID:            i.ID,
		ReceiptID:     i.ReceiptID,
		ProductID:     i.ProductID,
		VariantID:     i.VariantID,
		Position:      i.Position,
		Qty:           i.Qty,
		UnitCostCents: i.UnitCostCents,
		TotalCents:    i.TotalCents,
	}
}

// ToReceiptItemResponses converts a slice of receipt items
func ToReceiptItemResponses(items []inventory.InventoryReceiptItem) []ReceiptItemResponse {
	out := make([]ReceiptItemResponse, len(items))
	for i := range items {
		out[i] = ToReceiptItemResponse(&items[i])
	}
	return out
}

// ToReceiptTotalsResponse extracts the totals of a receipt
func ToReceiptTotalsResponse(r *inventory.InventoryReceipt) ReceiptTotalsResponse {
	return ReceiptTotalsResponse{
		ID:            r.ID,
		Status:        string(r.Status),
		SubtotalCents: r.SubtotalCents,
		TaxCents:      r.TaxCents,
		TotalCents:    r.TotalCents,
	}
}
