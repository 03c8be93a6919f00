package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/shared"
)

// ReceiptFilter narrows a receipt listing
type ReceiptFilter struct {
	shared.CursorFilter
	Status *ReceiptStatus
}

// ReceiptRepository persists receipts and their items
type ReceiptRepository interface {
	FindByID(ctx context.Context, ownerID, id uuid.UUID) (*InventoryReceipt, error)
	// FindByIDForUpdate loads the receipt holding a row lock, serializing
	// concurrent edits of the same receipt and its items
	FindByIDForUpdate(ctx context.Context, ownerID, id uuid.UUID) (*InventoryReceipt, error)
	List(ctx context.Context, ownerID uuid.UUID, filter ReceiptFilter) (shared.CursorPage[InventoryReceipt], error)
	Save(ctx context.Context, receipt *InventoryReceipt) error
	// Delete removes the receipt and cascades its items
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

// ReceiptItemRepository persists receipt items
type ReceiptItemRepository interface {
	FindByID(ctx context.Context, ownerID, id uuid.UUID) (*InventoryReceiptItem, error)
	// FindByReceipt returns items ordered by position
	FindByReceipt(ctx context.Context, ownerID, receiptID uuid.UUID) ([]InventoryReceiptItem, error)
	NextPosition(ctx context.Context, receiptID uuid.UUID) (int, error)
	Save(ctx context.Context, item *InventoryReceiptItem) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}
