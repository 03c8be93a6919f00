package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/inventory"
)

// InventoryReceiptModel is the persistence model for the InventoryReceipt aggregate root.
type InventoryReceiptModel struct {
	AggregateModel
	OwnerID       uuid.UUID               `gorm:"type:uuid;not null;index"`
	Status        inventory.ReceiptStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	SupplierID    *uuid.UUID              `gorm:"type:uuid"`
	Currency      string                  `gorm:"type:varchar(3);not null"`
	Reference     string                  `gorm:"type:varchar(100);not null;default:''"`
	Notes         string                  `gorm:"type:text;not null;default:''"`
	ReceivedAt    *time.Time
	SubtotalCents int64 `gorm:"not null;default:0"`
	TaxCents      int64 `gorm:"not null;default:0"`
	TotalCents    int64 `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (InventoryReceiptModel) TableName() string {
	return "inventory_receipts"
}

// ToDomain converts the persistence model to a domain InventoryReceipt.
// Items are attached by the repository when requested.
func (m *InventoryReceiptModel) ToDomain() *inventory.InventoryReceipt {
	return &inventory.InventoryReceipt{
		OwnedAggregateRoot: m.ownedRoot(m.OwnerID),
		Status:             m.Status,
		SupplierID:         m.SupplierID,
		Currency:           m.Currency,
		Reference:          m.Reference,
		Notes:              m.Notes,
		ReceivedAt:         utcPtr(m.ReceivedAt),
		SubtotalCents:      m.SubtotalCents,
		TaxCents:           m.TaxCents,
		TotalCents:         m.TotalCents,
	}
}

// FromDomain populates the persistence model from a domain InventoryReceipt.
func (m *InventoryReceiptModel) FromDomain(r *inventory.InventoryReceipt) {
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	m.OwnerID = r.OwnerID
	m.Status = r.Status
	m.SupplierID = r.SupplierID
	m.Currency = r.Currency
	m.Reference = r.Reference
	m.Notes = r.Notes
	m.ReceivedAt = r.ReceivedAt
	m.SubtotalCents = r.SubtotalCents
	m.TaxCents = r.TaxCents
	m.TotalCents = r.TotalCents
}

// InventoryReceiptModelFromDomain creates a new persistence model from a domain InventoryReceipt.
func InventoryReceiptModelFromDomain(r *inventory.InventoryReceipt) *InventoryReceiptModel {
	m := &InventoryReceiptModel{}
	m.FromDomain(r)
	return m
}

// InventoryReceiptItemModel is the persistence model for a receipt line.
type InventoryReceiptItemModel struct {
	BaseModel
	OwnerID       uuid.UUID  `gorm:"type:uuid;not null;index"`
	ReceiptID     uuid.UUID  `gorm:"type:uuid;not null;index:idx_inventory_receipt_items_receipt_position,priority:1"`
	ProductID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	VariantID     *uuid.UUID `gorm:"type:uuid;index"`
	Position      int        `gorm:"not null;index:idx_inventory_receipt_items_receipt_position,priority:2"`
	Qty           int64      `gorm:"not null;check:chk_inventory_receipt_items_qty,qty > 0"`
	UnitCostCents int64      `gorm:"not null;default:0"`
	TotalCents    int64      `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (InventoryReceiptItemModel) TableName() string {
	return "inventory_receipt_items"
}

// ToDomain converts the persistence model to a domain InventoryReceiptItem.
func (m *InventoryReceiptItemModel) ToDomain() *inventory.InventoryReceiptItem {
	return &inventory.InventoryReceiptItem{
		BaseEntity:    m.BaseModel.ToDomain(),
		OwnerID:       m.OwnerID,
		ReceiptID:     m.ReceiptID,
		ProductID:     m.ProductID,
		VariantID:     m.VariantID,
		Position:      m.Position,
		Qty:           m.Qty,
		UnitCostCents: m.UnitCostCents,
		TotalCents:    m.TotalCents,
	}
}

// FromDomain populates the persistence model from a domain InventoryReceiptItem.
func (m *InventoryReceiptItemModel) FromDomain(i *inventory.InventoryReceiptItem) {
	m.FromDomainBaseEntity(i.BaseEntity)
	m.OwnerID = i.OwnerID
	m.ReceiptID = i.ReceiptID
	m.ProductID = i.ProductID
	m.VariantID = i.VariantID
	m.Position = i.Position
	m.Qty = i.Qty
	m.UnitCostCents = i.UnitCostCents
	m.TotalCents = i.TotalCents
}

// InventoryReceiptItemModelFromDomain creates a new persistence model from a domain InventoryReceiptItem.
func InventoryReceiptItemModelFromDomain(i *inventory.InventoryReceiptItem) *InventoryReceiptItemModel {
	m := &InventoryReceiptItemModel{}
	m.FromDomain(i)
	return m
}

