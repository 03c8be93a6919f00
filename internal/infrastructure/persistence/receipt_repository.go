package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/inventory"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormReceiptRepository implements inventory.ReceiptRepository using GORM
type GormReceiptRepository struct {
	db *gorm.DB
}

// NewGormReceiptRepository creates a new GormReceiptRepository
func NewGormReceiptRepository(db *gorm.DB) *GormReceiptRepository {
	return &GormReceiptRepository{db: db}
}

// FindByID finds a receipt header by its ID within the owner's scope
func (r *GormReceiptRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*inventory.InventoryReceipt, error) {
	return r.find(r.db.WithContext(ctx), ownerID, id)
}

// FindByIDForUpdate finds a receipt header and locks its row. Item edits
// take this lock too, so one receipt is mutated by one transaction at a time.
func (r *GormReceiptRepository) FindByIDForUpdate(ctx context.Context, ownerID, id uuid.UUID) (*inventory.InventoryReceipt, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), ownerID, id)
}

func (r *GormReceiptRepository) find(db *gorm.DB, ownerID, id uuid.UUID) (*inventory.InventoryReceipt, error) {
	var model models.InventoryReceiptModel
	if err := db.Where("owner_id = ? AND id = ?", ownerID, id).First(&model).Error; err != nil {
		return nil, firstOr(err, "receipt")
	}
	return model.ToDomain(), nil
}

// List returns one page of receipt headers ordered by (created_at desc, id desc)
func (r *GormReceiptRepository) List(ctx context.Context, ownerID uuid.UUID, filter inventory.ReceiptFilter) (shared.CursorPage[inventory.InventoryReceipt], error) {
	query := r.db.WithContext(ctx).Model(&models.InventoryReceiptModel{}).Where("owner_id = ?", ownerID)
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	query, limit, err := receiptKeyset.apply(ctx, r.db, query, ownerID, filter.CursorFilter)
	if err != nil {
		return shared.CursorPage[inventory.InventoryReceipt]{}, err
	}

	var rows []models.InventoryReceiptModel
	if err := query.Find(&rows).Error; err != nil {
		return shared.CursorPage[inventory.InventoryReceipt]{}, translateError(err)
	}
	receipts := make([]inventory.InventoryReceipt, len(rows))
	for i := range rows {
		receipts[i] = *rows[i].ToDomain()
	}
	return shared.NewCursorPage(receipts, limit, func(rc inventory.InventoryReceipt) uuid.UUID { return rc.ID }), nil
}

// Save inserts a new receipt or updates the header guarded by its version
func (r *GormReceiptRepository) Save(ctx context.Context, receipt *inventory.InventoryReceipt) error {
	updated, err := updateVersioned(ctx, r.db, &models.InventoryReceiptModel{}, receipt.OwnerID, receipt.ID, receipt.Version, map[string]any{
		"status":         receipt.Status,
		"supplier_id":    receipt.SupplierID,
		"currency":       receipt.Currency,
		"reference":      receipt.Reference,
		"notes":          receipt.Notes,
		"received_at":    receipt.ReceivedAt,
		"subtotal_cents": receipt.SubtotalCents,
		"tax_cents":      receipt.TaxCents,
		"total_cents":    receipt.TotalCents,
		"updated_at":     receipt.UpdatedAt,
	})
	if err != nil {
		return err
	}
	if updated {
		receipt.IncrementVersion()
		return nil
	}

	exists, err := rowExists(ctx, r.db, &models.InventoryReceiptModel{}, receipt.OwnerID, receipt.ID)
	if err != nil {
		return err
	}
	if exists {
		return shared.ErrConcurrencyConflict
	}
	return translateError(r.db.WithContext(ctx).Create(models.InventoryReceiptModelFromDomain(receipt)).Error)
}

// Delete removes the receipt together with its items
func (r *GormReceiptRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("owner_id = ? AND receipt_id = ?", ownerID, id).
			Delete(&models.InventoryReceiptItemModel{}).Error; err != nil {
			return translateError(err)
		}
		result := tx.Where("owner_id = ? AND id = ?", ownerID, id).Delete(&models.InventoryReceiptModel{})
		if result.Error != nil {
			return translateError(result.Error)
		}
		if result.RowsAffected == 0 {
			return notFound("receipt")
		}
		return nil
	})
}

// GormReceiptItemRepository implements inventory.ReceiptItemRepository using GORM
type GormReceiptItemRepository struct {
	db *gorm.DB
}

// NewGormReceiptItemRepository creates a new GormReceiptItemRepository
func NewGormReceiptItemRepository(db *gorm.DB) *GormReceiptItemRepository {
	return &GormReceiptItemRepository{db: db}
}

// FindByID finds a receipt item by its ID within the owner's scope
func (r *GormReceiptItemRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*inventory.InventoryReceiptItem, error) {
	var model models.InventoryReceiptItemModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND id = ?", ownerID, id).
		First(&model).Error; err != nil {
		return nil, firstOr(err, "receipt item")
	}
	return model.ToDomain(), nil
}

// FindByReceipt returns the receipt's items in insertion order
func (r *GormReceiptItemRepository) FindByReceipt(ctx context.Context, ownerID, receiptID uuid.UUID) ([]inventory.InventoryReceiptItem, error) {
	var rows []models.InventoryReceiptItemModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND receipt_id = ?", ownerID, receiptID).
		Order("position ASC").Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	items := make([]inventory.InventoryReceiptItem, len(rows))
	for i := range rows {
		items[i] = *rows[i].ToDomain()
	}
	return items, nil
}

// NextPosition returns the position after the receipt's last item, starting at 1
func (r *GormReceiptItemRepository) NextPosition(ctx context.Context, receiptID uuid.UUID) (int, error) {
	var last int
	if err := r.db.WithContext(ctx).
		Model(&models.InventoryReceiptItemModel{}).
		Select("COALESCE(MAX(position), 0)").
		Where("receipt_id = ?", receiptID).
		Scan(&last).Error; err != nil {
		return 0, translateError(err)
	}
	return last + 1, nil
}

// Save creates or updates a receipt item
func (r *GormReceiptItemRepository) Save(ctx context.Context, item *inventory.InventoryReceiptItem) error {
	return translateError(r.db.WithContext(ctx).Save(models.InventoryReceiptItemModelFromDomain(item)).Error)
}

// Delete removes a receipt item
func (r *GormReceiptItemRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("owner_id = ? AND id = ?", ownerID, id).
		Delete(&models.InventoryReceiptItemModel{})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound("receipt item")
	}
	return nil
}

// Ensure the repositories implement their domain interfaces
var (
	_ inventory.ReceiptRepository     = (*GormReceiptRepository)(nil)
	_ inventory.ReceiptItemRepository = (*GormReceiptItemRepository)(nil)
)
