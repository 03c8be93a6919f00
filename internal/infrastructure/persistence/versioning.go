package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// updateVersioned writes columns to the owner's row only while its version
// still equals version, bumping the stored version by one. It reports whether
// a row was updated.
func updateVersioned(ctx context.Context, db *gorm.DB, model any, ownerID, id uuid.UUID, version int, columns map[string]any) (bool, error) {
	columns["version"] = gorm.Expr("version + 1")
	result := db.WithContext(ctx).
		Model(model).
		Where("id = ? AND owner_id = ? AND version = ?", id, ownerID, version).
		Updates(columns)
	if result.Error != nil {
		return false, translateError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

// rowExists reports whether the owner's row exists in model's table
func rowExists(ctx context.Context, db *gorm.DB, model any, ownerID, id uuid.UUID) (bool, error) {
	var count int64
	if err := db.WithContext(ctx).
		Model(model).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Count(&count).Error; err != nil {
		return false, translateError(err)
	}
	return count > 0, nil
}

// missedUpdate explains a versioned update that touched no row
func missedUpdate(ctx context.Context, db *gorm.DB, model any, ownerID, id uuid.UUID, resource string) error {
	exists, err := rowExists(ctx, db, model, ownerID, id)
	if err != nil {
		return err
	}
	if !exists {
		return notFound(resource)
	}
	return shared.ErrConcurrencyConflict
}
