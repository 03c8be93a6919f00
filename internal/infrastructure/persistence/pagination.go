package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// keyset describes the (timestamp desc, id desc) ordering of a listing
type keyset struct {
	table  string
	column string
}

// apply restricts query to the rows after the cursor row and orders it.
// One extra row is fetched so the caller can tell whether a next page exists.
// A cursor naming a row the owner cannot see is a validation error.
func (k keyset) apply(ctx context.Context, db *gorm.DB, query *gorm.DB, ownerID uuid.UUID, filter shared.CursorFilter) (*gorm.DB, int, error) {
	limit := filter.NormalizedLimit()
	if filter.Cursor != nil {
		var anchor struct {
			TS time.Time
		}
		err := db.WithContext(ctx).
			Table(k.table).
			Select(k.column+" AS ts").
			Where("owner_id = ? AND id = ?", ownerID, *filter.Cursor).
			Take(&anchor).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, shared.NewValidationError("cursor is invalid")
		}
		if err != nil {
			return nil, 0, translateError(err)
		}
		query = query.Where(
			fmt.Sprintf("(%[1]s < ? OR (%[1]s = ? AND id < ?))", k.column),
			anchor.TS, anchor.TS, *filter.Cursor,
		)
	}
	return query.Order(k.column + " DESC").Order("id DESC").Limit(limit + 1), limit, nil
}

var (
	productKeyset = keyset{table: "products", column: "created_at"}
	receiptKeyset = keyset{table: "inventory_receipts", column: "created_at"}
	orderKeyset   = keyset{table: "orders", column: "placed_at"}
	paymentKeyset = keyset{table: "payments", column: "occurred_at"}
	refundKeyset  = keyset{table: "refunds", column: "requested_at"}
	expenseKeyset = keyset{table: "expenses", column: "spent_at"}
)
