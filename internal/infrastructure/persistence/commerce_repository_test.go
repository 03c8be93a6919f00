package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/commerce"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormOrderRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()
	ownerID := uuid.New()
	product := seedProduct(t, db, ownerID, "lamp", 700)

	order := seedOrder(t, db, ownerID, product, 3, 2500)

	found, err := repo.FindByID(ctx, ownerID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, commerce.OrderStatusPending, found.Status)
	assert.Equal(t, commerce.OrderPaymentUnpaid, found.PaymentStatus)
	assert.Equal(t, int64(7500), found.TotalCents)
	assert.Equal(t, "Ada", found.Customer.Name)
	assert.Equal(t, "Springfield", found.ShipTo.City)
	require.Len(t, found.Items, 1)
	assert.Equal(t, int64(700), found.Items[0].UnitCostCents)
	assert.Equal(t, "LAMP", found.Items[0].SKU)

	t.Run("header lock load skips items", func(t *testing.T) {
		locked, err := repo.FindByIDForUpdate(ctx, ownerID, order.ID)
		require.NoError(t, err)
		assert.Empty(t, locked.Items)
	})

	t.Run("update is version checked", func(t *testing.T) {
		require.NoError(t, found.TransitionTo(commerce.OrderStatusConfirmed, nil))
		require.NoError(t, repo.Update(ctx, found))

		stale, err := repo.FindByIDForUpdate(ctx, ownerID, order.ID)
		require.NoError(t, err)
		stale.Version--
		stale.ProjectPaymentStatus(commerce.OrderPaymentPaid)
		assert.ErrorIs(t, repo.Update(ctx, stale), shared.ErrConcurrencyConflict)

		missing := *found
		missing.ID = uuid.New()
		assert.ErrorIs(t, repo.Update(ctx, &missing), shared.ErrNotFound)
	})

	t.Run("filters", func(t *testing.T) {
		seedOrder(t, db, ownerID, product, 1, 100)

		confirmed := commerce.OrderStatusConfirmed
		page, err := repo.List(ctx, ownerID, commerce.OrderFilter{Status: &confirmed})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, order.ID, page.Items[0].ID)
		assert.Len(t, page.Items[0].Items, 1)

		unpaid := commerce.OrderPaymentUnpaid
		page, err = repo.List(ctx, ownerID, commerce.OrderFilter{PaymentStatus: &unpaid})
		require.NoError(t, err)
		assert.Len(t, page.Items, 2)
	})
}

func TestGormPaymentRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormPaymentRepository(db)
	ctx := context.Background()
	ownerID := uuid.New()
	product := seedProduct(t, db, ownerID, "desk", 5000)
	order := seedOrder(t, db, ownerID, product, 1, 10000)

	payment := seedPayment(t, db, order, 10000, strPtr("abc"))

	t.Run("find by idempotency key", func(t *testing.T) {
		found, err := repo.FindByIdempotencyKey(ctx, ownerID, "abc")
		require.NoError(t, err)
		assert.Equal(t, payment.ID, found.ID)

		_, err = repo.FindByIdempotencyKey(ctx, uuid.New(), "abc")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("duplicate key for the owner is rejected by the index", func(t *testing.T) {
		dup, err := commerce.NewPayment(commerce.NewPaymentParams{
			OwnerID:        ownerID,
			OrderID:        order.ID,
			AmountCents:    10000,
			Currency:       "USD",
			IdempotencyKey: strPtr("abc"),
		})
		require.NoError(t, err)
		assert.ErrorIs(t, repo.Create(ctx, dup), shared.ErrConflict)
	})

	t.Run("payments without a key never collide", func(t *testing.T) {
		seedPayment(t, db, order, 100, nil)
		seedPayment(t, db, order, 200, nil)

		page, err := repo.List(ctx, ownerID, commerce.PaymentFilter{OrderID: &order.ID})
		require.NoError(t, err)
		assert.Len(t, page.Items, 3)
	})

	t.Run("update and delete", func(t *testing.T) {
		refunded := commerce.PaymentStatusRefunded
		require.NoError(t, payment.Apply(commerce.PaymentPatch{Status: &refunded}))
		require.NoError(t, repo.Update(ctx, payment))

		found, err := repo.FindByID(ctx, ownerID, payment.ID)
		require.NoError(t, err)
		assert.Equal(t, commerce.PaymentStatusRefunded, found.Status)
		assert.Equal(t, 2, found.Version)

		require.NoError(t, repo.Delete(ctx, ownerID, payment.ID))
		assert.ErrorIs(t, repo.Delete(ctx, ownerID, payment.ID), shared.ErrNotFound)
	})
}

func TestGormPaymentRepository_ListOrdering(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormPaymentRepository(db)
	ctx := context.Background()
	ownerID := uuid.New()
	product := seedProduct(t, db, ownerID, "pen", 10)
	order := seedOrder(t, db, ownerID, product, 1, 100)

	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	var want []uuid.UUID
	for i := 0; i < 4; i++ {
		at := base.Add(time.Duration(i) * time.Hour)
		p, err := commerce.NewPayment(commerce.NewPaymentParams{
			OwnerID:     ownerID,
			OrderID:     order.ID,
			AmountCents: int64(100 + i),
			Currency:    "USD",
			OccurredAt:  &at,
		})
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, p))
		want = append([]uuid.UUID{p.ID}, want...)
	}

	first, err := repo.List(ctx, ownerID, commerce.PaymentFilter{CursorFilter: shared.CursorFilter{Limit: 3}})
	require.NoError(t, err)
	require.Len(t, first.Items, 3)
	assert.True(t, first.HasMore)
	assert.Equal(t, first.Items[2].ID, *first.NextCursor)

	second, err := repo.List(ctx, ownerID, commerce.PaymentFilter{CursorFilter: shared.CursorFilter{Cursor: first.NextCursor, Limit: 3}})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.False(t, second.HasMore)

	var got []uuid.UUID
	for _, p := range append(first.Items, second.Items...) {
		got = append(got, p.ID)
	}
	assert.Equal(t, want, got)
}

func TestGormRefundRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormRefundRepository(db)
	ctx := context.Background()
	ownerID := uuid.New()
	product := seedProduct(t, db, ownerID, "chair", 900)
	order := seedOrder(t, db, ownerID, product, 2, 3000)
	payment := seedPayment(t, db, order, 6000, nil)

	refund, err := commerce.NewRefund(payment, 2500, "damaged")
	require.NoError(t, err)
	two := int64(2)
	refund.Items, err = refund.BuildItems([]commerce.RefundItemSpec{
		{OrderItemID: &order.Items[0].ID, Qty: &two, AmountCents: 2000},
		{AmountCents: 500},
	})
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, refund))

	found, err := repo.FindByID(ctx, ownerID, refund.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.OrderID)
	require.Len(t, found.Items, 2)
	assert.Equal(t, int64(2), found.Items[0].Qty)
	assert.Equal(t, int64(1), found.Items[1].Qty)

	t.Run("sum excludes cancelled refunds and the excluded id", func(t *testing.T) {
		other, err := commerce.NewRefund(payment, 1000, "")
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, other))

		cancelled, err := commerce.NewRefund(payment, 4000, "")
		require.NoError(t, err)
		require.NoError(t, cancelled.ChangeStatus(commerce.RefundStatusCancelled, commerce.RefundTimestamps{}))
		require.NoError(t, repo.Create(ctx, cancelled))

		total, err := repo.SumAmountByOriginalPayment(ctx, ownerID, payment.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(3500), total)

		total, err = repo.SumAmountByOriginalPayment(ctx, ownerID, payment.ID, &refund.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), total)
	})

	t.Run("replace items", func(t *testing.T) {
		items, err := found.BuildItems([]commerce.RefundItemSpec{{AmountCents: 2500}})
		require.NoError(t, err)
		require.NoError(t, repo.ReplaceItems(ctx, refund.ID, items))

		again, err := repo.FindByID(ctx, ownerID, refund.ID)
		require.NoError(t, err)
		require.Len(t, again.Items, 1)
		assert.Equal(t, int64(2500), again.Items[0].AmountCents)
	})

	t.Run("status filter", func(t *testing.T) {
		cancelled := commerce.RefundStatusCancelled
		page, err := repo.List(ctx, ownerID, commerce.RefundFilter{Status: &cancelled})
		require.NoError(t, err)
		assert.Len(t, page.Items, 1)

		page, err = repo.List(ctx, ownerID, commerce.RefundFilter{OrderID: &order.ID})
		require.NoError(t, err)
		assert.Len(t, page.Items, 3)
	})

	t.Run("update persists lifecycle timestamps", func(t *testing.T) {
		require.NoError(t, found.ChangeStatus(commerce.RefundStatusApproved, commerce.RefundTimestamps{}))
		require.NoError(t, repo.Update(ctx, found))

		again, err := repo.FindByID(ctx, ownerID, refund.ID)
		require.NoError(t, err)
		assert.Equal(t, commerce.RefundStatusApproved, again.Status)
		require.NotNil(t, again.ApprovedAt)
		assert.True(t, found.ApprovedAt.Equal(*again.ApprovedAt))
	})

	t.Run("delete removes items", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, ownerID, refund.ID))
		_, err := repo.FindByID(ctx, ownerID, refund.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		var count int64
		require.NoError(t, db.Table("refund_items").Where("refund_id = ?", refund.ID).Count(&count).Error)
		assert.Zero(t, count)

		assert.ErrorIs(t, repo.Delete(ctx, ownerID, refund.ID), shared.ErrNotFound)
	})
}
