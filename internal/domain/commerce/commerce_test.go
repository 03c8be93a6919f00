package commerce_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/commerce"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrder(t *testing.T) *commerce.Order {
	t.Helper()
	o, err := commerce.NewOrder(uuid.New(), "USD", []commerce.OrderLine{
		{ProductID: uuid.New(), SKU: "MUG", Name: "Mug", Qty: 2, UnitPriceCents: 1500, UnitCostCents: 400},
		{ProductID: uuid.New(), SKU: "CAP", Name: "Cap", Qty: 1, UnitPriceCents: 2500, UnitCostCents: 900},
	}, commerce.OrderCharges{DiscountCents: 500, ShippingCents: 700, TaxCents: 300},
		commerce.CustomerSnapshot{Name: "Ada"}, commerce.Address{Name: "Ada", Line1: "1 Main", City: "Springfield", Country: "US"})
	require.NoError(t, err)
	return o
}

func capturePayment(t *testing.T, ownerID, orderID uuid.UUID) *commerce.Payment {
	t.Helper()
	p, err := commerce.NewPayment(commerce.NewPaymentParams{
		OwnerID: ownerID, OrderID: orderID, AmountCents: 5000, Currency: "USD",
		Status: commerce.PaymentStatusPaid,
	})
	require.NoError(t, err)
	return p
}

func TestNewOrder_Totals(t *testing.T) {
	o := newOrder(t)
	assert.Equal(t, int64(5500), o.SubtotalCents)
	assert.Equal(t, int64(6000), o.TotalCents)
	assert.Equal(t, commerce.OrderStatusPending, o.Status)
	assert.Equal(t, commerce.OrderPaymentUnpaid, o.PaymentStatus)
	assert.Equal(t, commerce.FulfillmentUnfulfilled, o.FulfillmentStatus)
	require.Len(t, o.Items, 2)
	assert.Equal(t, int64(3000), o.Items[0].TotalCents)
	assert.Equal(t, o.ID, o.Items[0].OrderID)
	assert.Equal(t, o.CreatedAt, o.PlacedAt)
}

func TestNewOrder_Validation(t *testing.T) {
	owner := uuid.New()
	line := commerce.OrderLine{ProductID: uuid.New(), Qty: 1, UnitPriceCents: 100}

	tests := []struct {
		name    string
		lines   []commerce.OrderLine
		charges commerce.OrderCharges
	}{
		{"no lines", nil, commerce.OrderCharges{}},
		{"zero qty", []commerce.OrderLine{{ProductID: line.ProductID, Qty: 0, UnitPriceCents: 100}}, commerce.OrderCharges{}},
		{"negative price", []commerce.OrderLine{{ProductID: line.ProductID, Qty: 1, UnitPriceCents: -1}}, commerce.OrderCharges{}},
		{"negative shipping", []commerce.OrderLine{line}, commerce.OrderCharges{ShippingCents: -1}},
		{"discount above total", []commerce.OrderLine{line}, commerce.OrderCharges{DiscountCents: 101}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := commerce.NewOrder(owner, "USD", tt.lines, tt.charges, commerce.CustomerSnapshot{}, commerce.Address{})
			assert.ErrorIs(t, err, shared.ErrValidation)
		})
	}
}

func TestOrder_TransitionTo(t *testing.T) {
	o := newOrder(t)
	require.NoError(t, o.TransitionTo(commerce.OrderStatusConfirmed, nil))
	require.NoError(t, o.TransitionTo(commerce.OrderStatusDelivering, nil))
	assert.Equal(t, commerce.FulfillmentShipped, o.FulfillmentStatus)

	at := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	require.NoError(t, o.TransitionTo(commerce.OrderStatusDelivered, &at))
	assert.Equal(t, commerce.FulfillmentDelivered, o.FulfillmentStatus)
	require.NotNil(t, o.DeliveredAt)
	assert.Equal(t, at, *o.DeliveredAt)

	assert.ErrorIs(t, o.TransitionTo(commerce.OrderStatusCancelled, nil), shared.ErrInvalidState)
	assert.ErrorIs(t, o.TransitionTo(commerce.OrderStatus("SHIPPED"), nil), shared.ErrValidation)
}

func TestOrder_ProjectPaymentStatus(t *testing.T) {
	o := newOrder(t)
	o.ClearDomainEvents()
	assert.True(t, o.ProjectPaymentStatus(commerce.OrderPaymentPaid))
	assert.False(t, o.ProjectPaymentStatus(commerce.OrderPaymentPaid))
	assert.Len(t, o.GetDomainEvents(), 1)
}

func TestPayment_OrderProjection(t *testing.T) {
	tests := []struct {
		direction commerce.PaymentDirection
		status    commerce.PaymentStatus
		want      commerce.OrderPaymentStatus
		projects  bool
	}{
		{commerce.PaymentDirectionCapture, commerce.PaymentStatusPaid, commerce.OrderPaymentPaid, true},
		{commerce.PaymentDirectionRefund, commerce.PaymentStatusRefunded, commerce.OrderPaymentRefunded, true},
		{commerce.PaymentDirectionCapture, commerce.PaymentStatusPending, "", false},
		{commerce.PaymentDirectionCapture, commerce.PaymentStatusRefunded, "", false},
		{commerce.PaymentDirectionRefund, commerce.PaymentStatusPaid, "", false},
		{commerce.PaymentDirectionRefund, commerce.PaymentStatusCancelled, "", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.direction)+"_"+string(tt.status), func(t *testing.T) {
			p, err := commerce.NewPayment(commerce.NewPaymentParams{
				OwnerID: uuid.New(), OrderID: uuid.New(), AmountCents: 100,
				Direction: tt.direction, Status: tt.status,
			})
			require.NoError(t, err)
			got, ok := p.OrderProjection()
			assert.Equal(t, tt.projects, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewPayment_Defaults(t *testing.T) {
	blank := "   "
	p, err := commerce.NewPayment(commerce.NewPaymentParams{
		OwnerID: uuid.New(), OrderID: uuid.New(), AmountCents: 10000, IdempotencyKey: &blank,
	})
	require.NoError(t, err)
	assert.Equal(t, commerce.PaymentDirectionCapture, p.Direction)
	assert.Equal(t, commerce.PaymentStatusPending, p.Status)
	assert.Nil(t, p.IdempotencyKey)
	assert.Equal(t, p.CreatedAt, p.OccurredAt)

	_, err = commerce.NewPayment(commerce.NewPaymentParams{OwnerID: uuid.New(), OrderID: uuid.New(), AmountCents: 0})
	assert.ErrorIs(t, err, shared.ErrValidation)
	_, err = commerce.NewPayment(commerce.NewPaymentParams{OwnerID: uuid.New(), AmountCents: 5})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestRefund_Lifecycle(t *testing.T) {
	o := newOrder(t)
	pay := capturePayment(t, o.OwnerID, o.ID)

	r, err := commerce.NewRefund(pay, 1500, " damaged ")
	require.NoError(t, err)
	assert.Equal(t, commerce.RefundStatusPending, r.Status)
	assert.Equal(t, o.ID, r.OrderID)
	assert.Equal(t, "damaged", r.Reason)

	require.NoError(t, r.ChangeStatus(commerce.RefundStatusApproved, commerce.RefundTimestamps{}))
	require.NotNil(t, r.ApprovedAt)
	approved := *r.ApprovedAt

	// skipping PROCESSING is allowed and fills completedAt
	require.NoError(t, r.ChangeStatus(commerce.RefundStatusSucceeded, commerce.RefundTimestamps{}))
	assert.Equal(t, approved, *r.ApprovedAt)
	assert.Nil(t, r.ProcessedAt)
	assert.NotNil(t, r.CompletedAt)
	assert.True(t, r.IsSucceeded())

	assert.ErrorIs(t, r.ChangeStatus(commerce.RefundStatusFailed, commerce.RefundTimestamps{}), shared.ErrInvalidState)
}

func TestRefund_ExplicitTimestampsWin(t *testing.T) {
	o := newOrder(t)
	r, err := commerce.NewRefund(capturePayment(t, o.OwnerID, o.ID), 100, "")
	require.NoError(t, err)

	explicit := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, r.ChangeStatus(commerce.RefundStatusApproved, commerce.RefundTimestamps{ApprovedAt: &explicit}))
	assert.Equal(t, explicit, *r.ApprovedAt)

	// an already set timestamp is not replaced by auto-population
	later := explicit.Add(time.Hour)
	r.ProcessedAt = &later
	require.NoError(t, r.ChangeStatus(commerce.RefundStatusProcessing, commerce.RefundTimestamps{}))
	assert.Equal(t, later, *r.ProcessedAt)
}

func TestRefund_BackwardsMoveRejected(t *testing.T) {
	o := newOrder(t)
	r, err := commerce.NewRefund(capturePayment(t, o.OwnerID, o.ID), 100, "")
	require.NoError(t, err)
	require.NoError(t, r.ChangeStatus(commerce.RefundStatusProcessing, commerce.RefundTimestamps{}))
	assert.ErrorIs(t, r.ChangeStatus(commerce.RefundStatusApproved, commerce.RefundTimestamps{}), shared.ErrInvalidState)
	require.NoError(t, r.ChangeStatus(commerce.RefundStatusCancelled, commerce.RefundTimestamps{}))
	assert.True(t, r.Status.IsTerminal())
}

func TestNewRefund_RequiresCapture(t *testing.T) {
	refundPayment, err := commerce.NewPayment(commerce.NewPaymentParams{
		OwnerID: uuid.New(), OrderID: uuid.New(), AmountCents: 100, Direction: commerce.PaymentDirectionRefund,
	})
	require.NoError(t, err)
	_, err = commerce.NewRefund(refundPayment, 100, "")
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestRefund_BuildItems(t *testing.T) {
	o := newOrder(t)
	r, err := commerce.NewRefund(capturePayment(t, o.OwnerID, o.ID), 100, "")
	require.NoError(t, err)

	two := int64(2)
	items, err := r.BuildItems([]commerce.RefundItemSpec{
		{OrderItemID: &o.Items[0].ID, Qty: &two, AmountCents: 60},
		{AmountCents: 40},
	})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(2), items[0].Qty)
	assert.Equal(t, int64(1), items[1].Qty)
	assert.Equal(t, r.ID, items[1].RefundID)

	_, err = r.BuildItems([]commerce.RefundItemSpec{{AmountCents: 0}})
	assert.ErrorIs(t, err, shared.ErrValidation)
}
