package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/app"
	catalogapp "github.com/shopledger/backend/internal/application/catalog"
	commerceapp "github.com/shopledger/backend/internal/application/commerce"
	financeapp "github.com/shopledger/backend/internal/application/finance"
	inventoryapp "github.com/shopledger/backend/internal/application/inventory"
	reportapp "github.com/shopledger/backend/internal/application/report"
	"github.com/shopledger/backend/internal/interfaces/http/handler"
	"github.com/shopledger/backend/internal/interfaces/http/middleware"
	"github.com/shopledger/backend/internal/interfaces/http/router"
	"github.com/shopledger/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ledgerAPI mounts the ledger routes on sqlite with a fixed owner in place
// of token authentication
type ledgerAPI struct {
	engine  *gin.Engine
	ownerID uuid.UUID
}

func newLedgerAPI(t *testing.T) *ledgerAPI {
	t.Helper()
	router.RegisterFieldNames()
	db := testutil.NewSQLiteDB(t)
	services := app.NewServices(db, app.Options{DefaultCurrency: "USD", Logger: zaptest.NewLogger(t)})
	noop := handler.PingFunc(func(context.Context) error { return nil })

	api := &ledgerAPI{engine: gin.New(), ownerID: uuid.New()}
	api.engine.Use(middleware.RequestID(), func(c *gin.Context) {
		c.Set(middleware.OwnerIDKey, api.ownerID)
		c.Next()
	})
	r := router.NewRouter(api.engine)
	for _, g := range router.LedgerGroups(services.Handlers(handler.NewHealthHandler(noop, nil))) {
		r.Register(g)
	}
	r.Setup()
	return api
}

func (a *ledgerAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return testutil.Do(t, a.engine, testutil.Request{Method: method, Path: "/api/v1" + path, Body: body})
}

func (a *ledgerAPI) product(t *testing.T, sku string, price, cost int64) catalogapp.ProductResponse {
	t.Helper()
	w := a.do(t, http.MethodPost, "/catalog/products", gin.H{"sku": sku, "name": "Product " + sku, "priceCents": price, "costCents": cost})
	return testutil.RequireOK[catalogapp.ProductResponse](t, w, http.StatusCreated)
}

func (a *ledgerAPI) getProduct(t *testing.T, id uuid.UUID) catalogapp.ProductResponse {
	t.Helper()
	return testutil.RequireOK[catalogapp.ProductResponse](t, a.do(t, http.MethodGet, "/catalog/products/"+id.String(), nil), http.StatusOK)
}

func TestReceiptEndpoints_Lifecycle(t *testing.T) {
	api := newLedgerAPI(t)
	mug := api.product(t, "mug-1", 1200, 400)
	assert.Equal(t, "MUG-1", mug.SKU)

	receipt := testutil.RequireOK[inventoryapp.ReceiptResponse](t,
		api.do(t, http.MethodPost, "/inventory/receipt", gin.H{"reference": "PO-7", "taxCents": 150}), http.StatusCreated)
	assert.Equal(t, "DRAFT", receipt.Status)
	assert.Equal(t, "USD", receipt.Currency)

	added := testutil.RequireOK[inventoryapp.ReceiptItemResult](t, api.do(t, http.MethodPost, "/inventory/receipt/item", gin.H{
		"receiptId":     receipt.ID,
		"productId":     mug.ID,
		"qty":           5,
		"unitCostCents": 400,
	}), http.StatusCreated)
	assert.Equal(t, 1, added.Item.Position)
	assert.Equal(t, int64(2000), added.Receipt.SubtotalCents)
	assert.Equal(t, int64(2150), added.Receipt.TotalCents)
	assert.Equal(t, int64(0), api.getProduct(t, mug.ID).Stock, "draft lines do not move stock")

	received := testutil.RequireOK[inventoryapp.ReceiptResponse](t,
		api.do(t, http.MethodPatch, "/inventory/receipt/"+receipt.ID.String(), gin.H{"status": "RECEIVED"}), http.StatusOK)
	assert.Equal(t, "RECEIVED", received.Status)
	assert.NotNil(t, received.ReceivedAt)
	assert.Equal(t, int64(5), api.getProduct(t, mug.ID).Stock)

	items := testutil.RequireOK[[]inventoryapp.ReceiptItemResponse](t,
		api.do(t, http.MethodGet, "/inventory/receipt/item?receiptId="+receipt.ID.String(), nil), http.StatusOK)
	require.Len(t, items, 1)

	item := testutil.RequireOK[inventoryapp.ReceiptItemResponse](t,
		api.do(t, http.MethodGet, "/inventory/receipt/item/"+items[0].ID.String(), nil), http.StatusOK)
	assert.Equal(t, int64(5), item.Qty)

	edited := testutil.RequireOK[inventoryapp.ReceiptItemResult](t,
		api.do(t, http.MethodPatch, "/inventory/receipt/item/"+item.ID.String(), gin.H{"qty": 3}), http.StatusOK)
	assert.Equal(t, int64(1200), edited.Receipt.SubtotalCents)
	assert.Equal(t, int64(3), api.getProduct(t, mug.ID).Stock)

	removed := testutil.RequireOK[struct {
		Receipt inventoryapp.ReceiptTotalsResponse `json:"receipt"`
	}](t, api.do(t, http.MethodDelete, "/inventory/receipt/item/"+item.ID.String(), nil), http.StatusOK)
	assert.Equal(t, int64(0), removed.Receipt.SubtotalCents)
	assert.Equal(t, int64(150), removed.Receipt.TotalCents)
	assert.Equal(t, int64(0), api.getProduct(t, mug.ID).Stock)

	w := api.do(t, http.MethodGet, "/inventory/receipt?status=RECEIVED", nil)
	page := testutil.Decode[[]inventoryapp.ReceiptResponse](t, w)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, page.Data, 1)
	require.NotNil(t, page.Meta)
	assert.Equal(t, 20, page.Meta.Limit)
	assert.False(t, page.Meta.HasMore)

	w = api.do(t, http.MethodDelete, "/inventory/receipt/"+receipt.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	testutil.AssertError(t, api.do(t, http.MethodGet, "/inventory/receipt/"+receipt.ID.String(), nil), http.StatusNotFound, "NOT_FOUND")
}

func TestReceiptEndpoints_Rejections(t *testing.T) {
	api := newLedgerAPI(t)
	mug := api.product(t, "mug-2", 1200, 400)
	receipt := testutil.RequireOK[inventoryapp.ReceiptResponse](t, api.do(t, http.MethodPost, "/inventory/receipt", gin.H{}), http.StatusCreated)

	t.Run("non-positive qty", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/inventory/receipt/item", gin.H{"receiptId": receipt.ID, "productId": mug.ID, "qty": 0})
		testutil.AssertError(t, w, http.StatusBadRequest, "VALIDATION_ERROR")
		env := testutil.Decode[any](t, w)
		require.NotEmpty(t, env.Error.Details)
		assert.Equal(t, "qty", env.Error.Details[0].Field)
	})

	t.Run("item listing needs a receipt", func(t *testing.T) {
		testutil.AssertError(t, api.do(t, http.MethodGet, "/inventory/receipt/item", nil), http.StatusBadRequest, "VALIDATION_ERROR")
	})

	t.Run("malformed id", func(t *testing.T) {
		testutil.AssertError(t, api.do(t, http.MethodGet, "/inventory/receipt/12", nil), http.StatusBadRequest, "VALIDATION_ERROR")
	})

	t.Run("unknown product", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/inventory/receipt/item", gin.H{"receiptId": receipt.ID, "productId": uuid.New(), "qty": 1})
		testutil.AssertError(t, w, http.StatusNotFound, "NOT_FOUND")
	})

	t.Run("cancelled receipts are terminal", func(t *testing.T) {
		path := "/inventory/receipt/" + receipt.ID.String()
		testutil.RequireOK[inventoryapp.ReceiptResponse](t, api.do(t, http.MethodPatch, path, gin.H{"status": "CANCELLED"}), http.StatusOK)
		testutil.AssertError(t, api.do(t, http.MethodPatch, path, gin.H{"status": "RECEIVED"}), http.StatusConflict, "INVALID_STATE")
		w := api.do(t, http.MethodPost, "/inventory/receipt/item", gin.H{"receiptId": receipt.ID, "productId": mug.ID, "qty": 1})
		testutil.AssertError(t, w, http.StatusConflict, "INVALID_STATE")
	})

	t.Run("unknown status", func(t *testing.T) {
		w := api.do(t, http.MethodPatch, "/inventory/receipt/"+receipt.ID.String(), gin.H{"status": "LOST"})
		testutil.AssertError(t, w, http.StatusBadRequest, "VALIDATION_ERROR")
	})
}

func TestPaymentEndpoints_Idempotency(t *testing.T) {
	api := newLedgerAPI(t)
	lamp := api.product(t, "lamp", 2500, 900)

	order := testutil.RequireOK[commerceapp.OrderResponse](t, api.do(t, http.MethodPost, "/orders", gin.H{
		"items":    []gin.H{{"productId": lamp.ID, "qty": 2}},
		"customer": gin.H{"name": "Grace"},
	}), http.StatusCreated)
	assert.Equal(t, int64(5000), order.TotalCents)
	assert.Equal(t, "UNPAID", order.PaymentStatus)

	body := gin.H{"orderId": order.ID, "amountCents": 5000, "status": "PAID", "method": "card", "idempotencyKey": "checkout-1"}
	first := testutil.RequireOK[commerceapp.PaymentResponse](t, api.do(t, http.MethodPost, "/commerce/payments", body), http.StatusCreated)
	replay := testutil.RequireOK[commerceapp.PaymentResponse](t, api.do(t, http.MethodPost, "/commerce/payments", body), http.StatusOK)
	assert.Equal(t, first.ID, replay.ID)
	assert.Equal(t, "CAPTURE", first.Direction)

	paid := testutil.RequireOK[commerceapp.OrderResponse](t, api.do(t, http.MethodGet, "/orders/"+order.ID.String(), nil), http.StatusOK)
	assert.Equal(t, "PAID", paid.PaymentStatus)

	other := testutil.RequireOK[commerceapp.OrderResponse](t, api.do(t, http.MethodPost, "/orders", gin.H{
		"items": []gin.H{{"productId": lamp.ID, "qty": 1}},
	}), http.StatusCreated)
	body["orderId"] = other.ID
	testutil.AssertError(t, api.do(t, http.MethodPost, "/commerce/payments", body), http.StatusConflict, "CONFLICT")

	w := api.do(t, http.MethodGet, "/commerce/payments?orderId="+order.ID.String(), nil)
	listed := testutil.Decode[[]commerceapp.PaymentResponse](t, w)
	require.Len(t, listed.Data, 1)
	assert.Equal(t, first.ID, listed.Data[0].ID)

	got := testutil.RequireOK[commerceapp.PaymentResponse](t, api.do(t, http.MethodGet, "/commerce/payments/"+first.ID.String(), nil), http.StatusOK)
	assert.Equal(t, int64(5000), got.AmountCents)

	testutil.AssertError(t, api.do(t, http.MethodPost, "/commerce/payments", gin.H{"orderId": order.ID, "amountCents": 0}), http.StatusBadRequest, "VALIDATION_ERROR")
	testutil.AssertError(t, api.do(t, http.MethodPost, "/commerce/payments", gin.H{"orderId": uuid.New(), "amountCents": 10}), http.StatusNotFound, "NOT_FOUND")
}

func TestRefundEndpoints_Lifecycle(t *testing.T) {
	api := newLedgerAPI(t)
	lamp := api.product(t, "lamp", 2500, 900)
	order := testutil.RequireOK[commerceapp.OrderResponse](t, api.do(t, http.MethodPost, "/orders", gin.H{
		"items": []gin.H{{"productId": lamp.ID, "qty": 2}},
	}), http.StatusCreated)
	capture := testutil.RequireOK[commerceapp.PaymentResponse](t, api.do(t, http.MethodPost, "/commerce/payments",
		gin.H{"orderId": order.ID, "amountCents": 5000, "status": "PAID"}), http.StatusCreated)

	refund := testutil.RequireOK[commerceapp.RefundResponse](t, api.do(t, http.MethodPost, "/commerce/refunds", gin.H{
		"originalPaymentId": capture.ID,
		"amountCents":       2500,
		"reason":            "chipped",
		"items":             []gin.H{{"orderItemId": order.Items[0].ID, "amountCents": 2500}},
		"payment":           gin.H{"status": "PENDING"},
	}), http.StatusCreated)
	assert.Equal(t, "PENDING", refund.Status)
	require.Len(t, refund.Items, 1)
	assert.Equal(t, int64(1), refund.Items[0].Qty)
	require.NotNil(t, refund.RefundPaymentID)

	path := "/commerce/refunds/" + refund.ID.String()
	done := testutil.RequireOK[commerceapp.RefundResponse](t, api.do(t, http.MethodPatch, path, gin.H{"status": "SUCCEEDED"}), http.StatusOK)
	assert.Equal(t, "SUCCEEDED", done.Status)
	assert.NotNil(t, done.CompletedAt)

	refunded := testutil.RequireOK[commerceapp.OrderResponse](t, api.do(t, http.MethodGet, "/orders/"+order.ID.String(), nil), http.StatusOK)
	assert.Equal(t, "REFUNDED", refunded.PaymentStatus)

	testutil.AssertError(t, api.do(t, http.MethodPatch, path, gin.H{"status": "PENDING"}), http.StatusConflict, "INVALID_STATE")

	got := testutil.RequireOK[commerceapp.RefundResponse](t, api.do(t, http.MethodGet, path, nil), http.StatusOK)
	require.NotNil(t, got.OriginalPayment)
	assert.Equal(t, capture.ID, got.OriginalPayment.ID)
	require.NotNil(t, got.RefundPayment)
	assert.Equal(t, "REFUND", got.RefundPayment.Direction)

	w := api.do(t, http.MethodGet, "/commerce/refunds?orderId="+order.ID.String(), nil)
	require.Len(t, testutil.Decode[[]commerceapp.RefundResponse](t, w).Data, 1)

	assert.Equal(t, http.StatusNoContent, api.do(t, http.MethodDelete, path, nil).Code)
	testutil.AssertError(t, api.do(t, http.MethodGet, path, nil), http.StatusNotFound, "NOT_FOUND")
	testutil.AssertError(t, api.do(t, http.MethodGet, "/commerce/payments/"+refund.RefundPaymentID.String(), nil), http.StatusNotFound, "NOT_FOUND")
}

func TestOrderEndpoints_Status(t *testing.T) {
	api := newLedgerAPI(t)
	lamp := api.product(t, "lamp", 2500, 900)
	order := testutil.RequireOK[commerceapp.OrderResponse](t, api.do(t, http.MethodPost, "/orders", gin.H{
		"items": []gin.H{{"productId": lamp.ID, "qty": 1}},
	}), http.StatusCreated)
	path := "/orders/" + order.ID.String() + "/status"

	for _, status := range []string{"CONFIRMED", "DELIVERING", "DELIVERED"} {
		got := testutil.RequireOK[commerceapp.OrderResponse](t, api.do(t, http.MethodPatch, path, gin.H{"status": status}), http.StatusOK)
		assert.Equal(t, status, got.Status)
	}
	testutil.AssertError(t, api.do(t, http.MethodPatch, path, gin.H{"status": "CANCELLED"}), http.StatusConflict, "INVALID_STATE")

	w := api.do(t, http.MethodGet, "/orders?status=DELIVERED", nil)
	require.Len(t, testutil.Decode[[]commerceapp.OrderResponse](t, w).Data, 1)

	testutil.AssertError(t, api.do(t, http.MethodPost, "/orders", gin.H{"items": []gin.H{}}), http.StatusBadRequest, "VALIDATION_ERROR")
}

func TestSpendingEndpoints(t *testing.T) {
	api := newLedgerAPI(t)
	spentAt := time.Now().UTC().Add(-2 * time.Hour)

	rent := testutil.RequireOK[financeapp.ExpenseResponse](t, api.do(t, http.MethodPost, "/spending/expenses",
		gin.H{"category": "Rent", "amountCents": 90000, "isPaid": true, "spentAt": spentAt}), http.StatusCreated)
	testutil.RequireOK[financeapp.ExpenseResponse](t, api.do(t, http.MethodPost, "/spending/expenses",
		gin.H{"category": "software", "amountCents": 3000, "isSubscription": true, "spentAt": spentAt}), http.StatusCreated)

	w := api.do(t, http.MethodGet, "/spending/expenses?cat=rent", nil)
	listed := testutil.Decode[[]financeapp.ExpenseResponse](t, w)
	require.Len(t, listed.Data, 1)
	assert.Equal(t, rent.ID, listed.Data[0].ID)

	summary := testutil.RequireOK[reportapp.SpendingSummaryResponse](t, api.do(t, http.MethodGet, "/spending/summary", nil), http.StatusOK)
	assert.Equal(t, int64(93000), summary.Totals.TotalSpendCents)
	assert.Equal(t, int64(90000), summary.Totals.PaidSpendCents)
	assert.Equal(t, int64(3000), summary.Totals.SubscriptionSpendCents)
	assert.Equal(t, int64(30), summary.Range.Days)
	assert.Len(t, summary.Revenue12m, 12)
	require.Len(t, summary.ByCategory, 2)
	assert.Equal(t, "rent", summary.ByCategory[0].Category)

	paidOnly := testutil.RequireOK[reportapp.SpendingSummaryResponse](t, api.do(t, http.MethodGet, "/spending/summary?onlyPaid=true", nil), http.StatusOK)
	assert.Equal(t, int64(90000), paidOnly.Totals.TotalSpendCents)

	testutil.AssertError(t, api.do(t, http.MethodGet, "/spending/summary?from=2026-07-10&to=2026-07-01", nil), http.StatusBadRequest, "VALIDATION_ERROR")

	assert.Equal(t, http.StatusNoContent, api.do(t, http.MethodDelete, "/spending/expenses/"+rent.ID.String(), nil).Code)
	testutil.AssertError(t, api.do(t, http.MethodDelete, "/spending/expenses/"+rent.ID.String(), nil), http.StatusNotFound, "NOT_FOUND")
}

func TestCatalogEndpoints(t *testing.T) {
	api := newLedgerAPI(t)
	tee := api.product(t, "tee", 2000, 800)

	testutil.AssertError(t, api.do(t, http.MethodPost, "/catalog/products", gin.H{"sku": "TEE", "name": "Again"}), http.StatusConflict, "CONFLICT")

	small := testutil.RequireOK[catalogapp.VariantResponse](t, api.do(t, http.MethodPost, "/catalog/products/"+tee.ID.String()+"/variants",
		gin.H{"sku": "tee-s", "name": "Small", "priceCents": 1800, "costCents": 700}), http.StatusCreated)
	testutil.RequireOK[catalogapp.VariantResponse](t, api.do(t, http.MethodPost, "/catalog/products/"+tee.ID.String()+"/variants",
		gin.H{"sku": "tee-l", "name": "Large", "priceCents": 2200, "costCents": 900}), http.StatusCreated)

	got := api.getProduct(t, tee.ID)
	assert.True(t, got.HasVariants)
	assert.Equal(t, int64(1800), got.DisplayPriceCents)

	updated := testutil.RequireOK[catalogapp.VariantResponse](t, api.do(t, http.MethodPatch, "/catalog/variants/"+small.ID.String(),
		gin.H{"priceCents": 2500}), http.StatusOK)
	assert.Equal(t, int64(2500), updated.PriceCents)
	assert.Equal(t, int64(2200), api.getProduct(t, tee.ID).DisplayPriceCents)

	assert.Equal(t, http.StatusNoContent, api.do(t, http.MethodDelete, "/catalog/variants/"+small.ID.String(), nil).Code)

	renamed := testutil.RequireOK[catalogapp.ProductResponse](t, api.do(t, http.MethodPatch, "/catalog/products/"+tee.ID.String(),
		gin.H{"name": "Classic tee"}), http.StatusOK)
	assert.Equal(t, "Classic tee", renamed.Name)

	assert.Equal(t, http.StatusNoContent, api.do(t, http.MethodDelete, "/catalog/products/"+tee.ID.String(), nil).Code)
	w := api.do(t, http.MethodGet, "/catalog/products", nil)
	assert.Empty(t, testutil.Decode[[]catalogapp.ProductResponse](t, w).Data)
	w = api.do(t, http.MethodGet, "/catalog/products?includeInactive=true", nil)
	assert.Len(t, testutil.Decode[[]catalogapp.ProductResponse](t, w).Data, 1)
}
