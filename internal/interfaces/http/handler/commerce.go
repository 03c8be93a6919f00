package handler

import (
	"github.com/gin-gonic/gin"
	commerceapp "github.com/shopledger/backend/internal/application/commerce"
)

// PaymentHandler serves the payment ledger
type PaymentHandler struct {
	BaseHandler
	payments *commerceapp.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(payments *commerceapp.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// List godoc
//
//	@Summary	List payments, newest first
//	@Tags		commerce
//	@Produce	json
//	@Param		orderId	query		string	false	"Restrict to one order"
//	@Param		cursor	query		string	false	"Id of the last payment of the previous page"
//	@Param		limit	query		int		false	"Page size"
//	@Success	200		{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/commerce/payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	var filter commerceapp.PaymentListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	result, err := h.payments.List(c.Request.Context(), ownerID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page(c, result)
}

// Create godoc
//
//	@Summary		Record a payment
//	@Description	A repeated idempotencyKey for the same order returns the first payment with 200 instead of 201.
//	@Tags			commerce
//	@Accept			json
//	@Produce		json
//	@Param			request	body		commerceapp.CreatePaymentRequest	true	"Payment"
//	@Success		200		{object}	dto.Response
//	@Success		201		{object}	dto.Response
//	@Failure		404		{object}	dto.Response
//	@Failure		409		{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/commerce/payments [post]
func (h *PaymentHandler) Create(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	var req commerceapp.CreatePaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.payments.Create(c.Request.Context(), ownerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if result.Created {
		h.Created(c, result.Payment)
		return
	}
	h.Success(c, result.Payment)
}

// Get returns one payment
func (h *PaymentHandler) Get(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	payment, err := h.payments.GetByID(c.Request.Context(), ownerID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payment)
}

// RefundHandler serves the refund workflow
type RefundHandler struct {
	BaseHandler
	refunds *commerceapp.RefundService
}

// NewRefundHandler creates a new RefundHandler
func NewRefundHandler(refunds *commerceapp.RefundService) *RefundHandler {
	return &RefundHandler{refunds: refunds}
}

// List returns a page of refunds
func (h *RefundHandler) List(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	var filter commerceapp.RefundListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	result, err := h.refunds.List(c.Request.Context(), ownerID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page(c, result)
}

// Create godoc
//
//	@Summary	Open a refund against a capture payment
//	@Tags		commerce
//	@Accept		json
//	@Produce	json
//	@Param		request	body		commerceapp.CreateRefundRequest	true	"Refund"
//	@Success	201		{object}	dto.Response
//	@Failure	400		{object}	dto.Response
//	@Failure	404		{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/commerce/refunds [post]
func (h *RefundHandler) Create(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	var req commerceapp.CreateRefundRequest
	if !h.bindJSON(c, &req) {
		return
	}
	refund, err := h.refunds.Create(c.Request.Context(), ownerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, refund)
}

// Get returns a refund with its items and linked payments
func (h *RefundHandler) Get(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	refund, err := h.refunds.GetByID(c.Request.Context(), ownerID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, refund)
}

// Update godoc
//
//	@Summary		Patch a refund
//	@Description	SUCCEEDED marks the order REFUNDED. Terminal refunds cannot move again.
//	@Tags			commerce
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string							true	"Refund id"
//	@Param			request	body		commerceapp.UpdateRefundRequest	true	"Fields to change"
//	@Success		200		{object}	dto.Response
//	@Failure		404		{object}	dto.Response
//	@Failure		409		{object}	dto.Response
//	@Failure		422		{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/commerce/refunds/{id} [patch]
func (h *RefundHandler) Update(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req commerceapp.UpdateRefundRequest
	if !h.bindJSON(c, &req) {
		return
	}
	refund, err := h.refunds.Update(c.Request.Context(), ownerID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, refund)
}

// Delete removes a refund and then, best effort, its linked refund payment
func (h *RefundHandler) Delete(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.refunds.Delete(c.Request.Context(), ownerID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// OrderHandler serves orders
type OrderHandler struct {
	BaseHandler
	orders *commerceapp.OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orders *commerceapp.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// List returns a page of orders
func (h *OrderHandler) List(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	var filter commerceapp.OrderListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	result, err := h.orders.List(c.Request.Context(), ownerID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page(c, result)
}

// Create godoc
//
//	@Summary	Place an order, pricing lines from the catalog when no price is given
//	@Tags		orders
//	@Accept		json
//	@Produce	json
//	@Param		request	body		commerceapp.CreateOrderRequest	true	"Order"
//	@Success	201		{object}	dto.Response
//	@Failure	400		{object}	dto.Response
//	@Failure	404		{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/orders [post]
func (h *OrderHandler) Create(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	var req commerceapp.CreateOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	order, err := h.orders.Create(c.Request.Context(), ownerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// Get returns an order with its lines
func (h *OrderHandler) Get(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	order, err := h.orders.GetByID(c.Request.Context(), ownerID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// UpdateStatus moves an order along its lifecycle
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req commerceapp.UpdateOrderStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}
	order, err := h.orders.UpdateStatus(c.Request.Context(), ownerID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}
