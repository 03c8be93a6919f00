package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	inventoryapp "github.com/shopledger/backend/internal/application/inventory"
)

// ReceiptHandler serves inventory receipts and their lines
type ReceiptHandler struct {
	BaseHandler
	receipts *inventoryapp.ReceiptService
}

// NewReceiptHandler creates a new ReceiptHandler
func NewReceiptHandler(receipts *inventoryapp.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{receipts: receipts}
}

// List godoc
//
//	@Summary	List inventory receipts, newest first
//	@Tags		inventory
//	@Produce	json
//	@Param		status	query		string	false	"DRAFT, RECEIVED or CANCELLED"
//	@Param		cursor	query		string	false	"Id of the last receipt of the previous page"
//	@Param		limit	query		int		false	"Page size"
//	@Success	200		{object}	dto.Response
//	@Failure	400		{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/inventory/receipt [get]
func (h *ReceiptHandler) List(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	var filter inventoryapp.ReceiptListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	result, err := h.receipts.List(c.Request.Context(), ownerID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page(c, result)
}

// Create godoc
//
//	@Summary	Open a DRAFT receipt
//	@Tags		inventory
//	@Accept		json
//	@Produce	json
//	@Param		request	body		inventoryapp.CreateReceiptRequest	true	"Receipt header"
//	@Success	201		{object}	dto.Response
//	@Failure	400		{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/inventory/receipt [post]
func (h *ReceiptHandler) Create(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	var req inventoryapp.CreateReceiptRequest
	if !h.bindJSON(c, &req) {
		return
	}
	receipt, err := h.receipts.Create(c.Request.Context(), ownerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, receipt)
}

// Get godoc
//
//	@Summary	Get a receipt with its lines
//	@Tags		inventory
//	@Produce	json
//	@Param		id	path		string	true	"Receipt id"
//	@Success	200	{object}	dto.Response
//	@Failure	404	{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/inventory/receipt/{id} [get]
func (h *ReceiptHandler) Get(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	receipt, err := h.receipts.GetByID(c.Request.Context(), ownerID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, receipt)
}

// Update godoc
//
//	@Summary		Patch a receipt
//	@Description	A status change to RECEIVED adds every line to stock; leaving RECEIVED removes it again.
//	@Tags			inventory
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string								true	"Receipt id"
//	@Param			request	body		inventoryapp.UpdateReceiptRequest	true	"Fields to change"
//	@Success		200		{object}	dto.Response
//	@Failure		404		{object}	dto.Response
//	@Failure		409		{object}	dto.Response
//	@Failure		422		{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/inventory/receipt/{id} [patch]
func (h *ReceiptHandler) Update(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req inventoryapp.UpdateReceiptRequest
	if !h.bindJSON(c, &req) {
		return
	}
	receipt, err := h.receipts.Update(c.Request.Context(), ownerID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, receipt)
}

// Delete godoc
//
//	@Summary	Delete a receipt, reversing its stock when it was RECEIVED
//	@Tags		inventory
//	@Param		id	path	string	true	"Receipt id"
//	@Success	204
//	@Failure	404	{object}	dto.Response
//	@Failure	422	{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/inventory/receipt/{id} [delete]
func (h *ReceiptHandler) Delete(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.receipts.Delete(c.Request.Context(), ownerID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

type receiptItemQuery struct {
	ReceiptID string `form:"receiptId" binding:"required,uuid"`
}

// ListItems godoc
//
//	@Summary	List the lines of a receipt in position order
//	@Tags		inventory
//	@Produce	json
//	@Param		receiptId	query		string	true	"Receipt id"
//	@Success	200			{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/inventory/receipt/item [get]
func (h *ReceiptHandler) ListItems(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	var q receiptItemQuery
	if !h.bindQuery(c, &q) {
		return
	}
	items, err := h.receipts.ListItems(c.Request.Context(), ownerID, uuid.MustParse(q.ReceiptID))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// CreateItem godoc
//
//	@Summary	Add a line to a receipt
//	@Tags		inventory
//	@Accept		json
//	@Produce	json
//	@Param		request	body		inventoryapp.CreateReceiptItemRequest	true	"Receipt line"
//	@Success	201		{object}	dto.Response
//	@Failure	422		{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/inventory/receipt/item [post]
func (h *ReceiptHandler) CreateItem(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	var req inventoryapp.CreateReceiptItemRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.receipts.CreateItem(c.Request.Context(), ownerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// GetItem returns one receipt line
func (h *ReceiptHandler) GetItem(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	item, err := h.receipts.GetItem(c.Request.Context(), ownerID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// UpdateItem patches a receipt line and answers with the line and the new
// receipt totals
func (h *ReceiptHandler) UpdateItem(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req inventoryapp.UpdateReceiptItemRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.receipts.UpdateItem(c.Request.Context(), ownerID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// DeleteItem removes a receipt line and answers with the new receipt totals
func (h *ReceiptHandler) DeleteItem(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	totals, err := h.receipts.DeleteItem(c.Request.Context(), ownerID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"receipt": totals})
}

