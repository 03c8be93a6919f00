package handler

import (
	"github.com/gin-gonic/gin"
	catalogapp "github.com/shopledger/backend/internal/application/catalog"
)

// CatalogHandler serves products and their variants
type CatalogHandler struct {
	BaseHandler
	catalog *catalogapp.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalog *catalogapp.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

func (h *CatalogHandler) ListProducts(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	var filter catalogapp.ProductListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	result, err := h.catalog.ListProducts(c.Request.Context(), ownerID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page(c, result)
}

func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	var req catalogapp.CreateProductRequest
	if !h.bindJSON(c, &req) {
		return
	}
	product, err := h.catalog.CreateProduct(c.Request.Context(), ownerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}

func (h *CatalogHandler) GetProduct(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	product, err := h.catalog.GetProduct(c.Request.Context(), ownerID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req catalogapp.UpdateProductRequest
	if !h.bindJSON(c, &req) {
		return
	}
	product, err := h.catalog.UpdateProduct(c.Request.Context(), ownerID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// DeleteProduct deactivates a product. Ledger rows keep referencing it.
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteProduct(c.Request.Context(), ownerID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

func (h *CatalogHandler) CreateVariant(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	productID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req catalogapp.CreateVariantRequest
	if !h.bindJSON(c, &req) {
		return
	}
	variant, err := h.catalog.CreateVariant(c.Request.Context(), ownerID, productID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, variant)
}

func (h *CatalogHandler) UpdateVariant(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req catalogapp.UpdateVariantRequest
	if !h.bindJSON(c, &req) {
		return
	}
	variant, err := h.catalog.UpdateVariant(c.Request.Context(), ownerID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, variant)
}

func (h *CatalogHandler) DeleteVariant(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteVariant(c.Request.Context(), ownerID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
