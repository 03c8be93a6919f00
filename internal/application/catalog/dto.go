package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/catalog"
)

// CreateProductRequest represents a request to create a product
type CreateProductRequest struct {
	SKU        string `json:"sku" binding:"required,max=64"`
	Name       string `json:"name" binding:"required,max=200"`
	PriceCents int64  `json:"priceCents" binding:"gte=0"`
	CostCents  int64  `json:"costCents" binding:"gte=0"`
}

// UpdateProductRequest represents a partial product update
type UpdateProductRequest struct {
	Name       *string `json:"name" binding:"omitempty,min=1,max=200"`
	PriceCents *int64  `json:"priceCents" binding:"omitempty,gte=0"`
	CostCents  *int64  `json:"costCents" binding:"omitempty,gte=0"`
}

// CreateVariantRequest represents a request to add a variant to a product
type CreateVariantRequest struct {
	SKU        string `json:"sku" binding:"required,max=64"`
	Name       string `json:"name" binding:"required,max=200"`
	PriceCents int64  `json:"priceCents" binding:"gte=0"`
	CostCents  int64  `json:"costCents" binding:"gte=0"`
}

// UpdateVariantRequest represents a partial variant update
type UpdateVariantRequest struct {
	Name       *string `json:"name" binding:"omitempty,min=1,max=200"`
	PriceCents *int64  `json:"priceCents" binding:"omitempty,gte=0"`
	CostCents  *int64  `json:"costCents" binding:"omitempty,gte=0"`
	IsActive   *bool   `json:"isActive"`
}

// ProductListFilter is the query of a product listing
type ProductListFilter struct {
	IncludeInactive bool   `form:"includeInactive"`
	Cursor          string `form:"cursor"`
	Limit           int    `form:"limit" binding:"omitempty,min=1"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID                uuid.UUID         `json:"id"`
	SKU               string            `json:"sku"`
	Name              string            `json:"name"`
	Stock             int64             `json:"stock"`
	PriceCents        int64             `json:"priceCents"`
	CostCents         int64             `json:"costCents"`
	IsActive          bool              `json:"isActive"`
	HasVariants       bool              `json:"hasVariants"`
	DisplayStock      int64             `json:"displayStock"`
	DisplayPriceCents int64             `json:"displayPriceCents"`
	Version           int               `json:"version"`
	Variants          []VariantResponse `json:"variants,omitempty"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

// VariantResponse represents a product variant in API responses
type VariantResponse struct {
	ID         uuid.UUID `json:"id"`
	ProductID  uuid.UUID `json:"productId"`
	SKU        string    `json:"sku"`
	Name       string    `json:"name"`
	Stock      int64     `json:"stock"`
	PriceCents int64     `json:"priceCents"`
	CostCents  int64     `json:"costCents"`
	IsActive   bool      `json:"isActive"`
}

// ToProductResponse converts a domain product to a response
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:                p.ID,
		SKU:               p.SKU,
		Name:              p.Name,
		Stock:             p.Stock,
		PriceCents:        p.PriceCents,
		CostCents:         p.CostCents,
		IsActive:          p.IsActive,
		HasVariants:       p.HasVariants,
		DisplayStock:      p.DisplayStock,
		DisplayPriceCents: p.DisplayPriceCents,
		Version:           p.Version,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

// ToVariantResponse converts a domain variant to a response
func ToVariantResponse(v *catalog.ProductVariant) VariantResponse {
	return VariantResponse{
		ID:         v.ID,
		ProductID:  v.ProductID,
		SKU:        v.SKU,
		Name:       v.Name,
		Stock:      v.Stock,
		PriceCents: v.PriceCents,
		CostCents:  v.CostCents,
		IsActive:   v.IsActive,
	}
}
