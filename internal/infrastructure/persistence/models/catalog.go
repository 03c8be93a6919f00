package models

import (
	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/catalog"
)

// ProductModel is the persistence model for the Product domain entity.
type ProductModel struct {
	AggregateModel
	OwnerID           uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_products_owner_sku,priority:1"`
	SKU               string    `gorm:"column:sku;type:varchar(64);not null;uniqueIndex:idx_products_owner_sku,priority:2"`
	Name              string    `gorm:"type:varchar(200);not null"`
	Stock             int64     `gorm:"not null;default:0;check:chk_products_stock,stock >= 0"`
	PriceCents        int64     `gorm:"not null;default:0"`
	CostCents         int64     `gorm:"not null;default:0"`
	IsActive          bool      `gorm:"not null"`
	HasVariants       bool      `gorm:"not null;default:false"`
	DisplayStock      int64     `gorm:"not null;default:0"`
	DisplayPriceCents int64     `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		OwnedAggregateRoot: m.ownedRoot(m.OwnerID),
		SKU:                m.SKU,
		Name:               m.Name,
		Stock:              m.Stock,
		PriceCents:         m.PriceCents,
		CostCents:          m.CostCents,
		IsActive:           m.IsActive,
		HasVariants:        m.HasVariants,
		DisplayStock:       m.DisplayStock,
		DisplayPriceCents:  m.DisplayPriceCents,
	}
}

// FromDomain populates the persistence model from a domain Product entity.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.OwnerID = p.OwnerID
	m.SKU = p.SKU
	m.Name = p.Name
	m.Stock = p.Stock
	m.PriceCents = p.PriceCents
	m.CostCents = p.CostCents
	m.IsActive = p.IsActive
	m.HasVariants = p.HasVariants
	m.DisplayStock = p.DisplayStock
	m.DisplayPriceCents = p.DisplayPriceCents
}

// ProductModelFromDomain creates a new persistence model from a domain Product entity.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}

// ProductVariantModel is the persistence model for the ProductVariant domain entity.
type ProductVariantModel struct {
	AggregateModel
	OwnerID    uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_product_variants_owner_sku,priority:1"`
	ProductID  uuid.UUID `gorm:"type:uuid;not null;index"`
	SKU        string    `gorm:"column:sku;type:varchar(64);not null;uniqueIndex:idx_product_variants_owner_sku,priority:2"`
	Name       string    `gorm:"type:varchar(200);not null"`
	Stock      int64     `gorm:"not null;default:0;check:chk_product_variants_stock,stock >= 0"`
	PriceCents int64     `gorm:"not null;default:0"`
	CostCents  int64     `gorm:"not null;default:0"`
	IsActive   bool      `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductVariantModel) TableName() string {
	return "product_variants"
}

// ToDomain converts the persistence model to a domain ProductVariant entity.
func (m *ProductVariantModel) ToDomain() *catalog.ProductVariant {
	return &catalog.ProductVariant{
		OwnedAggregateRoot: m.ownedRoot(m.OwnerID),
		ProductID:          m.ProductID,
		SKU:                m.SKU,
		Name:               m.Name,
		Stock:              m.Stock,
		PriceCents:         m.PriceCents,
		CostCents:          m.CostCents,
		IsActive:           m.IsActive,
	}
}

// FromDomain populates the persistence model from a domain ProductVariant entity.
func (m *ProductVariantModel) FromDomain(v *catalog.ProductVariant) {
	m.FromDomainAggregateRoot(v.BaseAggregateRoot)
	m.OwnerID = v.OwnerID
	m.ProductID = v.ProductID
	m.SKU = v.SKU
	m.Name = v.Name
	m.Stock = v.Stock
	m.PriceCents = v.PriceCents
	m.CostCents = v.CostCents
	m.IsActive = v.IsActive
}

// ProductVariantModelFromDomain creates a new persistence model from a domain ProductVariant entity.
func ProductVariantModelFromDomain(v *catalog.ProductVariant) *ProductVariantModel {
	m := &ProductVariantModel{}
	m.FromDomain(v)
	return m
}
