package catalog

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/shared"
)

// Product is a sellable catalog entry. When it owns active variants its
// display stock and price are derived from them.
type Product struct {
	shared.OwnedAggregateRoot
	SKU        string
	Name       string
	Stock      int64
	PriceCents int64
	CostCents  int64
	IsActive   bool

	HasVariants       bool
	DisplayStock      int64
	DisplayPriceCents int64
}

// NewProduct creates a new active product with zero stock
func NewProduct(ownerID uuid.UUID, sku, name string, priceCents, costCents int64) (*Product, error) {
	if ownerID == uuid.Nil {
		return nil, shared.ErrUnauthorized
	}
	sku, err := normalizeSKU(sku)
	if err != nil {
		return nil, err
	}
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validatePrices(priceCents, costCents); err != nil {
		return nil, err
	}

	p := &Product{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(ownerID),
		SKU:                sku,
		Name:               strings.TrimSpace(name),
		PriceCents:         priceCents,
		CostCents:          costCents,
		IsActive:           true,
	}
	p.RecomputeDisplay(nil)
	p.AddDomainEvent(NewProductChangedEvent(p, EventTypeProductCreated))
	return p, nil
}

// Update changes the editable attributes. Nil arguments are left untouched.
func (p *Product) Update(name *string, priceCents, costCents *int64) error {
	if !p.IsActive {
		return shared.NewInvalidStateError("product is inactive")
	}
	if name != nil {
		if err := validateName(*name); err != nil {
			return err
		}
		p.Name = strings.TrimSpace(*name)
	}
	price, cost := p.PriceCents, p.CostCents
	if priceCents != nil {
		price = *priceCents
	}
	if costCents != nil {
		cost = *costCents
	}
	if err := validatePrices(price, cost); err != nil {
		return err
	}
	p.PriceCents, p.CostCents = price, cost
	if !p.HasVariants {
		p.DisplayPriceCents = p.PriceCents
	}
	p.Touch()
	p.AddDomainEvent(NewProductChangedEvent(p, EventTypeProductUpdated))
	return nil
}

// Deactivate soft-deletes the product
func (p *Product) Deactivate() {
	if !p.IsActive {
		return
	}
	p.IsActive = false
	p.Touch()
	p.AddDomainEvent(NewProductChangedEvent(p, EventTypeProductDeactivated))
}

// RecomputeDisplay derives HasVariants, DisplayStock and DisplayPriceCents
// from the active variants owned by this product. Variants of other products
// and inactive variants are ignored.
func (p *Product) RecomputeDisplay(variants []ProductVariant) {
	var (
		active   int
		stock    int64
		minPrice int64
	)
	for i := range variants {
		v := &variants[i]
		if !v.IsActive || v.ProductID != p.ID {
			continue
		}
		if active == 0 || v.PriceCents < minPrice {
			minPrice = v.PriceCents
		}
		stock += v.Stock
		active++
	}

	if active == 0 {
		p.HasVariants = false
		p.DisplayStock = p.Stock
		p.DisplayPriceCents = p.PriceCents
		return
	}
	p.HasVariants = true
	p.DisplayStock = stock
	p.DisplayPriceCents = minPrice
}

// ProductVariant is a purchasable variation of a product with its own stock
type ProductVariant struct {
	shared.OwnedAggregateRoot
	ProductID  uuid.UUID
	SKU        string
	Name       string
	Stock      int64
	PriceCents int64
	CostCents  int64
	IsActive   bool
}

// NewProductVariant creates an active variant under product
func NewProductVariant(product *Product, sku, name string, priceCents, costCents int64) (*ProductVariant, error) {
	if product == nil {
		return nil, shared.NewValidationError("product is required")
	}
	if !product.IsActive {
		return nil, shared.NewInvalidStateError("cannot add a variant to an inactive product")
	}
	sku, err := normalizeSKU(sku)
	if err != nil {
		return nil, err
	}
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validatePrices(priceCents, costCents); err != nil {
		return nil, err
	}
	return &ProductVariant{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(product.OwnerID),
		ProductID:          product.ID,
		SKU:                sku,
		Name:               strings.TrimSpace(name),
		PriceCents:         priceCents,
		CostCents:          costCents,
		IsActive:           true,
	}, nil
}

// Update changes the editable attributes. Nil arguments are left untouched.
func (v *ProductVariant) Update(name *string, priceCents, costCents *int64, isActive *bool) error {
	if name != nil {
		if err := validateName(*name); err != nil {
			return err
		}
		v.Name = strings.TrimSpace(*name)
	}
	price, cost := v.PriceCents, v.CostCents
	if priceCents != nil {
		price = *priceCents
	}
	if costCents != nil {
		cost = *costCents
	}
	if err := validatePrices(price, cost); err != nil {
		return err
	}
	v.PriceCents, v.CostCents = price, cost
	if isActive != nil {
		v.IsActive = *isActive
	}
	v.Touch()
	return nil
}

// Deactivate soft-deletes the variant
func (v *ProductVariant) Deactivate() {
	v.IsActive = false
	v.Touch()
}

// BelongsTo reports whether the variant is owned by productID
func (v *ProductVariant) BelongsTo(productID uuid.UUID) bool {
	return v.ProductID == productID
}

func normalizeSKU(sku string) (string, error) {
	sku = strings.ToUpper(strings.TrimSpace(sku))
	if sku == "" {
		return "", shared.NewValidationError("sku cannot be empty")
	}
	if len(sku) > 64 {
		return "", shared.NewValidationError("sku cannot exceed 64 characters")
	}
	return sku, nil
}

func validateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewValidationError("name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewValidationError("name cannot exceed 200 characters")
	}
	return nil
}

func validatePrices(priceCents, costCents int64) error {
	if priceCents < 0 {
		return shared.NewValidationError("priceCents cannot be negative")
	}
	if costCents < 0 {
		return shared.NewValidationError("costCents cannot be negative")
	}
	return nil
}
