package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/application/validation"
	"github.com/shopledger/backend/internal/domain/catalog"
	"github.com/shopledger/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CatalogService manages products and variants. Stock is read-only here;
// it only moves through the stock ledger.
type CatalogService struct {
	productRepo    catalog.ProductRepository
	variantRepo    catalog.VariantRepository
	txScope        TransactionScope
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(productRepo catalog.ProductRepository, variantRepo catalog.VariantRepository, txScope TransactionScope, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{
		productRepo: productRepo,
		variantRepo: variantRepo,
		txScope:     txScope,
		logger:      logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *CatalogService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// CreateProduct creates an active product with zero stock
func (s *CatalogService) CreateProduct(ctx context.Context, ownerID uuid.UUID, req CreateProductRequest) (*ProductResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	product, err := catalog.NewProduct(ownerID, req.SKU, req.Name, req.PriceCents, req.CostCents)
	if err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	s.publish(ctx, product)

	out := ToProductResponse(product)
	return &out, nil
}

// GetProduct returns a product with its variants
func (s *CatalogService) GetProduct(ctx context.Context, ownerID, productID uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, ownerID, productID)
	if err != nil {
		return nil, err
	}
	variants, err := s.variantRepo.FindByProduct(ctx, ownerID, productID)
	if err != nil {
		return nil, err
	}
	out := ToProductResponse(product)
	for i := range variants {
		out.Variants = append(out.Variants, ToVariantResponse(&variants[i]))
	}
	return &out, nil
}

// ListProducts returns one page of products, newest first
func (s *CatalogService) ListProducts(ctx context.Context, ownerID uuid.UUID, filter ProductListFilter) (shared.CursorPage[ProductResponse], error) {
	if err := validation.Struct(filter); err != nil {
		return shared.CursorPage[ProductResponse]{}, err
	}
	cursor, err := validation.Cursor(filter.Cursor, filter.Limit)
	if err != nil {
		return shared.CursorPage[ProductResponse]{}, err
	}
	page, err := s.productRepo.List(ctx, ownerID, catalog.ProductFilter{
		CursorFilter:    cursor,
		IncludeInactive: filter.IncludeInactive,
	})
	if err != nil {
		return shared.CursorPage[ProductResponse]{}, err
	}
	return shared.MapCursorPage(page, func(p catalog.Product) ProductResponse {
		return ToProductResponse(&p)
	}), nil
}

// UpdateProduct edits a product's name and prices
func (s *CatalogService) UpdateProduct(ctx context.Context, ownerID, productID uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	var product *catalog.Product
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		product, err = repos.ProductRepo().FindByIDForUpdate(ctx, ownerID, productID)
		if err != nil {
			return err
		}
		if err := product.Update(req.Name, req.PriceCents, req.CostCents); err != nil {
			return err
		}
		return repos.ProductRepo().Save(ctx, product)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, product)

	out := ToProductResponse(product)
	return &out, nil
}

// DeleteProduct soft-deletes a product together with its variants
func (s *CatalogService) DeleteProduct(ctx context.Context, ownerID, productID uuid.UUID) error {
	if err := shared.EnsureDeletable(shared.EntityProduct); err != nil {
		return err
	}
	var product *catalog.Product
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		product, err = repos.ProductRepo().FindByIDForUpdate(ctx, ownerID, productID)
		if err != nil {
			return err
		}
		if err := repos.VariantRepo().DeactivateByProduct(ctx, ownerID, productID); err != nil {
			return err
		}
		product.Deactivate()
		product.RecomputeDisplay(nil)
		return repos.ProductRepo().Save(ctx, product)
	})
	if err != nil {
		return err
	}
	s.publish(ctx, product)
	s.logger.Info("product deactivated", zap.String("product_id", productID.String()))
	return nil
}

// CreateVariant adds a variant with zero stock and refreshes the product display
func (s *CatalogService) CreateVariant(ctx context.Context, ownerID, productID uuid.UUID, req CreateVariantRequest) (*VariantResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	var variant *catalog.ProductVariant
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		product, err := repos.ProductRepo().FindByIDForUpdate(ctx, ownerID, productID)
		if err != nil {
			return err
		}
		variant, err = catalog.NewProductVariant(product, req.SKU, req.Name, req.PriceCents, req.CostCents)
		if err != nil {
			return err
		}
		if err := repos.VariantRepo().Save(ctx, variant); err != nil {
			return err
		}
		_, err = catalog.RefreshDisplay(ctx, repos.ProductRepo(), repos.VariantRepo(), ownerID, productID)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := ToVariantResponse(variant)
	return &out, nil
}

// UpdateVariant edits a variant. Activity changes refresh the product display.
func (s *CatalogService) UpdateVariant(ctx context.Context, ownerID, variantID uuid.UUID, req UpdateVariantRequest) (*VariantResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	var variant *catalog.ProductVariant
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		// Product row first, matching the stock ledger's lock order
		current, err := repos.VariantRepo().FindByID(ctx, ownerID, variantID)
		if err != nil {
			return err
		}
		if _, err := repos.ProductRepo().FindByIDForUpdate(ctx, ownerID, current.ProductID); err != nil {
			return err
		}
		variant, err = repos.VariantRepo().FindByIDForUpdate(ctx, ownerID, variantID)
		if err != nil {
			return err
		}
		if err := variant.Update(req.Name, req.PriceCents, req.CostCents, req.IsActive); err != nil {
			return err
		}
		if err := repos.VariantRepo().Save(ctx, variant); err != nil {
			return err
		}
		_, err = catalog.RefreshDisplay(ctx, repos.ProductRepo(), repos.VariantRepo(), ownerID, variant.ProductID)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := ToVariantResponse(variant)
	return &out, nil
}

// DeleteVariant soft-deletes a variant
func (s *CatalogService) DeleteVariant(ctx context.Context, ownerID, variantID uuid.UUID) error {
	inactive := false
	_, err := s.UpdateVariant(ctx, ownerID, variantID, UpdateVariantRequest{IsActive: &inactive})
	return err
}

func (s *CatalogService) publish(ctx context.Context, product *catalog.Product) {
	events := product.GetDomainEvents()
	product.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish catalog events", zap.Error(err))
	}
}
