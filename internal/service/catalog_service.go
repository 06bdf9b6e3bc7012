package service

import (
	"context"
	"fmt"

	"pos-service/internal/models"
	"pos-service/internal/store"
	"pos-service/internal/util"

	"go.uber.org/zap"
)

// CatalogService handles products and categories
type CatalogService struct {
	store  *store.Store
	logger *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(store *store.Store) *CatalogService {
	return &CatalogService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// ListProducts returns products, optionally available-only or by category
func (s *CatalogService) ListProducts(ctx context.Context, availableOnly bool, categoryID *int64) ([]models.Product, error) {
	if categoryID != nil {
		return s.store.GetProductsByCategory(ctx, *categoryID)
	}
	if availableOnly {
		return s.store.GetAvailableProducts(ctx)
	}
	return s.store.GetProducts(ctx)
}

// GetProduct returns one product
func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	return s.store.GetProductByID(ctx, id)
}

// CreateProduct validates and inserts a product
func (s *CatalogService) CreateProduct(ctx context.Context, p *models.Product) error {
	if _, err := s.store.GetCategoryByID(ctx, p.CategoryID); err != nil {
		return err
	}
	if err := s.store.CreateProduct(ctx, p); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	s.logger.Info("Product created", zap.Int64("product_id", p.ID), zap.String("name", p.Name))
	return nil
}

// UpdateProduct updates a product
func (s *CatalogService) UpdateProduct(ctx context.Context, p *models.Product) error {
	if _, err := s.store.GetCategoryByID(ctx, p.CategoryID); err != nil {
		return err
	}
	return s.store.UpdateProduct(ctx, p)
}

// DeleteProduct removes a product. Past order items keep their snapshots.
func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	return s.store.DeleteProduct(ctx, id)
}

// ListCategories returns categories in display order
func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.store.GetCategories(ctx)
}

// CreateCategory inserts a category
func (s *CatalogService) CreateCategory(ctx context.Context, c *models.Category) error {
	return s.store.CreateCategory(ctx, c)
}

// UpdateCategory updates a category
func (s *CatalogService) UpdateCategory(ctx context.Context, c *models.Category) error {
	return s.store.UpdateCategory(ctx, c)
}

// DeleteCategory removes a category unless any product still references it
func (s *CatalogService) DeleteCategory(ctx context.Context, id int64) error {
	count, err := s.store.CountProductsInCategory(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: %d products", store.ErrCategoryInUse, count)
	}
	return s.store.DeleteCategory(ctx, id)
}
