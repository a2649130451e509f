package service

import (
	"context"
	"encoding/json"
	"errors"
	"github.com/go-redis/redis/v8"
	"storefront-service/internal/apperror"
	"storefront-service/internal/entity"
	"storefront-service/internal/query"
	"strings"
	"time"
)

const (
	catalogCacheKey = "catalog:products"
	featuredLimit   = 6
)

// CatalogService serves the customer catalog and the admin product operations.
type CatalogService struct {
	productRepo CatalogStore
	rdb         *redis.Client
	cacheTTL    time.Duration
}

// NewCatalogService creates a new instance of CatalogService. rdb may be nil to disable caching.
func NewCatalogService(productRepo CatalogStore, rdb *redis.Client, cacheTTL time.Duration) *CatalogService {
	return &CatalogService{
		productRepo: productRepo,
		rdb:         rdb,
		cacheTTL:    cacheTTL,
	}
}

// ListProducts returns every active product with images and variants.
func (s *CatalogService) ListProducts(ctx context.Context) ([]entity.ProductView, error) {
	// Read from cache
	if cached, ok := s.cachedListing(ctx); ok {
		return cached, nil
	}

	products, err := s.productRepo.ListActiveProducts(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing products")
		return nil, err
	}

	views, err := s.aggregate(ctx, products)
	if err != nil {
		return nil, err
	}

	// Write to cache
	s.storeListing(ctx, views)

	return views, nil
}

// SearchProducts matches q against the name and description of active products.
func (s *CatalogService) SearchProducts(ctx context.Context, q string) ([]entity.ProductView, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, apperror.Validation("service.SearchProducts", "search query is required")
	}

	products, err := s.productRepo.SearchActiveProducts(ctx, q)
	if err != nil {
		logger.Error().Err(err).Msgf("Error searching products for %q", q)
		return nil, err
	}

	return s.aggregate(ctx, products)
}

func (s *CatalogService) aggregate(ctx context.Context, products []entity.Product) ([]entity.ProductView, error) {
	if len(products) == 0 {
		return []entity.ProductView{}, nil
	}

	images, err := s.productRepo.ListImages(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing product images")
		return nil, err
	}

	variants, err := s.productRepo.ListVariants(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing product variants")
		return nil, err
	}

	return AggregateProducts(products, images, variants), nil
}

// GetProduct returns one active product with its own images and variants.
func (s *CatalogService) GetProduct(ctx context.Context, id int) (*entity.ProductView, error) {
	product, err := s.productRepo.GetActiveProduct(ctx, id)
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return nil, apperror.NotFound("service.GetProduct", "product not found")
		}
		logger.Error().Err(err).Msgf("Error getting product by ID %d", id)
		return nil, err
	}

	images, err := s.productRepo.ListImagesByProduct(ctx, id)
	if err != nil {
		logger.Error().Err(err).Msgf("Error listing images for product %d", id)
		return nil, err
	}

	variants, err := s.productRepo.ListVariantsByProduct(ctx, id)
	if err != nil {
		logger.Error().Err(err).Msgf("Error listing variants for product %d", id)
		return nil, err
	}

	views := AggregateProducts([]entity.Product{*product}, images, variants)
	if len(views) == 0 {
		return nil, apperror.NotFound("service.GetProduct", "product not found")
	}
	return &views[0], nil
}

// FeaturedProducts returns up to six featured products in their short form.
func (s *CatalogService) FeaturedProducts(ctx context.Context) ([]entity.FeaturedProductView, error) {
	products, err := s.productRepo.ListFeaturedProducts(ctx, featuredLimit)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing featured products")
		return nil, err
	}

	views := make([]entity.FeaturedProductView, 0, len(products))
	for _, product := range products {
		if !product.Active() {
			continue
		}
		views = append(views, featuredView(product))
	}
	return views, nil
}

func (s *CatalogService) ListAdminProducts(ctx context.Context, f entity.ProductFilter, page query.Page) ([]entity.Product, query.Pagination, error) {
	products, total, err := s.productRepo.ListProducts(ctx, f, page)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing admin products")
		return nil, query.Pagination{}, err
	}
	return products, query.NewPagination(page, total), nil
}

func (s *CatalogService) GetAdminProduct(ctx context.Context, id int) (*entity.Product, error) {
	product, err := s.productRepo.GetProductByID(ctx, id)
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return nil, apperror.NotFound("service.GetAdminProduct", "product not found")
		}
		logger.Error().Err(err).Msgf("Error getting product by ID %d", id)
		return nil, err
	}
	return product, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error) {
	if err := normalizeProduct(product); err != nil {
		return nil, err
	}

	created, err := s.productRepo.CreateProduct(ctx, product)
	if err != nil {
		logger.Error().Err(err).Msg("Error creating product")
		return nil, err
	}

	s.invalidateListing(ctx)
	return created, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error) {
	if product.ID <= 0 {
		return nil, apperror.Validation("service.UpdateProduct", "product id is required")
	}
	if err := normalizeProduct(product); err != nil {
		return nil, err
	}

	updated, err := s.productRepo.UpdateProduct(ctx, product)
	if err != nil {
		if !apperror.Is(err, apperror.KindNotFound) {
			logger.Error().Err(err).Msgf("Error updating product %d", product.ID)
		}
		return nil, err
	}

	s.invalidateListing(ctx)
	return updated, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id int) error {
	if err := s.productRepo.DeleteProduct(ctx, id); err != nil {
		if !apperror.Is(err, apperror.KindNotFound) {
			logger.Error().Err(err).Msgf("Error deleting product %d", id)
		}
		return err
	}

	s.invalidateListing(ctx)
	return nil
}

func normalizeProduct(product *entity.Product) error {
	const op = "service.ValidateProduct"

	product.Name = strings.TrimSpace(product.Name)
	product.Type = strings.TrimSpace(product.Type)
	product.Image = strings.TrimSpace(product.Image)
	product.Status = strings.ToLower(strings.TrimSpace(product.Status))

	if product.Name == "" || product.Type == "" {
		return apperror.Validation(op, "name and type are required")
	}
	if product.Price.IsNegative() {
		return apperror.Validation(op, "price cannot be negative")
	}
	switch product.Status {
	case "":
		product.Status = entity.ProductStatusActive
	case entity.ProductStatusActive, entity.ProductStatusInactive:
	default:
		return apperror.Validation(op, "status must be active or inactive")
	}

	for i := range product.Variants {
		variant := &product.Variants[i]
		variant.Name = strings.TrimSpace(variant.Name)
		if variant.Name == "" {
			return apperror.Validation(op, "variant name is required")
		}
		if variant.Price.IsNegative() {
			return apperror.Validation(op, "variant price cannot be negative")
		}
		if variant.StockQuantity < 0 {
			return apperror.Validation(op, "variant stock cannot be negative")
		}
	}
	return nil
}

func (s *CatalogService) cachedListing(ctx context.Context) ([]entity.ProductView, bool) {
	if s.rdb == nil {
		return nil, false
	}

	productCache, err := s.rdb.Get(ctx, catalogCacheKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Error().Err(err).Msg("Error getting catalog from cache")
		}
		return nil, false
	}

	var views []entity.ProductView
	if err := json.Unmarshal([]byte(productCache), &views); err != nil {
		logger.Error().Err(err).Msg("Error unmarshalling cached catalog")
		return nil, false
	}
	return views, true
}

func (s *CatalogService) storeListing(ctx context.Context, views []entity.ProductView) {
	if s.rdb == nil || s.cacheTTL <= 0 {
		return
	}

	payload, err := json.Marshal(views)
	if err != nil {
		logger.Error().Err(err).Msg("Error marshalling catalog")
		return
	}

	if err := s.rdb.Set(ctx, catalogCacheKey, payload, s.cacheTTL).Err(); err != nil {
		logger.Error().Err(err).Msg("Error setting catalog in cache")
	}
}

func (s *CatalogService) invalidateListing(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, catalogCacheKey).Err(); err != nil {
		logger.Error().Err(err).Msg("Error deleting catalog from cache")
	}
}
