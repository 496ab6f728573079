package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lumistore/internal/cache"
	"lumistore/internal/model"
	"lumistore/internal/repository"

	"github.com/rs/zerolog"
)

const productCacheTTL = 5 * time.Minute

// productService implements ProductService with cache-aside reads.
type productService struct {
	repo   repository.ProductRepository
	cache  cache.Cache
	logger zerolog.Logger
}

// NewProductService creates a new product service. cache may be nil, in
// which case every read goes to the database.
func NewProductService(repo repository.ProductRepository, c cache.Cache, logger zerolog.Logger) ProductService {
	return &productService{
		repo:   repo,
		cache:  c,
		logger: logger.With().Str("service", "product").Logger(),
	}
}

// GetAll retrieves all products with pagination.
func (s *productService) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	cacheKey := fmt.Sprintf("products:%d:%d", limit, offset)
	if cached, ok := s.cacheGet(ctx, cacheKey); ok {
		var products []model.Product
		if err := json.Unmarshal(cached, &products); err == nil {
			return products, nil
		}
	}

	products, err := s.repo.GetAll(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	s.cacheSet(ctx, cacheKey, products)

	return products, nil
}

// GetBySKU retrieves a single product by its business SKU. Returns
// ErrProductNotFound when the SKU is unknown.
func (s *productService) GetBySKU(ctx context.Context, sku string) (*model.Product, error) {
	if sku == "" {
		return nil, fmt.Errorf("product SKU is required")
	}

	cacheKey := "product:" + sku
	if cached, ok := s.cacheGet(ctx, cacheKey); ok {
		var product model.Product
		if err := json.Unmarshal(cached, &product); err == nil {
			return &product, nil
		}
	}

	product, err := s.repo.GetBySKU(ctx, sku)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}

	s.cacheSet(ctx, cacheKey, product)

	return product, nil
}

// cacheGet returns a cached value. Any cache error degrades to a miss.
func (s *productService) cacheGet(ctx context.Context, key string) ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}

	value, err := s.cache.Get(ctx, key)
	if err != nil {
		if err != cache.ErrCacheMiss {
			s.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
		}
		return nil, false
	}
	return value, true
}

// cacheSet stores a value best-effort.
func (s *productService) cacheSet(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		return
	}

	if err := s.cache.Set(ctx, key, data, productCacheTTL); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}
