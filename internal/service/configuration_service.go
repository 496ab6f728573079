package service

import (
	"context"
	"fmt"
	"time"

	"lumistore/internal/model"
	"lumistore/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// configurationService implements ConfigurationService.
type configurationService struct {
	configRepo  repository.ConfigurationRepository
	productRepo repository.ProductRepository
	logger      zerolog.Logger
}

// NewConfigurationService creates a new configuration service.
func NewConfigurationService(
	configRepo repository.ConfigurationRepository,
	productRepo repository.ProductRepository,
	logger zerolog.Logger,
) ConfigurationService {
	return &configurationService{
		configRepo:  configRepo,
		productRepo: productRepo,
		logger:      logger.With().Str("service", "configuration").Logger(),
	}
}

// SaveConfiguration creates the immutable checkout snapshot. The total price
// is computed here, once, from the current catalogue price; the order flow
// never re-prices a configuration.
func (s *configurationService) SaveConfiguration(ctx context.Context, req *model.ConfigurationRequest) (*model.Configuration, error) {
	if req == nil {
		return nil, fmt.Errorf("configuration request is nil")
	}

	if req.ProductSKU == "" {
		return nil, fmt.Errorf("product SKU is required")
	}

	if req.Quantity <= 0 {
		s.logger.Warn().
			Str("product_sku", req.ProductSKU).
			Int("quantity", req.Quantity).
			Msg("invalid quantity")
		return nil, model.ErrInvalidQuantity
	}

	product, err := s.productRepo.GetBySKU(ctx, req.ProductSKU)
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}

	cfg := &model.Configuration{
		ID:               uuid.New(),
		ProductSKU:       product.SKU,
		Quantity:         req.Quantity,
		ColorTemperature: req.ColorTemperature,
		SurfaceColor:     req.SurfaceColor,
		TotalPrice:       product.Price.Mul(decimal.NewFromInt(int64(req.Quantity))),
		CreatedAt:        time.Now(),
	}

	if err := s.configRepo.Create(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to save configuration: %w", err)
	}

	s.logger.Info().
		Str("configuration_id", cfg.ID.String()).
		Str("product_sku", cfg.ProductSKU).
		Int("quantity", cfg.Quantity).
		Msg("configuration saved")

	return cfg, nil
}

// GetByID retrieves a configuration by its ID.
func (s *configurationService) GetByID(ctx context.Context, id uuid.UUID) (*model.Configuration, error) {
	cfg, err := s.configRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get configuration: %w", err)
	}
	if cfg == nil {
		return nil, model.ErrConfigurationNotFound
	}

	return cfg, nil
}
