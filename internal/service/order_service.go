package service

import (
	"context"
	"fmt"
	"time"

	"lumistore/internal/idempotency"
	"lumistore/internal/model"
	"lumistore/internal/notification"
	"lumistore/internal/repository"
	"lumistore/internal/shipping"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	// orderTxTimeout bounds the total execution time of one order transaction.
	orderTxTimeout = 10 * time.Second

	// orderAttempts bounds the retries of the whole unit of work after a
	// serialization abort. Serializable isolation aborts one of two
	// conflicting transactions under load; this is expected, not exceptional.
	orderAttempts = 3

	orderRetryBackoff = 50 * time.Millisecond

	publishTimeout = 5 * time.Second
)

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	configRepo  repository.ConfigurationRepository
	rates       *shipping.RateTable
	publisher   notification.Publisher
	logger      zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	configRepo repository.ConfigurationRepository,
	rates *shipping.RateTable,
	publisher notification.Publisher,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		configRepo:  configRepo,
		rates:       rates,
		publisher:   publisher,
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

// CreateOrder places an order for a saved configuration.
//
// Exactly-once semantics rest on two layers: a fast-path lookup of the
// idempotency key within the 24h window, and the unique index on
// orders.idempotency_key checked by the insert inside the serializable
// transaction. The second layer closes the window where two concurrent
// submissions of the same key both pass the fast path.
func (s *orderService) CreateOrder(ctx context.Context, req *model.CreateOrderRequest) (*model.CreateOrderResult, error) {
	if err := s.validateCreateRequest(req); err != nil {
		return nil, err
	}

	shippingCost, err := s.rates.Cost(req.ShippingOption)
	if err != nil {
		s.logger.Warn().Str("shipping_option", req.ShippingOption).Msg("unknown shipping option")
		return nil, err
	}

	// Fast path: a repeated submission within the window short-circuits
	// before any transaction is opened.
	existing, err := s.orderRepo.FindByIdempotencyKey(ctx, req.UserID, req.IdempotencyKey, idempotency.Window)
	if err != nil {
		return nil, fmt.Errorf("failed to check idempotency key: %w", err)
	}
	if existing != nil {
		s.logger.Info().
			Str("order_id", existing.ID.String()).
			Str("order_number", existing.OrderNumber).
			Msg("duplicate order submission short-circuited")
		return duplicateResult(existing), nil
	}

	for attempt := 1; attempt <= orderAttempts; attempt++ {
		result, err := s.placeOrder(ctx, req, shippingCost)
		if err == nil {
			return result, nil
		}

		// The insert hit the idempotency unique index: a concurrent
		// submission of the same key won the race. Surface its order.
		if repository.IsUniqueViolation(err, repository.ConstraintOrderIdempotencyKey) {
			return s.resolveDuplicate(ctx, req.UserID, req.IdempotencyKey)
		}

		if repository.IsSerializationFailure(err) ||
			repository.IsUniqueViolation(err, repository.ConstraintOrderNumber) {
			s.logger.Warn().
				Err(err).
				Int("attempt", attempt).
				Msg("order transaction aborted, retrying")
			if err := sleepCtx(ctx, time.Duration(attempt)*orderRetryBackoff); err != nil {
				return nil, err
			}
			continue
		}

		return nil, err
	}

	return nil, model.ErrOrderConflict
}

// placeOrder runs one attempt of the order creation transaction.
func (s *orderService) placeOrder(ctx context.Context, req *model.CreateOrderRequest, shippingCost decimal.Decimal) (_ *model.CreateOrderResult, err error) {
	ctx, cancel := context.WithTimeout(ctx, orderTxTimeout)
	defer cancel()

	tx, err := s.orderRepo.BeginSerializableTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	cfg, err := s.configRepo.GetByIDTx(ctx, tx, req.ConfigurationID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, model.ErrConfigurationNotFound
	}

	product, err := s.productRepo.GetBySKUTx(ctx, tx, cfg.ProductSKU)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}

	if product.Inventory < cfg.Quantity {
		s.logger.Warn().
			Str("product_sku", product.SKU).
			Int("inventory", product.Inventory).
			Int("quantity", cfg.Quantity).
			Msg("insufficient inventory")
		return nil, model.ErrInsufficientInventory
	}

	// The configuration's stored price is the authoritative merchandise
	// subtotal; order placement never re-prices.
	subtotal := cfg.TotalPrice
	total := subtotal.Add(shippingCost)

	orderNumber, err := s.generateOrderNumber(ctx, tx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	order := &model.Order{
		ID:                uuid.New(),
		OrderNumber:       orderNumber,
		UserID:            req.UserID,
		IdempotencyKey:    req.IdempotencyKey,
		Subtotal:          subtotal,
		ShippingCost:      shippingCost,
		Total:             total,
		Status:            model.StatusProcessing,
		ShippingOption:    req.ShippingOption,
		ShippingAddressID: req.ShippingAddressID,
		Notes:             model.IdempotencyMarker(req.IdempotencyKey),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		return nil, err
	}

	// Single item snapshotting the product state at this instant. Later
	// catalogue edits must not alter this order.
	item := model.OrderItem{
		ID:               uuid.New(),
		OrderID:          order.ID,
		ProductSKU:       product.SKU,
		ProductName:      product.Name,
		ProductImage:     product.ImageURL,
		UnitPrice:        product.Price,
		Quantity:         cfg.Quantity,
		ColorTemperature: cfg.ColorTemperature,
		SurfaceColor:     cfg.SurfaceColor,
	}

	if err = s.orderRepo.CreateOrderItems(ctx, tx, []model.OrderItem{item}); err != nil {
		return nil, err
	}

	if err = s.productRepo.ReserveInventory(ctx, tx, product.SKU, cfg.Quantity); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Str("product_sku", product.SKU).
		Int("quantity", cfg.Quantity).
		Msg("order created")

	s.publishEvent(notification.OrderEvent{
		Type:        notification.EventOrderCreated,
		OrderID:     order.ID.String(),
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Total:       order.Total,
		OccurredAt:  now,
	})

	return &model.CreateOrderResult{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Total:       order.Total,
		IsDuplicate: false,
	}, nil
}

// CancelOrder cancels an order owned by userID and restores its reserved
// inventory, all within one serializable transaction.
func (s *orderService) CancelOrder(ctx context.Context, orderID uuid.UUID, userID string) (*model.CancelOrderResult, error) {
	for attempt := 1; attempt <= orderAttempts; attempt++ {
		result, err := s.cancelOrder(ctx, orderID, userID)
		if err == nil {
			return result, nil
		}

		if repository.IsSerializationFailure(err) {
			s.logger.Warn().
				Err(err).
				Int("attempt", attempt).
				Msg("cancel transaction aborted, retrying")
			if err := sleepCtx(ctx, time.Duration(attempt)*orderRetryBackoff); err != nil {
				return nil, err
			}
			continue
		}

		return nil, err
	}

	return nil, model.ErrOrderConflict
}

func (s *orderService) cancelOrder(ctx context.Context, orderID uuid.UUID, userID string) (_ *model.CancelOrderResult, err error) {
	ctx, cancel := context.WithTimeout(ctx, orderTxTimeout)
	defer cancel()

	tx, err := s.orderRepo.BeginSerializableTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	order, items, err := s.orderRepo.GetByIDTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	if order.UserID != userID {
		s.logger.Warn().
			Str("order_id", orderID.String()).
			Str("user_id", userID).
			Msg("cancellation attempted by non-owning user")
		return nil, model.ErrUnauthorised
	}

	if !order.Status.Cancellable() {
		s.logger.Warn().
			Str("order_id", orderID.String()).
			Str("status", string(order.Status)).
			Msg("order not cancellable")
		return nil, model.ErrOrderNotCancellable
	}

	for _, item := range items {
		if err = s.productRepo.ReleaseInventory(ctx, tx, item.ProductSKU, item.Quantity); err != nil {
			return nil, err
		}
	}

	if err = s.orderRepo.UpdateStatus(ctx, tx, orderID, model.StatusCancelled); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}

	s.logger.Info().
		Str("order_id", orderID.String()).
		Str("order_number", order.OrderNumber).
		Msg("order cancelled")

	s.publishEvent(notification.OrderEvent{
		Type:        notification.EventOrderCancelled,
		OrderID:     order.ID.String(),
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Total:       order.Total,
		OccurredAt:  time.Now(),
	})

	return &model.CancelOrderResult{
		OrderID: orderID,
		Status:  model.StatusCancelled,
	}, nil
}

// GetByID retrieves an order with its items, scoped to the owning user.
func (s *orderService) GetByID(ctx context.Context, orderID uuid.UUID, userID string) (*model.OrderResponse, error) {
	order, items, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	if order.UserID != userID {
		return nil, model.ErrUnauthorised
	}

	return &model.OrderResponse{
		Order: *order,
		Items: items,
	}, nil
}

// validateCreateRequest validates the order placement request.
func (s *orderService) validateCreateRequest(req *model.CreateOrderRequest) error {
	if req == nil {
		return fmt.Errorf("order request is nil")
	}

	if req.UserID == "" {
		return fmt.Errorf("user ID is required")
	}

	if req.ConfigurationID == uuid.Nil {
		return fmt.Errorf("configuration ID is required")
	}

	if req.ShippingAddressID == "" {
		return fmt.Errorf("shipping address ID is required")
	}

	if !idempotency.Valid(req.IdempotencyKey) {
		s.logger.Warn().
			Str("user_id", req.UserID).
			Msg("malformed idempotency key")
		return model.ErrInvalidIdempotencyKey
	}

	return nil
}

// resolveDuplicate surfaces the order created by a concurrent submission of
// the same idempotency key.
func (s *orderService) resolveDuplicate(ctx context.Context, userID, key string) (*model.CreateOrderResult, error) {
	existing, err := s.orderRepo.FindByUserAndKey(ctx, userID, key)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve duplicate order: %w", err)
	}
	if existing == nil {
		// The winning transaction has not become visible; let the caller retry.
		return nil, model.ErrOrderConflict
	}

	s.logger.Info().
		Str("order_id", existing.ID.String()).
		Str("order_number", existing.OrderNumber).
		Msg("duplicate order submission resolved to existing order")

	return duplicateResult(existing), nil
}

// publishEvent emits a lifecycle event on a detached context so a slow
// broker cannot hold up the request.
func (s *orderService) publishEvent(event notification.OrderEvent) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		s.publisher.Publish(ctx, event)
	}()
}

func duplicateResult(order *model.Order) *model.CreateOrderResult {
	return &model.CreateOrderResult{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Total:       order.Total,
		IsDuplicate: true,
	}
}

// sleepCtx waits for d or until ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
