package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"lumistore/internal/model"
	"lumistore/internal/notification"
	"lumistore/internal/shipping"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testIdempotencyKey = "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2"

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) BeginSerializableTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if tx, ok := args.Get(0).(pgx.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderRepository) FindByIdempotencyKey(ctx context.Context, userID, key string, window time.Duration) (*model.Order, error) {
	args := m.Called(ctx, userID, key, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByUserAndKey(ctx context.Context, userID, key string) (*model.Order, error) {
	args := m.Called(ctx, userID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) OrderNumberExists(ctx context.Context, tx pgx.Tx, number string) (bool, error) {
	args := m.Called(ctx, tx, number)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	args := m.Called(ctx, tx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	args := m.Called(ctx, tx, items)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.Order), args.Get(1).([]model.OrderItem), args.Error(2)
}

func (m *MockOrderRepository) GetByIDTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, []model.OrderItem, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.Order), args.Get(1).([]model.OrderItem), args.Error(2)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OrderStatus) error {
	args := m.Called(ctx, tx, id, status)
	return args.Error(0)
}

// MockProductRepository is a mock implementation of ProductRepository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductRepository) GetBySKU(ctx context.Context, sku string) (*model.Product, error) {
	args := m.Called(ctx, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) GetBySKUTx(ctx context.Context, tx pgx.Tx, sku string) (*model.Product, error) {
	args := m.Called(ctx, tx, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) ReserveInventory(ctx context.Context, tx pgx.Tx, sku string, quantity int) error {
	args := m.Called(ctx, tx, sku, quantity)
	return args.Error(0)
}

func (m *MockProductRepository) ReleaseInventory(ctx context.Context, tx pgx.Tx, sku string, quantity int) error {
	args := m.Called(ctx, tx, sku, quantity)
	return args.Error(0)
}

// MockConfigurationRepository is a mock implementation of ConfigurationRepository.
type MockConfigurationRepository struct {
	mock.Mock
}

func (m *MockConfigurationRepository) Create(ctx context.Context, cfg *model.Configuration) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

func (m *MockConfigurationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Configuration, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Configuration), args.Error(1)
}

func (m *MockConfigurationRepository) GetByIDTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Configuration, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Configuration), args.Error(1)
}

// MockTx is a minimal mock implementation of pgx.Tx for testing.
type MockTx struct {
	mock.Mock
}

func (m *MockTx) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTx) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Stub methods to satisfy pgx.Tx interface - these are not used in our tests
func (m *MockTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (m *MockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (m *MockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (m *MockTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (m *MockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (m *MockTx) Exec(ctx context.Context, sql string, arguments ...any) (commandTag pgconn.CommandTag, err error) {
	return
}
func (m *MockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (m *MockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (m *MockTx) Conn() *pgx.Conn                                               { return nil }

// capturePublisher records published events for assertion.
type capturePublisher struct {
	mu     sync.Mutex
	events []notification.OrderEvent
	ch     chan notification.OrderEvent
}

func newCapturePublisher() *capturePublisher {
	return &capturePublisher{ch: make(chan notification.OrderEvent, 8)}
}

func (p *capturePublisher) Publish(ctx context.Context, event notification.OrderEvent) {
	p.mu.Lock()
	p.events = append(p.events, event)
	p.mu.Unlock()
	p.ch <- event
}

func (p *capturePublisher) Close() error { return nil }

func (p *capturePublisher) wait(t *testing.T) notification.OrderEvent {
	t.Helper()
	select {
	case event := <-p.ch:
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for published event")
		return notification.OrderEvent{}
	}
}

type orderFixture struct {
	orderRepo   *MockOrderRepository
	productRepo *MockProductRepository
	configRepo  *MockConfigurationRepository
	publisher   *capturePublisher
	tx          *MockTx
	service     OrderService
}

func newOrderFixture() *orderFixture {
	f := &orderFixture{
		orderRepo:   new(MockOrderRepository),
		productRepo: new(MockProductRepository),
		configRepo:  new(MockConfigurationRepository),
		publisher:   newCapturePublisher(),
		tx:          new(MockTx),
	}
	f.service = NewOrderService(
		f.orderRepo,
		f.productRepo,
		f.configRepo,
		shipping.DefaultRates(),
		f.publisher,
		zerolog.Nop(),
	)
	return f
}

func validCreateRequest(configID uuid.UUID) *model.CreateOrderRequest {
	return &model.CreateOrderRequest{
		UserID:            "U1",
		ConfigurationID:   configID,
		ShippingAddressID: "A1",
		ShippingOption:    shipping.OptionStandard,
		IdempotencyKey:    testIdempotencyKey,
	}
}

func testConfiguration(configID uuid.UUID) *model.Configuration {
	return &model.Configuration{
		ID:         configID,
		ProductSKU: "LMP-1001",
		Quantity:   2,
		TotalPrice: decimal.NewFromInt(200),
		CreatedAt:  time.Now(),
	}
}

func testProduct() *model.Product {
	return &model.Product{
		ID:        uuid.New(),
		SKU:       "LMP-1001",
		Name:      "Nordic Pendant Lamp",
		ImageURL:  "/images/lmp-1001.jpg",
		Price:     decimal.NewFromInt(100),
		Inventory: 5,
	}
}

func TestOrderService_CreateOrder_Success(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	configID := uuid.New()
	req := validCreateRequest(configID)

	f.orderRepo.On("FindByIdempotencyKey", mock.Anything, "U1", testIdempotencyKey, mock.Anything).Return(nil, nil)
	f.orderRepo.On("BeginSerializableTx", mock.Anything).Return(f.tx, nil)
	f.configRepo.On("GetByIDTx", mock.Anything, f.tx, configID).Return(testConfiguration(configID), nil)
	f.productRepo.On("GetBySKUTx", mock.Anything, f.tx, "LMP-1001").Return(testProduct(), nil)
	f.orderRepo.On("OrderNumberExists", mock.Anything, f.tx, mock.AnythingOfType("string")).Return(false, nil)

	var createdOrder *model.Order
	f.orderRepo.On("CreateOrder", mock.Anything, f.tx, mock.AnythingOfType("*model.Order")).
		Run(func(args mock.Arguments) {
			createdOrder = args.Get(2).(*model.Order)
		}).Return(nil)
	f.orderRepo.On("CreateOrderItems", mock.Anything, f.tx, mock.AnythingOfType("[]model.OrderItem")).Return(nil)
	f.productRepo.On("ReserveInventory", mock.Anything, f.tx, "LMP-1001", 2).Return(nil)
	f.tx.On("Commit", mock.Anything).Return(nil)

	result, err := f.service.CreateOrder(ctx, req)

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.NotEqual(t, uuid.Nil, result.OrderID)
	assert.True(t, strings.HasPrefix(result.OrderNumber, "LUM-"))
	assert.False(t, result.IsDuplicate)
	// 200 merchandise + 100 flat standard shipping
	assert.True(t, result.Total.Equal(decimal.NewFromInt(300)), "total = %s", result.Total)

	// The persisted order must snapshot the key and the marker.
	require.NotNil(t, createdOrder)
	assert.Equal(t, testIdempotencyKey, createdOrder.IdempotencyKey)
	assert.Equal(t, model.IdempotencyMarker(testIdempotencyKey), createdOrder.Notes)
	assert.Equal(t, model.StatusProcessing, createdOrder.Status)

	event := f.publisher.wait(t)
	assert.Equal(t, notification.EventOrderCreated, event.Type)
	assert.Equal(t, result.OrderID.String(), event.OrderID)

	f.orderRepo.AssertExpectations(t)
	f.productRepo.AssertExpectations(t)
	f.configRepo.AssertExpectations(t)
	f.tx.AssertExpectations(t)
}

func TestOrderService_CreateOrder_SnapshotsProductState(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	configID := uuid.New()
	colorTemp := "3000K"
	cfg := testConfiguration(configID)
	cfg.ColorTemperature = &colorTemp

	f.orderRepo.On("FindByIdempotencyKey", mock.Anything, "U1", testIdempotencyKey, mock.Anything).Return(nil, nil)
	f.orderRepo.On("BeginSerializableTx", mock.Anything).Return(f.tx, nil)
	f.configRepo.On("GetByIDTx", mock.Anything, f.tx, configID).Return(cfg, nil)
	f.productRepo.On("GetBySKUTx", mock.Anything, f.tx, "LMP-1001").Return(testProduct(), nil)
	f.orderRepo.On("OrderNumberExists", mock.Anything, f.tx, mock.AnythingOfType("string")).Return(false, nil)
	f.orderRepo.On("CreateOrder", mock.Anything, f.tx, mock.AnythingOfType("*model.Order")).Return(nil)

	var snapshot []model.OrderItem
	f.orderRepo.On("CreateOrderItems", mock.Anything, f.tx, mock.AnythingOfType("[]model.OrderItem")).
		Run(func(args mock.Arguments) {
			snapshot = args.Get(2).([]model.OrderItem)
		}).Return(nil)
	f.productRepo.On("ReserveInventory", mock.Anything, f.tx, "LMP-1001", 2).Return(nil)
	f.tx.On("Commit", mock.Anything).Return(nil)

	_, err := f.service.CreateOrder(ctx, validCreateRequest(configID))

	require.NoError(t, err)
	require.Len(t, snapshot, 1)
	assert.Equal(t, "LMP-1001", snapshot[0].ProductSKU)
	assert.Equal(t, "Nordic Pendant Lamp", snapshot[0].ProductName)
	assert.Equal(t, "/images/lmp-1001.jpg", snapshot[0].ProductImage)
	assert.True(t, snapshot[0].UnitPrice.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, 2, snapshot[0].Quantity)
	require.NotNil(t, snapshot[0].ColorTemperature)
	assert.Equal(t, "3000K", *snapshot[0].ColorTemperature)
}

func TestOrderService_CreateOrder_DuplicateFastPath(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	configID := uuid.New()
	existing := &model.Order{
		ID:          uuid.New(),
		OrderNumber: "LUM-EXISTING-1",
		UserID:      "U1",
		Total:       decimal.NewFromInt(300),
	}

	f.orderRepo.On("FindByIdempotencyKey", mock.Anything, "U1", testIdempotencyKey, mock.Anything).Return(existing, nil)

	result, err := f.service.CreateOrder(ctx, validCreateRequest(configID))

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsDuplicate)
	assert.Equal(t, existing.ID, result.OrderID)
	assert.Equal(t, existing.OrderNumber, result.OrderNumber)

	// Nothing else may run: no transaction, no inventory, no generation.
	f.orderRepo.AssertNotCalled(t, "BeginSerializableTx")
	f.productRepo.AssertNotCalled(t, "ReserveInventory")
	f.orderRepo.AssertNotCalled(t, "OrderNumberExists")
}

func TestOrderService_CreateOrder_DuplicateRace(t *testing.T) {
	// A concurrent submission of the same key wins the insert; the unique
	// violation must resolve to the winner's order rather than an error.
	ctx := context.Background()
	f := newOrderFixture()

	configID := uuid.New()
	winner := &model.Order{
		ID:          uuid.New(),
		OrderNumber: "LUM-WINNER-1",
		UserID:      "U1",
		Total:       decimal.NewFromInt(300),
	}

	uniqueViolation := &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "orders_idempotency_key_key",
	}

	f.orderRepo.On("FindByIdempotencyKey", mock.Anything, "U1", testIdempotencyKey, mock.Anything).Return(nil, nil)
	f.orderRepo.On("BeginSerializableTx", mock.Anything).Return(f.tx, nil)
	f.configRepo.On("GetByIDTx", mock.Anything, f.tx, configID).Return(testConfiguration(configID), nil)
	f.productRepo.On("GetBySKUTx", mock.Anything, f.tx, "LMP-1001").Return(testProduct(), nil)
	f.orderRepo.On("OrderNumberExists", mock.Anything, f.tx, mock.AnythingOfType("string")).Return(false, nil)
	f.orderRepo.On("CreateOrder", mock.Anything, f.tx, mock.AnythingOfType("*model.Order")).Return(uniqueViolation)
	f.tx.On("Rollback", mock.Anything).Return(nil)
	f.orderRepo.On("FindByUserAndKey", mock.Anything, "U1", testIdempotencyKey).Return(winner, nil)

	result, err := f.service.CreateOrder(ctx, validCreateRequest(configID))

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsDuplicate)
	assert.Equal(t, winner.ID, result.OrderID)

	f.tx.AssertCalled(t, "Rollback", mock.Anything)
}

func TestOrderService_CreateOrder_ConfigurationNotFound(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	configID := uuid.New()

	f.orderRepo.On("FindByIdempotencyKey", mock.Anything, "U1", testIdempotencyKey, mock.Anything).Return(nil, nil)
	f.orderRepo.On("BeginSerializableTx", mock.Anything).Return(f.tx, nil)
	f.configRepo.On("GetByIDTx", mock.Anything, f.tx, configID).Return(nil, nil)
	f.tx.On("Rollback", mock.Anything).Return(nil)

	result, err := f.service.CreateOrder(ctx, validCreateRequest(configID))

	require.Error(t, err)
	assert.Equal(t, model.ErrConfigurationNotFound, err)
	assert.Nil(t, result)

	f.tx.AssertCalled(t, "Rollback", mock.Anything)
	f.tx.AssertNotCalled(t, "Commit")
}

func TestOrderService_CreateOrder_ProductNotFound(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	configID := uuid.New()

	f.orderRepo.On("FindByIdempotencyKey", mock.Anything, "U1", testIdempotencyKey, mock.Anything).Return(nil, nil)
	f.orderRepo.On("BeginSerializableTx", mock.Anything).Return(f.tx, nil)
	f.configRepo.On("GetByIDTx", mock.Anything, f.tx, configID).Return(testConfiguration(configID), nil)
	f.productRepo.On("GetBySKUTx", mock.Anything, f.tx, "LMP-1001").Return(nil, nil)
	f.tx.On("Rollback", mock.Anything).Return(nil)

	_, err := f.service.CreateOrder(ctx, validCreateRequest(configID))

	require.Error(t, err)
	assert.Equal(t, model.ErrProductNotFound, err)
}

func TestOrderService_CreateOrder_InsufficientInventory(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	configID := uuid.New()
	product := testProduct()
	product.Inventory = 1 // configuration wants 2

	f.orderRepo.On("FindByIdempotencyKey", mock.Anything, "U1", testIdempotencyKey, mock.Anything).Return(nil, nil)
	f.orderRepo.On("BeginSerializableTx", mock.Anything).Return(f.tx, nil)
	f.configRepo.On("GetByIDTx", mock.Anything, f.tx, configID).Return(testConfiguration(configID), nil)
	f.productRepo.On("GetBySKUTx", mock.Anything, f.tx, "LMP-1001").Return(product, nil)
	f.tx.On("Rollback", mock.Anything).Return(nil)

	_, err := f.service.CreateOrder(ctx, validCreateRequest(configID))

	require.Error(t, err)
	assert.Equal(t, model.ErrInsufficientInventory, err)

	// No order rows, no inventory mutation.
	f.orderRepo.AssertNotCalled(t, "CreateOrder")
	f.orderRepo.AssertNotCalled(t, "CreateOrderItems")
	f.productRepo.AssertNotCalled(t, "ReserveInventory")
	f.tx.AssertNotCalled(t, "Commit")
}

func TestOrderService_CreateOrder_OrderNumberExhausted(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	configID := uuid.New()

	f.orderRepo.On("FindByIdempotencyKey", mock.Anything, "U1", testIdempotencyKey, mock.Anything).Return(nil, nil)
	f.orderRepo.On("BeginSerializableTx", mock.Anything).Return(f.tx, nil)
	f.configRepo.On("GetByIDTx", mock.Anything, f.tx, configID).Return(testConfiguration(configID), nil)
	f.productRepo.On("GetBySKUTx", mock.Anything, f.tx, "LMP-1001").Return(testProduct(), nil)
	// Every candidate collides.
	f.orderRepo.On("OrderNumberExists", mock.Anything, f.tx, mock.AnythingOfType("string")).Return(true, nil)
	f.tx.On("Rollback", mock.Anything).Return(nil)

	_, err := f.service.CreateOrder(ctx, validCreateRequest(configID))

	require.Error(t, err)
	assert.Equal(t, model.ErrOrderNumberExhausted, err)
	f.orderRepo.AssertNumberOfCalls(t, "OrderNumberExists", 3)
	f.orderRepo.AssertNotCalled(t, "CreateOrder")
}

func TestOrderService_CreateOrder_RetriesSerializationFailure(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	configID := uuid.New()
	serializationFailure := &pgconn.PgError{Code: "40001"}

	f.orderRepo.On("FindByIdempotencyKey", mock.Anything, "U1", testIdempotencyKey, mock.Anything).Return(nil, nil)
	f.orderRepo.On("BeginSerializableTx", mock.Anything).Return(f.tx, nil)
	f.configRepo.On("GetByIDTx", mock.Anything, f.tx, configID).Return(testConfiguration(configID), nil)
	f.productRepo.On("GetBySKUTx", mock.Anything, f.tx, "LMP-1001").Return(testProduct(), nil)
	f.orderRepo.On("OrderNumberExists", mock.Anything, f.tx, mock.AnythingOfType("string")).Return(false, nil)
	f.orderRepo.On("CreateOrder", mock.Anything, f.tx, mock.AnythingOfType("*model.Order")).Return(serializationFailure).Once()
	f.orderRepo.On("CreateOrder", mock.Anything, f.tx, mock.AnythingOfType("*model.Order")).Return(nil)
	f.orderRepo.On("CreateOrderItems", mock.Anything, f.tx, mock.AnythingOfType("[]model.OrderItem")).Return(nil)
	f.productRepo.On("ReserveInventory", mock.Anything, f.tx, "LMP-1001", 2).Return(nil)
	f.tx.On("Rollback", mock.Anything).Return(nil)
	f.tx.On("Commit", mock.Anything).Return(nil)

	result, err := f.service.CreateOrder(ctx, validCreateRequest(configID))

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.IsDuplicate)
	f.orderRepo.AssertNumberOfCalls(t, "CreateOrder", 2)
}

func TestOrderService_CreateOrder_ConflictAfterExhaustedRetries(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	configID := uuid.New()
	serializationFailure := &pgconn.PgError{Code: "40001"}

	f.orderRepo.On("FindByIdempotencyKey", mock.Anything, "U1", testIdempotencyKey, mock.Anything).Return(nil, nil)
	f.orderRepo.On("BeginSerializableTx", mock.Anything).Return(nil, serializationFailure)

	_, err := f.service.CreateOrder(ctx, validCreateRequest(configID))

	require.Error(t, err)
	assert.Equal(t, model.ErrOrderConflict, err)
	f.orderRepo.AssertNumberOfCalls(t, "BeginSerializableTx", 3)
}

func TestOrderService_CreateOrder_InvalidIdempotencyKey(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	req := validCreateRequest(uuid.New())
	req.IdempotencyKey = "not-a-hex-key"

	_, err := f.service.CreateOrder(ctx, req)

	require.Error(t, err)
	assert.Equal(t, model.ErrInvalidIdempotencyKey, err)
	f.orderRepo.AssertNotCalled(t, "FindByIdempotencyKey")
}

func TestOrderService_CreateOrder_InvalidShippingOption(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	req := validCreateRequest(uuid.New())
	req.ShippingOption = "drone"

	_, err := f.service.CreateOrder(ctx, req)

	require.Error(t, err)
	assert.Equal(t, model.ErrInvalidShippingOption, err)
	f.orderRepo.AssertNotCalled(t, "BeginSerializableTx")
}

func TestOrderService_CancelOrder_Success(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	orderID := uuid.New()
	order := &model.Order{
		ID:          orderID,
		OrderNumber: "LUM-CANCEL-1",
		UserID:      "U1",
		Status:      model.StatusProcessing,
		Total:       decimal.NewFromInt(300),
	}
	items := []model.OrderItem{
		{ID: uuid.New(), OrderID: orderID, ProductSKU: "LMP-1001", Quantity: 2},
	}

	f.orderRepo.On("BeginSerializableTx", mock.Anything).Return(f.tx, nil)
	f.orderRepo.On("GetByIDTx", mock.Anything, f.tx, orderID).Return(order, items, nil)
	f.productRepo.On("ReleaseInventory", mock.Anything, f.tx, "LMP-1001", 2).Return(nil)
	f.orderRepo.On("UpdateStatus", mock.Anything, f.tx, orderID, model.StatusCancelled).Return(nil)
	f.tx.On("Commit", mock.Anything).Return(nil)

	result, err := f.service.CancelOrder(ctx, orderID, "U1")

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, model.StatusCancelled, result.Status)

	event := f.publisher.wait(t)
	assert.Equal(t, notification.EventOrderCancelled, event.Type)

	f.orderRepo.AssertExpectations(t)
	f.productRepo.AssertExpectations(t)
	f.tx.AssertExpectations(t)
}

func TestOrderService_CancelOrder_NotOwner(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	orderID := uuid.New()
	order := &model.Order{ID: orderID, UserID: "U1", Status: model.StatusProcessing}

	f.orderRepo.On("BeginSerializableTx", mock.Anything).Return(f.tx, nil)
	f.orderRepo.On("GetByIDTx", mock.Anything, f.tx, orderID).Return(order, []model.OrderItem{}, nil)
	f.tx.On("Rollback", mock.Anything).Return(nil)

	_, err := f.service.CancelOrder(ctx, orderID, "U2")

	require.Error(t, err)
	assert.Equal(t, model.ErrUnauthorised, err)
	f.productRepo.AssertNotCalled(t, "ReleaseInventory")
	f.orderRepo.AssertNotCalled(t, "UpdateStatus")
}

func TestOrderService_CancelOrder_NotCancellable(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	orderID := uuid.New()
	order := &model.Order{ID: orderID, UserID: "U1", Status: model.StatusShipped}

	f.orderRepo.On("BeginSerializableTx", mock.Anything).Return(f.tx, nil)
	f.orderRepo.On("GetByIDTx", mock.Anything, f.tx, orderID).Return(order, []model.OrderItem{}, nil)
	f.tx.On("Rollback", mock.Anything).Return(nil)

	_, err := f.service.CancelOrder(ctx, orderID, "U1")

	require.Error(t, err)
	assert.Equal(t, model.ErrOrderNotCancellable, err)
	f.productRepo.AssertNotCalled(t, "ReleaseInventory")
	f.tx.AssertNotCalled(t, "Commit")
}

func TestOrderService_CancelOrder_NotFound(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	orderID := uuid.New()

	f.orderRepo.On("BeginSerializableTx", mock.Anything).Return(f.tx, nil)
	f.orderRepo.On("GetByIDTx", mock.Anything, f.tx, orderID).Return(nil, nil, nil)
	f.tx.On("Rollback", mock.Anything).Return(nil)

	_, err := f.service.CancelOrder(ctx, orderID, "U1")

	require.Error(t, err)
	assert.Equal(t, model.ErrOrderNotFound, err)
}

func TestOrderService_GetByID_ScopedToOwner(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	orderID := uuid.New()
	order := &model.Order{ID: orderID, UserID: "U1", Status: model.StatusProcessing}

	f.orderRepo.On("GetByID", mock.Anything, orderID).Return(order, []model.OrderItem{}, nil)

	_, err := f.service.GetByID(ctx, orderID, "U2")

	require.Error(t, err)
	assert.Equal(t, model.ErrUnauthorised, err)

	resp, err := f.service.GetByID(ctx, orderID, "U1")
	require.NoError(t, err)
	assert.Equal(t, orderID, resp.Order.ID)
}

func TestOrderService_CreateOrder_UnexpectedErrorNotRetried(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	configID := uuid.New()
	boom := errors.New("connection reset")

	f.orderRepo.On("FindByIdempotencyKey", mock.Anything, "U1", testIdempotencyKey, mock.Anything).Return(nil, nil)
	f.orderRepo.On("BeginSerializableTx", mock.Anything).Return(f.tx, nil)
	f.configRepo.On("GetByIDTx", mock.Anything, f.tx, configID).Return(nil, boom)
	f.tx.On("Rollback", mock.Anything).Return(nil)

	_, err := f.service.CreateOrder(ctx, validCreateRequest(configID))

	require.Error(t, err)
	assert.Equal(t, boom, err)
	f.orderRepo.AssertNumberOfCalls(t, "BeginSerializableTx", 1)
}
