package model

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatus_Cancellable(t *testing.T) {
	tests := []struct {
		status OrderStatus
		want   bool
	}{
		{StatusProcessing, true},
		{StatusShipped, false},
		{StatusDelivered, false},
		{StatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.Cancellable())
		})
	}
}

func TestIdempotencyMarker(t *testing.T) {
	key := "a1b2c3"
	assert.Equal(t, "idempotency:a1b2c3", IdempotencyMarker(key))
}

func TestOrder_JSONHidesIdempotencyKey(t *testing.T) {
	order := Order{
		ID:             uuid.New(),
		OrderNumber:    "LUM-TEST-0001",
		UserID:         "U1",
		IdempotencyKey: "secret-key-material",
		Total:          decimal.NewFromInt(300),
		Status:         StatusProcessing,
	}

	data, err := json.Marshal(order)
	require.NoError(t, err)

	assert.NotContains(t, string(data), "secret-key-material")
	assert.Contains(t, string(data), "LUM-TEST-0001")
}

func TestDomainError(t *testing.T) {
	err := NewDomainError(ErrCodeInsufficientInventory, "not enough stock")

	assert.Equal(t, ErrCodeInsufficientInventory, err.Code)
	assert.Contains(t, err.Error(), "not enough stock")
}
