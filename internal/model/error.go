package model

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON            = "INVALID_JSON"
	ErrCodeMissingField           = "MISSING_FIELD"
	ErrCodeConfigurationNotFound  = "CONFIGURATION_NOT_FOUND"
	ErrCodeProductNotFound        = "PRODUCT_NOT_FOUND"
	ErrCodeInsufficientInventory  = "INSUFFICIENT_INVENTORY"
	ErrCodeOrderNumberExhausted   = "ORDER_NUMBER_EXHAUSTED"
	ErrCodeOrderNotFound          = "ORDER_NOT_FOUND"
	ErrCodeOrderNotCancellable    = "ORDER_NOT_CANCELLABLE"
	ErrCodeUnauthorised           = "UNAUTHORIZED"
	ErrCodeInvalidIdempotencyKey  = "INVALID_IDEMPOTENCY_KEY"
	ErrCodeInvalidShippingOption  = "INVALID_SHIPPING_OPTION"
	ErrCodeInvalidQuantity        = "INVALID_QUANTITY"
	ErrCodeOrderConflict          = "ORDER_CONFLICT"
	ErrCodeInternalError          = "INTERNAL_ERROR"
)

// DomainError is a business-rule failure with a stable code.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrConfigurationNotFound = NewDomainError(ErrCodeConfigurationNotFound, "Checkout configuration not found")
	ErrProductNotFound       = NewDomainError(ErrCodeProductNotFound, "Product not found")
	ErrInsufficientInventory = NewDomainError(ErrCodeInsufficientInventory, "Product is out of stock for the requested quantity")
	ErrOrderNumberExhausted  = NewDomainError(ErrCodeOrderNumberExhausted, "Could not allocate a unique order number")
	ErrOrderNotFound         = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrOrderNotCancellable   = NewDomainError(ErrCodeOrderNotCancellable, "Order can no longer be cancelled")
	ErrUnauthorised          = NewDomainError(ErrCodeUnauthorised, "Order does not belong to the requesting user")
	ErrInvalidIdempotencyKey = NewDomainError(ErrCodeInvalidIdempotencyKey, "Idempotency key must be 64 lowercase hex characters")
	ErrInvalidShippingOption = NewDomainError(ErrCodeInvalidShippingOption, "Unknown shipping option")
	ErrInvalidQuantity       = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	ErrOrderConflict         = NewDomainError(ErrCodeOrderConflict, "Order could not be placed due to concurrent activity, retry the request")
)
