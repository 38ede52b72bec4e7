package model

import "fmt"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string         `json:"error"`
	Message       string         `json:"message"`
	Details       map[string]any `json:"details,omitempty"`
	CorrelationID string         `json:"correlationId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON       = "INVALID_JSON"
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeEmptyCart         = "EMPTY_CART"
	ErrCodeProductNotFound   = "PRODUCT_NOT_FOUND"
	ErrCodeInsufficientStock = "INSUFFICIENT_STOCK"
	ErrCodeInvalidTransition = "INVALID_TRANSITION"
	ErrCodeCustomerNotFound  = "CUSTOMER_NOT_FOUND"
	ErrCodeOrderNotFound     = "ORDER_NOT_FOUND"
	ErrCodeDesignNotFound    = "DESIGN_NOT_FOUND"
	ErrCodeUnauthorised      = "UNAUTHORIZED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// DomainError is a business rule failure that is reported to the caller
// rather than treated as an internal fault. Two domain errors match under
// errors.Is when their codes are equal, so parameterised errors can be
// compared against the sentinels below.
type DomainError struct {
	Code    string
	Message string
	Details map[string]any
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a domain error with the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
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
	ErrEmptyCart         = NewDomainError(ErrCodeEmptyCart, "Cart is empty")
	ErrProductNotFound   = NewDomainError(ErrCodeProductNotFound, "Product not found")
	ErrInsufficientStock = NewDomainError(ErrCodeInsufficientStock, "Insufficient stock")
	ErrInvalidTransition = NewDomainError(ErrCodeInvalidTransition, "Invalid order status transition")
	ErrCustomerNotFound  = NewDomainError(ErrCodeCustomerNotFound, "Customer not found")
	ErrOrderNotFound     = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrDesignNotFound    = NewDomainError(ErrCodeDesignNotFound, "Design not found")
	ErrValidation        = NewDomainError(ErrCodeValidation, "Validation failed")
	ErrForbidden         = NewDomainError(ErrCodeForbidden, "Operation not permitted")
)

// ProductNotFoundError names the product id that could not be found.
func ProductNotFoundError(productID int64) *DomainError {
	return &DomainError{
		Code:    ErrCodeProductNotFound,
		Message: fmt.Sprintf("Product ID %d does not exist", productID),
		Details: map[string]any{"product_id": productID},
	}
}

// InsufficientStockError names the product and how many units are left.
func InsufficientStockError(productID int64, name string, available int) *DomainError {
	return &DomainError{
		Code:    ErrCodeInsufficientStock,
		Message: fmt.Sprintf("Product '%s' only has %d left in stock", name, available),
		Details: map[string]any{"product_id": productID, "available": available},
	}
}

// InvalidTransitionError reports an action that is not allowed from status.
func InvalidTransitionError(status Status, action Action) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidTransition,
		Message: fmt.Sprintf("Cannot %s an order in status %s", action, status),
		Details: map[string]any{"status": status, "action": action.String()},
	}
}

// ValidationError reports an invalid request field.
func ValidationError(field, message string) *DomainError {
	return &DomainError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf("%s: %s", field, message),
		Details: map[string]any{"field": field},
	}
}
