package shared

import "errors"

// Stable machine-readable error codes returned to callers
const (
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeNotFound            = "NOT_FOUND"
	CodeValidation          = "VALIDATION_ERROR"
	CodeInsufficientStock   = "INSUFFICIENT_STOCK"
	CodeConflict            = "CONFLICT"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	CodeInvalidState        = "INVALID_STATE"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target carries the same code, so that errors built with
// a custom message still match the package sentinels via errors.Is.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
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
	ErrUnauthorized        = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrValidation          = NewDomainError(CodeValidation, "Invalid input provided")
	ErrInsufficientStock   = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
	ErrConflict            = NewDomainError(CodeConflict, "Resource already exists")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrInvalidState        = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
)

// NewValidationError returns a VALIDATION_ERROR with a specific message
func NewValidationError(message string) *DomainError {
	return NewDomainError(CodeValidation, message)
}

// NewNotFoundError returns a NOT_FOUND error naming the missing resource
func NewNotFoundError(resource string) *DomainError {
	return NewDomainError(CodeNotFound, resource+" not found")
}

// NewInvalidStateError returns an INVALID_STATE error with a specific message
func NewInvalidStateError(message string) *DomainError {
	return NewDomainError(CodeInvalidState, message)
}

// NewConflictError returns a CONFLICT error with a specific message
func NewConflictError(message string) *DomainError {
	return NewDomainError(CodeConflict, message)
}

// AsDomainError unwraps err to a *DomainError if it carries one
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
