package dto

import (
	"net/http"

	"github.com/shopledger/backend/internal/domain/shared"
)

// HTTP-only error codes. Domain codes come from the shared package.
const (
	// ErrCodeInternal hides any error that is not a domain error
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeRequestTooLarge is returned when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	// ErrCodeRouteNotFound is returned for unknown paths
	ErrCodeRouteNotFound = "ROUTE_NOT_FOUND"
	// ErrCodeMethodNotAllowed is returned when the path exists under another method
	ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	shared.CodeUnauthorized:        http.StatusUnauthorized,
	shared.CodeNotFound:            http.StatusNotFound,
	shared.CodeValidation:          http.StatusBadRequest,
	shared.CodeInsufficientStock:   http.StatusUnprocessableEntity,
	shared.CodeConflict:            http.StatusConflict,
	shared.CodeConcurrencyConflict: http.StatusConflict,
	shared.CodeInvalidState:        http.StatusConflict,

	ErrCodeInternal:         http.StatusInternalServerError,
	ErrCodeRequestTooLarge:  http.StatusRequestEntityTooLarge,
	ErrCodeRouteNotFound:    http.StatusNotFound,
	ErrCodeMethodNotAllowed: http.StatusMethodNotAllowed,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
