package dto

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/application/validation"
	"github.com/shopledger/backend/internal/domain/shared"
)

// Response is the envelope of every API response
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
	Meta    *Meta      `json:"meta,omitempty"`
}

// ErrorInfo is the error half of the envelope
type ErrorInfo struct {
	Code      string        `json:"code"`
	Message   string        `json:"message"`
	RequestID string        `json:"requestId,omitempty"`
	Details   []FieldDetail `json:"details,omitempty"`
}

// FieldDetail names one rejected request field
type FieldDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Meta carries keyset pagination state
type Meta struct {
	Limit      int        `json:"limit"`
	HasMore    bool       `json:"hasMore"`
	NextCursor *uuid.UUID `json:"nextCursor"`
}

// NewSuccessResponse wraps data in a success envelope
func NewSuccessResponse(data any) Response {
	return Response{Success: true, Data: data}
}

// NewPageResponse wraps one listing page. Items is never null in the output.
func NewPageResponse[T any](page shared.CursorPage[T]) Response {
	items := page.Items
	if items == nil {
		items = []T{}
	}
	return Response{
		Success: true,
		Data:    items,
		Meta: &Meta{
			Limit:      page.Limit,
			HasMore:    page.HasMore,
			NextCursor: page.NextCursor,
		},
	}
}

// NewErrorResponse builds an error envelope
func NewErrorResponse(code, message, requestID string) Response {
	return Response{
		Success: false,
		Error: &ErrorInfo{
			Code:      code,
			Message:   message,
			RequestID: requestID,
		},
	}
}

// NewValidationErrorResponse builds a VALIDATION_ERROR envelope with field details
func NewValidationErrorResponse(message, requestID string, details []FieldDetail) Response {
	resp := NewErrorResponse(shared.CodeValidation, message, requestID)
	resp.Error.Details = details
	return resp
}

// ValidationDetails extracts per-field messages from a binding error.
// It returns nil when err carries no field errors.
func ValidationDetails(err error) []FieldDetail {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	details := make([]FieldDetail, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, FieldDetail{
			Field:   fieldPath(fe),
			Message: validation.Message(fe),
		})
	}
	return details
}

// fieldPath drops the struct name from the validator namespace
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	for i := 0; i < len(ns); i++ {
		if ns[i] == '.' {
			return ns[i+1:]
		}
	}
	return ns
}
