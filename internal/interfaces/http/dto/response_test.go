package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/application/validation"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{shared.CodeUnauthorized, http.StatusUnauthorized},
		{shared.CodeNotFound, http.StatusNotFound},
		{shared.CodeValidation, http.StatusBadRequest},
		{shared.CodeInsufficientStock, http.StatusUnprocessableEntity},
		{shared.CodeConflict, http.StatusConflict},
		{shared.CodeConcurrencyConflict, http.StatusConflict},
		{shared.CodeInvalidState, http.StatusConflict},
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge},
		{"SOMETHING_NEW", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNewPageResponse(t *testing.T) {
	t.Run("empty page renders an empty array", func(t *testing.T) {
		body, err := json.Marshal(NewPageResponse(shared.CursorPage[string]{Limit: 20}))
		require.NoError(t, err)
		assert.JSONEq(t, `{"success":true,"data":[],"meta":{"limit":20,"hasMore":false,"nextCursor":null}}`, string(body))
	})

	t.Run("cursor is carried", func(t *testing.T) {
		next := uuid.New()
		resp := NewPageResponse(shared.CursorPage[int]{Items: []int{1, 2}, Limit: 2, HasMore: true, NextCursor: &next})
		assert.Equal(t, []int{1, 2}, resp.Data)
		require.NotNil(t, resp.Meta)
		assert.True(t, resp.Meta.HasMore)
		assert.Equal(t, &next, resp.Meta.NextCursor)
	})
}

func TestNewErrorResponse(t *testing.T) {
	body, err := json.Marshal(NewErrorResponse(shared.CodeNotFound, "order not found", "req-1"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error":{"code":"NOT_FOUND","message":"order not found","requestId":"req-1"}}`, string(body))
}

func TestValidationDetails(t *testing.T) {
	type item struct {
		Qty int64 `json:"qty" binding:"gt=0"`
	}
	type request struct {
		Currency string `json:"currency" binding:"required,len=3"`
		Items    []item `json:"items" binding:"required,min=1,dive"`
	}

	v := validator.New()
	v.SetTagName("binding")
	v.RegisterTagNameFunc(validation.FieldName)

	err := v.Struct(request{Currency: "US", Items: []item{{Qty: 0}}})
	require.Error(t, err)

	details := ValidationDetails(err)
	require.Len(t, details, 2)
	assert.Equal(t, FieldDetail{Field: "currency", Message: "currency must be 3 characters"}, details[0])
	assert.Equal(t, "items[0].qty", details[1].Field)
	assert.Equal(t, "items[0].qty must be greater than 0", details[1].Message)

	assert.Nil(t, ValidationDetails(assert.AnError))
}
