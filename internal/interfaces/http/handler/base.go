// Package handler adapts gin requests to the ledger application services.
// Handlers resolve the owner and bind input, then render the service result
// in the shared response envelope.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/infrastructure/logger"
	"github.com/shopledger/backend/internal/interfaces/http/dto"
	"github.com/shopledger/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a 200 response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error envelope with the status derived from code
func (h *BaseHandler) Error(c *gin.Context, code, message string) {
	c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponse(code, message, middleware.GetRequestID(c)))
}

// HandleError renders err. Domain errors keep their code and message;
// anything else is logged and answered with a generic 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	if de, ok := shared.AsDomainError(err); ok {
		h.Error(c, de.Code, de.Message)
		return
	}

	_ = c.Error(err)
	logger.FromContext(c.Request.Context()).Error("request failed", zap.Error(err))
	h.Error(c, dto.ErrCodeInternal, "an unexpected error occurred")
}

// ownerID returns the authenticated owner or answers 401
func (h *BaseHandler) ownerID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.GetOwnerID(c)
	if !ok {
		h.Error(c, shared.CodeUnauthorized, "authentication required")
	}
	return id, ok
}

// pathID parses a uuid path parameter or answers 400
func (h *BaseHandler) pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.Error(c, shared.CodeValidation, name+" must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON decodes and validates the request body
func (h *BaseHandler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.bindError(c, err, "invalid request body")
		return false
	}
	return true
}

// bindQuery decodes and validates the query string
func (h *BaseHandler) bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		h.bindError(c, err, "invalid query parameters")
		return false
	}
	return true
}

func (h *BaseHandler) bindError(c *gin.Context, err error, fallback string) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.Error(c, dto.ErrCodeRequestTooLarge, "request body exceeds the maximum allowed size")
		return
	}
	if details := dto.ValidationDetails(err); len(details) > 0 {
		c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
			details[0].Message,
			middleware.GetRequestID(c),
			details,
		))
		return
	}
	h.Error(c, shared.CodeValidation, fallback)
}

// page sends a listing page in the cursor envelope
func page[T any](c *gin.Context, p shared.CursorPage[T]) {
	c.JSON(http.StatusOK, dto.NewPageResponse(p))
}
