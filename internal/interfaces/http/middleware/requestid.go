// Package middleware holds the gin middleware of the ledger API.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/infrastructure/logger"
)

const (
	// RequestIDHeader carries the request id in and out
	RequestIDHeader = "X-Request-ID"
	// RequestIDKey is the gin context key of the request id
	RequestIDKey = "request_id"
	// MaxRequestIDLength caps client supplied ids
	MaxRequestIDLength = 128
)

// RequestID reuses the client's X-Request-ID when it is sane and generates
// one otherwise. The id is echoed in the response and stored on both the gin
// context and the request context for the logger.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > MaxRequestIDLength {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Writer.Header().Set(RequestIDHeader, id)
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// GetRequestID returns the id stored by RequestID
func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}
