package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/infrastructure/auth"
	"github.com/shopledger/backend/internal/infrastructure/logger"
	"github.com/shopledger/backend/internal/interfaces/http/dto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Auth context keys
const (
	OwnerIDKey    = "owner_id"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// TokenValidator checks a bearer token and returns its claims
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// OwnerAuth resolves the acting owner from the bearer token. Every failure
// answers 401 UNAUTHORIZED without reaching the handler.
func OwnerAuth(validator TokenValidator, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader(AuthHeaderKey))
		if err != nil {
			rejectUnauthorized(c, log, err)
			return
		}
		claims, err := validator.Validate(token)
		if err != nil {
			rejectUnauthorized(c, log, err)
			return
		}
		ownerID, err := claims.OwnerID()
		if err != nil {
			rejectUnauthorized(c, log, err)
			return
		}

		c.Set(OwnerIDKey, ownerID)
		ctx := logger.WithOwnerID(c.Request.Context(), ownerID.String())
		c.Request = c.Request.WithContext(ctx)

		if span := trace.SpanFromContext(ctx); span.IsRecording() {
			span.SetAttributes(attribute.String("owner_id", ownerID.String()))
		}
		c.Next()
	}
}

var errMissingBearer = errors.New("missing bearer token")

func bearerToken(header string) (string, error) {
	if !strings.HasPrefix(header, BearerPrefix) {
		return "", errMissingBearer
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
	if token == "" {
		return "", errMissingBearer
	}
	return token, nil
}

func rejectUnauthorized(c *gin.Context, log *zap.Logger, err error) {
	logger.L(c.Request.Context(), log).Debug("authentication failed",
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(
		shared.CodeUnauthorized,
		"authentication required",
		GetRequestID(c),
	))
}

// GetOwnerID returns the owner resolved by OwnerAuth
func GetOwnerID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(OwnerIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}
