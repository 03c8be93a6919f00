package router_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/app"
	"github.com/shopledger/backend/internal/infrastructure/auth"
	"github.com/shopledger/backend/internal/infrastructure/config"
	"github.com/shopledger/backend/internal/interfaces/http/handler"
	"github.com/shopledger/backend/internal/interfaces/http/middleware"
	"github.com/shopledger/backend/internal/interfaces/http/router"
	"github.com/shopledger/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type engineFixture struct {
	handler http.Handler
	token   string
}

func newEngine(t *testing.T, cachePing handler.Pinger) engineFixture {
	t.Helper()
	jwt := auth.NewJWTService(config.JWTConfig{Secret: "test-secret-key-at-least-32-chars!!", Issuer: "test-issuer"})
	token, err := jwt.Issue(uuid.New(), time.Hour)
	require.NoError(t, err)

	log := zaptest.NewLogger(t)
	services := app.NewServices(testutil.NewSQLiteDB(t), app.Options{DefaultCurrency: "USD", Logger: log})
	dbPing := handler.PingFunc(func(context.Context) error { return nil })

	engine, err := router.NewEngine(router.Options{
		Logger:      log,
		Auth:        jwt,
		ServiceName: "shopledger-test",
		MaxBodySize: 1 << 20,
	}, services.Handlers(handler.NewHealthHandler(dbPing, cachePing)))
	require.NoError(t, err)
	return engineFixture{handler: engine, token: token}
}

func TestNewEngine_Health(t *testing.T) {
	t.Run("no token needed", func(t *testing.T) {
		w := testutil.Do(t, newEngine(t, nil).handler, testutil.Request{Method: http.MethodGet, Path: "/health"})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"cache":"memory"`)
	})

	t.Run("unreachable cache degrades", func(t *testing.T) {
		down := handler.PingFunc(func(context.Context) error { return errors.New("connection refused") })
		w := testutil.Do(t, newEngine(t, down).handler, testutil.Request{Method: http.MethodGet, Path: "/health"})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"degraded"`)
	})
}

func TestNewEngine_Auth(t *testing.T) {
	fx := newEngine(t, nil)

	w := testutil.Do(t, fx.handler, testutil.Request{Method: http.MethodGet, Path: "/api/v1/orders"})
	testutil.AssertError(t, w, http.StatusUnauthorized, "UNAUTHORIZED")

	w = testutil.Do(t, fx.handler, testutil.Request{Method: http.MethodGet, Path: "/api/v1/orders", Token: fx.token})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNewEngine_Routing(t *testing.T) {
	fx := newEngine(t, nil)

	t.Run("item listing is not a receipt lookup", func(t *testing.T) {
		w := testutil.Do(t, fx.handler, testutil.Request{
			Method: http.MethodGet,
			Path:   "/api/v1/inventory/receipt/item?receiptId=" + uuid.NewString(),
			Token:  fx.token,
		})
		testutil.AssertError(t, w, http.StatusNotFound, "NOT_FOUND")
		assert.Contains(t, w.Body.String(), "receipt")
	})

	t.Run("unknown route", func(t *testing.T) {
		w := testutil.Do(t, fx.handler, testutil.Request{Method: http.MethodGet, Path: "/api/v1/nope", Token: fx.token})
		testutil.AssertError(t, w, http.StatusNotFound, "ROUTE_NOT_FOUND")
	})

	t.Run("wrong method", func(t *testing.T) {
		w := testutil.Do(t, fx.handler, testutil.Request{Method: http.MethodPut, Path: "/health"})
		testutil.AssertError(t, w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED")
	})

	t.Run("request id is echoed", func(t *testing.T) {
		w := testutil.Do(t, fx.handler, testutil.Request{
			Method:  http.MethodGet,
			Path:    "/api/v1/orders",
			Token:   fx.token,
			Headers: map[string]string{middleware.RequestIDHeader: "trace-me"},
		})
		assert.Equal(t, "trace-me", w.Header().Get(middleware.RequestIDHeader))
	})

	t.Run("oversized body", func(t *testing.T) {
		w := testutil.Do(t, fx.handler, testutil.Request{
			Method: http.MethodPost,
			Path:   "/api/v1/spending/expenses",
			Token:  fx.token,
			Body:   `{"category":"` + strings.Repeat("x", 2<<20) + `"}`,
		})
		testutil.AssertError(t, w, http.StatusRequestEntityTooLarge, "REQUEST_TOO_LARGE")
	})
}
