package logger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopledger/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNew(t *testing.T) {
	t.Run("writes json to a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "app.log")
		l, err := New(config.LogConfig{Level: "warn", Format: "json", Output: path})
		require.NoError(t, err)

		l.Info("dropped")
		l.Warn("kept", zap.String("sku", "MUG"))
		_ = l.Sync()

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.NotContains(t, string(raw), "dropped")
		assert.Contains(t, string(raw), `"msg":"kept"`)
		assert.Contains(t, string(raw), `"sku":"MUG"`)
	})

	t.Run("rejects an unknown level", func(t *testing.T) {
		_, err := New(config.LogConfig{Level: "loud"})
		assert.Error(t, err)
	})

	t.Run("environment presets", func(t *testing.T) {
		for _, env := range []string{"development", "production"} {
			l, err := NewForEnvironment(env)
			require.NoError(t, err, env)
			assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
			assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
		}
	})
}

func TestContextFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	base := zap.New(core)

	ctx := context.Background()
	assert.Empty(t, Fields(ctx))
	assert.Same(t, base, L(ctx, base))

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx = trace.ContextWithSpanContext(ctx, trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithOwnerID(ctx, "owner-1")

	L(ctx, base).Info("receipt received")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", fields["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", fields["span_id"])
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "owner-1", fields["owner_id"])

	assert.Same(t, base, FromContext(WithContext(context.Background(), base)))
	assert.NotNil(t, FromContext(context.Background()))
}

func TestGinMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	base := zap.New(core)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(WithRequestID(c.Request.Context(), "req-42"))
		c.Next()
	})
	r.Use(GinMiddleware(base), Recovery(base))
	r.GET("/ok", func(c *gin.Context) {
		FromContext(c.Request.Context()).Debug("inside handler")
		c.Status(http.StatusOK)
	})
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	for _, tc := range []struct {
		path string
		want int
	}{{"/ok", 200}, {"/missing", 404}, {"/panic", 500}} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path+"?limit=5", nil))
		assert.Equal(t, tc.want, w.Code, tc.path)
	}

	inside := logs.FilterMessage("inside handler").All()
	require.Len(t, inside, 1)
	assert.Equal(t, "req-42", inside[0].ContextMap()["request_id"])

	requests := logs.FilterMessage("http request").All()
	require.Len(t, requests, 3)
	assert.Equal(t, zapcore.InfoLevel, requests[0].Level)
	assert.Equal(t, "limit=5", requests[0].ContextMap()["query"])
	assert.Equal(t, zapcore.WarnLevel, requests[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, requests[2].Level)

	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func TestRecovery_Envelope(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(zap.NewNop()))
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"success":false,"error":{"code":"INTERNAL_ERROR","message":"internal server error","requestId":""}}`, w.Body.String())
}

func TestGormLogger_Trace(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), gormlogger.Warn, WithSlowThreshold(50*time.Millisecond), WithSQL(true))
	ctx := WithRequestID(context.Background(), "req-7")
	stmt := func() (string, int64) { return `UPDATE "products" SET "stock"=stock+5`, 1 }

	gl.Trace(ctx, time.Now(), stmt, nil)
	assert.Zero(t, logs.Len(), "fast statements are quiet at warn")

	gl.Trace(ctx, time.Now().Add(-time.Second), stmt, nil)
	gl.Trace(ctx, time.Now(), stmt, assert.AnError)
	gl.Trace(ctx, time.Now(), stmt, gormlogger.ErrRecordNotFound)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "slow sql", entries[0].Message)
	assert.Equal(t, "req-7", entries[0].ContextMap()["request_id"])
	assert.Contains(t, entries[0].ContextMap()["sql"], "products")
	assert.Equal(t, "sql error", entries[1].Message)

	silent := gl.LogMode(gormlogger.Silent)
	silent.Trace(ctx, time.Now(), stmt, assert.AnError)
	assert.Equal(t, 2, logs.Len())

	verbose := gl.LogMode(gormlogger.Info)
	verbose.Trace(ctx, time.Now(), stmt, nil)
	assert.Equal(t, "sql", logs.All()[2].Message)
}

func TestGormLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Info, GormLevel("debug"))
	assert.Equal(t, gormlogger.Warn, GormLevel("info"))
	assert.Equal(t, gormlogger.Error, GormLevel("error"))
	assert.Equal(t, gormlogger.Silent, GormLevel("silent"))
}
