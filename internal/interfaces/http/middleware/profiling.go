package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/shopledger/backend/internal/infrastructure/telemetry"
)

var profilingSkipPaths = map[string]bool{
	"/health": true,
}

// Profiling attaches method and route pprof labels to each request so
// Pyroscope profiles can be split by endpoint. Labels use the matched route
// pattern, never the raw path. Disabled returns a pass-through handler.
func Profiling(enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if profilingSkipPaths[c.Request.URL.Path] {
			c.Next()
			return
		}
		labels := map[string]string{telemetry.ProfilingLabelMethod: c.Request.Method}
		if route := c.FullPath(); route != "" {
			labels[telemetry.ProfilingLabelRoute] = route
		}
		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}
