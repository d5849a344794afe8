package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/media-relay-go/internal/observability"
)

// Metrics records request counts and latency per route, including
// requests whose handler aborted the connection
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		defer func() {
			path := c.FullPath()
			if path == "" {
				path = "unmatched"
			}
			m.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
		}()

		c.Next()
	}
}
