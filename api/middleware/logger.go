package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Logger returns a gin middleware for logging.
// The entry is written from a defer so aborted relays are logged too.
func Logger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery
		completed := false

		defer func() {
			statusCode := c.Writer.Status()
			fields := []zap.Field{
				zap.String("request_id", GetRequestID(c)),
				zap.String("method", c.Request.Method),
				zap.String("path", path),
				zap.String("query", query),
				zap.Int("status", statusCode),
				zap.Int("bytes", c.Writer.Size()),
				zap.Duration("latency", time.Since(start)),
				zap.String("client_ip", c.ClientIP()),
				zap.String("user_agent", c.Request.UserAgent()),
			}

			if len(c.Errors) > 0 {
				fields = append(fields, zap.String("errors", c.Errors.String()))
			}

			switch {
			case !completed:
				log.Warn("HTTP request aborted", append(fields, zap.Bool("aborted", true))...)
			case statusCode >= 500:
				log.Error("HTTP request", fields...)
			case statusCode >= 400:
				log.Warn("HTTP request", fields...)
			default:
				log.Info("HTTP request", fields...)
			}
		}()

		c.Next()
		completed = true
	}
}
