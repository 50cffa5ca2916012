package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"
)

// RequestLogger logs one structured line per request. Chat streams log
// on completion, so long-running requests appear when they finish.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := []any{
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		}
		if user := UserFrom(c); user != nil {
			fields = append(fields, "user_id", user.ID)
		}

		if c.Writer.Status() >= 500 {
			logger.Errorw("request", fields...)
			return
		}
		logger.Infow("request", fields...)
	}
}
