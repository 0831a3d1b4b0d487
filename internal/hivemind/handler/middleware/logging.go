package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kiosk404/nubabel/pkg/logger"
)

// RequestLog logs one line per request through pkg/logger. Server errors are
// logged at warn level, everything else at debug.
func RequestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		log := logger.Debug
		if status >= 500 {
			log = logger.Warn
		}
		log("[HTTP] %s %s -> %d (%s, %s)",
			c.Request.Method, c.Request.URL.Path, status, time.Since(start).Round(time.Microsecond), c.ClientIP())
	}
}
