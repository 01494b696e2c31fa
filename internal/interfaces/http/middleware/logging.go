package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/carrydesk/carrydesk/internal/shared/logger"
)

// Logger writes one line per ops request. Scrapes and health probes that
// succeed are logged at debug so a polling load balancer does not flood the
// log; failing probes surface at warn or error.
func Logger(log logger.Interface) gin.HandlerFunc {
	log = log.Named("ops")

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		args := []any{
			"route", route,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"bytes", c.Writer.Size(),
			"remote", c.ClientIP(),
		}
		if errs := c.Errors.String(); errs != "" {
			args = append(args, "error", errs)
		}

		switch {
		case status >= 500:
			log.Errorw("ops request failed", args...)
		case status >= 400:
			log.Warnw("ops request rejected", args...)
		default:
			log.Debugw("ops request served", args...)
		}
	}
}
