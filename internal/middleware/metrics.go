package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tkesici/greenhouse-manager/internal/metrics"
)

// Prometheus records request counts and latency per route.
func Prometheus() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		statusCode := strconv.Itoa(c.Writer.Status())

		metrics.IncrementAPIRequests(c.Request.Method, c.FullPath(), statusCode)
		metrics.RecordAPIRequestDuration(c.Request.Method, c.FullPath(), duration)
	}
}
