package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/JsterDevers/Presentryx/internal/service"
)

// Metrics times every request and feeds the metrics service. Unmatched
// routes are labelled with the raw URL path since FullPath is empty there.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
