package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-scheduler/internal/service"
)

const unmatchedRoute = "unmatched"

// Metrics records request latency per route template. Scrapes of metricsPath are not counted.
func Metrics(metricsSvc *service.MetricsService, metricsPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil || c.Request.URL.Path == metricsPath {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		// raw paths carry timetable ids and would explode label cardinality
		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
