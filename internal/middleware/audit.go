package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Audit records one structured log entry per successful mutating request.
func Audit(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if c.Writer.Status() >= 400 {
			return
		}

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Int64("latency_ms", time.Since(start).Milliseconds()),
			zap.String("ip", c.ClientIP()),
		}
		if id := c.Param("id"); id != "" {
			fields = append(fields, zap.String("timetable_id", id))
		}
		if sessionID := c.Param("sessionId"); sessionID != "" {
			fields = append(fields, zap.String("session_id", sessionID))
		}
		if claims := Claims(c); claims != nil {
			fields = append(fields, zap.String("actor", claims.UserID), zap.String("role", string(claims.Role)))
		}
		logger.Info("timetable_mutation", fields...)
	}
}
