package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-scheduler/internal/middleware"
)

// actorMeta reports who performed a mutation. Unauthenticated deployments get no meta.
func actorMeta(c *gin.Context) map[string]interface{} {
	claims := middleware.Claims(c)
	if claims == nil || claims.UserID == "" {
		return nil
	}
	meta := map[string]interface{}{"actor": claims.UserID}
	if claims.Role != "" {
		meta["role"] = claims.Role
	}
	return meta
}
