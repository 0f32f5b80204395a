package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-scheduler/internal/models"
	appErrors "github.com/noah-isme/timetable-scheduler/pkg/errors"
	"github.com/noah-isme/timetable-scheduler/pkg/response"
)

// RBAC lets through callers whose role is listed. It must run after JWT.
func RBAC(allowed ...models.UserRole) gin.HandlerFunc {
	allowedRoles := make(map[models.UserRole]struct{}, len(allowed))
	names := make([]string, 0, len(allowed))
	for _, role := range allowed {
		allowedRoles[role] = struct{}{}
		names = append(names, string(role))
	}
	forbidden := appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("requires role %s", strings.Join(names, " or ")))

	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowedRoles[claims.Role]; !ok {
			response.Error(c, forbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
