package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-scheduler/internal/models"
	appErrors "github.com/noah-isme/timetable-scheduler/pkg/errors"
	"github.com/noah-isme/timetable-scheduler/pkg/response"
)

// ContextUserKey is the gin context key storing JWT claims.
const ContextUserKey = "currentUser"

const bearerChallenge = `Bearer realm="timetable-scheduler"`

// TokenValidator validates bearer tokens.
type TokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

// JWT requires a valid planner token before a mutation runs.
func JWT(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		fields := strings.Fields(c.GetHeader("Authorization"))
		if len(fields) == 0 {
			unauthorized(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing bearer token"))
			return
		}
		if len(fields) != 2 || !strings.EqualFold(fields[0], "Bearer") {
			unauthorized(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			return
		}

		claims, err := tokens.ValidateToken(fields[1])
		if err != nil {
			unauthorized(c, err)
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

// Claims returns the claims JWT stored on the context, or nil for anonymous requests.
func Claims(c *gin.Context) *models.JWTClaims {
	if c == nil {
		return nil
	}
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	claims, _ := value.(*models.JWTClaims)
	return claims
}

func unauthorized(c *gin.Context, err error) {
	c.Header("WWW-Authenticate", bearerChallenge)
	response.Error(c, err)
	c.Abort()
}
