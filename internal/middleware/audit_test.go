package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/timetable-scheduler/internal/models"
)

func TestAuditLogsSuccessfulMutations(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(ContextUserKey, &models.JWTClaims{UserID: "planner-1", Role: models.RolePlanner})
		c.Next()
	})
	router.PATCH("/timetables/:id/sessions/:sessionId", Audit(zap.New(core)), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.POST("/timetables/:id/save", Audit(zap.New(core)), func(c *gin.Context) {
		c.Status(http.StatusConflict)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/timetables/tt-1/sessions/s-1", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/timetables/tt-1/save", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusConflict, w.Code)

	entries := logs.FilterMessage("timetable_mutation").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "tt-1", fields["timetable_id"])
	assert.Equal(t, "s-1", fields["session_id"])
	assert.Equal(t, "planner-1", fields["actor"])
	assert.Equal(t, "PLANNER", fields["role"])
	assert.Equal(t, int64(http.StatusOK), fields["status"])
}
