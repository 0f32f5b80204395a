package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/timetable-scheduler/pkg/config"
	"github.com/noah-isme/timetable-scheduler/pkg/middleware/requestid"
)

func TestNewFallsBackToInfo(t *testing.T) {
	logr, err := New(&config.Config{Env: config.EnvProduction, Log: config.LogConfig{Level: "chatty", Format: "console"}})
	require.NoError(t, err)
	assert.True(t, logr.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logr.Core().Enabled(zapcore.DebugLevel))
}

func TestGinMiddlewareLogsRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)

	r := gin.New()
	r.Use(requestid.Middleware(), GinMiddleware(zap.New(core)))
	r.GET("/exports/:token", func(c *gin.Context) { c.Status(http.StatusForbidden) })
	r.GET("/timetables/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/exports/secret-token", "/timetables/tt-1", "/health"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	entries := logs.FilterMessage("http_request").All()
	require.Len(t, entries, 3)

	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "/exports/:token", entries[0].ContextMap()["route"])
	assert.NotContains(t, entries[0].ContextMap(), "timetable_id")

	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, "tt-1", entries[1].ContextMap()["timetable_id"])
	assert.NotEmpty(t, entries[1].ContextMap()["request_id"])

	assert.Equal(t, zapcore.DebugLevel, entries[2].Level)
}
