package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseMetaCarriesCacheHit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var meta map[string]interface{}
	r := gin.New()
	r.Use(WithResponseMeta())
	r.GET("/timetables/:id/stats", func(c *gin.Context) {
		SetCacheHit(c, true)
		meta = ExtractMeta(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/timetables/tt-1/stats", nil))

	require.NotNil(t, meta)
	assert.Equal(t, true, meta[cacheHitKey])
	assert.Contains(t, meta, processingTimeMs)
	assert.Equal(t, "HIT", w.Header().Get(cacheHeader))
}

func TestExtractMetaWithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Nil(t, ExtractMeta(c))
	SetCacheHit(c, false)
	assert.Equal(t, false, ExtractMeta(c)[cacheHitKey])
}
