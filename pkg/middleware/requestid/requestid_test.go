package requestid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, incoming string) (string, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	var seen string
	r := gin.New()
	r.Use(Middleware())
	r.GET("/", func(c *gin.Context) {
		seen = Value(c)
		c.Status(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if incoming != "" {
		req.Header.Set(headerKey, incoming)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	return seen, w.Header().Get(headerKey)
}

func TestMiddlewareReusesCallerID(t *testing.T) {
	seen, header := serve(t, "trace-42")
	assert.Equal(t, "trace-42", seen)
	assert.Equal(t, "trace-42", header)
}

func TestMiddlewareGeneratesID(t *testing.T) {
	for _, incoming := range []string{"", "bad id\nwith newline", strings.Repeat("x", maxLength+1)} {
		seen, header := serve(t, incoming)
		_, err := uuid.Parse(seen)
		assert.NoError(t, err)
		assert.Equal(t, seen, header)
	}
}
