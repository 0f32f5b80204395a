package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/timetable-scheduler/pkg/errors"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func TestJSONMergesMeta(t *testing.T) {
	c, w := newContext()

	JSON(c, http.StatusOK, map[string]int{"placed": 3}, nil, map[string]interface{}{"actor": "u1"}, map[string]interface{}{"actor": "u2", "count": 1})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	var body map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(3), body["data"]["placed"])
	assert.Equal(t, "u2", body["meta"]["actor"])
	assert.Equal(t, float64(1), body["meta"]["count"])
}

func TestJSONOmitsEmptyMeta(t *testing.T) {
	c, w := newContext()

	Created(c, "ok")

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"data":"ok"}`, w.Body.String())
}

func TestErrorUsesAppErrorStatus(t *testing.T) {
	c, w := newContext()

	Error(c, appErrors.Clone(appErrors.ErrFixedEntry, "session is fixed"), map[string]interface{}{"dimension": "fixed"})

	assert.Equal(t, http.StatusConflict, w.Code)
	var body Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	assert.Equal(t, appErrors.ErrFixedEntry.Code, body.Error.Code)
	assert.Equal(t, "fixed", body.Meta["dimension"])
}

func TestErrorWrapsUnknownErrors(t *testing.T) {
	c, w := newContext()

	Error(c, errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAttachment(t *testing.T) {
	c, w := newContext()

	Attachment(c, "timetable-1-by-week.csv", "text/csv", []byte("a,b\n"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="timetable-1-by-week.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "a,b\n", w.Body.String())

	c, w = newContext()
	AttachmentReader(c, "x.pdf", "application/pdf", 3, strings.NewReader("pdf"))
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, "pdf", w.Body.String())
}
