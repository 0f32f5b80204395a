package response

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/timetable-scheduler/pkg/errors"
)

// Envelope represents the common response contract.
type Envelope struct {
	Data  interface{}            `json:"data,omitempty"`
	Error *appErrors.Error       `json:"error,omitempty"`
	Meta  map[string]interface{} `json:"meta,omitempty"`
}

// JSON sends a success response. Nil meta maps are skipped and later keys win.
func JSON(c *gin.Context, status int, data interface{}, meta ...map[string]interface{}) {
	noStore(c)
	c.JSON(status, Envelope{Data: data, Meta: mergeMeta(meta)})
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}, meta ...map[string]interface{}) {
	JSON(c, http.StatusCreated, data, meta...)
}

// Error sends an error response converting the error to the common structure.
func Error(c *gin.Context, err error, meta ...map[string]interface{}) {
	appErr := appErrors.FromError(err)
	noStore(c)
	c.JSON(appErr.Status, Envelope{Error: appErr, Meta: mergeMeta(meta)})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Attachment writes a file body with a download disposition.
func Attachment(c *gin.Context, filename, contentType string, data []byte) {
	noStore(c)
	c.Header("Content-Disposition", disposition(filename))
	c.Data(http.StatusOK, contentType, data)
}

// AttachmentReader streams size bytes from r as a download.
func AttachmentReader(c *gin.Context, filename, contentType string, size int64, r io.Reader) {
	noStore(c)
	c.DataFromReader(http.StatusOK, size, contentType, r, map[string]string{
		"Content-Disposition": disposition(filename),
	})
}

func disposition(filename string) string {
	return fmt.Sprintf("attachment; filename=%q", filename)
}

func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
}

func mergeMeta(meta []map[string]interface{}) map[string]interface{} {
	var merged map[string]interface{}
	for _, m := range meta {
		if len(m) == 0 {
			continue
		}
		if merged == nil {
			merged = make(map[string]interface{}, len(m))
		}
		for k, v := range m {
			merged[k] = v
		}
	}
	return merged
}
