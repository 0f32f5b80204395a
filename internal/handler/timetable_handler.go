package handler

import (
	"context"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-scheduler/internal/dto"
	"github.com/noah-isme/timetable-scheduler/internal/middleware"
	"github.com/noah-isme/timetable-scheduler/internal/service"
	appErrors "github.com/noah-isme/timetable-scheduler/pkg/errors"
	"github.com/noah-isme/timetable-scheduler/pkg/response"
)

const maxCatalogBytes = 8 << 20

type timetableManager interface {
	ReplaceCatalog(ctx context.Context, body io.Reader) (*dto.CatalogSummary, error)
	CatalogSummary(ctx context.Context) (*dto.CatalogSummary, error)
	Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.TimetableResponse, error)
	Get(ctx context.Context, id string) (*dto.TimetableResponse, error)
	ListSessions(ctx context.Context, id string, filter dto.SessionFilter) ([]dto.SessionView, error)
	Statistics(ctx context.Context, id string) (*dto.TimetableStatsResponse, bool, error)
	AddSession(ctx context.Context, id string, input dto.SessionInput) (*dto.SessionView, error)
	RemoveSession(ctx context.Context, id, sessionID string, force bool) error
	MoveSession(ctx context.Context, id, sessionID string, patch dto.SessionPatchRequest) (*dto.SessionView, error)
	Optimize(ctx context.Context, id string, req dto.OptimizeRequest) (*dto.TimetableResponse, error)
	Save(ctx context.Context, id string, req dto.SaveTimetableRequest) (*dto.SaveTimetableResponse, error)
	Export(ctx context.Context, id string, query dto.ExportQuery) (*dto.ExportFile, error)
}

type exportDownloader interface {
	Open(token string) (*os.File, string, error)
}

// TimetableHandler exposes catalog and timetable endpoints.
type TimetableHandler struct {
	service   timetableManager
	downloads exportDownloader
}

// NewTimetableHandler constructs the handler. exports serves signed download links.
func NewTimetableHandler(svc *service.TimetableService, exports *service.ExportService) *TimetableHandler {
	h := &TimetableHandler{service: svc}
	if exports != nil {
		h.downloads = exports
	}
	return h
}

// RegisterRoutes mounts the routes. guards run before every mutating route.
func (h *TimetableHandler) RegisterRoutes(r gin.IRouter, guards ...gin.HandlerFunc) {
	mutate := func(handler gin.HandlerFunc) []gin.HandlerFunc {
		chain := make([]gin.HandlerFunc, 0, len(guards)+1)
		chain = append(chain, guards...)
		return append(chain, handler)
	}

	r.PUT("/catalog", mutate(h.ReplaceCatalog)...)
	r.GET("/catalog/summary", h.CatalogSummary)

	timetables := r.Group("/timetables")
	timetables.POST("/generate", mutate(h.Generate)...)
	timetables.GET("/:id", h.Get)
	timetables.GET("/:id/sessions", h.ListSessions)
	timetables.GET("/:id/stats", h.Stats)
	timetables.GET("/:id/export", h.Export)
	timetables.POST("/:id/sessions", mutate(h.AddSession)...)
	timetables.DELETE("/:id/sessions/:sessionId", mutate(h.RemoveSession)...)
	timetables.PATCH("/:id/sessions/:sessionId", mutate(h.MoveSession)...)
	timetables.POST("/:id/optimize", mutate(h.Optimize)...)
	timetables.POST("/:id/save", mutate(h.Save)...)

	r.GET("/exports/:token", h.Download)
}

// ReplaceCatalog handles PUT /catalog with a JSON catalog document.
func (h *TimetableHandler) ReplaceCatalog(c *gin.Context) {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxCatalogBytes)
	summary, err := h.service.ReplaceCatalog(c.Request.Context(), body)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, actorMeta(c))
}

// CatalogSummary handles GET /catalog/summary.
func (h *TimetableHandler) CatalogSummary(c *gin.Context) {
	summary, err := h.service.CatalogSummary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary)
}

// Generate handles POST /timetables/generate. An empty body uses server defaults.
func (h *TimetableHandler) Generate(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
			return
		}
	}
	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result, actorMeta(c))
}

// Get handles GET /timetables/:id.
func (h *TimetableHandler) Get(c *gin.Context) {
	result, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// ListSessions handles GET /timetables/:id/sessions.
func (h *TimetableHandler) ListSessions(c *gin.Context) {
	var filter dto.SessionFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid session filter"))
		return
	}
	sessions, err := h.service.ListSessions(c.Request.Context(), c.Param("id"), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, map[string]interface{}{"count": len(sessions)})
}

// Stats handles GET /timetables/:id/stats.
func (h *TimetableHandler) Stats(c *gin.Context) {
	stats, hit, err := h.service.Statistics(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, stats, middleware.ExtractMeta(c))
}

// AddSession handles POST /timetables/:id/sessions.
func (h *TimetableHandler) AddSession(c *gin.Context) {
	var req dto.SessionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid session payload"))
		return
	}
	session, err := h.service.AddSession(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondEditError(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, session, actorMeta(c))
}

// RemoveSession handles DELETE /timetables/:id/sessions/:sessionId?force=true.
func (h *TimetableHandler) RemoveSession(c *gin.Context) {
	force := false
	if raw := c.Query("force"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "force must be a boolean"))
			return
		}
		force = parsed
	}
	if err := h.service.RemoveSession(c.Request.Context(), c.Param("id"), c.Param("sessionId"), force); err != nil {
		respondEditError(c, err)
		return
	}
	response.NoContent(c)
}

// MoveSession handles PATCH /timetables/:id/sessions/:sessionId.
func (h *TimetableHandler) MoveSession(c *gin.Context) {
	var req dto.SessionPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid session patch"))
		return
	}
	session, err := h.service.MoveSession(c.Request.Context(), c.Param("id"), c.Param("sessionId"), req)
	if err != nil {
		respondEditError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, actorMeta(c))
}

// Optimize handles POST /timetables/:id/optimize.
func (h *TimetableHandler) Optimize(c *gin.Context) {
	var req dto.OptimizeRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid optimize payload"))
			return
		}
	}
	result, err := h.service.Optimize(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, actorMeta(c))
}

// Save handles POST /timetables/:id/save.
func (h *TimetableHandler) Save(c *gin.Context) {
	var req dto.SaveTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid save payload"))
		return
	}
	saved, err := h.service.Save(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, saved, actorMeta(c))
}

// Export handles GET /timetables/:id/export?format=pdf|csv&groupBy=week|instructor.
func (h *TimetableHandler) Export(c *gin.Context) {
	var query dto.ExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export query"))
		return
	}
	file, err := h.service.Export(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	if file.DownloadURL != "" {
		c.Header("X-Download-URL", file.DownloadURL)
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}

// Download handles GET /exports/:token. The signed token is the only credential.
func (h *TimetableHandler) Download(c *gin.Context) {
	if h.downloads == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "export downloads are disabled"))
		return
	}
	file, name, err := h.downloads.Open(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read export"))
		return
	}
	response.AttachmentReader(c, name, service.ContentTypeFor(name), info.Size(), file)
}

// respondEditError adds the structured placement violation to conflict responses.
func respondEditError(c *gin.Context, err error) {
	violation, ok := service.ViolationFrom(err)
	if !ok {
		response.Error(c, err)
		return
	}
	meta := map[string]interface{}{
		"dimension": violation.Dimension,
		"reason":    violation.Message,
	}
	if id := violation.ConflictingID(); id != "" {
		meta["conflictingSessionId"] = id
	}
	response.Error(c, err, meta)
}
