package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-scheduler/internal/dto"
	"github.com/noah-isme/timetable-scheduler/internal/loader"
	"github.com/noah-isme/timetable-scheduler/internal/models"
	appErrors "github.com/noah-isme/timetable-scheduler/pkg/errors"
	"github.com/noah-isme/timetable-scheduler/pkg/export"
)

type timetableRepository interface {
	CreateVersioned(ctx context.Context, exec sqlx.ExtContext, record *models.TimetableRecord) error
	InsertSessions(ctx context.Context, exec sqlx.ExtContext, sessions []models.SessionRecord) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type statsCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

type timetableExporter interface {
	Render(timetableID, format, groupBy string, sections []export.Section) (*dto.ExportFile, error)
}

// TimetableServiceConfig governs generation defaults and retention.
type TimetableServiceConfig struct {
	Defaults     GenerateOptions
	TimetableTTL time.Duration
	StatsTTL     time.Duration
	TermStart    *time.Time
}

// TimetableService generates timetables, keeps them in memory for editing and persists them on request.
type TimetableService struct {
	catalogs  *CatalogStore
	repo      timetableRepository
	tx        txProvider
	cache     statsCache
	exporter  timetableExporter
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       TimetableServiceConfig
	store     *timetableStore
}

// NewTimetableService wires timetable dependencies. repo, tx and cache are optional; a nil
// exporter renders without storing.
func NewTimetableService(
	catalogs *CatalogStore,
	repo timetableRepository,
	tx txProvider,
	cache statsCache,
	exporter timetableExporter,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableServiceConfig,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if exporter == nil {
		exporter = NewExportService(nil, nil, ExportConfig{}, logger)
	}
	if catalogs == nil {
		catalogs = NewCatalogStore(nil, nil)
	}
	if cfg.TimetableTTL <= 0 {
		cfg.TimetableTTL = 2 * time.Hour
	}
	if cfg.Defaults.MaxAttempts <= 0 {
		cfg.Defaults.MaxAttempts = 1000
	}
	return &TimetableService{
		catalogs:  catalogs,
		repo:      repo,
		tx:        tx,
		cache:     cache,
		exporter:  exporter,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		store:     newTimetableStore(cfg.TimetableTTL),
	}
}

// ReplaceCatalog parses a JSON catalog document and makes it the active catalog.
func (s *TimetableService) ReplaceCatalog(ctx context.Context, body io.Reader) (*dto.CatalogSummary, error) {
	result, err := loader.LoadJSON(body, loader.Options{TermStart: s.cfg.TermStart})
	if err != nil {
		return nil, catalogError(err)
	}
	s.catalogs.Replace(result.Catalog, result.Fixed)
	summary := summarizeCatalog(result.Catalog)
	s.logger.Info("catalog replaced",
		zap.Int("subjects", summary.Subjects),
		zap.Int("rooms", summary.Rooms),
		zap.Int("instructors", summary.Instructors),
		zap.Int("weeks", summary.Weeks),
		zap.Int("fixed", len(result.Fixed)),
	)
	return &summary, nil
}

// CatalogSummary describes the active catalog.
func (s *TimetableService) CatalogSummary(ctx context.Context) (*dto.CatalogSummary, error) {
	catalog, _ := s.catalogs.Current()
	if catalog == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no catalog loaded")
	}
	summary := summarizeCatalog(catalog)
	return &summary, nil
}

// Generate builds a timetable against the active catalog and stores it for editing.
func (s *TimetableService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.TimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable generation payload")
	}
	catalog, fixed := s.catalogs.Current()
	if catalog == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no catalog loaded")
	}
	for _, input := range req.FixedSessions {
		session, err := sessionFromInput(catalog, input)
		if err != nil {
			return nil, err
		}
		fixed = append(fixed, session)
	}

	opts := s.cfg.Defaults
	if req.MaxAttempts > 0 {
		opts.MaxAttempts = req.MaxAttempts
	}
	if req.Randomize != nil {
		opts.Randomize = *req.Randomize
	}
	if req.Seed != 0 {
		opts.Seed = req.Seed
	}
	if req.Workers > 0 {
		opts.Workers = req.Workers
	}
	if req.MaxNodes > 0 {
		opts.MaxNodes = req.MaxNodes
	}
	if req.TimeBudgetSeconds > 0 {
		opts.TimeBudget = time.Duration(req.TimeBudgetSeconds) * time.Second
	}

	scheduler := NewTimetableScheduler(catalog, s.logger, s.schedulerMetrics())
	result, err := scheduler.Generate(ctx, fixed, opts)
	if err != nil {
		return nil, err
	}

	entry := &timetableEntry{
		id:          uuid.NewString(),
		catalog:     catalog,
		scheduler:   scheduler,
		editor:      NewTimetableEditor(scheduler.Checker()),
		timetable:   result.Timetable,
		requested:   result.Requested,
		attempts:    result.Attempts,
		duration:    result.Duration,
		generatedAt: s.store.now().UTC(),
	}
	if req.Optimize {
		optimized, stats := scheduler.Optimize(ctx, entry.timetable, opts.MaxNodes)
		entry.timetable = optimized
		entry.optimization = &stats
	}
	s.store.Save(entry)

	return entry.response(), nil
}

// Get returns a stored timetable.
func (s *TimetableService) Get(ctx context.Context, id string) (*dto.TimetableResponse, error) {
	entry, err := s.entry(id)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.response(), nil
}

// ListSessions returns the sessions of a timetable matching the filter, in calendar order.
func (s *TimetableService) ListSessions(ctx context.Context, id string, filter dto.SessionFilter) ([]dto.SessionView, error) {
	entry, err := s.entry(id)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	views := make([]dto.SessionView, 0, entry.timetable.Len())
	for _, session := range entry.timetable.SortedSessions() {
		if filter.Week > 0 && session.Week.Number != filter.Week {
			continue
		}
		if filter.Year > 0 && session.Week.Year != filter.Year {
			continue
		}
		if filter.Room != "" && (session.Room == nil || session.Room.ID != filter.Room) {
			continue
		}
		if filter.Instructor != "" && (session.Subject == nil || !session.Subject.HasInstructor(filter.Instructor)) {
			continue
		}
		if filter.Subject != "" && (session.Subject == nil || session.Subject.ID != filter.Subject) {
			continue
		}
		views = append(views, sessionView(session))
	}
	return views, nil
}

// Statistics summarises a timetable. The boolean reports whether the result came from cache.
func (s *TimetableService) Statistics(ctx context.Context, id string) (*dto.TimetableStatsResponse, bool, error) {
	entry, err := s.entry(id)
	if err != nil {
		return nil, false, err
	}

	key := statsCacheKey(id)
	if s.cache != nil {
		var cached dto.TimetableStatsResponse
		hit, cacheErr := s.cache.Get(ctx, key, &cached)
		if cacheErr == nil && hit {
			return &cached, true, nil
		}
	}

	entry.mu.Lock()
	stats := entry.timetable.Statistics()
	deficits := entry.scheduler.deficits(entry.timetable)
	resp := &dto.TimetableStatsResponse{
		TotalSessions:   stats.TotalSessions,
		FixedSessions:   stats.FixedSessions,
		RoomsUsed:       stats.RoomsUsed,
		InstructorsUsed: stats.InstructorsUsed,
		WeeksUsed:       stats.WeeksUsed,
		Valid:           stats.Valid,
		Complete:        len(deficits) == 0,
		GapMinutes:      GapPenalty(entry.timetable),
		Deficits:        deficits,
	}
	// edits invalidate under the same lock, so a concurrent edit cannot be overwritten by stale stats
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, resp, s.cfg.StatsTTL); err != nil {
			s.logger.Debug("timetable stats not cached", zap.String("timetable_id", id), zap.Error(err))
		}
	}
	entry.mu.Unlock()
	return resp, false, nil
}

// AddSession places a new session after validating it against every existing one.
func (s *TimetableService) AddSession(ctx context.Context, id string, input dto.SessionInput) (*dto.SessionView, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	entry, err := s.entry(id)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	candidate, err := sessionFromInput(entry.catalog, input)
	if err != nil {
		return nil, err
	}
	candidate.Fixed = false
	added, err := entry.editor.Add(entry.timetable, candidate)
	s.recordEdit(ctx, "add", id, err)
	if err != nil {
		return nil, err
	}
	view := sessionView(added)
	return &view, nil
}

// RemoveSession deletes a session. Fixed sessions are only removed when force is set.
func (s *TimetableService) RemoveSession(ctx context.Context, id, sessionID string, force bool) error {
	entry, err := s.entry(id)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	_, err = entry.editor.Remove(entry.timetable, sessionID, force)
	s.recordEdit(ctx, "remove", id, err)
	return err
}

// MoveSession relocates a non-fixed session.
func (s *TimetableService) MoveSession(ctx context.Context, id, sessionID string, patch dto.SessionPatchRequest) (*dto.SessionView, error) {
	if err := s.validator.Struct(patch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session patch")
	}
	entry, err := s.entry(id)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	original, ok := entry.timetable.Find(sessionID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("session %s not found", sessionID))
	}
	change, err := changeFromPatch(entry.catalog, original, patch)
	if err != nil {
		return nil, err
	}
	moved, err := entry.editor.Move(entry.timetable, sessionID, change)
	s.recordEdit(ctx, "move", id, err)
	if err != nil {
		return nil, err
	}
	view := sessionView(moved)
	return &view, nil
}

// Optimize compacts the non-fixed sessions of a timetable.
func (s *TimetableService) Optimize(ctx context.Context, id string, req dto.OptimizeRequest) (*dto.TimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid optimize payload")
	}
	entry, err := s.entry(id)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	maxNodes := req.MaxNodes
	if maxNodes == 0 {
		maxNodes = s.cfg.Defaults.MaxNodes
	}
	optimized, stats := entry.scheduler.Optimize(ctx, entry.timetable, maxNodes)
	entry.timetable = optimized
	entry.optimization = &stats
	s.recordEdit(ctx, "optimize", id, nil)
	s.logger.Info("timetable optimized",
		zap.String("timetable_id", id),
		zap.Int("gap_before", stats.Before),
		zap.Int("gap_after", stats.After),
		zap.Bool("improved", stats.Improved),
	)
	return entry.response(), nil
}

// Save persists a timetable version and its sessions in one transaction.
func (s *TimetableService) Save(ctx context.Context, id string, req dto.SaveTimetableRequest) (*dto.SaveTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid save timetable payload")
	}
	if s.repo == nil || s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "persistence is disabled")
	}
	entry, err := s.entry(id)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	sessions := entry.timetable.SortedSessions()
	valid := entry.timetable.IsValid()
	deficits := entry.scheduler.deficits(entry.timetable)
	gap := GapPenalty(entry.timetable)
	requested := entry.requested
	attempts := entry.attempts
	generatedAt := entry.generatedAt
	entry.mu.Unlock()

	if !valid {
		return nil, appErrors.Clone(appErrors.ErrConflict, "timetable contains conflicting sessions")
	}

	metaBytes, marshalErr := json.Marshal(map[string]any{
		"attempts":     attempts,
		"deficits":     deficits,
		"gap_minutes":  gap,
		"generated_at": generatedAt,
	})
	if marshalErr != nil {
		return nil, appErrors.Wrap(marshalErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode timetable metadata")
	}

	start := time.Now()
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
		s.metrics.ObserveDBQuery("timetable_save", time.Since(start))
	}()

	record := &models.TimetableRecord{
		Name:      req.Name,
		Complete:  len(deficits) == 0,
		Requested: requested,
		Placed:    len(sessions),
		Meta:      types.JSONText(metaBytes),
	}
	if err = s.repo.CreateVersioned(ctx, tx, record); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create timetable")
		return nil, err
	}

	rows := make([]models.SessionRecord, 0, len(sessions))
	for _, session := range sessions {
		rows = append(rows, models.NewSessionRecord(record.ID, session))
	}
	if err = s.repo.InsertSessions(ctx, tx, rows); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist timetable sessions")
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit timetable transaction")
		return nil, err
	}

	s.logger.Info("timetable saved",
		zap.String("timetable_id", id),
		zap.String("record_id", record.ID),
		zap.String("name", record.Name),
		zap.Int("version", record.Version),
		zap.Int("sessions", len(rows)),
	)
	return &dto.SaveTimetableResponse{
		TimetableID: record.ID,
		Name:        record.Name,
		Version:     record.Version,
		Sessions:    len(rows),
	}, nil
}

// Export renders a timetable as CSV or PDF grouped by week or instructor.
func (s *TimetableService) Export(ctx context.Context, id string, query dto.ExportQuery) (*dto.ExportFile, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export query")
	}
	format := query.Format
	if format == "" {
		format = "pdf"
	}
	groupBy := query.GroupBy
	if groupBy == "" {
		groupBy = "week"
	}

	entry, err := s.entry(id)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	var sections []export.Section
	if groupBy == "instructor" {
		sections = instructorSections(entry.catalog, entry.timetable)
	} else {
		sections = weekSections(entry.catalog, entry.timetable)
	}
	entry.mu.Unlock()

	return s.exporter.Render(id, format, groupBy, sections)
}

// SweepExpired drops timetables older than the retention window.
func (s *TimetableService) SweepExpired() int {
	removed := s.store.Sweep()
	if removed > 0 {
		s.logger.Debug("expired timetables removed", zap.Int("count", removed))
	}
	return removed
}

func (s *TimetableService) entry(id string) (*timetableEntry, error) {
	if strings.TrimSpace(id) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "timetable id is required")
	}
	entry, ok := s.store.Get(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found or expired")
	}
	return entry, nil
}

func (s *TimetableService) schedulerMetrics() schedulerMetrics {
	if s.metrics == nil {
		return nil
	}
	return s.metrics
}

func (s *TimetableService) recordEdit(ctx context.Context, operation, id string, err error) {
	s.metrics.RecordEdit(operation, err)
	if err != nil {
		if violation, ok := ViolationFrom(err); ok {
			s.logger.Debug("timetable edit rejected",
				zap.String("timetable_id", id),
				zap.String("operation", operation),
				zap.String("dimension", string(violation.Dimension)),
				zap.String("conflicting_id", violation.ConflictingID()),
			)
		}
		return
	}
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, statsCacheKey(id))
	}
}

// StatsCachePattern matches every statistics entry. Timetables do not outlive the process,
// so entries left by a previous run are purged on startup.
const StatsCachePattern = "timetable:stats:*"

func statsCacheKey(id string) string {
	return "timetable:stats:" + id
}

func (e *timetableEntry) response() *dto.TimetableResponse {
	deficits := e.scheduler.deficits(e.timetable)
	sessions := e.timetable.SortedSessions()
	views := make([]dto.SessionView, 0, len(sessions))
	fixed := 0
	for _, session := range sessions {
		if session.Fixed {
			fixed++
		}
		views = append(views, sessionView(session))
	}
	resp := &dto.TimetableResponse{
		ID:          e.id,
		Complete:    len(deficits) == 0,
		Requested:   e.requested,
		Placed:      len(sessions) - fixed,
		Attempts:    e.attempts,
		Deficits:    deficits,
		DurationMs:  e.duration.Milliseconds(),
		GeneratedAt: e.generatedAt,
		Sessions:    views,
	}
	if e.optimization != nil {
		resp.Optimization = &dto.OptimizationView{
			GapMinutesBefore: e.optimization.Before,
			GapMinutesAfter:  e.optimization.After,
			Improved:         e.optimization.Improved,
		}
	}
	return resp
}

func sessionView(s *models.ScheduledSession) dto.SessionView {
	view := dto.SessionView{
		ID:              s.ID,
		Week:            s.Week.Number,
		Year:            s.Week.Year,
		Day:             s.Slot.Day.String(),
		StartTime:       s.Slot.Clock(),
		EndTime:         s.Slot.EndClock(),
		DurationMinutes: s.Slot.DurationMinutes,
		BlockID:         s.BlockID,
		Fixed:           s.Fixed,
	}
	if s.Subject != nil {
		view.SubjectID = s.Subject.ID
		view.SubjectName = s.Subject.Name
		view.InstructorIDs = append([]string(nil), s.Subject.InstructorIDs...)
	}
	if s.Room != nil {
		view.RoomID = s.Room.ID
		view.RoomName = s.Room.Name
	}
	if s.Date != nil {
		view.Date = s.Date.String()
	}
	return view
}

func summarizeCatalog(catalog *models.Catalog) dto.CatalogSummary {
	summary := dto.CatalogSummary{
		Subjects:    len(catalog.Subjects()),
		Rooms:       len(catalog.Rooms()),
		Instructors: len(catalog.Instructors()),
		Weeks:       len(catalog.Weeks()),
	}
	for _, subject := range catalog.Subjects() {
		summary.RequiredSessions += subject.RequiredSessions()
	}
	if start := catalog.TermStart(); start != nil {
		summary.TermStart = start.Format("2006-01-02")
	}
	return summary
}

func catalogError(err error) error {
	var catalogErr *models.CatalogError
	if errors.As(err, &catalogErr) {
		return appErrors.Wrap(err, appErrors.ErrInvalidReference.Code, appErrors.ErrInvalidReference.Status, catalogErr.Error())
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid catalog document")
}

func parseStart(raw string) (int, error) {
	parsed, err := time.Parse("15:04", strings.TrimSpace(raw))
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid start time %q, expected HH:MM", raw))
	}
	return parsed.Hour()*60 + parsed.Minute(), nil
}

func resolveWeek(catalog *models.Catalog, number, year int) (models.WeekKey, error) {
	if year == 0 {
		if weeks := catalog.Weeks(); len(weeks) > 0 {
			year = weeks[0].Year
		}
	}
	key := models.WeekKey{Number: number, Year: year}
	if _, ok := catalog.Week(key); !ok {
		return models.WeekKey{}, appErrors.Clone(appErrors.ErrInvalidReference, fmt.Sprintf("unknown week %s", key))
	}
	return key, nil
}

func sessionFromInput(catalog *models.Catalog, input dto.SessionInput) (*models.ScheduledSession, error) {
	subject, ok := catalog.Subject(input.SubjectID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrInvalidReference, fmt.Sprintf("unknown subject %s", input.SubjectID))
	}
	room, ok := catalog.Room(input.RoomID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrInvalidReference, fmt.Sprintf("unknown room %s", input.RoomID))
	}
	day, err := models.ParseDayOfWeek(input.Day)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	start, err := parseStart(input.StartTime)
	if err != nil {
		return nil, err
	}
	duration := input.DurationMinutes
	if duration == 0 {
		duration = subject.DurationMinutes
	}
	week, err := resolveWeek(catalog, input.Week, input.Year)
	if err != nil {
		return nil, err
	}
	return &models.ScheduledSession{
		ID:      input.ID,
		Subject: subject,
		Room:    room,
		Slot:    models.TimeSlot{Day: day, StartMinute: start, DurationMinutes: duration},
		Week:    week,
		BlockID: input.BlockID,
		Fixed:   true,
	}, nil
}

func changeFromPatch(catalog *models.Catalog, original *models.ScheduledSession, patch dto.SessionPatchRequest) (SessionChange, error) {
	var change SessionChange
	if patch.Day != nil || patch.StartTime != nil || patch.DurationMinutes != nil {
		slot := original.Slot
		if patch.Day != nil {
			day, err := models.ParseDayOfWeek(*patch.Day)
			if err != nil {
				return SessionChange{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
			}
			slot.Day = day
		}
		if patch.StartTime != nil {
			start, err := parseStart(*patch.StartTime)
			if err != nil {
				return SessionChange{}, err
			}
			slot.StartMinute = start
		}
		if patch.DurationMinutes != nil {
			slot.DurationMinutes = *patch.DurationMinutes
		}
		change.Slot = &slot
	}
	if patch.RoomID != nil {
		room, ok := catalog.Room(*patch.RoomID)
		if !ok {
			return SessionChange{}, appErrors.Clone(appErrors.ErrInvalidReference, fmt.Sprintf("unknown room %s", *patch.RoomID))
		}
		change.Room = room
	}
	if patch.Week != nil || patch.Year != nil {
		number, year := original.Week.Number, original.Week.Year
		if patch.Week != nil {
			number = *patch.Week
		}
		if patch.Year != nil {
			year = *patch.Year
		}
		week, err := resolveWeek(catalog, number, year)
		if err != nil {
			return SessionChange{}, err
		}
		change.Week = &week
	}
	return change, nil
}
