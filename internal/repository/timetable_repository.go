package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/timetable-scheduler/internal/models"
)

// TimetableRepository persists versioned timetables and their sessions.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

func (r *TimetableRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// CreateVersioned inserts a timetable assigning the next version for its name.
func (r *TimetableRepository) CreateVersioned(ctx context.Context, exec sqlx.ExtContext, record *models.TimetableRecord) error {
	if record == nil {
		return fmt.Errorf("timetable payload is nil")
	}
	if record.Name == "" {
		return fmt.Errorf("timetable name is required")
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if len(record.Meta) == 0 {
		record.Meta = types.JSONText(`{}`)
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	target := r.exec(exec)

	const nextVersionQuery = `SELECT COALESCE(MAX(version), 0) + 1 FROM timetables WHERE name = $1`
	if err := sqlx.GetContext(ctx, target, &record.Version, nextVersionQuery, record.Name); err != nil {
		return fmt.Errorf("compute next timetable version: %w", err)
	}

	const insertQuery = `
INSERT INTO timetables (id, name, version, complete, requested, placed, meta, created_at)
VALUES (:id, :name, :version, :complete, :requested, :placed, :meta, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, target, insertQuery, record); err != nil {
		return fmt.Errorf("insert timetable: %w", err)
	}
	return nil
}

// InsertSessions writes the sessions of a timetable.
func (r *TimetableRepository) InsertSessions(ctx context.Context, exec sqlx.ExtContext, sessions []models.SessionRecord) error {
	if len(sessions) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `
INSERT INTO timetable_sessions (id, timetable_id, subject_id, room_id, week_number, week_year, day_of_week, start_minute, duration_minutes, block_id, fixed, session_date, created_at)
VALUES (:id, :timetable_id, :subject_id, :room_id, :week_number, :week_year, :day_of_week, :start_minute, :duration_minutes, :block_id, :fixed, :session_date, :created_at)`

	for i := range sessions {
		session := &sessions[i]
		if session.ID == "" {
			session.ID = uuid.NewString()
		}
		if session.CreatedAt.IsZero() {
			session.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, session); err != nil {
			return fmt.Errorf("insert timetable session: %w", err)
		}
	}
	return nil
}

// FindByID loads a persisted timetable header.
func (r *TimetableRepository) FindByID(ctx context.Context, id string) (*models.TimetableRecord, error) {
	const query = `SELECT id, name, version, complete, requested, placed, meta, created_at FROM timetables WHERE id = $1`
	var record models.TimetableRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// ListByName returns every version of a named timetable, newest first.
func (r *TimetableRepository) ListByName(ctx context.Context, name string) ([]models.TimetableRecord, error) {
	const query = `SELECT id, name, version, complete, requested, placed, meta, created_at
FROM timetables WHERE name = $1 ORDER BY version DESC`
	var records []models.TimetableRecord
	if err := r.db.SelectContext(ctx, &records, query, name); err != nil {
		return nil, fmt.Errorf("list timetables: %w", err)
	}
	return records, nil
}

// ListSessions returns sessions of a timetable in calendar order.
func (r *TimetableRepository) ListSessions(ctx context.Context, timetableID string) ([]models.SessionRecord, error) {
	const query = `SELECT id, timetable_id, subject_id, room_id, week_number, week_year, day_of_week, start_minute, duration_minutes, block_id, fixed, session_date, created_at
FROM timetable_sessions WHERE timetable_id = $1 ORDER BY week_year ASC, week_number ASC, day_of_week ASC, start_minute ASC`
	var sessions []models.SessionRecord
	if err := r.db.SelectContext(ctx, &sessions, query, timetableID); err != nil {
		return nil, fmt.Errorf("list timetable sessions: %w", err)
	}
	return sessions, nil
}
