package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// TimetableRecord is a persisted timetable version.
type TimetableRecord struct {
	ID        string         `db:"id" json:"id"`
	Name      string         `db:"name" json:"name"`
	Version   int            `db:"version" json:"version"`
	Complete  bool           `db:"complete" json:"complete"`
	Requested int            `db:"requested" json:"requested"`
	Placed    int            `db:"placed" json:"placed"`
	Meta      types.JSONText `db:"meta" json:"meta"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

// SessionRecord is a persisted scheduled session keyed by catalog ids.
type SessionRecord struct {
	ID              string     `db:"id" json:"id"`
	TimetableID     string     `db:"timetable_id" json:"timetable_id"`
	SubjectID       string     `db:"subject_id" json:"subject_id"`
	RoomID          string     `db:"room_id" json:"room_id"`
	WeekNumber      int        `db:"week_number" json:"week_number"`
	WeekYear        int        `db:"week_year" json:"week_year"`
	DayOfWeek       int        `db:"day_of_week" json:"day_of_week"`
	StartMinute     int        `db:"start_minute" json:"start_minute"`
	DurationMinutes int        `db:"duration_minutes" json:"duration_minutes"`
	BlockID         string     `db:"block_id" json:"block_id"`
	Fixed           bool       `db:"fixed" json:"fixed"`
	SessionDate     *time.Time `db:"session_date" json:"session_date,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}

// NewSessionRecord flattens a session for persistence.
func NewSessionRecord(timetableID string, s *ScheduledSession) SessionRecord {
	record := SessionRecord{
		ID:              s.ID,
		TimetableID:     timetableID,
		SubjectID:       s.Subject.ID,
		RoomID:          s.Room.ID,
		WeekNumber:      s.Week.Number,
		WeekYear:        s.Week.Year,
		DayOfWeek:       int(s.Slot.Day),
		StartMinute:     s.Slot.StartMinute,
		DurationMinutes: s.Slot.DurationMinutes,
		BlockID:         s.BlockID,
		Fixed:           s.Fixed,
	}
	if s.Date != nil {
		t := s.Date.Time()
		record.SessionDate = &t
	}
	return record
}
