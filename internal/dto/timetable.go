package dto

import "time"

// SessionInput places a subject at an explicit slot, room and week.
type SessionInput struct {
	ID              string `json:"id"`
	SubjectID       string `json:"subjectId" validate:"required"`
	RoomID          string `json:"roomId" validate:"required"`
	Week            int    `json:"week" validate:"required,min=1,max=53"`
	Year            int    `json:"year" validate:"omitempty,min=1970,max=9999"`
	Day             string `json:"day" validate:"required"`
	StartTime       string `json:"startTime" validate:"required,len=5"`
	DurationMinutes int    `json:"durationMinutes" validate:"omitempty,min=1,max=1440"`
	BlockID         string `json:"blockId"`
}

// GenerateTimetableRequest tunes a generation run; zero values fall back to server defaults.
type GenerateTimetableRequest struct {
	MaxAttempts       int            `json:"maxAttempts" validate:"omitempty,min=1,max=100000"`
	Randomize         *bool          `json:"randomize"`
	Seed              int64          `json:"seed"`
	Workers           int            `json:"workers" validate:"omitempty,min=1,max=64"`
	MaxNodes          int            `json:"maxNodes" validate:"omitempty,min=1"`
	TimeBudgetSeconds int            `json:"timeBudgetSeconds" validate:"omitempty,min=1,max=3600"`
	Optimize          bool           `json:"optimize"`
	FixedSessions     []SessionInput `json:"fixedSessions" validate:"omitempty,dive"`
}

// SessionPatchRequest moves a session; omitted fields keep their value.
type SessionPatchRequest struct {
	RoomID          *string `json:"roomId" validate:"omitempty,min=1"`
	Week            *int    `json:"week" validate:"omitempty,min=1,max=53"`
	Year            *int    `json:"year" validate:"omitempty,min=1970,max=9999"`
	Day             *string `json:"day" validate:"omitempty,min=3"`
	StartTime       *string `json:"startTime" validate:"omitempty,len=5"`
	DurationMinutes *int    `json:"durationMinutes" validate:"omitempty,min=1,max=1440"`
}

// SessionFilter narrows a session listing.
type SessionFilter struct {
	Week       int    `form:"week" json:"week"`
	Year       int    `form:"year" json:"year"`
	Room       string `form:"room" json:"room"`
	Instructor string `form:"instructor" json:"instructor"`
	Subject    string `form:"subject" json:"subject"`
}

// OptimizeRequest bounds the compaction pass.
type OptimizeRequest struct {
	MaxNodes int `json:"maxNodes" validate:"omitempty,min=1"`
}

// SaveTimetableRequest persists a generated timetable under a name.
type SaveTimetableRequest struct {
	Name string `json:"name" validate:"required,max=128"`
}

// SaveTimetableResponse identifies the stored version.
type SaveTimetableResponse struct {
	TimetableID string `json:"timetableId"`
	Name        string `json:"name"`
	Version     int    `json:"version"`
	Sessions    int    `json:"sessions"`
}

// ExportQuery selects the rendering of an export.
type ExportQuery struct {
	Format  string `form:"format" validate:"omitempty,oneof=csv pdf"`
	GroupBy string `form:"groupBy" validate:"omitempty,oneof=week instructor"`
}

// SessionView is the wire form of a scheduled session.
type SessionView struct {
	ID              string   `json:"id"`
	SubjectID       string   `json:"subjectId"`
	SubjectName     string   `json:"subjectName"`
	InstructorIDs   []string `json:"instructorIds"`
	RoomID          string   `json:"roomId"`
	RoomName        string   `json:"roomName"`
	Week            int      `json:"week"`
	Year            int      `json:"year"`
	Day             string   `json:"day"`
	StartTime       string   `json:"startTime"`
	EndTime         string   `json:"endTime"`
	DurationMinutes int      `json:"durationMinutes"`
	BlockID         string   `json:"blockId,omitempty"`
	Fixed           bool     `json:"fixed"`
	Date            string   `json:"date,omitempty"`
}

// OptimizationView reports the effect of a compaction pass.
type OptimizationView struct {
	GapMinutesBefore int  `json:"gapMinutesBefore"`
	GapMinutesAfter  int  `json:"gapMinutesAfter"`
	Improved         bool `json:"improved"`
}

// TimetableResponse describes a stored timetable.
type TimetableResponse struct {
	ID           string            `json:"id"`
	Complete     bool              `json:"complete"`
	Requested    int               `json:"requested"`
	Placed       int               `json:"placed"`
	Attempts     int               `json:"attempts"`
	Deficits     map[string]int    `json:"deficits,omitempty"`
	DurationMs   int64             `json:"durationMs"`
	GeneratedAt  time.Time         `json:"generatedAt"`
	Sessions     []SessionView     `json:"sessions"`
	Optimization *OptimizationView `json:"optimization,omitempty"`
}

// TimetableStatsResponse extends the summary counts with quality figures.
type TimetableStatsResponse struct {
	TotalSessions   int            `json:"totalSessions"`
	FixedSessions   int            `json:"fixedSessions"`
	RoomsUsed       int            `json:"roomsUsed"`
	InstructorsUsed int            `json:"instructorsUsed"`
	WeeksUsed       int            `json:"weeksUsed"`
	Valid           bool           `json:"isValid"`
	Complete        bool           `json:"complete"`
	GapMinutes      int            `json:"gapMinutes"`
	Deficits        map[string]int `json:"deficits,omitempty"`
}

// CatalogSummary counts the entities of the active catalog.
type CatalogSummary struct {
	Subjects         int    `json:"subjects"`
	Rooms            int    `json:"rooms"`
	Instructors      int    `json:"instructors"`
	Weeks            int    `json:"weeks"`
	RequiredSessions int    `json:"requiredSessions"`
	TermStart        string `json:"termStart,omitempty"`
}

// ExportFile is a rendered export. DownloadURL is set when the file was stored and signed.
type ExportFile struct {
	Filename    string     `json:"filename"`
	ContentType string     `json:"contentType"`
	Data        []byte     `json:"-"`
	StoredPath  string     `json:"-"`
	DownloadURL string     `json:"downloadUrl,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}
