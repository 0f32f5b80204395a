package loader

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/noah-isme/timetable-scheduler/internal/models"
)

// Document is the JSON catalog format.
type Document struct {
	ScheduleConfig ScheduleConfig    `json:"schedule_config"`
	Rooms          []RoomDoc         `json:"rooms"`
	Lecturers      []LecturerDoc     `json:"lecturers"`
	Subjects       []SubjectDoc      `json:"subjects"`
	Blocks         []BlockDoc        `json:"blocks"`
	FixedSessions  []FixedSessionDoc `json:"fixed_sessions"`
}

// ScheduleConfig carries the calendar frame of the catalog.
type ScheduleConfig struct {
	StartDate string `json:"start_date"`
	Weeks     int    `json:"weeks"`
	FirstWeek int    `json:"first_week"`
	Year      int    `json:"year"`
}

// SlotDoc is a clock-based slot.
type SlotDoc struct {
	Day       string `json:"day"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// DateSpec opens a single date, optionally limited to one half of the day.
type DateSpec struct {
	Date      string `json:"date"`
	Morning   *bool  `json:"morning"`
	Afternoon *bool  `json:"afternoon"`
}

// RangeSpec opens an inclusive date range.
type RangeSpec struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	Morning   *bool  `json:"morning"`
	Afternoon *bool  `json:"afternoon"`
}

// TimeRestrictions is the date-scoped availability of a lecturer or room.
// Type is "specific_dates" (default) or "date_ranges".
type TimeRestrictions struct {
	Type             string      `json:"type"`
	AvailableDates   []DateSpec  `json:"available_dates"`
	AvailableRanges  []RangeSpec `json:"available_ranges"`
	UnavailableDates []string    `json:"unavailable_dates"`
}

// RoomDoc describes a room.
type RoomDoc struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Capacity         int               `json:"capacity"`
	Features         []string          `json:"features"`
	AvailableSlots   []SlotDoc         `json:"available_slots"`
	TimeRestrictions *TimeRestrictions `json:"time_restrictions"`
}

// LecturerDoc describes an instructor.
type LecturerDoc struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	MaxHoursPerWeek  int               `json:"max_hours_per_week"`
	AvailableSlots   []SlotDoc         `json:"available_slots"`
	TimeRestrictions *TimeRestrictions `json:"time_restrictions"`
}

// SubjectDoc describes a subject. LecturerID is shorthand for a single instructor.
type SubjectDoc struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	LecturerID       string   `json:"lecturer_id"`
	InstructorIDs    []string `json:"instructor_ids"`
	DurationMinutes  int      `json:"duration_minutes"`
	SessionsPerWeek  int      `json:"sessions_per_week"`
	RequiredHours    int      `json:"required_hours"`
	MinStudents      int      `json:"min_students"`
	RequiredFeatures []string `json:"required_features"`
	PreferredDays    []string `json:"preferred_days"`
}

// BlockDoc contributes one slot to the block named by ID.
type BlockDoc struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Day       string `json:"day"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// FixedSessionDoc pre-places a subject.
type FixedSessionDoc struct {
	ID        string `json:"id"`
	SubjectID string `json:"subject_id"`
	RoomID    string `json:"room_id"`
	Week      int    `json:"week"`
	Year      int    `json:"year"`
	Day       string `json:"day"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	BlockID   string `json:"block_id"`
}

// LoadJSONFile reads a JSON catalog from disk.
func LoadJSONFile(path string, opts Options) (*Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	defer file.Close() //nolint:errcheck
	return LoadJSON(file, opts)
}

// LoadJSON decodes and builds a catalog from r.
func LoadJSON(r io.Reader, opts Options) (*Result, error) {
	var doc Document
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return doc.Build(opts)
}

// Build converts the document into a catalog. Values in schedule_config override opts.
func (d Document) Build(opts Options) (*Result, error) {
	if d.ScheduleConfig.StartDate != "" {
		start, err := time.Parse("2006-01-02", d.ScheduleConfig.StartDate)
		if err != nil {
			return nil, fmt.Errorf("schedule_config.start_date: %w", err)
		}
		opts.TermStart = &start
	}
	if d.ScheduleConfig.Weeks > 0 {
		opts.Weeks = d.ScheduleConfig.Weeks
	}
	if d.ScheduleConfig.FirstWeek > 0 {
		opts.FirstWeek = d.ScheduleConfig.FirstWeek
	}
	if d.ScheduleConfig.Year > 0 {
		opts.Year = d.ScheduleConfig.Year
	}
	opts = opts.normalize()

	input := models.CatalogInput{TermStart: opts.TermStart}

	for _, doc := range d.Rooms {
		availability, err := buildAvailability(doc.AvailableSlots, doc.TimeRestrictions)
		if err != nil {
			return nil, fmt.Errorf("room %s: %w", doc.ID, err)
		}
		input.Rooms = append(input.Rooms, &models.Room{
			ID:           doc.ID,
			Name:         doc.Name,
			Capacity:     doc.Capacity,
			Features:     models.NewFeatureSet(doc.Features...),
			Availability: availability,
		})
	}

	for _, doc := range d.Lecturers {
		availability, err := buildAvailability(doc.AvailableSlots, doc.TimeRestrictions)
		if err != nil {
			return nil, fmt.Errorf("lecturer %s: %w", doc.ID, err)
		}
		input.Instructors = append(input.Instructors, &models.Instructor{
			ID:              doc.ID,
			Name:            doc.Name,
			MaxHoursPerWeek: doc.MaxHoursPerWeek,
			Availability:    availability,
		})
	}

	for _, doc := range d.Subjects {
		days, err := parseDays(doc.PreferredDays)
		if err != nil {
			return nil, fmt.Errorf("subject %s: %w", doc.ID, err)
		}
		instructors := append([]string(nil), doc.InstructorIDs...)
		if doc.LecturerID != "" {
			instructors = append([]string{doc.LecturerID}, instructors...)
		}
		duration := doc.DurationMinutes
		if duration == 0 {
			duration = 60
		}
		input.Subjects = append(input.Subjects, &models.Subject{
			ID:               doc.ID,
			Name:             doc.Name,
			DurationMinutes:  duration,
			InstructorIDs:    instructors,
			MinCapacity:      doc.MinStudents,
			RequiredFeatures: models.NewFeatureSet(doc.RequiredFeatures...),
			PreferredDays:    days,
			SessionsPerWeek:  doc.SessionsPerWeek,
			RequiredHours:    doc.RequiredHours,
		})
	}

	blocks := defaultBlocks()
	if len(d.Blocks) > 0 {
		ids := make([]string, 0, len(d.Blocks))
		names := make([]string, 0, len(d.Blocks))
		slots := make([]models.TimeSlot, 0, len(d.Blocks))
		for _, doc := range d.Blocks {
			if doc.ID == "" {
				return nil, fmt.Errorf("block id is required")
			}
			slot, err := slotFromClock(doc.Day, doc.StartTime, doc.EndTime)
			if err != nil {
				return nil, fmt.Errorf("block %s: %w", doc.ID, err)
			}
			ids = append(ids, doc.ID)
			names = append(names, doc.Name)
			slots = append(slots, slot)
		}
		blocks = groupBlocks(ids, names, slots)
	}
	input.Weeks = models.BuildWeeks(opts.FirstWeek, opts.Weeks, opts.Year, blocks)

	catalog, err := models.NewCatalog(input)
	if err != nil {
		return nil, err
	}

	fixed := make([]*models.ScheduledSession, 0, len(d.FixedSessions))
	seen := make(map[string]struct{}, len(d.FixedSessions))
	for _, doc := range d.FixedSessions {
		if doc.ID != "" {
			if _, dup := seen[doc.ID]; dup {
				return nil, &models.CatalogError{Entity: "fixed session", ID: doc.ID, Reason: "duplicate id"}
			}
			seen[doc.ID] = struct{}{}
		}
		session, err := fixedSession(catalog, doc, opts)
		if err != nil {
			return nil, err
		}
		fixed = append(fixed, session)
	}

	return &Result{Catalog: catalog, Fixed: fixed}, nil
}

func fixedSession(catalog *models.Catalog, doc FixedSessionDoc, opts Options) (*models.ScheduledSession, error) {
	subject, ok := catalog.Subject(doc.SubjectID)
	if !ok {
		return nil, &models.CatalogError{Entity: "fixed session", ID: doc.ID, Reason: fmt.Sprintf("unknown subject %s", doc.SubjectID)}
	}
	room, ok := catalog.Room(doc.RoomID)
	if !ok {
		return nil, &models.CatalogError{Entity: "fixed session", ID: doc.ID, Reason: fmt.Sprintf("unknown room %s", doc.RoomID)}
	}
	slot, err := slotFromClock(doc.Day, doc.StartTime, doc.EndTime)
	if err != nil {
		return nil, &models.CatalogError{Entity: "fixed session", ID: doc.ID, Reason: err.Error()}
	}
	week := models.WeekKey{Number: doc.Week, Year: doc.Year}
	if week.Number == 0 {
		week.Number = opts.FirstWeek
	}
	if week.Year == 0 {
		week.Year = opts.Year
	}
	return &models.ScheduledSession{
		ID:      doc.ID,
		Subject: subject,
		Room:    room,
		Slot:    slot,
		Week:    week,
		BlockID: doc.BlockID,
		Fixed:   true,
	}, nil
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

func buildAvailability(slots []SlotDoc, restrictions *TimeRestrictions) (models.Availability, error) {
	var availability models.Availability
	for _, doc := range slots {
		slot, err := slotFromClock(doc.Day, doc.StartTime, doc.EndTime)
		if err != nil {
			return models.Availability{}, err
		}
		availability.Slots = append(availability.Slots, slot)
	}
	if restrictions == nil {
		return availability, nil
	}

	builder := models.NewAvailabilityBuilder()
	switch restrictions.Type {
	case "", "specific_dates":
		for _, spec := range restrictions.AvailableDates {
			date, err := models.ParseDate(spec.Date)
			if err != nil {
				return models.Availability{}, err
			}
			builder.AddAvailableDate(date, boolOr(spec.Morning, true), boolOr(spec.Afternoon, true))
		}
	case "date_ranges":
		for _, spec := range restrictions.AvailableRanges {
			start, err := models.ParseDate(spec.Start)
			if err != nil {
				return models.Availability{}, err
			}
			end, err := models.ParseDate(spec.End)
			if err != nil {
				return models.Availability{}, err
			}
			if end.Before(start) {
				return models.Availability{}, fmt.Errorf("date range %s..%s ends before it starts", spec.Start, spec.End)
			}
			builder.AddAvailableDateRange(start, end, boolOr(spec.Morning, true), boolOr(spec.Afternoon, true))
		}
	default:
		return models.Availability{}, fmt.Errorf("unknown time restriction type %q", restrictions.Type)
	}
	for _, raw := range restrictions.UnavailableDates {
		date, err := models.ParseDate(raw)
		if err != nil {
			return models.Availability{}, err
		}
		builder.AddUnavailableDate(date)
	}
	availability.Dates = builder.Build()
	return availability, nil
}
