package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// FeatureSet is an unordered set of room feature tags.
type FeatureSet map[string]struct{}

// NewFeatureSet normalises tags (trimmed, lower-cased) into a set.
func NewFeatureSet(tags ...string) FeatureSet {
	set := make(FeatureSet, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" {
			set[tag] = struct{}{}
		}
	}
	return set
}

// Has reports membership.
func (s FeatureSet) Has(tag string) bool {
	_, ok := s[strings.ToLower(strings.TrimSpace(tag))]
	return ok
}

// SubsetOf reports whether every tag in s is present in other.
func (s FeatureSet) SubsetOf(other FeatureSet) bool {
	for tag := range s {
		if _, ok := other[tag]; !ok {
			return false
		}
	}
	return true
}

// Missing lists tags of s absent from other, sorted.
func (s FeatureSet) Missing(other FeatureSet) []string {
	var missing []string
	for tag := range s {
		if _, ok := other[tag]; !ok {
			missing = append(missing, tag)
		}
	}
	sort.Strings(missing)
	return missing
}

// Sorted returns the tags in lexical order.
func (s FeatureSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for tag := range s {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// MarshalJSON renders a sorted array.
func (s FeatureSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON accepts an array of tags.
func (s *FeatureSet) UnmarshalJSON(data []byte) error {
	var tags []string
	if err := json.Unmarshal(data, &tags); err != nil {
		return err
	}
	*s = NewFeatureSet(tags...)
	return nil
}

// Room is a physical space sessions are placed into.
type Room struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Capacity     int          `json:"capacity"`
	Features     FeatureSet   `json:"features"`
	Availability Availability `json:"-"`
}

// IsAvailable delegates to the room's availability.
func (r *Room) IsAvailable(slot TimeSlot, date *Date) bool {
	return r.Availability.IsAvailable(slot, date)
}

// Instructor is a lecturer who may be required by several subjects.
type Instructor struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	MaxHoursPerWeek int          `json:"max_hours_per_week,omitempty"`
	Availability    Availability `json:"-"`
}

// IsAvailable delegates to the instructor's availability.
func (i *Instructor) IsAvailable(slot TimeSlot, date *Date) bool {
	return i.Availability.IsAvailable(slot, date)
}

// Subject is a teaching activity that needs a number of placements.
type Subject struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	DurationMinutes  int         `json:"duration_minutes"`
	InstructorIDs    []string    `json:"instructor_ids"`
	MinCapacity      int         `json:"min_capacity"`
	RequiredFeatures FeatureSet  `json:"required_features"`
	PreferredDays    []DayOfWeek `json:"preferred_days,omitempty"`
	SessionsPerWeek  int         `json:"sessions_per_week"`
	RequiredHours    int         `json:"required_hours,omitempty"`
}

// RequiredSessions resolves either framing ("sessions per week" or "total hours") into a placement count.
func (s *Subject) RequiredSessions() int {
	if s.SessionsPerWeek > 0 {
		return s.SessionsPerWeek
	}
	if s.RequiredHours > 0 && s.DurationMinutes > 0 {
		minutes := s.RequiredHours * 60
		return (minutes + s.DurationMinutes - 1) / s.DurationMinutes
	}
	return 0
}

// AllowsDay applies the preferred-day list; an empty list admits every day.
func (s *Subject) AllowsDay(day DayOfWeek) bool {
	if len(s.PreferredDays) == 0 {
		return true
	}
	for _, d := range s.PreferredDays {
		if d == day {
			return true
		}
	}
	return false
}

// HasInstructor reports whether the instructor is required by the subject.
func (s *Subject) HasInstructor(id string) bool {
	for _, candidate := range s.InstructorIDs {
		if candidate == id {
			return true
		}
	}
	return false
}

// SharesInstructor reports whether the two subjects require a common instructor.
func (s *Subject) SharesInstructor(other *Subject) bool {
	for _, id := range s.InstructorIDs {
		if other.HasInstructor(id) {
			return true
		}
	}
	return false
}

// SessionSlot fits the subject into a block slot starting at the slot start.
// It returns false when the subject is longer than the slot.
func (s *Subject) SessionSlot(slot TimeSlot) (TimeSlot, bool) {
	if s.DurationMinutes <= 0 || s.DurationMinutes == slot.DurationMinutes {
		return slot, true
	}
	if s.DurationMinutes > slot.DurationMinutes {
		return TimeSlot{}, false
	}
	return TimeSlot{Day: slot.Day, StartMinute: slot.StartMinute, DurationMinutes: s.DurationMinutes}, true
}

// Block is a named structural period made of one or more slots.
type Block struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Slots []TimeSlot `json:"slots"`
}

// WeekKey identifies a week; two weeks are equal iff number and year match.
type WeekKey struct {
	Number int `json:"number"`
	Year   int `json:"year"`
}

func (k WeekKey) String() string {
	return fmt.Sprintf("Week %d, %d", k.Number, k.Year)
}

// Week owns the blocks available during that week.
type Week struct {
	Number int     `json:"number"`
	Year   int     `json:"year"`
	Blocks []Block `json:"blocks"`
}

// Key returns the identity of the week.
func (w Week) Key() WeekKey {
	return WeekKey{Number: w.Number, Year: w.Year}
}

// CatalogError reports an invalid entity or a dangling reference.
type CatalogError struct {
	Entity string
	ID     string
	Reason string
}

func (e *CatalogError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.ID == "" {
		return fmt.Sprintf("%s: %s", e.Entity, e.Reason)
	}
	return fmt.Sprintf("%s %s: %s", e.Entity, e.ID, e.Reason)
}

// CatalogInput carries the raw entities a loader produced.
type CatalogInput struct {
	Subjects    []*Subject
	Rooms       []*Room
	Instructors []*Instructor
	Weeks       []Week
	TermStart   *time.Time
}

// Catalog is the read-only, identity-indexed set of entities for one scheduling run.
type Catalog struct {
	subjects    []*Subject
	rooms       []*Room
	instructors []*Instructor
	weeks       []Week

	subjectByID    map[string]*Subject
	roomByID       map[string]*Room
	instructorByID map[string]*Instructor
	weekByKey      map[WeekKey]int

	termStart *time.Time
}

// NewCatalog validates the entities and indexes them, preserving input order.
func NewCatalog(in CatalogInput) (*Catalog, error) {
	c := &Catalog{
		subjectByID:    make(map[string]*Subject, len(in.Subjects)),
		roomByID:       make(map[string]*Room, len(in.Rooms)),
		instructorByID: make(map[string]*Instructor, len(in.Instructors)),
		weekByKey:      make(map[WeekKey]int, len(in.Weeks)),
		termStart:      in.TermStart,
	}

	for _, room := range in.Rooms {
		if room == nil || room.ID == "" {
			return nil, &CatalogError{Entity: "room", Reason: "id is required"}
		}
		if room.Capacity < 0 {
			return nil, &CatalogError{Entity: "room", ID: room.ID, Reason: "capacity must not be negative"}
		}
		if _, dup := c.roomByID[room.ID]; dup {
			return nil, &CatalogError{Entity: "room", ID: room.ID, Reason: "duplicate id"}
		}
		if room.Features == nil {
			room.Features = NewFeatureSet()
		}
		c.roomByID[room.ID] = room
		c.rooms = append(c.rooms, room)
	}

	for _, instructor := range in.Instructors {
		if instructor == nil || instructor.ID == "" {
			return nil, &CatalogError{Entity: "instructor", Reason: "id is required"}
		}
		if _, dup := c.instructorByID[instructor.ID]; dup {
			return nil, &CatalogError{Entity: "instructor", ID: instructor.ID, Reason: "duplicate id"}
		}
		for _, slot := range instructor.Availability.Slots {
			if err := slot.Validate(); err != nil {
				return nil, &CatalogError{Entity: "instructor", ID: instructor.ID, Reason: err.Error()}
			}
		}
		c.instructorByID[instructor.ID] = instructor
		c.instructors = append(c.instructors, instructor)
	}

	for _, subject := range in.Subjects {
		if subject == nil || subject.ID == "" {
			return nil, &CatalogError{Entity: "subject", Reason: "id is required"}
		}
		if _, dup := c.subjectByID[subject.ID]; dup {
			return nil, &CatalogError{Entity: "subject", ID: subject.ID, Reason: "duplicate id"}
		}
		if subject.DurationMinutes < 0 {
			return nil, &CatalogError{Entity: "subject", ID: subject.ID, Reason: "duration must not be negative"}
		}
		if subject.SessionsPerWeek < 0 || subject.RequiredHours < 0 || subject.MinCapacity < 0 {
			return nil, &CatalogError{Entity: "subject", ID: subject.ID, Reason: "sessions, hours and capacity must not be negative"}
		}
		if subject.SessionsPerWeek == 0 && subject.RequiredHours > 0 && subject.DurationMinutes == 0 {
			return nil, &CatalogError{Entity: "subject", ID: subject.ID, Reason: "required hours need a positive duration"}
		}
		for _, id := range subject.InstructorIDs {
			if _, ok := c.instructorByID[id]; !ok {
				return nil, &CatalogError{Entity: "subject", ID: subject.ID, Reason: fmt.Sprintf("unknown instructor %s", id)}
			}
		}
		for _, day := range subject.PreferredDays {
			if !day.Valid() {
				return nil, &CatalogError{Entity: "subject", ID: subject.ID, Reason: fmt.Sprintf("invalid preferred day %d", int(day))}
			}
		}
		if subject.RequiredFeatures == nil {
			subject.RequiredFeatures = NewFeatureSet()
		}
		c.subjectByID[subject.ID] = subject
		c.subjects = append(c.subjects, subject)
	}

	for _, week := range in.Weeks {
		key := week.Key()
		if _, dup := c.weekByKey[key]; dup {
			return nil, &CatalogError{Entity: "week", ID: key.String(), Reason: "duplicate week"}
		}
		for _, block := range week.Blocks {
			for _, slot := range block.Slots {
				if err := slot.Validate(); err != nil {
					return nil, &CatalogError{Entity: "block", ID: block.ID, Reason: err.Error()}
				}
			}
		}
		c.weekByKey[key] = len(c.weeks)
		c.weeks = append(c.weeks, week)
	}

	return c, nil
}

// Subjects returns subjects in catalog order.
func (c *Catalog) Subjects() []*Subject { return c.subjects }

// Rooms returns rooms in catalog order.
func (c *Catalog) Rooms() []*Room { return c.rooms }

// Instructors returns instructors in catalog order.
func (c *Catalog) Instructors() []*Instructor { return c.instructors }

// Weeks returns weeks in catalog order.
func (c *Catalog) Weeks() []Week { return c.weeks }

// TermStart is the date of week 1 used to resolve calendar dates, if configured.
func (c *Catalog) TermStart() *time.Time { return c.termStart }

// Subject looks up a subject by id.
func (c *Catalog) Subject(id string) (*Subject, bool) {
	s, ok := c.subjectByID[id]
	return s, ok
}

// Room looks up a room by id.
func (c *Catalog) Room(id string) (*Room, bool) {
	r, ok := c.roomByID[id]
	return r, ok
}

// Instructor looks up an instructor by id.
func (c *Catalog) Instructor(id string) (*Instructor, bool) {
	i, ok := c.instructorByID[id]
	return i, ok
}

// Week looks up a week by key.
func (c *Catalog) Week(key WeekKey) (Week, bool) {
	idx, ok := c.weekByKey[key]
	if !ok {
		return Week{}, false
	}
	return c.weeks[idx], true
}

// SubjectInstructors resolves the subject's instructor references.
func (c *Catalog) SubjectInstructors(subject *Subject) []*Instructor {
	out := make([]*Instructor, 0, len(subject.InstructorIDs))
	for _, id := range subject.InstructorIDs {
		if instructor, ok := c.instructorByID[id]; ok {
			out = append(out, instructor)
		}
	}
	return out
}

// DateFor resolves the calendar date of a slot in a week when a term start is configured.
func (c *Catalog) DateFor(week WeekKey, day DayOfWeek) *Date {
	if c.termStart == nil {
		return nil
	}
	d := DateOf(ResolveDate(week.Number, day, *c.termStart))
	return &d
}
