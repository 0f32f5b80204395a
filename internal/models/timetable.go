package models

import "sort"

// ScheduledSession places one occurrence of a subject into a slot, room and week.
// Sessions are treated as immutable values; edits build a replacement.
type ScheduledSession struct {
	ID      string
	Subject *Subject
	Slot    TimeSlot
	Room    *Room
	Week    WeekKey
	BlockID string
	Fixed   bool
	Date    *Date
}

// WithSlot returns a copy placed at a different slot; the resolved date is cleared.
func (s *ScheduledSession) WithSlot(slot TimeSlot) *ScheduledSession {
	clone := *s
	clone.Slot = slot
	clone.Date = nil
	return &clone
}

// WithRoom returns a copy placed in a different room.
func (s *ScheduledSession) WithRoom(room *Room) *ScheduledSession {
	clone := *s
	clone.Room = room
	return &clone
}

// WithWeek returns a copy placed in a different week; the resolved date is cleared.
func (s *ScheduledSession) WithWeek(week WeekKey) *ScheduledSession {
	clone := *s
	clone.Week = week
	clone.Date = nil
	return &clone
}

// ConflictDimension names the shared resource behind a conflict.
type ConflictDimension string

const (
	DimensionRoom       ConflictDimension = "ROOM"
	DimensionInstructor ConflictDimension = "INSTRUCTOR"
)

// Conflict classifies a clash with other; ok is false when the sessions can coexist.
// Only the same pointer counts as itself; a relocated copy is checked against a set without its original.
func (s *ScheduledSession) Conflict(other *ScheduledSession) (ConflictDimension, bool) {
	if s == other {
		return "", false
	}
	if s.Week != other.Week {
		return "", false
	}
	if !s.Slot.Overlaps(other.Slot) {
		return "", false
	}
	if s.Room != nil && other.Room != nil && s.Room.ID == other.Room.ID {
		return DimensionRoom, true
	}
	if s.Subject != nil && other.Subject != nil && s.Subject.SharesInstructor(other.Subject) {
		return DimensionInstructor, true
	}
	return "", false
}

// ConflictsWith reports whether the sessions clash on room or instructor in the same week.
func (s *ScheduledSession) ConflictsWith(other *ScheduledSession) bool {
	_, clash := s.Conflict(other)
	return clash
}

// TimetableStats summarises an assignment set.
type TimetableStats struct {
	TotalSessions   int  `json:"total_sessions"`
	FixedSessions   int  `json:"fixed_sessions"`
	RoomsUsed       int  `json:"rooms_used"`
	InstructorsUsed int  `json:"instructors_used"`
	WeeksUsed       int  `json:"weeks_used"`
	Valid           bool `json:"is_valid"`
}

// Timetable is an ordered set of sessions. It is not safe for concurrent mutation.
type Timetable struct {
	sessions []*ScheduledSession
}

// NewTimetable seeds a timetable without checking conflicts.
func NewTimetable(sessions ...*ScheduledSession) *Timetable {
	t := &Timetable{sessions: make([]*ScheduledSession, 0, len(sessions))}
	t.sessions = append(t.sessions, sessions...)
	return t
}

// Len returns the number of sessions.
func (t *Timetable) Len() int { return len(t.sessions) }

// Sessions returns a copy of the ordered session list.
func (t *Timetable) Sessions() []*ScheduledSession {
	out := make([]*ScheduledSession, len(t.sessions))
	copy(out, t.sessions)
	return out
}

// Clone copies the membership; sessions are shared because they are immutable.
func (t *Timetable) Clone() *Timetable {
	return NewTimetable(t.sessions...)
}

// Insert appends without checking conflicts.
func (t *Timetable) Insert(s *ScheduledSession) {
	t.sessions = append(t.sessions, s)
}

// Add appends the session unless it conflicts with any member.
func (t *Timetable) Add(s *ScheduledSession) bool {
	for _, existing := range t.sessions {
		if s.ConflictsWith(existing) {
			return false
		}
	}
	t.sessions = append(t.sessions, s)
	return true
}

// Pop removes the most recently appended session.
func (t *Timetable) Pop() *ScheduledSession {
	if len(t.sessions) == 0 {
		return nil
	}
	last := t.sessions[len(t.sessions)-1]
	t.sessions[len(t.sessions)-1] = nil
	t.sessions = t.sessions[:len(t.sessions)-1]
	return last
}

// Find returns the session with the given id.
func (t *Timetable) Find(id string) (*ScheduledSession, bool) {
	for _, s := range t.sessions {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// Remove deletes the session with the given id, preserving order.
func (t *Timetable) Remove(id string) (*ScheduledSession, bool) {
	for idx, s := range t.sessions {
		if s.ID == id {
			t.sessions = append(t.sessions[:idx], t.sessions[idx+1:]...)
			return s, true
		}
	}
	return nil, false
}

// Replace swaps the session with the given id in place.
func (t *Timetable) Replace(id string, replacement *ScheduledSession) bool {
	for idx, s := range t.sessions {
		if s.ID == id {
			t.sessions[idx] = replacement
			return true
		}
	}
	return false
}

// Filter returns the sessions matching the predicate, in order.
func (t *Timetable) Filter(keep func(*ScheduledSession) bool) []*ScheduledSession {
	var out []*ScheduledSession
	for _, s := range t.sessions {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}

// ByWeek lists sessions in a week.
func (t *Timetable) ByWeek(week WeekKey) []*ScheduledSession {
	return t.Filter(func(s *ScheduledSession) bool { return s.Week == week })
}

// ByRoom lists sessions in a room.
func (t *Timetable) ByRoom(roomID string) []*ScheduledSession {
	return t.Filter(func(s *ScheduledSession) bool { return s.Room != nil && s.Room.ID == roomID })
}

// ByInstructor lists sessions whose subject requires the instructor.
func (t *Timetable) ByInstructor(instructorID string) []*ScheduledSession {
	return t.Filter(func(s *ScheduledSession) bool { return s.Subject != nil && s.Subject.HasInstructor(instructorID) })
}

// CountBySubject counts placements per subject id.
func (t *Timetable) CountBySubject() map[string]int {
	counts := make(map[string]int)
	for _, s := range t.sessions {
		if s.Subject != nil {
			counts[s.Subject.ID]++
		}
	}
	return counts
}

// IsValid reports whether no pair of sessions conflicts.
func (t *Timetable) IsValid() bool {
	for i, a := range t.sessions {
		for _, b := range t.sessions[i+1:] {
			if a.ConflictsWith(b) {
				return false
			}
		}
	}
	return true
}

// Statistics computes summary counts.
func (t *Timetable) Statistics() TimetableStats {
	rooms := make(map[string]struct{})
	instructors := make(map[string]struct{})
	weeks := make(map[WeekKey]struct{})
	fixed := 0
	for _, s := range t.sessions {
		if s.Fixed {
			fixed++
		}
		if s.Room != nil {
			rooms[s.Room.ID] = struct{}{}
		}
		if s.Subject != nil {
			for _, id := range s.Subject.InstructorIDs {
				instructors[id] = struct{}{}
			}
		}
		weeks[s.Week] = struct{}{}
	}
	return TimetableStats{
		TotalSessions:   len(t.sessions),
		FixedSessions:   fixed,
		RoomsUsed:       len(rooms),
		InstructorsUsed: len(instructors),
		WeeksUsed:       len(weeks),
		Valid:           t.IsValid(),
	}
}

// SortedSessions orders sessions by week, day, start then room for presentation.
func (t *Timetable) SortedSessions() []*ScheduledSession {
	out := t.Sessions()
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Week.Year != b.Week.Year {
			return a.Week.Year < b.Week.Year
		}
		if a.Week.Number != b.Week.Number {
			return a.Week.Number < b.Week.Number
		}
		if a.Slot.Day != b.Slot.Day {
			return a.Slot.Day < b.Slot.Day
		}
		if a.Slot.StartMinute != b.Slot.StartMinute {
			return a.Slot.StartMinute < b.Slot.StartMinute
		}
		return roomID(a) < roomID(b)
	})
	return out
}

func roomID(s *ScheduledSession) string {
	if s.Room == nil {
		return ""
	}
	return s.Room.ID
}
