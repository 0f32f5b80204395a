package models

import (
	"fmt"
	"strings"
	"time"
)

// DayOfWeek enumerates weekdays starting at Monday = 0.
type DayOfWeek int

const (
	Monday DayOfWeek = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var dayNames = [...]string{"MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY", "SATURDAY", "SUNDAY"}

// Valid reports whether the day is one of the seven enumerated values.
func (d DayOfWeek) Valid() bool {
	return d >= Monday && d <= Sunday
}

func (d DayOfWeek) String() string {
	if !d.Valid() {
		return fmt.Sprintf("DAY(%d)", int(d))
	}
	return dayNames[d]
}

// Weekday converts to the time package representation.
func (d DayOfWeek) Weekday() time.Weekday {
	return time.Weekday((int(d) + 1) % 7)
}

// DayOfWeekFromWeekday converts a time.Weekday into the Monday based enumeration.
func DayOfWeekFromWeekday(w time.Weekday) DayOfWeek {
	return DayOfWeek((int(w) + 6) % 7)
}

// ParseDayOfWeek accepts upper/lower case day names ("monday", "MON").
func ParseDayOfWeek(raw string) (DayOfWeek, error) {
	value := strings.ToUpper(strings.TrimSpace(raw))
	if value == "" {
		return 0, fmt.Errorf("empty day of week")
	}
	for idx, name := range dayNames {
		if name == value || (len(value) >= 3 && strings.HasPrefix(name, value)) {
			return DayOfWeek(idx), nil
		}
	}
	return 0, fmt.Errorf("unknown day of week %q", raw)
}

// MarshalText renders the day name.
func (d DayOfWeek) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid day of week %d", int(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText parses a day name.
func (d *DayOfWeek) UnmarshalText(text []byte) error {
	parsed, err := ParseDayOfWeek(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// TimeOfDay buckets a start hour for date-scoped availability.
type TimeOfDay string

const (
	Morning   TimeOfDay = "MORNING"
	Afternoon TimeOfDay = "AFTERNOON"
)

// TimeOfDayForHour classifies an hour: [8,12) morning, [12,18) afternoon.
func TimeOfDayForHour(hour int) (TimeOfDay, bool) {
	switch {
	case hour >= 8 && hour < 12:
		return Morning, true
	case hour >= 12 && hour < 18:
		return Afternoon, true
	default:
		return "", false
	}
}

// TimeOfDayFromClock classifies an "HH:MM" clock string.
func TimeOfDayFromClock(raw string) (TimeOfDay, bool) {
	parsed, err := time.Parse("15:04", strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	return TimeOfDayForHour(parsed.Hour())
}

// TimeSlot is a day plus a half-open [start, start+duration) interval in minutes since midnight.
type TimeSlot struct {
	Day             DayOfWeek `json:"day"`
	StartMinute     int       `json:"start_minute"`
	DurationMinutes int       `json:"duration_minutes"`
}

// NewTimeSlot builds a slot from an hour/minute start.
func NewTimeSlot(day DayOfWeek, hour, minute, duration int) TimeSlot {
	return TimeSlot{Day: day, StartMinute: hour*60 + minute, DurationMinutes: duration}
}

// Validate rejects slots that cannot take part in scheduling.
func (s TimeSlot) Validate() error {
	if !s.Day.Valid() {
		return fmt.Errorf("invalid day of week %d", int(s.Day))
	}
	if s.DurationMinutes <= 0 {
		return fmt.Errorf("slot duration must be > 0, got %d", s.DurationMinutes)
	}
	if s.StartMinute < 0 || s.StartMinute >= 24*60 {
		return fmt.Errorf("slot start %d outside the day", s.StartMinute)
	}
	return nil
}

// End returns the exclusive end minute.
func (s TimeSlot) End() int {
	return s.StartMinute + s.DurationMinutes
}

// StartHour returns the hour component of the start.
func (s TimeSlot) StartHour() int {
	return s.StartMinute / 60
}

// Overlaps reports whether both slots share a day and their intervals intersect.
func (s TimeSlot) Overlaps(other TimeSlot) bool {
	if s.Day != other.Day {
		return false
	}
	return s.StartMinute < other.End() && other.StartMinute < s.End()
}

// Contains reports whether other lies entirely within s.
func (s TimeSlot) Contains(other TimeSlot) bool {
	if s.Day != other.Day {
		return false
	}
	return s.StartMinute <= other.StartMinute && other.End() <= s.End()
}

// TimeOfDay derives the bucket from the start hour; false when the hour falls outside both buckets.
func (s TimeSlot) TimeOfDay() (TimeOfDay, bool) {
	return TimeOfDayForHour(s.StartHour())
}

// Clock formats the start as HH:MM.
func (s TimeSlot) Clock() string {
	return fmt.Sprintf("%02d:%02d", s.StartMinute/60, s.StartMinute%60)
}

// EndClock formats the end as HH:MM.
func (s TimeSlot) EndClock() string {
	end := s.End()
	return fmt.Sprintf("%02d:%02d", end/60, end%60)
}

func (s TimeSlot) String() string {
	return fmt.Sprintf("%s %s (%dmin)", s.Day, s.Clock(), s.DurationMinutes)
}

// ResolveDate maps a 1-based week number and weekday onto an absolute date relative to the term start.
// It panics on a weekday outside Monday..Sunday.
func ResolveDate(weekNumber int, day DayOfWeek, start time.Time) time.Time {
	if !day.Valid() {
		panic(fmt.Sprintf("models: invalid day of week %d", int(day)))
	}
	base := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	startDay := DayOfWeekFromWeekday(base.Weekday())
	offset := (int(day) - int(startDay) + 7) % 7
	return base.AddDate(0, 0, 7*(weekNumber-1)+offset)
}
