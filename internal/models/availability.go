package models

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar day without time or location.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf truncates a time to its calendar day.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(raw string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(raw))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", raw, err)
	}
	return DateOf(t), nil
}

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// AddDays returns the date shifted by n days.
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	return d.Time().Before(other.Time())
}

func (d Date) String() string {
	return d.Time().Format(dateLayout)
}

// MarshalText renders YYYY-MM-DD.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText parses YYYY-MM-DD.
func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// TimeOfDaySet is an unordered set of buckets.
type TimeOfDaySet map[TimeOfDay]struct{}

// NewTimeOfDaySet builds a set from the given buckets.
func NewTimeOfDaySet(values ...TimeOfDay) TimeOfDaySet {
	set := make(TimeOfDaySet, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// Has reports membership.
func (s TimeOfDaySet) Has(v TimeOfDay) bool {
	_, ok := s[v]
	return ok
}

// DateRestriction scopes availability to calendar dates and time-of-day buckets.
// Exclusions win over inclusions; an empty inclusion set admits every non-excluded date.
type DateRestriction struct {
	Available   map[Date]struct{}
	Unavailable map[Date]struct{}
	Overrides   map[Date]TimeOfDaySet
	Default     TimeOfDaySet
}

// NewDateRestriction returns a restriction that admits mornings and afternoons on every date.
func NewDateRestriction() *DateRestriction {
	return &DateRestriction{
		Available:   make(map[Date]struct{}),
		Unavailable: make(map[Date]struct{}),
		Overrides:   make(map[Date]TimeOfDaySet),
		Default:     NewTimeOfDaySet(Morning, Afternoon),
	}
}

// AllowsDate applies the inclusion and exclusion sets only.
func (r *DateRestriction) AllowsDate(date Date) bool {
	if _, excluded := r.Unavailable[date]; excluded {
		return false
	}
	if len(r.Available) > 0 {
		if _, included := r.Available[date]; !included {
			return false
		}
	}
	return true
}

// Allows checks the date and the slot's time-of-day bucket.
func (r *DateRestriction) Allows(date Date, slot TimeSlot) bool {
	if !r.AllowsDate(date) {
		return false
	}
	bucket, ok := slot.TimeOfDay()
	if !ok {
		return false
	}
	buckets, overridden := r.Overrides[date]
	if !overridden {
		buckets = r.Default
	}
	return buckets.Has(bucket)
}

// Availability combines a slot allow-list with an optional date restriction.
// Both layers are optional; when both apply both must pass.
type Availability struct {
	Slots []TimeSlot
	Dates *DateRestriction
}

// IsAvailable answers whether the entity can take the slot, optionally on a concrete date.
// A slot must be contained in one allowed slot; the date layer is only evaluated when a date is given.
func (a Availability) IsAvailable(slot TimeSlot, date *Date) bool {
	if len(a.Slots) > 0 {
		contained := false
		for _, allowed := range a.Slots {
			if allowed.Contains(slot) {
				contained = true
				break
			}
		}
		if !contained {
			return false
		}
	}
	if a.Dates != nil && date != nil {
		return a.Dates.Allows(*date, slot)
	}
	return true
}

// AvailabilityBuilder assembles a DateRestriction incrementally.
type AvailabilityBuilder struct {
	available        map[Date]struct{}
	unavailable      map[Date]struct{}
	overrides        map[Date]TimeOfDaySet
	defaultMorning   bool
	defaultAfternoon bool
}

// NewAvailabilityBuilder starts with mornings and afternoons allowed by default.
func NewAvailabilityBuilder() *AvailabilityBuilder {
	return &AvailabilityBuilder{
		available:        make(map[Date]struct{}),
		unavailable:      make(map[Date]struct{}),
		overrides:        make(map[Date]TimeOfDaySet),
		defaultMorning:   true,
		defaultAfternoon: true,
	}
}

func bucketsFor(morning, afternoon bool) TimeOfDaySet {
	set := NewTimeOfDaySet()
	if morning {
		set[Morning] = struct{}{}
	}
	if afternoon {
		set[Afternoon] = struct{}{}
	}
	return set
}

// AddAvailableDate includes a date and records which halves of the day are open.
func (b *AvailabilityBuilder) AddAvailableDate(date Date, morning, afternoon bool) *AvailabilityBuilder {
	b.available[date] = struct{}{}
	if buckets := bucketsFor(morning, afternoon); len(buckets) > 0 {
		b.overrides[date] = buckets
	}
	return b
}

// AddAvailableDateRange includes every date in [start, end].
func (b *AvailabilityBuilder) AddAvailableDateRange(start, end Date, morning, afternoon bool) *AvailabilityBuilder {
	for d := start; !end.Before(d); d = d.AddDays(1) {
		b.AddAvailableDate(d, morning, afternoon)
	}
	return b
}

// AddUnavailableDate excludes a date and drops any inclusion or override for it.
func (b *AvailabilityBuilder) AddUnavailableDate(date Date) *AvailabilityBuilder {
	b.unavailable[date] = struct{}{}
	delete(b.available, date)
	delete(b.overrides, date)
	return b
}

// AddUnavailableDateRange excludes every date in [start, end].
func (b *AvailabilityBuilder) AddUnavailableDateRange(start, end Date) *AvailabilityBuilder {
	for d := start; !end.Before(d); d = d.AddDays(1) {
		b.AddUnavailableDate(d)
	}
	return b
}

// SetDefault sets the buckets used for dates without an override.
func (b *AvailabilityBuilder) SetDefault(morning, afternoon bool) *AvailabilityBuilder {
	b.defaultMorning = morning
	b.defaultAfternoon = afternoon
	return b
}

// Build returns an independent DateRestriction.
func (b *AvailabilityBuilder) Build() *DateRestriction {
	r := &DateRestriction{
		Available:   make(map[Date]struct{}, len(b.available)),
		Unavailable: make(map[Date]struct{}, len(b.unavailable)),
		Overrides:   make(map[Date]TimeOfDaySet, len(b.overrides)),
		Default:     bucketsFor(b.defaultMorning, b.defaultAfternoon),
	}
	for d := range b.available {
		r.Available[d] = struct{}{}
	}
	for d := range b.unavailable {
		r.Unavailable[d] = struct{}{}
	}
	for d, set := range b.overrides {
		r.Overrides[d] = NewTimeOfDaySet()
		for bucket := range set {
			r.Overrides[d][bucket] = struct{}{}
		}
	}
	return r
}
