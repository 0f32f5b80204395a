package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, raw string) Date {
	t.Helper()
	d, err := ParseDate(raw)
	require.NoError(t, err)
	return d
}

func TestAvailabilityMorningOnlyDate(t *testing.T) {
	day := mustDate(t, "2025-01-15")
	restriction := NewAvailabilityBuilder().AddAvailableDate(day, true, false).Build()
	availability := Availability{Dates: restriction}

	morning := NewTimeSlot(Wednesday, 9, 0, 60)
	afternoon := NewTimeSlot(Wednesday, 14, 0, 60)
	other := mustDate(t, "2025-01-16")

	assert.True(t, availability.IsAvailable(morning, &day))
	assert.False(t, availability.IsAvailable(afternoon, &day))
	assert.False(t, availability.IsAvailable(morning, &other), "inclusion set is non-empty")
}

func TestAvailabilityExclusionWins(t *testing.T) {
	start := mustDate(t, "2025-03-03")
	end := mustDate(t, "2025-03-07")
	holiday := mustDate(t, "2025-03-05")

	restriction := NewAvailabilityBuilder().
		AddAvailableDateRange(start, end, true, true).
		AddUnavailableDate(holiday).
		Build()
	slot := NewTimeSlot(Wednesday, 10, 0, 60)

	assert.False(t, restriction.Allows(holiday, slot))
	assert.True(t, restriction.Allows(mustDate(t, "2025-03-04"), slot))
	assert.Len(t, restriction.Available, 4)
	assert.Equal(t, map[Date]struct{}{holiday: {}}, restriction.Unavailable)
}

func TestAvailabilityDefaultBuckets(t *testing.T) {
	restriction := NewAvailabilityBuilder().SetDefault(false, true).Build()
	day := mustDate(t, "2025-02-10")

	assert.False(t, restriction.Allows(day, NewTimeSlot(Monday, 9, 0, 60)))
	assert.True(t, restriction.Allows(day, NewTimeSlot(Monday, 13, 0, 60)))
	assert.False(t, restriction.Allows(day, NewTimeSlot(Monday, 19, 0, 60)), "outside both buckets")

	noBuckets := NewAvailabilityBuilder().AddAvailableDate(day, false, false).Build()
	assert.True(t, noBuckets.Allows(day, NewTimeSlot(Monday, 9, 0, 60)), "falls back to default buckets")
}

func TestAvailabilitySlotAllowList(t *testing.T) {
	availability := Availability{Slots: []TimeSlot{
		NewTimeSlot(Monday, 9, 0, 60),
		NewTimeSlot(Wednesday, 9, 0, 120),
	}}

	assert.True(t, availability.IsAvailable(NewTimeSlot(Monday, 9, 0, 60), nil))
	assert.True(t, availability.IsAvailable(NewTimeSlot(Wednesday, 10, 0, 60), nil))
	assert.False(t, availability.IsAvailable(NewTimeSlot(Monday, 9, 30, 60), nil), "must be contained")
	assert.False(t, availability.IsAvailable(NewTimeSlot(Tuesday, 9, 0, 60), nil))
	assert.True(t, Availability{}.IsAvailable(NewTimeSlot(Sunday, 22, 0, 60), nil))
}

func TestAvailabilityBothLayers(t *testing.T) {
	day := mustDate(t, "2025-01-13")
	availability := Availability{
		Slots: []TimeSlot{NewTimeSlot(Monday, 8, 0, 240)},
		Dates: NewAvailabilityBuilder().AddUnavailableDate(day).Build(),
	}
	slot := NewTimeSlot(Monday, 9, 0, 60)

	assert.True(t, availability.IsAvailable(slot, nil), "date layer skipped without a date")
	assert.False(t, availability.IsAvailable(slot, &day))
	next := day.AddDays(7)
	assert.True(t, availability.IsAvailable(slot, &next))
}
