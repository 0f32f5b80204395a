package loader

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-scheduler/internal/models"
)

const sampleCatalog = `{
  "schedule_config": {"start_date": "2025-01-13", "weeks": 2},
  "rooms": [
    {"id": "R1", "name": "Lab", "capacity": 30, "features": ["projector", "computers"]},
    {"id": "R2", "name": "Hall", "capacity": 120}
  ],
  "lecturers": [
    {"id": "L1", "name": "Ada", "max_hours_per_week": 10,
     "time_restrictions": {"type": "specific_dates", "available_dates": [
       {"date": "2025-01-13", "morning": true, "afternoon": false},
       {"date": "2025-01-14"}
     ]}},
    {"id": "L2", "name": "Linus",
     "available_slots": [{"day": "Tuesday", "start_time": "08:00", "end_time": "12:00"}],
     "time_restrictions": {"type": "date_ranges",
       "available_ranges": [{"start": "2025-01-13", "end": "2025-01-24", "afternoon": false}],
       "unavailable_dates": ["2025-01-21"]}}
  ],
  "subjects": [
    {"id": "S1", "name": "Algorithms", "lecturer_id": "L1", "required_hours": 3, "min_students": 25,
     "required_features": ["projector"], "preferred_days": ["Monday", "tue"]},
    {"id": "S2", "name": "Kernels", "instructor_ids": ["L2"], "duration_minutes": 120, "sessions_per_week": 1}
  ],
  "blocks": [
    {"id": "am", "name": "Morning", "day": "Monday", "start_time": "09:00", "end_time": "10:00"},
    {"id": "am", "day": "Tuesday", "start_time": "09:00", "end_time": "11:00"},
    {"id": "pm", "name": "Afternoon", "day": "Monday", "start_time": "14:00", "end_time": "16:00"}
  ],
  "fixed_sessions": [
    {"id": "fx-1", "subject_id": "S2", "room_id": "R2", "week": 1, "day": "Tuesday", "start_time": "09:00", "end_time": "11:00"}
  ]
}`

func TestLoadJSONBuildsCatalog(t *testing.T) {
	result, err := LoadJSON(strings.NewReader(sampleCatalog), Options{})
	require.NoError(t, err)
	catalog := result.Catalog

	require.Len(t, catalog.Rooms(), 2)
	require.Len(t, catalog.Instructors(), 2)
	require.Len(t, catalog.Subjects(), 2)
	require.Len(t, catalog.Weeks(), 2)
	require.NotNil(t, catalog.TermStart())
	assert.Equal(t, 2025, catalog.Weeks()[0].Year)

	week := catalog.Weeks()[0]
	require.Len(t, week.Blocks, 2)
	assert.Equal(t, "am", week.Blocks[0].ID)
	assert.Equal(t, "Morning", week.Blocks[0].Name)
	assert.Len(t, week.Blocks[0].Slots, 2)
	assert.Equal(t, 120, week.Blocks[0].Slots[1].DurationMinutes)

	algorithms, ok := catalog.Subject("S1")
	require.True(t, ok)
	assert.Equal(t, []string{"L1"}, algorithms.InstructorIDs)
	assert.Equal(t, 60, algorithms.DurationMinutes)
	assert.Equal(t, 3, algorithms.RequiredSessions())
	assert.Equal(t, []models.DayOfWeek{models.Monday, models.Tuesday}, algorithms.PreferredDays)
	assert.True(t, algorithms.RequiredFeatures.Has("projector"))

	require.Len(t, result.Fixed, 1)
	assert.True(t, result.Fixed[0].Fixed)
	assert.Equal(t, models.WeekKey{Number: 1, Year: 2025}, result.Fixed[0].Week)
}

func TestLoadJSONTimeRestrictions(t *testing.T) {
	result, err := LoadJSON(strings.NewReader(sampleCatalog), Options{})
	require.NoError(t, err)

	ada, ok := result.Catalog.Instructor("L1")
	require.True(t, ok)
	monday := mustDate(t, "2025-01-13")
	tuesday := mustDate(t, "2025-01-14")
	wednesday := mustDate(t, "2025-01-15")

	morning := models.NewTimeSlot(models.Monday, 9, 0, 60)
	afternoon := models.NewTimeSlot(models.Monday, 14, 0, 60)
	assert.True(t, ada.IsAvailable(morning, &monday))
	assert.False(t, ada.IsAvailable(afternoon, &monday))
	assert.True(t, ada.IsAvailable(models.NewTimeSlot(models.Tuesday, 14, 0, 60), &tuesday))
	assert.False(t, ada.IsAvailable(models.NewTimeSlot(models.Wednesday, 9, 0, 60), &wednesday))

	linus, ok := result.Catalog.Instructor("L2")
	require.True(t, ok)
	tue := models.NewTimeSlot(models.Tuesday, 9, 0, 60)
	inRange := mustDate(t, "2025-01-14")
	excluded := mustDate(t, "2025-01-21")
	assert.True(t, linus.IsAvailable(tue, &inRange))
	assert.False(t, linus.IsAvailable(tue, &excluded))
	assert.False(t, linus.IsAvailable(models.NewTimeSlot(models.Tuesday, 13, 0, 60), &inRange))
	assert.False(t, linus.IsAvailable(models.NewTimeSlot(models.Monday, 9, 0, 60), nil))
}

func TestLoadJSONDefaultsBlocksAndWeeks(t *testing.T) {
	start := time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC)
	doc := `{"rooms": [{"id": "R1", "capacity": 10}], "subjects": [{"id": "S1", "sessions_per_week": 1}]}`
	result, err := LoadJSON(strings.NewReader(doc), Options{TermStart: &start, Weeks: 3})
	require.NoError(t, err)

	weeks := result.Catalog.Weeks()
	require.Len(t, weeks, 3)
	assert.Equal(t, 1, weeks[0].Number)
	assert.Equal(t, 2024, weeks[0].Year)
	require.Len(t, weeks[0].Blocks, 2)
	assert.Equal(t, "morning", weeks[0].Blocks[0].ID)
	assert.Equal(t, "afternoon", weeks[0].Blocks[1].ID)
	assert.Len(t, weeks[0].Blocks[0].Slots, 20)
}

func TestLoadJSONRejectsInvalidInput(t *testing.T) {
	cases := map[string]string{
		"unknown lecturer":    `{"subjects": [{"id": "S1", "lecturer_id": "ghost"}]}`,
		"malformed weekday":   `{"blocks": [{"id": "b", "day": "Funday", "start_time": "09:00", "end_time": "10:00"}]}`,
		"inverted slot":       `{"blocks": [{"id": "b", "day": "Monday", "start_time": "10:00", "end_time": "09:00"}]}`,
		"bad restriction":     `{"lecturers": [{"id": "L1", "time_restrictions": {"type": "weekly"}}]}`,
		"inverted date range": `{"lecturers": [{"id": "L1", "time_restrictions": {"type": "date_ranges", "available_ranges": [{"start": "2025-02-01", "end": "2025-01-01"}]}}]}`,
		"unknown field":       `{"teachers": []}`,
		"fixed unknown room":  `{"subjects": [{"id": "S1"}], "fixed_sessions": [{"subject_id": "S1", "room_id": "nope", "day": "Monday", "start_time": "09:00", "end_time": "10:00"}]}`,
		"duplicate fixed id":  `{"subjects": [{"id": "S1"}], "rooms": [{"id": "R1"}], "fixed_sessions": [{"id": "fx", "subject_id": "S1", "room_id": "R1", "day": "Monday", "start_time": "09:00", "end_time": "10:00"}, {"id": "fx", "subject_id": "S1", "room_id": "R1", "day": "Tuesday", "start_time": "09:00", "end_time": "10:00"}]}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadJSON(strings.NewReader(doc), Options{})
			assert.Error(t, err)
		})
	}
}

func mustDate(t *testing.T, raw string) models.Date {
	t.Helper()
	d, err := models.ParseDate(raw)
	require.NoError(t, err)
	return d
}
