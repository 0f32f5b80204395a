package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-scheduler/internal/models"
	appErrors "github.com/noah-isme/timetable-scheduler/pkg/errors"
)

type generationRecorder struct {
	outcomes []string
	deficits []int
}

func (r *generationRecorder) ObserveGeneration(outcome string, _, _, deficit int, _ time.Duration) {
	r.outcomes = append(r.outcomes, outcome)
	r.deficits = append(r.deficits, deficit)
}

func TestTimetableSchedulerPlacesBothLectureSlots(t *testing.T) {
	catalog := lectureCatalog(t)
	recorder := &generationRecorder{}
	scheduler := NewTimetableScheduler(catalog, zap.NewNop(), recorder)

	result, err := scheduler.Generate(context.Background(), nil, GenerateOptions{MaxAttempts: 10})
	require.NoError(t, err)

	assert.True(t, result.Complete)
	assert.Equal(t, 2, result.Requested)
	assert.Equal(t, 2, result.Placed)
	assert.Empty(t, result.Deficits)
	assert.True(t, result.Timetable.IsValid())
	require.Equal(t, 2, result.Timetable.Len())

	days := map[models.DayOfWeek]bool{}
	for _, session := range result.Timetable.Sessions() {
		days[session.Slot.Day] = true
		assert.NotEmpty(t, session.ID)
		assert.False(t, session.Fixed)
	}
	assert.Equal(t, map[models.DayOfWeek]bool{models.Monday: true, models.Wednesday: true}, days)
	assert.Equal(t, []string{"complete"}, recorder.outcomes)
}

func TestTimetableSchedulerReportsPartialWhenInstructorIsShared(t *testing.T) {
	slot := models.NewTimeSlot(models.Monday, 9, 0, 60)
	catalog := mustCatalog(t, models.CatalogInput{
		Rooms:       []*models.Room{{ID: "r1", Capacity: 30}, {ID: "r2", Capacity: 30}},
		Instructors: []*models.Instructor{{ID: "ana"}},
		Subjects: []*models.Subject{
			{ID: "algebra", InstructorIDs: []string{"ana"}, SessionsPerWeek: 1},
			{ID: "geometry", InstructorIDs: []string{"ana"}, SessionsPerWeek: 1},
		},
		Weeks: singleWeek(slot),
	})
	recorder := &generationRecorder{}
	scheduler := NewTimetableScheduler(catalog, nil, recorder)

	result, err := scheduler.Generate(context.Background(), nil, GenerateOptions{MaxAttempts: 5, Randomize: true, Seed: 7})
	require.NoError(t, err)

	assert.False(t, result.Complete)
	assert.Equal(t, 2, result.Requested)
	assert.Equal(t, 1, result.Placed)
	assert.Equal(t, 1, result.Timetable.Len())
	assert.True(t, result.Timetable.IsValid())
	total := 0
	for _, missing := range result.Deficits {
		total += missing
	}
	assert.Equal(t, 1, total)
	assert.Equal(t, 5, result.Attempts)
	assert.Equal(t, []string{"partial"}, recorder.outcomes)
	assert.Equal(t, []int{1}, recorder.deficits)
}

func TestTimetableSchedulerDeterministicWithoutRandomize(t *testing.T) {
	slot := models.NewTimeSlot(models.Monday, 9, 0, 60)
	catalog := mustCatalog(t, models.CatalogInput{
		Rooms:       []*models.Room{{ID: "r1"}},
		Instructors: []*models.Instructor{{ID: "ana"}},
		Subjects: []*models.Subject{
			{ID: "algebra", InstructorIDs: []string{"ana"}, SessionsPerWeek: 1},
			{ID: "geometry", InstructorIDs: []string{"ana"}, SessionsPerWeek: 1},
		},
		Weeks: singleWeek(slot),
	})
	scheduler := NewTimetableScheduler(catalog, nil, nil)

	result, err := scheduler.Generate(context.Background(), nil, GenerateOptions{MaxAttempts: 50})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, map[string]int{"geometry": 1}, result.Deficits)
	assert.Equal(t, "algebra", result.Timetable.Sessions()[0].Subject.ID)
}

func TestTimetableSchedulerNeverConflictsWithFixedSessions(t *testing.T) {
	mon := models.NewTimeSlot(models.Monday, 9, 0, 60)
	tue := models.NewTimeSlot(models.Tuesday, 9, 0, 60)
	catalog := mustCatalog(t, models.CatalogInput{
		Rooms:       []*models.Room{{ID: "r1"}},
		Instructors: []*models.Instructor{{ID: "ana"}, {ID: "ben"}},
		Subjects: []*models.Subject{
			{ID: "algebra", InstructorIDs: []string{"ana"}, SessionsPerWeek: 1},
			{ID: "biology", InstructorIDs: []string{"ben"}, SessionsPerWeek: 2},
		},
		Weeks: singleWeek(mon, tue),
	})
	fixed := &models.ScheduledSession{
		Subject: mustSubject(t, catalog, "algebra"),
		Room:    mustRoom(t, catalog, "r1"),
		Slot:    mon,
		Week:    testWeek,
	}
	scheduler := NewTimetableScheduler(catalog, nil, nil)

	result, err := scheduler.Generate(context.Background(), []*models.ScheduledSession{fixed}, GenerateOptions{MaxAttempts: 3, Randomize: true})
	require.NoError(t, err)

	// algebra is already covered by the fixed session; biology only fits once around it
	assert.Equal(t, 2, result.Requested)
	assert.Equal(t, 1, result.Placed)
	assert.Equal(t, map[string]int{"biology": 1}, result.Deficits)
	assert.True(t, result.Timetable.IsValid())

	sessions := result.Timetable.Sessions()
	require.Len(t, sessions, 2)
	assert.True(t, sessions[0].Fixed)
	assert.Equal(t, mon, sessions[0].Slot)
	assert.Equal(t, tue, sessions[1].Slot)
	assert.False(t, fixed.Fixed, "caller's session is not mutated")
}

func TestTimetableSchedulerRejectsUnknownFixedReferences(t *testing.T) {
	catalog := lectureCatalog(t)
	scheduler := NewTimetableScheduler(catalog, nil, nil)

	_, err := scheduler.Generate(context.Background(), []*models.ScheduledSession{{
		Subject: &models.Subject{ID: "ghost"},
		Room:    mustRoom(t, catalog, "r1"),
		Slot:    models.NewTimeSlot(models.Monday, 9, 0, 60),
		Week:    testWeek,
	}}, GenerateOptions{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidReference.Code, appErrors.FromError(err).Code)
}

func TestTimetableSchedulerRejectsDuplicateFixedIDs(t *testing.T) {
	catalog := mustCatalog(t, models.CatalogInput{
		Rooms:       []*models.Room{{ID: "r1"}},
		Instructors: []*models.Instructor{{ID: "ana"}, {ID: "ben"}},
		Subjects: []*models.Subject{
			{ID: "algebra", InstructorIDs: []string{"ana"}, SessionsPerWeek: 1},
			{ID: "physics", InstructorIDs: []string{"ben"}, SessionsPerWeek: 1},
		},
		Weeks: singleWeek(models.NewTimeSlot(models.Monday, 9, 0, 60)),
	})
	scheduler := NewTimetableScheduler(catalog, nil, nil)
	nine := models.NewTimeSlot(models.Monday, 9, 0, 60)

	_, err := scheduler.Generate(context.Background(), []*models.ScheduledSession{
		{ID: "fx", Subject: mustSubject(t, catalog, "algebra"), Room: mustRoom(t, catalog, "r1"), Slot: nine, Week: testWeek},
		{ID: "fx", Subject: mustSubject(t, catalog, "physics"), Room: mustRoom(t, catalog, "r1"), Slot: nine, Week: testWeek},
	}, GenerateOptions{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

// crowdedCatalog needs more placements than the grid can hold so the search exhausts its budget.
func crowdedCatalog(t *testing.T, subjects int) *models.Catalog {
	slots := models.StandardTimeSlots(8, 12, 60, []models.DayOfWeek{models.Monday, models.Tuesday})
	blocks := models.BlocksFromSlots(slots, []models.BlockDefinition{{Name: "Morning", StartHour: 8, EndHour: 12}})
	input := models.CatalogInput{
		Rooms:       []*models.Room{{ID: "r1"}},
		Instructors: []*models.Instructor{{ID: "ana"}},
		Weeks:       models.BuildWeeks(1, 1, 2025, blocks),
	}
	for i := 0; i < subjects; i++ {
		input.Subjects = append(input.Subjects, &models.Subject{
			ID:              fmt.Sprintf("s%d", i),
			InstructorIDs:   []string{"ana"},
			SessionsPerWeek: 1,
		})
	}
	return mustCatalog(t, input)
}

func TestTimetableSchedulerStopsAtNodeBudget(t *testing.T) {
	scheduler := NewTimetableScheduler(crowdedCatalog(t, 12), nil, nil)

	result, err := scheduler.Generate(context.Background(), nil, GenerateOptions{MaxAttempts: 3, Randomize: true, Seed: 1, MaxNodes: 200})
	require.NoError(t, err)

	assert.False(t, result.Complete)
	assert.Equal(t, 12, result.Requested)
	assert.Equal(t, 8, result.Placed, "deepest snapshot fills the grid")
	assert.True(t, result.Timetable.IsValid())
}

func TestTimetableSchedulerHonoursCancelledContext(t *testing.T) {
	scheduler := NewTimetableScheduler(crowdedCatalog(t, 12), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := scheduler.Generate(ctx, nil, GenerateOptions{MaxAttempts: 100, Randomize: true})
	require.NoError(t, err)

	assert.False(t, result.Complete)
	assert.Equal(t, 0, result.Attempts)
	assert.Equal(t, 0, result.Timetable.Len())
}

func TestTimetableSchedulerParallelAttempts(t *testing.T) {
	catalog := crowdedCatalog(t, 6)
	scheduler := NewTimetableScheduler(catalog, nil, nil)

	result, err := scheduler.Generate(context.Background(), nil, GenerateOptions{
		MaxAttempts: 8,
		Randomize:   true,
		Seed:        42,
		Workers:     4,
		TimeBudget:  5 * time.Second,
	})
	require.NoError(t, err)

	assert.True(t, result.Complete)
	assert.Equal(t, 6, result.Placed)
	assert.GreaterOrEqual(t, result.Attempts, 1)
	assert.True(t, result.Timetable.IsValid())
}

func TestTimetableSchedulerParallelSurvivesCrashedAttempts(t *testing.T) {
	scheduler := NewTimetableScheduler(crowdedCatalog(t, 4), nil, nil)
	scheduler.newID = func() string { panic("id source exhausted") }

	done := make(chan *GenerationResult, 1)
	go func() {
		result, err := scheduler.Generate(context.Background(), nil, GenerateOptions{MaxAttempts: 4, Randomize: true, Seed: 3, Workers: 2})
		assert.NoError(t, err)
		done <- result
	}()

	select {
	case result := <-done:
		require.NotNil(t, result)
		assert.False(t, result.Complete)
		assert.Equal(t, 0, result.Placed)
		assert.Equal(t, 4, result.Attempts)
	case <-time.After(5 * time.Second):
		t.Fatal("generation did not return after every attempt crashed")
	}
}

func TestTimetableSchedulerOptimizeCompactsInstructorDay(t *testing.T) {
	mon9 := models.NewTimeSlot(models.Monday, 9, 0, 60)
	mon10 := models.NewTimeSlot(models.Monday, 10, 0, 60)
	mon14 := models.NewTimeSlot(models.Monday, 14, 0, 60)
	catalog := mustCatalog(t, models.CatalogInput{
		Rooms:       []*models.Room{{ID: "r1"}},
		Instructors: []*models.Instructor{{ID: "ana"}, {ID: "ben"}},
		Subjects: []*models.Subject{
			{ID: "algebra", InstructorIDs: []string{"ana"}, SessionsPerWeek: 1},
			{ID: "geometry", InstructorIDs: []string{"ana"}, SessionsPerWeek: 1},
			{ID: "biology", InstructorIDs: []string{"ben"}, SessionsPerWeek: 1},
		},
		Weeks: singleWeek(mon9, mon10, mon14),
	})
	room := mustRoom(t, catalog, "r1")
	timetable := models.NewTimetable(
		&models.ScheduledSession{ID: "bio", Subject: mustSubject(t, catalog, "biology"), Room: room, Slot: mon10, Week: testWeek, Fixed: true},
		&models.ScheduledSession{ID: "alg", Subject: mustSubject(t, catalog, "algebra"), Room: room, Slot: mon9, Week: testWeek},
		&models.ScheduledSession{ID: "geo", Subject: mustSubject(t, catalog, "geometry"), Room: room, Slot: mon14, Week: testWeek},
	)
	scheduler := NewTimetableScheduler(catalog, nil, nil)

	optimized, stats := scheduler.Optimize(context.Background(), timetable, 0)

	// ana's idle hour around the fixed biology session cannot shrink with one room
	assert.Equal(t, 240, stats.Before)
	assert.Equal(t, 240, stats.After)
	assert.False(t, stats.Improved)
	require.Equal(t, 3, optimized.Len())
	fixed, ok := optimized.Find("bio")
	require.True(t, ok)
	assert.Equal(t, mon10, fixed.Slot)
	_, ok = optimized.Find("geo")
	assert.True(t, ok, "ids survive re-placement")
}

func TestTimetableSchedulerOptimizeImprovesGaps(t *testing.T) {
	mon9 := models.NewTimeSlot(models.Monday, 9, 0, 60)
	mon10 := models.NewTimeSlot(models.Monday, 10, 0, 60)
	mon14 := models.NewTimeSlot(models.Monday, 14, 0, 60)
	tue9 := models.NewTimeSlot(models.Tuesday, 9, 0, 60)
	catalog := mustCatalog(t, models.CatalogInput{
		Rooms:       []*models.Room{{ID: "r1"}},
		Instructors: []*models.Instructor{{ID: "ana"}},
		Subjects: []*models.Subject{
			{ID: "algebra", InstructorIDs: []string{"ana"}, SessionsPerWeek: 1},
			{ID: "geometry", InstructorIDs: []string{"ana"}, SessionsPerWeek: 1},
		},
		Weeks: singleWeek(mon9, mon10, mon14, tue9),
	})
	room := mustRoom(t, catalog, "r1")
	timetable := models.NewTimetable(
		&models.ScheduledSession{ID: "alg", Subject: mustSubject(t, catalog, "algebra"), Room: room, Slot: mon9, Week: testWeek},
		&models.ScheduledSession{ID: "geo", Subject: mustSubject(t, catalog, "geometry"), Room: room, Slot: mon14, Week: testWeek},
	)
	scheduler := NewTimetableScheduler(catalog, nil, nil)

	optimized, stats := scheduler.Optimize(context.Background(), timetable, 0)

	assert.Equal(t, 240, stats.Before)
	assert.Equal(t, 0, stats.After)
	assert.True(t, stats.Improved)
	geo, ok := optimized.Find("geo")
	require.True(t, ok)
	assert.Equal(t, mon10, geo.Slot)
	assert.True(t, optimized.IsValid())
	assert.Equal(t, 2, timetable.Len(), "input timetable untouched")
}
