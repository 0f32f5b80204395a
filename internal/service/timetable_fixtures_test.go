package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-scheduler/internal/models"
)

var testWeek = models.WeekKey{Number: 1, Year: 2025}

func mustCatalog(t *testing.T, in models.CatalogInput) *models.Catalog {
	t.Helper()
	catalog, err := models.NewCatalog(in)
	require.NoError(t, err)
	return catalog
}

func singleWeek(slots ...models.TimeSlot) []models.Week {
	blocks := make([]models.Block, 0, len(slots))
	for _, slot := range slots {
		blocks = append(blocks, models.Block{ID: slot.String(), Name: slot.String(), Slots: []models.TimeSlot{slot}})
	}
	return []models.Week{{Number: testWeek.Number, Year: testWeek.Year, Blocks: blocks}}
}

// lectureCatalog has one projector room, one instructor free Mon/Wed 9-10 and one subject needing two sessions.
func lectureCatalog(t *testing.T) *models.Catalog {
	mon := models.NewTimeSlot(models.Monday, 9, 0, 60)
	wed := models.NewTimeSlot(models.Wednesday, 9, 0, 60)
	return mustCatalog(t, models.CatalogInput{
		Rooms: []*models.Room{{ID: "r1", Name: "Hall", Capacity: 30, Features: models.NewFeatureSet("projector")}},
		Instructors: []*models.Instructor{{
			ID:           "ana",
			Name:         "Ana",
			Availability: models.Availability{Slots: []models.TimeSlot{mon, wed}},
		}},
		Subjects: []*models.Subject{{
			ID:               "algebra",
			Name:             "Algebra",
			DurationMinutes:  60,
			InstructorIDs:    []string{"ana"},
			MinCapacity:      25,
			RequiredFeatures: models.NewFeatureSet("projector"),
			SessionsPerWeek:  2,
		}},
		Weeks: singleWeek(mon, wed),
	})
}

func termStart(t *testing.T, raw string) *time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", raw)
	require.NoError(t, err)
	return &parsed
}

func mustSubject(t *testing.T, catalog *models.Catalog, id string) *models.Subject {
	t.Helper()
	subject, ok := catalog.Subject(id)
	require.True(t, ok)
	return subject
}

func mustRoom(t *testing.T, catalog *models.Catalog, id string) *models.Room {
	t.Helper()
	room, ok := catalog.Room(id)
	require.True(t, ok)
	return room
}
