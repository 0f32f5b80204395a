package loader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-scheduler/internal/models"
)

func writeCSVFixtures(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func baseCSVFiles() map[string]string {
	return map[string]string{
		RoomsFile: "id,name,capacity,features\n" +
			"R1,Lab,30,projector;computers\n" +
			"R2,Hall,120,\n",
		InstructorsFile: "id,name,max_hours_per_week\n" +
			"L1,Ada,12\n" +
			"L2,Linus,0\n",
		SubjectsFile: "id,name,instructor_ids,duration_minutes,sessions_per_week,required_hours,min_capacity,required_features,preferred_days\n" +
			"S1,Algorithms,L1,90,2,0,25,projector,Monday;Wednesday\n" +
			"S2,Seminar,L1;L2,,0,4,10,,\n",
	}
}

func TestLoadCSVDir(t *testing.T) {
	dir := writeCSVFixtures(t, baseCSVFiles())

	result, err := LoadCSVDir(dir, Options{Weeks: 2, Year: 2025})
	require.NoError(t, err)
	catalog := result.Catalog

	require.Len(t, catalog.Rooms(), 2)
	lab, ok := catalog.Room("R1")
	require.True(t, ok)
	assert.True(t, lab.Features.Has("computers"))

	seminar, ok := catalog.Subject("S2")
	require.True(t, ok)
	assert.Equal(t, []string{"L1", "L2"}, seminar.InstructorIDs)
	assert.Equal(t, 60, seminar.DurationMinutes)
	assert.Equal(t, 4, seminar.RequiredSessions())

	algorithms, _ := catalog.Subject("S1")
	assert.Equal(t, []models.DayOfWeek{models.Monday, models.Wednesday}, algorithms.PreferredDays)

	require.Len(t, catalog.Weeks(), 2)
	assert.Equal(t, 2025, catalog.Weeks()[1].Year)
	assert.Equal(t, "morning", catalog.Weeks()[0].Blocks[0].ID)
	assert.Empty(t, result.Fixed)
}

func TestLoadCSVDirSlotsAndUnavailability(t *testing.T) {
	files := baseCSVFiles()
	files[SlotsFile] = "block_id,block_name,day,start_time,end_time\n" +
		"b1,Block One,Monday,09:00,10:30\n" +
		"b1,Block One,Wednesday,09:00,10:30\n"
	files[UnavailabilityFile] = "instructor_id,date\n" +
		"L1,2025-01-13\n"
	dir := writeCSVFixtures(t, files)

	start := time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)
	result, err := LoadCSVDir(dir, Options{TermStart: &start})
	require.NoError(t, err)

	week := result.Catalog.Weeks()[0]
	require.Len(t, week.Blocks, 1)
	assert.Len(t, week.Blocks[0].Slots, 2)
	assert.Equal(t, 2025, week.Year)

	ada, _ := result.Catalog.Instructor("L1")
	slot := models.NewTimeSlot(models.Monday, 9, 0, 90)
	blocked := mustDate(t, "2025-01-13")
	open := mustDate(t, "2025-01-20")
	assert.False(t, ada.IsAvailable(slot, &blocked))
	assert.True(t, ada.IsAvailable(slot, &open))
}

func TestLoadCSVDirErrors(t *testing.T) {
	t.Run("missing required file", func(t *testing.T) {
		files := baseCSVFiles()
		delete(files, SubjectsFile)
		_, err := LoadCSVDir(writeCSVFixtures(t, files), Options{})
		assert.Error(t, err)
	})
	t.Run("unknown instructor reference", func(t *testing.T) {
		files := baseCSVFiles()
		files[SubjectsFile] = "id,name,instructor_ids\nS1,Ghosts,L9\n"
		_, err := LoadCSVDir(writeCSVFixtures(t, files), Options{})
		var catalogErr *models.CatalogError
		assert.True(t, errors.As(err, &catalogErr))
	})
	t.Run("unavailability for unknown instructor", func(t *testing.T) {
		files := baseCSVFiles()
		files[UnavailabilityFile] = "instructor_id,date\nL9,2025-01-13\n"
		_, err := LoadCSVDir(writeCSVFixtures(t, files), Options{})
		assert.Error(t, err)
	})
	t.Run("bad slot day", func(t *testing.T) {
		files := baseCSVFiles()
		files[SlotsFile] = "block_id,block_name,day,start_time,end_time\nb1,B,Someday,09:00,10:00\n"
		_, err := LoadCSVDir(writeCSVFixtures(t, files), Options{})
		assert.Error(t, err)
	})
}
