package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/noah-isme/timetable-scheduler/internal/models"
)

// CSV file names expected inside a catalog directory. slots.csv and unavailability.csv are optional.
const (
	RoomsFile          = "rooms.csv"
	InstructorsFile    = "instructors.csv"
	SubjectsFile       = "subjects.csv"
	SlotsFile          = "slots.csv"
	UnavailabilityFile = "unavailability.csv"
)

type roomRow struct {
	ID       string `csv:"id"`
	Name     string `csv:"name"`
	Capacity int    `csv:"capacity"`
	Features string `csv:"features"`
}

type instructorRow struct {
	ID              string `csv:"id"`
	Name            string `csv:"name"`
	MaxHoursPerWeek int    `csv:"max_hours_per_week"`
}

type subjectRow struct {
	ID               string `csv:"id"`
	Name             string `csv:"name"`
	InstructorIDs    string `csv:"instructor_ids"`
	DurationMinutes  int    `csv:"duration_minutes"`
	SessionsPerWeek  int    `csv:"sessions_per_week"`
	RequiredHours    int    `csv:"required_hours"`
	MinCapacity      int    `csv:"min_capacity"`
	RequiredFeatures string `csv:"required_features"`
	PreferredDays    string `csv:"preferred_days"`
}

type slotRow struct {
	BlockID   string `csv:"block_id"`
	BlockName string `csv:"block_name"`
	Day       string `csv:"day"`
	StartTime string `csv:"start_time"`
	EndTime   string `csv:"end_time"`
}

type unavailabilityRow struct {
	InstructorID string `csv:"instructor_id"`
	Date         string `csv:"date"`
}

// LoadCSVDir builds a catalog from the CSV files in dir.
func LoadCSVDir(dir string, opts Options) (*Result, error) {
	opts = opts.normalize()

	var rooms []*roomRow
	if err := readCSV(filepath.Join(dir, RoomsFile), &rooms, true); err != nil {
		return nil, err
	}
	var instructors []*instructorRow
	if err := readCSV(filepath.Join(dir, InstructorsFile), &instructors, true); err != nil {
		return nil, err
	}
	var subjects []*subjectRow
	if err := readCSV(filepath.Join(dir, SubjectsFile), &subjects, true); err != nil {
		return nil, err
	}
	var slots []*slotRow
	if err := readCSV(filepath.Join(dir, SlotsFile), &slots, false); err != nil {
		return nil, err
	}
	var unavailable []*unavailabilityRow
	if err := readCSV(filepath.Join(dir, UnavailabilityFile), &unavailable, false); err != nil {
		return nil, err
	}

	input := models.CatalogInput{TermStart: opts.TermStart}

	for _, row := range rooms {
		input.Rooms = append(input.Rooms, &models.Room{
			ID:       row.ID,
			Name:     row.Name,
			Capacity: row.Capacity,
			Features: models.NewFeatureSet(splitList(row.Features)...),
		})
	}

	builders := make(map[string]*models.AvailabilityBuilder)
	for _, row := range unavailable {
		date, err := models.ParseDate(row.Date)
		if err != nil {
			return nil, fmt.Errorf("%s: instructor %s: %w", UnavailabilityFile, row.InstructorID, err)
		}
		builder, ok := builders[row.InstructorID]
		if !ok {
			builder = models.NewAvailabilityBuilder()
			builders[row.InstructorID] = builder
		}
		builder.AddUnavailableDate(date)
	}

	for _, row := range instructors {
		instructor := &models.Instructor{ID: row.ID, Name: row.Name, MaxHoursPerWeek: row.MaxHoursPerWeek}
		if builder, ok := builders[row.ID]; ok {
			instructor.Availability.Dates = builder.Build()
			delete(builders, row.ID)
		}
		input.Instructors = append(input.Instructors, instructor)
	}
	for id := range builders {
		return nil, &models.CatalogError{Entity: "unavailability", ID: id, Reason: "unknown instructor"}
	}

	for _, row := range subjects {
		days, err := parseDays(splitList(row.PreferredDays))
		if err != nil {
			return nil, fmt.Errorf("%s: subject %s: %w", SubjectsFile, row.ID, err)
		}
		duration := row.DurationMinutes
		if duration == 0 {
			duration = 60
		}
		input.Subjects = append(input.Subjects, &models.Subject{
			ID:               row.ID,
			Name:             row.Name,
			DurationMinutes:  duration,
			InstructorIDs:    splitList(row.InstructorIDs),
			MinCapacity:      row.MinCapacity,
			RequiredFeatures: models.NewFeatureSet(splitList(row.RequiredFeatures)...),
			PreferredDays:    days,
			SessionsPerWeek:  row.SessionsPerWeek,
			RequiredHours:    row.RequiredHours,
		})
	}

	blocks := defaultBlocks()
	if len(slots) > 0 {
		ids := make([]string, 0, len(slots))
		names := make([]string, 0, len(slots))
		parsed := make([]models.TimeSlot, 0, len(slots))
		for _, row := range slots {
			if row.BlockID == "" {
				return nil, fmt.Errorf("%s: block_id is required", SlotsFile)
			}
			slot, err := slotFromClock(row.Day, row.StartTime, row.EndTime)
			if err != nil {
				return nil, fmt.Errorf("%s: block %s: %w", SlotsFile, row.BlockID, err)
			}
			ids = append(ids, row.BlockID)
			names = append(names, row.BlockName)
			parsed = append(parsed, slot)
		}
		blocks = groupBlocks(ids, names, parsed)
	}
	input.Weeks = models.BuildWeeks(opts.FirstWeek, opts.Weeks, opts.Year, blocks)

	catalog, err := models.NewCatalog(input)
	if err != nil {
		return nil, err
	}
	return &Result{Catalog: catalog}, nil
}

func readCSV(path string, out interface{}, required bool) error {
	file, err := os.Open(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close() //nolint:errcheck

	if err := gocsv.UnmarshalFile(file, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
