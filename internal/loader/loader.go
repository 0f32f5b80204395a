// Package loader builds scheduling catalogs from JSON documents and CSV directories.
package loader

import (
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/timetable-scheduler/internal/models"
)

// Options fill in calendar settings a source does not carry itself.
type Options struct {
	TermStart *time.Time
	Weeks     int
	FirstWeek int
	Year      int
}

// Result is a validated catalog plus any pre-placed sessions the source declared.
type Result struct {
	Catalog *models.Catalog
	Fixed   []*models.ScheduledSession
}

// DefaultBlockDefinitions splits the teaching day into a morning and an afternoon block.
var DefaultBlockDefinitions = []models.BlockDefinition{
	{Name: "Morning", StartHour: 8, EndHour: 12},
	{Name: "Afternoon", StartHour: 12, EndHour: 18},
}

func (o Options) normalize() Options {
	if o.Weeks <= 0 {
		o.Weeks = 1
	}
	if o.FirstWeek <= 0 {
		o.FirstWeek = 1
	}
	if o.Year <= 0 {
		if o.TermStart != nil {
			o.Year = o.TermStart.Year()
		} else {
			o.Year = time.Now().Year()
		}
	}
	return o
}

// parseClock converts "HH:MM" into minutes since midnight.
func parseClock(raw string) (int, error) {
	parsed, err := time.Parse("15:04", strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q: expected HH:MM", raw)
	}
	return parsed.Hour()*60 + parsed.Minute(), nil
}

func slotFromClock(day, start, end string) (models.TimeSlot, error) {
	d, err := models.ParseDayOfWeek(day)
	if err != nil {
		return models.TimeSlot{}, err
	}
	from, err := parseClock(start)
	if err != nil {
		return models.TimeSlot{}, err
	}
	to, err := parseClock(end)
	if err != nil {
		return models.TimeSlot{}, err
	}
	slot := models.TimeSlot{Day: d, StartMinute: from, DurationMinutes: to - from}
	if err := slot.Validate(); err != nil {
		return models.TimeSlot{}, fmt.Errorf("slot %s %s-%s: %w", day, start, end, err)
	}
	return slot, nil
}

// splitList splits a ';' or '|' separated cell.
func splitList(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ';' || r == '|' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if trimmed := strings.TrimSpace(f); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseDays(values []string) ([]models.DayOfWeek, error) {
	days := make([]models.DayOfWeek, 0, len(values))
	for _, v := range values {
		d, err := models.ParseDayOfWeek(v)
		if err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, nil
}

// groupBlocks collects slots sharing a block id, keeping first-seen order.
func groupBlocks(ids, names []string, slots []models.TimeSlot) []models.Block {
	index := make(map[string]int)
	var blocks []models.Block
	for i, id := range ids {
		pos, ok := index[id]
		if !ok {
			name := names[i]
			if name == "" {
				name = id
			}
			blocks = append(blocks, models.Block{ID: id, Name: name})
			pos = len(blocks) - 1
			index[id] = pos
		}
		blocks[pos].Slots = append(blocks[pos].Slots, slots[i])
	}
	return blocks
}

func defaultBlocks() []models.Block {
	return models.BlocksFromSlots(models.StandardTimeSlots(0, 0, 0, nil), DefaultBlockDefinitions)
}
