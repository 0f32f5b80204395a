package service

import (
	"fmt"
	"strings"

	"github.com/noah-isme/timetable-scheduler/internal/models"
	"github.com/noah-isme/timetable-scheduler/pkg/export"
)

var (
	weekExportHeaders       = []string{"Day", "Date", "Time", "Subject", "Instructors", "Room", "Fixed"}
	instructorExportHeaders = []string{"Week", "Day", "Date", "Time", "Subject", "Room"}
)

// weekSections renders one table per catalog week, plus any week only present in the timetable.
func weekSections(catalog *models.Catalog, t *models.Timetable) []export.Section {
	byWeek := make(map[models.WeekKey][]*models.ScheduledSession)
	var order []models.WeekKey
	for _, week := range catalog.Weeks() {
		order = append(order, week.Key())
		byWeek[week.Key()] = nil
	}
	for _, session := range t.SortedSessions() {
		if _, known := byWeek[session.Week]; !known {
			order = append(order, session.Week)
		}
		byWeek[session.Week] = append(byWeek[session.Week], session)
	}

	sections := make([]export.Section, 0, len(order))
	for _, key := range order {
		rows := make([]map[string]string, 0, len(byWeek[key]))
		for _, session := range byWeek[key] {
			rows = append(rows, map[string]string{
				"Day":         session.Slot.Day.String(),
				"Date":        dateText(session.Date),
				"Time":        timeRange(session.Slot),
				"Subject":     subjectLabel(session.Subject),
				"Instructors": instructorNames(catalog, session.Subject),
				"Room":        roomLabel(session.Room),
				"Fixed":       fixedText(session.Fixed),
			})
		}
		sections = append(sections, export.Section{
			Title: key.String(),
			Data:  export.Dataset{Headers: weekExportHeaders, Rows: rows},
		})
	}
	return sections
}

// instructorSections renders one table per instructor in catalog order.
func instructorSections(catalog *models.Catalog, t *models.Timetable) []export.Section {
	sessions := t.SortedSessions()
	sections := make([]export.Section, 0, len(catalog.Instructors()))
	for _, instructor := range catalog.Instructors() {
		var rows []map[string]string
		for _, session := range sessions {
			if session.Subject == nil || !session.Subject.HasInstructor(instructor.ID) {
				continue
			}
			rows = append(rows, map[string]string{
				"Week":    session.Week.String(),
				"Day":     session.Slot.Day.String(),
				"Date":    dateText(session.Date),
				"Time":    timeRange(session.Slot),
				"Subject": subjectLabel(session.Subject),
				"Room":    roomLabel(session.Room),
			})
		}
		title := instructor.ID
		if instructor.Name != "" {
			title = fmt.Sprintf("%s (%s)", instructor.Name, instructor.ID)
		}
		sections = append(sections, export.Section{
			Title: title,
			Data:  export.Dataset{Headers: instructorExportHeaders, Rows: rows},
		})
	}
	if len(sections) == 0 {
		sections = append(sections, export.Section{Data: export.Dataset{Headers: instructorExportHeaders}})
	}
	return sections
}

func timeRange(slot models.TimeSlot) string {
	return slot.Clock() + "-" + slot.EndClock()
}

func dateText(date *models.Date) string {
	if date == nil {
		return ""
	}
	return date.String()
}

func fixedText(fixed bool) string {
	if fixed {
		return "yes"
	}
	return ""
}

func subjectLabel(subject *models.Subject) string {
	if subject == nil {
		return ""
	}
	if subject.Name == "" {
		return subject.ID
	}
	return subject.Name
}

func roomLabel(room *models.Room) string {
	if room == nil {
		return ""
	}
	if room.Name == "" {
		return room.ID
	}
	return room.Name
}

func instructorNames(catalog *models.Catalog, subject *models.Subject) string {
	if subject == nil {
		return ""
	}
	names := make([]string, 0, len(subject.InstructorIDs))
	for _, instructor := range catalog.SubjectInstructors(subject) {
		if instructor.Name != "" {
			names = append(names, instructor.Name)
		} else {
			names = append(names, instructor.ID)
		}
	}
	return strings.Join(names, ", ")
}
