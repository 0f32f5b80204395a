package service

import (
	"fmt"
	"strings"

	"github.com/noah-isme/timetable-scheduler/internal/models"
)

// PlacementChecker applies the hard placement rules against a catalog.
type PlacementChecker struct {
	catalog *models.Catalog
}

// NewPlacementChecker binds a checker to a catalog.
func NewPlacementChecker(catalog *models.Catalog) *PlacementChecker {
	return &PlacementChecker{catalog: catalog}
}

// CheckPlacement returns the first violated rule for candidate against existing, or nil.
// Static rules are evaluated before overlap so the cheapest rejection wins.
func (c *PlacementChecker) CheckPlacement(candidate *models.ScheduledSession, existing *models.Timetable) *models.PlacementViolation {
	if v := c.checkStatic(candidate); v != nil {
		return v
	}
	var sessions []*models.ScheduledSession
	if existing != nil {
		sessions = existing.Sessions()
	}
	for _, other := range sessions {
		dimension, clash := candidate.Conflict(other)
		if !clash {
			continue
		}
		if dimension == models.DimensionRoom {
			return &models.PlacementViolation{
				Dimension:   models.ViolationRoomOverlap,
				Message:     fmt.Sprintf("room %s is already booked at %s in %s", candidate.Room.ID, other.Slot, other.Week),
				Conflicting: other,
			}
		}
		return &models.PlacementViolation{
			Dimension:   models.ViolationInstructorOverlap,
			Message:     fmt.Sprintf("instructor of subject %s already teaches %s at %s in %s", candidate.Subject.ID, other.Subject.ID, other.Slot, other.Week),
			Conflicting: other,
		}
	}
	return c.checkLoad(candidate, sessions)
}

// ValidPlacement reports whether candidate may join existing.
func (c *PlacementChecker) ValidPlacement(candidate *models.ScheduledSession, existing *models.Timetable) bool {
	return c.CheckPlacement(candidate, existing) == nil
}

func (c *PlacementChecker) checkStatic(candidate *models.ScheduledSession) *models.PlacementViolation {
	subject, room := candidate.Subject, candidate.Room
	if room.Capacity < subject.MinCapacity {
		return &models.PlacementViolation{
			Dimension: models.ViolationCapacity,
			Message:   fmt.Sprintf("room %s seats %d, subject %s needs %d", room.ID, room.Capacity, subject.ID, subject.MinCapacity),
		}
	}
	if !subject.RequiredFeatures.SubsetOf(room.Features) {
		return &models.PlacementViolation{
			Dimension: models.ViolationFeatures,
			Message:   fmt.Sprintf("room %s lacks features: %s", room.ID, strings.Join(subject.RequiredFeatures.Missing(room.Features), ", ")),
		}
	}
	if !subject.AllowsDay(candidate.Slot.Day) {
		return &models.PlacementViolation{
			Dimension: models.ViolationPreferredDay,
			Message:   fmt.Sprintf("subject %s is not taught on %s", subject.ID, candidate.Slot.Day),
		}
	}

	date := c.dateOf(candidate)
	if !room.IsAvailable(candidate.Slot, date) {
		return &models.PlacementViolation{
			Dimension: models.ViolationAvailability,
			Message:   fmt.Sprintf("room %s is unavailable at %s", room.ID, describeWhen(candidate.Slot, date)),
		}
	}
	for _, instructor := range c.catalog.SubjectInstructors(subject) {
		if !instructor.IsAvailable(candidate.Slot, date) {
			return &models.PlacementViolation{
				Dimension: models.ViolationAvailability,
				Message:   fmt.Sprintf("instructor %s is unavailable at %s", instructor.ID, describeWhen(candidate.Slot, date)),
			}
		}
	}
	return nil
}

func (c *PlacementChecker) checkLoad(candidate *models.ScheduledSession, sessions []*models.ScheduledSession) *models.PlacementViolation {
	for _, instructor := range c.catalog.SubjectInstructors(candidate.Subject) {
		if instructor.MaxHoursPerWeek <= 0 {
			continue
		}
		minutes := candidate.Slot.DurationMinutes
		for _, other := range sessions {
			if other.ID != "" && other.ID == candidate.ID {
				continue
			}
			if other.Week != candidate.Week || other.Subject == nil || !other.Subject.HasInstructor(instructor.ID) {
				continue
			}
			minutes += other.Slot.DurationMinutes
		}
		if minutes > instructor.MaxHoursPerWeek*60 {
			return &models.PlacementViolation{
				Dimension: models.ViolationInstructorLoad,
				Message:   fmt.Sprintf("instructor %s would teach %d minutes in %s, cap is %dh", instructor.ID, minutes, candidate.Week, instructor.MaxHoursPerWeek),
			}
		}
	}
	return nil
}

func (c *PlacementChecker) dateOf(candidate *models.ScheduledSession) *models.Date {
	if candidate.Date != nil {
		return candidate.Date
	}
	return c.catalog.DateFor(candidate.Week, candidate.Slot.Day)
}

func describeWhen(slot models.TimeSlot, date *models.Date) string {
	if date == nil {
		return slot.String()
	}
	return fmt.Sprintf("%s on %s", slot, date)
}
