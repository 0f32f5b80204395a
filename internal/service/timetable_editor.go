package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/noah-isme/timetable-scheduler/internal/models"
	appErrors "github.com/noah-isme/timetable-scheduler/pkg/errors"
)

// SessionChange lists the coordinates a move may update; nil fields keep their value.
type SessionChange struct {
	Slot *models.TimeSlot
	Room *models.Room
	Week *models.WeekKey
}

// TimetableEditor applies single-entry edits under the scheduler's placement rules.
// Callers own the single-writer discipline over the timetable.
type TimetableEditor struct {
	checker *PlacementChecker
	newID   func() string
}

// NewTimetableEditor binds an editor to a checker.
func NewTimetableEditor(checker *PlacementChecker) *TimetableEditor {
	return &TimetableEditor{checker: checker, newID: uuid.NewString}
}

// Add validates candidate against the timetable and appends it.
func (e *TimetableEditor) Add(t *models.Timetable, candidate *models.ScheduledSession) (*models.ScheduledSession, error) {
	if candidate == nil || candidate.Subject == nil || candidate.Room == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "session requires subject and room")
	}
	if err := candidate.Slot.Validate(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session slot")
	}
	session := *candidate
	if session.ID == "" {
		session.ID = e.newID()
	} else if _, exists := t.Find(session.ID); exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("session %s already exists", session.ID))
	}
	if session.Date == nil {
		session.Date = e.checker.catalog.DateFor(session.Week, session.Slot.Day)
	}
	if violation := e.checker.CheckPlacement(&session, t); violation != nil {
		return nil, conflictError(violation)
	}
	t.Insert(&session)
	return &session, nil
}

// Remove deletes a session. Fixed sessions require force.
func (e *TimetableEditor) Remove(t *models.Timetable, id string, force bool) (*models.ScheduledSession, error) {
	session, ok := t.Find(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("session %s not found", id))
	}
	if session.Fixed && !force {
		return nil, appErrors.Clone(appErrors.ErrFixedEntry, fmt.Sprintf("session %s is fixed", id))
	}
	t.Remove(id)
	return session, nil
}

// Move relocates a non-fixed session, validating the result against every other session.
// The timetable is untouched when the move is rejected.
func (e *TimetableEditor) Move(t *models.Timetable, id string, change SessionChange) (*models.ScheduledSession, error) {
	original, ok := t.Find(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("session %s not found", id))
	}
	if original.Fixed {
		return nil, appErrors.Clone(appErrors.ErrFixedEntry, fmt.Sprintf("session %s is fixed", id))
	}

	moved := original
	if change.Slot != nil {
		if err := change.Slot.Validate(); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session slot")
		}
		moved = moved.WithSlot(*change.Slot)
	}
	if change.Room != nil {
		moved = moved.WithRoom(change.Room)
	}
	if change.Week != nil {
		moved = moved.WithWeek(*change.Week)
	}
	if moved == original {
		return original, nil
	}
	if moved.Date == nil {
		moved.Date = e.checker.catalog.DateFor(moved.Week, moved.Slot.Day)
	}

	reduced := t.Clone()
	reduced.Remove(id)
	if violation := e.checker.CheckPlacement(moved, reduced); violation != nil {
		return nil, conflictError(violation)
	}
	t.Replace(id, moved)
	return moved, nil
}

func conflictError(violation *models.PlacementViolation) error {
	return appErrors.Wrap(violation, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, violation.Message)
}

// ViolationFrom extracts the structured placement violation from an edit error.
func ViolationFrom(err error) (*models.PlacementViolation, bool) {
	var violation *models.PlacementViolation
	if errors.As(err, &violation) {
		return violation, true
	}
	return nil, false
}
