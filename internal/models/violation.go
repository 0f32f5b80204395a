package models

import "fmt"

// ViolationDimension classifies why a placement was rejected.
type ViolationDimension string

const (
	ViolationCapacity          ViolationDimension = "CAPACITY"
	ViolationFeatures          ViolationDimension = "FEATURES"
	ViolationPreferredDay      ViolationDimension = "PREFERRED_DAY"
	ViolationAvailability      ViolationDimension = "AVAILABILITY"
	ViolationInstructorLoad    ViolationDimension = "INSTRUCTOR_LOAD"
	ViolationRoomOverlap       ViolationDimension = "ROOM_OVERLAP"
	ViolationInstructorOverlap ViolationDimension = "INSTRUCTOR_OVERLAP"
)

// PlacementViolation is the structured reason a candidate session cannot be placed.
type PlacementViolation struct {
	Dimension   ViolationDimension `json:"dimension"`
	Message     string             `json:"message"`
	Conflicting *ScheduledSession  `json:"-"`
}

func (v *PlacementViolation) Error() string {
	if v == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s: %s", v.Dimension, v.Message)
}

// ConflictingID returns the id of the clashing session, if any.
func (v *PlacementViolation) ConflictingID() string {
	if v == nil || v.Conflicting == nil {
		return ""
	}
	return v.Conflicting.ID
}
