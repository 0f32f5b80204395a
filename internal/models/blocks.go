package models

import "strings"

// BlockDefinition names an hour range [StartHour, EndHour) that groups slots into a block.
type BlockDefinition struct {
	Name      string
	StartHour int
	EndHour   int
}

// StandardTimeSlots generates back-to-back slots per day. Zero arguments fall back to
// 08:00-18:00, 60 minute slots, Monday to Friday.
func StandardTimeSlots(startHour, endHour, slotMinutes int, days []DayOfWeek) []TimeSlot {
	if startHour == 0 && endHour == 0 {
		startHour, endHour = 8, 18
	}
	if slotMinutes <= 0 {
		slotMinutes = 60
	}
	if len(days) == 0 {
		days = []DayOfWeek{Monday, Tuesday, Wednesday, Thursday, Friday}
	}
	var slots []TimeSlot
	for _, day := range days {
		for start := startHour * 60; start+slotMinutes <= endHour*60; start += slotMinutes {
			slots = append(slots, TimeSlot{Day: day, StartMinute: start, DurationMinutes: slotMinutes})
		}
	}
	return slots
}

// BlocksFromSlots partitions slots by definition order; definitions that match nothing are skipped.
func BlocksFromSlots(slots []TimeSlot, defs []BlockDefinition) []Block {
	var blocks []Block
	for _, def := range defs {
		var matched []TimeSlot
		for _, slot := range slots {
			hour := slot.StartHour()
			if hour >= def.StartHour && hour < def.EndHour {
				matched = append(matched, slot)
			}
		}
		if len(matched) == 0 {
			continue
		}
		blocks = append(blocks, Block{
			ID:    strings.ReplaceAll(strings.ToLower(strings.TrimSpace(def.Name)), " ", "_"),
			Name:  def.Name,
			Slots: matched,
		})
	}
	return blocks
}

// BuildWeeks creates count consecutive weeks sharing the same blocks.
func BuildWeeks(firstWeek, count, year int, blocks []Block) []Week {
	weeks := make([]Week, 0, count)
	for i := 0; i < count; i++ {
		weeks = append(weeks, Week{Number: firstWeek + i, Year: year, Blocks: blocks})
	}
	return weeks
}
