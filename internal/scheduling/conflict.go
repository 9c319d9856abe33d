package scheduling

import "github.com/google/uuid"

// Overlaps is the standard half-open interval test: [s1,e1) and [s2,e2)
// collide iff s1 < e2 && s2 < e1. Back-to-back appointments do not overlap.
func Overlaps(s1, e1, s2, e2 TimeOfDay) bool {
	return s1 < e2 && s2 < e1
}

// HasConflict decides whether [start, end) collides with any existing
// appointment in the snapshot. Only calendar-occupying statuses count;
// exclude removes the appointment being rescheduled from the set so it
// cannot conflict with itself.
func HasConflict(existing []Appointment, start, end TimeOfDay, exclude uuid.UUID) bool {
	for _, a := range existing {
		if a.ID == exclude {
			continue
		}
		if !a.Status.Occupies() {
			continue
		}
		if Overlaps(start, end, a.Start, a.End) {
			return true
		}
	}
	return false
}
