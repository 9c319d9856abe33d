package scheduling

import "time"

// UpdatePatch lists the optional fields a caller may change on an
// appointment. Only non-nil fields are applied; everything else keeps its
// stored value. The API layer never feeds raw request strings into SQL —
// it parses into this struct and the repository updates fixed columns.
type UpdatePatch struct {
	Date   *time.Time
	Start  *TimeOfDay
	Notes  *string
	Status *AppointmentStatus
}

// Empty reports whether the patch carries no recognized fields at all,
// which the orchestrator rejects as a validation error.
func (p UpdatePatch) Empty() bool {
	return p.Date == nil && p.Start == nil && p.Notes == nil && p.Status == nil
}

// ChangesSchedule reports whether the patch moves the appointment in
// time, which forces end-time recomputation and full availability and
// conflict revalidation.
func (p UpdatePatch) ChangesSchedule() bool {
	return p.Date != nil || p.Start != nil
}
