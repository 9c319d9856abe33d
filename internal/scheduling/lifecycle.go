package scheduling

// Valid status transitions. Terminal statuses (completed, cancelled,
// no_show) accept nothing; setting the current status again is a no-op
// and allowed.
//
//	scheduled -> confirmed | completed | cancelled | no_show
//	confirmed -> completed | cancelled | no_show
var transitions = map[AppointmentStatus]map[AppointmentStatus]bool{
	StatusScheduled: {
		StatusConfirmed: true,
		StatusCompleted: true,
		StatusCancelled: true,
		StatusNoShow:    true,
	},
	StatusConfirmed: {
		StatusCompleted: true,
		StatusCancelled: true,
		StatusNoShow:    true,
	},
}

// CanTransition reports whether an appointment may move from one status
// to another. Callers authorize separately; this encodes the state
// machine only.
func CanTransition(from, to AppointmentStatus) bool {
	if from == to {
		return true
	}
	return transitions[from][to]
}
