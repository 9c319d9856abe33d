package scheduling

import "sort"

// Window is a bookable span within one day.
type Window struct {
	Start TimeOfDay
	End   TimeOfDay
}

// MergeWindows collapses a doctor's time slots for one weekday into
// disjoint windows, sorted by start. Overlapping and back-to-back slots
// are unioned, so a doctor with 09:00-12:00 and 12:00-17:00 rows is
// treated as available 09:00-17:00.
func MergeWindows(slots []TimeSlot) []Window {
	if len(slots) == 0 {
		return nil
	}

	windows := make([]Window, 0, len(slots))
	for _, s := range slots {
		if s.Start >= s.End {
			continue
		}
		windows = append(windows, Window{Start: s.Start, End: s.End})
	}
	if len(windows) == 0 {
		return nil
	}

	sort.Slice(windows, func(i, j int) bool {
		return windows[i].Start < windows[j].Start
	})

	merged := windows[:1]
	for _, w := range windows[1:] {
		last := &merged[len(merged)-1]
		if w.Start <= last.End {
			if w.End > last.End {
				last.End = w.End
			}
			continue
		}
		merged = append(merged, w)
	}

	return merged
}

// Covers reports whether [start, end) fits entirely inside one merged
// window. Spanning a gap between two windows does not count.
func Covers(windows []Window, start, end TimeOfDay) bool {
	for _, w := range windows {
		if start >= w.Start && end <= w.End {
			return true
		}
	}
	return false
}
