package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func slot(start, end TimeOfDay) TimeSlot {
	return TimeSlot{Start: start, End: end}
}

func TestMergeWindows(t *testing.T) {
	tests := []struct {
		name  string
		slots []TimeSlot
		want  []Window
	}{
		{
			name:  "empty",
			slots: nil,
			want:  nil,
		},
		{
			name:  "single",
			slots: []TimeSlot{slot(9*60, 17*60)},
			want:  []Window{{9 * 60, 17 * 60}},
		},
		{
			name:  "back to back merge",
			slots: []TimeSlot{slot(9*60, 12*60), slot(12*60, 17*60)},
			want:  []Window{{9 * 60, 17 * 60}},
		},
		{
			name:  "overlapping merge",
			slots: []TimeSlot{slot(9*60, 13*60), slot(11*60, 17*60)},
			want:  []Window{{9 * 60, 17 * 60}},
		},
		{
			name:  "disjoint stay separate",
			slots: []TimeSlot{slot(13*60, 17*60), slot(9*60, 12*60)},
			want:  []Window{{9 * 60, 12 * 60}, {13 * 60, 17 * 60}},
		},
		{
			name:  "contained window absorbed",
			slots: []TimeSlot{slot(9*60, 17*60), slot(10*60, 11*60)},
			want:  []Window{{9 * 60, 17 * 60}},
		},
		{
			name:  "degenerate slot dropped",
			slots: []TimeSlot{slot(9*60, 9*60), slot(10*60, 11*60)},
			want:  []Window{{10 * 60, 11 * 60}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MergeWindows(tt.slots))
		})
	}
}

func TestCovers(t *testing.T) {
	windows := []Window{{9 * 60, 12 * 60}, {13 * 60, 17 * 60}}

	assert.True(t, Covers(windows, 9*60, 9*60+30))
	assert.True(t, Covers(windows, 11*60+30, 12*60), "window end is a valid appointment end")
	assert.True(t, Covers(windows, 13*60, 14*60))

	assert.False(t, Covers(windows, 8*60+30, 9*60), "before opening")
	assert.False(t, Covers(windows, 11*60+45, 12*60+15), "runs past window end")
	assert.False(t, Covers(windows, 12*60, 13*60), "falls in the gap")
	assert.False(t, Covers(windows, 11*60, 14*60), "cannot span two windows")
	assert.False(t, Covers(nil, 9*60, 10*60))
}
