package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{"09:00", 9 * 60, false},
		{"00:00", 0, false},
		{"23:59", 23*60 + 59, false},
		{"14:30:00", 14*60 + 30, false},
		{"24:00", 0, true},
		{"09:60", 0, true},
		{"9am", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseTimeOfDay(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestTimeOfDayString(t *testing.T) {
	assert.Equal(t, "09:05", TimeOfDay(9*60+5).String())
	assert.Equal(t, "00:00", TimeOfDay(0).String())
	assert.Equal(t, "16:30", TimeOfDay(16*60+30).String())
}

func TestTimeOfDayAdd(t *testing.T) {
	start := TimeOfDay(9 * 60)
	assert.Equal(t, TimeOfDay(9*60+30), start.Add(30*time.Minute))

	// Clamped at end of day.
	late := TimeOfDay(23*60 + 50)
	assert.Equal(t, TimeOfDay(MinutesPerDay), late.Add(30*time.Minute))
}

func TestTimeOfDayAt(t *testing.T) {
	date := time.Date(2026, time.September, 7, 0, 0, 0, 0, time.Local)
	at := TimeOfDay(14 * 60).At(date)
	assert.Equal(t, 14, at.Hour())
	assert.Equal(t, 0, at.Minute())
	assert.Equal(t, date.Day(), at.Day())
}

func TestTimeOfDayJSON(t *testing.T) {
	b, err := TimeOfDay(9 * 60).MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"09:00"`, string(b))

	var parsed TimeOfDay
	require.NoError(t, parsed.UnmarshalJSON([]byte(`"17:45"`)))
	assert.Equal(t, TimeOfDay(17*60+45), parsed)

	assert.Error(t, parsed.UnmarshalJSON([]byte(`"later"`)))
}
