package schedule

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kyiv(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Kyiv")
	require.NoError(t, err)
	return loc
}

func TestParseSlot(t *testing.T) {
	t.Parallel()

	slot, err := ParseSlot("14:30")
	require.NoError(t, err)
	assert.Equal(t, Slot{Hour: 14, Minute: 30}, slot)
	assert.Equal(t, "14:30", slot.String())

	for _, bad := range []string{"", "8", "24:00", "08:60", "aa:bb"} {
		_, err := ParseSlot(bad)
		assert.Error(t, err, bad)
	}
}

func TestFixedTimesGate(t *testing.T) {
	t.Parallel()

	loc := kyiv(t)
	gate := NewGate(FixedTimes{Slots: []Slot{{8, 0}, {14, 30}, {17, 45}}}, loc)

	cases := []struct {
		name  string
		at    time.Time
		force bool
		want  bool
	}{
		{"exact morning slot", time.Date(2025, 3, 1, 8, 0, 0, 0, loc), false, true},
		{"seconds ignored", time.Date(2025, 3, 1, 14, 30, 59, 0, loc), false, true},
		{"one minute late", time.Date(2025, 3, 1, 8, 1, 0, 0, loc), false, false},
		{"matching minute other hour", time.Date(2025, 3, 1, 9, 0, 0, 0, loc), false, false},
		{"force overrides", time.Date(2025, 3, 1, 3, 7, 0, 0, loc), true, true},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, gate.Allow(tc.at, tc.force), tc.name)
		// repeated calls never change the answer
		assert.Equal(t, tc.want, gate.Allow(tc.at, tc.force), tc.name)
	}
}

func TestGateConvertsToConfiguredZone(t *testing.T) {
	t.Parallel()

	loc := kyiv(t)
	gate := NewGate(FixedTimes{Slots: []Slot{{8, 0}}}, loc)

	local := time.Date(2025, 7, 10, 8, 0, 0, 0, loc)
	assert.True(t, gate.Allow(local.UTC(), false))
}

func TestWindowScheduledHourIsStableAndInRange(t *testing.T) {
	t.Parallel()

	w, err := NewWindow(9, 21, "@ai_channel")
	require.NoError(t, err)

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for day := 0; day < 400; day++ {
		d := start.AddDate(0, 0, day)
		first := w.ScheduledHour(d)
		assert.Equal(t, first, w.ScheduledHour(d.Add(13*time.Hour)), "same day must give same hour")
		assert.GreaterOrEqual(t, first, 9)
		assert.LessOrEqual(t, first, 21)
	}
}

func TestWindowGatePassesOnlyAtScheduledHour(t *testing.T) {
	t.Parallel()

	w, err := NewWindow(10, 12, "-100123")
	require.NoError(t, err)
	gate := NewGate(w, time.UTC)

	day := time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC)
	hour := w.ScheduledHour(day)

	passes := 0
	for h := 0; h < 24; h++ {
		if gate.Allow(day.Add(time.Duration(h)*time.Hour), false) {
			passes++
			assert.Equal(t, hour, h)
		}
	}
	assert.Equal(t, 1, passes)
}

func TestWindowSingleHour(t *testing.T) {
	t.Parallel()

	w, err := NewWindow(7, 7, "x")
	require.NoError(t, err)
	assert.Equal(t, 7, w.ScheduledHour(time.Now()))
}

func TestNewWindowRejectsBadBounds(t *testing.T) {
	t.Parallel()

	_, err := NewWindow(12, 9, "x")
	assert.Error(t, err)
	_, err = NewWindow(-1, 9, "x")
	assert.Error(t, err)
	_, err = NewWindow(1, 24, "x")
	assert.Error(t, err)
}
