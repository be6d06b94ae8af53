package amgp

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useClock(t *testing.T, now time.Time) {
	t.Helper()
	SetClock(clockwork.NewFakeClockAt(now))
	t.Cleanup(func() { SetClock(nil) })
}

// observation times snap to the last synoptic hour
func Test_SnapSynoptic(t *testing.T) {
	day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	for h := 0; h < 24; h++ {
		got := SnapSynoptic(day.Add(time.Duration(h)*time.Hour + 42*time.Minute))
		assert.Equal(t, h-h%3, got.Hour(), "hour %d", h)
		assert.Equal(t, 10, got.Day())
		assert.Equal(t, 0, got.Minute())
	}
}

// sounding times snap to 00Z or 12Z
func Test_SnapUpperAir(t *testing.T) {
	day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	for h := 0; h < 24; h++ {
		got := SnapUpperAir(day.Add(time.Duration(h) * time.Hour))
		want := 0
		if h >= 12 {
			want = 12
		}
		assert.Equal(t, want, got.Hour(), "hour %d", h)
	}
}

func Test_SnapModelCycle(t *testing.T) {
	day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	for h := 0; h < 24; h++ {
		got := SnapModelCycle(day.Add(time.Duration(h) * time.Hour))
		assert.Equal(t, h-h%6, got.Hour(), "hour %d", h)
	}
}

// recent cycles allow for the model's publishing delay
func Test_SnapRecentModelCycle(t *testing.T) {
	// 00-02Z rolls back to 18Z of the day before
	got := SnapRecentModelCycle(time.Date(2024, 5, 10, 1, 30, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, 5, 9, 18, 0, 0, 0, time.UTC), got)

	got = SnapRecentModelCycle(time.Date(2024, 5, 10, 8, 59, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC), got)

	got = SnapRecentModelCycle(time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, 5, 10, 6, 0, 0, 0, time.UTC), got)
}

// "recent" resolves from the clock
func Test_ParseDate_recent(t *testing.T) {
	useClock(t, time.Date(2024, 5, 10, 1, 30, 0, 0, time.UTC))

	mt, err := ParseDate("recent")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC), mt.Obs)
	assert.Equal(t, time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC), mt.Upper)
	assert.Equal(t, time.Date(2024, 5, 9, 18, 0, 0, 0, time.UTC), mt.Gridded)
	assert.False(t, mt.NoGridded)
}

// "today" with an hour
func Test_ParseDate_today(t *testing.T) {
	useClock(t, time.Date(2024, 5, 10, 20, 0, 0, 0, time.UTC))

	mt, err := ParseDate("today, 14")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC), mt.Obs)
	assert.Equal(t, time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC), mt.Upper)
	assert.Equal(t, time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC), mt.Gridded)

	_, err = ParseDate("today, 25")
	assert.ErrorIs(t, err, ErrBadDate)
	_, err = ParseDate("today")
	assert.ErrorIs(t, err, ErrBadDate)
}

// explicit year, month, day and hour dates
func Test_ParseDate_explicit(t *testing.T) {
	mt, err := ParseDate("2021, 2, 14, 17")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2021, 2, 14, 15, 0, 0, 0, time.UTC), mt.Obs)
	assert.Equal(t, time.Date(2021, 2, 14, 12, 0, 0, 0, time.UTC), mt.Upper)
	assert.Equal(t, time.Date(2021, 2, 14, 12, 0, 0, 0, time.UTC), mt.Gridded)

	old, err := ParseDate("1975, 6, 1, 14")
	require.NoError(t, err)
	assert.True(t, old.NoGridded)
	assert.Equal(t, 12, old.Obs.Hour())

	_, err = ParseDate("1930, 1, 1, 0")
	assert.ErrorIs(t, err, ErrDateOutOfRange)
	_, err = ParseDate("2020, 13, 1, 0")
	assert.ErrorIs(t, err, ErrBadDate)
	_, err = ParseDate("2020, 1, 1")
	assert.ErrorIs(t, err, ErrBadDate)
	_, err = ParseDate("2020, x, 1, 0")
	assert.ErrorIs(t, err, ErrBadDate)
	_, err = ParseDate("")
	assert.ErrorIs(t, err, ErrBadDate)
}

// days past the end of the month are rejected, not rolled over
func Test_ParseDate_calendar(t *testing.T) {
	mt, err := ParseDate("2020, 2, 29, 12")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, 2, 29, 12, 0, 0, 0, time.UTC), mt.Obs)

	for _, spec := range []string{"2020, 2, 31, 12", "2021, 2, 29, 12", "2020, 4, 31, 0"} {
		_, err := ParseDate(spec)
		assert.ErrorIs(t, err, ErrBadDate, spec)
	}
}

// shifting moves the obs time and re-snaps the others
func Test_MapTime_Shift(t *testing.T) {
	mt, err := ParseDate("2021, 2, 14, 21")
	require.NoError(t, err)

	next, err := mt.Shift(6)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2021, 2, 15, 3, 0, 0, 0, time.UTC), next.Obs)
	assert.Equal(t, time.Date(2021, 2, 15, 0, 0, 0, 0, time.UTC), next.Upper)
	assert.Equal(t, time.Date(2021, 2, 15, 0, 0, 0, 0, time.UTC), next.Gridded)

	prev, err := mt.Shift(-12)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2021, 2, 14, 9, 0, 0, 0, time.UTC), prev.Obs)
}

func Test_MapTime_String(t *testing.T) {
	mt, err := ParseDate("2021, 2, 14, 17")
	require.NoError(t, err)
	assert.Equal(t, "2021, 2, 14, 15", mt.String())

	back, err := ParseDate(mt.String())
	require.NoError(t, err)
	assert.Equal(t, mt, back)
}

func Test_stamps(t *testing.T) {
	ts := time.Date(2021, 2, 4, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, "2021-02-04", DayStamp(ts))
	assert.Equal(t, "2021-02-04-09Z", NumStamp(ts))
	assert.Equal(t, "Feb 4, 2021 - 9Z", AlpStamp(ts))
}

// comma lists are trimmed and empty items dropped
func Test_splitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, splitList(" a, b,,c ", ","))
	assert.Nil(t, splitList("  ", ","))
}
