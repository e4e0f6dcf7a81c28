package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendance-tracker/internal/model"
)

func TestCalendarMidnightUsesLocation(t *testing.T) {
	hcm := time.FixedZone("ICT", 7*3600)
	cal := Calendar{Location: hcm}

	// 20:00 UTC on the 4th is already the 5th in UTC+7.
	got := cal.Midnight(time.Date(2024, 3, 4, 20, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, hcm), got)
}

func TestCalendarParseTimestamp(t *testing.T) {
	cal := Calendar{Location: time.UTC}
	want := time.Date(2024, 3, 4, 9, 15, 0, 0, time.UTC)

	for _, in := range []string{
		"2024-03-04T09:15:00Z",
		"2024-03-04T10:15:00+01:00",
		"2024-03-04T09:15:00",
		"2024-03-04T09:15",
		"2024-03-04 09:15:00",
	} {
		got, err := cal.ParseTimestamp(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), "%s parsed as %s", in, got)
	}

	_, err := cal.ParseTimestamp("09:15")
	assert.Error(t, err)
}

func TestCalendarParseDate(t *testing.T) {
	cal := Calendar{Location: time.UTC}

	got, err := cal.ParseDate("2024-03-04")
	require.NoError(t, err)
	assert.Equal(t, day(4), got)

	_, err = cal.ParseDate("2024-13-01")
	assert.Error(t, err)
}

func TestNewCalendar(t *testing.T) {
	cal, err := NewCalendar(time.UTC, "09:30")
	require.NoError(t, err)
	assert.Equal(t, 9*time.Hour+30*time.Minute, cal.LateAfter)

	cal, err = NewCalendar(nil, "")
	require.NoError(t, err)
	assert.Zero(t, cal.LateAfter)
	assert.Equal(t, model.AttendanceStatusPresent, cal.StatusFor(at(4, 23, 0)))

	_, err = NewCalendar(time.UTC, "half past nine")
	assert.Error(t, err)
}
