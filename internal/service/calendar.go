package service

import (
	"fmt"
	"time"

	"attendance-tracker/internal/model"
)

// Calendar resolves "today" and time-of-day rules in the server's location.
type Calendar struct {
	Location  *time.Location
	LateAfter time.Duration // offset from midnight; zero disables Late
	Now       func() time.Time
}

func NewCalendar(loc *time.Location, lateAfter string) (Calendar, error) {
	if loc == nil {
		loc = time.Local
	}
	cal := Calendar{Location: loc, Now: time.Now}
	if lateAfter != "" {
		d, err := ParseTimeOfDay(lateAfter)
		if err != nil {
			return Calendar{}, err
		}
		cal.LateAfter = d
	}
	return cal, nil
}

func (c Calendar) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

func (c Calendar) loc() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

// Midnight returns the start of t's calendar day.
func (c Calendar) Midnight(t time.Time) time.Time {
	y, m, d := t.In(c.loc()).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.loc())
}

// Today returns the start of the current calendar day.
func (c Calendar) Today() time.Time {
	return c.Midnight(c.now())
}

// ParseDate parses a YYYY-MM-DD date as midnight in the calendar's location.
func (c Calendar) ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(time.DateOnly, s, c.loc())
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.DateTime,
}

// ParseTimestamp accepts RFC 3339 or a zone-less local date-time, as sent by
// an HTML datetime-local input.
func (c Calendar) ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, c.loc()); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// StatusFor derives the attendance status from the check-in time.
func (c Calendar) StatusFor(checkIn *time.Time) model.AttendanceStatus {
	if checkIn == nil || c.LateAfter <= 0 {
		return model.AttendanceStatusPresent
	}
	if checkIn.Sub(c.Midnight(*checkIn)) > c.LateAfter {
		return model.AttendanceStatusLate
	}
	return model.AttendanceStatusPresent
}

// ParseTimeOfDay parses "HH:MM" into an offset from midnight.
func ParseTimeOfDay(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
