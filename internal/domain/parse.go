package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"

	displayDateLayout = "02-01-2006"
	displayLayout     = "02-01-2006 15:04"
)

// ParseEventTime combines a calendar date ("2006-01-02") and a clock time
// ("15:04") into a single instant in loc, at minute precision. Inputs come
// from the UI's two-step date-then-time flow.
func ParseEventTime(dateText, timeText string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, strings.TrimSpace(dateText), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad date %q", ErrValidation, dateText)
	}
	t, err := time.Parse(timeLayout, strings.TrimSpace(timeText))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad time %q", ErrValidation, timeText)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}

// ParseDate parses a calendar date ("2006-01-02") in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad date %q", ErrValidation, s)
	}
	return d, nil
}

// FormatEventTime renders an instant the way the UI shows it: DD-MM-YYYY HH:MM.
func FormatEventTime(t time.Time) string {
	return t.Format(displayLayout)
}

// FormatDate renders a calendar date as DD-MM-YYYY.
func FormatDate(t time.Time) string {
	return t.Format(displayDateLayout)
}

// FormatDateKey renders a calendar date in the parseable form, for use as
// a callback identifier round-tripped through the UI.
func FormatDateKey(t time.Time) string {
	return t.Format(dateLayout)
}
