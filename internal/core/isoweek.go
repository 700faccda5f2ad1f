package core

import (
	"fmt"
	"time"
)

// WeekNumber returns the ISO-8601 week of t as YYYYWW, where YYYY is the
// ISO week-year. Weeks start on Monday and week 1 is the week holding the
// year's first Thursday, so dates near New Year can belong to the
// neighbouring year. The date is taken in UTC.
func WeekNumber(t time.Time) string {
	u := t.UTC()
	day := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)

	// Shift to the Thursday of the same Monday-based week.
	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	thursday := day.AddDate(0, 0, 4-weekday)

	week := (thursday.YearDay()-1)/7 + 1
	return fmt.Sprintf("%04d%02d", thursday.Year(), week)
}

// ParseDate parses a calendar date in YYYY-MM-DD form as a UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q, want YYYY-MM-DD", ErrInvalidParams, s)
	}
	return t, nil
}
