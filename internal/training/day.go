package training

import (
	"fmt"
	"time"
)

const DayLayout = "2006-01-02"

// Day truncates t to midnight UTC of its calendar date in t's own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

func FormatDay(t time.Time) string { return t.Format(DayLayout) }

func AddDays(t time.Time, n int) time.Time { return t.AddDate(0, 0, n) }

// DaysBetween returns the number of calendar days from a to b; both must be day values.
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

// Week returns the Monday starting the ISO week that contains t.
func Week(t time.Time) time.Time {
	t = Day(t)
	offset := (int(t.Weekday()) + 6) % 7
	return AddDays(t, -offset)
}
