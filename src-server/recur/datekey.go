package recur

import (
	"time"
)

const dateKeyLayout = "2006-01-02"

// A calendar date with no time component, in "YYYY-MM-DD" form. Because the
// form is zero-padded ISO, lexicographic ordering is chronological ordering,
// so DateKeys compare directly with < and >.
type DateKey string

// NewDateKey truncates an instant to the civil date of its own location.
// Callers that care about a display timezone must convert first with
// t.In(loc); the engine itself never reads an ambient clock or zone.
func NewDateKey(t time.Time) DateKey {
	return DateKey(t.Format(dateKeyLayout))
}

func ParseDateKey(s string) (DateKey, bool) {
	t, err := time.Parse(dateKeyLayout, s)
	if err != nil {
		return "", false
	}
	return NewDateKey(t), true
}

func (k DateKey) Valid() bool {
	// time.Parse tolerates unpadded fields like "2026-3-2", which would break
	// the lexicographic ordering contract, so require the length too
	if len(k) != len(dateKeyLayout) {
		return false
	}
	_, err := time.Parse(dateKeyLayout, string(k))
	return err == nil
}

// Time returns midnight of the date in UTC. The weekday and all date
// arithmetic of a civil date are location-independent, so UTC is only an
// internal carrier here, never a day boundary.
func (k DateKey) Time() time.Time {
	t, err := time.Parse(dateKeyLayout, string(k))
	if err != nil {
		return time.Time{}
	}
	return t
}

func (k DateKey) Weekday() time.Weekday {
	return k.Time().Weekday()
}

func (k DateKey) AddDays(n int) DateKey {
	return NewDateKey(k.Time().AddDate(0, 0, n))
}

// DaysUntil returns the signed number of days from k to other.
func (k DateKey) DaysUntil(other DateKey) int {
	return int(other.Time().Sub(k.Time()) / (24 * time.Hour))
}

// Inclusive calendar-date bounds for an expansion request.
type Window struct {
	Start DateKey
	End   DateKey
}

func (w Window) Valid() bool {
	return w.Start.Valid() && w.End.Valid() && w.Start <= w.End
}

func (w Window) Contains(k DateKey) bool {
	return k >= w.Start && k <= w.End
}

// Days returns the inclusive length of the window in days, or 0 when the
// window is invalid.
func (w Window) Days() int {
	if !w.Valid() {
		return 0
	}
	return w.Start.DaysUntil(w.End) + 1
}

// nthWeekdayOfMonth resolves "the nth weekday of the month containing k".
// Positive n counts from the month start, negative from the month end
// (-1 = last). Returns false when the month has no such date, e.g. a 5th
// Tuesday in a four-Tuesday month.
func nthWeekdayOfMonth(year int, month time.Month, weekday time.Weekday, n int) (DateKey, bool) {
	if n == 0 {
		return "", false
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := first.AddDate(0, 1, -1).Day()

	if n > 0 {
		offset := (int(weekday) - int(first.Weekday()) + 7) % 7
		day := 1 + offset + (n-1)*7
		if day > daysInMonth {
			return "", false
		}
		return NewDateKey(time.Date(year, month, day, 0, 0, 0, 0, time.UTC)), true
	}

	last := time.Date(year, month, daysInMonth, 0, 0, 0, 0, time.UTC)
	offset := (int(last.Weekday()) - int(weekday) + 7) % 7
	day := daysInMonth - offset - (-n-1)*7
	if day < 1 {
		return "", false
	}
	return NewDateKey(time.Date(year, month, day, 0, 0, 0, 0, time.UTC)), true
}
