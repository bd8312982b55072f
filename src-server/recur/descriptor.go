package recur

import (
	"fmt"
	"strings"
	"time"
)

type Frequency int

const (
	FreqNone Frequency = iota
	FreqWeekly
	FreqBiweekly
	FreqMonthlyOrdinal
	FreqCustom
)

func (f Frequency) String() string {
	switch f {
	case FreqWeekly:
		return "weekly"
	case FreqBiweekly:
		return "biweekly"
	case FreqMonthlyOrdinal:
		return "monthly-ordinal"
	case FreqCustom:
		return "custom"
	default:
		return "none"
	}
}

// Descriptor is the normalized shape of an abstract recurrence pattern,
// independent of any one concrete date. It is an immutable value object;
// Parse is the only place free-form text turns into one.
type Descriptor struct {
	Frequency Frequency

	// Multiplier on the base frequency unit. Always >= 1.
	Interval int

	// 0=Sunday..6=Saturday, -1 when no weekday could be resolved.
	Weekday int

	// nth-weekday-of-month rules, only for FreqMonthlyOrdinal. Negative
	// counts from the month end, -1 = last. May hold several at once
	// ("1st and 3rd Tuesday").
	Ordinals []int

	// Explicit dates, only for FreqCustom.
	CustomDates []DateKey

	// Explicit termination. Zero values mean unbounded.
	Count int
	Until DateKey

	// Set when the descriptor came from a keyword fallback with no
	// resolvable weekday; occurrences expanded from it carry a false
	// confidence flag.
	Guessed bool
}

// Bounded reports whether the descriptor carries an intentional truncation
// (occurrence count or hard end date). The Auditor never warns on bounded
// descriptors.
func (d *Descriptor) Bounded() bool {
	return d != nil && (d.Count > 0 || d.Until != "")
}

var ordinalNames = map[int]string{
	1: "1st", 2: "2nd", 3: "3rd", 4: "4th", 5: "5th",
	-1: "last", -2: "2nd-to-last",
}

func ordinalName(n int) string {
	if s, ok := ordinalNames[n]; ok {
		return s
	}
	return fmt.Sprintf("%dth", n)
}

// Label renders the pattern for display, e.g. "Every Monday" or
// "1st & 3rd Tuesday of the month". The label describes the series even when
// an anchor date pins the actual occurrence.
func (d *Descriptor) Label() string {
	if d == nil {
		return ""
	}
	weekdayName := "?"
	if d.Weekday >= 0 && d.Weekday <= 6 {
		weekdayName = time.Weekday(d.Weekday).String()
	}
	switch d.Frequency {
	case FreqWeekly:
		if d.Interval > 1 {
			return fmt.Sprintf("Every %d weeks on %s", d.Interval, weekdayName)
		}
		return "Every " + weekdayName
	case FreqBiweekly:
		return "Every other " + weekdayName
	case FreqMonthlyOrdinal:
		names := make([]string, 0, len(d.Ordinals))
		for _, n := range d.Ordinals {
			names = append(names, ordinalName(n))
		}
		if len(names) == 0 {
			return "Monthly on " + weekdayName
		}
		return fmt.Sprintf("%s %s of the month", strings.Join(names, " & "), weekdayName)
	case FreqCustom:
		return "Select dates"
	default:
		return ""
	}
}

var weekdayCodes = [...]string{"SU", "MO", "TU", "WE", "TH", "FR", "SA"}

// RRuleString renders the descriptor back into an RFC-5545 RRULE property
// value for iCalendar export. Custom-date and pattern-less descriptors have
// no RRULE form and render to "".
func (d *Descriptor) RRuleString() string {
	if d == nil || d.Weekday < 0 || d.Weekday > 6 {
		return ""
	}
	var parts []string
	switch d.Frequency {
	case FreqWeekly:
		parts = append(parts, "FREQ=WEEKLY")
		if d.Interval > 1 {
			parts = append(parts, fmt.Sprintf("INTERVAL=%d", d.Interval))
		}
		parts = append(parts, "BYDAY="+weekdayCodes[d.Weekday])
	case FreqBiweekly:
		parts = append(parts, "FREQ=WEEKLY", "INTERVAL=2", "BYDAY="+weekdayCodes[d.Weekday])
	case FreqMonthlyOrdinal:
		parts = append(parts, "FREQ=MONTHLY")
		days := make([]string, 0, len(d.Ordinals))
		for _, n := range d.Ordinals {
			days = append(days, fmt.Sprintf("%d%s", n, weekdayCodes[d.Weekday]))
		}
		if len(days) == 0 {
			days = append(days, "1"+weekdayCodes[d.Weekday])
		}
		parts = append(parts, "BYDAY="+strings.Join(days, ","))
	default:
		return ""
	}
	if d.Count > 0 {
		parts = append(parts, fmt.Sprintf("COUNT=%d", d.Count))
	}
	if d.Until != "" {
		parts = append(parts, "UNTIL="+strings.ReplaceAll(string(d.Until), "-", ""))
	}
	return strings.Join(parts, ";")
}
