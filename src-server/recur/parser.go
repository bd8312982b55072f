package recur

import (
	"strconv"
	"strings"
	"time"
)

// Parse turns free-form recurrence text into a normalized Descriptor. Two
// dialects are accepted: RFC-5545-like KEY=VALUE rules
// ("FREQ=WEEKLY;INTERVAL=2;BYDAY=TU") and plain keywords ("weekly",
// "every other week", "1st/3rd"). Matching is case-insensitive and
// unrecognized tokens inside a recognized rule are skipped, never fatal.
//
// A nil return means "no recurrence, one-off event"; callers must not treat
// it as an error. fallbackWeekday (0=Sunday..6=Saturday, anything else =
// unset) fills in the weekday when the rule text itself names none.
func Parse(ruleText string, fallbackWeekday int) *Descriptor {
	text := strings.TrimSpace(ruleText)
	if text == "" {
		return nil
	}

	if strings.Contains(text, "=") {
		if d := parseStructured(text, fallbackWeekday); d != nil {
			return d
		}
	}
	return parseKeywords(text, fallbackWeekday)
}

var byDayCodes = map[string]int{
	"SU": 0, "MO": 1, "TU": 2, "WE": 3, "TH": 4, "FR": 5, "SA": 6,
}

func parseStructured(text string, fallbackWeekday int) *Descriptor {
	d := &Descriptor{Frequency: FreqNone, Interval: 1, Weekday: -1}

	for _, pair := range strings.Split(text, ";") {
		key, value, found := strings.Cut(strings.TrimSpace(pair), "=")
		if !found {
			continue
		}
		key = strings.ToUpper(strings.TrimSpace(key))
		value = strings.ToUpper(strings.TrimSpace(value))

		switch key {
		case "FREQ":
			switch value {
			case "WEEKLY":
				d.Frequency = FreqWeekly
			case "MONTHLY":
				d.Frequency = FreqMonthlyOrdinal
			}
		case "INTERVAL":
			if n, err := strconv.Atoi(value); err == nil && n > 0 {
				d.Interval = n
			}
		case "BYDAY":
			for _, entry := range strings.Split(value, ",") {
				ordinal, weekday, ok := parseByDayEntry(strings.TrimSpace(entry))
				if !ok {
					continue
				}
				if d.Weekday < 0 {
					d.Weekday = weekday
				}
				if ordinal != 0 {
					d.Ordinals = appendOrdinal(d.Ordinals, ordinal)
				}
			}
		case "COUNT":
			if n, err := strconv.Atoi(value); err == nil && n > 0 {
				d.Count = n
			}
		case "UNTIL":
			if k, ok := parseUntil(value); ok {
				d.Until = k
			}
		}
		// any other key (BYMONTHDAY included) is retained noise from the
		// source data; skipping keeps the parser forward-compatible
	}

	if d.Frequency == FreqNone {
		return nil
	}
	if d.Frequency == FreqWeekly && d.Interval == 2 {
		d.Frequency = FreqBiweekly
	}
	if d.Weekday < 0 {
		if fallbackWeekday >= 0 && fallbackWeekday <= 6 {
			d.Weekday = fallbackWeekday
		} else {
			d.Guessed = true
		}
	}
	return d
}

// parseByDayEntry splits an optional signed ordinal from a two-letter
// weekday code, e.g. "1TU" -> (1, Tuesday), "-1MO" -> (-1, Monday),
// "WE" -> (0, Wednesday).
func parseByDayEntry(entry string) (ordinal int, weekday int, ok bool) {
	if len(entry) < 2 {
		return 0, 0, false
	}
	code := entry[len(entry)-2:]
	weekday, found := byDayCodes[code]
	if !found {
		return 0, 0, false
	}
	prefix := entry[:len(entry)-2]
	if prefix == "" {
		return 0, weekday, true
	}
	n, err := strconv.Atoi(prefix)
	if err != nil || n == 0 {
		return 0, 0, false
	}
	return n, weekday, true
}

// parseUntil accepts compact date (YYYYMMDD) and date-time-with-Z
// (YYYYMMDDTHHMMSSZ) forms.
func parseUntil(value string) (DateKey, bool) {
	if idx := strings.IndexByte(value, 'T'); idx >= 0 {
		value = value[:idx]
	}
	t, err := time.Parse("20060102", value)
	if err != nil {
		return "", false
	}
	return NewDateKey(t), true
}

var keywordWeekdays = map[string]int{
	"sunday": 0, "sun": 0,
	"monday": 1, "mon": 1,
	"tuesday": 2, "tue": 2, "tues": 2,
	"wednesday": 3, "wed": 3,
	"thursday": 4, "thu": 4, "thur": 4, "thurs": 4,
	"friday": 5, "fri": 5,
	"saturday": 6, "sat": 6,
}

var keywordOrdinals = map[string]int{
	"1st": 1, "first": 1,
	"2nd": 2, "second": 2,
	"3rd": 3, "third": 3,
	"4th": 4, "fourth": 4,
	"5th": 5, "fifth": 5,
	"last": -1,
}

func parseKeywords(text string, fallbackWeekday int) *Descriptor {
	lower := strings.ToLower(text)
	tokens := strings.FieldsFunc(lower, func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})

	weekday := -1
	var ordinals []int
	for _, token := range tokens {
		if w, ok := keywordWeekdays[token]; ok && weekday < 0 {
			weekday = w
		}
		if n, ok := keywordOrdinals[token]; ok {
			ordinals = appendOrdinal(ordinals, n)
		}
	}
	if weekday < 0 && fallbackWeekday >= 0 && fallbackWeekday <= 6 {
		weekday = fallbackWeekday
	}

	d := &Descriptor{Frequency: FreqNone, Interval: 1, Weekday: weekday, Guessed: weekday < 0}
	switch {
	case strings.Contains(lower, "every other week"),
		strings.Contains(lower, "biweekly"),
		strings.Contains(lower, "bi-weekly"),
		strings.Contains(lower, "fortnight"):
		d.Frequency = FreqBiweekly
		d.Interval = 2
	case strings.Contains(lower, "weekly"), strings.Contains(lower, "every week"):
		d.Frequency = FreqWeekly
	case len(ordinals) > 0:
		d.Frequency = FreqMonthlyOrdinal
		d.Ordinals = ordinals
	case strings.Contains(lower, "monthly"):
		d.Frequency = FreqMonthlyOrdinal
	case strings.Contains(lower, "seasonal"):
		// a few shows a year with no fixed shape; the closest honest
		// rendering is a guessed monthly pattern
		d.Frequency = FreqMonthlyOrdinal
		d.Guessed = true
	default:
		return nil
	}
	return d
}

func appendOrdinal(ordinals []int, n int) []int {
	for _, existing := range ordinals {
		if existing == n {
			return ordinals
		}
	}
	return append(ordinals, n)
}
