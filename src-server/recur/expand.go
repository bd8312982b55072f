package recur

import (
	"sort"
	"time"
)

// Occurrence is a single calendar date produced by expansion. Occurrences are
// recomputed on every request and never persisted.
type Occurrence struct {
	DateKey DateKey

	// False when the date came from a partial/fallback pattern and is a
	// best-effort guess.
	Confident bool
}

// biweeklyEpoch anchors "every other week" parity when the event carries no
// anchor date, so the same series lands on the same weeks no matter which
// window is requested. 1970-01-04 is a Sunday; the stride reference for any
// weekday is the first such weekday on or after it.
var biweeklyEpoch = DateKey("1970-01-04")

// Expand resolves a descriptor into the ordered list of dates falling inside
// the window.
//
// Precedence: an anchor date inside the window short-circuits everything and
// yields exactly that one date, even when the abstract pattern disagrees with
// it; reconciling the two is the write path's concern, not the expander's.
// An anchor outside the window still serves as the stride reference for
// interval patterns.
//
// Bad input degrades to an empty result rather than an error: an invalid
// window, a weekday outside 0..6, or a dead bounded series all return nil so
// a dirty record costs a listing one row, not a page render.
func Expand(d *Descriptor, anchor DateKey, extraDates []DateKey, maxOccurrences int, w Window) []Occurrence {
	if !w.Valid() {
		return nil
	}

	if anchor.Valid() && w.Contains(anchor) {
		// a resolved date beats the abstract pattern outright, bounds included
		return []Occurrence{{DateKey: anchor, Confident: true}}
	}

	if d == nil || d.Frequency == FreqNone {
		return nil
	}

	confident := !d.Guessed
	var out []Occurrence

	switch d.Frequency {
	case FreqCustom:
		out = expandCustom(d, extraDates, w, confident)
	case FreqWeekly, FreqBiweekly:
		out = expandWeekly(d, anchor, w, confident)
	case FreqMonthlyOrdinal:
		out = expandMonthly(d, anchor, w, confident)
	default:
		return nil
	}

	return truncate(out, d, maxOccurrences)
}

func expandCustom(d *Descriptor, extraDates []DateKey, w Window, confident bool) []Occurrence {
	seen := make(map[DateKey]struct{})
	var out []Occurrence
	for _, k := range append(append([]DateKey{}, d.CustomDates...), extraDates...) {
		if !k.Valid() || !w.Contains(k) {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, Occurrence{DateKey: k, Confident: confident})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateKey < out[j].DateKey })
	return out
}

func expandWeekly(d *Descriptor, anchor DateKey, w Window, confident bool) []Occurrence {
	weekday, ok := resolveWeekday(d, anchor, w)
	if !ok {
		return nil
	}

	interval := d.Interval
	if d.Frequency == FreqBiweekly && interval < 2 {
		interval = 2
	}
	if interval < 1 {
		interval = 1
	}

	// first in-window date on the target weekday
	offset := (weekday - int(w.Start.Weekday()) + 7) % 7
	cursor := w.Start.AddDays(offset)

	if interval > 1 {
		// interval strides measure from a stable reference, not from the
		// window start, so adjacent windows agree on which weeks are "on"
		reference := anchor
		if !reference.Valid() {
			reference = biweeklyEpoch
		}
		// normalize to the first target weekday on or after the reference so
		// the delta below is an exact multiple of 7 even when the anchor's
		// own weekday contradicts the pattern's
		reference = reference.AddDays((weekday - int(reference.Weekday()) + 7) % 7)
		weeks := reference.DaysUntil(cursor) / 7
		if rem := ((weeks % interval) + interval) % interval; rem != 0 {
			cursor = cursor.AddDays(7 * (interval - rem))
		}
	}

	var out []Occurrence
	for cursor <= w.End {
		out = append(out, Occurrence{DateKey: cursor, Confident: confident})
		cursor = cursor.AddDays(7 * interval)
	}
	return out
}

func expandMonthly(d *Descriptor, anchor DateKey, w Window, confident bool) []Occurrence {
	weekday, ok := resolveWeekday(d, anchor, w)
	if !ok {
		return nil
	}
	ordinals := d.Ordinals
	if len(ordinals) == 0 {
		ordinals = []int{1}
	}

	var out []Occurrence
	seen := make(map[DateKey]struct{})
	cursor := w.Start.Time()
	end := w.End.Time()
	for month := time.Date(cursor.Year(), cursor.Month(), 1, 0, 0, 0, 0, time.UTC); !month.After(end); month = month.AddDate(0, 1, 0) {
		for _, n := range ordinals {
			k, resolved := nthWeekdayOfMonth(month.Year(), month.Month(), time.Weekday(weekday), n)
			if !resolved || !w.Contains(k) {
				continue
			}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, Occurrence{DateKey: k, Confident: confident})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateKey < out[j].DateKey })
	return out
}

// resolveWeekday picks the day-of-week a pattern runs on. A weekday outside
// 0..6 on a non-guessed descriptor is a contract violation and kills the
// expansion; a guessed descriptor instead borrows the anchor's weekday, or
// failing that the window start's, so the result is a flagged best-effort
// rather than nothing.
func resolveWeekday(d *Descriptor, anchor DateKey, w Window) (int, bool) {
	if d.Weekday >= 0 && d.Weekday <= 6 {
		return d.Weekday, true
	}
	if !d.Guessed {
		return 0, false
	}
	if anchor.Valid() {
		return int(anchor.Weekday()), true
	}
	return int(w.Start.Weekday()), true
}

func truncate(out []Occurrence, d *Descriptor, maxOccurrences int) []Occurrence {
	if d != nil && d.Until != "" {
		kept := out[:0]
		for _, o := range out {
			if o.DateKey <= d.Until {
				kept = append(kept, o)
			}
		}
		out = kept
	}
	if d != nil && d.Count > 0 && len(out) > d.Count {
		out = out[:d.Count]
	}
	if maxOccurrences > 0 && len(out) > maxOccurrences {
		out = out[:maxOccurrences]
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
