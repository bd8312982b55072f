package recur

import (
	"strings"

	"golang.org/x/text/cases"
)

// SeriesRecord is the raw, possibly partial, event record the de-duplicator
// reconciles before anything is expanded. Community-maintained directories
// accumulate near-duplicate rows for the same night: one with the rule,
// one with the start time, one with neither.
type SeriesRecord struct {
	ID      string
	VenueID string
	Title   string

	RuleText  string
	StartTime string // "HH:MM", empty = unknown
	Weekday   int    // 0=Sunday..6=Saturday, -1 = unknown
	AnchorKey DateKey
}

// CompletenessScore ranks candidates within a duplicate group: one point
// each for a recurrence rule, a start time, and a weekday.
func (r SeriesRecord) CompletenessScore() int {
	score := 0
	if strings.TrimSpace(r.RuleText) != "" {
		score++
	}
	if strings.TrimSpace(r.StartTime) != "" {
		score++
	}
	if r.Weekday >= 0 && r.Weekday <= 6 {
		score++
	}
	return score
}

var titleFolder = cases.Fold()

// seriesGroupKey identifies a logical series: same venue plus a casefolded,
// whitespace-normalized title.
type seriesGroupKey struct {
	venueID string
	title   string
}

func groupKey(r SeriesRecord) seriesGroupKey {
	folded := titleFolder.String(strings.TrimSpace(r.Title))
	return seriesGroupKey{
		venueID: r.VenueID,
		title:   strings.Join(strings.Fields(folded), " "),
	}
}

// Dedupe collapses records that describe the same logical series down to the
// most complete one per (venue, title) group; ties keep the first
// encountered. Only winners feed the Expander. Losers that carry no
// recurrence pattern at all come back separately so callers may still
// surface them as one-off records; patterned losers are dropped entirely.
// Input order is preserved in both outputs.
func Dedupe(records []SeriesRecord) (series []SeriesRecord, oneOffs []SeriesRecord) {
	winnerIdx := make(map[seriesGroupKey]int)
	losers := make([]SeriesRecord, 0)

	for _, r := range records {
		key := groupKey(r)
		idx, seen := winnerIdx[key]
		if !seen {
			winnerIdx[key] = len(series)
			series = append(series, r)
			continue
		}
		if r.CompletenessScore() > series[idx].CompletenessScore() {
			losers = append(losers, series[idx])
			series[idx] = r
		} else {
			losers = append(losers, r)
		}
	}

	for _, r := range losers {
		if Parse(r.RuleText, r.Weekday) == nil {
			oneOffs = append(oneOffs, r)
		}
	}
	return series, oneOffs
}
