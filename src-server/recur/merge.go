package recur

import "context"

type OverrideStatus string

const (
	StatusNormal    OverrideStatus = "normal"
	StatusCancelled OverrideStatus = "cancelled"
)

// Override is a persisted per-date exception layered onto the base schedule:
// a cancellation, a rescheduled time, substitute cover media, or an arbitrary
// field patch. At most one exists per (event, date key) pair; that uniqueness
// is the store's invariant, not this engine's.
type Override struct {
	EventID string
	DateKey DateKey

	Status OverrideStatus

	OverrideStartTime     string // "HH:MM", empty = keep base time
	OverrideCoverMediaURL string
	OverrideNotes         string

	// Arbitrary additional field replacements, e.g. a reschedule target
	// under "dateKey". The Merger attaches but never interprets it.
	Patch map[string]string
}

// Cancelled is the single source of truth for "this date is off"; there is
// no independently stored flag to drift out of sync.
func (o *Override) Cancelled() bool {
	return o != nil && o.Status == StatusCancelled
}

// OverrideStore is the collaborator read interface implemented by
// persistence. Callers batch-fetch once per window before merging; the
// engine never reaches out per occurrence.
type OverrideStore interface {
	FetchOverrides(ctx context.Context, eventID string, start, end DateKey) ([]Override, error)
}

// OverrideKey is the composite lookup key for one event's date. A struct key
// beats string concatenation: no delimiter collisions, no garbage.
type OverrideKey struct {
	EventID string
	DateKey DateKey
}

// MergedOccurrence is the final per-date view after overrides are applied.
// Ephemeral, recomputed per request.
type MergedOccurrence struct {
	DateKey     DateKey
	Confident   bool
	Override    *Override
	IsCancelled bool
}

// IndexOverrides builds the composite-key lookup in one pass. Later records
// for the same key win, mirroring the store's one-override-per-date upsert.
func IndexOverrides(overrides []Override) map[OverrideKey]Override {
	index := make(map[OverrideKey]Override, len(overrides))
	for _, o := range overrides {
		index[OverrideKey{EventID: o.EventID, DateKey: o.DateKey}] = o
	}
	return index
}

// Merge attaches each occurrence's override, if any. Cancelled dates are not
// filtered out; whether to hide or show them with a toggle is the caller's
// display decision. An empty override list (including a store that quietly
// returned nothing) simply yields every date as normal. Inputs are never
// mutated, so merging twice gives identical output.
//
// A patch may carry a reschedule target pointing at another date; chasing
// such cross-date chains is explicitly a consumer's job, not Merge's.
func Merge(eventID string, occurrences []Occurrence, overrides []Override) []MergedOccurrence {
	index := IndexOverrides(overrides)

	out := make([]MergedOccurrence, 0, len(occurrences))
	for _, occ := range occurrences {
		view := MergedOccurrence{
			DateKey:   occ.DateKey,
			Confident: occ.Confident,
		}
		if o, ok := index[OverrideKey{EventID: eventID, DateKey: occ.DateKey}]; ok {
			override := o
			view.Override = &override
			view.IsCancelled = override.Cancelled()
		}
		out = append(out, view)
	}
	return out
}

// WithoutCancelled is the "normal occurrences only" view mode.
func WithoutCancelled(views []MergedOccurrence) []MergedOccurrence {
	out := make([]MergedOccurrence, 0, len(views))
	for _, v := range views {
		if v.IsCancelled {
			continue
		}
		out = append(out, v)
	}
	return out
}
