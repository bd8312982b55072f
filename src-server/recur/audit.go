package recur

import "log/slog"

// Auditor flags expansion results whose count is implausibly low for the
// frequency and window length, a regression detector for silent
// under-generation, never a correctness gate. It observes, logs and counts;
// it never touches the Expander's output.
//
// The zero value is silent, which is the convention for tests and CI; the
// deployed runtime hands it a live logger.
type Auditor struct {
	Logger *slog.Logger
}

// shortWindowDays is the window length below which a low count is legitimate
// rather than suspicious, per frequency. A 7-day window holding a single
// weekly date used to produce false-positive warnings; these carve-outs
// exist so it never does again.
var shortWindowDays = map[Frequency]int{
	FreqWeekly:         14,
	FreqBiweekly:       28,
	FreqMonthlyOrdinal: 56,
}

var frequencyUnitDays = map[Frequency]int{
	FreqWeekly:         7,
	FreqBiweekly:       14,
	FreqMonthlyOrdinal: 28,
}

// Audit emits at most one diagnostic per call when observed looks too low
// for the window. It reports whether it fired so callers can feed a metric.
//
// Bounded descriptors never warn: their truncation is intentional. Custom
// and pattern-less descriptors never warn either, since any count is
// plausible for an explicit date list.
func (a Auditor) Audit(d *Descriptor, observed int, windowDays int, eventLabel string, start, end DateKey) bool {
	if d == nil || d.Bounded() {
		return false
	}
	threshold, patterned := shortWindowDays[d.Frequency]
	if !patterned {
		return false
	}
	if windowDays < threshold {
		return false
	}
	if observed >= 2 {
		return false
	}

	expected := windowDays / frequencyUnitDays[d.Frequency]
	if expected < 2 {
		expected = 2
	}
	if a.Logger != nil {
		a.Logger.Warn("suspiciously few occurrences",
			"event", eventLabel,
			"frequency", d.Frequency.String(),
			"window_start", string(start),
			"window_end", string(end),
			"window_days", windowDays,
			"expected_at_least", expected,
			"got", observed)
	}
	return true
}
