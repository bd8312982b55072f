package recur_test

import (
	"testing"

	"stagetime/src-server/recur"
)

func TestParseStructured(t *testing.T) {
	// case: plain weekly rule
	func() {
		d := recur.Parse("FREQ=WEEKLY;BYDAY=MO", -1)
		if d == nil {
			t.Fatal("expected a descriptor")
		}
		if d.Frequency != recur.FreqWeekly || d.Weekday != 1 || d.Guessed {
			t.Error("wrong weekly descriptor", d)
		}
	}()

	// case: interval=2 normalizes to biweekly, keys are case-insensitive
	func() {
		d := recur.Parse("freq=weekly;interval=2;byday=tu", -1)
		if d == nil {
			t.Fatal("expected a descriptor")
		}
		if d.Frequency != recur.FreqBiweekly || d.Interval != 2 || d.Weekday != 2 {
			t.Error("wrong biweekly descriptor", d)
		}
	}()

	// case: multiple ordinal BYDAY entries are all retained
	func() {
		d := recur.Parse("FREQ=MONTHLY;BYDAY=1TU,3TU", -1)
		if d == nil {
			t.Fatal("expected a descriptor")
		}
		if d.Frequency != recur.FreqMonthlyOrdinal || d.Weekday != 2 {
			t.Error("wrong monthly descriptor", d)
		}
		if len(d.Ordinals) != 2 || d.Ordinals[0] != 1 || d.Ordinals[1] != 3 {
			t.Error("wrong ordinals", d.Ordinals)
		}
	}()

	// case: negative ordinal means counting from month end
	func() {
		d := recur.Parse("FREQ=MONTHLY;BYDAY=-1MO", -1)
		if d == nil {
			t.Fatal("expected a descriptor")
		}
		if len(d.Ordinals) != 1 || d.Ordinals[0] != -1 || d.Weekday != 1 {
			t.Error("wrong last-weekday descriptor", d)
		}
	}()

	// case: missing BYDAY borrows the fallback weekday
	func() {
		d := recur.Parse("FREQ=WEEKLY;COUNT=10", 5)
		if d == nil {
			t.Fatal("expected a descriptor")
		}
		if d.Weekday != 5 || d.Count != 10 || d.Guessed {
			t.Error("fallback weekday not applied", d)
		}
	}()

	// case: missing BYDAY and no usable fallback degrades to a guess
	func() {
		d := recur.Parse("FREQ=WEEKLY", -1)
		if d == nil {
			t.Fatal("expected a descriptor")
		}
		if !d.Guessed || d.Weekday != -1 {
			t.Error("expected a guessed descriptor", d)
		}
	}()

	// case: UNTIL in compact date and date-time forms
	func() {
		d := recur.Parse("FREQ=WEEKLY;BYDAY=WE;UNTIL=20260301", -1)
		if d == nil || d.Until != recur.DateKey("2026-03-01") {
			t.Error("compact UNTIL not parsed", d)
		}
		d = recur.Parse("FREQ=WEEKLY;BYDAY=WE;UNTIL=20260301T040000Z", -1)
		if d == nil || d.Until != recur.DateKey("2026-03-01") {
			t.Error("date-time UNTIL not parsed", d)
		}
	}()

	// case: unrecognized keys and malformed entries are skipped, never fatal
	func() {
		d := recur.Parse("FREQ=WEEKLY;WKST=SU;BYSETPOS=2;BYDAY=XX,WE;BYMONTHDAY=15", -1)
		if d == nil {
			t.Fatal("expected a descriptor")
		}
		if d.Frequency != recur.FreqWeekly || d.Weekday != 3 {
			t.Error("unknown tokens should be ignored", d)
		}
	}()

	// case: unsupported FREQ is not a recognized rule
	func() {
		if d := recur.Parse("FREQ=DAILY;BYDAY=MO", -1); d != nil {
			t.Error("expected nil for unsupported FREQ, got", d)
		}
	}()
}

func TestParseKeywords(t *testing.T) {
	// case: bare "weekly" with a weekday name in the text
	func() {
		d := recur.Parse("Weekly - every Monday, 8pm sharp", -1)
		if d == nil {
			t.Fatal("expected a descriptor")
		}
		if d.Frequency != recur.FreqWeekly || d.Weekday != 1 || d.Guessed {
			t.Error("wrong keyword weekly descriptor", d)
		}
	}()

	// case: "every other week" is biweekly
	func() {
		d := recur.Parse("every other week", 4)
		if d == nil {
			t.Fatal("expected a descriptor")
		}
		if d.Frequency != recur.FreqBiweekly || d.Weekday != 4 {
			t.Error("wrong biweekly descriptor", d)
		}
	}()

	// case: bare ordinal tokens imply ordinal-monthly
	func() {
		d := recur.Parse("2nd/4th Tuesday", -1)
		if d == nil {
			t.Fatal("expected a descriptor")
		}
		if d.Frequency != recur.FreqMonthlyOrdinal || d.Weekday != 2 {
			t.Error("wrong ordinal-monthly descriptor", d)
		}
		if len(d.Ordinals) != 2 || d.Ordinals[0] != 2 || d.Ordinals[1] != 4 {
			t.Error("wrong ordinals", d.Ordinals)
		}
	}()

	// case: "last" counts from the month end
	func() {
		d := recur.Parse("last Friday of the month", -1)
		if d == nil {
			t.Fatal("expected a descriptor")
		}
		if len(d.Ordinals) != 1 || d.Ordinals[0] != -1 || d.Weekday != 5 {
			t.Error("wrong last-weekday descriptor", d)
		}
	}()

	// case: keyword with no resolvable weekday is a guess, not a failure
	func() {
		d := recur.Parse("weekly", -1)
		if d == nil {
			t.Fatal("expected a descriptor")
		}
		if !d.Guessed {
			t.Error("expected guessed descriptor", d)
		}
	}()

	// case: "seasonal" stays a flagged best-effort pattern
	func() {
		d := recur.Parse("Seasonal", 6)
		if d == nil {
			t.Fatal("expected a descriptor")
		}
		if d.Frequency != recur.FreqMonthlyOrdinal || !d.Guessed {
			t.Error("wrong seasonal descriptor", d)
		}
	}()

	// case: unrecognizable text means "no recurrence", not an error
	func() {
		for _, text := range []string{"", "   ", "call the venue for dates", "TBD"} {
			if d := recur.Parse(text, 1); d != nil {
				t.Errorf("expected nil for %q, got %+v", text, d)
			}
		}
	}()
}

func TestDescriptorLabel(t *testing.T) {
	for _, tc := range []struct {
		rule string
		want string
	}{
		{"FREQ=WEEKLY;BYDAY=MO", "Every Monday"},
		{"every other week thursday", "Every other Thursday"},
		{"FREQ=MONTHLY;BYDAY=1TU,3TU", "1st & 3rd Tuesday of the month"},
		{"last saturday", "last Saturday of the month"},
	} {
		if got := recur.Parse(tc.rule, -1).Label(); got != tc.want {
			t.Errorf("Label(%q) = %q, want %q", tc.rule, got, tc.want)
		}
	}
}

func TestDescriptorRRuleString(t *testing.T) {
	for _, tc := range []struct {
		rule string
		want string
	}{
		{"FREQ=WEEKLY;BYDAY=MO", "FREQ=WEEKLY;BYDAY=MO"},
		{"every other week thursday", "FREQ=WEEKLY;INTERVAL=2;BYDAY=TH"},
		{"FREQ=MONTHLY;BYDAY=1TU,3TU", "FREQ=MONTHLY;BYDAY=1TU,3TU"},
		{"FREQ=WEEKLY;BYDAY=WE;COUNT=5;UNTIL=20260301", "FREQ=WEEKLY;BYDAY=WE;COUNT=5;UNTIL=20260301"},
	} {
		if got := recur.Parse(tc.rule, -1).RRuleString(); got != tc.want {
			t.Errorf("RRuleString(%q) = %q, want %q", tc.rule, got, tc.want)
		}
	}

	// a guessed descriptor with no weekday has no RRULE form
	if got := recur.Parse("weekly", -1).RRuleString(); got != "" {
		t.Error("expected empty RRULE for guessed descriptor, got", got)
	}
}
