package recur_test

import (
	"testing"

	"stagetime/src-server/recur"
)

func TestMergeCancellation(t *testing.T) {
	occurrences := []recur.Occurrence{
		{DateKey: "2026-03-02", Confident: true},
		{DateKey: "2026-03-09", Confident: true},
	}
	overrides := []recur.Override{
		{EventID: "ev1", DateKey: "2026-03-02", Status: recur.StatusCancelled},
	}

	merged := recur.Merge("ev1", occurrences, overrides)
	if len(merged) != 2 {
		t.Fatal("merge must not filter cancelled dates, got", len(merged))
	}
	if !merged[0].IsCancelled || merged[0].Override == nil {
		t.Error("2026-03-02 should merge to cancelled")
	}
	if merged[1].IsCancelled || merged[1].Override != nil {
		t.Error("2026-03-09 should stay normal")
	}

	// reverting the override (deleting it) falls back to the base schedule
	merged = recur.Merge("ev1", occurrences, nil)
	if merged[0].IsCancelled || merged[0].Override != nil {
		t.Error("reverted date should show as normal again")
	}
}

func TestMergeIdempotent(t *testing.T) {
	occurrences := []recur.Occurrence{
		{DateKey: "2026-03-02", Confident: true},
		{DateKey: "2026-03-09", Confident: false},
	}
	overrides := []recur.Override{
		{EventID: "ev1", DateKey: "2026-03-09", Status: recur.StatusNormal, OverrideStartTime: "21:00"},
	}

	first := recur.Merge("ev1", occurrences, overrides)
	second := recur.Merge("ev1", occurrences, overrides)
	if len(first) != len(second) {
		t.Fatal("idempotence broken: lengths differ")
	}
	for i := range first {
		if first[i].DateKey != second[i].DateKey ||
			first[i].Confident != second[i].Confident ||
			first[i].IsCancelled != second[i].IsCancelled ||
			(first[i].Override == nil) != (second[i].Override == nil) {
			t.Error("idempotence broken at", first[i].DateKey)
		}
	}
	if first[1].Override == nil || first[1].Override.OverrideStartTime != "21:00" {
		t.Error("override fields should carry through the merge")
	}
}

func TestMergeIgnoresForeignOverrides(t *testing.T) {
	occurrences := []recur.Occurrence{{DateKey: "2026-03-02", Confident: true}}
	overrides := []recur.Override{
		{EventID: "someone-else", DateKey: "2026-03-02", Status: recur.StatusCancelled},
	}
	merged := recur.Merge("ev1", occurrences, overrides)
	if merged[0].IsCancelled {
		t.Error("override for a different event must not apply")
	}
}

func TestMergePatchAttachesUnresolved(t *testing.T) {
	// a reschedule target inside a patch is attached verbatim; chasing it is
	// the consumer's job
	occurrences := []recur.Occurrence{{DateKey: "2026-03-02", Confident: true}}
	overrides := []recur.Override{
		{
			EventID: "ev1",
			DateKey: "2026-03-02",
			Status:  recur.StatusNormal,
			Patch:   map[string]string{"dateKey": "2026-03-04", "hostName": "Maya"},
		},
	}
	merged := recur.Merge("ev1", occurrences, overrides)
	if merged[0].Override == nil || merged[0].Override.Patch["dateKey"] != "2026-03-04" {
		t.Error("patch should attach unresolved")
	}
	if merged[0].DateKey != "2026-03-02" {
		t.Error("merge must not move the occurrence to the patch target")
	}
}

func TestWithoutCancelled(t *testing.T) {
	views := []recur.MergedOccurrence{
		{DateKey: "2026-03-02", IsCancelled: true},
		{DateKey: "2026-03-09"},
	}
	kept := recur.WithoutCancelled(views)
	if len(kept) != 1 || kept[0].DateKey != "2026-03-09" {
		t.Error("cancelled filter broken:", kept)
	}
}
