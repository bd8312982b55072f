package model_test

import (
	"context"
	"database/sql"
	"testing"

	"stagetime/src-server/model"
	"stagetime/src-server/recur"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	db, err := sql.Open(sqliteshim.ShimName, ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	bundb := bun.NewDB(db, sqlitedialect.New())
	for _, m := range []interface{}{
		(*model.Venue)(nil),
		(*model.Event)(nil),
		(*model.OccurrenceOverride)(nil),
	} {
		if _, err := bundb.NewCreateTable().Model(m).IfNotExists().Exec(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	return bundb
}

func seedEvent(t *testing.T, bundb *bun.DB) model.Event {
	t.Helper()
	venueModel := model.Venue{
		ID:   uuid.NewString(),
		Name: "The Basement",
	}
	if err := venueModel.Upsert(context.Background(), bundb); err != nil {
		t.Fatal(err)
	}
	eventModel := model.Event{
		ID:        uuid.NewString(),
		VenueID:   venueModel.ID,
		Title:     "open mic night",
		RuleText:  "FREQ=WEEKLY;BYDAY=MO",
		Weekday:   1,
		StartTime: "20:00",
	}
	if err := eventModel.Upsert(context.Background(), bundb); err != nil {
		t.Fatal(err)
	}
	return eventModel
}

func TestOccurrenceOverride(t *testing.T) {
	bundb := newTestDB(t)
	eventModel := seedEvent(t, bundb)
	store := model.NewOverrideStore(bundb)

	// case: upsert defaults status to normal
	func() {
		overrideModel := model.OccurrenceOverride{
			EventID:   eventModel.ID,
			DateKey:   "2026-03-02",
			CreatedAt: 1,
		}
		if err := overrideModel.Upsert(context.Background(), bundb); err != nil {
			t.Error(err)
		}
		if overrideModel.Status != string(recur.StatusNormal) {
			t.Error("status should default to normal, got", overrideModel.Status)
		}
	}()

	// case: a second upsert for the same (event, date) replaces, never duplicates
	func() {
		overrideModel := model.OccurrenceOverride{
			EventID:   eventModel.ID,
			DateKey:   "2026-03-02",
			Status:    string(recur.StatusCancelled),
			CreatedAt: 2,
		}
		if err := overrideModel.Upsert(context.Background(), bundb); err != nil {
			t.Error(err)
		}
		count, err := bundb.NewSelect().
			Model((*model.OccurrenceOverride)(nil)).
			Where("event_id = ?", eventModel.ID).
			Count(context.Background())
		if err != nil {
			t.Error(err)
		}
		if count != 1 {
			t.Error("uniqueness per (event, date) broken, count =", count)
		}
	}()

	// case: batch fetch respects the window bounds
	func() {
		outside := model.OccurrenceOverride{
			EventID:   eventModel.ID,
			DateKey:   "2026-06-01",
			Status:    string(recur.StatusNormal),
			CreatedAt: 3,
		}
		if err := outside.Upsert(context.Background(), bundb); err != nil {
			t.Error(err)
		}
		overrides, err := store.FetchOverrides(context.Background(), eventModel.ID, "2026-03-01", "2026-03-31")
		if err != nil {
			t.Error(err)
		}
		if len(overrides) != 1 || overrides[0].DateKey != recur.DateKey("2026-03-02") {
			t.Error("window filter broken:", overrides)
		}
		if overrides[0].Status != recur.StatusCancelled {
			t.Error("status should survive the round trip")
		}
	}()

	// case: the fetched overrides drive the merge, and reverting one falls
	// the date back to the base schedule
	func() {
		occurrences := recur.Expand(
			recur.Parse(eventModel.RuleText, eventModel.Weekday),
			"", nil, 0,
			recur.Window{Start: "2026-03-01", End: "2026-03-08"},
		)
		overrides, err := store.FetchOverrides(context.Background(), eventModel.ID, "2026-03-01", "2026-03-08")
		if err != nil {
			t.Error(err)
		}
		merged := recur.Merge(eventModel.ID, occurrences, overrides)
		if len(merged) != 1 || !merged[0].IsCancelled {
			t.Error("2026-03-02 should merge to cancelled:", merged)
		}

		if err := model.Revert(context.Background(), bundb, eventModel.ID, "2026-03-02"); err != nil {
			t.Error(err)
		}
		overrides, err = store.FetchOverrides(context.Background(), eventModel.ID, "2026-03-01", "2026-03-08")
		if err != nil {
			t.Error(err)
		}
		merged = recur.Merge(eventModel.ID, occurrences, overrides)
		if merged[0].IsCancelled {
			t.Error("reverted date should be normal again")
		}
	}()

	// case: a patch must be valid JSON
	func() {
		overrideModel := model.OccurrenceOverride{
			EventID:   eventModel.ID,
			DateKey:   "2026-03-09",
			Patch:     "{not json",
			CreatedAt: 4,
		}
		if err := overrideModel.Upsert(context.Background(), bundb); err == nil {
			t.Error("invalid patch JSON should be rejected")
		}
	}()

	// case: overrides for an unknown event are rejected
	func() {
		overrideModel := model.OccurrenceOverride{
			EventID:   uuid.NewString(),
			DateKey:   "2026-03-02",
			CreatedAt: 5,
		}
		if err := overrideModel.Upsert(context.Background(), bundb); err == nil {
			t.Error("override for a missing event should be rejected")
		}
	}()
}

func TestEventDescriptorBridge(t *testing.T) {
	bundb := newTestDB(t)
	eventModel := seedEvent(t, bundb)

	d := eventModel.Descriptor()
	if d == nil || d.Frequency != recur.FreqWeekly || d.Weekday != 1 {
		t.Error("stored rule text should parse to a weekly Monday descriptor:", d)
	}

	// cleanup on write: the stored title is normalized for display
	stored := new(model.Event)
	if err := bundb.NewSelect().
		Model(stored).
		Where("id = ?", eventModel.ID).
		Scan(context.Background()); err != nil {
		t.Error(err)
	}
	if stored.Title != "Open Mic Night" {
		t.Error("title should be cleaned up on upsert, got", stored.Title)
	}

	// a record with only an explicit date list is a custom-frequency series
	custom := model.Event{
		ID:          uuid.NewString(),
		VenueID:     eventModel.VenueID,
		Title:       "holiday showcase",
		Weekday:     -1,
		CustomDates: "2026-12-18, 2026-12-19",
	}
	if err := custom.Upsert(context.Background(), bundb); err != nil {
		t.Error(err)
	}
	d = custom.Descriptor()
	if d == nil || d.Frequency != recur.FreqCustom || len(d.CustomDates) != 2 {
		t.Error("custom date list should produce a custom descriptor:", d)
	}
}
