package model

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"stagetime/src-server/recur"

	"github.com/uptrace/bun"
)

// OccurrenceOverride is a persisted per-date exception on a recurring event:
// cancellation, a different start time, substitute cover media, notes, or an
// arbitrary field patch. The composite primary key enforces the
// one-override-per-(event, date) invariant the engine relies on. Deleting a
// row means "fully revert that date to the base schedule"; rows never
// auto-expire.
type OccurrenceOverride struct {
	bun.BaseModel `bun:"table:occurrence_overrides"`

	EventID string `bun:"event_id,pk,notnull"`
	DateKey string `bun:"date_key,pk,notnull"` // "YYYY-MM-DD"

	Status string `bun:"status,notnull"` // "normal" or "cancelled"

	OverrideStartTime     string `bun:"override_start_time"`
	OverrideCoverMediaURL string `bun:"override_cover_media_url"`
	OverrideNotes         string `bun:"override_notes"`

	// JSON object of arbitrary field replacements, e.g. a reschedule target
	Patch string `bun:"patch"`

	CreatedAt int64 `bun:"created_at,notnull"`
	UpdatedAt int64 `bun:"updated_at"`

	Event *Event `bun:"rel:belongs-to,join:event_id=id"`
}

func (o *OccurrenceOverride) Upsert(ctx context.Context, db bun.IDB) error {
	if o.Status == "" {
		o.Status = string(recur.StatusNormal)
	}
	switch {
	case o.EventID == "":
		return fmt.Errorf("(*OccurrenceOverride).Upsert: event id is blank")
	case o.CreatedAt == 0:
		return fmt.Errorf("(*OccurrenceOverride).Upsert: created at is required")
	case o.Status != string(recur.StatusNormal) && o.Status != string(recur.StatusCancelled):
		return fmt.Errorf("(*OccurrenceOverride).Upsert: unknown status: %s", o.Status)
	}
	if _, ok := recur.ParseDateKey(o.DateKey); !ok {
		return fmt.Errorf("(*OccurrenceOverride).Upsert: date key is invalid: %s", o.DateKey)
	}
	if o.Patch != "" {
		if !json.Valid([]byte(o.Patch)) {
			return fmt.Errorf("(*OccurrenceOverride).Upsert: patch is not valid JSON")
		}
	}

	// check if the owning event exists
	exists, err := db.NewSelect().
		Model((*Event)(nil)).
		Where("id = ?", o.EventID).
		Exists(ctx)
	if err != nil {
		return fmt.Errorf("(*OccurrenceOverride).Upsert: %w", err)
	}
	if !exists {
		return fmt.Errorf("(*OccurrenceOverride).Upsert: event id not found")
	}

	if _, err := db.NewInsert().
		Model(o).
		On("CONFLICT (event_id, date_key) DO UPDATE").
		Set("status = EXCLUDED.status").
		Set("override_start_time = EXCLUDED.override_start_time").
		Set("override_cover_media_url = EXCLUDED.override_cover_media_url").
		Set("override_notes = EXCLUDED.override_notes").
		Set("patch = EXCLUDED.patch").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx); err != nil {
		return fmt.Errorf("(*OccurrenceOverride).Upsert: %w", err)
	}
	return nil
}

// Revert deletes the override for one date, falling the date back to the
// base schedule.
func Revert(ctx context.Context, db bun.IDB, eventID string, dateKey recur.DateKey) error {
	if _, err := db.NewDelete().
		Model((*OccurrenceOverride)(nil)).
		Where("event_id = ?", eventID).
		Where("date_key = ?", string(dateKey)).
		Exec(ctx); err != nil {
		return fmt.Errorf("Revert: %w", err)
	}
	return nil
}

// ToRecur converts the persisted row into the engine's view of an override.
func (o *OccurrenceOverride) ToRecur() recur.Override {
	override := recur.Override{
		EventID:               o.EventID,
		DateKey:               recur.DateKey(o.DateKey),
		Status:                recur.OverrideStatus(o.Status),
		OverrideStartTime:     o.OverrideStartTime,
		OverrideCoverMediaURL: o.OverrideCoverMediaURL,
		OverrideNotes:         o.OverrideNotes,
	}
	if o.Patch != "" {
		patch := make(map[string]string)
		if err := json.Unmarshal([]byte(o.Patch), &patch); err != nil {
			slog.Warn("can't unmarshal override patch", "event", o.EventID, "date", o.DateKey, "error", err)
		} else {
			override.Patch = patch
		}
	}
	return override
}
