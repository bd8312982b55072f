package model

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"stagetime/src-server/recur"
	"stagetime/src-server/utils"

	"github.com/uptrace/bun"
)

// Event is the raw record of a (possibly recurring) show as hosts enter it:
// free-form rule text, an optional declared weekday, an optional resolved
// anchor date, and an optional explicit date list. The recur package is the
// only place this mess becomes a normalized pattern.
type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID          string `bun:"id,pk,notnull"`
	VenueID     string `bun:"venue_id,notnull"`
	Title       string `bun:"title,notnull"`
	Description string `bun:"description"`
	HostName    string `bun:"host_name"`
	URL         string `bun:"url"`

	RuleText    string `bun:"rule_text"`
	Weekday     int    `bun:"weekday"`      // 0=Sunday..6=Saturday, -1 unset
	AnchorDate  string `bun:"anchor_date"`  // "YYYY-MM-DD", blank = none
	CustomDates string `bun:"custom_dates"` // comma-separated "YYYY-MM-DD" list

	StartTime     string `bun:"start_time"` // "HH:MM"
	CoverMediaURL string `bun:"cover_media_url"`

	CreatedAt int64 `bun:"created_at,notnull"`
	UpdatedAt int64 `bun:"updated_at"`

	Venue *Venue `bun:"rel:belongs-to,join:venue_id=id"`
}

// Upsert is the write path, and with it the write path's validation duties:
// it rejects structurally broken records and warns on an anchor whose actual
// weekday contradicts the declared one. The expander downstream stays
// permissive on purpose, so this is the only gate.
func (e *Event) Upsert(ctx context.Context, db bun.IDB) error {
	e.Title = utils.CleanupString(e.Title)
	switch {
	case e.ID == "":
		return fmt.Errorf("(*Event).Upsert: event id is blank")
	case e.VenueID == "":
		return fmt.Errorf("(*Event).Upsert: venue id is blank")
	case e.Title == "":
		return fmt.Errorf("(*Event).Upsert: title is blank")
	case e.Weekday < -1 || e.Weekday > 6:
		return fmt.Errorf("(*Event).Upsert: weekday out of range: %d", e.Weekday)
	}
	if e.URL != "" {
		if _, err := url.ParseRequestURI(e.URL); err != nil {
			return fmt.Errorf("(*Event).Upsert: url is invalid: %w", err)
		}
	}
	if e.AnchorDate != "" {
		anchor, ok := recur.ParseDateKey(e.AnchorDate)
		if !ok {
			return fmt.Errorf("(*Event).Upsert: anchor date is invalid: %s", e.AnchorDate)
		}
		if e.Weekday >= 0 && int(anchor.Weekday()) != e.Weekday {
			slog.Warn("anchor date contradicts declared weekday",
				"event", e.ID,
				"anchor", e.AnchorDate,
				"anchor_weekday", anchor.Weekday().String(),
				"declared_weekday", time.Weekday(e.Weekday).String())
		}
	}
	for _, raw := range strings.Split(e.CustomDates, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if _, ok := recur.ParseDateKey(raw); !ok {
			return fmt.Errorf("(*Event).Upsert: custom date is invalid: %s", raw)
		}
	}
	if e.CreatedAt == 0 {
		e.CreatedAt = time.Now().UTC().Unix()
	}

	exists, err := db.NewSelect().
		Model((*Event)(nil)).
		Where("id = ?", e.ID).
		Exists(ctx)
	if err != nil {
		return fmt.Errorf("(*Event).Upsert: %w", err)
	}

	switch exists {
	case true:
		e.UpdatedAt = time.Now().UTC().Unix()
		if _, err := db.NewUpdate().
			Model(e).
			WherePK().
			Exec(ctx); err != nil {
			return fmt.Errorf("(*Event).Upsert: %w", err)
		}
	case false:
		if _, err := db.NewInsert().
			Model(e).
			Exec(ctx); err != nil {
			return fmt.Errorf("(*Event).Upsert: %w", err)
		}
	}

	return nil
}

// Descriptor bridges the stored free-form fields into the engine's
// normalized pattern. nil means a one-off event, not an error.
func (e *Event) Descriptor() *recur.Descriptor {
	d := recur.Parse(e.RuleText, e.Weekday)
	if d == nil && e.CustomDateKeys() != nil {
		return &recur.Descriptor{
			Frequency:   recur.FreqCustom,
			Interval:    1,
			Weekday:     -1,
			CustomDates: e.CustomDateKeys(),
		}
	}
	return d
}

func (e *Event) AnchorKey() recur.DateKey {
	if k, ok := recur.ParseDateKey(e.AnchorDate); ok {
		return k
	}
	return ""
}

func (e *Event) CustomDateKeys() []recur.DateKey {
	var keys []recur.DateKey
	for _, raw := range strings.Split(e.CustomDates, ",") {
		if k, ok := recur.ParseDateKey(strings.TrimSpace(raw)); ok {
			keys = append(keys, k)
		}
	}
	return keys
}

func (e *Event) SeriesRecord() recur.SeriesRecord {
	return recur.SeriesRecord{
		ID:        e.ID,
		VenueID:   e.VenueID,
		Title:     e.Title,
		RuleText:  e.RuleText,
		StartTime: e.StartTime,
		Weekday:   e.Weekday,
		AnchorKey: e.AnchorKey(),
	}
}
