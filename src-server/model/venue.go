package model

import (
	"context"
	"fmt"
	"net/url"

	"github.com/uptrace/bun"
)

type Venue struct {
	bun.BaseModel `bun:"table:venues"`

	ID   string `bun:"id,pk,notnull"`
	Name string `bun:"name,notnull"`
	City string `bun:"city"`
	URL  string `bun:"url"`
}

func (v *Venue) Upsert(ctx context.Context, db bun.IDB) error {
	switch {
	case v.ID == "":
		return fmt.Errorf("(*Venue).Upsert: venue id is blank")
	case v.Name == "":
		return fmt.Errorf("(*Venue).Upsert: name is blank")
	}
	if v.URL != "" {
		if _, err := url.ParseRequestURI(v.URL); err != nil {
			return fmt.Errorf("(*Venue).Upsert: url is invalid: %w", err)
		}
	}

	if _, err := db.NewInsert().
		Model(v).
		On("CONFLICT (id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("city = EXCLUDED.city").
		Set("url = EXCLUDED.url").
		Exec(ctx); err != nil {
		return fmt.Errorf("(*Venue).Upsert: %w", err)
	}
	return nil
}
