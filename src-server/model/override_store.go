package model

import (
	"context"
	"fmt"

	"stagetime/src-server/recur"

	"github.com/uptrace/bun"
)

// OverrideStore is the bun-backed read side of the engine's collaborator
// boundary. One batched select covers a whole window; the merger never goes
// back to the database per occurrence.
type OverrideStore struct {
	db bun.IDB
}

var _ recur.OverrideStore = (*OverrideStore)(nil)

func NewOverrideStore(db bun.IDB) *OverrideStore {
	return &OverrideStore{db: db}
}

func (s *OverrideStore) FetchOverrides(ctx context.Context, eventID string, start, end recur.DateKey) ([]recur.Override, error) {
	rows := make([]OccurrenceOverride, 0)
	if err := s.db.NewSelect().
		Model(&rows).
		Where("event_id = ?", eventID).
		Where("date_key >= ?", string(start)).
		Where("date_key <= ?", string(end)).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("(*OverrideStore).FetchOverrides: %w", err)
	}

	overrides := make([]recur.Override, 0, len(rows))
	for _, row := range rows {
		overrides = append(overrides, row.ToRecur())
	}
	return overrides, nil
}
