package scheduler

import (
	"context"
	"log/slog"
	"time"

	"stagetime/src-server/model"
	"stagetime/src-server/recur"
	"stagetime/src-server/utils"
)

// sweepWindowDays is long enough that every healthy weekly, biweekly, and
// ordinal-monthly series produces at least two dates.
const sweepWindowDays = 90

// AuditSweep periodically expands every series over a rolling window and runs
// the invariant auditor against the result. A series that suddenly
// under-generates shows up here before anyone notices a half-empty listing.
func AuditSweep(as *utils.AppState) {
	auditor := recur.Auditor{Logger: slog.Default()}
	gracefulShutdownCh := as.CreateGracefulShutdownChan()
	ticker := time.NewTicker(as.Config.GetAuditSweepInterval())
	defer ticker.Stop()

	for {
		select {
		case <-*gracefulShutdownCh:
			return
		case <-ticker.C:
		}

		eventModels := make([]model.Event, 0)
		if err := as.BunDB.
			NewSelect().
			Model(&eventModels).
			Scan(context.Background()); err != nil {
			slog.Error("AuditSweep: can't get events", "error", err)
			continue
		}

		modelByID := make(map[string]*model.Event, len(eventModels))
		records := make([]recur.SeriesRecord, 0, len(eventModels))
		for i := range eventModels {
			modelByID[eventModels[i].ID] = &eventModels[i]
			records = append(records, eventModels[i].SeriesRecord())
		}
		series, _ := recur.Dedupe(records)

		today := recur.NewDateKey(time.Now().In(as.Config.GetLocation()))
		window := recur.Window{Start: today, End: today.AddDays(sweepWindowDays - 1)}

		flagged := 0
		for _, record := range series {
			eventModel := modelByID[record.ID]
			descriptor := eventModel.Descriptor()
			occurrences := recur.Expand(descriptor, eventModel.AnchorKey(), nil, 0, window)
			if auditor.Audit(descriptor, len(occurrences), window.Days(), eventModel.Title, window.Start, window.End) {
				flagged++
				select {
				case as.MetricChans.AuditWarning <- eventModel.Title:
				default:
				}
			}
		}
		slog.Debug("audit sweep done", "series", len(series), "flagged", flagged)
	}
}
