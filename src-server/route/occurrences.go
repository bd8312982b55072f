package route

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"stagetime/src-server/model"
	"stagetime/src-server/recur"
	"stagetime/src-server/utils"
)

func Occurrences(muxer *http.ServeMux, as *utils.AppState) {
	type GetOccurrencesReqBody struct {
		VenueID          string `json:"venueID"`
		From             string `json:"from"`
		To               string `json:"to"`
		IncludeCancelled bool   `json:"includeCancelled"`
		MaxOccurrences   int    `json:"maxOccurrences"`
	}

	type OneDateRespBody struct {
		DateKey       string            `json:"dateKey"`
		Confident     bool              `json:"confident"`
		IsCancelled   bool              `json:"isCancelled"`
		StartTime     string            `json:"startTime,omitempty"`
		CoverMediaURL string            `json:"coverMediaURL,omitempty"`
		Notes         string            `json:"notes,omitempty"`
		Patch         map[string]string `json:"patch,omitempty"`
	}

	type OneSeriesRespBody struct {
		EventID string            `json:"eventID"`
		VenueID string            `json:"venueID"`
		Title   string            `json:"title"`
		Label   string            `json:"label,omitempty"`
		Dates   []OneDateRespBody `json:"dates"`
	}

	auditor := recur.Auditor{Logger: slog.Default()}
	store := model.NewOverrideStore(as.BunDB)

	// a window bound is either a date key or natural text like "next monday"
	parseBound := func(raw string) (recur.DateKey, bool) {
		if k, ok := recur.ParseDateKey(raw); ok {
			return k, true
		}
		result, err := as.When.Parse(raw, time.Now().In(as.Config.GetLocation()))
		if err != nil || result == nil {
			return "", false
		}
		return recur.NewDateKey(result.Time.In(as.Config.GetLocation())), true
	}

	// get every series' merged occurrences in a date range
	muxer.HandleFunc("POST /calendar/get-occurrences", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		// #region - parse the window
		var reqBody GetOccurrencesReqBody
		if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`"Invalid request body"`))
			return
		}
		startKey, okStart := parseBound(reqBody.From)
		endKey, okEnd := parseBound(reqBody.To)
		if !okStart || !okEnd {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`"Please provide a start date and end date"`))
			return
		}
		window := recur.Window{Start: startKey, End: endKey}
		if !window.Valid() {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`"End date must not be before start date"`))
			return
		}
		// #endregion

		// #region - load raw records and collapse near-duplicate series
		eventModels := make([]model.Event, 0)
		query := as.BunDB.
			NewSelect().
			Model(&eventModels)
		if reqBody.VenueID != "" {
			query = query.Where("venue_id = ?", reqBody.VenueID)
		}
		queryStart := time.Now()
		if err := query.Scan(r.Context()); err != nil {
			slog.Error("can't get events", "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`"Can't get events"`))
			return
		}
		select {
		case as.MetricChans.DatabaseRead <- float64(time.Since(queryStart).Microseconds()):
		default:
		}

		modelByID := make(map[string]*model.Event, len(eventModels))
		records := make([]recur.SeriesRecord, 0, len(eventModels))
		for i := range eventModels {
			modelByID[eventModels[i].ID] = &eventModels[i]
			records = append(records, eventModels[i].SeriesRecord())
		}
		series, oneOffs := recur.Dedupe(records)
		series = append(series, oneOffs...)
		// #endregion

		// #region - expand, merge, audit
		respBody := make([]OneSeriesRespBody, 0, len(series))
		for _, record := range series {
			eventModel := modelByID[record.ID]
			descriptor := eventModel.Descriptor()

			expandStart := time.Now()
			occurrences := recur.Expand(descriptor, eventModel.AnchorKey(), nil, reqBody.MaxOccurrences, window)
			select {
			case as.MetricChans.ExpandLatency <- float64(time.Since(expandStart).Microseconds()):
			default:
			}

			if auditor.Audit(descriptor, len(occurrences), window.Days(), eventModel.Title, window.Start, window.End) {
				select {
				case as.MetricChans.AuditWarning <- eventModel.Title:
				default:
				}
			}
			if len(occurrences) == 0 {
				continue
			}

			// one batched override fetch per series and window, never per date
			overrides, err := store.FetchOverrides(r.Context(), eventModel.ID, window.Start, window.End)
			if err != nil {
				// absence is "no overrides": every date shows as normal
				slog.Warn("can't fetch overrides", "event", eventModel.ID, "error", err)
				overrides = nil
			}
			merged := recur.Merge(eventModel.ID, occurrences, overrides)
			if !reqBody.IncludeCancelled {
				merged = recur.WithoutCancelled(merged)
			}

			dates := make([]OneDateRespBody, 0, len(merged))
			for _, view := range merged {
				date := OneDateRespBody{
					DateKey:       string(view.DateKey),
					Confident:     view.Confident,
					IsCancelled:   view.IsCancelled,
					StartTime:     eventModel.StartTime,
					CoverMediaURL: eventModel.CoverMediaURL,
				}
				if view.Override != nil {
					if view.Override.OverrideStartTime != "" {
						date.StartTime = view.Override.OverrideStartTime
					}
					if view.Override.OverrideCoverMediaURL != "" {
						date.CoverMediaURL = view.Override.OverrideCoverMediaURL
					}
					date.Notes = view.Override.OverrideNotes
					date.Patch = view.Override.Patch
				}
				dates = append(dates, date)
			}

			respBody = append(respBody, OneSeriesRespBody{
				EventID: eventModel.ID,
				VenueID: eventModel.VenueID,
				Title:   eventModel.Title,
				Label:   descriptor.Label(),
				Dates:   dates,
			})
		}
		// #endregion

		if err := json.NewEncoder(w).Encode(respBody); err != nil {
			slog.Error("can't encode response", "error", err)
		}
	})
}
