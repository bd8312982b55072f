package route

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"stagetime/src-server/model"
	"stagetime/src-server/recur"
	"stagetime/src-server/utils"

	"github.com/xyedo/rrule"
)

func Ical(muxer *http.ServeMux, as *utils.AppState) {
	muxer.HandleFunc("GET /ical/{venue_id}", func(w http.ResponseWriter, r *http.Request) {
		venueID := r.PathValue("venue_id")

		venueModel := new(model.Venue)
		if err := as.BunDB.NewSelect().
			Model(venueModel).
			Where("id = ?", venueID).
			Scan(r.Context(), venueModel); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		eventModels := make([]model.Event, 0)
		if err := as.BunDB.
			NewSelect().
			Model(&eventModels).
			Where("venue_id = ?", venueID).
			Scan(r.Context(), &eventModels); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		// each series needs a concrete DTSTART; the anchor date provides it,
		// or failing that the first occurrence in the coming year
		today := recur.NewDateKey(time.Now().In(as.Config.GetLocation()))
		upcoming := recur.Window{Start: today, End: today.AddDays(365)}

		var sb strings.Builder
		sb.WriteString("BEGIN:VCALENDAR\r\n")
		sb.WriteString("VERSION:2.0\r\n")
		sb.WriteString("PRODID:-//stagetime//calendar//EN\r\n")
		sb.WriteString("X-WR-CALNAME:" + venueModel.Name + "\r\n")

		for _, eventModel := range eventModels {
			descriptor := eventModel.Descriptor()

			dtstart := eventModel.AnchorKey()
			if dtstart == "" {
				occurrences := recur.Expand(descriptor, "", nil, 1, upcoming)
				if len(occurrences) == 0 {
					continue
				}
				dtstart = occurrences[0].DateKey
			}
			dtstartCompact := strings.ReplaceAll(string(dtstart), "-", "")

			ruleLine := ""
			if ruleValue := descriptor.RRuleString(); ruleValue != "" {
				// reject anything the rest of the iCalendar world would choke on
				setText := fmt.Sprintf("DTSTART:%sT000000Z\nRRULE:%s", dtstartCompact, ruleValue)
				if _, err := rrule.StrToRRuleSet(setText); err != nil {
					slog.Warn("produced an invalid rrule, exporting as one-off",
						"event", eventModel.ID, "rrule", ruleValue, "error", err)
				} else {
					ruleLine = "RRULE:" + ruleValue + "\r\n"
				}
			}

			sb.WriteString("BEGIN:VEVENT\r\n")
			sb.WriteString("UID:" + eventModel.ID + "\r\n")
			sb.WriteString("SUMMARY:" + eventModel.Title + "\r\n")
			if eventModel.Description != "" {
				sb.WriteString("DESCRIPTION:" + eventModel.Description + "\r\n")
			}
			sb.WriteString("DTSTART;VALUE=DATE:" + dtstartCompact + "\r\n")
			sb.WriteString(ruleLine)
			if eventModel.URL != "" {
				sb.WriteString("URL:" + eventModel.URL + "\r\n")
			}
			sb.WriteString("END:VEVENT\r\n")
		}
		sb.WriteString("END:VCALENDAR\r\n")

		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := io.WriteString(w, sb.String()); err != nil {
			slog.Warn("can't write to response", "where", "route/ical.go", "err", err)
		}
	})
}
