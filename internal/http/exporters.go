package http

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"catering/internal/core"
)

// writeICS renders one all-day event per meal.
func writeICS(w http.ResponseWriter, ym core.YearMonth, meals []core.Meal, now time.Time) error {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="meals-%04d-%02d.ics"`, ym.Year, ym.Month))

	var b strings.Builder
	line := func(s string) { b.WriteString(s); b.WriteString("\r\n") }
	line("BEGIN:VCALENDAR")
	line("VERSION:2.0")
	line("PRODID:-//catering//meals//EN")
	line("CALSCALE:GREGORIAN")
	line("X-WR-CALNAME:" + icsEscape("Meals "+ym.String()))

	stamp := now.UTC().Format("20060102T150405Z")
	for _, m := range meals {
		start := m.Date()
		line("BEGIN:VEVENT")
		line("UID:" + m.ID + "@catering")
		line("DTSTAMP:" + stamp)
		line("DTSTART;VALUE=DATE:" + start.Format("20060102"))
		line("DTEND;VALUE=DATE:" + start.AddDate(0, 0, 1).Format("20060102"))
		line("SUMMARY:" + icsEscape(fmt.Sprintf("%s: %s", m.Type, m.Menu)))
		line("DESCRIPTION:" + icsEscape(fmt.Sprintf("%d servings", m.Count)))
		line("CATEGORIES:" + icsEscape(string(m.Type)))
		line("END:VEVENT")
	}
	line("END:VCALENDAR")

	w.WriteHeader(http.StatusOK)
	_, err := w.Write([]byte(b.String()))
	return err
}

var icsReplacer = strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\r\n", `\n`, "\n", `\n`)

func icsEscape(s string) string { return icsReplacer.Replace(s) }

// writeCSV streams the month as CSV. Headers are already sent when it
// fails, so the caller can only log the error.
func writeCSV(w http.ResponseWriter, ym core.YearMonth, meals []core.Meal) error {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="meals-%04d-%02d.csv"`, ym.Year, ym.Month))
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "date", "weekday", "type", "menu", "count"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, m := range meals {
		d := m.Date()
		err := cw.Write([]string{
			m.ID,
			d.Format("2006-01-02"),
			d.Weekday().String(),
			string(m.Type),
			m.Menu,
			strconv.Itoa(m.Count),
		})
		if err != nil {
			return fmt.Errorf("write csv row for meal %s: %w", m.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
