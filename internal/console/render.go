package console

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"catering/internal/calendar"
	"catering/internal/dashboard"
)

// RenderCalendar prints the month grid and the detail panel. Days with
// meals carry a '*'; the selected day is bracketed.
func RenderCalendar(w io.Writer, st calendar.State, today time.Time) {
	header := st.Month.String()
	fmt.Fprintf(w, "%*s\n", 17+len(header)/2, header)
	for _, d := range []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"} {
		fmt.Fprintf(w, " %s ", d)
	}
	fmt.Fprintln(w)

	for _, week := range calendar.Grid(st, today) {
		var b strings.Builder
		for _, cell := range week {
			if cell.Day == 0 {
				b.WriteString("     ")
				continue
			}
			mark := " "
			if cell.Meals > 0 {
				mark = "*"
			}
			if cell.Selected {
				fmt.Fprintf(&b, "[%2d]%s", cell.Day, mark)
			} else {
				fmt.Fprintf(&b, " %2d %s", cell.Day, mark)
			}
		}
		fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, calendar.DetailTitle(st))
	if st.SelectedDay == 0 {
		fmt.Fprintln(w, "  Pick a day with --day to see its meals.")
		return
	}
	meals := calendar.Project(st)
	if len(meals) == 0 {
		fmt.Fprintln(w, "  No meals planned for this day.")
		return
	}
	for _, m := range meals {
		fmt.Fprintf(w, "  %-10s %s (%d servings)\n", "["+string(m.Type)+"]", m.Menu, m.Count)
	}
}

func RenderDashboard(w io.Writer, v dashboard.View) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Meals today:\t%d\n", v.Stats.TodayTotal)
	fmt.Fprintf(tw, "Active companies:\t%d\n", v.ActiveCompanies)
	fmt.Fprintf(tw, "Team size:\t%d\n", v.TeamSize())
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "By weekday")
	for d := time.Sunday; d <= time.Saturday; d++ {
		fmt.Fprintf(tw, "  %s\t%d\n", d.String()[:3], v.Stats.Weekdays[d])
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "By type")
	fmt.Fprintf(tw, "  Breakfast\t%d\n", v.Stats.Types.Breakfast)
	fmt.Fprintf(tw, "  Lunch\t%d\n", v.Stats.Types.Lunch)
	fmt.Fprintf(tw, "  Dinner\t%d\n", v.Stats.Types.Dinner)
	_ = tw.Flush()
}
