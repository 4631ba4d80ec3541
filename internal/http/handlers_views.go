package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"catering/internal/calendar"
	"catering/internal/core"
	"catering/internal/dashboard"
	"catering/internal/log"
)

type calendarPage struct {
	Month       core.YearMonth
	Prev        core.YearMonth
	Next        core.YearMonth
	Weekdays    []time.Weekday
	Weeks       [][]calendar.Cell
	SelectedDay int
	DetailTitle string
	Detail      []core.Meal
	MealTypes   []core.MealType
	Form        mealForm
	Error       string
}

type mealForm struct {
	Type  string
	Menu  string
	Count string
}

type weekdayRow struct {
	Day   time.Weekday
	Count int
}

type dashboardPage struct {
	View     dashboard.View
	Weekdays []weekdayRow
	Error    string
}

var weekdays = []time.Weekday{
	time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday,
}

// handleCalendar renders ?year=&month=&day=, defaulting to the current month.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	ym, err := s.monthFromQuery(r)
	if err != nil {
		writeError(w, r, log.OpRender, err)
		return
	}
	day, err := queryInt(r, "day", 0)
	if err != nil {
		writeError(w, r, log.OpRender, err)
		return
	}

	ctrl := s.calendarController(r)
	status := http.StatusOK
	page := calendarPage{}
	if err := ctrl.GoTo(r.Context(), ym); err != nil {
		status = http.StatusBadGateway
		page.Error = "Failed to load meals: " + err.Error()
	}
	if day != 0 {
		ctrl.SelectDay(day)
	}
	s.renderCalendar(w, r, status, ctrl.State(), page)
}

// handleCalendarSubmit accepts the add-meal form and redirects back to the
// submitted day.
func (s *Server) handleCalendarSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		writeError(w, r, log.OpCreate, core.NewValidationError("form", err))
		return
	}
	form := mealForm{
		Type:  strings.TrimSpace(r.PostFormValue("type")),
		Menu:  r.PostFormValue("menu"),
		Count: strings.TrimSpace(r.PostFormValue("count")),
	}

	ctrl := s.calendarController(r)
	page := calendarPage{Form: form}

	var vals [4]int
	for i, name := range []string{"year", "month", "day", "count"} {
		n, err := formInt(r, name)
		if err != nil {
			if i < 2 {
				writeError(w, r, log.OpCreate, err)
				return
			}
			page.Error = err.Error()
		}
		vals[i] = n
	}
	ym := core.YearMonth{Year: vals[0], Month: vals[1]}
	if err := ym.Validate(); err != nil {
		writeError(w, r, log.OpCreate, core.NewValidationError("month", err))
		return
	}
	status := http.StatusUnprocessableEntity
	if err := ctrl.GoTo(r.Context(), ym); err != nil {
		status = http.StatusBadGateway
		page.Error = "Failed to load meals: " + err.Error()
	}
	ctrl.SelectDay(vals[2])

	if page.Error == "" {
		mc := core.MealCreate{
			Year:  ym.Year,
			Month: ym.Month,
			Day:   vals[2],
			Type:  core.MealType(form.Type),
			Menu:  form.Menu,
			Count: vals[3],
		}
		_, err := ctrl.SubmitMeal(r.Context(), mc)
		if err == nil {
			target := fmt.Sprintf("/calendar?year=%d&month=%d&day=%d", ym.Year, ym.Month, vals[2])
			http.Redirect(w, r, target, http.StatusSeeOther)
			return
		}
		if !core.IsValidation(err) {
			writeError(w, r, log.OpCreate, err)
			return
		}
		page.Error = err.Error()
	}
	s.renderCalendar(w, r, status, ctrl.State(), page)
}

func (s *Server) calendarController(r *http.Request) *calendar.Controller {
	return calendar.New(s.meals,
		calendar.WithClock(s.now),
		calendar.WithLogger(log.FromContext(r.Context())),
		calendar.WithMetrics(s.metrics),
	)
}

func (s *Server) monthFromQuery(r *http.Request) (core.YearMonth, error) {
	current := core.YearMonthOf(s.now())
	year, err := queryInt(r, "year", current.Year)
	if err != nil {
		return core.YearMonth{}, err
	}
	month, err := queryInt(r, "month", current.Month)
	if err != nil {
		return core.YearMonth{}, err
	}
	ym := core.YearMonth{Year: year, Month: month}
	if err := ym.Validate(); err != nil {
		return core.YearMonth{}, core.NewValidationError("month", err)
	}
	return ym, nil
}

func (s *Server) renderCalendar(w http.ResponseWriter, r *http.Request, status int, st calendar.State, page calendarPage) {
	page.Month = st.Month
	page.Prev = st.Month.Add(-1)
	page.Next = st.Month.Add(1)
	page.Weekdays = weekdays
	page.Weeks = calendar.Grid(st, s.now())
	page.SelectedDay = st.SelectedDay
	page.DetailTitle = calendar.DetailTitle(st)
	page.Detail = calendar.Project(st)
	page.MealTypes = []core.MealType{core.Breakfast, core.Lunch, core.Dinner}
	s.render(w, r, status, "calendar.html", page)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctrl := dashboard.New(s.meals, s.companies, s.employees,
		dashboard.WithClock(s.now),
		dashboard.WithLogger(log.FromContext(r.Context())),
		dashboard.WithMetrics(s.metrics),
	)
	status := http.StatusOK
	page := dashboardPage{}
	if err := ctrl.Refresh(r.Context()); err != nil {
		status = http.StatusBadGateway
		page.Error = "Failed to load dashboard: " + err.Error()
	}
	page.View = ctrl.View()
	for _, d := range weekdays {
		page.Weekdays = append(page.Weekdays, weekdayRow{Day: d, Count: page.View.Stats.Weekdays[d]})
	}
	s.render(w, r, status, "dashboard.html", page)
}

// render executes into a buffer first so a template failure still yields a
// clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	if s.templates == nil {
		writeDetail(w, http.StatusInternalServerError, "templates unavailable")
		return
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentTemplate).
			LogError(r.Context(), "Template render failed", err, log.OpRender, log.ErrorTypeInternal)
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

