package calendar

import (
	"slices"
	"strconv"
	"time"

	"catering/internal/core"
)

// Project returns the meals of the selected day, or an empty slice.
func Project(s State) []core.Meal {
	if s.SelectedDay == 0 {
		return []core.Meal{}
	}
	meals, ok := s.Buckets[s.SelectedDay]
	if !ok {
		return []core.Meal{}
	}
	return meals
}

// DetailTitle is the heading of the detail panel.
func DetailTitle(s State) string {
	if s.SelectedDay == 0 {
		return "Select a Day"
	}
	return time.Month(s.Month.Month).String() + " " + strconv.Itoa(s.SelectedDay)
}

// Cell is one square of the month grid. Blank leading cells have Day 0.
type Cell struct {
	Day       int
	Meals     int
	Headcount int
	Selected  bool
	Today     bool
	// Types lists the distinct meal types of the day, first seen first.
	Types []core.MealType
}

// Grid lays the month out in weeks starting on Sunday. Counts come from
// buckets only when they were built for the shown month.
func Grid(s State, today time.Time) [][]Cell {
	ym := s.Month
	buckets := s.Buckets
	if s.BucketsMonth != ym {
		buckets = nil
	}
	todayDay := 0
	if core.YearMonthOf(today) == ym {
		todayDay = today.Day()
	}

	cells := make([]Cell, int(ym.FirstWeekday()), 42)
	for day := 1; day <= ym.DaysIn(); day++ {
		cells = append(cells, Cell{
			Day:       day,
			Meals:     len(buckets[day]),
			Headcount: buckets.Headcount(day),
			Selected:  day == s.SelectedDay,
			Today:     day == todayDay,
			Types:     distinctTypes(buckets[day]),
		})
	}
	for len(cells)%7 != 0 {
		cells = append(cells, Cell{})
	}
	weeks := make([][]Cell, 0, len(cells)/7)
	for i := 0; i < len(cells); i += 7 {
		weeks = append(weeks, cells[i:i+7])
	}
	return weeks
}

func distinctTypes(meals []core.Meal) []core.MealType {
	var out []core.MealType
	for _, m := range meals {
		if !slices.Contains(out, m.Type) {
			out = append(out, m.Type)
		}
	}
	return out
}
