package core

import "time"

// TypeDistribution sums headcount by canonical meal type.
type TypeDistribution struct {
	Breakfast int `json:"Breakfast"`
	Lunch     int `json:"Lunch"`
	Dinner    int `json:"Dinner"`
}

// Total is the headcount over the three canonical types.
func (d TypeDistribution) Total() int {
	return d.Breakfast + d.Lunch + d.Dinner
}

// WeekdayDistribution is indexed by time.Weekday, Sunday = 0.
type WeekdayDistribution [7]int

func (w WeekdayDistribution) Total() int {
	total := 0
	for _, v := range w {
		total += v
	}
	return total
}

// DashboardStats is derived data; it is rebuilt whenever the meal list changes.
type DashboardStats struct {
	TodayTotal int                 `json:"today_total"`
	Weekdays   WeekdayDistribution `json:"weekdays"`
	Types      TypeDistribution    `json:"types"`
}

// TodayTotal sums Count over meals whose fields equal today's date exactly.
// No rollover is applied here.
func TodayTotal(meals []Meal, today time.Time) int {
	y, mo, d := today.Date()
	total := 0
	for _, m := range meals {
		if m.Year == y && m.Month == int(mo) && m.Day == d {
			total += m.Count
		}
	}
	return total
}

// CountWeekdays adds each meal's Count to the weekday of its normalized
// date. It covers the whole input, not a single week.
func CountWeekdays(meals []Meal) WeekdayDistribution {
	var dist WeekdayDistribution
	for _, m := range meals {
		dist[m.Date().Weekday()] += m.Count
	}
	return dist
}

// CountTypes sums Count for Breakfast, Lunch and Dinner. Other types are
// skipped, so the total may be lower than the overall headcount.
func CountTypes(meals []Meal) TypeDistribution {
	var dist TypeDistribution
	for _, m := range meals {
		switch m.Type {
		case Breakfast:
			dist.Breakfast += m.Count
		case Lunch:
			dist.Lunch += m.Count
		case Dinner:
			dist.Dinner += m.Count
		}
	}
	return dist
}

// BuildDashboardStats computes every dashboard figure from scratch.
func BuildDashboardStats(meals []Meal, today time.Time) DashboardStats {
	return DashboardStats{
		TodayTotal: TodayTotal(meals, today),
		Weekdays:   CountWeekdays(meals),
		Types:      CountTypes(meals),
	}
}

// Headcount sums Count over all meals.
func Headcount(meals []Meal) int {
	total := 0
	for _, m := range meals {
		total += m.Count
	}
	return total
}
