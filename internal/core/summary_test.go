package core

import (
	"reflect"
	"testing"
	"time"
)

func sampleMeals() []Meal {
	return []Meal{
		{ID: "1", Year: 2024, Month: 3, Day: 5, Type: Breakfast, Menu: "Pancakes & Coffee", Count: 45},
		{ID: "2", Year: 2024, Month: 3, Day: 5, Type: Lunch, Menu: "Grilled Chicken Salad", Count: 120},
		{ID: "3", Year: 2024, Month: 3, Day: 12, Type: Lunch, Menu: "Pasta Primavera", Count: 95},
		{ID: "4", Year: 2024, Month: 3, Day: 12, Type: Dinner, Menu: "Fish & Chips", Count: 67},
		{ID: "5", Year: 2024, Month: 3, Day: 18, Type: "Snack", Menu: "Fruit bowl", Count: 20},
	}
}

func TestBuildDayBucketsSingleMeal(t *testing.T) {
	m := Meal{Year: 2024, Month: 3, Day: 5, Type: Breakfast, Menu: "Pancakes", Count: 45}
	got := BuildDayBuckets([]Meal{m})
	want := DayBucketMap{5: {m}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if _, ok := got[6]; ok {
		t.Fatalf("empty days must be absent")
	}
}

func TestBuildDayBucketsOrderAndCount(t *testing.T) {
	meals := sampleMeals()
	got := BuildDayBuckets(meals)

	if got.Len() != len(meals) {
		t.Fatalf("expected %d bucketed meals, got %d", len(meals), got.Len())
	}
	day12 := got[12]
	if len(day12) != 2 || day12[0].Type != Lunch || day12[1].Type != Dinner {
		t.Fatalf("bucket 12 lost insertion order: %+v", day12)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 non-empty days, got %d", len(got))
	}
	if got.Headcount(5) != 165 {
		t.Fatalf("expected 165 on day 5, got %d", got.Headcount(5))
	}
}

func TestBuildDayBucketsIdempotent(t *testing.T) {
	meals := sampleMeals()
	if !reflect.DeepEqual(BuildDayBuckets(meals), BuildDayBuckets(meals)) {
		t.Fatalf("repeated builds differ")
	}
	if got := BuildDayBuckets(nil); len(got) != 0 {
		t.Fatalf("expected empty map, got %v", got)
	}
}

// April has 30 days, so day 31 normalizes to May 1 and is filed under 1.
// This records current behaviour, which misfiles the record.
func TestBuildDayBucketsRollover(t *testing.T) {
	m := Meal{Year: 2024, Month: 4, Day: 31, Type: Lunch, Menu: "Stew", Count: 10}
	got := BuildDayBuckets([]Meal{m})
	if _, ok := got[31]; ok {
		t.Fatalf("day 31 should not exist for April")
	}
	if len(got[1]) != 1 {
		t.Fatalf("expected rolled meal under key 1, got %v", got)
	}
	if d := m.Date(); d.Month() != time.May || d.Day() != 1 {
		t.Fatalf("expected May 1, got %v", d)
	}
}

func TestCountTypes(t *testing.T) {
	two := []Meal{
		{Year: 2024, Month: 3, Day: 12, Type: Lunch, Menu: "Pasta", Count: 95},
		{Year: 2024, Month: 3, Day: 12, Type: Dinner, Menu: "Fish", Count: 67},
	}
	if got := CountTypes(two); got != (TypeDistribution{Breakfast: 0, Lunch: 95, Dinner: 67}) {
		t.Fatalf("unexpected distribution %+v", got)
	}

	meals := sampleMeals()
	dist := CountTypes(meals)
	if dist.Total() >= Headcount(meals) {
		t.Fatalf("non-canonical meal should be excluded: %d vs %d", dist.Total(), Headcount(meals))
	}
	canonical := meals[:4]
	if CountTypes(canonical).Total() != Headcount(canonical) {
		t.Fatalf("expected equality when every type is canonical")
	}
}

func TestCountWeekdays(t *testing.T) {
	meals := append(sampleMeals(), Meal{Year: 2024, Month: 4, Day: 31, Type: Lunch, Menu: "Stew", Count: 7})
	dist := CountWeekdays(meals)
	if dist.Total() != Headcount(meals) {
		t.Fatalf("weekday total %d != headcount %d", dist.Total(), Headcount(meals))
	}
	// 2024-03-05 and 2024-03-12 are Tuesdays.
	if dist[time.Tuesday] != 45+120+95+67 {
		t.Fatalf("unexpected Tuesday total %d", dist[time.Tuesday])
	}
	// 2024-04-31 normalizes to Wednesday 2024-05-01.
	if dist[time.Wednesday] != 7 {
		t.Fatalf("unexpected Wednesday total %d", dist[time.Wednesday])
	}
}

func TestTodayTotalExactMatch(t *testing.T) {
	today := time.Date(2024, time.May, 1, 15, 0, 0, 0, time.UTC)
	meals := []Meal{
		{Year: 2024, Month: 5, Day: 1, Type: Lunch, Menu: "A", Count: 10},
		{Year: 2024, Month: 5, Day: 1, Type: Dinner, Menu: "B", Count: 5},
		{Year: 2024, Month: 4, Day: 31, Type: Lunch, Menu: "Rolled", Count: 100},
		{Year: 2023, Month: 5, Day: 1, Type: Lunch, Menu: "Last year", Count: 100},
	}
	if got := TodayTotal(meals, today); got != 15 {
		t.Fatalf("expected 15, got %d", got)
	}
}

func TestBuildDashboardStats(t *testing.T) {
	today := time.Date(2024, time.March, 12, 9, 0, 0, 0, time.UTC)
	stats := BuildDashboardStats(sampleMeals(), today)
	if stats.TodayTotal != 162 {
		t.Fatalf("expected 162 today, got %d", stats.TodayTotal)
	}
	if stats.Types.Lunch != 215 {
		t.Fatalf("expected 215 lunches, got %d", stats.Types.Lunch)
	}
}
