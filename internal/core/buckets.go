package core

// DayBucketMap groups one month's meals by day of month. Days without
// meals have no key.
type DayBucketMap map[int][]Meal

// BuildDayBuckets files each meal under the day of its normalized date.
//
// The placement day comes from calendar construction, not from the raw Day
// field: a meal stored as April 31 normalizes to May 1 and lands in bucket 1.
// Callers that query by month get such records misfiled; filtering is left
// to them.
func BuildDayBuckets(meals []Meal) DayBucketMap {
	buckets := make(DayBucketMap)
	for _, m := range meals {
		day := m.Date().Day()
		buckets[day] = append(buckets[day], m)
	}
	return buckets
}

// Len returns the number of meals across all buckets.
func (b DayBucketMap) Len() int {
	n := 0
	for _, meals := range b {
		n += len(meals)
	}
	return n
}

// Meals returns the bucket for day, or nil.
func (b DayBucketMap) Meals(day int) []Meal {
	return b[day]
}

// Headcount sums Count over the meals of day.
func (b DayBucketMap) Headcount(day int) int {
	total := 0
	for _, m := range b[day] {
		total += m.Count
	}
	return total
}
