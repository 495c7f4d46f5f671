package core

import "sort"

// CategoryAmount is an amount summed over one category.
type CategoryAmount struct {
	Category string
	Amount   Money
}

// MonthAmount is an amount summed over one YYYY-MM calendar month.
type MonthAmount struct {
	Month  string
	Amount Money
}

// DayAmount is an amount summed over one calendar date.
type DayAmount struct {
	Day    Date
	Amount Money
}

// Bucket is one equal-width histogram bucket over expense amounts.
// Low is inclusive; High is inclusive only for the last bucket.
type Bucket struct {
	Low   Money
	High  Money
	Count int
}

// TotalAmount sums all expense amounts. Zero for empty input.
func TotalAmount(expenses []Expense) Money {
	var total int64
	for _, e := range expenses {
		total += e.Amount.Cents
	}
	return Money{Cents: total}
}

// SumByCategory groups expenses by category and sums each group. Entries
// appear in first-appearance order; callers sort for display if needed.
func SumByCategory(expenses []Expense) []CategoryAmount {
	sums := make(map[string]int64)
	var order []string
	for _, e := range expenses {
		if _, seen := sums[e.Category]; !seen {
			order = append(order, e.Category)
		}
		sums[e.Category] += e.Amount.Cents
	}
	out := make([]CategoryAmount, 0, len(order))
	for _, c := range order {
		out = append(out, CategoryAmount{Category: c, Amount: Money{Cents: sums[c]}})
	}
	return out
}

// SumByMonth buckets expenses by the calendar month of their date, summing
// each bucket. Entries are ordered chronologically ascending.
func SumByMonth(expenses []Expense) []MonthAmount {
	sums := make(map[string]int64)
	for _, e := range expenses {
		sums[e.Date.MonthKey()] += e.Amount.Cents
	}
	keys := make([]string, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	// YYYY-MM sorts chronologically as a string.
	sort.Strings(keys)
	out := make([]MonthAmount, 0, len(keys))
	for _, k := range keys {
		out = append(out, MonthAmount{Month: k, Amount: Money{Cents: sums[k]}})
	}
	return out
}

// SumByDay buckets expenses by exact date, summing each bucket. Entries are
// ordered chronologically ascending.
func SumByDay(expenses []Expense) []DayAmount {
	sums := make(map[string]int64)
	dates := make(map[string]Date)
	for _, e := range expenses {
		key := e.Date.String()
		sums[key] += e.Amount.Cents
		dates[key] = e.Date
	}
	keys := make([]string, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]DayAmount, 0, len(keys))
	for _, k := range keys {
		out = append(out, DayAmount{Day: dates[k], Amount: Money{Cents: sums[k]}})
	}
	return out
}

// HistogramBuckets splits expense amounts into bucketCount equal-width
// buckets spanning [min, max]. When the input is empty the result is empty;
// when all amounts are equal (or fewer than 2 distinct values exist) the
// result degenerates to a single bucket holding everything.
func HistogramBuckets(expenses []Expense, bucketCount int) []Bucket {
	if len(expenses) == 0 {
		return nil
	}
	if bucketCount < 1 {
		bucketCount = 1
	}

	min := expenses[0].Amount.Cents
	max := min
	for _, e := range expenses[1:] {
		if e.Amount.Cents < min {
			min = e.Amount.Cents
		}
		if e.Amount.Cents > max {
			max = e.Amount.Cents
		}
	}
	if min == max {
		return []Bucket{{Low: Money{Cents: min}, High: Money{Cents: max}, Count: len(expenses)}}
	}

	span := max - min
	n := int64(bucketCount)
	buckets := make([]Bucket, bucketCount)
	for i := int64(0); i < n; i++ {
		buckets[i].Low = Money{Cents: min + span*i/n}
		buckets[i].High = Money{Cents: min + span*(i+1)/n}
	}
	for _, e := range expenses {
		// First bucket whose upper edge exceeds the amount; the max amount
		// falls off the end and is clamped into the last bucket.
		idx := sort.Search(bucketCount, func(i int) bool {
			return e.Amount.Cents < buckets[i].High.Cents
		})
		if idx == bucketCount {
			idx = bucketCount - 1
		}
		buckets[idx].Count++
	}
	return buckets
}
