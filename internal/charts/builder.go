// Package charts turns a user's expenses into the dashboard chart series and
// manages the pre-rendered per-user artifacts on disk.
package charts

import (
	"time"

	"spendlog/internal/core"
)

// Chart artifact names, also the file basenames under the user's directory.
const (
	NamePie       = "pie"
	NameBar       = "bar"
	NameLine      = "line"
	NameHistogram = "histogram"
)

// DefaultHistogramBuckets is used when no explicit bucket count is configured.
const DefaultHistogramBuckets = 8

// Names lists every chart in a fixed order.
func Names() []string {
	return []string{NamePie, NameBar, NameLine, NameHistogram}
}

// ValidName reports whether name identifies a known chart.
func ValidName(name string) bool {
	switch name {
	case NamePie, NameBar, NameLine, NameHistogram:
		return true
	}
	return false
}

// Series is one renderable chart: parallel labels and values. Unit tells the
// front end how to format values ("cents" for amounts, "count" for tallies).
type Series struct {
	Name        string    `json:"name"`
	Labels      []string  `json:"labels"`
	Values      []int64   `json:"values"`
	Unit        string    `json:"unit"`
	GeneratedAt time.Time `json:"generated_at,omitempty"`
}

// Set bundles the four dashboard charts built from one expense list.
type Set struct {
	Pie       Series
	Bar       Series
	Line      Series
	Histogram Series
}

// All returns the set's series in render order.
func (s Set) All() []Series {
	return []Series{s.Pie, s.Bar, s.Line, s.Histogram}
}

// BuildSet computes all four chart series from the expenses. It is pure: the
// worker uses it to render artifacts and the dashboard uses it as an
// in-process fallback when no artifact exists yet.
func BuildSet(expenses []core.Expense, bucketCount int) Set {
	if bucketCount <= 0 {
		bucketCount = DefaultHistogramBuckets
	}

	byCategory := core.SumByCategory(expenses)
	pie := Series{Name: NamePie, Unit: "cents"}
	for _, c := range byCategory {
		pie.Labels = append(pie.Labels, c.Category)
		pie.Values = append(pie.Values, c.Amount.Cents)
	}

	byMonth := core.SumByMonth(expenses)
	bar := Series{Name: NameBar, Unit: "cents"}
	for _, m := range byMonth {
		bar.Labels = append(bar.Labels, m.Month)
		bar.Values = append(bar.Values, m.Amount.Cents)
	}

	byDay := core.SumByDay(expenses)
	line := Series{Name: NameLine, Unit: "cents"}
	for _, d := range byDay {
		line.Labels = append(line.Labels, d.Day.String())
		line.Values = append(line.Values, d.Amount.Cents)
	}

	buckets := core.HistogramBuckets(expenses, bucketCount)
	hist := Series{Name: NameHistogram, Unit: "count"}
	for _, b := range buckets {
		hist.Labels = append(hist.Labels, b.Low.Decimal()+" - "+b.High.Decimal())
		hist.Values = append(hist.Values, int64(b.Count))
	}

	return Set{Pie: pie, Bar: bar, Line: line, Histogram: hist}
}
