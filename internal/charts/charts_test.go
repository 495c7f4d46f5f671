package charts

import (
	"encoding/json"
	"errors"
	"testing"

	"spendlog/internal/core"
)

func expense(t *testing.T, cents int64, category, date string) core.Expense {
	t.Helper()
	d, err := core.ParseDate(date)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", date, err)
	}
	return core.Expense{Amount: core.Money{Cents: cents}, Category: category, Date: d}
}

func TestBuildSet(t *testing.T) {
	expenses := []core.Expense{
		expense(t, 5000, "Food", "2024-01-15"),
		expense(t, 1200, "Transport", "2024-01-16"),
		expense(t, 2000, "Food", "2024-02-01"),
	}

	set := BuildSet(expenses, 4)

	if got := set.Pie; len(got.Labels) != 2 || got.Labels[0] != "Food" || got.Values[0] != 7000 {
		t.Fatalf("pie = %+v", got)
	}
	if got := set.Bar; len(got.Labels) != 2 || got.Labels[0] != "2024-01" || got.Values[0] != 6200 {
		t.Fatalf("bar = %+v", got)
	}
	if got := set.Line; len(got.Labels) != 3 || got.Labels[0] != "2024-01-15" || got.Values[2] != 2000 {
		t.Fatalf("line = %+v", got)
	}
	if got := set.Histogram; len(got.Labels) != 4 || got.Unit != "count" {
		t.Fatalf("histogram = %+v", got)
	}

	var counted int64
	for _, v := range set.Histogram.Values {
		counted += v
	}
	if counted != int64(len(expenses)) {
		t.Fatalf("histogram counts %d of %d expenses", counted, len(expenses))
	}
}

func TestBuildSetEmpty(t *testing.T) {
	set := BuildSet(nil, 0)
	for _, s := range set.All() {
		if len(s.Labels) != 0 || len(s.Values) != 0 {
			t.Fatalf("series %s not empty: %+v", s.Name, s)
		}
	}
}

func TestValidName(t *testing.T) {
	for _, name := range Names() {
		if !ValidName(name) {
			t.Errorf("ValidName(%q) = false", name)
		}
	}
	for _, name := range []string{"", "PIE", "scatter", "../etc/passwd"} {
		if ValidName(name) {
			t.Errorf("ValidName(%q) = true", name)
		}
	}
}

func TestWriterRoundTrip(t *testing.T) {
	w := NewWriter(t.TempDir())
	expenses := []core.Expense{
		expense(t, 5000, "Food", "2024-01-15"),
		expense(t, 2000, "Food", "2024-02-01"),
	}

	if err := w.WriteSet(7, BuildSet(expenses, 4)); err != nil {
		t.Fatalf("WriteSet: %v", err)
	}

	for _, name := range Names() {
		body, err := w.Read(7, name)
		if err != nil {
			t.Fatalf("Read(%q): %v", name, err)
		}
		var s Series
		if err := json.Unmarshal(body, &s); err != nil {
			t.Fatalf("artifact %q is not valid JSON: %v", name, err)
		}
		if s.Name != name {
			t.Fatalf("artifact %q carries series %q", name, s.Name)
		}
		if s.GeneratedAt.IsZero() {
			t.Fatalf("artifact %q has no generation timestamp", name)
		}
	}

	t.Run("artifacts are per user", func(t *testing.T) {
		if _, err := w.Read(8, NamePie); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("expected ErrNotFound for other user, got %v", err)
		}
	})

	t.Run("unknown chart name", func(t *testing.T) {
		if _, err := w.Read(7, "scatter"); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestWriterOverwrites(t *testing.T) {
	w := NewWriter(t.TempDir())

	first := []core.Expense{expense(t, 100, "Food", "2024-01-01")}
	if err := w.WriteSet(1, BuildSet(first, 4)); err != nil {
		t.Fatalf("WriteSet: %v", err)
	}

	second := append(first, expense(t, 900, "Transport", "2024-01-02"))
	if err := w.WriteSet(1, BuildSet(second, 4)); err != nil {
		t.Fatalf("WriteSet: %v", err)
	}

	body, err := w.Read(1, NamePie)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	var s Series
	if err := json.Unmarshal(body, &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(s.Labels) != 2 {
		t.Fatalf("expected refreshed artifact with 2 categories, got %+v", s)
	}
}
