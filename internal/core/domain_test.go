package core

import (
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-01-15")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if d.String() != "2024-01-15" {
		t.Fatalf("round trip = %q", d.String())
	}
	if d.MonthKey() != "2024-01" {
		t.Fatalf("month key = %q", d.MonthKey())
	}

	for _, bad := range []string{"", "15/01/2024", "2024-13-01", "2024-01-32", "yesterday"} {
		if _, err := ParseDate(bad); !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("ParseDate(%q) = %v, want ErrInvalidDate", bad, err)
		}
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		Amount:   Money{Cents: 5000},
		Category: "Food",
		Note:     "lunch",
		Date:     NewDate(2024, 1, 15),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name string
		e    Expense
		want error
	}{
		{"zero amount", Expense{Amount: Money{}, Category: "Food", Date: NewDate(2024, 1, 15)}, ErrInvalidAmount},
		{"negative amount", Expense{Amount: Money{Cents: -100}, Category: "Food", Date: NewDate(2024, 1, 15)}, ErrInvalidAmount},
		{"empty category", Expense{Amount: Money{Cents: 100}, Category: "  ", Date: NewDate(2024, 1, 15)}, ErrEmptyCategory},
		{"zero date", Expense{Amount: Money{Cents: 100}, Category: "Food", Date: Date{Time: time.Time{}}}, ErrInvalidDate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.e.Validate()
			if !errors.Is(err, tc.want) {
				t.Fatalf("Validate() = %v, want %v", err, tc.want)
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("Validate() = %v, should match ErrValidation", err)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	for _, ok := range []string{"a@b.com", "user.name@example.co.uk"} {
		if err := ValidateEmail(ok); err != nil {
			t.Errorf("ValidateEmail(%q) = %v, want nil", ok, err)
		}
	}
	for _, bad := range []string{"", "plain", "@no.local", "trailing@", "no@dot", "two words@x.com"} {
		if err := ValidateEmail(bad); !errors.Is(err, ErrInvalidEmail) {
			t.Errorf("ValidateEmail(%q) = %v, want ErrInvalidEmail", bad, err)
		}
	}
}
