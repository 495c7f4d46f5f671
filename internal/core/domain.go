package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Error taxonomy shared by every layer. ErrValidation is the base for all
// input errors so callers can match the whole class with errors.Is.
var (
	ErrValidation = errors.New("invalid input")
	ErrConflict   = errors.New("email already registered")
	ErrAuth       = errors.New("invalid credentials or session")
	ErrNotFound   = errors.New("record not found")
	ErrForbidden  = errors.New("record owned by another user")
)

var (
	ErrInvalidAmount = fmt.Errorf("%w: amount must be a positive decimal", ErrValidation)
	ErrEmptyCategory = fmt.Errorf("%w: category is required", ErrValidation)
	ErrInvalidDate   = fmt.Errorf("%w: date must be a valid calendar date", ErrValidation)
	ErrEmptyName     = fmt.Errorf("%w: name is required", ErrValidation)
	ErrInvalidEmail  = fmt.Errorf("%w: email is not valid", ErrValidation)
	ErrEmptyPassword = fmt.Errorf("%w: password is required", ErrValidation)
	ErrNoteTooLong   = fmt.Errorf("%w: note too long (max 500 characters)", ErrValidation)
)

type (
	// Date is a calendar date with no time-of-day component.
	Date struct {
		time.Time
	}

	// Money is an amount in integer cents. Sums and comparisons happen in
	// cents; decimal strings appear only at the boundaries.
	Money struct {
		Cents int64
	}

	// User is a registered account. PasswordHash is a one-way derived
	// credential; the plaintext password is never stored.
	User struct {
		ID           int64
		Name         string
		Email        string
		PasswordHash string
		CreatedAt    time.Time
	}

	// Expense is a single dated expense record owned by one user.
	Expense struct {
		ID        int64
		OwnerID   int64
		Amount    Money
		Category  string
		Note      string
		Date      Date
		CreatedAt time.Time
	}
)

const dateLayout = "2006-01-02"

// NewDate creates a Date from year, month, day in UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(dateLayout)
}

// MonthKey returns the YYYY-MM bucket key for the date.
func (d Date) MonthKey() string {
	return d.Format("2006-01")
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e Expense) Validate() error {
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if len(e.Note) > 500 {
		return ErrNoteTooLong
	}
	return e.Date.Validate()
}

func (u User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return ErrEmptyName
	}
	return ValidateEmail(u.Email)
}

// ValidateEmail checks the minimal shape used as a login key. Full RFC
// address validation is out of scope; the store enforces uniqueness.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 || strings.ContainsAny(email, " \t\r\n") {
		return ErrInvalidEmail
	}
	if !strings.Contains(email[at+1:], ".") {
		return ErrInvalidEmail
	}
	return nil
}
