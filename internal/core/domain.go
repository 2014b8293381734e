package core

import (
	"errors"
	"strings"
	"time"
)

// Category is one of the fixed expense classes shared by transactions
// and per-category savings models. The set and spelling are part of the
// model training contract and must not change without retraining.
type Category string

const (
	Groceries     Category = "Groceries"
	Transport     Category = "Transport"
	EatingOut     Category = "Eating_Out"
	Entertainment Category = "Entertainment"
	Utilities     Category = "Utilities"
	Healthcare    Category = "Healthcare"
	Education     Category = "Education"
	Miscellaneous Category = "Miscellaneous"
)

// Categories lists every expected expense category in the order used
// during model training.
func Categories() []Category {
	return []Category{
		Groceries, Transport, EatingOut, Entertainment,
		Utilities, Healthcare, Education, Miscellaneous,
	}
}

type (
	Date struct {
		time.Time
	}

	// Transaction is a single expense row. Immutable once stored.
	Transaction struct {
		ID          int64
		UserID      string
		Date        Date
		Category    Category
		Amount      Money
		Description string
	}

	// Profile holds the demographic features of a user. At most one
	// profile exists per user; it is upserted whole.
	Profile struct {
		UserID     string
		Age        int
		Dependents int
		Occupation string
	}
)

var (
	ErrProfileNotFound  = errors.New("user profile not found")
	ErrNoModels         = errors.New("no trained models available")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDate      = errors.New("invalid date")
	ErrEmptyUserID      = errors.New("empty user id")
	ErrEmptyDescription = errors.New("empty description")
)

// DateLayout is the ISO calendar-day format used everywhere a date
// crosses a boundary (storage, JSON, query parameters).
const DateLayout = "2006-01-02"

// NewDate creates a Date truncated to the calendar day in UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an arbitrary instant to its calendar day in UTC.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses an ISO calendar day (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// ParseCategory validates a category string against the fixed set.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.TrimSpace(s))
	for _, known := range Categories() {
		if c == known {
			return c, nil
		}
	}
	return "", ErrInvalidCategory
}

func (c Category) Valid() bool {
	_, err := ParseCategory(string(c))
	return err == nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.UserID) == "" {
		return ErrEmptyUserID
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if !t.Category.Valid() {
		return ErrInvalidCategory
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

func (p Profile) Validate() error {
	if strings.TrimSpace(p.UserID) == "" {
		return ErrEmptyUserID
	}
	if p.Age < 0 || p.Age > 150 {
		return errors.New("age out of range")
	}
	if p.Dependents < 0 {
		return errors.New("dependents cannot be negative")
	}
	return nil
}
