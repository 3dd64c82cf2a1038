package core

import (
	"errors"
	"strings"
	"time"
)

const (
	RoleStandard Role = "standard"
	RoleAdmin    Role = "admin"

	Cash PaymentMethod = "cash"
	Card PaymentMethod = "card"
)

type (
	Role string

	PaymentMethod string

	// Date is a calendar date; the time-of-day part is always midnight UTC.
	Date struct {
		time.Time
	}

	Account struct {
		ID           int64
		Name         string
		Email        string
		Role         Role
		Active       bool
		RegisteredAt time.Time
		LastAccessAt *time.Time
	}

	Category struct {
		ID          int64
		Name        string
		Description string
	}

	Expense struct {
		ID          int64
		Description string
		Amount      float64
		CategoryID  int64
		Date        Date
		Month       int
		Year        int
		Method      PaymentMethod
	}

	Income struct {
		ID          int64
		Description string
		Amount      float64
		Source      string
		Date        Date
		Month       int
		Year        int
	}
)

var (
	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidRole      = errors.New("invalid role")
	ErrInvalidMethod    = errors.New("invalid payment method")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptySource      = errors.New("empty source")
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string into a Date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// Today returns the current calendar date.
func Today() Date {
	y, m, d := time.Now().Date()
	return NewDate(y, int(m), d)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month as 1-12.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year.
func (d Date) Year() int {
	return d.Time.Year()
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (r Role) Validate() error {
	switch r {
	case RoleStandard, RoleAdmin:
		return nil
	}
	return ErrInvalidRole
}

func (m PaymentMethod) Validate() error {
	switch m {
	case Cash, Card:
		return nil
	}
	return ErrInvalidMethod
}

func (e Expense) Validate() error {
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if e.Amount <= 0 {
		return ErrInvalidAmount
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	return e.Method.Validate()
}

func (i Income) Validate() error {
	if len(strings.TrimSpace(i.Description)) == 0 {
		return ErrEmptyDescription
	}
	if i.Amount <= 0 {
		return ErrInvalidAmount
	}
	if len(strings.TrimSpace(i.Source)) == 0 {
		return ErrEmptySource
	}
	return i.Date.Validate()
}

func (c Category) Validate() error {
	if len(strings.TrimSpace(c.Name)) == 0 {
		return ErrEmptyName
	}
	return nil
}
