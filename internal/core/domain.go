package core

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"
)

const (
	USD Currency = "USD"
	INR Currency = "INR"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	JPY Currency = "JPY"
	CAD Currency = "CAD"
	AUD Currency = "AUD"
	CHF Currency = "CHF"
	CNY Currency = "CNY"
	SGD Currency = "SGD"

	// DefaultCurrency is assumed for stored records that predate the currency field.
	DefaultCurrency = USD

	// DateLayout is the calendar date format used for Expense.Date.
	DateLayout = "2006-01-02"
)

type (
	Currency string

	Date struct {
		time.Time
	}

	Expense struct {
		ID        string   `json:"id"`
		Name      string   `json:"name"`
		Amount    float64  `json:"amount"`
		Currency  Currency `json:"currency"`
		Category  string   `json:"category"`
		Date      Date     `json:"date"`
		Timestamp int64    `json:"timestamp"` // milliseconds since epoch
	}
)

var (
	ErrEmptyName           = errors.New("empty name")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	ErrEmptyCategory       = errors.New("empty category")
	ErrUnknownCategory     = errors.New("unknown category")
)

// ValidationError reports which field of an expense was rejected.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Currencies returns the supported currencies in display order.
func Currencies() []Currency {
	return []Currency{USD, INR, EUR, GBP, JPY, CAD, AUD, CHF, CNY, SGD}
}

// ParseCurrency converts a user supplied code into a supported Currency.
// Codes are matched case-insensitively.
func ParseCurrency(s string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", ErrUnsupportedCurrency
	}
	return c, nil
}

// IsValid returns true if the currency is one of the supported codes.
func (c Currency) IsValid() bool {
	switch c {
	case USD, INR, EUR, GBP, JPY, CAD, AUD, CHF, CNY, SGD:
		return true
	default:
		return false
	}
}

// OrDefault maps a missing currency to DefaultCurrency.
func (c Currency) OrDefault() Currency {
	if c == "" {
		return DefaultCurrency
	}
	return c
}

func (c Currency) String() string {
	return string(c)
}

// NewDate truncates t to its calendar day in UTC.
func NewDate(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	// Tolerate full ISO timestamps written by older clients.
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Validate checks the user supplied fields of an expense.
func (e Expense) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return &ValidationError{Field: "name", Err: ErrEmptyName}
	}
	if math.IsNaN(e.Amount) || math.IsInf(e.Amount, 0) || e.Amount <= 0 {
		return &ValidationError{Field: "amount", Err: ErrInvalidAmount}
	}
	if !e.Currency.IsValid() {
		return &ValidationError{Field: "currency", Err: ErrUnsupportedCurrency}
	}
	if strings.TrimSpace(e.Category) == "" {
		return &ValidationError{Field: "category", Err: ErrEmptyCategory}
	}
	return nil
}
