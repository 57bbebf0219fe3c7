package core

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	Daily   Granularity = "daily"
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
	Yearly  Granularity = "yearly"
)

const (
	KindNumeric FieldKind = "number"
	KindText    FieldKind = "text"
)

// DateLayout is the canonical storage and export format of a record date.
const DateLayout = "2006-01-02"

type (
	// Granularity is the bucket size used when resampling a daily series.
	Granularity string

	// FieldKind tells whether a configured field holds a quantity or free text.
	FieldKind string

	Date struct {
		time.Time
	}

	// Quantity is a nullable float. The zero value is undefined.
	Quantity struct {
		Value float64
		Valid bool
	}

	FieldDefinition struct {
		Name string    `yaml:"name" json:"name"`
		Kind FieldKind `yaml:"type" json:"type"`
	}

	// Reading is one stored row. RecordDate is kept as stored so that
	// unparseable dates can be skipped by consumers rather than rejected
	// at the store boundary. Blank text values mean absent.
	Reading struct {
		RecordDate string
		Numbers    map[string]Quantity
		Texts      map[string]string
	}
)

var (
	ErrInvalidDate  = errors.New("invalid date")
	ErrInvalidField = errors.New("invalid field definition")
)

// ParseGranularity maps a view name to a Granularity. Unknown names
// return false so callers can apply their own fallback.
func ParseGranularity(s string) (Granularity, bool) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case Daily, Weekly, Monthly, Yearly:
		return g, true
	}
	return Granularity(s), false
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

var dateLayouts = []string{
	DateLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
}

// ParseDate accepts a calendar date with an optional time part and
// truncates it to midnight UTC.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrInvalidDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewDate(t.Year(), int(t.Month()), t.Day()), nil
		}
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// String formats the date as YYYY-MM-DD
func (d Date) String() string {
	return d.Format(DateLayout)
}

// AddDays returns the date n calendar days later (earlier when n < 0).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// DaysUntil returns the number of calendar days from d to o.
func (d Date) DaysUntil(o Date) int {
	return int(math.Round(o.Sub(d.Time).Hours() / 24))
}

// Validate checks the date is set
func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// NewQuantity returns a defined quantity.
func NewQuantity(v float64) Quantity {
	return Quantity{Value: v, Valid: true}
}

// Sub returns q - o, undefined when either side is undefined.
func (q Quantity) Sub(o Quantity) Quantity {
	if !q.Valid || !o.Valid {
		return Quantity{}
	}
	return NewQuantity(q.Value - o.Value)
}

func (q Quantity) String() string {
	if !q.Valid {
		return ""
	}
	return strconv.FormatFloat(q.Value, 'f', -1, 64)
}

// Label renders a field name for display: underscores become spaces
// and the first letter is upper-cased.
func (f FieldDefinition) Label() string {
	s := strings.ReplaceAll(f.Name, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// Number returns the reading's value for a numeric field.
func (r Reading) Number(name string) Quantity {
	return r.Numbers[name]
}

// Text returns the reading's value for a text field, "" when absent.
func (r Reading) Text(name string) string {
	return r.Texts[name]
}
