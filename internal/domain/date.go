package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

const DateLayout = "2006-01-02"

// Date is a calendar date with no time-of-day component. The zero value is
// not a valid booking date.
type Date struct {
	d civil.Date
}

func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar date of t as observed in t's location.
func DateOf(t time.Time) Date {
	return Date{d: civil.DateOf(t)}
}

// Today returns the current date in loc.
func Today(loc *time.Location) Date {
	return DateOf(time.Now().In(loc))
}

// ParseDate parses a yyyy-mm-dd string. Out of range components are rejected
// rather than normalized.
func ParseDate(s string) (Date, error) {
	d, err := civil.ParseDate(s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, expected yyyy-mm-dd", s)
	}
	return Date{d: d}, nil
}

func (d Date) IsZero() bool { return d.d == civil.Date{} }

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time { return d.d.In(time.UTC) }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.d.String()
}

func (d Date) Before(o Date) bool { return d.d.Before(o.d) }

func (d Date) After(o Date) bool { return d.d.After(o.d) }

func (d Date) Equal(o Date) bool { return d.d == o.d }

func (d Date) AddDays(n int) Date {
	return Date{d: d.d.AddDays(n)}
}

// DaysInclusive counts the calendar days from d through end, both included.
// The result is zero or negative when end is before d.
func (d Date) DaysInclusive(end Date) int {
	return end.d.DaysSince(d.d) + 1
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value stores the date as a yyyy-mm-dd literal so DATE columns never see a
// time zone.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
	case time.Time:
		*d = DateOf(v)
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
	case []byte:
		parsed, err := ParseDate(string(v))
		if err != nil {
			return err
		}
		*d = parsed
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
	return nil
}

// DateRange is an inclusive span of calendar days.
type DateRange struct {
	Start Date `json:"start_date"`
	End   Date `json:"end_date"`
}

func NewDateRange(start, end Date) DateRange {
	return DateRange{Start: start, End: end}
}

// Validate reports ErrInvalidDateRange when either bound is missing or the
// range ends before it starts.
func (r DateRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", ErrInvalidDateRange)
	}
	if r.End.Before(r.Start) {
		return fmt.Errorf("%w: end date %s is before start date %s", ErrInvalidDateRange, r.End, r.Start)
	}
	return nil
}

func (r DateRange) Days() int {
	return r.Start.DaysInclusive(r.End)
}

// Overlaps reports whether the two ranges share at least one day.
func (r DateRange) Overlaps(o DateRange) bool {
	return !r.Start.After(o.End) && !o.Start.After(r.End)
}
