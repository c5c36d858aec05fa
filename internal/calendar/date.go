// Package calendar provides the simulated league date and clock.
// The clock knows nothing about phases, events, or persistence.
package calendar

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// dateLayout is the canonical text form, also used as the SQLite column
// encoding so that lexicographic ordering matches chronological ordering.
const dateLayout = "2006-01-02"

// Date is an immutable simulated calendar date. The zero value is invalid;
// construct with NewDate or ParseDate.
type Date struct {
	t time.Time // midnight UTC
}

// NewDate builds a Date from year, month, day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{t: t}, nil
}

// IsZero reports whether d is the zero (unset) date.
func (d Date) IsZero() bool { return d.t.IsZero() }

// Year returns the calendar year.
func (d Date) Year() int { return d.t.Year() }

// Month returns the calendar month.
func (d Date) Month() time.Month { return d.t.Month() }

// Day returns the day of month.
func (d Date) Day() int { return d.t.Day() }

// AddDays returns a new Date offset by n days (n may be negative).
func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

// DaysUntil returns the number of days from d to other. Negative when
// other is earlier than d.
func (d Date) DaysUntil(other Date) int {
	return int(other.t.Sub(d.t) / (24 * time.Hour))
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool { return d.t.Before(other.t) }

// After reports whether d is strictly later than other.
func (d Date) After(other Date) bool { return d.t.After(other.t) }

// Equal reports whether d and other are the same date.
func (d Date) Equal(other Date) bool { return d.t.Equal(other.t) }

// String returns the YYYY-MM-DD form.
func (d Date) String() string { return d.t.Format(dateLayout) }

// MarshalText implements encoding.TextMarshaler (JSON object keys, YAML).
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(data []byte) error {
	parsed, err := ParseDate(string(data))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer so dates persist as TEXT columns.
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan implements sql.Scanner.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return d.UnmarshalText([]byte(v))
	case []byte:
		return d.UnmarshalText(v)
	case time.Time:
		*d = NewDate(v.Year(), v.Month(), v.Day())
		return nil
	default:
		return fmt.Errorf("scan date: unsupported type %T", src)
	}
}
