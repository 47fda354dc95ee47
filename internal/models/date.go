package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and storage format of calendar dates
const DateLayout = "2006-01-02"

// Date is a calendar date without a time component. It is stored as a SQL
// date and serialized as YYYY-MM-DD.
type Date struct {
	time.Time
}

// NewDate builds a Date for the given calendar day
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t in its own location
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a YYYY-MM-DD string
func ParseDate(value string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, use YYYY-MM-DD: %w", value, err)
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
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("date must be a string in YYYY-MM-DD format")
	}
	if raw == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// GormDataType makes AutoMigrate create a native date column
func (Date) GormDataType() string {
	return "date"
}

// Value stores the date as YYYY-MM-DD so text-backed stores (sqlite) keep
// lexical order equal to chronological order.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

func (d *Date) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*d = Date{}
	case time.Time:
		*d = Date{Time: time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, time.UTC)}
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Date", value)
	}
	return nil
}

func (d *Date) scanString(value string) error {
	if len(value) >= len(DateLayout) {
		value = value[:len(DateLayout)]
	}
	parsed, err := ParseDate(value)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
