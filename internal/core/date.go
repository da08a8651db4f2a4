package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateFormat is the wire and display format of a calendar date.
const DateFormat = "2006-01-02"

// readDateFormat also accepts single-digit month and day.
const readDateFormat = "2006-1-2"

// ReferenceZone pins every date computation to Asia/Tokyo so that date-only
// comparisons do not depend on the host timezone. Japan observes no DST.
var ReferenceZone = time.FixedZone("Asia/Tokyo", 9*60*60)

var ErrEmptyDate = errors.New("date cannot be zero")

// Date is a calendar date with no time-of-day, held at midnight in ReferenceZone.
type Date struct {
	time.Time
}

// NewDate creates a normalized Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, ReferenceZone)}
}

// DateOf truncates an instant to its calendar date in ReferenceZone.
func DateOf(t time.Time) Date {
	y, m, d := t.In(ReferenceZone).Date()
	return NewDate(y, int(m), d)
}

// Today returns the current date in ReferenceZone.
func Today() Date { return DateOf(time.Now()) }

// ParseDate accepts YYYY-MM-DD (leniently YYYY-M-D) and RFC 3339 timestamps.
// Timestamps are converted into ReferenceZone before truncation, so
// "2023-12-31T15:00:00Z" is 2024-01-01.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrEmptyDate
	}
	if t, err := time.Parse(readDateFormat, s); err == nil {
		return NewDate(t.Year(), int(t.Month()), t.Day()), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return DateOf(t), nil
	}
	return Date{}, fmt.Errorf("invalid date %q want format %q", s, DateFormat)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrEmptyDate
	}
	return nil
}

// Equal compares calendar dates.
func (d Date) Equal(o Date) bool { return d.Time.Equal(o.Time) }

// Before reports whether d is an earlier day than o.
func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }

// Compare returns -1, 0 or +1.
func (d Date) Compare(o Date) int { return d.Time.Compare(o.Time) }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateFormat)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
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
