package chart

import (
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/crypto/blake2b"

	"bazi/internal/errors"
	"bazi/internal/luck"
	"bazi/internal/output"
)

// Supported birth years. The Jie approximation is tuned for this span.
const (
	MinYear = 1900
	MaxYear = 2099
)

// Calendar says how BirthSpec.Date is to be read.
type Calendar string

const (
	Solar Calendar = "solar"
	Lunar Calendar = "lunar"
)

// Date is a calendar date in either calendar. Lunar dates may carry day 30
// in any month, so this is not a time.Time.
type Date struct {
	Year  int
	Month int
	Day   int
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	var d Date
	var rest string
	n, _ := fmt.Sscanf(s, "%d-%d-%d%s", &d.Year, &d.Month, &d.Day, &rest)
	if n != 3 {
		return Date{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return d, nil
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ClockTime is a wall-clock birth time.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClock parses HH:MM.
func ParseClock(s string) (ClockTime, error) {
	var c ClockTime
	var rest string
	n, _ := fmt.Sscanf(s, "%d:%d%s", &c.Hour, &c.Minute, &rest)
	if n != 2 {
		return ClockTime{}, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	return c, nil
}

func (c ClockTime) String() string { return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute) }

func (c ClockTime) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *ClockTime) UnmarshalText(text []byte) error {
	parsed, err := ParseClock(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// BirthSpec is everything a chart is computed from. A nil Time means the
// hour is unknown; a nil Longitude skips the true solar time correction.
type BirthSpec struct {
	Date      Date        `json:"date"`
	Time      *ClockTime  `json:"time,omitempty"`
	Gender    luck.Gender `json:"gender"`
	Calendar  Calendar    `json:"calendar,omitempty"`
	LeapMonth bool        `json:"leapMonth,omitempty"`
	Longitude *float64    `json:"longitude,omitempty"`
}

func invalid(field, format string, args ...interface{}) *errors.BaziError {
	return errors.Newf(errors.InvalidBirthSpec, format, args...).
		WithDetails(map[string]string{"field": field})
}

// Validate checks ranges. Lunar day validity beyond 1..30 is left to the
// converter, which knows the month lengths.
func (s BirthSpec) Validate() error {
	d := s.Date
	if d.Year < MinYear || d.Year > MaxYear {
		return invalid("date", "year %d outside %d-%d", d.Year, MinYear, MaxYear)
	}
	if d.Month < 1 || d.Month > 12 {
		return invalid("date", "month %d out of range", d.Month)
	}
	switch s.calendar() {
	case Solar:
		t := time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
		if d.Day < 1 || t.Day() != d.Day {
			return invalid("date", "%s is not a calendar date", d)
		}
		if s.LeapMonth {
			return invalid("leapMonth", "leap months only exist in the lunar calendar")
		}
	case Lunar:
		if d.Day < 1 || d.Day > 30 {
			return invalid("date", "lunar day %d out of range", d.Day)
		}
	default:
		return invalid("calendar", "unknown calendar %q", s.Calendar)
	}
	if s.Time != nil {
		if s.Time.Hour < 0 || s.Time.Hour > 23 || s.Time.Minute < 0 || s.Time.Minute > 59 {
			return invalid("time", "%s is not a clock time", s.Time)
		}
	}
	if _, err := luck.ParseGender(string(s.Gender)); err != nil {
		return invalid("gender", "%v", err)
	}
	if s.Longitude != nil && (*s.Longitude < -180 || *s.Longitude > 180) {
		return invalid("longitude", "longitude %v outside -180..180", *s.Longitude)
	}
	return nil
}

func (s BirthSpec) calendar() Calendar {
	if s.Calendar == "" {
		return Solar
	}
	return s.Calendar
}

// normalized fills the default calendar and folds gender aliases such as
// "M" or "男" to their canonical value.
func (s BirthSpec) normalized() BirthSpec {
	s.Calendar = s.calendar()
	if g, err := luck.ParseGender(string(s.Gender)); err == nil {
		s.Gender = g
	}
	return s
}

// Fingerprint is a stable content hash of the spec, used as the chart
// snapshot cache key.
func (s BirthSpec) Fingerprint() (string, error) {
	s = s.normalized()
	data, err := output.DeterministicEncode(s)
	if err != nil {
		return "", err
	}
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
