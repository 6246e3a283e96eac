// Package reverse finds the calendar dates whose four pillars match a target
// chart.
package reverse

import (
	"context"
	"fmt"
	"time"

	"bazi/internal/sexagenary"
	"bazi/internal/solarterm"
)

// Targets are the four pillars to search for.
type Targets struct {
	Year  sexagenary.Index `json:"year"`
	Month sexagenary.Index `json:"month"`
	Day   sexagenary.Index `json:"day"`
	Hour  sexagenary.Index `json:"hour"`
}

// ParseTargets parses four "甲子" style pairs.
func ParseTargets(year, month, day, hour string) (Targets, error) {
	var t Targets
	fields := []struct {
		name string
		text string
		dst  *sexagenary.Index
	}{
		{"year", year, &t.Year},
		{"month", month, &t.Month},
		{"day", day, &t.Day},
		{"hour", hour, &t.Hour},
	}
	for _, f := range fields {
		i, err := sexagenary.ParsePair(f.text)
		if err != nil {
			return Targets{}, fmt.Errorf("%s pillar: %w", f.name, err)
		}
		*f.dst = i
	}
	return t, nil
}

func (t Targets) String() string {
	return fmt.Sprintf("%s %s %s %s", t.Year, t.Month, t.Day, t.Hour)
}

// Range is an inclusive span of sexagenary years.
type Range struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// DefaultRange is used when a caller supplies no range.
var DefaultRange = Range{From: 1900, To: 2099}

// Years returns the number of years covered.
func (r Range) Years() int {
	if r.To < r.From {
		return 0
	}
	return r.To - r.From + 1
}

// Match is one calendar date carrying the target pillars.
type Match struct {
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	Day       int    `json:"day"`
	Window    string `json:"window"`
	SolarTerm string `json:"solarTerm"`
}

// Date formats the match as YYYY-MM-DD.
func (m Match) Date() string {
	return fmt.Sprintf("%04d-%02d-%02d", m.Year, m.Month, m.Day)
}

// Progress is called after each year of the range is scanned.
type Progress func(done, total int)

// Options tune a search.
type Options struct {
	Progress Progress
}

// Consistent reports whether the targets can co-occur at all: the month stem
// must follow from the year stem and the hour stem from the day stem.
func Consistent(t Targets) bool {
	if sexagenary.MonthStem(t.Year.Stem(), t.Month.Branch()) != t.Month.Stem() {
		return false
	}
	return sexagenary.HourStem(t.Day.Stem(), t.Hour.Branch()) == t.Hour.Stem()
}

// Search walks every matching year in r and returns the dates whose day pillar
// matches inside the target month and whose target hour overlaps the month.
// Inconsistent targets return an empty result without scanning. The only
// error is the context's, returned with the matches found so far.
func Search(ctx context.Context, t Targets, r Range, opts Options) ([]Match, error) {
	matches := []Match{}
	if !Consistent(t) {
		return matches, nil
	}
	total := r.Years()
	for y := r.From; y <= r.To; y++ {
		if err := ctx.Err(); err != nil {
			return matches, err
		}
		if sexagenary.YearIndex(y) == t.Year {
			found, err := scanMonth(ctx, t, y)
			matches = append(matches, found...)
			if err != nil {
				return matches, err
			}
		}
		if opts.Progress != nil {
			opts.Progress(y-r.From+1, total)
		}
	}
	return matches, nil
}

func scanMonth(ctx context.Context, t Targets, sexYear int) ([]Match, error) {
	start, end := solarterm.MonthWindow(sexYear, t.Month.Branch())
	hb := t.Hour.Branch()
	var out []Match

	d := time.Date(start.Start.Year(), start.Start.Month(), start.Start.Day(), 0, 0, 0, 0, time.UTC)
	for d.Before(end.Start) {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if sexagenary.DayIndex(d.Year(), d.Month(), d.Day()) == t.Day && hourOverlaps(d, hb, start.Start, end.Start) {
			out = append(out, Match{
				Year:      d.Year(),
				Month:     int(d.Month()),
				Day:       d.Day(),
				Window:    hb.HourWindow(),
				SolarTerm: start.Name,
			})
		}
		d = d.AddDate(0, 0, 1)
	}
	return out, nil
}

// hourOverlaps reports whether the clock span of hour branch hb on date d
// intersects [from, to). 子 on a date covers both 00:00-01:00 and 23:00-24:00
// because the day does not roll over at 23:00.
func hourOverlaps(d time.Time, hb sexagenary.Branch, from, to time.Time) bool {
	overlap := func(s, e time.Time) bool { return s.Before(to) && e.After(from) }
	if hb == sexagenary.Zi {
		return overlap(d, d.Add(time.Hour)) || overlap(d.Add(23*time.Hour), d.Add(24*time.Hour))
	}
	s := d.Add(time.Duration(2*int(hb)-1) * time.Hour)
	return overlap(s, s.Add(2*time.Hour))
}
