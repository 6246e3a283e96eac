// Package solarterm approximates the twelve Jie (节) solar terms that open each
// sexagenary month and places birth moments relative to them.
//
// All instants handled here are civil wall-clock times. Callers build them
// with time.UTC as a neutral zone so no daylight-saving shift can move a
// moment across a term boundary.
package solarterm

import (
	"math"
	"sort"
	"time"

	"bazi/internal/sexagenary"
)

// Jie identifies one of the twelve month-opening terms, 小寒 (0) through 大雪 (11).
type Jie int

const (
	XiaoHan Jie = iota
	LiChun
	JingZhe
	QingMing
	LiXia
	MangZhong
	XiaoShu
	LiQiu
	BaiLu
	HanLu
	LiDong
	DaXue
)

type jieConstant struct {
	name  string
	c     float64
	month time.Month
}

var jieConstants = [12]jieConstant{
	{"小寒", 5.4055, time.January},
	{"立春", 3.87, time.February},
	{"惊蛰", 5.63, time.March},
	{"清明", 4.81, time.April},
	{"立夏", 5.52, time.May},
	{"芒种", 5.678, time.June},
	{"小暑", 7.108, time.July},
	{"立秋", 7.5, time.August},
	{"白露", 7.646, time.September},
	{"寒露", 8.318, time.October},
	{"立冬", 7.438, time.November},
	{"大雪", 7.18, time.December},
}

// Name returns the Chinese term name.
func (j Jie) Name() string { return jieConstants[j].name }

// Month returns the Gregorian month the term falls in.
func (j Jie) Month() time.Month { return jieConstants[j].month }

// Branch returns the month branch the term opens.
func (j Jie) Branch() sexagenary.Branch { return sexagenary.Branch((int(j) + 1) % 12) }

// JieFor returns the term that opens a month branch.
func JieFor(b sexagenary.Branch) Jie { return Jie((int(b) + 11) % 12) }

// Term is a concrete occurrence of a Jie.
type Term struct {
	Jie   Jie       `json:"-"`
	Name  string    `json:"name"`
	Start time.Time `json:"start"`
}

// Day returns the day of month on which the term falls.
func Day(year int, j Jie) int {
	y := float64(year % 100)
	return int(math.Floor(y*0.2422+jieConstants[j].c)) - int(math.Floor(y/4))
}

// Start returns the instant the term begins: noon on its day.
func Start(year int, j Jie) time.Time {
	return time.Date(year, j.Month(), Day(year, j), 12, 0, 0, 0, time.UTC)
}

// At returns the term occurrence for a Gregorian year.
func At(year int, j Jie) Term {
	return Term{Jie: j, Name: j.Name(), Start: Start(year, j)}
}

// YearTerms lists the twelve terms of a Gregorian year in chronological order.
func YearTerms(year int) []Term {
	terms := make([]Term, 0, 12)
	for j := XiaoHan; j <= DaXue; j++ {
		terms = append(terms, At(year, j))
	}
	sort.SliceStable(terms, func(a, b int) bool { return terms[a].Start.Before(terms[b].Start) })
	return terms
}

// SexagenaryYear returns the year number whose pillar governs t. Moments
// before Start of Spring belong to the previous year.
func SexagenaryYear(t time.Time) int {
	if t.Before(Start(t.Year(), LiChun)) {
		return t.Year() - 1
	}
	return t.Year()
}

// MonthBranch finds the latest term of t's Gregorian year that has started
// by t. A moment exactly on a term start belongs to the new month. When no
// term of the year has started yet the month is 子 and ok is false.
func MonthBranch(t time.Time) (b sexagenary.Branch, term Term, ok bool) {
	for _, tm := range YearTerms(t.Year()) {
		if t.Before(tm.Start) {
			break
		}
		term, ok = tm, true
	}
	if !ok {
		return sexagenary.Zi, Term{}, false
	}
	return term.Jie.Branch(), term, true
}

// Bracket returns the terms immediately before (or at) and after t, searched
// over the 36 terms of the surrounding three Gregorian years.
func Bracket(t time.Time) (prev, next Term) {
	terms := make([]Term, 0, 36)
	for y := t.Year() - 1; y <= t.Year()+1; y++ {
		terms = append(terms, YearTerms(y)...)
	}
	prev, next = terms[0], terms[len(terms)-1]
	for i := 0; i < len(terms)-1; i++ {
		if !t.Before(terms[i].Start) && terms[i+1].Start.After(t) {
			return terms[i], terms[i+1]
		}
	}
	return prev, next
}

// MonthWindow returns the half-open interval [start, end) covered by month
// branch b of sexagenary year sexYear. The 丑 month opens with 小寒 of the
// following Gregorian year.
func MonthWindow(sexYear int, b sexagenary.Branch) (start, end Term) {
	j := JieFor(b)
	year := sexYear
	if j == XiaoHan {
		year++
	}
	start = At(year, j)
	nextJ := Jie((int(j) + 1) % 12)
	nextYear := year
	if nextJ == XiaoHan {
		nextYear++
	}
	return start, At(nextYear, nextJ)
}
