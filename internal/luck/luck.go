package luck

import (
	"fmt"
	"time"

	"bazi/internal/annotate"
	"bazi/internal/sexagenary"
	"bazi/internal/solarterm"
)

// Decades is the number of decade pillars projected.
const Decades = 12

// Term tags a monthly pillar with the Jie that opens it.
type Term struct {
	Name      string `json:"name"`
	DateLabel string `json:"dateLabel"`
	Date      string `json:"date"`
}

// MonthlyPillar is one month of an annual pillar.
type MonthlyPillar struct {
	Month        int               `json:"month"`
	Stem         sexagenary.Stem   `json:"stem"`
	Branch       sexagenary.Branch `json:"branch"`
	TenGod       annotate.TenGod   `json:"tenGod"`
	HiddenTenGod annotate.TenGod   `json:"hiddenTenGod"`
	Term         Term              `json:"term"`
}

// AnnualPillar is the pillar of one calendar year.
type AnnualPillar struct {
	Year         int               `json:"year"`
	Age          int               `json:"age"`
	Stem         sexagenary.Stem   `json:"stem"`
	Branch       sexagenary.Branch `json:"branch"`
	SoundElement string            `json:"soundElement"`
	TenGod       annotate.TenGod   `json:"tenGod"`
	HiddenTenGod annotate.TenGod   `json:"hiddenTenGod"`
	Stars        []string          `json:"stars"`
	Monthly      []MonthlyPillar   `json:"monthly"`
}

// LuckPillar is one decade.
type LuckPillar struct {
	Stem         sexagenary.Stem   `json:"stem"`
	Branch       sexagenary.Branch `json:"branch"`
	StartAge     int               `json:"startAge"`
	StartYear    int               `json:"startYear"`
	EndYear      int               `json:"endYear"`
	StartAgeText string            `json:"startAgeText"`
	SoundElement string            `json:"soundElement"`
	TenGod       annotate.TenGod   `json:"tenGod"`
	HiddenTenGod annotate.TenGod   `json:"hiddenTenGod"`
	LifeStage    annotate.Stage    `json:"lifeStage"`
	Annual       []AnnualPillar    `json:"annual"`
}

// SmallLuck covers the years between birth and the first decade.
type SmallLuck struct {
	StartYear    int            `json:"startYear"`
	EndYear      int            `json:"endYear"`
	StartAge     int            `json:"startAge"`
	StartAgeText string         `json:"startAgeText"`
	Annual       []AnnualPillar `json:"annual"`
}

// Params are the chart facts the projection depends on.
type Params struct {
	// Birth is the (possibly solar-time corrected) birth moment; noon when
	// the time is unknown.
	Birth     time.Time
	TimeKnown bool
	Gender    Gender
	Year      sexagenary.Index
	Month     sexagenary.Index
	// Context supplies the day master and star references.
	Context annotate.Context
}

// Result is the full projection.
type Result struct {
	Onset     Onset        `json:"onset"`
	Decades   []LuckPillar `json:"decades"`
	SmallLuck *SmallLuck   `json:"smallLuck,omitempty"`
}

// Age is the virtual age in a calendar year: 1 in the birth year.
func Age(year, birthYear int) int { return year - birthYear + 1 }

// Compute projects onset, decades and small luck.
func Compute(p Params) Result {
	forward := Forward(p.Gender, p.Year.Stem())
	onset := ComputeOnset(p.Birth, forward, !p.TimeKnown)
	birthYear := p.Birth.Year()
	dm := p.Context.DayMaster

	step := 1
	if !forward {
		step = -1
	}
	decades := make([]LuckPillar, 0, Decades)
	for i := 1; i <= Decades; i++ {
		idx := p.Month.Add(step * i)
		start := onset.FirstLuckYear + (i-1)*10
		age := Age(start, birthYear)
		decades = append(decades, LuckPillar{
			Stem:         idx.Stem(),
			Branch:       idx.Branch(),
			StartAge:     age,
			StartYear:    start,
			EndYear:      start + 9,
			StartAgeText: fmt.Sprintf("%d岁", age),
			SoundElement: idx.SoundElement(),
			TenGod:       annotate.TenGodOf(dm, idx.Stem()),
			HiddenTenGod: annotate.BranchTenGod(dm, idx.Branch()),
			LifeStage:    annotate.LifeStage(dm, idx.Branch()),
			Annual:       AnnualRange(start, 10, birthYear, p.Context),
		})
	}

	res := Result{Onset: onset, Decades: decades}
	if p.TimeKnown && (onset.Years > 0 || onset.Months > 0) && onset.FirstLuckYear > birthYear {
		span := onset.FirstLuckYear - birthYear
		res.SmallLuck = &SmallLuck{
			StartYear:    birthYear,
			EndYear:      onset.FirstLuckYear - 1,
			StartAge:     1,
			StartAgeText: "1岁",
			Annual:       AnnualRange(birthYear, span, birthYear, p.Context),
		}
	}
	return res
}

// AnnualRange lists count consecutive annual pillars from startYear.
func AnnualRange(startYear, count, birthYear int, ctx annotate.Context) []AnnualPillar {
	out := make([]AnnualPillar, 0, count)
	for y := startYear; y < startYear+count; y++ {
		out = append(out, Annual(y, birthYear, ctx))
	}
	return out
}

// Annual builds the pillar of a calendar year. Annual pillars always step
// forward from 1984 = 甲子 regardless of the decade direction.
func Annual(year, birthYear int, ctx annotate.Context) AnnualPillar {
	idx := sexagenary.YearIndex(year)
	dm := ctx.DayMaster
	return AnnualPillar{
		Year:         year,
		Age:          Age(year, birthYear),
		Stem:         idx.Stem(),
		Branch:       idx.Branch(),
		SoundElement: idx.SoundElement(),
		TenGod:       annotate.TenGodOf(dm, idx.Stem()),
		HiddenTenGod: annotate.BranchTenGod(dm, idx.Branch()),
		Stars:        annotate.StarNames(annotate.Stars(idx.Stem(), idx.Branch(), ctx.At(annotate.Annual))),
		Monthly:      Months(year, dm),
	}
}

// Months lists the twelve months 寅 through 丑 of a sexagenary year.
func Months(year int, dayMaster sexagenary.Stem) []MonthlyPillar {
	yearStem := sexagenary.YearIndex(year).Stem()
	out := make([]MonthlyPillar, 0, 12)
	for m := 0; m < 12; m++ {
		b := sexagenary.Branch((m + 2) % 12)
		stem := sexagenary.MonthStem(yearStem, b)
		start, _ := solarterm.MonthWindow(year, b)
		d := start.Start
		out = append(out, MonthlyPillar{
			Month:        m + 1,
			Stem:         stem,
			Branch:       b,
			TenGod:       annotate.TenGodOf(dayMaster, stem),
			HiddenTenGod: annotate.BranchTenGod(dayMaster, b),
			Term: Term{
				Name:      start.Name,
				DateLabel: fmt.Sprintf("%d月%d日", int(d.Month()), d.Day()),
				Date:      fmt.Sprintf("%d/%d/%d", d.Year(), int(d.Month()), d.Day()),
			},
		})
	}
	return out
}
