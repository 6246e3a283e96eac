// Package chart assembles a complete Four Pillars chart from a birth
// specification and exposes the overlay and reverse-search entry points.
package chart

import (
	"fmt"
	"log/slog"
	"time"

	"bazi/internal/annotate"
	"bazi/internal/errors"
	"bazi/internal/interaction"
	"bazi/internal/luck"
	"bazi/internal/profile"
	"bazi/internal/sexagenary"
	"bazi/internal/slogutil"
	"bazi/internal/solarterm"
)

// Converter is the lunar calendar collaborator.
type Converter interface {
	// LunarToSolar converts a lunar date; leap selects the intercalary month.
	LunarToSolar(year, month, day int, leap bool) (Date, error)
	// Describe renders the lunar date of a solar date, e.g. "农历 庚午年 四月 廿一".
	Describe(solar Date) (string, error)
}

// Chart is the full computed chart.
type Chart struct {
	Spec      BirthSpec `json:"spec"`
	TimeKnown bool      `json:"timeKnown"`
	// BirthYear is the Gregorian year of the (corrected) birth moment; virtual
	// ages count from it.
	BirthYear     int    `json:"birthYear"`
	SolarDate     string `json:"solarDate"`
	LunarDate     string `json:"lunarDate,omitempty"`
	TrueSolarTime string `json:"trueSolarTime,omitempty"`

	Year       annotate.Pillar `json:"year"`
	Month      annotate.Pillar `json:"month"`
	Day        annotate.Pillar `json:"day"`
	Hour       annotate.Pillar `json:"hour"`
	Embryo     annotate.Pillar `json:"embryo"`
	LifePalace annotate.Pillar `json:"lifePalace"`
	BodyPalace annotate.Pillar `json:"bodyPalace"`

	DayMaster sexagenary.Stem      `json:"dayMaster"`
	YearVoid  [2]sexagenary.Branch `json:"yearVoid"`
	DayVoid   [2]sexagenary.Branch `json:"dayVoid"`
	VoidInfo  string               `json:"voidInfo"`

	Interactions []interaction.Interaction `json:"interactions"`
	Luck         luck.Result               `json:"luck"`
	Profile      profile.Profile           `json:"profile"`
}

// Pillars returns the four main pillars in year, month, day, hour order.
func (c *Chart) Pillars() []annotate.Pillar {
	return []annotate.Pillar{c.Year, c.Month, c.Day, c.Hour}
}

// Context rebuilds the annotation context from the chart's own pillars, so
// it works equally for a chart loaded back from storage.
func (c *Chart) Context() annotate.Context {
	yi, _ := c.Year.Index()
	di, _ := c.Day.Index()
	var branches []annotate.ChartBranch
	for _, p := range c.Pillars() {
		if p.Known {
			branches = append(branches, annotate.ChartBranch{Position: p.Position, Branch: p.Branch})
		}
	}
	return annotate.NewContext(yi, di, c.Month.Branch, branches)
}

// Engine computes charts.
type Engine struct {
	converter Converter
	logger    *slog.Logger
}

// NewEngine creates an engine. conv may be nil, in which case lunar input
// is rejected and no lunar summary is produced.
func NewEngine(conv Converter, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Engine{converter: conv, logger: logger}
}

// ComputeChart derives the whole chart. Identical specs produce identical
// charts.
func (e *Engine) ComputeChart(spec BirthSpec) (*Chart, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	spec = spec.normalized()

	solar, lunarText, err := e.resolveDate(spec)
	if err != nil {
		return nil, err
	}

	known := spec.Time != nil
	hour, minute := 12, 0
	if known {
		hour, minute = spec.Time.Hour, spec.Time.Minute
	}
	birth := time.Date(solar.Year, time.Month(solar.Month), solar.Day, hour, minute, 0, 0, time.UTC)

	c := &Chart{
		Spec:      spec,
		TimeKnown: known,
		SolarDate: solarSummary(solar, spec.Time),
		LunarDate: lunarText,
	}
	if known && spec.Longitude != nil {
		birth = solarterm.TrueSolarTime(birth, *spec.Longitude)
		c.TrueSolarTime = birth.Format("2006-01-02 15:04:05")
	}
	c.BirthYear = birth.Year()

	yi := sexagenary.YearIndex(solarterm.SexagenaryYear(birth))
	mb, _, _ := solarterm.MonthBranch(birth)
	mi := sexagenary.MustIndex(sexagenary.MonthStem(yi.Stem(), mb), mb)
	di := sexagenary.DayIndex(birth.Year(), birth.Month(), birth.Day())
	hb := sexagenary.HourBranch(birth.Hour())
	hi := sexagenary.MustIndex(sexagenary.HourStem(di.Stem(), hb), hb)

	branches := []annotate.ChartBranch{
		{Position: annotate.Year, Branch: yi.Branch()},
		{Position: annotate.Month, Branch: mb},
		{Position: annotate.Day, Branch: di.Branch()},
	}
	if known {
		branches = append(branches, annotate.ChartBranch{Position: annotate.Hour, Branch: hb})
	}
	ctx := annotate.NewContext(yi, di, mb, branches)

	c.Year = annotate.AnnotateIndex(yi, ctx.At(annotate.Year))
	c.Month = annotate.AnnotateIndex(mi, ctx.At(annotate.Month))
	c.Day = annotate.AnnotateIndex(di, ctx.At(annotate.Day))
	c.Embryo = annotate.AnnotateIndex(sexagenary.Embryo(mi), ctx.At(annotate.Embryo))
	if known {
		c.Hour = annotate.AnnotateIndex(hi, ctx.At(annotate.Hour))
		c.LifePalace = annotate.AnnotateIndex(sexagenary.LifePalace(yi.Stem(), mb, hb), ctx.At(annotate.LifePalace))
		c.BodyPalace = annotate.AnnotateIndex(sexagenary.BodyPalace(yi.Stem(), mb, hb), ctx.At(annotate.BodyPalace))
	} else {
		c.Hour = annotate.Unknown(annotate.Hour)
		c.LifePalace = annotate.Unknown(annotate.LifePalace)
		c.BodyPalace = annotate.Unknown(annotate.BodyPalace)
	}

	c.DayMaster = di.Stem()
	c.YearVoid = yi.Xun()
	c.DayVoid = di.Xun()
	c.VoidInfo = fmt.Sprintf("年空[%s%s] 日空[%s%s]", c.YearVoid[0], c.YearVoid[1], c.DayVoid[0], c.DayVoid[1])

	c.Interactions = ComputeInteractions(entries(c.Pillars()))
	c.Luck = luck.Compute(luck.Params{
		Birth:     birth,
		TimeKnown: known,
		Gender:    spec.Gender,
		Year:      yi,
		Month:     mi,
		Context:   ctx,
	})

	var stems []sexagenary.Stem
	var bs []sexagenary.Branch
	for _, p := range c.Pillars() {
		if p.Known {
			stems = append(stems, p.Stem)
			bs = append(bs, p.Branch)
		}
	}
	c.Profile = profile.Derive(stems, bs, mb, yi)

	e.logger.Debug("chart computed",
		"date", spec.Date.String(),
		"timeKnown", known,
		"pillars", fmt.Sprintf("%s %s %s %s", c.Year.Label(), c.Month.Label(), c.Day.Label(), c.Hour.Label()),
		"forward", c.Luck.Onset.Forward,
	)
	return c, nil
}

func (e *Engine) resolveDate(spec BirthSpec) (Date, string, error) {
	if spec.Calendar == Lunar {
		if e.converter == nil {
			return Date{}, "", errors.Newf(errors.LunarConversionFailed, "no lunar calendar available")
		}
		solar, err := e.converter.LunarToSolar(spec.Date.Year, spec.Date.Month, spec.Date.Day, spec.LeapMonth)
		if err != nil {
			return Date{}, "", errors.New(errors.LunarConversionFailed,
				fmt.Sprintf("convert lunar %s", spec.Date), err)
		}
		leap := ""
		if spec.LeapMonth {
			leap = "闰"
		}
		return solar, fmt.Sprintf("农历 %d年%s%d月%d日", spec.Date.Year, leap, spec.Date.Month, spec.Date.Day), nil
	}

	if e.converter == nil {
		return spec.Date, "", nil
	}
	text, err := e.converter.Describe(spec.Date)
	if err != nil {
		e.logger.Debug("lunar summary unavailable", "date", spec.Date.String(), "error", err)
		return spec.Date, "", nil
	}
	return spec.Date, text, nil
}

func solarSummary(d Date, t *ClockTime) string {
	clock := "吉时"
	if t != nil {
		clock = fmt.Sprintf("%d:%02d", t.Hour, t.Minute)
	}
	return fmt.Sprintf("%d年%d月%d日 %s", d.Year, d.Month, d.Day, clock)
}

func entries(pillars []annotate.Pillar) []interaction.Entry {
	out := make([]interaction.Entry, len(pillars))
	for i, p := range pillars {
		out[i] = interaction.EntryOf(p)
	}
	return out
}

// ComputeInteractions runs the interaction rules over any labelled pillar
// list. Unknown entries are ignored.
func ComputeInteractions(list []interaction.Entry) []interaction.Interaction {
	return interaction.Analyze(list)
}
