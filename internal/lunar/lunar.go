// Package lunar adapts github.com/6tail/lunar-go to the chart engine's
// calendar conversion interface.
package lunar

import (
	"fmt"

	"github.com/6tail/lunar-go/calendar"

	"bazi/internal/chart"
)

// Calendar converts between the Chinese lunisolar and Gregorian calendars.
type Calendar struct{}

// New returns a converter.
func New() *Calendar { return &Calendar{} }

var _ chart.Converter = (*Calendar)(nil)

// LunarToSolar converts a lunar date. The library encodes leap months as
// negative month numbers. Dates that do not exist (a leap month the year
// lacks, day 30 of a short month) are rejected by converting back and
// comparing.
func (c *Calendar) LunarToSolar(year, month, day int, leap bool) (d chart.Date, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lunar %d-%d-%d: %v", year, month, day, r)
		}
	}()

	m := month
	if leap {
		m = -month
	}
	solar := calendar.NewLunarFromYmd(year, m, day).GetSolar()
	back := solar.GetLunar()
	if back.GetYear() != year || back.GetMonth() != m || back.GetDay() != day {
		return chart.Date{}, fmt.Errorf("lunar %s does not exist", label(year, month, day, leap))
	}
	return chart.Date{Year: solar.GetYear(), Month: solar.GetMonth(), Day: solar.GetDay()}, nil
}

// Describe renders the lunar date of a solar date, e.g. "农历 庚午年 四月 廿一".
func (c *Calendar) Describe(d chart.Date) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("describe %s: %v", d, r)
		}
	}()

	l := calendar.NewSolarFromYmd(d.Year, d.Month, d.Day).GetLunar()
	return fmt.Sprintf("农历 %s年 %s月 %s", l.GetYearInGanZhi(), l.GetMonthInChinese(), l.GetDayInChinese()), nil
}

func label(year, month, day int, leap bool) string {
	prefix := ""
	if leap {
		prefix = "闰"
	}
	return fmt.Sprintf("%d年%s%d月%d日", year, prefix, month, day)
}
