// Package luck projects the decade (大运), annual (流年) and monthly (流月)
// pillars that follow from a birth chart.
package luck

import (
	"fmt"
	"strings"
	"time"

	"bazi/internal/sexagenary"
	"bazi/internal/solarterm"
)

// Gender of the chart owner.
type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"
)

// String returns 男 or 女.
func (g Gender) String() string {
	if g == Female {
		return "女"
	}
	return "男"
}

// ParseGender accepts male/female, m/f, or 男/女.
func ParseGender(s string) (Gender, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m", "男":
		return Male, nil
	case "female", "f", "女":
		return Female, nil
	}
	return "", fmt.Errorf("unknown gender %q", s)
}

// UnmarshalText accepts any form ParseGender does.
func (g *Gender) UnmarshalText(text []byte) error {
	v, err := ParseGender(string(text))
	if err != nil {
		return err
	}
	*g = v
	return nil
}

// Forward reports whether decades run forward: yang-year males and yin-year
// females progress, the others regress. g may be any form ParseGender
// accepts.
func Forward(g Gender, yearStem sexagenary.Stem) bool {
	if v, err := ParseGender(string(g)); err == nil {
		g = v
	}
	yang := yearStem.Polarity() == sexagenary.PolarityYang
	return (g == Male) == yang
}

// Minutes of birth-to-term distance per unit of onset time: three days to a
// year, so one minute maps to two hours of life.
const (
	minutesPerYear  = 4320
	minutesPerMonth = 360
	minutesPerDay   = 12
)

// Onset describes when the first decade pillar begins.
type Onset struct {
	Forward       bool           `json:"forward"`
	Years         int            `json:"years"`
	Months        int            `json:"months"`
	Days          int            `json:"days"`
	Minutes       int            `json:"minutes"`
	FirstLuckYear int            `json:"firstLuckYear"`
	Prev          solarterm.Term `json:"prevTerm"`
	Next          solarterm.Term `json:"nextTerm"`
	Detail        string         `json:"detail"`
	DirectionText string         `json:"directionText"`
	// Approximate is set when the birth time was unknown and noon was used.
	Approximate bool `json:"approximate"`
}

// ComputeOnset measures the distance from birth to the adjacent Jie in the
// direction of travel and converts it to an onset age.
func ComputeOnset(birth time.Time, forward, approximate bool) Onset {
	prev, next := solarterm.Bracket(birth)
	var diff time.Duration
	if forward {
		diff = next.Start.Sub(birth)
	} else {
		diff = birth.Sub(prev.Start)
	}
	mins := int(diff / time.Minute)

	o := Onset{
		Forward:     forward,
		Minutes:     mins,
		Years:       mins / minutesPerYear,
		Months:      (mins % minutesPerYear) / minutesPerMonth,
		Days:        (mins % minutesPerYear % minutesPerMonth) / minutesPerDay,
		Prev:        prev,
		Next:        next,
		Approximate: approximate,
	}
	o.FirstLuckYear = birth.Year() + o.Years
	if o.Months > 6 {
		o.FirstLuckYear++
	}
	o.Detail = fmt.Sprintf("%d岁%d个月%d天起运", o.Years, o.Months, o.Days)
	if forward {
		o.DirectionText = fmt.Sprintf("顺行 | 下个节气：%s | 距 %d天", next.Name, mins/1440)
	} else {
		o.DirectionText = fmt.Sprintf("逆行 | 上个节气：%s | 距 %d天", prev.Name, mins/1440)
	}
	return o
}
