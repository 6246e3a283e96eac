// Package profile derives chart-level readings from the element balance:
// climate adjustment, element flow, five movements and six qi, and a TCM
// constitution profile.
package profile

import (
	"fmt"
	"math"
	"strings"

	"bazi/internal/sexagenary"
)

// Counts tallies elements across stems and branches, indexed by element.
type Counts [5]int

// CountElements tallies the elements of the supplied stems and branches.
func CountElements(stems []sexagenary.Stem, branches []sexagenary.Branch) Counts {
	var c Counts
	for _, s := range stems {
		c[s.Element()]++
	}
	for _, b := range branches {
		c[b.Element()]++
	}
	return c
}

// Total is the number of characters counted.
func (c Counts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// Map keys the counts by element glyph.
func (c Counts) Map() map[string]int {
	m := make(map[string]int, 5)
	for _, e := range sexagenary.Elements() {
		m[e.String()] = c[e]
	}
	return m
}

// Climate is the 调候 reading of the birth season.
type Climate struct {
	Status string `json:"status"`
	Advice string `json:"advice"`
	Detail string `json:"detail"`
}

// ClimateOf reads the season from the month branch.
func ClimateOf(monthBranch sexagenary.Branch) Climate {
	switch monthBranch {
	case sexagenary.Hai, sexagenary.Zi, sexagenary.Chou:
		return Climate{"寒", "喜火暖局", "生于冬季，天寒地冻，首重调候，宜见丙火/丁火/巳/午以解冻除寒。"}
	case sexagenary.Si, sexagenary.Wu, sexagenary.Wei:
		return Climate{"燥", "喜水润局", "生于夏季，火炎土燥，首重调候，宜见壬水/癸水/亥/子以滋润降燥。"}
	case sexagenary.Yin:
		return Climate{"寒余", "略喜火", "生于孟春，余寒未尽，可酌情见火以发荣。"}
	}
	return Climate{"平", "无需刻意调候", "气候适中，以扶抑/通关为主。"}
}

// ElementFlow describes which generating links are present in the chart.
func ElementFlow(c Counts) string {
	var links []string
	// Water feeds wood first, matching the traditional recital order.
	for _, from := range []sexagenary.Element{sexagenary.Water, sexagenary.Wood, sexagenary.Fire, sexagenary.Earth, sexagenary.Metal} {
		to := from.Generates()
		if c[from] > 0 && c[to] > 0 {
			links = append(links, from.String()+"生"+to.String())
		}
	}
	desc := strings.Join(links, "，")
	switch {
	case len(links) == 0:
		return "五行之气也偏枯，流通受阻。"
	case len(links) >= 4:
		return fmt.Sprintf("五行流通极佳，生生不息 (%s)。", desc)
	case len(links) >= 2:
		return fmt.Sprintf("五行有情，气势顺遂 (%s)。", desc)
	}
	return fmt.Sprintf("五行流通一般 (%s)。", desc)
}

// Scores converts counts to whole percentages of the total.
func Scores(c Counts) map[string]int {
	total := c.Total()
	m := make(map[string]int, 5)
	for _, e := range sexagenary.Elements() {
		if total == 0 {
			m[e.String()] = 0
			continue
		}
		m[e.String()] = int(math.Round(float64(c[e]) * 100 / float64(total)))
	}
	return m
}

// Profile bundles every chart-level reading.
type Profile struct {
	Counts    map[string]int `json:"counts"`
	Climate   Climate        `json:"climate"`
	Flow      string         `json:"flow"`
	Movements FiveMovements  `json:"movements"`
	TCM       TCMProfile     `json:"tcm"`
}

// Derive computes the profile. Unknown pillars are simply left out of stems
// and branches.
func Derive(stems []sexagenary.Stem, branches []sexagenary.Branch, monthBranch sexagenary.Branch, year sexagenary.Index) Profile {
	c := CountElements(stems, branches)
	return Profile{
		Counts:    c.Map(),
		Climate:   ClimateOf(monthBranch),
		Flow:      ElementFlow(c),
		Movements: FiveMovementsOf(year),
		TCM:       TCM(c),
	}
}
