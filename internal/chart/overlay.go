package chart

import (
	"bazi/internal/annotate"
	"bazi/internal/errors"
	"bazi/internal/interaction"
	"bazi/internal/luck"
	"bazi/internal/sexagenary"
)

// Selection picks the time context laid over a chart. Decade indexes
// Chart.Luck.Decades; Year is a calendar year; Month is 1 (寅) through 12 (丑)
// of that year and requires Year.
type Selection struct {
	Decade *int `json:"decade,omitempty"`
	Year   *int `json:"year,omitempty"`
	Month  *int `json:"month,omitempty"`
}

// OverlayResult is the chart seen through a selection.
type OverlayResult struct {
	Luck    *annotate.Pillar `json:"luck,omitempty"`
	Annual  *annotate.Pillar `json:"annual,omitempty"`
	Monthly *annotate.Pillar `json:"monthly,omitempty"`
	// Interactions keeps only records involving a selected pillar.
	Interactions []interaction.Interaction `json:"interactions"`
	// Pillars are copies of the four main pillars with their stars
	// activated by Interactions.
	Pillars []annotate.Pillar `json:"pillars"`
}

// Overlay merges the selected decade, year and month pillars with the chart,
// reruns the interaction rules, and activates the stars of every pillar
// that takes part, selected ones included. The chart itself is not modified.
func Overlay(c *Chart, sel Selection) (*OverlayResult, error) {
	ctx := c.Context()
	res := &OverlayResult{}

	if sel.Decade != nil {
		i := *sel.Decade
		if i < 0 || i >= len(c.Luck.Decades) {
			return nil, errors.Newf(errors.InvalidSelection, "decade %d outside 0-%d", i, len(c.Luck.Decades)-1)
		}
		d := c.Luck.Decades[i]
		p := annotate.Annotate(d.Stem, d.Branch, ctx.At(annotate.Luck))
		res.Luck = &p
	}
	if sel.Month != nil && sel.Year == nil {
		return nil, errors.Newf(errors.InvalidSelection, "a month needs a year")
	}
	if sel.Year != nil {
		y := *sel.Year
		if y < MinYear || y > MaxYear {
			return nil, errors.Newf(errors.InvalidSelection, "year %d outside %d-%d", y, MinYear, MaxYear)
		}
		p := annotate.AnnotateIndex(sexagenary.YearIndex(y), ctx.At(annotate.Annual))
		res.Annual = &p

		if sel.Month != nil {
			m := *sel.Month
			if m < 1 || m > 12 {
				return nil, errors.Newf(errors.InvalidSelection, "month %d outside 1-12", m)
			}
			mp := luck.Months(y, c.DayMaster)[m-1]
			p := annotate.Annotate(mp.Stem, mp.Branch, ctx.At(annotate.Monthly))
			res.Monthly = &p
		}
	}

	merged := entries(c.Pillars())
	for _, p := range []*annotate.Pillar{res.Luck, res.Annual, res.Monthly} {
		if p != nil {
			merged = append(merged, interaction.EntryOf(*p))
		}
	}
	res.Interactions = interaction.Dynamic(ComputeInteractions(merged))

	res.Pillars = make([]annotate.Pillar, 0, 4)
	for _, p := range c.Pillars() {
		res.Pillars = append(res.Pillars, p.Clone())
	}
	ptrs := make([]*annotate.Pillar, 0, len(res.Pillars)+3)
	for i := range res.Pillars {
		ptrs = append(ptrs, &res.Pillars[i])
	}
	ptrs = append(ptrs, res.Luck, res.Annual, res.Monthly)
	interaction.Activate(ptrs, res.Interactions)
	return res, nil
}
