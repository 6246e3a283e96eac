package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"bazi/internal/annotate"
	"bazi/internal/cases"
	"bazi/internal/chart"
	"bazi/internal/geo"
	"bazi/internal/interaction"
	"bazi/internal/jobs"
	"bazi/internal/luck"
	"bazi/internal/output"
	"bazi/internal/sexagenary"
)

func humanize(v interface{}) (string, bool) {
	switch val := v.(type) {
	case *chart.Chart:
		return Chart(val), true
	case *chart.OverlayResult:
		return Overlay(val), true
	case []interaction.Interaction:
		return Interactions(val), true
	case *jobs.ReverseResult:
		return Reverse(val), true
	case *cases.Case:
		return Case(val), true
	case *cases.ListResult:
		return CaseList(val), true
	case *jobs.Job:
		return Job(val), true
	case *jobs.JobSummary:
		return fmt.Sprintf("Job %s %s: %s\n", val.ID, val.Status, val.Label), true
	case *jobs.ListJobsResponse:
		return JobList(val), true
	case []geo.Province:
		return Cities(val), true
	}
	return "", false
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	return t
}

func centered(columns int) []table.ColumnConfig {
	cfgs := make([]table.ColumnConfig, columns)
	for i := range cfgs {
		cfgs[i] = table.ColumnConfig{Number: i + 1, Align: text.AlignCenter, AlignHeader: text.AlignCenter}
	}
	return cfgs
}

// pillarColumns lays pillars out side by side, one row per attribute.
func pillarColumns(pillars []annotate.Pillar) string {
	t := newTable()
	header := table.Row{""}
	for _, p := range pillars {
		header = append(header, p.Position.String())
	}
	t.AppendHeader(header)

	rows := []struct {
		name string
		cell func(p annotate.Pillar) string
	}{
		{"主星", func(p annotate.Pillar) string { return string(p.TenGod) }},
		{"天干", func(p annotate.Pillar) string { return p.Stem.String() }},
		{"地支", func(p annotate.Pillar) string { return p.Branch.String() }},
		{"藏干", func(p annotate.Pillar) string { return joinStems(p.HiddenStems) }},
		{"副星", func(p annotate.Pillar) string { return joinGods(p.HiddenStemTenGods) }},
		{"星运", func(p annotate.Pillar) string { return string(p.LifeStage) }},
		{"自坐", func(p annotate.Pillar) string { return string(p.SelfSit) }},
		{"空亡", func(p annotate.Pillar) string { return p.Void.Xun + voidMark(p.Void.Kind) }},
		{"纳音", func(p annotate.Pillar) string { return p.SoundElement }},
		{"神煞", func(p annotate.Pillar) string { return starList(p.Stars) }},
	}
	for _, r := range rows {
		row := table.Row{r.name}
		for _, p := range pillars {
			if !p.Known {
				row = append(row, "?")
				continue
			}
			row = append(row, r.cell(p))
		}
		t.AppendRow(row)
	}
	t.SetColumnConfigs(centered(len(pillars) + 1))
	return t.Render() + "\n"
}

func joinStems(stems []sexagenary.Stem) string {
	parts := make([]string, len(stems))
	for i, s := range stems {
		parts[i] = s.String()
	}
	return strings.Join(parts, " ")
}

func joinGods(gods []annotate.TenGod) string {
	parts := make([]string, len(gods))
	for i, g := range gods {
		parts[i] = string(g)
	}
	return strings.Join(parts, " ")
}

func voidMark(k annotate.VoidKind) string {
	if k == annotate.VoidNone {
		return ""
	}
	return " (" + string(k) + ")"
}

// starList stacks star names; activated stars carry a mark.
func starList(stars []annotate.Star) string {
	names := make([]string, 0, len(stars))
	for _, s := range stars {
		name := s.Name
		if s.Activated {
			name += "*"
		}
		names = append(names, name)
	}
	return strings.Join(names, "\n")
}

// Chart renders the full chart.
func Chart(c *chart.Chart) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", c.SolarDate, c.Spec.Gender.String())
	if c.LunarDate != "" {
		fmt.Fprintf(&b, "%s\n", c.LunarDate)
	}
	if c.TrueSolarTime != "" {
		fmt.Fprintf(&b, "真太阳时 %s (经度 %s)\n", c.TrueSolarTime, output.FormatLongitude(*c.Spec.Longitude))
	}
	fmt.Fprintf(&b, "日主 %s  %s\n\n", c.DayMaster, c.VoidInfo)

	b.WriteString(pillarColumns([]annotate.Pillar{c.Year, c.Month, c.Day, c.Hour, c.Embryo, c.LifePalace, c.BodyPalace}))

	if len(c.Interactions) > 0 {
		b.WriteString("\n")
		b.WriteString(Interactions(c.Interactions))
	}

	b.WriteString("\n")
	b.WriteString(decades(c.Luck))

	p := c.Profile
	fmt.Fprintf(&b, "\n五行 金%d 木%d 水%d 火%d 土%d\n",
		p.Counts["金"], p.Counts["木"], p.Counts["水"], p.Counts["火"], p.Counts["土"])
	fmt.Fprintf(&b, "调候 %s: %s\n", p.Climate.Status, p.Climate.Advice)
	fmt.Fprintf(&b, "流通 %s\n", p.Flow)
	fmt.Fprintf(&b, "体质 %s\n", p.TCM.Constitution)
	return b.String()
}

func decades(r luck.Result) string {
	var b strings.Builder
	b.WriteString(r.Onset.Detail + "\n")
	if r.SmallLuck != nil {
		fmt.Fprintf(&b, "小运 %d-%d\n", r.SmallLuck.StartYear, r.SmallLuck.EndYear)
	}

	t := newTable()
	t.AppendHeader(table.Row{"大运", "起运", "年份", "十神", "星运", "纳音"})
	for _, d := range r.Decades {
		t.AppendRow(table.Row{
			d.Stem.String() + d.Branch.String(),
			d.StartAgeText,
			fmt.Sprintf("%d-%d", d.StartYear, d.EndYear),
			string(d.TenGod),
			string(d.LifeStage),
			d.SoundElement,
		})
	}
	b.WriteString(t.Render() + "\n")
	return b.String()
}

// Interactions renders interaction records.
func Interactions(list []interaction.Interaction) string {
	if len(list) == 0 {
		return "无刑冲合会\n"
	}
	t := newTable()
	t.AppendHeader(table.Row{"关系", "类型", "柱位", "吉凶", "说明"})
	for _, i := range list {
		t.AppendRow(table.Row{i.Label, string(i.Kind), strings.Join(i.Pillars, "/"), polarityLabel(i.Polarity), i.Description})
	}
	return t.Render() + "\n"
}

func polarityLabel(p interaction.Polarity) string {
	switch p {
	case interaction.Favorable:
		return "吉"
	case interaction.Unfavorable:
		return "凶"
	}
	return "平"
}

// Overlay renders the selected time pillars, the chart pillars with
// activated stars, and the dynamic interactions.
func Overlay(r *chart.OverlayResult) string {
	var b strings.Builder
	pillars := append([]annotate.Pillar(nil), r.Pillars...)
	for _, p := range []*annotate.Pillar{r.Luck, r.Annual, r.Monthly} {
		if p != nil {
			pillars = append(pillars, *p)
		}
	}
	b.WriteString(pillarColumns(pillars))
	b.WriteString("\n")
	b.WriteString(Interactions(r.Interactions))
	return b.String()
}

// Reverse renders reverse search matches.
func Reverse(r *jobs.ReverseResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %d-%d\n", r.Targets, r.Range.From, r.Range.To)
	if !r.Consistent {
		b.WriteString("月柱或时柱与年干/日干不相配，无匹配日期\n")
		return b.String()
	}
	if len(r.Matches) == 0 {
		b.WriteString("无匹配日期\n")
		return b.String()
	}
	t := newTable()
	t.AppendHeader(table.Row{"日期", "时段", "节令"})
	for _, m := range r.Matches {
		t.AppendRow(table.Row{m.Date(), m.Window, m.SolarTerm})
	}
	t.AppendFooter(table.Row{"", "共", len(r.Matches)})
	b.WriteString(t.Render() + "\n")
	return b.String()
}

// Case renders one saved case.
func Case(c *cases.Case) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", c.ID, c.Name)
	spec := c.Spec
	fmt.Fprintf(&b, "  出生 %s", spec.Date)
	if spec.Time != nil {
		fmt.Fprintf(&b, " %s", spec.Time)
	}
	if spec.Calendar == chart.Lunar {
		b.WriteString(" (农历")
		if spec.LeapMonth {
			b.WriteString(" 闰月")
		}
		b.WriteString(")")
	}
	fmt.Fprintf(&b, " %s\n", spec.Gender.String())
	if c.City != "" {
		fmt.Fprintf(&b, "  地点 %s %s\n", c.Province, c.City)
	}
	if spec.Longitude != nil {
		fmt.Fprintf(&b, "  经度 %s\n", output.FormatLongitude(*spec.Longitude))
	}
	if c.Notes != "" {
		fmt.Fprintf(&b, "  备注 %s\n", c.Notes)
	}
	fmt.Fprintf(&b, "  更新 %s\n", c.UpdatedAt.Format("2006-01-02 15:04"))
	return b.String()
}

// CaseList renders a page of cases.
func CaseList(r *cases.ListResult) string {
	if len(r.Cases) == 0 {
		return "No saved cases.\n"
	}
	t := newTable()
	t.AppendHeader(table.Row{"ID", "Name", "Birth", "Place", "Updated"})
	for _, c := range r.Cases {
		birth := c.Spec.Date.String()
		if c.Spec.Time != nil {
			birth += " " + c.Spec.Time.String()
		}
		t.AppendRow(table.Row{shortID(c.ID), c.Name, birth, strings.TrimSpace(c.Province + " " + c.City), c.UpdatedAt.Format("2006-01-02")})
	}
	t.AppendFooter(table.Row{"", "", "", "Total", r.TotalCount})
	return t.Render() + "\n"
}

// Job renders one job, including a reverse search result when present.
func Job(j *jobs.Job) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Job %s\n", j.ID)
	fmt.Fprintf(&b, "  Type:     %s\n", j.Type)
	if j.Label != "" {
		fmt.Fprintf(&b, "  Targets:  %s\n", j.Label)
	}
	fmt.Fprintf(&b, "  Status:   %s\n", j.Status)
	fmt.Fprintf(&b, "  Progress: %d%%\n", j.Progress)
	fmt.Fprintf(&b, "  Created:  %s\n", j.CreatedAt.Format("2006-01-02 15:04:05"))
	if d := j.Duration(); d > 0 {
		fmt.Fprintf(&b, "  Duration: %s\n", d.Round(time.Millisecond))
	}
	if j.Error != "" {
		fmt.Fprintf(&b, "  Error:    %s\n", j.Error)
	}
	if res, err := jobs.ParseReverseResult(j.Result); err == nil && res != nil {
		b.WriteString("\n")
		b.WriteString(Reverse(res))
	}
	return b.String()
}

// JobList renders job summaries.
func JobList(r *jobs.ListJobsResponse) string {
	if len(r.Jobs) == 0 {
		return "No jobs found.\n"
	}
	t := newTable()
	t.AppendHeader(table.Row{"ID", "Targets", "Status", "Progress", "Matches", "Created"})
	for _, j := range r.Jobs {
		matches := "-"
		if j.Status == jobs.JobCompleted {
			matches = fmt.Sprint(j.Matches)
		}
		t.AppendRow(table.Row{shortID(j.ID), j.Label, j.Status, fmt.Sprintf("%d%%", j.Progress), matches, j.CreatedAt.Local().Format("2006-01-02 15:04")})
	}
	t.AppendFooter(table.Row{"", "", "", "", "Total", r.TotalCount})
	return t.Render() + "\n"
}

// Cities renders the longitude catalog.
func Cities(provinces []geo.Province) string {
	t := newTable()
	t.AppendHeader(table.Row{"省份", "城市", "经度"})
	for _, p := range provinces {
		for _, c := range p.Cities {
			t.AppendRow(table.Row{p.Name, c.Name, output.FormatLongitude(c.Longitude)})
		}
	}
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 3, Align: text.AlignRight}})
	return t.Render() + "\n"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
