// Package interaction detects combinations, clashes, and other relationships
// between the stems and branches of a set of pillars.
package interaction

import (
	"fmt"
	"sort"
	"strings"

	"bazi/internal/annotate"
	"bazi/internal/sexagenary"
)

// Kind names an interaction rule.
type Kind string

const (
	StemCombine      Kind = "天干五合"
	StemClash        Kind = "天干相冲"
	SixCombine       Kind = "地支六合"
	SixClash         Kind = "地支六冲"
	Harm             Kind = "地支相穿"
	Break            Kind = "地支相破"
	Extinguish       Kind = "地支相绝"
	SelfPunishment   Kind = "自刑"
	HeavenEarthClash Kind = "天克地冲"
	HeavenEarthUnion Kind = "天合地合"
	ThreeHarmony     Kind = "三合局"
	ThreeMeeting     Kind = "三会局"
	ThreePunishment  Kind = "三刑"
	Tomb             Kind = "墓库"
)

// Polarity is the valence of an interaction.
type Polarity string

const (
	Favorable   Polarity = "favorable"
	Unfavorable Polarity = "unfavorable"
	Neutral     Polarity = "neutral"
)

// Entry is one pillar offered to Analyze.
type Entry struct {
	Name   string            `json:"name"`
	Stem   sexagenary.Stem   `json:"stem"`
	Branch sexagenary.Branch `json:"branch"`
	Known  bool              `json:"known"`
}

// EntryOf converts an annotated pillar, labelling it by position.
func EntryOf(p annotate.Pillar) Entry {
	return Entry{Name: p.Position.String(), Stem: p.Stem, Branch: p.Branch, Known: p.Known}
}

// Interaction is one detected relationship.
type Interaction struct {
	Kind        Kind     `json:"kind"`
	Label       string   `json:"label"`
	Pillars     []string `json:"pillars"`
	Description string   `json:"description"`
	Polarity    Polarity `json:"polarity"`
}

// Involves reports whether the named pillar participates.
func (i Interaction) Involves(name string) bool {
	for _, p := range i.Pillars {
		if p == name {
			return true
		}
	}
	return false
}

type pairTable [][2]int

func (t pairTable) match(a, b int) (first, second int, ok bool) {
	for _, p := range t {
		if p[0] == a && p[1] == b {
			return a, b, true
		}
		if p[0] == b && p[1] == a {
			return b, a, true
		}
	}
	return 0, 0, false
}

func stems(pairs ...string) pairTable {
	t := make(pairTable, len(pairs))
	for i, p := range pairs {
		r := []rune(p)
		a, _ := sexagenary.ParseStem(string(r[0]))
		b, _ := sexagenary.ParseStem(string(r[1]))
		t[i] = [2]int{int(a), int(b)}
	}
	return t
}

func branches(pairs ...string) pairTable {
	t := make(pairTable, len(pairs))
	for i, p := range pairs {
		r := []rune(p)
		a, _ := sexagenary.ParseBranch(string(r[0]))
		b, _ := sexagenary.ParseBranch(string(r[1]))
		t[i] = [2]int{int(a), int(b)}
	}
	return t
}

var (
	stemCombine = stems("甲己", "乙庚", "丙辛", "丁壬", "戊癸")
	stemClash   = stems("甲庚", "乙辛", "丙壬", "丁癸")
	sixCombine  = branches("子丑", "寅亥", "卯戌", "辰酉", "巳申", "午未")
	sixClash    = branches("子午", "丑未", "寅申", "卯酉", "辰戌", "巳亥")
	harm        = branches("子未", "丑午", "寅巳", "卯辰", "申亥", "酉戌")
	breaks      = branches("子酉", "丑辰", "寅亥", "卯午", "巳申", "未戌")
	extinguish  = branches("寅酉", "卯申", "午亥", "子巳")
)

var selfPunishing = map[sexagenary.Branch]bool{
	sexagenary.Chen: true, sexagenary.Wu: true, sexagenary.You: true, sexagenary.Hai: true,
}

type group struct {
	kind     Kind
	name     string
	branches [3]sexagenary.Branch
	polarity Polarity
}

var groups = []group{
	{ThreeHarmony, "三合水局", [3]sexagenary.Branch{sexagenary.Shen, sexagenary.Zi, sexagenary.Chen}, Favorable},
	{ThreeHarmony, "三合木局", [3]sexagenary.Branch{sexagenary.Hai, sexagenary.Mao, sexagenary.Wei}, Favorable},
	{ThreeHarmony, "三合火局", [3]sexagenary.Branch{sexagenary.Yin, sexagenary.Wu, sexagenary.Xu}, Favorable},
	{ThreeHarmony, "三合金局", [3]sexagenary.Branch{sexagenary.Si, sexagenary.You, sexagenary.Chou}, Favorable},
	{ThreeMeeting, "三会水局", [3]sexagenary.Branch{sexagenary.Hai, sexagenary.Zi, sexagenary.Chou}, Favorable},
	{ThreeMeeting, "三会木局", [3]sexagenary.Branch{sexagenary.Yin, sexagenary.Mao, sexagenary.Chen}, Favorable},
	{ThreeMeeting, "三会火局", [3]sexagenary.Branch{sexagenary.Si, sexagenary.Wu, sexagenary.Wei}, Favorable},
	{ThreeMeeting, "三会金局", [3]sexagenary.Branch{sexagenary.Shen, sexagenary.You, sexagenary.Xu}, Favorable},
	{ThreePunishment, "寅巳申三刑", [3]sexagenary.Branch{sexagenary.Yin, sexagenary.Si, sexagenary.Shen}, Unfavorable},
	{ThreePunishment, "丑未戌三刑", [3]sexagenary.Branch{sexagenary.Chou, sexagenary.Wei, sexagenary.Xu}, Unfavorable},
}

var tombOrder = []sexagenary.Branch{sexagenary.Chen, sexagenary.Xu, sexagenary.Chou, sexagenary.Wei}

var tombNames = map[sexagenary.Branch]string{
	sexagenary.Chen: "水库",
	sexagenary.Xu:   "火库",
	sexagenary.Chou: "金库",
	sexagenary.Wei:  "木库",
}

var nameRank = map[string]int{
	"年": 0, "月": 1, "日": 2, "时": 3, "胎元": 4, "命宫": 5, "身宫": 6, "大运": 7, "流年": 8, "流月": 9,
}

func rank(name string) int {
	if r, ok := nameRank[name]; ok {
		return r
	}
	return len(nameRank)
}

func less(a, b string) bool {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return ra < rb
	}
	return a < b
}

func sortNames(names []string) {
	sort.SliceStable(names, func(i, j int) bool { return less(names[i], names[j]) })
}

// Analyze runs every pairwise and group rule over the known entries. The
// set of results does not depend on the order of entries.
func Analyze(entries []Entry) []Interaction {
	valid := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Known {
			valid = append(valid, e)
		}
	}
	sort.SliceStable(valid, func(i, j int) bool { return less(valid[i].Name, valid[j].Name) })

	var out []Interaction
	for i := 0; i < len(valid); i++ {
		for j := i + 1; j < len(valid); j++ {
			out = append(out, pairwise(valid[i], valid[j])...)
		}
	}
	out = append(out, grouped(valid)...)
	return out
}

func pairwise(p1, p2 Entry) []Interaction {
	var out []Interaction
	names := []string{p1.Name, p2.Name}
	s1, s2 := int(p1.Stem), int(p2.Stem)
	b1, b2 := int(p1.Branch), int(p2.Branch)

	stemLabel := func(a, b int, suffix string) string {
		return sexagenary.Stem(a).String() + sexagenary.Stem(b).String() + suffix
	}
	branchLabel := func(a, b int, suffix string) string {
		return sexagenary.Branch(a).String() + sexagenary.Branch(b).String() + suffix
	}
	stemDesc := func(verb string) string {
		return fmt.Sprintf("%s%s与%s%s%s", p1.Name, p1.Stem, p2.Name, p2.Stem, verb)
	}
	branchDesc := func(verb string) string {
		return fmt.Sprintf("%s%s与%s%s%s", p1.Name, p1.Branch, p2.Name, p2.Branch, verb)
	}

	ganHe, ganHeOK := matchLabel(stemCombine, s1, s2, stemLabel, "合")
	if ganHeOK {
		out = append(out, Interaction{StemCombine, ganHe, names, stemDesc("相合"), Favorable})
	}
	ganChong, ganChongOK := matchLabel(stemClash, s1, s2, stemLabel, "冲")
	if ganChongOK {
		out = append(out, Interaction{StemClash, ganChong, names, stemDesc("相冲"), Unfavorable})
	}
	zhiHe, zhiHeOK := matchLabel(sixCombine, b1, b2, branchLabel, "合")
	if zhiHeOK {
		out = append(out, Interaction{SixCombine, zhiHe, names, branchDesc("六合"), Favorable})
	}
	zhiChong, zhiChongOK := matchLabel(sixClash, b1, b2, branchLabel, "冲")
	if zhiChongOK {
		out = append(out, Interaction{SixClash, zhiChong, names, branchDesc("六冲"), Unfavorable})
	}
	if l, ok := matchLabel(harm, b1, b2, branchLabel, "穿"); ok {
		out = append(out, Interaction{Harm, l, names, branchDesc("相害(穿)"), Unfavorable})
	}
	if l, ok := matchLabel(breaks, b1, b2, branchLabel, "破"); ok {
		out = append(out, Interaction{Break, l, names, branchDesc("相破"), Neutral})
	}
	if l, ok := matchLabel(extinguish, b1, b2, branchLabel, "绝"); ok {
		out = append(out, Interaction{Extinguish, l, names, branchDesc("相绝"), Unfavorable})
	}
	if p1.Branch == p2.Branch && selfPunishing[p1.Branch] {
		out = append(out, Interaction{
			SelfPunishment, branchLabel(b1, b2, "自刑"), names,
			fmt.Sprintf("%s与%s %s自刑", p1.Name, p2.Name, p1.Branch), Unfavorable,
		})
	}
	if ganChongOK && zhiChongOK {
		out = append(out, Interaction{
			HeavenEarthClash, fmt.Sprintf("%s%s vs %s%s", p1.Stem, p1.Branch, p2.Stem, p2.Branch), names,
			fmt.Sprintf("%s与%s 天克地冲", p1.Name, p2.Name), Unfavorable,
		})
	}
	if ganHeOK && zhiHeOK {
		out = append(out, Interaction{
			HeavenEarthUnion, fmt.Sprintf("%s%s - %s%s", p1.Stem, p1.Branch, p2.Stem, p2.Branch), names,
			fmt.Sprintf("%s与%s 天合地合", p1.Name, p2.Name), Favorable,
		})
	}
	return out
}

// matchLabel labels a table hit in the table's own order, so the label does
// not depend on which entry came first.
func matchLabel(t pairTable, a, b int, label func(int, int, string) string, suffix string) (string, bool) {
	x, y, ok := t.match(a, b)
	if !ok {
		return "", false
	}
	return label(x, y, suffix), true
}

func grouped(valid []Entry) []Interaction {
	present := make(map[sexagenary.Branch]bool, len(valid))
	for _, e := range valid {
		present[e.Branch] = true
	}

	var out []Interaction
	for _, g := range groups {
		if !present[g.branches[0]] || !present[g.branches[1]] || !present[g.branches[2]] {
			continue
		}
		var names []string
		seen := make(map[string]bool)
		for _, e := range valid {
			if (e.Branch == g.branches[0] || e.Branch == g.branches[1] || e.Branch == g.branches[2]) && !seen[e.Name] {
				seen[e.Name] = true
				names = append(names, e.Name)
			}
		}
		sortNames(names)
		out = append(out, Interaction{
			Kind:        g.kind,
			Label:       g.name,
			Pillars:     names,
			Description: fmt.Sprintf("地支(%s)成%s", strings.Join(names, "+"), g.name),
			Polarity:    g.polarity,
		})
	}

	for _, b := range tombOrder {
		var names []string
		for _, e := range valid {
			if e.Branch == b {
				names = append(names, e.Name)
			}
		}
		if len(names) == 0 {
			continue
		}
		sortNames(names)
		out = append(out, Interaction{
			Kind:        Tomb,
			Label:       fmt.Sprintf("%s(%s)", b, tombNames[b]),
			Pillars:     names,
			Description: fmt.Sprintf("%s 见%s为%s", strings.Join(names, ","), b, tombNames[b]),
			Polarity:    Neutral,
		})
	}
	return out
}

// Dynamic keeps the records that involve a luck, annual, or monthly pillar.
func Dynamic(list []Interaction) []Interaction {
	out := make([]Interaction, 0, len(list))
	for _, i := range list {
		if i.Involves(annotate.Luck.String()) || i.Involves(annotate.Annual.String()) || i.Involves(annotate.Monthly.String()) {
			out = append(out, i)
		}
	}
	return out
}
