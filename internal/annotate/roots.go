package annotate

import (
	"fmt"

	"bazi/internal/sexagenary"
)

// RootInfo is the blind-school reading of a stem's support in the chart.
type RootInfo struct {
	// Scope is 宾 (guest) for year and month, 主 (host) for day and hour.
	Scope string `json:"scope"`
	// Strength is 实 when the stem has at least one root, else 虚.
	Strength    string   `json:"strength"`
	Roots       []string `json:"roots"`
	Connections []string `json:"connections"`
	SpecialGods []string `json:"specialGods"`
}

var rootSets = [5][]sexagenary.Branch{
	sexagenary.Wood:  {sexagenary.Yin, sexagenary.Mao, sexagenary.Hai, sexagenary.Chen, sexagenary.Wei},
	sexagenary.Fire:  {sexagenary.Si, sexagenary.Wu, sexagenary.Yin, sexagenary.Wei, sexagenary.Xu},
	sexagenary.Earth: {sexagenary.Si, sexagenary.Wu, sexagenary.Chen, sexagenary.Xu, sexagenary.Chou, sexagenary.Wei},
	sexagenary.Metal: {sexagenary.Shen, sexagenary.You, sexagenary.Si, sexagenary.Xu, sexagenary.Chou},
	sexagenary.Water: {sexagenary.Hai, sexagenary.Zi, sexagenary.Shen, sexagenary.Chen, sexagenary.Chou},
}

func hasRoot(s sexagenary.Stem, b sexagenary.Branch) bool {
	for _, r := range rootSets[s.Element()] {
		if r == b {
			return true
		}
	}
	return false
}

// Roots analyses where stem finds roots and prosperity connections among the
// chart's known branches.
func Roots(stem sexagenary.Stem, branch sexagenary.Branch, ctx Context) *RootInfo {
	info := &RootInfo{
		Scope:       "主",
		Strength:    "虚",
		Roots:       []string{},
		Connections: []string{},
		SpecialGods: []string{},
	}
	if ctx.Position == Year || ctx.Position == Month {
		info.Scope = "宾"
	}
	lu := luBranch[stem]
	for _, cb := range ctx.Branches {
		label := fmt.Sprintf("%s(%s)", cb.Position, cb.Branch)
		if hasRoot(stem, cb.Branch) {
			info.Roots = append(info.Roots, label)
		}
		if cb.Branch == lu {
			info.Connections = append(info.Connections, label)
		}
	}
	if len(info.Roots) > 0 {
		info.Strength = "实"
	}
	if luBranch[ctx.DayMaster] == branch {
		info.SpecialGods = append(info.SpecialGods, StarLu)
	}
	if bladeBranch[ctx.DayMaster] == branch {
		info.SpecialGods = append(info.SpecialGods, StarBlade)
	}
	return info
}
