package annotate

import (
	"encoding/json"
	"fmt"

	"bazi/internal/sexagenary"
)

// Position identifies where a pillar sits in a chart or overlay.
type Position int

const (
	Year Position = iota
	Month
	Day
	Hour
	Embryo
	LifePalace
	BodyPalace
	Luck
	Annual
	Monthly
)

var positionNames = [...]string{"年", "月", "日", "时", "胎元", "命宫", "身宫", "大运", "流年", "流月"}

// String returns the short Chinese label used in interaction records.
func (p Position) String() string {
	if p < 0 || int(p) >= len(positionNames) {
		return fmt.Sprintf("Position(%d)", int(p))
	}
	return positionNames[p]
}

// MarshalText encodes the position label.
func (p Position) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses a position label.
func (p *Position) UnmarshalText(text []byte) error {
	for i, n := range positionNames {
		if n == string(text) {
			*p = Position(i)
			return nil
		}
	}
	return fmt.Errorf("unknown position %q", string(text))
}

// VoidKind says which reference pillar voids a branch.
type VoidKind string

const (
	VoidNone VoidKind = ""
	VoidYear VoidKind = "年空"
	VoidDay  VoidKind = "日空"
	VoidBoth VoidKind = "双空"
)

// Void describes a pillar's own xun void pair and whether its branch is
// voided by the year or day pillar.
type Void struct {
	Xun  string   `json:"xun"`
	Kind VoidKind `json:"kind,omitempty"`
}

// ChartBranch is a labelled branch of the four main pillars.
type ChartBranch struct {
	Position Position
	Branch   sexagenary.Branch
}

// Context carries the chart-wide references an annotation depends on.
type Context struct {
	DayMaster   sexagenary.Stem
	YearStem    sexagenary.Stem
	YearBranch  sexagenary.Branch
	MonthBranch sexagenary.Branch
	DayBranch   sexagenary.Branch
	YearVoid    [2]sexagenary.Branch
	DayVoid     [2]sexagenary.Branch
	// Branches are the known main-pillar branches used for root analysis.
	Branches []ChartBranch
	Position Position
}

// NewContext builds the reference context from the year and day pillars.
func NewContext(year, day sexagenary.Index, monthBranch sexagenary.Branch, branches []ChartBranch) Context {
	return Context{
		DayMaster:   day.Stem(),
		YearStem:    year.Stem(),
		YearBranch:  year.Branch(),
		MonthBranch: monthBranch,
		DayBranch:   day.Branch(),
		YearVoid:    year.Xun(),
		DayVoid:     day.Xun(),
		Branches:    branches,
	}
}

// At returns a copy of the context for another position.
func (c Context) At(p Position) Context {
	c.Position = p
	return c
}

func (c Context) voidKind(b sexagenary.Branch) VoidKind {
	inYear := c.YearVoid[0] == b || c.YearVoid[1] == b
	inDay := c.DayVoid[0] == b || c.DayVoid[1] == b
	switch {
	case inYear && inDay:
		return VoidBoth
	case inYear:
		return VoidYear
	case inDay:
		return VoidDay
	}
	return VoidNone
}

// Pillar is a fully annotated stem/branch pair. A pillar with Known false
// stands for an hour that was not supplied; its derived fields are empty.
type Pillar struct {
	Position          Position           `json:"position"`
	Known             bool               `json:"known"`
	Stem              sexagenary.Stem    `json:"stem"`
	Branch            sexagenary.Branch  `json:"branch"`
	Element           sexagenary.Element `json:"element"`
	HiddenStems       []sexagenary.Stem  `json:"hiddenStems"`
	TenGod            TenGod             `json:"tenGod"`
	HiddenStemTenGods []TenGod           `json:"hiddenStemTenGods"`
	LifeStage         Stage              `json:"lifeStage"`
	SelfSit           Stage              `json:"selfSit"`
	SoundElement      string             `json:"soundElement"`
	Void              Void               `json:"void"`
	Stars             []Star             `json:"stars"`
	Roots             *RootInfo          `json:"roots,omitempty"`
}

// Unknown returns the unknown variant for a position.
func Unknown(p Position) Pillar {
	return Pillar{Position: p}
}

// Clone returns a copy whose star list can be activated without touching p.
func (p Pillar) Clone() Pillar {
	p.Stars = append([]Star(nil), p.Stars...)
	p.HiddenStems = append([]sexagenary.Stem(nil), p.HiddenStems...)
	p.HiddenStemTenGods = append([]TenGod(nil), p.HiddenStemTenGods...)
	if p.Roots != nil {
		r := *p.Roots
		p.Roots = &r
	}
	return p
}

// Index returns the cycle index of a known pillar.
func (p Pillar) Index() (sexagenary.Index, bool) {
	if !p.Known {
		return 0, false
	}
	return sexagenary.IndexOf(p.Stem, p.Branch)
}

// Label renders the pillar as two glyphs, or "??" when unknown.
func (p Pillar) Label() string {
	if !p.Known {
		return "??"
	}
	return p.Stem.String() + p.Branch.String()
}

type pillarJSON Pillar

type unknownPillarJSON struct {
	Position Position `json:"position"`
	Known    bool     `json:"known"`
}

// MarshalJSON omits every derived field of an unknown pillar.
func (p Pillar) MarshalJSON() ([]byte, error) {
	if !p.Known {
		return json.Marshal(unknownPillarJSON{Position: p.Position})
	}
	return json.Marshal(pillarJSON(p))
}

// UnmarshalJSON accepts both shapes produced by MarshalJSON.
func (p *Pillar) UnmarshalJSON(data []byte) error {
	var probe unknownPillarJSON
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if !probe.Known {
		*p = Unknown(probe.Position)
		return nil
	}
	var full pillarJSON
	if err := json.Unmarshal(data, &full); err != nil {
		return err
	}
	*p = Pillar(full)
	return nil
}

// Annotate derives every attribute of stem/branch under ctx. The pair must
// be a valid sexagenary pair.
func Annotate(stem sexagenary.Stem, branch sexagenary.Branch, ctx Context) Pillar {
	pair, _ := sexagenary.IndexOf(stem, branch)
	hidden := branch.HiddenStems()
	hiddenGods := make([]TenGod, len(hidden))
	for i, h := range hidden {
		hiddenGods[i] = TenGodOf(ctx.DayMaster, h)
	}
	xun := pair.Xun()

	p := Pillar{
		Position:          ctx.Position,
		Known:             true,
		Stem:              stem,
		Branch:            branch,
		Element:           stem.Element(),
		HiddenStems:       hidden,
		TenGod:            TenGodOf(ctx.DayMaster, stem),
		HiddenStemTenGods: hiddenGods,
		LifeStage:         LifeStage(ctx.DayMaster, branch),
		SelfSit:           LifeStage(stem, branch),
		SoundElement:      pair.SoundElement(),
		Void:              Void{Xun: xun[0].String() + xun[1].String(), Kind: ctx.voidKind(branch)},
		Stars:             Stars(stem, branch, ctx),
	}
	if ctx.Position == Day {
		p.TenGod = DayMasterGod
	}
	if ctx.Position <= Hour && ctx.Branches != nil {
		p.Roots = Roots(stem, branch, ctx)
	}
	return p
}

// AnnotateIndex is Annotate for a cycle index.
func AnnotateIndex(i sexagenary.Index, ctx Context) Pillar {
	return Annotate(i.Stem(), i.Branch(), ctx)
}
