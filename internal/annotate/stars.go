package annotate

import (
	"bazi/internal/sexagenary"
)

// StarPolarity classifies an auxiliary star.
type StarPolarity string

const (
	Auspicious   StarPolarity = "吉"
	Inauspicious StarPolarity = "凶"
	Neutral      StarPolarity = "平"
)

// Star is an auxiliary star (神煞) attached to a pillar.
type Star struct {
	Name           string       `json:"name"`
	Polarity       StarPolarity `json:"polarity"`
	Tier           int          `json:"tier"`
	Description    string       `json:"description,omitempty"`
	Activated      bool         `json:"activated,omitempty"`
	ActivationNote string       `json:"activationNote,omitempty"`
	IsVoidMarker   bool         `json:"isVoidMarker,omitempty"`
	Filled         bool         `json:"filled,omitempty"`
}

// Star names.
const (
	StarLu         = "禄神"
	StarBlade      = "羊刃"
	StarVoid       = "空亡"
	StarTomb       = "墓库"
	StarNobleman   = "天乙贵人"
	StarScholar    = "文昌"
	StarPeach      = "桃花"
	StarHorse      = "驿马"
	StarCanopy     = "华盖"
	StarKuiGang    = "魁罡"
	StarYinYangErr = "阴差阳错"
	StarGoldCart   = "金舆"
	StarGeneral    = "将星"
	StarRobbery    = "劫煞"
	StarDisaster   = "灾煞"
	StarDeath      = "亡神"
	StarLonely     = "孤辰"
	StarWidow      = "寡宿"
	StarRedPhoenix = "红鸾"
	StarJoy        = "天喜"
	StarTenEvils   = "十恶大败"
)

// luBranch is the 禄 (prosperity) branch of each stem.
var luBranch = [10]sexagenary.Branch{
	sexagenary.Yin, sexagenary.Mao, sexagenary.Si, sexagenary.Wu, sexagenary.Si,
	sexagenary.Wu, sexagenary.Shen, sexagenary.You, sexagenary.Hai, sexagenary.Zi,
}

// bladeBranch is the 羊刃 branch of each stem.
var bladeBranch = [10]sexagenary.Branch{
	sexagenary.Mao, sexagenary.Chen, sexagenary.Wu, sexagenary.Wei, sexagenary.Wu,
	sexagenary.Wei, sexagenary.You, sexagenary.Xu, sexagenary.Zi, sexagenary.Chou,
}

// LuBranch returns the prosperity branch of a stem.
func LuBranch(s sexagenary.Stem) sexagenary.Branch { return luBranch[s] }

// BladeBranch returns the blade branch of a stem.
func BladeBranch(s sexagenary.Stem) sexagenary.Branch { return bladeBranch[s] }

var noblemanBranches = [10][2]sexagenary.Branch{
	{sexagenary.Chou, sexagenary.Wei}, // 甲
	{sexagenary.Zi, sexagenary.Shen},  // 乙
	{sexagenary.Hai, sexagenary.You},  // 丙
	{sexagenary.Hai, sexagenary.You},  // 丁
	{sexagenary.Chou, sexagenary.Wei}, // 戊
	{sexagenary.Zi, sexagenary.Shen},  // 己
	{sexagenary.Chou, sexagenary.Wei}, // 庚
	{sexagenary.Wu, sexagenary.Yin},   // 辛
	{sexagenary.Si, sexagenary.Mao},   // 壬
	{sexagenary.Si, sexagenary.Mao},   // 癸
}

var scholarBranch = [10]sexagenary.Branch{
	sexagenary.Si, sexagenary.Wu, sexagenary.Shen, sexagenary.You, sexagenary.Shen,
	sexagenary.You, sexagenary.Hai, sexagenary.Zi, sexagenary.Yin, sexagenary.Mao,
}

var goldCartBranch = [10]sexagenary.Branch{
	sexagenary.Chen, sexagenary.Si, sexagenary.Wei, sexagenary.Shen, sexagenary.Wei,
	sexagenary.Shen, sexagenary.Xu, sexagenary.Hai, sexagenary.Chou, sexagenary.Yin,
}

// frameStars holds the triplet-keyed stars. The frame of a reference branch
// is b mod 4: 0 申子辰, 1 巳酉丑, 2 寅午戌, 3 亥卯未.
type frameRow struct {
	peach, horse, canopy, general, robbery, disaster, death sexagenary.Branch
}

var frameStars = [4]frameRow{
	{sexagenary.You, sexagenary.Yin, sexagenary.Chen, sexagenary.Zi, sexagenary.Si, sexagenary.Wu, sexagenary.Hai},
	{sexagenary.Wu, sexagenary.Hai, sexagenary.Chou, sexagenary.You, sexagenary.Yin, sexagenary.Mao, sexagenary.Shen},
	{sexagenary.Mao, sexagenary.Shen, sexagenary.Xu, sexagenary.Wu, sexagenary.Hai, sexagenary.Zi, sexagenary.Si},
	{sexagenary.Zi, sexagenary.Si, sexagenary.Wei, sexagenary.Mao, sexagenary.Shen, sexagenary.You, sexagenary.Yin},
}

// lonely/widow by the season of the year branch, keyed by (b+1)/3 mod 4:
// 0 亥子丑, 1 寅卯辰, 2 巳午未, 3 申酉戌.
var lonelyWidow = [4][2]sexagenary.Branch{
	{sexagenary.Yin, sexagenary.Xu},
	{sexagenary.Si, sexagenary.Chou},
	{sexagenary.Shen, sexagenary.Chen},
	{sexagenary.Hai, sexagenary.Wei},
}

var kuiGangDays = pairSet("庚辰", "庚戌", "壬辰", "戊戌")

var yinYangErrDays = pairSet(
	"丙子", "丁丑", "戊寅", "辛卯", "壬辰", "癸巳",
	"丙午", "丁未", "戊申", "辛酉", "壬戌", "癸亥",
)

var tenEvilsDays = pairSet(
	"甲辰", "乙巳", "丙申", "丁亥", "戊戌",
	"己丑", "庚辰", "辛巳", "壬申", "癸亥",
)

func pairSet(pairs ...string) map[sexagenary.Index]bool {
	m := make(map[sexagenary.Index]bool, len(pairs))
	for _, p := range pairs {
		i, err := sexagenary.ParsePair(p)
		if err != nil {
			panic(err)
		}
		m[i] = true
	}
	return m
}

// graveElement is the element stored in each of the four grave branches.
var graveElement = map[sexagenary.Branch]sexagenary.Element{
	sexagenary.Chen: sexagenary.Water,
	sexagenary.Xu:   sexagenary.Fire,
	sexagenary.Chou: sexagenary.Metal,
	sexagenary.Wei:  sexagenary.Wood,
}

// GraveElement reports the element stored in b, if b is a grave branch.
func GraveElement(b sexagenary.Branch) (sexagenary.Element, bool) {
	e, ok := graveElement[b]
	return e, ok
}

// TreasuryKind classifies a grave branch relative to the day master.
func TreasuryKind(dayMaster sexagenary.Stem, b sexagenary.Branch) string {
	stored, ok := graveElement[b]
	if !ok {
		return ""
	}
	dm := dayMaster.Element()
	switch {
	case dm == stored:
		return "比劫库"
	case dm.Generates() == stored:
		return "食伤库"
	case dm.Controls() == stored:
		return "财库"
	case stored.Controls() == dm:
		return "官库"
	default:
		return "印库"
	}
}

type starList struct {
	stars []Star
	seen  map[string]bool
}

func (l *starList) add(s Star) {
	if l.seen == nil {
		l.seen = make(map[string]bool)
	}
	if l.seen[s.Name] {
		return
	}
	l.seen[s.Name] = true
	l.stars = append(l.stars, s)
}

// Stars places the auxiliary stars for a pillar. The result is ordered by
// tier and holds each name at most once.
func Stars(stem sexagenary.Stem, branch sexagenary.Branch, ctx Context) []Star {
	var l starList
	dm := ctx.DayMaster

	// Tier 1.
	if luBranch[dm] == branch {
		l.add(Star{Name: StarLu, Polarity: Auspicious, Tier: 1})
	}
	if bladeBranch[dm] == branch {
		l.add(Star{Name: StarBlade, Polarity: Inauspicious, Tier: 1})
	}
	if kind := ctx.voidKind(branch); kind != VoidNone {
		l.add(Star{Name: StarVoid, Polarity: Neutral, Tier: 1, Description: string(kind), IsVoidMarker: true})
	}
	if kind := TreasuryKind(dm, branch); kind != "" {
		l.add(Star{Name: StarTomb, Polarity: Neutral, Tier: 1, Description: kind})
	}

	// Tier 2.
	for _, ref := range []sexagenary.Stem{dm, ctx.YearStem} {
		nb := noblemanBranches[ref]
		if branch == nb[0] || branch == nb[1] {
			l.add(Star{Name: StarNobleman, Polarity: Auspicious, Tier: 2})
		}
	}
	if scholarBranch[dm] == branch {
		l.add(Star{Name: StarScholar, Polarity: Auspicious, Tier: 2})
	}
	refs := []sexagenary.Branch{ctx.YearBranch, ctx.DayBranch}
	for _, ref := range refs {
		if frameStars[ref%4].peach == branch {
			l.add(Star{Name: StarPeach, Polarity: Neutral, Tier: 2})
		}
	}
	for _, ref := range refs {
		if frameStars[ref%4].horse == branch {
			l.add(Star{Name: StarHorse, Polarity: Neutral, Tier: 2})
		}
	}
	for _, ref := range refs {
		if frameStars[ref%4].canopy == branch {
			l.add(Star{Name: StarCanopy, Polarity: Neutral, Tier: 2})
		}
	}
	pair, _ := sexagenary.IndexOf(stem, branch)
	if ctx.Position == Day && kuiGangDays[pair] {
		l.add(Star{Name: StarKuiGang, Polarity: Neutral, Tier: 2})
	}
	if ctx.Position == Day && yinYangErrDays[pair] {
		l.add(Star{Name: StarYinYangErr, Polarity: Inauspicious, Tier: 2})
	}
	if goldCartBranch[dm] == branch {
		l.add(Star{Name: StarGoldCart, Polarity: Auspicious, Tier: 2})
	}

	// Tier 3.
	for _, ref := range refs {
		row := frameStars[ref%4]
		if row.general == branch {
			l.add(Star{Name: StarGeneral, Polarity: Auspicious, Tier: 3})
		}
		if row.robbery == branch {
			l.add(Star{Name: StarRobbery, Polarity: Inauspicious, Tier: 3})
		}
		if row.disaster == branch {
			l.add(Star{Name: StarDisaster, Polarity: Inauspicious, Tier: 3})
		}
		if row.death == branch {
			l.add(Star{Name: StarDeath, Polarity: Inauspicious, Tier: 3})
		}
	}
	season := lonelyWidow[((int(ctx.YearBranch)+1)/3)%4]
	if season[0] == branch {
		l.add(Star{Name: StarLonely, Polarity: Inauspicious, Tier: 3})
	}
	if season[1] == branch {
		l.add(Star{Name: StarWidow, Polarity: Inauspicious, Tier: 3})
	}
	redPhoenix := sexagenary.Branch((3 - int(ctx.YearBranch) + 12) % 12)
	if redPhoenix == branch {
		l.add(Star{Name: StarRedPhoenix, Polarity: Auspicious, Tier: 3})
	}
	if redPhoenix.Add(6) == branch {
		l.add(Star{Name: StarJoy, Polarity: Auspicious, Tier: 3})
	}
	if ctx.Position == Day && tenEvilsDays[pair] {
		l.add(Star{Name: StarTenEvils, Polarity: Inauspicious, Tier: 3})
	}

	return l.stars
}

// StarNames flattens a star list to names.
func StarNames(stars []Star) []string {
	names := make([]string, len(stars))
	for i, s := range stars {
		names[i] = s.Name
	}
	return names
}
