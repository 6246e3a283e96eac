// Package annotate derives the per-pillar attributes that sit on top of a raw
// stem/branch pair: ten gods, life stages, void, auxiliary stars, tomb
// classification, and root analysis.
package annotate

import "bazi/internal/sexagenary"

// TenGod names the relationship of a stem to the day master.
type TenGod string

const (
	BiJian    TenGod = "比肩"
	JieCai    TenGod = "劫财"
	ShiShen   TenGod = "食神"
	ShangGuan TenGod = "伤官"
	PianCai   TenGod = "偏财"
	ZhengCai  TenGod = "正财"
	QiSha     TenGod = "七杀"
	ZhengGuan TenGod = "正官"
	PianYin   TenGod = "偏印"
	ZhengYin  TenGod = "正印"

	// DayMasterGod labels the day pillar's own stem.
	DayMasterGod TenGod = "日主"
)

// tenGods is indexed by [element distance][different polarity].
var tenGods = [5][2]TenGod{
	{BiJian, JieCai},
	{ShiShen, ShangGuan},
	{PianCai, ZhengCai},
	{QiSha, ZhengGuan},
	{PianYin, ZhengYin},
}

// TenGodOf returns the ten god of target relative to the day master.
func TenGodOf(dayMaster, target sexagenary.Stem) TenGod {
	dist := dayMaster.Element().Distance(target.Element())
	diff := 0
	if dayMaster.Polarity() != target.Polarity() {
		diff = 1
	}
	return tenGods[dist][diff]
}

// BranchTenGod is the ten god of the branch's dominant hidden stem.
func BranchTenGod(dayMaster sexagenary.Stem, b sexagenary.Branch) TenGod {
	return TenGodOf(dayMaster, b.MainQi())
}

// Stage is one of the twelve life-cycle stages.
type Stage string

var stages = [12]Stage{"长生", "沐浴", "冠带", "临官", "帝旺", "衰", "病", "死", "墓", "绝", "胎", "养"}

var stageStart = [10]sexagenary.Branch{
	sexagenary.Hai,  // 甲
	sexagenary.Wu,   // 乙
	sexagenary.Yin,  // 丙
	sexagenary.You,  // 丁
	sexagenary.Yin,  // 戊
	sexagenary.You,  // 己
	sexagenary.Si,   // 庚
	sexagenary.Zi,   // 辛
	sexagenary.Shen, // 壬
	sexagenary.Mao,  // 癸
}

// LifeStage returns the stage of stem s at branch b. Yang stems count
// forward from their birth branch, yin stems backward.
func LifeStage(s sexagenary.Stem, b sexagenary.Branch) Stage {
	start := int(stageStart[s])
	var offset int
	if s.Polarity() == sexagenary.PolarityYang {
		offset = (int(b) - start + 12) % 12
	} else {
		offset = (start - int(b) + 12) % 12
	}
	return stages[offset]
}
