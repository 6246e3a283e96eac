package profile

import (
	"fmt"

	"bazi/internal/sexagenary"
)

// FiveMovements is the 五运六气 reading of a year pillar.
type FiveMovements struct {
	DaYun       string `json:"daYun"`
	YunQi       string `json:"yunQi"`
	SiTian      string `json:"siTian"`
	ZaiQuan     string `json:"zaiQuan"`
	Description string `json:"description"`
	PlainText   string `json:"plainText"`
}

type movement struct {
	element           sexagenary.Element
	excess, deficient string
}

// movements is keyed by stem mod 5: 甲己 土, 乙庚 金, 丙辛 水, 丁壬 木, 戊癸 火.
var movements = [5]movement{
	{sexagenary.Earth, "土运太过 (雨湿流行)", "土运不及 (风乃大行)"},
	{sexagenary.Metal, "金运太过 (燥气流行)", "金运不及 (炎火乃行)"},
	{sexagenary.Water, "水运太过 (寒气流行)", "水运不及 (湿乃大行)"},
	{sexagenary.Wood, "木运太过 (风气流行)", "木运不及 (燥乃大行)"},
	{sexagenary.Fire, "火运太过 (炎暑流行)", "火运不及 (寒乃大行)"},
}

// siTian is keyed by branch mod 6.
var siTian = [6]string{"少阴君火", "太阴湿土", "少阳相火", "阳明燥金", "太阳寒水", "厥阴风木"}

var zaiQuan = map[string]string{
	"少阴君火": "阳明燥金",
	"太阴湿土": "太阳寒水",
	"少阳相火": "厥阴风木",
	"阳明燥金": "少阴君火",
	"太阳寒水": "太阴湿土",
	"厥阴风木": "少阳相火",
}

// FiveMovementsOf reads the great movement from the year stem and the
// controlling qi from the year branch.
func FiveMovementsOf(year sexagenary.Index) FiveMovements {
	s := year.Stem()
	mv := movements[int(s)%5]
	fm := FiveMovements{YunQi: mv.element.String()}
	strength := "偏旺"
	if s.Polarity() == sexagenary.PolarityYang {
		fm.DaYun = mv.excess
	} else {
		fm.DaYun = mv.deficient
		strength = "偏弱"
	}
	fm.SiTian = siTian[int(year.Branch())%6]
	fm.ZaiQuan = zaiQuan[fm.SiTian]
	fm.Description = fmt.Sprintf("%s，上半年%s司天，下半年%s在泉。", fm.DaYun, fm.SiTian, fm.ZaiQuan)
	fm.PlainText = fmt.Sprintf("这一年%s气主事且%s；上半年气候多受%s影响，下半年转受%s影响。",
		fm.YunQi, strength, fm.SiTian, fm.ZaiQuan)
	return fm
}
