package profile

import (
	"bazi/internal/sexagenary"
)

// WellnessGuide collects conditioning tips for the imbalanced elements.
type WellnessGuide struct {
	Diet      []string `json:"diet"`
	Lifestyle []string `json:"lifestyle"`
	Symptoms  []string `json:"symptoms"`
}

// TCMProfile maps the element balance onto a constitution reading.
type TCMProfile struct {
	Constitution  string         `json:"constitution"`
	Excess        []string       `json:"excess"`
	Deficient     []string       `json:"deficient"`
	OrganRisk     []string       `json:"organRisk"`
	Advice        string         `json:"advice"`
	ElementScores map[string]int `json:"elementScores"`
	WellnessGuide WellnessGuide  `json:"wellnessGuide"`
}

var organs = [5]string{"肝胆", "心小肠", "脾胃", "肺大肠", "肾膀胱"}

type guide struct {
	diet, lifestyle, symptom string
}

var excessGuide = [5]guide{
	{"少食酸味，多食辛散之物以疏肝", "保持情绪舒畅，避免暴怒", "易急躁、头胀、胁肋不适"},
	{"少食辛辣燥热，多食苦瓜绿豆等清心之物", "早睡静心，避免熬夜", "易心烦失眠、口舌生疮"},
	{"饮食清淡，少甜腻，多食薏米冬瓜", "坚持运动以化湿", "易身重困倦、腹胀"},
	{"少食辛辣，多食润肺之物如梨百合", "宜舒展胸怀，适度户外运动", "易皮肤干燥、咳嗽"},
	{"少食生冷咸寒，多食温热之物", "注意保暖，避免久处湿寒", "易畏寒水肿、腰膝酸冷"},
}

var deficientGuide = [5]guide{
	{"多食绿色蔬菜与酸味养肝之物", "多亲近自然，早睡护肝", "易疲乏、目涩、筋脉拘紧"},
	{"适当温补，多食红色温性食物", "多晒太阳，适度运动以振奋阳气", "易手脚冰凉、精神不振"},
	{"规律三餐，多食小米山药健脾", "避免过劳与思虑过度", "易食欲不振、乏力气短"},
	{"多食白色润肺之物如银耳山药", "练习深呼吸，注意防寒防燥", "易气短、易感冒"},
	{"多食黑色补肾之物如黑豆黑芝麻", "节制劳欲，保证睡眠", "易腰酸、耳鸣、健忘"},
}

// TCM derives the constitution profile. An element counted three or more
// times is in excess; one that never appears is deficient.
func TCM(c Counts) TCMProfile {
	p := TCMProfile{
		Excess:        []string{},
		Deficient:     []string{},
		OrganRisk:     []string{},
		ElementScores: Scores(c),
		WellnessGuide: WellnessGuide{Diet: []string{}, Lifestyle: []string{}, Symptoms: []string{}},
	}
	excess := make(map[sexagenary.Element]bool)
	deficient := make(map[sexagenary.Element]bool)
	for _, e := range sexagenary.Elements() {
		if c[e] >= 3 {
			excess[e] = true
			p.Excess = append(p.Excess, e.String())
		}
		if c[e] == 0 {
			deficient[e] = true
			p.Deficient = append(p.Deficient, e.String())
		}
	}
	for _, e := range sexagenary.Elements() {
		if excess[e] {
			p.OrganRisk = append(p.OrganRisk, organs[e]+"太过")
			g := excessGuide[e]
			p.WellnessGuide.Diet = append(p.WellnessGuide.Diet, g.diet)
			p.WellnessGuide.Lifestyle = append(p.WellnessGuide.Lifestyle, g.lifestyle)
			p.WellnessGuide.Symptoms = append(p.WellnessGuide.Symptoms, g.symptom)
		}
	}
	for _, e := range sexagenary.Elements() {
		if deficient[e] {
			p.OrganRisk = append(p.OrganRisk, organs[e]+"不及")
			g := deficientGuide[e]
			p.WellnessGuide.Diet = append(p.WellnessGuide.Diet, g.diet)
			p.WellnessGuide.Lifestyle = append(p.WellnessGuide.Lifestyle, g.lifestyle)
			p.WellnessGuide.Symptoms = append(p.WellnessGuide.Symptoms, g.symptom)
		}
	}

	w, f, e, m, wa := sexagenary.Wood, sexagenary.Fire, sexagenary.Earth, sexagenary.Metal, sexagenary.Water
	switch {
	case excess[wa] && deficient[f]:
		p.Constitution, p.Advice = "阳虚质", "阳气不足，畏寒怕冷。宜温补阳气，少食生冷寒凉，注意保暖。"
	case excess[f] && deficient[wa]:
		p.Constitution, p.Advice = "阴虚质", "阴液亏少，口干舌燥。宜滋阴降火，多食甘凉滋润之物，忌辛辣。"
	case excess[f] && excess[e] && (deficient[m] || deficient[wa]):
		p.Constitution, p.Advice = "湿热质", "宜清热利湿，少烟酒，忌辛辣燥热食物。"
	case excess[e]:
		p.Constitution, p.Advice = "痰湿质", "湿浊内蕴，身重易倦。宜健脾利湿，饮食清淡，坚持运动。"
	case deficient[e]:
		p.Constitution, p.Advice = "气虚质", "元气不足，乏力气短。宜益气健脾，规律饮食，避免过劳。"
	case excess[w]:
		p.Constitution, p.Advice = "气郁质", "气机郁滞，神情抑郁。宜疏肝解郁，调节心情，多参加社交活动。"
	default:
		p.Constitution, p.Advice = "平和质", "五行基本平衡，注意饮食起居规律即可。"
	}
	if len(p.OrganRisk) > 0 && p.Constitution == "平和质" {
		p.Constitution, p.Advice = "偏颇质", "五行有偏，建议针对具体脏腑进行调理。"
	}
	return p
}
