package annotate

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"bazi/internal/sexagenary"
)

// sampleContext is the chart 庚午 辛巳 庚辰 庚辰.
func sampleContext() Context {
	year := sexagenary.MustIndex(sexagenary.Geng, sexagenary.Wu)
	day := sexagenary.MustIndex(sexagenary.Geng, sexagenary.Chen)
	return NewContext(year, day, sexagenary.Si, []ChartBranch{
		{Year, sexagenary.Wu},
		{Month, sexagenary.Si},
		{Day, sexagenary.Chen},
		{Hour, sexagenary.Chen},
	})
}

func TestTenGodOf(t *testing.T) {
	tests := []struct {
		dm, target sexagenary.Stem
		want       TenGod
	}{
		{sexagenary.Jia, sexagenary.Jia, BiJian},
		{sexagenary.Jia, sexagenary.Yi, JieCai},
		{sexagenary.Jia, sexagenary.Bing, ShiShen},
		{sexagenary.Jia, sexagenary.Ding, ShangGuan},
		{sexagenary.Jia, sexagenary.Mou, PianCai},
		{sexagenary.Jia, sexagenary.Ji, ZhengCai},
		{sexagenary.Jia, sexagenary.Geng, QiSha},
		{sexagenary.Jia, sexagenary.Xin, ZhengGuan},
		{sexagenary.Jia, sexagenary.Ren, PianYin},
		{sexagenary.Jia, sexagenary.Gui, ZhengYin},
		{sexagenary.Geng, sexagenary.Xin, JieCai},
		{sexagenary.Gui, sexagenary.Bing, ZhengCai},
	}
	for _, tt := range tests {
		if got := TenGodOf(tt.dm, tt.target); got != tt.want {
			t.Errorf("TenGodOf(%s, %s) = %s, want %s", tt.dm, tt.target, got, tt.want)
		}
	}
	if got := BranchTenGod(sexagenary.Jia, sexagenary.Zi); got != ZhengYin {
		t.Errorf("BranchTenGod(甲, 子) = %s, want 正印", got)
	}
}

func TestLifeStage(t *testing.T) {
	tests := []struct {
		stem   sexagenary.Stem
		branch sexagenary.Branch
		want   Stage
	}{
		{sexagenary.Jia, sexagenary.Hai, "长生"},
		{sexagenary.Jia, sexagenary.Wu, "死"},
		{sexagenary.Yi, sexagenary.Wu, "长生"},
		{sexagenary.Yi, sexagenary.Si, "沐浴"},
		{sexagenary.Geng, sexagenary.Si, "长生"},
		{sexagenary.Geng, sexagenary.Chen, "养"},
		{sexagenary.Geng, sexagenary.Shen, "临官"},
		{sexagenary.Gui, sexagenary.Mao, "长生"},
	}
	for _, tt := range tests {
		if got := LifeStage(tt.stem, tt.branch); got != tt.want {
			t.Errorf("LifeStage(%s, %s) = %s, want %s", tt.stem, tt.branch, got, tt.want)
		}
	}
}

func TestTreasuryKind(t *testing.T) {
	tests := []struct {
		dm     sexagenary.Stem
		branch sexagenary.Branch
		want   string
	}{
		{sexagenary.Jia, sexagenary.Chen, "印库"},
		{sexagenary.Jia, sexagenary.Xu, "食伤库"},
		{sexagenary.Jia, sexagenary.Chou, "官库"},
		{sexagenary.Jia, sexagenary.Wei, "比劫库"},
		{sexagenary.Geng, sexagenary.Wei, "财库"},
		{sexagenary.Geng, sexagenary.Zi, ""},
	}
	for _, tt := range tests {
		if got := TreasuryKind(tt.dm, tt.branch); got != tt.want {
			t.Errorf("TreasuryKind(%s, %s) = %q, want %q", tt.dm, tt.branch, got, tt.want)
		}
	}
}

func TestAnnotateMonthPillar(t *testing.T) {
	ctx := sampleContext().At(Month)
	p := Annotate(sexagenary.Xin, sexagenary.Si, ctx)

	if !p.Known {
		t.Fatal("expected a known pillar")
	}
	if p.TenGod != JieCai {
		t.Errorf("TenGod = %s, want 劫财", p.TenGod)
	}
	if diff := cmp.Diff([]TenGod{QiSha, PianYin, BiJian}, p.HiddenStemTenGods); diff != "" {
		t.Errorf("HiddenStemTenGods mismatch (-want +got):\n%s", diff)
	}
	if p.LifeStage != "长生" {
		t.Errorf("LifeStage = %s, want 长生", p.LifeStage)
	}
	if p.SoundElement != "白蜡金" {
		t.Errorf("SoundElement = %s, want 白蜡金", p.SoundElement)
	}
	if diff := cmp.Diff([]string{StarDeath, StarRobbery}, StarNames(p.Stars)); diff != "" {
		t.Errorf("stars mismatch (-want +got):\n%s", diff)
	}
	if p.Roots == nil || p.Roots.Scope != "宾" {
		t.Fatalf("Roots = %+v, want scope 宾", p.Roots)
	}
}

func TestAnnotateDayPillar(t *testing.T) {
	ctx := sampleContext().At(Day)
	p := Annotate(sexagenary.Geng, sexagenary.Chen, ctx)

	if p.TenGod != DayMasterGod {
		t.Errorf("TenGod = %s, want 日主", p.TenGod)
	}
	if p.Void.Xun != "申酉" {
		t.Errorf("Void.Xun = %s, want 申酉", p.Void.Xun)
	}
	want := []string{StarTomb, StarCanopy, StarKuiGang, StarWidow, StarTenEvils}
	if diff := cmp.Diff(want, StarNames(p.Stars)); diff != "" {
		t.Errorf("stars mismatch (-want +got):\n%s", diff)
	}
	if p.Stars[0].Description != "食伤库" {
		t.Errorf("tomb description = %s, want 食伤库", p.Stars[0].Description)
	}
	wantRoots := &RootInfo{
		Scope:       "主",
		Strength:    "实",
		Roots:       []string{"月(巳)"},
		Connections: []string{},
		SpecialGods: []string{},
	}
	if diff := cmp.Diff(wantRoots, p.Roots); diff != "" {
		t.Errorf("roots mismatch (-want +got):\n%s", diff)
	}
}

func TestStarsOrderedByTierAndUnique(t *testing.T) {
	year := sexagenary.MustIndex(sexagenary.Jia, sexagenary.Zi)
	day := sexagenary.MustIndex(sexagenary.Bing, sexagenary.Shen)
	ctx := NewContext(year, day, sexagenary.Yin, nil).At(Hour)

	for _, b := range sexagenary.Branches() {
		stem := sexagenary.MonthStem(sexagenary.Jia, b)
		stars := Stars(stem, b, ctx)
		seen := map[string]bool{}
		lastTier := 0
		for _, s := range stars {
			if seen[s.Name] {
				t.Errorf("branch %s: duplicate star %s", b, s.Name)
			}
			seen[s.Name] = true
			if s.Tier < lastTier {
				t.Errorf("branch %s: star %s tier %d after tier %d", b, s.Name, s.Tier, lastTier)
			}
			lastTier = s.Tier
		}
	}

	// Year 子 and day 申 share a frame, so 酉 must carry a single 桃花.
	stars := Stars(sexagenary.Ji, sexagenary.You, ctx)
	count := 0
	for _, s := range stars {
		if s.Name == StarPeach {
			count++
		}
	}
	if count != 1 {
		t.Errorf("桃花 count = %d, want 1", count)
	}
}

func TestVoidMarker(t *testing.T) {
	ctx := sampleContext().At(Hour)
	p := Annotate(sexagenary.Ding, sexagenary.Hai, ctx)
	if p.Void.Kind != VoidYear {
		t.Errorf("Void.Kind = %q, want 年空", p.Void.Kind)
	}
	var marker *Star
	for i := range p.Stars {
		if p.Stars[i].IsVoidMarker {
			marker = &p.Stars[i]
		}
	}
	if marker == nil || marker.Description != "年空" {
		t.Errorf("void marker = %+v, want description 年空", marker)
	}
}

func TestUnknownPillarJSON(t *testing.T) {
	data, err := json.Marshal(Unknown(Hour))
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(data), `{"position":"时","known":false}`; got != want {
		t.Errorf("json = %s, want %s", got, want)
	}

	var back Pillar
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.Known || back.Position != Hour {
		t.Errorf("round trip = %+v", back)
	}
}

func TestKnownPillarJSON(t *testing.T) {
	p := Annotate(sexagenary.Xin, sexagenary.Si, sampleContext().At(Month))
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	var back Pillar
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(p, back); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
