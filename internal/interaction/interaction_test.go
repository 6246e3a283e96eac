package interaction

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"bazi/internal/annotate"
	"bazi/internal/sexagenary"
)

func entry(name, pair string) Entry {
	i, err := sexagenary.ParsePair(pair)
	if err != nil {
		panic(err)
	}
	return Entry{Name: name, Stem: i.Stem(), Branch: i.Branch(), Known: true}
}

func kinds(list []Interaction) []Kind {
	out := make([]Kind, len(list))
	for i, x := range list {
		out[i] = x.Kind
	}
	return out
}

func TestAnalyzeSampleChart(t *testing.T) {
	got := Analyze([]Entry{
		entry("年", "庚午"),
		entry("月", "辛巳"),
		entry("日", "庚辰"),
		entry("时", "庚辰"),
	})
	want := []Interaction{
		{SelfPunishment, "辰辰自刑", []string{"日", "时"}, "日与时 辰自刑", Unfavorable},
		{Tomb, "辰(水库)", []string{"日", "时"}, "日,时 见辰为水库", Neutral},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Analyze mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyzeClashAndUnion(t *testing.T) {
	clash := Analyze([]Entry{entry("年", "甲子"), entry("日", "庚午")})
	if diff := cmp.Diff([]Kind{StemClash, SixClash, HeavenEarthClash}, kinds(clash)); diff != "" {
		t.Errorf("clash kinds mismatch (-want +got):\n%s", diff)
	}
	if clash[0].Label != "甲庚冲" || clash[1].Label != "子午冲" {
		t.Errorf("labels = %q, %q", clash[0].Label, clash[1].Label)
	}

	union := Analyze([]Entry{entry("月", "己丑"), entry("时", "甲子")})
	if diff := cmp.Diff([]Kind{StemCombine, SixCombine, HeavenEarthUnion, Tomb}, kinds(union)); diff != "" {
		t.Errorf("union kinds mismatch (-want +got):\n%s", diff)
	}
	if union[0].Label != "甲己合" || union[1].Label != "子丑合" {
		t.Errorf("labels = %q, %q", union[0].Label, union[1].Label)
	}
}

func TestAnalyzeSymmetric(t *testing.T) {
	base := []Entry{
		entry("年", "甲子"),
		entry("月", "丙寅"),
		entry("日", "庚午"),
		entry("时", "壬申"),
		entry("大运", "戊辰"),
	}
	want := Analyze(base)
	perms := [][]int{{4, 3, 2, 1, 0}, {2, 0, 4, 1, 3}, {1, 4, 0, 3, 2}}
	for _, perm := range perms {
		shuffled := make([]Entry, len(base))
		for i, j := range perm {
			shuffled[i] = base[j]
		}
		got := Analyze(shuffled)
		opt := cmpopts.SortSlices(func(a, b Interaction) bool {
			if a.Kind != b.Kind {
				return a.Kind < b.Kind
			}
			return a.Label < b.Label
		})
		if diff := cmp.Diff(want, got, opt); diff != "" {
			t.Errorf("perm %v changed results (-want +got):\n%s", perm, diff)
		}
	}
}

func TestAnalyzeSkipsUnknown(t *testing.T) {
	got := Analyze([]Entry{
		entry("年", "甲子"),
		{Name: "时", Known: false},
		entry("日", "庚午"),
	})
	for _, i := range got {
		if i.Involves("时") {
			t.Errorf("unknown pillar appears in %+v", i)
		}
	}
}

func TestAnalyzeGroups(t *testing.T) {
	got := Analyze([]Entry{
		entry("年", "庚申"),
		entry("月", "丙子"),
		entry("日", "甲辰"),
		entry("大运", "戊子"),
	})
	var harmony *Interaction
	for i := range got {
		if got[i].Kind == ThreeHarmony {
			harmony = &got[i]
		}
	}
	if harmony == nil {
		t.Fatal("expected 三合局")
	}
	if diff := cmp.Diff([]string{"年", "月", "日", "大运"}, harmony.Pillars); diff != "" {
		t.Errorf("contributors mismatch (-want +got):\n%s", diff)
	}
	if harmony.Label != "三合水局" || harmony.Description != "地支(年+月+日+大运)成三合水局" {
		t.Errorf("harmony = %+v", harmony)
	}
}

func TestDynamic(t *testing.T) {
	list := Analyze([]Entry{
		entry("年", "甲子"),
		entry("日", "庚午"),
		entry("流年", "甲午"),
	})
	dyn := Dynamic(list)
	if len(dyn) == 0 {
		t.Fatal("expected dynamic interactions")
	}
	for _, i := range dyn {
		if !i.Involves("流年") {
			t.Errorf("Dynamic kept %+v", i)
		}
	}
	if len(dyn) == len(list) {
		t.Error("Dynamic should drop static 年/日 records")
	}
}

func TestActivate(t *testing.T) {
	day := &annotate.Pillar{
		Position: annotate.Day,
		Known:    true,
		Stars: []annotate.Star{
			{Name: annotate.StarVoid, Tier: 1, IsVoidMarker: true},
			{Name: annotate.StarPeach, Tier: 2},
		},
	}
	month := &annotate.Pillar{
		Position: annotate.Month,
		Known:    true,
		Stars:    []annotate.Star{{Name: annotate.StarHorse, Tier: 2}},
	}
	hour := &annotate.Pillar{
		Position: annotate.Hour,
		Known:    true,
		Stars:    []annotate.Star{{Name: annotate.StarVoid, Tier: 1, IsVoidMarker: true}},
	}
	found := []Interaction{
		{Kind: SixClash, Pillars: []string{"日", "大运"}},
		{Kind: Harm, Pillars: []string{"时", "大运"}},
		{Kind: Break, Pillars: []string{"日", "流年"}},
	}
	Activate([]*annotate.Pillar{day, month, hour}, found)

	if !day.Stars[0].Activated || !day.Stars[0].Filled {
		t.Errorf("day void = %+v, want activated and filled", day.Stars[0])
	}
	if day.Stars[1].ActivationNote != "地支六冲、地支相破" {
		t.Errorf("note = %q", day.Stars[1].ActivationNote)
	}
	if month.Stars[0].Activated {
		t.Error("month star should stay inactive")
	}
	if !hour.Stars[0].Activated || hour.Stars[0].Filled {
		t.Errorf("hour void = %+v, want activated but not filled", hour.Stars[0])
	}
}
