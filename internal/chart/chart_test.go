package chart

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"bazi/internal/annotate"
	"bazi/internal/errors"
	"bazi/internal/interaction"
	"bazi/internal/luck"
	"bazi/internal/output"
	"bazi/internal/reverse"
	"bazi/internal/sexagenary"
)

type fakeConverter struct {
	solar Date
	err   error
}

func (f fakeConverter) LunarToSolar(year, month, day int, leap bool) (Date, error) {
	return f.solar, f.err
}

func (f fakeConverter) Describe(d Date) (string, error) {
	return fmt.Sprintf("农历 %d", d.Year), nil
}

func sampleSpec() BirthSpec {
	return BirthSpec{
		Date:   Date{1990, 5, 15},
		Time:   &ClockTime{Hour: 8, Minute: 30},
		Gender: luck.Male,
	}
}

func mustChart(t *testing.T, spec BirthSpec) *Chart {
	t.Helper()
	c, err := NewEngine(nil, nil).ComputeChart(spec)
	if err != nil {
		t.Fatalf("ComputeChart() error = %v", err)
	}
	return c
}

func labels(ps ...annotate.Pillar) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Label()
	}
	return out
}

func TestComputeChartScenario(t *testing.T) {
	c := mustChart(t, sampleSpec())

	if diff := cmp.Diff([]string{"庚午", "辛巳", "庚辰", "庚辰"}, labels(c.Pillars()...)); diff != "" {
		t.Errorf("pillars mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"壬申", "甲申", "壬午"}, labels(c.Embryo, c.LifePalace, c.BodyPalace)); diff != "" {
		t.Errorf("derived pillars mismatch (-want +got):\n%s", diff)
	}
	if c.SolarDate != "1990年5月15日 8:30" {
		t.Errorf("SolarDate = %q", c.SolarDate)
	}
	if c.VoidInfo != "年空[戌亥] 日空[申酉]" {
		t.Errorf("VoidInfo = %q", c.VoidInfo)
	}
	if c.DayMaster != sexagenary.Geng || c.Day.TenGod != annotate.DayMasterGod {
		t.Errorf("DayMaster = %s, day TenGod = %s", c.DayMaster, c.Day.TenGod)
	}

	var kinds []interaction.Kind
	for _, i := range c.Interactions {
		kinds = append(kinds, i.Kind)
	}
	if diff := cmp.Diff([]interaction.Kind{interaction.SelfPunishment, interaction.Tomb}, kinds); diff != "" {
		t.Errorf("static interactions mismatch (-want +got):\n%s", diff)
	}

	if !c.Luck.Onset.Forward || c.Luck.Onset.FirstLuckYear != 1997 {
		t.Errorf("onset = %+v, want forward from 1997", c.Luck.Onset)
	}
	if len(c.Luck.Decades) != luck.Decades {
		t.Fatalf("decades = %d, want %d", len(c.Luck.Decades), luck.Decades)
	}
	if first := c.Luck.Decades[0]; first.Stem != sexagenary.Ren || first.Branch != sexagenary.Wu {
		t.Errorf("first decade = %s%s, want 壬午", first.Stem, first.Branch)
	}
	if c.Luck.SmallLuck == nil || c.Luck.SmallLuck.EndYear != 1996 {
		t.Errorf("SmallLuck = %+v, want 1990-1996", c.Luck.SmallLuck)
	}
	if c.Profile.Climate.Status != "燥" {
		t.Errorf("climate = %q, want 燥", c.Profile.Climate.Status)
	}
	for _, star := range c.Year.Stars {
		if star.Activated {
			t.Errorf("static chart star %s should not be activated", star.Name)
		}
	}
}

func TestComputeChartIdempotent(t *testing.T) {
	engine := NewEngine(fakeConverter{}, nil)
	var encoded [][]byte
	for i := 0; i < 3; i++ {
		c, err := engine.ComputeChart(sampleSpec())
		if err != nil {
			t.Fatalf("ComputeChart() error = %v", err)
		}
		b, err := output.DeterministicEncode(c)
		if err != nil {
			t.Fatalf("DeterministicEncode() error = %v", err)
		}
		encoded = append(encoded, b)
	}
	for i := 1; i < len(encoded); i++ {
		if !bytes.Equal(encoded[0], encoded[i]) {
			t.Fatalf("run %d differs from run 0", i)
		}
	}
	if !bytes.Contains(encoded[0], []byte(`"dayMaster":"庚"`)) {
		t.Errorf("encoded chart should carry glyphs, got prefix %s", encoded[0][:120])
	}
}

func TestComputeChartUnknownTime(t *testing.T) {
	spec := sampleSpec()
	spec.Time = nil
	c := mustChart(t, spec)

	if c.TimeKnown || c.Hour.Known || c.LifePalace.Known || c.BodyPalace.Known {
		t.Errorf("hour-dependent pillars should be unknown")
	}
	if !c.Luck.Onset.Approximate {
		t.Error("onset should be flagged approximate")
	}
	if c.Luck.SmallLuck != nil {
		t.Error("small luck needs a known time")
	}
	if !strings.HasSuffix(c.SolarDate, "吉时") {
		t.Errorf("SolarDate = %q", c.SolarDate)
	}
	if diff := cmp.Diff([]string{"庚午", "辛巳", "庚辰", "??"}, labels(c.Pillars()...)); diff != "" {
		t.Errorf("pillars mismatch (-want +got):\n%s", diff)
	}

	b, err := json.Marshal(c)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(b, []byte(`"hour":{"position":"时","known":false}`)) {
		t.Errorf("unknown hour not encoded as the unknown variant")
	}
}

func TestComputeChartTrueSolarTime(t *testing.T) {
	spec := sampleSpec()
	spec.Time = &ClockTime{Hour: 9, Minute: 10}

	plain := mustChart(t, spec)
	if plain.Hour.Label() != "辛巳" {
		t.Errorf("uncorrected hour = %s, want 辛巳", plain.Hour.Label())
	}

	lng := 105.0
	spec.Longitude = &lng
	corrected := mustChart(t, spec)
	if corrected.Hour.Label() != "庚辰" {
		t.Errorf("corrected hour = %s, want 庚辰", corrected.Hour.Label())
	}
	if !strings.HasPrefix(corrected.TrueSolarTime, "1990-05-15 08:") {
		t.Errorf("TrueSolarTime = %q", corrected.TrueSolarTime)
	}
}

func TestComputeChartDirectionInvariant(t *testing.T) {
	for y := 1984; y < 1994; y++ {
		for _, g := range []luck.Gender{luck.Male, luck.Female} {
			c := mustChart(t, BirthSpec{Date: Date{y, 6, 15}, Time: &ClockTime{10, 0}, Gender: g})
			yi, _ := c.Year.Index()
			if got, want := c.Luck.Onset.Forward, luck.Forward(g, yi.Stem()); got != want {
				t.Errorf("%d %s: Forward = %v, want %v", y, g, got, want)
			}
		}
	}
}

func TestComputeChartLunar(t *testing.T) {
	spec := sampleSpec()
	spec.Calendar = Lunar
	spec.Date = Date{1990, 4, 21}

	if _, err := NewEngine(nil, nil).ComputeChart(spec); !errors.Is(err, errors.LunarConversionFailed) {
		t.Errorf("ComputeChart without converter error = %v, want LUNAR_CONVERSION_FAILED", err)
	}

	c, err := NewEngine(fakeConverter{solar: Date{1990, 5, 15}}, nil).ComputeChart(spec)
	if err != nil {
		t.Fatalf("ComputeChart() error = %v", err)
	}
	if c.Day.Label() != "庚辰" {
		t.Errorf("day = %s, want 庚辰", c.Day.Label())
	}
	if c.LunarDate != "农历 1990年4月21日" {
		t.Errorf("LunarDate = %q", c.LunarDate)
	}

	spec.LeapMonth = true
	c, err = NewEngine(fakeConverter{solar: Date{1990, 6, 14}}, nil).ComputeChart(spec)
	if err != nil {
		t.Fatalf("ComputeChart(leap) error = %v", err)
	}
	if c.LunarDate != "农历 1990年闰4月21日" {
		t.Errorf("LunarDate = %q", c.LunarDate)
	}
}

func TestValidate(t *testing.T) {
	lng := 200.0
	tests := []struct {
		name   string
		mutate func(*BirthSpec)
		field  string
	}{
		{"year too early", func(s *BirthSpec) { s.Date.Year = 1850 }, "date"},
		{"month", func(s *BirthSpec) { s.Date.Month = 13 }, "date"},
		{"feb 30", func(s *BirthSpec) { s.Date = Date{1990, 2, 30} }, "date"},
		{"solar leap", func(s *BirthSpec) { s.LeapMonth = true }, "leapMonth"},
		{"lunar day", func(s *BirthSpec) { s.Calendar = Lunar; s.Date.Day = 31 }, "date"},
		{"calendar", func(s *BirthSpec) { s.Calendar = "julian" }, "calendar"},
		{"hour", func(s *BirthSpec) { s.Time = &ClockTime{24, 0} }, "time"},
		{"gender", func(s *BirthSpec) { s.Gender = "" }, "gender"},
		{"longitude", func(s *BirthSpec) { s.Longitude = &lng }, "longitude"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := sampleSpec()
			tt.mutate(&spec)
			err := spec.Validate()
			if !errors.Is(err, errors.InvalidBirthSpec) {
				t.Fatalf("Validate() = %v, want INVALID_BIRTH_SPEC", err)
			}
			be := err.(*errors.BaziError)
			if got := be.Details.(map[string]string)["field"]; got != tt.field {
				t.Errorf("field = %q, want %q", got, tt.field)
			}
		})
	}

	lunar := sampleSpec()
	lunar.Calendar = Lunar
	lunar.Date = Date{1990, 2, 30}
	if err := lunar.Validate(); err != nil {
		t.Errorf("lunar 2-30 should pass range validation, got %v", err)
	}
}

func TestBirthSpecJSON(t *testing.T) {
	var spec BirthSpec
	in := `{"date":"1990-05-15","time":"08:30","gender":"男","longitude":116.4}`
	if err := json.Unmarshal([]byte(in), &spec); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if spec.Date != (Date{1990, 5, 15}) || *spec.Time != (ClockTime{8, 30}) || spec.Gender != luck.Male {
		t.Errorf("spec = %+v", spec)
	}
	if err := json.Unmarshal([]byte(`{"date":"15/05/1990"}`), &spec); err == nil {
		t.Error("Unmarshal() should reject a malformed date")
	}
}

func TestComputeChartGenderAliases(t *testing.T) {
	for _, g := range []luck.Gender{"M", "男", " Male "} {
		spec := sampleSpec()
		spec.Gender = g
		c := mustChart(t, spec)
		if !c.Luck.Onset.Forward {
			t.Errorf("gender %q: 庚 year male should run forward", g)
		}
		if c.Spec.Gender != luck.Male {
			t.Errorf("gender %q stored as %q, want %q", g, c.Spec.Gender, luck.Male)
		}
		a, _ := spec.Fingerprint()
		b, _ := sampleSpec().Fingerprint()
		if a != b {
			t.Errorf("gender %q fingerprint differs from male", g)
		}
	}
}

func TestFingerprint(t *testing.T) {
	a, err := sampleSpec().Fingerprint()
	if err != nil {
		t.Fatal(err)
	}
	explicit := sampleSpec()
	explicit.Calendar = Solar
	b, _ := explicit.Fingerprint()
	if a != b {
		t.Error("default and explicit solar calendars should share a fingerprint")
	}
	other := sampleSpec()
	other.Gender = luck.Female
	c, _ := other.Fingerprint()
	if a == c {
		t.Error("different genders should not share a fingerprint")
	}
	if len(a) != 64 {
		t.Errorf("len(fingerprint) = %d, want 64", len(a))
	}
}

func TestOverlay(t *testing.T) {
	c := mustChart(t, sampleSpec())
	decade, year, month := 0, 1999, 3

	res, err := Overlay(c, Selection{Decade: &decade, Year: &year, Month: &month})
	if err != nil {
		t.Fatalf("Overlay() error = %v", err)
	}
	if diff := cmp.Diff([]string{"壬午", "己卯", "戊辰"}, labels(*res.Luck, *res.Annual, *res.Monthly)); diff != "" {
		t.Errorf("overlay pillars mismatch (-want +got):\n%s", diff)
	}

	foundSelf := false
	for _, i := range res.Interactions {
		if !i.Involves("大运") && !i.Involves("流年") && !i.Involves("流月") {
			t.Errorf("static record %s leaked into the overlay", i.Label)
		}
		if i.Kind == interaction.SelfPunishment && i.Involves("年") && i.Involves("大运") {
			foundSelf = true
		}
	}
	if !foundSelf {
		t.Errorf("expected 午午自刑 between 年 and 大运, got %+v", res.Interactions)
	}

	activated := false
	for _, s := range res.Pillars[0].Stars {
		activated = activated || s.Activated
	}
	if len(res.Pillars[0].Stars) > 0 && !activated {
		t.Error("year pillar stars should be activated")
	}
	for _, s := range c.Year.Stars {
		if s.Activated {
			t.Fatal("Overlay must not modify the chart")
		}
	}
}

func TestOverlayActivatesSelectedPillars(t *testing.T) {
	c := mustChart(t, sampleSpec())
	decade := 0
	year := c.Luck.Decades[0].StartYear

	res, err := Overlay(c, Selection{Decade: &decade, Year: &year})
	if err != nil {
		t.Fatalf("Overlay() error = %v", err)
	}
	if len(res.Luck.Stars) == 0 {
		t.Fatalf("luck pillar %s%s carries no stars", res.Luck.Stem, res.Luck.Branch)
	}
	involved := false
	for _, i := range res.Interactions {
		involved = involved || i.Involves("大运")
	}
	if !involved {
		t.Fatalf("no interaction involves 大运: %+v", res.Interactions)
	}
	for _, s := range res.Luck.Stars {
		if !s.Activated || s.ActivationNote == "" {
			t.Errorf("luck star %s activated = %v, note %q", s.Name, s.Activated, s.ActivationNote)
		}
	}
}

func TestOverlayInvalidSelection(t *testing.T) {
	c := mustChart(t, sampleSpec())
	bad, year, month := 12, 2000, 13
	tests := []struct {
		name string
		sel  Selection
	}{
		{"decade", Selection{Decade: &bad}},
		{"month without year", Selection{Month: &month}},
		{"month", Selection{Year: &year, Month: &month}},
	}
	for _, tt := range tests {
		if _, err := Overlay(c, tt.sel); !errors.Is(err, errors.InvalidSelection) {
			t.Errorf("%s: Overlay() error = %v, want INVALID_SELECTION", tt.name, err)
		}
	}
}

func TestReverseSearchRoundTrip(t *testing.T) {
	c := mustChart(t, sampleSpec())
	yi, _ := c.Year.Index()
	mi, _ := c.Month.Index()
	di, _ := c.Day.Index()
	hi, _ := c.Hour.Index()

	matches, err := ReverseSearch(context.Background(),
		reverse.Targets{Year: yi, Month: mi, Day: di, Hour: hi},
		reverse.Range{From: 1980, To: 2000}, reverse.Options{})
	if err != nil {
		t.Fatalf("ReverseSearch() error = %v", err)
	}
	found := false
	for _, m := range matches {
		found = found || m.Date() == "1990-05-15"
	}
	if !found {
		t.Errorf("matches = %+v, want 1990-05-15", matches)
	}

	if _, err := ReverseSearch(context.Background(), reverse.Targets{}, reverse.Range{From: 2000, To: 1990}, reverse.Options{}); !errors.Is(err, errors.InvalidRange) {
		t.Errorf("empty range error = %v, want INVALID_RANGE", err)
	}
	if _, err := ReverseSearch(context.Background(), reverse.Targets{}, reverse.Range{From: 1800, To: 1990}, reverse.Options{}); !errors.Is(err, errors.InvalidRange) {
		t.Errorf("out of range error = %v, want INVALID_RANGE", err)
	}
}
