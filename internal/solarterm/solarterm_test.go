package solarterm

import (
	"testing"
	"time"

	"bazi/internal/sexagenary"
)

func date(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

func TestDay(t *testing.T) {
	tests := []struct {
		year int
		jie  Jie
		want int
	}{
		{1990, XiaoHan, 5},
		{1990, LiChun, 3},
		{1990, LiXia, 5},
		{1990, MangZhong, 5},
		{2000, LiChun, 3},
	}
	for _, tt := range tests {
		if got := Day(tt.year, tt.jie); got != tt.want {
			t.Errorf("Day(%d, %s) = %d, want %d", tt.year, tt.jie.Name(), got, tt.want)
		}
	}
}

func TestYearTermsOrdered(t *testing.T) {
	for y := 1900; y <= 2099; y++ {
		terms := YearTerms(y)
		if len(terms) != 12 {
			t.Fatalf("YearTerms(%d) len = %d, want 12", y, len(terms))
		}
		for i := 1; i < len(terms); i++ {
			if !terms[i-1].Start.Before(terms[i].Start) {
				t.Fatalf("YearTerms(%d) not chronological at %d", y, i)
			}
		}
	}
}

func TestSexagenaryYearBoundary(t *testing.T) {
	lichun := Start(1990, LiChun)
	if got := SexagenaryYear(lichun.Add(-time.Minute)); got != 1989 {
		t.Errorf("SexagenaryYear(just before 立春) = %d, want 1989", got)
	}
	if got := SexagenaryYear(lichun); got != 1990 {
		t.Errorf("SexagenaryYear(at 立春) = %d, want 1990", got)
	}
}

func TestMonthBranch(t *testing.T) {
	start := Start(1990, LiXia)
	tests := []struct {
		name   string
		at     time.Time
		want   sexagenary.Branch
		wantOK bool
	}{
		{"exactly at term start", start, sexagenary.Si, true},
		{"one second before", start.Add(-time.Second), sexagenary.Chen, true},
		{"mid month", date(1990, time.May, 15, 8, 30), sexagenary.Si, true},
		{"before 小寒", date(1990, time.January, 2, 10, 0), sexagenary.Zi, false},
		{"after 大雪", date(1990, time.December, 20, 10, 0), sexagenary.Zi, true},
		{"after 小寒", date(1990, time.January, 20, 10, 0), sexagenary.Chou, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, ok := MonthBranch(tt.at)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("MonthBranch(%v) = %s, %v; want %s, %v", tt.at, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestBracket(t *testing.T) {
	prev, next := Bracket(date(1990, time.May, 15, 8, 30))
	if prev.Name != "立夏" || !prev.Start.Equal(date(1990, time.May, 5, 12, 0)) {
		t.Errorf("prev = %s %v, want 立夏 1990-05-05 12:00", prev.Name, prev.Start)
	}
	if next.Name != "芒种" || !next.Start.Equal(date(1990, time.June, 5, 12, 0)) {
		t.Errorf("next = %s %v, want 芒种 1990-06-05 12:00", next.Name, next.Start)
	}

	// A moment on a term start has that term as prev.
	at := Start(1990, LiXia)
	prev, _ = Bracket(at)
	if !prev.Start.Equal(at) {
		t.Errorf("Bracket(term start) prev = %v, want %v", prev.Start, at)
	}
}

func TestMonthWindow(t *testing.T) {
	start, end := MonthWindow(1990, sexagenary.Chou)
	if start.Name != "小寒" || start.Start.Year() != 1991 {
		t.Errorf("丑 start = %s %d, want 小寒 1991", start.Name, start.Start.Year())
	}
	if end.Name != "立春" || end.Start.Year() != 1991 {
		t.Errorf("丑 end = %s %d, want 立春 1991", end.Name, end.Start.Year())
	}

	start, end = MonthWindow(1990, sexagenary.Zi)
	if start.Name != "大雪" || start.Start.Year() != 1990 || end.Name != "小寒" || end.Start.Year() != 1991 {
		t.Errorf("子 window = %s %d .. %s %d", start.Name, start.Start.Year(), end.Name, end.Start.Year())
	}

	start, _ = MonthWindow(1990, sexagenary.Yin)
	if start.Name != "立春" || start.Start.Year() != 1990 {
		t.Errorf("寅 start = %s %d, want 立春 1990", start.Name, start.Start.Year())
	}
}

func TestJieForRoundTrip(t *testing.T) {
	for _, b := range sexagenary.Branches() {
		if got := JieFor(b).Branch(); got != b {
			t.Errorf("JieFor(%s).Branch() = %s", b, got)
		}
	}
}

func TestTrueSolarTime(t *testing.T) {
	base := date(2001, time.March, 22, 12, 0) // day 81, sin terms vanish
	tests := []struct {
		longitude float64
		want      time.Duration
	}{
		{120, -452 * time.Second},
		{105, -4052 * time.Second},
	}
	for _, tt := range tests {
		got := TrueSolarTime(base, tt.longitude).Sub(base)
		if got != tt.want {
			t.Errorf("TrueSolarTime(lng %.0f) shift = %v, want %v", tt.longitude, got, tt.want)
		}
	}
}
