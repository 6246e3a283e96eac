package sexagenary

import "fmt"

// Stem is a heavenly stem, 甲 (0) through 癸 (9).
type Stem int

const (
	Jia Stem = iota
	Yi
	Bing
	Ding
	Mou // 戊; Wu is the branch 午
	Ji
	Geng
	Xin
	Ren
	Gui
)

var stemGlyphs = [10]string{"甲", "乙", "丙", "丁", "戊", "己", "庚", "辛", "壬", "癸"}

var stemPinyin = [10]string{"jia", "yi", "bing", "ding", "wu", "ji", "geng", "xin", "ren", "gui"}

// Valid reports whether s is one of the ten stems.
func (s Stem) Valid() bool { return s >= 0 && s < 10 }

// String returns the stem glyph.
func (s Stem) String() string {
	if !s.Valid() {
		return ""
	}
	return stemGlyphs[s]
}

// Pinyin returns the romanized stem name.
func (s Stem) Pinyin() string {
	if !s.Valid() {
		return ""
	}
	return stemPinyin[s]
}

// Element returns the stem's element; stems come in element pairs.
func (s Stem) Element() Element { return Element(s / 2) }

// Polarity returns yang for even-indexed stems.
func (s Stem) Polarity() Polarity {
	if s%2 == 0 {
		return PolarityYang
	}
	return PolarityYin
}

// Add steps the stem around the cycle, n may be negative.
func (s Stem) Add(n int) Stem { return Stem(mod(int(s)+n, 10)) }

// MarshalText encodes the stem as its glyph.
func (s Stem) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts the glyph or pinyin.
func (s *Stem) UnmarshalText(text []byte) error {
	v, err := ParseStem(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseStem resolves a glyph or pinyin name.
func ParseStem(name string) (Stem, error) {
	for i := range stemGlyphs {
		if stemGlyphs[i] == name || stemPinyin[i] == name {
			return Stem(i), nil
		}
	}
	return 0, fmt.Errorf("unknown stem %q", name)
}

// StemElement is the lookup exposed to UI callers.
func StemElement(s Stem) Element { return s.Element() }

// Stems lists all ten stems in cycle order.
func Stems() []Stem {
	out := make([]Stem, 10)
	for i := range out {
		out[i] = Stem(i)
	}
	return out
}

func mod(a, n int) int {
	r := a % n
	if r < 0 {
		r += n
	}
	return r
}
