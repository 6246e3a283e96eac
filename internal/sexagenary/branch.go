package sexagenary

import "fmt"

// Branch is an earthly branch, 子 (0) through 亥 (11).
type Branch int

const (
	Zi Branch = iota
	Chou
	Yin
	Mao
	Chen
	Si
	Wu
	Wei
	Shen
	You
	Xu
	Hai
)

var branchGlyphs = [12]string{"子", "丑", "寅", "卯", "辰", "巳", "午", "未", "申", "酉", "戌", "亥"}

var branchPinyin = [12]string{"zi", "chou", "yin", "mao", "chen", "si", "wu", "wei", "shen", "you", "xu", "hai"}

var branchElements = [12]Element{Water, Earth, Wood, Wood, Earth, Fire, Fire, Earth, Metal, Metal, Earth, Water}

// hiddenStems lists the stems stored in each branch, dominant qi first.
var hiddenStems = [12][]Stem{
	Zi:   {Gui},
	Chou: {Ji, Gui, Xin},
	Yin:  {Jia, Bing, Mou},
	Mao:  {Yi},
	Chen: {Mou, Yi, Gui},
	Si:   {Bing, Mou, Geng},
	Wu:   {Ding, Ji},
	Wei:  {Ji, Ding, Yi},
	Shen: {Geng, Ren, Mou},
	You:  {Xin},
	Xu:   {Mou, Xin, Ding},
	Hai:  {Ren, Jia},
}

// hourWindows labels the two-hour span each branch governs.
var hourWindows = [12]string{
	"23:00-01:00", "01:00-03:00", "03:00-05:00", "05:00-07:00",
	"07:00-09:00", "09:00-11:00", "11:00-13:00", "13:00-15:00",
	"15:00-17:00", "17:00-19:00", "19:00-21:00", "21:00-23:00",
}

// Valid reports whether b is one of the twelve branches.
func (b Branch) Valid() bool { return b >= 0 && b < 12 }

// String returns the branch glyph.
func (b Branch) String() string {
	if !b.Valid() {
		return ""
	}
	return branchGlyphs[b]
}

// Pinyin returns the romanized branch name.
func (b Branch) Pinyin() string {
	if !b.Valid() {
		return ""
	}
	return branchPinyin[b]
}

// Element returns the branch's fixed element.
func (b Branch) Element() Element { return branchElements[b] }

// Polarity follows the branch index parity.
func (b Branch) Polarity() Polarity {
	if b%2 == 0 {
		return PolarityYang
	}
	return PolarityYin
}

// HiddenStems returns a copy of the branch's stored stems, dominant first.
func (b Branch) HiddenStems() []Stem {
	src := hiddenStems[b]
	out := make([]Stem, len(src))
	copy(out, src)
	return out
}

// MainQi is the dominant hidden stem.
func (b Branch) MainQi() Stem { return hiddenStems[b][0] }

// Add steps the branch around the cycle, n may be negative.
func (b Branch) Add(n int) Branch { return Branch(mod(int(b)+n, 12)) }

// HourWindow returns the clock span label, e.g. "07:00-09:00 (辰时)".
func (b Branch) HourWindow() string {
	return fmt.Sprintf("%s (%s时)", hourWindows[b], b)
}

// MarshalText encodes the branch as its glyph.
func (b Branch) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText accepts the glyph or pinyin.
func (b *Branch) UnmarshalText(text []byte) error {
	v, err := ParseBranch(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// ParseBranch resolves a glyph or pinyin name.
func ParseBranch(name string) (Branch, error) {
	for i := range branchGlyphs {
		if branchGlyphs[i] == name || branchPinyin[i] == name {
			return Branch(i), nil
		}
	}
	return 0, fmt.Errorf("unknown branch %q", name)
}

// BranchElement is the lookup exposed to UI callers.
func BranchElement(b Branch) Element { return b.Element() }

// Branches lists all twelve branches in cycle order.
func Branches() []Branch {
	out := make([]Branch, 12)
	for i := range out {
		out[i] = Branch(i)
	}
	return out
}
