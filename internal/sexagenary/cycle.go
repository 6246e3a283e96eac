package sexagenary

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// Index is a position in the 60-term cycle, 0 = 甲子.
type Index int

// Stem returns i mod 10.
func (i Index) Stem() Stem { return Stem(mod(int(i), 10)) }

// Branch returns i mod 12.
func (i Index) Branch() Branch { return Branch(mod(int(i), 12)) }

// Add steps around the cycle, n may be negative.
func (i Index) Add(n int) Index { return Index(mod(int(i)+n, 60)) }

// String renders the pair, e.g. "甲子".
func (i Index) String() string { return i.Stem().String() + i.Branch().String() }

// SoundElement returns the Na Yin name of the pair.
func (i Index) SoundElement() string { return naYin[mod(int(i), 60)/2] }

// Xun returns the two branches left uncovered by the decade this pair belongs to.
func (i Index) Xun() [2]Branch {
	diff := mod(int(i.Branch())-int(i.Stem()), 12)
	// diff is always even; the void pair sits just below the decade's first branch.
	return [2]Branch{Branch(mod(diff-2, 12)), Branch(mod(diff-1, 12))}
}

// MarshalText encodes the pair as two glyphs.
func (i Index) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText accepts a two-glyph pair.
func (i *Index) UnmarshalText(text []byte) error {
	v, err := ParsePair(string(text))
	if err != nil {
		return err
	}
	*i = v
	return nil
}

// IndexOf maps a stem/branch pair to its cycle index. It returns false for
// the 60 pairs whose stem and branch parities differ.
func IndexOf(s Stem, b Branch) (Index, bool) {
	if !s.Valid() || !b.Valid() || int(s)%2 != int(b)%2 {
		return 0, false
	}
	return Index(mod(6*int(s)-5*int(b), 60)), true
}

// MustIndex is IndexOf for pairs known to be valid at compile time.
func MustIndex(s Stem, b Branch) Index {
	i, ok := IndexOf(s, b)
	if !ok {
		panic(fmt.Sprintf("sexagenary: invalid pair %s%s", s, b))
	}
	return i
}

// ParsePair parses "甲子" style text.
func ParsePair(text string) (Index, error) {
	if utf8.RuneCountInString(text) != 2 {
		return 0, fmt.Errorf("pair %q must be exactly one stem and one branch", text)
	}
	r, size := utf8.DecodeRuneInString(text)
	s, err := ParseStem(string(r))
	if err != nil {
		return 0, err
	}
	b, err := ParseBranch(text[size:])
	if err != nil {
		return 0, err
	}
	i, ok := IndexOf(s, b)
	if !ok {
		return 0, fmt.Errorf("%s%s is not a sexagenary pair", s, b)
	}
	return i, nil
}

// YearIndex returns the pair for a sexagenary year number; 1984 is 甲子.
func YearIndex(sexYear int) Index {
	return Index(mod(sexYear-1984, 60))
}

var dayEpoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// 2000-01-01 is 戊午.
const dayEpochIndex = 54

// DayIndex returns the day pair for a calendar date. Only the date matters;
// the day does not roll over at 23:00.
func DayIndex(year int, month time.Month, day int) Index {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	// Both instants are UTC midnights, so the difference is a whole number of days.
	days := (d.Unix() - dayEpoch.Unix()) / 86400
	return Index(mod(dayEpochIndex+int(days%60), 60))
}

// naYin holds the sound element for each consecutive pair of cycle indices.
var naYin = [30]string{
	"海中金", "炉中火", "大林木", "路旁土", "剑锋金", "山头火",
	"涧下水", "城头土", "白蜡金", "杨柳木", "泉中水", "屋上土",
	"霹雳火", "松柏木", "长流水", "沙中金", "山下火", "平地木",
	"壁上土", "金箔金", "覆灯火", "天河水", "大驿土", "钗钏金",
	"桑柘木", "大溪水", "沙中土", "天上火", "石榴木", "大海水",
}
