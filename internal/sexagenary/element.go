// Package sexagenary implements the stem/branch cycle arithmetic that every
// other part of the chart engine is built on.
//
// Stems (10) and branches (12) combine into the 60-term sexagenary cycle. An
// Index in 0..59 fully determines both halves: stem = i mod 10 and
// branch = i mod 12. Only pairs with equal parity exist; IndexOf rejects the
// other 60 combinations.
//
// All tables in this package are process-wide constants. Nothing here holds
// mutable state.
package sexagenary

import "fmt"

// Element is one of the five phases.
type Element int

const (
	Wood Element = iota
	Fire
	Earth
	Metal
	Water
)

var elementGlyphs = [5]string{"木", "火", "土", "金", "水"}

var elementNames = [5]string{"wood", "fire", "earth", "metal", "water"}

// displayCategories are the color families the UI uses for each element.
var displayCategories = [5]string{"green", "red", "brown", "gold", "blue"}

// String returns the Chinese glyph for the element.
func (e Element) String() string {
	if e < 0 || int(e) >= len(elementGlyphs) {
		return ""
	}
	return elementGlyphs[e]
}

// Name returns the English element name.
func (e Element) Name() string {
	if e < 0 || int(e) >= len(elementNames) {
		return ""
	}
	return elementNames[e]
}

// Generates returns the element this one feeds in the generating cycle.
func (e Element) Generates() Element { return (e + 1) % 5 }

// Controls returns the element this one overcomes in the controlling cycle.
func (e Element) Controls() Element { return (e + 2) % 5 }

// Distance returns how many generating steps lead from e to other, 0..4.
func (e Element) Distance(other Element) int {
	return int((other - e + 5) % 5)
}

// MarshalText encodes the element as its glyph.
func (e Element) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText accepts either the glyph or the English name.
func (e *Element) UnmarshalText(text []byte) error {
	s := string(text)
	for i := range elementGlyphs {
		if elementGlyphs[i] == s || elementNames[i] == s {
			*e = Element(i)
			return nil
		}
	}
	return fmt.Errorf("unknown element %q", s)
}

// Elements lists the five elements in generating order.
func Elements() []Element {
	return []Element{Wood, Fire, Earth, Metal, Water}
}

// DisplayCategory maps an element to the display color family used by UIs.
func DisplayCategory(e Element) string {
	if e < 0 || int(e) >= len(displayCategories) {
		return ""
	}
	return displayCategories[e]
}

// Polarity is yang or yin.
type Polarity int

const (
	PolarityYang Polarity = iota
	PolarityYin
)

// String returns 阳 or 阴.
func (p Polarity) String() string {
	if p == PolarityYang {
		return "阳"
	}
	return "阴"
}

// MarshalText encodes the polarity as its glyph.
func (p Polarity) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses 阳 or 阴.
func (p *Polarity) UnmarshalText(text []byte) error {
	switch string(text) {
	case "阳":
		*p = PolarityYang
	case "阴":
		*p = PolarityYin
	default:
		return fmt.Errorf("unknown polarity %q", string(text))
	}
	return nil
}
