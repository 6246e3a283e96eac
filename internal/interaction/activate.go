package interaction

import (
	"strings"

	"bazi/internal/annotate"
)

// fillingKinds are the combines, clashes and meetings that fill a void.
var fillingKinds = map[Kind]bool{
	StemCombine:      true,
	SixCombine:       true,
	HeavenEarthUnion: true,
	ThreeHarmony:     true,
	StemClash:        true,
	SixClash:         true,
	HeavenEarthClash: true,
	ThreeMeeting:     true,
}

// Activate marks the stars of every pillar that takes part in found. The
// note lists the fired kinds in detection order. A void marker is also
// flagged filled when a combine, clash or meeting touched its pillar.
func Activate(pillars []*annotate.Pillar, found []Interaction) {
	for _, p := range pillars {
		if p == nil || !p.Known {
			continue
		}
		name := p.Position.String()
		var kinds []string
		seen := make(map[Kind]bool)
		filled := false
		for _, i := range found {
			if !i.Involves(name) {
				continue
			}
			if fillingKinds[i.Kind] {
				filled = true
			}
			if !seen[i.Kind] {
				seen[i.Kind] = true
				kinds = append(kinds, string(i.Kind))
			}
		}
		if len(kinds) == 0 {
			continue
		}
		note := strings.Join(kinds, "、")
		for k := range p.Stars {
			s := &p.Stars[k]
			s.Activated = true
			s.ActivationNote = note
			if s.IsVoidMarker && filled {
				s.Filled = true
			}
		}
	}
}
