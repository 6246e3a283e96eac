package output

import (
	"math"
	"strconv"
	"strings"
)

// RoundFloat rounds a float to max 6 decimal places
func RoundFloat(f float64) float64 {
	multiplier := math.Pow(10, 6)
	return math.Round(f*multiplier) / multiplier
}

// FormatFloat formats a float with no trailing zeros
func FormatFloat(f float64) string {
	str := strconv.FormatFloat(RoundFloat(f), 'f', 6, 64)
	str = strings.TrimRight(str, "0")
	return strings.TrimRight(str, ".")
}

// FormatLongitude renders a longitude as degrees east or west, e.g. 116.4°E.
func FormatLongitude(lng float64) string {
	hemi := "E"
	if lng < 0 {
		hemi = "W"
		lng = -lng
	}
	return FormatFloat(lng) + "°" + hemi
}
