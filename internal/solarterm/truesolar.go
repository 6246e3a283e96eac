package solarterm

import (
	"math"
	"time"
)

// StandardMeridian is the longitude the civil clock is referenced to (UTC+8).
const StandardMeridian = 120.0

// EquationOfTime returns the apparent-minus-mean solar time difference in
// minutes for a day of the year.
func EquationOfTime(dayOfYear int) float64 {
	b := 2 * math.Pi * float64(dayOfYear-81) / 365
	return 9.87*math.Sin(2*b) - 7.53*math.Cos(b) - 1.5*math.Sin(b)
}

// TrueSolarTime corrects a civil clock reading for longitude and the
// equation of time. Four minutes per degree east of the standard meridian.
func TrueSolarTime(t time.Time, longitude float64) time.Time {
	minutes := (longitude-StandardMeridian)*4 + EquationOfTime(t.YearDay())
	return t.Add(time.Duration(math.Round(minutes*60)) * time.Second)
}
