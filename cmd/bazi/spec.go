package main

import (
	"github.com/spf13/cobra"

	"bazi/internal/chart"
	"bazi/internal/config"
	"bazi/internal/errors"
	"bazi/internal/geo"
	"bazi/internal/luck"
)

// specFlags are the birth specification flags shared by chart commands.
type specFlags struct {
	date      string
	clock     string
	gender    string
	lunar     bool
	leap      bool
	longitude float64
	city      string
	noSolar   bool

	cmd *cobra.Command
}

func addSpecFlags(cmd *cobra.Command, f *specFlags) {
	f.cmd = cmd
	fl := cmd.Flags()
	fl.StringVarP(&f.date, "date", "d", "", "Birth date YYYY-MM-DD")
	fl.StringVarP(&f.clock, "time", "t", "", "Birth time HH:MM (omit when unknown)")
	fl.StringVarP(&f.gender, "gender", "g", "", "male or female (男/女)")
	fl.BoolVar(&f.lunar, "lunar", false, "Read --date as a lunar date")
	fl.BoolVar(&f.leap, "leap", false, "The lunar month is the leap month")
	fl.Float64Var(&f.longitude, "longitude", 0, "Birth longitude for true solar time")
	fl.StringVar(&f.city, "city", "", "Birth city for true solar time, e.g. 深圳 or 广东/深圳")
	fl.BoolVar(&f.noSolar, "no-solar-time", false, "Skip true solar time even when configured")
}

// given reports whether any birth flag was set.
func (f *specFlags) given() bool {
	return f.date != ""
}

// spec builds the birth spec. The longitude comes from --longitude, then
// --city, then the configured location when location.useTrueSolarTime is
// set.
func (f *specFlags) spec(loc config.LocationConfig) (chart.BirthSpec, error) {
	if f.date == "" {
		return chart.BirthSpec{}, fieldError("date", "--date is required")
	}
	d, err := chart.ParseDate(f.date)
	if err != nil {
		return chart.BirthSpec{}, fieldError("date", err.Error())
	}
	gender, err := luck.ParseGender(f.gender)
	if err != nil {
		return chart.BirthSpec{}, fieldError("gender", err.Error())
	}

	spec := chart.BirthSpec{Date: d, Gender: gender, Calendar: chart.Solar}
	if f.lunar {
		spec.Calendar = chart.Lunar
		spec.LeapMonth = f.leap
	} else if f.leap {
		return chart.BirthSpec{}, fieldError("leapMonth", "--leap needs --lunar")
	}
	if f.clock != "" {
		c, err := chart.ParseClock(f.clock)
		if err != nil {
			return chart.BirthSpec{}, fieldError("time", err.Error())
		}
		spec.Time = &c
	}

	if f.noSolar {
		return spec, nil
	}
	switch {
	case f.cmd != nil && f.cmd.Flags().Changed("longitude"):
		lng := f.longitude
		spec.Longitude = &lng
	case f.city != "":
		c, err := geo.Lookup(f.city)
		if err != nil {
			return chart.BirthSpec{}, err
		}
		spec.Longitude = &c.Longitude
	case loc.UseTrueSolarTime && loc.City != "":
		c, err := geo.Lookup(loc.City)
		if err != nil {
			return chart.BirthSpec{}, err
		}
		spec.Longitude = &c.Longitude
	case loc.UseTrueSolarTime:
		lng := loc.Longitude
		spec.Longitude = &lng
	}
	return spec, nil
}

func fieldError(field, msg string) error {
	return errors.Newf(errors.InvalidBirthSpec, "%s", msg).
		WithDetails(map[string]string{"field": field})
}
