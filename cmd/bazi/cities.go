package main

import (
	"strings"

	"github.com/spf13/cobra"

	"bazi/internal/geo"
)

var citiesProvince string

var citiesCmd = &cobra.Command{
	Use:   "cities",
	Short: "List the cities usable with --city",
	Long: `List the built-in catalog of cities and their longitudes. Any of them can
be passed to --city, either bare (深圳) or qualified by province (广东/深圳).`,
	RunE: runCities,
}

func init() {
	citiesCmd.Flags().StringVar(&citiesProvince, "province", "", "Only list one province")
	rootCmd.AddCommand(citiesCmd)
}

func runCities(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	provinces, err := geo.Provinces()
	if err != nil {
		return err
	}
	if citiesProvince != "" {
		var filtered []geo.Province
		for _, p := range provinces {
			if strings.HasPrefix(p.Name, citiesProvince) {
				filtered = append(filtered, p)
			}
		}
		provinces = filtered
	}
	return a.print(provinces)
}
