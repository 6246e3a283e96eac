package main

import (
	"github.com/spf13/cobra"

	"bazi/internal/chart"
)

var (
	chartSpec   specFlags
	chartCaseID string

	interactionsSpec specFlags

	overlaySpec   specFlags
	overlayCaseID string
	overlayDecade int
	overlayYear   int
	overlayMonth  int
)

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Compute a Four Pillars chart",
	Long: `Compute the full chart of a birth: the four pillars plus embryo, life
and body palaces, interactions, luck decades and the element profile.

Examples:
  bazi chart -d 1990-05-15 -t 08:30 -g male
  bazi chart -d 1990-04-21 --lunar -g female --city 广东/深圳
  bazi chart -d 1990-05-15 -g male              # hour unknown
  bazi chart --case 3f2a... --format json`,
	RunE: runChart,
}

var interactionsCmd = &cobra.Command{
	Use:   "interactions",
	Short: "List the interactions among a chart's four pillars",
	Long: `List combinations, clashes, harms, punishments and tombs among the
year, month, day and hour pillars.

Examples:
  bazi interactions -d 1990-05-15 -t 08:30 -g male`,
	RunE: runInteractions,
}

var overlayCmd = &cobra.Command{
	Use:   "overlay",
	Short: "Overlay a luck decade, year and month on a chart",
	Long: `Lay the selected luck decade, annual and monthly pillars over a chart and
show the interactions they form with it. Stars of the chart's pillars that
take part are marked as activated.

Examples:
  bazi overlay -d 1990-05-15 -t 08:30 -g male --decade 0 --year 1999 --month 3
  bazi overlay --case 3f2a... --year 2025`,
	RunE: runOverlay,
}

func init() {
	addSpecFlags(chartCmd, &chartSpec)
	chartCmd.Flags().StringVar(&chartCaseID, "case", "", "Chart a saved case instead")

	addSpecFlags(interactionsCmd, &interactionsSpec)

	addSpecFlags(overlayCmd, &overlaySpec)
	overlayCmd.Flags().StringVar(&overlayCaseID, "case", "", "Overlay on a saved case instead")
	overlayCmd.Flags().IntVar(&overlayDecade, "decade", 0, "Luck decade index, 0 is the first")
	overlayCmd.Flags().IntVar(&overlayYear, "year", 0, "Calendar year of the annual pillar")
	overlayCmd.Flags().IntVar(&overlayMonth, "month", 0, "Month 1 (寅) through 12 (丑) of --year")

	rootCmd.AddCommand(chartCmd)
	rootCmd.AddCommand(interactionsCmd)
	rootCmd.AddCommand(overlayCmd)
}

// loadChart computes the chart named by spec flags or a case id. Charts of
// saved cases go through the snapshot cache.
func (a *app) loadChart(f *specFlags, caseID string) (*chart.Chart, error) {
	if caseID != "" {
		lib, closeLib, err := a.openLibrary()
		if err != nil {
			return nil, err
		}
		defer closeLib()
		_, c, err := lib.CaseChart(caseID)
		return c, err
	}
	spec, err := f.spec(a.cfg.Location)
	if err != nil {
		return nil, err
	}
	return a.engine().ComputeChart(spec)
}

func runChart(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	c, err := a.loadChart(&chartSpec, chartCaseID)
	if err != nil {
		return err
	}
	return a.print(c)
}

func runInteractions(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	c, err := a.loadChart(&interactionsSpec, "")
	if err != nil {
		return err
	}
	return a.print(c.Interactions)
}

func runOverlay(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	c, err := a.loadChart(&overlaySpec, overlayCaseID)
	if err != nil {
		return err
	}

	var sel chart.Selection
	if cmd.Flags().Changed("decade") {
		sel.Decade = &overlayDecade
	}
	if cmd.Flags().Changed("year") {
		sel.Year = &overlayYear
	}
	if cmd.Flags().Changed("month") {
		sel.Month = &overlayMonth
	}
	res, err := chart.Overlay(c, sel)
	if err != nil {
		return err
	}
	return a.print(res)
}
