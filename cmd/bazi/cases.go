package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bazi/internal/cases"
	"bazi/internal/storage"
)

var (
	caseSaveSpec     specFlags
	caseSaveName     string
	caseSaveProvince string
	caseSaveNotes    string

	caseListQuery  string
	caseListLimit  int
	caseListOffset int

	caseShowChart bool

	caseUpdateName  string
	caseUpdateNotes string
)

var casesCmd = &cobra.Command{
	Use:   "cases",
	Short: "Manage saved cases",
	Long: `Save birth specifications under a name and chart them later.

Examples:
  bazi cases save --name 张三 -d 1990-05-15 -t 08:30 -g male --city 广东/深圳
  bazi cases list --query 张
  bazi cases show <id> --chart
  bazi cases update <id> --notes "复盘 2024"
  bazi cases delete <id>`,
}

var casesSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save a case",
	RunE:  runCasesSave,
}

var casesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved cases, newest first",
	RunE:  runCasesList,
}

var casesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a saved case",
	Args:  cobra.ExactArgs(1),
	RunE:  runCasesShow,
}

var casesUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Rename a case or change its notes",
	Args:  cobra.ExactArgs(1),
	RunE:  runCasesUpdate,
}

var casesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved case",
	Args:  cobra.ExactArgs(1),
	RunE:  runCasesDelete,
}

func init() {
	addSpecFlags(casesSaveCmd, &caseSaveSpec)
	casesSaveCmd.Flags().StringVar(&caseSaveName, "name", "", "Case name (required)")
	casesSaveCmd.Flags().StringVar(&caseSaveProvince, "province", "", "Birth province")
	casesSaveCmd.Flags().StringVar(&caseSaveNotes, "notes", "", "Free-form notes")

	casesListCmd.Flags().StringVar(&caseListQuery, "query", "", "Match name or notes")
	casesListCmd.Flags().IntVar(&caseListLimit, "limit", 50, "Maximum cases to return")
	casesListCmd.Flags().IntVar(&caseListOffset, "offset", 0, "Cases to skip")

	casesShowCmd.Flags().BoolVar(&caseShowChart, "chart", false, "Print the case's chart instead")

	casesUpdateCmd.Flags().StringVar(&caseUpdateName, "name", "", "New name")
	casesUpdateCmd.Flags().StringVar(&caseUpdateNotes, "notes", "", "New notes (empty clears them)")

	casesCmd.AddCommand(casesSaveCmd)
	casesCmd.AddCommand(casesListCmd)
	casesCmd.AddCommand(casesShowCmd)
	casesCmd.AddCommand(casesUpdateCmd)
	casesCmd.AddCommand(casesDeleteCmd)
	rootCmd.AddCommand(casesCmd)
}

// withLibrary runs fn against an open case library.
func withLibrary(fn func(a *app, lib *cases.Library) error) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	lib, closeLib, err := a.openLibrary()
	if err != nil {
		return err
	}
	defer closeLib()
	return fn(a, lib)
}

func runCasesSave(cmd *cobra.Command, args []string) error {
	return withLibrary(func(a *app, lib *cases.Library) error {
		// The city is resolved by the library so it is stored with the case.
		city := caseSaveSpec.city
		caseSaveSpec.city = ""
		spec, err := caseSaveSpec.spec(a.cfg.Location)
		if err != nil {
			return err
		}
		if city != "" && !cmd.Flags().Changed("longitude") {
			spec.Longitude = nil
		}
		c, err := lib.Save(cases.SaveRequest{
			Name:     caseSaveName,
			Spec:     spec,
			Province: caseSaveProvince,
			City:     city,
			Notes:    caseSaveNotes,
		})
		if err != nil {
			return err
		}
		return a.print(c)
	})
}

func runCasesList(cmd *cobra.Command, args []string) error {
	return withLibrary(func(a *app, lib *cases.Library) error {
		res, err := lib.List(storage.CaseFilter{Query: caseListQuery, Limit: caseListLimit, Offset: caseListOffset})
		if err != nil {
			return err
		}
		return a.print(res)
	})
}

func runCasesShow(cmd *cobra.Command, args []string) error {
	return withLibrary(func(a *app, lib *cases.Library) error {
		if caseShowChart {
			_, c, err := lib.CaseChart(args[0])
			if err != nil {
				return err
			}
			return a.print(c)
		}
		c, err := lib.Get(args[0])
		if err != nil {
			return err
		}
		return a.print(c)
	})
}

func runCasesUpdate(cmd *cobra.Command, args []string) error {
	var req cases.UpdateRequest
	if cmd.Flags().Changed("name") {
		req.Name = &caseUpdateName
	}
	if cmd.Flags().Changed("notes") {
		req.Notes = &caseUpdateNotes
	}
	if req.Name == nil && req.Notes == nil {
		return fmt.Errorf("nothing to update: pass --name or --notes")
	}
	return withLibrary(func(a *app, lib *cases.Library) error {
		c, err := lib.Update(args[0], req)
		if err != nil {
			return err
		}
		return a.print(c)
	})
}

func runCasesDelete(cmd *cobra.Command, args []string) error {
	return withLibrary(func(a *app, lib *cases.Library) error {
		if err := lib.Delete(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Deleted case %s\n", args[0])
		return nil
	})
}
