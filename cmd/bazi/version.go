package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bazi/internal/render"
	"bazi/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	RunE: func(cmd *cobra.Command, args []string) error {
		info := version.Current()
		if formatFlag == "" || formatFlag == string(render.Human) {
			fmt.Fprintf(cmd.OutOrStdout(), "bazi %s (commit %s, built %s, %s)\n", info.Version, info.Commit, info.BuildDate, info.GoVersion)
			return nil
		}
		f, err := render.ParseFormat(formatFlag)
		if err != nil {
			return err
		}
		return render.Write(cmd.OutOrStdout(), info, f)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
