package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bazi/internal/config"
	"bazi/internal/render"
)

var (
	configInitPath  string
	configInitForce bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage bazi configuration",
	Long: `View and create the configuration read from ` + config.FileName + `.

Every key can also be set through the environment, e.g. BAZI_LOGGING_LEVEL=debug
or BAZI_STORAGE_DATADIR=/var/lib/bazi.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default settings",
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE:  runConfigShow,
}

func init() {
	configInitCmd.Flags().StringVar(&configInitPath, "path", config.FileName, "Where to write the file")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if err := config.WriteDefault(configInitPath, configInitForce); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", configInitPath)
	return nil
}

// ConfigShowResponse is the output of config show.
type ConfigShowResponse struct {
	ConfigPath string         `json:"configPath,omitempty"`
	DataDir    string         `json:"dataDir"`
	Config     *config.Config `json:"config"`
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	dir, err := a.cfg.ResolveDataDir()
	if err != nil {
		return err
	}
	resp := &ConfigShowResponse{
		ConfigPath: a.v.ConfigFileUsed(),
		DataDir:    dir,
		Config:     a.cfg,
	}
	if a.format == render.Human {
		// No table layout for config; YAML reads best.
		return render.Write(a.out, resp, render.YAML)
	}
	return a.print(resp)
}
