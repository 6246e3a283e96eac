package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bazi/internal/config"
	"bazi/internal/errors"
	"bazi/internal/render"
	"bazi/internal/slogutil"
	"bazi/internal/version"
)

var (
	cfgFile    string
	formatFlag string
	verbosity  int
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "bazi",
	Short: "Four Pillars chart engine",
	Long: `bazi computes Four Pillars (八字) charts from a birth date and time:
pillars with ten gods, hidden stems, life stages and symbolic stars, the
interactions among them, luck decades and annual pillars, and a reverse
search from four pillars back to calendar dates.

Charts can be saved as cases, and everything is also served over HTTP by
'bazi serve'.`,
	Version:       version.Info(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("bazi version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ./"+config.FileName+" or ~/"+config.FileName+")")
	rootCmd.PersistentFlags().StringVar(&formatFlag, "format", "", "Output format: human, json or yaml (default from config)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress all logging")
}

// app is the per-invocation environment shared by every command.
type app struct {
	v      *viper.Viper
	cfg    *config.Config
	level  *slog.LevelVar
	logger *slog.Logger
	closer io.Closer
	format render.Format
	out    io.Writer
}

// loadApp reads the configuration and builds the logger. Explicit -v/-q
// flags win over logging.level.
func loadApp() (*app, error) {
	v := viper.New()
	config.Setup(v, cfgFile)
	if formatFlag != "" {
		v.Set("output.format", formatFlag)
	}
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}

	level := new(slog.LevelVar)
	logger, closer, err := slogutil.FromConfig(cfg.Logging, os.Stderr, level)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	if verbosity > 0 || quiet {
		level.Set(slogutil.LevelFromVerbosity(verbosity, quiet))
	}

	format, err := render.ParseFormat(cfg.Output.Format)
	if err != nil {
		return nil, err
	}
	return &app{v: v, cfg: cfg, level: level, logger: logger, closer: closer, format: format, out: os.Stdout}, nil
}

func (a *app) Close() {
	if a.closer != nil {
		_ = a.closer.Close()
	}
}

func (a *app) print(v interface{}) error {
	return render.Write(a.out, v, a.format)
}

// printError writes err with its code and suggested fixes when it carries
// them.
func printError(w io.Writer, err error) {
	var be *errors.BaziError
	if !stderrors.As(err, &be) {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(w, "Error [%s]: %s\n", be.Code, be.Message)
	if cause := stderrors.Unwrap(be); cause != nil {
		fmt.Fprintf(w, "  cause: %v\n", cause)
	}
	for _, fix := range be.SuggestedFixes {
		switch {
		case fix.Command != "":
			fmt.Fprintf(w, "  → %s  (%s)\n", fix.Command, fix.Description)
		case fix.Description != "":
			fmt.Fprintf(w, "  → %s\n", fix.Description)
		}
	}
}
