package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"bazi/internal/api"
	"bazi/internal/config"
	"bazi/internal/jobs"
	"bazi/internal/reverse"
	"bazi/internal/slogutil"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP API server",
	Long: `Start the HTTP API server. It serves charts, overlays, reverse searches
and saved cases, and runs background reverse search jobs.

Edits to the config file's logging.level take effect without a restart.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Address to listen on (default server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	addr := a.cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	lib, closeLib, err := a.openLibrary()
	if err != nil {
		return err
	}
	defer closeLib()

	store, err := a.openJobStore()
	if err != nil {
		return err
	}
	defer store.Close()

	runner := jobs.NewRunner(store, a.logger, jobs.RunnerConfig{
		QueueSize:   a.cfg.Jobs.QueueSize,
		WorkerCount: a.cfg.Jobs.Workers,
		Retention:   time.Duration(a.cfg.Jobs.RetentionDays) * 24 * time.Hour,
	})
	runner.RegisterHandler(jobs.JobTypeReverseSearch, jobs.ReverseSearchHandler(a.logger))
	if err := runner.Start(); err != nil {
		return err
	}

	server := api.NewServer(addr, api.Deps{
		Engine:       a.engine(),
		Library:      lib,
		Runner:       runner,
		ReverseRange: reverse.Range{From: a.cfg.Reverse.FromYear, To: a.cfg.Reverse.ToYear},
		Logger:       a.logger,
	})

	if a.v.ConfigFileUsed() != "" {
		config.Watch(a.v, func(cfg *config.Config) {
			if verbosity > 0 || quiet {
				return
			}
			a.level.Set(slogutil.LevelFromString(cfg.Logging.Level))
			a.logger.Info("Config reloaded", "level", cfg.Logging.Level)
		}, func(err error) {
			a.logger.Warn("Ignoring invalid config edit", "error", err.Error())
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fmt.Fprintf(os.Stderr, "bazi HTTP API listening on http://%s\n", addr)
		return server.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		serverErr := server.Shutdown(shutdownCtx)
		if err := runner.Stop(10 * time.Second); err != nil {
			a.logger.Warn("Job runner did not stop cleanly", "error", err.Error())
		}
		return serverErr
	})

	if err := g.Wait(); err != nil {
		return err
	}
	a.logger.Info("Server stopped gracefully")
	return nil
}
