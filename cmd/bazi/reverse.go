package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"bazi/internal/chart"
	"bazi/internal/errors"
	"bazi/internal/jobs"
	"bazi/internal/reverse"
)

var (
	reverseFrom     int
	reverseTo       int
	reverseAsync    bool
	reverseProgress bool
)

var reverseCmd = &cobra.Command{
	Use:   "reverse <year> <month> <day> <hour>",
	Short: "Find the dates carrying four given pillars",
	Long: `Search a year range for the calendar dates whose year, month, day and hour
pillars equal the four given ones. Targets whose month stem does not follow
from the year stem, or whose hour stem does not follow from the day stem,
cannot occur and return no dates.

With --async the search is queued in the job store and picked up by a
running 'bazi serve'; follow it with 'bazi jobs status'.

Examples:
  bazi reverse 庚午 辛巳 庚辰 庚辰
  bazi reverse 庚午 辛巳 庚辰 庚辰 --from 1900 --to 2099
  bazi reverse 甲子 丙寅 戊辰 壬子 --async`,
	Args: cobra.ExactArgs(4),
	RunE: runReverse,
}

func init() {
	reverseCmd.Flags().IntVar(&reverseFrom, "from", 0, "First year searched (default reverse.fromYear)")
	reverseCmd.Flags().IntVar(&reverseTo, "to", 0, "Last year searched (default reverse.toYear)")
	reverseCmd.Flags().BoolVar(&reverseAsync, "async", false, "Queue the search as a background job")
	reverseCmd.Flags().BoolVar(&reverseProgress, "progress", false, "Report progress on stderr")
	rootCmd.AddCommand(reverseCmd)
}

func runReverse(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	targets, err := reverse.ParseTargets(args[0], args[1], args[2], args[3])
	if err != nil {
		return errors.New(errors.InvalidPillar, "invalid target pillars", err)
	}
	rng := reverse.Range{From: a.cfg.Reverse.FromYear, To: a.cfg.Reverse.ToYear}
	if cmd.Flags().Changed("from") {
		rng.From = reverseFrom
	}
	if cmd.Flags().Changed("to") {
		rng.To = reverseTo
	}
	if err := chart.ValidateRange(rng); err != nil {
		return err
	}

	if reverseAsync {
		return a.submitReverse(jobs.ReverseScope{Targets: targets, Range: rng})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := reverse.Options{}
	if reverseProgress {
		last := -1
		opts.Progress = func(done, total int) {
			if pct := done * 100 / total; pct != last {
				last = pct
				fmt.Fprintf(os.Stderr, "\rscanning %d-%d: %3d%%", rng.From, rng.To, pct)
			}
		}
	}

	start := time.Now()
	matches, err := chart.ReverseSearch(ctx, targets, rng, opts)
	if reverseProgress {
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		return fmt.Errorf("reverse search interrupted after %d matches: %w", len(matches), err)
	}
	a.logger.Debug("Reverse search finished", "targets", targets.String(), "matches", len(matches))

	return a.print(&jobs.ReverseResult{
		Targets:    targets,
		Range:      rng,
		Matches:    matches,
		Count:      len(matches),
		Consistent: reverse.Consistent(targets),
		Duration:   time.Since(start).String(),
	})
}

func (a *app) submitReverse(scope jobs.ReverseScope) error {
	store, err := a.openJobStore()
	if err != nil {
		return err
	}
	defer store.Close()

	job, err := jobs.NewJob(jobs.JobTypeReverseSearch, scope)
	if err != nil {
		return err
	}
	if err := store.CreateJob(job); err != nil {
		return errors.New(errors.StorageError, "queue job", err)
	}
	a.logger.Info("Reverse search queued", "jobId", job.ID)
	summary := job.ToSummary()
	return a.print(&summary)
}
