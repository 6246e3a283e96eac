package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bazi/internal/errors"
	"bazi/internal/jobs"
)

var (
	jobsLimit  int
	jobsStatus string
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Manage background jobs",
	Long: `List, check status, and manage background reverse searches.

Jobs are queued by 'bazi reverse --async' or POST /jobs/reverse and run by
'bazi serve'.

Examples:
  bazi jobs list
  bazi jobs list --status=running
  bazi jobs status <job-id>
  bazi jobs cancel <job-id>`,
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent background jobs",
	RunE:  runJobsList,
}

var jobsStatusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Get status and result of a job",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsStatus,
}

var jobsCancelCmd = &cobra.Command{
	Use:   "cancel <job-id>",
	Short: "Cancel a queued job",
	Long: `Cancel a job that has not started yet. A running job belongs to the
server process; cancel it with POST /jobs/<id>/cancel.`,
	Args: cobra.ExactArgs(1),
	RunE: runJobsCancel,
}

func init() {
	jobsListCmd.Flags().IntVar(&jobsLimit, "limit", 20, "Maximum jobs to return")
	jobsListCmd.Flags().StringVar(&jobsStatus, "status", "", "Filter by status (queued, running, completed, failed, cancelled)")

	jobsCmd.AddCommand(jobsListCmd)
	jobsCmd.AddCommand(jobsStatusCmd)
	jobsCmd.AddCommand(jobsCancelCmd)
	rootCmd.AddCommand(jobsCmd)
}

func withJobStore(fn func(a *app, store *jobs.Store) error) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	store, err := a.openJobStore()
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(a, store)
}

func getJob(store *jobs.Store, id string) (*jobs.Job, error) {
	job, err := store.GetJob(id)
	if err != nil {
		return nil, errors.New(errors.StorageError, "load job", err)
	}
	if job == nil {
		return nil, errors.Newf(errors.JobNotFound, "job %s not found", id).
			WithDetails(map[string]string{"id": id})
	}
	return job, nil
}

func runJobsList(cmd *cobra.Command, args []string) error {
	return withJobStore(func(a *app, store *jobs.Store) error {
		opts := jobs.ListJobsOptions{Limit: jobsLimit}
		if jobsStatus != "" {
			opts.Status = []jobs.JobStatus{jobs.JobStatus(jobsStatus)}
		}
		resp, err := store.ListJobs(opts)
		if err != nil {
			return errors.New(errors.StorageError, "list jobs", err)
		}
		return a.print(resp)
	})
}

func runJobsStatus(cmd *cobra.Command, args []string) error {
	return withJobStore(func(a *app, store *jobs.Store) error {
		job, err := getJob(store, args[0])
		if err != nil {
			return err
		}
		return a.print(job)
	})
}

func runJobsCancel(cmd *cobra.Command, args []string) error {
	return withJobStore(func(a *app, store *jobs.Store) error {
		job, err := getJob(store, args[0])
		if err != nil {
			return err
		}
		if job.Status != jobs.JobQueued {
			return errors.Newf(errors.JobNotCancellable, "job %s is %s; only queued jobs can be cancelled here", job.ID, job.Status).
				WithDetails(map[string]string{"id": job.ID, "status": string(job.Status)})
		}
		ok, err := store.CancelQueued(job)
		if err != nil {
			return errors.New(errors.StorageError, "cancel job", err)
		}
		if !ok {
			return errors.Newf(errors.JobNotCancellable, "job %s was picked up by a worker", job.ID)
		}
		fmt.Fprintf(a.out, "Cancelled job %s\n", job.ID)
		return nil
	})
}
