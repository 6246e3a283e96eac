// Package jobs runs wide reverse searches in the background. Jobs are
// persisted in their own sqlite file so a CLI can queue work that a running
// server picks up.
package jobs

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of a job.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// terminal states never change again.
var terminal = map[JobStatus]bool{
	JobCompleted: true,
	JobFailed:    true,
	JobCancelled: true,
}

// JobType identifies the kind of work a job performs.
type JobType string

const (
	JobTypeReverseSearch JobType = "reverse_search"
)

// Job is one unit of background work. Scope and Result hold JSON so the
// store stays agnostic of job types.
type Job struct {
	ID   string  `json:"id"`
	Type JobType `json:"type"`
	// Label is a one-line description of the scope, e.g. the target pillars.
	Label       string     `json:"label,omitempty"`
	Scope       string     `json:"scope,omitempty"`
	Status      JobStatus  `json:"status"`
	Progress    int        `json:"progress"`
	Matches     int        `json:"matches"`
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Error       string     `json:"error,omitempty"`
	Result      string     `json:"result,omitempty"`
}

// labeler is implemented by scopes that can describe themselves.
type labeler interface {
	Label() string
}

// matchCounter is implemented by results that carry a match count.
type matchCounter interface {
	MatchCount() int
}

// NewJob creates a queued job for scope.
func NewJob(jobType JobType, scope interface{}) (*Job, error) {
	job := &Job{
		ID:        uuid.NewString(),
		Type:      jobType,
		Status:    JobQueued,
		CreatedAt: now(),
	}
	if scope == nil {
		return job, nil
	}

	data, err := json.Marshal(scope)
	if err != nil {
		return nil, err
	}
	job.Scope = string(data)
	if l, ok := scope.(labeler); ok {
		job.Label = l.Label()
	}
	return job, nil
}

// now is millisecond precision, matching what the store keeps.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// IsTerminal returns true if the job is in a terminal state.
func (j *Job) IsTerminal() bool {
	return terminal[j.Status]
}

// CanCancel returns true if the job can be cancelled.
func (j *Job) CanCancel() bool {
	return !j.IsTerminal()
}

// MarkStarted transitions the job to running state.
func (j *Job) MarkStarted() {
	t := now()
	j.Status = JobRunning
	j.StartedAt = &t
}

func (j *Job) finish(status JobStatus) {
	t := now()
	j.Status = status
	j.CompletedAt = &t
}

// MarkCompleted records the result and its match count.
func (j *Job) MarkCompleted(result interface{}) error {
	if result != nil {
		data, err := json.Marshal(result)
		if err != nil {
			return err
		}
		j.Result = string(data)
		if c, ok := result.(matchCounter); ok {
			j.Matches = c.MatchCount()
		}
	}
	j.Progress = 100
	j.finish(JobCompleted)
	return nil
}

// MarkFailed transitions the job to failed state with error.
func (j *Job) MarkFailed(err error) {
	if err != nil {
		j.Error = err.Error()
	}
	j.finish(JobFailed)
}

// MarkCancelled transitions the job to cancelled state.
func (j *Job) MarkCancelled() {
	j.finish(JobCancelled)
}

// SetProgress updates the job's progress, clamped to 0-100.
func (j *Job) SetProgress(progress int) {
	j.Progress = min(max(progress, 0), 100)
}

// Duration returns how long the job ran, or has been running so far.
func (j *Job) Duration() time.Duration {
	if j.StartedAt == nil {
		return 0
	}
	end := time.Now().UTC()
	if j.CompletedAt != nil {
		end = *j.CompletedAt
	}
	return end.Sub(*j.StartedAt)
}

// JobSummary is the listing view of a job, without scope and result.
type JobSummary struct {
	ID          string     `json:"id"`
	Type        JobType    `json:"type"`
	Label       string     `json:"label,omitempty"`
	Status      JobStatus  `json:"status"`
	Progress    int        `json:"progress"`
	Matches     int        `json:"matches"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// ToSummary creates a summary view of the job.
func (j *Job) ToSummary() JobSummary {
	return JobSummary{
		ID:          j.ID,
		Type:        j.Type,
		Label:       j.Label,
		Status:      j.Status,
		Progress:    j.Progress,
		Matches:     j.Matches,
		CreatedAt:   j.CreatedAt,
		CompletedAt: j.CompletedAt,
		Error:       j.Error,
	}
}

// ListJobsOptions filters a listing. Empty slices match everything.
type ListJobsOptions struct {
	Status []JobStatus
	Type   []JobType
	Limit  int
	Offset int
}

// ListJobsResponse is one page of jobs, newest first.
type ListJobsResponse struct {
	Jobs       []JobSummary `json:"jobs"`
	TotalCount int          `json:"totalCount"`
}
