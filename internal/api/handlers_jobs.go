package api

import (
	"net/http"

	"bazi/internal/errors"
	"bazi/internal/jobs"
)

// JobResponse is a job with its result decoded.
type JobResponse struct {
	*jobs.Job
	Result *jobs.ReverseResult `json:"result,omitempty"`
}

func (s *Server) runner(w http.ResponseWriter) (*jobs.Runner, bool) {
	if s.deps.Runner == nil {
		WriteBaziError(w, errors.Newf(errors.StorageError, "background jobs are not configured"))
		return nil, false
	}
	return s.deps.Runner, true
}

// handleSubmitReverse handles POST /jobs/reverse
func (s *Server) handleSubmitReverse(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowed(w, http.MethodPost)
		return
	}
	runner, ok := s.runner(w)
	if !ok {
		return
	}

	var req ReverseRequest
	if err := decodeJSON(r, &req, errors.InvalidRequest); err != nil {
		WriteBaziError(w, err)
		return
	}
	scope, err := req.scope(s.deps.ReverseRange)
	if err != nil {
		WriteBaziError(w, err)
		return
	}

	job, err := jobs.NewJob(jobs.JobTypeReverseSearch, scope)
	if err != nil {
		InternalError(w, "create job", err)
		return
	}
	if err := runner.Submit(job); err != nil {
		WriteBaziError(w, err)
		return
	}
	WriteJSON(w, job.ToSummary(), http.StatusAccepted)
}

// handleListJobs handles GET /jobs?status=queued,running&limit=20&offset=0
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowed(w, http.MethodGet)
		return
	}
	runner, ok := s.runner(w)
	if !ok {
		return
	}

	opts := jobs.ListJobsOptions{}
	for _, st := range QueryParamList(r, "status") {
		opts.Status = append(opts.Status, jobs.JobStatus(st))
	}
	for _, t := range QueryParamList(r, "type") {
		opts.Type = append(opts.Type, jobs.JobType(t))
	}
	var err error
	if opts.Limit, err = QueryParamInt(r, "limit", 50); err != nil {
		BadRequest(w, errors.InvalidRequest, err.Error())
		return
	}
	if opts.Offset, err = QueryParamInt(r, "offset", 0); err != nil {
		BadRequest(w, errors.InvalidRequest, err.Error())
		return
	}

	resp, err := runner.ListJobs(opts)
	if err != nil {
		WriteBaziError(w, err)
		return
	}
	WriteJSON(w, resp, http.StatusOK)
}

// handleJobRoutes handles /jobs/:id routes
func (s *Server) handleJobRoutes(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r, "/jobs/")
	switch {
	case len(parts) == 1:
		s.handleGetJobStatus(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "cancel":
		s.handleCancelJob(w, r, parts[0])
	default:
		http.NotFound(w, r)
	}
}

// handleGetJobStatus handles GET /jobs/:id
func (s *Server) handleGetJobStatus(w http.ResponseWriter, r *http.Request, jobID string) {
	if r.Method != http.MethodGet {
		MethodNotAllowed(w, http.MethodGet)
		return
	}
	runner, ok := s.runner(w)
	if !ok {
		return
	}

	job, err := runner.GetJob(jobID)
	if err != nil {
		WriteBaziError(w, err)
		return
	}
	result, err := jobs.ParseReverseResult(job.Result)
	if err != nil {
		InternalError(w, "decode job result", err)
		return
	}
	job.Result = ""
	WriteJSON(w, JobResponse{Job: job, Result: result}, http.StatusOK)
}

// handleCancelJob handles POST /jobs/:id/cancel
func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request, jobID string) {
	if r.Method != http.MethodPost {
		MethodNotAllowed(w, http.MethodPost)
		return
	}
	runner, ok := s.runner(w)
	if !ok {
		return
	}

	job, err := runner.Cancel(jobID)
	if err != nil {
		WriteBaziError(w, err)
		return
	}
	WriteJSON(w, map[string]interface{}{
		"jobId":  job.ID,
		"status": "cancelling",
	}, http.StatusAccepted)
}
