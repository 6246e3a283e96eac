package api

import (
	"net/http"
	"time"

	"bazi/internal/annotate"
	"bazi/internal/chart"
	"bazi/internal/errors"
	"bazi/internal/geo"
	"bazi/internal/interaction"
	"bazi/internal/jobs"
	"bazi/internal/reverse"
)

// ChartRequest is a birth spec plus an optional catalog city that supplies
// the longitude when the spec has none.
type ChartRequest struct {
	chart.BirthSpec
	City string `json:"city,omitempty"`
}

// InteractionsResponse lists the interactions among a chart's main pillars.
type InteractionsResponse struct {
	Pillars      []annotate.Pillar         `json:"pillars"`
	Interactions []interaction.Interaction `json:"interactions"`
}

// OverlayRequest names a chart by spec or by saved case id.
type OverlayRequest struct {
	Spec      *chart.BirthSpec `json:"spec,omitempty"`
	City      string           `json:"city,omitempty"`
	CaseID    string           `json:"caseId,omitempty"`
	Selection chart.Selection  `json:"selection"`
}

// ReverseRequest holds four pillars as "甲子" text and an optional range.
type ReverseRequest struct {
	Year  string         `json:"year"`
	Month string         `json:"month"`
	Day   string         `json:"day"`
	Hour  string         `json:"hour"`
	Range *reverse.Range `json:"range,omitempty"`
}

// scope validates the request into a job scope.
func (req ReverseRequest) scope(fallback reverse.Range) (jobs.ReverseScope, error) {
	t, err := reverse.ParseTargets(req.Year, req.Month, req.Day, req.Hour)
	if err != nil {
		return jobs.ReverseScope{}, errors.New(errors.InvalidPillar, "invalid target pillars", err)
	}
	rng := fallback
	if req.Range != nil {
		rng = *req.Range
	}
	if err := chart.ValidateRange(rng); err != nil {
		return jobs.ReverseScope{}, err
	}
	return jobs.ReverseScope{Targets: t, Range: rng}, nil
}

// withCity fills the longitude from the city catalog.
func withCity(spec chart.BirthSpec, city string) (chart.BirthSpec, error) {
	if city == "" || spec.Longitude != nil {
		return spec, nil
	}
	c, err := geo.Lookup(city)
	if err != nil {
		return spec, err
	}
	lng := c.Longitude
	spec.Longitude = &lng
	return spec, nil
}

// computeChart goes through the snapshot cache when a case library is
// configured.
func (s *Server) computeChart(spec chart.BirthSpec) (*chart.Chart, error) {
	if s.deps.Library != nil {
		return s.deps.Library.Chart(spec)
	}
	return s.deps.Engine.ComputeChart(spec)
}

func (s *Server) chartFromRequest(r *http.Request) (*chart.Chart, error) {
	var req ChartRequest
	if err := decodeJSON(r, &req, errors.InvalidBirthSpec); err != nil {
		return nil, err
	}
	spec, err := withCity(req.BirthSpec, req.City)
	if err != nil {
		return nil, err
	}
	return s.computeChart(spec)
}

// handleChart handles POST /chart
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowed(w, http.MethodPost)
		return
	}

	c, err := s.chartFromRequest(r)
	if err != nil {
		WriteBaziError(w, err)
		return
	}
	WriteJSON(w, c, http.StatusOK)
}

// handleInteractions handles POST /interactions
func (s *Server) handleInteractions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowed(w, http.MethodPost)
		return
	}

	c, err := s.chartFromRequest(r)
	if err != nil {
		WriteBaziError(w, err)
		return
	}
	WriteJSON(w, InteractionsResponse{
		Pillars:      c.Pillars(),
		Interactions: c.Interactions,
	}, http.StatusOK)
}

// handleOverlay handles POST /overlay
func (s *Server) handleOverlay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowed(w, http.MethodPost)
		return
	}

	var req OverlayRequest
	if err := decodeJSON(r, &req, errors.InvalidRequest); err != nil {
		WriteBaziError(w, err)
		return
	}

	var c *chart.Chart
	var err error
	switch {
	case req.CaseID != "" && req.Spec != nil:
		err = errors.Newf(errors.InvalidRequest, "give either spec or caseId, not both")
	case req.CaseID != "":
		if s.deps.Library == nil {
			err = errors.Newf(errors.StorageError, "case storage is not configured")
			break
		}
		_, c, err = s.deps.Library.CaseChart(req.CaseID)
	case req.Spec != nil:
		var spec chart.BirthSpec
		if spec, err = withCity(*req.Spec, req.City); err == nil {
			c, err = s.computeChart(spec)
		}
	default:
		err = errors.Newf(errors.InvalidRequest, "spec or caseId is required")
	}
	if err != nil {
		WriteBaziError(w, err)
		return
	}

	res, err := chart.Overlay(c, req.Selection)
	if err != nil {
		WriteBaziError(w, err)
		return
	}
	WriteJSON(w, res, http.StatusOK)
}

// handleReverse handles POST /reverse. The search runs on the request
// context, so a client that disconnects stops it.
func (s *Server) handleReverse(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowed(w, http.MethodPost)
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

	start := time.Now()
	matches, err := chart.ReverseSearch(r.Context(), scope.Targets, scope.Range, reverse.Options{})
	if err != nil {
		InternalError(w, "reverse search interrupted", err)
		return
	}
	WriteJSON(w, jobs.ReverseResult{
		Targets:    scope.Targets,
		Range:      scope.Range,
		Matches:    matches,
		Count:      len(matches),
		Consistent: reverse.Consistent(scope.Targets),
		Duration:   time.Since(start).String(),
	}, http.StatusOK)
}

// handleCities handles GET /cities
func (s *Server) handleCities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowed(w, http.MethodGet)
		return
	}

	provinces, err := geo.Provinces()
	if err != nil {
		InternalError(w, "load city catalog", err)
		return
	}
	WriteJSON(w, map[string]interface{}{
		"provinces": provinces,
	}, http.StatusOK)
}
