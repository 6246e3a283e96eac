package api

import (
	"net/http"

	"bazi/internal/cases"
	"bazi/internal/chart"
	"bazi/internal/errors"
	"bazi/internal/storage"
)

// CaseChartResponse is a saved case together with its chart.
type CaseChartResponse struct {
	Case  *cases.Case  `json:"case"`
	Chart *chart.Chart `json:"chart"`
}

func (s *Server) library(w http.ResponseWriter) (*cases.Library, bool) {
	if s.deps.Library == nil {
		WriteBaziError(w, errors.Newf(errors.StorageError, "case storage is not configured"))
		return nil, false
	}
	return s.deps.Library, true
}

// handleCases handles GET /cases?q=...&limit=...&offset=... and POST /cases
func (s *Server) handleCases(w http.ResponseWriter, r *http.Request) {
	lib, ok := s.library(w)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		filter := storage.CaseFilter{Query: r.URL.Query().Get("q")}
		var err error
		if filter.Limit, err = QueryParamInt(r, "limit", 50); err != nil {
			BadRequest(w, errors.InvalidRequest, err.Error())
			return
		}
		if filter.Offset, err = QueryParamInt(r, "offset", 0); err != nil {
			BadRequest(w, errors.InvalidRequest, err.Error())
			return
		}
		res, err := lib.List(filter)
		if err != nil {
			WriteBaziError(w, err)
			return
		}
		WriteJSON(w, res, http.StatusOK)

	case http.MethodPost:
		var req cases.SaveRequest
		if err := decodeJSON(r, &req, errors.InvalidBirthSpec); err != nil {
			WriteBaziError(w, err)
			return
		}
		c, err := lib.Save(req)
		if err != nil {
			WriteBaziError(w, err)
			return
		}
		WriteJSON(w, c, http.StatusCreated)

	default:
		MethodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

// handleCaseRoutes handles /cases/:id and /cases/:id/chart
func (s *Server) handleCaseRoutes(w http.ResponseWriter, r *http.Request) {
	lib, ok := s.library(w)
	if !ok {
		return
	}

	parts := pathParts(r, "/cases/")
	switch {
	case len(parts) == 1:
		s.handleCase(w, r, lib, parts[0])
	case len(parts) == 2 && parts[1] == "chart":
		if r.Method != http.MethodGet {
			MethodNotAllowed(w, http.MethodGet)
			return
		}
		c, ch, err := lib.CaseChart(parts[0])
		if err != nil {
			WriteBaziError(w, err)
			return
		}
		WriteJSON(w, CaseChartResponse{Case: c, Chart: ch}, http.StatusOK)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleCase(w http.ResponseWriter, r *http.Request, lib *cases.Library, id string) {
	switch r.Method {
	case http.MethodGet:
		c, err := lib.Get(id)
		if err != nil {
			WriteBaziError(w, err)
			return
		}
		WriteJSON(w, c, http.StatusOK)

	case http.MethodPatch:
		var req cases.UpdateRequest
		if err := decodeJSON(r, &req, errors.InvalidRequest); err != nil {
			WriteBaziError(w, err)
			return
		}
		c, err := lib.Update(id, req)
		if err != nil {
			WriteBaziError(w, err)
			return
		}
		WriteJSON(w, c, http.StatusOK)

	case http.MethodDelete:
		if err := lib.Delete(id); err != nil {
			WriteBaziError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		MethodNotAllowed(w, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}
