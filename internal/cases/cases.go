// Package cases is the saved chart library: named birth specs with notes,
// persisted in sqlite, with chart snapshots cached by spec fingerprint.
package cases

import (
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"bazi/internal/chart"
	"bazi/internal/errors"
	"bazi/internal/geo"
	"bazi/internal/output"
	"bazi/internal/storage"
)

// Case is a saved birth specification.
type Case struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Spec      chart.BirthSpec `json:"spec"`
	Province  string          `json:"province,omitempty"`
	City      string          `json:"city,omitempty"`
	Notes     string          `json:"notes,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// SaveRequest creates a case. When City is set and the spec carries no
// longitude, the city's catalog longitude is used.
type SaveRequest struct {
	Name     string          `json:"name"`
	Spec     chart.BirthSpec `json:"spec"`
	Province string          `json:"province,omitempty"`
	City     string          `json:"city,omitempty"`
	Notes    string          `json:"notes,omitempty"`
}

// UpdateRequest changes the descriptive fields of a case. Nil fields are
// left alone.
type UpdateRequest struct {
	Name  *string `json:"name,omitempty"`
	Notes *string `json:"notes,omitempty"`
}

// ListResult is one page of cases.
type ListResult struct {
	Cases      []Case `json:"cases"`
	TotalCount int    `json:"totalCount"`
}

// Library manages saved cases.
type Library struct {
	repo   *storage.CaseRepository
	cache  *storage.SnapshotCache
	engine *chart.Engine
	logger *slog.Logger
	now    func() time.Time
}

// NewLibrary wires a library. cache may be nil to disable snapshots.
func NewLibrary(db *storage.DB, cache *storage.SnapshotCache, engine *chart.Engine, logger *slog.Logger) *Library {
	return &Library{
		repo:   storage.NewCaseRepository(db),
		cache:  cache,
		engine: engine,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Save validates and stores a new case, computing its chart once so that
// unconvertible lunar dates are rejected up front.
func (l *Library) Save(req SaveRequest) (*Case, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errors.Newf(errors.InvalidBirthSpec, "case name is required").
			WithDetails(map[string]string{"field": "name"})
	}

	spec := req.Spec
	if req.City != "" && spec.Longitude == nil {
		city, err := geo.Lookup(qualified(req.Province, req.City))
		if err != nil {
			return nil, err
		}
		lng := city.Longitude
		spec.Longitude = &lng
	}

	if _, err := l.Chart(spec); err != nil {
		return nil, err
	}
	specJSON, fingerprint, err := encodeSpec(spec)
	if err != nil {
		return nil, err
	}

	now := l.now()
	rec := &storage.CaseRecord{
		ID:            uuid.New().String(),
		Name:          name,
		BirthSpecJSON: specJSON,
		Fingerprint:   fingerprint,
		Province:      optional(req.Province),
		City:          optional(req.City),
		Notes:         optional(req.Notes),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := l.repo.Create(rec); err != nil {
		return nil, errors.New(errors.StorageError, "save case", err)
	}

	l.logger.Info("Case saved", "id", rec.ID, "name", name)
	return fromRecord(rec)
}

// Get loads a case by id.
func (l *Library) Get(id string) (*Case, error) {
	rec, err := l.repo.Get(id)
	if err != nil {
		return nil, errors.New(errors.StorageError, "load case", err)
	}
	if rec == nil {
		return nil, notFound(id)
	}
	return fromRecord(rec)
}

// List returns cases newest first.
func (l *Library) List(filter storage.CaseFilter) (*ListResult, error) {
	recs, total, err := l.repo.List(filter)
	if err != nil {
		return nil, errors.New(errors.StorageError, "list cases", err)
	}
	res := &ListResult{Cases: make([]Case, 0, len(recs)), TotalCount: total}
	for _, rec := range recs {
		c, err := fromRecord(rec)
		if err != nil {
			return nil, err
		}
		res.Cases = append(res.Cases, *c)
	}
	return res, nil
}

// Update edits the name or notes of a case.
func (l *Library) Update(id string, req UpdateRequest) (*Case, error) {
	rec, err := l.repo.Get(id)
	if err != nil {
		return nil, errors.New(errors.StorageError, "load case", err)
	}
	if rec == nil {
		return nil, notFound(id)
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, errors.Newf(errors.InvalidBirthSpec, "case name is required").
				WithDetails(map[string]string{"field": "name"})
		}
		rec.Name = name
	}
	if req.Notes != nil {
		rec.Notes = optional(*req.Notes)
	}
	rec.UpdatedAt = l.now()
	if err := l.repo.Update(rec); err != nil {
		return nil, errors.New(errors.StorageError, "update case", err)
	}
	return fromRecord(rec)
}

// Delete removes a case.
func (l *Library) Delete(id string) error {
	deleted, err := l.repo.Delete(id)
	if err != nil {
		return errors.New(errors.StorageError, "delete case", err)
	}
	if !deleted {
		return notFound(id)
	}
	l.logger.Info("Case deleted", "id", id)
	return nil
}

// CaseChart returns the chart of a saved case.
func (l *Library) CaseChart(id string) (*Case, *chart.Chart, error) {
	c, err := l.Get(id)
	if err != nil {
		return nil, nil, err
	}
	ch, err := l.Chart(c.Spec)
	if err != nil {
		return nil, nil, err
	}
	return c, ch, nil
}

// Chart computes a chart through the snapshot cache. Cache failures are
// logged and fall back to computing.
func (l *Library) Chart(spec chart.BirthSpec) (*chart.Chart, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	fingerprint, err := spec.Fingerprint()
	if err != nil {
		return nil, errors.New(errors.InternalError, "fingerprint birth spec", err)
	}

	if l.cache != nil {
		raw, ok, err := l.cache.Get(fingerprint)
		if err != nil {
			l.logger.Warn("Snapshot lookup failed", "fingerprint", fingerprint, "error", err.Error())
		} else if ok {
			var c chart.Chart
			if err := json.Unmarshal(raw, &c); err == nil {
				l.logger.Debug("Snapshot hit", "fingerprint", fingerprint)
				return &c, nil
			}
			l.logger.Warn("Snapshot undecodable, recomputing", "fingerprint", fingerprint)
		}
	}

	c, err := l.engine.ComputeChart(spec)
	if err != nil {
		return nil, err
	}

	if l.cache != nil {
		raw, err := json.Marshal(c)
		if err == nil {
			err = l.cache.Put(fingerprint, raw)
		}
		if err != nil {
			l.logger.Warn("Snapshot store failed", "fingerprint", fingerprint, "error", err.Error())
		}
	}
	return c, nil
}

// SnapshotStats reports the chart snapshot cache, or nil without a cache.
func (l *Library) SnapshotStats() (*storage.SnapshotStats, error) {
	if l.cache == nil {
		return nil, nil
	}
	st, err := l.cache.Stats()
	if err != nil {
		return nil, errors.New(errors.StorageError, "snapshot stats", err)
	}
	return &st, nil
}

func encodeSpec(spec chart.BirthSpec) (string, string, error) {
	data, err := output.DeterministicEncode(spec)
	if err != nil {
		return "", "", errors.New(errors.InternalError, "encode birth spec", err)
	}
	fingerprint, err := spec.Fingerprint()
	if err != nil {
		return "", "", errors.New(errors.InternalError, "fingerprint birth spec", err)
	}
	return string(data), fingerprint, nil
}

func fromRecord(rec *storage.CaseRecord) (*Case, error) {
	c := &Case{
		ID:        rec.ID,
		Name:      rec.Name,
		Province:  deref(rec.Province),
		City:      deref(rec.City),
		Notes:     deref(rec.Notes),
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
	if err := json.Unmarshal([]byte(rec.BirthSpecJSON), &c.Spec); err != nil {
		return nil, errors.New(errors.StorageError, "decode stored birth spec "+rec.ID, err)
	}
	return c, nil
}

func notFound(id string) error {
	return errors.Newf(errors.CaseNotFound, "case %s not found", id).
		WithDetails(map[string]string{"id": id})
}

func qualified(province, city string) string {
	if province == "" {
		return city
	}
	return province + "/" + city
}

func optional(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
