package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazi/internal/annotate"
	"bazi/internal/cases"
	"bazi/internal/chart"
	"bazi/internal/errors"
	"bazi/internal/interaction"
	"bazi/internal/jobs"
	"bazi/internal/lunar"
	"bazi/internal/output"
	"bazi/internal/slogutil"
	"bazi/internal/storage"
)

const sampleSpecJSON = `{"date":"1990-05-15","time":"08:30","gender":"male"}`

// newTestServer wires a server over temp databases with a running job runner.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := slogutil.NewDiscardLogger()
	dir := t.TempDir()

	db, err := storage.Open(dir, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	cache, err := storage.NewSnapshotCache(db, "test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	engine := chart.NewEngine(lunar.New(), logger)
	lib := cases.NewLibrary(db, cache, engine, logger)

	store, err := jobs.OpenStore(dir, logger)
	require.NoError(t, err)
	runner := jobs.NewRunner(store, logger, jobs.RunnerConfig{WorkerCount: 1})
	runner.RegisterHandler(jobs.JobTypeReverseSearch, jobs.ReverseSearchHandler(logger))
	require.NoError(t, runner.Start())
	t.Cleanup(func() {
		_ = runner.Stop(5 * time.Second)
		_ = store.Close()
	})

	return NewServer(":0", Deps{Engine: engine, Library: lib, Runner: runner, Logger: logger})
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	decode(t, w, &resp)
	return resp.Code
}

func label(t *testing.T, p annotate.Pillar) string {
	t.Helper()
	i, ok := p.Index()
	require.True(t, ok)
	return i.String()
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	decode(t, w, &resp)
	assert.Equal(t, "healthy", resp.Status)
	require.NotNil(t, resp.Runner)
	assert.Equal(t, 1, resp.Runner.WorkerCount)
	assert.NotEmpty(t, resp.Version.Version)

	w = do(t, s, http.MethodPost, "/health", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestRootEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "POST /chart")

	w = do(t, s, http.MethodGet, "/nowhere", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChartEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/chart", sampleSpecJSON)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var c chart.Chart
	decode(t, w, &c)
	assert.Equal(t, "庚午", label(t, c.Year))
	assert.Equal(t, "辛巳", label(t, c.Month))
	assert.Equal(t, "庚辰", label(t, c.Day))
	assert.Equal(t, "庚辰", label(t, c.Hour))
	assert.Equal(t, "年空[戌亥] 日空[申酉]", c.VoidInfo)
	assert.True(t, strings.HasPrefix(c.LunarDate, "农历 庚午年"), c.LunarDate)

	// Served from the snapshot cache the second time, byte for byte.
	again := do(t, s, http.MethodPost, "/chart", sampleSpecJSON)
	assert.Equal(t, w.Body.String(), again.Body.String())
}

func TestChartEndpointCity(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/chart",
		`{"date":"1990-05-15","time":"08:30","gender":"male","city":"乌鲁木齐"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var c chart.Chart
	decode(t, w, &c)
	require.NotNil(t, c.Spec.Longitude)
	assert.InDelta(t, 87.62, *c.Spec.Longitude, 0.001)
	assert.NotEmpty(t, c.TrueSolarTime)

	w = do(t, s, http.MethodPost, "/chart",
		`{"date":"1990-05-15","gender":"male","city":"Atlantis"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, string(errors.CityNotFound), errorCode(t, w))
}

func TestChartEndpointRejectsBadInput(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
		code   errors.ErrorCode
	}{
		{"empty body", "", http.StatusBadRequest, errors.InvalidBirthSpec},
		{"malformed json", "{", http.StatusBadRequest, errors.InvalidBirthSpec},
		{"unknown field", `{"date":"1990-05-15","gender":"male","sex":"m"}`, http.StatusBadRequest, errors.InvalidBirthSpec},
		{"bad date text", `{"date":"15/05/1990","gender":"male"}`, http.StatusBadRequest, errors.InvalidBirthSpec},
		{"out of range year", `{"date":"1850-05-15","gender":"male"}`, http.StatusBadRequest, errors.InvalidBirthSpec},
		{"missing leap month", `{"date":"1990-04-01","gender":"male","calendar":"lunar","leapMonth":true}`, http.StatusUnprocessableEntity, errors.LunarConversionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodPost, "/chart", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, string(tt.code), errorCode(t, w))
		})
	}

	w := do(t, s, http.MethodGet, "/chart", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestInteractionsEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/interactions", sampleSpecJSON)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp InteractionsResponse
	decode(t, w, &resp)
	assert.Len(t, resp.Pillars, 4)
	var kinds []interaction.Kind
	for _, i := range resp.Interactions {
		kinds = append(kinds, i.Kind)
	}
	assert.Equal(t, []interaction.Kind{interaction.SelfPunishment, interaction.Tomb}, kinds)
}

func TestOverlayEndpoint(t *testing.T) {
	s := newTestServer(t)

	body := `{"spec":` + sampleSpecJSON + `,"selection":{"decade":0,"year":1999,"month":3}}`
	w := do(t, s, http.MethodPost, "/overlay", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res chart.OverlayResult
	decode(t, w, &res)
	require.NotNil(t, res.Luck)
	require.NotNil(t, res.Annual)
	require.NotNil(t, res.Monthly)
	assert.Equal(t, "壬午", label(t, *res.Luck))
	assert.Equal(t, "己卯", label(t, *res.Annual))
	assert.Equal(t, "戊辰", label(t, *res.Monthly))

	w = do(t, s, http.MethodPost, "/overlay", `{"spec":`+sampleSpecJSON+`,"selection":{"decade":12}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(errors.InvalidSelection), errorCode(t, w))

	w = do(t, s, http.MethodPost, "/overlay", `{"selection":{}}`)
	assert.Equal(t, string(errors.InvalidRequest), errorCode(t, w))

	w = do(t, s, http.MethodPost, "/overlay", `{"caseId":"missing","selection":{"year":2000}}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReverseEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/reverse",
		`{"year":"庚午","month":"辛巳","day":"庚辰","hour":"庚辰","range":{"from":1980,"to":2000}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res jobs.ReverseResult
	decode(t, w, &res)
	assert.True(t, res.Consistent)
	var dates []string
	for _, m := range res.Matches {
		dates = append(dates, m.Date())
	}
	assert.Contains(t, dates, "1990-05-15")
	assert.Equal(t, len(res.Matches), res.Count)

	w = do(t, s, http.MethodPost, "/reverse", `{"year":"甲丑","month":"辛巳","day":"庚辰","hour":"庚辰"}`)
	assert.Equal(t, string(errors.InvalidPillar), errorCode(t, w))

	w = do(t, s, http.MethodPost, "/reverse",
		`{"year":"庚午","month":"辛巳","day":"庚辰","hour":"庚辰","range":{"from":2000,"to":1990}}`)
	assert.Equal(t, string(errors.InvalidRange), errorCode(t, w))
}

func TestReverseStreamEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/reverse/stream",
		`{"year":"庚午","month":"辛巳","day":"庚辰","hour":"庚辰","range":{"from":1980,"to":2000}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, "event: meta\n"), body)
	assert.Contains(t, body, `"consistent":true`)
	assert.Equal(t, 21, strings.Count(body, "event: progress\n"))
	assert.Contains(t, body, "event: chunk\n")
	assert.True(t, strings.HasSuffix(body, "\n\n"))
	assert.Contains(t, body[strings.LastIndex(body, "event: "):], "event: done\n")

	// request errors are answered before the stream opens
	w = do(t, s, http.MethodPost, "/reverse/stream",
		`{"year":"庚午","month":"辛巳","day":"庚辰","hour":"庚辰","range":{"from":2000,"to":1990}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(errors.InvalidRange), errorCode(t, w))
}

func TestReverseJobEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/jobs/reverse",
		`{"year":"庚午","month":"辛巳","day":"庚辰","hour":"庚辰","range":{"from":1985,"to":1995}}`)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	var summary jobs.JobSummary
	decode(t, w, &summary)
	require.NotEmpty(t, summary.ID)

	var job JobResponse
	require.Eventually(t, func() bool {
		w := do(t, s, http.MethodGet, "/jobs/"+summary.ID, "")
		if w.Code != http.StatusOK {
			return false
		}
		job = JobResponse{}
		decode(t, w, &job)
		return job.Job != nil && job.Status == jobs.JobCompleted
	}, 10*time.Second, 20*time.Millisecond)

	require.NotNil(t, job.Result)
	assert.Equal(t, 100, job.Progress)
	assert.NotEmpty(t, job.Result.Matches)

	// the background result matches a synchronous search of the same scope
	var raw map[string]json.RawMessage
	decode(t, do(t, s, http.MethodGet, "/jobs/"+summary.ID, ""), &raw)
	sync := do(t, s, http.MethodPost, "/reverse",
		`{"year":"庚午","month":"辛巳","day":"庚辰","hour":"庚辰","range":{"from":1985,"to":1995}}`)
	same, msg := output.CompareSnapshots(raw["result"], sync.Body.Bytes())
	assert.True(t, same, msg)

	w = do(t, s, http.MethodGet, "/jobs?status=completed", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list jobs.ListJobsResponse
	decode(t, w, &list)
	assert.Equal(t, 1, list.TotalCount)

	w = do(t, s, http.MethodPost, "/jobs/"+summary.ID+"/cancel", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, string(errors.JobNotCancellable), errorCode(t, w))

	w = do(t, s, http.MethodGet, "/jobs/unknown", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, s, http.MethodGet, "/jobs?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCaseEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/cases",
		`{"name":"案例一","spec":`+sampleSpecJSON+`,"province":"广东","city":"深圳","notes":"庚金"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var saved cases.Case
	decode(t, w, &saved)
	require.NotEmpty(t, saved.ID)
	require.NotNil(t, saved.Spec.Longitude)
	assert.InDelta(t, 114.06, *saved.Spec.Longitude, 0.001)

	w = do(t, s, http.MethodGet, "/cases?q="+url.QueryEscape("案例"), "")
	require.Equal(t, http.StatusOK, w.Code)
	var list cases.ListResult
	decode(t, w, &list)
	assert.Equal(t, 1, list.TotalCount)

	w = do(t, s, http.MethodPatch, "/cases/"+saved.ID, `{"notes":"复盘"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated cases.Case
	decode(t, w, &updated)
	assert.Equal(t, "复盘", updated.Notes)
	assert.Equal(t, "案例一", updated.Name)

	w = do(t, s, http.MethodGet, "/cases/"+saved.ID+"/chart", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var withChart CaseChartResponse
	decode(t, w, &withChart)
	require.NotNil(t, withChart.Chart)
	assert.Equal(t, "庚辰", label(t, withChart.Chart.Day))

	w = do(t, s, http.MethodPost, "/overlay", `{"caseId":"`+saved.ID+`","selection":{"year":1999}}`)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, s, http.MethodDelete, "/cases/"+saved.ID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, s, http.MethodGet, "/cases/"+saved.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, string(errors.CaseNotFound), errorCode(t, w))

	w = do(t, s, http.MethodPut, "/cases/"+saved.ID, "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestCitiesEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodGet, "/cities", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "乌鲁木齐")
}

func TestUnconfiguredDependencies(t *testing.T) {
	s := NewServer(":0", Deps{
		Engine: chart.NewEngine(nil, nil),
		Logger: slogutil.NewDiscardLogger(),
	})

	w := do(t, s, http.MethodPost, "/chart", sampleSpecJSON)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, s, http.MethodGet, "/cases", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	w = do(t, s, http.MethodGet, "/jobs", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
