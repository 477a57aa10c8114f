package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sgxsync/internal/api/handlers"
	"github.com/wonny/sgxsync/internal/contracts"
	"github.com/wonny/sgxsync/internal/scheduler"
	"github.com/wonny/sgxsync/internal/store"
	"github.com/wonny/sgxsync/pkg/logger"
)

type fakeReports struct{ report *contracts.SyncReport }

func (f fakeReports) LastReport() *contracts.SyncReport { return f.report }

type fakeTrigger struct {
	jobs  []string
	err   error
	stats map[string]scheduler.JobStats
}

func (f *fakeTrigger) RunJob(name string) error {
	f.jobs = append(f.jobs, name)
	return f.err
}

func (f *fakeTrigger) GetJobStats() map[string]scheduler.JobStats {
	return f.stats
}

func newTestRouter(t *testing.T, report *contracts.SyncReport, trigger *fakeTrigger) (http.Handler, *store.Store) {
	t.Helper()
	st := store.New(t.TempDir(), logger.Nop())
	h := handlers.NewSyncHandler(st, fakeReports{report}, trigger, logger.Nop())
	return NewRouter(h, logger.Nop()), st
}

func serve(router http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t, nil, &fakeTrigger{})

	rec := serve(router, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestRequestIDIsEchoed(t *testing.T) {
	router, _ := newTestRouter(t, nil, &fakeTrigger{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

func TestGetDate(t *testing.T) {
	router, st := newTestRouter(t, nil, &fakeTrigger{})
	date := contracts.MustParseTradingDate("2026-01-30")
	_, err := st.AtomicWrite(date, contracts.TradeCancellation, []byte("rows"))
	require.NoError(t, err)

	rec := serve(router, http.MethodGet, "/api/dates/2026-01-30")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Date     string   `json:"date"`
		Present  []string `json:"present"`
		Missing  []string `json:"missing"`
		Complete bool     `json:"complete"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, "2026-01-30", body.Date)
	assert.Equal(t, []string{"TC"}, body.Present)
	assert.Equal(t, []string{"WEBPXTICK_DT", "TickData_structure", "TC_structure"}, body.Missing)
	assert.False(t, body.Complete)
}

func TestGetDate_BadDate(t *testing.T) {
	router, _ := newTestRouter(t, nil, &fakeTrigger{})

	rec := serve(router, http.MethodGet, "/api/dates/yesterday")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetCoverage(t *testing.T) {
	router, _ := newTestRouter(t, nil, &fakeTrigger{})

	rec := serve(router, http.MethodGet, "/api/coverage?days=3")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Complete int               `json:"complete"`
		Dates    []json.RawMessage `json:"dates"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Dates, 3)
	assert.Zero(t, body.Complete)

	for _, bad := range []string{"0", "abc", "1000"} {
		rec := serve(router, http.MethodGet, "/api/coverage?days="+bad)
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
	}
}

func TestGetLastReport(t *testing.T) {
	router, _ := newTestRouter(t, nil, &fakeTrigger{})
	rec := serve(router, http.MethodGet, "/api/report/last")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	report := contracts.NewSyncReport("run-1", false, false)
	report.Record(contracts.TargetResult{
		Date:     contracts.MustParseTradingDate("2026-01-30"),
		Kind:     "TC",
		Category: contracts.CategorySucceeded,
		Bytes:    42,
	})
	report.Finish()

	router, _ = newTestRouter(t, report, &fakeTrigger{})
	rec = serve(router, http.MethodGet, "/api/report/last")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		RunID  string           `json:"run_id"`
		Totals contracts.Totals `json:"totals"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "run-1", body.RunID)
	assert.Equal(t, 1, body.Totals.Succeeded)
	assert.Equal(t, int64(42), body.Totals.Bytes)
}

func TestTriggerSync(t *testing.T) {
	trigger := &fakeTrigger{}
	router, _ := newTestRouter(t, nil, trigger)

	rec := serve(router, http.MethodPost, "/api/sync")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{"backfill"}, trigger.jobs)

	rec = serve(router, http.MethodGet, "/api/sync")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	failing := &fakeTrigger{err: errors.New("job backfill not found")}
	router, _ = newTestRouter(t, nil, failing)
	rec = serve(router, http.MethodPost, "/api/sync")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetJobs(t *testing.T) {
	trigger := &fakeTrigger{stats: map[string]scheduler.JobStats{
		"sweep":    {JobName: "sweep", TotalRuns: 3, SuccessRate: 1},
		"backfill": {JobName: "backfill", TotalRuns: 2, FailureCount: 1, LastError: "1 of 8 targets failed"},
	}}
	router, _ := newTestRouter(t, nil, trigger)

	rec := serve(router, http.MethodGet, "/api/jobs")
	require.Equal(t, http.StatusOK, rec.Code)

	var body []scheduler.JobStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 2)
	assert.Equal(t, "backfill", body[0].JobName)
	assert.Equal(t, "1 of 8 targets failed", body[0].LastError)
	assert.Equal(t, 3, body[1].TotalRuns)
}

func TestRecoveryMiddleware(t *testing.T) {
	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	handler := recoveryMiddleware(logger.Nop())(panicking)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal server error")
}
