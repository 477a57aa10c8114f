package handlers

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/sgxsync/internal/contracts"
	"github.com/wonny/sgxsync/internal/scheduler"
	"github.com/wonny/sgxsync/internal/store"
	"github.com/wonny/sgxsync/pkg/logger"
)

const (
	defaultCoverageDays = 7
	maxCoverageDays     = 366
)

// CoverageReader inspects the local tree
type CoverageReader interface {
	Coverage(from, to contracts.TradingDate) []store.DateCoverage
}

// ReportSource exposes the latest automatic run
type ReportSource interface {
	LastReport() *contracts.SyncReport
}

// JobControl starts named jobs in the background and reports their history
type JobControl interface {
	RunJob(name string) error
	GetJobStats() map[string]scheduler.JobStats
}

// SyncHandler handles sync status endpoints
// ⭐ SSOT: 동기화 상태 API 핸들러는 이 구조체에서만
type SyncHandler struct {
	coverage CoverageReader
	reports  ReportSource
	jobs     JobControl
	logger   *logger.Logger
	now      func() time.Time
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(coverage CoverageReader, reports ReportSource, jobs JobControl, log *logger.Logger) *SyncHandler {
	return &SyncHandler{
		coverage: coverage,
		reports:  reports,
		jobs:     jobs,
		logger:   log,
		now:      time.Now,
	}
}

// DateResponse is the local state of one date
type DateResponse struct {
	store.DateCoverage
	Complete bool `json:"complete"`
}

// GetDate returns which kinds are present or missing for a date
// GET /api/dates/{date}
func (h *SyncHandler) GetDate(w http.ResponseWriter, r *http.Request) {
	date, err := contracts.ParseTradingDate(mux.Vars(r)["date"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid date format (expected YYYY-MM-DD)")
		return
	}

	cov := h.coverage.Coverage(date, date)[0]
	respondJSON(w, http.StatusOK, DateResponse{DateCoverage: cov, Complete: cov.Complete()})
}

// CoverageResponse lists the last N days, newest first
type CoverageResponse struct {
	From     contracts.TradingDate `json:"from"`
	To       contracts.TradingDate `json:"to"`
	Complete int                   `json:"complete"`
	Dates    []store.DateCoverage  `json:"dates"`
}

// GetCoverage returns local coverage for recent days
// GET /api/coverage?days=N
func (h *SyncHandler) GetCoverage(w http.ResponseWriter, r *http.Request) {
	days := defaultCoverageDays
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxCoverageDays {
			respondError(w, http.StatusBadRequest, "days must be between 1 and 366")
			return
		}
		days = n
	}

	to := contracts.DateOf(h.now())
	from := to.AddDays(-(days - 1))

	resp := CoverageResponse{From: from, To: to, Dates: h.coverage.Coverage(from, to)}
	for _, c := range resp.Dates {
		if c.Complete() {
			resp.Complete++
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

// ReportResponse is a report with its totals
type ReportResponse struct {
	*contracts.SyncReport
	Totals contracts.Totals `json:"totals"`
}

// GetLastReport returns the latest backfill report
// GET /api/report/last
func (h *SyncHandler) GetLastReport(w http.ResponseWriter, r *http.Request) {
	report := h.reports.LastReport()
	if report == nil {
		respondError(w, http.StatusNotFound, "No backfill has run yet")
		return
	}

	respondJSON(w, http.StatusOK, ReportResponse{SyncReport: report, Totals: report.Totals()})
}

// TriggerSync starts a backfill run in the background
// POST /api/sync
func (h *SyncHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	if err := h.jobs.RunJob("backfill"); err != nil {
		h.logger.WithError(err).Error("Failed to trigger backfill")
		respondError(w, http.StatusInternalServerError, "Failed to trigger backfill")
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{
		"status":  "accepted",
		"message": "Backfill started",
	})
}

// GetJobs returns scheduler statistics, sorted by job name
// GET /api/jobs
func (h *SyncHandler) GetJobs(w http.ResponseWriter, r *http.Request) {
	stats := h.jobs.GetJobStats()

	out := make([]scheduler.JobStats, 0, len(stats))
	for _, st := range stats {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JobName < out[j].JobName })

	respondJSON(w, http.StatusOK, out)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
