package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/sgxsync/internal/contracts"
	"github.com/wonny/sgxsync/internal/dateset"
	"github.com/wonny/sgxsync/internal/syncer"
	"github.com/wonny/sgxsync/pkg/logger"
)

// Runner is the part of the syncer a job needs
type Runner interface {
	Run(ctx context.Context, dates []contracts.TradingDate, opts syncer.Options) (*contracts.SyncReport, error)
}

// BackfillConfig holds the backfill window settings
type BackfillConfig struct {
	Schedule      string
	Days          int
	IncludeToday  bool
	WeekendPolicy dateset.WeekendPolicy
	Calendar      contracts.Calendar
	Location      *time.Location // "today" is taken in this zone
}

// BackfillJob reconciles the last N days after the exchange publishes
// ⭐ SSOT: 자동 백필 스케줄은 이 Job에서만
type BackfillJob struct {
	runner Runner
	cfg    BackfillConfig
	logger *logger.Logger
	now    func() time.Time

	mu   sync.RWMutex
	last *contracts.SyncReport
}

// NewBackfillJob creates a new backfill job
func NewBackfillJob(runner Runner, cfg BackfillConfig, log *logger.Logger) *BackfillJob {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &BackfillJob{
		runner: runner,
		cfg:    cfg,
		logger: log.WithField("job", "backfill"),
		now:    time.Now,
	}
}

// Name returns the job name
func (j *BackfillJob) Name() string {
	return "backfill"
}

// Schedule returns the cron schedule
func (j *BackfillJob) Schedule() string {
	return j.cfg.Schedule
}

// Run resolves the window and syncs it. Failed targets make the run fail
// so the scheduler records it and retries.
func (j *BackfillJob) Run(ctx context.Context) error {
	res, err := dateset.Resolve(dateset.Backfill(j.cfg.Days), dateset.Options{
		Now:                  j.now().In(j.cfg.Location),
		Calendar:             j.cfg.Calendar,
		WeekendPolicy:        j.cfg.WeekendPolicy,
		BackfillIncludeToday: j.cfg.IncludeToday,
	})
	if err != nil {
		return fmt.Errorf("resolve backfill window: %w", err)
	}

	j.logger.WithField("dates", len(res.Dates)).Info("Starting scheduled backfill")

	report, err := j.runner.Run(ctx, res.Dates, syncer.Options{})
	if report != nil {
		j.mu.Lock()
		j.last = report
		j.mu.Unlock()
	}
	if err != nil {
		return err
	}

	return syncer.Check(report)
}

// LastReport returns the most recent run's report, nil before the first run
func (j *BackfillJob) LastReport() *contracts.SyncReport {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.last
}
