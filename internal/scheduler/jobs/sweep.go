package jobs

import (
	"context"

	"github.com/wonny/sgxsync/pkg/logger"
)

// Sweeper removes leftovers of interrupted writes
type Sweeper interface {
	Sweep() (int, error)
}

// SweepJob cleans temp files from the output tree
type SweepJob struct {
	store  Sweeper
	logger *logger.Logger
}

// NewSweepJob creates a new sweep job
func NewSweepJob(store Sweeper, log *logger.Logger) *SweepJob {
	return &SweepJob{
		store:  store,
		logger: log.WithField("job", "sweep"),
	}
}

// Name returns the job name
func (j *SweepJob) Name() string {
	return "sweep"
}

// Schedule returns the cron schedule (hourly)
func (j *SweepJob) Schedule() string {
	return "0 15 * * * *"
}

// Run executes the sweep
func (j *SweepJob) Run(ctx context.Context) error {
	j.logger.Debug("Starting scheduled sweep")

	count, err := j.store.Sweep()
	if err != nil {
		return err
	}

	if count > 0 {
		j.logger.WithField("removed", count).Info("Sweep completed")
	}

	return nil
}
