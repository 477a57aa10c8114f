package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/sgxsync/internal/api"
	"github.com/wonny/sgxsync/internal/api/handlers"
	"github.com/wonny/sgxsync/internal/scheduler"
	"github.com/wonny/sgxsync/internal/scheduler/jobs"
	"github.com/wonny/sgxsync/pkg/logger"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `자동 백필 스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start   - 스케줄러 시작 (API_ENABLED=true 이면 상태 API 포함)
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행

Example:
  sgxsync scheduler start
  sgxsync scheduler list
  sgxsync scheduler run backfill`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- backfill: SCHEDULE_BACKFILL (기본 평일 19:30, 최근 SGX_BACKFILL_DAYS 거래일)
- sweep: 매시 15분 (중단된 다운로드 임시 파일 정리)

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

// initScheduler registers the jobs on a fresh scheduler
func initScheduler(e *engine) (*scheduler.Scheduler, *jobs.BackfillJob, error) {
	opts, err := dateOptions(e.cfg, time.Now())
	if err != nil {
		return nil, nil, err
	}

	sched := scheduler.New(e.log)

	backfill := jobs.NewBackfillJob(e.syncer, jobs.BackfillConfig{
		Schedule:      e.cfg.Schedule.Backfill,
		Days:          e.cfg.SGX.BackfillDays,
		IncludeToday:  e.cfg.SGX.BackfillIncludeToday,
		WeekendPolicy: opts.WeekendPolicy,
		Calendar:      e.calendar,
	}, e.log)

	for _, job := range []scheduler.Job{backfill, jobs.NewSweepJob(e.store, e.log)} {
		if err := sched.AddJob(job); err != nil {
			return nil, nil, err
		}
	}

	return sched, backfill, nil
}

// setup loads config, logger and engine for the scheduler commands
func setup(ctx context.Context) (*engine, *logger.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	log := logger.New(cfg)
	e, err := newEngine(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Error("Failed to initialize")
		log.Close()
		return nil, nil, err
	}
	return e, log, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, log, err := setup(ctx)
	if err != nil {
		return err
	}
	defer log.Close()
	defer e.Close()

	sched, backfill, err := initScheduler(e)
	if err != nil {
		return err
	}

	var server *api.Server
	if e.cfg.APIEnabled {
		handler := handlers.NewSyncHandler(e.store, backfill, sched, log)
		server = api.New(e.cfg, log, api.NewRouter(handler, log))
		go func() {
			if err := server.Start(); err != nil {
				log.WithError(err).Error("API server stopped")
			}
		}()
	}

	sched.Start()

	PrintHeader("SGX Sync Scheduler")
	for _, name := range sched.GetAllJobs() {
		next, _ := sched.NextRun(name)
		PrintKeyValue(name, "next run "+next.Format(time.RFC3339), 10)
	}
	if server != nil {
		PrintKeyValue("api", "http://localhost:"+e.cfg.Port, 10)
	}
	PrintSeparator()
	PrintInfo("Press Ctrl+C to stop")

	<-ctx.Done()
	fmt.Println()
	log.Info("Shutdown signal received")

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("API server shutdown failed")
		}
	}
	sched.Stop()

	PrintSuccess("Scheduler stopped")
	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	PrintHeader("Registered Jobs")
	widths := []int{10, 22, 40}
	PrintTableHeader([]string{"JOB", "SCHEDULE", "DESCRIPTION"}, widths)
	PrintTableRow([]string{"backfill", cfg.Schedule.Backfill,
		fmt.Sprintf("sync the last %d trading days", cfg.SGX.BackfillDays)}, widths)
	PrintTableRow([]string{"sweep", jobs.NewSweepJob(nil, logger.Nop()).Schedule(),
		"remove temp files of interrupted downloads"}, widths)
	PrintSeparator()
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, log, err := setup(ctx)
	if err != nil {
		return err
	}
	defer log.Close()
	defer e.Close()

	sched, backfill, err := initScheduler(e)
	if err != nil {
		return err
	}
	// Manual runs report straight away instead of waiting for a retry
	sched.WithRetry(0, 0)

	result, err := sched.RunJobSync(ctx, args[0])
	if err != nil {
		return err
	}

	if report := backfill.LastReport(); report != nil && !quiet {
		PrintReport(report)
	}

	if !result.Success {
		PrintError(fmt.Sprintf("Job %s failed: %s", result.JobName, result.Error))
		return fmt.Errorf("job %s failed", result.JobName)
	}
	PrintSuccess(fmt.Sprintf("Job %s completed in %s", result.JobName, result.Duration.Round(time.Millisecond)))
	return nil
}
