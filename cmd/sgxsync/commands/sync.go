package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/wonny/sgxsync/internal/contracts"
	"github.com/wonny/sgxsync/internal/dateset"
	"github.com/wonny/sgxsync/internal/syncer"
	"github.com/wonny/sgxsync/pkg/logger"
)

// syncFlags are the sync command switches
type syncFlags struct {
	today       bool
	date        string
	span        []string
	backfill    int
	backfillSet bool
	force       bool
	dryRun      bool
	retry       int
}

var syncOpts syncFlags

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "누락된 일별 파일 다운로드",
	Long: `대상 날짜의 4개 파일을 확인하고 없는 파일만 다운로드합니다.

날짜 모드 (하나만 선택, 기본값 --today):
  --today          오늘 (주말/휴장일이면 경고 후 진행)
  --date D         특정 날짜
  --range S E      기간 (S,E 또는 --range S --range E 도 가능)
  --backfill N     최근 N 거래일 (주말 정책 적용)

옵션:
  --force          이미 있는 파일도 다시 다운로드
  --dry-run        계획만 출력 (네트워크/디스크 사용 없음)
  --retry N        URL당 최대 시도 횟수

실패한 파일이 하나라도 있으면 종료 코드 1을 반환합니다.

Example:
  sgxsync sync --date 2026-01-30
  sgxsync sync --range 2026-01-26 2026-01-30 --dry-run
  sgxsync sync --backfill 5 --force`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	f := syncCmd.Flags()
	f.BoolVar(&syncOpts.today, "today", false, "sync today")
	f.StringVar(&syncOpts.date, "date", "", "sync one date (YYYY-MM-DD)")
	f.StringSliceVar(&syncOpts.span, "range", nil, "sync an inclusive range: START END")
	f.IntVar(&syncOpts.backfill, "backfill", 0, "sync the last N trading days")
	f.BoolVar(&syncOpts.force, "force", false, "re-download files that already exist")
	f.BoolVar(&syncOpts.dryRun, "dry-run", false, "print the plan without downloading")
	f.IntVar(&syncOpts.retry, "retry", 0, "attempts per URL (overrides SGX_RETRY_ATTEMPTS)")

	syncCmd.MarkFlagsMutuallyExclusive("today", "date", "range", "backfill")
}

func runSync(cmd *cobra.Command, args []string) error {
	syncOpts.backfillSet = cmd.Flags().Changed("backfill")

	mode, err := syncOpts.mode(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if syncOpts.retry != 0 {
		cfg.SGX.RetryAttempts = syncOpts.retry
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	log := logger.New(cfg)
	defer log.Close()

	runID := uuid.NewString()
	log = log.WithField("run_id", runID)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Resolve before touching the network so bad input costs nothing
	plan, err := resolveDates(cfg, mode, time.Now())
	if err != nil {
		log.WithError(err).WithField("mode", mode.String()).Error("Invalid date selection")
		return err
	}
	for _, adv := range plan.Advisories {
		log.WithField("date", adv.Date.String()).Warn(adv.Message)
	}

	e, err := newEngine(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Error("Failed to initialize")
		return err
	}
	defer e.Close()

	if !syncOpts.dryRun {
		if _, err := e.store.Sweep(); err != nil {
			log.WithError(err).Warn("Failed to sweep temp files")
		}
	}

	report, runErr := e.syncer.Run(ctx, plan.Dates, syncer.Options{
		RunID:  runID,
		Force:  syncOpts.force,
		DryRun: syncOpts.dryRun,
	})

	if !quiet {
		PrintReport(report)
	}

	if runErr != nil {
		return runErr
	}
	return syncer.Check(report)
}

// mode turns the flags into a date selection. A trailing positional
// argument completes "--range START END".
func (f syncFlags) mode(args []string) (dateset.Mode, error) {
	span := f.span
	if len(args) > 0 {
		if len(span) != 1 {
			return dateset.Mode{}, fmt.Errorf("unexpected argument %q", args[0])
		}
		span = append(span, args[0])
	}

	switch {
	case f.date != "":
		d, err := contracts.ParseTradingDate(f.date)
		if err != nil {
			return dateset.Mode{}, err
		}
		return dateset.Explicit(d), nil

	case len(span) > 0:
		if len(span) != 2 {
			return dateset.Mode{}, errors.New("--range needs exactly two dates: START END")
		}
		start, err := contracts.ParseTradingDate(span[0])
		if err != nil {
			return dateset.Mode{}, err
		}
		end, err := contracts.ParseTradingDate(span[1])
		if err != nil {
			return dateset.Mode{}, err
		}
		return dateset.Range(start, end), nil

	case f.backfillSet:
		return dateset.Backfill(f.backfill), nil

	default:
		return dateset.Today(), nil
	}
}
