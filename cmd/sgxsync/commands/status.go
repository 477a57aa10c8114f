package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/sgxsync/internal/contracts"
	"github.com/wonny/sgxsync/internal/store"
	"github.com/wonny/sgxsync/pkg/logger"
)

var statusDays int

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "로컬 파일 현황 조회",
	Long: `최근 N일 동안 날짜별로 어떤 파일이 있고 없는지 보여줍니다.
네트워크를 사용하지 않습니다.

Example:
  sgxsync status
  sgxsync status --days 30`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().IntVar(&statusDays, "days", 7, "number of calendar days to inspect")
}

func runStatus(cmd *cobra.Command, args []string) error {
	if statusDays < 1 {
		return fmt.Errorf("--days must be at least 1, got %d", statusDays)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	calendar, err := contracts.ParseCalendar(cfg.SGX.Holidays)
	if err != nil {
		return err
	}

	st := store.New(cfg.SGX.OutputDir, logger.Nop())

	today := contracts.DateOf(time.Now())
	coverage := st.Coverage(today.AddDays(-(statusDays - 1)), today)

	PrintHeader(fmt.Sprintf("Local files in %s", st.Root()))

	widths := []int{12, 5, 10, 12, 30}
	PrintTableHeader([]string{"DATE", "DAY", "STATE", "SIZE", "MISSING"}, widths)

	complete := 0
	for _, cov := range coverage {
		state := red("missing")
		switch {
		case cov.Complete():
			state = green("complete")
			complete++
		case len(cov.Present) > 0:
			state = yellow("partial")
		case calendar.IsClosed(cov.Date):
			state = "closed"
		}

		PrintTableRow([]string{
			cov.Date.String(),
			cov.Date.Weekday().String()[:3],
			state,
			FormatBytes(cov.Bytes),
			strings.Join(cov.Missing, ", "),
		}, widths)
	}
	PrintSeparator()

	PrintInfo(fmt.Sprintf("%d of %d days complete", complete, len(coverage)))
	return nil
}
