package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	outputDir  string
	verbose    bool
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sgxsync",
	Short: "SGX 파생상품 일별 파일 다운로드/복구 엔진",
	Long: `SGX Derivatives Daily Sync

SGX 파생상품 일별 파일(Tick, Tick 구조, Trade Cancellation, TC 구조)을
로컬 디렉토리(<output>/<YYYY-MM-DD>/)로 동기화합니다.
누락된 파일만 받고, 잘못 추정된 다운로드 ID는 주변 ID를 탐색해 복구합니다.

Usage:
  sgxsync [command]

Examples:
  sgxsync sync --today
  sgxsync sync --date 2026-01-30
  sgxsync sync --range 2026-01-20,2026-01-30 --dry-run
  sgxsync sync --backfill 5
  sgxsync status --days 10
  sgxsync scheduler start`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "output directory (overrides SGX_OUTPUT_DIR)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging on the console")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "log to the log file only")

	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
}
