package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wonny/sgxsync/internal/anchor"
	"github.com/wonny/sgxsync/internal/contracts"
)

// anchorsCmd represents the anchors command
var anchorsCmd = &cobra.Command{
	Use:   "anchors",
	Short: "다운로드 ID 기준점 관리",
	Long: `다운로드 ID 추정에 쓰이는 (날짜, ID) 기준점을 조회하거나 추가합니다.

기준점 출처:
- 내장 기본값
- SGX_ANCHORS_FILE (YAML)
- ANCHOR_STORE 에 저장된 학습 결과

Example:
  sgxsync anchors list
  sgxsync anchors add tick 2026-02-02 4184`,
}

var (
	anchorsListCmd = &cobra.Command{
		Use:   "list",
		Short: "기준점 목록",
		RunE:  listAnchors,
	}

	anchorsAddCmd = &cobra.Command{
		Use:   "add [series] [date] [id]",
		Short: "기준점 추가 (단조 증가 검증)",
		Args:  cobra.ExactArgs(3),
		RunE:  addAnchor,
	}
)

func init() {
	rootCmd.AddCommand(anchorsCmd)
	anchorsCmd.AddCommand(anchorsListCmd)
	anchorsCmd.AddCommand(anchorsAddCmd)
}

func listAnchors(cmd *cobra.Command, args []string) error {
	e, log, err := setup(context.Background())
	if err != nil {
		return err
	}
	defer log.Close()
	defer e.Close()

	PrintHeader("Download ID Anchors")
	widths := []int{8, 12, 8}
	PrintTableHeader([]string{"SERIES", "DATE", "ID"}, widths)
	for _, a := range e.anchors.All() {
		PrintTableRow([]string{string(a.Series), a.Date.String(), strconv.Itoa(a.ID)}, widths)
	}
	PrintSeparator()
	return nil
}

func addAnchor(cmd *cobra.Command, args []string) error {
	a, err := parseAnchor(args)
	if err != nil {
		return err
	}

	ctx := context.Background()
	e, log, err := setup(ctx)
	if err != nil {
		return err
	}
	defer log.Close()
	defer e.Close()

	added, err := e.anchors.Add(a)
	if err != nil {
		PrintError(err.Error())
		return err
	}
	if !added {
		PrintInfo(fmt.Sprintf("Anchor %s already known", a))
		return nil
	}

	if err := e.learned.Save(ctx, a); err != nil {
		return fmt.Errorf("save anchor: %w", err)
	}

	log.WithField("anchor", a.String()).Info("Anchor added")
	PrintSuccess(fmt.Sprintf("Anchor %s saved to %s store", a, e.cfg.Anchor.Store))
	return nil
}

func parseAnchor(args []string) (anchor.Anchor, error) {
	series, err := contracts.ParseSeries(args[0])
	if err != nil {
		return anchor.Anchor{}, err
	}
	date, err := contracts.ParseTradingDate(args[1])
	if err != nil {
		return anchor.Anchor{}, err
	}
	id, err := strconv.Atoi(args[2])
	if err != nil {
		return anchor.Anchor{}, fmt.Errorf("invalid id %q: %w", args[2], err)
	}
	return anchor.Anchor{Series: series, Date: date, ID: id}, nil
}
