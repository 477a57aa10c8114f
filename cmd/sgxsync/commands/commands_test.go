package commands

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sgxsync/internal/contracts"
	"github.com/wonny/sgxsync/internal/dateset"
	"github.com/wonny/sgxsync/pkg/config"
)

func TestSyncFlags_Mode(t *testing.T) {
	d := contracts.MustParseTradingDate

	tests := []struct {
		name  string
		flags syncFlags
		args  []string
		want  dateset.Mode
	}{
		{"default is today", syncFlags{}, nil, dateset.Today()},
		{"today", syncFlags{today: true}, nil, dateset.Today()},
		{"date", syncFlags{date: "2026-01-30"}, nil, dateset.Explicit(d("2026-01-30"))},
		{"range comma", syncFlags{span: []string{"2026-01-26", "2026-01-30"}}, nil,
			dateset.Range(d("2026-01-26"), d("2026-01-30"))},
		{"range positional end", syncFlags{span: []string{"2026-01-26"}}, []string{"2026-01-30"},
			dateset.Range(d("2026-01-26"), d("2026-01-30"))},
		{"backfill", syncFlags{backfill: 5, backfillSet: true}, nil, dateset.Backfill(5)},
		{"backfill zero is passed through", syncFlags{backfill: 0, backfillSet: true}, nil, dateset.Backfill(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.flags.mode(tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSyncFlags_ModeErrors(t *testing.T) {
	tests := []struct {
		name  string
		flags syncFlags
		args  []string
	}{
		{"bad date", syncFlags{date: "30/01/2026"}, nil},
		{"range with one date", syncFlags{span: []string{"2026-01-26"}}, nil},
		{"range with three dates", syncFlags{span: []string{"2026-01-26", "2026-01-27", "2026-01-28"}}, nil},
		{"stray argument", syncFlags{today: true}, []string{"2026-01-30"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.flags.mode(tt.args)
			assert.Error(t, err)
		})
	}
}

func TestResolveDates_InvertedRangeOpensNothing(t *testing.T) {
	d := contracts.MustParseTradingDate
	dir := t.TempDir()

	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.SetOutputDir(dir)

	_, err = resolveDates(cfg, dateset.Range(d("2026-01-30"), d("2026-01-26")), time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, dateset.ErrInvalidRange))

	_, err = os.Stat(filepath.Join(dir, ".anchors.db"))
	assert.True(t, errors.Is(err, os.ErrNotExist), "no anchor db before the dates are known")
}

func TestResolveDates(t *testing.T) {
	d := contracts.MustParseTradingDate

	cfg, err := config.Load()
	require.NoError(t, err)

	plan, err := resolveDates(cfg, dateset.Range(d("2026-01-26"), d("2026-01-30")), time.Now())
	require.NoError(t, err)
	assert.Len(t, plan.Dates, 5)
}

func TestParseKinds(t *testing.T) {
	kinds, err := parseKinds([]string{"WEBPXTICK_DT", "tc"})
	require.NoError(t, err)
	assert.Equal(t, []contracts.FileKind{contracts.TickData, contracts.TradeCancellation}, kinds)

	kinds, err = parseKinds(nil)
	require.NoError(t, err)
	assert.Empty(t, kinds)

	_, err = parseKinds([]string{"ORDERBOOK"})
	assert.Error(t, err)
}

func TestParseAnchor(t *testing.T) {
	a, err := parseAnchor([]string{"tick", "2026-02-02", "4184"})
	require.NoError(t, err)
	assert.Equal(t, contracts.SeriesTick, a.Series)
	assert.Equal(t, "2026-02-02", a.Date.String())
	assert.Equal(t, 4184, a.ID)

	_, err = parseAnchor([]string{"bogus", "2026-02-02", "4184"})
	assert.Error(t, err)
	_, err = parseAnchor([]string{"tc", "2026-02-02", "x"})
	assert.Error(t, err)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.0 KiB", FormatBytes(1024))
	assert.Equal(t, "1.5 MiB", FormatBytes(1536*1024))
}

func TestVisibleLen(t *testing.T) {
	assert.Equal(t, 6, visibleLen("failed"))
	assert.Equal(t, 6, visibleLen("\x1b[31mfailed\x1b[0m"))
}
