package contracts

import (
	"fmt"
	"strings"
)

// FileKind is one of the four daily SGX derivatives files
type FileKind int

const (
	TickData FileKind = iota
	TickDataStructure
	TradeCancellation
	TradeCancellationStructure
)

// AllKinds lists every kind in download order (data files first)
var AllKinds = []FileKind{TickData, TradeCancellation, TickDataStructure, TradeCancellationStructure}

// Strategy tells the URL resolver how to locate a kind
type Strategy int

const (
	// StrategyDirect yields one deterministic URL
	StrategyDirect Strategy = iota
	// StrategyIDScanned probes a window of download IDs
	StrategyIDScanned
)

func (s Strategy) String() string {
	if s == StrategyIDScanned {
		return "id_scanned"
	}
	return "direct"
}

// Series groups kinds that share one download-ID sequence on the site
type Series string

const (
	SeriesTick Series = "tick"
	SeriesTC   Series = "tc"
)

// AllSeries lists the known ID sequences
var AllSeries = []Series{SeriesTick, SeriesTC}

// ParseSeries validates a series name
func ParseSeries(s string) (Series, error) {
	for _, series := range AllSeries {
		if string(series) == s {
			return series, nil
		}
	}
	return "", fmt.Errorf("unknown series %q (valid: tick, tc)", s)
}

type kindSpec struct {
	code        string
	local       string // {date} -> YYYYMMDD
	remote      string
	series      Series
	strategy    Strategy
	description string
}

// ⭐ SSOT: 파일 종류별 이름/전략 테이블
var kindTable = map[FileKind]kindSpec{
	TickData: {
		code:        "WEBPXTICK_DT",
		local:       "WEBPXTICK_DT-{date}.zip",
		remote:      "WEBPXTICK_DT-{date}.zip",
		series:      SeriesTick,
		strategy:    StrategyIDScanned,
		description: "Tick data (Time and Sales)",
	},
	TickDataStructure: {
		code:        "TickData_structure",
		local:       "TickData_structure.dat",
		remote:      "TickData_structure.dat",
		series:      SeriesTick,
		strategy:    StrategyDirect,
		description: "Tick data structure specification",
	},
	TradeCancellation: {
		code:        "TC",
		local:       "TC_{date}.txt",
		remote:      "TC.txt",
		series:      SeriesTC,
		strategy:    StrategyIDScanned,
		description: "Trade Cancellation data",
	},
	TradeCancellationStructure: {
		code:        "TC_structure",
		local:       "TC_structure.dat",
		remote:      "TC_structure.dat",
		series:      SeriesTC,
		strategy:    StrategyDirect,
		description: "Trade Cancellation structure specification",
	},
}

// ParseFileKind accepts the kind code, case-insensitively
func ParseFileKind(s string) (FileKind, error) {
	for _, k := range AllKinds {
		if strings.EqualFold(kindTable[k].code, s) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown file kind %q", s)
}

// Valid reports whether k is one of the four kinds
func (k FileKind) Valid() bool {
	_, ok := kindTable[k]
	return ok
}

func (k FileKind) String() string {
	if spec, ok := kindTable[k]; ok {
		return spec.code
	}
	return fmt.Sprintf("FileKind(%d)", int(k))
}

// Filename is the local file name stored under the date folder
func (k FileKind) Filename(d TradingDate) string {
	return expand(kindTable[k].local, d)
}

// RemoteName is the file name as published on the site
func (k FileKind) RemoteName(d TradingDate) string {
	return expand(kindTable[k].remote, d)
}

// Series returns the ID sequence the kind is published under
func (k FileKind) Series() Series {
	return kindTable[k].series
}

// Strategy returns how URLs for the kind are resolved
func (k FileKind) Strategy() Strategy {
	return kindTable[k].strategy
}

// Description is a human-readable label
func (k FileKind) Description() string {
	return kindTable[k].description
}

func expand(template string, d TradingDate) string {
	return strings.ReplaceAll(template, "{date}", d.Compact())
}

// DownloadTarget is the unit of work: one kind for one date
type DownloadTarget struct {
	Date TradingDate
	Kind FileKind
}

func (t DownloadTarget) String() string {
	return t.Date.String() + "/" + t.Kind.String()
}
