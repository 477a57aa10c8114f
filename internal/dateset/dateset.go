// Package dateset turns a user intent into an ordered list of candidate
// trading dates. It only proposes dates; deciding what is missing on disk
// is the syncer's job.
package dateset

import (
	"errors"
	"fmt"
	"time"

	"github.com/wonny/sgxsync/internal/contracts"
)

var (
	// ErrInvalidRange is returned when a range starts after it ends
	ErrInvalidRange = errors.New("invalid range: start is after end")
	// ErrInvalidBackfill is returned for a non-positive backfill window
	ErrInvalidBackfill = errors.New("invalid backfill: day count must be positive")
)

// Kind identifies the intent
type Kind int

const (
	KindToday Kind = iota
	KindExplicit
	KindRange
	KindBackfill
)

func (k Kind) String() string {
	switch k {
	case KindToday:
		return "today"
	case KindExplicit:
		return "date"
	case KindRange:
		return "range"
	case KindBackfill:
		return "backfill"
	default:
		return "unknown"
	}
}

// Mode is a resolved user intent
type Mode struct {
	Kind  Kind
	Date  contracts.TradingDate // KindExplicit
	Start contracts.TradingDate // KindRange
	End   contracts.TradingDate // KindRange
	Days  int                   // KindBackfill
}

// Today targets the current date
func Today() Mode { return Mode{Kind: KindToday} }

// Explicit targets one user-named date
func Explicit(d contracts.TradingDate) Mode { return Mode{Kind: KindExplicit, Date: d} }

// Range targets every date in [start, end]
func Range(start, end contracts.TradingDate) Mode {
	return Mode{Kind: KindRange, Start: start, End: end}
}

// Backfill targets the last n days
func Backfill(n int) Mode { return Mode{Kind: KindBackfill, Days: n} }

func (m Mode) String() string {
	switch m.Kind {
	case KindExplicit:
		return fmt.Sprintf("date %s", m.Date)
	case KindRange:
		return fmt.Sprintf("range %s..%s", m.Start, m.End)
	case KindBackfill:
		return fmt.Sprintf("backfill %d", m.Days)
	default:
		return m.Kind.String()
	}
}

// WeekendPolicy decides what a range does with closed days
type WeekendPolicy int

const (
	// WeekendsLast keeps closed days but orders them after open days
	WeekendsLast WeekendPolicy = iota
	// WeekendsSkip drops closed days
	WeekendsSkip
)

// ParseWeekendPolicy accepts "last" or "skip"
func ParseWeekendPolicy(s string) (WeekendPolicy, error) {
	switch s {
	case "last", "":
		return WeekendsLast, nil
	case "skip":
		return WeekendsSkip, nil
	default:
		return 0, fmt.Errorf("unknown weekend policy %q (valid: last, skip)", s)
	}
}

// Options carries everything Resolve needs besides the mode
type Options struct {
	Now                  time.Time
	Calendar             contracts.Calendar
	WeekendPolicy        WeekendPolicy
	BackfillIncludeToday bool
}

// Advisory is a non-blocking note about a manually targeted date
type Advisory struct {
	Date    contracts.TradingDate
	Message string
}

// Result is the ordered date set plus advisories for the caller to log
type Result struct {
	Dates      []contracts.TradingDate
	Advisories []Advisory
}

// Resolve produces candidate dates, newest first.
// ⭐ SSOT: 대상 날짜 목록 계산은 이 함수에서만
func Resolve(mode Mode, opts Options) (Result, error) {
	today := contracts.DateOf(opts.Now)

	switch mode.Kind {
	case KindToday:
		return single(today, opts.Calendar), nil

	case KindExplicit:
		return single(mode.Date, opts.Calendar), nil

	case KindRange:
		if mode.Start.After(mode.End) {
			return Result{}, fmt.Errorf("%w: %s > %s", ErrInvalidRange, mode.Start, mode.End)
		}
		return rangeDates(mode.Start, mode.End, opts), nil

	case KindBackfill:
		if mode.Days <= 0 {
			return Result{}, fmt.Errorf("%w: got %d", ErrInvalidBackfill, mode.Days)
		}
		return backfillDates(today, mode.Days, opts), nil

	default:
		return Result{}, fmt.Errorf("unknown mode %d", mode.Kind)
	}
}

// single never blocks on a closed day: manual recovery may target any date
func single(d contracts.TradingDate, cal contracts.Calendar) Result {
	res := Result{Dates: []contracts.TradingDate{d}}
	if adv, ok := advise(d, cal); ok {
		res.Advisories = append(res.Advisories, adv)
	}
	return res
}

func rangeDates(start, end contracts.TradingDate, opts Options) Result {
	var open, closed []contracts.TradingDate

	for d := end; !d.Before(start); d = d.AddDays(-1) {
		if opts.Calendar.IsClosed(d) {
			closed = append(closed, d)
			continue
		}
		open = append(open, d)
	}

	res := Result{Dates: open}
	if opts.WeekendPolicy == WeekendsLast {
		res.Dates = append(res.Dates, closed...)
		for _, d := range closed {
			adv, _ := advise(d, opts.Calendar)
			res.Advisories = append(res.Advisories, adv)
		}
	}
	return res
}

func backfillDates(today contracts.TradingDate, n int, opts Options) Result {
	last := today.AddDays(-1)
	if opts.BackfillIncludeToday {
		last = today
	}

	var res Result
	for i := 0; i < n; i++ {
		d := last.AddDays(-i)
		if opts.Calendar.IsClosed(d) {
			continue
		}
		res.Dates = append(res.Dates, d)
	}
	return res
}

func advise(d contracts.TradingDate, cal contracts.Calendar) (Advisory, bool) {
	switch {
	case d.IsWeekend():
		return Advisory{Date: d, Message: fmt.Sprintf("%s is a %s; files are usually not published", d, d.Weekday())}, true
	case cal.IsHoliday(d):
		return Advisory{Date: d, Message: fmt.Sprintf("%s is a configured holiday", d)}, true
	default:
		return Advisory{}, false
	}
}
