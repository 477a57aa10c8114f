package contracts

import (
	"fmt"
	"time"
)

const (
	dateLayout    = "2006-01-02"
	compactLayout = "20060102"
)

// TradingDate is a calendar date keyed at UTC midnight.
// Comparable with == and safe as a map key.
// ⭐ SSOT: 거래일 표현은 이 타입으로 통일
type TradingDate struct {
	t time.Time
}

// NewTradingDate builds a date from its parts
func NewTradingDate(year int, month time.Month, day int) TradingDate {
	return TradingDate{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's own location
func DateOf(t time.Time) TradingDate {
	y, m, d := t.Date()
	return NewTradingDate(y, m, d)
}

// ParseTradingDate parses YYYY-MM-DD
func ParseTradingDate(s string) (TradingDate, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return TradingDate{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", s, err)
	}
	return DateOf(t), nil
}

// MustParseTradingDate is ParseTradingDate for constants and tests
func MustParseTradingDate(s string) TradingDate {
	d, err := ParseTradingDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// String returns YYYY-MM-DD (folder name)
func (d TradingDate) String() string {
	return d.t.Format(dateLayout)
}

// Compact returns YYYYMMDD (file name component)
func (d TradingDate) Compact() string {
	return d.t.Format(compactLayout)
}

// Time returns the underlying UTC midnight
func (d TradingDate) Time() time.Time {
	return d.t
}

// IsZero reports whether d is the zero date
func (d TradingDate) IsZero() bool {
	return d.t.IsZero()
}

// AddDays shifts d by n calendar days
func (d TradingDate) AddDays(n int) TradingDate {
	return TradingDate{t: d.t.AddDate(0, 0, n)}
}

// Before reports whether d is strictly earlier than o
func (d TradingDate) Before(o TradingDate) bool {
	return d.t.Before(o.t)
}

// After reports whether d is strictly later than o
func (d TradingDate) After(o TradingDate) bool {
	return d.t.After(o.t)
}

// Weekday returns the day of week
func (d TradingDate) Weekday() time.Weekday {
	return d.t.Weekday()
}

// IsWeekend reports Saturday or Sunday
func (d TradingDate) IsWeekend() bool {
	wd := d.t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// MarshalText implements encoding.TextMarshaler
func (d TradingDate) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *TradingDate) UnmarshalText(text []byte) error {
	parsed, err := ParseTradingDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Calendar decides which dates the exchange is known to be closed.
// Weekends are always closed; holidays only when explicitly configured.
type Calendar struct {
	holidays map[TradingDate]struct{}
}

// NewCalendar creates a calendar with an explicit holiday list
func NewCalendar(holidays ...TradingDate) Calendar {
	set := make(map[TradingDate]struct{}, len(holidays))
	for _, h := range holidays {
		set[h] = struct{}{}
	}
	return Calendar{holidays: set}
}

// ParseCalendar builds a calendar from YYYY-MM-DD strings
func ParseCalendar(holidays []string) (Calendar, error) {
	dates := make([]TradingDate, 0, len(holidays))
	for _, h := range holidays {
		d, err := ParseTradingDate(h)
		if err != nil {
			return Calendar{}, fmt.Errorf("parse holiday: %w", err)
		}
		dates = append(dates, d)
	}
	return NewCalendar(dates...), nil
}

// IsHoliday reports a configured holiday
func (c Calendar) IsHoliday(d TradingDate) bool {
	_, ok := c.holidays[d]
	return ok
}

// IsClosed reports a weekend or configured holiday
func (c Calendar) IsClosed(d TradingDate) bool {
	return d.IsWeekend() || c.IsHoliday(d)
}

// TradingDaysBetween counts open days in (from, to].
// The result is negative when to is before from.
func (c Calendar) TradingDaysBetween(from, to TradingDate) int {
	if to.Before(from) {
		return -c.TradingDaysBetween(to, from)
	}

	n := 0
	for d := from.AddDays(1); !d.After(to); d = d.AddDays(1) {
		if !c.IsClosed(d) {
			n++
		}
	}
	return n
}
